package camera

import (
	"encoding/json"
	"fmt"
	"sync"
)

// Applier switches a live source to a new capture configuration.
type Applier interface {
	Apply(cfg Config) error
}

// Manager owns the capture configuration the dashboard edits at runtime.
// A change is only kept if the source accepts it.
type Manager struct {
	mu      sync.Mutex
	config  Config
	applier Applier
}

// NewManager creates a manager with the default capture settings.
func NewManager(applier Applier) *Manager {
	return NewManagerWith(DefaultConfig(), applier)
}

// NewManagerWith creates a manager starting from cfg. applier may be nil.
func NewManagerWith(cfg Config, applier Applier) *Manager {
	return &Manager{config: cfg, applier: applier}
}

// GetConfig returns the active capture configuration.
func (m *Manager) GetConfig() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.config
}

// SetConfig validates cfg and hands it to the source. On failure the
// previous configuration stays active.
func (m *Manager) SetConfig(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("camera: invalid config: %v", errs)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.applier != nil {
		if err := m.applier.Apply(cfg); err != nil {
			if rollback := m.applier.Apply(m.config); rollback != nil {
				return fmt.Errorf("camera: apply %+v: %w (rollback: %v)", cfg, err, rollback)
			}
			return fmt.Errorf("camera: apply %+v: %w", cfg, err)
		}
	}
	m.config = cfg
	return nil
}

// setters maps API field names onto the config.
var setters = map[string]func(*Config, int){
	"device_id": func(c *Config, v int) { c.DeviceID = v },
	"width":     func(c *Config, v int) { c.Width = v },
	"height":    func(c *Config, v int) { c.Height = v },
	"framerate": func(c *Config, v int) { c.Framerate = v },
}

// UpdateConfig applies a partial update such as {"mode":"720p","framerate":30}.
// A mode is applied before the individual fields and never changes the device.
func (m *Manager) UpdateConfig(params map[string]interface{}) error {
	cfg := m.GetConfig()

	if raw, ok := params["mode"]; ok {
		name, _ := raw.(string)
		mode, found := LookupMode(name)
		if !found {
			return fmt.Errorf("camera: unknown mode %q", name)
		}
		cfg = mode.On(cfg.DeviceID)
	}

	for key, value := range params {
		if key == "mode" {
			continue
		}
		set, ok := setters[key]
		if !ok {
			return fmt.Errorf("camera: unknown field %q", key)
		}
		v, ok := toInt(value)
		if !ok {
			return fmt.Errorf("camera: %s must be a whole number", key)
		}
		set(&cfg, v)
	}

	return m.SetConfig(cfg)
}

func toInt(v interface{}) (int, bool) {
	switch val := v.(type) {
	case int:
		return val, true
	case float64:
		if val != float64(int(val)) {
			return 0, false
		}
		return int(val), true
	case json.Number:
		i, err := val.Int64()
		return int(i), err == nil
	}
	return 0, false
}
