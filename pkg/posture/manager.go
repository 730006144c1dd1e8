package posture

import (
	"encoding/json"
	"fmt"
	"math"
	"sync"
)

// SettingsSource supplies the current settings. The service reads it on
// every call so changes apply to the next frame.
type SettingsSource interface {
	Settings() Settings
}

// StaticSettings is a fixed SettingsSource.
type StaticSettings Settings

// Settings implements SettingsSource.
func (s StaticSettings) Settings() Settings { return Settings(s) }

// Manager owns the live settings. It is the SettingsSource the service and
// monitor read from.
type Manager struct {
	mu       sync.RWMutex
	settings Settings

	// OnSettingsChange runs after every accepted change, typically to save it.
	OnSettingsChange func(s Settings) error
}

// NewManager creates a manager with the default settings.
func NewManager() *Manager {
	return NewManagerWith(DefaultSettings())
}

// NewManagerWith creates a manager starting from s.
func NewManagerWith(s Settings) *Manager {
	return &Manager{settings: s}
}

// Settings implements SettingsSource.
func (m *Manager) Settings() Settings {
	return m.GetSettings()
}

// GetSettings returns the current settings.
func (m *Manager) GetSettings() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.settings
}

// SetSettings validates and replaces the settings. The new settings stay in
// effect even if OnSettingsChange fails; that error wraps ErrSettingsNotSaved.
func (m *Manager) SetSettings(s Settings) error {
	if errs := s.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid settings: %v", errs)
	}

	m.mu.Lock()
	m.settings = s
	onChange := m.OnSettingsChange
	m.mu.Unlock()

	if onChange == nil {
		return nil
	}
	if err := onChange(s); err != nil {
		return fmt.Errorf("%w: %w", ErrSettingsNotSaved, err)
	}
	return nil
}

// fieldSetters decode one API field into the settings.
var fieldSetters = map[string]func(*Settings, interface{}) bool{
	"shoulder_alignment_threshold": func(s *Settings, v interface{}) bool {
		return setFloat(&s.ShoulderAlignmentThreshold, v)
	},
	"slouch_threshold": func(s *Settings, v interface{}) bool {
		return setFloat(&s.SlouchThreshold, v)
	},
	"detection_confidence": func(s *Settings, v interface{}) bool {
		return setFloat(&s.DetectionConfidence, v)
	},
	"notification_interval": func(s *Settings, v interface{}) bool {
		return setMillis(&s.NotificationInterval, v)
	},
	"detection_interval": func(s *Settings, v interface{}) bool {
		return setMillis(&s.DetectionInterval, v)
	},
	"enable_notifications": func(s *Settings, v interface{}) bool {
		b, ok := v.(bool)
		if ok {
			s.EnableNotifications = b
		}
		return ok
	},
}

// UpdateSettings applies a partial update keyed by the JSON field names.
// A "preset" entry replaces everything first; the other fields then
// override it. Unknown keys and wrongly typed values reject the whole update.
func (m *Manager) UpdateSettings(params map[string]interface{}) error {
	s := m.GetSettings()

	if raw, ok := params["preset"]; ok {
		name, _ := raw.(string)
		preset := GetPreset(name)
		if preset == nil {
			return fmt.Errorf("unknown preset %q", name)
		}
		s = *preset
	}

	for key, value := range params {
		if key == "preset" {
			continue
		}
		set, ok := fieldSetters[key]
		if !ok {
			return fmt.Errorf("unknown setting %q", key)
		}
		if !set(&s, value) {
			return fmt.Errorf("setting %q has the wrong type (%T)", key, value)
		}
	}

	return m.SetSettings(s)
}

func setFloat(dst *float64, v interface{}) bool {
	switch val := v.(type) {
	case float64:
		*dst = val
	case int:
		*dst = float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return false
		}
		*dst = f
	default:
		return false
	}
	return true
}

// setMillis accepts whole numbers of milliseconds only.
func setMillis(dst *int, v interface{}) bool {
	var f float64
	if !setFloat(&f, v) || f != math.Trunc(f) {
		return false
	}
	*dst = int(f)
	return true
}
