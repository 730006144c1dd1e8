package posture

// Preset names for common configurations
const (
	PresetDefault = "default"
	PresetStrict  = "strict"
	PresetRelaxed = "relaxed"
	PresetQuiet   = "quiet"
)

// Presets returns all available preset settings.
func Presets() map[string]Settings {
	return map[string]Settings{
		PresetDefault: DefaultSettings(),
		PresetStrict:  StrictSettings(),
		PresetRelaxed: RelaxedSettings(),
		PresetQuiet:   QuietSettings(),
	}
}

// PresetNames returns the list of available preset names.
func PresetNames() []string {
	return []string{
		PresetDefault,
		PresetStrict,
		PresetRelaxed,
		PresetQuiet,
	}
}

// GetPreset returns preset settings by name, or nil if not found.
func GetPreset(name string) *Settings {
	presets := Presets()
	if s, ok := presets[name]; ok {
		return &s
	}
	return nil
}

// StrictSettings flags small deviations and alerts often.
func StrictSettings() Settings {
	s := DefaultSettings()
	s.ShoulderAlignmentThreshold = 5
	s.SlouchThreshold = 8
	s.NotificationInterval = 30000
	return s
}

// RelaxedSettings tolerates larger deviations.
func RelaxedSettings() Settings {
	s := DefaultSettings()
	s.ShoulderAlignmentThreshold = 15
	s.SlouchThreshold = 25
	s.NotificationInterval = 5 * 60000
	return s
}

// QuietSettings keeps classifying but never alerts.
func QuietSettings() Settings {
	s := DefaultSettings()
	s.EnableNotifications = false
	s.DetectionInterval = 2000
	return s
}
