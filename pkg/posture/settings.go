package posture

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Settings are the user-tunable thresholds for classification and alerts.
// They can be modified via the settings API at runtime.
type Settings struct {
	// ShoulderAlignmentThreshold is the allowed deviation of shoulder tilt
	// from baseline, in degrees.
	ShoulderAlignmentThreshold float64 `json:"shoulder_alignment_threshold"`

	// SlouchThreshold is the allowed deviation of neck angle from baseline,
	// in degrees.
	SlouchThreshold float64 `json:"slouch_threshold"`

	// DetectionConfidence is the minimum keypoint confidence (0-1).
	// Equal counts as present.
	DetectionConfidence float64 `json:"detection_confidence"`

	EnableNotifications bool `json:"enable_notifications"`

	// NotificationInterval is the alert cooldown in milliseconds.
	NotificationInterval int `json:"notification_interval"`

	// DetectionInterval is how often the monitor classifies, in milliseconds.
	DetectionInterval int `json:"detection_interval"`
}

// Limits for Validate.
const (
	MaxThresholdDeg         = 90.0
	MinNotificationInterval = 1000
	MaxNotificationInterval = 24 * 60 * 60 * 1000
	MinDetectionInterval    = 100
	MaxDetectionInterval    = 60 * 1000
)

// DefaultSettings returns the recommended settings.
func DefaultSettings() Settings {
	return Settings{
		ShoulderAlignmentThreshold: 10,
		SlouchThreshold:            15,
		DetectionConfidence:        0.5,
		EnableNotifications:        true,
		NotificationInterval:       60000, // 1 minute
		DetectionInterval:          1000,
	}
}

// Cooldown returns NotificationInterval as a duration.
func (s Settings) Cooldown() time.Duration {
	return time.Duration(s.NotificationInterval) * time.Millisecond
}

// Interval returns DetectionInterval as a duration.
func (s Settings) Interval() time.Duration {
	return time.Duration(s.DetectionInterval) * time.Millisecond
}

// Validate checks if the settings are within valid ranges.
// Returns a list of validation errors, or nil if valid.
func (s *Settings) Validate() []string {
	var errors []string

	if s.ShoulderAlignmentThreshold <= 0 || s.ShoulderAlignmentThreshold > MaxThresholdDeg {
		errors = append(errors, "shoulder_alignment_threshold must be between 0 and 90")
	}
	if s.SlouchThreshold <= 0 || s.SlouchThreshold > MaxThresholdDeg {
		errors = append(errors, "slouch_threshold must be between 0 and 90")
	}
	if s.DetectionConfidence < 0 || s.DetectionConfidence > 1 {
		errors = append(errors, "detection_confidence must be between 0 and 1")
	}
	if s.NotificationInterval < MinNotificationInterval || s.NotificationInterval > MaxNotificationInterval {
		errors = append(errors, fmt.Sprintf("notification_interval must be between %d and %d ms",
			MinNotificationInterval, MaxNotificationInterval))
	}
	if s.DetectionInterval < MinDetectionInterval || s.DetectionInterval > MaxDetectionInterval {
		errors = append(errors, fmt.Sprintf("detection_interval must be between %d and %d ms",
			MinDetectionInterval, MaxDetectionInterval))
	}

	return errors
}

// SettingsPath returns the settings file inside dataDir.
func SettingsPath(dataDir string) string {
	return filepath.Join(dataDir, "config.json")
}

// LoadSettings reads settings from path.
// Returns defaults if the file doesn't exist. Fields absent from the file
// keep their default values; an invalid file is an error.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return s, fmt.Errorf("read settings: %w", err)
	}

	if err := json.Unmarshal(data, &s); err != nil {
		return DefaultSettings(), fmt.Errorf("parse settings %s: %w", path, err)
	}
	if errs := s.Validate(); len(errs) > 0 {
		return DefaultSettings(), fmt.Errorf("invalid settings in %s: %v", path, errs)
	}
	return s, nil
}

// SaveSettings writes settings to path, creating the directory if needed.
func SaveSettings(path string, s Settings) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}
