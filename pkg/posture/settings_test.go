package posture

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultSettingsValid(t *testing.T) {
	s := DefaultSettings()
	if errs := s.Validate(); len(errs) > 0 {
		t.Errorf("default settings should be valid: %v", errs)
	}
	if s.Cooldown() != time.Minute {
		t.Errorf("expected 1m cooldown, got %v", s.Cooldown())
	}
	if s.Interval() != time.Second {
		t.Errorf("expected 1s detection interval, got %v", s.Interval())
	}
}

func TestPresetsValid(t *testing.T) {
	for _, name := range PresetNames() {
		s := GetPreset(name)
		if s == nil {
			t.Errorf("preset %s not found", name)
			continue
		}
		if errs := s.Validate(); len(errs) > 0 {
			t.Errorf("preset %s should be valid: %v", name, errs)
		}
	}
	if GetPreset("nonexistent") != nil {
		t.Error("GetPreset should return nil for unknown preset")
	}
	if len(Presets()) != len(PresetNames()) {
		t.Error("every preset should be listed by name")
	}
}

func TestSettingsValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Settings)
	}{
		{"zero shoulder threshold", func(s *Settings) { s.ShoulderAlignmentThreshold = 0 }},
		{"huge slouch threshold", func(s *Settings) { s.SlouchThreshold = 120 }},
		{"negative confidence", func(s *Settings) { s.DetectionConfidence = -0.1 }},
		{"confidence above one", func(s *Settings) { s.DetectionConfidence = 1.5 }},
		{"short cooldown", func(s *Settings) { s.NotificationInterval = 10 }},
		{"slow detection", func(s *Settings) { s.DetectionInterval = 120000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := DefaultSettings()
			tt.modify(&s)
			if errs := s.Validate(); len(errs) != 1 {
				t.Errorf("expected exactly one error, got %v", errs)
			}
		})
	}
}

func TestLoadSettings_MissingFile(t *testing.T) {
	s, err := LoadSettings(filepath.Join(t.TempDir(), "config.json"))
	if err != nil {
		t.Fatalf("missing file should not be an error: %v", err)
	}
	if s != DefaultSettings() {
		t.Errorf("expected defaults, got %+v", s)
	}
}

func TestSaveLoadSettings(t *testing.T) {
	path := SettingsPath(filepath.Join(t.TempDir(), "nested"))

	want := StrictSettings()
	want.EnableNotifications = false
	if err := SaveSettings(path, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestLoadSettings_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"slouch_threshold": 22}`), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := LoadSettings(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s.SlouchThreshold != 22 {
		t.Errorf("expected slouch threshold 22, got %v", s.SlouchThreshold)
	}
	if s.ShoulderAlignmentThreshold != DefaultSettings().ShoulderAlignmentThreshold {
		t.Error("unset fields should keep defaults")
	}
}

func TestLoadSettings_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.json")
	os.WriteFile(bad, []byte(`{not json`), 0644)
	if _, err := LoadSettings(bad); err == nil {
		t.Error("expected error for malformed file")
	}

	outOfRange := filepath.Join(dir, "range.json")
	os.WriteFile(outOfRange, []byte(`{"detection_confidence": 3}`), 0644)
	s, err := LoadSettings(outOfRange)
	if err == nil {
		t.Error("expected error for out-of-range values")
	}
	if s != DefaultSettings() {
		t.Error("invalid file should fall back to defaults")
	}
}

func TestManager_UpdateSettings(t *testing.T) {
	m := NewManager()

	var applied []Settings
	m.OnSettingsChange = func(s Settings) error {
		applied = append(applied, s)
		return nil
	}

	err := m.UpdateSettings(map[string]interface{}{
		"slouch_threshold":      float64(18),
		"notification_interval": float64(120000),
		"enable_notifications":  false,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	s := m.GetSettings()
	if s.SlouchThreshold != 18 || s.NotificationInterval != 120000 || s.EnableNotifications {
		t.Errorf("update not applied: %+v", s)
	}
	if len(applied) != 1 {
		t.Errorf("expected one change callback, got %d", len(applied))
	}
}

func TestManager_SaveFailureKeepsChange(t *testing.T) {
	m := NewManager()
	diskFull := errors.New("no space left on device")
	m.OnSettingsChange = func(Settings) error { return diskFull }

	err := m.UpdateSettings(map[string]interface{}{"slouch_threshold": 18})
	if !errors.Is(err, ErrSettingsNotSaved) || !errors.Is(err, diskFull) {
		t.Fatalf("expected unsaved error wrapping the cause, got %v", err)
	}
	if got := m.GetSettings().SlouchThreshold; got != 18 {
		t.Errorf("change should stay live after a failed save, got %v", got)
	}

	if err := m.UpdateSettings(map[string]interface{}{"volume": 3}); errors.Is(err, ErrSettingsNotSaved) {
		t.Error("rejected updates must not report as unsaved")
	}
}

func TestManager_PresetWithOverride(t *testing.T) {
	m := NewManager()

	err := m.UpdateSettings(map[string]interface{}{
		"preset":           PresetRelaxed,
		"slouch_threshold": 30,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	s := m.GetSettings()
	if s.ShoulderAlignmentThreshold != RelaxedSettings().ShoulderAlignmentThreshold {
		t.Error("preset should be applied")
	}
	if s.SlouchThreshold != 30 {
		t.Errorf("override should win over preset, got %v", s.SlouchThreshold)
	}
}

func TestManager_Rejects(t *testing.T) {
	m := NewManager()
	before := m.GetSettings()

	if err := m.UpdateSettings(map[string]interface{}{"preset": "turbo"}); err == nil {
		t.Error("expected error for unknown preset")
	}
	if err := m.UpdateSettings(map[string]interface{}{"volume": 3}); err == nil {
		t.Error("expected error for unknown key")
	}
	if err := m.UpdateSettings(map[string]interface{}{"detection_confidence": 2.0}); err == nil {
		t.Error("expected validation error")
	}
	if m.GetSettings() != before {
		t.Error("rejected updates must not change settings")
	}
}

func TestManager_RejectsWrongTypes(t *testing.T) {
	m := NewManager()
	before := m.GetSettings()

	bad := []map[string]interface{}{
		{"slouch_threshold": "high"},
		{"enable_notifications": 1},
		{"detection_interval": 1500.5},
		{"preset": 3},
	}
	for _, params := range bad {
		if err := m.UpdateSettings(params); err == nil {
			t.Errorf("expected error for %v", params)
		}
	}
	if m.GetSettings() != before {
		t.Error("rejected updates must not change settings")
	}
}

func TestManager_AcceptsJSONNumbers(t *testing.T) {
	m := NewManager()

	err := m.UpdateSettings(map[string]interface{}{
		"slouch_threshold":   json.Number("12.5"),
		"detection_interval": json.Number("2000"),
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	s := m.GetSettings()
	if s.SlouchThreshold != 12.5 || s.DetectionInterval != 2000 {
		t.Errorf("json numbers not applied: %+v", s)
	}
}

func TestStatus(t *testing.T) {
	if StatusShoulderMisaligned.String() != "shoulder_misaligned" {
		t.Error("unexpected status name")
	}
	if !StatusSlouching.Bad() || StatusGood.Bad() || StatusUnknown.Bad() {
		t.Error("only slouching and misaligned are bad")
	}
}
