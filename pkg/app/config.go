// Package app wires the posture pipeline together and manages its lifecycle.
package app

import (
	"fmt"
	"time"

	"github.com/teslashibe/go-posture/internal/config"
)

// Pose backends.
const (
	BackendGoCV = "gocv"
	BackendORT  = "onnxruntime"
)

// DefaultLoadRetry is the delay between model load attempts.
const DefaultLoadRetry = 5 * time.Second

// Config holds all configuration for the posture application.
// Flag parsing is done in cmd/posture/main.go; this struct is data only.
type Config struct {
	// Debug enables verbose debug logging.
	Debug bool

	// DebugFrames logs every processed frame.
	DebugFrames bool

	// DataDir holds config.json and calibration.json.
	DataDir string

	// Pose model.
	ModelPath      string
	Backend        string // "gocv" or "onnxruntime"
	RuntimeLibrary string // onnxruntime shared library
	LoadRetry      time.Duration

	// Frame source. ImagePath replaces the webcam with a still image.
	CameraID  int
	ImagePath string

	// Dashboard port, bound on loopback only.
	Port string

	// Storage. RedisAddr selects the Redis store; Ephemeral keeps the
	// baseline in memory only.
	RedisAddr string
	Ephemeral bool

	// Desktop enables OS notifications.
	Desktop bool
}

// DefaultConfig returns defaults with environment overrides applied.
func DefaultConfig() Config {
	return Config{
		DataDir:        config.DataDir(),
		ModelPath:      config.ModelPath(),
		Backend:        BackendGoCV,
		RuntimeLibrary: "onnxruntime.so",
		LoadRetry:      DefaultLoadRetry,
		CameraID:       config.CameraID(0),
		Port:           config.Port(),
		RedisAddr:      config.RedisAddr(),
		Desktop:        true,
	}
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Backend != BackendGoCV && c.Backend != BackendORT {
		return &ConfigError{Field: "Backend", Message: fmt.Sprintf("unknown backend %q (want gocv or onnxruntime)", c.Backend)}
	}
	if c.ModelPath == "" {
		return &ConfigError{Field: "ModelPath", Message: "model path is required (--model or POSTURE_MODEL)"}
	}
	if c.DataDir == "" && !c.Ephemeral {
		return &ConfigError{Field: "DataDir", Message: "data directory is required"}
	}
	if c.CameraID < 0 {
		return &ConfigError{Field: "CameraID", Message: "camera index must not be negative"}
	}
	if c.Port == "" {
		return &ConfigError{Field: "Port", Message: "port is required"}
	}
	if c.LoadRetry <= 0 {
		return &ConfigError{Field: "LoadRetry", Message: "load retry delay must be positive"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}
