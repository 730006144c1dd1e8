// Package config provides environment helpers for go-posture commands.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// Default runtime configuration.
const (
	DefaultPort      = "8088"
	DefaultModelPath = "models/yolov8n-pose.onnx"
	DefaultDirName   = ".posture"
)

// DataDir returns the directory holding settings and calibration data.
// POSTURE_DATA_DIR wins, then ~/.posture, then ./.posture.
func DataDir() string {
	if dir := os.Getenv("POSTURE_DATA_DIR"); dir != "" {
		return dir
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return DefaultDirName
	}
	return filepath.Join(homeDir, DefaultDirName)
}

// ModelPath returns the pose model path from POSTURE_MODEL or the default.
func ModelPath() string {
	if p := os.Getenv("POSTURE_MODEL"); p != "" {
		return p
	}
	return DefaultModelPath
}

// CameraID returns the webcam device index from POSTURE_CAMERA.
// Falls back to the provided default if unset or not a number.
func CameraID(defaultID int) int {
	v := os.Getenv("POSTURE_CAMERA")
	if v == "" {
		return defaultID
	}
	id, err := strconv.Atoi(v)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: ignoring POSTURE_CAMERA=%q (not a number)\n", v)
		return defaultID
	}
	return id
}

// Port returns the dashboard port from POSTURE_PORT or the default.
func Port() string {
	if port := os.Getenv("POSTURE_PORT"); port != "" {
		return port
	}
	return DefaultPort
}

// RedisAddr returns POSTURE_REDIS_ADDR. Empty means file storage.
func RedisAddr() string {
	return os.Getenv("POSTURE_REDIS_ADDR")
}

// ListenAddr returns the loopback address the dashboard binds to.
func ListenAddr(port string) string {
	return fmt.Sprintf("127.0.0.1:%s", port)
}
