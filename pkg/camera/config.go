// Package camera provides the webcam frame source and its runtime-configurable
// capture settings.
package camera

import "fmt"

// Config holds the webcam capture parameters.
// These can be modified via the camera API at runtime.
type Config struct {
	// DeviceID is the OS camera index (0 is the built-in webcam on most laptops).
	DeviceID int `json:"device_id"`

	Width     int `json:"width"`     // Frame width in pixels
	Height    int `json:"height"`    // Frame height in pixels
	Framerate int `json:"framerate"` // Requested FPS
}

// Capture limits
const (
	MinWidth     = 160
	MinHeight    = 120
	MaxWidth     = 3840
	MaxHeight    = 2160
	MaxFramerate = 60
	MaxDeviceID  = 63
)

// DefaultConfig returns the "default" mode on the built-in webcam.
func DefaultConfig() Config {
	return modes[0].On(0)
}

// Validate returns one message per out-of-range field, or nil.
func (c *Config) Validate() []string {
	var errs []string
	check := func(name string, v, lo, hi int) {
		if v < lo || v > hi {
			errs = append(errs, fmt.Sprintf("%s must be between %d and %d", name, lo, hi))
		}
	}

	check("device_id", c.DeviceID, 0, MaxDeviceID)
	check("width", c.Width, MinWidth, MaxWidth)
	check("height", c.Height, MinHeight, MaxHeight)
	check("framerate", c.Framerate, 1, MaxFramerate)
	return errs
}
