package camera

// Mode is a named capture resolution offered in the dashboard.
type Mode struct {
	Name      string `json:"name"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	Framerate int    `json:"framerate"`
}

// On returns the mode as a config for the given device.
func (m Mode) On(deviceID int) Config {
	return Config{DeviceID: deviceID, Width: m.Width, Height: m.Height, Framerate: m.Framerate}
}

// Pose inference downsamples to 640px anyway, so higher modes only help
// when the user sits far from the camera.
var modes = []Mode{
	{Name: "default", Width: 640, Height: 480, Framerate: 15},
	{Name: "low", Width: 320, Height: 240, Framerate: 5},
	{Name: "720p", Width: 1280, Height: 720, Framerate: 15},
	{Name: "1080p", Width: 1920, Height: 1080, Framerate: 15},
}

// Modes lists the capture modes in display order.
func Modes() []Mode {
	out := make([]Mode, len(modes))
	copy(out, modes)
	return out
}

// LookupMode finds a mode by name.
func LookupMode(name string) (Mode, bool) {
	for _, m := range modes {
		if m.Name == name {
			return m, true
		}
	}
	return Mode{}, false
}
