package pose

// Config holds pose backend configuration
type Config struct {
	ModelPath      string  // Path to YOLOv8-pose ONNX model
	MinPersonScore float64 // Minimum person score to report a skeleton (default 0.25)
	InputWidth     int     // Model input width
	InputHeight    int     // Model input height

	// RuntimeLibrary is the onnxruntime shared library, used by the ORT backend only.
	RuntimeLibrary string
}

// DefaultConfig returns production defaults for YOLOv8n-pose
func DefaultConfig() Config {
	return Config{
		ModelPath:      "models/yolov8n-pose.onnx",
		MinPersonScore: 0.25,
		InputWidth:     640,
		InputHeight:    640,
		RuntimeLibrary: "onnxruntime.so",
	}
}
