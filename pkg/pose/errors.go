package pose

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions.
var (
	// ErrModelNotReady is returned when Detect is called before a successful load.
	// Callers are expected to gate on IsModelReady; seeing this is a bug.
	ErrModelNotReady = errors.New("pose: model not ready")

	// ErrEmptyFrame is returned for frames without pixels.
	ErrEmptyFrame = errors.New("pose: empty frame")

	// ErrModelNotFound is returned when the model file does not exist.
	ErrModelNotFound = errors.New("pose: model file not found")

	// ErrUnexpectedOutput is returned when the network output has the wrong shape.
	ErrUnexpectedOutput = errors.New("pose: unexpected model output shape")
)

// ModelLoadError reports a failed model initialization. The load can be retried.
type ModelLoadError struct {
	// Backend names the model runtime (gocv, onnxruntime, mock).
	Backend string

	// Path is the model file that failed to load.
	Path string

	Err error
}

// Error implements the error interface.
func (e *ModelLoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("pose [%s]: load %s: %v", e.Backend, e.Path, e.Err)
	}
	return fmt.Sprintf("pose [%s]: load: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error.
func (e *ModelLoadError) Unwrap() error {
	return e.Err
}

// InferenceError reports a single-frame detection failure.
type InferenceError struct {
	Backend string
	Err     error
}

// Error implements the error interface.
func (e *InferenceError) Error() string {
	return fmt.Sprintf("pose [%s]: inference: %v", e.Backend, e.Err)
}

// Unwrap returns the underlying error.
func (e *InferenceError) Unwrap() error {
	return e.Err
}

// IsModelLoadError reports whether err is or wraps a ModelLoadError.
func IsModelLoadError(err error) bool {
	var target *ModelLoadError
	return errors.As(err, &target)
}

// IsInferenceError reports whether err is or wraps an InferenceError.
func IsInferenceError(err error) bool {
	var target *InferenceError
	return errors.As(err, &target)
}
