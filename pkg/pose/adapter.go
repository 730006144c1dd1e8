package pose

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
)

// Model is a pose estimation backend.
type Model interface {
	// Name identifies the runtime for logs and errors.
	Name() string

	// Load initializes the network. Called at most once at a time by the Adapter.
	Load(ctx context.Context) error

	// Infer returns the landmarks of the most prominent person in the frame.
	// A frame without a person yields an empty set, not an error.
	Infer(ctx context.Context, frame Frame) (*LandmarkSet, error)

	// Close releases resources
	Close() error
}

// Adapter guards a Model with a shared load and a readiness flag.
type Adapter struct {
	model  Model
	logger *slog.Logger

	loads singleflight.Group
	ready atomic.Bool

	mu     sync.Mutex // Protects closed
	closed bool
}

// NewAdapter wraps a backend. The model is not loaded until LoadModel.
func NewAdapter(model Model, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{
		model:  model,
		logger: logger.With("component", "pose", "backend", model.Name()),
	}
}

// LoadModel loads the backend. Concurrent callers share one in-flight load;
// calling after a successful load is a no-op. Failures are *ModelLoadError
// and may be retried.
func (a *Adapter) LoadModel(ctx context.Context) error {
	if a.ready.Load() {
		return nil
	}

	_, err, shared := a.loads.Do("load", func() (interface{}, error) {
		if a.ready.Load() {
			return nil, nil
		}

		start := time.Now()
		if err := a.model.Load(ctx); err != nil {
			var loadErr *ModelLoadError
			if !errors.As(err, &loadErr) {
				err = &ModelLoadError{Backend: a.model.Name(), Err: err}
			}
			a.logger.Warn("pose model load failed", "error", err)
			return nil, err
		}

		a.ready.Store(true)
		a.logger.Info("pose model loaded", "took", time.Since(start).Round(time.Millisecond))
		return nil, nil
	})
	if shared {
		a.logger.Debug("joined in-flight model load")
	}
	return err
}

// IsModelReady reports whether a load has completed successfully.
func (a *Adapter) IsModelReady() bool {
	return a.ready.Load()
}

// Detect runs the model on one frame. Failures are *InferenceError.
func (a *Adapter) Detect(ctx context.Context, frame Frame) (*LandmarkSet, error) {
	if !a.ready.Load() {
		return nil, ErrModelNotReady
	}
	if frame.Empty() {
		return nil, &InferenceError{Backend: a.model.Name(), Err: ErrEmptyFrame}
	}

	landmarks, err := a.model.Infer(ctx, frame)
	if err != nil {
		var inferErr *InferenceError
		if !errors.As(err, &inferErr) {
			err = &InferenceError{Backend: a.model.Name(), Err: err}
		}
		return nil, err
	}
	if landmarks == nil {
		landmarks = &LandmarkSet{}
	}
	if landmarks.Timestamp.IsZero() {
		landmarks.Timestamp = frame.CapturedAt
	}
	if landmarks.Width == 0 && landmarks.Height == 0 {
		landmarks.Width, landmarks.Height = frame.Size()
	}
	return landmarks, nil
}

// Close releases the backend. The adapter is not ready afterwards.
func (a *Adapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil
	}
	a.closed = true
	a.ready.Store(false)
	return a.model.Close()
}
