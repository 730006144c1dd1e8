package pose

import (
	"context"
	"sync"
)

// Mock implements Model for testing.
type Mock struct {
	// LoadFunc is called when Load is invoked.
	LoadFunc func(ctx context.Context) error

	// InferFunc is called when Infer is invoked.
	InferFunc func(ctx context.Context, frame Frame) (*LandmarkSet, error)

	mu         sync.Mutex
	loadCalls  int
	inferCalls int
}

// NewMock creates a mock that loads successfully and returns the given set.
func NewMock(set *LandmarkSet) *Mock {
	return &Mock{
		LoadFunc: func(ctx context.Context) error { return nil },
		InferFunc: func(ctx context.Context, frame Frame) (*LandmarkSet, error) {
			if set == nil {
				return &LandmarkSet{}, nil
			}
			cp := *set
			cp.Keypoints = append([]Keypoint(nil), set.Keypoints...)
			return &cp, nil
		},
	}
}

// Name implements Model.
func (m *Mock) Name() string { return "mock" }

// Load calls LoadFunc and records the call.
func (m *Mock) Load(ctx context.Context) error {
	m.mu.Lock()
	m.loadCalls++
	m.mu.Unlock()
	if m.LoadFunc != nil {
		return m.LoadFunc(ctx)
	}
	return nil
}

// Infer calls InferFunc and records the call.
func (m *Mock) Infer(ctx context.Context, frame Frame) (*LandmarkSet, error) {
	m.mu.Lock()
	m.inferCalls++
	m.mu.Unlock()
	if m.InferFunc != nil {
		return m.InferFunc(ctx, frame)
	}
	return &LandmarkSet{}, nil
}

// Close implements Model.
func (m *Mock) Close() error { return nil }

// LoadCalls returns how many times Load ran.
func (m *Mock) LoadCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loadCalls
}

// InferCalls returns how many times Infer ran.
func (m *Mock) InferCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inferCalls
}
