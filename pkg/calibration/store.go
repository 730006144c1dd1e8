package calibration

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Store persists a single baseline per device.
type Store interface {
	// Load returns the stored baseline, or nil when not calibrated.
	Load(ctx context.Context) (*Baseline, error)

	// Save overwrites any existing baseline and marks the device calibrated.
	Save(ctx context.Context, b Baseline) error

	// Clear removes the baseline and marks the device not calibrated.
	// Clearing an empty store is not an error.
	Clear(ctx context.Context) error
}

// record is the persisted structure shared by all backends.
type record struct {
	Version    int       `json:"version"`
	Calibrated bool      `json:"calibrated"`
	UpdatedAt  string    `json:"updated_at"`
	Baseline   *Baseline `json:"baseline,omitempty"`
}

const currentVersion = 1

func newRecord(b *Baseline) record {
	return record{
		Version:    currentVersion,
		Calibrated: b != nil,
		UpdatedAt:  time.Now().Format(time.RFC3339),
		Baseline:   b,
	}
}

// decodeRecord parses a stored record and returns its baseline, if any.
func decodeRecord(data []byte) (*Baseline, error) {
	var stored record
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	if stored.Version > currentVersion {
		return nil, fmt.Errorf("unsupported record version %d", stored.Version)
	}
	if !stored.Calibrated || stored.Baseline == nil {
		return nil, nil
	}
	return stored.Baseline, nil
}

// JSONStore implements Store using a JSON file for persistence.
type JSONStore struct {
	path string
	mu   sync.Mutex
}

// NewJSONStore creates a file-backed store at the given path.
// The file is created on first save.
func NewJSONStore(path string) (*JSONStore, error) {
	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, &StorageError{Op: "open", Err: fmt.Errorf("failed to create directory: %w", err)}
	}
	return &JSONStore{path: path}, nil
}

// NewDefaultStore creates a store under dataDir (calibration.json).
func NewDefaultStore(dataDir string) (*JSONStore, error) {
	return NewJSONStore(filepath.Join(dataDir, "calibration.json"))
}

// Path returns the file path of the store.
func (s *JSONStore) Path() string {
	return s.path
}

// Load reads the baseline from disk.
func (s *JSONStore) Load(ctx context.Context) (*Baseline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "load", Err: fmt.Errorf("failed to read file: %w", err)}
	}

	b, err := decodeRecord(data)
	if err != nil {
		return nil, &StorageError{Op: "load", Err: err}
	}
	return b, nil
}

// Save writes the baseline to disk.
func (s *JSONStore) Save(ctx context.Context, b Baseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.write(newRecord(&b)); err != nil {
		return &StorageError{Op: "save", Err: err}
	}
	return nil
}

// Clear marks the device not calibrated. No-op if nothing was ever saved.
func (s *JSONStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(s.path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := s.write(newRecord(nil)); err != nil {
		return &StorageError{Op: "clear", Err: err}
	}
	return nil
}

// write stores the record atomically.
func (s *JSONStore) write(rec record) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	// Write to temp file first, then rename (atomic write)
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath) // Clean up temp file
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}

// MemoryStore keeps the baseline in memory. Used by tests and --ephemeral.
type MemoryStore struct {
	mu       sync.Mutex
	baseline *Baseline

	// Err, when set, is returned by every operation.
	Err error
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the stored baseline.
func (s *MemoryStore) Load(ctx context.Context) (*Baseline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return nil, &StorageError{Op: "load", Err: s.Err}
	}
	if s.baseline == nil {
		return nil, nil
	}
	b := *s.baseline
	return &b, nil
}

// Save stores a copy of b.
func (s *MemoryStore) Save(ctx context.Context, b Baseline) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return &StorageError{Op: "save", Err: s.Err}
	}
	s.baseline = &b
	return nil
}

// Clear drops the baseline.
func (s *MemoryStore) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Err != nil {
		return &StorageError{Op: "clear", Err: s.Err}
	}
	s.baseline = nil
	return nil
}
