// Package calibration persists the user's baseline posture and drives the
// guided capture sequence that produces it.
package calibration

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"time"
)

// State is the calibration lifecycle flag stored alongside the baseline.
type State int

const (
	NotCalibrated State = iota
	Calibrated
)

// String returns the state name.
func (s State) String() string {
	if s == Calibrated {
		return "calibrated"
	}
	return "not_calibrated"
}

// MarshalJSON encodes the state as its name.
func (s State) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Baseline is the user's "good posture" reference.
// TorsoLeanDeg is NaN when hips were out of view during capture.
type Baseline struct {
	ID              string
	ShoulderTiltDeg float64
	NeckAngleDeg    float64
	TorsoLeanDeg    float64
	CapturedAt      time.Time
}

// HasTorsoLean reports whether the torso lean was captured.
func (b Baseline) HasTorsoLean() bool {
	return !math.IsNaN(b.TorsoLeanDeg)
}

// baselineJSON is the on-disk shape; NaN is not valid JSON so optional
// angles are pointers.
type baselineJSON struct {
	ID              string    `json:"id,omitempty"`
	ShoulderTiltDeg float64   `json:"shoulder_tilt_deg"`
	NeckAngleDeg    float64   `json:"neck_angle_deg"`
	TorsoLeanDeg    *float64  `json:"torso_lean_deg"`
	CapturedAt      time.Time `json:"captured_at"`
}

// MarshalJSON encodes a missing torso lean as null.
func (b Baseline) MarshalJSON() ([]byte, error) {
	out := baselineJSON{
		ID:              b.ID,
		ShoulderTiltDeg: b.ShoulderTiltDeg,
		NeckAngleDeg:    b.NeckAngleDeg,
		CapturedAt:      b.CapturedAt,
	}
	if b.HasTorsoLean() {
		v := b.TorsoLeanDeg
		out.TorsoLeanDeg = &v
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a null torso lean as NaN.
func (b *Baseline) UnmarshalJSON(data []byte) error {
	var in baselineJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*b = Baseline{
		ID:              in.ID,
		ShoulderTiltDeg: in.ShoulderTiltDeg,
		NeckAngleDeg:    in.NeckAngleDeg,
		TorsoLeanDeg:    math.NaN(),
		CapturedAt:      in.CapturedAt,
	}
	if in.TorsoLeanDeg != nil {
		b.TorsoLeanDeg = *in.TorsoLeanDeg
	}
	return nil
}

// Equal compares the angles of two baselines, ignoring ID and capture time.
func (b Baseline) Equal(other Baseline) bool {
	sameTorso := b.TorsoLeanDeg == other.TorsoLeanDeg ||
		(math.IsNaN(b.TorsoLeanDeg) && math.IsNaN(other.TorsoLeanDeg))
	return b.ShoulderTiltDeg == other.ShoulderTiltDeg &&
		b.NeckAngleDeg == other.NeckAngleDeg &&
		sameTorso
}

// Sentinel errors for calibration.
var (
	// ErrInsufficientData is returned when the captured frame lacks the
	// confident keypoints a baseline needs.
	ErrInsufficientData = errors.New("calibration: not enough confident keypoints")

	// ErrNoFrame is returned when the camera produced no frame.
	ErrNoFrame = errors.New("calibration: no frame captured")
)

// StorageError wraps a persistence failure.
type StorageError struct {
	Op  string // load, save, clear
	Err error
}

// Error implements the error interface.
func (e *StorageError) Error() string {
	return fmt.Sprintf("calibration store: %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *StorageError) Unwrap() error {
	return e.Err
}

// Reasoner is implemented by errors that carry a user-facing explanation.
type Reasoner interface {
	Reason() string
}
