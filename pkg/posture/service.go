package posture

import (
	"context"
	"log/slog"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/teslashibe/go-posture/pkg/calibration"
	"github.com/teslashibe/go-posture/pkg/debug"
	"github.com/teslashibe/go-posture/pkg/pose"
)

// ReasonModelNotReady is attached to Unknown results while the model loads.
const ReasonModelNotReady = "pose model not ready"

// Detector produces landmarks from frames. Implemented by *pose.Adapter.
type Detector interface {
	LoadModel(ctx context.Context) error
	IsModelReady() bool
	Detect(ctx context.Context, frame pose.Frame) (*pose.LandmarkSet, error)
}

// Service is the posture detection core. It owns the in-memory baseline;
// the store is its durable backing.
//
// Calibrate and Classify never overlap: a call that arrives while another
// is in flight returns ErrBusy immediately.
type Service struct {
	detector Detector
	store    calibration.Store
	settings SettingsSource
	logger   *slog.Logger
	now      func() time.Time

	busy atomic.Bool

	mu       sync.RWMutex
	baseline *calibration.Baseline
}

// NewService creates a service with no baseline. Call Restore to load the
// persisted one.
func NewService(detector Detector, store calibration.Store, settings SettingsSource, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if settings == nil {
		settings = StaticSettings(DefaultSettings())
	}
	return &Service{
		detector: detector,
		store:    store,
		settings: settings,
		logger:   logger.With("component", "posture"),
		now:      time.Now,
	}
}

// LoadModel loads the pose model. Safe to call repeatedly.
func (s *Service) LoadModel(ctx context.Context) error {
	return s.detector.LoadModel(ctx)
}

// IsModelReady reports whether frames can be processed.
func (s *Service) IsModelReady() bool {
	return s.detector.IsModelReady()
}

// Restore loads the persisted baseline. On a storage error the service
// stays uncalibrated and the *calibration.StorageError is returned.
func (s *Service) Restore(ctx context.Context) error {
	b, err := s.store.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.baseline = nil
		return err
	}
	s.baseline = b

	if b != nil {
		s.logger.Info("calibration restored",
			"shoulder_tilt", b.ShoulderTiltDeg,
			"neck_angle", b.NeckAngleDeg,
			"captured_at", b.CapturedAt)
	}
	return nil
}

// IsCalibrationNeeded reports whether no baseline exists.
func (s *Service) IsCalibrationNeeded() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.baseline == nil
}

// State returns the calibration state.
func (s *Service) State() calibration.State {
	if s.IsCalibrationNeeded() {
		return calibration.NotCalibrated
	}
	return calibration.Calibrated
}

// Baseline returns a copy of the current baseline.
func (s *Service) Baseline() (calibration.Baseline, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.baseline == nil {
		return calibration.Baseline{}, false
	}
	return *s.baseline, true
}

// Calibrate captures the posture in frame as the new baseline.
// The baseline is saved to the store before it replaces the in-memory one;
// on any error the previous baseline is kept. The last successful call wins.
func (s *Service) Calibrate(ctx context.Context, frame pose.Frame) (calibration.Baseline, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return calibration.Baseline{}, ErrBusy
	}
	defer s.busy.Store(false)

	if !s.detector.IsModelReady() {
		return calibration.Baseline{}, pose.ErrModelNotReady
	}

	settings := s.settings.Settings()

	landmarks, err := s.detector.Detect(ctx, frame)
	if err != nil {
		return calibration.Baseline{}, err
	}

	m := Compute(landmarks, settings.DetectionConfidence)
	if !m.Complete() {
		s.logger.Info("calibration frame rejected",
			"keypoints", landmarks.Len(),
			"shoulder_tilt", m.ShoulderTiltDeg,
			"neck_angle", m.NeckAngleDeg)
		return calibration.Baseline{}, ErrCalibrationDataInsufficient
	}

	b := calibration.Baseline{
		ID:              uuid.NewString(),
		ShoulderTiltDeg: m.ShoulderTiltDeg,
		NeckAngleDeg:    m.NeckAngleDeg,
		TorsoLeanDeg:    m.TorsoLeanDeg,
		CapturedAt:      s.now(),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Save(ctx, b); err != nil {
		return calibration.Baseline{}, err
	}
	s.baseline = &b

	s.logger.Info("baseline saved",
		"id", b.ID,
		"shoulder_tilt", b.ShoulderTiltDeg,
		"neck_angle", b.NeckAngleDeg,
		"torso_lean", b.TorsoLeanDeg)
	return b, nil
}

// ClearCalibrationData deletes the baseline from the store and memory.
func (s *Service) ClearCalibrationData(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.store.Clear(ctx); err != nil {
		return err
	}
	s.baseline = nil

	s.logger.Info("calibration cleared")
	return nil
}

// Classify compares the posture in frame against the baseline.
// Detection and coverage problems produce StatusUnknown with a reason;
// the only error returned is ErrBusy.
func (s *Service) Classify(ctx context.Context, frame pose.Frame) (Result, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return Result{}, ErrBusy
	}
	defer s.busy.Store(false)

	settings := s.settings.Settings()
	missing := Missing(frame.CapturedAt)

	baseline, ok := s.Baseline()
	if !ok {
		return Result{Status: StatusUnknown, Metrics: missing, Reason: ReasonNotCalibrated}, nil
	}
	if !s.detector.IsModelReady() {
		return Result{Status: StatusUnknown, Metrics: missing, Reason: ReasonModelNotReady}, nil
	}

	landmarks, err := s.detector.Detect(ctx, frame)
	if err != nil {
		s.logger.Debug("detection failed", "error", err)
		return Result{Status: StatusUnknown, Metrics: missing, Reason: ReasonDetectionFailed}, nil
	}

	m := Compute(landmarks, settings.DetectionConfidence)
	if !m.Complete() {
		return Result{Status: StatusUnknown, Metrics: m, Reason: ReasonLowConfidence}, nil
	}

	status := Evaluate(m, baseline, settings)
	debug.FrameLog("🧍 posture: %s tilt=%.1f neck=%.1f (baseline %.1f/%.1f)\n",
		status, m.ShoulderTiltDeg, m.NeckAngleDeg, baseline.ShoulderTiltDeg, baseline.NeckAngleDeg)

	return Result{Status: status, Metrics: m}, nil
}

// Evaluate classifies complete metrics against a baseline. Shoulder
// misalignment is checked first and wins when both thresholds are exceeded.
// Deviations equal to a threshold are within tolerance.
func Evaluate(m Metrics, baseline calibration.Baseline, settings Settings) Status {
	if !m.Complete() {
		return StatusUnknown
	}
	if math.Abs(m.ShoulderTiltDeg-baseline.ShoulderTiltDeg) > settings.ShoulderAlignmentThreshold {
		return StatusShoulderMisaligned
	}
	if math.Abs(m.NeckAngleDeg-baseline.NeckAngleDeg) > settings.SlouchThreshold {
		return StatusSlouching
	}
	return StatusGood
}
