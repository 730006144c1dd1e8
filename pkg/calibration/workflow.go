package calibration

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/teslashibe/go-posture/pkg/pose"
)

// DefaultCountdown is the number of seconds between start and capture.
const DefaultCountdown = 5

// Failure reasons shown to the user.
const (
	ReasonNoCamera     = "no camera"
	ReasonNoSkeleton   = "no clear skeleton detected"
	ReasonModelLoading = "pose model not ready"
	ReasonStorage      = "could not save calibration"
	ReasonDetection    = "pose detection failed"
	ReasonUnknown      = "calibration failed"
)

// Phase is a step of the guided calibration sequence.
type Phase int

const (
	PhaseInstructions Phase = iota // waiting for the user to start
	PhaseCountdown                 // counting down to capture
	PhaseCapturing                 // one frame being captured and committed
	PhaseSuccess                   // baseline committed; terminal for the session
	PhaseFailed                    // transient; the workflow falls back to instructions
)

var phaseNames = map[Phase]string{
	PhaseInstructions: "instructions",
	PhaseCountdown:    "countdown",
	PhaseCapturing:    "capturing",
	PhaseSuccess:      "success",
	PhaseFailed:       "failed",
}

// String returns the phase name.
func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the phase as its name.
func (p Phase) MarshalJSON() ([]byte, error) {
	return []byte(`"` + p.String() + `"`), nil
}

// FrameSource supplies the single frame captured at the end of the countdown.
type FrameSource interface {
	Capture(ctx context.Context) (pose.Frame, error)
}

// Calibrator commits a baseline from a frame.
type Calibrator interface {
	Calibrate(ctx context.Context, frame pose.Frame) (Baseline, error)
}

// Snapshot is the user-visible workflow state.
type Snapshot struct {
	Phase     Phase     `json:"phase"`
	Remaining int       `json:"remaining"`
	Failure   string    `json:"failure,omitempty"`
	Baseline  *Baseline `json:"baseline,omitempty"`
}

// Workflow is the calibration state machine. It advances only on explicit
// events (Start, Tick, Dismiss, Reset); Run supplies one Tick per second.
type Workflow struct {
	source     FrameSource
	calibrator Calibrator
	logger     *slog.Logger
	countdown  int

	mu        sync.Mutex
	phase     Phase
	remaining int
	failure   string
	baseline  *Baseline
	completed bool
	session   uint64

	wake chan struct{}

	// OnComplete is called once per session after a successful capture.
	OnComplete func(Baseline)

	// OnChange is called after every transition.
	OnChange func(Snapshot)
}

// NewWorkflow creates a workflow waiting at the instructions step.
func NewWorkflow(source FrameSource, calibrator Calibrator, logger *slog.Logger) *Workflow {
	if logger == nil {
		logger = slog.Default()
	}
	return &Workflow{
		source:     source,
		calibrator: calibrator,
		logger:     logger.With("component", "calibration"),
		countdown:  DefaultCountdown,
		phase:      PhaseInstructions,
		remaining:  DefaultCountdown,
		wake:       make(chan struct{}, 1),
	}
}

// Snapshot returns the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.snapshotLocked()
}

func (w *Workflow) snapshotLocked() Snapshot {
	snap := Snapshot{Phase: w.phase, Remaining: w.remaining, Failure: w.failure}
	if w.baseline != nil {
		b := *w.baseline
		snap.Baseline = &b
	}
	return snap
}

// Active reports whether a countdown or capture is in progress.
func (w *Workflow) Active() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.phase == PhaseCountdown || w.phase == PhaseCapturing
}

// Start begins the countdown. Only valid from the instructions step.
func (w *Workflow) Start() bool {
	w.mu.Lock()
	if w.phase != PhaseInstructions {
		w.mu.Unlock()
		return false
	}
	w.phase = PhaseCountdown
	w.remaining = w.countdown
	w.failure = ""
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.logger.Info("calibration countdown started", "seconds", w.countdown)
	w.notify(snap)

	select {
	case w.wake <- struct{}{}:
	default:
	}
	return true
}

// Dismiss cancels a running countdown without capturing anything.
// A capture already in progress cannot be cancelled.
func (w *Workflow) Dismiss() bool {
	w.mu.Lock()
	if w.phase != PhaseCountdown {
		w.mu.Unlock()
		return false
	}
	w.phase = PhaseInstructions
	w.remaining = w.countdown
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.logger.Info("calibration countdown dismissed")
	w.notify(snap)
	return true
}

// Reset re-enters the workflow for a new session: back to instructions with
// a full countdown, discarding any countdown, failure or previous success.
func (w *Workflow) Reset() {
	w.mu.Lock()
	w.session++
	w.phase = PhaseInstructions
	w.remaining = w.countdown
	w.failure = ""
	w.baseline = nil
	w.completed = false
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.notify(snap)
}

// Tick advances the countdown by one second. When it reaches zero the frame
// is captured and committed within the same call.
func (w *Workflow) Tick(ctx context.Context) Snapshot {
	w.mu.Lock()
	if w.phase != PhaseCountdown {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap
	}

	w.remaining--
	if w.remaining > 0 {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		w.notify(snap)
		return snap
	}

	w.phase = PhaseCapturing
	session := w.session
	snap := w.snapshotLocked()
	w.mu.Unlock()
	w.notify(snap)

	baseline, reason := w.capture(ctx)
	return w.finish(session, baseline, reason)
}

// capture grabs one frame and commits it. Returns a failure reason on error.
func (w *Workflow) capture(ctx context.Context) (Baseline, string) {
	if w.source == nil {
		return Baseline{}, ReasonNoCamera
	}

	frame, err := w.source.Capture(ctx)
	if err != nil || frame.Empty() {
		w.logger.Warn("calibration capture failed", "error", err)
		return Baseline{}, ReasonNoCamera
	}

	baseline, err := w.calibrator.Calibrate(ctx, frame)
	if err != nil {
		w.logger.Warn("calibration rejected", "error", err)
		return Baseline{}, FailureReason(err)
	}
	return baseline, ""
}

// finish applies the capture outcome unless the session was reset meanwhile.
func (w *Workflow) finish(session uint64, baseline Baseline, reason string) Snapshot {
	w.mu.Lock()
	if session != w.session || w.phase != PhaseCapturing {
		snap := w.snapshotLocked()
		w.mu.Unlock()
		return snap
	}

	if reason != "" {
		w.phase = PhaseFailed
		w.failure = reason
		failed := w.snapshotLocked()

		w.phase = PhaseInstructions
		w.remaining = w.countdown
		snap := w.snapshotLocked()
		w.mu.Unlock()

		w.notify(failed)
		w.notify(snap)
		return snap
	}

	w.phase = PhaseSuccess
	w.remaining = 0
	w.baseline = &baseline
	fire := !w.completed
	w.completed = true
	snap := w.snapshotLocked()
	w.mu.Unlock()

	w.logger.Info("calibration complete",
		"shoulder_tilt", baseline.ShoulderTiltDeg,
		"neck_angle", baseline.NeckAngleDeg)
	w.notify(snap)
	if fire && w.OnComplete != nil {
		w.OnComplete(baseline)
	}
	return snap
}

func (w *Workflow) notify(snap Snapshot) {
	if w.OnChange != nil {
		w.OnChange(snap)
	}
}

// Run ticks the countdown once per second until ctx is cancelled.
// The first tick comes one full second after Start.
func (w *Workflow) Run(ctx context.Context) {
	w.runWithInterval(ctx, time.Second)
}

func (w *Workflow) runWithInterval(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case <-w.wake:
			ticker.Reset(interval)

		case <-ticker.C:
			if w.Snapshot().Phase == PhaseCountdown {
				w.Tick(ctx)
			}
		}
	}
}

// FailureReason maps a calibration error to the text shown to the user.
func FailureReason(err error) string {
	var reasoner Reasoner
	var storageErr *StorageError

	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoFrame):
		return ReasonNoCamera
	case errors.Is(err, ErrInsufficientData):
		return ReasonNoSkeleton
	case errors.Is(err, pose.ErrModelNotReady):
		return ReasonModelLoading
	case errors.As(err, &reasoner):
		return reasoner.Reason()
	case errors.As(err, &storageErr):
		return ReasonStorage
	case pose.IsInferenceError(err):
		return ReasonDetection
	default:
		return ReasonUnknown
	}
}
