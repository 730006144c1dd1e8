// Package monitor drives periodic posture checks: capture a frame, classify
// it, publish the result and alert on bad posture.
package monitor

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/debug"
	"github.com/teslashibe/go-posture/pkg/pose"
	"github.com/teslashibe/go-posture/pkg/posture"
)

// Alert messages per status.
const (
	MessageSlouching  = "You're slouching. Sit back and bring your head over your shoulders."
	MessageMisaligned = "Your shoulders are uneven. Level them and relax."
)

// Reasons attached to Unknown snapshots produced by the monitor itself.
const (
	ReasonCalibrating = "calibration in progress"
	ReasonNoCamera    = "no camera"
)

// Classifier is the posture service as seen by the monitor.
type Classifier interface {
	IsModelReady() bool
	IsCalibrationNeeded() bool
	Classify(ctx context.Context, frame pose.Frame) (posture.Result, error)
}

// Alerter throttles and delivers alerts.
type Alerter interface {
	SetEnabled(enabled bool)
	SetCooldown(d time.Duration)
	NotifyBadPosture(ctx context.Context, message string) bool
}

// Gate pauses monitoring while it reports active (the calibration workflow).
type Gate interface {
	Active() bool
}

// Snapshot is the latest monitoring state, pushed to the dashboard.
type Snapshot struct {
	Type       string          `json:"type"`
	Status     posture.Status  `json:"status"`
	Metrics    posture.Metrics `json:"metrics"`
	Reason     string          `json:"reason,omitempty"`
	ModelReady bool            `json:"model_ready"`
	Calibrated bool            `json:"calibrated"`
	Alerted    bool            `json:"alerted"`
	Misses     int             `json:"misses"`
	At         time.Time       `json:"at"`
}

// Monitor runs the classification loop.
type Monitor struct {
	service  Classifier
	source   camera.Source
	settings posture.SettingsSource
	alerter  Alerter
	gate     Gate
	logger   *slog.Logger
	now      func() time.Time

	// OnSnapshot is called after every check.
	OnSnapshot func(Snapshot)

	mu     sync.RWMutex
	last   Snapshot
	misses int

	running atomic.Bool
}

// New creates a monitor. alerter and gate may be nil.
func New(service Classifier, source camera.Source, settings posture.SettingsSource, alerter Alerter, gate Gate, logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		service:  service,
		source:   source,
		settings: settings,
		alerter:  alerter,
		gate:     gate,
		logger:   logger.With("component", "monitor"),
		now:      time.Now,
	}
}

// Run checks posture every DetectionInterval until ctx is cancelled.
// Interval changes take effect after the next check.
func (m *Monitor) Run(ctx context.Context) {
	interval := m.settings.Settings().Interval()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.running.Store(true)
	defer m.running.Store(false)

	m.logger.Info("monitor started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			m.logger.Info("monitor stopped")
			return

		case <-ticker.C:
			m.Check(ctx)

			if next := m.settings.Settings().Interval(); next != interval {
				interval = next
				ticker.Reset(interval)
				m.logger.Info("detection interval changed", "interval", interval)
			}
		}
	}
}

// IsRunning reports whether Run is active.
func (m *Monitor) IsRunning() bool {
	return m.running.Load()
}

// Last returns the most recent snapshot.
func (m *Monitor) Last() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Check performs one monitoring cycle. Errors never escape; they become an
// Unknown snapshot.
func (m *Monitor) Check(ctx context.Context) Snapshot {
	settings := m.settings.Settings()
	if m.alerter != nil {
		m.alerter.SetEnabled(settings.EnableNotifications)
		m.alerter.SetCooldown(settings.Cooldown())
	}

	now := m.now()
	snap := Snapshot{
		Type:       "status",
		Status:     posture.StatusUnknown,
		Metrics:    posture.Missing(now),
		ModelReady: m.service.IsModelReady(),
		Calibrated: !m.service.IsCalibrationNeeded(),
		At:         now,
	}

	switch {
	case !snap.ModelReady:
		snap.Reason = posture.ReasonModelNotReady
		return m.publish(snap)
	case !snap.Calibrated:
		snap.Reason = posture.ReasonNotCalibrated
		return m.publish(snap)
	case m.gate != nil && m.gate.Active():
		snap.Reason = ReasonCalibrating
		return m.publish(snap)
	}

	frame, err := m.source.Capture(ctx)
	if err != nil {
		snap.Reason = ReasonNoCamera
		snap.Misses = m.miss(err)
		return m.publish(snap)
	}
	m.resetMisses()

	res, err := m.service.Classify(ctx, frame)
	if err != nil {
		// Calibration holds the service; keep the previous state
		if errors.Is(err, posture.ErrBusy) {
			return m.Last()
		}
		m.logger.Warn("classify failed", "error", err)
		snap.Reason = posture.ReasonDetectionFailed
		return m.publish(snap)
	}

	snap.Status = res.Status
	snap.Metrics = res.Metrics
	snap.Reason = res.Reason

	if res.Status.Bad() && m.alerter != nil {
		snap.Alerted = m.alerter.NotifyBadPosture(ctx, message(res.Status))
		if !snap.Alerted {
			debug.Log("🔕 monitor: %s alert suppressed\n", res.Status)
		}
	}

	return m.publish(snap)
}

func (m *Monitor) publish(snap Snapshot) Snapshot {
	m.mu.Lock()
	prev := m.last.Status
	m.last = snap
	m.mu.Unlock()

	if prev != snap.Status {
		m.logger.Info("posture changed", "from", prev, "to", snap.Status, "reason", snap.Reason)
	}

	if m.OnSnapshot != nil {
		m.OnSnapshot(snap)
	}
	return snap
}

// miss counts a consecutive capture failure and logs at 1, 10 and every 60.
func (m *Monitor) miss(err error) int {
	m.mu.Lock()
	m.misses++
	n := m.misses
	m.mu.Unlock()

	if n == 1 || n == 10 || n%60 == 0 {
		m.logger.Warn("camera capture failed", "consecutive", n, "error", err)
	}
	return n
}

func (m *Monitor) resetMisses() {
	m.mu.Lock()
	n := m.misses
	m.misses = 0
	m.mu.Unlock()

	if n > 0 {
		m.logger.Info("camera recovered", "missed", n)
	}
}

func message(s posture.Status) string {
	if s == posture.StatusShoulderMisaligned {
		return MessageMisaligned
	}
	return MessageSlouching
}
