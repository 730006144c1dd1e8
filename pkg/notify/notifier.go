// Package notify throttles bad-posture alerts and delivers them to sinks.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultCooldown is the minimum time between two dispatched alerts.
const DefaultCooldown = time.Minute

// Alert is one dispatched notification.
type Alert struct {
	ID      string    `json:"id"`
	Title   string    `json:"title"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Sink delivers alerts to the user.
type Sink interface {
	Send(ctx context.Context, alert Alert) error
}

// Notifier dispatches at most one alert per cooldown window. Alerts that
// arrive inside the window are dropped, never queued.
type Notifier struct {
	sink   Sink
	logger *slog.Logger
	now    func() time.Time
	title  string

	mu          sync.Mutex
	enabled     bool
	cooldown    time.Duration
	nextAllowed time.Time
	dispatched  int
	dropped     int
}

// New creates an enabled notifier with DefaultCooldown.
func New(sink Sink, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		sink:     sink,
		logger:   logger.With("component", "notify"),
		now:      time.Now,
		title:    "Posture check",
		enabled:  true,
		cooldown: DefaultCooldown,
	}
}

// SetEnabled turns alerts on or off. Disabling leaves the cooldown window
// untouched, so re-enabling does not allow an immediate alert if one was
// dispatched recently.
func (n *Notifier) SetEnabled(enabled bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.enabled = enabled
}

// Enabled reports whether alerts are on.
func (n *Notifier) Enabled() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.enabled
}

// SetCooldown sets the minimum interval between alerts. It applies from the
// next dispatch on; a window already running keeps its original length.
func (n *Notifier) SetCooldown(d time.Duration) {
	if d < 0 {
		d = 0
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.cooldown = d
}

// Cooldown returns the current cooldown.
func (n *Notifier) Cooldown() time.Duration {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.cooldown
}

// NotifyBadPosture dispatches message unless alerts are disabled or the
// previous alert's window is still open. Reports whether it dispatched.
//
// A sink failure is logged and still counts as a dispatch.
func (n *Notifier) NotifyBadPosture(ctx context.Context, message string) bool {
	n.mu.Lock()
	if !n.enabled {
		n.mu.Unlock()
		return false
	}

	now := n.now()
	if now.Before(n.nextAllowed) {
		n.dropped++
		n.mu.Unlock()
		return false
	}
	n.nextAllowed = now.Add(n.cooldown)
	n.dispatched++
	n.mu.Unlock()

	alert := Alert{
		ID:      uuid.NewString(),
		Title:   n.title,
		Message: message,
		At:      now,
	}

	if n.sink != nil {
		if err := n.sink.Send(ctx, alert); err != nil {
			n.logger.Warn("alert delivery failed", "id", alert.ID, "error", err)
		}
	}
	return true
}

// Stats returns how many alerts were dispatched and dropped.
func (n *Notifier) Stats() (dispatched, dropped int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.dispatched, n.dropped
}
