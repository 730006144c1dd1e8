package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gen2brain/beeep"

	"github.com/teslashibe/go-posture/pkg/hub"
)

// LogSink writes alerts to the structured log.
type LogSink struct {
	Logger *slog.Logger
}

// Send implements Sink.
func (s LogSink) Send(ctx context.Context, alert Alert) error {
	logger := s.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.InfoContext(ctx, "posture alert", "id", alert.ID, "message", alert.Message)
	return nil
}

// DesktopSink raises an OS notification.
type DesktopSink struct {
	// Icon is an optional path to the notification icon.
	Icon string
}

// Send implements Sink.
func (s DesktopSink) Send(ctx context.Context, alert Alert) error {
	return beeep.Notify(alert.Title, alert.Message, s.Icon)
}

// HubSink pushes alerts to dashboard websocket clients.
type HubSink struct {
	Hub *hub.Hub
}

// Send implements Sink.
func (s HubSink) Send(ctx context.Context, alert Alert) error {
	return s.Hub.Publish(struct {
		Type string `json:"type"`
		Alert
	}{Type: "alert", Alert: alert})
}

// MultiSink fans an alert out to every sink. All sinks are tried; their
// errors are joined.
type MultiSink []Sink

// Send implements Sink.
func (m MultiSink) Send(ctx context.Context, alert Alert) error {
	var errs []error
	for _, s := range m {
		if err := s.Send(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// FuncSink adapts a function to Sink.
type FuncSink func(ctx context.Context, alert Alert) error

// Send implements Sink.
func (f FuncSink) Send(ctx context.Context, alert Alert) error {
	return f(ctx, alert)
}
