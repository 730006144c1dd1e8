// Package web serves the local posture dashboard API and its live websocket
// streams.
package web

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/teslashibe/go-posture/pkg/calibration"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/hub"
	"github.com/teslashibe/go-posture/pkg/monitor"
	"github.com/teslashibe/go-posture/pkg/posture"
)

// Service is the posture service as seen by the dashboard.
type Service interface {
	IsModelReady() bool
	State() calibration.State
	Baseline() (calibration.Baseline, bool)
	ClearCalibrationData(ctx context.Context) error
}

// Workflow is the calibration state machine as seen by the dashboard.
type Workflow interface {
	Snapshot() calibration.Snapshot
	Start() bool
	Dismiss() bool
	Reset()
}

// StatusSource supplies the latest monitoring snapshot.
type StatusSource interface {
	Last() monitor.Snapshot
}

// Options wires the server to the rest of the app. Camera is optional.
type Options struct {
	Service  Service
	Workflow Workflow
	Status   StatusSource
	Settings *posture.Manager
	Camera   *camera.Manager
}

// Server is the dashboard server
type Server struct {
	app    *fiber.App
	addr   string
	opts   Options
	logger *slog.Logger

	// Hubs for websocket broadcast
	statusHub *hub.Hub
	alertHub  *hub.Hub
}

// NewServer creates a dashboard server listening on addr.
func NewServer(addr string, opts Options, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "web")

	s := &Server{
		addr:      addr,
		opts:      opts,
		logger:    logger,
		statusHub: hub.NewReplay("status", logger),
		alertHub:  hub.New("alerts", logger),
	}

	app := fiber.New(fiber.Config{
		AppName:               "Posture Dashboard",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New())

	// CORS for local development
	app.Use(cors.New(cors.Config{
		AllowOrigins: "http://localhost:5173, http://127.0.0.1:5173",
	}))

	// API routes
	api := app.Group("/api")
	api.Get("/status", s.handleStatus)

	api.Get("/settings", s.handleGetSettings)
	api.Put("/settings", s.handleUpdateSettings)
	api.Get("/settings/presets", s.handleSettingsPresets)

	api.Get("/camera", s.handleGetCamera)
	api.Put("/camera", s.handleUpdateCamera)

	api.Get("/calibration", s.handleGetCalibration)
	api.Post("/calibration/open", s.handleOpenCalibration)
	api.Post("/calibration/start", s.handleStartCalibration)
	api.Post("/calibration/dismiss", s.handleDismissCalibration)
	api.Delete("/calibration", s.handleClearCalibration)

	// WebSocket upgrade middleware
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})

	// WebSocket routes
	app.Get("/ws/status", websocket.New(s.hubHandler(s.statusHub)))
	app.Get("/ws/alerts", websocket.New(s.hubHandler(s.alertHub)))

	s.app = app
	return s
}

// Start runs the hubs and serves until Shutdown. Hubs stop with ctx.
func (s *Server) Start(ctx context.Context) error {
	s.logger.Info("dashboard listening", "url", "http://"+s.addr)

	go s.statusHub.Run(ctx)
	go s.alertHub.Run(ctx)

	return s.app.Listen(s.addr)
}

// StartAsync starts the web server in a goroutine
func (s *Server) StartAsync(ctx context.Context) {
	go func() {
		if err := s.Start(ctx); err != nil {
			s.logger.Error("web server stopped", "error", err)
		}
	}()
}

// SetStatusSource attaches the monitor after construction.
func (s *Server) SetStatusSource(src StatusSource) {
	s.opts.Status = src
}

// PublishStatus broadcasts a status update to dashboard clients.
func (s *Server) PublishStatus(v interface{}) {
	if err := s.statusHub.Publish(v); err != nil {
		s.logger.Warn("status encode failed", "error", err)
	}
}

// StatusHub returns the status hub for external use
func (s *Server) StatusHub() *hub.Hub {
	return s.statusHub
}

// AlertHub returns the alert hub, for notify.HubSink.
func (s *Server) AlertHub() *hub.Hub {
	return s.alertHub
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Shutdown gracefully stops the web server
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

func (s *Server) hubHandler(h *hub.Hub) func(*websocket.Conn) {
	return func(c *websocket.Conn) {
		hub.NewClient(h, c).Run()
	}
}

// handleError renders errors as {"error": "..."}.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}
	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed", "method", c.Method(), "path", c.Path(), "error", err)
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}
