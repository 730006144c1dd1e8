package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/teslashibe/go-posture/internal/config"
	"github.com/teslashibe/go-posture/pkg/calibration"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/debug"
	"github.com/teslashibe/go-posture/pkg/monitor"
	"github.com/teslashibe/go-posture/pkg/notify"
	"github.com/teslashibe/go-posture/pkg/pose"
	"github.com/teslashibe/go-posture/pkg/posture"
	"github.com/teslashibe/go-posture/pkg/web"
)

// App is the posture application orchestrator.
// It manages all components and their lifecycle.
type App struct {
	config Config
	logger *slog.Logger

	// newModel builds the pose backend; replaced in tests.
	newModel func(cfg Config) pose.Model

	// Pose pipeline
	adapter  *pose.Adapter
	settings *posture.Manager
	service  *posture.Service

	// Storage
	store calibration.Store
	redis *redis.Client

	// Camera
	source        camera.Source
	webcam        *camera.Webcam
	cameraManager *camera.Manager

	// Calibration, monitoring, alerts
	workflow *calibration.Workflow
	monitor  *monitor.Monitor
	notifier *notify.Notifier

	// Web dashboard
	webServer *web.Server
}

// New creates a new application with the given configuration.
func New(cfg Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	debug.Enabled = cfg.Debug
	debug.Frames = cfg.DebugFrames

	return &App{
		config:   cfg,
		logger:   logger,
		newModel: newPoseModel,
	}, nil
}

// Init builds all components. Nothing here blocks on the model or camera.
// Call this after New() and before Run().
func (a *App) Init() error {
	a.initSettings()

	if err := a.initStore(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	a.adapter = pose.NewAdapter(a.newModel(a.config), a.logger)
	a.service = posture.NewService(a.adapter, a.store, a.settings, a.logger)

	if err := a.service.Restore(context.Background()); err != nil {
		a.logger.Warn("stored calibration unreadable, recalibration needed", "error", err)
	}

	if err := a.initCamera(); err != nil {
		return fmt.Errorf("camera: %w", err)
	}

	a.workflow = calibration.NewWorkflow(a.source, a.service, a.logger)

	a.webServer = web.NewServer(config.ListenAddr(a.config.Port), web.Options{
		Service:  a.service,
		Workflow: a.workflow,
		Settings: a.settings,
		Camera:   a.cameraManager,
	}, a.logger)

	a.initNotifier()

	a.monitor = monitor.New(a.service, a.source, a.settings, a.notifier, a.workflow, a.logger)
	a.webServer.SetStatusSource(a.monitor)

	a.monitor.OnSnapshot = func(s monitor.Snapshot) {
		a.webServer.PublishStatus(s)
	}
	a.workflow.OnChange = func(s calibration.Snapshot) {
		a.webServer.PublishStatus(struct {
			Type string `json:"type"`
			calibration.Snapshot
		}{Type: "calibration", Snapshot: s})
	}
	a.workflow.OnComplete = func(b calibration.Baseline) {
		a.logger.Info("monitoring with new baseline", "id", b.ID)
	}

	return nil
}

// Run starts the background loops and blocks until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.Info("posture monitor starting",
		"dashboard", "http://"+config.ListenAddr(a.config.Port),
		"backend", a.config.Backend,
		"calibrated", !a.service.IsCalibrationNeeded())

	a.webServer.StartAsync(ctx)
	go a.loadModel(ctx)
	go a.workflow.Run(ctx)
	go a.monitor.Run(ctx)

	<-ctx.Done()
	return nil
}

// Shutdown releases the camera, model, storage and web server.
func (a *App) Shutdown() {
	a.logger.Info("shutting down")

	if a.webServer != nil {
		if err := a.webServer.Shutdown(); err != nil {
			a.logger.Warn("web shutdown", "error", err)
		}
	}
	if a.webcam != nil {
		a.webcam.Close()
	}
	if a.adapter != nil {
		a.adapter.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
}

// loadModel retries the model load until it succeeds or ctx ends.
func (a *App) loadModel(ctx context.Context) {
	for attempt := 1; ; attempt++ {
		start := time.Now()
		err := a.service.LoadModel(ctx)
		if err == nil {
			a.logger.Info("pose model ready", "attempts", attempt, "took", time.Since(start))
			if a.service.IsCalibrationNeeded() {
				a.workflow.Reset()
				a.logger.Info("no baseline yet, open the dashboard to calibrate")
			}
			return
		}

		a.logger.Warn("pose model load failed, retrying",
			"attempt", attempt, "retry_in", a.config.LoadRetry, "error", err)

		select {
		case <-ctx.Done():
			return
		case <-time.After(a.config.LoadRetry):
		}
	}
}

func (a *App) initSettings() {
	path := posture.SettingsPath(a.config.DataDir)

	s := posture.DefaultSettings()
	if !a.config.Ephemeral {
		loaded, err := posture.LoadSettings(path)
		if err != nil {
			a.logger.Warn("using default settings", "path", path, "error", err)
		}
		s = loaded
	}

	a.settings = posture.NewManagerWith(s)
	if !a.config.Ephemeral {
		a.settings.OnSettingsChange = func(s posture.Settings) error {
			return posture.SaveSettings(path, s)
		}
	}
}

func (a *App) initStore() error {
	switch {
	case a.config.Ephemeral:
		a.store = calibration.NewMemoryStore()
		a.logger.Info("calibration kept in memory only")

	case a.config.RedisAddr != "":
		client, err := calibration.NewRedisClient(calibration.RedisConfig{Addr: a.config.RedisAddr})
		if err != nil {
			return err
		}
		a.redis = client
		a.store = calibration.NewRedisStore(client, "")
		a.logger.Info("calibration stored in redis", "addr", a.config.RedisAddr)

	default:
		store, err := calibration.NewDefaultStore(a.config.DataDir)
		if err != nil {
			return err
		}
		a.store = store
		a.logger.Info("calibration stored on disk", "path", store.Path())
	}
	return nil
}

func (a *App) initCamera() error {
	if a.config.ImagePath != "" {
		still, err := camera.OpenStill(a.config.ImagePath)
		if err != nil {
			return err
		}
		a.source = still
		a.logger.Info("using still image instead of webcam", "path", a.config.ImagePath)
		return nil
	}

	cfg := camera.DefaultConfig()
	cfg.DeviceID = a.config.CameraID

	a.webcam = camera.NewWebcam(cfg, a.logger)
	a.cameraManager = camera.NewManagerWith(cfg, a.webcam)
	a.source = a.webcam
	return nil
}

func (a *App) initNotifier() {
	sinks := notify.MultiSink{
		notify.LogSink{Logger: a.logger},
		notify.HubSink{Hub: a.webServer.AlertHub()},
	}
	if a.config.Desktop {
		sinks = append(sinks, notify.DesktopSink{})
	}

	a.notifier = notify.New(sinks, a.logger)

	s := a.settings.GetSettings()
	a.notifier.SetEnabled(s.EnableNotifications)
	a.notifier.SetCooldown(s.Cooldown())
}

func newPoseModel(cfg Config) pose.Model {
	pc := pose.DefaultConfig()
	pc.ModelPath = cfg.ModelPath
	pc.RuntimeLibrary = cfg.RuntimeLibrary

	if cfg.Backend == BackendORT {
		return pose.NewORTModel(pc)
	}
	return pose.NewGoCVModel(pc)
}
