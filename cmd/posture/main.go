// posture watches your sitting posture through the webcam and nudges you
// when you slouch. Everything runs locally; the dashboard is served on
// 127.0.0.1 only.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/app"
)

func main() {
	cfg, level := parseFlags()

	log.Init(level)
	logger := log.L()

	a, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("configuration error", "error", err)
		os.Exit(1)
	}

	if err := a.Init(); err != nil {
		logger.Error("initialization failed", "error", err)
		os.Exit(1)
	}
	defer a.Shutdown()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Run(ctx); err != nil {
		logger.Error("runtime error", "error", err)
	}
}

// parseFlags parses command line flags and returns configuration.
// Flags override environment variables, which override defaults.
func parseFlags() (app.Config, string) {
	cfg := app.DefaultConfig()

	debug := flag.Bool("debug", false, "Enable verbose debug logging")
	debugFrames := flag.Bool("debug-frames", false, "Log every processed frame")
	logLevel := flag.String("log-level", "info", "Log level: debug, info, warn, error")
	dataDir := flag.String("data-dir", cfg.DataDir, "Directory for settings and calibration (POSTURE_DATA_DIR)")
	model := flag.String("model", cfg.ModelPath, "YOLOv8-pose ONNX model (POSTURE_MODEL)")
	backend := flag.String("backend", cfg.Backend, "Pose backend: gocv, onnxruntime")
	ortLib := flag.String("ort-lib", cfg.RuntimeLibrary, "onnxruntime shared library (onnxruntime backend only)")
	loadRetry := flag.Duration("load-retry", cfg.LoadRetry, "Delay between model load attempts")
	cameraID := flag.Int("camera", cfg.CameraID, "Webcam index (POSTURE_CAMERA)")
	image := flag.String("image", "", "Use a still image instead of the webcam")
	port := flag.String("port", cfg.Port, "Dashboard port on 127.0.0.1 (POSTURE_PORT)")
	redisAddr := flag.String("redis", cfg.RedisAddr, "Store calibration in Redis at this address (POSTURE_REDIS_ADDR)")
	ephemeral := flag.Bool("ephemeral", false, "Keep calibration and settings in memory only")
	noDesktop := flag.Bool("no-desktop", false, "Disable desktop notifications")

	flag.Parse()

	cfg.Debug, cfg.DebugFrames = *debug, *debugFrames
	cfg.DataDir, cfg.ModelPath, cfg.Backend = *dataDir, *model, *backend
	cfg.RuntimeLibrary, cfg.LoadRetry = *ortLib, *loadRetry
	cfg.CameraID, cfg.ImagePath = *cameraID, *image
	cfg.Port, cfg.RedisAddr = *port, *redisAddr
	cfg.Ephemeral, cfg.Desktop = *ephemeral, !*noDesktop

	level := *logLevel
	if *debug {
		level = "debug"
	}
	return cfg, level
}
