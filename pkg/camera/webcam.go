package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"gocv.io/x/gocv"

	"github.com/teslashibe/go-posture/pkg/debug"
	"github.com/teslashibe/go-posture/pkg/pose"
)

// ErrNoCamera is returned when the webcam cannot be opened or read.
var ErrNoCamera = errors.New("camera: no camera available")

// Source supplies single frames on demand.
type Source interface {
	Capture(ctx context.Context) (pose.Frame, error)
}

// Webcam captures frames from a local camera through OpenCV.
// The device is opened on first use and reopened after a read failure.
type Webcam struct {
	logger *slog.Logger

	mu     sync.Mutex
	cfg    Config
	device *gocv.VideoCapture
	mat    gocv.Mat
	hasMat bool
}

// NewWebcam creates a webcam source. No device is opened until Capture.
func NewWebcam(cfg Config, logger *slog.Logger) *Webcam {
	if logger == nil {
		logger = slog.Default()
	}
	return &Webcam{
		cfg:    cfg,
		logger: logger.With("component", "camera"),
	}
}

// Capture reads one frame.
func (w *Webcam) Capture(ctx context.Context) (pose.Frame, error) {
	if err := ctx.Err(); err != nil {
		return pose.Frame{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.openLocked(); err != nil {
		return pose.Frame{}, err
	}

	if ok := w.device.Read(&w.mat); !ok || w.mat.Empty() {
		// Camera unplugged or taken by another app; try again next time
		w.closeDeviceLocked()
		return pose.Frame{}, fmt.Errorf("%w: read failed on device %d", ErrNoCamera, w.cfg.DeviceID)
	}

	img, err := w.mat.ToImage()
	if err != nil {
		return pose.Frame{}, fmt.Errorf("camera: convert frame: %w", err)
	}

	debug.FrameLog("📷 camera: frame %dx%d\n", w.mat.Cols(), w.mat.Rows())
	return pose.Frame{Image: img, CapturedAt: time.Now()}, nil
}

// Apply switches to cfg. The device is reopened on the next Capture.
func (w *Webcam) Apply(cfg Config) error {
	if errs := cfg.Validate(); len(errs) > 0 {
		return fmt.Errorf("invalid camera config: %v", errs)
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	w.cfg = cfg
	w.closeDeviceLocked()
	return nil
}

// Close releases the device.
func (w *Webcam) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.closeDeviceLocked()
	if w.hasMat {
		w.hasMat = false
		return w.mat.Close()
	}
	return nil
}

func (w *Webcam) openLocked() error {
	if w.device != nil {
		return nil
	}

	device, err := gocv.VideoCaptureDevice(w.cfg.DeviceID)
	if err != nil {
		return fmt.Errorf("%w: open device %d: %v", ErrNoCamera, w.cfg.DeviceID, err)
	}
	if !device.IsOpened() {
		device.Close()
		return fmt.Errorf("%w: device %d not opened", ErrNoCamera, w.cfg.DeviceID)
	}

	device.Set(gocv.VideoCaptureFrameWidth, float64(w.cfg.Width))
	device.Set(gocv.VideoCaptureFrameHeight, float64(w.cfg.Height))
	device.Set(gocv.VideoCaptureFPS, float64(w.cfg.Framerate))

	if !w.hasMat {
		w.mat = gocv.NewMat()
		w.hasMat = true
	}
	w.device = device

	w.logger.Info("camera opened",
		"device", w.cfg.DeviceID,
		"width", device.Get(gocv.VideoCaptureFrameWidth),
		"height", device.Get(gocv.VideoCaptureFrameHeight))
	return nil
}

func (w *Webcam) closeDeviceLocked() {
	if w.device == nil {
		return
	}
	if err := w.device.Close(); err != nil {
		w.logger.Warn("camera close failed", "error", err)
	}
	w.device = nil
}
