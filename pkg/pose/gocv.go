package pose

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"github.com/teslashibe/go-posture/pkg/debug"
	"gocv.io/x/gocv"
)

// GoCVModel runs YOLOv8-pose through OpenCV's DNN module
type GoCVModel struct {
	net    gocv.Net
	config Config
	loaded bool
	mu     sync.Mutex // Protects net
}

// NewGoCVModel creates an unloaded OpenCV DNN backend
func NewGoCVModel(cfg Config) *GoCVModel {
	return &GoCVModel{config: cfg}
}

// Name implements Model.
func (m *GoCVModel) Name() string { return "gocv" }

// Load reads the ONNX network.
func (m *GoCVModel) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.loaded {
		return nil
	}

	if _, err := os.Stat(m.config.ModelPath); os.IsNotExist(err) {
		return &ModelLoadError{Backend: m.Name(), Path: m.config.ModelPath, Err: ErrModelNotFound}
	}

	net := gocv.ReadNetFromONNX(m.config.ModelPath)
	if net.Empty() {
		return &ModelLoadError{Backend: m.Name(), Path: m.config.ModelPath, Err: fmt.Errorf("empty network")}
	}

	// Set backend and target
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	m.net = net
	m.loaded = true
	return nil
}

// Infer finds the most prominent person in the frame.
func (m *GoCVModel) Infer(ctx context.Context, frame Frame) (*LandmarkSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		return nil, ErrModelNotReady
	}

	inputSize := image.Pt(m.config.InputWidth, m.config.InputHeight)
	blob, imgW, imgH, err := frameBlob(frame.Image, inputSize)
	if err != nil {
		return nil, err
	}
	defer blob.Close()

	m.net.SetInput(blob, "")
	output := m.net.Forward("")
	defer output.Close()

	// Output shape: [1, 56, anchors]
	dims := output.Size()
	if len(dims) < 2 {
		return nil, fmt.Errorf("%w: %v", ErrUnexpectedOutput, dims)
	}
	anchors := dims[len(dims)-1]

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("read output: %w", err)
	}

	lb := Stretch(imgW, imgH, m.config.InputWidth, m.config.InputHeight)
	set, err := DecodeYOLOPose(data, anchors, m.config.MinPersonScore, lb)
	if err != nil {
		return nil, err
	}
	set.Width, set.Height = imgW, imgH

	if set.Len() > 0 {
		debug.FrameLog("🦴 gocv pose: person score %.2f\n", set.Score)
	}
	return set, nil
}

// frameBlob converts a frame into the network's NCHW RGB input blob.
// ImageToMatRGB stores pixels in OpenCV's BGR order, so the blob swaps
// red and blue back.
func frameBlob(img image.Image, size image.Point) (gocv.Mat, int, int, error) {
	mat, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return gocv.Mat{}, 0, 0, fmt.Errorf("convert frame: %w", err)
	}
	defer mat.Close()

	if mat.Empty() {
		return gocv.Mat{}, 0, 0, ErrEmptyFrame
	}

	blob := gocv.BlobFromImage(mat, 1.0/255.0, size, gocv.NewScalar(0, 0, 0, 0), true, false)
	return blob, mat.Cols(), mat.Rows(), nil
}

// Close releases the network
func (m *GoCVModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.loaded {
		m.net.Close()
		m.loaded = false
	}
	return nil
}
