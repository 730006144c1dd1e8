package pose

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"sync"

	"github.com/disintegration/imaging"
	ort "github.com/yalue/onnxruntime_go"
)

// letterboxFill is the padding color Ultralytics uses for letterboxing.
var letterboxFill = color.NRGBA{R: 114, G: 114, B: 114, A: 255}

// ORTModel runs YOLOv8-pose through onnxruntime.
type ORTModel struct {
	config Config

	mu      sync.Mutex // Protects the session and its tensors
	session *ort.AdvancedSession
	input   *ort.Tensor[float32]
	output  *ort.Tensor[float32]
	anchors int
}

// NewORTModel creates an unloaded onnxruntime backend.
func NewORTModel(cfg Config) *ORTModel {
	return &ORTModel{config: cfg}
}

// Name implements Model.
func (m *ORTModel) Name() string { return "onnxruntime" }

// Load initializes the runtime environment and a session with preallocated tensors.
func (m *ORTModel) Load(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session != nil {
		return nil
	}

	if _, err := os.Stat(m.config.ModelPath); os.IsNotExist(err) {
		return &ModelLoadError{Backend: m.Name(), Path: m.config.ModelPath, Err: ErrModelNotFound}
	}

	if !ort.IsInitialized() {
		ort.SetSharedLibraryPath(m.config.RuntimeLibrary)
		if err := ort.InitializeEnvironment(); err != nil {
			return &ModelLoadError{Backend: m.Name(), Err: fmt.Errorf("initialize runtime: %w", err)}
		}
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return &ModelLoadError{Backend: m.Name(), Err: fmt.Errorf("session options: %w", err)}
	}
	defer options.Destroy()

	// One frame at a time; keep the desktop responsive
	options.SetIntraOpNumThreads(2)
	options.SetInterOpNumThreads(1)

	// 8400 anchors for a 640x640 input (strides 8, 16, 32)
	anchors := anchorCount(m.config.InputWidth, m.config.InputHeight)

	input, err := ort.NewEmptyTensor[float32](ort.NewShape(1, 3, int64(m.config.InputHeight), int64(m.config.InputWidth)))
	if err != nil {
		return &ModelLoadError{Backend: m.Name(), Err: fmt.Errorf("input tensor: %w", err)}
	}

	output, err := ort.NewEmptyTensor[float32](ort.NewShape(1, yoloPoseRows, int64(anchors)))
	if err != nil {
		input.Destroy()
		return &ModelLoadError{Backend: m.Name(), Err: fmt.Errorf("output tensor: %w", err)}
	}

	session, err := ort.NewAdvancedSession(
		m.config.ModelPath,
		[]string{"images"},
		[]string{"output0"},
		[]ort.ArbitraryTensor{input},
		[]ort.ArbitraryTensor{output},
		options,
	)
	if err != nil {
		input.Destroy()
		output.Destroy()
		return &ModelLoadError{Backend: m.Name(), Path: m.config.ModelPath, Err: err}
	}

	m.session, m.input, m.output, m.anchors = session, input, output, anchors
	return nil
}

// Infer letterboxes the frame into the input tensor and decodes the best person.
func (m *ORTModel) Infer(ctx context.Context, frame Frame) (*LandmarkSet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil, ErrModelNotReady
	}

	canvas, lb := letterbox(frame.Image, m.config.InputWidth, m.config.InputHeight)
	fillCHW(canvas, m.input.GetData(), m.config.InputWidth, m.config.InputHeight)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("model inference: %w", err)
	}

	set, err := DecodeYOLOPose(m.output.GetData(), m.anchors, m.config.MinPersonScore, lb)
	if err != nil {
		return nil, err
	}
	set.Width, set.Height = frame.Size()
	return set, nil
}

// Close destroys the session and tensors.
func (m *ORTModel) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session == nil {
		return nil
	}
	err := m.session.Destroy()
	m.input.Destroy()
	m.output.Destroy()
	m.session, m.input, m.output = nil, nil, nil
	return err
}

// letterbox fits img inside w×h keeping aspect ratio and pads the rest.
func letterbox(img image.Image, w, h int) (*image.NRGBA, Letterbox) {
	b := img.Bounds()
	fitted := imaging.Fit(img, w, h, imaging.Linear)
	fb := fitted.Bounds()

	padX := (w - fb.Dx()) / 2
	padY := (h - fb.Dy()) / 2

	canvas := imaging.New(w, h, letterboxFill)
	canvas = imaging.Paste(canvas, fitted, image.Pt(padX, padY))

	return canvas, Letterbox{
		ScaleX: float64(fb.Dx()) / float64(b.Dx()),
		ScaleY: float64(fb.Dy()) / float64(b.Dy()),
		PadX:   float64(padX),
		PadY:   float64(padY),
	}
}

// fillCHW writes normalized RGB planes into dst.
func fillCHW(img *image.NRGBA, dst []float32, w, h int) {
	plane := w * h
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			i := y*w + x
			p := row[x*4:]
			dst[i] = float32(p[0]) / 255.0
			dst[plane+i] = float32(p[1]) / 255.0
			dst[2*plane+i] = float32(p[2]) / 255.0
		}
	}
}

// anchorCount returns the YOLOv8 anchor count for an input size.
func anchorCount(w, h int) int {
	n := 0
	for _, stride := range []int{8, 16, 32} {
		n += (w / stride) * (h / stride)
	}
	return n
}
