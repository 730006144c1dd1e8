package pose

import (
	"image"
	"image/color"
	"testing"
)

func TestLetterbox_WideFrame(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 200, 100))
	canvas, lb := letterbox(img, 64, 64)

	if canvas.Bounds().Dx() != 64 || canvas.Bounds().Dy() != 64 {
		t.Fatalf("canvas is %v, want 64x64", canvas.Bounds())
	}
	if lb.PadX != 0 {
		t.Errorf("wide frame should not pad horizontally, got %v", lb.PadX)
	}
	if lb.PadY <= 0 {
		t.Errorf("wide frame should pad vertically, got %v", lb.PadY)
	}

	// Center of the canvas maps back to the center of the frame
	x, y := lb.Source(32, 32)
	if x < 98 || x > 102 || y < 48 || y > 52 {
		t.Errorf("canvas center maps to (%.1f,%.1f), want ~(100,50)", x, y)
	}
}

func TestFillCHW(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 0, B: 51, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 0, G: 102, B: 0, A: 255})

	dst := make([]float32, 6)
	fillCHW(img, dst, 2, 1)

	want := []float32{1, 0, 0, 0.4, 0.2, 0}
	for i := range want {
		diff := dst[i] - want[i]
		if diff < -0.001 || diff > 0.001 {
			t.Errorf("dst[%d] = %v, want %v", i, dst[i], want[i])
		}
	}
}
