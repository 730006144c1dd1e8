package camera

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/disintegration/imaging"

	"github.com/teslashibe/go-posture/pkg/pose"
)

// Still serves the same image on every capture. Used with --image to run
// the pipeline without a webcam.
type Still struct {
	img image.Image
	now func() time.Time
}

// NewStill wraps an already decoded image.
func NewStill(img image.Image) *Still {
	return &Still{img: img, now: time.Now}
}

// OpenStill decodes an image file, honoring EXIF orientation.
func OpenStill(path string) (*Still, error) {
	img, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", ErrNoCamera, path, err)
	}
	return NewStill(img), nil
}

// Capture implements Source.
func (s *Still) Capture(ctx context.Context) (pose.Frame, error) {
	if err := ctx.Err(); err != nil {
		return pose.Frame{}, err
	}
	return pose.Frame{Image: s.img, CapturedAt: s.now()}, nil
}
