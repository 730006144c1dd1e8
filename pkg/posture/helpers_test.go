package posture

import (
	"image"
	"math"
	"time"

	"github.com/teslashibe/go-posture/pkg/pose"
)

// seated builds a landmark set whose shoulder tilt and neck angle are the
// given values in degrees. All keypoints use conf.
func seated(tiltDeg, neckDeg, conf float64) *pose.LandmarkSet {
	const cx, cy, half, neck = 320.0, 300.0, 100.0, 100.0

	t := Radians(tiltDeg)
	n := Radians(neckDeg)
	earX := cx + neck*math.Sin(n)
	earY := cy - neck*math.Cos(n)

	ls := &pose.LandmarkSet{Width: 640, Height: 480}
	ls.Add(pose.Keypoint{Name: pose.LeftShoulder, X: cx - half*math.Cos(t), Y: cy - half*math.Sin(t), Confidence: conf})
	ls.Add(pose.Keypoint{Name: pose.RightShoulder, X: cx + half*math.Cos(t), Y: cy + half*math.Sin(t), Confidence: conf})
	ls.Add(pose.Keypoint{Name: pose.LeftEar, X: earX - 20, Y: earY, Confidence: conf})
	ls.Add(pose.Keypoint{Name: pose.RightEar, X: earX + 20, Y: earY, Confidence: conf})
	ls.Add(pose.Keypoint{Name: pose.Nose, X: earX, Y: earY + 10, Confidence: conf})
	return ls
}

func testFrame() pose.Frame {
	return pose.Frame{
		Image:      image.NewRGBA(image.Rect(0, 0, 640, 480)),
		CapturedAt: time.Date(2025, 3, 1, 9, 30, 0, 0, time.UTC),
	}
}
