package pose

import (
	"fmt"
	"math"
)

// yoloPoseRows is the per-anchor row count of YOLOv8-pose output:
// 4 box values, 1 person score, then 17 keypoints of (x, y, confidence).
const yoloPoseRows = 4 + 1 + NumKeypoints*3

// Letterbox maps model-input coordinates back to source-frame pixels:
// source = (input - Pad) / Scale.
type Letterbox struct {
	ScaleX, ScaleY float64
	PadX, PadY     float64
}

// Stretch returns the mapping for a plain resize from srcW×srcH to dstW×dstH.
func Stretch(srcW, srcH, dstW, dstH int) Letterbox {
	return Letterbox{
		ScaleX: float64(dstW) / float64(srcW),
		ScaleY: float64(dstH) / float64(srcH),
	}
}

// Source converts a model-input point to source-frame pixels.
func (l Letterbox) Source(x, y float64) (float64, float64) {
	sx, sy := l.ScaleX, l.ScaleY
	if sx == 0 {
		sx = 1
	}
	if sy == 0 {
		sy = 1
	}
	return (x - l.PadX) / sx, (y - l.PadY) / sy
}

// DecodeYOLOPose picks the highest-scoring person from a channel-major
// [1, 56, anchors] YOLOv8-pose output. It returns an empty set when no
// anchor reaches minScore.
func DecodeYOLOPose(data []float32, anchors int, minScore float64, lb Letterbox) (*LandmarkSet, error) {
	if anchors <= 0 || len(data) < yoloPoseRows*anchors {
		return nil, fmt.Errorf("%w: got %d values for %d anchors", ErrUnexpectedOutput, len(data), anchors)
	}

	best := -1
	bestScore := minScore
	for i := 0; i < anchors; i++ {
		score := float64(data[4*anchors+i])
		if score >= bestScore {
			bestScore = score
			best = i
		}
	}

	set := &LandmarkSet{}
	if best < 0 {
		return set, nil
	}

	set.Score = bestScore
	set.Keypoints = make([]Keypoint, 0, NumKeypoints)
	for k := 0; k < NumKeypoints; k++ {
		row := 5 + k*3
		x, y := lb.Source(float64(data[row*anchors+best]), float64(data[(row+1)*anchors+best]))
		conf := float64(data[(row+2)*anchors+best])
		if math.IsNaN(conf) {
			conf = 0
		}
		set.Keypoints = append(set.Keypoints, Keypoint{
			Name:       KeypointName(k),
			X:          x,
			Y:          y,
			Confidence: clamp(conf, 0, 1),
		})
	}
	return set, nil
}

// clamp limits a value to a range
func clamp(value, min, max float64) float64 {
	if value < min {
		return min
	}
	if value > max {
		return max
	}
	return value
}
