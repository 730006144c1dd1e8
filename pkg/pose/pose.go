// Package pose wraps single-person body keypoint estimation.
//
// A Model backend (OpenCV DNN or onnxruntime) turns one camera frame into a
// LandmarkSet. The Adapter owns the backend lifecycle: a single shared load,
// a readiness flag, and error classification into ModelLoadError and
// InferenceError.
//
// Example usage:
//
//	adapter := pose.NewAdapter(pose.NewGoCVModel(pose.DefaultConfig()), logger)
//	if err := adapter.LoadModel(ctx); err != nil {
//	    return err
//	}
//	landmarks, err := adapter.Detect(ctx, frame)
package pose

import (
	"fmt"
	"image"
	"time"
)

// KeypointName identifies a body landmark. Values follow COCO keypoint order,
// which is also the output order of YOLOv8-pose.
type KeypointName int

const (
	Nose KeypointName = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle

	// NumKeypoints is the number of landmarks a full skeleton carries.
	NumKeypoints = 17
)

var keypointNames = [NumKeypoints]string{
	"nose", "left_eye", "right_eye", "left_ear", "right_ear",
	"left_shoulder", "right_shoulder", "left_elbow", "right_elbow",
	"left_wrist", "right_wrist", "left_hip", "right_hip",
	"left_knee", "right_knee", "left_ankle", "right_ankle",
}

// String returns the snake_case landmark name.
func (n KeypointName) String() string {
	if n < 0 || int(n) >= NumKeypoints {
		return fmt.Sprintf("keypoint(%d)", int(n))
	}
	return keypointNames[n]
}

// Keypoint is one landmark in source-frame pixel coordinates (y grows downward).
type Keypoint struct {
	Name       KeypointName `json:"name"`
	X          float64      `json:"x"`
	Y          float64      `json:"y"`
	Confidence float64      `json:"confidence"` // 0-1
}

// LandmarkSet holds the keypoints detected for one frame.
// Keypoints are unique by name; a set may be partial or empty.
type LandmarkSet struct {
	Keypoints []Keypoint `json:"keypoints"`
	Score     float64    `json:"score"` // person detection score
	Width     int        `json:"width"`
	Height    int        `json:"height"`
	Timestamp time.Time  `json:"timestamp"`
}

// Add inserts kp, replacing any keypoint with the same name.
func (s *LandmarkSet) Add(kp Keypoint) {
	for i := range s.Keypoints {
		if s.Keypoints[i].Name == kp.Name {
			s.Keypoints[i] = kp
			return
		}
	}
	s.Keypoints = append(s.Keypoints, kp)
}

// Get returns the keypoint with the given name. Safe on a nil set.
func (s *LandmarkSet) Get(name KeypointName) (Keypoint, bool) {
	if s == nil {
		return Keypoint{}, false
	}
	for _, kp := range s.Keypoints {
		if kp.Name == name {
			return kp, true
		}
	}
	return Keypoint{}, false
}

// Present returns the keypoint if it exists with confidence >= minConfidence.
// The bound is inclusive.
func (s *LandmarkSet) Present(name KeypointName, minConfidence float64) (Keypoint, bool) {
	kp, ok := s.Get(name)
	if !ok || kp.Confidence < minConfidence {
		return Keypoint{}, false
	}
	return kp, true
}

// Len returns the number of keypoints in the set.
func (s *LandmarkSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Keypoints)
}

// Frame is one raster image from the camera.
type Frame struct {
	Image      image.Image
	CapturedAt time.Time
}

// Size returns the frame dimensions, or zeros for an empty frame.
func (f Frame) Size() (width, height int) {
	if f.Image == nil {
		return 0, 0
	}
	b := f.Image.Bounds()
	return b.Dx(), b.Dy()
}

// Empty reports whether the frame has no pixels.
func (f Frame) Empty() bool {
	w, h := f.Size()
	return w == 0 || h == 0
}
