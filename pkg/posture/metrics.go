// Package posture turns pose landmarks into posture angles and classifies
// them against the user's calibrated baseline.
package posture

import (
	"encoding/json"
	"math"
	"time"

	"github.com/teslashibe/go-posture/pkg/pose"
)

// Metrics are the posture angles derived from one frame, in degrees.
// A NaN field means the keypoints it needs were missing or not confident.
type Metrics struct {
	ShoulderTiltDeg float64
	NeckAngleDeg    float64
	TorsoLeanDeg    float64
	Timestamp       time.Time
}

// Missing returns metrics with every angle unset.
func Missing(ts time.Time) Metrics {
	nan := math.NaN()
	return Metrics{ShoulderTiltDeg: nan, NeckAngleDeg: nan, TorsoLeanDeg: nan, Timestamp: ts}
}

// Complete reports whether the angles required for classification are present.
func (m Metrics) Complete() bool {
	return !math.IsNaN(m.ShoulderTiltDeg) && !math.IsNaN(m.NeckAngleDeg)
}

// MarshalJSON encodes missing angles as null.
func (m Metrics) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ShoulderTiltDeg *float64  `json:"shoulder_tilt_deg"`
		NeckAngleDeg    *float64  `json:"neck_angle_deg"`
		TorsoLeanDeg    *float64  `json:"torso_lean_deg"`
		Timestamp       time.Time `json:"timestamp"`
	}{
		ShoulderTiltDeg: optional(m.ShoulderTiltDeg),
		NeckAngleDeg:    optional(m.NeckAngleDeg),
		TorsoLeanDeg:    optional(m.TorsoLeanDeg),
		Timestamp:       m.Timestamp,
	})
}

func optional(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

// Compute derives all metrics from a landmark set. A nil set yields all NaN.
func Compute(ls *pose.LandmarkSet, minConfidence float64) Metrics {
	if ls == nil {
		return Missing(time.Time{})
	}
	return Metrics{
		ShoulderTiltDeg: ShoulderTiltDeg(ls, minConfidence),
		NeckAngleDeg:    NeckAngleDeg(ls, minConfidence),
		TorsoLeanDeg:    TorsoLeanDeg(ls, minConfidence),
		Timestamp:       ls.Timestamp,
	}
}

// ShoulderTiltDeg is the angle of the shoulder line against horizontal,
// in [0, 90]. It does not depend on which shoulder is higher.
func ShoulderTiltDeg(ls *pose.LandmarkSet, minConfidence float64) float64 {
	left, okL := ls.Present(pose.LeftShoulder, minConfidence)
	right, okR := ls.Present(pose.RightShoulder, minConfidence)
	if !okL || !okR {
		return math.NaN()
	}

	dx := math.Abs(right.X - left.X)
	dy := math.Abs(right.Y - left.Y)
	if dx == 0 && dy == 0 {
		return math.NaN()
	}
	return Degrees(math.Atan2(dy, dx))
}

// NeckAngleDeg is the forward/sideways lean of the head: the angle between
// vertical and the vector from the shoulder midpoint to the ear midpoint.
// Both ears and both shoulders are required. A single ear sits off the
// midline and would read as a lean, so it yields NaN.
func NeckAngleDeg(ls *pose.LandmarkSet, minConfidence float64) float64 {
	shoulder, ok := midpoint(ls, pose.LeftShoulder, pose.RightShoulder, minConfidence)
	if !ok {
		return math.NaN()
	}

	ear, ok := midpoint(ls, pose.LeftEar, pose.RightEar, minConfidence)
	if !ok {
		return math.NaN()
	}

	return angleFromVertical(shoulder, ear)
}

// TorsoLeanDeg is the angle between vertical and the vector from the hip
// midpoint to the shoulder midpoint. Hips are usually hidden by the desk, so
// NaN is the common result.
func TorsoLeanDeg(ls *pose.LandmarkSet, minConfidence float64) float64 {
	hip, ok := midpoint(ls, pose.LeftHip, pose.RightHip, minConfidence)
	if !ok {
		return math.NaN()
	}
	shoulder, ok := midpoint(ls, pose.LeftShoulder, pose.RightShoulder, minConfidence)
	if !ok {
		return math.NaN()
	}
	return angleFromVertical(hip, shoulder)
}

type point struct{ X, Y float64 }

func midpoint(ls *pose.LandmarkSet, a, b pose.KeypointName, minConfidence float64) (point, bool) {
	ka, okA := ls.Present(a, minConfidence)
	kb, okB := ls.Present(b, minConfidence)
	if !okA || !okB {
		return point{}, false
	}
	return point{(ka.X + kb.X) / 2, (ka.Y + kb.Y) / 2}, true
}

// angleFromVertical measures the vector from base to tip against straight up.
// Image y grows downward, so "up" is base.Y - tip.Y. Range [0, 180].
func angleFromVertical(base, tip point) float64 {
	dx := math.Abs(tip.X - base.X)
	up := base.Y - tip.Y
	if dx == 0 && up == 0 {
		return math.NaN()
	}
	return Degrees(math.Atan2(dx, up))
}

// Degrees converts radians to degrees.
func Degrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// Radians converts degrees to radians.
func Radians(deg float64) float64 {
	return deg * math.Pi / 180
}
