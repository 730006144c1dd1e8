package posture

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teslashibe/go-posture/pkg/pose"
)

func TestShoulderTiltDeg(t *testing.T) {
	tests := []struct {
		name string
		tilt float64
	}{
		{"level", 0},
		{"slight", 5},
		{"strong", 30},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := ShoulderTiltDeg(seated(tc.tilt, 0, 0.9), 0.5)
			assert.InDelta(t, tc.tilt, got, 1e-9)
		})
	}
}

func TestShoulderTiltDeg_IgnoresWhichSideIsHigher(t *testing.T) {
	up := seated(12, 0, 0.9)
	down := seated(-12, 0, 0.9)

	assert.InDelta(t, 12, ShoulderTiltDeg(up, 0.5), 1e-9)
	assert.InDelta(t, 12, ShoulderTiltDeg(down, 0.5), 1e-9)
}

func TestShoulderTiltDeg_MissingShoulder(t *testing.T) {
	ls := &pose.LandmarkSet{}
	ls.Add(pose.Keypoint{Name: pose.LeftShoulder, X: 100, Y: 100, Confidence: 0.9})

	if !math.IsNaN(ShoulderTiltDeg(ls, 0.5)) {
		t.Error("expected NaN with one shoulder")
	}
	if !math.IsNaN(ShoulderTiltDeg(nil, 0.5)) {
		t.Error("expected NaN for a nil set")
	}
}

func TestConfidenceBoundIsInclusive(t *testing.T) {
	ls := seated(5, 10, 0.5)

	m := Compute(ls, 0.5)
	if !m.Complete() {
		t.Fatalf("keypoints at exactly the threshold should count, got %+v", m)
	}

	m = Compute(ls, 0.5000001)
	if !math.IsNaN(m.ShoulderTiltDeg) || !math.IsNaN(m.NeckAngleDeg) {
		t.Errorf("keypoints below the threshold should not count, got %+v", m)
	}
}

func TestNeckAngleDeg(t *testing.T) {
	for _, want := range []float64{0, 10, 25, 45} {
		got := NeckAngleDeg(seated(0, want, 0.9), 0.5)
		assert.InDelta(t, want, got, 1e-9)
	}
}

func TestNeckAngleDeg_SingleEar(t *testing.T) {
	ls := seated(0, 0, 0.9)
	ls.Add(pose.Keypoint{Name: pose.RightEar, X: 340, Y: 200, Confidence: 0.1})

	assert.True(t, math.IsNaN(NeckAngleDeg(ls, 0.5)), "one confident ear must not produce a neck angle")

	m := Compute(ls, 0.5)
	assert.False(t, m.Complete())
	assert.InDelta(t, 0, m.ShoulderTiltDeg, 1e-9)
}

func TestNeckAngleDeg_NoEars(t *testing.T) {
	ls := &pose.LandmarkSet{}
	ls.Add(pose.Keypoint{Name: pose.LeftShoulder, X: 200, Y: 300, Confidence: 0.9})
	ls.Add(pose.Keypoint{Name: pose.RightShoulder, X: 400, Y: 300, Confidence: 0.9})

	if !math.IsNaN(NeckAngleDeg(ls, 0.5)) {
		t.Error("expected NaN without ears")
	}
}

func TestTorsoLeanDeg(t *testing.T) {
	ls := seated(0, 0, 0.9)
	if !math.IsNaN(TorsoLeanDeg(ls, 0.5)) {
		t.Error("expected NaN without hips")
	}

	// Hips 200px straight below the shoulders, offset 50px sideways
	ls.Add(pose.Keypoint{Name: pose.LeftHip, X: 220 + 50, Y: 500, Confidence: 0.9})
	ls.Add(pose.Keypoint{Name: pose.RightHip, X: 420 + 50, Y: 500, Confidence: 0.9})

	want := Degrees(math.Atan2(50, 200))
	assert.InDelta(t, want, TorsoLeanDeg(ls, 0.5), 1e-9)
}

func TestCompute_NilSet(t *testing.T) {
	m := Compute(nil, 0.5)
	if m.Complete() || !math.IsNaN(m.TorsoLeanDeg) {
		t.Errorf("expected all NaN, got %+v", m)
	}
}

func TestMetrics_MarshalJSONNullsMissing(t *testing.T) {
	m := Compute(seated(3, 7, 0.9), 0.5)

	data, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var out map[string]interface{}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["torso_lean_deg"] != nil {
		t.Errorf("expected null torso lean, got %v", out["torso_lean_deg"])
	}
	assert.InDelta(t, 3, out["shoulder_tilt_deg"], 1e-9)
	assert.InDelta(t, 7, out["neck_angle_deg"], 1e-9)
}

func TestDegreesRadians(t *testing.T) {
	assert.InDelta(t, 180, Degrees(math.Pi), 1e-12)
	assert.InDelta(t, math.Pi/2, Radians(90), 1e-12)
}
