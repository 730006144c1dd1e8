package posture

import "encoding/json"

// Status is the per-frame posture verdict. Never persisted.
type Status int

const (
	StatusUnknown Status = iota
	StatusGood
	StatusSlouching
	StatusShoulderMisaligned
)

var statusNames = map[Status]string{
	StatusUnknown:            "unknown",
	StatusGood:               "good",
	StatusSlouching:          "slouching",
	StatusShoulderMisaligned: "shoulder_misaligned",
}

// String returns the status name.
func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

// MarshalJSON encodes the status as its name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Bad reports whether the status should trigger an alert.
func (s Status) Bad() bool {
	return s == StatusSlouching || s == StatusShoulderMisaligned
}

// Reasons attached to an Unknown result.
const (
	ReasonNotCalibrated   = "not calibrated"
	ReasonDetectionFailed = "pose detection failed"
	ReasonLowConfidence   = "keypoints missing or below confidence"
)

// Result is the outcome of one classification.
type Result struct {
	Status  Status  `json:"status"`
	Metrics Metrics `json:"metrics"`

	// Reason explains an Unknown status; empty otherwise.
	Reason string `json:"reason,omitempty"`
}
