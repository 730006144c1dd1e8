package posture

import (
	"errors"

	"github.com/teslashibe/go-posture/pkg/calibration"
)

// ErrBusy is returned when a classification or calibration is already in
// flight. The call is rejected, not queued.
var ErrBusy error = &BusyError{}

// ErrCalibrationDataInsufficient is returned by Calibrate when the frame
// lacks a confident shoulder tilt or neck angle. The baseline is unchanged.
var ErrCalibrationDataInsufficient = calibration.ErrInsufficientData

// ErrSettingsNotSaved is returned when new settings took effect but could not
// be persisted. They stay live until the process exits.
var ErrSettingsNotSaved = errors.New("posture: settings applied but not saved")

// BusyError reports a rejected overlapping call.
type BusyError struct{}

// Error implements the error interface.
func (e *BusyError) Error() string {
	return "posture: busy"
}

// Reason implements calibration.Reasoner.
func (e *BusyError) Reason() string {
	return "posture check already running"
}

// IsBusy reports whether err is or wraps ErrBusy.
func IsBusy(err error) bool {
	return errors.Is(err, ErrBusy)
}
