package web

import (
	"bytes"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/teslashibe/go-posture/pkg/calibration"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/hub"
	"github.com/teslashibe/go-posture/pkg/monitor"
	"github.com/teslashibe/go-posture/pkg/posture"
)

// StatusResponse is the body of GET /api/status.
type StatusResponse struct {
	ModelReady  bool                  `json:"model_ready"`
	Calibration calibration.State     `json:"calibration"`
	Posture     *monitor.Snapshot     `json:"posture,omitempty"`
	Baseline    *calibration.Baseline `json:"baseline,omitempty"`
	Streams     map[string]hub.Stats  `json:"streams"`
}

// CalibrationResponse is the body of the calibration endpoints.
type CalibrationResponse struct {
	State    calibration.State     `json:"state"`
	Baseline *calibration.Baseline `json:"baseline,omitempty"`
	Workflow calibration.Snapshot  `json:"workflow"`
}

// handleStatus returns the current posture and calibration state
func (s *Server) handleStatus(c *fiber.Ctx) error {
	resp := StatusResponse{
		ModelReady:  s.opts.Service.IsModelReady(),
		Calibration: s.opts.Service.State(),
		Streams: map[string]hub.Stats{
			"status": s.statusHub.Stats(),
			"alerts": s.alertHub.Stats(),
		},
	}
	if b, ok := s.opts.Service.Baseline(); ok {
		resp.Baseline = &b
	}
	if s.opts.Status != nil {
		last := s.opts.Status.Last()
		if !last.At.IsZero() {
			resp.Posture = &last
		}
	}
	return c.JSON(resp)
}

// handleGetSettings returns the current settings
func (s *Server) handleGetSettings(c *fiber.Ctx) error {
	return c.JSON(s.opts.Settings.GetSettings())
}

// handleUpdateSettings applies a partial update, optionally starting from a preset
func (s *Server) handleUpdateSettings(c *fiber.Ctx) error {
	params, err := decodeParams(c)
	if err != nil {
		return err
	}

	if err := s.opts.Settings.UpdateSettings(params); err != nil {
		// Already live; only the save failed
		if errors.Is(err, posture.ErrSettingsNotSaved) {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	s.logger.Info("settings updated", "changes", params)
	return c.JSON(s.opts.Settings.GetSettings())
}

// handleSettingsPresets lists the named settings presets
func (s *Server) handleSettingsPresets(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"names":   posture.PresetNames(),
		"presets": posture.Presets(),
	})
}

// handleGetCamera returns the camera configuration
func (s *Server) handleGetCamera(c *fiber.Ctx) error {
	if s.opts.Camera == nil {
		return fiber.NewError(fiber.StatusNotFound, "camera is not configurable")
	}
	return c.JSON(fiber.Map{
		"config": s.opts.Camera.GetConfig(),
		"modes":  camera.Modes(),
	})
}

// handleUpdateCamera applies a partial camera update
func (s *Server) handleUpdateCamera(c *fiber.Ctx) error {
	if s.opts.Camera == nil {
		return fiber.NewError(fiber.StatusNotFound, "camera is not configurable")
	}

	params, err := decodeParams(c)
	if err != nil {
		return err
	}
	if err := s.opts.Camera.UpdateConfig(params); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return c.JSON(s.opts.Camera.GetConfig())
}

// handleGetCalibration returns the stored baseline and the workflow state
func (s *Server) handleGetCalibration(c *fiber.Ctx) error {
	return c.JSON(s.calibrationResponse())
}

// handleOpenCalibration (re)enters the workflow at the instructions step
func (s *Server) handleOpenCalibration(c *fiber.Ctx) error {
	s.opts.Workflow.Reset()
	return c.JSON(s.calibrationResponse())
}

// handleStartCalibration begins the countdown
func (s *Server) handleStartCalibration(c *fiber.Ctx) error {
	if !s.opts.Workflow.Start() {
		return fiber.NewError(fiber.StatusConflict, "calibration is not waiting to start")
	}
	return c.JSON(s.calibrationResponse())
}

// handleDismissCalibration cancels a running countdown
func (s *Server) handleDismissCalibration(c *fiber.Ctx) error {
	if !s.opts.Workflow.Dismiss() {
		return fiber.NewError(fiber.StatusConflict, "no countdown to dismiss")
	}
	return c.JSON(s.calibrationResponse())
}

// handleClearCalibration deletes the baseline
func (s *Server) handleClearCalibration(c *fiber.Ctx) error {
	if err := s.opts.Service.ClearCalibrationData(c.UserContext()); err != nil {
		return err
	}
	s.opts.Workflow.Reset()
	return c.JSON(s.calibrationResponse())
}

func (s *Server) calibrationResponse() CalibrationResponse {
	resp := CalibrationResponse{
		State:    s.opts.Service.State(),
		Workflow: s.opts.Workflow.Snapshot(),
	}
	if b, ok := s.opts.Service.Baseline(); ok {
		resp.Baseline = &b
	}
	return resp
}

// decodeParams reads a JSON object body, keeping numbers as json.Number.
func decodeParams(c *fiber.Ctx) (map[string]interface{}, error) {
	var params map[string]interface{}

	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.UseNumber()
	if err := dec.Decode(&params); err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "body must be a JSON object")
	}
	if params == nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "body must be a JSON object")
	}
	return params, nil
}
