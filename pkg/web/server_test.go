package web

import (
	"context"
	"encoding/json"
	"errors"
	"image"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/teslashibe/go-posture/internal/log"
	"github.com/teslashibe/go-posture/pkg/calibration"
	"github.com/teslashibe/go-posture/pkg/camera"
	"github.com/teslashibe/go-posture/pkg/monitor"
	"github.com/teslashibe/go-posture/pkg/pose"
	"github.com/teslashibe/go-posture/pkg/posture"
)

type fakeStatus struct{ snap monitor.Snapshot }

func (f fakeStatus) Last() monitor.Snapshot { return f.snap }

type fixture struct {
	server   *Server
	service  *posture.Service
	workflow *calibration.Workflow
	settings *posture.Manager
	store    *calibration.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	ls := &pose.LandmarkSet{}
	ls.Add(pose.Keypoint{Name: pose.LeftShoulder, X: 220, Y: 300, Confidence: 0.9})
	ls.Add(pose.Keypoint{Name: pose.RightShoulder, X: 420, Y: 300, Confidence: 0.9})
	ls.Add(pose.Keypoint{Name: pose.LeftEar, X: 300, Y: 200, Confidence: 0.9})
	ls.Add(pose.Keypoint{Name: pose.RightEar, X: 340, Y: 200, Confidence: 0.9})

	adapter := pose.NewAdapter(pose.NewMock(ls), log.Discard())
	require.NoError(t, adapter.LoadModel(context.Background()))

	f := &fixture{
		settings: posture.NewManager(),
		store:    calibration.NewMemoryStore(),
	}
	f.service = posture.NewService(adapter, f.store, f.settings, log.Discard())

	source := camera.NewStill(image.NewRGBA(image.Rect(0, 0, 640, 480)))
	f.workflow = calibration.NewWorkflow(source, f.service, log.Discard())

	status := fakeStatus{snap: monitor.Snapshot{
		Type:   "status",
		Status: posture.StatusGood,
		At:     time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}}

	f.server = NewServer("127.0.0.1:0", Options{
		Service:  f.service,
		Workflow: f.workflow,
		Status:   status,
		Settings: f.settings,
		Camera:   camera.NewManager(nil),
	}, log.Discard())
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := f.server.App().Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]interface{}
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(data) > 0 {
		require.NoError(t, json.Unmarshal(data, &out), "body: %s", data)
	}
	return resp.StatusCode, out
}

func TestStatus(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodGet, "/api/status", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, true, body["model_ready"])
	require.Equal(t, "not_calibrated", body["calibration"])
	require.NotContains(t, body, "baseline")

	p := body["posture"].(map[string]interface{})
	require.Equal(t, "good", p["status"])

	streams := body["streams"].(map[string]interface{})
	require.Contains(t, streams, "status")
	require.Contains(t, streams, "alerts")
}

func TestSettings_GetAndUpdate(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodGet, "/api/settings", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 15.0, body["slouch_threshold"])

	code, body = f.do(t, http.MethodPut, "/api/settings", `{"slouch_threshold": 22, "enable_notifications": false}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 22.0, body["slouch_threshold"])
	require.Equal(t, false, body["enable_notifications"])
	require.Equal(t, 22.0, f.settings.GetSettings().SlouchThreshold)

	code, _ = f.do(t, http.MethodPut, "/api/settings", `{"preset": "strict"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, posture.StrictSettings(), f.settings.GetSettings())
}

func TestSettings_Rejected(t *testing.T) {
	f := newFixture(t)
	before := f.settings.GetSettings()

	tests := []struct {
		name string
		body string
	}{
		{"out of range", `{"detection_confidence": 1.5}`},
		{"unknown key", `{"volume": 11}`},
		{"unknown preset", `{"preset": "zen"}`},
		{"not an object", `[1, 2]`},
		{"not json", `slouch=3`},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := f.do(t, http.MethodPut, "/api/settings", tc.body)
			require.Equal(t, http.StatusBadRequest, code)
			require.NotEmpty(t, body["error"])
		})
	}
	require.Equal(t, before, f.settings.GetSettings())
}

func TestSettings_SaveFailure(t *testing.T) {
	f := newFixture(t)
	f.settings.OnSettingsChange = func(posture.Settings) error {
		return errors.New("read-only file system")
	}

	code, body := f.do(t, http.MethodPut, "/api/settings", `{"slouch_threshold": 22}`)
	require.Equal(t, http.StatusInternalServerError, code)
	require.Contains(t, body["error"], "not saved")
	require.Equal(t, 22.0, f.settings.GetSettings().SlouchThreshold, "change is live even though it was not saved")
}

func TestSettingsPresets(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodGet, "/api/settings/presets", "")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body["names"], len(posture.PresetNames()))
	require.Contains(t, body["presets"], posture.PresetQuiet)
}

func TestCamera(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPut, "/api/camera", `{"mode": "720p"}`)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, 1280.0, body["width"])

	code, _ = f.do(t, http.MethodPut, "/api/camera", `{"framerate": 500}`)
	require.Equal(t, http.StatusBadRequest, code)

	code, body = f.do(t, http.MethodGet, "/api/camera", "")
	require.Equal(t, http.StatusOK, code)
	cfg := body["config"].(map[string]interface{})
	require.Equal(t, 1280.0, cfg["width"])
	require.Len(t, body["modes"], len(camera.Modes()))
}

func TestCalibrationFlow(t *testing.T) {
	f := newFixture(t)

	code, body := f.do(t, http.MethodPost, "/api/calibration/open", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "instructions", body["workflow"].(map[string]interface{})["phase"])

	code, _ = f.do(t, http.MethodPost, "/api/calibration/dismiss", "")
	require.Equal(t, http.StatusConflict, code, "nothing to dismiss before start")

	code, body = f.do(t, http.MethodPost, "/api/calibration/start", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "countdown", body["workflow"].(map[string]interface{})["phase"])

	code, _ = f.do(t, http.MethodPost, "/api/calibration/start", "")
	require.Equal(t, http.StatusConflict, code)

	for i := 0; i < calibration.DefaultCountdown; i++ {
		f.workflow.Tick(context.Background())
	}

	code, body = f.do(t, http.MethodGet, "/api/calibration", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "calibrated", body["state"])
	require.Equal(t, "success", body["workflow"].(map[string]interface{})["phase"])
	require.NotNil(t, body["baseline"])

	code, body = f.do(t, http.MethodDelete, "/api/calibration", "")
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "not_calibrated", body["state"])
	require.Equal(t, "instructions", body["workflow"].(map[string]interface{})["phase"])
	require.True(t, f.service.IsCalibrationNeeded())
}

func TestCalibrationDismiss(t *testing.T) {
	f := newFixture(t)

	f.do(t, http.MethodPost, "/api/calibration/start", "")
	f.workflow.Tick(context.Background())

	code, body := f.do(t, http.MethodPost, "/api/calibration/dismiss", "")
	require.Equal(t, http.StatusOK, code)
	wf := body["workflow"].(map[string]interface{})
	require.Equal(t, "instructions", wf["phase"])
	require.Equal(t, float64(calibration.DefaultCountdown), wf["remaining"])
}

func TestClearCalibrationStorageError(t *testing.T) {
	f := newFixture(t)
	f.store.Err = context.DeadlineExceeded

	code, body := f.do(t, http.MethodDelete, "/api/calibration", "")
	require.Equal(t, http.StatusInternalServerError, code)
	require.Contains(t, body["error"], "calibration store")
}

func TestWebsocketRequiresUpgrade(t *testing.T) {
	f := newFixture(t)

	code, _ := f.do(t, http.MethodGet, "/ws/status", "")
	require.Equal(t, http.StatusUpgradeRequired, code)
}
