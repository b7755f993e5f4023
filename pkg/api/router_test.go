package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urmzd/remo/pkg/api/types"
	"github.com/urmzd/remo/pkg/device"
	"github.com/urmzd/remo/pkg/metrics"
	"github.com/urmzd/remo/pkg/remo"
)

// stubController serves two devices and records SetDeviceState calls.
type stubController struct {
	device.NullEventSubscriber
	connected bool
	setErr    error
	refreshed bool
	renamed   map[string]string
	calls     []map[string]any
}

var stubDevices = []device.Device{
	{ID: "ac-1", Name: "AC", Type: device.DeviceTypeClimate, Protocol: device.ProtocolNatureRemo},
	{ID: "light-1", Name: "Ceiling", Type: device.DeviceTypeLight, Protocol: device.ProtocolNatureRemo},
}

func (s *stubController) ListDevices(context.Context) ([]device.Device, error) {
	return stubDevices, nil
}

func (s *stubController) GetDevice(_ context.Context, id string) (*device.Device, error) {
	for _, d := range stubDevices {
		if d.ID == id || d.Name == id {
			d := d
			return &d, nil
		}
	}
	return nil, device.ErrNotFound
}

func (s *stubController) RenameDevice(_ context.Context, id, name string) error {
	s.renamed[id] = name
	return nil
}

func (s *stubController) RemoveDevice(ctx context.Context, id string, _ bool) error {
	if _, err := s.GetDevice(ctx, id); err != nil {
		return err
	}
	return device.ErrUnsupported
}

func (s *stubController) GetDeviceState(ctx context.Context, id string) (device.DeviceState, error) {
	if _, err := s.GetDevice(ctx, id); err != nil {
		return nil, err
	}
	return device.DeviceState{"hvac_mode": "off"}, nil
}

func (s *stubController) SetDeviceState(ctx context.Context, id string, state map[string]any) (device.DeviceState, error) {
	if _, err := s.GetDevice(ctx, id); err != nil {
		return nil, err
	}
	if s.setErr != nil {
		return nil, s.setErr
	}
	s.calls = append(s.calls, state)
	return device.DeviceState(state), nil
}

func (s *stubController) Refresh(context.Context) error {
	s.refreshed = true
	return nil
}

func (s *stubController) IsConnected() bool { return s.connected }
func (s *stubController) Close()            {}

func newTestRouter(t *testing.T) (*stubController, http.Handler) {
	t.Helper()
	ctrl := &stubController{connected: true, renamed: map[string]string{}}
	return ctrl, NewRouter(ctrl, ctrl, metrics.New()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	ctrl, h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	var resp types.HealthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
	assert.Equal(t, 2, resp.Devices)

	ctrl.connected = false
	rec = do(t, h, http.MethodGet, "/api/v1/health", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestID(t *testing.T) {
	_, h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/health", "")
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/devices/nope", nil)
	req.Header.Set(RequestIDHeader, "abc")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc", rec.Header().Get(RequestIDHeader))

	var resp types.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "not_found", resp.Error)
	assert.Equal(t, "abc", resp.RequestID)
}

func TestListDevices(t *testing.T) {
	_, h := newTestRouter(t)

	rec := do(t, h, http.MethodGet, "/api/v1/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp types.ListDevicesResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "off", resp.Devices[0].State["hvac_mode"])

	rec = do(t, h, http.MethodGet, "/api/v1/climates", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "ac-1", resp.Devices[0].ID)

	rec = do(t, h, http.MethodGet, "/api/v1/devices?type=light", "")
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Count)
	assert.Equal(t, "light-1", resp.Devices[0].ID)
}

func TestSetState(t *testing.T) {
	ctrl, h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/devices/ac-1/state", `{"hvac_mode":"cool","temperature":24}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, ctrl.calls, 1)
	assert.Equal(t, "cool", ctrl.calls[0]["hvac_mode"])
	assert.Equal(t, 24.0, ctrl.calls[0]["temperature"])

	rec = do(t, h, http.MethodPost, "/api/v1/devices/ac-1/state", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestShortcuts(t *testing.T) {
	ctrl, h := newTestRouter(t)

	tests := []struct {
		path string
		body string
		want map[string]any
	}{
		{"/api/v1/climates/ac-1/mode", `{"hvac_mode":"heat"}`, map[string]any{"hvac_mode": "heat"}},
		{"/api/v1/climates/ac-1/temperature", `{"temperature":22.5}`, map[string]any{"temperature": 22.5}},
		{"/api/v1/climates/ac-1/fan", `{"fan_mode":"auto"}`, map[string]any{"fan_mode": "auto"}},
		{"/api/v1/climates/ac-1/swing", `{"swing_mode":""}`, map[string]any{"swing_mode": ""}},
		{"/api/v1/climates/ac-1/off", "", map[string]any{"power": "off"}},
		{"/api/v1/lights/light-1/toggle", "", map[string]any{"power": "toggle"}},
		{"/api/v1/signals/light-1/select", `{"option":"1. onoff","send":true}`, map[string]any{"option": "1. onoff", "press": true}},
		{"/api/v1/signals/light-1/send", "", map[string]any{"press": true}},
	}
	for i, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := do(t, h, http.MethodPost, tt.path, tt.body)
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			require.Len(t, ctrl.calls, i+1)
			assert.Equal(t, tt.want, ctrl.calls[i])
		})
	}

	rec := do(t, h, http.MethodPost, "/api/v1/climates/ac-1/temperature", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{fmt.Errorf("%w: bad mode", device.ErrValidation), http.StatusBadRequest},
		{device.ErrUnsupported, http.StatusBadRequest},
		{fmt.Errorf("set hvac_mode: %w", remo.ErrAuth), http.StatusUnauthorized},
		{fmt.Errorf("set hvac_mode: %w", remo.ErrNetwork), http.StatusBadGateway},
		{device.ErrTimeout, http.StatusGatewayTimeout},
		{device.ErrNotConnected, http.StatusServiceUnavailable},
		{fmt.Errorf("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			ctrl, h := newTestRouter(t)
			ctrl.setErr = tt.err
			rec := do(t, h, http.MethodPost, "/api/v1/devices/ac-1/state", `{"power":"on"}`)
			assert.Equal(t, tt.code, rec.Code)
		})
	}

	_, h := newTestRouter(t)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPost, "/api/v1/devices/nope/state", `{}`).Code)
}

func TestRenameAndRemove(t *testing.T) {
	ctrl, h := newTestRouter(t)

	rec := do(t, h, http.MethodPatch, "/api/v1/devices/AC", `{"name":"Bedroom"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Bedroom", ctrl.renamed["ac-1"])

	rec = do(t, h, http.MethodPatch, "/api/v1/devices/ac-1", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, h, http.MethodDelete, "/api/v1/devices/ac-1", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = do(t, h, http.MethodDelete, "/api/v1/devices/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRefreshAndMetrics(t *testing.T) {
	ctrl, h := newTestRouter(t)

	rec := do(t, h, http.MethodPost, "/api/v1/refresh", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, ctrl.refreshed)

	rec = do(t, h, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestNullController(t *testing.T) {
	h := NewRouter(device.NewNullController(), device.NewNullEventSubscriber(), nil).Handler()

	assert.Equal(t, http.StatusServiceUnavailable, do(t, h, http.MethodPost, "/api/v1/refresh", "").Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodGet, "/metrics", "").Code)
}
