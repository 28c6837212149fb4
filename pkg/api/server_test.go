package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/video-system/go-capture-negotiation/pkg/capability"
	"github.com/video-system/go-capture-negotiation/pkg/engine"
	"github.com/video-system/go-capture-negotiation/pkg/session"
)

type failingSubmitter struct{}

func (failingSubmitter) Submit(context.Context, *session.Envelope) error {
	return errors.New("session closed")
}

func rawDevice() capability.RawCharacteristics {
	return capability.RawCharacteristics{
		ID:               "0",
		PlatformVersion:  34,
		LensFacing:       1,
		HardwareLevel:    1,
		Capabilities:     []int{0, 4},
		MinZoom:          1,
		MaxZoom:          8,
		MinExposureIndex: -4,
		MaxExposureIndex: 4,
		MinFocusDistance: 10,
		AFModes:          []int{0, 1, 3, 4},
		AEModes:          []int{0, 1},
		AWBModes:         []int{1},
		VideoStreams: []capability.RawStream{
			{Width: 3840, Height: 2160, MinFrameDurationNs: 33333333},
			{Width: 1920, Height: 1080, MinFrameDurationNs: 16666666},
		},
		PhotoSizes: []capability.Size{{Width: 4000, Height: 3000}},
	}
}

func newTestServer(t *testing.T, sub session.Submitter) http.Handler {
	t.Helper()
	n, err := engine.New(engine.Options{Submitter: sub})
	require.NoError(t, err)
	_, err = n.Open(rawDevice())
	require.NoError(t, err)
	return NewServer(ServerConfig{Negotiator: n}).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader([]byte(body)))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, body := do(t, newTestServer(t, nil), http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestDevices(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodGet, "/api/v1/devices", "")
	require.Equal(t, http.StatusOK, rec.Code)
	devices := body["devices"].([]interface{})
	require.Len(t, devices, 1)
	assert.Equal(t, "0", devices[0].(map[string]interface{})["id"])
	assert.Equal(t, "back", devices[0].(map[string]interface{})["position"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/devices/0", "")
	require.Equal(t, http.StatusOK, rec.Code)
	caps := body["capabilities"].(map[string]interface{})
	assert.Equal(t, "full", caps["hardware_level"])
	assert.Equal(t, []interface{}{"off"}, body["stabilization_modes"])

	rec, body = do(t, h, http.MethodGet, "/api/v1/devices/9", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "device/no-device", body["code"])
}

func TestFormats(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodGet, "/api/v1/devices/0/formats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, body["formats"], 2)

	rec, body = do(t, h, http.MethodPost, "/api/v1/devices/0/formats/select",
		`{"filter":[{"criterion":"fps","value":60,"weight":1}],"rank":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	selected := body["selected"].(map[string]interface{})
	assert.Equal(t, 1.0, selected["index"])
	assert.Len(t, body["ranked"], 2)

	rec, body = do(t, h, http.MethodPost, "/api/v1/devices/0/formats/select",
		`{"filter":[{"criterion":"fps","value":60,"weight":-1}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "parameter/invalid-filter", body["code"])
	assert.Equal(t, "filter[0]", body["param"])
}

func TestRepeatingRequest(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodPost, "/api/v1/devices/0/requests/repeating",
		`{"format_index":0,"intent":{"fps":30,"outputs":[{"name":"video","kind":"video","repeating":true}]}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "record", body["template"])
	assert.Equal(t, map[string]interface{}{"min": 30.0, "max": 30.0}, body["fps_range"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/devices/0/requests/repeating",
		`{"format_index":0,"intent":{"fps":60}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "format/invalid-fps", body["code"])
	assert.Equal(t, "fps", body["param"])
	assert.Equal(t, "parameter", body["kind"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/devices/0/requests/repeating",
		`{"filter":[{"criterion":"fps","value":60,"weight":1}],"intent":{"fps":60}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, h, http.MethodPost, "/api/v1/devices/0/requests/repeating", `{"intent":{"torch":true}}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "device/flash-unavailable", body["code"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/devices/0/requests/repeating", `{"format_index":7,"intent":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "format_index", body["param"])

	rec, body = do(t, h, http.MethodPost, "/api/v1/devices/0/requests/repeating", `{`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "request/malformed-body", body["code"])
}

func TestPhotoRequest(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodPost, "/api/v1/devices/0/requests/photo",
		`{"intent":{"quality":"speed","orientation":"landscape-left"}}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "video-snapshot", body["template"])
	assert.Equal(t, 85.0, body["jpeg_quality"])
	assert.Equal(t, "landscape-left", body["jpeg_orientation"])
	assert.Equal(t, false, body["torch"])
}

func TestSubmit(t *testing.T) {
	rec, body := do(t, newTestServer(t, nil), http.MethodPost, "/api/v1/devices/0/requests/photo",
		`{"submit":true,"intent":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, body["id"])
	assert.Equal(t, "photo", body["kind"])

	rec, body = do(t, newTestServer(t, failingSubmitter{}), http.MethodPost, "/api/v1/devices/0/requests/repeating",
		`{"submit":true,"intent":{}}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "session/submission-failed", body["code"])
	assert.Equal(t, "session", body["kind"])
	assert.Contains(t, body["message"], "session closed")
}

func TestHistory(t *testing.T) {
	h := newTestServer(t, nil)

	rec, body := do(t, h, http.MethodGet, "/api/v1/devices/0/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, body["requests"])

	rec, _ = do(t, h, http.MethodPost, "/api/v1/devices/0/requests/photo", `{"submit":true,"intent":{}}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, body = do(t, h, http.MethodGet, "/api/v1/devices/0/requests", "")
	require.Equal(t, http.StatusOK, rec.Code)
	requests := body["requests"].([]interface{})
	require.Len(t, requests, 1)
	entry := requests[0].(map[string]interface{})
	assert.Equal(t, 1.0, entry["sequence"])
	assert.Equal(t, "photo", entry["envelope"].(map[string]interface{})["kind"])

	rec, _ = do(t, h, http.MethodGet, "/api/v1/devices/9/requests", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMethodNotAllowed(t *testing.T) {
	rec, _ := do(t, newTestServer(t, nil), http.MethodDelete, "/api/v1/devices", "")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
