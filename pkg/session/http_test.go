package session

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSubmitter(t *testing.T) {
	var got *Envelope
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/devices/0/requests/repeating", r.URL.Path)
		assert.Equal(t, ContentType, r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		got, err = Decode(body)
		if !assert.NoError(t, err) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		assert.Equal(t, got.ID, r.Header.Get("X-Request-Id"))
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewHTTPSubmitter(HTTPConfig{URL: srv.URL, APIKey: "secret"})
	env := NewEnvelope("snap-1", params())
	require.NoError(t, s.Submit(context.Background(), env))
	require.NotNil(t, got)
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, env.Params, got.Params)
}

func TestHTTPSubmitterEscapesDeviceID(t *testing.T) {
	var path, query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path, query = r.URL.Path, r.URL.RawQuery
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	for _, id := range []string{"usb?bus=1", "usb/1", "front cam#2"} {
		env := NewEnvelope("snap", params())
		env.DeviceID = id
		require.NoError(t, NewHTTPSubmitter(HTTPConfig{URL: srv.URL}).Submit(context.Background(), env))
		assert.Equal(t, "/api/v1/devices/"+id+"/requests/repeating", path, id)
		assert.Empty(t, query, id)
	}
}

func TestHTTPSubmitterReportsStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "camera in use", http.StatusConflict)
	}))
	defer srv.Close()

	err := NewHTTPSubmitter(HTTPConfig{URL: srv.URL}).Submit(context.Background(), NewEnvelope("snap", params()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 409")
	assert.Contains(t, err.Error(), "camera in use")
}

func TestHTTPSubmitterHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewHTTPSubmitter(HTTPConfig{URL: srv.URL}).Submit(ctx, NewEnvelope("snap", params()))
	assert.ErrorIs(t, err, context.Canceled)
}
