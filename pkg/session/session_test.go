package session

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/video-system/go-capture-negotiation/pkg/capability"
	"github.com/video-system/go-capture-negotiation/pkg/request"
)

func params() *request.Parameters {
	exposure := -1.5
	return &request.Parameters{
		Kind:        request.KindRepeating,
		DeviceID:    "0",
		Template:    request.TemplateRecord,
		ControlMode: request.ControlModeAuto,
		AFMode:      capability.AFModeContinuousVideo,
		AEMode:      capability.AEModeOn,
		AWBMode:     capability.AWBModeAuto,
		Zoom:        request.Zoom{Factor: 2, Ratio: 2},
		Exposure:    &exposure,
		FpsRange:    &capability.IntRange{Min: 30, Max: 30},
		Targets:     []string{"preview", "video"},
		Decisions:   []request.Decision{{Chain: "fps", Rule: "fixed"}, {Chain: "af", Rule: "continuous-video"}},
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env := NewEnvelope("snap-1", params())
	_, err := uuid.Parse(env.ID)
	require.NoError(t, err)
	assert.Equal(t, request.KindRepeating, env.Kind)
	assert.Equal(t, "0", env.DeviceID)

	data, err := Encode(env)
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, env.ID, got.ID)
	assert.Equal(t, env.SnapshotID, got.SnapshotID)
	assert.True(t, env.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, env.Params, got.Params)
}

func TestEncodeIsDeterministic(t *testing.T) {
	env := NewEnvelope("snap-1", params())
	a, err := Encode(env)
	require.NoError(t, err)
	b, err := Encode(env)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode([]byte{0xff, 0x00})
	assert.Error(t, err)
}

func TestStreamSubmitter(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamSubmitter(&buf)

	first := NewEnvelope("snap-1", params())
	second := NewEnvelope("snap-1", params())
	require.NoError(t, s.Submit(context.Background(), first))
	require.NoError(t, s.Submit(context.Background(), second))

	r := NewReader(&buf)
	got, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, first.ID, got.ID)
	got, err = r.Next()
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestStreamSubmitterConcurrent(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamSubmitter(&buf)

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, s.Submit(context.Background(), NewEnvelope("snap", params())))
		}()
	}
	wg.Wait()

	r := NewReader(&buf)
	seen := make(map[string]bool)
	for {
		env, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		seen[env.ID] = true
	}
	assert.Len(t, seen, 20)
}

func TestStreamSubmitterHonoursContext(t *testing.T) {
	var buf bytes.Buffer
	s := NewStreamSubmitter(&buf)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Submit(ctx, NewEnvelope("snap", params()))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, buf.Len())
}

func TestOpenFileAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "requests.cbor")

	for i := 0; i < 2; i++ {
		s, err := OpenFile(path)
		require.NoError(t, err)
		require.NoError(t, s.Submit(context.Background(), NewEnvelope("snap", params())))
		require.NoError(t, s.Close())
		require.NoError(t, s.Close())

		err = s.Submit(context.Background(), NewEnvelope("snap", params()))
		assert.ErrorIs(t, err, ErrClosed)
	}

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	r := NewReader(f)
	for i := 0; i < 2; i++ {
		_, err := r.Next()
		require.NoError(t, err)
	}
	_, err = r.Next()
	assert.ErrorIs(t, err, io.EOF)

	_, err = OpenFile(filepath.Join(t.TempDir(), "missing", "dir", "x.cbor"))
	assert.Error(t, err)
}

func TestDiscard(t *testing.T) {
	assert.NoError(t, Discard.Submit(context.Background(), NewEnvelope("snap", params())))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Discard.Submit(ctx, nil), context.Canceled)
}
