package engine

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/video-system/go-capture-negotiation/pkg/camerror"
	"github.com/video-system/go-capture-negotiation/pkg/capability"
	"github.com/video-system/go-capture-negotiation/pkg/format"
	"github.com/video-system/go-capture-negotiation/pkg/request"
	"github.com/video-system/go-capture-negotiation/pkg/session"
)

type mockSubmitter struct {
	mock.Mock
}

func (m *mockSubmitter) Submit(ctx context.Context, env *session.Envelope) error {
	return m.Called(ctx, env).Error(0)
}

func device(id string) capability.RawCharacteristics {
	return capability.RawCharacteristics{
		ID:               id,
		PlatformVersion:  34,
		LensFacing:       1,
		HardwareLevel:    1,
		Capabilities:     []int{0, 4},
		ActiveArraySize:  capability.Size{Width: 4000, Height: 3000},
		MinZoom:          1,
		MaxZoom:          10,
		MinISO:           100,
		MaxISO:           3200,
		MinExposureIndex: -8,
		MaxExposureIndex: 8,
		ExposureStep:     0.5,
		MinFocusDistance: 10,
		FlashAvailable:   true,
		AFModes:          []int{0, 1, 3, 4},
		AEModes:          []int{0, 1, 2},
		AWBModes:         []int{1},

		VideoStabilizationModes: []int{0, 1},
		VideoStreams: []capability.RawStream{
			{Width: 3840, Height: 2160, MinFrameDurationNs: 33333333},
			{Width: 1920, Height: 1080, MinFrameDurationNs: 16666666},
		},
		PhotoSizes: []capability.Size{{Width: 4000, Height: 3000}, {Width: 1920, Height: 1080}},
	}
}

func newNegotiator(t *testing.T, opts Options) *Negotiator {
	t.Helper()
	n, err := New(opts)
	require.NoError(t, err)
	return n
}

func TestOpenAndLookup(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := newNegotiator(t, Options{Logger: zap.New(core)})

	snap, err := n.Open(device("1"))
	require.NoError(t, err)
	_, err = n.Open(device("0"))
	require.NoError(t, err)

	got, err := n.Snapshot("1")
	require.NoError(t, err)
	assert.Same(t, snap, got)
	assert.NotEmpty(t, snap.ID)

	devices := n.Devices()
	require.Len(t, devices, 2)
	assert.Equal(t, "0", devices[0].DeviceID())
	assert.Equal(t, "1", devices[1].DeviceID())

	opened := logs.FilterMessage("device opened").All()
	require.Len(t, opened, 2)
	assert.Equal(t, "1", opened[0].ContextMap()["device_id"])
}

func TestOpenRejectsInvalidCharacteristics(t *testing.T) {
	n := newNegotiator(t, Options{})
	raw := device("0")
	raw.MinZoom = 0
	_, err := n.Open(raw)
	assert.ErrorIs(t, err, camerror.ErrInvalidCharacteristics)
	assert.Empty(t, n.Devices())
}

func TestReopenReplacesSnapshot(t *testing.T) {
	n := newNegotiator(t, Options{})
	first, err := n.Open(device("0"))
	require.NoError(t, err)
	formats, err := n.Formats("0")
	require.NoError(t, err)
	require.Len(t, formats, 4)
	assert.True(t, n.catalogs.Contains(first.ID))

	raw := device("0")
	raw.VideoStreams = raw.VideoStreams[:1]
	second, err := n.Open(raw)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.False(t, n.catalogs.Contains(first.ID))

	formats, err = n.Formats("0")
	require.NoError(t, err)
	assert.Len(t, formats, 2)
	assert.Len(t, n.Devices(), 1)
}

func TestCloseUnknownDevice(t *testing.T) {
	n := newNegotiator(t, Options{})
	_, err := n.Open(device("0"))
	require.NoError(t, err)

	require.NoError(t, n.Close("0"))
	assert.ErrorIs(t, n.Close("0"), camerror.ErrUnknownDevice)

	_, err = n.Snapshot("0")
	assert.ErrorIs(t, err, camerror.ErrUnknownDevice)
	_, err = n.Formats("0")
	assert.ErrorIs(t, err, camerror.ErrUnknownDevice)
	_, err = n.BuildRepeating("0", nil, request.Intent{})
	assert.ErrorIs(t, err, camerror.ErrUnknownDevice)
}

func TestFormatsAreCachedAndCopied(t *testing.T) {
	n := newNegotiator(t, Options{})
	snap, err := n.Open(device("0"))
	require.NoError(t, err)

	a, err := n.Formats("0")
	require.NoError(t, err)
	a[0].MaxZoom = 99

	b, err := n.Formats("0")
	require.NoError(t, err)
	assert.Equal(t, 10.0, b[0].MaxZoom)

	cached, ok := n.catalogs.Get(snap.ID)
	require.True(t, ok)
	assert.Len(t, cached, len(b))
}

func TestFormatAt(t *testing.T) {
	n := newNegotiator(t, Options{})
	_, err := n.Open(device("0"))
	require.NoError(t, err)

	f, err := n.FormatAt("0", 2)
	require.NoError(t, err)
	assert.Equal(t, capability.Size{Width: 1920, Height: 1080}, f.VideoSize)

	_, err = n.FormatAt("0", 4)
	assert.ErrorIs(t, err, camerror.ErrInvalidParameter)
	_, err = n.FormatAt("0", -1)
	assert.ErrorIs(t, err, camerror.ErrInvalidParameter)
}

func TestSelectFormat(t *testing.T) {
	n := newNegotiator(t, Options{})
	_, err := n.Open(device("0"))
	require.NoError(t, err)

	best, err := n.SelectFormat("0", format.Filter{format.Fps(60, 1), format.MaxPhotoResolution(0.5)})
	require.NoError(t, err)
	assert.Equal(t, 60, best.MaxFps())
	assert.Equal(t, capability.Size{Width: 4000, Height: 3000}, best.PhotoSize)

	_, err = n.SelectFormat("0", format.Filter{format.Fps(60, 0)})
	assert.ErrorIs(t, err, camerror.ErrInvalidFilter)
}

func TestSelectFormatWithoutFormats(t *testing.T) {
	n := newNegotiator(t, Options{})
	raw := device("0")
	raw.VideoStreams = nil
	_, err := n.Open(raw)
	require.NoError(t, err)

	_, err = n.SelectFormat("0", nil)
	e, ok := camerror.As(err)
	require.True(t, ok)
	assert.Equal(t, camerror.ErrNoFormats.Code(), e.Code())
	assert.Equal(t, "0", e.Value)
}

func TestBuildAgainstSnapshot(t *testing.T) {
	n := newNegotiator(t, Options{})
	_, err := n.Open(device("0"))
	require.NoError(t, err)
	active, err := n.FormatAt("0", 2)
	require.NoError(t, err)

	fps := 60
	p, err := n.BuildRepeating("0", &active, request.Intent{Fps: &fps})
	require.NoError(t, err)
	assert.Equal(t, &capability.IntRange{Min: 60, Max: 60}, p.FpsRange)

	fps = 90
	_, err = n.BuildRepeating("0", &active, request.Intent{Fps: &fps})
	assert.ErrorIs(t, err, camerror.ErrInvalidFps)

	photo, err := n.BuildPhoto("0", &active, request.PhotoIntent{Quality: request.QualityBalanced})
	require.NoError(t, err)
	assert.Equal(t, request.TemplateZeroShutterLag, photo.Template)
}

func TestSubmitRepeating(t *testing.T) {
	sub := &mockSubmitter{}
	n := newNegotiator(t, Options{Submitter: sub})
	snap, err := n.Open(device("0"))
	require.NoError(t, err)

	sub.On("Submit", mock.Anything, mock.MatchedBy(func(env *session.Envelope) bool {
		return env.SnapshotID == snap.ID && env.Kind == request.KindRepeating
	})).Return(nil).Once()

	env, err := n.SubmitRepeating(context.Background(), "0", nil, request.Intent{Torch: true})
	require.NoError(t, err)
	assert.True(t, env.Params.Torch)
	assert.Equal(t, "0", env.DeviceID)
	sub.AssertExpectations(t)
}

func TestSubmitWrapsSessionFailure(t *testing.T) {
	sub := &mockSubmitter{}
	n := newNegotiator(t, Options{Submitter: sub})
	_, err := n.Open(device("0"))
	require.NoError(t, err)

	cause := errors.New("camera disconnected")
	sub.On("Submit", mock.Anything, mock.Anything).Return(cause)

	_, err = n.Capture(context.Background(), "0", nil, request.PhotoIntent{})
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, camerror.ErrSession)
	kind, ok := camerror.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, camerror.KindSession, kind)
}

func TestHistory(t *testing.T) {
	sub := &mockSubmitter{}
	n := newNegotiator(t, Options{Submitter: sub, History: 2})
	_, err := n.Open(device("0"))
	require.NoError(t, err)

	entries, err := n.History("0")
	require.NoError(t, err)
	assert.Empty(t, entries)

	sub.On("Submit", mock.Anything, mock.Anything).Return(nil).Twice()
	sub.On("Submit", mock.Anything, mock.Anything).Return(errors.New("busy")).Once()

	ctx := context.Background()
	_, err = n.SubmitRepeating(ctx, "0", nil, request.Intent{})
	require.NoError(t, err)
	second, err := n.Capture(ctx, "0", nil, request.PhotoIntent{})
	require.NoError(t, err)
	_, err = n.Capture(ctx, "0", nil, request.PhotoIntent{})
	require.Error(t, err)

	entries, err = n.History("0")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 2, entries[0].Sequence)
	assert.Equal(t, second.ID, entries[0].Envelope.ID)
	assert.Empty(t, entries[0].Error)
	assert.Equal(t, 3, entries[1].Sequence)
	assert.Equal(t, "busy", entries[1].Error)

	require.NoError(t, n.Close("0"))
	_, err = n.History("0")
	assert.ErrorIs(t, err, camerror.ErrUnknownDevice)
}

type submitFunc func(ctx context.Context, env *session.Envelope) error

func (f submitFunc) Submit(ctx context.Context, env *session.Envelope) error {
	return f(ctx, env)
}

func TestHistoryDroppedWhenClosedDuringSubmit(t *testing.T) {
	var n *Negotiator
	n = newNegotiator(t, Options{Submitter: submitFunc(func(_ context.Context, env *session.Envelope) error {
		return n.Close(env.DeviceID)
	})})
	_, err := n.Open(device("cam0"))
	require.NoError(t, err)

	_, err = n.SubmitRepeating(context.Background(), "cam0", nil, request.Intent{})
	require.NoError(t, err)

	_, err = n.Open(device("cam0"))
	require.NoError(t, err)
	entries, err := n.History("cam0")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestReplacedSnapshotCatalogNotCached(t *testing.T) {
	n := newNegotiator(t, Options{})
	old, err := n.Open(device("0"))
	require.NoError(t, err)
	_, err = n.Open(device("0"))
	require.NoError(t, err)

	assert.NotEmpty(t, n.catalog(old))
	assert.False(t, n.catalogs.Contains(old.ID))

	current, err := n.Snapshot("0")
	require.NoError(t, err)
	n.catalog(current)
	assert.True(t, n.catalogs.Contains(current.ID))
}

func TestNewRejectsNegativeHistoryAge(t *testing.T) {
	_, err := New(Options{HistoryAge: -time.Second})
	assert.Error(t, err)
}

func TestSubmitSkipsSessionOnBuildFailure(t *testing.T) {
	sub := &mockSubmitter{}
	n := newNegotiator(t, Options{Submitter: sub})
	raw := device("0")
	raw.FlashAvailable = false
	_, err := n.Open(raw)
	require.NoError(t, err)

	_, err = n.SubmitRepeating(context.Background(), "0", nil, request.Intent{Torch: true})
	assert.ErrorIs(t, err, camerror.ErrFlashUnavailable)
	sub.AssertNotCalled(t, "Submit", mock.Anything, mock.Anything)
}

func TestConcurrentOpenAndBuild(t *testing.T) {
	n := newNegotiator(t, Options{CacheSize: 2})
	_, err := n.Open(device("0"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 32 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			switch i % 4 {
			case 0:
				_, err := n.Open(device("0"))
				assert.NoError(t, err)
			case 1:
				_, err := n.Formats("0")
				assert.NoError(t, err)
			case 2:
				_, err := n.SelectFormat("0", format.Filter{format.MaxVideoResolution(1)})
				assert.NoError(t, err)
			default:
				_, err := n.SubmitRepeating(context.Background(), "0", nil, request.Intent{})
				assert.NoError(t, err)
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, n.Devices(), 1)
}
