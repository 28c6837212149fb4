// Package engine keeps one capability snapshot per open camera device and
// exposes the negotiation operations against it: catalog enumeration,
// format selection, request resolution and hand-off to the capture session.
package engine

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/zap"

	"github.com/video-system/go-capture-negotiation/pkg/camerror"
	"github.com/video-system/go-capture-negotiation/pkg/capability"
	"github.com/video-system/go-capture-negotiation/pkg/format"
	"github.com/video-system/go-capture-negotiation/pkg/request"
	"github.com/video-system/go-capture-negotiation/pkg/ringbuffer"
	"github.com/video-system/go-capture-negotiation/pkg/session"
)

const (
	// DefaultCacheSize is the number of catalogs kept when Options.CacheSize is unset.
	DefaultCacheSize = 64
	// DefaultHistorySize is the number of submissions kept per device.
	DefaultHistorySize = 32
)

// Options configures a Negotiator.
type Options struct {
	Logger     *zap.Logger
	Submitter  session.Submitter
	ZoomMapper request.ZoomMapper
	// CacheSize bounds the number of enumerated catalogs kept in memory.
	CacheSize int
	// History bounds the submissions kept per device.
	History    int
	HistoryAge time.Duration
}

// Snapshot is one resolved, immutable view of a device. Reopening a device
// replaces its snapshot wholesale; requests already built against the old
// snapshot stay valid for it.
type Snapshot struct {
	ID           string                          `json:"snapshot_id"`
	OpenedAt     time.Time                       `json:"opened_at"`
	Capabilities *capability.DeviceCapabilities `json:"capabilities"`

	builder *request.Builder
}

// DeviceID returns the id of the snapshotted device.
func (s *Snapshot) DeviceID() string {
	return s.Capabilities.ID
}

// Negotiator is safe for concurrent use.
type Negotiator struct {
	logger    *zap.Logger
	submitter session.Submitter
	zoom      request.ZoomMapper
	history   ringbuffer.Config

	mu      sync.RWMutex
	devices map[string]*Snapshot
	sent    map[string]*ringbuffer.Buffer // device id -> submissions

	catalogs *lru.Cache[string, []format.Descriptor]
}

// New creates a negotiator without any open device.
func New(opts Options) (*Negotiator, error) {
	size := opts.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []format.Descriptor](size)
	if err != nil {
		return nil, err
	}
	history := ringbuffer.Config{Capacity: opts.History, MaxAge: opts.HistoryAge}
	if history.Capacity <= 0 {
		history.Capacity = DefaultHistorySize
	}
	if history.MaxAge < 0 {
		return nil, fmt.Errorf("invalid history age %v", history.MaxAge)
	}

	n := &Negotiator{
		logger:    opts.Logger,
		submitter: opts.Submitter,
		zoom:      opts.ZoomMapper,
		history:   history,
		devices:   make(map[string]*Snapshot),
		sent:      make(map[string]*ringbuffer.Buffer),
		catalogs:  cache,
	}
	if n.logger == nil {
		n.logger = zap.NewNop()
	}
	if n.submitter == nil {
		n.submitter = session.Discard
	}
	return n, nil
}

// Open resolves raw into a new snapshot and makes it the device's current
// one. A previous snapshot of the same device is dropped with its catalog.
func (n *Negotiator) Open(raw capability.RawCharacteristics) (*Snapshot, error) {
	caps, err := capability.Resolve(raw)
	if err != nil {
		return nil, err
	}

	snap := &Snapshot{
		ID:           uuid.NewString(),
		OpenedAt:     time.Now().UTC(),
		Capabilities: caps,
		builder: request.NewBuilder(caps, request.Options{
			Logger:     n.logger,
			ZoomMapper: n.zoom,
		}),
	}

	n.mu.Lock()
	prev, replaced := n.devices[caps.ID]
	n.devices[caps.ID] = snap
	n.mu.Unlock()

	if replaced {
		n.catalogs.Remove(prev.ID)
	}

	fields := []zap.Field{
		zap.String("device_id", caps.ID),
		zap.String("snapshot_id", snap.ID),
		zap.String("platform", caps.Platform),
		zap.Stringer("hardware_level", caps.HardwareLevel),
		zap.Bool("replaced", replaced),
	}
	if unmapped := caps.Unmapped(); len(unmapped) > 0 {
		fields = append(fields, zap.Strings("unmapped", unmapped))
	}
	n.logger.Info("device opened", fields...)
	return snap, nil
}

// Close drops the device's snapshot.
func (n *Negotiator) Close(deviceID string) error {
	n.mu.Lock()
	snap, ok := n.devices[deviceID]
	delete(n.devices, deviceID)
	delete(n.sent, deviceID)
	n.mu.Unlock()

	if !ok {
		return camerror.UnknownDevice(deviceID)
	}
	n.catalogs.Remove(snap.ID)
	n.logger.Info("device closed",
		zap.String("device_id", deviceID),
		zap.String("snapshot_id", snap.ID))
	return nil
}

// Snapshot returns the device's current snapshot.
func (n *Negotiator) Snapshot(deviceID string) (*Snapshot, error) {
	n.mu.RLock()
	defer n.mu.RUnlock()
	snap, ok := n.devices[deviceID]
	if !ok {
		return nil, camerror.UnknownDevice(deviceID)
	}
	return snap, nil
}

// Devices returns the current snapshots ordered by device id.
func (n *Negotiator) Devices() []*Snapshot {
	n.mu.RLock()
	out := make([]*Snapshot, 0, len(n.devices))
	for _, snap := range n.devices {
		out = append(out, snap)
	}
	n.mu.RUnlock()

	slices.SortFunc(out, func(a, b *Snapshot) int {
		return strings.Compare(a.DeviceID(), b.DeviceID())
	})
	return out
}

// Formats returns the device's format catalog. The catalog is enumerated
// once per snapshot.
func (n *Negotiator) Formats(deviceID string) ([]format.Descriptor, error) {
	snap, err := n.Snapshot(deviceID)
	if err != nil {
		return nil, err
	}
	return slices.Clone(n.catalog(snap)), nil
}

func (n *Negotiator) catalog(snap *Snapshot) []format.Descriptor {
	if cached, ok := n.catalogs.Get(snap.ID); ok {
		return cached
	}
	catalog := format.Enumerate(snap.Capabilities)
	n.mu.RLock()
	// Open and Close evict after swapping the snapshot; a replaced one is not cached again.
	if n.currentLocked(snap) {
		n.catalogs.Add(snap.ID, catalog)
	}
	n.mu.RUnlock()
	n.logger.Debug("catalog enumerated",
		zap.String("device_id", snap.DeviceID()),
		zap.String("snapshot_id", snap.ID),
		zap.Int("formats", len(catalog)))
	return catalog
}

// FormatAt returns the catalog entry at index.
func (n *Negotiator) FormatAt(deviceID string, index int) (format.Descriptor, error) {
	snap, err := n.Snapshot(deviceID)
	if err != nil {
		return format.Descriptor{}, err
	}
	catalog := n.catalog(snap)
	if index < 0 || index >= len(catalog) {
		return format.Descriptor{}, camerror.InvalidParameter("format_index", index,
			"format index must address an entry of the device catalog")
	}
	return catalog[index], nil
}

// SelectFormat returns the device format that best matches filter.
func (n *Negotiator) SelectFormat(deviceID string, filter format.Filter) (format.Descriptor, error) {
	ranked, err := n.RankFormats(deviceID, filter)
	if err != nil {
		return format.Descriptor{}, err
	}
	best := ranked[0]
	n.logger.Info("format selected",
		zap.String("device_id", deviceID),
		zap.Stringer("video_size", best.Descriptor.VideoSize),
		zap.Stringer("photo_size", best.Descriptor.PhotoSize),
		zap.Int("max_fps", best.Descriptor.MaxFps()),
		zap.Float64("score", best.Score))
	return best.Descriptor, nil
}

// RankFormats scores the whole catalog against filter, best first.
func (n *Negotiator) RankFormats(deviceID string, filter format.Filter) ([]format.Candidate, error) {
	snap, err := n.Snapshot(deviceID)
	if err != nil {
		return nil, err
	}
	catalog := n.catalog(snap)
	if len(catalog) == 0 {
		if err := filter.Validate(); err != nil {
			return nil, err
		}
		return nil, camerror.NoFormats(deviceID)
	}
	return format.Rank(catalog, filter)
}

// BuildRepeating resolves a repeating request against the device's current snapshot.
func (n *Negotiator) BuildRepeating(deviceID string, active *format.Descriptor, intent request.Intent) (*request.Parameters, error) {
	snap, err := n.Snapshot(deviceID)
	if err != nil {
		return nil, err
	}
	return snap.builder.Repeating(active, intent)
}

// BuildPhoto resolves a still capture request against the device's current snapshot.
func (n *Negotiator) BuildPhoto(deviceID string, active *format.Descriptor, intent request.PhotoIntent) (*request.Parameters, error) {
	snap, err := n.Snapshot(deviceID)
	if err != nil {
		return nil, err
	}
	return snap.builder.Photo(active, intent)
}

// SubmitRepeating resolves a repeating request and hands it to the session.
func (n *Negotiator) SubmitRepeating(ctx context.Context, deviceID string, active *format.Descriptor, intent request.Intent) (*session.Envelope, error) {
	snap, err := n.Snapshot(deviceID)
	if err != nil {
		return nil, err
	}
	params, err := snap.builder.Repeating(active, intent)
	if err != nil {
		return nil, err
	}
	return n.submit(ctx, "submitRepeating", snap, params)
}

// Capture resolves a still capture request and hands it to the session.
func (n *Negotiator) Capture(ctx context.Context, deviceID string, active *format.Descriptor, intent request.PhotoIntent) (*session.Envelope, error) {
	snap, err := n.Snapshot(deviceID)
	if err != nil {
		return nil, err
	}
	params, err := snap.builder.Photo(active, intent)
	if err != nil {
		return nil, err
	}
	return n.submit(ctx, "capture", snap, params)
}

// History returns the device's recent submissions, oldest first. Failed
// submissions are kept with their error.
func (n *Negotiator) History(deviceID string) ([]*ringbuffer.Entry, error) {
	n.mu.RLock()
	_, ok := n.devices[deviceID]
	buf := n.sent[deviceID]
	n.mu.RUnlock()

	if !ok {
		return nil, camerror.UnknownDevice(deviceID)
	}
	if buf == nil {
		return []*ringbuffer.Entry{}, nil
	}
	return buf.Entries(), nil
}

// record adds a submission to the device's history. It reports false when
// the submitting snapshot was closed or replaced in the meantime.
func (n *Negotiator) record(snap *Snapshot, env *session.Envelope, err error) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if !n.currentLocked(snap) {
		return false
	}
	buf, ok := n.sent[snap.DeviceID()]
	if !ok {
		// Capacity is validated in New.
		buf, _ = ringbuffer.New(n.history)
		n.sent[snap.DeviceID()] = buf
	}
	buf.Add(env, err)
	return true
}

// currentLocked reports whether snap is still its device's snapshot. n.mu must be held.
func (n *Negotiator) currentLocked(snap *Snapshot) bool {
	return n.devices[snap.DeviceID()] == snap
}

func (n *Negotiator) submit(ctx context.Context, op string, snap *Snapshot, params *request.Parameters) (*session.Envelope, error) {
	env := session.NewEnvelope(snap.ID, params)
	err := n.submitter.Submit(ctx, env)
	if !n.record(snap, env, err) {
		n.logger.Debug("submission not recorded, snapshot closed",
			zap.String("device_id", snap.DeviceID()),
			zap.String("snapshot_id", snap.ID),
			zap.String("request_id", env.ID))
	}
	if err != nil {
		n.logger.Warn("session rejected request",
			zap.String("device_id", snap.DeviceID()),
			zap.String("snapshot_id", snap.ID),
			zap.String("request_id", env.ID),
			zap.Error(err))
		return nil, camerror.Session(op, err)
	}
	n.logger.Info("request submitted",
		zap.String("device_id", snap.DeviceID()),
		zap.String("snapshot_id", snap.ID),
		zap.String("request_id", env.ID),
		zap.String("kind", string(params.Kind)),
		zap.String("template", string(params.Template)))
	return env, nil
}
