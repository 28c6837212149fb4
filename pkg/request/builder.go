// Package request resolves declarative capture intents into legal,
// hardware-specific capture request parameters.
//
// Every parameter is resolved by an ordered fallback Chain evaluated
// first-match-wins. Rules either produce a value or reject the intent with a
// *camerror.Error naming the offending parameter. Resolution is synchronous
// and side-effect free; a Builder holds only the immutable capability
// snapshot and may be shared by any number of goroutines.
package request

import (
	"math"

	"go.uber.org/zap"

	"github.com/video-system/go-capture-negotiation/pkg/camerror"
	"github.com/video-system/go-capture-negotiation/pkg/capability"
	"github.com/video-system/go-capture-negotiation/pkg/format"
)

// Options configures a Builder.
type Options struct {
	Logger     *zap.Logger
	ZoomMapper ZoomMapper
}

// Builder resolves requests against one device snapshot.
type Builder struct {
	caps   *capability.DeviceCapabilities
	zoom   ZoomMapper
	logger *zap.Logger
}

// NewBuilder creates a builder for caps.
func NewBuilder(caps *capability.DeviceCapabilities, opts Options) *Builder {
	b := &Builder{caps: caps, zoom: opts.ZoomMapper, logger: opts.Logger}
	if b.zoom == nil {
		b.zoom = DefaultZoomMapper{}
	}
	if b.logger == nil {
		b.logger = zap.NewNop()
	}
	return b
}

// Capabilities returns the snapshot the builder resolves against.
func (b *Builder) Capabilities() *capability.DeviceCapabilities {
	return b.caps
}

// BuildRepeating resolves a repeating request with default options.
func BuildRepeating(caps *capability.DeviceCapabilities, active *format.Descriptor, intent Intent) (*Parameters, error) {
	return NewBuilder(caps, Options{}).Repeating(active, intent)
}

// BuildPhoto resolves a still capture request with default options.
func BuildPhoto(caps *capability.DeviceCapabilities, active *format.Descriptor, intent PhotoIntent) (*Parameters, error) {
	return NewBuilder(caps, Options{}).Photo(active, intent)
}

// input is what every chain rule sees.
type input struct {
	caps      *capability.DeviceCapabilities
	format    *format.Descriptor
	controls  Controls
	streaming bool
	intent    Intent
	photo     PhotoIntent
}

type focus struct {
	mode     capability.AFMode
	distance *float64
}

func ptr[T any](v T) *T {
	return &v
}

var lowLightRules = []Rule[*input, SceneMode]{
	{
		Name: "low-light-unsupported",
		When: func(in *input) bool { return in.controls.LowLightBoost && !in.caps.SupportsLowLightBoost },
		Fail: func(*input) error { return camerror.LowLightBoostNotSupported() },
	},
	{
		Name:  "low-light",
		When:  func(in *input) bool { return in.controls.LowLightBoost },
		Value: always[*input](SceneModeNight),
	},
}

var zoomChain = Chain[*input, float64]{
	Name: "zoom",
	Rules: []Rule[*input, float64]{
		{
			Name:  "neutral",
			When:  func(in *input) bool { return in.controls.Zoom == 0 },
			Value: func(in *input) float64 { return in.caps.NeutralZoom },
		},
		{
			Name: "out-of-range",
			When: func(in *input) bool { return !in.caps.ZoomRange.Contains(in.controls.Zoom) },
			Fail: func(in *input) error {
				return camerror.InvalidZoom(in.controls.Zoom, in.caps.ZoomRange.Min, in.caps.ZoomRange.Max)
			},
		},
		{
			Name:  "requested",
			Value: func(in *input) float64 { return in.controls.Zoom },
		},
	},
}

var exposureChain = Chain[*input, *float64]{
	Name: "exposure",
	Rules: []Rule[*input, *float64]{
		{
			Name: "template-default",
			When: func(in *input) bool { return in.controls.ExposureBias == nil },
		},
		{
			Name: "not-a-number",
			When: func(in *input) bool { return math.IsNaN(*in.controls.ExposureBias) },
			Fail: func(in *input) error { return camerror.InvalidExposure(*in.controls.ExposureBias) },
		},
		{
			Name:  "clamped",
			Value: func(in *input) *float64 { return ptr(in.caps.ClampExposure(*in.controls.ExposureBias)) },
		},
	},
}

func supportsAF(mode capability.AFMode) func(*input) bool {
	return func(in *input) bool { return in.caps.IsAFModeSupported(mode) }
}

var focusChain = Chain[*input, focus]{
	Name: "af",
	Rules: []Rule[*input, focus]{
		{
			Name: "manual-unsupported",
			When: func(in *input) bool {
				return in.controls.FocusDistance != nil &&
					(!in.caps.IsAFModeSupported(capability.AFModeOff) || in.caps.IsFixedFocus())
			},
			Fail: func(in *input) error {
				return camerror.FocusNotSupported("focusDistance", *in.controls.FocusDistance)
			},
		},
		{
			Name: "manual-out-of-range",
			When: func(in *input) bool {
				d := in.controls.FocusDistance
				return d != nil && !(*d >= 0 && *d <= in.caps.MaxFocusDistance())
			},
			Fail: func(in *input) error {
				return camerror.InvalidFocusDistance(*in.controls.FocusDistance, in.caps.MaxFocusDistance())
			},
		},
		{
			Name: "manual",
			When: func(in *input) bool { return in.controls.FocusDistance != nil },
			Value: func(in *input) focus {
				return focus{mode: capability.AFModeOff, distance: ptr(*in.controls.FocusDistance)}
			},
		},
		{
			Name: "continuous-video",
			When: func(in *input) bool {
				return in.streaming && in.caps.IsAFModeSupported(capability.AFModeContinuousVideo)
			},
			Value: always[*input](focus{mode: capability.AFModeContinuousVideo}),
		},
		{
			Name:  "continuous-picture",
			When:  supportsAF(capability.AFModeContinuousPicture),
			Value: always[*input](focus{mode: capability.AFModeContinuousPicture}),
		},
		{
			Name:  "auto",
			When:  supportsAF(capability.AFModeAuto),
			Value: always[*input](focus{mode: capability.AFModeAuto}),
		},
		{
			Name: "fixed",
			When: supportsAF(capability.AFModeOff),
			Value: func(*input) focus {
				return focus{mode: capability.AFModeOff, distance: ptr(0.0)}
			},
		},
	},
}

var aeChain = Chain[*input, capability.AEMode]{
	Name: "ae",
	Rules: []Rule[*input, capability.AEMode]{
		{
			Name:  "on",
			When:  func(in *input) bool { return in.caps.IsAEModeSupported(capability.AEModeOn) },
			Value: always[*input](capability.AEModeOn),
		},
		{
			Name:  "off",
			When:  func(in *input) bool { return in.caps.IsAEModeSupported(capability.AEModeOff) },
			Value: always[*input](capability.AEModeOff),
		},
	},
}

var awbChain = Chain[*input, capability.AWBMode]{
	Name: "awb",
	Rules: []Rule[*input, capability.AWBMode]{
		{
			Name:  "auto",
			When:  func(in *input) bool { return in.caps.IsAWBModeSupported(capability.AWBModeAuto) },
			Value: always[*input](capability.AWBModeAuto),
		},
	},
}

// run resolves one chain, records the winning rule and logs it.
func run[V any](b *Builder, p *Parameters, c Chain[*input, V], in *input) (V, error) {
	v, rule, err := c.Resolve(in)
	if err != nil {
		b.logger.Debug("capture request rejected",
			zap.String("device_id", in.caps.ID),
			zap.String("kind", string(p.Kind)),
			zap.String("chain", c.Name),
			zap.String("rule", rule),
			zap.Error(err))
		return v, err
	}
	if rule != "" {
		b.logger.Debug("capture parameter resolved",
			zap.String("device_id", in.caps.ID),
			zap.String("kind", string(p.Kind)),
			zap.String("chain", c.Name),
			zap.String("rule", rule))
	}
	p.decide(c.Name, rule)
	return v, nil
}

// resolveShared resolves the parameters common to every request class, in
// validation order: scene, zoom, exposure, focus, then the 3A modes.
func (b *Builder) resolveShared(p *Parameters, in *input, scenes Chain[*input, SceneMode]) error {
	scene, err := run(b, p, scenes, in)
	if err != nil {
		return err
	}
	p.SceneMode = scene

	factor, err := run(b, p, zoomChain, in)
	if err != nil {
		return err
	}
	p.Zoom = b.zoom.Map(b.caps, factor)

	if p.Exposure, err = run(b, p, exposureChain, in); err != nil {
		return err
	}

	f, err := run(b, p, focusChain, in)
	if err != nil {
		return err
	}
	p.AFMode, p.FocusDistance = f.mode, f.distance

	if p.AEMode, err = run(b, p, aeChain, in); err != nil {
		return err
	}
	if p.AWBMode, err = run(b, p, awbChain, in); err != nil {
		return err
	}

	switch {
	case p.SceneMode != "":
		p.ControlMode = ControlModeUseSceneMode
	case p.AEMode != "" || p.AFMode != "":
		p.ControlMode = ControlModeAuto
	}
	return nil
}
