package request

import (
	"github.com/video-system/go-capture-negotiation/pkg/camerror"
	"github.com/video-system/go-capture-negotiation/pkg/capability"
	"github.com/video-system/go-capture-negotiation/pkg/format"
)

type stabilization struct {
	digital capability.DigitalStabilization
	optical capability.OpticalStabilization
}

var torchChain = Chain[*input, bool]{
	Name: "torch",
	Rules: []Rule[*input, bool]{
		{
			Name: "off",
			When: func(in *input) bool { return !in.intent.Torch },
		},
		{
			Name: "flash-unavailable",
			When: func(in *input) bool { return !in.caps.HasFlash },
			Fail: func(*input) error { return camerror.FlashUnavailable("torch", "on") },
		},
		{
			Name:  "torch",
			Value: always[*input](true),
		},
	},
}

var fpsChain = Chain[*input, *capability.IntRange]{
	Name: "fps",
	Rules: []Rule[*input, *capability.IntRange]{
		{
			Name: "template-default",
			When: func(in *input) bool { return in.intent.Fps == nil },
		},
		{
			Name: "format-required",
			When: func(in *input) bool { return in.format == nil },
			Fail: func(*input) error { return camerror.FormatRequired("fps") },
		},
		{
			Name: "exceeds-format",
			When: func(in *input) bool {
				fps := *in.intent.Fps
				return fps <= 0 || fps > in.format.MaxFps()
			},
			Fail: func(in *input) error { return camerror.InvalidFps(*in.intent.Fps, in.format.MaxFps()) },
		},
		{
			Name: "fixed",
			Value: func(in *input) *capability.IntRange {
				return &capability.IntRange{Min: *in.intent.Fps, Max: *in.intent.Fps}
			},
		},
	},
}

func bestDigital(in *input) stabilization {
	return stabilization{digital: in.caps.BestDigitalStabilizationMode()}
}

var stabilizationChain = Chain[*input, stabilization]{
	Name: "stabilization",
	Rules: []Rule[*input, stabilization]{
		{
			Name: "off",
			When: func(in *input) bool { return in.intent.StabilizationMode == capability.StabilizationOff },
		},
		{
			Name: "device-unsupported",
			When: func(in *input) bool { return !in.caps.StabilizationModes().Contains(in.intent.StabilizationMode) },
			Fail: func(in *input) error {
				return camerror.InvalidStabilizationMode(string(in.intent.StabilizationMode),
					"requested stabilization mode not supported by this device")
			},
		},
		{
			Name: "format-required",
			When: func(in *input) bool { return in.format == nil },
			Fail: func(*input) error { return camerror.FormatRequired("videoStabilizationMode") },
		},
		{
			Name: "not-advertised",
			When: func(in *input) bool { return !in.format.SupportsStabilization(in.intent.StabilizationMode) },
			Fail: func(in *input) error {
				return camerror.InvalidStabilizationMode(string(in.intent.StabilizationMode),
					"requested stabilization mode not advertised by this format")
			},
		},
		{
			Name:  "standard-digital",
			When:  func(in *input) bool { return in.intent.StabilizationMode == capability.StabilizationStandard },
			Value: bestDigital,
		},
		{
			Name:  "cinematic-optical",
			When:  func(in *input) bool { return in.caps.HardwareLevel.IsAtLeast(capability.HardwareLevelLimited) },
			Value: always[*input](stabilization{optical: capability.OpticalStabilizationOn}),
		},
		{
			Name:  "cinematic-digital",
			Value: bestDigital,
		},
	},
}

var videoSceneChain = Chain[*input, SceneMode]{
	Name: "scene",
	Rules: []Rule[*input, SceneMode]{
		{
			Name: "video-hdr-format-required",
			When: func(in *input) bool { return in.intent.VideoHdr && in.format == nil },
			Fail: func(*input) error { return camerror.FormatRequired("videoHdr") },
		},
		{
			Name: "video-hdr-unsupported",
			When: func(in *input) bool { return in.intent.VideoHdr && !in.format.SupportsVideoHdr },
			Fail: func(*input) error { return camerror.InvalidVideoHdr() },
		},
		{
			Name:  "video-hdr",
			When:  func(in *input) bool { return in.intent.VideoHdr },
			Value: always[*input](SceneModeHDR),
		},
	},
}.Then(lowLightRules...)

var repeatingTemplateChain = Chain[*input, Template]{
	Name: "template",
	Rules: []Rule[*input, Template]{
		{
			Name:  "record",
			When:  func(in *input) bool { return hasVideoPipeline(in.controls.Outputs) },
			Value: always[*input](TemplateRecord),
		},
		{
			Name:  "preview",
			Value: always[*input](TemplatePreview),
		},
	},
}

func hasVideoPipeline(outputs []Output) bool {
	for _, o := range outputs {
		if o.Repeating && (o.Kind == OutputVideo || o.Kind == OutputFrameProcessor) {
			return true
		}
	}
	return false
}

// Repeating resolves the continuous preview/video request. active may be nil
// when no format has been selected; fps, stabilization and video HDR then fail
// with a format-required error.
func (b *Builder) Repeating(active *format.Descriptor, intent Intent) (*Parameters, error) {
	p := &Parameters{Kind: KindRepeating, DeviceID: b.caps.ID}
	in := &input{
		caps:      b.caps,
		format:    active,
		controls:  intent.Controls,
		streaming: true,
		intent:    intent,
	}

	// Torch goes first so its rejection does not depend on any other field.
	torch, err := run(b, p, torchChain, in)
	if err != nil {
		return nil, err
	}
	p.Torch = torch

	if in.intent, err = intent.normalized(); err != nil {
		return nil, err
	}

	if p.FpsRange, err = run(b, p, fpsChain, in); err != nil {
		return nil, err
	}

	stab, err := run(b, p, stabilizationChain, in)
	if err != nil {
		return nil, err
	}
	p.DigitalStabilization, p.OpticalStabilization = stab.digital, stab.optical

	if err := b.resolveShared(p, in, videoSceneChain); err != nil {
		return nil, err
	}

	if p.Template, err = run(b, p, repeatingTemplateChain, in); err != nil {
		return nil, err
	}

	p.Targets = []string{}
	for _, o := range intent.Outputs {
		if o.Repeating {
			p.Targets = append(p.Targets, o.Name)
		}
	}
	return p, nil
}
