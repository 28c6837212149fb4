package request

import (
	"github.com/video-system/go-capture-negotiation/pkg/camerror"
	"github.com/video-system/go-capture-negotiation/pkg/capability"
	"github.com/video-system/go-capture-negotiation/pkg/format"
)

var jpegQuality = map[QualityPrioritization]int{
	QualitySpeed:    85,
	QualityBalanced: 92,
	QualityQuality:  100,
}

func quality(q QualityPrioritization) func(*input) bool {
	return func(in *input) bool { return in.photo.Quality == q }
}

var photoTemplateChain = Chain[*input, Template]{
	Name: "template",
	Rules: []Rule[*input, Template]{
		{
			Name:  "quality-still",
			When:  quality(QualityQuality),
			Value: always[*input](TemplateStillCapture),
		},
		{
			Name: "balanced-zsl",
			When: func(in *input) bool {
				return in.photo.Quality == QualityBalanced && in.caps.SupportsZsl
			},
			Value: always[*input](TemplateZeroShutterLag),
		},
		{
			Name: "speed-snapshot",
			When: func(in *input) bool {
				return in.photo.Quality == QualitySpeed && in.caps.SupportsSnapshotCapture
			},
			Value: always[*input](TemplateSnapshot),
		},
		{
			Name: "speed-zsl",
			When: func(in *input) bool {
				return in.photo.Quality == QualitySpeed && in.caps.SupportsZsl
			},
			Value: always[*input](TemplateZeroShutterLag),
		},
		{
			Name:  "still",
			Value: always[*input](TemplateStillCapture),
		},
	},
}

// flashChain overrides the AE mode. No match leaves the shared AE chain's choice.
var flashChain = Chain[*input, capability.AEMode]{
	Name: "flash",
	Rules: []Rule[*input, capability.AEMode]{
		{
			Name: "flash-unavailable",
			When: func(in *input) bool { return in.photo.Flash != FlashOff && !in.caps.HasFlash },
			Fail: func(in *input) error { return camerror.FlashUnavailable("flash", string(in.photo.Flash)) },
		},
		{
			Name:  "always-flash",
			When:  func(in *input) bool { return in.photo.Flash == FlashOn },
			Value: always[*input](capability.AEModeOnAlwaysFlash),
		},
		{
			Name: "auto-flash-redeye",
			When: func(in *input) bool {
				return in.photo.Flash == FlashAuto && in.photo.RedEyeReduction
			},
			Value: always[*input](capability.AEModeOnAutoFlashRedEye),
		},
		{
			Name:  "auto-flash",
			When:  func(in *input) bool { return in.photo.Flash == FlashAuto },
			Value: always[*input](capability.AEModeOnAutoFlash),
		},
	},
}

var photoSceneChain = Chain[*input, SceneMode]{
	Name: "scene",
	Rules: []Rule[*input, SceneMode]{
		{
			Name: "photo-hdr-format-required",
			When: func(in *input) bool { return in.photo.PhotoHdr && in.format == nil },
			Fail: func(*input) error { return camerror.FormatRequired("photoHdr") },
		},
		{
			Name: "photo-hdr-unsupported",
			When: func(in *input) bool { return in.photo.PhotoHdr && !in.format.SupportsPhotoHdr },
			Fail: func(*input) error { return camerror.InvalidPhotoHdr() },
		},
		{
			Name:  "photo-hdr",
			When:  func(in *input) bool { return in.photo.PhotoHdr },
			Value: always[*input](SceneModeHDR),
		},
	},
}.Then(lowLightRules...)

// Photos have no continuous stream, so the preview tier is never used.
var autoStabilizationChain = Chain[*input, stabilization]{
	Name: "auto-stabilization",
	Rules: []Rule[*input, stabilization]{
		{
			Name: "disabled",
			When: func(in *input) bool { return !in.photo.AutoStabilization },
		},
		{
			Name: "optical",
			When: func(in *input) bool {
				return in.caps.OpticalStabilization.Contains(capability.OpticalStabilizationOn)
			},
			Value: always[*input](stabilization{optical: capability.OpticalStabilizationOn}),
		},
		{
			Name: "digital",
			When: func(in *input) bool {
				return in.caps.DigitalStabilization.Contains(capability.DigitalStabilizationOn)
			},
			Value: always[*input](stabilization{digital: capability.DigitalStabilizationOn}),
		},
	},
}

// processingHints picks per-stage processing quality for the speed and
// quality tiers. Color correction and edge enhancement need a full device.
func processingHints(caps *capability.DeviceCapabilities, q QualityPrioritization) map[capability.ProcessingStage]capability.ProcessingQuality {
	var want capability.ProcessingQuality
	switch q {
	case QualitySpeed:
		want = capability.ProcessingFast
	case QualityQuality:
		want = capability.ProcessingHighQuality
	default:
		return nil
	}

	full := caps.HardwareLevel.IsAtLeast(capability.HardwareLevelFull)
	hints := make(map[capability.ProcessingStage]capability.ProcessingQuality)
	for _, stage := range capability.ProcessingStages {
		switch stage {
		case capability.ProcessingColorCorrection:
			if full {
				hints[stage] = want
			}
		case capability.ProcessingEdge:
			if full && caps.IsProcessingSupported(stage, want) {
				hints[stage] = want
			}
		default:
			if caps.IsProcessingSupported(stage, want) {
				hints[stage] = want
			}
		}
	}
	return hints
}

// Photo resolves a one-shot still capture request. Torch is always off;
// flash, photo HDR and the auto-stabilization hint replace the streaming
// controls.
func (b *Builder) Photo(active *format.Descriptor, intent PhotoIntent) (*Parameters, error) {
	p := &Parameters{Kind: KindPhoto, DeviceID: b.caps.ID}
	in := &input{
		caps:     b.caps,
		format:   active,
		controls: intent.Controls,
	}

	var err error
	if in.photo, err = intent.normalized(); err != nil {
		return nil, err
	}

	flashAE, err := run(b, p, flashChain, in)
	if err != nil {
		return nil, err
	}

	if err := b.resolveShared(p, in, photoSceneChain); err != nil {
		return nil, err
	}
	if flashAE != "" {
		p.AEMode = flashAE
		p.ControlMode = ControlModeAuto
		if p.SceneMode != "" {
			p.ControlMode = ControlModeUseSceneMode
		}
	}

	if p.Template, err = run(b, p, photoTemplateChain, in); err != nil {
		return nil, err
	}

	stab, err := run(b, p, autoStabilizationChain, in)
	if err != nil {
		return nil, err
	}
	p.DigitalStabilization, p.OpticalStabilization = stab.digital, stab.optical

	p.JpegQuality = jpegQuality[in.photo.Quality]
	orientation := in.photo.Orientation.SensorRelative(b.caps)
	p.JpegOrientation = &orientation
	p.Processing = processingHints(b.caps, in.photo.Quality)

	p.Targets = []string{}
	for _, o := range intent.Outputs {
		if o.Kind == OutputPhoto {
			p.Targets = append(p.Targets, o.Name)
		}
	}
	return p, nil
}
