package request

import (
	"github.com/video-system/go-capture-negotiation/pkg/capability"
)

// Template selects the platform request template.
type Template string

const (
	TemplatePreview        Template = "preview"
	TemplateRecord         Template = "record"
	TemplateStillCapture   Template = "still-capture"
	TemplateZeroShutterLag Template = "zero-shutter-lag"
	TemplateSnapshot       Template = "video-snapshot"
)

// ControlMode is the overall 3A control mode.
type ControlMode string

const (
	ControlModeAuto         ControlMode = "auto"
	ControlModeUseSceneMode ControlMode = "use-scene-mode"
)

// SceneMode is the scene optimisation applied by the pipeline.
type SceneMode string

const (
	SceneModeHDR   SceneMode = "hdr"
	SceneModeNight SceneMode = "night"
)

// Kind is the request class a parameter set was resolved for.
type Kind string

const (
	KindRepeating Kind = "repeating"
	KindPhoto     Kind = "photo"
)

// Decision records which chain rule resolved a parameter.
type Decision struct {
	Chain string `json:"chain"`
	Rule  string `json:"rule"`
}

// Parameters is a fully resolved, legal capture request. Empty string
// fields and nil pointers are left at template defaults.
type Parameters struct {
	Kind        Kind        `json:"kind"`
	DeviceID    string      `json:"device_id"`
	Template    Template    `json:"template"`
	ControlMode ControlMode `json:"control_mode,omitempty"`

	AFMode        capability.AFMode  `json:"af_mode,omitempty"`
	FocusDistance *float64           `json:"focus_distance,omitempty"`
	AEMode        capability.AEMode  `json:"ae_mode,omitempty"`
	AWBMode       capability.AWBMode `json:"awb_mode,omitempty"`
	SceneMode     SceneMode          `json:"scene_mode,omitempty"`

	DigitalStabilization capability.DigitalStabilization `json:"digital_stabilization,omitempty"`
	OpticalStabilization capability.OpticalStabilization `json:"optical_stabilization,omitempty"`

	Zoom     Zoom                 `json:"zoom"`
	Torch    bool                 `json:"torch"`
	Exposure *float64             `json:"exposure,omitempty"`
	FpsRange *capability.IntRange `json:"fps_range,omitempty"`

	// Photo only.
	JpegQuality     int                                                         `json:"jpeg_quality,omitempty"`
	JpegOrientation *capability.Orientation                                     `json:"jpeg_orientation,omitempty"`
	Processing      map[capability.ProcessingStage]capability.ProcessingQuality `json:"processing,omitempty"`

	Targets   []string   `json:"targets"`
	Decisions []Decision `json:"decisions"`
}

func (p *Parameters) decide(chain, rule string) {
	if rule == "" {
		return
	}
	p.Decisions = append(p.Decisions, Decision{Chain: chain, Rule: rule})
}

// Decision returns the rule that resolved chain, if any.
func (p *Parameters) Decision(chain string) (string, bool) {
	for _, d := range p.Decisions {
		if d.Chain == chain {
			return d.Rule, true
		}
	}
	return "", false
}
