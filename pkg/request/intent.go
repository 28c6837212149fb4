package request

import (
	"github.com/video-system/go-capture-negotiation/pkg/camerror"
	"github.com/video-system/go-capture-negotiation/pkg/capability"
)

// OutputKind is the consumer an output surface feeds.
type OutputKind string

const (
	OutputPreview        OutputKind = "preview"
	OutputVideo          OutputKind = "video"
	OutputFrameProcessor OutputKind = "frame-processor"
	OutputPhoto          OutputKind = "photo"
)

// Output is a surface a request can target.
type Output struct {
	Name      string     `yaml:"name" json:"name"`
	Kind      OutputKind `yaml:"kind" json:"kind"`
	Repeating bool       `yaml:"repeating" json:"repeating"`
}

// Controls are the intent fields every request class shares.
type Controls struct {
	// Zoom is the zoom factor; 0 means the device's neutral zoom.
	Zoom float64 `yaml:"zoom" json:"zoom"`
	// ExposureBias in EV; nil leaves the template default.
	ExposureBias  *float64 `yaml:"exposure_bias" json:"exposure_bias,omitempty"`
	LowLightBoost bool     `yaml:"low_light_boost" json:"low_light_boost"`
	// FocusDistance pins manual focus, in diopters. nil keeps auto-focus.
	FocusDistance *float64 `yaml:"focus_distance" json:"focus_distance,omitempty"`
	Outputs       []Output `yaml:"outputs" json:"outputs"`
}

// Intent is the declarative input of a repeating request.
type Intent struct {
	Controls `yaml:",inline"`

	Torch             bool                         `yaml:"torch" json:"torch"`
	StabilizationMode capability.StabilizationMode `yaml:"video_stabilization_mode" json:"video_stabilization_mode"`
	VideoHdr          bool                         `yaml:"video_hdr" json:"video_hdr"`
	// Fps pins the frame rate; nil leaves it to the template.
	Fps *int `yaml:"fps" json:"fps,omitempty"`
}

// QualityPrioritization is the photo speed/quality tier.
type QualityPrioritization string

const (
	QualitySpeed    QualityPrioritization = "speed"
	QualityBalanced QualityPrioritization = "balanced"
	QualityQuality  QualityPrioritization = "quality"
)

// FlashMode is the still capture flash setting.
type FlashMode string

const (
	FlashOff  FlashMode = "off"
	FlashOn   FlashMode = "on"
	FlashAuto FlashMode = "auto"
)

// PhotoIntent is the declarative input of a one-shot still capture.
type PhotoIntent struct {
	Controls `yaml:",inline"`

	Quality           QualityPrioritization  `yaml:"quality" json:"quality"`
	Flash             FlashMode              `yaml:"flash" json:"flash"`
	RedEyeReduction   bool                   `yaml:"red_eye_reduction" json:"red_eye_reduction"`
	PhotoHdr          bool                   `yaml:"photo_hdr" json:"photo_hdr"`
	AutoStabilization bool                   `yaml:"auto_stabilization" json:"auto_stabilization"`
	Orientation       capability.Orientation `yaml:"orientation" json:"orientation"`
}

func (p PhotoIntent) normalized() (PhotoIntent, error) {
	switch p.Quality {
	case "":
		p.Quality = QualityBalanced
	case QualitySpeed, QualityBalanced, QualityQuality:
	default:
		return p, camerror.InvalidParameter("qualityPrioritization", p.Quality, "must be one of speed, balanced, quality")
	}
	switch p.Flash {
	case "":
		p.Flash = FlashOff
	case FlashOff, FlashOn, FlashAuto:
	default:
		return p, camerror.InvalidParameter("flash", p.Flash, "must be one of off, on, auto")
	}
	return p, nil
}

func (i Intent) normalized() (Intent, error) {
	mode, err := capability.ParseStabilizationMode(string(i.StabilizationMode))
	if err != nil {
		return i, camerror.InvalidStabilizationMode(string(i.StabilizationMode),
			"stabilization mode must be one of off, auto, standard, cinematic, cinematic-extended")
	}
	i.StabilizationMode = mode
	return i, nil
}
