package capability

import (
	"fmt"
	"math"
)

// Position is the direction a lens faces.
type Position string

const (
	PositionFront    Position = "front"
	PositionBack     Position = "back"
	PositionExternal Position = "external"
)

// HardwareLevel is the vendor-reported capability tier.
// Levels are ranked: legacy < limited < full < level3.
type HardwareLevel int

const (
	HardwareLevelLegacy HardwareLevel = iota
	HardwareLevelLimited
	HardwareLevelFull
	HardwareLevel3
)

// IsAtLeast reports whether l ranks at or above other.
func (l HardwareLevel) IsAtLeast(other HardwareLevel) bool {
	return l >= other
}

// String returns the level name.
func (l HardwareLevel) String() string {
	switch l {
	case HardwareLevelLegacy:
		return "legacy"
	case HardwareLevelLimited:
		return "limited"
	case HardwareLevelFull:
		return "full"
	case HardwareLevel3:
		return "level-3"
	default:
		return "unknown"
	}
}

// MarshalText encodes the level by name.
func (l HardwareLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// AFMode is an abstract auto-focus mode. The zero value means unspecified.
type AFMode string

const (
	AFModeOff                AFMode = "off"
	AFModeAuto               AFMode = "auto"
	AFModeMacro              AFMode = "macro"
	AFModeContinuousVideo    AFMode = "continuous-video"
	AFModeContinuousPicture  AFMode = "continuous-picture"
	AFModeExtendedDepthField AFMode = "edof"
)

// AEMode is an abstract auto-exposure mode. The zero value means unspecified.
type AEMode string

const (
	AEModeOff               AEMode = "off"
	AEModeOn                AEMode = "on"
	AEModeOnAutoFlash       AEMode = "on-auto-flash"
	AEModeOnAlwaysFlash     AEMode = "on-always-flash"
	AEModeOnAutoFlashRedEye AEMode = "on-auto-flash-redeye"
	AEModeOnExternalFlash   AEMode = "on-external-flash"
)

// AWBMode is an abstract auto-white-balance mode. The zero value means unspecified.
type AWBMode string

const (
	AWBModeOff          AWBMode = "off"
	AWBModeAuto         AWBMode = "auto"
	AWBModeIncandescent AWBMode = "incandescent"
	AWBModeFluorescent  AWBMode = "fluorescent"
	AWBModeDaylight     AWBMode = "daylight"
	AWBModeCloudy       AWBMode = "cloudy-daylight"
	AWBModeShade        AWBMode = "shade"
)

// DigitalStabilization is a software stabilization tier.
type DigitalStabilization string

const (
	DigitalStabilizationOff DigitalStabilization = "off"
	DigitalStabilizationOn  DigitalStabilization = "on"
	// DigitalStabilizationPreview is the higher quality tier that also
	// stabilizes the preview stream. Newer platform versions only.
	DigitalStabilizationPreview DigitalStabilization = "preview"
)

// OpticalStabilization is a lens-shift stabilization tier.
type OpticalStabilization string

const (
	OpticalStabilizationOff OpticalStabilization = "off"
	OpticalStabilizationOn  OpticalStabilization = "on"
)

// StabilizationKind separates digital from optical stabilization.
type StabilizationKind int

const (
	StabilizationDigital StabilizationKind = iota
	StabilizationOptical
)

// String returns the kind name.
func (k StabilizationKind) String() string {
	if k == StabilizationOptical {
		return "optical"
	}
	return "digital"
}

// StabilizationMode is the user-facing video stabilization mode.
type StabilizationMode string

const (
	StabilizationOff               StabilizationMode = "off"
	StabilizationStandard          StabilizationMode = "standard"
	StabilizationCinematic         StabilizationMode = "cinematic"
	StabilizationCinematicExtended StabilizationMode = "cinematic-extended"
)

// ParseStabilizationMode parses a mode name. "auto" and "" mean off.
func ParseStabilizationMode(s string) (StabilizationMode, error) {
	switch s {
	case "", "off", "auto":
		return StabilizationOff, nil
	case "standard":
		return StabilizationStandard, nil
	case "cinematic":
		return StabilizationCinematic, nil
	case "cinematic-extended":
		return StabilizationCinematicExtended, nil
	default:
		return "", fmt.Errorf("unknown video stabilization mode %q", s)
	}
}

// HdrProfile is a video dynamic range profile.
type HdrProfile string

const (
	HdrProfileHLG10       HdrProfile = "hlg10"
	HdrProfileHDR10       HdrProfile = "hdr10"
	HdrProfileHDR10Plus   HdrProfile = "hdr10-plus"
	HdrProfileDolbyVision HdrProfile = "dolby-vision"
)

// AutoFocusSystem describes how the lens finds focus.
type AutoFocusSystem string

const (
	AutoFocusNone              AutoFocusSystem = "none"
	AutoFocusContrastDetection AutoFocusSystem = "contrast-detection"
	AutoFocusPhaseDetection    AutoFocusSystem = "phase-detection"
)

// PixelFormat is a frame buffer layout a stream can deliver.
type PixelFormat string

const (
	PixelFormatYUV    PixelFormat = "yuv"
	PixelFormatRGB    PixelFormat = "rgb"
	PixelFormatNative PixelFormat = "native"
)

// DeviceType classifies a lens by its field of view.
type DeviceType string

const (
	DeviceTypeUltraWide DeviceType = "ultra-wide-angle-camera"
	DeviceTypeWide      DeviceType = "wide-angle-camera"
	DeviceTypeTelephoto DeviceType = "telephoto-camera"
)

// ProcessingStage is a post-processing block of the image pipeline.
type ProcessingStage string

const (
	ProcessingColorCorrection ProcessingStage = "color-correction"
	ProcessingEdge            ProcessingStage = "edge"
	ProcessingAberration      ProcessingStage = "aberration"
	ProcessingHotPixel        ProcessingStage = "hot-pixel"
	ProcessingDistortion      ProcessingStage = "distortion"
	ProcessingNoiseReduction  ProcessingStage = "noise-reduction"
	ProcessingShading         ProcessingStage = "shading"
	ProcessingTonemap         ProcessingStage = "tonemap"
)

// ProcessingStages lists every stage in pipeline order.
var ProcessingStages = []ProcessingStage{
	ProcessingColorCorrection,
	ProcessingEdge,
	ProcessingAberration,
	ProcessingHotPixel,
	ProcessingDistortion,
	ProcessingNoiseReduction,
	ProcessingShading,
	ProcessingTonemap,
}

// ProcessingQuality is the speed/quality trade-off of a processing stage.
type ProcessingQuality string

const (
	ProcessingFast        ProcessingQuality = "fast"
	ProcessingHighQuality ProcessingQuality = "high-quality"
)

// Size is a width × height in pixels.
type Size struct {
	Width  int `yaml:"width" json:"width"`
	Height int `yaml:"height" json:"height"`
}

// Pixels returns width × height.
func (s Size) Pixels() int {
	return s.Width * s.Height
}

// AspectRatio returns width / height.
func (s Size) AspectRatio() float64 {
	if s.Height == 0 {
		return 0
	}
	return float64(s.Width) / float64(s.Height)
}

// Valid reports whether both dimensions are strictly positive.
func (s Size) Valid() bool {
	return s.Width > 0 && s.Height > 0
}

// String returns resolution string like "1920x1080".
func (s Size) String() string {
	return fmt.Sprintf("%dx%d", s.Width, s.Height)
}

// SensorSize is the physical sensor size in millimetres.
type SensorSize struct {
	Width  float64 `yaml:"width" json:"width"`
	Height float64 `yaml:"height" json:"height"`
}

// IntRange is an inclusive integer range.
type IntRange struct {
	Min int `json:"min"`
	Max int `json:"max"`
}

// Contains reports whether v lies in the range.
func (r IntRange) Contains(v int) bool {
	return v >= r.Min && v <= r.Max
}

// FloatRange is an inclusive floating point range.
type FloatRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// Contains reports whether v lies in the range.
func (r FloatRange) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// Clamp returns v limited to the range.
func (r FloatRange) Clamp(v float64) float64 {
	return math.Min(math.Max(v, r.Min), r.Max)
}
