package format

import (
	"fmt"
	"math"

	"github.com/video-system/go-capture-negotiation/pkg/camerror"
	"github.com/video-system/go-capture-negotiation/pkg/capability"
)

// Criterion names a property a filter entry scores.
type Criterion string

const (
	CriterionVideoResolution  Criterion = "video-resolution"
	CriterionPhotoResolution  Criterion = "photo-resolution"
	CriterionVideoAspectRatio Criterion = "video-aspect-ratio"
	CriterionPhotoAspectRatio Criterion = "photo-aspect-ratio"
	CriterionFps              Criterion = "fps"
	CriterionVideoHdr         Criterion = "video-hdr"
	CriterionPhotoHdr         Criterion = "photo-hdr"
	CriterionStabilization    Criterion = "video-stabilization-mode"
	CriterionISO              Criterion = "iso"
	CriterionAutoFocusSystem  Criterion = "auto-focus-system"
	CriterionPixelFormat      Criterion = "pixel-format"
)

// Entry is one weighted criterion of a filter. Which target field applies
// depends on the criterion:
//
//	video-resolution, photo-resolution   Size, or Max for the largest available
//	video-aspect-ratio, photo-aspect-ratio  Value (width / height)
//	fps                                  Value, or Max for the fastest available
//	iso                                  Value
//	video-hdr, photo-hdr                 Enabled
//	video-stabilization-mode, auto-focus-system, pixel-format  Mode
type Entry struct {
	Criterion Criterion       `yaml:"criterion" json:"criterion"`
	Size      capability.Size `yaml:"size" json:"size"`
	Max       bool            `yaml:"max" json:"max"`
	Value     float64         `yaml:"value" json:"value"`
	Enabled   bool            `yaml:"enabled" json:"enabled"`
	Mode      string          `yaml:"mode" json:"mode"`
	Weight    float64         `yaml:"weight" json:"weight"`
}

// Filter is an ordered list of weighted criteria.
type Filter []Entry

// VideoResolution targets a video size.
func VideoResolution(size capability.Size, weight float64) Entry {
	return Entry{Criterion: CriterionVideoResolution, Size: size, Weight: weight}
}

// MaxVideoResolution prefers the largest video size.
func MaxVideoResolution(weight float64) Entry {
	return Entry{Criterion: CriterionVideoResolution, Max: true, Weight: weight}
}

// PhotoResolution targets a photo size.
func PhotoResolution(size capability.Size, weight float64) Entry {
	return Entry{Criterion: CriterionPhotoResolution, Size: size, Weight: weight}
}

// MaxPhotoResolution prefers the largest photo size.
func MaxPhotoResolution(weight float64) Entry {
	return Entry{Criterion: CriterionPhotoResolution, Max: true, Weight: weight}
}

// VideoAspectRatio targets a video width / height ratio.
func VideoAspectRatio(ratio, weight float64) Entry {
	return Entry{Criterion: CriterionVideoAspectRatio, Value: ratio, Weight: weight}
}

// PhotoAspectRatio targets a photo width / height ratio.
func PhotoAspectRatio(ratio, weight float64) Entry {
	return Entry{Criterion: CriterionPhotoAspectRatio, Value: ratio, Weight: weight}
}

// Fps targets a frame rate the format must reach.
func Fps(fps int, weight float64) Entry {
	return Entry{Criterion: CriterionFps, Value: float64(fps), Weight: weight}
}

// MaxFps prefers the fastest format.
func MaxFps(weight float64) Entry {
	return Entry{Criterion: CriterionFps, Max: true, Weight: weight}
}

// VideoHdr matches video HDR support.
func VideoHdr(enabled bool, weight float64) Entry {
	return Entry{Criterion: CriterionVideoHdr, Enabled: enabled, Weight: weight}
}

// PhotoHdr matches photo HDR support.
func PhotoHdr(enabled bool, weight float64) Entry {
	return Entry{Criterion: CriterionPhotoHdr, Enabled: enabled, Weight: weight}
}

// Stabilization prefers formats advertising mode.
func Stabilization(mode capability.StabilizationMode, weight float64) Entry {
	return Entry{Criterion: CriterionStabilization, Mode: string(mode), Weight: weight}
}

// ISO targets an ISO value inside the format's range.
func ISO(iso int, weight float64) Entry {
	return Entry{Criterion: CriterionISO, Value: float64(iso), Weight: weight}
}

// AutoFocus matches an auto-focus system.
func AutoFocus(system capability.AutoFocusSystem, weight float64) Entry {
	return Entry{Criterion: CriterionAutoFocusSystem, Mode: string(system), Weight: weight}
}

// PixelFormatEntry prefers formats delivering pf.
func PixelFormatEntry(pf capability.PixelFormat, weight float64) Entry {
	return Entry{Criterion: CriterionPixelFormat, Mode: string(pf), Weight: weight}
}

// Validate checks every entry and returns the first problem as an
// invalid-filter error.
func (f Filter) Validate() error {
	for i, e := range f {
		if reason := e.validate(); reason != "" {
			return camerror.InvalidFilter(i, reason)
		}
	}
	return nil
}

func (e Entry) validate() string {
	if math.IsNaN(e.Weight) || math.IsInf(e.Weight, 0) || e.Weight <= 0 {
		return fmt.Sprintf("weight must be a positive finite number, got %v", e.Weight)
	}
	switch e.Criterion {
	case CriterionVideoResolution, CriterionPhotoResolution:
		if !e.Max && !e.Size.Valid() {
			return fmt.Sprintf("%s target must be a positive size or max, got %s", e.Criterion, e.Size)
		}
	case CriterionFps:
		if !e.Max && (!(e.Value > 0) || math.IsInf(e.Value, 0)) {
			return fmt.Sprintf("fps target must be a positive finite number or max, got %v", e.Value)
		}
	case CriterionVideoAspectRatio, CriterionPhotoAspectRatio, CriterionISO:
		if !(e.Value > 0) || math.IsInf(e.Value, 0) {
			return fmt.Sprintf("%s target must be a positive finite number, got %v", e.Criterion, e.Value)
		}
	case CriterionVideoHdr, CriterionPhotoHdr:
	case CriterionStabilization:
		if _, err := capability.ParseStabilizationMode(e.Mode); err != nil {
			return err.Error()
		}
	case CriterionAutoFocusSystem:
		switch capability.AutoFocusSystem(e.Mode) {
		case capability.AutoFocusNone, capability.AutoFocusContrastDetection, capability.AutoFocusPhaseDetection:
		default:
			return fmt.Sprintf("unknown auto-focus system %q", e.Mode)
		}
	case CriterionPixelFormat:
		switch capability.PixelFormat(e.Mode) {
		case capability.PixelFormatYUV, capability.PixelFormatRGB, capability.PixelFormatNative:
		default:
			return fmt.Sprintf("unknown pixel format %q", e.Mode)
		}
	default:
		return fmt.Sprintf("unknown criterion %q", e.Criterion)
	}
	return ""
}
