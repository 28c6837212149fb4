package capability

import (
	"fmt"
	"math"
	"time"

	"github.com/video-system/go-capture-negotiation/pkg/camerror"
)

// DefaultPlatform is used when RawCharacteristics.Platform is empty.
const DefaultPlatform = "camera2"

// Resolve validates raw characteristics and converts them into an immutable
// DeviceCapabilities snapshot.
func Resolve(raw RawCharacteristics) (*DeviceCapabilities, error) {
	platform := raw.Platform
	if platform == "" {
		platform = DefaultPlatform
	}
	vocab, ok := LookupVocabulary(platform)
	if !ok {
		return nil, camerror.InvalidCharacteristics("platform",
			fmt.Sprintf("unknown platform vocabulary %q (registered: %v)", platform, Vocabularies()))
	}
	if err := validateRaw(&raw); err != nil {
		return nil, err
	}

	r := &resolver{}
	features := vocab.Features(&raw)

	caps := &DeviceCapabilities{
		ID:                      raw.ID,
		Name:                    raw.Name,
		Platform:                platform,
		PlatformVersion:         raw.PlatformVersion,
		SensorSize:              raw.SensorSize,
		SensorOrientation:       OrientationFromDegrees(raw.SensorOrientation),
		ActiveArraySize:         raw.ActiveArraySize,
		ZoomRange:               FloatRange{Min: raw.MinZoom, Max: raw.MaxZoom},
		ISORange:                IntRange{Min: raw.MinISO, Max: raw.MaxISO},
		MinFocusDistance:        raw.MinFocusDistance,
		AutoFocusSystem:         features.AutoFocusSystem,
		HasFlash:                raw.FlashAvailable,
		SupportsLowLightBoost:   features.SupportsLowLightBoost,
		SupportsPhotoHdr:        features.SupportsPhotoHdr,
		SupportsZsl:             features.SupportsZsl,
		SupportsSnapshotCapture: features.SupportsSnapshotCapture,
		SupportsDepthCapture:    features.SupportsDepthCapture,
		SupportsZoomRatio:       features.SupportsZoomRatio,

		previewStabilizationAllowed: features.PreviewStabilizationAllowed,
		focalLengths:                append([]float64(nil), raw.FocalLengths...),
		photoSizes:                  append([]Size(nil), raw.PhotoSizes...),
	}

	step := raw.ExposureStep
	if step == 0 {
		step = 1
	}
	caps.ExposureRange = FloatRange{
		Min: float64(raw.MinExposureIndex) * step,
		Max: float64(raw.MaxExposureIndex) * step,
	}
	caps.NeutralZoom = 1.0
	if !caps.ZoomRange.Contains(caps.NeutralZoom) {
		caps.NeutralZoom = caps.ZoomRange.Min
	}

	caps.Position = PositionExternal
	if p, ok := vocab.Position(raw.LensFacing); ok {
		caps.Position = p
	} else {
		r.drop("lens_facing", raw.LensFacing)
	}
	caps.HardwareLevel = HardwareLevelLegacy
	if l, ok := vocab.HardwareLevel(raw.HardwareLevel); ok {
		caps.HardwareLevel = l
	} else {
		r.drop("hardware_level", raw.HardwareLevel)
	}

	caps.AFModes = convert(r, "af_modes", raw.AFModes, vocab.AFMode)
	caps.AEModes = convert(r, "ae_modes", raw.AEModes, vocab.AEMode)
	caps.AWBModes = convert(r, "awb_modes", raw.AWBModes, vocab.AWBMode)
	caps.DigitalStabilization = convert(r, "video_stabilization_modes", raw.VideoStabilizationModes, vocab.DigitalStabilization)
	caps.OpticalStabilization = convert(r, "optical_stabilization_modes", raw.OpticalStabilizationModes, vocab.OpticalStabilization)
	caps.PixelFormats = convert(r, "pixel_formats", raw.PixelFormats, vocab.PixelFormat)

	if features.VideoHdrAllowed {
		profiles := make([]HdrProfile, 0, len(raw.DynamicRangeProfiles))
		for _, v := range raw.DynamicRangeProfiles {
			if p, ok := vocab.HdrProfile(v); ok {
				profiles = append(profiles, p)
			}
		}
		caps.VideoHdrProfiles = NewSet(profiles...)
	}

	caps.processing = make(map[ProcessingStage]Set[ProcessingQuality], len(raw.ProcessingModes))
	for name, modes := range raw.ProcessingModes {
		stage := ProcessingStage(name)
		if !knownStage(stage) {
			r.drop("processing_modes", name)
			continue
		}
		caps.processing[stage] = convert(r, "processing_modes."+name, modes, vocab.ProcessingQuality)
	}

	deviceModes := caps.StabilizationModes()
	for _, s := range raw.VideoStreams {
		stream := VideoStream{
			Size:             Size{Width: s.Width, Height: s.Height},
			MinFrameDuration: time.Duration(s.MinFrameDurationNs),
			MaxEncoderFps:    s.MaxEncoderFps,
		}
		if len(s.StabilizationModes) > 0 {
			modes := []StabilizationMode{StabilizationOff}
			for _, m := range s.StabilizationModes {
				mode, ok := vocab.StreamStabilization(m)
				if !ok {
					r.drop("video_streams.stabilization_modes", m)
					continue
				}
				// Per-format support can only narrow the device modes.
				if deviceModes.Contains(mode) {
					modes = append(modes, mode)
				}
			}
			stream.StabilizationModes = NewSet(modes...)
			stream.hasStabilization = true
		}
		caps.videoStreams = append(caps.videoStreams, stream)
	}

	caps.unmapped = r.unmapped
	return caps, nil
}

func validateRaw(raw *RawCharacteristics) error {
	switch {
	case raw.ID == "":
		return camerror.InvalidCharacteristics("id", "device id must not be empty")
	case !(raw.MinZoom > 0) || raw.MinZoom > raw.MaxZoom || math.IsInf(raw.MaxZoom, 0) || math.IsNaN(raw.MaxZoom):
		return camerror.InvalidCharacteristics("zoom_range",
			fmt.Sprintf("zoom range must satisfy 0 < min <= max, got [%g, %g]", raw.MinZoom, raw.MaxZoom))
	case raw.MinExposureIndex > raw.MaxExposureIndex:
		return camerror.InvalidCharacteristics("exposure_range",
			fmt.Sprintf("exposure range must satisfy min <= max, got [%d, %d]", raw.MinExposureIndex, raw.MaxExposureIndex))
	case raw.ExposureStep < 0 || math.IsNaN(raw.ExposureStep) || math.IsInf(raw.ExposureStep, 0):
		return camerror.InvalidCharacteristics("exposure_step", "exposure step must be a non-negative number")
	case raw.MinISO > raw.MaxISO:
		return camerror.InvalidCharacteristics("iso_range",
			fmt.Sprintf("iso range must satisfy min <= max, got [%d, %d]", raw.MinISO, raw.MaxISO))
	case raw.MinFocusDistance < 0:
		return camerror.InvalidCharacteristics("min_focus_distance", "minimum focus distance must not be negative")
	}
	for i, s := range raw.VideoStreams {
		if s.Width <= 0 || s.Height <= 0 {
			return camerror.InvalidCharacteristics(fmt.Sprintf("video_streams[%d]", i),
				fmt.Sprintf("stream size must be strictly positive, got %dx%d", s.Width, s.Height))
		}
		if s.MinFrameDurationNs <= 0 {
			return camerror.InvalidCharacteristics(fmt.Sprintf("video_streams[%d]", i),
				"minimum frame duration must be strictly positive")
		}
	}
	for i, s := range raw.PhotoSizes {
		if !s.Valid() {
			return camerror.InvalidCharacteristics(fmt.Sprintf("photo_sizes[%d]", i),
				fmt.Sprintf("photo size must be strictly positive, got %s", s))
		}
	}
	for i, f := range raw.FocalLengths {
		if !(f > 0) {
			return camerror.InvalidCharacteristics(fmt.Sprintf("focal_lengths[%d]", i),
				"focal length must be strictly positive")
		}
	}
	return nil
}

type resolver struct {
	unmapped []string
}

func (r *resolver) drop(field string, value any) {
	r.unmapped = append(r.unmapped, fmt.Sprintf("%s=%v", field, value))
}

func convert[T comparable](r *resolver, field string, raw []int, fn func(int) (T, bool)) Set[T] {
	out := make([]T, 0, len(raw))
	for _, v := range raw {
		mapped, ok := fn(v)
		if !ok {
			r.drop(field, v)
			continue
		}
		out = append(out, mapped)
	}
	return NewSet(out...)
}

func knownStage(stage ProcessingStage) bool {
	for _, s := range ProcessingStages {
		if s == stage {
			return true
		}
	}
	return false
}
