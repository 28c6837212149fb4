package capability

import (
	"math"
	"time"
)

// DeviceCapabilities is an immutable snapshot of one physical device.
// It is never modified after Resolve returns it.
type DeviceCapabilities struct {
	ID              string        `json:"id"`
	Name            string        `json:"name,omitempty"`
	Platform        string        `json:"platform"`
	PlatformVersion int           `json:"platform_version"`
	Position        Position      `json:"position"`
	HardwareLevel   HardwareLevel `json:"hardware_level"`

	SensorSize        SensorSize  `json:"sensor_size"`
	SensorOrientation Orientation `json:"sensor_orientation"`
	ActiveArraySize   Size        `json:"active_array_size"`

	ZoomRange        FloatRange      `json:"zoom_range"`
	NeutralZoom      float64         `json:"neutral_zoom"`
	ISORange         IntRange        `json:"iso_range"`
	ExposureRange    FloatRange      `json:"exposure_range"`
	MinFocusDistance float64         `json:"min_focus_distance"`
	AutoFocusSystem  AutoFocusSystem `json:"auto_focus_system"`

	HasFlash                bool `json:"has_flash"`
	SupportsLowLightBoost   bool `json:"supports_low_light_boost"`
	SupportsPhotoHdr        bool `json:"supports_photo_hdr"`
	SupportsZsl             bool `json:"supports_zsl"`
	SupportsSnapshotCapture bool `json:"supports_snapshot_capture"`
	SupportsDepthCapture    bool `json:"supports_depth_capture"`
	SupportsZoomRatio       bool `json:"supports_zoom_ratio"`

	AFModes              Set[AFMode]               `json:"af_modes"`
	AEModes              Set[AEMode]               `json:"ae_modes"`
	AWBModes             Set[AWBMode]              `json:"awb_modes"`
	DigitalStabilization Set[DigitalStabilization] `json:"digital_stabilization"`
	OpticalStabilization Set[OpticalStabilization] `json:"optical_stabilization"`
	VideoHdrProfiles     Set[HdrProfile]           `json:"video_hdr_profiles"`
	PixelFormats         Set[PixelFormat]          `json:"pixel_formats"`

	previewStabilizationAllowed bool
	focalLengths                []float64
	videoStreams                []VideoStream
	photoSizes                  []Size
	processing                  map[ProcessingStage]Set[ProcessingQuality]
	unmapped                    []string
}

// VideoStream is one resolved entry of the minimum-frame-duration table.
type VideoStream struct {
	Size             Size
	MinFrameDuration time.Duration
	MaxEncoderFps    int
	// StabilizationModes is set only when the platform reports per-format
	// support; see HasStabilizationModes.
	StabilizationModes Set[StabilizationMode]

	hasStabilization bool
}

// HasStabilizationModes reports whether the stream carries its own
// stabilization support instead of inheriting the device modes.
func (s VideoStream) HasStabilizationModes() bool {
	return s.hasStabilization
}

// MaxFps returns the highest whole frame rate the stream can sustain,
// limited by the encoder when it reports a limit.
func (s VideoStream) MaxFps() int {
	if s.MinFrameDuration <= 0 {
		return 0
	}
	fps := int(time.Second / s.MinFrameDuration)
	if s.MaxEncoderFps > 0 && s.MaxEncoderFps < fps {
		fps = s.MaxEncoderFps
	}
	return fps
}

// FocalLengths returns the lens focal lengths in millimetres.
func (c *DeviceCapabilities) FocalLengths() []float64 {
	return append([]float64(nil), c.focalLengths...)
}

// VideoStreams returns the resolved stream table in reported order.
func (c *DeviceCapabilities) VideoStreams() []VideoStream {
	return append([]VideoStream(nil), c.videoStreams...)
}

// PhotoSizes returns the still capture sizes in reported order.
func (c *DeviceCapabilities) PhotoSizes() []Size {
	return append([]Size(nil), c.photoSizes...)
}

// Unmapped lists the raw values no vocabulary entry matched, as "field=value".
func (c *DeviceCapabilities) Unmapped() []string {
	return append([]string(nil), c.unmapped...)
}

// HasVideoHdr reports whether any video HDR profile is available.
func (c *DeviceCapabilities) HasVideoHdr() bool {
	return c.VideoHdrProfiles.Len() > 0
}

// IsAFModeSupported reports whether the device advertises mode.
func (c *DeviceCapabilities) IsAFModeSupported(mode AFMode) bool {
	return c.AFModes.Contains(mode)
}

// IsAEModeSupported reports whether the device advertises mode.
func (c *DeviceCapabilities) IsAEModeSupported(mode AEMode) bool {
	return c.AEModes.Contains(mode)
}

// IsAWBModeSupported reports whether the device advertises mode.
func (c *DeviceCapabilities) IsAWBModeSupported(mode AWBMode) bool {
	return c.AWBModes.Contains(mode)
}

// IsStabilizationSupported reports whether any non-off tier of kind is available.
func (c *DeviceCapabilities) IsStabilizationSupported(kind StabilizationKind) bool {
	switch kind {
	case StabilizationOptical:
		return c.OpticalStabilization.Contains(OpticalStabilizationOn)
	default:
		return c.DigitalStabilization.Contains(DigitalStabilizationOn) ||
			c.DigitalStabilization.Contains(DigitalStabilizationPreview)
	}
}

// IsPreviewStabilizationSupported reports whether the preview tier is both
// advertised by the hardware and allowed by the platform version.
func (c *DeviceCapabilities) IsPreviewStabilizationSupported() bool {
	return c.previewStabilizationAllowed && c.DigitalStabilization.Contains(DigitalStabilizationPreview)
}

// BestDigitalStabilizationMode returns the preview tier when supported, else on.
func (c *DeviceCapabilities) BestDigitalStabilizationMode() DigitalStabilization {
	if c.IsPreviewStabilizationSupported() {
		return DigitalStabilizationPreview
	}
	return DigitalStabilizationOn
}

// StabilizationModes returns the user-facing modes the device can run.
// Off is always present.
func (c *DeviceCapabilities) StabilizationModes() Set[StabilizationMode] {
	modes := []StabilizationMode{StabilizationOff}
	if c.DigitalStabilization.Contains(DigitalStabilizationOn) {
		modes = append(modes, StabilizationStandard)
	}
	if c.DigitalStabilization.Contains(DigitalStabilizationPreview) {
		modes = append(modes, StabilizationCinematic)
	}
	if c.OpticalStabilization.Contains(OpticalStabilizationOn) {
		modes = append(modes, StabilizationCinematicExtended)
	}
	return NewSet(modes...)
}

// ClampExposure limits an exposure bias to the exposure range. Clamping is
// idempotent. NaN is returned unchanged; callers reject it.
func (c *DeviceCapabilities) ClampExposure(bias float64) float64 {
	if math.IsNaN(bias) {
		return bias
	}
	return c.ExposureRange.Clamp(bias)
}

// IsProcessingSupported reports whether stage can run at quality.
func (c *DeviceCapabilities) IsProcessingSupported(stage ProcessingStage, quality ProcessingQuality) bool {
	modes, ok := c.processing[stage]
	if !ok {
		return false
	}
	return modes.Contains(quality)
}

// IsFixedFocus reports whether the lens cannot change focus distance.
func (c *DeviceCapabilities) IsFixedFocus() bool {
	return c.MinFocusDistance <= 0
}

// MaxFocusDistance returns the closest focus distance in diopters, or 0 for
// a fixed-focus lens.
func (c *DeviceCapabilities) MaxFocusDistance() float64 {
	return c.MinFocusDistance
}

// FieldOfView returns the diagonal field of view in degrees for a focal length.
func (c *DeviceCapabilities) FieldOfView(focalLength float64) float64 {
	if focalLength <= 0 {
		return 0
	}
	diagonal := math.Hypot(c.SensorSize.Width, c.SensorSize.Height)
	return 2 * math.Atan2(diagonal, 2*focalLength) * 180 / math.Pi
}

// MaxFieldOfView returns the widest field of view across the focal lengths.
func (c *DeviceCapabilities) MaxFieldOfView() float64 {
	if len(c.focalLengths) == 0 {
		return 0
	}
	shortest := c.focalLengths[0]
	for _, f := range c.focalLengths[1:] {
		shortest = math.Min(shortest, f)
	}
	return c.FieldOfView(shortest)
}

// DeviceTypes classifies each focal length by its field of view.
func (c *DeviceCapabilities) DeviceTypes() []DeviceType {
	types := make([]DeviceType, 0, len(c.focalLengths))
	for _, f := range c.focalLengths {
		types = append(types, deviceTypeFor(c.FieldOfView(f)))
	}
	return NewSet(types...).Items()
}

func deviceTypeFor(fov float64) DeviceType {
	switch {
	case fov > 94:
		return DeviceTypeUltraWide
	case fov >= 60:
		return DeviceTypeWide
	default:
		return DeviceTypeTelephoto
	}
}
