// Package format enumerates the concrete formats a device can run and picks
// the one that best matches a weighted filter.
package format

import (
	"github.com/video-system/go-capture-negotiation/pkg/capability"
)

// Descriptor is one concrete (video size, photo size, fps) combination.
type Descriptor struct {
	VideoSize capability.Size     `json:"video_size"`
	PhotoSize capability.Size     `json:"photo_size"`
	FpsRange  capability.IntRange `json:"fps_range"`
	ISORange  capability.IntRange `json:"iso_range"`
	MaxZoom   float64             `json:"max_zoom"`

	SupportsVideoHdr     bool `json:"supports_video_hdr"`
	SupportsPhotoHdr     bool `json:"supports_photo_hdr"`
	SupportsDepthCapture bool `json:"supports_depth_capture"`

	StabilizationModes capability.Set[capability.StabilizationMode] `json:"stabilization_modes"`
	PixelFormats       capability.Set[capability.PixelFormat]       `json:"pixel_formats"`
	FieldOfView        float64                                      `json:"field_of_view"`
	AutoFocusSystem    capability.AutoFocusSystem                   `json:"auto_focus_system"`
}

// MinFps returns the lowest supported frame rate.
func (d Descriptor) MinFps() int {
	return d.FpsRange.Min
}

// MaxFps returns the highest supported frame rate.
func (d Descriptor) MaxFps() int {
	return d.FpsRange.Max
}

// SupportsStabilization reports whether the format advertises mode.
func (d Descriptor) SupportsStabilization(mode capability.StabilizationMode) bool {
	return d.StabilizationModes.Contains(mode)
}

// Equal reports whether two descriptors describe the same format.
func (d Descriptor) Equal(other Descriptor) bool {
	return compareDescriptors(d, other) == 0
}
