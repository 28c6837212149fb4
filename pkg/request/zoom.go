package request

import (
	"math"

	"github.com/video-system/go-capture-negotiation/pkg/capability"
)

// Rect is a region of the sensor active array, in pixels.
type Rect struct {
	Left   int `json:"left"`
	Top    int `json:"top"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Zoom is the platform form of a zoom factor: a ratio on platforms with
// ratio control, otherwise a crop region of the active array.
type Zoom struct {
	Factor float64 `json:"factor"`
	Ratio  float64 `json:"ratio,omitempty"`
	Crop   *Rect   `json:"crop,omitempty"`
}

// ZoomMapper turns a validated zoom factor into its platform form.
type ZoomMapper interface {
	Map(caps *capability.DeviceCapabilities, factor float64) Zoom
}

// ZoomMapperFunc adapts a function to ZoomMapper.
type ZoomMapperFunc func(caps *capability.DeviceCapabilities, factor float64) Zoom

// Map calls f.
func (f ZoomMapperFunc) Map(caps *capability.DeviceCapabilities, factor float64) Zoom {
	return f(caps, factor)
}

// DefaultZoomMapper uses the zoom ratio control when the device supports it
// and a centred crop of the active array otherwise.
type DefaultZoomMapper struct{}

// Map implements ZoomMapper.
func (DefaultZoomMapper) Map(caps *capability.DeviceCapabilities, factor float64) Zoom {
	if caps.SupportsZoomRatio {
		return Zoom{Factor: factor, Ratio: factor}
	}
	return Zoom{Factor: factor, Crop: cropRegion(caps.ActiveArraySize, factor)}
}

// cropRegion centres a region of size active/factor inside the active array.
// Factors below 1 cannot crop wider than the sensor and map to the full array.
func cropRegion(active capability.Size, factor float64) *Rect {
	if factor < 1 {
		factor = 1
	}
	w := int(math.Round(float64(active.Width) / factor))
	h := int(math.Round(float64(active.Height) / factor))
	return &Rect{
		Left:   (active.Width - w) / 2,
		Top:    (active.Height - h) / 2,
		Width:  w,
		Height: h,
	}
}

var _ ZoomMapper = DefaultZoomMapper{}
