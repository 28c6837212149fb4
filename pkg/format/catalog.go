package format

import (
	"github.com/video-system/go-capture-negotiation/pkg/capability"
)

// Enumerate cross-products the device's distinct video sizes with its
// distinct photo sizes. Streams that cannot reach 1 fps are skipped and
// duplicate video sizes keep their fastest frame duration. The result
// follows reported video order, then reported photo order.
func Enumerate(caps *capability.DeviceCapabilities) []Descriptor {
	streams := distinctStreams(caps.VideoStreams())
	photos := capability.NewSet(caps.PhotoSizes()...).Items()

	deviceModes := caps.StabilizationModes()
	fov := caps.MaxFieldOfView()

	catalog := make([]Descriptor, 0, len(streams)*len(photos))
	for _, stream := range streams {
		maxFps := stream.MaxFps()
		if maxFps < 1 {
			continue
		}
		modes := deviceModes
		if stream.HasStabilizationModes() {
			modes = stream.StabilizationModes
		}
		for _, photo := range photos {
			catalog = append(catalog, Descriptor{
				VideoSize:            stream.Size,
				PhotoSize:            photo,
				FpsRange:             capability.IntRange{Min: 1, Max: maxFps},
				ISORange:             caps.ISORange,
				MaxZoom:              caps.ZoomRange.Max,
				SupportsVideoHdr:     caps.HasVideoHdr(),
				SupportsPhotoHdr:     caps.SupportsPhotoHdr,
				SupportsDepthCapture: caps.SupportsDepthCapture,
				StabilizationModes:   modes,
				PixelFormats:         caps.PixelFormats,
				FieldOfView:          fov,
				AutoFocusSystem:      caps.AutoFocusSystem,
			})
		}
	}
	return catalog
}

func distinctStreams(streams []capability.VideoStream) []capability.VideoStream {
	out := make([]capability.VideoStream, 0, len(streams))
	index := make(map[capability.Size]int, len(streams))
	for _, s := range streams {
		i, ok := index[s.Size]
		if !ok {
			index[s.Size] = len(out)
			out = append(out, s)
			continue
		}
		if s.MaxFps() > out[i].MaxFps() {
			out[i] = keepStabilization(s, out[i])
		}
	}
	return out
}

// keepStabilization carries per-format stabilization over from prev when the
// faster duplicate did not report its own.
func keepStabilization(next, prev capability.VideoStream) capability.VideoStream {
	if next.HasStabilizationModes() || !prev.HasStabilizationModes() {
		return next
	}
	prev.MinFrameDuration = next.MinFrameDuration
	prev.MaxEncoderFps = next.MaxEncoderFps
	return prev
}
