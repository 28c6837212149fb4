package format

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"github.com/video-system/go-capture-negotiation/pkg/camerror"
	"github.com/video-system/go-capture-negotiation/pkg/capability"
)

// Candidate is a scored catalog entry. Lower scores match better.
type Candidate struct {
	Descriptor Descriptor `json:"format"`
	Score      float64    `json:"score"`
	Index      int        `json:"index"`
}

// Select returns the catalog entry with the lowest weighted distance to filter.
// It is a pure function of its inputs and does not depend on catalog order
// for equal multisets.
func Select(catalog []Descriptor, filter Filter) (Descriptor, error) {
	ranked, err := Rank(catalog, filter)
	if err != nil {
		return Descriptor{}, err
	}
	return ranked[0].Descriptor, nil
}

// Rank scores every catalog entry and returns them best first.
func Rank(catalog []Descriptor, filter Filter) ([]Candidate, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	if len(catalog) == 0 {
		return nil, camerror.NoFormats("")
	}

	bounds := catalogBounds(catalog)
	ranked := make([]Candidate, len(catalog))
	for i, d := range catalog {
		var score float64
		for _, e := range filter {
			score += e.Weight * distance(e, d, bounds)
		}
		ranked[i] = Candidate{Descriptor: d, Score: score, Index: i}
	}

	slices.SortStableFunc(ranked, func(a, b Candidate) int {
		if c := cmp.Compare(a.Score, b.Score); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Descriptor.VideoSize.Pixels(), a.Descriptor.VideoSize.Pixels()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Descriptor.PhotoSize.Pixels(), a.Descriptor.PhotoSize.Pixels()); c != 0 {
			return c
		}
		if c := cmp.Compare(b.Descriptor.MaxFps(), a.Descriptor.MaxFps()); c != 0 {
			return c
		}
		if c := compareDescriptors(a.Descriptor, b.Descriptor); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
	return ranked, nil
}

type bounds struct {
	maxVideoPixels int
	maxPhotoPixels int
	maxFps         int
}

func catalogBounds(catalog []Descriptor) bounds {
	var b bounds
	for _, d := range catalog {
		b.maxVideoPixels = max(b.maxVideoPixels, d.VideoSize.Pixels())
		b.maxPhotoPixels = max(b.maxPhotoPixels, d.PhotoSize.Pixels())
		b.maxFps = max(b.maxFps, d.MaxFps())
	}
	return b
}

// distance returns the normalized distance in [0, 1] between d and e's target.
func distance(e Entry, d Descriptor, b bounds) float64 {
	switch e.Criterion {
	case CriterionVideoResolution:
		if e.Max {
			return 1 - ratio(d.VideoSize.Pixels(), b.maxVideoPixels)
		}
		return relative(float64(d.VideoSize.Pixels()), float64(e.Size.Pixels()))
	case CriterionPhotoResolution:
		if e.Max {
			return 1 - ratio(d.PhotoSize.Pixels(), b.maxPhotoPixels)
		}
		return relative(float64(d.PhotoSize.Pixels()), float64(e.Size.Pixels()))
	case CriterionVideoAspectRatio:
		return relative(d.VideoSize.AspectRatio(), e.Value)
	case CriterionPhotoAspectRatio:
		return relative(d.PhotoSize.AspectRatio(), e.Value)
	case CriterionFps:
		if e.Max {
			return 1 - ratio(d.MaxFps(), b.maxFps)
		}
		if float64(d.MaxFps()) >= e.Value {
			return 0
		}
		return (e.Value - float64(d.MaxFps())) / e.Value
	case CriterionVideoHdr:
		return mismatch(d.SupportsVideoHdr != e.Enabled)
	case CriterionPhotoHdr:
		return mismatch(d.SupportsPhotoHdr != e.Enabled)
	case CriterionStabilization:
		mode, _ := capability.ParseStabilizationMode(e.Mode)
		return mismatch(!d.SupportsStabilization(mode))
	case CriterionISO:
		iso := e.Value
		lo, hi := float64(d.ISORange.Min), float64(d.ISORange.Max)
		switch {
		case iso < lo:
			return relative(lo, iso)
		case iso > hi:
			return relative(hi, iso)
		}
		return 0
	case CriterionAutoFocusSystem:
		return mismatch(d.AutoFocusSystem != capability.AutoFocusSystem(e.Mode))
	case CriterionPixelFormat:
		return mismatch(!d.PixelFormats.Contains(capability.PixelFormat(e.Mode)))
	}
	return 0
}

// relative returns |a-b| / max(a, b) for non-negative a and b.
func relative(a, b float64) float64 {
	m := math.Max(a, b)
	if m <= 0 {
		return 0
	}
	return math.Abs(a-b) / m
}

func ratio(v, limit int) float64 {
	if limit <= 0 {
		return 0
	}
	return float64(v) / float64(limit)
}

func mismatch(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// compareDescriptors is a total order over descriptor contents.
func compareDescriptors(a, b Descriptor) int {
	return cmp.Or(
		cmp.Compare(a.VideoSize.Width, b.VideoSize.Width),
		cmp.Compare(a.VideoSize.Height, b.VideoSize.Height),
		cmp.Compare(a.PhotoSize.Width, b.PhotoSize.Width),
		cmp.Compare(a.PhotoSize.Height, b.PhotoSize.Height),
		cmp.Compare(a.FpsRange.Min, b.FpsRange.Min),
		cmp.Compare(a.FpsRange.Max, b.FpsRange.Max),
		cmp.Compare(a.ISORange.Min, b.ISORange.Min),
		cmp.Compare(a.ISORange.Max, b.ISORange.Max),
		cmp.Compare(a.MaxZoom, b.MaxZoom),
		compareBool(a.SupportsVideoHdr, b.SupportsVideoHdr),
		compareBool(a.SupportsPhotoHdr, b.SupportsPhotoHdr),
		compareBool(a.SupportsDepthCapture, b.SupportsDepthCapture),
		cmp.Compare(a.FieldOfView, b.FieldOfView),
		cmp.Compare(a.AutoFocusSystem, b.AutoFocusSystem),
		cmp.Compare(joinSet(a.StabilizationModes), joinSet(b.StabilizationModes)),
		cmp.Compare(joinSet(a.PixelFormats), joinSet(b.PixelFormats)),
	)
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}

func joinSet[T ~string](s capability.Set[T]) string {
	items := s.Items()
	parts := make([]string, len(items))
	for i, item := range items {
		parts[i] = string(item)
	}
	return strings.Join(parts, ",")
}
