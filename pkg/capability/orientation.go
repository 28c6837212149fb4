package capability

import "fmt"

// Orientation is a rotation in degrees, one of 0, 90, 180 or 270.
type Orientation int

const (
	OrientationPortrait           Orientation = 0
	OrientationLandscapeLeft      Orientation = 90
	OrientationPortraitUpsideDown Orientation = 180
	OrientationLandscapeRight     Orientation = 270
)

// OrientationFromDegrees snaps an arbitrary rotation to the nearest orientation.
func OrientationFromDegrees(degrees int) Orientation {
	d := ((degrees % 360) + 360) % 360
	switch {
	case d >= 45 && d < 135:
		return OrientationLandscapeLeft
	case d >= 135 && d < 225:
		return OrientationPortraitUpsideDown
	case d >= 225 && d < 315:
		return OrientationLandscapeRight
	default:
		return OrientationPortrait
	}
}

// Degrees returns the rotation in degrees.
func (o Orientation) Degrees() int {
	return int(o)
}

// SensorRelative converts a target output orientation into the rotation the
// sensor output must carry on this device. Front lenses are mirrored, so the
// target rotation is reversed before adding the sensor mount angle.
func (o Orientation) SensorRelative(caps *DeviceCapabilities) Orientation {
	rotation := o.Degrees()
	if caps.Position == PositionFront {
		rotation = -rotation
	}
	return OrientationFromDegrees(caps.SensorOrientation.Degrees() + rotation + 360)
}

// String returns the orientation name.
func (o Orientation) String() string {
	switch o {
	case OrientationPortrait:
		return "portrait"
	case OrientationLandscapeLeft:
		return "landscape-left"
	case OrientationPortraitUpsideDown:
		return "portrait-upside-down"
	case OrientationLandscapeRight:
		return "landscape-right"
	default:
		return fmt.Sprintf("%d°", int(o))
	}
}

// MarshalText encodes the orientation by name.
func (o Orientation) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

// UnmarshalText decodes an orientation name. Unknown names are an error.
func (o *Orientation) UnmarshalText(text []byte) error {
	switch string(text) {
	case "", "portrait":
		*o = OrientationPortrait
	case "landscape-left":
		*o = OrientationLandscapeLeft
	case "portrait-upside-down":
		*o = OrientationPortraitUpsideDown
	case "landscape-right":
		*o = OrientationLandscapeRight
	default:
		return fmt.Errorf("unknown orientation %q", text)
	}
	return nil
}
