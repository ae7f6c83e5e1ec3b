package color

import "math"

// WheelRadius is the playable radius of the dartboard color wheel, in the
// same units the client reports hit positions in.
const WheelRadius = 3.0

// centerEpsilonRatio marks the white bullseye at the wheel center, as a
// fraction of the wheel radius.
const centerEpsilonRatio = 0.05

// Position is a landing point on the board plane, relative to the wheel
// center.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ResolveHitColor samples the color wheel at pos. The wheel is a polar
// field: angle maps to hue, distance from center to saturation, lightness
// is fixed at 50. Returns nil when the dart lands outside wheelRadius.
//
// The function is pure: the same position always yields the same color, so
// the server can re-derive a hit color without trusting the client.
func ResolveHitColor(pos Position, wheelRadius float64) *Color {
	d := math.Hypot(pos.X, pos.Y)
	if d > wheelRadius {
		return nil
	}
	if d <= wheelRadius*centerEpsilonRatio {
		return &Color{R: 255, G: 255, B: 255}
	}

	theta := math.Atan2(pos.Y, pos.X)
	hue := math.Mod(theta*180/math.Pi+360, 360)
	saturation := math.Min(d/wheelRadius, 1) * 100

	c := HSLToRGB(hue, saturation, 50)
	return &c
}
