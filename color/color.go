// Package color implements the RGB/HSL color model the game is played in:
// mixing, distance, vibrant target generation and the dartboard hit sampler.
package color

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
)

var ErrInvalidHex = errors.New("invalid-hex-color")

// Color is an RGB triple with channels in [0,255]. Values are never mutated
// in place; every operation returns a fresh Color.
type Color struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// ParseHex parses "#rrggbb" (case-insensitive, leading '#' required).
func ParseHex(s string) (Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return Color{}, ErrInvalidHex
	}
	var r, g, b int
	if _, err := fmt.Sscanf(s[1:], "%02x%02x%02x", &r, &g, &b); err != nil {
		return Color{}, ErrInvalidHex
	}
	return Color{R: r, G: g, B: b}, nil
}

func clampChannel(v int) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return v
}

// HSLToRGB converts h in [0,360), s and l in [0,100] to RGB, rounding each
// channel to the nearest integer.
func HSLToRGB(h, s, l float64) Color {
	h = math.Mod(math.Mod(h, 360)+360, 360) / 360
	s /= 100
	l /= 100

	if s == 0 {
		v := int(math.Round(l * 255))
		return Color{R: clampChannel(v), G: clampChannel(v), B: clampChannel(v)}
	}

	var q float64
	if l < 0.5 {
		q = l * (1 + s)
	} else {
		q = l + s - l*s
	}
	p := 2*l - q

	toChannel := func(t float64) int {
		if t < 0 {
			t++
		}
		if t > 1 {
			t--
		}
		var v float64
		switch {
		case t < 1.0/6.0:
			v = p + (q-p)*6*t
		case t < 1.0/2.0:
			v = q
		case t < 2.0/3.0:
			v = p + (q-p)*(2.0/3.0-t)*6
		default:
			v = p
		}
		return clampChannel(int(math.Round(v * 255)))
	}

	return Color{
		R: toChannel(h + 1.0/3.0),
		G: toChannel(h),
		B: toChannel(h - 1.0/3.0),
	}
}

// RGBToHSL is the inverse of HSLToRGB. The achromatic case (max == min)
// yields hue 0 and saturation 0.
func RGBToHSL(c Color) (h, s, l float64) {
	r := float64(c.R) / 255
	g := float64(c.G) / 255
	b := float64(c.B) / 255

	max := math.Max(r, math.Max(g, b))
	min := math.Min(r, math.Min(g, b))
	l = (max + min) / 2

	if max == min {
		return 0, 0, l * 100
	}

	d := max - min
	if l > 0.5 {
		s = d / (2 - max - min)
	} else {
		s = d / (max + min)
	}

	switch max {
	case r:
		h = (g - b) / d
		if g < b {
			h += 6
		}
	case g:
		h = (b-r)/d + 2
	default:
		h = (r-g)/d + 4
	}
	h *= 60

	return h, s * 100, l * 100
}

// Mix interpolates each channel linearly: result = a*(1-w) + b*w, rounded.
// The weight pulls a toward b, so direction matters.
func Mix(a, b Color, w float64) Color {
	mixChannel := func(x, y int) int {
		return clampChannel(int(math.Round(float64(x)*(1-w) + float64(y)*w)))
	}
	return Color{
		R: mixChannel(a.R, b.R),
		G: mixChannel(a.G, b.G),
		B: mixChannel(a.B, b.B),
	}
}

// Distance is the Euclidean distance in RGB space. Maximum is ~441.67
// (black vs white).
func Distance(a, b Color) float64 {
	dr := float64(a.R - b.R)
	dg := float64(a.G - b.G)
	db := float64(a.B - b.B)
	return math.Sqrt(dr*dr + dg*dg + db*db)
}

func IsClose(a, b Color, tolerance float64) bool {
	return Distance(a, b) <= tolerance
}

// RandomVibrant generates a target color that reads clearly on screen:
// any hue, saturation in [70,100], lightness in [40,60].
func RandomVibrant(rng *rand.Rand) Color {
	h := rng.Float64() * 360
	s := 70 + rng.Float64()*30
	l := 40 + rng.Float64()*20
	return HSLToRGB(h, s, l)
}
