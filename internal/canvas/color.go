package canvas

import (
	"math"

	"github.com/lucasb-eyer/go-colorful"
)

// Color is an RGB color with components in [0,1].
type Color = colorful.Color

var (
	Black = Color{R: 0, G: 0, B: 0}
	White = Color{R: 1, G: 1, B: 1}
)

// Hex parses "#rrggbb". Malformed input yields black.
func Hex(s string) Color {
	c, err := colorful.Hex(s)
	if err != nil {
		return Black
	}
	return c
}

// Mix blends a toward b by t in [0,1].
func Mix(a, b Color, t float64) Color {
	return a.BlendRgb(b, clamp01(t)).Clamped()
}

// Add returns a + b*alpha, clamped.
func Add(a, b Color, alpha float64) Color {
	return Color{
		R: math.Min(1, a.R+b.R*alpha),
		G: math.Min(1, a.G+b.G*alpha),
		B: math.Min(1, a.B+b.B*alpha),
	}
}

// Scale darkens or brightens c by f.
func Scale(c Color, f float64) Color {
	return Color{R: c.R * f, G: c.G * f, B: c.B * f}.Clamped()
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
