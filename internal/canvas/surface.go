// Package canvas provides the drawing surface the sky layers paint on: a
// terminal cell grid addressed in logical pixels, with per-cell alpha so
// layers can be stacked and flattened.
package canvas

// Surface is a 2D drawing target measured in logical pixels. Alpha values
// are in [0,1]; drawing outside the surface is clipped.
type Surface interface {
	// Size returns the logical width and height.
	Size() (w, h float64)
	// Resize sets the logical size and device pixel ratio.
	Resize(w, h, dpr float64)
	// Clear makes every cell fully transparent.
	Clear()

	FillVertical(from, to Color, alpha float64)
	FillRect(x, y, w, h float64, c Color, alpha float64)
	Circle(x, y, r float64, c Color, alpha float64)
	// Glow paints a radial falloff; additive brightens what is beneath.
	Glow(x, y, r float64, c Color, alpha float64, additive bool)
	Ellipse(x, y, rx, ry, rot float64, c Color, alpha float64)
	Line(x0, y0, x1, y1 float64, c Color, alpha float64)
	Glyph(x, y float64, ch rune, c Color, alpha float64)
	// Erase punches a transparent disk, like destination-out.
	Erase(x, y, r float64)
}
