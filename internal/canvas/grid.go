package canvas

import (
	"math"
)

const (
	// CellWidth and CellHeight are the logical pixel size of one terminal cell.
	CellWidth  = 8.0
	CellHeight = 16.0
)

// Cell is one terminal cell: a background fill and an optional glyph.
type Cell struct {
	BG      Color
	BGAlpha float64
	Glyph   rune
	FG      Color
	FGAlpha float64
}

func emptyCell() Cell {
	return Cell{Glyph: ' '}
}

// Grid is a Surface backed by terminal cells.
type Grid struct {
	cols, rows int
	dpr        float64
	cells      []Cell
}

// NewGrid creates a transparent grid of cols x rows cells.
func NewGrid(cols, rows int) *Grid {
	g := &Grid{dpr: 1}
	g.ResizeCells(cols, rows)
	return g
}

// Cols returns the width in cells.
func (g *Grid) Cols() int { return g.cols }

// Rows returns the height in cells.
func (g *Grid) Rows() int { return g.rows }

// DPR returns the device pixel ratio set by Resize.
func (g *Grid) DPR() float64 { return g.dpr }

// Cell returns the cell at col,row. Out of range yields an empty cell.
func (g *Grid) Cell(col, row int) Cell {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return emptyCell()
	}
	return g.cells[row*g.cols+col]
}

func (g *Grid) at(col, row int) *Cell {
	if col < 0 || row < 0 || col >= g.cols || row >= g.rows {
		return nil
	}
	return &g.cells[row*g.cols+col]
}

// ResizeCells reallocates the grid and clears it.
func (g *Grid) ResizeCells(cols, rows int) {
	if cols < 0 {
		cols = 0
	}
	if rows < 0 {
		rows = 0
	}
	g.cols, g.rows = cols, rows
	g.cells = make([]Cell, cols*rows)
	g.Clear()
}

// Size implements Surface.
func (g *Grid) Size() (w, h float64) {
	return float64(g.cols) * CellWidth, float64(g.rows) * CellHeight
}

// Resize implements Surface.
func (g *Grid) Resize(w, h, dpr float64) {
	if dpr <= 0 {
		dpr = 1
	}
	g.dpr = dpr
	g.ResizeCells(int(math.Ceil(w/CellWidth)), int(math.Ceil(h/CellHeight)))
}

// Clear implements Surface.
func (g *Grid) Clear() {
	for i := range g.cells {
		g.cells[i] = emptyCell()
	}
}

// center returns the logical pixel center of a cell.
func center(col, row int) (float64, float64) {
	return (float64(col) + 0.5) * CellWidth, (float64(row) + 0.5) * CellHeight
}

// cellOf returns the cell containing a logical point.
func cellOf(x, y float64) (int, int) {
	return int(math.Floor(x / CellWidth)), int(math.Floor(y / CellHeight))
}

// span returns the cell range covering [x0,x1] x [y0,y1], clipped.
func (g *Grid) span(x0, y0, x1, y1 float64) (c0, r0, c1, r1 int) {
	c0, r0 = cellOf(x0, y0)
	c1, r1 = cellOf(x1, y1)
	c0 = max(c0, 0)
	r0 = max(r0, 0)
	c1 = min(c1, g.cols-1)
	r1 = min(r1, g.rows-1)
	return
}

// over composites c at alpha onto the cell background.
func (cell *Cell) over(c Color, alpha float64) {
	alpha = clamp01(alpha)
	if alpha == 0 {
		return
	}
	outA := alpha + cell.BGAlpha*(1-alpha)
	if outA <= 0 {
		return
	}
	w := alpha / outA
	cell.BG = Mix(cell.BG, c, w)
	cell.BGAlpha = outA
	// A fill over a glyph tints the glyph too.
	if cell.FGAlpha > 0 {
		cell.FG = Mix(cell.FG, c, alpha)
	}
}

// FillVertical implements Surface.
func (g *Grid) FillVertical(from, to Color, alpha float64) {
	if g.rows == 0 {
		return
	}
	for row := 0; row < g.rows; row++ {
		t := 0.0
		if g.rows > 1 {
			t = float64(row) / float64(g.rows-1)
		}
		c := Mix(from, to, t)
		for col := 0; col < g.cols; col++ {
			g.at(col, row).over(c, alpha)
		}
	}
}

// FillRect implements Surface.
func (g *Grid) FillRect(x, y, w, h float64, c Color, alpha float64) {
	c0, r0, c1, r1 := g.span(x, y, x+w, y+h)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			cx, cy := center(col, row)
			if cx < x || cx > x+w || cy < y || cy > y+h {
				continue
			}
			g.at(col, row).over(c, alpha)
		}
	}
}

// Circle implements Surface. Sub-cell circles become glyphs.
func (g *Grid) Circle(x, y, r float64, c Color, alpha float64) {
	switch {
	case r < 0.6:
		g.Glyph(x, y, '·', c, alpha)
		return
	case r < 1.2:
		g.Glyph(x, y, '∙', c, alpha)
		return
	case r < 2:
		g.Glyph(x, y, '•', c, alpha)
		return
	case r < CellWidth/2:
		g.Glyph(x, y, '●', c, alpha)
		return
	}

	c0, r0, c1, r1 := g.span(x-r, y-r, x+r, y+r)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			cx, cy := center(col, row)
			d := math.Hypot(cx-x, cy-y)
			// Soft edge over half a cell.
			cover := clamp01((r - d) / (CellWidth / 2))
			if cover > 0 {
				g.at(col, row).over(c, alpha*cover)
			}
		}
	}
}

// Glow implements Surface.
func (g *Grid) Glow(x, y, r float64, c Color, alpha float64, additive bool) {
	if r <= 0 {
		return
	}
	c0, r0, c1, r1 := g.span(x-r, y-r, x+r, y+r)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			cx, cy := center(col, row)
			d := math.Hypot(cx-x, cy-y) / r
			if d >= 1 {
				continue
			}
			a := alpha * (1 - d) * (1 - d)
			cell := g.at(col, row)
			if !additive {
				cell.over(c, a)
				continue
			}
			if cell.BGAlpha == 0 {
				cell.BG = c
				cell.BGAlpha = clamp01(a)
			} else {
				cell.BG = Add(cell.BG, c, a)
				cell.BGAlpha = clamp01(cell.BGAlpha + a*(1-cell.BGAlpha))
			}
			if cell.FGAlpha > 0 {
				cell.FG = Add(cell.FG, c, a)
			}
		}
	}
}

// Ellipse implements Surface. rot is in radians.
func (g *Grid) Ellipse(x, y, rx, ry, rot float64, c Color, alpha float64) {
	if rx <= 0 || ry <= 0 {
		return
	}
	ext := math.Max(rx, ry)
	cos, sin := math.Cos(rot), math.Sin(rot)
	c0, r0, c1, r1 := g.span(x-ext, y-ext, x+ext, y+ext)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			cx, cy := center(col, row)
			dx, dy := cx-x, cy-y
			u := dx*cos + dy*sin
			v := -dx*sin + dy*cos
			d := math.Sqrt((u/rx)*(u/rx) + (v/ry)*(v/ry))
			if d >= 1 {
				continue
			}
			g.at(col, row).over(c, alpha*(1-d))
		}
	}
}

// Line implements Surface. Each cell crossed gets a slope glyph.
func (g *Grid) Line(x0, y0, x1, y1 float64, c Color, alpha float64) {
	dx, dy := x1-x0, y1-y0
	ch := slopeGlyph(dx/CellWidth, dy/CellHeight)
	length := math.Hypot(dx, dy)
	steps := int(math.Ceil(length/(CellWidth/2))) + 1
	lastCol, lastRow := math.MinInt, math.MinInt
	for i := 0; i < steps; i++ {
		t := 0.0
		if steps > 1 {
			t = float64(i) / float64(steps-1)
		}
		col, row := cellOf(x0+dx*t, y0+dy*t)
		if col == lastCol && row == lastRow {
			continue
		}
		lastCol, lastRow = col, row
		g.setGlyph(col, row, ch, c, alpha)
	}
}

func slopeGlyph(dx, dy float64) rune {
	adx, ady := math.Abs(dx), math.Abs(dy)
	switch {
	case adx == 0 && ady == 0:
		return '·'
	case ady <= adx*0.4:
		return '─'
	case adx <= ady*0.4:
		return '│'
	case (dx > 0) == (dy > 0):
		return '╲'
	default:
		return '╱'
	}
}

// Glyph implements Surface. A fainter glyph never replaces a brighter one.
func (g *Grid) Glyph(x, y float64, ch rune, c Color, alpha float64) {
	col, row := cellOf(x, y)
	g.setGlyph(col, row, ch, c, alpha)
}

func (g *Grid) setGlyph(col, row int, ch rune, c Color, alpha float64) {
	cell := g.at(col, row)
	if cell == nil || alpha <= 0 {
		return
	}
	if cell.FGAlpha > 0 && alpha < cell.FGAlpha {
		return
	}
	cell.Glyph = ch
	cell.FG = c
	cell.FGAlpha = clamp01(alpha)
}

// Erase implements Surface.
func (g *Grid) Erase(x, y, r float64) {
	c0, r0, c1, r1 := g.span(x-r, y-r, x+r, y+r)
	for row := r0; row <= r1; row++ {
		for col := c0; col <= c1; col++ {
			cx, cy := center(col, row)
			if math.Hypot(cx-x, cy-y) <= r {
				*g.at(col, row) = emptyCell()
			}
		}
	}
}
