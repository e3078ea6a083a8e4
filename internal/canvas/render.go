package canvas

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Flatten composites layers bottom to top onto an opaque black frame of
// the first layer's size. Fills over a glyph tint the glyph.
func Flatten(layers ...*Grid) *Grid {
	if len(layers) == 0 {
		return NewGrid(0, 0)
	}
	out := NewGrid(layers[0].cols, layers[0].rows)
	out.dpr = layers[0].dpr
	for i := range out.cells {
		out.cells[i].BG = Black
		out.cells[i].BGAlpha = 1
	}

	for _, layer := range layers {
		if layer == nil {
			continue
		}
		for row := 0; row < out.rows && row < layer.rows; row++ {
			for col := 0; col < out.cols && col < layer.cols; col++ {
				src := layer.Cell(col, row)
				dst := out.at(col, row)
				if src.BGAlpha > 0 {
					dst.BG = Mix(dst.BG, src.BG, src.BGAlpha)
					if dst.FGAlpha > 0 {
						dst.FG = Mix(dst.FG, src.BG, src.BGAlpha)
					}
				}
				if src.FGAlpha > 0 && src.Glyph != ' ' {
					dst.Glyph = src.Glyph
					dst.FG = Mix(dst.BG, src.FG, src.FGAlpha)
					dst.FGAlpha = 1
				}
			}
		}
	}
	return out
}

// Render draws a flattened grid as ANSI-styled text, one line per row.
// Runs of identically styled cells share one style render.
func Render(g *Grid) string {
	var b strings.Builder
	for row := 0; row < g.rows; row++ {
		var run strings.Builder
		var runStyle lipgloss.Style
		var runKey string

		flush := func() {
			if run.Len() > 0 {
				b.WriteString(runStyle.Render(run.String()))
				run.Reset()
			}
		}

		for col := 0; col < g.cols; col++ {
			cell := g.Cell(col, row)
			bg := cell.BG.Clamped().Hex()
			fg := bg
			ch := ' '
			if cell.FGAlpha > 0 && cell.Glyph != ' ' && cell.Glyph != 0 {
				fg = Mix(cell.BG, cell.FG, cell.FGAlpha).Hex()
				ch = cell.Glyph
			}
			key := bg + fg
			if key != runKey {
				flush()
				runKey = key
				runStyle = lipgloss.NewStyle().
					Background(lipgloss.Color(bg)).
					Foreground(lipgloss.Color(fg))
			}
			run.WriteRune(ch)
		}
		flush()

		if row < g.rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

// RenderPlain draws a grid as bare glyphs, for non-terminal output.
func RenderPlain(g *Grid) string {
	var b strings.Builder
	for row := 0; row < g.rows; row++ {
		for col := 0; col < g.cols; col++ {
			cell := g.Cell(col, row)
			if cell.FGAlpha > 0 && cell.Glyph != 0 {
				b.WriteRune(cell.Glyph)
			} else {
				b.WriteRune(' ')
			}
		}
		if row < g.rows-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}
