package grid

import (
	"github.com/vovakirdan/signal-archive/internal/core"
	"github.com/vovakirdan/signal-archive/internal/symbols"
)

// CellWidth is the number of screen columns one tile occupies.
const CellWidth = 3

// RenderSize returns the screen footprint of the grid including its frame.
func (g *Grid) RenderSize() (w, h int) {
	return FrameSize(g.size)
}

// FrameSize returns the screen footprint of a framed grid of the given side.
func FrameSize(size int) (w, h int) {
	return size*CellWidth + 2, size + 2
}

// Render draws the framed grid at (x, y). The tile under cursor is wrapped in
// parentheses, the selected tile in brackets.
func (g *Grid) Render(dst *core.Screen, x, y, cursor int) {
	RenderTiles(dst, x, y, g.size, g.tiles, g.selected, cursor, g.catalog)
}

// RenderTiles draws a framed board from a tile copy, as held by a front end
// that only sees events.
func RenderTiles(dst *core.Screen, x, y, size int, tiles []Tile, selected, cursor int, catalog *symbols.Catalog) {
	w, h := FrameSize(size)
	dst.DrawBox(core.NewRect(x, y, w, h), core.ColorGray)

	for i, t := range tiles {
		if size <= 0 || i >= size*size {
			break
		}
		cx := x + 1 + (i%size)*CellWidth
		cy := y + 1 + i/size

		glyph, color := '?', core.ColorDefault
		if s, ok := catalog.Get(t.Color); ok {
			glyph, color = s.Glyph, s.Color
		}

		left, right := ' ', ' '
		switch {
		case i == selected && i == cursor:
			left, right = '{', '}'
		case i == selected:
			left, right = '[', ']'
		case i == cursor:
			left, right = '(', ')'
		}

		dst.SetCell(cx, cy, left, core.ColorBrightWhite)
		dst.SetCell(cx+1, cy, glyph, color)
		dst.SetCell(cx+2, cy, right, core.ColorBrightWhite)
	}
}
