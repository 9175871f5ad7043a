// Package grid implements the match-3 board: a fixed N×N matrix of tiles with
// a single selection, orthogonal swaps, run detection and cascade resolution.
//
// Tiles never move between slots. Gravity is simulated by copying color
// identities downward and refilling the top of a column from the catalog.
package grid

import (
	"fmt"

	"github.com/vovakirdan/signal-archive/internal/core"
	"github.com/vovakirdan/signal-archive/internal/symbols"
)

// NoSelection marks an empty selection.
const NoSelection = -1

// Tile is one fixed slot of the grid.
type Tile struct {
	Index int
	Color symbols.ID
}

// Outcome describes what a Select call did.
type Outcome int

const (
	SelectionIgnored  Outcome = iota // Index out of range, nothing changed
	SelectionSet                     // Empty -> Selected(i)
	SelectionCleared                 // Same index selected again -> Empty
	SelectionReplaced                // Non-adjacent index replaced the selection
	SelectionSwapped                 // Adjacent index: tiles swapped, selection cleared
)

// String returns a short name for logs.
func (o Outcome) String() string {
	switch o {
	case SelectionIgnored:
		return "ignored"
	case SelectionSet:
		return "selected"
	case SelectionCleared:
		return "cleared"
	case SelectionReplaced:
		return "replaced"
	case SelectionSwapped:
		return "swapped"
	default:
		return "unknown"
	}
}

// Move reports the result of a Select call. First and Second are the indices
// involved; Second is NoSelection unless the outcome involved two tiles.
type Move struct {
	Outcome Outcome
	First   int
	Second  int
}

// Grid is the match-3 board. Not safe for concurrent use.
type Grid struct {
	size     int
	tiles    []Tile
	selected int
	catalog  *symbols.Catalog
	rng      core.Rand
}

// New creates a size×size grid filled from the catalog's unlocked symbols.
// The fill may contain runs; call Settle to stabilize it without scoring.
func New(size int, catalog *symbols.Catalog, rng core.Rand) *Grid {
	if size < 3 {
		size = 3
	}
	g := &Grid{
		size:     size,
		tiles:    make([]Tile, size*size),
		selected: NoSelection,
		catalog:  catalog,
		rng:      rng,
	}
	g.Fill()
	return g
}

// FromColors builds a grid with an explicit layout in row-major order.
// The layout length must be a perfect square of at least 9 cells.
func FromColors(colors []symbols.ID, catalog *symbols.Catalog, rng core.Rand) (*Grid, error) {
	size := 0
	for size*size < len(colors) {
		size++
	}
	if size < 3 || size*size != len(colors) {
		return nil, fmt.Errorf("grid: layout of %d cells is not a square of side >= 3", len(colors))
	}
	g := &Grid{
		size:     size,
		tiles:    make([]Tile, len(colors)),
		selected: NoSelection,
		catalog:  catalog,
		rng:      rng,
	}
	for i, c := range colors {
		g.tiles[i] = Tile{Index: i, Color: c}
	}
	return g, nil
}

// Fill redraws every tile uniformly from the unlocked symbols and clears the
// selection.
func (g *Grid) Fill() {
	for i := range g.tiles {
		g.tiles[i] = Tile{Index: i, Color: g.catalog.Draw(g.rng)}
	}
	g.selected = NoSelection
}

// Size returns the side length of the grid.
func (g *Grid) Size() int {
	return g.size
}

// Len returns the number of tiles.
func (g *Grid) Len() int {
	return len(g.tiles)
}

// InBounds reports whether i is a valid tile index.
func (g *Grid) InBounds(i int) bool {
	return i >= 0 && i < len(g.tiles)
}

// Tile returns the tile at index i. Out-of-range indices return a zero Tile
// and false.
func (g *Grid) Tile(i int) (Tile, bool) {
	if !g.InBounds(i) {
		return Tile{}, false
	}
	return g.tiles[i], true
}

// Tiles returns a copy of all tiles in index order.
func (g *Grid) Tiles() []Tile {
	out := make([]Tile, len(g.tiles))
	copy(out, g.tiles)
	return out
}

// Colors returns the tile colors in index order.
func (g *Grid) Colors() []symbols.ID {
	out := make([]symbols.ID, len(g.tiles))
	for i, t := range g.tiles {
		out[i] = t.Color
	}
	return out
}

// Selected returns the selected index, or NoSelection.
func (g *Grid) Selected() int {
	return g.selected
}

// RowCol converts an index to its row and column.
func (g *Grid) RowCol(i int) (row, col int) {
	return i / g.size, i % g.size
}

// IsAdjacent reports whether i and j are orthogonal neighbours: same row with
// a column delta of one, or same column with a row delta of one.
func (g *Grid) IsAdjacent(i, j int) bool {
	if !g.InBounds(i) || !g.InBounds(j) {
		return false
	}
	r1, c1 := g.RowCol(i)
	r2, c2 := g.RowCol(j)
	return (r1 == r2 && core.Abs(c1-c2) == 1) || (c1 == c2 && core.Abs(r1-r2) == 1)
}

// Select advances the selection state machine:
//
//	Empty       -> Selected(i)
//	Selected(i) -> Empty        (same index)
//	Selected(i) -> Selected(j)  (non-adjacent j)
//	Selected(i) -> Empty        (adjacent j, tiles swapped)
//
// Out-of-range indices are ignored.
func (g *Grid) Select(i int) Move {
	if !g.InBounds(i) {
		return Move{Outcome: SelectionIgnored, First: i, Second: NoSelection}
	}

	prev := g.selected
	switch {
	case prev == NoSelection:
		g.selected = i
		return Move{Outcome: SelectionSet, First: i, Second: NoSelection}
	case prev == i:
		g.selected = NoSelection
		return Move{Outcome: SelectionCleared, First: i, Second: NoSelection}
	case g.IsAdjacent(prev, i):
		g.Swap(prev, i)
		return Move{Outcome: SelectionSwapped, First: prev, Second: i}
	default:
		g.selected = i
		return Move{Outcome: SelectionReplaced, First: prev, Second: i}
	}
}

// ClearSelection drops any selection.
func (g *Grid) ClearSelection() {
	g.selected = NoSelection
}

// Swap exchanges the colors of two adjacent tiles and clears the selection.
// The swap happens whether or not it creates a match. Non-adjacent or
// out-of-range pairs are rejected and leave the grid untouched.
func (g *Grid) Swap(i, j int) bool {
	if !g.IsAdjacent(i, j) {
		return false
	}
	g.tiles[i].Color, g.tiles[j].Color = g.tiles[j].Color, g.tiles[i].Color
	g.selected = NoSelection
	return true
}
