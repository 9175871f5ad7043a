package grid

import (
	"sort"

	"github.com/vovakirdan/signal-archive/internal/symbols"
)

// MinRun is the shortest run of equal colors that counts as a match.
const MinRun = 3

// ComboSize is the combined match size from which bonus fragments are granted.
const ComboSize = 5

// MaxCascadePasses bounds a single Cascade call. Reaching it means the random
// source keeps refilling matches; the board is then repainted with a layout
// that has no runs.
const MaxCascadePasses = 1000

// Score is the value of one resolve pass.
type Score struct {
	Size      int     // Distinct tiles in the combined match set
	Matches   int     // Added to total matches
	Fragments int     // Added to fragments, bonus included
	Bonus     int     // Bonus fragments included in Fragments
	Combo     bool    // Size reached ComboSize
	DocChance float64 // Probability that the pass spawns a document
}

// ScoreMatch values a combined match set of the given size.
// Every matched tile is worth one match and one fragment; combos of five or
// more add floor(size/2) bonus fragments. The document chance is
// 0.3 + 0.1·size, capped at 1.
func ScoreMatch(size int) Score {
	if size < MinRun {
		return Score{Size: size}
	}
	s := Score{
		Size:      size,
		Matches:   size,
		Fragments: size,
		DocChance: 0.3 + 0.1*float64(size),
	}
	if size >= ComboSize {
		s.Combo = true
		s.Bonus = size / 2
		s.Fragments += s.Bonus
	}
	if s.DocChance > 1 {
		s.DocChance = 1
	}
	return s
}

// Pass is one detect-and-resolve step of a cascade.
type Pass struct {
	Matched []int
	Score   Score
}

// DetectMatches returns the sorted, deduplicated indices of every tile that
// sits in a window of three equal colors, scanning each row and each column.
// It does not modify the grid.
func (g *Grid) DetectMatches() []int {
	hit := make(map[int]struct{})
	n := g.size

	for row := 0; row < n; row++ {
		for col := 0; col+MinRun <= n; col++ {
			i := row*n + col
			c := g.tiles[i].Color
			if g.tiles[i+1].Color == c && g.tiles[i+2].Color == c {
				hit[i], hit[i+1], hit[i+2] = struct{}{}, struct{}{}, struct{}{}
			}
		}
	}

	for col := 0; col < n; col++ {
		for row := 0; row+MinRun <= n; row++ {
			i := row*n + col
			c := g.tiles[i].Color
			if g.tiles[i+n].Color == c && g.tiles[i+2*n].Color == c {
				hit[i], hit[i+n], hit[i+2*n] = struct{}{}, struct{}{}, struct{}{}
			}
		}
	}

	if len(hit) == 0 {
		return nil
	}
	out := make([]int, 0, len(hit))
	for i := range hit {
		out = append(out, i)
	}
	sort.Ints(out)
	return out
}

// Resolve removes the matched tiles: for each one, every tile above it in the
// column shifts down a slot and the top slot of the column is refilled from
// the unlocked symbols. Indices are processed top to bottom so a run inside
// one column collapses correctly. Out-of-range indices are skipped.
//
// Resolve does a single pass; Cascade repeats it to a fixed point.
func (g *Grid) Resolve(matched []int) {
	order := make([]int, 0, len(matched))
	seen := make(map[int]bool, len(matched))
	for _, i := range matched {
		if g.InBounds(i) && !seen[i] {
			seen[i] = true
			order = append(order, i)
		}
	}
	sort.Ints(order)

	for _, idx := range order {
		row, col := g.RowCol(idx)
		for r := row; r > 0; r-- {
			g.tiles[r*g.size+col].Color = g.tiles[(r-1)*g.size+col].Color
		}
		g.tiles[col].Color = g.catalog.Draw(g.rng)
	}
}

// Step runs one detect-and-resolve pass. It returns false when the board was
// already stable.
func (g *Grid) Step() (Pass, bool) {
	matched := g.DetectMatches()
	if len(matched) == 0 {
		return Pass{}, false
	}
	p := Pass{Matched: matched, Score: ScoreMatch(len(matched))}
	g.Resolve(matched)
	return p, true
}

// Cascade repeats Step until the board holds no run of three, calling onPass
// (if non-nil) after each resolved pass. It returns the passes in order.
func (g *Grid) Cascade(onPass func(Pass)) []Pass {
	var passes []Pass
	for len(passes) < MaxCascadePasses {
		p, ok := g.Step()
		if !ok {
			return passes
		}
		passes = append(passes, p)
		if onPass != nil {
			onPass(p)
		}
	}
	g.repaint()
	return passes
}

// Settle stabilizes the board without reporting scores. Used after a fresh
// fill so the player never starts on a board with free matches.
func (g *Grid) Settle() {
	g.Cascade(nil)
}

// IsStable reports whether the board has no run of three.
func (g *Grid) IsStable() bool {
	return len(g.DetectMatches()) == 0
}

// repaint deterministically rewrites the board so no run of three exists.
// Each cell starts from a checkerboard offset into the unlocked symbols and
// advances until it no longer completes a run with the two cells to its left
// or above it. With two symbols the checkerboard itself is run-free.
func (g *Grid) repaint() {
	pool := g.catalog.Unlocked()
	for i := range g.tiles {
		row, col := g.RowCol(i)
		start := (row + col) % len(pool)
		for k := 0; k < len(pool); k++ {
			c := pool[(start+k)%len(pool)].ID
			if !g.completesRun(row, col, c) {
				g.tiles[i].Color = c
				break
			}
			g.tiles[i].Color = c
		}
	}
	g.selected = NoSelection
}

func (g *Grid) completesRun(row, col int, c symbols.ID) bool {
	n := g.size
	if col >= 2 && g.tiles[row*n+col-1].Color == c && g.tiles[row*n+col-2].Color == c {
		return true
	}
	if row >= 2 && g.tiles[(row-1)*n+col].Color == c && g.tiles[(row-2)*n+col].Color == c {
		return true
	}
	return false
}
