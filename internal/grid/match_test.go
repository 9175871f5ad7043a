package grid

import (
	"reflect"
	"testing"

	"github.com/vovakirdan/signal-archive/internal/core"
	"github.com/vovakirdan/signal-archive/internal/symbols"
)

func TestScoreMatch(t *testing.T) {
	tests := []struct {
		size      int
		matches   int
		fragments int
		bonus     int
		combo     bool
		chance    float64
	}{
		{2, 0, 0, 0, false, 0},
		{3, 3, 3, 0, false, 0.6},
		{4, 4, 4, 0, false, 0.7},
		{5, 5, 7, 2, true, 0.8},
		{6, 6, 9, 3, true, 0.9},
		{9, 9, 13, 4, true, 1},
	}

	for _, tc := range tests {
		s := ScoreMatch(tc.size)
		if s.Matches != tc.matches || s.Fragments != tc.fragments || s.Bonus != tc.bonus || s.Combo != tc.combo {
			t.Errorf("ScoreMatch(%d) = %+v", tc.size, s)
		}
		if diff := s.DocChance - tc.chance; diff > 1e-9 || diff < -1e-9 {
			t.Errorf("ScoreMatch(%d).DocChance = %v, expected %v", tc.size, s.DocChance, tc.chance)
		}
	}
}

func TestDetectMatches(t *testing.T) {
	tests := []struct {
		name     string
		rows     []string
		expected []int
	}{
		{
			name:     "stable board",
			rows:     []string{"rgby", "gbyr", "byrg", "yrgb"},
			expected: nil,
		},
		{
			name:     "horizontal run",
			rows:     []string{"rrrg", "gbyb", "byrg", "yrgb"},
			expected: []int{0, 1, 2},
		},
		{
			name:     "vertical run",
			rows:     []string{"rgby", "rbyg", "rygb", "gbry"},
			expected: []int{0, 4, 8},
		},
		{
			name:     "run of four",
			rows:     []string{"gbyr", "yyyy", "rgbg", "bgrb"},
			expected: []int{4, 5, 6, 7},
		},
		{
			name:     "crossing runs share a tile once",
			rows:     []string{"grgb", "rrry", "bryg", "ybgb"},
			expected: []int{1, 4, 5, 6, 9},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			g := layout(t, nil, tc.rows...)
			got := g.DetectMatches()
			if !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("DetectMatches() = %v, expected %v", got, tc.expected)
			}
		})
	}
}

func TestDetectMatchesDoesNotMutate(t *testing.T) {
	g := layout(t, nil, "rrrg", "gbyb", "byrg", "yrgb")
	before := g.Colors()
	g.DetectMatches()
	if !reflect.DeepEqual(before, g.Colors()) {
		t.Error("DetectMatches modified the grid")
	}
}

func TestResolveHorizontalRun(t *testing.T) {
	// Refills draw red, green, blue in that order.
	g := layout(t, &seqRand{ints: []int{0, 1, 2}},
		"rgby",
		"gbyr",
		"yyyg",
		"brgb",
	)
	g.Resolve([]int{10, 8, 9, 9})

	expected := []symbols.ID{
		"red", "green", "blue", "yellow",
		"red", "green", "blue", "red",
		"green", "blue", "yellow", "green",
		"blue", "red", "green", "blue",
	}
	if got := g.Colors(); !reflect.DeepEqual(got, expected) {
		t.Errorf("Colors() = %v\nexpected %v", got, expected)
	}
}

func TestResolveVerticalRunCollapses(t *testing.T) {
	// Column 0 is yellow over three reds; refills draw green, blue, yellow.
	g := layout(t, &seqRand{ints: []int{1, 2, 3}},
		"ygbr",
		"rbyg",
		"rygb",
		"rgby",
	)
	g.Resolve([]int{12, 4, 8})

	col := []symbols.ID{}
	for row := 0; row < 4; row++ {
		tile, _ := g.Tile(row * 4)
		col = append(col, tile.Color)
	}
	expected := []symbols.ID{"yellow", "blue", "green", "yellow"}
	if !reflect.DeepEqual(col, expected) {
		t.Errorf("column 0 = %v, expected %v", col, expected)
	}

	// Other columns are untouched
	if tile, _ := g.Tile(1); tile.Color != "green" {
		t.Errorf("tile 1 = %s, expected green", tile.Color)
	}
}

func TestResolveSkipsOutOfRange(t *testing.T) {
	g := layout(t, nil, "rgby", "gbyr", "byrg", "yrgb")
	before := g.Colors()
	g.Resolve([]int{-1, 16, 100})
	if !reflect.DeepEqual(before, g.Colors()) {
		t.Error("out-of-range indices changed the grid")
	}
}

func TestStepOnStableBoard(t *testing.T) {
	g := layout(t, nil, "rgby", "gbyr", "byrg", "yrgb")
	if _, ok := g.Step(); ok {
		t.Error("Step on a stable board should report false")
	}
}

func TestCascadeReachesFixedPoint(t *testing.T) {
	for seed := int64(1); seed <= 50; seed++ {
		g := New(8, symbols.NewDefaultCatalog(), core.NewRand(seed))

		var seen int
		passes := g.Cascade(func(Pass) { seen++ })

		if !g.IsStable() {
			t.Fatalf("seed %d: board not stable after cascade", seed)
		}
		if seen != len(passes) {
			t.Fatalf("seed %d: callback ran %d times for %d passes", seed, seen, len(passes))
		}
		for _, p := range passes {
			if p.Score.Size != len(p.Matched) || p.Score.Size < MinRun {
				t.Fatalf("seed %d: pass %+v has inconsistent score", seed, p)
			}
		}
		if hasRun(g) {
			t.Fatalf("seed %d: brute-force check found a run", seed)
		}
	}
}

func TestCascadeRepaintsOnDegenerateSource(t *testing.T) {
	// A source that always draws the first symbol refills every match with
	// another match, so the pass limit is reached and the board is repainted.
	g := layout(t, &seqRand{ints: []int{0}},
		"rrrr",
		"rrrr",
		"rrrr",
		"rrrr",
	)
	passes := g.Cascade(nil)

	if len(passes) != MaxCascadePasses {
		t.Errorf("passes = %d, expected %d", len(passes), MaxCascadePasses)
	}
	if !g.IsStable() {
		t.Error("board should be stable after repaint")
	}
	for _, tile := range g.Tiles() {
		if !symbols.NewDefaultCatalog().IsUnlocked(tile.Color) {
			t.Errorf("repaint used locked color %s", tile.Color)
		}
	}
}

func TestSettleStabilizesBoard(t *testing.T) {
	g := New(6, symbols.NewDefaultCatalog(), core.NewRand(7))
	g.Settle()
	if !g.IsStable() {
		t.Error("Settle left runs on the board")
	}
}

// hasRun checks every row and column for three equal colors in a row.
func hasRun(g *Grid) bool {
	n := g.Size()
	c := g.Colors()
	at := func(r, col int) symbols.ID { return c[r*n+col] }
	for r := 0; r < n; r++ {
		for col := 0; col < n; col++ {
			if col+2 < n && at(r, col) == at(r, col+1) && at(r, col) == at(r, col+2) {
				return true
			}
			if r+2 < n && at(r, col) == at(r+1, col) && at(r, col) == at(r+2, col) {
				return true
			}
		}
	}
	return false
}
