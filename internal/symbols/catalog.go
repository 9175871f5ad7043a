// Package symbols holds the catalog of tile kinds. Each symbol carries a
// one-way unlock flag; the grid only ever draws from unlocked symbols.
package symbols

import (
	"github.com/vovakirdan/signal-archive/internal/core"
)

// ID identifies a symbol (tile color) such as "red" or "violet".
type ID string

// Symbol is one tile kind. Everything except Unlocked is fixed for a session.
type Symbol struct {
	ID       ID
	Glyph    rune
	Color    core.Color
	Unlocked bool
}

// Catalog is the ordered set of symbols known to the game.
// Order is stable so uniform draws are reproducible for a given seed.
type Catalog struct {
	symbols []Symbol
}

// DefaultSymbols returns the stock catalog: four unlocked base signals and
// three locked symbols revealed by milestones.
func DefaultSymbols() []Symbol {
	return []Symbol{
		{ID: "red", Glyph: '█', Color: core.ColorRed, Unlocked: true},
		{ID: "green", Glyph: '▓', Color: core.ColorGreen, Unlocked: true},
		{ID: "blue", Glyph: '▒', Color: core.ColorBlue, Unlocked: true},
		{ID: "yellow", Glyph: '░', Color: core.ColorYellow, Unlocked: true},
		{ID: "violet", Glyph: '▚', Color: core.ColorMagenta, Unlocked: false},
		{ID: "cyan", Glyph: '▞', Color: core.ColorCyan, Unlocked: false},
		{ID: "white", Glyph: '◆', Color: core.ColorBrightWhite, Unlocked: false},
	}
}

// MinSymbols is the smallest catalog that can hold a board free of matches.
const MinSymbols = 2

// NewCatalog builds a catalog from the given symbols. Duplicate and empty IDs
// are dropped. A catalog left with fewer than MinSymbols entries is topped up
// from DefaultSymbols. If fewer than two symbols end up unlocked, the first
// symbols in order are unlocked until two are: a single-color board can never
// be free of matches.
func NewCatalog(syms []Symbol) *Catalog {
	c := &Catalog{}
	seen := make(map[ID]bool, len(syms))
	add := func(s Symbol) {
		if s.ID == "" || seen[s.ID] {
			return
		}
		seen[s.ID] = true
		c.symbols = append(c.symbols, s)
	}
	for _, s := range syms {
		add(s)
	}
	for _, s := range DefaultSymbols() {
		if len(c.symbols) >= MinSymbols {
			break
		}
		add(s)
	}
	for i := range c.symbols {
		if c.unlockedCount() >= MinSymbols {
			break
		}
		c.symbols[i].Unlocked = true
	}
	return c
}

// NewDefaultCatalog builds a catalog from DefaultSymbols.
func NewDefaultCatalog() *Catalog {
	return NewCatalog(DefaultSymbols())
}

func (c *Catalog) unlockedCount() int {
	n := 0
	for _, s := range c.symbols {
		if s.Unlocked {
			n++
		}
	}
	return n
}

// All returns a copy of every symbol in catalog order.
func (c *Catalog) All() []Symbol {
	out := make([]Symbol, len(c.symbols))
	copy(out, c.symbols)
	return out
}

// Unlocked returns the unlocked symbols in catalog order.
func (c *Catalog) Unlocked() []Symbol {
	out := make([]Symbol, 0, len(c.symbols))
	for _, s := range c.symbols {
		if s.Unlocked {
			out = append(out, s)
		}
	}
	return out
}

// Get returns the symbol with the given ID.
func (c *Catalog) Get(id ID) (Symbol, bool) {
	for _, s := range c.symbols {
		if s.ID == id {
			return s, true
		}
	}
	return Symbol{}, false
}

// IsUnlocked reports whether id names an unlocked symbol.
func (c *Catalog) IsUnlocked(id ID) bool {
	s, ok := c.Get(id)
	return ok && s.Unlocked
}

// Unlock flips a locked symbol to unlocked. It returns true only on the
// transition; unknown or already unlocked symbols return false.
func (c *Catalog) Unlock(id ID) bool {
	for i := range c.symbols {
		if c.symbols[i].ID != id {
			continue
		}
		if c.symbols[i].Unlocked {
			return false
		}
		c.symbols[i].Unlocked = true
		return true
	}
	return false
}

// Draw picks an unlocked symbol uniformly at random.
func (c *Catalog) Draw(rng core.Rand) ID {
	pool := c.Unlocked()
	return pool[rng.Intn(len(pool))].ID
}

// Merge applies persisted unlock flags onto the catalog. Unknown IDs are
// ignored and flags only move false to true.
func (c *Catalog) Merge(saved []Symbol) {
	for _, s := range saved {
		if s.Unlocked {
			c.Unlock(s.ID)
		}
	}
}
