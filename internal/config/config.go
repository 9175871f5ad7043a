// Package config provides YAML-based tuning for the signal archive: grid
// size, timing, the symbol catalog, decoder tiers and the milestone table.
package config

import (
	"fmt"
	"time"

	"github.com/vovakirdan/signal-archive/internal/core"
	"github.com/vovakirdan/signal-archive/internal/decoder"
	"github.com/vovakirdan/signal-archive/internal/engine"
	"github.com/vovakirdan/signal-archive/internal/progression"
	"github.com/vovakirdan/signal-archive/internal/symbols"
)

// SignalConfig contains all tunable game parameters.
type SignalConfig struct {
	Grid       GridConfig        `yaml:"grid"`
	Timing     TimingConfig      `yaml:"timing"`
	Documents  DocumentConfig    `yaml:"documents"`
	Symbols    []SymbolConfig    `yaml:"symbols"`
	Decoders   []DecoderConfig   `yaml:"decoders"`
	Milestones []MilestoneConfig `yaml:"milestones"`
}

// GridConfig defines the board.
type GridConfig struct {
	Size int `yaml:"size"`
}

// TimingConfig defines the loop cadences.
type TimingConfig struct {
	Tick     time.Duration `yaml:"tick"`
	Autosave time.Duration `yaml:"autosave"` // 0 disables autosave
	Settle   time.Duration `yaml:"settle"`
}

// DocumentConfig defines document generation.
type DocumentConfig struct {
	InterceptChance float64 `yaml:"intercept_chance"` // Share of match documents that are intercepts
}

// SymbolConfig defines one tile kind.
type SymbolConfig struct {
	ID       string `yaml:"id"`
	Glyph    string `yaml:"glyph"`
	Color    string `yaml:"color"`
	Unlocked bool   `yaml:"unlocked"`
}

// DecoderConfig defines one decoder tier.
type DecoderConfig struct {
	ID       string  `yaml:"id"`
	Name     string  `yaml:"name"`
	Rate     float64 `yaml:"rate"`      // Documents per minute
	UnlockAt int     `yaml:"unlock_at"` // Total documents needed (0 = from start)
}

// MilestoneConfig defines one milestone.
type MilestoneConfig struct {
	Threshold int    `yaml:"threshold"` // Total matches
	Title     string `yaml:"title"`
	Unlock    string `yaml:"unlock"`    // Symbol ID, optional
	Narrative string `yaml:"narrative"` // Template key, optional
	Glitch    int    `yaml:"glitch"`
	Shift     string `yaml:"shift"`
}

// Runtime converts the grid and timing sections to a RuntimeConfig.
func (c SignalConfig) Runtime(seed int64) core.RuntimeConfig {
	return core.RuntimeConfig{
		GridSize:         c.Grid.Size,
		TickInterval:     c.Timing.Tick,
		AutosaveInterval: c.Timing.Autosave,
		SettleDelay:      c.Timing.Settle,
		Seed:             seed,
	}.Normalize()
}

// Validate checks the parts of the file the engine cannot repair on its own.
// An omitted symbols section means the stock catalog.
func (c SignalConfig) Validate() error {
	if len(c.Symbols) == 0 {
		return nil
	}
	ids := make(map[string]bool, len(c.Symbols))
	for _, s := range c.Symbols {
		if s.ID != "" {
			ids[s.ID] = true
		}
	}
	if len(ids) < symbols.MinSymbols {
		return fmt.Errorf("config: symbols: need at least %d distinct ids, got %d", symbols.MinSymbols, len(ids))
	}
	return nil
}

// SymbolTable converts the symbols section. Entries without an ID are
// skipped; a missing glyph falls back to a full block.
func (c SignalConfig) SymbolTable() []symbols.Symbol {
	if len(c.Symbols) == 0 {
		return nil
	}
	out := make([]symbols.Symbol, 0, len(c.Symbols))
	for _, s := range c.Symbols {
		if s.ID == "" {
			continue
		}
		glyph := '█'
		for _, r := range s.Glyph {
			glyph = r
			break
		}
		out = append(out, symbols.Symbol{
			ID:       symbols.ID(s.ID),
			Glyph:    glyph,
			Color:    core.ParseColor(s.Color),
			Unlocked: s.Unlocked,
		})
	}
	return out
}

// DecoderTable converts the decoders section. Tiers with unlock_at 0 start
// unlocked and active.
func (c SignalConfig) DecoderTable() []decoder.Decoder {
	if len(c.Decoders) == 0 {
		return nil
	}
	out := make([]decoder.Decoder, 0, len(c.Decoders))
	for _, d := range c.Decoders {
		if d.ID == "" {
			continue
		}
		name := d.Name
		if name == "" {
			name = d.ID
		}
		open := d.UnlockAt <= 0
		out = append(out, decoder.Decoder{
			ID:       decoder.ID(d.ID),
			Name:     name,
			Rate:     d.Rate,
			Unlocked: open,
			Active:   open,
			UnlockAt: d.UnlockAt,
		})
	}
	return out
}

// MilestoneTable converts the milestones section.
func (c SignalConfig) MilestoneTable() []progression.Milestone {
	if len(c.Milestones) == 0 {
		return nil
	}
	out := make([]progression.Milestone, 0, len(c.Milestones))
	for _, m := range c.Milestones {
		if m.Threshold <= 0 {
			continue
		}
		out = append(out, progression.Milestone{
			Threshold: m.Threshold,
			Title:     m.Title,
			Unlock:    symbols.ID(m.Unlock),
			Narrative: m.Narrative,
			Glitch:    m.Glitch,
			Shift:     progression.ParseColorShift(m.Shift),
		})
	}
	return out
}

// Options builds engine options from the configuration. Rand and Clock are
// left for the caller; a zero seed means a random one.
func (c SignalConfig) Options(seed int64) engine.Options {
	chance := c.Documents.InterceptChance
	if chance < 0 {
		chance = 0
	}
	if chance > 1 {
		chance = 1
	}
	return engine.Options{
		Config:          c.Runtime(seed),
		Symbols:         c.SymbolTable(),
		Decoders:        c.DecoderTable(),
		Milestones:      c.MilestoneTable(),
		InterceptChance: chance,
	}
}
