// Package core provides the runtime primitives shared by the signal archive
// packages: runtime configuration, clocks, random sources, colors and the
// character screen buffer. It has no external dependencies (especially no
// Bubble Tea) so game logic stays pure and testable.
package core

import "time"

// RuntimeConfig contains the timing and sizing parameters of one game session.
// The defaults give a one second progression tick,
// a thirty second autosave and a short settle delay before a swap resolves.
type RuntimeConfig struct {
	GridSize         int           // Tiles per grid row and column
	TickInterval     time.Duration // Progression tick cadence
	AutosaveInterval time.Duration // Periodic persistence cadence (0 disables)
	SettleDelay      time.Duration // Delay between a swap and each cascade step
	Seed             int64         // RNG seed for deterministic gameplay
}

// DefaultConfig returns a RuntimeConfig with sensible defaults.
func DefaultConfig() RuntimeConfig {
	return RuntimeConfig{
		GridSize:         8,
		TickInterval:     time.Second,
		AutosaveInterval: 30 * time.Second,
		SettleDelay:      100 * time.Millisecond,
		Seed:             0, // 0 means seed from crypto/rand at startup
	}
}

// Normalize fills zero or invalid fields with defaults.
// AutosaveInterval is left alone: zero means autosave is disabled.
func (c RuntimeConfig) Normalize() RuntimeConfig {
	def := DefaultConfig()
	if c.GridSize < 3 {
		c.GridSize = def.GridSize
	}
	if c.TickInterval <= 0 {
		c.TickInterval = def.TickInterval
	}
	if c.SettleDelay < 0 {
		c.SettleDelay = 0
	}
	return c
}
