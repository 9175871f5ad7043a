package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/signal.yaml
var defaultSignalYAML []byte

// DefaultSignalConfig returns the hard-coded configuration used when no YAML
// source can be read.
func DefaultSignalConfig() SignalConfig {
	return SignalConfig{
		Grid: GridConfig{Size: 8},
		Timing: TimingConfig{
			Tick:     time.Second,
			Autosave: 30 * time.Second,
			Settle:   100 * time.Millisecond,
		},
		Documents: DocumentConfig{InterceptChance: 0.2},
		Symbols: []SymbolConfig{
			{ID: "red", Glyph: "█", Color: "red", Unlocked: true},
			{ID: "green", Glyph: "▓", Color: "green", Unlocked: true},
			{ID: "blue", Glyph: "▒", Color: "blue", Unlocked: true},
			{ID: "yellow", Glyph: "░", Color: "yellow", Unlocked: true},
			{ID: "violet", Glyph: "▚", Color: "magenta"},
			{ID: "cyan", Glyph: "▞", Color: "cyan"},
			{ID: "white", Glyph: "◆", Color: "bright_white"},
		},
		Decoders: []DecoderConfig{
			{ID: "VLF", Name: "VLF - Very Low Frequency", Rate: 0.5},
			{ID: "LF", Name: "LF - Low Frequency", Rate: 0.3, UnlockAt: 50},
			{ID: "MF", Name: "MF - Medium Frequency", Rate: 0.2, UnlockAt: 150},
		},
		Milestones: []MilestoneConfig{
			{Threshold: 100, Title: "PATTERN RECOGNITION", Unlock: "violet", Narrative: "milestone_100", Glitch: 1, Shift: "desaturate"},
			{Threshold: 500, Title: "SECOND LISTENER", Unlock: "cyan", Narrative: "milestone_500", Glitch: 2},
			{Threshold: 1000, Title: "SELF REFERENCE", Narrative: "milestone_1000", Glitch: 3, Shift: "invert"},
			{Threshold: 5000, Title: "INTERNAL SOURCE", Unlock: "white", Narrative: "milestone_5000", Glitch: 4, Shift: "bleed"},
			{Threshold: 10000, Title: "END OF TRANSMISSION", Narrative: "milestone_10000", Shift: "collapse"},
		},
	}
}

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	return defaultSignalYAML
}
