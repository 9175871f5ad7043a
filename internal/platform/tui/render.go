package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/signal-archive/internal/core"
	"github.com/vovakirdan/signal-archive/internal/engine"
	"github.com/vovakirdan/signal-archive/internal/progression"
)

// colorStyles maps core.Color to lipgloss styles.
var colorStyles = map[core.Color]lipgloss.Style{
	core.ColorDefault:       lipgloss.NewStyle(),
	core.ColorRed:           lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	core.ColorGreen:         lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
	core.ColorYellow:        lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	core.ColorBlue:          lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
	core.ColorMagenta:       lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	core.ColorCyan:          lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	core.ColorWhite:         lipgloss.NewStyle().Foreground(lipgloss.Color("7")),
	core.ColorBrightRed:     lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	core.ColorBrightGreen:   lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	core.ColorBrightYellow:  lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	core.ColorBrightBlue:    lipgloss.NewStyle().Foreground(lipgloss.Color("12")),
	core.ColorBrightMagenta: lipgloss.NewStyle().Foreground(lipgloss.Color("13")),
	core.ColorBrightCyan:    lipgloss.NewStyle().Foreground(lipgloss.Color("14")),
	core.ColorBrightWhite:   lipgloss.NewStyle().Foreground(lipgloss.Color("15")),
	core.ColorOrange:        lipgloss.NewStyle().Foreground(lipgloss.Color("208")),
	core.ColorGray:          lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
}

// levelStyles colors console lines by level.
var levelStyles = map[engine.Level]lipgloss.Style{
	engine.LevelInfo:    lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
	engine.LevelSuccess: lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
	engine.LevelWarning: lipgloss.NewStyle().Foreground(lipgloss.Color("11")),
	engine.LevelError:   lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
}

// RenderScreen converts a Screen buffer to a styled string for display.
// Groups adjacent cells with the same color to minimize ANSI escape sequences.
func RenderScreen(s *core.Screen) string {
	var sb strings.Builder
	sb.Grow(s.Width()*s.Height()*2 + s.Height())

	for y := range s.Height() {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < s.Width() {
			startColor := s.GetCell(x, y).Color

			var run strings.Builder
			for x < s.Width() {
				cell := s.GetCell(x, y)
				if cell.Color != startColor {
					break
				}
				run.WriteRune(cell.Rune)
				x++
			}

			style, ok := colorStyles[startColor]
			if !ok {
				style = colorStyles[core.ColorDefault]
			}
			sb.WriteString(style.Render(run.String()))
		}
	}
	return sb.String()
}

// accent returns the chrome color for a color shift stage. Tiles keep their
// colors at every stage so the board stays playable.
func accent(shift progression.ColorShift) lipgloss.Color {
	switch shift {
	case progression.ShiftDesaturate:
		return lipgloss.Color("245")
	case progression.ShiftInvert:
		return lipgloss.Color("15")
	case progression.ShiftBleed:
		return lipgloss.Color("1")
	case progression.ShiftCollapse:
		return lipgloss.Color("9")
	default:
		return lipgloss.Color("6")
	}
}

// panelStyle is the bordered box around a panel.
func panelStyle(shift progression.ColorShift, focused bool) lipgloss.Style {
	border := lipgloss.Color("240")
	if focused {
		border = accent(shift)
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

// titleStyle is the header style; from the invert stage on it is reversed.
func titleStyle(shift progression.ColorShift) lipgloss.Style {
	s := lipgloss.NewStyle().Bold(true).Foreground(accent(shift))
	if shift >= progression.ShiftInvert {
		s = s.Reverse(true)
	}
	return s
}

var glitchRunes = []rune("▓▒░#%&$@")

// glitchText corrupts a share of the non-space runes of s. Level 0 returns s
// unchanged; each level corrupts more. The pattern moves with frame.
func glitchText(s string, level, frame int) string {
	if level <= 0 {
		return s
	}
	if level > progression.MaxGlitch {
		level = progression.MaxGlitch
	}
	every := 12 - 2*level
	runes := []rune(s)
	for i, r := range runes {
		if r == ' ' {
			continue
		}
		if (i*7+frame)%every == 0 {
			runes[i] = glitchRunes[(i+frame)%len(glitchRunes)]
		}
	}
	return string(runes)
}

// formatSession renders the elapsed session time as SESSION: HH:MM:SS.
func formatSession(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	secs := int(d / time.Second)
	return fmt.Sprintf("SESSION: %02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}
