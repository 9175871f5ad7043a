package progression

import "strings"

// MaxGlitch is the highest glitch level.
const MaxGlitch = 4

// ColorShift is the palette distortion stage shown by the front end. Stages
// are ordered; the tracker only ever moves forward.
type ColorShift int

const (
	ShiftNone ColorShift = iota
	ShiftDesaturate
	ShiftInvert
	ShiftBleed
	ShiftCollapse
)

var shiftNames = []string{"none", "desaturate", "invert", "bleed", "collapse"}

// String returns the stage name.
func (s ColorShift) String() string {
	if s < 0 || int(s) >= len(shiftNames) {
		return "none"
	}
	return shiftNames[s]
}

// ParseColorShift converts a stage name. Unknown names map to ShiftNone.
func ParseColorShift(name string) ColorShift {
	name = strings.ToLower(strings.TrimSpace(name))
	for i, n := range shiftNames {
		if n == name {
			return ColorShift(i)
		}
	}
	return ShiftNone
}

// MarshalText implements encoding.TextMarshaler.
func (s ColorShift) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *ColorShift) UnmarshalText(b []byte) error {
	*s = ParseColorShift(string(b))
	return nil
}

// UIState is the narrative escalation signal for the presentation layer. It
// has no effect on game rules.
type UIState struct {
	GlitchLevel int        `json:"glitchLevel"`
	ColorShift  ColorShift `json:"colorShift"`
}

// Merge returns the componentwise maximum of u and o, clamped to valid range.
func (u UIState) Merge(o UIState) UIState {
	out := u
	if o.GlitchLevel > out.GlitchLevel {
		out.GlitchLevel = o.GlitchLevel
	}
	if o.ColorShift > out.ColorShift {
		out.ColorShift = o.ColorShift
	}
	if out.GlitchLevel < 0 {
		out.GlitchLevel = 0
	}
	if out.GlitchLevel > MaxGlitch {
		out.GlitchLevel = MaxGlitch
	}
	if out.ColorShift < ShiftNone || out.ColorShift > ShiftCollapse {
		out.ColorShift = ShiftNone
	}
	return out
}
