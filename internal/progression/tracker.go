// Package progression tracks the lifetime counters and decides when unlocks
// and milestones fire. It reads grid scores and decoder state but owns only
// the stats, milestone flags and escalation level.
package progression

import (
	"sort"
	"time"

	"github.com/vovakirdan/signal-archive/internal/decoder"
	"github.com/vovakirdan/signal-archive/internal/grid"
	"github.com/vovakirdan/signal-archive/internal/symbols"
)

// Milestone is a one-shot event fired when total matches reach Threshold.
// Unlock and Narrative are optional; Glitch and Shift merge into UIState.
type Milestone struct {
	Threshold int
	Title     string
	Unlock    symbols.ID
	Narrative string
	Glitch    int
	Shift     ColorShift
}

// DefaultMilestones returns the stock milestone table.
func DefaultMilestones() []Milestone {
	return []Milestone{
		{Threshold: 100, Title: "PATTERN RECOGNITION", Unlock: "violet", Narrative: "milestone_100", Glitch: 1, Shift: ShiftDesaturate},
		{Threshold: 500, Title: "SECOND LISTENER", Unlock: "cyan", Narrative: "milestone_500", Glitch: 2},
		{Threshold: 1000, Title: "SELF REFERENCE", Narrative: "milestone_1000", Glitch: 3, Shift: ShiftInvert},
		{Threshold: 5000, Title: "INTERNAL SOURCE", Unlock: "white", Narrative: "milestone_5000", Glitch: 4, Shift: ShiftBleed},
		{Threshold: 10000, Title: "END OF TRANSMISSION", Narrative: "milestone_10000", Shift: ShiftCollapse},
	}
}

// Stats are the lifetime counters. The three counts never decrease.
type Stats struct {
	TotalMatches   int       `json:"totalMatches"`
	TotalDocuments int       `json:"totalDocuments"`
	Fragments      int       `json:"fragments"`
	SessionStart   time.Time `json:"sessionStart"`
	LastSave       time.Time `json:"lastSave"`
	Milestones     []int     `json:"milestones,omitempty"`
}

// Tracker owns Stats, the fired milestone set and UIState. Not safe for
// concurrent use.
type Tracker struct {
	stats      Stats
	ui         UIState
	milestones []Milestone
	fired      map[int]bool
}

// New creates a tracker with the given milestone table, sorted ascending.
func New(milestones []Milestone, sessionStart time.Time) *Tracker {
	ms := append([]Milestone{}, milestones...)
	sort.SliceStable(ms, func(i, j int) bool { return ms[i].Threshold < ms[j].Threshold })
	return &Tracker{
		stats:      Stats{SessionStart: sessionStart},
		milestones: ms,
		fired:      make(map[int]bool),
	}
}

// Stats returns a copy of the counters with the fired milestones listed.
func (t *Tracker) Stats() Stats {
	s := t.stats
	s.Milestones = nil
	for _, m := range t.milestones {
		if t.fired[m.Threshold] {
			s.Milestones = append(s.Milestones, m.Threshold)
		}
	}
	return s
}

// UI returns the escalation state.
func (t *Tracker) UI() UIState {
	return t.ui
}

// Milestones returns the milestone table.
func (t *Tracker) Milestones() []Milestone {
	return append([]Milestone{}, t.milestones...)
}

// Fired reports whether the milestone at threshold has fired.
func (t *Tracker) Fired(threshold int) bool {
	return t.fired[threshold]
}

// ApplyMatch adds a resolve pass to the counters.
func (t *Tracker) ApplyMatch(s grid.Score) {
	if s.Matches > 0 {
		t.stats.TotalMatches += s.Matches
	}
	if s.Fragments > 0 {
		t.stats.Fragments += s.Fragments
	}
}

// RecordDocument counts one generated document.
func (t *Tracker) RecordDocument() {
	t.stats.TotalDocuments++
}

// MarkSaved stamps the last-save time.
func (t *Tracker) MarkSaved(at time.Time) {
	t.stats.LastSave = at
}

// DecoderUnlocks unlocks every decoder whose document threshold has been
// reached and returns the IDs that changed.
func (t *Tracker) DecoderUnlocks(s *decoder.Scheduler) []decoder.ID {
	var out []decoder.ID
	for _, id := range s.Due(t.stats.TotalDocuments) {
		if s.Unlock(id) {
			out = append(out, id)
		}
	}
	return out
}

// Evaluate fires every milestone whose threshold total matches has reached
// and that has not fired before, in ascending order. Each milestone's
// escalation is merged into UIState.
func (t *Tracker) Evaluate() []Milestone {
	var out []Milestone
	for _, m := range t.milestones {
		if t.fired[m.Threshold] || t.stats.TotalMatches < m.Threshold {
			continue
		}
		t.fired[m.Threshold] = true
		t.ui = t.ui.Merge(UIState{GlitchLevel: m.Glitch, ColorShift: m.Shift})
		out = append(out, m)
	}
	return out
}

// Restore replaces the tracker state with persisted values. Negative counters
// are clamped to zero; fired milestones are taken from s.Milestones and the
// escalation never drops below what those milestones imply.
func (t *Tracker) Restore(s Stats, ui UIState) {
	s.TotalMatches = max(s.TotalMatches, 0)
	s.TotalDocuments = max(s.TotalDocuments, 0)
	s.Fragments = max(s.Fragments, 0)

	t.fired = make(map[int]bool, len(s.Milestones))
	for _, th := range s.Milestones {
		t.fired[th] = true
	}
	t.ui = UIState{}.Merge(ui)
	for _, m := range t.milestones {
		if t.fired[m.Threshold] {
			t.ui = t.ui.Merge(UIState{GlitchLevel: m.Glitch, ColorShift: m.Shift})
		}
	}
	s.Milestones = nil
	t.stats = s
}
