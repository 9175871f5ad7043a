// Package decoder runs the passive document generators. Each decoder fills a
// progress bar at its own rate while active; a full bar requests one document
// and starts again from zero.
package decoder

import (
	"math"
	"time"
)

// Full is the progress value at which a decoder completes a document.
const Full = 100.0

// ID identifies a decoder tier, e.g. "VLF". It doubles as the frequency tag of
// the documents it produces.
type ID string

// Decoder is one passive generator. Rate is in documents per minute.
// Active implies Unlocked. UnlockAt is the document count that unlocks it;
// zero means it starts unlocked.
type Decoder struct {
	ID       ID      `json:"id"`
	Name     string  `json:"name"`
	Rate     float64 `json:"rate"`
	Progress float64 `json:"progress"`
	Unlocked bool    `json:"unlocked"`
	Active   bool    `json:"active"`
	UnlockAt int     `json:"unlockAt,omitempty"`
}

// Yield is the number of documents a decoder owes for a stretch of idle time.
type Yield struct {
	ID    ID
	Count int
}

// DefaultDecoders returns the three stock tiers.
func DefaultDecoders() []Decoder {
	return []Decoder{
		{ID: "VLF", Name: "VLF - Very Low Frequency", Rate: 0.5, Unlocked: true, Active: true},
		{ID: "LF", Name: "LF - Low Frequency", Rate: 0.3, UnlockAt: 50},
		{ID: "MF", Name: "MF - Medium Frequency", Rate: 0.2, UnlockAt: 150},
	}
}

// Scheduler owns the decoder list. Not safe for concurrent use.
type Scheduler struct {
	decoders []Decoder
}

// New creates a scheduler over a copy of the given decoders. Duplicate IDs
// keep the first occurrence.
func New(decoders []Decoder) *Scheduler {
	s := &Scheduler{}
	seen := make(map[ID]bool, len(decoders))
	for _, d := range decoders {
		if d.ID == "" || seen[d.ID] {
			continue
		}
		seen[d.ID] = true
		s.decoders = append(s.decoders, normalize(d))
	}
	return s
}

// NewDefault creates a scheduler over DefaultDecoders.
func NewDefault() *Scheduler {
	return New(DefaultDecoders())
}

func normalize(d Decoder) Decoder {
	if d.Active && !d.Unlocked {
		d.Active = false
	}
	if d.Rate < 0 || math.IsNaN(d.Rate) {
		d.Rate = 0
	}
	if d.Progress < 0 || d.Progress >= Full || math.IsNaN(d.Progress) {
		d.Progress = 0
	}
	return d
}

// All returns a copy of the decoders in tier order.
func (s *Scheduler) All() []Decoder {
	out := make([]Decoder, len(s.decoders))
	copy(out, s.decoders)
	return out
}

// Get returns the decoder with the given ID.
func (s *Scheduler) Get(id ID) (Decoder, bool) {
	for _, d := range s.decoders {
		if d.ID == id {
			return d, true
		}
	}
	return Decoder{}, false
}

// Tick advances every active decoder by rate/60 progress units per elapsed
// second. A decoder that reaches Full resets to zero, discarding any excess,
// and its ID is returned once. Locked and idle decoders do not accumulate.
func (s *Scheduler) Tick(elapsed time.Duration) []ID {
	if elapsed <= 0 {
		return nil
	}
	secs := elapsed.Seconds()

	var done []ID
	for i := range s.decoders {
		d := &s.decoders[i]
		if !d.Active {
			continue
		}
		d.Progress += d.Rate / 60 * secs
		if d.Progress >= Full {
			d.Progress = 0
			done = append(done, d.ID)
		}
	}
	return done
}

// Unlock unlocks and activates a decoder. It returns true only on the
// transition from locked.
func (s *Scheduler) Unlock(id ID) bool {
	for i := range s.decoders {
		d := &s.decoders[i]
		if d.ID != id {
			continue
		}
		if d.Unlocked {
			return false
		}
		d.Unlocked = true
		d.Active = true
		return true
	}
	return false
}

// Due returns the locked decoders whose UnlockAt threshold is met by the
// given document count, in tier order.
func (s *Scheduler) Due(totalDocuments int) []ID {
	var ids []ID
	for _, d := range s.decoders {
		if !d.Unlocked && d.UnlockAt > 0 && totalDocuments >= d.UnlockAt {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// IdleYield computes floor(minutes·rate) for every active decoder. Decoders
// owing nothing are omitted.
func (s *Scheduler) IdleYield(minutes int) []Yield {
	return IdleYield(s.decoders, minutes)
}

// IdleYield computes the catch-up documents owed by the active decoders of a
// saved list.
func IdleYield(decoders []Decoder, minutes int) []Yield {
	if minutes <= 0 {
		return nil
	}
	var out []Yield
	for _, d := range decoders {
		if !d.Active || !d.Unlocked {
			continue
		}
		n := int(math.Floor(float64(minutes) * d.Rate))
		if n > 0 {
			out = append(out, Yield{ID: d.ID, Count: n})
		}
	}
	return out
}

// Restore overlays persisted decoder state onto the scheduler. Known decoders
// take the saved progress, flags and (positive) rate; saved decoders the
// scheduler does not know are appended. Unlocks never revert.
func (s *Scheduler) Restore(saved []Decoder) {
	index := make(map[ID]int, len(s.decoders))
	for i, d := range s.decoders {
		index[d.ID] = i
	}

	for _, sd := range saved {
		if sd.ID == "" {
			continue
		}
		i, ok := index[sd.ID]
		if !ok {
			index[sd.ID] = len(s.decoders)
			s.decoders = append(s.decoders, normalize(sd))
			continue
		}
		d := s.decoders[i]
		d.Progress = sd.Progress
		if sd.Rate > 0 {
			d.Rate = sd.Rate
		}
		if sd.Name != "" {
			d.Name = sd.Name
		}
		d.Unlocked = d.Unlocked || sd.Unlocked
		d.Active = sd.Active
		s.decoders[i] = normalize(d)
	}
}
