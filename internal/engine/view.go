package engine

import (
	"github.com/vovakirdan/signal-archive/internal/archive"
	"github.com/vovakirdan/signal-archive/internal/decoder"
	"github.com/vovakirdan/signal-archive/internal/grid"
	"github.com/vovakirdan/signal-archive/internal/progression"
	"github.com/vovakirdan/signal-archive/internal/symbols"
)

// View is a complete, self-contained copy of everything a front end renders.
type View struct {
	Size      int
	Tiles     []grid.Tile
	Selected  int
	Symbols   []symbols.Symbol
	Decoders  []decoder.Decoder
	Documents []archive.Document
	Folders   map[archive.Folder][]string
	Stats     progression.Stats
	UI        progression.UIState
	Logs      []LogEntry
}

// View builds a View of the current state.
func (g *Game) View() View {
	return View{
		Size:      g.grid.Size(),
		Tiles:     g.grid.Tiles(),
		Selected:  g.grid.Selected(),
		Symbols:   g.catalog.All(),
		Decoders:  g.decoders.All(),
		Documents: g.archive.Documents(),
		Folders:   g.archive.FolderIDs(),
		Stats:     g.tracker.Stats(),
		UI:        g.tracker.UI(),
		Logs:      g.Logs(),
	}
}

// Apply folds an event into the view so a subscriber can keep a local copy
// current without querying the loop.
func (v *View) Apply(e Event) {
	switch ev := e.(type) {
	case GridChanged:
		v.Size, v.Tiles, v.Selected = ev.Size, ev.Tiles, ev.Selected
	case DecodersChanged:
		v.Decoders = ev.Decoders
	case DocumentAdded:
		v.Documents = append(v.Documents, ev.Document)
		v.ensureFolders()
		v.Folders[ev.Document.Folder] = append(v.Folders[ev.Document.Folder], ev.Document.ID)
	case StatsChanged:
		v.Stats = ev.Stats
	case MilestoneFired:
		v.UI = ev.UI
		if ev.Milestone.Unlock != "" {
			for i := range v.Symbols {
				if v.Symbols[i].ID == ev.Milestone.Unlock {
					v.Symbols[i].Unlocked = true
				}
			}
		}
	case LogEmitted:
		v.Logs = append(v.Logs, ev.Entry)
		if len(v.Logs) > MaxLogEntries {
			v.Logs = v.Logs[len(v.Logs)-MaxLogEntries:]
		}
	case StateReplaced:
		*v = ev.View
	case DocumentMoved:
		v.move(ev.ID, ev.From, ev.To)
	}
}

func (v *View) ensureFolders() {
	if v.Folders == nil {
		v.Folders = make(map[archive.Folder][]string)
	}
}

func (v *View) move(id string, from, to archive.Folder) {
	v.ensureFolders()
	ids := v.Folders[from]
	kept := ids[:0:0]
	for _, x := range ids {
		if x != id {
			kept = append(kept, x)
		}
	}
	v.Folders[from] = kept
	v.Folders[to] = append(v.Folders[to], id)
	for i := range v.Documents {
		if v.Documents[i].ID == id {
			v.Documents[i].Folder = to
		}
	}
}

// Folder returns the documents of a folder in filing order.
func (v *View) Folder(f archive.Folder) []archive.Document {
	byID := make(map[string]archive.Document, len(v.Documents))
	for _, d := range v.Documents {
		byID[d.ID] = d
	}
	out := make([]archive.Document, 0, len(v.Folders[f]))
	for _, id := range v.Folders[f] {
		if d, ok := byID[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
