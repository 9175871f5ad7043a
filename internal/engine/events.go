package engine

import (
	"time"

	"github.com/vovakirdan/signal-archive/internal/archive"
	"github.com/vovakirdan/signal-archive/internal/decoder"
	"github.com/vovakirdan/signal-archive/internal/grid"
	"github.com/vovakirdan/signal-archive/internal/progression"
)

// Event is an outbound fact for the presentation layer.
type Event interface {
	event()
}

// Level is the severity of a console line.
type Level int

const (
	LevelInfo Level = iota
	LevelSuccess
	LevelWarning
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "info"
	case LevelSuccess:
		return "success"
	case LevelWarning:
		return "warning"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// LogEntry is one console line.
type LogEntry struct {
	At    time.Time
	Text  string
	Level Level
}

// GridChanged carries the full board after any change.
type GridChanged struct {
	Size     int
	Tiles    []grid.Tile
	Selected int
}

func (GridChanged) event() {}

// DecodersChanged carries the decoder list after a tick or unlock.
type DecodersChanged struct {
	Decoders []decoder.Decoder
}

func (DecodersChanged) event() {}

// DocumentAdded is sent for every generated document.
type DocumentAdded struct {
	Document archive.Document
}

func (DocumentAdded) event() {}

// FoldersChanged carries per-folder counts after a document is added or moved.
type FoldersChanged struct {
	Counts map[archive.Folder]int
}

func (FoldersChanged) event() {}

// StatsChanged carries the counters.
type StatsChanged struct {
	Stats progression.Stats
}

func (StatsChanged) event() {}

// MilestoneFired is sent once per milestone. Document is the narrative record
// it produced, if any; UI is the escalation level after the milestone.
type MilestoneFired struct {
	Milestone progression.Milestone
	Document  *archive.Document
	UI        progression.UIState
}

func (MilestoneFired) event() {}

// LogEmitted is one console line.
type LogEmitted struct {
	Entry LogEntry
}

func (LogEmitted) event() {}

// StateReplaced is sent after a load, import or reset, and to every new
// subscriber. It carries the complete view.
type StateReplaced struct {
	View View
}

func (StateReplaced) event() {}

// DocumentMoved is sent when a document changes folder.
type DocumentMoved struct {
	ID   string
	From archive.Folder
	To   archive.Folder
}

func (DocumentMoved) event() {}
