package engine

import "github.com/vovakirdan/signal-archive/internal/archive"

// Command is an inbound request processed by the Runner's loop.
type Command interface {
	command()
}

// SelectTile clicks a tile. Two adjacent clicks swap.
type SelectTile struct {
	Index int
}

func (SelectTile) command() {}

// MoveDocument files a document into another folder.
type MoveDocument struct {
	ID     string
	Folder archive.Folder
}

func (MoveDocument) command() {}

// SaveNow writes the current state to the gateway.
type SaveNow struct{}

func (SaveNow) command() {}

// LoadNow replaces the current state with the stored save.
type LoadNow struct{}

func (LoadNow) command() {}

// ResetAll clears the stored save and starts over.
type ResetAll struct{}

func (ResetAll) command() {}

// ExportSnapshot replies with the encoded snapshot in Reply.Data.
type ExportSnapshot struct{}

func (ExportSnapshot) command() {}

// ImportSnapshot replaces the state with an encoded snapshot. Reply.Err is a
// persist.ErrMalformedSave error when the data is rejected.
type ImportSnapshot struct {
	Data []byte
}

func (ImportSnapshot) command() {}

// Internal loop messages.

type resolveStep struct{}

func (resolveStep) command() {}

type saveDone struct {
	snap  saveJob
	err   error
	reply chan Reply
}

func (saveDone) command() {}

type viewRequest struct{}

func (viewRequest) command() {}

type subscribe struct {
	sub *Subscription
}

func (subscribe) command() {}

// Reply is the result of a command sent with Runner.Do.
type Reply struct {
	Data []byte
	View *View
	Err  error
}
