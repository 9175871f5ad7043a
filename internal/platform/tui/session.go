package tui

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/signal-archive/internal/engine"
	"github.com/vovakirdan/signal-archive/internal/persist"
	"github.com/vovakirdan/signal-archive/internal/progression"
	"github.com/vovakirdan/signal-archive/internal/storage"
)

// Session is one running game bound to a save slot. Closing it stops the
// runner, which writes the final save, and records the session.
type Session struct {
	Slot   string
	Runner *engine.Runner

	store  *storage.Store
	logger *log.Logger
	start  time.Time
	base   progression.Stats
}

// StartSession creates a game from opts, binds it to the slot of store and
// starts its runner. A nil store plays without persistence.
func StartSession(ctx context.Context, store *storage.Store, slot string, opts engine.Options, logger *log.Logger) (*Session, error) {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	var gw persist.Gateway
	if store != nil {
		gw = store.Slot(slot)
	}

	r := engine.NewRunner(engine.New(opts), gw, logger.With("slot", slot))
	if err := r.Start(ctx); err != nil {
		return nil, err
	}

	s := &Session{
		Slot:   slot,
		Runner: r,
		store:  store,
		logger: logger,
		start:  time.Now(),
	}
	if v, err := r.View(ctx); err == nil {
		s.base = v.Stats
	}
	return s, nil
}

// Close stops the runner and records how much the session produced.
func (s *Session) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	final, err := s.Runner.View(ctx)
	s.Runner.Stop()
	if err != nil || s.store == nil {
		return
	}

	rec := storage.SessionRecord{
		Slot:      s.Slot,
		Matches:   final.Stats.TotalMatches - s.base.TotalMatches,
		Documents: final.Stats.TotalDocuments - s.base.TotalDocuments,
		Duration:  int(time.Since(s.start) / time.Second),
	}
	if _, err := s.store.RecordSession(ctx, rec); err != nil {
		s.logger.Warn("could not record session", "slot", s.Slot, "error", err)
	}
}
