package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/vovakirdan/signal-archive/internal/config"
	"github.com/vovakirdan/signal-archive/internal/engine"
	"github.com/vovakirdan/signal-archive/internal/persist"
	"github.com/vovakirdan/signal-archive/internal/storage"
)

const commandTimeout = 10 * time.Second

// gameOptions loads the config file and applies the seed flag.
func gameOptions() (engine.Options, error) {
	cfg, err := config.Load(flagConfig)
	if err != nil {
		return engine.Options{}, err
	}
	return cfg.Options(flagSeed), nil
}

// loadSnapshot reads and validates the save of the selected slot.
func loadSnapshot(ctx context.Context, store *storage.Store) (persist.Snapshot, time.Time, error) {
	data, savedAt, err := store.LoadSlot(ctx, flagSlot)
	if errors.Is(err, persist.ErrNoSave) {
		return persist.Snapshot{}, savedAt, fmt.Errorf("slot %q has no save; run 'signal play --slot %s' first", flagSlot, flagSlot)
	}
	if err != nil {
		return persist.Snapshot{}, savedAt, err
	}
	snap, err := persist.Decode(data)
	if err != nil {
		return persist.Snapshot{}, savedAt, fmt.Errorf("slot %q: %w", flagSlot, err)
	}
	return snap, savedAt, nil
}
