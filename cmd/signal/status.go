package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/signal-archive/internal/archive"
	"github.com/vovakirdan/signal-archive/internal/decoder"
	"github.com/vovakirdan/signal-archive/internal/persist"
	"github.com/vovakirdan/signal-archive/internal/storage"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the progress stored in a slot",
	Long: `Print the lifetime counters, decoders and folder counts of the
selected slot, plus the documents its decoders would add if a session
started now.

Examples:
  signal status
  signal status --slot night-shift`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func runStatus(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	snap, savedAt, err := loadSnapshot(ctx, store)
	if err != nil {
		return err
	}

	s := snap.Stats
	fmt.Printf("Slot %s - saved %s\n", flagSlot, savedAt.Local().Format("2006-01-02 15:04"))
	fmt.Println()
	fmt.Printf("  Matches    %d\n", s.TotalMatches)
	fmt.Printf("  Documents  %d\n", s.TotalDocuments)
	fmt.Printf("  Fragments  %d\n", s.Fragments)
	fmt.Printf("  Glitch     %d (%s)\n", snap.UIState.GlitchLevel, snap.UIState.ColorShift)
	fmt.Println()

	fmt.Println("Decoders")
	for _, d := range snap.Decoders {
		state := "locked"
		switch {
		case d.Active:
			state = fmt.Sprintf("active %.1f%%", d.Progress)
		case d.Unlocked:
			state = "idle"
		}
		fmt.Printf("  %-4s %-26s %.1f/min  %s\n", d.ID, d.Name, d.Rate, state)
	}
	fmt.Println()

	fmt.Println("Folders")
	for _, f := range archive.Folders {
		fmt.Printf("  %-9s %d\n", f, len(snap.Folders[f]))
	}

	if minutes := persist.IdleMinutes(savedAt, time.Now()); minutes > 0 {
		pending := 0
		for _, y := range decoder.IdleYield(snap.Decoders, minutes) {
			pending += y.Count
		}
		fmt.Println()
		fmt.Printf("Idle for %d minutes: %d documents waiting to be decoded\n", minutes, pending)
	}
	return nil
}
