package main

import (
	"context"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/signal-archive/internal/grid"
	"github.com/vovakirdan/signal-archive/internal/platform/tui"
	"github.com/vovakirdan/signal-archive/internal/storage"
)

var flagNoSave bool

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play in this terminal",
	Long: `Open the archive terminal. Progress is saved to the selected slot
on exit, every autosave interval and on Ctrl+S. Decoders keep working while
you are away: the next session starts with the documents they produced.

Controls:
  Arrows/hjkl  - Move cursor
  Enter/Space  - Select tile (select a neighbour to swap)
  Tab          - Switch between grid and archive
  1/2/3        - File document to inbox/archived/priority
  O            - Read document
  Ctrl+S/O     - Save / load
  Ctrl+E/V     - Export to / import from clipboard
  Ctrl+R       - Reset all progress
  ?            - Help
  Q/Ctrl+C     - Quit

Examples:
  signal play
  signal play --slot second-shift
  signal play --config ./my-signal.yaml --seed 7`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&flagNoSave, "no-save", false, "Play without reading or writing the save slot")
}

func runPlay(cmd *cobra.Command, _ []string) error {
	opts, err := gameOptions()
	if err != nil {
		return err
	}

	needW, needH := grid.FrameSize(opts.Config.Normalize().GridSize)
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil && (w < needW+60 || h < needH+14) {
		fmt.Fprintf(os.Stderr, "Warning: terminal is %dx%d, the archive terminal needs about %dx%d\n", w, h, needW+60, needH+14)
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "signal",
		Level:           log.WarnLevel,
	})

	var store *storage.Store
	if !flagNoSave {
		store, err = storage.Open(flagDBPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open save database: %v\n", err)
			// Continue without persistence
			store = nil
		}
	}

	sess, err := tui.StartSession(context.Background(), store, flagSlot, opts, logger)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return fmt.Errorf("cannot start game: %w", err)
	}

	runErr := tui.Run(sess.Runner, tui.Options{
		Slot:      flagSlot,
		Clipboard: tui.SystemClipboard{},
	})
	sess.Close()

	if store != nil {
		store.Close()
	}
	return runErr
}
