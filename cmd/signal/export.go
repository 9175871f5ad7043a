package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/signal-archive/internal/persist"
	"github.com/vovakirdan/signal-archive/internal/storage"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Write a slot's save as JSON",
	Long: `Write the stored save of the selected slot. Without a file the JSON is
printed to stdout. The output can be loaded with 'signal import' or pasted
into the in-game import.

Examples:
  signal export > backup.json
  signal export backup.json --slot night-shift`,
	Args: cobra.MaximumNArgs(1),
	RunE: runExport,
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Replace a slot's save from JSON",
	Long: `Validate a save file and store it in the selected slot. A malformed
file is rejected and the slot is left untouched. Use "-" to read stdin.

Examples:
  signal import backup.json
  signal import - --slot restored < backup.json`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runExport(_ *cobra.Command, args []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	snap, _, err := loadSnapshot(ctx, store)
	if err != nil {
		return err
	}
	data, err := persist.Encode(snap)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		_, err = os.Stdout.Write(append(data, '\n'))
		return err
	}
	if err := os.WriteFile(args[0], data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", args[0], err)
	}
	fmt.Fprintf(os.Stderr, "Exported %d documents to %s\n", len(snap.Documents), args[0])
	return nil
}

func runImport(_ *cobra.Command, args []string) error {
	var (
		data []byte
		err  error
	)
	if args[0] == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	snap, err := persist.Decode(data)
	if err != nil {
		var me *persist.MalformedSaveError
		if errors.As(err, &me) {
			return fmt.Errorf("invalid save file (%s: %s)", me.Field, me.Reason)
		}
		return err
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	// The save time resets so idle catch-up starts from the import.
	if err := store.SaveSlot(ctx, flagSlot, data, time.Now()); err != nil {
		return err
	}
	fmt.Printf("Imported %d documents into slot %s\n", len(snap.Documents), flagSlot)
	return nil
}
