package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/signal-archive/internal/storage"
)

var flagYes bool

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Erase a save slot",
	Long: `Delete the stored save of the selected slot. This cannot be undone;
--yes is required.

Examples:
  signal reset --yes
  signal reset --slot night-shift --yes`,
	Args: cobra.NoArgs,
	RunE: runReset,
}

func init() {
	resetCmd.Flags().BoolVar(&flagYes, "yes", false, "Confirm erasing the slot")
}

func runReset(_ *cobra.Command, _ []string) error {
	if !flagYes {
		return errors.New("refusing to erase slot without --yes")
	}

	store, err := storage.Open(flagDBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if err := store.ClearSlot(ctx, flagSlot); err != nil {
		return err
	}
	fmt.Printf("Slot %s erased\n", flagSlot)
	return nil
}
