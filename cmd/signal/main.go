// signal is the Signal Archive: an idle match-3 game about decoding
// transmissions, played in the terminal or over SSH.
//
// Usage:
//
//	signal play              - Play in this terminal
//	signal serve             - Start SSH server for remote play
//	signal status            - Show the progress stored in a slot
//	signal docs [folder]     - List the documents of a slot
//	signal export [file]     - Write a slot's save as JSON
//	signal import <file>     - Replace a slot's save from JSON
//	signal reset --yes       - Erase a slot
//	signal leaders           - Rank slots by total matches
//
// Global flags:
//
//	--db <path>      - Set database path (default: ~/.signal-archive/archive.db)
//	--seed <value>   - Set RNG seed for reproducible gameplay
//	--config <path>  - Set game config YAML
//	--slot <name>    - Set save slot (default: local)
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/signal-archive/internal/config"
)

var (
	// Global flags
	flagDBPath string
	flagSeed   int64
	flagConfig string
	flagSlot   string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "signal",
	Short: "Signal Archive - decode the transmissions",
	Long: `Signal Archive is an idle match-3 game. Matching tiles on the signal
grid and leaving the decoders running fills an archive of intercepted
documents. Something in them is listening back.

Available commands:
  play     - Play in this terminal
  serve    - Start SSH server for remote play
  status   - Show stored progress
  docs     - List archived documents
  export   - Export a save as JSON
  import   - Import a save from JSON
  reset    - Erase a save slot
  leaders  - Slot leaderboard

Examples:
  signal play
  signal play --slot night-shift --seed 42
  signal serve --ssh :2222
  signal docs priority
  signal export backup.json`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDBPath, "db", config.DefaultDBPath(), "Path to save database")
	rootCmd.PersistentFlags().Int64Var(&flagSeed, "seed", 0, "RNG seed (0 = random)")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to custom game config YAML")
	rootCmd.PersistentFlags().StringVar(&flagSlot, "slot", "local", "Save slot name")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(docsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(leadersCmd)
}
