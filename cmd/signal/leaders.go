package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/signal-archive/internal/platform/tui"
	"github.com/vovakirdan/signal-archive/internal/storage"
)

var (
	flagLimit       int
	flagSessions    bool
	flagInteractive bool
)

var leadersCmd = &cobra.Command{
	Use:   "leaders",
	Short: "Rank slots by total matches",
	Long: `Display the save slots with the most matches. With --sessions, the
recent play sessions of the selected slot are listed instead.

Examples:
  signal leaders
  signal leaders --limit 25
  signal leaders --sessions --slot alice
  signal leaders -i`,
	Args: cobra.NoArgs,
	RunE: runLeaders,
}

func init() {
	leadersCmd.Flags().IntVar(&flagLimit, "limit", 10, "Number of entries to show")
	leadersCmd.Flags().BoolVar(&flagSessions, "sessions", false, "List recent sessions of --slot")
	leadersCmd.Flags().BoolVarP(&flagInteractive, "interactive", "i", false, "Browse leaders and sessions in a table")
}

func runLeaders(_ *cobra.Command, _ []string) error {
	store, err := storage.Open(flagDBPath)
	if err != nil {
		return fmt.Errorf("opening save database: %w", err)
	}
	defer store.Close()

	if flagInteractive {
		width, height := 80, 24
		if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
			width, height = w, h
		}
		return tui.RunLeaders(store, width, height)
	}

	ctx, cancel := context.WithTimeout(context.Background(), commandTimeout)
	defer cancel()

	if flagSessions {
		return printSessions(ctx, store)
	}

	leaders, err := store.Leaders(ctx, flagLimit)
	if err != nil {
		return err
	}

	fmt.Println("Signal Archive - Leaders")
	fmt.Println()
	if len(leaders) == 0 {
		fmt.Println("No saves recorded yet.")
		fmt.Println()
		fmt.Println("Play 'signal play' to open the first archive!")
		return nil
	}

	fmt.Printf("  %-4s  %-16s  %-8s  %-9s  %-9s  %s\n", "Rank", "Slot", "Matches", "Documents", "Fragments", "Saved")
	fmt.Printf("  %-4s  %-16s  %-8s  %-9s  %-9s  %s\n", "----", "----", "-------", "---------", "---------", "-----")
	for i, l := range leaders {
		fmt.Printf("  %-4d  %-16s  %-8d  %-9d  %-9d  %s\n",
			i+1, l.Slot, l.TotalMatches, l.TotalDocuments, l.Fragments, l.SavedAt.Local().Format("2006-01-02 15:04"))
	}
	return nil
}

func printSessions(ctx context.Context, store *storage.Store) error {
	sessions, err := store.RecentSessions(ctx, flagSlot, flagLimit)
	if err != nil {
		return err
	}

	fmt.Printf("Recent sessions - %s\n", flagSlot)
	fmt.Println()
	if len(sessions) == 0 {
		fmt.Println("No sessions recorded yet.")
		return nil
	}

	fmt.Printf("  %-16s  %-8s  %-9s  %s\n", "Date", "Matches", "Documents", "Duration")
	for _, s := range sessions {
		fmt.Printf("  %-16s  %-8d  %-9d  %ds\n",
			s.CreatedAt.Local().Format("2006-01-02 15:04"), s.Matches, s.Documents, s.Duration)
	}
	return nil
}
