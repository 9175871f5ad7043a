package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/signal-archive/internal/archive"
	"github.com/vovakirdan/signal-archive/internal/storage"
)

var flagShowContent bool

var docsCmd = &cobra.Command{
	Use:   "docs [folder]",
	Short: "List the documents of a slot",
	Long: `List archived documents in filing order. Without a folder, every
document is listed.

Folders: inbox, archived, priority

Examples:
  signal docs
  signal docs priority
  signal docs inbox --content`,
	Args: cobra.MaximumNArgs(1),
	RunE: runDocs,
}

func init() {
	docsCmd.Flags().BoolVar(&flagShowContent, "content", false, "Print document contents")
}

func runDocs(_ *cobra.Command, args []string) error {
	var filter archive.Folder
	if len(args) == 1 {
		filter = archive.Folder(args[0])
		if !filter.Valid() {
			return fmt.Errorf("%w: %q", archive.ErrUnknownFolder, args[0])
		}
	}

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

	a := archive.New(nil, nil, nil)
	if err := a.Restore(snap.Documents, snap.Folders); err != nil {
		return err
	}

	folders := archive.Folders
	if filter != "" {
		folders = []archive.Folder{filter}
	}

	for _, f := range folders {
		docs := a.Folder(f)
		fmt.Printf("%s (%d)\n", f, len(docs))
		for _, d := range docs {
			fmt.Printf("  %-14s %-12s %-8s %s\n", d.Name, d.Type, d.Frequency, d.CreatedAt.Local().Format("2006-01-02 15:04"))
			if flagShowContent {
				fmt.Println()
				fmt.Println(indent(d.Content, "    "))
				fmt.Println()
			}
		}
	}
	return nil
}

func indent(s, prefix string) string {
	return prefix + strings.ReplaceAll(s, "\n", "\n"+prefix)
}
