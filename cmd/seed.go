package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/photo-diary/internal/config"
	"github.com/kozaktomas/photo-diary/internal/database"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Load diary entries from a JSON file",
	Long: `Loads entries into the configured entry store, replacing any existing
entry of the same owner and date.

The file holds a JSON array:
  [{"owner": "alice", "date": "2026-03-02", "note": "...", "photo": "photos/a.jpg",
    "stickers": [{"kind": "emoji", "emoji": "🌞", "x": 0.8, "y": 0.1, "scale": 1}],
    "liked": true}]`,
	RunE: runSeed,
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().String("file", "entries.json", "JSON file with entries")
	seedCmd.Flags().String("owner", "", "Owner for entries without one (defaults to DIARY_OWNER)")
}

// seedEntry is the file form of an entry; dates are plain YYYY-MM-DD.
type seedEntry struct {
	Owner    string             `json:"owner"`
	Date     string             `json:"date"`
	Note     string             `json:"note"`
	Photo    string             `json:"photo"`
	Stickers []database.Sticker `json:"stickers"`
	Liked    bool               `json:"liked"`
}

// parseSeedFile decodes r into entries, filling in defaultOwner.
func parseSeedFile(r io.Reader, defaultOwner string) ([]database.Entry, error) {
	var raw []seedEntry
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}

	result := make([]database.Entry, 0, len(raw))
	for i, s := range raw {
		owner := strings.TrimSpace(s.Owner)
		if owner == "" {
			owner = defaultOwner
		}
		if owner == "" {
			return nil, fmt.Errorf("entry %d: owner is required", i)
		}
		date, err := database.ParseDate(s.Date)
		if err != nil {
			return nil, fmt.Errorf("entry %d: invalid date %q", i, s.Date)
		}
		result = append(result, database.Entry{
			Owner:     owner,
			Date:      date,
			Note:      s.Note,
			PhotoPath: strings.TrimSpace(s.Photo),
			Stickers:  s.Stickers,
			Liked:     s.Liked,
		})
	}
	return result, nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	cfg := config.Load()

	path := mustGetString(cmd, "file")
	owner := mustGetString(cmd, "owner")
	if owner == "" {
		owner = cfg.Export.DefaultOwner
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	list, err := parseSeedFile(f, owner)
	if err != nil {
		return err
	}
	if len(list) == 0 {
		return errors.New("no entries in file")
	}

	closeStore, err := initEntryStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore()

	ctx := context.Background()
	writer, err := database.GetEntryWriter(ctx)
	if err != nil {
		return err
	}

	for i := range list {
		if err := writer.SaveEntry(ctx, &list[i]); err != nil {
			return fmt.Errorf("failed to save entry %s: %w", list[i].DateKey(), err)
		}
	}
	fmt.Printf("Seeded %d entries into the %s store\n", len(list), database.BackendName())
	return nil
}
