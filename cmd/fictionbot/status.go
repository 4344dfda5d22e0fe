package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/alkime/fictionbot/internal/bot"
	"github.com/alkime/fictionbot/internal/export"
)

// StatusCmd prints the same snapshot the /status endpoint serves.
type StatusCmd struct {
	JSON bool `flag:"" help:"Print the snapshot as JSON"`
}

// Run executes the status command.
func (c *StatusCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openState(cfg, cliLogger(os.Stderr))
	if err != nil {
		return err
	}

	snap := bot.Snapshot(st.session, newMeter(cfg), time.Now())

	if c.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(snap); err != nil {
			return fmt.Errorf("failed to encode status: %w", err)
		}
		return nil
	}

	title := snap.Title
	if title == "" {
		title = "Not set"
	}

	fmt.Printf("Data dir:   %s\n", st.layout.Root)
	fmt.Printf("Today:      %d/%d messages, $%.4f/$%.2f spent\n",
		snap.MessagesUsed, snap.MessageLimit, snap.SpendEstimate, snap.SpendLimit)
	fmt.Printf("Story:      %s\n", title)
	fmt.Printf("Chapters:   %d approved of %d planned (%s words)\n",
		snap.ChaptersApproved, snap.ChaptersPlanned, export.Thousands(snap.StoryWords))
	if snap.ActiveDraft != nil {
		fmt.Printf("Draft:      Chapter %d v%d\n", snap.ActiveDraft.Number, snap.ActiveDraft.Version)
	}
	fmt.Printf("All time:   %d chapters, %s words, $%.4f, %d stories completed\n",
		snap.Totals.TotalChapters, export.Thousands(snap.Totals.TotalWords),
		snap.Totals.TotalSpent, snap.Totals.StoriesCompleted)

	return nil
}
