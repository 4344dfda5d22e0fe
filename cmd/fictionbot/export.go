package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alkime/fictionbot/internal/export"
)

// ExportCmd writes the current story's approved chapters to disk.
type ExportCmd struct {
	Output string `arg:"" optional:"" help:"Output file path (default: the exports directory)"`
}

// Run executes the export command.
func (c *ExportCmd) Run() error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openState(cfg, cliLogger(os.Stderr))
	if err != nil {
		return err
	}

	m, err := export.Build(&st.session.Story, st.session.Ledger.Totals.TotalSpent, time.Now())
	if err != nil {
		return fmt.Errorf("failed to build manuscript: %w", err)
	}

	path := c.Output
	if path == "" {
		if path, err = st.store.SaveExport(m.Filename, m.Content); err != nil {
			return fmt.Errorf("failed to save manuscript: %w", err)
		}
	} else if err := os.WriteFile(path, m.Content, 0o600); err != nil {
		return fmt.Errorf("failed to write manuscript: %w", err)
	}

	fmt.Println(m.Caption())
	fmt.Printf("Saved to %s\n", path)

	return nil
}
