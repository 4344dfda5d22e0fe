// Package workdir provides the layout of the bot's data directory.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
)

// Root returns the base directory for all bot data. An empty override
// resolves to:
//
//	$HOME/.fictionbot
func Root(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	return filepath.Join(home, ".fictionbot"), nil
}

// Layout names the files under a data directory.
type Layout struct {
	Root string
}

// New resolves the data directory (see Root) into a Layout.
func New(override string) (Layout, error) {
	root, err := Root(override)
	if err != nil {
		return Layout{}, err
	}
	return Layout{Root: root}, nil
}

// StateFile is the persisted session.
func (l Layout) StateFile() string {
	return filepath.Join(l.Root, "state.json")
}

// ArchiveDir holds stories replaced by /new_story.
func (l Layout) ArchiveDir() string {
	return filepath.Join(l.Root, "archive")
}

// ExportDir holds copies of every exported manuscript.
func (l Layout) ExportDir() string {
	return filepath.Join(l.Root, "exports")
}

// Prep ensures that the data directory and its subdirectories exist.
func (l Layout) Prep() error {
	for _, dir := range []string{l.Root, l.ArchiveDir(), l.ExportDir()} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return fmt.Errorf("failed to create data directory %s: %w", dir, err)
		}
	}

	return nil
}
