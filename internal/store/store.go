// Package store persists the bot session, archived stories and exported manuscripts
// as files under the data directory.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/alkime/fictionbot/internal/story"
	"github.com/alkime/fictionbot/internal/workdir"
)

// FileStore keeps state in JSON files. Every write goes to a temp file in the
// target directory and is renamed into place.
type FileStore struct {
	layout workdir.Layout
	logger *slog.Logger
	mu     sync.Mutex

	// Now names archive files.
	Now func() time.Time
}

// New creates a FileStore, preparing the directory layout.
func New(layout workdir.Layout, logger *slog.Logger) (*FileStore, error) {
	if err := layout.Prep(); err != nil {
		return nil, err
	}

	return &FileStore{
		layout: layout,
		logger: logger,
		Now:    time.Now,
	}, nil
}

// Load reads the persisted session. A missing state file yields an empty session.
func (s *FileStore) Load() (*story.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.layout.StateFile()
	//nolint:gosec // Path is built from the configured data directory
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Info("No saved state, starting fresh", "path", path)
		return &story.Session{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read state file %s: %w", path, err)
	}

	var session story.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to parse state file %s: %w", path, err)
	}

	s.logger.Info("Loaded state",
		"path", path,
		"chapters", len(session.Story.Chapters),
		"has_profile", session.HasProfile(),
	)

	return &session, nil
}

// Save writes the whole session.
func (s *FileStore) Save(session *story.Session) error {
	data, err := json.MarshalIndent(session, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode state: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return writeAtomic(s.layout.StateFile(), data)
}

// Archive writes a replaced story to the archive directory and returns its path.
func (s *FileStore) Archive(st story.Story) (string, error) {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode archived story: %w", err)
	}

	name := fmt.Sprintf("story_%s.json", s.Now().UTC().Format("20060102T150405Z"))
	path := filepath.Join(s.layout.ArchiveDir(), name)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(path, data); err != nil {
		return "", err
	}

	s.logger.Info("Archived story", "path", path, "chapters", len(st.Chapters))

	return path, nil
}

// SaveExport writes a copy of an exported manuscript and returns its path.
func (s *FileStore) SaveExport(name string, data []byte) (string, error) {
	path := filepath.Join(s.layout.ExportDir(), filepath.Base(name))

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := writeAtomic(path, data); err != nil {
		return "", err
	}

	return path, nil
}

// ExportDir is where SaveExport writes.
func (s *FileStore) ExportDir() string {
	return s.layout.ExportDir()
}

func writeAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file %s: %w", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file %s: %w", tmpPath, err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}

	return nil
}
