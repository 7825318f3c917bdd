// Package state persists the set of already-handled post IDs across runs.
package state

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"tradebot/internal/domain"
)

// FileStore implements domain.ProcessedStore on a single JSON file holding
// an array of post ID strings.
type FileStore struct {
	path   string
	logger *slog.Logger
}

func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Load() (*domain.ProcessedSet, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.logger.Info("no prior state file, starting empty", "path", s.path)
		return domain.NewProcessedSet(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read state file %s: %w", s.path, err)
	}

	set := domain.NewProcessedSet()
	if err := json.Unmarshal(data, set); err != nil {
		return nil, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	return set, nil
}

// Save overwrites the state file in full. It writes to a temp file in the
// same directory and renames it into place so a crash mid-write leaves the
// previous state intact.
func (s *FileStore) Save(set *domain.ProcessedSet) error {
	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create state directory %s: %w", dir, err)
	}

	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file %s: %w", s.path, err)
	}

	s.logger.Debug("state saved", "path", s.path, "ids", set.Len())
	return nil
}
