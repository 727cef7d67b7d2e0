package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/valter-silva-au/planwise/pkg/models"
	"gopkg.in/yaml.v3"
)

// SnapshotFile is the on-disk form of the last synced task list.
type SnapshotFile struct {
	Version string        `yaml:"version"`
	SavedAt time.Time     `yaml:"saved_at"`
	Tasks   []models.Task `yaml:"tasks"`
}

// SnapshotStore keeps a copy of the last successfully reloaded task list so
// it can be shown read-only while the backend is unreachable.
type SnapshotStore interface {
	SaveTasks(tasks []models.Task) error
	LoadTasks() (*SnapshotFile, error)
}

type fileSnapshotStore struct {
	basePath string
	now      func() time.Time
}

// NewSnapshotStore creates a SnapshotStore backed by tasks_snapshot.yaml in
// the given base directory.
func NewSnapshotStore(basePath string) SnapshotStore {
	return &fileSnapshotStore{basePath: basePath, now: time.Now}
}

func (s *fileSnapshotStore) filePath() string {
	return filepath.Join(s.basePath, "tasks_snapshot.yaml")
}

func (s *fileSnapshotStore) SaveTasks(tasks []models.Task) error {
	if err := os.MkdirAll(s.basePath, 0o750); err != nil {
		return fmt.Errorf("saving snapshot: creating directory: %w", err)
	}
	// The TUI and an MCP server may reload at the same time.
	unlock, err := lockFile(s.filePath() + ".lock")
	if err != nil {
		return fmt.Errorf("saving snapshot: %w", err)
	}
	defer func() { _ = unlock() }()

	snap := SnapshotFile{Version: "1.0", SavedAt: s.now().UTC(), Tasks: tasks}
	data, err := yaml.Marshal(&snap)
	if err != nil {
		return fmt.Errorf("saving snapshot: marshaling YAML: %w", err)
	}

	// Readers only ever see a complete file.
	tmp := s.filePath() + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("saving snapshot: writing file: %w", err)
	}
	if err := os.Rename(tmp, s.filePath()); err != nil {
		return fmt.Errorf("saving snapshot: replacing file: %w", err)
	}
	return nil
}

// LoadTasks returns the saved snapshot, or nil when none exists.
func (s *fileSnapshotStore) LoadTasks() (*SnapshotFile, error) {
	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("loading snapshot: %w", err)
	}
	var snap SnapshotFile
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("loading snapshot: parsing YAML: %w", err)
	}
	return &snap, nil
}
