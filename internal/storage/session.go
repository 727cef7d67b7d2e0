package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/valter-silva-au/planwise/pkg/models"
	"gopkg.in/yaml.v3"
)

// SessionManager persists the bearer token issued by the backend. It also
// serves as the token source for the REST client.
type SessionManager interface {
	Load() error
	Save() error
	Get() models.Session
	Set(session models.Session)
	Clear() error
	Token() string
}

type fileSessionManager struct {
	basePath string
	mu       sync.RWMutex
	session  models.Session
	now      func() time.Time
}

// NewSessionManager creates a SessionManager backed by session.yaml in the
// given base directory.
func NewSessionManager(basePath string) SessionManager {
	return &fileSessionManager{basePath: basePath, now: time.Now}
}

func (m *fileSessionManager) filePath() string {
	return filepath.Join(m.basePath, "session.yaml")
}

// Load reads the session file. A missing file means logged out.
func (m *fileSessionManager) Load() error {
	data, err := os.ReadFile(m.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			m.mu.Lock()
			m.session = models.Session{}
			m.mu.Unlock()
			return nil
		}
		return fmt.Errorf("loading session: %w", err)
	}

	var s models.Session
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("loading session: parsing YAML: %w", err)
	}
	m.mu.Lock()
	m.session = s
	m.mu.Unlock()
	return nil
}

// Save writes the session file, readable by the owner only.
func (m *fileSessionManager) Save() error {
	m.mu.RLock()
	s := m.session
	m.mu.RUnlock()

	if err := os.MkdirAll(m.basePath, 0o750); err != nil {
		return fmt.Errorf("saving session: creating directory: %w", err)
	}
	data, err := yaml.Marshal(&s)
	if err != nil {
		return fmt.Errorf("saving session: marshaling YAML: %w", err)
	}
	if err := os.WriteFile(m.filePath(), data, 0o600); err != nil {
		return fmt.Errorf("saving session: writing file: %w", err)
	}
	return nil
}

func (m *fileSessionManager) Get() models.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session
}

// Set replaces the in-memory session and stamps it. Call Save to persist.
func (m *fileSessionManager) Set(session models.Session) {
	if session.SavedAt.IsZero() {
		session.SavedAt = m.now().UTC()
	}
	m.mu.Lock()
	m.session = session
	m.mu.Unlock()
}

// Clear forgets the session and removes the file.
func (m *fileSessionManager) Clear() error {
	m.mu.Lock()
	m.session = models.Session{}
	m.mu.Unlock()

	if err := os.Remove(m.filePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("clearing session: %w", err)
	}
	return nil
}

func (m *fileSessionManager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.session.Token
}
