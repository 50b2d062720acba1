package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"
)

// Settings holds the client configuration. All fields have working
// defaults; a missing settings file is not an error.
type Settings struct {
	APIBaseURL            string `json:"apiBaseUrl"`
	RequestTimeoutSeconds int    `json:"requestTimeoutSeconds"`
	DatabasePath          string `json:"databasePath"`
	LogPath               string `json:"logPath"`
}

// DefaultSettings returns the settings used when no file exists yet.
// Paths are relative to dataDir.
func DefaultSettings(dataDir string) Settings {
	return Settings{
		APIBaseURL:            "https://hack-or-snooze-v3.herokuapp.com",
		RequestTimeoutSeconds: 30,
		DatabasePath:          filepath.Join(dataDir, "sessions.db"),
		LogPath:               filepath.Join(dataDir, "hackersnooze.log"),
	}
}

// Manager loads and saves the settings file. The filesystem is an afero
// handle so tests can run against an in-memory fs.
type Manager struct {
	fs      afero.Fs
	path    string
	dataDir string

	mu     sync.RWMutex
	cached *Settings
}

// NewManager creates a manager over the real filesystem. The settings
// file lives inside dataDir.
func NewManager(dataDir string) *Manager {
	return NewManagerWithFs(afero.NewOsFs(), dataDir)
}

// NewManagerWithFs creates a manager over the given filesystem.
func NewManagerWithFs(fs afero.Fs, dataDir string) *Manager {
	return &Manager{
		fs:      fs,
		path:    filepath.Join(dataDir, "config.json"),
		dataDir: dataDir,
	}
}

// Load returns the current settings, reading the file on first use. A
// missing file yields the defaults.
func (m *Manager) Load() (Settings, error) {
	m.mu.RLock()
	if m.cached != nil {
		s := *m.cached
		m.mu.RUnlock()
		return s, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cached != nil {
		return *m.cached, nil
	}

	settings := DefaultSettings(m.dataDir)

	raw, err := afero.ReadFile(m.fs, m.path)
	if os.IsNotExist(err) {
		m.cached = &settings
		return settings, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}

	if err := json.Unmarshal(raw, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse settings %s: %w", m.path, err)
	}

	m.cached = &settings
	return settings, nil
}

// Save writes the settings file and updates the cache.
func (m *Manager) Save(settings Settings) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.fs.MkdirAll(m.dataDir, 0755); err != nil {
		return fmt.Errorf("create settings directory: %w", err)
	}

	raw, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	if err := afero.WriteFile(m.fs, m.path, raw, 0644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	m.cached = &settings
	return nil
}
