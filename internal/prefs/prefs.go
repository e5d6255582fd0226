// Package prefs persists reader preferences across sessions: the color theme
// and the last-viewed page. Preferences live in a small JSON file with no
// server round-trip.
package prefs

import (
	"encoding/json"
	"os"
	"path/filepath"
)

const (
	configEnvVar = "TUTORVIEW_CONFIG_DIR"
	configSubdir = "tutorview"
	fileName     = "prefs.json"
)

// Theme is the persisted color preference.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Prefs is the durable reader state. Zero value is not meaningful; use
// Default or Load.
type Prefs struct {
	Theme    Theme `json:"theme"`
	LastPage int   `json:"lastPage"`
}

// Default is the state of a first-time reader.
func Default() Prefs {
	return Prefs{Theme: ThemeLight, LastPage: 1}
}

// Toggle flips between the two themes.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Store reads and writes the preference file.
type Store struct {
	path string
}

// NewStore resolves the preference file location: TUTORVIEW_CONFIG_DIR wins,
// then the user config dir, then the temp dir.
func NewStore() (*Store, error) {
	dir := os.Getenv(configEnvVar)
	if dir == "" {
		base, err := os.UserConfigDir()
		if err != nil {
			base = filepath.Join(os.TempDir(), "tutorview-config")
		}
		dir = filepath.Join(base, configSubdir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{path: filepath.Join(dir, fileName)}, nil
}

// Load reads preferences once at startup. A missing or corrupt file yields
// defaults rather than an error; prefs are never worth refusing to start
// over.
func (s *Store) Load() Prefs {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Default()
	}
	var p Prefs
	if err := json.Unmarshal(data, &p); err != nil {
		return Default()
	}
	if p.Theme != ThemeLight && p.Theme != ThemeDark {
		p.Theme = ThemeLight
	}
	if p.LastPage < 1 {
		p.LastPage = 1
	}
	return p
}

// Save writes preferences, called on every theme toggle and page change.
func (s *Store) Save(p Prefs) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.path, data, 0o644)
}
