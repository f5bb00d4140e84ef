package tui

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// Prefs holds review-UI preferences that persist across sessions.
type Prefs struct {
	// ContextLines is the number of lines shown either side of a finding
	// in the detail pane.
	ContextLines int `json:"context_lines"`
}

// DefaultPrefs returns the default preferences.
func DefaultPrefs() Prefs {
	return Prefs{ContextLines: 3}
}

func prefsPath() (string, error) {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, "safepush", "tui_prefs.json"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "safepush", "tui_prefs.json"), nil
}

// LoadPrefs loads preferences from disk, returning defaults if not found.
func LoadPrefs() Prefs {
	prefs := DefaultPrefs()

	path, err := prefsPath()
	if err != nil {
		return prefs
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return prefs
	}

	// Ignore unmarshal errors, just use defaults
	_ = json.Unmarshal(data, &prefs)
	if prefs.ContextLines < 1 || prefs.ContextLines > 20 {
		prefs.ContextLines = DefaultPrefs().ContextLines
	}
	return prefs
}

// SavePrefs persists preferences to disk.
func SavePrefs(prefs Prefs) error {
	path, err := prefsPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(prefs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
