package tui

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultPrefs(t *testing.T) {
	prefs := DefaultPrefs()
	if prefs.ContextLines != 3 {
		t.Errorf("DefaultPrefs().ContextLines = %d, want 3", prefs.ContextLines)
	}
}

func TestLoadPrefs_NoFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	prefs := LoadPrefs()
	if prefs.ContextLines != 3 {
		t.Errorf("LoadPrefs() with no file should return defaults, got %d", prefs.ContextLines)
	}
}

func TestSaveAndLoadPrefs(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	if err := SavePrefs(Prefs{ContextLines: 7}); err != nil {
		t.Fatalf("SavePrefs failed: %v", err)
	}

	prefsFile := filepath.Join(tmpDir, "safepush", "tui_prefs.json")
	if _, err := os.Stat(prefsFile); os.IsNotExist(err) {
		t.Fatal("prefs file was not created")
	}

	loaded := LoadPrefs()
	if loaded.ContextLines != 7 {
		t.Errorf("Loaded prefs ContextLines = %d, want 7", loaded.ContextLines)
	}
}

func TestLoadPrefs_ClampsInvalidValues(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)

	dir := filepath.Join(tmpDir, "safepush")
	if err := os.MkdirAll(dir, 0o700); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "tui_prefs.json"), []byte(`{"context_lines": -5}`), 0o600); err != nil {
		t.Fatal(err)
	}

	loaded := LoadPrefs()
	if loaded.ContextLines != 3 {
		t.Errorf("invalid context_lines should clamp to default, got %d", loaded.ContextLines)
	}
}
