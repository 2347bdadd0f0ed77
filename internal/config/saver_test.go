package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestSave_PreservesUnknownKeys(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	initial := []byte(`{"customKey": "should survive", "store": {"dataDir": "/old"}}`)
	if err := os.WriteFile(path, initial, 0644); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	cfg.Store.DataDir = "/new"
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal saved config: %v", err)
	}
	if _, ok := raw["customKey"]; !ok {
		t.Error("SaveTo deleted 'customKey'")
	}
	for _, key := range []string{"store", "kernel", "editor", "labels", "keymap", "ui"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("SaveTo did not write %q", key)
		}
	}
}

func TestSave_RoundTripsDurations(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.json")

	cfg := Default()
	cfg.Store.DataDir = dir
	cfg.Kernel.Timeout = 1500 * time.Millisecond
	cfg.Editor.Mobile = true
	if err := SaveTo(path, cfg); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.Kernel.Timeout != 1500*time.Millisecond {
		t.Errorf("got timeout %v", loaded.Kernel.Timeout)
	}
	if !loaded.Editor.Mobile {
		t.Error("mobile flag lost")
	}
}

func TestSaveTheme(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	if err := os.WriteFile(path, []byte(`{"store": {"dataDir": "`+filepath.ToSlash(dir)+`"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	if err := SaveTheme(path, "dracula"); err != nil {
		t.Fatalf("SaveTheme failed: %v", err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.UI.Theme.Name != "dracula" {
		t.Errorf("got theme %q", cfg.UI.Theme.Name)
	}
}
