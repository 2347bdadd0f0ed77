package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Store.Driver != DriverCGO {
		t.Errorf("got driver %q, want %q", cfg.Store.Driver, DriverCGO)
	}
	if cfg.Kernel.Timeout != 5*time.Second {
		t.Errorf("got timeout %v, want 5s", cfg.Kernel.Timeout)
	}
	if !cfg.Editor.ShowIcon || cfg.Editor.Mobile {
		t.Errorf("unexpected editor defaults %+v", cfg.Editor)
	}
	if cfg.Labels.Untitled != "Untitled" {
		t.Errorf("got untitled label %q", cfg.Labels.Untitled)
	}
}

func TestLoadFrom_NonExistent(t *testing.T) {
	cfg, err := LoadFrom("/nonexistent/path/config.json")
	if err != nil {
		t.Fatalf("should not error on missing file: %v", err)
	}
	if !filepath.IsAbs(cfg.Store.JournalPath) {
		t.Errorf("journal path should resolve under the data dir, got %q", cfg.Store.JournalPath)
	}
}

func TestLoadFrom_ValidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	content := []byte(`{
		"store": {"dataDir": "` + filepath.ToSlash(dir) + `", "driver": "sqlite"},
		"kernel": {"baseURL": "http://127.0.0.1:6806/", "timeout": "2s"},
		"editor": {"mobile": true, "timezone": "UTC"},
		"labels": {"more": "Plus"},
		"keymap": {"overrides": {"x": "edit-cell"}},
		"ui": {"showFooter": false}
	}`)
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}

	if cfg.Store.Driver != DriverPureGo {
		t.Errorf("got driver %q", cfg.Store.Driver)
	}
	if want := filepath.Join(dir, "storage/av/journal.db"); cfg.Store.JournalPath != want {
		t.Errorf("got journal %q, want %q", cfg.Store.JournalPath, want)
	}
	if cfg.Kernel.BaseURL != "http://127.0.0.1:6806" {
		t.Errorf("trailing slash should be trimmed, got %q", cfg.Kernel.BaseURL)
	}
	if cfg.Kernel.Timeout != 2*time.Second {
		t.Errorf("got timeout %v, want 2s", cfg.Kernel.Timeout)
	}
	if !cfg.Editor.Mobile || cfg.Location() != time.UTC {
		t.Errorf("unexpected editor config %+v", cfg.Editor)
	}
	if !cfg.Editor.ShowIcon {
		t.Error("showIcon should keep its default")
	}
	if cfg.Labels.More != "Plus" || cfg.Labels.Update != "Update" {
		t.Errorf("unexpected labels %+v", cfg.Labels)
	}
	if cfg.Keymap.Overrides["x"] != "edit-cell" {
		t.Errorf("keymap override not loaded: %v", cfg.Keymap.Overrides)
	}
	if cfg.UI.ShowFooter {
		t.Error("showFooter should be false")
	}
}

func TestLoadFrom_InvalidJSON(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	if err := os.WriteFile(path, []byte(`{invalid`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFrom(path); err == nil {
		t.Error("should error on invalid JSON")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		input, want string
	}{
		{"~/data", filepath.Join(home, "data")},
		{"/abs/path", "/abs/path"},
		{"relative", "relative"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.input); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"negative timeout repaired", func(c *Config) { c.Kernel.Timeout = -1 }, false},
		{"empty driver repaired", func(c *Config) { c.Store.Driver = "" }, false},
		{"unknown driver", func(c *Config) { c.Store.Driver = "postgres" }, true},
		{"empty data dir", func(c *Config) { c.Store.DataDir = "" }, true},
		{"bad timezone", func(c *Config) { c.Editor.Timezone = "Mars/Olympus" }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (cfg.Kernel.Timeout <= 0 || cfg.Store.Driver == "") {
				t.Errorf("repairable values not repaired: %+v", cfg)
			}
		})
	}
}
