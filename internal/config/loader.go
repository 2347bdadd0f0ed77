package config

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	configDir  = ".config/attrview"
	configFile = "config.json"
)

// rawConfig is the JSON-unmarshaling intermediary.
type rawConfig struct {
	Store  rawStoreConfig  `json:"store"`
	Kernel rawKernelConfig `json:"kernel"`
	Editor rawEditorConfig `json:"editor"`
	Labels LabelsConfig    `json:"labels"`
	Keymap KeymapConfig    `json:"keymap"`
	UI     rawUIConfig     `json:"ui"`
}

type rawStoreConfig struct {
	DataDir     string `json:"dataDir"`
	JournalPath string `json:"journalPath"`
	Driver      string `json:"driver"`
}

type rawKernelConfig struct {
	BaseURL string `json:"baseURL"`
	Token   string `json:"token"`
	Timeout string `json:"timeout"`
}

type rawEditorConfig struct {
	Mobile   *bool  `json:"mobile"`
	ShowIcon *bool  `json:"showIcon"`
	Timezone string `json:"timezone"`
}

type rawUIConfig struct {
	ShowFooter *bool       `json:"showFooter"`
	Theme      ThemeConfig `json:"theme"`
}

// Load loads configuration from the default location.
func Load() (*Config, error) {
	return LoadFrom("")
}

// LoadFrom loads configuration from a specific path.
// If path is empty, uses ~/.config/attrview/config.json
func LoadFrom(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = ConfigPath()
		if path == "" {
			return finish(cfg)
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return finish(cfg)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	mergeConfig(cfg, &raw)
	return finish(cfg)
}

func finish(cfg *Config) (*Config, error) {
	cfg.Store.DataDir = ExpandPath(cfg.Store.DataDir)
	if p := ExpandPath(cfg.Store.JournalPath); p != "" && !filepath.IsAbs(p) {
		cfg.Store.JournalPath = filepath.Join(cfg.Store.DataDir, p)
	} else {
		cfg.Store.JournalPath = p
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// mergeConfig merges raw config values into the config.
func mergeConfig(cfg *Config, raw *rawConfig) {
	if raw.Store.DataDir != "" {
		cfg.Store.DataDir = raw.Store.DataDir
	}
	if raw.Store.JournalPath != "" {
		cfg.Store.JournalPath = raw.Store.JournalPath
	}
	if raw.Store.Driver != "" {
		cfg.Store.Driver = raw.Store.Driver
	}

	cfg.Kernel.BaseURL = strings.TrimSuffix(raw.Kernel.BaseURL, "/")
	cfg.Kernel.Token = raw.Kernel.Token
	if raw.Kernel.Timeout != "" {
		if d, err := time.ParseDuration(raw.Kernel.Timeout); err == nil {
			cfg.Kernel.Timeout = d
		} else {
			slog.Warn("invalid kernel timeout", "value", raw.Kernel.Timeout, "err", err)
		}
	}

	if raw.Editor.Mobile != nil {
		cfg.Editor.Mobile = *raw.Editor.Mobile
	}
	if raw.Editor.ShowIcon != nil {
		cfg.Editor.ShowIcon = *raw.Editor.ShowIcon
	}
	if raw.Editor.Timezone != "" {
		cfg.Editor.Timezone = raw.Editor.Timezone
	}

	mergeLabel(&cfg.Labels.More, raw.Labels.More)
	mergeLabel(&cfg.Labels.Update, raw.Labels.Update)
	mergeLabel(&cfg.Labels.Untitled, raw.Labels.Untitled)
	mergeLabel(&cfg.Labels.Checkbox, raw.Labels.Checkbox)

	for k, v := range raw.Keymap.Overrides {
		cfg.Keymap.Overrides[k] = v
	}

	if raw.UI.ShowFooter != nil {
		cfg.UI.ShowFooter = *raw.UI.ShowFooter
	}
	if raw.UI.Theme.Name != "" {
		cfg.UI.Theme.Name = raw.UI.Theme.Name
	}
	for k, v := range raw.UI.Theme.Overrides {
		cfg.UI.Theme.Overrides[k] = v
	}
}

func mergeLabel(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ExpandPath expands ~ to home directory.
func ExpandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return path
}

// ConfigPath returns the path to the config file.
func ConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, configDir, configFile)
}
