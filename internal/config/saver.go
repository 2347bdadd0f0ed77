package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// saveConfig is the JSON-marshaling intermediary that uses string durations.
type saveConfig struct {
	Store  StoreConfig      `json:"store"`
	Kernel saveKernelConfig `json:"kernel"`
	Editor EditorConfig     `json:"editor"`
	Labels LabelsConfig     `json:"labels"`
	Keymap KeymapConfig     `json:"keymap"`
	UI     UIConfig         `json:"ui"`
}

type saveKernelConfig struct {
	BaseURL string `json:"baseURL,omitempty"`
	Token   string `json:"token,omitempty"`
	Timeout string `json:"timeout,omitempty"`
}

func toSaveConfig(cfg *Config) saveConfig {
	sc := saveConfig{
		Store:  cfg.Store,
		Editor: cfg.Editor,
		Labels: cfg.Labels,
		Keymap: cfg.Keymap,
		UI:     cfg.UI,
		Kernel: saveKernelConfig{
			BaseURL: cfg.Kernel.BaseURL,
			Token:   cfg.Kernel.Token,
		},
	}
	if cfg.Kernel.Timeout > 0 {
		sc.Kernel.Timeout = cfg.Kernel.Timeout.String()
	}
	return sc
}

// Save writes the config to ~/.config/attrview/config.json
func Save(cfg *Config) error {
	return SaveTo(ConfigPath(), cfg)
}

// SaveTo writes the config to path. Top-level keys this version does not
// know about are preserved.
func SaveTo(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}

	data, err := json.Marshal(toSaveConfig(cfg))
	if err != nil {
		return err
	}
	merged := make(map[string]json.RawMessage)
	if existing, err := os.ReadFile(path); err == nil {
		_ = json.Unmarshal(existing, &merged)
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	for k, v := range known {
		merged[k] = v
	}

	out, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, out, 0644)
}

// SaveTheme updates only the theme name in the config at path.
func SaveTheme(path, themeName string) error {
	cfg, err := LoadFrom(path)
	if err != nil {
		return err
	}
	cfg.UI.Theme.Name = themeName
	return SaveTo(path, cfg)
}
