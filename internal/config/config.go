package config

import (
	"fmt"
	"time"
)

// Journal drivers.
const (
	DriverCGO    = "sqlite3"
	DriverPureGo = "sqlite"
)

// Config is the root configuration structure.
type Config struct {
	Store  StoreConfig  `json:"store"`
	Kernel KernelConfig `json:"kernel"`
	Editor EditorConfig `json:"editor"`
	Labels LabelsConfig `json:"labels"`
	Keymap KeymapConfig `json:"keymap"`
	UI     UIConfig     `json:"ui"`
}

// StoreConfig locates attribute view files and the transaction journal.
type StoreConfig struct {
	DataDir     string `json:"dataDir"`     // workspace data dir; views live in storage/av
	JournalPath string `json:"journalPath"` // SQLite journal, relative paths resolve under DataDir
	Driver      string `json:"driver"`      // "sqlite3" or "sqlite"
}

// KernelConfig points at a running kernel used for template rendering.
// An empty BaseURL disables template fetches.
type KernelConfig struct {
	BaseURL string        `json:"baseURL"`
	Token   string        `json:"token,omitempty"`
	Timeout time.Duration `json:"timeout"`
}

// EditorConfig configures the cell editor.
type EditorConfig struct {
	Mobile   bool   `json:"mobile"`   // edit in a bottom sheet instead of over the cell
	ShowIcon bool   `json:"showIcon"` // render block icons in cells
	Timezone string `json:"timezone"` // IANA name used to parse dates, "Local" by default
}

// LabelsConfig holds the localized strings rendered into cells.
type LabelsConfig struct {
	More     string `json:"more"`
	Update   string `json:"update"`
	Untitled string `json:"untitled"`
	Checkbox string `json:"checkbox"`
}

// KeymapConfig holds key binding overrides.
type KeymapConfig struct {
	Overrides map[string]string `json:"overrides"`
}

// UIConfig configures UI appearance.
type UIConfig struct {
	ShowFooter bool        `json:"showFooter"`
	Theme      ThemeConfig `json:"theme"`
}

// ThemeConfig configures the color theme.
type ThemeConfig struct {
	Name      string            `json:"name"`
	Overrides map[string]string `json:"overrides,omitempty"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Store: StoreConfig{
			DataDir:     "~/SiYuan/data",
			JournalPath: "storage/av/journal.db",
			Driver:      DriverCGO,
		},
		Kernel: KernelConfig{
			Timeout: 5 * time.Second,
		},
		Editor: EditorConfig{
			ShowIcon: true,
			Timezone: "Local",
		},
		Labels: LabelsConfig{
			More:     "More",
			Update:   "Update",
			Untitled: "Untitled",
			Checkbox: "Checkbox",
		},
		Keymap: KeymapConfig{
			Overrides: make(map[string]string),
		},
		UI: UIConfig{
			ShowFooter: true,
			Theme: ThemeConfig{
				Name:      "default",
				Overrides: make(map[string]string),
			},
		},
	}
}

// Validate checks the configuration for errors, repairing values that
// have a sensible default.
func (c *Config) Validate() error {
	if c.Kernel.Timeout <= 0 {
		c.Kernel.Timeout = 5 * time.Second
	}
	switch c.Store.Driver {
	case "":
		c.Store.Driver = DriverCGO
	case DriverCGO, DriverPureGo:
	default:
		return fmt.Errorf("store.driver: unknown driver %q", c.Store.Driver)
	}
	if c.Store.DataDir == "" {
		return fmt.Errorf("store.dataDir: must not be empty")
	}
	if _, err := time.LoadLocation(c.Editor.Timezone); err != nil {
		return fmt.Errorf("editor.timezone: %w", err)
	}
	return nil
}

// Location returns the time zone used to interpret typed dates.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Editor.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}
