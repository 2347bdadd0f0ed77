package styles

import (
	"regexp"
	"sort"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

var themeMu sync.RWMutex

var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}([0-9A-Fa-f]{2})?$`)

// ColorPalette holds all theme colors.
type ColorPalette struct {
	Primary   string `json:"primary"`
	Secondary string `json:"secondary"`
	Accent    string `json:"accent"`
	Success   string `json:"success"`
	Error     string `json:"error"`

	TextPrimary   string `json:"textPrimary"`
	TextSecondary string `json:"textSecondary"`
	TextMuted     string `json:"textMuted"`

	BgPrimary   string `json:"bgPrimary"`
	BgSecondary string `json:"bgSecondary"`
	BgTertiary  string `json:"bgTertiary"`

	BorderNormal string `json:"borderNormal"`
	BorderActive string `json:"borderActive"`
	Link         string `json:"link"`

	SyntaxTheme   string `json:"syntaxTheme"`   // Chroma style name
	MarkdownTheme string `json:"markdownTheme"` // Glamour style name
}

// Theme is a named palette.
type Theme struct {
	Name        string       `json:"name"`
	DisplayName string       `json:"displayName"`
	Colors      ColorPalette `json:"colors"`
}

// Built-in themes.
var (
	DefaultTheme = Theme{
		Name:        "default",
		DisplayName: "Default Dark",
		Colors: ColorPalette{
			Primary:       "#7C3AED",
			Secondary:     "#3B82F6",
			Accent:        "#F59E0B",
			Success:       "#10B981",
			Error:         "#EF4444",
			TextPrimary:   "#F9FAFB",
			TextSecondary: "#9CA3AF",
			TextMuted:     "#6B7280",
			BgPrimary:     "#111827",
			BgSecondary:   "#1F2937",
			BgTertiary:    "#374151",
			BorderNormal:  "#374151",
			BorderActive:  "#7C3AED",
			Link:          "#60A5FA",
			SyntaxTheme:   "monokai",
			MarkdownTheme: "dark",
		},
	}

	DraculaTheme = Theme{
		Name:        "dracula",
		DisplayName: "Dracula",
		Colors: ColorPalette{
			Primary:       "#BD93F9",
			Secondary:     "#8BE9FD",
			Accent:        "#FFB86C",
			Success:       "#50FA7B",
			Error:         "#FF5555",
			TextPrimary:   "#F8F8F2",
			TextSecondary: "#BFBFBF",
			TextMuted:     "#6272A4",
			BgPrimary:     "#282A36",
			BgSecondary:   "#343746",
			BgTertiary:    "#44475A",
			BorderNormal:  "#44475A",
			BorderActive:  "#BD93F9",
			Link:          "#8BE9FD",
			SyntaxTheme:   "dracula",
			MarkdownTheme: "dracula",
		},
	}

	LightTheme = Theme{
		Name:        "light",
		DisplayName: "Light",
		Colors: ColorPalette{
			Primary:       "#6D28D9",
			Secondary:     "#2563EB",
			Accent:        "#B45309",
			Success:       "#047857",
			Error:         "#B91C1C",
			TextPrimary:   "#111827",
			TextSecondary: "#374151",
			TextMuted:     "#6B7280",
			BgPrimary:     "#FFFFFF",
			BgSecondary:   "#F3F4F6",
			BgTertiary:    "#E5E7EB",
			BorderNormal:  "#D1D5DB",
			BorderActive:  "#6D28D9",
			Link:          "#2563EB",
			SyntaxTheme:   "github",
			MarkdownTheme: "light",
		},
	}
)

var themeRegistry = map[string]Theme{
	DefaultTheme.Name: DefaultTheme,
	DraculaTheme.Name: DraculaTheme,
	LightTheme.Name:   LightTheme,
}

var currentTheme = "default"

// IsValidHexColor reports whether hex is #RRGGBB or #RRGGBBAA.
func IsValidHexColor(hex string) bool {
	return hexColorRegex.MatchString(hex)
}

// IsValidTheme reports whether name is a registered theme.
func IsValidTheme(name string) bool {
	themeMu.RLock()
	defer themeMu.RUnlock()
	_, ok := themeRegistry[name]
	return ok
}

// GetTheme returns the named theme, or the default theme.
func GetTheme(name string) Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	if t, ok := themeRegistry[name]; ok {
		return t
	}
	return DefaultTheme
}

// GetCurrentThemeName returns the name of the applied theme.
func GetCurrentThemeName() string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

// ListThemes returns the registered theme names, sorted.
func ListThemes() []string {
	themeMu.RLock()
	defer themeMu.RUnlock()
	names := make([]string, 0, len(themeRegistry))
	for name := range themeRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ApplyTheme applies a theme by name with color overrides from config.
// Invalid hex colors in overrides are ignored.
func ApplyTheme(name string, overrides map[string]string) {
	theme := GetTheme(name)
	for key, value := range overrides {
		applyOverride(&theme.Colors, key, value)
	}
	applyColors(theme.Colors)

	themeMu.Lock()
	currentTheme = theme.Name
	themeMu.Unlock()
}

func applyOverride(p *ColorPalette, key, value string) {
	switch key {
	case "syntaxTheme":
		p.SyntaxTheme = value
		return
	case "markdownTheme":
		p.MarkdownTheme = value
		return
	}
	if !IsValidHexColor(value) {
		return
	}
	fields := map[string]*string{
		"primary":       &p.Primary,
		"secondary":     &p.Secondary,
		"accent":        &p.Accent,
		"success":       &p.Success,
		"error":         &p.Error,
		"textPrimary":   &p.TextPrimary,
		"textSecondary": &p.TextSecondary,
		"textMuted":     &p.TextMuted,
		"bgPrimary":     &p.BgPrimary,
		"bgSecondary":   &p.BgSecondary,
		"bgTertiary":    &p.BgTertiary,
		"borderNormal":  &p.BorderNormal,
		"borderActive":  &p.BorderActive,
		"link":          &p.Link,
	}
	if f, ok := fields[key]; ok {
		*f = value
	}
}

func applyColors(p ColorPalette) {
	Primary = lipgloss.Color(p.Primary)
	Secondary = lipgloss.Color(p.Secondary)
	Accent = lipgloss.Color(p.Accent)
	Success = lipgloss.Color(p.Success)
	Error = lipgloss.Color(p.Error)
	TextPrimary = lipgloss.Color(p.TextPrimary)
	TextSecondary = lipgloss.Color(p.TextSecondary)
	TextMuted = lipgloss.Color(p.TextMuted)
	BgPrimary = lipgloss.Color(p.BgPrimary)
	BgSecondary = lipgloss.Color(p.BgSecondary)
	BgTertiary = lipgloss.Color(p.BgTertiary)
	BorderNormal = lipgloss.Color(p.BorderNormal)
	BorderActive = lipgloss.Color(p.BorderActive)
	LinkColor = lipgloss.Color(p.Link)
	CurrentSyntaxTheme = p.SyntaxTheme
	CurrentMarkdownTheme = p.MarkdownTheme
	rebuild()
}
