package styles

import (
	"testing"

	"github.com/charmbracelet/lipgloss"
)

func TestIsValidHexColor(t *testing.T) {
	tests := []struct {
		input string
		valid bool
	}{
		{"#FF5500", true},
		{"#aabbcc", true},
		{"#00000080", true},
		{"#FFF", false},
		{"#FF55001", false},
		{"FF5500", false},
		{"#GGGGGG", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsValidHexColor(tt.input); got != tt.valid {
			t.Errorf("IsValidHexColor(%q) = %v, want %v", tt.input, got, tt.valid)
		}
	}
}

func TestApplyTheme(t *testing.T) {
	t.Cleanup(func() { ApplyTheme("default", nil) })

	ApplyTheme("dracula", map[string]string{
		"primary":     "#123456",
		"accent":      "not-a-color",
		"syntaxTheme": "nord",
	})
	if GetCurrentThemeName() != "dracula" {
		t.Errorf("current theme = %q", GetCurrentThemeName())
	}
	if Primary != lipgloss.Color("#123456") {
		t.Errorf("override not applied, primary = %v", Primary)
	}
	if Accent != lipgloss.Color(DraculaTheme.Colors.Accent) {
		t.Errorf("invalid override should be ignored, accent = %v", Accent)
	}
	if CurrentSyntaxTheme != "nord" || CurrentMarkdownTheme != "dracula" {
		t.Errorf("theme names = %q %q", CurrentSyntaxTheme, CurrentMarkdownTheme)
	}

	ApplyTheme("missing", nil)
	if GetCurrentThemeName() != "default" {
		t.Errorf("unknown theme should fall back to default, got %q", GetCurrentThemeName())
	}
}

func TestChip(t *testing.T) {
	if Chip("3").GetBackground() != ChipColors[2] {
		t.Error("chip 3 should use the third color")
	}
	for _, c := range []string{"", "0", "99", "x"} {
		if Chip(c).GetBackground() != ChipColors[0] {
			t.Errorf("chip %q should fall back to the first color", c)
		}
	}
	if !IsValidTheme("light") || len(ListThemes()) != 3 {
		t.Errorf("unexpected themes %v", ListThemes())
	}
}
