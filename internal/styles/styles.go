// Package styles holds the lipgloss styles of the attribute view TUI and
// the themes that recolor them.
package styles

import (
	"strconv"

	"github.com/charmbracelet/lipgloss"
)

// Color palette, updated by ApplyTheme.
var (
	Primary   = lipgloss.Color("#7C3AED")
	Secondary = lipgloss.Color("#3B82F6")
	Accent    = lipgloss.Color("#F59E0B")

	Success = lipgloss.Color("#10B981")
	Error   = lipgloss.Color("#EF4444")

	TextPrimary   = lipgloss.Color("#F9FAFB")
	TextSecondary = lipgloss.Color("#9CA3AF")
	TextMuted     = lipgloss.Color("#6B7280")

	BgPrimary   = lipgloss.Color("#111827")
	BgSecondary = lipgloss.Color("#1F2937")
	BgTertiary  = lipgloss.Color("#374151")

	BorderNormal = lipgloss.Color("#374151")
	BorderActive = lipgloss.Color("#7C3AED")

	LinkColor = lipgloss.Color("#60A5FA")

	// Select option colors "1".."14", indexed from zero.
	ChipColors = []lipgloss.Color{
		"#6B7280", "#EF4444", "#F97316", "#F59E0B", "#EAB308", "#84CC16", "#10B981",
		"#14B8A6", "#06B6D4", "#3B82F6", "#6366F1", "#8B5CF6", "#D946EF", "#EC4899",
	}

	// Third-party theme names.
	CurrentSyntaxTheme   = "monokai"
	CurrentMarkdownTheme = "dark"
)

// Styles derived from the palette. rebuild refreshes them after a theme
// change.
var (
	Title      lipgloss.Style
	Muted      lipgloss.Style
	Link       lipgloss.Style
	KeyHint    lipgloss.Style
	Header     lipgloss.Style
	Cell       lipgloss.Style
	CellCursor lipgloss.Style
	CellActive lipgloss.Style
	RowSelect  lipgloss.Style
	FillHandle lipgloss.Style
	Editor     lipgloss.Style
	Sheet      lipgloss.Style
	Modal      lipgloss.Style
	Footer     lipgloss.Style
	ToastOK    lipgloss.Style
	ToastError lipgloss.Style
)

func init() { rebuild() }

func rebuild() {
	Title = lipgloss.NewStyle().Bold(true).Foreground(TextPrimary)
	Muted = lipgloss.NewStyle().Foreground(TextMuted)
	Link = lipgloss.NewStyle().Foreground(LinkColor).Underline(true)
	KeyHint = lipgloss.NewStyle().Foreground(TextMuted).Background(BgTertiary).Padding(0, 1)
	Header = lipgloss.NewStyle().Bold(true).Foreground(TextSecondary).
		BorderStyle(lipgloss.NormalBorder()).BorderBottom(true).BorderForeground(BorderNormal)
	Cell = lipgloss.NewStyle().Foreground(TextPrimary)
	CellCursor = lipgloss.NewStyle().Foreground(TextPrimary).Background(BgTertiary).Bold(true)
	CellActive = lipgloss.NewStyle().Foreground(TextPrimary).Background(BgSecondary)
	RowSelect = lipgloss.NewStyle().Foreground(Accent)
	FillHandle = lipgloss.NewStyle().Foreground(Primary).Bold(true)
	Editor = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(BorderActive)
	Sheet = lipgloss.NewStyle().Border(lipgloss.NormalBorder(), true, false, false, false).
		BorderForeground(BorderActive).Padding(0, 1)
	Modal = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(BorderActive).Padding(0, 1)
	Footer = lipgloss.NewStyle().Foreground(TextMuted)
	ToastOK = lipgloss.NewStyle().Foreground(lipgloss.Color("#000000")).Background(Success).Padding(0, 1)
	ToastError = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(Error).Padding(0, 1)
}

// Chip returns the style of a select option with the given color index.
// Unknown colors fall back to the first one.
func Chip(color string) lipgloss.Style {
	i, err := strconv.Atoi(color)
	if err != nil || i < 1 || i > len(ChipColors) {
		i = 1
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Background(ChipColors[i-1])
}
