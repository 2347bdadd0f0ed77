// Package ui holds rendering helpers shared by the TUI: overlay
// compositing for cell editors, modals and bottom sheets.
package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/attrview/internal/mouse"
)

// DimStyle greys out content behind a modal. Existing colors are stripped
// first since faint does not combine reliably with them.
var DimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))

func maxLineWidth(lines []string) int {
	w := 0
	for _, line := range lines {
		w = max(w, ansi.StringWidth(line))
	}
	return w
}

func dimLine(s string) string {
	return DimStyle.Render(ansi.Strip(s))
}

// compositeRow places box over bg at column x. With dim set the visible
// background is stripped and greyed; otherwise it keeps its styling.
func compositeRow(bg, box string, x, boxWidth, totalWidth int, dim bool) string {
	var b strings.Builder
	bgWidth := ansi.StringWidth(bg)
	if dim {
		bg = ansi.Strip(bg)
	}
	side := func(s string) string {
		if dim {
			return DimStyle.Render(s)
		}
		return s
	}

	if x > 0 {
		left := ansi.Truncate(bg, x, "")
		b.WriteString(side(left))
		if w := ansi.StringWidth(left); w < x {
			b.WriteString(strings.Repeat(" ", x-w))
		}
	}
	b.WriteString(box)
	if w := ansi.StringWidth(box); w < boxWidth {
		b.WriteString(strings.Repeat(" ", boxWidth-w))
	}
	if right := x + boxWidth; right < totalWidth && bgWidth > right {
		b.WriteString(side(ansi.Cut(bg, right, bgWidth)))
	}
	if !dim {
		b.WriteString(ansi.ResetStyle)
	}
	return b.String()
}

func composite(background, box string, x, y, width, height int, dim bool) string {
	bgLines := strings.Split(background, "\n")
	for len(bgLines) < height {
		bgLines = append(bgLines, "")
	}
	boxLines := strings.Split(box, "\n")
	boxWidth := maxLineWidth(boxLines)

	out := make([]string, 0, height)
	for row := 0; row < height; row++ {
		i := row - y
		switch {
		case i >= 0 && i < len(boxLines):
			out = append(out, compositeRow(bgLines[row], boxLines[i], x, boxWidth, width, dim))
		case dim:
			out = append(out, dimLine(bgLines[row]))
		default:
			out = append(out, bgLines[row])
		}
	}
	return strings.Join(out, "\n")
}

// OverlayModal centers modal over a dimmed background.
func OverlayModal(background, modal string, width, height int) string {
	lines := strings.Split(modal, "\n")
	x := max(0, (width-maxLineWidth(lines))/2)
	y := max(0, (height-len(lines))/2)
	return composite(background, modal, x, y, width, height, true)
}

// OverlayAt draws box with its top-left corner at x, y, shifted left and
// up as needed to stay on screen. The background is left undimmed. It
// returns the rectangle the box occupies.
func OverlayAt(background, box string, x, y, width, height int) (string, mouse.Rect) {
	lines := strings.Split(box, "\n")
	r := mouse.Rect{W: maxLineWidth(lines), H: len(lines)}
	r.X = max(0, min(x, width-r.W))
	r.Y = max(0, min(y, height-r.H))
	return composite(background, box, r.X, r.Y, width, height, false), r
}

// BottomSheet pins box to the bottom of the screen over a dimmed
// background and returns the rectangle it occupies.
func BottomSheet(background, box string, width, height int) (string, mouse.Rect) {
	lines := strings.Split(box, "\n")
	r := mouse.Rect{X: 0, Y: max(0, height-len(lines)), W: width, H: len(lines)}
	return composite(background, box, r.X, r.Y, width, height, true), r
}
