// Package app is the root Bubble Tea model. It hosts a single pane and
// owns the footer, help overlay and toasts.
package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/attrview/internal/keymap"
	"github.com/marcus/attrview/internal/plugin"
)

// Model is the root Bubble Tea model.
type Model struct {
	pane   plugin.Plugin
	keymap *keymap.Registry

	width, height int
	ready         bool
	showHelp      bool
	showFooter    bool

	// Status/toast messages
	statusMsg     string
	statusShown   time.Time
	statusIsError bool
}

// New creates the root model around an initialized pane.
func New(pane plugin.Plugin, km *keymap.Registry) Model {
	if km == nil {
		km = keymap.Default(nil)
	}
	return Model{
		pane:       pane,
		keymap:     km,
		showFooter: true,
	}
}

// Init starts the pane.
func (m Model) Init() tea.Cmd {
	return m.pane.Start()
}

// showToast displays a status message and schedules its removal.
func (m *Model) showToast(text string, d time.Duration, isError bool) tea.Cmd {
	if d <= 0 {
		d = 2 * time.Second
	}
	m.statusMsg = text
	m.statusIsError = isError
	m.statusShown = time.Now()
	return clearToastAfter(m.statusShown, d)
}

// consumesText reports whether the pane wants printable keys as text.
func (m Model) consumesText() bool {
	if c, ok := m.pane.(plugin.TextInputConsumer); ok {
		return c.ConsumesTextInput()
	}
	return false
}

// contentHeight is the height left for the pane.
func (m Model) contentHeight() int {
	h := m.height
	if m.showFooter {
		h--
	}
	return max(0, h)
}
