package app

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/attrview/internal/keymap"
	"github.com/marcus/attrview/internal/msg"
)

// Update handles all messages and returns the updated model and commands.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		return m.handleKeyMsg(message)

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true
		return m, nil

	case msg.ToastMsg:
		return m, m.showToast(message.Message, message.Duration, message.IsError)

	case msg.ClearToastMsg:
		if message.Shown.Equal(m.statusShown) {
			m.statusMsg = ""
			m.statusIsError = false
		}
		return m, nil

	case tea.MouseMsg:
		if m.showHelp {
			return m, nil
		}
		if m.showFooter && message.Y >= m.contentHeight() {
			return m, nil
		}
	}

	pane, cmd := m.pane.Update(message)
	m.pane = pane
	return m, cmd
}

// handleKeyMsg processes keyboard input. Global keys are checked before
// the pane sees the key unless the pane is taking text.
func (m Model) handleKeyMsg(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if k.Type == tea.KeyCtrlC {
		m.pane.Stop()
		return m, tea.Quit
	}
	if m.showHelp {
		switch k.String() {
		case "esc", "?", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if !m.consumesText() {
		switch m.keymap.Lookup(k.String(), m.pane.FocusContext()) {
		case "quit":
			m.pane.Stop()
			return m, tea.Quit
		case "toggle-help":
			m.showHelp = true
			return m, nil
		case "toggle-footer":
			m.showFooter = !m.showFooter
			return m, nil
		}
	}

	pane, cmd := m.pane.Update(k)
	m.pane = pane
	return m, cmd
}

// activeContext is the keymap context footer hints are drawn from.
func (m Model) activeContext() string {
	if m.showHelp {
		return keymap.ContextGlobal
	}
	return m.pane.FocusContext()
}
