package app

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/attrview/internal/msg"
)

// clearToastAfter hides the toast shown at shown once d has passed.
func clearToastAfter(shown time.Time, d time.Duration) tea.Cmd {
	return tea.Tick(d, func(time.Time) tea.Msg {
		return msg.ClearToastMsg{Shown: shown}
	})
}
