// Package msg holds messages shared between the app and its plugins.
package msg

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// ToastMsg displays a temporary message.
type ToastMsg struct {
	Message  string
	Duration time.Duration
	IsError  bool // true for error toasts (red), false for success (green)
}

// ShowToast returns a command to show a toast message.
func ShowToast(message string, duration time.Duration) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{Message: message, Duration: duration}
	}
}

// ShowError returns a command to show err as an error toast.
func ShowError(prefix string, err error) tea.Cmd {
	return func() tea.Msg {
		return ToastMsg{Message: prefix + ": " + err.Error(), Duration: 4 * time.Second, IsError: true}
	}
}

// ClearToastMsg hides the current toast if it is still the one shown at
// the given time.
type ClearToastMsg struct {
	Shown time.Time
}
