// Package plugin defines the contract between the app shell and the
// panes it hosts.
package plugin

import (
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/attrview/internal/config"
	"github.com/marcus/attrview/internal/keymap"
)

// Plugin defines the interface for hosted panes.
type Plugin interface {
	ID() string
	Name() string
	Init(ctx *Context) error
	Start() tea.Cmd
	Stop()
	Update(msg tea.Msg) (Plugin, tea.Cmd)
	View(width, height int) string
	Commands() []Command
	FocusContext() string
}

// TextInputConsumer is an optional capability for plugins that need
// alphanumeric key input to be forwarded as typed text instead of being
// intercepted by app-level shortcuts.
type TextInputConsumer interface {
	ConsumesTextInput() bool
}

// Context carries the shared services a plugin is initialized with.
type Context struct {
	WorkDir string
	Config  *config.Config
	Keymap  *keymap.Registry
	Logger  *slog.Logger
	// Epoch increases whenever the shown attribute view is replaced.
	Epoch uint64
}

// Command represents a keybinding command exposed by a plugin.
type Command struct {
	ID       string // Unique identifier (e.g., "edit-cell")
	Name     string // Short name for footer (e.g., "Edit")
	Context  string // Activation context
	Priority int    // Footer display priority: 1=highest, 0=default (treated as 99)
}

// EpochMessage is implemented by async messages that need staleness detection.
type EpochMessage interface {
	GetEpoch() uint64
}

// IsStale returns true if the message's epoch doesn't match the current context epoch.
func IsStale(ctx *Context, msg EpochMessage) bool {
	return ctx != nil && msg.GetEpoch() != ctx.Epoch
}
