package keymap

// Contexts.
const (
	ContextGlobal  = "global"
	ContextTable   = "av-table"
	ContextEditor  = "cell-editor"
	ContextPreview = "cell-preview"
)

// DefaultBindings returns the default key bindings.
func DefaultBindings() []Binding {
	return []Binding{
		// Global bindings
		{Key: "q", Command: "quit", Context: ContextGlobal, Help: "quit"},
		{Key: "ctrl+c", Command: "quit", Context: ContextGlobal, Help: "quit"},
		{Key: "?", Command: "toggle-help", Context: ContextGlobal, Help: "help"},
		{Key: "ctrl+h", Command: "toggle-footer", Context: ContextGlobal, Help: "footer"},

		// Attribute view table
		{Key: "j", Command: "cursor-down", Context: ContextTable, Help: "down"},
		{Key: "down", Command: "cursor-down", Context: ContextTable, Help: "down"},
		{Key: "k", Command: "cursor-up", Context: ContextTable, Help: "up"},
		{Key: "up", Command: "cursor-up", Context: ContextTable, Help: "up"},
		{Key: "h", Command: "cursor-left", Context: ContextTable, Help: "left"},
		{Key: "left", Command: "cursor-left", Context: ContextTable, Help: "left"},
		{Key: "l", Command: "cursor-right", Context: ContextTable, Help: "right"},
		{Key: "right", Command: "cursor-right", Context: ContextTable, Help: "right"},
		{Key: "tab", Command: "cursor-right", Context: ContextTable, Help: "next cell"},
		{Key: "g g", Command: "cursor-top", Context: ContextTable, Help: "top"},
		{Key: "G", Command: "cursor-bottom", Context: ContextTable, Help: "bottom"},
		{Key: "shift+down", Command: "extend-down", Context: ContextTable, Help: "extend"},
		{Key: "J", Command: "extend-down", Context: ContextTable, Help: "extend"},
		{Key: "shift+right", Command: "extend-right", Context: ContextTable, Help: "extend"},
		{Key: "L", Command: "extend-right", Context: ContextTable, Help: "extend"},
		{Key: "V", Command: "select-row", Context: ContextTable, Help: "select row"},
		{Key: "esc", Command: "clear-selection", Context: ContextTable, Help: "clear"},
		{Key: "e", Command: "edit-cell", Context: ContextTable, Help: "edit"},
		{Key: "enter", Command: "edit-cell", Context: ContextTable, Help: "edit"},
		{Key: " ", Command: "toggle-checkbox", Context: ContextTable, Help: "toggle"},
		{Key: "y", Command: "copy", Context: ContextTable, Help: "copy"},
		{Key: "Y", Command: "copy-markup", Context: ContextTable, Help: "copy as markup"},
		{Key: "p", Command: "paste", Context: ContextTable, Help: "paste"},
		{Key: ">", Command: "widen-column", Context: ContextTable, Help: "widen column"},
		{Key: "<", Command: "narrow-column", Context: ContextTable, Help: "narrow column"},
		{Key: "d", Command: "clear-cells", Context: ContextTable, Help: "clear"},
		{Key: "u", Command: "undo", Context: ContextTable, Help: "undo"},
		{Key: "ctrl+r", Command: "redo", Context: ContextTable, Help: "redo"},
		{Key: "f", Command: "fill", Context: ContextTable, Help: "fill down"},
		{Key: "m", Command: "show-markup", Context: ContextTable, Help: "markup"},
		{Key: "v", Command: "preview", Context: ContextTable, Help: "preview"},
		{Key: "r", Command: "refresh", Context: ContextTable, Help: "reload"},
		{Key: "]", Command: "next-view", Context: ContextTable, Help: "next view"},
		{Key: "[", Command: "prev-view", Context: ContextTable, Help: "prev view"},

		// Cell editor
		{Key: "esc", Command: "commit", Context: ContextEditor, Help: "done"},
		{Key: "enter", Command: "commit", Context: ContextEditor, Help: "done"},
		{Key: "tab", Command: "commit-next", Context: ContextEditor, Help: "next"},
		{Key: "shift+enter", Command: "newline", Context: ContextEditor, Help: "newline"},
		{Key: "alt+enter", Command: "newline", Context: ContextEditor, Help: "newline"},
		{Key: "ctrl+g", Command: "cancel", Context: ContextEditor, Help: "discard"},

		// Markup and preview panes
		{Key: "esc", Command: "close", Context: ContextPreview, Help: "close"},
		{Key: "q", Command: "close", Context: ContextPreview, Help: "close"},
		{Key: "j", Command: "scroll-down", Context: ContextPreview, Help: "scroll"},
		{Key: "k", Command: "scroll-up", Context: ContextPreview, Help: "scroll"},
	}
}
