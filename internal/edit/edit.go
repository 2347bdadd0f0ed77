// Package edit implements the cell edit controller: the overlay that opens
// over a cell, seeds it with the current content, and on commit turns the
// edited text into transaction operations.
package edit

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/mouse"
	"github.com/marcus/attrview/internal/view"
)

var (
	// ErrReadOnly is returned when opening a server-managed cell.
	ErrReadOnly = errors.New("edit: cell is read-only")
	// ErrDialogOpen is returned while the host shows a modal dialog.
	ErrDialogOpen = errors.New("edit: dialog open")
)

// State is the controller state.
type State int

const (
	Closed State = iota
	Open
	Committing
	Cancelling
)

func (s State) String() string {
	switch s {
	case Open:
		return "open"
	case Committing:
		return "committing"
	case Cancelling:
		return "cancelling"
	}
	return "closed"
}

// Host is the view the controller edits cells of.
type Host interface {
	// View returns the attribute view being edited.
	View() *view.View
	// SelectCell marks ref as the active cell.
	SelectCell(ref view.CellRef)
	// FocusBlock returns keyboard focus to the table.
	FocusBlock()
	// DialogOpen reports whether a modal dialog or another input owns
	// focus.
	DialogOpen() bool
	// CellRect returns the screen rectangle of a cell.
	CellRect(ref view.CellRef) mouse.Rect
}

// PanelKind selects the panel a composite edit is handed to.
type PanelKind int

const (
	PanelSelect PanelKind = iota
	PanelDate
	PanelRelation
	PanelRollup
	PanelAsset
	// PanelHint searches blocks to reference from a block cell.
	PanelHint
)

// PanelRequest asks the host to open a dedicated editing panel.
type PanelRequest struct {
	Kind  PanelKind
	Ref   view.CellRef
	Type  av.Type
	Query string
}

// Panel opens dedicated panels for composite cells.
type Panel interface {
	Open(req PanelRequest) tea.Cmd
}

// TemplateSource renders the templates of a view, keyed by column id.
type TemplateSource interface {
	RenderAttributeView(ctx context.Context, avID, viewID string) (map[string]string, error)
}

// TemplateMsg delivers a fetched template to the session that asked.
type TemplateMsg struct {
	Generation uint64
	ColID      string
	Template   string
	Err        error
}

// ClosedMsg is emitted when a session ends.
type ClosedMsg struct {
	Ref       view.CellRef
	Committed bool
	// Changed reports whether operations were submitted.
	Changed bool
}

func panelKind(t av.Type) PanelKind {
	switch t {
	case av.TypeDate:
		return PanelDate
	case av.TypeRelation:
		return PanelRelation
	case av.TypeRollup:
		return PanelRollup
	case av.TypeMAsset:
		return PanelAsset
	}
	return PanelSelect
}
