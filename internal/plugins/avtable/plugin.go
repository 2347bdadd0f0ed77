// Package avtable is the attribute view table pane: it renders a view as
// a grid and hosts the cell edit controller.
package avtable

import (
	"context"
	"io"
	"log/slog"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/avstore"
	"github.com/marcus/attrview/internal/batch"
	"github.com/marcus/attrview/internal/codec"
	"github.com/marcus/attrview/internal/edit"
	"github.com/marcus/attrview/internal/keymap"
	"github.com/marcus/attrview/internal/mouse"
	"github.com/marcus/attrview/internal/plugin"
	"github.com/marcus/attrview/internal/state"
	"github.com/marcus/attrview/internal/transaction"
	"github.com/marcus/attrview/internal/view"
)

const (
	pluginID   = "av-table"
	pluginName = "table"
)

// History is a transaction log that can step back and forth.
type History interface {
	transaction.Log
	Undo(ctx context.Context) (*transaction.Entry, error)
	Redo(ctx context.Context) (*transaction.Entry, error)
}

// Views loads, saves and watches attribute views.
type Views interface {
	transaction.ViewStore
	List() ([]string, error)
	Watch() (<-chan avstore.ChangeEvent, io.Closer, error)
}

// Deps are the services the pane edits through.
type Deps struct {
	Views     Views
	History   History
	Templates edit.TemplateSource // optional
	// Start is the attribute view shown first. Empty means the last one
	// shown, or the first stored.
	Start string
}

// Plugin implements the table pane.
type Plugin struct {
	ctx    *plugin.Context
	deps   Deps
	base   context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	batch  *batch.Orchestrator
	editor *edit.Controller
	render codec.RenderOptions

	ids     []string
	current int
	view    *view.View
	loadErr error

	// Grid cursor and the anchor of an extended selection.
	row, col   int
	anchor     *view.CellRef
	rowOff     int
	colOff     int
	width      int
	height     int
	rects      map[view.CellRef]mouse.Rect
	headers    map[string]headerEntry
	cache      *renderCache
	mouse      *mouse.Handler
	fillTarget int

	// Last copy, reused for structured paste.
	copied     [][]*av.Value
	copiedText string

	prompt *prompt
	pane   *pane
	dialog bool

	watchCh     <-chan avstore.ChangeEvent
	watchCloser io.Closer

	clipWrite func(string) error
	clipRead  func() (string, error)
}

// New returns a table pane over deps.
func New(deps Deps) *Plugin {
	return &Plugin{
		deps:       deps,
		rects:      make(map[view.CellRef]mouse.Rect),
		headers:    make(map[string]headerEntry),
		cache:      newRenderCache(),
		mouse:      mouse.NewHandler(),
		fillTarget: -1,
		clipWrite:  clipboard.WriteAll,
		clipRead:   clipboard.ReadAll,
	}
}

// ID returns the plugin identifier.
func (p *Plugin) ID() string { return pluginID }

// Name returns the display name.
func (p *Plugin) Name() string { return pluginName }

// Init wires the pane to the shared context.
func (p *Plugin) Init(ctx *plugin.Context) error {
	p.ctx = ctx
	p.logger = ctx.Logger
	if p.logger == nil {
		p.logger = slog.Default()
	}
	if ctx.Keymap == nil {
		ctx.Keymap = keymap.Default(nil)
	}
	p.base, p.cancel = context.WithCancel(context.Background())

	p.render = codec.DefaultOptions()
	if cfg := ctx.Config; cfg != nil {
		p.render.ShowIcon = cfg.Editor.ShowIcon
		p.render.Labels = codec.Labels{
			More:     cfg.Labels.More,
			Update:   cfg.Labels.Update,
			Untitled: cfg.Labels.Untitled,
			Checkbox: cfg.Labels.Checkbox,
		}
	}
	p.batch = batch.New(p.deps.History,
		batch.WithLogger(p.logger),
		batch.WithRenderOptions(p.render),
	)
	p.editor = edit.New(p.base, edit.Config{
		Host:      host{p},
		Panel:     host{p},
		Templates: p.deps.Templates,
		Batch:     p.batch,
		Log:       p.deps.History,
		Keymap:    ctx.Keymap,
		Logger:    p.logger,
		Mobile:    ctx.Config != nil && ctx.Config.Editor.Mobile,
	})

	ids, err := p.deps.Views.List()
	if err != nil {
		return err
	}
	p.ids = ids
	p.current = p.startIndex()
	return nil
}

func (p *Plugin) startIndex() int {
	want := p.deps.Start
	if want == "" {
		want, _ = state.GetLastView()
	}
	for i, id := range p.ids {
		if id == want {
			return i
		}
	}
	if p.deps.Start != "" {
		// Not listed yet; show it anyway.
		p.ids = append(p.ids, p.deps.Start)
		return len(p.ids) - 1
	}
	return 0
}

// Start loads the first view and begins watching for external edits.
func (p *Plugin) Start() tea.Cmd {
	ch, closer, err := p.deps.Views.Watch()
	if err != nil {
		p.logger.Warn("view watcher unavailable", "err", err)
	} else {
		p.watchCh, p.watchCloser = ch, closer
	}
	return tea.Batch(p.loadCmd(false), p.listen())
}

// Stop releases the watcher and cancels pending work.
func (p *Plugin) Stop() {
	if p.watchCloser != nil {
		_ = p.watchCloser.Close()
		p.watchCloser = nil
	}
	if p.cancel != nil {
		p.cancel()
	}
	if p.view != nil {
		_ = state.SetCursor(p.view.AvID, state.Cursor{Row: p.row, Col: p.col})
	}
}

// FocusContext returns the active key context.
func (p *Plugin) FocusContext() string {
	switch {
	case p.editor != nil && p.editor.Active():
		return keymap.ContextEditor
	case p.pane != nil:
		return keymap.ContextPreview
	}
	return keymap.ContextTable
}

// ConsumesTextInput reports whether typed keys belong to an input.
func (p *Plugin) ConsumesTextInput() bool {
	return (p.editor != nil && p.editor.Active()) || p.prompt != nil
}

// Commands returns the footer commands of the active context.
func (p *Plugin) Commands() []plugin.Command {
	switch p.FocusContext() {
	case keymap.ContextEditor:
		return []plugin.Command{
			{ID: "commit", Name: "Done", Context: keymap.ContextEditor, Priority: 1},
			{ID: "commit-next", Name: "Next", Context: keymap.ContextEditor, Priority: 2},
			{ID: "cancel", Name: "Discard", Context: keymap.ContextEditor, Priority: 3},
		}
	case keymap.ContextPreview:
		return []plugin.Command{
			{ID: "close", Name: "Close", Context: keymap.ContextPreview, Priority: 1},
		}
	}
	return []plugin.Command{
		{ID: "edit-cell", Name: "Edit", Context: keymap.ContextTable, Priority: 1},
		{ID: "copy", Name: "Copy", Context: keymap.ContextTable, Priority: 2},
		{ID: "paste", Name: "Paste", Context: keymap.ContextTable, Priority: 2},
		{ID: "undo", Name: "Undo", Context: keymap.ContextTable, Priority: 3},
		{ID: "fill", Name: "Fill", Context: keymap.ContextTable, Priority: 4},
		{ID: "next-view", Name: "View", Context: keymap.ContextTable, Priority: 5},
	}
}

// host adapts the pane to the edit controller. It is separate from
// Plugin because both define View.
type host struct{ p *Plugin }

// View returns the view being edited.
func (h host) View() *view.View { return h.p.view }

// SelectCell moves the cursor to ref and makes it the active cell.
func (h host) SelectCell(ref view.CellRef) { h.p.selectCell(ref) }

// FocusBlock returns focus to the grid.
func (h host) FocusBlock() { h.p.dialog = false }

// DialogOpen reports whether a prompt or pane owns focus.
func (h host) DialogOpen() bool {
	return h.p.dialog || h.p.prompt != nil || h.p.pane != nil
}

// CellRect returns the screen rectangle of ref from the last render.
func (h host) CellRect(ref view.CellRef) mouse.Rect { return h.p.rects[ref] }

// Open opens the prompt that edits a composite cell.
func (h host) Open(req edit.PanelRequest) tea.Cmd { return h.p.openPanel(req) }

func (p *Plugin) selectCell(ref view.CellRef) {
	if p.view == nil {
		return
	}
	r, c := p.view.Position(ref)
	if r < 0 || c < 0 {
		return
	}
	p.row, p.col = r, c
	p.anchor = nil
	p.syncSelection()
}

// cursorRef returns the ref under the cursor.
func (p *Plugin) cursorRef() (view.CellRef, bool) {
	if p.view == nil {
		return view.CellRef{}, false
	}
	return p.view.At(p.row, p.col)
}

// syncSelection mirrors the cursor and anchor into the view selection.
func (p *Plugin) syncSelection() {
	if p.view == nil {
		return
	}
	cur, ok := p.cursorRef()
	if !ok {
		p.view.Selection.Cells = nil
		return
	}
	if p.anchor == nil {
		p.view.Selection.Cells = []view.CellRef{cur}
		return
	}
	var cells []view.CellRef
	for _, row := range p.view.Region(*p.anchor, cur) {
		cells = append(cells, row...)
	}
	p.view.Selection.Cells = cells
}

// region returns the selected rectangle grouped by row.
func (p *Plugin) region() [][]view.CellRef {
	cur, ok := p.cursorRef()
	if !ok {
		return nil
	}
	if p.anchor == nil {
		return [][]view.CellRef{{cur}}
	}
	return p.view.Region(*p.anchor, cur)
}
