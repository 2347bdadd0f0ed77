package avtable

import (
	"errors"
	"fmt"
	"slices"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/avstore"
	"github.com/marcus/attrview/internal/edit"
	"github.com/marcus/attrview/internal/keymap"
	"github.com/marcus/attrview/internal/mouse"
	"github.com/marcus/attrview/internal/msg"
	"github.com/marcus/attrview/internal/plugin"
	"github.com/marcus/attrview/internal/state"
	"github.com/marcus/attrview/internal/view"
)

// LoadedMsg delivers a loaded view.
type LoadedMsg struct {
	Epoch uint64
	AvID  string
	View  *view.View
	Err   error
	// Keep retains the cursor and row selection of the same view.
	Keep bool
}

// GetEpoch implements plugin.EpochMessage.
func (m LoadedMsg) GetEpoch() uint64 { return m.Epoch }

// ChangedMsg reports an external edit of a stored view.
type ChangedMsg struct {
	Event avstore.ChangeEvent
}

type watchClosedMsg struct{}

// loadCmd loads the current view off the event loop.
func (p *Plugin) loadCmd(keep bool) tea.Cmd {
	if len(p.ids) == 0 {
		return nil
	}
	epoch := p.ctx.Epoch
	avID := p.ids[p.current]
	views := p.deps.Views
	return func() tea.Msg {
		v, err := views.Load(avID)
		return LoadedMsg{Epoch: epoch, AvID: avID, View: v, Err: err, Keep: keep}
	}
}

// listen waits for the next watcher event.
func (p *Plugin) listen() tea.Cmd {
	ch := p.watchCh
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return watchClosedMsg{}
		}
		return ChangedMsg{Event: ev}
	}
}

// reloadNow re-reads the current view after this process changed it.
func (p *Plugin) reloadNow() {
	if p.view == nil {
		return
	}
	v, err := p.deps.Views.Load(p.view.AvID)
	if err != nil {
		p.logger.Error("reload failed", "av", p.view.AvID, "err", err)
		p.view.Loading = false
		return
	}
	p.setView(v, true)
}

// setView replaces the shown view. keep retains the grid position when v
// is the same attribute view.
func (p *Plugin) setView(v *view.View, keep bool) {
	old := p.view
	p.view = v
	p.loadErr = nil
	if keep && old != nil && old.AvID == v.AvID {
		v.Selection.Rows = slices.DeleteFunc(old.Selection.Rows, func(id string) bool {
			return v.Row(id) == nil
		})
		if p.anchor != nil {
			if r, c := v.Position(*p.anchor); r < 0 || c < 0 {
				p.anchor = nil
			}
		}
	} else {
		cur := state.GetCursor(v.AvID)
		p.row, p.col = cur.Row, cur.Col
		clear(p.headers)
		p.anchor = nil
		p.rowOff, p.colOff = 0, 0
		_ = state.SetLastView(v.AvID, v.ViewID)
	}
	p.clampCursor()
	p.syncSelection()
}

func (p *Plugin) clampCursor() {
	p.row = max(0, min(p.row, len(p.view.Rows)-1))
	p.col = max(0, min(p.col, len(p.view.Columns)-1))
}

// switchView shows the view delta positions away.
func (p *Plugin) switchView(delta int) tea.Cmd {
	if len(p.ids) < 2 {
		return nil
	}
	if p.view != nil {
		_ = state.SetCursor(p.view.AvID, state.Cursor{Row: p.row, Col: p.col})
	}
	p.editor.Cancel()
	p.current = (p.current + delta + len(p.ids)) % len(p.ids)
	p.ctx.Epoch++
	return p.loadCmd(false)
}

// Update handles a message.
func (p *Plugin) Update(m tea.Msg) (plugin.Plugin, tea.Cmd) {
	switch m := m.(type) {
	case LoadedMsg:
		if plugin.IsStale(p.ctx, m) {
			return p, nil
		}
		if m.Err != nil {
			p.loadErr = m.Err
			if !m.Keep {
				p.view = nil
			}
			return p, msg.ShowError("Load failed", m.Err)
		}
		p.setView(m.View, m.Keep)
		return p, nil

	case ChangedMsg:
		return p, tea.Batch(p.handleChange(m.Event), p.listen())

	case watchClosedMsg:
		p.watchCh = nil
		return p, nil

	case edit.ClosedMsg:
		if m.Changed {
			p.reloadNow()
		}
		return p, nil

	case edit.TemplateMsg:
		_, cmd := p.editor.Update(m)
		return p, cmd

	case tea.KeyMsg:
		return p, p.handleKey(m)

	case tea.MouseMsg:
		return p, p.handleMouse(m)
	}
	return p, nil
}

func (p *Plugin) handleChange(ev avstore.ChangeEvent) tea.Cmd {
	if !slices.Contains(p.ids, ev.AvID) && !ev.Removed {
		p.ids = append(p.ids, ev.AvID)
		slices.Sort(p.ids)
		if p.view != nil {
			p.current = slices.Index(p.ids, p.view.AvID)
		}
	}
	if p.view == nil || ev.AvID != p.view.AvID {
		if p.view == nil && len(p.ids) > 0 {
			return p.loadCmd(false)
		}
		return nil
	}
	if ev.Removed {
		return msg.ShowToast("View removed on disk", 3*time.Second)
	}
	p.logger.Debug("reloading view changed on disk", "av", ev.AvID)
	return p.loadCmd(true)
}

func (p *Plugin) handleKey(k tea.KeyMsg) tea.Cmd {
	if p.prompt != nil {
		return p.prompt.update(p, k)
	}
	if p.editor.Active() {
		_, cmd := p.editor.Update(k)
		return cmd
	}
	if p.pane != nil {
		command, _ := p.ctx.Keymap.Handle(k, keymap.ContextPreview)
		return p.pane.command(p, command)
	}
	command, _ := p.ctx.Keymap.Handle(k, keymap.ContextTable)
	if command == "" {
		return nil
	}
	return p.run(command)
}

// run executes a table command.
func (p *Plugin) run(command string) tea.Cmd {
	if p.view == nil {
		switch command {
		case "refresh":
			return p.refresh()
		case "next-view", "prev-view":
		default:
			return nil
		}
	}
	switch command {
	case "cursor-down":
		p.move(1, 0, false)
	case "cursor-up":
		p.move(-1, 0, false)
	case "cursor-right":
		p.move(0, 1, false)
	case "cursor-left":
		p.move(0, -1, false)
	case "cursor-top":
		p.move(-len(p.view.Rows), 0, false)
	case "cursor-bottom":
		p.move(len(p.view.Rows), 0, false)
	case "extend-down":
		p.move(1, 0, true)
	case "extend-right":
		p.move(0, 1, true)
	case "select-row":
		p.toggleRow()
	case "clear-selection":
		p.anchor = nil
		p.view.Selection.Rows = nil
		p.syncSelection()
	case "edit-cell":
		return p.editCell()
	case "toggle-checkbox":
		return p.toggleCheckbox()
	case "copy":
		return p.copy()
	case "copy-markup":
		return p.copyMarkup()
	case "widen-column":
		return p.resizeColumn(columnWidthStep)
	case "narrow-column":
		return p.resizeColumn(-columnWidthStep)
	case "paste":
		return p.paste()
	case "clear-cells":
		return p.clearCells()
	case "undo":
		return p.undo()
	case "redo":
		return p.redo()
	case "fill":
		return p.fill(p.region())
	case "show-markup":
		return p.showMarkup()
	case "preview":
		return p.showPreview()
	case "refresh":
		return p.refresh()
	case "next-view":
		return p.switchView(1)
	case "prev-view":
		return p.switchView(-1)
	}
	return nil
}

// move shifts the cursor. extend grows the selection from the anchor.
func (p *Plugin) move(dr, dc int, extend bool) {
	if extend && p.anchor == nil {
		if cur, ok := p.cursorRef(); ok {
			p.anchor = &cur
		}
	}
	if !extend {
		p.anchor = nil
	}
	p.row += dr
	p.col += dc
	p.clampCursor()
	p.view.Selection.Rows = nil
	p.syncSelection()
}

func (p *Plugin) toggleRow() {
	cur, ok := p.cursorRef()
	if !ok {
		return
	}
	rows := p.view.Selection.Rows
	if i := slices.Index(rows, cur.RowID); i >= 0 {
		rows = slices.Delete(rows, i, i+1)
	} else {
		rows = append(rows, cur.RowID)
	}
	p.view.Selection.Rows = rows
	p.anchor = nil
	// Row selection takes over from active cells.
	p.view.Selection.Cells = nil
}

func (p *Plugin) refresh() tea.Cmd {
	ids, err := p.deps.Views.List()
	if err != nil {
		return msg.ShowError("Refresh failed", err)
	}
	if len(ids) > 0 {
		cur := ""
		if p.view != nil {
			cur = p.view.AvID
		}
		p.ids = ids
		if i := slices.Index(ids, cur); i >= 0 {
			p.current = i
		} else {
			p.current = min(p.current, len(ids)-1)
		}
	}
	return p.loadCmd(true)
}

func (p *Plugin) editCell() tea.Cmd {
	ref, ok := p.cursorRef()
	if !ok {
		return nil
	}
	cmd, err := p.editor.Open(ref, "")
	switch {
	case errors.Is(err, edit.ErrReadOnly):
		return msg.ShowToast("Cell is read-only", 2*time.Second)
	case err != nil:
		return msg.ShowError("Edit", err)
	}
	return cmd
}

func (p *Plugin) toggleCheckbox() tea.Cmd {
	ref, ok := p.cursorRef()
	if !ok {
		return nil
	}
	if col := p.view.Column(ref.ColID); col == nil || col.Type != av.TypeCheckbox {
		return nil
	}
	return p.editCell()
}

func (p *Plugin) undo() tea.Cmd {
	entry, err := p.deps.History.Undo(p.base)
	if err != nil {
		return msg.ShowError("Undo", err)
	}
	p.reloadNow()
	return msg.ShowToast(fmt.Sprintf("Undid %d operations", len(entry.Undo)), 2*time.Second)
}

func (p *Plugin) redo() tea.Cmd {
	entry, err := p.deps.History.Redo(p.base)
	if err != nil {
		return msg.ShowError("Redo", err)
	}
	p.reloadNow()
	return msg.ShowToast(fmt.Sprintf("Redid %d operations", len(entry.Do)), 2*time.Second)
}

func (p *Plugin) handleMouse(m tea.MouseMsg) tea.Cmd {
	if p.editor.Active() {
		_, cmd := p.editor.Update(m)
		return cmd
	}
	if p.prompt != nil || p.pane != nil || p.view == nil {
		return nil
	}

	action := p.mouse.HandleMouse(m)
	switch action.Type {
	case mouse.ActionScrollDown, mouse.ActionScrollUp:
		p.rowOff = max(0, min(p.rowOff+action.Delta, len(p.view.Rows)-1))
		p.row = max(p.rowOff, min(p.row, p.rowOff+p.visibleRows()-1))
		p.clampCursor()
		p.syncSelection()
	case mouse.ActionScrollLeft:
		p.move(0, -1, false)
	case mouse.ActionScrollRight:
		p.move(0, 1, false)
	case mouse.ActionClick, mouse.ActionDoubleClick:
		return p.click(action)
	case mouse.ActionDrag:
		if action.Region != nil && action.Region.ID == regionCell && p.mouse.DragRegion() == regionFill {
			ref := action.Region.Data.(view.CellRef)
			p.fillTarget = p.view.RowIndex(ref.RowID)
		}
	case mouse.ActionDragEnd:
		if p.fillTarget < 0 {
			return nil
		}
		target := p.fillTarget
		p.fillTarget = -1
		return p.fillTo(target)
	}
	return nil
}

func (p *Plugin) click(a mouse.Action) tea.Cmd {
	if a.Region == nil {
		return nil
	}
	switch a.Region.ID {
	case regionFill:
		p.mouse.StartDrag(a.X, a.Y, regionFill, p.row)
		p.fillTarget = -1
	case regionRow:
		p.SelectRow(a.Region.Data.(string))
	case regionCell:
		ref := a.Region.Data.(view.CellRef)
		p.selectCell(ref)
		if a.Type == mouse.ActionDoubleClick {
			return p.editCell()
		}
	}
	return nil
}

// SelectRow toggles selection of a row by id.
func (p *Plugin) SelectRow(rowID string) {
	if r := p.view.RowIndex(rowID); r >= 0 {
		p.row = r
		p.toggleRow()
	}
}
