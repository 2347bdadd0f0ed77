package avtable

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/batch"
	"github.com/marcus/attrview/internal/codec"
	"github.com/marcus/attrview/internal/msg"
	"github.com/marcus/attrview/internal/state"
	"github.com/marcus/attrview/internal/view"
)

// copy puts the selection on the clipboard as tab separated text and
// keeps the values for a structured paste.
func (p *Plugin) copy() tea.Cmd {
	text, values := p.batch.CopyText(p.view, nil)
	if len(values) == 0 {
		return nil
	}
	if err := p.clipWrite(text); err != nil {
		return msg.ShowError("Copy failed", err)
	}
	p.copied, p.copiedText = values, text
	n := 0
	for _, row := range values {
		n += len(row)
	}
	return msg.ShowToast(fmt.Sprintf("Copied %d cells", n), 2*time.Second)
}

// copyMarkup puts the selection on the clipboard as cell markup with a
// header row, so a paste can place each column by id.
func (p *Plugin) copyMarkup() tea.Cmd {
	region := p.region()
	if len(region) == 0 {
		return nil
	}
	headers := make([]codec.Header, 0, len(region[0]))
	for _, ref := range region[0] {
		headers = append(headers, p.header(p.view.Column(ref.ColID)))
	}
	values := batch.Capture(p.view, region)
	if err := p.clipWrite(codec.RenderTable(headers, values, p.render)); err != nil {
		return msg.ShowError("Copy failed", err)
	}
	p.copied, p.copiedText = nil, ""
	return msg.ShowToast(fmt.Sprintf("Copied %d cells as markup", len(region)*len(headers)), 2*time.Second)
}

// paste applies the clipboard to the selection. Text copied from this
// view and cell markup are pasted as values, transformed to each target
// column; other markup is rich text and anything else is plain text
// applied to every selected cell.
func (p *Plugin) paste() tea.Cmd {
	text, err := p.clipRead()
	if err != nil {
		return msg.ShowError("Paste failed", err)
	}
	var res batch.Result
	switch {
	case len(p.copied) > 0 && text == p.copiedText:
		res, err = p.batch.DragFill(p.base, p.view, p.copied, p.pasteTargets(p.copied))
	case isMarkup(text):
		tbl, decodeErr := codec.DecodeTable(text)
		if decodeErr == nil {
			return p.pasteTable(tbl)
		}
		if !errors.Is(decodeErr, codec.ErrNoCell) {
			return msg.ShowError("Paste failed", decodeErr)
		}
		plain := strings.TrimSpace(codec.CellText(text))
		if plain == "" {
			return nil
		}
		res, err = p.batch.ApplyValue(p.base, p.view, nil, batch.HTMLInput(plain, text))
	default:
		text = strings.TrimRight(text, "\r\n")
		if text == "" {
			return nil
		}
		res, err = p.batch.ApplyValue(p.base, p.view, nil, batch.TextInput(text))
	}
	return p.afterBatch("Paste", res, err)
}

func isMarkup(text string) bool {
	text = strings.TrimSpace(text)
	return strings.HasPrefix(text, "<") && strings.HasSuffix(text, ">")
}

// pasteTable applies decoded cells. A single cell goes to every selected
// cell; a block of cells goes to the columns its headers name, or else
// positionally from the cursor.
func (p *Plugin) pasteTable(tbl codec.Table) tea.Cmd {
	if len(tbl.Rows) == 1 && len(tbl.Rows[0]) == 1 {
		v := tbl.Rows[0][0]
		in := batch.ValueInput(v)
		if v.Type == av.TypeMAsset {
			in = batch.AssetsInput(v.MAsset)
		}
		res, err := p.batch.ApplyValue(p.base, p.view, nil, in)
		return p.afterBatch("Paste", res, err)
	}
	targets := p.columnTargets(tbl)
	if targets == nil {
		targets = p.pasteTargets(tbl.Rows)
	}
	res, err := p.batch.DragFill(p.base, p.view, tbl.Rows, targets)
	return p.afterBatch("Paste", res, err)
}

// columnTargets places pasted rows from the cursor row down, each value in
// the column its header names. It returns nil unless every header names a
// column of this view.
func (p *Plugin) columnTargets(tbl codec.Table) [][]view.CellRef {
	if len(tbl.Headers) == 0 {
		return nil
	}
	for _, h := range tbl.Headers {
		if p.view.Column(h.ColID) == nil {
			return nil
		}
	}
	var out [][]view.CellRef
	for i := range tbl.Rows {
		r := p.row + i
		if r >= len(p.view.Rows) {
			break
		}
		row := make([]view.CellRef, 0, len(tbl.Headers))
		for _, h := range tbl.Headers {
			row = append(row, view.CellRef{RowID: p.view.Rows[r].ID, ColID: h.ColID})
		}
		out = append(out, row)
	}
	return out
}

// pasteTargets is the selection when it spans more than one cell,
// otherwise the rectangle of the size of values starting at the cursor.
func (p *Plugin) pasteTargets(values [][]*av.Value) [][]view.CellRef {
	region := p.region()
	if len(region) > 1 || (len(region) == 1 && len(region[0]) > 1) {
		return region
	}
	cols := 0
	for _, row := range values {
		cols = max(cols, len(row))
	}
	var out [][]view.CellRef
	for r := p.row; r < p.row+len(values); r++ {
		var row []view.CellRef
		for c := p.col; c < p.col+cols; c++ {
			if ref, ok := p.view.At(r, c); ok {
				row = append(row, ref)
			}
		}
		if len(row) > 0 {
			out = append(out, row)
		}
	}
	return out
}

func (p *Plugin) clearCells() tea.Cmd {
	res, err := p.batch.ApplyValue(p.base, p.view, nil, batch.ClearInput())
	return p.afterBatch("Clear", res, err)
}

// fill copies the first row of region down over the remaining rows.
func (p *Plugin) fill(region [][]view.CellRef) tea.Cmd {
	if len(region) < 2 {
		return msg.ShowToast("Select more than one row to fill", 2*time.Second)
	}
	source := region[:1]
	res, err := p.batch.DragFill(p.base, p.view, batch.Capture(p.view, source), batch.FillTargets(source, region))
	return p.afterBatch("Fill", res, err)
}

// fillTo extends the selection down to row and fills it from the
// selection, repeating the selected rows.
func (p *Plugin) fillTo(row int) tea.Cmd {
	source := p.region()
	if len(source) == 0 {
		return nil
	}
	first, last := source[0][0], source[len(source)-1]
	lastRef := last[len(last)-1]
	if row <= p.view.RowIndex(lastRef.RowID) {
		return nil
	}
	end, ok := p.view.At(row, p.view.ColumnIndex(lastRef.ColID))
	if !ok {
		return nil
	}
	full := p.view.Region(first, end)
	res, err := p.batch.DragFill(p.base, p.view, batch.Capture(p.view, source), batch.FillTargets(source, full))
	if err == nil {
		p.anchor = &first
		p.row = row
	}
	return p.afterBatch("Fill", res, err)
}

// afterBatch reloads after a submitted batch and reports errors.
func (p *Plugin) afterBatch(action string, res batch.Result, err error) tea.Cmd {
	if err != nil {
		p.logger.Error("batch failed", "action", action, "err", err)
		return msg.ShowError(action+" failed", err)
	}
	if res.Empty() {
		return nil
	}
	p.reloadNow()
	return nil
}

const (
	minColumnWidth  = 3
	columnWidthStep = 2
)

// resizeColumn changes the width of the cursor column by delta and saves
// it for this attribute view.
func (p *Plugin) resizeColumn(delta int) tea.Cmd {
	ref, ok := p.cursorRef()
	if !ok {
		return nil
	}
	col := p.view.Column(ref.ColID)
	w := max(minColumnWidth, p.columnWidth(col)+delta)
	if err := state.SetColumnWidth(p.view.AvID, col.ID, w); err != nil {
		return msg.ShowError("Resize failed", err)
	}
	p.ensureVisible()
	return nil
}
