package avtable

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/codec"
	"github.com/marcus/attrview/internal/mouse"
	"github.com/marcus/attrview/internal/state"
	"github.com/marcus/attrview/internal/styles"
	"github.com/marcus/attrview/internal/ui"
	"github.com/marcus/attrview/internal/view"
)

const (
	gutterWidth     = 2
	headerLines     = 3 // title, header text, header rule
	maxCacheEntries = 4096

	regionCell   = "cell"
	regionRow    = "row"
	regionFill   = "fill-handle"
	regionHeader = "header"
)

// cellLook is how a cell is drawn, part of the render cache key.
type cellLook uint8

const (
	lookPlain cellLook = iota
	lookActive
	lookCursor
	lookRow
)

// renderCache memoizes rendered cells by content hash.
type renderCache struct {
	entries map[uint64]string
}

func newRenderCache() *renderCache {
	return &renderCache{entries: make(map[uint64]string)}
}

func (c *renderCache) get(k uint64) (string, bool) {
	s, ok := c.entries[k]
	return s, ok
}

func (c *renderCache) put(k uint64, s string) {
	if len(c.entries) >= maxCacheEntries {
		clear(c.entries)
	}
	c.entries[k] = s
}

// cellKey hashes everything a rendered cell depends on.
func cellKey(v *av.Value, width, rowIndex int, look cellLook, handle bool) uint64 {
	d := xxhash.New()
	_ = json.NewEncoder(d).Encode(v)
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(width)<<32|uint64(uint32(rowIndex)))
	_, _ = d.Write(buf[:])
	flags := []byte{byte(look), 0}
	if handle {
		flags[1] = 1
	}
	_, _ = d.Write(flags)
	_, _ = d.WriteString(styles.GetCurrentThemeName())
	return d.Sum64()
}

// columnWidth returns the saved, declared or default width of col.
func (p *Plugin) columnWidth(col *view.Column) int {
	if w := state.GetColumnWidth(p.view.AvID, col.ID); w > 0 {
		return w
	}
	if col.Width > 0 {
		return col.Width
	}
	switch col.Type {
	case av.TypeBlock:
		return 24
	case av.TypeCheckbox, av.TypeLineNumber:
		return 5
	case av.TypeNumber:
		return 10
	case av.TypeText, av.TypeTemplate:
		return 20
	}
	return 16
}

// visibleColumns returns the column indexes that fit from colOff.
func (p *Plugin) visibleColumns() []int {
	var out []int
	x := gutterWidth
	for i := p.colOff; i < len(p.view.Columns); i++ {
		w := p.columnWidth(p.view.Columns[i])
		if len(out) > 0 && x+w > p.width {
			break
		}
		out = append(out, i)
		x += w + 1
	}
	return out
}

func (p *Plugin) visibleRows() int {
	return max(1, p.height-headerLines)
}

// ensureVisible scrolls so the cursor cell is on screen.
func (p *Plugin) ensureVisible() {
	if p.view == nil {
		return
	}
	if p.row < p.rowOff {
		p.rowOff = p.row
	}
	if n := p.visibleRows(); p.row >= p.rowOff+n {
		p.rowOff = p.row - n + 1
	}
	if p.col < p.colOff {
		p.colOff = p.col
	}
	for p.colOff < p.col && p.width > 0 && !slices.Contains(p.visibleColumns(), p.col) {
		p.colOff++
	}
}

// cellContent renders the text of v, truncated to width.
func (p *Plugin) cellContent(v *av.Value, col *view.Column, rowIndex, width int) string {
	switch {
	case col.Type == av.TypeCheckbox:
		mark := "☐"
		if v.Checkbox != nil && v.Checkbox.Checked {
			mark = "☑"
		}
		return runewidth.FillRight(mark, width)
	case col.Type.IsSelect():
		chips := make([]string, 0, len(v.MSelect))
		for _, o := range v.MSelect {
			chips = append(chips, styles.Chip(o.Color).Render(o.Content))
		}
		s := ansi.Truncate(strings.Join(chips, " "), width, "…")
		return s + strings.Repeat(" ", max(0, width-ansi.StringWidth(s)))
	}
	opts := p.render
	opts.RowIndex = rowIndex
	text := codec.CellText(codec.Encode(v, opts))
	text = strings.Join(strings.Fields(text), " ")
	return runewidth.FillRight(runewidth.Truncate(text, width, "…"), width)
}

func lookStyle(look cellLook) lipgloss.Style {
	switch look {
	case lookCursor:
		return styles.CellCursor
	case lookActive:
		return styles.CellActive
	case lookRow:
		return styles.RowSelect
	}
	return styles.Cell
}

// renderCell draws one cell, using the cache.
func (p *Plugin) renderCell(v *av.Value, col *view.Column, rowIndex, width int, look cellLook, handle bool) string {
	k := cellKey(v, width, rowIndex, look, handle)
	if s, ok := p.cache.get(k); ok {
		return s
	}
	inner := width
	if handle {
		inner--
	}
	s := lookStyle(look).Render(p.cellContent(v, col, rowIndex, inner))
	if handle {
		s += styles.FillHandle.Render("+")
	}
	p.cache.put(k, s)
	return s
}

// renderGrid draws the title, header and visible rows, and rebuilds the
// hit map and cell rectangles.
func (p *Plugin) renderGrid() string {
	p.mouse.Clear()
	clear(p.rects)

	if p.view == nil {
		msg := "No attribute views found"
		if p.loadErr != nil {
			msg = "Error: " + p.loadErr.Error()
		}
		return styles.Muted.Render(msg)
	}
	v := p.view
	p.ensureVisible()

	var lines []string
	title := styles.Title.Render(v.Name)
	if v.Name == "" {
		title = styles.Title.Render(p.render.Labels.Untitled)
	}
	title += styles.Muted.Render(fmt.Sprintf("  %d/%d", p.current+1, len(p.ids)))
	if v.Loading {
		title += styles.Muted.Render("  loading…")
	}
	lines = append(lines, title)

	cols := p.visibleColumns()
	selected := make(map[view.CellRef]bool, len(v.Selection.Cells))
	for _, ref := range v.Selection.Cells {
		selected[ref] = true
	}
	handleRef, hasHandle := p.handleRef()

	var header strings.Builder
	header.WriteString(strings.Repeat(" ", gutterWidth))
	x := gutterWidth
	for _, ci := range cols {
		col := v.Columns[ci]
		w := p.columnWidth(col)
		h := p.header(col)
		name := h.Name
		if h.Icon != "" {
			name = codec.Emoji(h.Icon) + " " + name
		}
		if h.Pin {
			name = "📌" + name
		}
		header.WriteString(runewidth.FillRight(runewidth.Truncate(name, w, "…"), w) + " ")
		p.mouse.HitMap.AddRect(regionHeader, x, 1, w, 1, col.ID)
		x += w + 1
	}
	lines = append(lines, styles.Header.Width(max(1, p.width)).Render(ansi.Truncate(header.String(), p.width, "")))

	end := min(len(v.Rows), p.rowOff+p.visibleRows())
	for ri := p.rowOff; ri < end; ri++ {
		row := v.Rows[ri]
		y := headerLines + ri - p.rowOff
		rowSelected := slices.Contains(v.Selection.Rows, row.ID)

		var b strings.Builder
		if rowSelected {
			b.WriteString(styles.RowSelect.Render("●") + " ")
		} else {
			b.WriteString(strings.Repeat(" ", gutterWidth))
		}
		p.mouse.HitMap.AddRect(regionRow, 0, y, gutterWidth, 1, row.ID)

		x := gutterWidth
		for _, ci := range cols {
			col := v.Columns[ci]
			w := p.columnWidth(col)
			ref := view.CellRef{RowID: row.ID, ColID: col.ID}
			val, _ := v.Value(ref)

			look := lookPlain
			switch {
			case ri == p.row && ci == p.col:
				look = lookCursor
			case selected[ref]:
				look = lookActive
			case rowSelected:
				look = lookRow
			}
			handle := hasHandle && ref == handleRef
			b.WriteString(p.renderCell(val, col, ri, w, look, handle) + " ")

			p.rects[ref] = mouseRect(x, y, w)
			p.mouse.HitMap.AddRect(regionCell, x, y, w, 1, ref)
			x += w + 1
		}
		lines = append(lines, ansi.Truncate(b.String(), p.width, ""))
	}
	if hasHandle {
		if r, ok := p.rects[handleRef]; ok {
			p.mouse.HitMap.AddRect(regionFill, r.X+r.W-1, r.Y, 1, 1, handleRef)
		}
	}
	return strings.Join(lines, "\n")
}

// headerEntry is the header markup of a column and what it shows.
type headerEntry struct {
	markup string
	shown  codec.Header
}

func headerOf(col *view.Column) codec.Header {
	return codec.Header{ColID: col.ID, Type: col.Type, Name: col.Name, Icon: col.Icon, Pin: col.Pin}
}

// header returns the header of col. Its markup is rendered once and
// patched in place when the column's name, icon or pin changes.
func (p *Plugin) header(col *view.Column) codec.Header {
	want := headerOf(col)
	e, ok := p.headers[col.ID]
	switch {
	case ok && e.shown == want:
		return e.shown
	case ok && e.shown.Type == want.Type:
		var patch codec.HeaderPatch
		if e.shown.Name != want.Name {
			patch.Name = &want.Name
		}
		if e.shown.Icon != want.Icon {
			patch.Icon = &want.Icon
		}
		if e.shown.Pin != want.Pin {
			patch.Pin = &want.Pin
		}
		markup, err := codec.UpdateHeader(e.markup, patch)
		if err == nil {
			if h, err := codec.ParseHeader(markup); err == nil {
				p.headers[col.ID] = headerEntry{markup: markup, shown: h}
				return h
			}
		}
		p.logger.Debug("header update failed", "col", col.ID, "err", err)
	}
	markup := codec.RenderHeader(want)
	p.headers[col.ID] = headerEntry{markup: markup, shown: want}
	return want
}

func mouseRect(x, y, w int) mouse.Rect {
	return mouse.Rect{X: x, Y: y, W: w, H: 1}
}

// handleRef is the bottom-right cell of the selection, which carries the
// fill handle.
func (p *Plugin) handleRef() (view.CellRef, bool) {
	region := p.region()
	if len(region) == 0 || p.editor.Active() {
		return view.CellRef{}, false
	}
	last := region[len(region)-1]
	return last[len(last)-1], true
}

// View renders the pane with any open surface composited on top.
func (p *Plugin) View(width, height int) string {
	p.width, p.height = width, height
	out := p.renderGrid()
	out = lipgloss.NewStyle().Width(width).Height(height).MaxHeight(height).Render(out)

	switch {
	case p.editor.Active():
		out = p.editor.View(out, width, height)
	case p.prompt != nil:
		out = ui.OverlayModal(out, p.prompt.view(), width, height)
	case p.pane != nil:
		out = ui.OverlayModal(out, p.pane.view(width, height), width, height)
	}
	return out
}
