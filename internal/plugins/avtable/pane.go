package avtable

import (
	"strings"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/codec"
	"github.com/marcus/attrview/internal/msg"
	"github.com/marcus/attrview/internal/styles"
)

const (
	paneMaxWidth = 100
	paneMargin   = 4
)

// pane is a scrollable read-only box over the grid.
type pane struct {
	title  string
	lines  []string
	offset int
}

func (p *Plugin) paneWidth() int {
	w := p.width
	if w <= 0 {
		w = 80
	}
	return max(20, min(paneMaxWidth, w-paneMargin*2))
}

// showMarkup shows the cell markup, syntax highlighted.
func (p *Plugin) showMarkup() tea.Cmd {
	ref, ok := p.cursorRef()
	if !ok {
		return nil
	}
	val, err := p.view.Value(ref)
	if err != nil {
		return msg.ShowError("Markup", err)
	}
	opts := p.render
	opts.RowIndex = p.row
	markup := codec.RenderCell(val, ref.ColID, opts)
	markup = strings.ReplaceAll(markup, "><", ">\n<")

	var b strings.Builder
	if err := quick.Highlight(&b, markup, "html", "terminal256", styles.CurrentSyntaxTheme); err != nil {
		b.Reset()
		b.WriteString(markup)
	}
	text := ansi.Hardwrap(b.String(), p.paneWidth()-4, true)
	p.pane = &pane{title: "Markup", lines: strings.Split(strings.TrimRight(text, "\n"), "\n")}
	return nil
}

// showPreview renders the cell content as markdown.
func (p *Plugin) showPreview() tea.Cmd {
	ref, ok := p.cursorRef()
	if !ok {
		return nil
	}
	val, err := p.view.Value(ref)
	if err != nil {
		return msg.ShowError("Preview", err)
	}
	text := val.Content()
	if !val.Type.IsText() && val.Type != av.TypeBlock {
		opts := p.render
		opts.RowIndex = p.row
		text = codec.CellText(codec.Encode(val, opts))
	}
	if strings.TrimSpace(text) == "" {
		return msg.ShowToast("Cell is empty", 2*time.Second)
	}

	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(styles.CurrentMarkdownTheme),
		glamour.WithWordWrap(p.paneWidth()-4),
	)
	if err != nil {
		return msg.ShowError("Preview", err)
	}
	out, err := r.Render(text)
	if err != nil {
		return msg.ShowError("Preview", err)
	}
	p.pane = &pane{title: "Preview", lines: strings.Split(strings.Trim(out, "\n"), "\n")}
	return nil
}

// command handles a preview context command.
func (pn *pane) command(p *Plugin, command string) tea.Cmd {
	switch command {
	case "close", "quit":
		p.pane = nil
	case "scroll-down":
		pn.offset = min(pn.offset+1, max(0, len(pn.lines)-1))
	case "scroll-up":
		pn.offset = max(0, pn.offset-1)
	}
	return nil
}

func (pn *pane) view(width, height int) string {
	w := max(20, min(paneMaxWidth, width-paneMargin*2))
	h := max(3, min(len(pn.lines), height-paneMargin-2))
	end := min(len(pn.lines), pn.offset+h)
	body := strings.Join(pn.lines[pn.offset:end], "\n")
	title := styles.Title.Render(pn.title)
	if len(pn.lines) > h {
		title += styles.Muted.Render("  j/k scroll")
	}
	return styles.Modal.Width(w).Render(title + "\n" + body)
}
