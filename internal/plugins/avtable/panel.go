package avtable

import (
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/batch"
	"github.com/marcus/attrview/internal/edit"
	"github.com/marcus/attrview/internal/msg"
	"github.com/marcus/attrview/internal/styles"
)

// prompt is the one-line panel used for composite cells and block
// reference search.
type prompt struct {
	req   edit.PanelRequest
	title string
	hint  string
	input textinput.Model
}

var panelTitles = map[edit.PanelKind]struct{ title, hint string }{
	edit.PanelSelect:   {"Add options", "comma separated"},
	edit.PanelDate:     {"Set date", "2024-01-02 or 2024-01-02 → 2024-01-05"},
	edit.PanelRelation: {"Link row", "block id"},
	edit.PanelAsset:    {"Add asset", "link, path or name"},
	edit.PanelHint:     {"Reference block", "block name"},
}

// openPanel opens the prompt for req.
func (p *Plugin) openPanel(req edit.PanelRequest) tea.Cmd {
	if req.Kind == edit.PanelRollup {
		return msg.ShowToast("Rollup values are computed from relations", 2*time.Second)
	}
	p.selectCell(req.Ref)
	t := panelTitles[req.Kind]
	in := textinput.New()
	in.Prompt = "› "
	in.Placeholder = t.hint
	in.CharLimit = 0
	in.Width = 48
	seed := req.Query
	if req.Kind == edit.PanelDate && p.view != nil {
		if val, err := p.view.Value(req.Ref); err == nil {
			seed = av.DisplayText(val)
		}
	}
	in.SetValue(seed)
	in.CursorEnd()
	p.prompt = &prompt{req: req, title: t.title, hint: t.hint, input: in}
	p.dialog = true
	return p.prompt.input.Focus()
}

// update handles a key while the prompt is open.
func (pr *prompt) update(p *Plugin, k tea.KeyMsg) tea.Cmd {
	switch k.Type {
	case tea.KeyEsc:
		p.closePrompt()
		return nil
	case tea.KeyEnter:
		text := pr.input.Value()
		p.closePrompt()
		if text == "" && pr.req.Kind != edit.PanelDate {
			return nil
		}
		in := batch.TextInput(text)
		if text == "" {
			in = batch.ClearInput()
		}
		res, err := p.batch.ApplyValue(p.base, p.view, nil, in)
		return p.afterBatch(pr.title, res, err)
	}
	var cmd tea.Cmd
	pr.input, cmd = pr.input.Update(k)
	return cmd
}

func (p *Plugin) closePrompt() {
	if p.prompt == nil {
		return
	}
	p.selectCell(p.prompt.req.Ref)
	p.prompt = nil
	p.dialog = false
}

func (pr *prompt) view() string {
	body := styles.Title.Render(pr.title) + "\n" + pr.input.View() + "\n" +
		styles.Muted.Render("enter apply · esc cancel")
	return styles.Modal.Render(body)
}
