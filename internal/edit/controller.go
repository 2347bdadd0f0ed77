package edit

import (
	"context"
	"log/slog"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/batch"
	"github.com/marcus/attrview/internal/keymap"
	"github.com/marcus/attrview/internal/msg"
	"github.com/marcus/attrview/internal/mouse"
	"github.com/marcus/attrview/internal/styles"
	"github.com/marcus/attrview/internal/transaction"
	"github.com/marcus/attrview/internal/ui"
	"github.com/marcus/attrview/internal/view"
)

const (
	minSurfaceWidth = 24
	maxSurfaceLines = 6
)

// Config wires a Controller to its collaborators.
type Config struct {
	Host      Host
	Panel     Panel
	Templates TemplateSource // optional
	Batch     *batch.Orchestrator
	Log       transaction.Log
	Keymap    *keymap.Registry
	Logger    *slog.Logger
	// Mobile renders the surface as a bottom sheet.
	Mobile bool
}

// Controller runs at most one cell edit session at a time.
type Controller struct {
	cfg   Config
	ctx   context.Context
	state State
	gen   uint64
	s     *session

	commit     key.Binding
	commitNext key.Binding
	newline    key.Binding
	cancel     key.Binding
}

// session is one open surface.
type session struct {
	ref  view.CellRef
	typ  av.Type
	gen  uint64
	seed string

	multiline bool
	area      textarea.Model
	input     textinput.Model

	dirty   bool
	focused bool
	rect    mouse.Rect
}

// New returns a closed controller. ctx bounds the batch submissions made
// on commit.
func New(ctx context.Context, cfg Config) *Controller {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Keymap == nil {
		cfg.Keymap = keymap.Default(nil)
	}
	return &Controller{
		cfg:        cfg,
		ctx:        ctx,
		commit:     cfg.Keymap.KeyBinding("commit", keymap.ContextEditor),
		commitNext: cfg.Keymap.KeyBinding("commit-next", keymap.ContextEditor),
		newline:    cfg.Keymap.KeyBinding("newline", keymap.ContextEditor),
		cancel:     cfg.Keymap.KeyBinding("cancel", keymap.ContextEditor),
	}
}

// State returns the controller state.
func (c *Controller) State() State { return c.state }

// Active reports whether a surface is open.
func (c *Controller) Active() bool { return c.state == Open }

// Ref returns the cell being edited.
func (c *Controller) Ref() (view.CellRef, bool) {
	if c.s == nil {
		return view.CellRef{}, false
	}
	return c.s.ref, true
}

// Value returns the current surface text.
func (c *Controller) Value() string {
	if c.s == nil {
		return ""
	}
	return c.s.value()
}

// Open starts editing ref. An empty t means the column type. An open
// session is committed first. Composite cells are handed to the panel and
// checkbox cells toggle immediately; neither leaves a surface open.
func (c *Controller) Open(ref view.CellRef, t av.Type) (tea.Cmd, error) {
	v := c.cfg.Host.View()
	col := v.Column(ref.ColID)
	if col == nil || v.Row(ref.RowID) == nil {
		return nil, view.ErrNotFound
	}
	if t == "" {
		t = col.Type
	}
	if t.ServerManaged() || t == av.TypeLineNumber {
		return nil, ErrReadOnly
	}
	if c.cfg.Host.DialogOpen() {
		return nil, ErrDialogOpen
	}
	// A pending edit is committed before the next cell opens.
	var cmds []tea.Cmd
	if c.state == Open {
		cmds = append(cmds, c.Commit())
		v = c.cfg.Host.View()
	}
	c.cfg.Host.SelectCell(ref)

	switch {
	case t.Composite():
		return tea.Batch(append(cmds, c.cfg.Panel.Open(PanelRequest{Kind: panelKind(t), Ref: ref, Type: t}))...), nil
	case t == av.TypeCheckbox:
		return tea.Batch(append(cmds, c.toggle(v, ref))...), nil
	}

	val, _ := v.Value(ref)
	c.gen++
	s := &session{ref: ref, typ: t, gen: c.gen, focused: true}
	switch t {
	case av.TypeNumber:
		s.seed = rawNumber(val)
		s.input = newInput(s.seed)
	case av.TypeURL:
		s.seed = val.Content()
		s.area = newArea(s.seed, c.surfaceWidth(ref))
		s.multiline = true
	case av.TypeTemplate:
		s.seed = col.Template
		s.area = newArea(s.seed, c.surfaceWidth(ref))
		s.multiline = true
		cmds = append(cmds, c.fetchTemplate(v, s))
	default:
		s.seed = av.DisplayText(val)
		s.area = newArea(s.seed, c.surfaceWidth(ref))
		s.multiline = true
	}
	c.s = s
	c.state = Open
	cmds = append(cmds, s.focus())
	c.cfg.Logger.Debug("cell edit opened", "row", ref.RowID, "col", ref.ColID, "type", t)
	return tea.Batch(cmds...), nil
}

func newArea(seed string, width int) textarea.Model {
	ta := textarea.New()
	ta.ShowLineNumbers = false
	ta.Prompt = ""
	ta.CharLimit = 0
	ta.KeyMap.InsertNewline.SetEnabled(false)
	ta.SetWidth(width)
	ta.SetHeight(min(maxSurfaceLines, max(1, strings.Count(seed, "\n")+1)))
	ta.SetValue(seed)
	return ta
}

func newInput(seed string) textinput.Model {
	ti := textinput.New()
	ti.Prompt = ""
	ti.SetValue(seed)
	ti.CursorEnd()
	return ti
}

func rawNumber(v *av.Value) string {
	if v == nil || v.Number == nil || !v.Number.IsNotEmpty {
		return ""
	}
	return strconv.FormatFloat(v.Number.Content, 'f', -1, 64)
}

func (c *Controller) surfaceWidth(ref view.CellRef) int {
	if c.cfg.Host == nil {
		return minSurfaceWidth
	}
	return max(minSurfaceWidth, c.cfg.Host.CellRect(ref).W)
}

func (s *session) value() string {
	if s.multiline {
		return s.area.Value()
	}
	return s.input.Value()
}

func (s *session) setValue(text string) {
	if s.multiline {
		s.area.SetValue(text)
		s.area.SetHeight(min(maxSurfaceLines, max(1, strings.Count(text, "\n")+1)))
		return
	}
	s.input.SetValue(text)
}

func (s *session) focus() tea.Cmd {
	s.focused = true
	if s.multiline {
		return s.area.Focus()
	}
	return s.input.Focus()
}

func (s *session) blur() {
	s.focused = false
	if s.multiline {
		s.area.Blur()
		return
	}
	s.input.Blur()
}

// fetchTemplate asks the kernel for the rendered template of the
// session's column.
func (c *Controller) fetchTemplate(v *view.View, s *session) tea.Cmd {
	src := c.cfg.Templates
	if src == nil {
		return nil
	}
	ctx, gen, colID := c.ctx, s.gen, s.ref.ColID
	avID, viewID := v.AvID, v.ViewID
	return func() tea.Msg {
		templates, err := src.RenderAttributeView(ctx, avID, viewID)
		if err != nil {
			return TemplateMsg{Generation: gen, ColID: colID, Err: err}
		}
		tmpl, ok := templates[colID]
		if !ok {
			return nil
		}
		return TemplateMsg{Generation: gen, ColID: colID, Template: tmpl}
	}
}

// Update handles a message while a session may be open. It reports
// whether the message was consumed.
func (c *Controller) Update(m tea.Msg) (bool, tea.Cmd) {
	switch m := m.(type) {
	case TemplateMsg:
		c.applyTemplate(m)
		return true, nil
	case tea.KeyMsg:
		if c.state != Open {
			return false, nil
		}
		return true, c.handleKey(m)
	case tea.MouseMsg:
		if c.state != Open {
			return false, nil
		}
		return c.handleMouse(m)
	}
	return false, nil
}

// applyTemplate seeds the surface with a fetched template, unless the
// session changed or the user already typed.
func (c *Controller) applyTemplate(m TemplateMsg) {
	if m.Err != nil {
		c.cfg.Logger.Debug("template fetch failed", "col", m.ColID, "err", m.Err)
		return
	}
	s := c.s
	if c.state != Open || s == nil || s.gen != m.Generation || s.ref.ColID != m.ColID || s.dirty {
		return
	}
	s.seed = m.Template
	s.setValue(m.Template)
}

func (c *Controller) handleKey(k tea.KeyMsg) tea.Cmd {
	s := c.s
	switch {
	case key.Matches(k, c.cancel):
		return c.Cancel()
	case key.Matches(k, c.commitNext):
		cmd := c.Commit()
		return tea.Batch(cmd, func() tea.Msg { return tea.KeyMsg{Type: tea.KeyTab} })
	case key.Matches(k, c.commit):
		return c.Commit()
	case key.Matches(k, c.newline):
		if s.multiline {
			s.area.InsertString("\n")
			s.area.SetHeight(min(maxSurfaceLines, s.area.LineCount()))
			s.dirty = true
		}
		return nil
	}

	before := s.value()
	var cmd tea.Cmd
	if s.multiline {
		s.area, cmd = s.area.Update(k)
	} else {
		s.input, cmd = s.input.Update(k)
	}
	if after := s.value(); after != before {
		s.dirty = true
		if s.typ == av.TypeBlock && (strings.HasPrefix(after, "((") || strings.HasPrefix(after, "[[")) {
			return c.handoffHint(after[2:])
		}
	}
	return cmd
}

// handoffHint closes the surface and opens the block reference search.
func (c *Controller) handoffHint(query string) tea.Cmd {
	ref := c.s.ref
	c.s = nil
	c.state = Closed
	return c.cfg.Panel.Open(PanelRequest{Kind: PanelHint, Ref: ref, Type: av.TypeBlock, Query: query})
}

func (c *Controller) handleMouse(m tea.MouseMsg) (bool, tea.Cmd) {
	if m.Action != tea.MouseActionPress {
		return false, nil
	}
	s := c.s
	inside := s.rect.Contains(m.X, m.Y)
	switch m.Button {
	case tea.MouseButtonMiddle:
		s.blur()
	case tea.MouseButtonLeft:
		if inside {
			return true, s.focus()
		}
	default:
		return false, nil
	}
	if inside || c.cfg.Host.DialogOpen() {
		return true, nil
	}
	return true, c.Commit()
}

// Commit applies the surface text and closes the session. Unchanged text
// submits nothing.
func (c *Controller) Commit() tea.Cmd {
	if c.state != Open {
		return nil
	}
	c.state = Committing
	s := c.s
	v := c.cfg.Host.View()
	text := s.value()

	var (
		changed bool
		errCmd  tea.Cmd
	)
	switch {
	case text == s.seed:
	case s.typ == av.TypeTemplate:
		changed, errCmd = c.commitTemplate(v, s, text)
	default:
		res, err := c.cfg.Batch.ApplyValue(c.ctx, v, []view.CellRef{s.ref}, batch.TextInput(text))
		if err != nil {
			c.cfg.Logger.Error("cell commit failed", "row", s.ref.RowID, "col", s.ref.ColID, "err", err)
			errCmd = msg.ShowError("Save failed", err)
		}
		changed = !res.Empty() && err == nil
	}
	return tea.Batch(errCmd, c.close(true, changed))
}

// commitTemplate replaces the column template. Nothing is submitted while
// the view is reloading.
func (c *Controller) commitTemplate(v *view.View, s *session, text string) (bool, tea.Cmd) {
	col := v.Column(s.ref.ColID)
	if col == nil || v.Loading {
		return false, nil
	}
	do := []transaction.Operation{transaction.UpdateColTemplate(v.AvID, col.ID, text)}
	undo := []transaction.Operation{transaction.UpdateColTemplate(v.AvID, col.ID, col.Template)}
	if err := c.cfg.Log.Submit(c.ctx, do, undo); err != nil {
		c.cfg.Logger.Error("template commit failed", "col", col.ID, "err", err)
		return false, msg.ShowError("Save failed", err)
	}
	v.Loading = true
	return true, nil
}

// Cancel closes the session without submitting anything.
func (c *Controller) Cancel() tea.Cmd {
	if c.state != Open {
		return nil
	}
	c.state = Cancelling
	return c.close(false, false)
}

func (c *Controller) close(committed, changed bool) tea.Cmd {
	ref := c.s.ref
	c.s = nil
	c.state = Closed
	c.cfg.Host.SelectCell(ref)
	if !c.cfg.Host.DialogOpen() {
		c.cfg.Host.FocusBlock()
	}
	return func() tea.Msg {
		return ClosedMsg{Ref: ref, Committed: committed, Changed: changed}
	}
}

// toggle flips a checkbox cell in one transaction.
func (c *Controller) toggle(v *view.View, ref view.CellRef) tea.Cmd {
	val, _ := v.Value(ref)
	checked := val != nil && val.Checkbox != nil && val.Checkbox.Checked
	res, err := c.cfg.Batch.ApplyValue(c.ctx, v, []view.CellRef{ref}, batch.PayloadInput(&av.Checkbox{Checked: !checked}))
	if err != nil {
		return msg.ShowError("Toggle failed", err)
	}
	changed := !res.Empty()
	return func() tea.Msg {
		return ClosedMsg{Ref: ref, Committed: true, Changed: changed}
	}
}

// View draws the open surface over background, which is the host's
// rendering of the given size.
func (c *Controller) View(background string, width, height int) string {
	if c.state != Open {
		return background
	}
	s := c.s
	var body string
	if s.multiline {
		body = s.area.View()
	} else {
		body = s.input.View()
	}
	if c.cfg.Mobile {
		sheet := styles.Sheet.Width(width).Render(body)
		out, r := ui.BottomSheet(background, sheet, width, height)
		s.rect = r
		return out
	}
	cell := c.cfg.Host.CellRect(s.ref)
	box := styles.Editor.Render(body)
	out, r := ui.OverlayAt(background, box, cell.X-1, cell.Y-1, width, height)
	s.rect = r
	return out
}
