package edit

import (
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/batch"
	"github.com/marcus/attrview/internal/mouse"
	"github.com/marcus/attrview/internal/transaction"
	"github.com/marcus/attrview/internal/view"
)

type fakeHost struct {
	v        *view.View
	selected []view.CellRef
	focused  int
	dialog   bool
}

func (h *fakeHost) View() *view.View                 { return h.v }
func (h *fakeHost) SelectCell(ref view.CellRef)      { h.selected = append(h.selected, ref) }
func (h *fakeHost) FocusBlock()                      { h.focused++ }
func (h *fakeHost) DialogOpen() bool                 { return h.dialog }
func (h *fakeHost) CellRect(view.CellRef) mouse.Rect { return mouse.Rect{X: 10, Y: 2, W: 12, H: 1} }

type fakePanel struct{ reqs []PanelRequest }

func (p *fakePanel) Open(req PanelRequest) tea.Cmd {
	p.reqs = append(p.reqs, req)
	return nil
}

type fakeTemplates struct {
	out map[string]string
	err error
}

func (f fakeTemplates) RenderAttributeView(context.Context, string, string) (map[string]string, error) {
	return f.out, f.err
}

type fixture struct {
	c     *Controller
	host  *fakeHost
	panel *fakePanel
	log   *transaction.Memory
}

func newFixture(t *testing.T, mobile bool) *fixture {
	t.Helper()
	v := &view.View{
		AvID:    "av1",
		ViewID:  "view1",
		BlockID: "host",
		Columns: []*view.Column{
			{ID: "name", Type: av.TypeBlock},
			{ID: "note", Type: av.TypeText},
			{ID: "n", Type: av.TypeNumber},
			{ID: "tags", Type: av.TypeMSelect},
			{ID: "done", Type: av.TypeCheckbox},
			{ID: "tpl", Type: av.TypeTemplate, Template: "old"},
			{ID: "made", Type: av.TypeCreated},
			{ID: "link", Type: av.TypeURL},
		},
		Rows: []*view.Row{{ID: "r1"}},
	}
	require.NoError(t, v.SetValue(view.CellRef{RowID: "r1", ColID: "note"}, av.Construct(av.TypeText, "hello")))
	require.NoError(t, v.SetValue(view.CellRef{RowID: "r1", ColID: "n"}, av.Construct(av.TypeNumber, "5")))
	require.NoError(t, v.SetValue(view.CellRef{RowID: "r1", ColID: "link"}, av.Construct(av.TypeURL, "https://example.com/a")))

	host := &fakeHost{v: v}
	panel := &fakePanel{}
	log := &transaction.Memory{Applier: transaction.ApplierFunc(func(_ context.Context, ops []transaction.Operation) error {
		return transaction.ApplyToView(v, ops)
	})}
	c := New(context.Background(), Config{
		Host:      host,
		Panel:     panel,
		Templates: fakeTemplates{out: map[string]string{"tpl": "fresh"}},
		Batch:     batch.New(log),
		Log:       log,
		Mobile:    mobile,
	})
	return &fixture{c: c, host: host, panel: panel, log: log}
}

func cell(col string) view.CellRef {
	return view.CellRef{RowID: "r1", ColID: col}
}

func typeText(t *testing.T, c *Controller, s string) tea.Cmd {
	t.Helper()
	handled, cmd := c.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	require.True(t, handled)
	return cmd
}

func press(c *Controller, k tea.KeyType) tea.Cmd {
	_, cmd := c.Update(tea.KeyMsg{Type: k})
	return cmd
}

// collect runs cmd and any batches it returns, gathering messages.
func collect(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	m := cmd()
	if b, ok := m.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range b {
			out = append(out, collect(c)...)
		}
		return out
	}
	return []tea.Msg{m}
}

func TestOpenRefusals(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("made"), "")
	assert.ErrorIs(t, err, ErrReadOnly)

	_, err = f.c.Open(cell("missing"), "")
	assert.ErrorIs(t, err, view.ErrNotFound)

	f.host.dialog = true
	_, err = f.c.Open(cell("note"), "")
	assert.ErrorIs(t, err, ErrDialogOpen)
	assert.Equal(t, Closed, f.c.State())
}

func TestTextCommit(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("note"), "")
	require.NoError(t, err)
	assert.Equal(t, Open, f.c.State())
	assert.Equal(t, "hello", f.c.Value())

	typeText(t, f.c, "!")
	msgs := collect(press(f.c, tea.KeyEnter))

	assert.Equal(t, Closed, f.c.State())
	require.Len(t, f.log.Pairs(), 1)
	got, err := f.host.v.Value(cell("note"))
	require.NoError(t, err)
	assert.Equal(t, "hello!", got.Content())
	assert.Contains(t, msgs, ClosedMsg{Ref: cell("note"), Committed: true, Changed: true})
	assert.Equal(t, cell("note"), f.host.selected[len(f.host.selected)-1])
	assert.Equal(t, 1, f.host.focused)
}

func TestUnchangedCommitSubmitsNothing(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("note"), "")
	require.NoError(t, err)
	msgs := collect(press(f.c, tea.KeyEsc))

	assert.Empty(t, f.log.Pairs())
	assert.Contains(t, msgs, ClosedMsg{Ref: cell("note"), Committed: true})
}

func TestCancelDiscards(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("note"), "")
	require.NoError(t, err)
	typeText(t, f.c, " changed")
	msgs := collect(press(f.c, tea.KeyCtrlG))

	assert.Empty(t, f.log.Pairs())
	assert.Contains(t, msgs, ClosedMsg{Ref: cell("note")})
	got, _ := f.host.v.Value(cell("note"))
	assert.Equal(t, "hello", got.Content())
}

func TestFocusStaysWithDialog(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("note"), "")
	require.NoError(t, err)
	f.host.dialog = true
	f.c.Cancel()
	assert.Zero(t, f.host.focused)
}

func TestTabCommitsAndRedispatches(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("note"), "")
	require.NoError(t, err)
	typeText(t, f.c, "?")
	msgs := collect(press(f.c, tea.KeyTab))

	assert.Len(t, f.log.Pairs(), 1)
	assert.Contains(t, msgs, tea.KeyMsg{Type: tea.KeyTab})
}

func TestNumberSurface(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("n"), "")
	require.NoError(t, err)
	assert.Equal(t, "5", f.c.Value())
	typeText(t, f.c, "0")
	press(f.c, tea.KeyEnter)

	got, _ := f.host.v.Value(cell("n"))
	assert.Equal(t, 50.0, got.Number.Content)
}

func TestURLSeedsRawHref(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("link"), "")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", f.c.Value())
}

func TestCompositeDelegatesToPanel(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("tags"), "")
	require.NoError(t, err)
	assert.Equal(t, Closed, f.c.State())
	require.Len(t, f.panel.reqs, 1)
	assert.Equal(t, PanelRequest{Kind: PanelSelect, Ref: cell("tags"), Type: av.TypeMSelect}, f.panel.reqs[0])
	assert.Contains(t, f.host.selected, cell("tags"))
}

func TestCheckboxToggles(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("done"), "")
	require.NoError(t, err)
	assert.Equal(t, Closed, f.c.State())
	got, _ := f.host.v.Value(cell("done"))
	assert.True(t, got.Checkbox.Checked)

	_, err = f.c.Open(cell("done"), "")
	require.NoError(t, err)
	got, _ = f.host.v.Value(cell("done"))
	assert.False(t, got.Checkbox.Checked)
	assert.Len(t, f.log.Pairs(), 2)
}

func TestTemplateSeed(t *testing.T) {
	f := newFixture(t, false)

	cmd, err := f.c.Open(cell("tpl"), "")
	require.NoError(t, err)
	assert.Equal(t, "old", f.c.Value())

	var fetched *TemplateMsg
	for _, m := range collect(cmd) {
		if tm, ok := m.(TemplateMsg); ok {
			fetched = &tm
		}
	}
	require.NotNil(t, fetched)

	stale := *fetched
	stale.Generation++
	f.c.Update(stale)
	assert.Equal(t, "old", f.c.Value())

	f.c.Update(*fetched)
	assert.Equal(t, "fresh", f.c.Value())

	// The fetched template is the new baseline.
	press(f.c, tea.KeyEnter)
	assert.Empty(t, f.log.Pairs())
}

func TestTemplateSeedIgnoredAfterTyping(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("tpl"), "")
	require.NoError(t, err)
	typeText(t, f.c, "X")
	f.c.Update(TemplateMsg{Generation: 1, ColID: "tpl", Template: "fresh"})
	assert.Equal(t, "oldX", f.c.Value())

	f.c.Update(TemplateMsg{Generation: 1, ColID: "tpl", Err: errors.New("offline")})
	assert.Equal(t, Open, f.c.State())
}

func TestTemplateCommit(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("tpl"), "")
	require.NoError(t, err)
	typeText(t, f.c, "!")
	press(f.c, tea.KeyEnter)

	require.Len(t, f.log.Pairs(), 1)
	pair := f.log.Pairs()[0]
	assert.Equal(t, transaction.ActionUpdateColTemplate, pair.Do[0].Action)
	assert.JSONEq(t, `"old!"`, string(pair.Do[0].Data))
	assert.JSONEq(t, `"old"`, string(pair.Undo[0].Data))
	assert.True(t, f.host.v.Loading)
	assert.Equal(t, "old!", f.host.v.Column("tpl").Template)

	// A second edit while the view reloads submits nothing.
	_, err = f.c.Open(cell("tpl"), "")
	require.NoError(t, err)
	typeText(t, f.c, "?")
	press(f.c, tea.KeyEnter)
	assert.Len(t, f.log.Pairs(), 1)
}

func TestBlockHintHandoff(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("name"), "")
	require.NoError(t, err)
	typeText(t, f.c, "((")

	assert.Equal(t, Closed, f.c.State())
	require.Len(t, f.panel.reqs, 1)
	assert.Equal(t, PanelHint, f.panel.reqs[0].Kind)
	assert.Empty(t, f.log.Pairs())
}

func TestClickOutsideCommits(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("note"), "")
	require.NoError(t, err)
	bg := strings.Repeat(strings.Repeat(".", 80)+"\n", 23) + strings.Repeat(".", 80)
	out := f.c.View(bg, 80, 24)
	assert.Contains(t, out, "hello")

	handled, _ := f.c.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, X: 12, Y: 2})
	assert.True(t, handled)
	assert.Equal(t, Open, f.c.State())

	typeText(t, f.c, "!")
	f.c.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, X: 70, Y: 20})
	assert.Equal(t, Closed, f.c.State())
	assert.Len(t, f.log.Pairs(), 1)
}

func TestMobileBottomSheet(t *testing.T) {
	f := newFixture(t, true)

	_, err := f.c.Open(cell("note"), "")
	require.NoError(t, err)
	bg := strings.Repeat("row\n", 9) + "row"
	out := f.c.View(bg, 40, 10)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 10)
	assert.Contains(t, strings.Join(lines[5:], "\n"), "hello")
}

func TestOpenCommitsPreviousSession(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("note"), "")
	require.NoError(t, err)
	typeText(t, f.c, " world")
	cmd, err := f.c.Open(cell("n"), "")
	require.NoError(t, err)

	require.Len(t, f.log.Pairs(), 1)
	got, _ := f.host.v.Value(cell("note"))
	assert.Equal(t, "hello world", got.Content())

	var closed []ClosedMsg
	for _, m := range collect(cmd) {
		if c, ok := m.(ClosedMsg); ok {
			closed = append(closed, c)
		}
	}
	require.Len(t, closed, 1)
	assert.True(t, closed[0].Committed)
	assert.True(t, closed[0].Changed)
	assert.Equal(t, cell("note"), closed[0].Ref)

	ref, ok := f.c.Ref()
	assert.True(t, ok)
	assert.Equal(t, cell("n"), ref)
	assert.Equal(t, Open, f.c.State())
}

func TestOpenSameSessionUnchangedSubmitsNothing(t *testing.T) {
	f := newFixture(t, false)

	_, err := f.c.Open(cell("note"), "")
	require.NoError(t, err)
	_, err = f.c.Open(cell("n"), "")
	require.NoError(t, err)
	assert.Empty(t, f.log.Pairs())
}
