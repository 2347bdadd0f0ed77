package app

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"

	"github.com/marcus/attrview/internal/keymap"
	"github.com/marcus/attrview/internal/msg"
	"github.com/marcus/attrview/internal/plugin"
)

type fakePane struct {
	ctx     string
	typing  bool
	keys    []string
	other   []tea.Msg
	stopped bool
}

func (f *fakePane) ID() string                    { return "fake" }
func (f *fakePane) Name() string                  { return "table" }
func (f *fakePane) Init(*plugin.Context) error    { return nil }
func (f *fakePane) Start() tea.Cmd                { return nil }
func (f *fakePane) Stop()                         { f.stopped = true }
func (f *fakePane) View(width, height int) string { return "GRID" }
func (f *fakePane) FocusContext() string          { return f.ctx }
func (f *fakePane) ConsumesTextInput() bool       { return f.typing }

func (f *fakePane) Update(m tea.Msg) (plugin.Plugin, tea.Cmd) {
	if k, ok := m.(tea.KeyMsg); ok {
		f.keys = append(f.keys, k.String())
	} else {
		f.other = append(f.other, m)
	}
	return f, nil
}

func (f *fakePane) Commands() []plugin.Command {
	return []plugin.Command{
		{ID: "undo", Name: "Undo", Context: keymap.ContextTable, Priority: 3},
		{ID: "edit-cell", Name: "Edit", Context: keymap.ContextTable, Priority: 1},
		{ID: "commit", Name: "Done", Context: keymap.ContextEditor, Priority: 1},
	}
}

func newModel(pane *fakePane) Model {
	m := New(pane, keymap.Default(nil))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	return next.(Model)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

func TestQuitFromTable(t *testing.T) {
	pane := &fakePane{ctx: keymap.ContextTable}
	m := newModel(pane)
	_, cmd := m.Update(runes("q"))
	if !isQuit(cmd) {
		t.Fatal("q should quit from the table")
	}
	if !pane.stopped {
		t.Error("pane should be stopped on quit")
	}
}

func TestTypingPaneGetsGlobalKeys(t *testing.T) {
	pane := &fakePane{ctx: keymap.ContextEditor, typing: true}
	m := newModel(pane)
	next, cmd := m.Update(runes("q"))
	if isQuit(cmd) {
		t.Fatal("q should be typed into the editor")
	}
	next, _ = next.Update(runes("?"))
	if next.(Model).showHelp {
		t.Error("? should be typed into the editor")
	}
	if got := strings.Join(pane.keys, ""); got != "q?" {
		t.Errorf("pane keys = %q", got)
	}

	_, cmd = next.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if !isQuit(cmd) {
		t.Error("ctrl+c always quits")
	}
}

func TestPreviewCloseWinsOverQuit(t *testing.T) {
	pane := &fakePane{ctx: keymap.ContextPreview}
	m := newModel(pane)
	_, cmd := m.Update(runes("q"))
	if isQuit(cmd) {
		t.Fatal("q should close the preview")
	}
	if len(pane.keys) != 1 {
		t.Errorf("pane keys = %v", pane.keys)
	}
}

func TestHelpToggle(t *testing.T) {
	pane := &fakePane{ctx: keymap.ContextTable}
	m := newModel(pane)
	next, _ := m.Update(runes("?"))
	m = next.(Model)
	if !m.showHelp {
		t.Fatal("help should open")
	}
	if !strings.Contains(ansi.Strip(m.View()), "Keyboard Shortcuts") {
		t.Error("help overlay not drawn")
	}
	out := ansi.Strip(m.buildHelpContent())
	if !strings.Contains(out, "space") || !strings.Contains(out, "fill down") {
		t.Errorf("help content missing:\n%s", out)
	}

	// Keys do not reach the pane while help is shown.
	next, _ = m.Update(runes("j"))
	next, _ = next.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if next.(Model).showHelp {
		t.Error("esc should close help")
	}
	if len(pane.keys) != 0 {
		t.Errorf("pane keys = %v", pane.keys)
	}
}

func TestFooterHints(t *testing.T) {
	pane := &fakePane{ctx: keymap.ContextTable}
	m := newModel(pane)
	out := ansi.Strip(m.renderFooter())
	edit := strings.Index(out, "Edit")
	undo := strings.Index(out, "Undo")
	if edit < 0 || undo < 0 || edit > undo {
		t.Errorf("footer should list Edit before Undo: %q", out)
	}
	if strings.Contains(out, "Done") {
		t.Errorf("editor hints shown in table context: %q", out)
	}
	if !strings.Contains(out, "Quit") {
		t.Errorf("footer missing global hints: %q", out)
	}

	next, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	if next.(Model).showFooter {
		t.Error("ctrl+h should hide the footer")
	}
}

func TestToastLifecycle(t *testing.T) {
	pane := &fakePane{ctx: keymap.ContextTable}
	m := newModel(pane)
	next, cmd := m.Update(msg.ToastMsg{Message: "Copied 2 cells", Duration: time.Millisecond})
	m = next.(Model)
	if cmd == nil {
		t.Fatal("toast should schedule its removal")
	}
	if !strings.Contains(ansi.Strip(m.renderFooter()), "Copied 2 cells") {
		t.Error("toast not shown")
	}

	// A clear for an older toast is ignored.
	next, _ = m.Update(msg.ClearToastMsg{Shown: m.statusShown.Add(-time.Second)})
	if next.(Model).statusMsg == "" {
		t.Error("stale clear removed the toast")
	}
	next, _ = next.Update(cmd())
	if next.(Model).statusMsg != "" {
		t.Error("toast should clear")
	}
}

func TestMessagesForwarded(t *testing.T) {
	pane := &fakePane{ctx: keymap.ContextTable}
	m := newModel(pane)
	type custom struct{}
	m.Update(custom{})
	m.Update(tea.MouseMsg{X: 1, Y: 19, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	m.Update(tea.MouseMsg{X: 1, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if len(pane.other) != 2 {
		t.Fatalf("forwarded = %v", pane.other)
	}
	if _, ok := pane.other[0].(custom); !ok {
		t.Errorf("first forwarded = %T", pane.other[0])
	}
	if !strings.Contains(m.View(), "GRID") {
		t.Error("pane view not rendered")
	}
}
