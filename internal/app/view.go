package app

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/marcus/attrview/internal/keymap"
	"github.com/marcus/attrview/internal/plugin"
	"github.com/marcus/attrview/internal/styles"
	"github.com/marcus/attrview/internal/ui"
)

// View renders the pane, the footer and any overlay.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	content := m.pane.View(m.width, m.contentHeight())
	if m.showFooter {
		content = lipgloss.JoinVertical(lipgloss.Left, content, m.renderFooter())
	}
	if m.showHelp {
		content = ui.OverlayModal(content, styles.Modal.Render(m.buildHelpContent()), m.width, m.height)
	}
	return content
}

func (m Model) renderFooter() string {
	var status string
	if m.statusMsg != "" {
		toastStyle := styles.ToastOK
		if m.statusIsError {
			toastStyle = styles.ToastError
		}
		status = toastStyle.Render(m.statusMsg)
	}

	available := m.width - lipgloss.Width(status) - 2
	hints := renderHintLineTruncated(m.footerHints(), available)
	spacing := max(0, m.width-lipgloss.Width(hints)-lipgloss.Width(status))
	footer := hints + strings.Repeat(" ", spacing) + status

	// MaxWidth keeps the footer on one line.
	return styles.Footer.Width(m.width).MaxWidth(m.width).Render(footer)
}

type footerHint struct {
	keys  string
	label string
}

func (m Model) footerHints() []footerHint {
	hints := m.paneFooterHints(m.pane, m.activeContext())
	keysByCmd := bindingKeysByCommand(m.keymap.Bindings(keymap.ContextGlobal))
	for _, g := range []struct{ id, label string }{
		{"toggle-help", "Help"},
		{"quit", "Quit"},
	} {
		if keys := keysByCmd[g.id]; len(keys) > 0 {
			hints = append(hints, footerHint{keys: keys[0], label: g.label})
		}
	}
	return hints
}

func (m Model) paneFooterHints(p plugin.Plugin, context string) []footerHint {
	if context == "" || context == keymap.ContextGlobal {
		return nil
	}
	keysByCmd := bindingKeysByCommand(m.keymap.Bindings(context))

	cmds := p.Commands()
	sort.SliceStable(cmds, func(i, j int) bool {
		return priority(cmds[i]) < priority(cmds[j])
	})
	var hints []footerHint
	for _, c := range cmds {
		if c.Context != context {
			continue
		}
		keys := keysByCmd[c.ID]
		if len(keys) == 0 {
			continue
		}
		hints = append(hints, footerHint{keys: formatBindingKeys(keys), label: c.Name})
	}
	return hints
}

// priority treats an unset priority as the lowest.
func priority(c plugin.Command) int {
	if c.Priority == 0 {
		return 99
	}
	return c.Priority
}

func bindingKeysByCommand(bindings []keymap.Binding) map[string][]string {
	keysByCmd := make(map[string][]string, len(bindings))
	for _, b := range bindings {
		keysByCmd[b.Command] = append(keysByCmd[b.Command], b.Key)
	}
	return keysByCmd
}

// renderHintLineTruncated renders hints but stops adding when maxWidth is exceeded.
func renderHintLineTruncated(hints []footerHint, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	var result string
	for _, hint := range hints {
		part := fmt.Sprintf("%s %s", styles.KeyHint.Render(hint.keys), hint.label)
		candidate := part
		if result != "" {
			candidate = result + "  " + part
		}
		if lipgloss.Width(candidate) > maxWidth {
			break
		}
		result = candidate
	}
	return result
}

// buildHelpContent lists the global bindings and those of the pane's
// current context.
func (m Model) buildHelpContent() string {
	var b strings.Builder
	b.WriteString(styles.Title.Render("Keyboard Shortcuts"))
	b.WriteString("\n\n")
	b.WriteString(styles.Title.Render("Global"))
	b.WriteString("\n")
	m.renderBindingSection(&b, keymap.ContextGlobal)

	if ctx := m.pane.FocusContext(); ctx != keymap.ContextGlobal && ctx != "" {
		b.WriteString("\n")
		b.WriteString(styles.Title.Render(m.pane.Name()))
		b.WriteString("\n")
		m.renderBindingSection(&b, ctx)
	}
	b.WriteString("\n")
	b.WriteString(styles.Muted.Render("Press ? or esc to close"))
	return b.String()
}

// renderBindingSection writes one line per command of context.
func (m Model) renderBindingSection(b *strings.Builder, context string) {
	bindings := m.keymap.Bindings(context)
	keysByCmd := bindingKeysByCommand(bindings)
	seen := make(map[string]bool)
	for _, binding := range bindings {
		if seen[binding.Command] {
			continue
		}
		seen[binding.Command] = true
		padded := fmt.Sprintf("%-13s", formatBindingKeys(keysByCmd[binding.Command]))
		label := binding.Help
		if label == "" {
			label = strings.ReplaceAll(binding.Command, "-", " ")
		}
		fmt.Fprintf(b, "  %s %s\n", styles.Muted.Render(padded), label)
	}
}

// formatBindingKeys shows at most two keys of a command.
func formatBindingKeys(keys []string) string {
	keys = slices.Clone(keys[:min(2, len(keys))])
	for i, k := range keys {
		if k == " " {
			keys[i] = "space"
		}
	}
	return strings.Join(keys, ", ")
}
