// Package keymap resolves key presses to named commands per focus context,
// with user overrides from the config file.
package keymap

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// Binding maps a key (or a space separated key sequence) to a command in
// a context.
type Binding struct {
	Key     string
	Command string
	Context string
	Help    string
}

// Registry resolves keys to commands.
type Registry struct {
	bindings []Binding
	pending  string
}

// NewRegistry returns a registry holding bindings.
func NewRegistry(bindings []Binding) *Registry {
	return &Registry{bindings: bindings}
}

// Default returns a registry with DefaultBindings and overrides applied.
func Default(overrides map[string]string) *Registry {
	r := NewRegistry(DefaultBindings())
	r.ApplyOverrides(overrides)
	return r
}

// ApplyOverrides binds each key to a command. The binding is added in every
// context the command already appears in; existing bindings of the key in
// those contexts are replaced.
func (r *Registry) ApplyOverrides(overrides map[string]string) {
	for k, command := range overrides {
		var contexts []string
		for _, b := range r.bindings {
			if b.Command == command && !contains(contexts, b.Context) {
				contexts = append(contexts, b.Context)
			}
		}
		for _, ctx := range contexts {
			r.bindings = removeKey(r.bindings, k, ctx)
			r.bindings = append(r.bindings, Binding{Key: k, Command: command, Context: ctx, Help: r.help(command)})
		}
	}
}

func (r *Registry) help(command string) string {
	for _, b := range r.bindings {
		if b.Command == command {
			return b.Help
		}
	}
	return command
}

func contains(s []string, v string) bool {
	for _, x := range s {
		if x == v {
			return true
		}
	}
	return false
}

func removeKey(bindings []Binding, k, ctx string) []Binding {
	out := bindings[:0]
	for _, b := range bindings {
		if b.Key != k || b.Context != ctx {
			out = append(out, b)
		}
	}
	return out
}

// Handle resolves msg in ctx, falling back to the global context. The
// second result reports whether msg started a key sequence that needs
// another key.
func (r *Registry) Handle(msg tea.KeyMsg, ctx string) (string, bool) {
	k := msg.String()
	if r.pending != "" {
		seq := r.pending + " " + k
		r.pending = ""
		if cmd := r.lookup(seq, ctx); cmd != "" {
			return cmd, false
		}
	}
	if cmd := r.lookup(k, ctx); cmd != "" {
		return cmd, false
	}
	if r.isPrefix(k, ctx) {
		r.pending = k
		return "", true
	}
	return "", false
}

// Pending returns the partial key sequence, if any.
func (r *Registry) Pending() string {
	return r.pending
}

// Lookup returns the command bound to the single key k in ctx or the
// global context, leaving any pending sequence untouched.
func (r *Registry) Lookup(k, ctx string) string {
	return r.lookup(k, ctx)
}

func (r *Registry) lookup(k, ctx string) string {
	for _, c := range []string{ctx, ContextGlobal} {
		for i := len(r.bindings) - 1; i >= 0; i-- {
			b := r.bindings[i]
			if b.Context == c && b.Key == k {
				return b.Command
			}
		}
	}
	return ""
}

func (r *Registry) isPrefix(k, ctx string) bool {
	for _, b := range r.bindings {
		if (b.Context == ctx || b.Context == ContextGlobal) && strings.HasPrefix(b.Key, k+" ") {
			return true
		}
	}
	return false
}

// KeyBinding returns the bubbles binding for command in ctx, used for
// key.Matches checks and help rendering.
func (r *Registry) KeyBinding(command, ctx string) key.Binding {
	var keys []string
	help := command
	for _, b := range r.bindings {
		if b.Context == ctx && b.Command == command && !strings.Contains(b.Key, " ") {
			keys = append(keys, b.Key)
			help = b.Help
		}
	}
	if len(keys) == 0 {
		return key.NewBinding(key.WithDisabled())
	}
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(keys[0], help))
}

// Bindings returns the bindings of ctx, for help and footer rendering.
func (r *Registry) Bindings(ctx string) []Binding {
	var out []Binding
	for _, b := range r.bindings {
		if b.Context == ctx {
			out = append(out, b)
		}
	}
	return out
}
