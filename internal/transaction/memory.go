package transaction

import (
	"context"
	"sync"
)

// Pair is one submitted do/undo pair.
type Pair struct {
	Do   []Operation
	Undo []Operation
}

// Memory is an in-process Log. It records submissions and optionally
// applies them.
type Memory struct {
	Applier Applier

	mu    sync.Mutex
	pairs []Pair
}

// Submit records the pair and applies do when an Applier is set.
func (m *Memory) Submit(ctx context.Context, do, undo []Operation) error {
	if m.Applier != nil {
		if err := m.Applier.Apply(ctx, do); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pairs = append(m.pairs, Pair{Do: do, Undo: undo})
	return nil
}

// Pairs returns the recorded submissions.
func (m *Memory) Pairs() []Pair {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Pair(nil), m.pairs...)
}

// ApplierFunc adapts a function to Applier.
type ApplierFunc func(ctx context.Context, ops []Operation) error

// Apply calls f.
func (f ApplierFunc) Apply(ctx context.Context, ops []Operation) error {
	return f(ctx, ops)
}
