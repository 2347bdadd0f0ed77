package transaction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/marcus/attrview/internal/view"
)

// Applier applies operations to persisted state.
type Applier interface {
	Apply(ctx context.Context, ops []Operation) error
}

// ViewStore loads and saves views by attribute view id.
type ViewStore interface {
	Load(avID string) (*view.View, error)
	Save(v *view.View) error
}

// ApplyToView applies ops to v in order. Operations for other views are
// ignored.
func ApplyToView(v *view.View, ops []Operation) error {
	for _, op := range ops {
		if op.AvID != "" && op.AvID != v.AvID {
			continue
		}
		if err := applyOne(v, op); err != nil {
			return fmt.Errorf("%s %s: %w", op.Action, op.ID, err)
		}
	}
	return nil
}

func applyOne(v *view.View, op Operation) error {
	switch op.Action {
	case ActionUpdateCell:
		val, err := op.CellValue()
		if err != nil {
			return err
		}
		return v.SetValue(view.CellRef{RowID: op.RowID, ColID: op.KeyID}, val)
	case ActionUpdateColOptions:
		col := v.Column(op.ID)
		if col == nil {
			return view.ErrNotFound
		}
		col.Options = nil
		return json.Unmarshal(op.Data, &col.Options)
	case ActionUpdateColTemplate:
		col := v.Column(op.ID)
		if col == nil {
			return view.ErrNotFound
		}
		return json.Unmarshal(op.Data, &col.Template)
	case ActionUpdateUpdated:
		return json.Unmarshal(op.Data, &v.Updated)
	}
	return fmt.Errorf("unknown action %q", op.Action)
}

// StoreApplier applies operations to views loaded from a ViewStore.
type StoreApplier struct {
	Store ViewStore
}

// Apply groups ops by view, applies them and saves each touched view.
func (a StoreApplier) Apply(ctx context.Context, ops []Operation) error {
	var order []string
	groups := make(map[string][]Operation)
	for _, op := range ops {
		if _, ok := groups[op.AvID]; !ok {
			order = append(order, op.AvID)
		}
		groups[op.AvID] = append(groups[op.AvID], op)
	}
	for _, avID := range order {
		if err := ctx.Err(); err != nil {
			return err
		}
		v, err := a.Store.Load(avID)
		if err != nil {
			return fmt.Errorf("load view %s: %w", avID, err)
		}
		if err := ApplyToView(v, groups[avID]); err != nil {
			return err
		}
		if err := a.Store.Save(v); err != nil {
			return fmt.Errorf("save view %s: %w", avID, err)
		}
	}
	return nil
}
