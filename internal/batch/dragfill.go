package batch

import (
	"context"
	"slices"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/transaction"
	"github.com/marcus/attrview/internal/view"
)

// Capture snapshots the values of a source region, row by row.
func Capture(v *view.View, region [][]view.CellRef) [][]*av.Value {
	out := make([][]*av.Value, 0, len(region))
	for _, row := range region {
		vals := make([]*av.Value, 0, len(row))
		for _, ref := range row {
			val, err := v.Value(ref)
			if err != nil {
				val = &av.Value{Type: av.TypeLineNumber}
			}
			vals = append(vals, av.Clone(val))
		}
		out = append(out, vals)
	}
	return out
}

// FillTargets returns the rows of target that are not part of source.
func FillTargets(source, target [][]view.CellRef) [][]view.CellRef {
	var inSource []view.CellRef
	for _, row := range source {
		inSource = append(inSource, row...)
	}
	var out [][]view.CellRef
	for _, row := range target {
		var keep []view.CellRef
		for _, ref := range row {
			if !slices.Contains(inSource, ref) {
				keep = append(keep, ref)
			}
		}
		if len(keep) > 0 {
			out = append(out, keep)
		}
	}
	return out
}

// DragFill copies captured source rows over target rows cyclically:
// target row i receives source row i mod len(sources), cell by cell.
// Server-managed, rollup and template targets are skipped, as are block
// targets that reference a real block. Filled blocks are always detached
// and select options new to a column are added to it.
func (o *Orchestrator) DragFill(ctx context.Context, v *view.View, sources [][]*av.Value, targets [][]view.CellRef) (Result, error) {
	var res Result
	if len(sources) == 0 {
		return res, nil
	}
	options := make(columnOptions)
	for i, row := range targets {
		src := sources[i%len(sources)]
		for j, ref := range row {
			if j >= len(src) {
				break
			}
			col := v.Column(ref.ColID)
			if col == nil || skipped(col.Type) {
				continue
			}
			old, err := v.Value(ref)
			if err != nil {
				continue
			}
			if col.Type == av.TypeBlock && !old.IsDetached {
				continue
			}
			old = av.Clone(old)
			if c := v.Cell(ref); c != nil && c.ID != "" {
				old.ID = c.ID
			}

			next := av.Transform(col.Type, src[j])
			if next.Type == av.TypeBlock {
				next.IsDetached = true
				next.Block.ID = ""
			}
			next.ID = old.ID
			options.merge(&res, v.AvID, col, next)
			if av.Equal(next, old) {
				continue
			}
			res.Do = append(res.Do, transaction.UpdateCell(v.AvID, col.ID, ref.RowID, next))
			res.Undo = append(res.Undo, transaction.UpdateCell(v.AvID, col.ID, ref.RowID, old))
		}
	}
	if res.Empty() {
		return res, nil
	}
	o.appendUpdated(v, &res)
	if err := o.log.Submit(ctx, res.Do, res.Undo); err != nil {
		return res, err
	}
	o.logger.Debug("drag fill", "av", v.AvID, "ops", len(res.Do))
	return res, nil
}
