package batch

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/attrview/internal/av"
	"github.com/marcus/attrview/internal/codec"
	"github.com/marcus/attrview/internal/transaction"
	"github.com/marcus/attrview/internal/view"
)

// Result is the outcome of one batch. Text and JSON hold the previous
// contents of the touched cells, as used for copy.
type Result struct {
	Do   []transaction.Operation
	Undo []transaction.Operation
	Text string
	JSON [][]*av.Value
}

// Empty reports whether the batch emitted no operations.
func (r Result) Empty() bool {
	return len(r.Do) == 0
}

// Orchestrator turns cell edits into operation pairs and submits them.
type Orchestrator struct {
	log    transaction.Log
	now    func() time.Time
	logger *slog.Logger
	render codec.RenderOptions
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithClock sets the time source used for update stamps.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithRenderOptions sets the options used to render copied text.
func WithRenderOptions(opts codec.RenderOptions) Option {
	return func(o *Orchestrator) { o.render = opts }
}

// New returns an Orchestrator submitting to log.
func New(log transaction.Log, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		log:    log,
		now:    time.Now,
		logger: slog.Default(),
		render: codec.DefaultOptions(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// skipped reports whether cells of type t are never written by a batch.
func skipped(t av.Type) bool {
	return t.ServerManaged() || t == av.TypeTemplate || t == av.TypeRollup
}

// ApplyValue applies in to cells (or, when cells is empty, to the view's
// selection) and submits the resulting operations as one transaction.
// A batch that changes nothing submits nothing.
func (o *Orchestrator) ApplyValue(ctx context.Context, v *view.View, cells []view.CellRef, in Input) (Result, error) {
	res := o.Operations(v, cells, in)
	if res.Empty() {
		return res, nil
	}
	o.appendUpdated(v, &res)
	if err := o.log.Submit(ctx, res.Do, res.Undo); err != nil {
		return res, err
	}
	o.logger.Debug("cells updated", "av", v.AvID, "ops", len(res.Do))
	return res, nil
}

// Operations computes the operations ApplyValue would submit, without the
// trailing update stamp and without submitting.
func (o *Orchestrator) Operations(v *view.View, cells []view.CellRef, in Input) Result {
	if len(cells) == 0 {
		cells = v.SelectedCells()
	}
	var res Result
	options := make(columnOptions)

	for i, ref := range cells {
		col := v.Column(ref.ColID)
		if col == nil || v.Row(ref.RowID) == nil || skipped(col.Type) {
			continue
		}
		old, _ := v.Value(ref)
		old = av.Clone(old)
		if c := v.Cell(ref); c != nil && c.ID != "" {
			old.ID = c.ID
		}
		o.collect(&res, v, cells, i, old)

		next, ok := o.newValue(col, old, in)
		if !ok {
			continue
		}
		next.ID = old.ID

		options.merge(&res, v.AvID, col, next)
		if av.Equal(next, old) {
			continue
		}
		res.Do = append(res.Do, transaction.UpdateCell(v.AvID, col.ID, ref.RowID, next))
		res.Undo = append(res.Undo, transaction.UpdateCell(v.AvID, col.ID, ref.RowID, old))
	}
	res.Text = strings.TrimSuffix(res.Text, "\n\n")
	return res
}

// CopyText returns the plain text and values of cells (or the selection)
// without changing anything.
func (o *Orchestrator) CopyText(v *view.View, cells []view.CellRef) (string, [][]*av.Value) {
	if len(cells) == 0 {
		cells = v.SelectedCells()
	}
	var res Result
	for i, ref := range cells {
		old, err := v.Value(ref)
		if err != nil {
			continue
		}
		o.collect(&res, v, cells, i, av.Clone(old))
	}
	return strings.TrimSuffix(res.Text, "\n\n"), res.JSON
}

// collect appends the copy text and value of cells[i]. Adjacent cells of
// one row are joined by a tab; rows are separated by a blank line.
func (o *Orchestrator) collect(res *Result, v *view.View, cells []view.CellRef, i int, old *av.Value) {
	opts := o.render
	opts.RowIndex = v.RowIndex(cells[i].RowID)
	res.Text += codec.CellText(codec.Encode(old, opts))
	if i+1 < len(cells) && adjacent(v, cells[i], cells[i+1]) {
		res.Text += "\t"
	} else {
		res.Text += "\n\n"
	}
	if i == 0 || !adjacent(v, cells[i-1], cells[i]) {
		res.JSON = append(res.JSON, nil)
	}
	res.JSON[len(res.JSON)-1] = append(res.JSON[len(res.JSON)-1], old)
}

// adjacent reports whether b is the cell right of a in the same row.
func adjacent(v *view.View, a, b view.CellRef) bool {
	return a.RowID == b.RowID && v.ColumnIndex(b.ColID) == v.ColumnIndex(a.ColID)+1
}

// newValue builds the replacement for old. Select, mAsset and referenced
// block cells add to their current content instead of replacing it.
func (o *Orchestrator) newValue(col *view.Column, old *av.Value, in Input) (*av.Value, bool) {
	t := col.Type
	switch {
	case t == av.TypeMAsset && in.kind == kindAssets:
		return av.Construct(t, slices.Concat(old.MAsset, in.assets)), true
	case t == av.TypeMAsset && in.kind == kindText:
		asset, ok := parseAsset(in.text, in.html)
		if !ok {
			return nil, false
		}
		return av.Construct(t, slices.Concat(old.MAsset, []av.Asset{asset})), true
	case t.IsSelect() && in.kind == kindText:
		return av.Construct(t, slices.Concat(old.MSelect, newOptions(old.MSelect, in.text))), true
	case t == av.TypeBlock && in.kind == kindText && old.BlockID() != "":
		return av.Construct(t, &av.Block{ID: old.BlockID(), Icon: old.Block.Icon, Content: in.text}), true
	}
	switch in.kind {
	case kindText:
		return av.Construct(t, in.text), true
	case kindValue:
		if in.value == nil {
			return av.Construct(t, nil), true
		}
		return av.Transform(t, in.value), true
	case kindAssets:
		return av.Transform(t, av.Construct(av.TypeMAsset, in.assets)), true
	case kindPayload:
		return av.Construct(t, in.payload), true
	}
	return av.Construct(t, nil), true
}

var lineBreaks = strings.NewReplacer("\r\n", "", "\n", "", "\r", "", "\u2028", "", "\u2029", "")

// newOptions splits s on commas into options not already in existing.
// Colors continue from the current option count.
func newOptions(existing []av.SelectOption, s string) []av.SelectOption {
	var out []av.SelectOption
	seen := make(map[string]bool)
	color := len(existing)
	for _, token := range strings.Split(s, ",") {
		token = lineBreaks.Replace(strings.TrimSpace(token))
		if token == "" || seen[token] {
			continue
		}
		seen[token] = true
		if slices.ContainsFunc(existing, func(o av.SelectOption) bool { return o.Content == token }) {
			continue
		}
		color++
		out = append(out, av.SelectOption{Content: token, Color: strconv.Itoa(color)})
	}
	return out
}

// columnOptions holds the option lists of select columns changed earlier
// in a batch, so later cells merge into them.
type columnOptions map[string][]av.SelectOption

// merge emits a column options pair when next holds options col does not
// list yet.
func (m columnOptions) merge(res *Result, avID string, col *view.Column, next *av.Value) {
	if !col.Type.IsSelect() {
		return
	}
	current, seen := m[col.ID]
	if !seen {
		current = col.Options
	}
	merged, changed := mergeOptions(current, next.MSelect)
	if !changed {
		return
	}
	res.Do = append(res.Do, transaction.UpdateColOptions(avID, col.ID, merged))
	res.Undo = append(res.Undo, transaction.UpdateColOptions(avID, col.ID, current))
	m[col.ID] = merged
}

// mergeOptions adds the options of a cell value missing from a column.
func mergeOptions(column, cell []av.SelectOption) ([]av.SelectOption, bool) {
	merged := slices.Clone(column)
	changed := false
	for _, opt := range cell {
		if slices.ContainsFunc(merged, func(o av.SelectOption) bool { return o.Content == opt.Content }) {
			continue
		}
		merged = append(merged, opt)
		changed = true
	}
	return merged, changed
}

func (o *Orchestrator) appendUpdated(v *view.View, res *Result) {
	stamp := o.now().Format(transaction.UpdatedLayout)
	res.Do = append(res.Do, transaction.UpdateUpdated(v.AvID, v.BlockID, stamp))
	res.Undo = append(res.Undo, transaction.UpdateUpdated(v.AvID, v.BlockID, v.Updated))
}
