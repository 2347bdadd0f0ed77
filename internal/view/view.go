// Package view holds attribute view state: columns, rows and the cell
// values they own. Rendered markup is derived from this state.
package view

import (
	"errors"
	"slices"

	"github.com/marcus/attrview/internal/av"
)

// ErrNotFound is returned when a row, column or cell does not exist.
var ErrNotFound = errors.New("view: not found")

// Kind is the layout of a view.
type Kind string

const (
	KindTable   Kind = "table"
	KindGallery Kind = "gallery"
)

// Column is a typed column definition.
type Column struct {
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Type     av.Type           `json:"type"`
	Icon     string            `json:"icon,omitempty"`
	Pin      bool              `json:"pin,omitempty"`
	Options  []av.SelectOption `json:"options,omitempty"`
	Template string            `json:"template,omitempty"`
	Width    int               `json:"width,omitempty"`
}

// HasOption reports whether content is one of the column's options.
func (c *Column) HasOption(content string) bool {
	return slices.ContainsFunc(c.Options, func(o av.SelectOption) bool {
		return o.Content == content
	})
}

// Cell is one value within a row, keyed by column id.
type Cell struct {
	ID    string    `json:"id"`
	ColID string    `json:"colID"`
	Value *av.Value `json:"value"`
}

// Row is an ordered set of cells.
type Row struct {
	ID    string  `json:"id"`
	Cells []*Cell `json:"cells"`
}

// Cell returns the cell of row r in column colID, or nil.
func (r *Row) Cell(colID string) *Cell {
	for _, c := range r.Cells {
		if c.ColID == colID {
			return c
		}
	}
	return nil
}

// CellRef addresses a cell by row and column.
type CellRef struct {
	RowID string `json:"rowID"`
	ColID string `json:"colID"`
}

// Selection tracks active cells and selected rows.
type Selection struct {
	Cells []CellRef
	Rows  []string
}

// Empty reports whether nothing is selected.
func (s Selection) Empty() bool {
	return len(s.Cells) == 0 && len(s.Rows) == 0
}

// View is a single attribute view and its rows.
type View struct {
	AvID    string    `json:"avID"`
	BlockID string    `json:"blockID"`
	ViewID  string    `json:"viewID"`
	Name    string    `json:"name"`
	Kind    Kind      `json:"kind"`
	Columns []*Column `json:"columns"`
	Rows    []*Row    `json:"rows"`
	// Updated is the host block's update stamp, formatted 20060102150405.
	Updated string `json:"updated"`

	Loading   bool      `json:"-"`
	Selection Selection `json:"-"`
}

// Column returns the column with id, or nil.
func (v *View) Column(id string) *Column {
	for _, c := range v.Columns {
		if c.ID == id {
			return c
		}
	}
	return nil
}

// ColumnIndex returns the position of column id, or -1.
func (v *View) ColumnIndex(id string) int {
	return slices.IndexFunc(v.Columns, func(c *Column) bool { return c.ID == id })
}

// Row returns the row with id, or nil.
func (v *View) Row(id string) *Row {
	for _, r := range v.Rows {
		if r.ID == id {
			return r
		}
	}
	return nil
}

// RowIndex returns the position of row id, or -1.
func (v *View) RowIndex(id string) int {
	return slices.IndexFunc(v.Rows, func(r *Row) bool { return r.ID == id })
}

// Cell returns the cell at ref, or nil.
func (v *View) Cell(ref CellRef) *Cell {
	r := v.Row(ref.RowID)
	if r == nil {
		return nil
	}
	return r.Cell(ref.ColID)
}

// Value returns the value at ref. Missing cells yield the empty value of
// the column type.
func (v *View) Value(ref CellRef) (*av.Value, error) {
	col := v.Column(ref.ColID)
	if col == nil || v.Row(ref.RowID) == nil {
		return nil, ErrNotFound
	}
	if c := v.Cell(ref); c != nil && c.Value != nil {
		return c.Value, nil
	}
	return av.Construct(col.Type, nil), nil
}

// SetValue replaces the value at ref, creating the cell when missing.
func (v *View) SetValue(ref CellRef, val *av.Value) error {
	r := v.Row(ref.RowID)
	if r == nil || v.Column(ref.ColID) == nil {
		return ErrNotFound
	}
	if c := r.Cell(ref.ColID); c != nil {
		c.Value = val
		if val.ID != "" {
			c.ID = val.ID
		}
		return nil
	}
	r.Cells = append(r.Cells, &Cell{ID: val.ID, ColID: ref.ColID, Value: val})
	return nil
}

// At returns the ref at row and column positions.
func (v *View) At(row, col int) (CellRef, bool) {
	if row < 0 || row >= len(v.Rows) || col < 0 || col >= len(v.Columns) {
		return CellRef{}, false
	}
	return CellRef{RowID: v.Rows[row].ID, ColID: v.Columns[col].ID}, true
}

// Position returns the row and column index of ref.
func (v *View) Position(ref CellRef) (row, col int) {
	return v.RowIndex(ref.RowID), v.ColumnIndex(ref.ColID)
}

// SelectedCells resolves the selection: active cells when any, otherwise
// every cell of the selected rows in column order.
func (v *View) SelectedCells() []CellRef {
	if len(v.Selection.Cells) > 0 {
		return slices.Clone(v.Selection.Cells)
	}
	var out []CellRef
	for _, rowID := range v.Selection.Rows {
		if v.Row(rowID) == nil {
			continue
		}
		for _, c := range v.Columns {
			out = append(out, CellRef{RowID: rowID, ColID: c.ID})
		}
	}
	return out
}

// Region returns the refs of the rectangle spanning a and b, grouped by
// row.
func (v *View) Region(a, b CellRef) [][]CellRef {
	r1, c1 := v.Position(a)
	r2, c2 := v.Position(b)
	if r1 < 0 || c1 < 0 || r2 < 0 || c2 < 0 {
		return nil
	}
	r1, r2 = min(r1, r2), max(r1, r2)
	c1, c2 = min(c1, c2), max(c1, c2)
	out := make([][]CellRef, 0, r2-r1+1)
	for r := r1; r <= r2; r++ {
		row := make([]CellRef, 0, c2-c1+1)
		for c := c1; c <= c2; c++ {
			ref, _ := v.At(r, c)
			row = append(row, ref)
		}
		out = append(out, row)
	}
	return out
}
