// Package transaction defines the do/undo operations emitted by cell
// edits, the log they are submitted to, and a SQLite journal that applies
// and replays them.
package transaction

import (
	"context"
	"encoding/json"

	"github.com/marcus/attrview/internal/av"
)

// Action names an operation.
type Action string

const (
	ActionUpdateCell        Action = "updateAttrViewCell"
	ActionUpdateColOptions  Action = "updateAttrViewColOptions"
	ActionUpdateColTemplate Action = "updateAttrViewColTemplate"
	ActionUpdateUpdated     Action = "doUpdateUpdated"
)

// UpdatedLayout formats the host block's update stamp.
const UpdatedLayout = "20060102150405"

// Operation is one named mutation. Data holds the action's payload.
type Operation struct {
	Action Action          `json:"action"`
	ID     string          `json:"id,omitempty"`
	AvID   string          `json:"avID,omitempty"`
	KeyID  string          `json:"keyID,omitempty"`
	RowID  string          `json:"rowID,omitempty"`
	Data   json.RawMessage `json:"data,omitempty"`
}

// Log accepts operation pairs: do is applied now, undo is retained for a
// later inverse application. undo lists the inverse of do[i] at index i and
// is applied last to first.
type Log interface {
	Submit(ctx context.Context, do, undo []Operation) error
}

func mustJSON(v any) json.RawMessage {
	data, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return data
}

// UpdateCell sets the value of the cell at (rowID, keyID).
func UpdateCell(avID, keyID, rowID string, v *av.Value) Operation {
	return Operation{
		Action: ActionUpdateCell,
		ID:     v.ID,
		AvID:   avID,
		KeyID:  keyID,
		RowID:  rowID,
		Data:   mustJSON(v),
	}
}

// UpdateColOptions replaces a select column's option list.
func UpdateColOptions(avID, keyID string, opts []av.SelectOption) Operation {
	if opts == nil {
		opts = []av.SelectOption{}
	}
	return Operation{
		Action: ActionUpdateColOptions,
		ID:     keyID,
		AvID:   avID,
		Data:   mustJSON(opts),
	}
}

// UpdateColTemplate replaces a template column's expression.
func UpdateColTemplate(avID, keyID, tmpl string) Operation {
	return Operation{
		Action: ActionUpdateColTemplate,
		ID:     keyID,
		AvID:   avID,
		Data:   mustJSON(tmpl),
	}
}

// UpdateUpdated sets the host block's update stamp.
func UpdateUpdated(avID, blockID, stamp string) Operation {
	return Operation{
		Action: ActionUpdateUpdated,
		ID:     blockID,
		AvID:   avID,
		Data:   mustJSON(stamp),
	}
}

// CellValue decodes the value carried by an updateAttrViewCell operation.
func (op Operation) CellValue() (*av.Value, error) {
	var v av.Value
	if err := json.Unmarshal(op.Data, &v); err != nil {
		return nil, err
	}
	return &v, nil
}
