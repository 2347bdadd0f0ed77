package av

import (
	"encoding/json"
	"strconv"
	"time"
)

// DateLayout is the display format of date values.
const DateLayout = "2006-01-02 15:04"

// IsEmpty reports whether v carries no information. Checkbox values are
// never empty; line numbers always are.
func IsEmpty(v *Value) bool {
	mustValid(v.Type)
	switch {
	case v.Type.IsText():
		return v.Content() == ""
	case v.Type.IsDate():
		d := *v.dateSlot()
		return d == nil || (!d.IsNotEmpty && !d.IsNotEmpty2)
	case v.Type.IsSelect():
		return len(v.MSelect) == 0
	}
	switch v.Type {
	case TypeBlock:
		return v.Content() == ""
	case TypeNumber:
		return v.Number == nil || !v.Number.IsNotEmpty
	case TypeCheckbox:
		return false
	case TypeRelation:
		return v.Relation == nil || len(v.Relation.BlockIDs) == 0
	case TypeRollup:
		return v.Rollup == nil || len(v.Rollup.Contents) == 0
	case TypeMAsset:
		return len(v.MAsset) == 0
	}
	return true
}

// maxDisplayDepth bounds how far DisplayText follows nested relation and
// rollup contents.
const maxDisplayDepth = 8

// DisplayText returns the single-line summary of v used for plain-text
// export and search. Relations and rollups use their first content.
func DisplayText(v *Value) string {
	return displayText(v, 0)
}

func displayText(v *Value, depth int) string {
	mustValid(v.Type)
	switch {
	case v.Type.IsText():
		return v.Content()
	case v.Type.IsDate():
		d := *v.dateSlot()
		if d == nil || !d.IsNotEmpty {
			return ""
		}
		return FormatDate(d.Content)
	case v.Type.IsSelect():
		if len(v.MSelect) == 0 {
			return ""
		}
		return v.MSelect[0].Content
	}
	switch v.Type {
	case TypeBlock:
		return v.Content()
	case TypeNumber:
		if v.Number == nil || !v.Number.IsNotEmpty {
			return ""
		}
		return strconv.FormatFloat(v.Number.Content, 'f', -1, 64)
	case TypeCheckbox:
		return strconv.FormatBool(v.Checkbox != nil && v.Checkbox.Checked)
	case TypeRelation:
		if v.Relation == nil || len(v.Relation.Contents) == 0 || depth >= maxDisplayDepth {
			return ""
		}
		return displayText(v.Relation.Contents[0], depth+1)
	case TypeRollup:
		if v.Rollup == nil || len(v.Rollup.Contents) == 0 || depth >= maxDisplayDepth {
			return ""
		}
		return displayText(v.Rollup.Contents[0], depth+1)
	case TypeMAsset:
		if len(v.MAsset) == 0 {
			return ""
		}
		return v.MAsset[0].Content
	}
	return ""
}

// FormatDate renders Unix milliseconds in DateLayout.
func FormatDate(ms int64) string {
	return time.UnixMilli(ms).In(Location).Format(DateLayout)
}

// Clone returns a deep copy of v.
func Clone(v *Value) *Value {
	if v == nil {
		return nil
	}
	out := *v
	if v.Block != nil {
		b := *v.Block
		out.Block = &b
	}
	if slot := out.textSlot(); slot != nil && *slot != nil {
		t := **slot
		*slot = &t
	}
	if slot := out.dateSlot(); slot != nil && *slot != nil {
		d := **slot
		*slot = &d
	}
	if v.Number != nil {
		n := *v.Number
		out.Number = &n
	}
	if v.Checkbox != nil {
		c := *v.Checkbox
		out.Checkbox = &c
	}
	if v.MSelect != nil {
		out.MSelect = append([]SelectOption{}, v.MSelect...)
	}
	if v.MAsset != nil {
		out.MAsset = append([]Asset{}, v.MAsset...)
	}
	if v.Relation != nil {
		out.Relation = &Relation{
			BlockIDs: append([]string{}, v.Relation.BlockIDs...),
			Contents: cloneValues(v.Relation.Contents),
		}
	}
	if v.Rollup != nil {
		out.Rollup = &Rollup{Contents: cloneValues(v.Rollup.Contents)}
	}
	return &out
}

func cloneValues(vs []*Value) []*Value {
	out := make([]*Value, len(vs))
	for i, v := range vs {
		out[i] = Clone(v)
	}
	return out
}

// Equal reports whether a and b hold the same information. Cached
// formatted content and nil-versus-empty collections are ignored.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	return string(canonical(a)) == string(canonical(b))
}

func canonical(v *Value) []byte {
	c := Clone(v)
	if c.Number != nil {
		c.Number.FormattedContent = ""
		if !c.Number.IsNotEmpty {
			c.Number.Content = 0
		}
	}
	if slot := c.dateSlot(); slot != nil && *slot != nil {
		(*slot).FormattedContent = ""
	}
	normalizeEmpty(c)
	if c.Relation != nil {
		for _, item := range c.Relation.Contents {
			normalizeEmpty(item)
		}
	}
	data, _ := json.Marshal(c)
	return data
}

func normalizeEmpty(v *Value) {
	if v == nil {
		return
	}
	if slot := v.textSlot(); slot != nil && *slot == nil {
		*slot = &Text{}
	}
	if slot := v.dateSlot(); slot != nil && *slot == nil {
		*slot = emptyDate()
	}
	switch {
	case v.Type == TypeBlock && v.Block == nil:
		v.Block = &Block{}
	case v.Type == TypeNumber && v.Number == nil:
		v.Number = &Number{}
	case v.Type == TypeCheckbox && v.Checkbox == nil:
		v.Checkbox = &Checkbox{}
	}
	if v.Type == TypeRelation && v.Relation != nil && len(v.Relation.BlockIDs) == 0 {
		v.Relation.BlockIDs = nil
		v.Relation.Contents = nil
	}
	if v.Type == TypeRollup && v.Rollup != nil && len(v.Rollup.Contents) == 0 {
		v.Rollup.Contents = nil
	}
}
