package av

// transformer converts a value of any source type into its target type.
// The source is never mutated.
type transformer func(src *Value) *Value

// transformers is keyed by target type; each entry handles every source.
var transformers map[Type]transformer

func init() {
	transformers = map[Type]transformer{
		TypeNumber:     toNumber,
		TypeSelect:     toSelect(TypeSelect),
		TypeMSelect:    toSelect(TypeMSelect),
		TypeCheckbox:   toCheckbox,
		TypeRelation:   toRelation,
		TypeRollup:     toRollup,
		TypeMAsset:     toMAsset,
		TypeBlock:      toBlock,
		TypeLineNumber: toLineNumber,
	}
	for _, t := range Types {
		switch {
		case t.IsText():
			transformers[t] = toText(t)
		case t.IsDate():
			transformers[t] = toDate(t)
		}
	}
}

// Transform converts v to type target. Same-type transforms return a copy
// of v. The value id survives every transform except to lineNumber, which
// keeps only the id. Unknown types panic.
func Transform(target Type, v *Value) *Value {
	mustValid(target)
	mustValid(v.Type)
	if v.Type == target {
		return Clone(v)
	}
	out := transformers[target](v)
	out.ID = v.ID
	return out
}

func toNumber(src *Value) *Value {
	out := Empty(TypeNumber)
	if src.Type.IsDate() {
		d := *src.dateSlot()
		if d != nil {
			out.Number = &Number{Content: float64(d.Content), IsNotEmpty: d.IsNotEmpty}
		}
		return out
	}
	n, _ := ParseFloatPrefix(DisplayText(src))
	out.Number = &Number{Content: n, IsNotEmpty: true}
	return out
}

func toText(target Type) transformer {
	return func(src *Value) *Value {
		out := Empty(target)
		out.TextPayload().Content = DisplayText(src)
		return out
	}
}

func toBlock(src *Value) *Value {
	out := Empty(TypeBlock)
	out.Block.Content = DisplayText(src)
	return out
}

func toSelect(target Type) transformer {
	return func(src *Value) *Value {
		out := Empty(target)
		if text := DisplayText(src); text != "" {
			out.MSelect = []SelectOption{{Content: text, Color: PlaceholderColor}}
		}
		return out
	}
}

func toCheckbox(*Value) *Value {
	out := Empty(TypeCheckbox)
	out.Checkbox.Checked = true
	return out
}

func toRelation(src *Value) *Value {
	out := Empty(TypeRelation)
	if src.Type == TypeBlock && src.BlockID() != "" {
		out.Relation = &Relation{
			BlockIDs: []string{src.BlockID()},
			Contents: []*Value{Clone(src)},
		}
	}
	return out
}

func toRollup(src *Value) *Value {
	out := Empty(TypeRollup)
	out.Rollup.Contents = []*Value{Clone(src)}
	return out
}

func toDate(target Type) transformer {
	return func(src *Value) *Value {
		out := Empty(target)
		if src.Type.IsDate() {
			if d := *src.dateSlot(); d != nil {
				*out.DatePayload() = *d
			}
		}
		return out
	}
}

func toMAsset(src *Value) *Value {
	out := Empty(TypeMAsset)
	if text := DisplayText(src); text != "" {
		out.MAsset = []Asset{{Type: AssetTypeOf(text), Content: text}}
	}
	return out
}

func toLineNumber(*Value) *Value {
	return &Value{Type: TypeLineNumber}
}
