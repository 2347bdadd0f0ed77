package av

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// samples returns one populated value per type.
func samples() []*Value {
	out := []*Value{
		Construct(TypeText, "hello <b>"),
		Construct(TypeNumber, "3.25"),
		Construct(TypeDate, "2024-01-01→2024-01-05"),
		Construct(TypeCreated, "2023-06-01 09:30"),
		Construct(TypeUpdated, "2023-06-02"),
		Construct(TypeSelect, "Todo"),
		Construct(TypeMSelect, []SelectOption{{Content: "a", Color: "2"}, {Content: "b", Color: "3"}}),
		Construct(TypeCheckbox, "x"),
		Construct(TypeRelation, &Relation{
			BlockIDs: []string{"blk"},
			Contents: []*Value{Construct(TypeBlock, &Block{ID: "blk", Content: "Linked"})},
		}),
		Construct(TypeRollup, &Rollup{Contents: []*Value{Construct(TypeText, "r")}}),
		Construct(TypeMAsset, "assets/pic.png"),
		Construct(TypeBlock, &Block{ID: "20240101000000-aaaaaaa", Content: "Row"}),
		Construct(TypeURL, "https://example.com"),
		Construct(TypeEmail, "a@example.com"),
		Construct(TypePhone, "+1 555"),
		Construct(TypeTemplate, "{{.x}}"),
		Construct(TypeLineNumber, nil),
	}
	for i, v := range out {
		v.ID = "cell-" + string(rune('a'+i))
	}
	return out
}

func TestTransformTotal(t *testing.T) {
	for _, src := range samples() {
		for _, a := range Types {
			for _, b := range Types {
				require.NotPanics(t, func() {
					Transform(b, Transform(a, src))
				}, "%s -> %s -> %s", src.Type, a, b)
			}
		}
	}
}

func TestTransformIdempotent(t *testing.T) {
	for _, src := range samples() {
		for _, typ := range Types {
			once := Transform(typ, src)
			twice := Transform(typ, once)
			assert.True(t, Equal(once, twice), "%s -> %s", src.Type, typ)
			assert.Equal(t, typ, once.Type)
		}
	}
}

func TestTransformKeepsID(t *testing.T) {
	for _, src := range samples() {
		for _, typ := range Types {
			assert.Equal(t, src.ID, Transform(typ, src).ID)
		}
	}
}

func TestTransformRules(t *testing.T) {
	text := Construct(TypeText, "12 apples")
	num := Transform(TypeNumber, text)
	assert.Equal(t, 12.0, num.Number.Content)
	assert.True(t, num.Number.IsNotEmpty)

	bad := Transform(TypeNumber, Construct(TypeText, "apples"))
	assert.Equal(t, 0.0, bad.Number.Content)
	assert.True(t, bad.Number.IsNotEmpty)

	date := Construct(TypeDate, "2024-01-01")
	fromDate := Transform(TypeNumber, date)
	assert.Equal(t, float64(date.Date.Content), fromDate.Number.Content)

	sel := Transform(TypeMSelect, text)
	assert.Equal(t, []SelectOption{{Content: "12 apples", Color: PlaceholderColor}}, sel.MSelect)

	assert.True(t, Transform(TypeCheckbox, Construct(TypeText, "")).Checkbox.Checked)

	asText := Transform(TypeText, Construct(TypeCheckbox, ""))
	assert.Equal(t, "false", asText.Content())

	copied := Transform(TypeCreated, date)
	assert.Equal(t, *date.Date, *copied.Created)
	copied.Created.Content = 1
	assert.NotEqual(t, int64(1), date.Date.Content)

	assert.True(t, IsEmpty(Transform(TypeDate, text)))

	img := Transform(TypeMAsset, Construct(TypeURL, "https://x.test/a.JPG"))
	assert.Equal(t, AssetImage, img.MAsset[0].Type)
	file := Transform(TypeMAsset, text)
	assert.Equal(t, AssetFile, file.MAsset[0].Type)

	roll := Transform(TypeRollup, text)
	require.Len(t, roll.Rollup.Contents, 1)
	assert.Equal(t, "12 apples", roll.Rollup.Contents[0].Content())

	ln := Transform(TypeLineNumber, text)
	assert.Nil(t, ln.Text)
}

func TestTransformRelation(t *testing.T) {
	blk := Construct(TypeBlock, &Block{ID: "b1", Content: "Row"})
	rel := Transform(TypeRelation, blk)
	assert.Equal(t, []string{"b1"}, rel.Relation.BlockIDs)
	assert.Len(t, rel.Relation.Contents, 1)

	detached := Transform(TypeRelation, Construct(TypeBlock, "Row"))
	assert.Empty(t, detached.Relation.BlockIDs)

	other := Transform(TypeRelation, Construct(TypeText, "b1"))
	assert.Empty(t, other.Relation.BlockIDs)
	assert.Len(t, other.Relation.Contents, len(other.Relation.BlockIDs))
}

func TestTransformToBlockIsDetached(t *testing.T) {
	v := Transform(TypeBlock, Construct(TypeText, "Title"))
	assert.True(t, v.IsDetached)
	assert.Empty(t, v.BlockID())
	assert.Equal(t, "Title", v.Content())
}

func TestTransformUnknownPanics(t *testing.T) {
	assert.Panics(t, func() { Transform("bogus", Construct(TypeText, "")) })
	assert.Panics(t, func() { Transform(TypeText, &Value{Type: "bogus"}) })
}
