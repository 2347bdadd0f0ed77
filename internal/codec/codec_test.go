package codec

import (
	"strings"
	"testing"
	"testing/quick"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marcus/attrview/internal/av"
)

func init() {
	av.Location = time.UTC
}

func roundTrip(t *testing.T, v *av.Value) *av.Value {
	t.Helper()
	out, err := Decode(RenderCell(v, "col-1", DefaultOptions()))
	require.NoError(t, err)
	return out
}

func TestEmptyRoundTrip(t *testing.T) {
	for _, typ := range av.Types {
		if typ == av.TypeCheckbox {
			continue
		}
		t.Run(string(typ), func(t *testing.T) {
			v := av.Construct(typ, "")
			assert.True(t, av.IsEmpty(roundTrip(t, v)))
		})
	}
}

func TestRoundTripVariants(t *testing.T) {
	values := []*av.Value{
		av.Construct(av.TypeText, `a <b> & "c"`),
		av.Construct(av.TypeTemplate, "{{ .Name }}"),
		av.Construct(av.TypeEmail, "x@y.z"),
		av.Construct(av.TypePhone, "+1 <555>"),
		av.Construct(av.TypeURL, "https://example.com/some/long/path?q=1&r=2"),
		av.Construct(av.TypeURL, "not a url"),
		av.Construct(av.TypeNumber, "3.25"),
		av.Construct(av.TypeNumber, "0"),
		av.Construct(av.TypeDate, "2024-01-01→2024-01-05"),
		av.Construct(av.TypeCreated, "2024-02-03 04:05"),
		av.Construct(av.TypeUpdated, "2024-02-03"),
		av.Construct(av.TypeSelect, "Doing"),
		av.Construct(av.TypeMSelect, []av.SelectOption{{Content: "a&b", Color: "2"}, {Content: "c", Color: "7"}}),
		av.Construct(av.TypeCheckbox, "x"),
		av.Construct(av.TypeCheckbox, nil),
		av.Construct(av.TypeMAsset, []av.Asset{
			{Type: av.AssetImage, Content: "assets/a.png", Name: "a"},
			{Type: av.AssetFile, Content: "assets/b.pdf", Name: "B <doc>"},
		}),
		av.Construct(av.TypeBlock, "detached <row>"),
		av.Construct(av.TypeBlock, &av.Block{ID: "20240101000000-aaaaaaa", Icon: "1f600", Content: "Row"}),
		av.Construct(av.TypeRelation, &av.Relation{
			BlockIDs: []string{"b1", "b2"},
			Contents: []*av.Value{
				av.Construct(av.TypeBlock, &av.Block{ID: "b1", Content: "One"}),
				av.Construct(av.TypeBlock, &av.Block{ID: "b2", Content: ""}),
			},
		}),
		av.Construct(av.TypeRollup, &av.Rollup{Contents: []*av.Value{
			av.Construct(av.TypeText, "x, y"),
			av.Construct(av.TypeNumber, "7"),
			av.Construct(av.TypeMSelect, "tag"),
		}}),
	}
	for i, v := range values {
		v.ID = "cell-" + string(rune('a'+i))
		t.Run(string(v.Type), func(t *testing.T) {
			got := roundTrip(t, v)
			assert.True(t, av.Equal(v, got), "want %+v\n got %+v", v, got)
		})
	}
}

func TestDetachedBlockKeepsID(t *testing.T) {
	v := av.Construct(av.TypeBlock, &av.Block{ID: "old", Content: "x"})
	v.IsDetached = true
	got := roundTrip(t, v)
	assert.True(t, got.IsDetached)
	assert.Equal(t, "old", got.BlockID())
}

func TestNestedRollup(t *testing.T) {
	inner := av.Construct(av.TypeText, "deep")
	v := inner
	for range 8 {
		v = av.Construct(av.TypeRollup, &av.Rollup{Contents: []*av.Value{v}})
	}
	markup := Encode(v, DefaultOptions())
	assert.Contains(t, markup, "deep")
	assert.True(t, av.Equal(v, roundTrip(t, v)))
}

func TestTextRoundTripProperty(t *testing.T) {
	alphabet := []rune("ab <>&\"'/ é→\r\n\t\x00")
	f := func(idx []uint8) bool {
		var b strings.Builder
		for _, i := range idx {
			b.WriteRune(alphabet[int(i)%len(alphabet)])
		}
		for _, typ := range []av.Type{av.TypeText, av.TypeEmail, av.TypePhone, av.TypeTemplate, av.TypeURL} {
			v := av.Construct(typ, b.String())
			got, err := Decode(RenderCell(v, "c", DefaultOptions()))
			if err != nil || got.Content() != v.Content() {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestControlCharactersRoundTrip(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"crlf", "a\r\nb", "a\r\nb"},
		{"lone cr", "a\rb", "a\rb"},
		{"trailing cr", "a\r", "a\r"},
		{"tab and lf", "a\tb\nc", "a\tb\nc"},
		{"nul dropped on construct", "x\x00y", "xy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, typ := range []av.Type{av.TypeText, av.TypeURL, av.TypeBlock} {
				v := av.Construct(typ, tt.in)
				require.Equal(t, tt.want, v.Content())
				got := roundTrip(t, v)
				assert.Equal(t, tt.want, got.Content(), "type %s", typ)
				assert.True(t, av.Equal(v, got), "type %s", typ)
			}
		})
	}
}

func TestEscapeHTMLCarriageReturn(t *testing.T) {
	assert.Equal(t, "a&#13;&lt;b", EscapeHTML("a\r<b"))
	assert.Equal(t, "xy", EscapeHTML("x\x00y"))
}

func TestRollupWithEmptyItemRoundTrip(t *testing.T) {
	v := av.Construct(av.TypeRollup, &av.Rollup{Contents: []*av.Value{av.Construct(av.TypeText, "")}})
	v.ID = "cell-r"
	require.False(t, av.IsEmpty(v))

	got := roundTrip(t, v)
	assert.False(t, av.IsEmpty(got))
	require.Len(t, got.Rollup.Contents, 1)
	assert.True(t, av.Equal(v, got))
}

func TestDetachedRelationItemKeepsIcon(t *testing.T) {
	item := av.Construct(av.TypeBlock, &av.Block{ID: "b1", Icon: "1f4a1", Content: "Idea"})
	item.IsDetached = true
	v := av.Construct(av.TypeRelation, &av.Relation{BlockIDs: []string{"b1"}, Contents: []*av.Value{item}})

	got := roundTrip(t, v)
	require.Len(t, got.Relation.Contents, 1)
	assert.Equal(t, "1f4a1", got.Relation.Contents[0].Block.Icon)
	assert.True(t, got.Relation.Contents[0].IsDetached)
}

func TestNoRawMarkupSurvives(t *testing.T) {
	f := func(s string) bool {
		payload := "<script>" + s + "&amp"
		values := []*av.Value{
			av.Construct(av.TypeText, payload),
			av.Construct(av.TypeURL, payload),
			av.Construct(av.TypeBlock, payload),
			av.Construct(av.TypeMSelect, payload),
			av.Construct(av.TypeMAsset, []av.Asset{{Type: av.AssetFile, Content: payload, Name: payload}}),
		}
		for _, v := range values {
			markup := Encode(v, DefaultOptions())
			if strings.Contains(markup, "<script>") || strings.Contains(markup, "&amp<") {
				return false
			}
			if strings.Contains(markup, payload) {
				return false
			}
		}
		return true
	}
	require.NoError(t, quick.Check(f, nil))
}

func TestEncodeDeterministic(t *testing.T) {
	v := av.Construct(av.TypeDate, "2024-01-01→2024-01-05")
	assert.Equal(t, Encode(v, DefaultOptions()), Encode(v, DefaultOptions()))
}

func TestEncodeLineNumber(t *testing.T) {
	opts := DefaultOptions()
	opts.RowIndex = 4
	assert.Contains(t, Encode(av.Construct(av.TypeLineNumber, nil), opts), `>5</span>`)
}

func TestEncodeCheckboxGalleryLabel(t *testing.T) {
	opts := DefaultOptions()
	v := av.Construct(av.TypeCheckbox, "x")
	assert.NotContains(t, Encode(v, opts), "Checkbox")
	opts.View = ViewGallery
	assert.Contains(t, Encode(v, opts), "Checkbox")
	assert.Contains(t, RenderCell(v, "c", opts), "av__cell-check")
}

func TestEncodeURLShortensSuffix(t *testing.T) {
	markup := Encode(av.Construct(av.TypeURL, "https://example.com/abcdefghijklmnop"), DefaultOptions())
	assert.Contains(t, markup, "<span>example.com</span>")
	assert.Contains(t, markup, "/abc...klmnop")
}

func TestEncodeUnknownPanics(t *testing.T) {
	assert.Panics(t, func() { Encode(&av.Value{Type: "nope"}, DefaultOptions()) })
}

func TestDecodeErrors(t *testing.T) {
	_, err := Decode("<p>plain</p>")
	assert.ErrorIs(t, err, ErrNoCell)
	_, err = Decode(`<div data-dtype="nope"></div>`)
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDecodeMissingParts(t *testing.T) {
	v, err := Decode(`<div class="av__cell" data-id="x" data-dtype="number"></div>`)
	require.NoError(t, err)
	assert.True(t, av.IsEmpty(v))
	assert.Equal(t, "x", v.ID)

	d, err := Decode(`<div class="av__cell" data-dtype="date"><span class="av__celltext" data-value="{bad"></span></div>`)
	require.NoError(t, err)
	assert.True(t, av.IsEmpty(d))
}

func TestCellText(t *testing.T) {
	tests := []struct {
		name string
		v    *av.Value
		want string
	}{
		{"text", av.Construct(av.TypeText, "a&b"), "a&b"},
		{"mSelect", av.Construct(av.TypeMSelect, []av.SelectOption{{Content: "x", Color: "1"}, {Content: "y", Color: "2"}}), "x, y"},
		{"url", av.Construct(av.TypeURL, "https://example.com/a"), "https://example.com/a"},
		{"range", av.Construct(av.TypeDate, "2024-01-01→2024-01-05"), "2024-01-01 → 2024-01-05"},
		{"detached block", av.Construct(av.TypeBlock, "Row"), "Row"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CellText(RenderCell(tt.v, "c", DefaultOptions())))
		})
	}
}

func TestUpdateHeader(t *testing.T) {
	markup := RenderHeader(Header{ColID: "c1", Type: av.TypeNumber, Name: "Price", Icon: "1f4b0"})
	empty, name, pin := "", "Cost <usd>", true

	out, err := UpdateHeader(markup, HeaderPatch{Name: &name, Pin: &pin})
	require.NoError(t, err)
	h, err := ParseHeader(out)
	require.NoError(t, err)
	assert.Equal(t, "Cost <usd>", h.Name)
	assert.Equal(t, "1f4b0", h.Icon)
	assert.True(t, h.Pin)

	out, err = UpdateHeader(out, HeaderPatch{Icon: &empty})
	require.NoError(t, err)
	h, err = ParseHeader(out)
	require.NoError(t, err)
	assert.Empty(t, h.Icon)
	assert.Equal(t, "Cost <usd>", h.Name)
	assert.True(t, h.Pin)
	assert.Contains(t, out, "#iconNumber")

	out, err = UpdateHeader(out, HeaderPatch{Pin: new(bool)})
	require.NoError(t, err)
	h, err = ParseHeader(out)
	require.NoError(t, err)
	assert.False(t, h.Pin)
	assert.Equal(t, 1, strings.Count(out, "av__cellheadericon"))
}

func TestTableRoundTrip(t *testing.T) {
	headers := []Header{
		{ColID: "name", Type: av.TypeBlock, Name: "Name", Icon: "1f600"},
		{ColID: "tags", Type: av.TypeMSelect, Name: "Tags", Pin: true},
	}
	rows := [][]*av.Value{
		{av.Construct(av.TypeBlock, "Alpha"), av.Construct(av.TypeMSelect, "red")},
		{av.Construct(av.TypeBlock, "Beta\r\nline"), av.Construct(av.TypeMSelect, nil)},
	}
	tbl, err := DecodeTable(RenderTable(headers, rows, DefaultOptions()))
	require.NoError(t, err)
	assert.Equal(t, headers, tbl.Headers)
	require.Len(t, tbl.Rows, 2)
	for i := range rows {
		require.Len(t, tbl.Rows[i], 2)
		for j := range rows[i] {
			assert.True(t, av.Equal(rows[i][j], tbl.Rows[i][j]), "cell %d,%d", i, j)
		}
	}
}

func TestDecodeTableLooseCells(t *testing.T) {
	markup := RenderCell(av.Construct(av.TypeText, "one"), "a", DefaultOptions()) +
		RenderCell(av.Construct(av.TypeNumber, "2"), "b", DefaultOptions())
	tbl, err := DecodeTable(markup)
	require.NoError(t, err)
	assert.Empty(t, tbl.Headers)
	require.Len(t, tbl.Rows, 1)
	assert.Len(t, tbl.Rows[0], 2)

	_, err = DecodeTable("plain\ttext")
	assert.ErrorIs(t, err, ErrNoCell)
	_, err = DecodeTable(`<div class="av__row"><div data-dtype="bogus"></div></div>`)
	assert.ErrorIs(t, err, ErrUnknownType)
}
