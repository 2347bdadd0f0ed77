package av

import (
	"path"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

// PlaceholderColor is the color given to options created from free text.
const PlaceholderColor = "1"

// Location is the zone used to parse and format dates. It is set once at
// startup from configuration.
var Location = time.Local

// dateDelimiters are tried in order; a delimiter is used only when it
// splits the input into exactly two parts.
var dateDelimiters = []string{"→", "-", "~"}

func emptyDate() *Date {
	return &Date{IsNotTime: true}
}

// Empty returns the canonical empty value of type t.
func Empty(t Type) *Value {
	mustValid(t)
	v := &Value{Type: t}
	switch {
	case t.IsText():
		v.TextPayload()
	case t.IsDate():
		v.DatePayload()
	case t.IsSelect():
		v.MSelect = []SelectOption{}
	}
	switch t {
	case TypeBlock:
		v.Block = &Block{}
		v.IsDetached = true
	case TypeNumber:
		v.Number = &Number{}
	case TypeCheckbox:
		v.Checkbox = &Checkbox{}
	case TypeRelation:
		v.Relation = &Relation{BlockIDs: []string{}, Contents: []*Value{}}
	case TypeRollup:
		v.Rollup = &Rollup{Contents: []*Value{}}
	case TypeMAsset:
		v.MAsset = []Asset{}
	}
	return v
}

// Construct builds a well-formed value of type t from raw input. raw may
// be nil, a string, or a structured payload matching t (*Text, *Block,
// *Number, float64, *Date, []SelectOption, *Checkbox, bool, *Relation,
// *Rollup, []Asset). Missing, empty or mismatched input yields the
// canonical empty value.
func Construct(t Type, raw any) *Value {
	v := Empty(t)
	switch x := raw.(type) {
	case nil:
	case string:
		if x != "" {
			fromString(v, x)
		}
	default:
		fromPayload(v, raw)
	}
	return v
}

// CleanText removes NUL, which cell markup cannot carry.
func CleanText(s string) string {
	return strings.ReplaceAll(s, "\x00", "")
}

func fromString(v *Value, s string) {
	s = CleanText(s)
	switch {
	case v.Type.IsText():
		v.TextPayload().Content = s
		return
	case v.Type.IsDate():
		*v.DatePayload() = *ParseDate(s)
		return
	case v.Type.IsSelect():
		v.MSelect = []SelectOption{{Content: s, Color: PlaceholderColor}}
		return
	}
	switch v.Type {
	case TypeBlock:
		v.Block.Content = s
	case TypeNumber:
		n, _ := ParseFloatPrefix(s)
		v.Number = &Number{Content: n, IsNotEmpty: true}
	case TypeCheckbox:
		v.Checkbox.Checked = true
	case TypeRelation:
		v.Relation = &Relation{
			BlockIDs: []string{s},
			Contents: []*Value{{Type: TypeBlock, Block: &Block{ID: s, Content: s}}},
		}
	case TypeRollup:
		v.Rollup.Contents = []*Value{Construct(TypeText, s)}
	case TypeMAsset:
		v.MAsset = []Asset{{Type: AssetTypeOf(s), Content: s}}
	}
}

func fromPayload(v *Value, raw any) {
	switch x := raw.(type) {
	case *Text:
		if p := v.TextPayload(); p != nil && x != nil {
			p.Content = CleanText(x.Content)
		}
	case *Block:
		if v.Type == TypeBlock && x != nil {
			b := *x
			b.Content = CleanText(b.Content)
			v.Block = &b
			v.IsDetached = b.ID == ""
		}
	case *Number:
		if v.Type == TypeNumber && x != nil {
			n := *x
			v.Number = &n
		}
	case float64:
		if v.Type == TypeNumber {
			v.Number = &Number{Content: x, IsNotEmpty: true}
		}
	case *Date:
		if p := v.DatePayload(); p != nil && x != nil {
			*p = *x
		}
	case []SelectOption:
		if v.Type.IsSelect() {
			v.MSelect = append([]SelectOption{}, x...)
		}
	case *Checkbox:
		if v.Type == TypeCheckbox && x != nil {
			v.Checkbox.Checked = x.Checked
		}
	case bool:
		if v.Type == TypeCheckbox {
			v.Checkbox.Checked = x
		}
	case *Relation:
		if v.Type == TypeRelation && x != nil {
			v.Relation = alignRelation(x)
		}
	case *Rollup:
		if v.Type == TypeRollup && x != nil {
			v.Rollup.Contents = cloneValues(x.Contents)
		}
	case []Asset:
		if v.Type == TypeMAsset {
			v.MAsset = append([]Asset{}, x...)
		}
	}
}

// alignRelation copies r, truncating the longer of BlockIDs and Contents
// so both stay index aligned.
func alignRelation(r *Relation) *Relation {
	n := min(len(r.BlockIDs), len(r.Contents))
	out := &Relation{
		BlockIDs: append([]string{}, r.BlockIDs[:n]...),
		Contents: cloneValues(r.Contents[:n]),
	}
	return out
}

// ParseDate parses a single date or a range split by →, - or ~.
// Unparsable input yields the canonical empty date.
func ParseDate(s string) *Date {
	parts := []string{s}
	for _, delim := range dateDelimiters {
		if p := strings.Split(s, delim); len(p) == 2 {
			parts = p
			break
		}
	}
	start, err := dateparse.ParseIn(strings.TrimSpace(parts[0]), Location)
	if err != nil {
		return emptyDate()
	}
	d := &Date{
		Content:    start.UnixMilli(),
		IsNotEmpty: true,
		IsNotTime:  start.Hour() == 0,
	}
	if len(parts) == 2 {
		if end, err := dateparse.ParseIn(strings.TrimSpace(parts[1]), Location); err == nil {
			d.Content2 = end.UnixMilli()
			d.IsNotEmpty2 = true
			d.HasEndDate = true
		}
	}
	return d
}

var floatPrefix = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?`)

// ParseFloatPrefix parses the longest numeric prefix of s after leading
// whitespace. It returns 0 and false when s has no numeric prefix.
func ParseFloatPrefix(s string) (float64, bool) {
	m := floatPrefix.FindString(strings.TrimSpace(s))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

var imageExts = map[string]struct{}{
	".apng": {}, ".ico": {}, ".cur": {}, ".jpg": {}, ".jpe": {}, ".jpeg": {},
	".jfif": {}, ".pjp": {}, ".pjpeg": {}, ".png": {}, ".gif": {}, ".webp": {},
	".bmp": {}, ".svg": {}, ".avif": {},
}

// IsImagePath reports whether p has a known image extension.
func IsImagePath(p string) bool {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	_, ok := imageExts[strings.ToLower(path.Ext(p))]
	return ok
}

// AssetTypeOf classifies p by extension.
func AssetTypeOf(p string) AssetType {
	if IsImagePath(p) {
		return AssetImage
	}
	return AssetFile
}

var assetIDSuffix = regexp.MustCompile(`-\d{14}-[0-9a-z]{7}$`)

// AssetName returns the display name of an uploaded asset path: the base
// name without extension or the upload id suffix.
func AssetName(p string) string {
	base := path.Base(p)
	base = strings.TrimSuffix(base, path.Ext(base))
	return assetIDSuffix.ReplaceAllString(base, "")
}

// CompressURL adds the thumbnail query used for inline image previews.
func CompressURL(p string) string {
	if !strings.HasPrefix(p, "assets/") || strings.Contains(p, "?") {
		return p
	}
	return p + "?style=thumb"
}

// RemoveCompressURL strips the thumbnail query added by CompressURL.
func RemoveCompressURL(p string) string {
	return strings.TrimSuffix(p, "?style=thumb")
}
