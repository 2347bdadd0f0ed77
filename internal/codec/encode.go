// Package codec renders cell values to HTML markup and reads them back.
package codec

import (
	"encoding/json"
	"html"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/marcus/attrview/internal/av"
)

// ViewKind selects table or gallery rendering.
type ViewKind string

const (
	ViewTable   ViewKind = "table"
	ViewGallery ViewKind = "gallery"
)

// maxRollupDepth bounds rollup-in-rollup rendering.
const maxRollupDepth = 4

const (
	dayLayout    = "2006-01-02"
	forwardIcon  = `<svg class="av__cellicon"><use xlink:href="#iconForward"></use></svg>`
	defaultEmoji = "📄"
)

// Labels are the localized strings embedded in markup.
type Labels struct {
	More     string `json:"more"`
	Update   string `json:"update"`
	Untitled string `json:"untitled"`
	Checkbox string `json:"checkbox"`
}

// DefaultLabels returns the English labels.
func DefaultLabels() Labels {
	return Labels{
		More:     "More",
		Update:   "Update",
		Untitled: "Untitled",
		Checkbox: "Checkbox",
	}
}

// RenderOptions controls Encode. RowIndex only affects line numbers and
// View only affects the checkbox label.
type RenderOptions struct {
	RowIndex int
	ShowIcon bool
	View     ViewKind
	Labels   Labels
}

// DefaultOptions returns options for a table view with icons.
func DefaultOptions() RenderOptions {
	return RenderOptions{ShowIcon: true, View: ViewTable, Labels: DefaultLabels()}
}

// EscapeHTML escapes text for embedding in markup, including attribute
// values. Carriage returns become character references since the HTML
// parser folds raw ones into line feeds. NUL cannot be carried by HTML
// and is dropped; av.Construct never produces it.
func EscapeHTML(s string) string {
	s = html.EscapeString(strings.ReplaceAll(s, "\x00", ""))
	return strings.ReplaceAll(s, "\r", "&#13;")
}

// Encode renders the inner markup of a cell. It panics on an unknown
// value type.
func Encode(v *av.Value, opts RenderOptions) string {
	return encode(v, opts, 0)
}

func encode(v *av.Value, opts RenderOptions, depth int) string {
	var b strings.Builder
	switch v.Type {
	case av.TypeText, av.TypeTemplate:
		b.WriteString(`<span class="av__celltext">` + EscapeHTML(v.Content()) + `</span>`)
	case av.TypeEmail, av.TypePhone:
		b.WriteString(`<span class="av__celltext av__celltext--url" data-type="` + string(v.Type) + `">` +
			EscapeHTML(v.Content()) + `</span>`)
	case av.TypeURL:
		b.WriteString(renderURL(v.Content()))
	case av.TypeBlock:
		b.WriteString(renderBlock(v, opts))
	case av.TypeNumber:
		b.WriteString(renderNumber(v))
	case av.TypeSelect, av.TypeMSelect:
		for i, opt := range v.MSelect {
			if v.Type == av.TypeSelect && i > 0 {
				break
			}
			b.WriteString(renderChip(opt))
		}
	case av.TypeDate, av.TypeCreated, av.TypeUpdated:
		b.WriteString(renderDate(v))
	case av.TypeLineNumber:
		n := strconv.Itoa(opts.RowIndex + 1)
		b.WriteString(`<span class="av__celltext" data-value="` + n + `">` + n + `</span>`)
	case av.TypeMAsset:
		for _, asset := range v.MAsset {
			b.WriteString(renderAsset(asset))
		}
	case av.TypeCheckbox:
		b.WriteString(renderCheckbox(v, opts))
	case av.TypeRollup:
		b.WriteString(renderRollup(v, opts, depth))
	case av.TypeRelation:
		b.WriteString(renderRelation(v, opts))
	default:
		av.Empty(v.Type) // panics on unknown types
	}
	if hasCopyIcon(v) {
		style := ""
		if v.Type == av.TypeNumber {
			style = ` style="right:auto;left:5px"`
		}
		b.WriteString(`<span` + style + ` data-type="copy" class="block__icon"><svg><use xlink:href="#iconCopy"></use></svg></span>`)
	}
	return b.String()
}

func hasCopyIcon(v *av.Value) bool {
	switch {
	case v.Type.IsText(), v.Type == av.TypeBlock:
		return v.Content() != ""
	case v.Type.IsDate():
		return !av.IsEmpty(v)
	case v.Type == av.TypeNumber:
		return v.Number != nil && v.Number.IsNotEmpty
	case v.Type == av.TypeLineNumber:
		return true
	}
	return false
}

// renderURL shows the host and a shortened path while keeping the full
// address in data-href.
func renderURL(raw string) string {
	host, suffix := EscapeHTML(raw), ""
	if u, err := url.Parse(raw); err == nil && strings.HasPrefix(u.Scheme, "http") && u.Host != "" {
		host = EscapeHTML(u.Host)
		s := strings.TrimPrefix(raw, u.Scheme+"://"+u.Host)
		if r := []rune(s); len(r) > 12 {
			s = string(r[:4]) + "..." + string(r[len(r)-6:])
		}
		suffix = EscapeHTML(s)
	}
	return `<span class="av__celltext av__celltext--url" data-type="url" data-href="` + EscapeHTML(raw) + `">` +
		`<span>` + host + `</span><span class="ft__on-surface">` + suffix + `</span></span>`
}

func renderBlock(v *av.Value, opts RenderOptions) string {
	blk := v.Block
	if blk == nil {
		blk = &av.Block{}
	}
	if v.IsDetached || blk.ID == "" {
		return `<span class="av__celltext">` + EscapeHTML(blk.Content) + `</span>` +
			`<span class="b3-chip b3-chip--info b3-chip--small" data-type="block-more">` + EscapeHTML(opts.Labels.More) + `</span>`
	}
	return renderEmoji(blk.Icon, opts.ShowIcon) +
		`<span data-type="block-ref" data-id="` + EscapeHTML(blk.ID) + `" data-subtype="s" class="av__celltext av__celltext--ref">` +
		EscapeHTML(blk.Content) + `</span>` +
		`<span class="b3-chip b3-chip--info b3-chip--small" data-type="block-more">` + EscapeHTML(opts.Labels.Update) + `</span>`
}

func renderEmoji(icon string, show bool) string {
	class := "b3-menu__avemoji"
	if !show {
		class += " fn__none"
	}
	return `<span class="` + class + `" data-unicode="` + EscapeHTML(icon) + `">` + EscapeHTML(Emoji(icon)) + `</span>`
}

// Emoji converts a dash-separated hex code point icon into its glyphs.
// Other icon values are returned unchanged; an empty icon gives the
// default document glyph.
func Emoji(icon string) string {
	if icon == "" {
		return defaultEmoji
	}
	var b strings.Builder
	for _, part := range strings.Split(icon, "-") {
		cp, err := strconv.ParseUint(part, 16, 32)
		if err != nil {
			return icon
		}
		b.WriteRune(rune(cp))
	}
	return b.String()
}

func renderNumber(v *av.Value) string {
	n := v.Number
	if n == nil || !n.IsNotEmpty {
		return `<span class="av__celltext" data-content=""></span>`
	}
	raw := strconv.FormatFloat(n.Content, 'f', -1, 64)
	shown := n.FormattedContent
	if shown == "" {
		shown = raw
	}
	return `<span class="av__celltext" data-content="` + raw + `">` + EscapeHTML(shown) + `</span>`
}

func renderChip(opt av.SelectOption) string {
	color := EscapeHTML(opt.Color)
	return `<span class="b3-chip" style="background-color:var(--b3-font-background` + color +
		`);color:var(--b3-font-color` + color + `)">` + EscapeHTML(opt.Content) + `</span>`
}

func formatMillis(ms int64, dateOnly bool) string {
	layout := av.DateLayout
	if dateOnly {
		layout = dayLayout
	}
	return time.UnixMilli(ms).In(av.Location).Format(layout)
}

func renderDate(v *av.Value) string {
	d := av.Clone(v).DatePayload()
	data, _ := json.Marshal(d)
	var b strings.Builder
	b.WriteString(`<span class="av__celltext" data-value="` + EscapeHTML(string(data)) + `">`)
	dateOnly := v.Type == av.TypeDate && d.IsNotTime
	if d.IsNotEmpty {
		b.WriteString(formatMillis(d.Content, dateOnly))
	}
	if v.Type == av.TypeDate && d.IsNotEmpty && d.IsRange() {
		b.WriteString(forwardIcon + formatMillis(d.Content2, dateOnly))
	}
	b.WriteString(`</span>`)
	return b.String()
}

func renderAsset(a av.Asset) string {
	if a.Type == av.AssetImage {
		return `<img loading="lazy" class="av__cellassetimg ariaLabel" aria-label="` + EscapeHTML(a.Content) +
			`" data-name="` + EscapeHTML(a.Name) + `" src="` + EscapeHTML(av.CompressURL(a.Content)) + `">`
	}
	shown := a.Name
	if shown == "" {
		shown = a.Content
	}
	return `<span class="b3-chip av__celltext--url ariaLabel" aria-label="` + EscapeHTML(a.Content) +
		`" data-name="` + EscapeHTML(a.Name) + `" data-url="` + EscapeHTML(a.Content) + `">` + EscapeHTML(shown) + `</span>`
}

func renderCheckbox(v *av.Value, opts RenderOptions) string {
	icon := "#iconUncheck"
	if v.Checkbox != nil && v.Checkbox.Checked {
		icon = "#iconCheck"
	}
	out := `<div class="fn__flex"><svg class="av__checkbox"><use xlink:href="` + icon + `"></use></svg>`
	if opts.View == ViewGallery {
		out += `<span class="fn__space"></span>` + EscapeHTML(opts.Labels.Checkbox)
	}
	return out + `</div>`
}

// renderRollup joins item markup with ", ". Each item carries its value
// as JSON so the rollup can be decoded, even when its markup is empty.
func renderRollup(v *av.Value, opts RenderOptions, depth int) string {
	if v.Rollup == nil {
		return ""
	}
	var items []string
	for _, item := range v.Rollup.Contents {
		if item == nil {
			continue
		}
		inner := renderRollupItem(item, opts, depth+1)
		data, _ := json.Marshal(item)
		items = append(items, `<span class="av__cell--rollup" data-value="`+EscapeHTML(string(data))+`">`+inner+`</span>`)
	}
	return strings.Join(items, ", ")
}

func renderRollupItem(item *av.Value, opts RenderOptions, depth int) string {
	if depth > maxRollupDepth {
		return EscapeHTML(av.DisplayText(item))
	}
	switch item.Type {
	case av.TypeSelect, av.TypeMSelect, av.TypeMAsset, av.TypeCheckbox, av.TypeRelation, av.TypeRollup:
		return encode(item, opts, depth)
	case av.TypeText, av.TypeTemplate:
		return EscapeHTML(item.Content())
	case av.TypeEmail, av.TypePhone:
		if item.Content() == "" {
			return ""
		}
		return `<span class="av__celltext av__celltext--url" data-type="` + string(item.Type) + `">` + EscapeHTML(item.Content()) + `</span>`
	case av.TypeURL:
		if item.Content() == "" {
			return ""
		}
		return renderURL(item.Content())
	case av.TypeBlock:
		return renderRelationItem(item, opts, false)
	case av.TypeNumber:
		if item.Number == nil || !item.Number.IsNotEmpty {
			return ""
		}
		if item.Number.FormattedContent != "" {
			return EscapeHTML(item.Number.FormattedContent)
		}
		return strconv.FormatFloat(item.Number.Content, 'f', -1, 64)
	case av.TypeDate, av.TypeCreated, av.TypeUpdated:
		d := av.Clone(item).DatePayload()
		if !d.IsNotEmpty {
			return ""
		}
		if d.FormattedContent != "" {
			return `<span class="av__celltext">` + EscapeHTML(d.FormattedContent) + `</span>`
		}
		text := formatMillis(d.Content, d.IsNotTime)
		if d.IsRange() {
			text += forwardIcon + formatMillis(d.Content2, d.IsNotTime)
		}
		return `<span class="av__celltext">` + text + `</span>`
	}
	return EscapeHTML(av.DisplayText(item))
}

func renderRelation(v *av.Value, opts RenderOptions) string {
	if v.Relation == nil {
		return ""
	}
	var b strings.Builder
	for _, item := range v.Relation.Contents {
		if item == nil || item.Block == nil {
			continue
		}
		b.WriteString(renderRelationItem(item, opts, true))
	}
	return b.String()
}

// renderRelationItem renders one referenced block. wrap adds the
// av__cell--relation container used inside relation cells.
func renderRelationItem(item *av.Value, opts RenderOptions, wrap bool) string {
	blk := item.Block
	if blk == nil {
		blk = &av.Block{}
	}
	class, content := "av__celltext", blk.Content
	if content == "" {
		class += " av__celltext--empty"
		content = opts.Labels.Untitled
	}
	var inner, open string
	if item.IsDetached {
		inner = `<span class="b3-menu__avemoji` + hiddenClass(opts.ShowIcon) + `" data-unicode="` + EscapeHTML(blk.Icon) + `">➖</span>` +
			`<span class="` + class + `" data-id="` + EscapeHTML(blk.ID) + `">` + EscapeHTML(content) + `</span>`
		open = `<span class="av__cell--relation">`
	} else {
		inner = renderEmoji(blk.Icon, opts.ShowIcon) +
			`<span data-type="block-ref" data-id="` + EscapeHTML(blk.ID) + `" data-subtype="s" class="` + class + ` av__celltext--ref">` +
			EscapeHTML(content) + `</span>`
		open = `<span class="av__cell--relation" data-block-id="` + EscapeHTML(blk.ID) + `">`
	}
	if !wrap {
		return inner
	}
	return open + inner + `</span>`
}

func hiddenClass(show bool) string {
	if show {
		return ""
	}
	return " fn__none"
}

// RenderCell renders v inside its cell element, carrying the attributes
// Decode needs to recover the value.
func RenderCell(v *av.Value, colID string, opts RenderOptions) string {
	var b strings.Builder
	b.WriteString(`<div class="av__cell`)
	if v.Type == av.TypeCheckbox {
		if v.Checkbox != nil && v.Checkbox.Checked {
			b.WriteString(` av__cell-check`)
		} else {
			b.WriteString(` av__cell-uncheck`)
		}
	}
	b.WriteString(`" data-id="` + EscapeHTML(v.ID) + `" data-col-id="` + EscapeHTML(colID) +
		`" data-dtype="` + EscapeHTML(string(v.Type)) + `"`)
	if v.Type == av.TypeBlock {
		if id := v.BlockID(); id != "" {
			b.WriteString(` data-block-id="` + EscapeHTML(id) + `"`)
		}
		if v.IsDetached {
			b.WriteString(` data-detached="true"`)
		}
	}
	b.WriteString(`>` + Encode(v, opts) + `</div>`)
	return b.String()
}
