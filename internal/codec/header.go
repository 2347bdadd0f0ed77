package codec

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/marcus/attrview/internal/av"
)

// Header is the column metadata shown in a header cell.
type Header struct {
	ColID string
	Type  av.Type
	Name  string
	Icon  string
	Pin   bool
}

// HeaderPatch updates header markup in place. A nil field is left
// untouched; a pointer to "" explicitly clears it.
type HeaderPatch struct {
	Icon *string
	Name *string
	Pin  *bool
}

const pinIcon = `<svg class="av__cellheadericon av__cellheadericon--pin"><use xlink:href="#iconPin"></use></svg>`

var typeIcons = map[av.Type]string{
	av.TypeText:       "iconAlignLeft",
	av.TypeBlock:      "iconKey",
	av.TypeNumber:     "iconNumber",
	av.TypeSelect:     "iconListItem",
	av.TypeMSelect:    "iconList",
	av.TypeRelation:   "iconOpen",
	av.TypeRollup:     "iconAlignCenter",
	av.TypePhone:      "iconPhone",
	av.TypeEmail:      "iconEmail",
	av.TypeTemplate:   "iconMath",
	av.TypeDate:       "iconCalendar",
	av.TypeCreated:    "iconClock",
	av.TypeUpdated:    "iconClock",
	av.TypeCheckbox:   "iconCheck",
	av.TypeURL:        "iconLink",
	av.TypeMAsset:     "iconImage",
	av.TypeLineNumber: "iconOrderedList",
}

// TypeIcon returns the icon id for a column type.
func TypeIcon(t av.Type) string {
	if icon, ok := typeIcons[t]; ok {
		return icon
	}
	return "iconAlignLeft"
}

func headerIcon(t av.Type, icon string) string {
	if icon != "" {
		return `<span class="av__cellheadericon">` + EscapeHTML(Emoji(icon)) + `</span>`
	}
	return `<svg class="av__cellheadericon"><use xlink:href="#` + TypeIcon(t) + `"></use></svg>`
}

// RenderHeader renders a header cell.
func RenderHeader(h Header) string {
	var b strings.Builder
	b.WriteString(`<div class="av__cell av__cell--header" data-col-id="` + EscapeHTML(h.ColID) +
		`" data-icon="` + EscapeHTML(h.Icon) + `" data-dtype="` + EscapeHTML(string(h.Type)) + `">`)
	b.WriteString(`<div class="av__cellheader">`)
	b.WriteString(headerIcon(h.Type, h.Icon))
	b.WriteString(`<span class="av__celltext">` + EscapeHTML(h.Name) + `</span>`)
	if h.Pin {
		b.WriteString(pinIcon)
	}
	b.WriteString(`</div></div>`)
	return b.String()
}

// UpdateHeader applies patch to header markup and returns the new markup.
func UpdateHeader(markup string, patch HeaderPatch) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return "", fmt.Errorf("parse header markup: %w", err)
	}
	cell := doc.Find(".av__cell--header").First()
	if cell.Length() == 0 {
		return "", ErrNoCell
	}
	if patch.Icon != nil {
		cell.SetAttr("data-icon", *patch.Icon)
		t := av.Type(cell.AttrOr("data-dtype", ""))
		cell.Find(".av__cellheadericon").Not(".av__cellheadericon--pin").ReplaceWithHtml(headerIcon(t, *patch.Icon))
	}
	text := cell.Find(".av__celltext").First()
	if patch.Name != nil {
		text.SetText(*patch.Name)
	}
	if patch.Pin != nil {
		pinned := cell.Find(".av__cellheadericon--pin")
		switch {
		case *patch.Pin && pinned.Length() == 0:
			text.AfterHtml(pinIcon)
		case !*patch.Pin:
			pinned.Remove()
		}
	}
	return goquery.OuterHtml(cell)
}

// ParseHeader reads header metadata back from markup.
func ParseHeader(markup string) (Header, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Header{}, fmt.Errorf("parse header markup: %w", err)
	}
	cell := doc.Find(".av__cell--header").First()
	if cell.Length() == 0 {
		return Header{}, ErrNoCell
	}
	return parseHeader(cell), nil
}

func parseHeader(cell *goquery.Selection) Header {
	return Header{
		ColID: cell.AttrOr("data-col-id", ""),
		Type:  av.Type(cell.AttrOr("data-dtype", "")),
		Name:  cell.Find(".av__celltext").First().Text(),
		Icon:  cell.AttrOr("data-icon", ""),
		Pin:   cell.Find(".av__cellheadericon--pin").Length() > 0,
	}
}
