package codec

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/marcus/attrview/internal/av"
)

var (
	// ErrNoCell is returned when markup contains no cell element.
	ErrNoCell = errors.New("codec: no cell element")
	// ErrUnknownType is returned when a cell element names an unknown type.
	ErrUnknownType = errors.New("codec: unknown cell type")
)

var chipColor = regexp.MustCompile(`(?:^|;)\s*color:\s*var\(--b3-font-color([^)]*)\)`)

// Decode parses markup produced by RenderCell and returns the value of
// its first cell element.
func Decode(markup string) (*av.Value, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("parse cell markup: %w", err)
	}
	cell := doc.Find("[data-dtype]").First()
	if cell.Length() == 0 {
		return nil, ErrNoCell
	}
	t := av.Type(cell.AttrOr("data-dtype", ""))
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, string(t))
	}
	return DecodeSelection(cell, t), nil
}

// DecodeSelection reads a value of type t from a rendered cell element.
// Missing sub-elements yield the empty shape of t. It panics on an
// unknown type.
func DecodeSelection(cell *goquery.Selection, t av.Type) *av.Value {
	v := av.Empty(t)
	v.ID = cell.AttrOr("data-id", "")
	text := cell.Find(".av__celltext").First()

	switch {
	case t == av.TypeURL:
		v.TextPayload().Content = text.AttrOr("data-href", "")
	case t.IsText():
		v.TextPayload().Content = text.Text()
	case t.IsDate():
		if raw, ok := text.Attr("data-value"); ok {
			var d av.Date
			if err := json.Unmarshal([]byte(raw), &d); err == nil {
				*v.DatePayload() = d
			}
		}
	case t.IsSelect():
		cell.Find(".b3-chip").Each(func(_ int, chip *goquery.Selection) {
			opt := av.SelectOption{Content: strings.TrimSpace(chip.Text())}
			if m := chipColor.FindStringSubmatch(chip.AttrOr("style", "")); m != nil {
				opt.Color = m[1]
			}
			v.MSelect = append(v.MSelect, opt)
		})
	}

	switch t {
	case av.TypeBlock:
		decodeBlock(cell, text, v)
	case av.TypeNumber:
		if raw := text.AttrOr("data-content", ""); raw != "" {
			n, _ := av.ParseFloatPrefix(raw)
			v.Number = &av.Number{Content: n, IsNotEmpty: true}
		}
	case av.TypeCheckbox:
		v.Checkbox.Checked = checkboxHref(cell) == "#iconCheck"
	case av.TypeRelation:
		cell.Find(".av__cell--relation").Each(func(_ int, item *goquery.Selection) {
			blk := decodeRelationItem(item)
			v.Relation.BlockIDs = append(v.Relation.BlockIDs, blk.Block.ID)
			v.Relation.Contents = append(v.Relation.Contents, blk)
		})
	case av.TypeRollup:
		cell.Find(".av__cell--rollup").Not(".av__cell--rollup .av__cell--rollup").Each(func(_ int, item *goquery.Selection) {
			var content av.Value
			if err := json.Unmarshal([]byte(item.AttrOr("data-value", "")), &content); err == nil && content.Type.Valid() {
				v.Rollup.Contents = append(v.Rollup.Contents, &content)
			}
		})
	case av.TypeMAsset:
		cell.Find(".av__cellassetimg, .av__celltext--url").Each(func(_ int, item *goquery.Selection) {
			if item.HasClass("av__cellassetimg") {
				v.MAsset = append(v.MAsset, av.Asset{
					Type:    av.AssetImage,
					Content: av.RemoveCompressURL(item.AttrOr("src", "")),
					Name:    item.AttrOr("data-name", ""),
				})
				return
			}
			v.MAsset = append(v.MAsset, av.Asset{
				Type:    av.AssetFile,
				Content: item.AttrOr("data-url", ""),
				Name:    item.AttrOr("data-name", ""),
			})
		})
	}
	return v
}

func decodeBlock(cell, text *goquery.Selection, v *av.Value) {
	v.Block.Content = text.Text()
	ref := cell.Find(".av__celltext--ref").First()
	if id, ok := ref.Attr("data-id"); ok && id != "" {
		v.Block.ID = id
		if icon := ref.PrevFiltered(".b3-menu__avemoji").AttrOr("data-unicode", ""); icon != "" {
			v.Block.Icon = icon
		}
	} else if id := cell.AttrOr("data-block-id", ""); id != "" {
		v.Block.ID = id
	}
	if detached, ok := cell.Attr("data-detached"); ok {
		v.IsDetached = detached == "true"
	} else {
		v.IsDetached = ref.Length() == 0
	}
}

func decodeRelationItem(item *goquery.Selection) *av.Value {
	text := item.Find(".av__celltext").First()
	blk := &av.Block{ID: text.AttrOr("data-id", "")}
	if !text.HasClass("av__celltext--empty") {
		blk.Content = text.Text()
	}
	if icon := item.Find(".b3-menu__avemoji").AttrOr("data-unicode", ""); icon != "" {
		blk.Icon = icon
	}
	return &av.Value{
		Type:       av.TypeBlock,
		Block:      blk,
		IsDetached: !text.HasClass("av__celltext--ref"),
	}
}

// checkboxHref returns the icon reference of the checkbox glyph. The HTML
// parser stores xlink:href as a namespaced href attribute.
func checkboxHref(cell *goquery.Selection) string {
	use := cell.Find(".av__checkbox use").First()
	if use.Length() == 0 {
		return ""
	}
	for _, a := range use.Nodes[0].Attr {
		if a.Key == "xlink:href" || (a.Key == "href" && (a.Namespace == "xlink" || a.Namespace == "")) {
			return a.Val
		}
	}
	return ""
}

// CellText returns the plain text a user would copy from rendered cell
// markup: chips and text spans joined by ", ", ranges as "a → b".
func CellText(markup string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return ""
	}
	root := doc.Find("body")
	items := root.Find(".b3-chip, .av__celltext")
	if items.Length() == 0 {
		return strings.TrimSpace(root.Text())
	}
	var parts []string
	items.Each(func(_ int, item *goquery.Selection) {
		switch {
		case item.AttrOr("data-type", "") == "block-more":
		case item.AttrOr("data-type", "") == "url":
			parts = append(parts, item.AttrOr("data-href", ""))
		case item.Find(".av__cellicon").Length() > 0:
			node := item.Nodes[0]
			parts = append(parts, nodeText(node.FirstChild)+" → "+nodeText(node.LastChild))
		default:
			parts = append(parts, item.Text())
		}
	})
	return strings.Join(parts, ", ")
}

func nodeText(n *html.Node) string {
	if n == nil {
		return ""
	}
	return goquery.NewDocumentFromNode(n).Text()
}
