package batch

import (
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"

	"github.com/marcus/attrview/internal/av"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.Linkify))
	sanitize = newPastePolicy()
)

func newPastePolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("data-type", "data-href", "data-src").Globally()
	p.AllowAttrs("class").Globally()
	return p
}

// linkDest returns the destination of the first link, autolink or image
// in s, and whether it was an image.
func linkDest(s string) (dest string, image bool) {
	src := []byte(s)
	doc := markdown.Parser().Parse(text.NewReader(src))
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := n.(type) {
		case *ast.Link:
			dest = string(node.Destination)
		case *ast.Image:
			dest, image = string(node.Destination), true
		case *ast.AutoLink:
			dest = string(node.URL(src))
		default:
			return ast.WalkContinue, nil
		}
		return ast.WalkStop, nil
	})
	return dest, image
}

// parseAsset turns pasted text (and optional clipboard markup) into one
// asset entry. It returns false when nothing usable was pasted.
func parseAsset(value, html string) (av.Asset, bool) {
	link, image := linkDest(value)
	name := ""
	if link == "" && strings.HasPrefix(value, "assets/") {
		link = value
		name = av.AssetName(value) + path.Ext(value)
	}
	imgSrc := ""
	if html != "" {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(sanitize.Sanitize(html))); err == nil {
			if a := doc.Find(`[data-type~="a"]`).First(); a.Length() > 0 {
				link = a.AttrOr("data-href", "")
				name = a.Text()
			} else if img := doc.Find(".img img").First(); img.Length() > 0 {
				imgSrc = img.AttrOr("data-src", "")
			}
		}
	}
	if link == "" {
		name = value
	}
	switch {
	case imgSrc != "":
		return av.Asset{Type: av.AssetImage, Content: imgSrc}, true
	case image && link != "":
		return av.Asset{Type: av.AssetImage, Content: link}, true
	case link == "" && name == "":
		return av.Asset{}, false
	}
	return av.Asset{Type: av.AssetFile, Content: link, Name: name}, true
}
