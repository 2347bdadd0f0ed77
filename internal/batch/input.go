// Package batch applies a value across selected cells and emits the
// paired do/undo operations for the transaction log.
package batch

import "github.com/marcus/attrview/internal/av"

type inputKind int

const (
	kindClear inputKind = iota
	kindText
	kindValue
	kindAssets
	kindPayload
)

// Input is the new content applied to each target cell.
type Input struct {
	kind    inputKind
	text    string
	html    string
	value   *av.Value
	assets  []av.Asset
	payload any
}

// TextInput applies typed or pasted plain text. Select, mAsset and
// referenced block cells treat it as an addition.
func TextInput(s string) Input {
	return Input{kind: kindText, text: s}
}

// HTMLInput applies pasted rich content: s is its plain text and html the
// clipboard markup, consulted for links and images in asset cells.
func HTMLInput(s, html string) Input {
	return Input{kind: kindText, text: s, html: html}
}

// ValueInput applies a structured value, transformed to each column type.
func ValueInput(v *av.Value) Input {
	return Input{kind: kindValue, value: v}
}

// AssetsInput appends assets to mAsset cells verbatim.
func AssetsInput(assets []av.Asset) Input {
	return Input{kind: kindAssets, assets: assets}
}

// PayloadInput applies a raw payload as accepted by av.Construct.
func PayloadInput(p any) Input {
	return Input{kind: kindPayload, payload: p}
}

// ClearInput empties each target cell.
func ClearInput() Input {
	return Input{kind: kindClear}
}
