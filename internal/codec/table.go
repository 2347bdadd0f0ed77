package codec

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/marcus/attrview/internal/av"
)

// Table is a block of cells copied as markup. Headers is empty when the
// markup carried no header row.
type Table struct {
	Headers []Header
	Rows    [][]*av.Value
}

// RenderTable renders a header row followed by one row per entry of rows.
// The value at rows[i][j] belongs to the column of headers[j].
func RenderTable(headers []Header, rows [][]*av.Value, opts RenderOptions) string {
	var b strings.Builder
	b.WriteString(`<div class="av" data-av-type="table">`)
	b.WriteString(`<div class="av__row av__row--header">`)
	for _, h := range headers {
		b.WriteString(RenderHeader(h))
	}
	b.WriteString(`</div>`)
	for i, row := range rows {
		b.WriteString(`<div class="av__row">`)
		o := opts
		o.RowIndex = i
		for j, v := range row {
			colID := ""
			if j < len(headers) {
				colID = headers[j].ColID
			}
			b.WriteString(RenderCell(v, colID, o))
		}
		b.WriteString(`</div>`)
	}
	b.WriteString(`</div>`)
	return b.String()
}

// DecodeTable reads cells and headers back from markup. Cells outside a
// row element form a single row. It returns ErrNoCell when the markup has
// no value cells.
func DecodeTable(markup string) (Table, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return Table{}, fmt.Errorf("parse table markup: %w", err)
	}
	var tbl Table
	doc.Find(".av__cell--header").Each(func(_ int, cell *goquery.Selection) {
		tbl.Headers = append(tbl.Headers, parseHeader(cell))
	})

	var decodeErr error
	decodeCells := func(sel *goquery.Selection) []*av.Value {
		var out []*av.Value
		sel.Find("[data-dtype]").Not(".av__cell--header").Each(func(_ int, cell *goquery.Selection) {
			t := av.Type(cell.AttrOr("data-dtype", ""))
			if !t.Valid() {
				decodeErr = fmt.Errorf("%w: %q", ErrUnknownType, string(t))
				return
			}
			out = append(out, DecodeSelection(cell, t))
		})
		return out
	}

	rows := doc.Find(".av__row").Not(".av__row--header")
	if rows.Length() == 0 {
		if cells := decodeCells(doc.Selection); len(cells) > 0 {
			tbl.Rows = append(tbl.Rows, cells)
		}
	} else {
		rows.Each(func(_ int, row *goquery.Selection) {
			if cells := decodeCells(row); len(cells) > 0 {
				tbl.Rows = append(tbl.Rows, cells)
			}
		})
	}
	if decodeErr != nil {
		return Table{}, decodeErr
	}
	if len(tbl.Rows) == 0 {
		return Table{}, ErrNoCell
	}
	return tbl, nil
}
