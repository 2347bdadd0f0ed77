// Package av models attribute view cell values: a tagged union with one
// payload per column type, plus construction, inspection and type
// transforms.
package av

import "fmt"

// Type is the column/value discriminant.
type Type string

const (
	TypeText       Type = "text"
	TypeNumber     Type = "number"
	TypeDate       Type = "date"
	TypeCreated    Type = "created"
	TypeUpdated    Type = "updated"
	TypeSelect     Type = "select"
	TypeMSelect    Type = "mSelect"
	TypeCheckbox   Type = "checkbox"
	TypeRelation   Type = "relation"
	TypeRollup     Type = "rollup"
	TypeMAsset     Type = "mAsset"
	TypeBlock      Type = "block"
	TypeURL        Type = "url"
	TypeEmail      Type = "email"
	TypePhone      Type = "phone"
	TypeTemplate   Type = "template"
	TypeLineNumber Type = "lineNumber"
)

// Types lists every known type in column-menu order.
var Types = []Type{
	TypeBlock, TypeText, TypeNumber, TypeSelect, TypeMSelect, TypeDate,
	TypeMAsset, TypeCheckbox, TypeURL, TypeEmail, TypePhone, TypeTemplate,
	TypeRelation, TypeRollup, TypeCreated, TypeUpdated, TypeLineNumber,
}

// Valid reports whether t is a known type.
func (t Type) Valid() bool {
	for _, k := range Types {
		if k == t {
			return true
		}
	}
	return false
}

// IsText reports whether t stores a plain {content} string payload.
// Block is excluded because it also carries an identity.
func (t Type) IsText() bool {
	switch t {
	case TypeText, TypeURL, TypeEmail, TypePhone, TypeTemplate:
		return true
	}
	return false
}

// IsDate reports whether t uses the date payload.
func (t Type) IsDate() bool {
	return t == TypeDate || t == TypeCreated || t == TypeUpdated
}

// IsSelect reports whether t stores a list of options.
func (t Type) IsSelect() bool {
	return t == TypeSelect || t == TypeMSelect
}

// ServerManaged reports whether values of t are maintained by the kernel
// and never written by the client.
func (t Type) ServerManaged() bool {
	return t == TypeCreated || t == TypeUpdated
}

// Composite reports whether t is edited through a dedicated panel rather
// than an inline text surface.
func (t Type) Composite() bool {
	switch t {
	case TypeSelect, TypeMSelect, TypeDate, TypeRelation, TypeRollup, TypeMAsset:
		return true
	}
	return false
}

// mustValid panics on an unknown type; such a value is a corrupted record.
func mustValid(t Type) {
	if !t.Valid() {
		panic(fmt.Sprintf("av: unknown value type %q", string(t)))
	}
}

// Text is the payload of text, url, email, phone and template values.
type Text struct {
	Content string `json:"content"`
}

// Block is the payload of a primary-key block value. An empty ID means
// the block is detached.
type Block struct {
	ID      string `json:"id,omitempty"`
	Icon    string `json:"icon,omitempty"`
	Content string `json:"content"`
}

// Number is a numeric payload. IsNotEmpty is the only emptiness signal.
type Number struct {
	Content          float64 `json:"content"`
	IsNotEmpty       bool    `json:"isNotEmpty"`
	FormattedContent string  `json:"formattedContent,omitempty"`
}

// Date is the payload of date, created and updated values. Content and
// Content2 are Unix milliseconds.
type Date struct {
	Content          int64  `json:"content"`
	IsNotEmpty       bool   `json:"isNotEmpty"`
	Content2         int64  `json:"content2"`
	IsNotEmpty2      bool   `json:"isNotEmpty2"`
	HasEndDate       bool   `json:"hasEndDate"`
	IsNotTime        bool   `json:"isNotTime"`
	FormattedContent string `json:"formattedContent,omitempty"`
}

// IsRange reports whether d denotes a start/end range.
func (d *Date) IsRange() bool {
	return d.HasEndDate && d.IsNotEmpty2
}

// SelectOption is one chip of a select or mSelect value.
type SelectOption struct {
	Content string `json:"content"`
	Color   string `json:"color"`
}

// Checkbox is a checkbox payload.
type Checkbox struct {
	Checked bool `json:"checked"`
}

// Relation references rows of another attribute view. BlockIDs and
// Contents are index aligned.
type Relation struct {
	BlockIDs []string `json:"blockIDs"`
	Contents []*Value `json:"contents"`
}

// Rollup holds values aggregated through a relation. Read only.
type Rollup struct {
	Contents []*Value `json:"contents"`
}

// AssetType distinguishes images from other files.
type AssetType string

const (
	AssetImage AssetType = "image"
	AssetFile  AssetType = "file"
)

// Asset is one entry of an mAsset value.
type Asset struct {
	Type    AssetType `json:"type"`
	Content string    `json:"content"`
	Name    string    `json:"name"`
}

// Value is a single cell value. Type selects which payload field is
// meaningful; the others are nil.
type Value struct {
	ID   string `json:"id,omitempty"`
	Type Type   `json:"type"`

	IsDetached bool   `json:"isDetached,omitempty"`
	Block      *Block `json:"block,omitempty"`

	Text     *Text `json:"text,omitempty"`
	URL      *Text `json:"url,omitempty"`
	Email    *Text `json:"email,omitempty"`
	Phone    *Text `json:"phone,omitempty"`
	Template *Text `json:"template,omitempty"`

	Number  *Number `json:"number,omitempty"`
	Date    *Date   `json:"date,omitempty"`
	Created *Date   `json:"created,omitempty"`
	Updated *Date   `json:"updated,omitempty"`

	MSelect  []SelectOption `json:"mSelect,omitempty"`
	Checkbox *Checkbox      `json:"checkbox,omitempty"`
	Relation *Relation      `json:"relation,omitempty"`
	Rollup   *Rollup        `json:"rollup,omitempty"`
	MAsset   []Asset        `json:"mAsset,omitempty"`
}

func (v *Value) textSlot() **Text {
	switch v.Type {
	case TypeText:
		return &v.Text
	case TypeURL:
		return &v.URL
	case TypeEmail:
		return &v.Email
	case TypePhone:
		return &v.Phone
	case TypeTemplate:
		return &v.Template
	}
	return nil
}

// TextPayload returns the {content} payload for text-family values,
// allocating it if missing. It returns nil for other types.
func (v *Value) TextPayload() *Text {
	slot := v.textSlot()
	if slot == nil {
		return nil
	}
	if *slot == nil {
		*slot = &Text{}
	}
	return *slot
}

func (v *Value) dateSlot() **Date {
	switch v.Type {
	case TypeDate:
		return &v.Date
	case TypeCreated:
		return &v.Created
	case TypeUpdated:
		return &v.Updated
	}
	return nil
}

// DatePayload returns the date payload for date-family values, allocating
// an empty one if missing. It returns nil for other types.
func (v *Value) DatePayload() *Date {
	slot := v.dateSlot()
	if slot == nil {
		return nil
	}
	if *slot == nil {
		*slot = emptyDate()
	}
	return *slot
}

// Content returns the primary string content of text-family and block
// values, or "" for other types.
func (v *Value) Content() string {
	if v == nil {
		return ""
	}
	if v.Type == TypeBlock {
		if v.Block == nil {
			return ""
		}
		return v.Block.Content
	}
	if slot := v.textSlot(); slot != nil && *slot != nil {
		return (*slot).Content
	}
	return ""
}

// BlockID returns the referenced block id, or "" when detached.
func (v *Value) BlockID() string {
	if v == nil || v.Type != TypeBlock || v.Block == nil {
		return ""
	}
	return v.Block.ID
}
