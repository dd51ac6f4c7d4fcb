// Package content is the template schema: sections of paragraphs, blank
// lines and tables, where paragraphs hold text and image runs.
//
// Node and Inline are closed: only the types in this package implement them,
// so every consumer can switch over them exhaustively.
package content

import (
	"github.com/dgallion1/docweave/internal/units"
)

// Node is a block-level element: *Paragraph, *EmptyParagraph or *Table.
type Node interface {
	isNode()
}

// Inline is a paragraph child: *TextRun or *ImageRun.
type Inline interface {
	isInline()
}

// Paragraph is a line of runs. A paragraph whose runs all resolve to nothing
// is dropped at render time.
type Paragraph struct {
	Options  ParagraphOptions `json:"options,omitzero"`
	Children []Inline         `json:"children"`
}

// EmptyParagraph always renders as one blank line.
type EmptyParagraph struct{}

// Table is a grid of rows. Cells may hold nested tables.
type Table struct {
	Options TableOptions `json:"options,omitzero"`
	Rows    []*Row       `json:"rows"`
}

type Row struct {
	Options RowOptions `json:"options,omitzero"`
	Cells   []*Cell    `json:"cells"`
}

type Cell struct {
	Options  CellOptions `json:"options,omitzero"`
	Children []Node      `json:"children"`
}

func (*Paragraph) isNode()      {}
func (*EmptyParagraph) isNode() {}
func (*Table) isNode()          {}

// ParagraphOptions. Spacing is in points (Line is a multiple), indents in cm.
type ParagraphOptions struct {
	Alignment       string   `json:"alignment,omitempty"` // left, center, right, justify, distribute
	Spacing         *Spacing `json:"spacing,omitempty"`
	Indent          *Indent  `json:"indent,omitempty"`
	PageBreakBefore bool     `json:"pageBreakBefore,omitempty"`
}

// Spacing is in points; Line is a multiple of single spacing. After is
// accepted for template compatibility but not rendered: go-docx has no
// w:after attribute, and the preview follows the docx output.
type Spacing struct {
	Before float64 `json:"before,omitempty"`
	After  float64 `json:"after,omitempty"`
	Line   float64 `json:"line,omitempty"`
}

type Indent struct {
	Left           float64 `json:"left,omitempty"`
	FirstLine      float64 `json:"firstLine,omitempty"`
	Hanging        float64 `json:"hanging,omitempty"`
	FirstLineChars float64 `json:"firstLineChars,omitempty"`
}

// TableOptions. Widths are in cm; zero Width means auto.
type TableOptions struct {
	Width        float64   `json:"width,omitempty"`
	ColumnWidths []float64 `json:"columnWidths,omitempty"`
	Alignment    string    `json:"alignment,omitempty"`
	Borders      *Borders  `json:"borders,omitempty"`
}

// Borders applies to every edge of the table. Size is in points.
type Borders struct {
	Style string  `json:"style,omitempty"` // single (default), double, dashed, dotted, none
	Size  float64 `json:"size,omitempty"`
	Color string  `json:"color,omitempty"`
}

type RowOptions struct {
	Height     float64 `json:"height,omitempty"`     // cm
	HeightRule string  `json:"heightRule,omitempty"` // atLeast (default) or exact
}

type CellOptions struct {
	Width         float64 `json:"width,omitempty"` // cm
	ColumnSpan    int     `json:"columnSpan,omitempty"`
	VerticalMerge string  `json:"verticalMerge,omitempty"` // restart or continue
	VerticalAlign string  `json:"verticalAlign,omitempty"` // top, center, bottom
	Shading       string  `json:"shading,omitempty"`       // RRGGBB fill
}

// TextRun is literal text, optionally replaced by a data field.
type TextRun struct {
	Text       string      `json:"text,omitempty"`
	Field      string      `json:"field,omitempty"`
	HTMLConfig *HTMLConfig `json:"htmlConfig,omitempty"`

	Bold        *bool          `json:"bold,omitempty"`
	Italics     *bool          `json:"italics,omitempty"`
	Underline   *Underline     `json:"underline,omitempty"`
	Strike      *bool          `json:"strike,omitempty"`
	SubScript   *bool          `json:"subScript,omitempty"`
	SuperScript *bool          `json:"superScript,omitempty"`
	Font        string         `json:"font,omitempty"`
	Size        units.FontSize `json:"size,omitzero"`
	Color       string         `json:"color,omitempty"`

	// Break overrides the number of line breaks placed before every
	// segment of this run.
	Break *int `json:"break,omitempty"`
}

// BoundField is the field a run reads: Field, then HTMLConfig.Field.
func (r *TextRun) BoundField() string {
	if r.Field != "" {
		return r.Field
	}
	if r.HTMLConfig != nil {
		return r.HTMLConfig.Field
	}
	return ""
}

// Control types for HTMLConfig.Type.
const (
	ControlInput    = "input"
	ControlTextarea = "textarea"
	ControlSelect   = "select"
)

// HTMLConfig turns a run into a form control in the HTML preview.
type HTMLConfig struct {
	Type        string   `json:"type,omitempty"`
	Name        string   `json:"name,omitempty"`
	Field       string   `json:"field,omitempty"`
	Options     []Option `json:"options,omitempty"`
	Placeholder string   `json:"placeholder,omitempty"`
	Rows        int      `json:"rows,omitempty"`
}

type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// ImageRun is a picture. Data wins over Src and Barcode.
type ImageRun struct {
	Data           Payload        `json:"data,omitempty"`
	Src            string         `json:"src,omitempty"`
	Barcode        *Barcode       `json:"barcode,omitempty"`
	AltText        string         `json:"altText,omitempty"`
	Transformation Transformation `json:"transformation,omitzero"`
	Floating       *Floating      `json:"floating,omitempty"`
}

// Transformation is the display size in cm. Zero keeps the intrinsic size.
type Transformation struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

// Floating places the image relative to the page or margin, offsets in cm.
type Floating struct {
	HorizontalOffset float64 `json:"horizontalOffset,omitempty"`
	VerticalOffset   float64 `json:"verticalOffset,omitempty"`
	RelativeFrom     string  `json:"relativeFrom,omitempty"` // page (default), margin, column, paragraph
}

// Barcode formats.
const (
	BarcodeQR      = "qr"
	BarcodeCode128 = "code128"
)

// Barcode generates the image payload from text content.
type Barcode struct {
	Format  string `json:"format"` // qr or code128
	Content string `json:"content,omitempty"`
	Field   string `json:"field,omitempty"`
}

func (*TextRun) isInline()  {}
func (*ImageRun) isInline() {}

// HeaderFooter holds the three page slots.
type HeaderFooter struct {
	Default []Node `json:"default,omitempty"`
	First   []Node `json:"first,omitempty"`
	Even    []Node `json:"even,omitempty"`
}

// Slot names a header/footer variant.
type Slot string

const (
	SlotDefault Slot = "default"
	SlotFirst   Slot = "first"
	SlotEven    Slot = "even"
)

// Slots is the fixed slot order.
var Slots = []Slot{SlotDefault, SlotFirst, SlotEven}

// Get returns the nodes for a slot; nil receiver is allowed.
func (h *HeaderFooter) Get(s Slot) []Node {
	if h == nil {
		return nil
	}
	switch s {
	case SlotFirst:
		return h.First
	case SlotEven:
		return h.Even
	default:
		return h.Default
	}
}

type Section struct {
	Properties SectionProperties `json:"properties,omitzero"`
	Headers    *HeaderFooter     `json:"headers,omitempty"`
	Footers    *HeaderFooter     `json:"footers,omitempty"`
	Children   []Node            `json:"children"`
}

// SectionProperties in cm. Zero values fall back to A4 portrait with
// 2.54 cm margins.
type SectionProperties struct {
	Page   PageSize `json:"page,omitzero"`
	Margin Margin   `json:"margin,omitzero"`
}

type PageSize struct {
	Width  float64 `json:"width,omitempty"`
	Height float64 `json:"height,omitempty"`
}

type Margin struct {
	Top    float64 `json:"top,omitempty"`
	Right  float64 `json:"right,omitempty"`
	Bottom float64 `json:"bottom,omitempty"`
	Left   float64 `json:"left,omitempty"`
	Header float64 `json:"header,omitempty"`
	Footer float64 `json:"footer,omitempty"`
}

// A4 defaults.
const (
	DefaultPageWidth  = 21.0
	DefaultPageHeight = 29.7
	DefaultMargin     = 2.54
	DefaultHeaderDist = 1.5
)

// Resolved fills zero fields with the defaults.
func (p SectionProperties) Resolved() SectionProperties {
	or := func(v, d float64) float64 {
		if v > 0 {
			return v
		}
		return d
	}
	return SectionProperties{
		Page: PageSize{
			Width:  or(p.Page.Width, DefaultPageWidth),
			Height: or(p.Page.Height, DefaultPageHeight),
		},
		Margin: Margin{
			Top:    or(p.Margin.Top, DefaultMargin),
			Right:  or(p.Margin.Right, DefaultMargin),
			Bottom: or(p.Margin.Bottom, DefaultMargin),
			Left:   or(p.Margin.Left, DefaultMargin),
			Header: or(p.Margin.Header, DefaultHeaderDist),
			Footer: or(p.Margin.Footer, DefaultHeaderDist),
		},
	}
}

// Properties is document metadata.
type Properties struct {
	Title          string `json:"title,omitempty"`
	Subject        string `json:"subject,omitempty"`
	Creator        string `json:"creator,omitempty"`
	Keywords       string `json:"keywords,omitempty"`
	Description    string `json:"description,omitempty"`
	LastModifiedBy string `json:"lastModifiedBy,omitempty"`
}

// Template is a whole document as stored on disk.
type Template struct {
	Properties Properties     `json:"properties,omitzero"`
	Font       string         `json:"font,omitempty"`
	Size       units.FontSize `json:"size,omitzero"`
	Sections   []*Section     `json:"sections"`
}

// Text is shorthand for a plain text run.
func Text(s string) *TextRun { return &TextRun{Text: s} }

// Bool returns a pointer for the optional formatting flags.
func Bool(b bool) *bool { return &b }

// Int returns a pointer for Break.
func Int(n int) *int { return &n }
