// Package render walks a content tree once, resolving data fields and inline
// markup, and reports what it finds to a Sink. The docx and HTML renderers
// are Sinks; neither walks the tree itself.
package render

import (
	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
	"github.com/dgallion1/docweave/internal/markup"
)

// Inline is a resolved paragraph child: Text, Image or Control.
type Inline interface {
	isResolved()
}

// Text is one markup segment of a text run.
type Text struct {
	Value string
	Kind  markup.Kind
	Style Style
	// Breaks is the number of line breaks placed before Value.
	Breaks int
}

// Image is an image run, passed through as written.
type Image struct {
	Run *content.ImageRun
}

// Control is a run bound to an HTML form control. Segments is the same
// output a plain run would produce, for sinks without form controls.
type Control struct {
	Config   content.HTMLConfig
	Value    string
	Style    Style
	Segments []Text
}

func (Text) isResolved()    {}
func (Image) isResolved()   {}
func (Control) isResolved() {}

// RegionKind says which part of a section is being emitted.
type RegionKind int

const (
	RegionBody RegionKind = iota
	RegionHeader
	RegionFooter
)

func (k RegionKind) String() string {
	switch k {
	case RegionHeader:
		return "header"
	case RegionFooter:
		return "footer"
	default:
		return "body"
	}
}

type Region struct {
	Kind RegionKind
	Slot content.Slot // empty for the body
}

// TableInfo describes a table before its rows are emitted.
type TableInfo struct {
	Options content.TableOptions
	Columns int
	Rows    int
}

// Sink receives the traversal in document order. Begin/End calls nest
// properly; Paragraph and EmptyParagraph only occur inside a region or cell.
type Sink interface {
	BeginSection(index int, props content.SectionProperties)
	EndSection()
	BeginRegion(r Region)
	EndRegion()
	Paragraph(opts content.ParagraphOptions, inlines []Inline)
	EmptyParagraph()
	BeginTable(t TableInfo)
	BeginRow(opts content.RowOptions)
	BeginCell(opts content.CellOptions)
	EndCell()
	EndRow()
	EndTable()
}

// Walker holds the per-render inputs. It is not modified by walking.
type Walker struct {
	Store    field.Store
	Defaults Defaults
}

// Sections walks every section in order.
func (w Walker) Sections(sink Sink, sections []*content.Section) {
	for i, s := range sections {
		w.Section(sink, i, s)
	}
}

// Section emits headers, then the body, then footers. Only slots with
// content are emitted.
func (w Walker) Section(sink Sink, index int, s *content.Section) {
	sink.BeginSection(index, s.Properties.Resolved())
	w.headerFooter(sink, RegionHeader, s.Headers)
	sink.BeginRegion(Region{Kind: RegionBody})
	w.Nodes(sink, s.Children)
	sink.EndRegion()
	w.headerFooter(sink, RegionFooter, s.Footers)
	sink.EndSection()
}

func (w Walker) headerFooter(sink Sink, kind RegionKind, hf *content.HeaderFooter) {
	for _, slot := range content.Slots {
		nodes := hf.Get(slot)
		if len(nodes) == 0 {
			continue
		}
		sink.BeginRegion(Region{Kind: kind, Slot: slot})
		w.Nodes(sink, nodes)
		sink.EndRegion()
	}
}

// Nodes emits a node sequence; cells recurse through here.
func (w Walker) Nodes(sink Sink, nodes []content.Node) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *content.Paragraph:
			sink.Paragraph(n.Options, w.Inlines(n.Children))
		case *content.EmptyParagraph:
			sink.EmptyParagraph()
		case *content.Table:
			w.table(sink, n)
		}
	}
}

func (w Walker) table(sink Sink, t *content.Table) {
	sink.BeginTable(TableInfo{Options: t.Options, Columns: Columns(t), Rows: len(t.Rows)})
	for _, row := range t.Rows {
		sink.BeginRow(row.Options)
		for _, cell := range row.Cells {
			sink.BeginCell(cell.Options)
			w.Nodes(sink, cell.Children)
			sink.EndCell()
		}
		sink.EndRow()
	}
	sink.EndTable()
}

// Columns is the grid width of a table: the declared column widths, or the
// widest row counting column spans.
func Columns(t *content.Table) int {
	n := len(t.Options.ColumnWidths)
	for _, row := range t.Rows {
		span := 0
		for _, c := range row.Cells {
			if c.Options.ColumnSpan > 1 {
				span += c.Options.ColumnSpan
			} else {
				span++
			}
		}
		if span > n {
			n = span
		}
	}
	return n
}

// Inlines resolves a paragraph's runs in order.
func (w Walker) Inlines(runs []content.Inline) []Inline {
	out := make([]Inline, 0, len(runs))
	for _, in := range runs {
		switch r := in.(type) {
		case *content.TextRun:
			segs := w.TextSegments(r)
			if r.HTMLConfig != nil && r.HTMLConfig.Name != "" {
				out = append(out, Control{
					Config:   *r.HTMLConfig,
					Value:    field.Resolve(w.Store, r.BoundField(), r.Text),
					Style:    baseStyle(r, w.Defaults),
					Segments: segs,
				})
				continue
			}
			for _, s := range segs {
				out = append(out, s)
			}
		case *content.ImageRun:
			out = append(out, Image{Run: r})
		}
	}
	return out
}

// TextSegments resolves the run's field and splits the result into styled
// segments. An empty result yields no segments.
func (w Walker) TextSegments(r *content.TextRun) []Text {
	value := field.Resolve(w.Store, r.BoundField(), r.Text)
	if value == "" {
		return nil
	}
	var out []Text
	for li, line := range markup.Parse(value) {
		for si, seg := range line {
			breaks := 0
			if li > 0 && si == 0 {
				breaks = 1
			}
			if r.Break != nil {
				breaks = *r.Break
			}
			out = append(out, Text{
				Value:  seg.Value,
				Kind:   seg.Kind,
				Style:  styleFor(seg.Kind, r, w.Defaults),
				Breaks: breaks,
			})
		}
	}
	return out
}

// HasStaticContent reports whether a paragraph has anything a static
// renderer would emit: text, images, or a control's text.
func HasStaticContent(inlines []Inline) bool {
	for _, in := range inlines {
		switch in := in.(type) {
		case Text, Image:
			return true
		case Control:
			if len(in.Segments) > 0 {
				return true
			}
		}
	}
	return false
}
