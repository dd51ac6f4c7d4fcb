// Package docxsink turns the render event stream into go-docx primitives.
package docxsink

import (
	"log/slog"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
	"github.com/dgallion1/docweave/internal/render"
	"github.com/dgallion1/docweave/internal/units"
)

// SectionOutput is one rendered section. Items are *docx.Paragraph or
// *docx.Table in document order.
type SectionOutput struct {
	Index      int
	Properties *docx.SectPr
	Headers    map[content.Slot][]any
	Footers    map[content.Slot][]any
	Children   []any
}

// Sink implements render.Sink. Paragraphs are created through doc so image
// media is registered with it, but nothing is added to doc's body until
// Assemble.
type Sink struct {
	doc *docx.Docx
	log *slog.Logger

	sections []*SectionOutput
	cur      *SectionOutput
	region   render.Region
	stack    []container
	tables   []*tableBuild
}

// New returns a Sink that builds into doc.
func New(doc *docx.Docx, log *slog.Logger) *Sink {
	if log == nil {
		log = slog.Default()
	}
	return &Sink{doc: doc, log: log.With("component", "docxsink")}
}

// Sections returns the sections rendered so far.
func (s *Sink) Sections() []*SectionOutput { return s.sections }

// RenderSection renders one section into primitives owned by doc.
func RenderSection(doc *docx.Docx, sec *content.Section, store field.Store, d render.Defaults, log *slog.Logger) *SectionOutput {
	s := New(doc, log)
	render.Walker{Store: store, Defaults: d}.Section(s, 0, sec)
	return s.sections[0]
}

// RenderChildren renders a node sequence outside of any section.
func RenderChildren(doc *docx.Docx, nodes []content.Node, store field.Store, d render.Defaults, log *slog.Logger) []any {
	s := New(doc, log)
	l := &list{}
	s.stack = append(s.stack, l)
	render.Walker{Store: store, Defaults: d}.Nodes(s, nodes)
	return l.items
}

type container interface {
	add(item any)
}

type list struct{ items []any }

func (l *list) add(item any) { l.items = append(l.items, item) }

type cellContainer struct{ cell *docx.WTableCell }

// add keeps paragraphs and tables in separate lists; go-docx writes a
// cell's paragraphs before its tables.
func (c cellContainer) add(item any) {
	switch v := item.(type) {
	case *docx.Paragraph:
		c.cell.Paragraphs = append(c.cell.Paragraphs, v)
	case *docx.Table:
		c.cell.Tables = append(c.cell.Tables, v)
	}
}

type tableBuild struct {
	table *docx.Table
	row   *docx.WTableRow
	grid  []int64
	col   int
}

func (s *Sink) top() container {
	if len(s.stack) == 0 {
		// Stray content outside a region goes to an implicit list.
		l := &list{}
		s.stack = append(s.stack, l)
	}
	return s.stack[len(s.stack)-1]
}

// newParagraph creates a paragraph bound to doc without leaving it in the body.
func (s *Sink) newParagraph() *docx.Paragraph {
	p := s.doc.AddParagraph()
	items := s.doc.Document.Body.Items
	s.doc.Document.Body.Items = items[:len(items)-1]
	return p
}

func (s *Sink) BeginSection(index int, props content.SectionProperties) {
	s.cur = &SectionOutput{
		Index:      index,
		Properties: SectPr(props),
		Headers:    map[content.Slot][]any{},
		Footers:    map[content.Slot][]any{},
	}
}

func (s *Sink) EndSection() {
	s.sections = append(s.sections, s.cur)
	s.cur = nil
}

func (s *Sink) BeginRegion(r render.Region) {
	s.region = r
	s.stack = append(s.stack, &list{})
}

func (s *Sink) EndRegion() {
	l := s.stack[len(s.stack)-1].(*list)
	s.stack = s.stack[:len(s.stack)-1]
	if s.cur == nil {
		return
	}
	switch s.region.Kind {
	case render.RegionHeader:
		s.cur.Headers[s.region.Slot] = l.items
	case render.RegionFooter:
		s.cur.Footers[s.region.Slot] = l.items
	default:
		s.cur.Children = l.items
	}
}

func (s *Sink) Paragraph(opts content.ParagraphOptions, inlines []render.Inline) {
	if !render.HasStaticContent(inlines) {
		s.log.Debug("dropping empty paragraph")
		return
	}
	p := s.newParagraph()
	applyParagraphOptions(p, opts)
	if opts.PageBreakBefore {
		p.AddPageBreaks()
	}
	for _, in := range inlines {
		switch in := in.(type) {
		case render.Text:
			addText(p, in)
		case render.Control:
			for _, seg := range in.Segments {
				addText(p, seg)
			}
		case render.Image:
			s.addImage(p, in.Run)
		}
	}
	s.top().add(p)
}

func (s *Sink) EmptyParagraph() {
	s.top().add(s.newParagraph())
}

// Alignment maps template alignment names to w:jc values.
func Alignment(a string) string {
	switch a {
	case "center":
		return "center"
	case "right", "end":
		return "end"
	case "justify", "both":
		return "both"
	case "distribute":
		return "distribute"
	case "left", "start":
		return "start"
	default:
		return ""
	}
}

func applyParagraphOptions(p *docx.Paragraph, opts content.ParagraphOptions) {
	if jc := Alignment(opts.Alignment); jc != "" {
		p.Justification(jc)
	}
	if opts.Spacing == nil && opts.Indent == nil {
		return
	}
	if p.Properties == nil {
		p.Properties = &docx.ParagraphProperties{}
	}
	if sp := opts.Spacing; sp != nil {
		spacing := &docx.Spacing{Before: units.PtToTwips(sp.Before)}
		if sp.Line > 0 {
			spacing.Line = units.LineTwips(sp.Line)
			spacing.LineRule = "auto"
		}
		p.Properties.Spacing = spacing
	}
	if in := opts.Indent; in != nil {
		p.Properties.Ind = &docx.Ind{
			Left:           int(units.CmToTwips(in.Left)),
			FirstLine:      int(units.CmToTwips(in.FirstLine)),
			Hanging:        int(units.CmToTwips(in.Hanging)),
			FirstLineChars: int(in.FirstLineChars * 100),
		}
	}
}

// addText appends one run for a segment. Tabs become w:tab elements.
func addText(p *docx.Paragraph, t render.Text) {
	children := make([]any, 0, t.Breaks+2)
	for i := 0; i < t.Breaks; i++ {
		children = append(children, &docx.BarterRabbet{})
	}
	for i, part := range strings.Split(t.Value, "\t") {
		if i > 0 {
			children = append(children, &docx.Tab{})
		}
		if part == "" {
			continue
		}
		txt := &docx.Text{Text: part}
		if strings.TrimSpace(part) != part {
			txt.XMLSpace = "preserve"
		}
		children = append(children, txt)
	}
	run := &docx.Run{RunProperties: &docx.RunProperties{}, Children: children}
	ApplyStyle(run, t.Style)
	p.Children = append(p.Children, run)
}

// ApplyStyle copies a resolved style onto a run.
func ApplyStyle(r *docx.Run, st render.Style) {
	if st.Font != "" {
		r.Font(st.Font, st.Font, st.Font, "eastAsia")
	}
	if st.Bold {
		r.Bold()
	}
	if st.Italic {
		r.Italic()
	}
	if st.Color != "" {
		r.Color(st.Color)
	}
	if st.Size > 0 {
		sz := strconv.Itoa(st.Size)
		r.Size(sz)
		r.SizeCs(sz)
	}
	if st.Underline != "" {
		r.Underline(st.Underline)
	}
	if st.VertAlign != "" {
		r.RunProperties.VertAlign = &docx.VertAlign{Val: st.VertAlign}
	}
	if st.Strike {
		r.Strike(true)
	}
}

func (s *Sink) addImage(p *docx.Paragraph, img *content.ImageRun) {
	if len(img.Data) == 0 {
		s.log.Warn("image has no data, skipping", "src", img.Src)
		return
	}
	if img.Floating != nil {
		run, err := p.AddAnchorDrawing(img.Data)
		if err != nil {
			s.log.Warn("unsupported image, skipping", "error", err)
			return
		}
		a := run.Children[0].(*docx.Drawing).Anchor
		w, h := scaled(a.Extent, img.Transformation)
		a.Size(w, h)
		rel := img.Floating.RelativeFrom
		if rel == "" {
			rel = "page"
		}
		a.PositionH.RelativeFrom = rel
		a.PositionH.PosOffset = units.CmToEMU(img.Floating.HorizontalOffset)
		a.PositionV.RelativeFrom = rel
		a.PositionV.PosOffset = units.CmToEMU(img.Floating.VerticalOffset)
		return
	}
	run, err := p.AddInlineDrawing(img.Data)
	if err != nil {
		s.log.Warn("unsupported image, skipping", "error", err)
		return
	}
	in := run.Children[0].(*docx.Drawing).Inline
	w, h := scaled(in.Extent, img.Transformation)
	in.Size(w, h)
}

// scaled returns the EMU size for a transformation, keeping the aspect
// ratio of ext when only one side is given.
func scaled(ext *docx.WPExtent, tr content.Transformation) (int64, int64) {
	w, h := units.CmToEMU(tr.Width), units.CmToEMU(tr.Height)
	switch {
	case w > 0 && h > 0:
		return w, h
	case w > 0 && ext.CX > 0:
		return w, w * ext.CY / ext.CX
	case h > 0 && ext.CY > 0:
		return h * ext.CX / ext.CY, h
	default:
		return ext.CX, ext.CY
	}
}

func (s *Sink) BeginTable(info render.TableInfo) {
	grid := gridWidths(info)
	cols := make([]*docx.WGridCol, 0, len(grid))
	for _, w := range grid {
		cols = append(cols, &docx.WGridCol{W: w})
	}
	width := &docx.WTableWidth{Type: "auto"}
	if info.Options.Width > 0 {
		width = &docx.WTableWidth{W: units.CmToTwips(info.Options.Width), Type: "dxa"}
	}
	tbl := &docx.Table{
		TableProperties: &docx.WTableProperties{
			Width:        width,
			TableBorders: tableBorders(info.Options.Borders),
			Look:         &docx.WTableLook{Val: "0000"},
		},
		TableGrid: &docx.WTableGrid{GridCols: cols},
	}
	if jc := Alignment(info.Options.Alignment); jc != "" {
		tbl.TableProperties.Justification = &docx.Justification{Val: jc}
	}
	s.tables = append(s.tables, &tableBuild{table: tbl, grid: grid})
}

// gridWidths returns one twips width per grid column. Missing widths share
// what is left of the table width, or stay 0 (auto).
func gridWidths(info render.TableInfo) []int64 {
	grid := make([]int64, info.Columns)
	var used int64
	missing := 0
	for i := range grid {
		if i < len(info.Options.ColumnWidths) && info.Options.ColumnWidths[i] > 0 {
			grid[i] = units.CmToTwips(info.Options.ColumnWidths[i])
			used += grid[i]
		} else {
			missing++
		}
	}
	if missing > 0 && info.Options.Width > 0 {
		rest := units.CmToTwips(info.Options.Width) - used
		if rest > 0 {
			each := rest / int64(missing)
			for i := range grid {
				if grid[i] == 0 {
					grid[i] = each
				}
			}
		}
	}
	return grid
}

// DefaultBorder is a thin single black line.
var DefaultBorder = content.Borders{Style: "single", Size: 0.5, Color: render.DefaultColor}

func tableBorders(b *content.Borders) *docx.WTableBorders {
	spec := DefaultBorder
	if b != nil {
		if b.Style != "" {
			spec.Style = b.Style
		}
		if b.Size > 0 {
			spec.Size = b.Size
		}
		if b.Color != "" {
			spec.Color = render.NormalizeColor(b.Color)
		}
	}
	edge := func() *docx.WTableBorder {
		if spec.Style == "none" {
			return &docx.WTableBorder{Val: "none"}
		}
		return &docx.WTableBorder{Val: spec.Style, Size: units.BorderEighths(spec.Size), Color: spec.Color}
	}
	return &docx.WTableBorders{
		Top: edge(), Left: edge(), Bottom: edge(), Right: edge(), InsideH: edge(), InsideV: edge(),
	}
}

func (s *Sink) BeginRow(opts content.RowOptions) {
	tb := s.tables[len(s.tables)-1]
	row := &docx.WTableRow{TableRowProperties: &docx.WTableRowProperties{}}
	if opts.Height > 0 {
		rule := opts.HeightRule
		if rule == "" {
			rule = "atLeast"
		}
		row.TableRowProperties.TableRowHeight = &docx.WTableRowHeight{Rule: rule, Val: units.CmToTwips(opts.Height)}
	}
	tb.table.TableRows = append(tb.table.TableRows, row)
	tb.row = row
	tb.col = 0
}

func (s *Sink) BeginCell(opts content.CellOptions) {
	tb := s.tables[len(s.tables)-1]
	span := max(opts.ColumnSpan, 1)

	width := &docx.WTableCellWidth{Type: "auto"}
	if opts.Width > 0 {
		width = &docx.WTableCellWidth{W: units.CmToTwips(opts.Width), Type: "dxa"}
	} else if w := spanWidth(tb.grid, tb.col, span); w > 0 {
		width = &docx.WTableCellWidth{W: w, Type: "dxa"}
	}
	props := &docx.WTableCellProperties{TableCellWidth: width}
	if span > 1 {
		props.GridSpan = &docx.WGridSpan{Val: span}
	}
	switch opts.VerticalMerge {
	case "restart":
		props.VMerge = &docx.WvMerge{Val: "restart"}
	case "continue":
		props.VMerge = &docx.WvMerge{}
	}
	switch opts.VerticalAlign {
	case "top", "center", "bottom":
		props.VAlign = &docx.WVerticalAlignment{Val: opts.VerticalAlign}
	}
	if opts.Shading != "" {
		props.Shade = &docx.Shade{Val: "clear", Color: "auto", Fill: render.NormalizeColor(opts.Shading)}
	}

	cell := &docx.WTableCell{TableCellProperties: props}
	tb.row.TableCells = append(tb.row.TableCells, cell)
	tb.col += span
	s.stack = append(s.stack, cellContainer{cell: cell})
}

func spanWidth(grid []int64, col, span int) int64 {
	var w int64
	for i := col; i < col+span && i < len(grid); i++ {
		if grid[i] == 0 {
			return 0
		}
		w += grid[i]
	}
	return w
}

func (s *Sink) EndCell() {
	c := s.stack[len(s.stack)-1].(cellContainer)
	s.stack = s.stack[:len(s.stack)-1]
	if len(c.cell.Paragraphs) == 0 {
		c.cell.Paragraphs = append(c.cell.Paragraphs, s.newParagraph())
	}
}

func (s *Sink) EndRow() {
	s.tables[len(s.tables)-1].row = nil
}

func (s *Sink) EndTable() {
	tb := s.tables[len(s.tables)-1]
	s.tables = s.tables[:len(s.tables)-1]
	s.top().add(tb.table)
}

// SectPr converts resolved section properties to page geometry.
func SectPr(p content.SectionProperties) *docx.SectPr {
	tw := func(cm float64) int { return int(units.CmToTwips(cm)) }
	return &docx.SectPr{
		PgSz: &docx.PgSz{W: tw(p.Page.Width), H: tw(p.Page.Height)},
		PgMar: &docx.PgMar{
			Top:    tw(p.Margin.Top),
			Right:  tw(p.Margin.Right),
			Bottom: tw(p.Margin.Bottom),
			Left:   tw(p.Margin.Left),
			Header: tw(p.Margin.Header),
			Footer: tw(p.Margin.Footer),
		},
	}
}
