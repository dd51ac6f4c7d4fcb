package parser

import (
	"bytes"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fumiama/go-docx"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/units"
)

// DOCXImporter handles .docx files. Body paragraphs and tables keep their
// run formatting; the trailing section properties become the page setup.
type DOCXImporter struct{}

func (p *DOCXImporter) Import(r io.Reader, filename string) (*content.Template, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read docx: %w", err)
	}
	doc, err := docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}

	sec := &content.Section{Children: []content.Node{}}
	for _, item := range doc.Document.Body.Items {
		switch it := item.(type) {
		case *docx.Paragraph:
			sec.Children = append(sec.Children, docxParagraph(it))
		case *docx.Table:
			sec.Children = append(sec.Children, docxTable(it))
		case *docx.SectPr:
			sec.Properties = docxSection(it)
		}
	}

	return &content.Template{
		Properties: content.Properties{Title: baseTitle(filename)},
		Sections:   []*content.Section{sec},
	}, nil
}

// OutlineEntry is one heading of a docx document.
type OutlineEntry struct {
	Level int    `json:"level"`
	Text  string `json:"text"`
}

// Outline lists the heading paragraphs of a docx document in order.
func Outline(r io.ReaderAt, size int64) ([]OutlineEntry, error) {
	doc, err := docx.Parse(r, size)
	if err != nil {
		return nil, fmt.Errorf("parse docx: %w", err)
	}
	var out []OutlineEntry
	for _, item := range doc.Document.Body.Items {
		para, ok := item.(*docx.Paragraph)
		if !ok {
			continue
		}
		if level := docxHeadingLevel(para); level > 0 {
			if text := docxParagraphText(para); text != "" {
				out = append(out, OutlineEntry{Level: level, Text: text})
			}
		}
	}
	return out, nil
}

func docxParagraph(para *docx.Paragraph) content.Node {
	if level := docxHeadingLevel(para); level > 0 {
		if text := docxParagraphText(para); text != "" {
			return heading(level, text)
		}
	}

	var runs []content.Inline
	for _, child := range para.Children {
		switch c := child.(type) {
		case *docx.Run:
			if r := docxRun(c); r != nil {
				runs = append(runs, r)
			}
		case *docx.Hyperlink:
			if r := docxRun(&c.Run); r != nil {
				if r.Color == "" {
					r.Color = linkColor
				}
				runs = append(runs, r)
			}
		}
	}
	if len(runs) == 0 {
		return &content.EmptyParagraph{}
	}

	out := &content.Paragraph{Children: runs}
	if props := para.Properties; props != nil {
		if props.Justification != nil {
			out.Options.Alignment = docxAlignment(props.Justification.Val)
		}
		if props.Ind != nil && (props.Ind.Left > 0 || props.Ind.FirstLine > 0 || props.Ind.Hanging > 0) {
			out.Options.Indent = &content.Indent{
				Left:      units.TwipsToCm(int64(props.Ind.Left)),
				FirstLine: units.TwipsToCm(int64(props.Ind.FirstLine)),
				Hanging:   units.TwipsToCm(int64(props.Ind.Hanging)),
			}
		}
		if sp := props.Spacing; sp != nil && (sp.Before > 0 || sp.Line > 0) {
			out.Options.Spacing = &content.Spacing{Before: float64(sp.Before) / 20}
			if sp.Line > 0 && (sp.LineRule == "" || sp.LineRule == "auto") {
				out.Options.Spacing.Line = float64(sp.Line) / 240
			}
		}
	}
	return out
}

// docxRun maps one run. Tabs and breaks become their text forms so the
// renderer splits them back out.
func docxRun(run *docx.Run) *content.TextRun {
	var buf strings.Builder
	for _, rc := range run.Children {
		switch c := rc.(type) {
		case *docx.Text:
			buf.WriteString(c.Text)
		case *docx.Tab:
			buf.WriteString("\t")
		case *docx.BarterRabbet:
			if c.Type == "" || c.Type == "textWrapping" {
				buf.WriteString("\n")
			}
		}
	}
	if buf.Len() == 0 {
		return nil
	}

	r := &content.TextRun{Text: buf.String()}
	rp := run.RunProperties
	if rp == nil {
		return r
	}
	if rp.Bold != nil {
		r.Bold = content.Bool(true)
	}
	if rp.Italic != nil {
		r.Italics = content.Bool(true)
	}
	if rp.Underline != nil && rp.Underline.Val != "" && rp.Underline.Val != "none" {
		u := content.Underline(rp.Underline.Val)
		r.Underline = &u
	}
	if rp.Strike != nil && rp.Strike.Val != "false" && rp.Strike.Val != "0" {
		r.Strike = content.Bool(true)
	}
	if rp.Color != nil && rp.Color.Val != "" && rp.Color.Val != "auto" {
		r.Color = strings.ToUpper(rp.Color.Val)
	}
	if rp.Size != nil {
		if hp, err := strconv.Atoi(rp.Size.Val); err == nil && hp > 0 {
			r.Size = units.Pt(float64(hp) / 2)
		}
	}
	if f := rp.Fonts; f != nil {
		switch {
		case f.EastAsia != "":
			r.Font = f.EastAsia
		case f.ASCII != "":
			r.Font = f.ASCII
		}
	}
	if rp.VertAlign != nil {
		switch rp.VertAlign.Val {
		case "superscript":
			r.SuperScript = content.Bool(true)
		case "subscript":
			r.SubScript = content.Bool(true)
		}
	}
	return r
}

func docxTable(t *docx.Table) *content.Table {
	out := &content.Table{Rows: []*content.Row{}}
	if t.TableGrid != nil {
		for _, col := range t.TableGrid.GridCols {
			out.Options.ColumnWidths = append(out.Options.ColumnWidths, units.TwipsToCm(col.W))
		}
	}
	if tp := t.TableProperties; tp != nil && tp.Justification != nil {
		out.Options.Alignment = docxAlignment(tp.Justification.Val)
	}

	for _, tr := range t.TableRows {
		row := &content.Row{Cells: []*content.Cell{}}
		if rp := tr.TableRowProperties; rp != nil && rp.TableRowHeight != nil && rp.TableRowHeight.Val > 0 {
			row.Options.Height = units.TwipsToCm(rp.TableRowHeight.Val)
			if rp.TableRowHeight.Rule == "exact" {
				row.Options.HeightRule = "exact"
			}
		}
		for _, tc := range tr.TableCells {
			row.Cells = append(row.Cells, docxCell(tc))
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func docxCell(tc *docx.WTableCell) *content.Cell {
	cell := &content.Cell{Children: []content.Node{}}
	for _, p := range tc.Paragraphs {
		cell.Children = append(cell.Children, docxParagraph(p))
	}
	for _, t := range tc.Tables {
		cell.Children = append(cell.Children, docxTable(t))
	}

	cp := tc.TableCellProperties
	if cp == nil {
		return cell
	}
	if cp.GridSpan != nil && cp.GridSpan.Val > 1 {
		cell.Options.ColumnSpan = cp.GridSpan.Val
	}
	if cp.VMerge != nil {
		// A bare <w:vMerge/> continues the merge above.
		if cp.VMerge.Val == "restart" {
			cell.Options.VerticalMerge = "restart"
		} else {
			cell.Options.VerticalMerge = "continue"
		}
	}
	if cp.Shade != nil && cp.Shade.Fill != "" && cp.Shade.Fill != "auto" {
		cell.Options.Shading = strings.ToUpper(cp.Shade.Fill)
	}
	if cp.VAlign != nil {
		cell.Options.VerticalAlign = cp.VAlign.Val
	}
	if cp.TableCellWidth != nil && cp.TableCellWidth.Type == "dxa" && cp.TableCellWidth.W > 0 {
		cell.Options.Width = units.TwipsToCm(cp.TableCellWidth.W)
	}
	return cell
}

func docxSection(s *docx.SectPr) content.SectionProperties {
	var out content.SectionProperties
	if s.PgSz != nil {
		out.Page.Width = units.TwipsToCm(int64(s.PgSz.W))
		out.Page.Height = units.TwipsToCm(int64(s.PgSz.H))
	}
	if m := s.PgMar; m != nil {
		out.Margin = content.Margin{
			Top:    units.TwipsToCm(int64(m.Top)),
			Right:  units.TwipsToCm(int64(m.Right)),
			Bottom: units.TwipsToCm(int64(m.Bottom)),
			Left:   units.TwipsToCm(int64(m.Left)),
			Header: units.TwipsToCm(int64(m.Header)),
			Footer: units.TwipsToCm(int64(m.Footer)),
		}
	}
	return out
}

func docxAlignment(val string) string {
	switch val {
	case "both":
		return "justify"
	case "start", "left":
		return "left"
	case "end", "right":
		return "right"
	case "center", "distribute":
		return val
	}
	return ""
}

func docxHeadingLevel(para *docx.Paragraph) int {
	if para.Properties == nil || para.Properties.Style == nil {
		return 0
	}
	style := strings.ToLower(strings.ReplaceAll(para.Properties.Style.Val, " ", ""))
	if !strings.HasPrefix(style, "heading") {
		return 0
	}
	level, err := strconv.Atoi(strings.TrimPrefix(style, "heading"))
	if err != nil || level < 1 || level > 6 {
		return 0
	}
	return level
}

func docxParagraphText(para *docx.Paragraph) string {
	var buf strings.Builder
	for _, child := range para.Children {
		var run *docx.Run
		switch c := child.(type) {
		case *docx.Run:
			run = c
		case *docx.Hyperlink:
			run = &c.Run
		default:
			continue
		}
		for _, rc := range run.Children {
			if t, ok := rc.(*docx.Text); ok {
				buf.WriteString(t.Text)
			}
		}
	}
	return strings.TrimSpace(buf.String())
}
