package parser

import (
	"bytes"
	"testing"

	"github.com/fumiama/go-docx"
	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/units"
)

func sampleDocx(t *testing.T) []byte {
	t.Helper()
	d := docx.New().WithDefaultTheme()
	d.AddParagraph().Style("Heading1").AddText("Quarterly Report")
	p := d.AddParagraph().Justification("both")
	p.AddText("Plain ")
	p.AddText("bold red").Bold().Color("ff0000").Size("28")
	p.AddText("\tafter tab")
	d.AddParagraph()
	d.AddParagraph().Style("heading 2").AddText("Details")
	tbl := d.AddTable(1, 2, 0, nil)
	tbl.TableRows[0].TableCells[0].AddParagraph().AddText("A1")
	tbl.TableRows[0].TableCells[1].Shade("clear", "auto", "d9d9d9").AddParagraph().AddText("B1").Italic()
	d.WithA4Page()

	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		t.Fatalf("write docx: %v", err)
	}
	return buf.Bytes()
}

func TestDOCXImporter_Import(t *testing.T) {
	data := sampleDocx(t)
	tmpl, err := (&DOCXImporter{}).Import(bytes.NewReader(data), "reports/q3.docx")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tmpl.Properties.Title != "q3" {
		t.Errorf("expected title q3, got %q", tmpl.Properties.Title)
	}

	sec := tmpl.Sections[0]
	if len(sec.Children) != 5 {
		t.Fatalf("expected 5 body nodes, got %d", len(sec.Children))
	}

	h, ok := sec.Children[0].(*content.Paragraph)
	if !ok {
		t.Fatalf("expected heading paragraph, got %T", sec.Children[0])
	}
	hr := h.Children[0].(*content.TextRun)
	if hr.Text != "Quarterly Report" || hr.Bold == nil || !*hr.Bold || hr.Size != units.Named("二号") {
		t.Errorf("unexpected heading run: %+v", hr)
	}

	body := sec.Children[1].(*content.Paragraph)
	if body.Options.Alignment != "justify" {
		t.Errorf("expected justify, got %q", body.Options.Alignment)
	}
	if len(body.Children) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(body.Children))
	}
	bold := body.Children[1].(*content.TextRun)
	if bold.Text != "bold red" || bold.Bold == nil || bold.Color != "FF0000" || bold.Size != units.Pt(14) {
		t.Errorf("unexpected formatted run: %+v", bold)
	}
	if tab := body.Children[2].(*content.TextRun); tab.Text != "\tafter tab" {
		t.Errorf("expected tab text, got %q", tab.Text)
	}

	if _, ok := sec.Children[2].(*content.EmptyParagraph); !ok {
		t.Errorf("expected empty paragraph, got %T", sec.Children[2])
	}

	tbl, ok := sec.Children[4].(*content.Table)
	if !ok {
		t.Fatalf("expected table, got %T", sec.Children[4])
	}
	cells := tbl.Rows[0].Cells
	if len(cells) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(cells))
	}
	if cells[1].Options.Shading != "D9D9D9" {
		t.Errorf("expected shading D9D9D9, got %q", cells[1].Options.Shading)
	}
	b1 := cells[1].Children[0].(*content.Paragraph).Children[0].(*content.TextRun)
	if b1.Text != "B1" || b1.Italics == nil {
		t.Errorf("unexpected cell run: %+v", b1)
	}

	if got := sec.Properties.Page; got.Width != 21 || got.Height != 29.7 {
		t.Errorf("expected A4 page, got %+v", got)
	}
}

func TestDOCXImporter_InvalidInput(t *testing.T) {
	if _, err := (&DOCXImporter{}).Import(bytes.NewReader([]byte("not a zip")), "x.docx"); err == nil {
		t.Error("expected error for invalid docx")
	}
}

func TestOutline(t *testing.T) {
	data := sampleDocx(t)
	got, err := Outline(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []OutlineEntry{{Level: 1, Text: "Quarterly Report"}, {Level: 2, Text: "Details"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}
}

func TestDocxHeadingLevel(t *testing.T) {
	tests := map[string]int{
		"Heading1":  1,
		"heading 3": 3,
		"HEADING6":  6,
		"Heading7":  0,
		"Title":     0,
		"":          0,
	}
	for style, want := range tests {
		p := &docx.Paragraph{Properties: &docx.ParagraphProperties{Style: &docx.Style{Val: style}}}
		if got := docxHeadingLevel(p); got != want {
			t.Errorf("%q: expected %d, got %d", style, want, got)
		}
	}
}
