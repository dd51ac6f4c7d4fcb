package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/units"
)

func importMarkdown(t *testing.T, input, filename string) *content.Template {
	t.Helper()
	tmpl, err := (&MarkdownImporter{}).Import(strings.NewReader(input), filename)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return tmpl
}

func TestMarkdownImporter_Headings(t *testing.T) {
	input := `# Title

Intro text.

## Section A

Section A content.

### Subsection A1
`
	tmpl := importMarkdown(t, input, "doc.md")

	if tmpl.Properties.Title != "Title" {
		t.Errorf("expected title %q, got %q", "Title", tmpl.Properties.Title)
	}
	want := []string{"Title", "Intro text.", "Section A", "Section A content.", "Subsection A1"}
	if diff := cmp.Diff(want, paragraphTexts(t, tmpl)); diff != "" {
		t.Errorf("paragraphs mismatch (-want +got):\n%s", diff)
	}

	nodes := tmpl.Sections[0].Children
	sizes := map[int]string{0: "二号", 2: "三号", 4: "四号"}
	for i, name := range sizes {
		run := nodes[i].(*content.Paragraph).Children[0].(*content.TextRun)
		if run.Size != units.Named(name) {
			t.Errorf("node %d: expected size %s, got %v", i, name, run.Size)
		}
		if run.Bold == nil || !*run.Bold {
			t.Errorf("node %d: expected bold heading", i)
		}
	}
}

func TestMarkdownImporter_NoHeadings(t *testing.T) {
	tmpl := importMarkdown(t, "Just a paragraph.\n\nAnother one.", "notes/doc.md")
	if tmpl.Properties.Title != "doc" {
		t.Errorf("expected title %q, got %q", "doc", tmpl.Properties.Title)
	}
	if got := paragraphTexts(t, tmpl); len(got) != 2 {
		t.Errorf("expected 2 paragraphs, got %v", got)
	}
}

func TestMarkdownImporter_InlineFormatting(t *testing.T) {
	tmpl := importMarkdown(t, "Some **bold** and *it* and `code` and ~~gone~~ [link](http://example.com).", "a.md")
	got := paragraphTexts(t, tmpl)
	if len(got) != 1 || got[0] != "Some bold and it and code and gone link." {
		t.Fatalf("unexpected text: %v", got)
	}

	runs := map[string]*content.TextRun{}
	for _, in := range tmpl.Sections[0].Children[0].(*content.Paragraph).Children {
		r := in.(*content.TextRun)
		runs[r.Text] = r
	}
	if r := runs["bold"]; r == nil || r.Bold == nil {
		t.Errorf("expected bold run, got %+v", r)
	}
	if r := runs["it"]; r == nil || r.Italics == nil {
		t.Errorf("expected italic run, got %+v", r)
	}
	if r := runs["code"]; r == nil || r.Font != codeFont {
		t.Errorf("expected code run, got %+v", r)
	}
	if r := runs["gone"]; r == nil || r.Strike == nil {
		t.Errorf("expected strike run, got %+v", r)
	}
	if r := runs["link"]; r == nil || r.Color != linkColor || r.Underline == nil {
		t.Errorf("expected link run, got %+v", r)
	}
}

func TestMarkdownImporter_InlineHTMLKept(t *testing.T) {
	tmpl := importMarkdown(t, "H<sub>2</sub>O", "a.md")
	if got := paragraphTexts(t, tmpl); len(got) != 1 || got[0] != "H<sub>2</sub>O" {
		t.Errorf("expected inline tags kept, got %v", got)
	}
}

func TestMarkdownImporter_Lists(t *testing.T) {
	input := "- one\n- two\n  - nested\n\n1. first\n2. second\n"
	tmpl := importMarkdown(t, input, "a.md")

	want := []string{"• one", "• two", "• nested", "1. first", "2. second"}
	if diff := cmp.Diff(want, paragraphTexts(t, tmpl)); diff != "" {
		t.Errorf("paragraphs mismatch (-want +got):\n%s", diff)
	}

	indents := []float64{listIndent, listIndent, 2 * listIndent, listIndent, listIndent}
	for i, n := range tmpl.Sections[0].Children {
		p := n.(*content.Paragraph)
		if p.Options.Indent == nil || p.Options.Indent.Left != indents[i] {
			t.Errorf("paragraph %d: expected indent %v, got %+v", i, indents[i], p.Options.Indent)
		}
	}
}

func TestMarkdownImporter_CodeBlock(t *testing.T) {
	input := "Before.\n\n```go\nx := 1\ny := 2\n```\n"
	tmpl := importMarkdown(t, input, "a.md")
	nodes := tmpl.Sections[0].Children
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	run := nodes[1].(*content.Paragraph).Children[0].(*content.TextRun)
	if run.Text != "x := 1\ny := 2" || run.Font != codeFont {
		t.Errorf("unexpected code run: %+v", run)
	}
}

func TestMarkdownImporter_Table(t *testing.T) {
	input := "| Name | Qty |\n|:-----|----:|\n| bolt | 4 |\n"
	tmpl := importMarkdown(t, input, "a.md")
	tbl, ok := tmpl.Sections[0].Children[0].(*content.Table)
	if !ok {
		t.Fatalf("expected table, got %T", tmpl.Sections[0].Children[0])
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(tbl.Rows))
	}

	head := tbl.Rows[0].Cells[0].Children[0].(*content.Paragraph)
	hr := head.Children[0].(*content.TextRun)
	if hr.Text != "Name" || hr.Bold == nil {
		t.Errorf("expected bold header cell, got %+v", hr)
	}
	if head.Options.Alignment != "left" {
		t.Errorf("expected left alignment, got %q", head.Options.Alignment)
	}

	qty := tbl.Rows[1].Cells[1].Children[0].(*content.Paragraph)
	if qty.Options.Alignment != "right" {
		t.Errorf("expected right alignment, got %q", qty.Options.Alignment)
	}
	if r := qty.Children[0].(*content.TextRun); r.Text != "4" || r.Bold != nil {
		t.Errorf("unexpected body cell: %+v", r)
	}
}

func TestMarkdownImporter_ImageAndRule(t *testing.T) {
	tmpl := importMarkdown(t, "![logo](https://example.com/logo.png)\n\n---\n", "a.md")
	nodes := tmpl.Sections[0].Children
	if len(nodes) != 2 {
		t.Fatalf("expected 2 nodes, got %d", len(nodes))
	}
	img, ok := nodes[0].(*content.Paragraph).Children[0].(*content.ImageRun)
	if !ok || img.Src != "https://example.com/logo.png" || img.AltText != "logo" {
		t.Errorf("unexpected image: %+v", nodes[0].(*content.Paragraph).Children[0])
	}
	if _, ok := nodes[1].(*content.EmptyParagraph); !ok {
		t.Errorf("expected empty paragraph for rule, got %T", nodes[1])
	}
}

func TestMarkdownImporter_EmptyInput(t *testing.T) {
	tmpl := importMarkdown(t, "", "empty.md")
	if tmpl.Properties.Title != "empty" {
		t.Errorf("expected title %q, got %q", "empty", tmpl.Properties.Title)
	}
	if n := len(tmpl.Sections[0].Children); n != 0 {
		t.Errorf("expected 0 children, got %d", n)
	}
}
