package htmlsink

import (
	"strings"
	"testing"

	"golang.org/x/net/html"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
	"github.com/dgallion1/docweave/internal/render"
	"github.com/dgallion1/docweave/internal/units"
)

func renderNodes(t *testing.T, nodes []content.Node, store field.Store) string {
	t.Helper()
	s := New()
	s.BeginRegion(render.Region{Kind: render.RegionBody})
	render.Walker{Store: store}.Nodes(s, nodes)
	s.EndRegion()
	return s.String()
}

func TestTextBreaksAndTabs(t *testing.T) {
	got := renderNodes(t, []content.Node{
		&content.Paragraph{Children: []content.Inline{content.Text("a\tb\n<strong>c</strong>")}},
		&content.EmptyParagraph{},
	}, nil)

	if !strings.Contains(got, "a&nbsp;&nbsp;&nbsp;&nbsp;b") {
		t.Errorf("expected tab as four nbsp, got %s", got)
	}
	if !strings.Contains(got, `<br/><span style="color:#000000;font-weight:bold">c</span>`) {
		t.Errorf("expected break before bold span, got %s", got)
	}
	if !strings.Contains(got, `<p class="dw-p"><br/></p>`) {
		t.Errorf("expected empty paragraph, got %s", got)
	}
}

func TestEmptyParagraphDropped(t *testing.T) {
	got := renderNodes(t, []content.Node{
		&content.Paragraph{Children: []content.Inline{&content.TextRun{Field: "missing"}}},
	}, nil)
	if strings.Contains(got, "<p") {
		t.Errorf("expected no paragraph, got %s", got)
	}
}

func TestRunCSSMatchesStyle(t *testing.T) {
	tests := []struct {
		st   render.Style
		want string
	}{
		{render.Style{Color: "000000"}, "color:#000000"},
		{render.Style{Font: "宋体", Size: 21, Color: "FF0000", Bold: true},
			"font-family:'宋体';font-size:14px;color:#FF0000;font-weight:bold"},
		{render.Style{Font: "Times New Roman", Size: 24, Italic: true},
			"font-family:'Times New Roman';font-size:16px;font-style:italic"},
		{render.Style{Underline: "double", Strike: true},
			"text-decoration:underline line-through;text-decoration-style:double"},
		{render.Style{Size: 15, VertAlign: render.Subscript},
			"font-size:10px;vertical-align:sub"},
		{render.Style{Size: 11}, "font-size:7.33px"},
	}
	for _, tt := range tests {
		if got := RunCSS(tt.st); got != tt.want {
			t.Errorf("RunCSS(%+v): expected %q, got %q", tt.st, tt.want, got)
		}
	}
}

func TestControls(t *testing.T) {
	store := field.Map{"city": "Turin", "notes": "x < y", "size": "Large"}
	got := renderNodes(t, []content.Node{
		&content.Paragraph{Children: []content.Inline{
			&content.TextRun{Field: "city", HTMLConfig: &content.HTMLConfig{Name: "city", Placeholder: "City"}},
			&content.TextRun{Field: "notes", HTMLConfig: &content.HTMLConfig{Type: content.ControlTextarea, Name: "notes", Rows: 3}},
			&content.TextRun{Field: "size", HTMLConfig: &content.HTMLConfig{Type: content.ControlSelect, Name: "size", Options: []content.Option{
				{Label: "Small", Value: "s"}, {Label: "Large", Value: "l"},
			}}},
			&content.TextRun{Field: "empty", HTMLConfig: &content.HTMLConfig{Name: "empty"}},
		}},
	}, store)

	for _, want := range []string{
		`<input class="dw-control" type="text" name="city" value="Turin" placeholder="City"`,
		`<textarea class="dw-control" name="notes" rows="3"`,
		`>x &lt; y</textarea>`,
		`<option value="s">Small</option><option value="l" selected="">Large</option>`,
		`name="empty"`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %s", want, got)
		}
	}
}

func TestImages(t *testing.T) {
	got := renderNodes(t, []content.Node{
		&content.Paragraph{Children: []content.Inline{
			&content.ImageRun{Data: content.Payload("\x89PNG\r\n\x1a\n0000"), AltText: "logo", Transformation: content.Transformation{Width: 2.54}},
			&content.ImageRun{Src: "https://example.test/a.png"},
			&content.ImageRun{Data: content.Payload("x"), Floating: &content.Floating{}},
		}},
	}, nil)
	if !strings.Contains(got, `src="data:image/png;base64,`) || !strings.Contains(got, `style="width:96px"`) {
		t.Errorf("expected embedded png sized 96px, got %s", got)
	}
	if !strings.Contains(got, `src="https://example.test/a.png"`) {
		t.Errorf("expected src fallback, got %s", got)
	}
	if strings.Count(got, "<img") != 2 {
		t.Errorf("expected floating image skipped, got %s", got)
	}
}

func TestTablesAndVerticalMerge(t *testing.T) {
	cell := func(text, merge string) *content.Cell {
		return &content.Cell{
			Options:  content.CellOptions{VerticalMerge: merge},
			Children: []content.Node{&content.Paragraph{Children: []content.Inline{content.Text(text)}}},
		}
	}
	got := renderNodes(t, []content.Node{&content.Table{
		Options: content.TableOptions{ColumnWidths: []float64{2.54, 2.54}, Borders: &content.Borders{Style: "dashed", Size: 1, Color: "f00"}},
		Rows: []*content.Row{
			{Cells: []*content.Cell{cell("a", "restart"), cell("b", "")}},
			{Cells: []*content.Cell{cell("", "continue"), cell("c", "")}},
			{Cells: []*content.Cell{cell("", "continue"), cell("d", "")}},
			{Cells: []*content.Cell{{Options: content.CellOptions{ColumnSpan: 2, Shading: "eee"}}}},
		},
	}}, nil)

	if !strings.Contains(got, `<col style="width:96px"/>`) {
		t.Errorf("expected col widths, got %s", got)
	}
	if !strings.Contains(got, `rowspan="3"`) {
		t.Errorf("expected rowspan 3, got %s", got)
	}
	if strings.Count(got, "<td") != 5 {
		t.Errorf("expected continue cells removed, got %s", got)
	}
	if !strings.Contains(got, "border:1pt dashed #FF0000") {
		t.Errorf("expected cell borders, got %s", got)
	}
	if !strings.Contains(got, `colspan="2"`) || !strings.Contains(got, "background-color:#EEEEEE") {
		t.Errorf("expected colspan and shading, got %s", got)
	}
	if strings.Contains(got, "data-vmerge") || strings.Contains(got, "data-border") {
		t.Errorf("expected bookkeeping attributes removed, got %s", got)
	}
}

func TestBorderCSS(t *testing.T) {
	tests := []struct {
		b    *content.Borders
		want string
	}{
		{nil, "0.5pt solid #000000"},
		{&content.Borders{Style: "none"}, "none"},
		{&content.Borders{Style: "double", Size: 2, Color: "#123456"}, "2pt double #123456"},
	}
	for _, tt := range tests {
		if got := BorderCSS(tt.b); got != tt.want {
			t.Errorf("BorderCSS(%+v): expected %q, got %q", tt.b, tt.want, got)
		}
	}
}

func TestParagraphCSS(t *testing.T) {
	got := ParagraphCSS(content.ParagraphOptions{
		Alignment: "distribute",
		Spacing:   &content.Spacing{Before: 6, Line: 1.5},
		Indent:    &content.Indent{Left: 2.54, FirstLineChars: 2},
	})
	want := "text-align:justify;margin-top:8px;line-height:1.5;padding-left:96px;text-indent:2em"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestRenderSectionHTML(t *testing.T) {
	sec := &content.Section{
		Headers:  &content.HeaderFooter{Default: []content.Node{&content.Paragraph{Children: []content.Inline{content.Text("head")}}}},
		Children: []content.Node{&content.Paragraph{Children: []content.Inline{&content.TextRun{Field: "who"}}}},
	}
	got := RenderSectionHTML(sec, field.Map{"who": "Ada"}, render.Defaults{Size: units.Named("五号")})
	if !strings.HasPrefix(got, `<div class="dw-section" data-section="0" style="width:794px;min-height:1123px;padding:96px 96px 96px 96px">`) {
		t.Errorf("unexpected section markup: %s", got)
	}
	hi, bi := strings.Index(got, "dw-header"), strings.Index(got, "dw-body")
	if hi < 0 || bi < 0 || hi > bi {
		t.Errorf("expected header before body, got %s", got)
	}
	if !strings.Contains(got, ">Ada</span>") {
		t.Errorf("expected resolved field, got %s", got)
	}
}

func TestInjectStylesIdempotent(t *testing.T) {
	doc := Page(New().Root(), "Preview")
	if InjectStyles(doc) {
		t.Error("expected second injection to be a no-op")
	}
	out := Render(doc)
	if n := strings.Count(out, `id="docweave-styles"`); n != 1 {
		t.Errorf("expected one stylesheet, got %d", n)
	}
	if !strings.Contains(out, "<title>Preview</title>") {
		t.Errorf("expected title, got %s", out)
	}
}

func TestInjectInto(t *testing.T) {
	page := `<!DOCTYPE html><html><head><title>x</title></head><body><h1>Form</h1></body></html>`
	out, err := InjectInto(strings.NewReader(page), `<div class="dw-document"><p>hi</p></div>`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, `<h1>Form</h1><div class="dw-document"><p>hi</p></div>`) {
		t.Errorf("expected fragment appended to body, got %s", out)
	}
	again, err := InjectInto(strings.NewReader(out), "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := strings.Count(again, StyleID); n != 1 {
		t.Errorf("expected styles injected once, got %d", n)
	}
}

func TestSanitize(t *testing.T) {
	in := `<div class="dw-p" style="color:#000000" onclick="x()"><script>alert(1)</script><input type="text" name="a" value="b"/></div>`
	got := Sanitize(in)
	if strings.Contains(got, "script") || strings.Contains(got, "onclick") {
		t.Errorf("expected script and handlers stripped, got %s", got)
	}
	for _, want := range []string{`class="dw-p"`, `style="color:#000000"`, `name="a"`, `value="b"`} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q kept in %s", want, got)
		}
	}
}

func TestRootIsDocumentDiv(t *testing.T) {
	root := New().Root()
	if root.Type != html.ElementNode || root.Data != "div" {
		t.Fatalf("expected div root, got %+v", root)
	}
}
