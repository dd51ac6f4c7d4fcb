package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
	"github.com/dgallion1/docweave/internal/markup"
	"github.com/dgallion1/docweave/internal/units"
)

// recorder flattens the event stream into strings.
type recorder struct {
	events []string
}

func (r *recorder) add(format string, args ...any) {
	r.events = append(r.events, fmt.Sprintf(format, args...))
}

func (r *recorder) BeginSection(i int, _ content.SectionProperties) { r.add("section %d", i) }
func (r *recorder) EndSection()                                     { r.add("/section") }
func (r *recorder) BeginRegion(reg Region)                          { r.add("region %s %s", reg.Kind, reg.Slot) }
func (r *recorder) EndRegion()                                      { r.add("/region") }
func (r *recorder) EmptyParagraph()                                 { r.add("empty") }
func (r *recorder) BeginTable(t TableInfo)                          { r.add("table %dx%d", t.Rows, t.Columns) }
func (r *recorder) BeginRow(content.RowOptions)                     { r.add("row") }
func (r *recorder) BeginCell(content.CellOptions)                   { r.add("cell") }
func (r *recorder) EndCell()                                        { r.add("/cell") }
func (r *recorder) EndRow()                                         { r.add("/row") }
func (r *recorder) EndTable()                                       { r.add("/table") }

func (r *recorder) Paragraph(_ content.ParagraphOptions, inlines []Inline) {
	var parts []string
	for _, in := range inlines {
		switch in := in.(type) {
		case Text:
			parts = append(parts, in.Value)
		case Image:
			parts = append(parts, "[img]")
		case Control:
			parts = append(parts, "<"+in.Config.Name+"="+in.Value+">")
		}
	}
	r.add("p %s", strings.Join(parts, "|"))
}

func TestTextSegmentsBreaks(t *testing.T) {
	w := Walker{}
	segs := w.TextSegments(content.Text("a <b>b</b>\nc\n<i>d</i>e"))

	type brk struct {
		Value  string
		Kind   markup.Kind
		Breaks int
	}
	var got []brk
	for _, s := range segs {
		got = append(got, brk{s.Value, s.Kind, s.Breaks})
	}
	want := []brk{
		{"a ", markup.Text, 0},
		{"b", markup.B, 0},
		{"c", markup.Text, 1},
		{"d", markup.I, 1},
		{"e", markup.Text, 0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("segments (-want +got):\n%s", diff)
	}
}

func TestExplicitBreakOverrides(t *testing.T) {
	r := content.Text("x\ny")
	r.Break = content.Int(2)
	for _, s := range (Walker{}).TextSegments(r) {
		if s.Breaks != 2 {
			t.Errorf("expected 2 breaks on %q, got %d", s.Value, s.Breaks)
		}
	}
}

func TestFieldPrecedence(t *testing.T) {
	store := field.Map{"a": "from field", "b": "from control"}
	r := &content.TextRun{Text: "default", Field: "a", HTMLConfig: &content.HTMLConfig{Field: "b"}}
	segs := Walker{Store: store}.TextSegments(r)
	if len(segs) != 1 || segs[0].Value != "from field" {
		t.Errorf("expected field to win, got %+v", segs)
	}

	r.Field = ""
	segs = Walker{Store: store}.TextSegments(r)
	if len(segs) != 1 || segs[0].Value != "from control" {
		t.Errorf("expected htmlConfig.field, got %+v", segs)
	}
}

func TestStyleMapping(t *testing.T) {
	d := Defaults{Font: "宋体", Size: units.Named("五号")}
	tests := []struct {
		kind markup.Kind
		run  *content.TextRun
		want Style
	}{
		{markup.Strong, &content.TextRun{}, Style{Bold: true, Font: "宋体", Size: 21, Color: "000000"}},
		{markup.B, &content.TextRun{Bold: content.Bool(false)}, Style{Font: "宋体", Size: 21, Color: "000000"}},
		{markup.Em, &content.TextRun{}, Style{Italic: true, Font: "宋体", Size: 21, Color: "000000"}},
		{markup.Del, &content.TextRun{}, Style{Strike: true, Font: "宋体", Size: 21, Color: "000000"}},
		{markup.U, &content.TextRun{}, Style{Underline: "single", Font: "宋体", Size: 21, Color: "000000"}},
		{markup.Sup, &content.TextRun{}, Style{VertAlign: Superscript, Font: "宋体", Size: 21, Color: "000000"}},
		{markup.Sup, &content.TextRun{SuperScript: content.Bool(false)}, Style{Font: "宋体", Size: 21, Color: "000000"}},
		{markup.Sub, &content.TextRun{SuperScript: content.Bool(true)}, Style{VertAlign: Superscript, Font: "宋体", Size: 21, Color: "000000"}},
		{markup.Text, &content.TextRun{Font: "Arial", Size: units.Pt(12), Color: "#ff0000"}, Style{Font: "Arial", Size: 24, Color: "FF0000"}},
	}
	for _, tt := range tests {
		got := styleFor(tt.kind, tt.run, d)
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("%s %+v (-want +got):\n%s", tt.kind, tt.run, diff)
		}
	}
}

func TestNormalizeColor(t *testing.T) {
	tests := map[string]string{
		"#1a2b3c": "1A2B3C",
		"abc":     "AABBCC",
		"red":     "000000",
		"":        "000000",
		"12345":   "000000",
	}
	for in, want := range tests {
		if got := NormalizeColor(in); got != want {
			t.Errorf("NormalizeColor(%q): expected %q, got %q", in, want, got)
		}
	}
}

func TestWalkOrderAndRegions(t *testing.T) {
	s := &content.Section{
		Headers: &content.HeaderFooter{
			Default: []content.Node{&content.Paragraph{Children: []content.Inline{content.Text("head")}}},
		},
		Footers: &content.HeaderFooter{
			Even: []content.Node{&content.EmptyParagraph{}},
		},
		Children: []content.Node{
			&content.Paragraph{Children: []content.Inline{
				content.Text("Name: "),
				&content.TextRun{Text: "?", Field: "name"},
				&content.ImageRun{Data: content.Payload{1}},
			}},
			&content.EmptyParagraph{},
			&content.Table{Rows: []*content.Row{
				{Cells: []*content.Cell{
					{Options: content.CellOptions{ColumnSpan: 2}, Children: []content.Node{
						&content.Paragraph{Children: []content.Inline{
							&content.TextRun{Field: "city", HTMLConfig: &content.HTMLConfig{Name: "city"}},
						}},
					}},
				}},
				{Cells: []*content.Cell{{}, {}}},
			}},
		},
	}

	rec := &recorder{}
	Walker{Store: field.Map{"name": "Ada", "city": "Turin"}}.Sections(rec, []*content.Section{s})

	want := []string{
		"section 0",
		"region header default",
		"p head",
		"/region",
		"region body ",
		"p Name: |Ada|[img]",
		"empty",
		"table 2x2",
		"row", "cell", "p <city=Turin>", "/cell", "/row",
		"row", "cell", "/cell", "cell", "/cell", "/row",
		"/table",
		"/region",
		"region footer even",
		"empty",
		"/region",
		"/section",
	}
	if diff := cmp.Diff(want, rec.events); diff != "" {
		t.Errorf("events (-want +got):\n%s", diff)
	}
}

func TestOrderIndependentOfStoreValues(t *testing.T) {
	nodes := []content.Node{&content.Paragraph{Children: []content.Inline{
		&content.TextRun{Field: "a"}, &content.TextRun{Field: "b"}, &content.TextRun{Field: "c"},
	}}}
	for _, store := range []field.Map{
		{"a": "1", "b": "2", "c": "3"},
		{"c": "1", "b": "2", "a": "3"},
	} {
		rec := &recorder{}
		Walker{Store: store}.Nodes(rec, nodes)
		want := fmt.Sprintf("p %s|%s|%s", store["a"], store["b"], store["c"])
		if rec.events[0] != want {
			t.Errorf("expected %q, got %q", want, rec.events[0])
		}
	}
}

func TestHasStaticContent(t *testing.T) {
	if HasStaticContent(nil) {
		t.Error("expected no content for nil")
	}
	if HasStaticContent([]Inline{Control{}}) {
		t.Error("expected empty control to have no static content")
	}
	if !HasStaticContent([]Inline{Control{Segments: []Text{{Value: "x"}}}}) {
		t.Error("expected control text to count")
	}
	if !HasStaticContent([]Inline{Image{}}) {
		t.Error("expected image to count")
	}
}

func TestColumns(t *testing.T) {
	tbl := &content.Table{
		Options: content.TableOptions{ColumnWidths: []float64{1}},
		Rows: []*content.Row{
			{Cells: []*content.Cell{{Options: content.CellOptions{ColumnSpan: 3}}}},
			{Cells: []*content.Cell{{}, {}}},
		},
	}
	if got := Columns(tbl); got != 3 {
		t.Errorf("expected 3, got %d", got)
	}
}
