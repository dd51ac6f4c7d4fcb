// Package htmlsink renders the event stream as an HTML preview. Visual
// decisions come from render.Style, so the preview matches the docx output.
package htmlsink

import (
	"encoding/base64"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/field"
	"github.com/dgallion1/docweave/internal/render"
	"github.com/dgallion1/docweave/internal/units"
)

// Class names used in the markup and the injected stylesheet.
const (
	ClassDocument  = "dw-document"
	ClassSection   = "dw-section"
	ClassHeader    = "dw-header"
	ClassBody      = "dw-body"
	ClassFooter    = "dw-footer"
	ClassParagraph = "dw-p"
	ClassTable     = "dw-table"
	ClassControl   = "dw-control"
)

const tabHTML = "&nbsp;&nbsp;&nbsp;&nbsp;"

// Sink implements render.Sink and builds an x/net/html tree under a single
// document div.
type Sink struct {
	root  *html.Node
	stack []*html.Node
}

// New returns an empty Sink.
func New() *Sink {
	root := element(atom.Div, "class", ClassDocument)
	return &Sink{root: root, stack: []*html.Node{root}}
}

// Root is the document div.
func (s *Sink) Root() *html.Node { return s.root }

// String renders the document div.
func (s *Sink) String() string { return Render(s.root) }

// Render serialises a node.
func Render(n *html.Node) string {
	var b strings.Builder
	// Writes to a strings.Builder do not fail.
	_ = html.Render(&b, n)
	return b.String()
}

// RenderSectionHTML renders one section to an HTML string.
func RenderSectionHTML(sec *content.Section, store field.Store, d render.Defaults) string {
	s := New()
	render.Walker{Store: store, Defaults: d}.Section(s, 0, sec)
	var b strings.Builder
	for c := s.root.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(Render(c))
	}
	return b.String()
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		if attrs[i+1] == "" {
			continue
		}
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

func (s *Sink) top() *html.Node { return s.stack[len(s.stack)-1] }

func (s *Sink) push(n *html.Node) {
	s.top().AppendChild(n)
	s.stack = append(s.stack, n)
}

func (s *Sink) pop() *html.Node {
	n := s.top()
	s.stack = s.stack[:len(s.stack)-1]
	return n
}

func (s *Sink) BeginSection(index int, props content.SectionProperties) {
	css := styleList{}
	css.add("width", px(float64(units.CmToPx(props.Page.Width))))
	css.add("min-height", px(float64(units.CmToPx(props.Page.Height))))
	css.add("padding", strings.Join([]string{
		px(float64(units.CmToPx(props.Margin.Top))),
		px(float64(units.CmToPx(props.Margin.Right))),
		px(float64(units.CmToPx(props.Margin.Bottom))),
		px(float64(units.CmToPx(props.Margin.Left))),
	}, " "))
	s.push(element(atom.Div, "class", ClassSection, "data-section", strconv.Itoa(index), "style", css.String()))
}

func (s *Sink) EndSection() { s.pop() }

func (s *Sink) BeginRegion(r render.Region) {
	class := ClassBody
	switch r.Kind {
	case render.RegionHeader:
		class = ClassHeader
	case render.RegionFooter:
		class = ClassFooter
	}
	s.push(element(atom.Div, "class", class, "data-slot", string(r.Slot)))
}

func (s *Sink) EndRegion() { s.pop() }

// Paragraph drops paragraphs with nothing to show. Unlike the docx sink a
// control with an empty value still counts: it is a fillable field.
func (s *Sink) Paragraph(opts content.ParagraphOptions, inlines []render.Inline) {
	if len(inlines) == 0 {
		return
	}
	p := element(atom.P, "class", ClassParagraph, "style", ParagraphCSS(opts))
	for _, in := range inlines {
		switch in := in.(type) {
		case render.Text:
			appendText(p, in)
		case render.Control:
			p.AppendChild(control(in))
		case render.Image:
			if img := image(in.Run); img != nil {
				p.AppendChild(img)
			}
		}
	}
	if p.FirstChild == nil {
		return
	}
	s.top().AppendChild(p)
}

func (s *Sink) EmptyParagraph() {
	p := element(atom.P, "class", ClassParagraph)
	p.AppendChild(element(atom.Br))
	s.top().AppendChild(p)
}

// ParagraphCSS mirrors the docx paragraph properties.
func ParagraphCSS(opts content.ParagraphOptions) string {
	css := styleList{}
	switch opts.Alignment {
	case "center":
		css.add("text-align", "center")
	case "right", "end":
		css.add("text-align", "right")
	case "justify", "both", "distribute":
		css.add("text-align", "justify")
	}
	if sp := opts.Spacing; sp != nil {
		if sp.Before > 0 {
			css.add("margin-top", px(units.PtToPx(sp.Before)))
		}
		if sp.Line > 0 {
			css.add("line-height", strconv.FormatFloat(sp.Line, 'f', -1, 64))
		}
	}
	if in := opts.Indent; in != nil {
		if in.Left > 0 {
			css.add("padding-left", px(float64(units.CmToPx(in.Left))))
		}
		switch {
		case in.FirstLineChars > 0:
			css.add("text-indent", strconv.FormatFloat(in.FirstLineChars, 'f', -1, 64)+"em")
		case in.FirstLine > 0:
			css.add("text-indent", px(float64(units.CmToPx(in.FirstLine))))
		case in.Hanging > 0:
			css.add("text-indent", "-"+px(float64(units.CmToPx(in.Hanging))))
		}
	}
	if opts.PageBreakBefore {
		css.add("break-before", "page")
	}
	return css.String()
}

// appendText writes breaks, then a styled span. Tabs become four
// non-breaking spaces.
func appendText(p *html.Node, t render.Text) {
	for i := 0; i < t.Breaks; i++ {
		p.AppendChild(element(atom.Br))
	}
	if t.Value == "" {
		return
	}
	span := element(atom.Span, "style", RunCSS(t.Style))
	for i, part := range strings.Split(t.Value, "\t") {
		if i > 0 {
			span.AppendChild(&html.Node{Type: html.RawNode, Data: tabHTML})
		}
		if part != "" {
			span.AppendChild(text(part))
		}
	}
	p.AppendChild(span)
}

func control(c render.Control) *html.Node {
	css := RunCSS(c.Style)
	switch c.Config.Type {
	case content.ControlTextarea:
		rows := ""
		if c.Config.Rows > 0 {
			rows = strconv.Itoa(c.Config.Rows)
		}
		n := element(atom.Textarea, "class", ClassControl, "name", c.Config.Name, "rows", rows,
			"placeholder", c.Config.Placeholder, "style", css)
		n.AppendChild(text(c.Value))
		return n
	case content.ControlSelect:
		n := element(atom.Select, "class", ClassControl, "name", c.Config.Name, "style", css)
		for _, o := range c.Config.Options {
			value := o.Value
			if value == "" {
				value = o.Label
			}
			opt := element(atom.Option, "value", value)
			if value == c.Value || o.Label == c.Value {
				opt.Attr = append(opt.Attr, html.Attribute{Key: "selected"})
			}
			label := o.Label
			if label == "" {
				label = value
			}
			opt.AppendChild(text(label))
			n.AppendChild(opt)
		}
		return n
	default:
		return element(atom.Input, "class", ClassControl, "type", "text", "name", c.Config.Name,
			"value", c.Value, "placeholder", c.Config.Placeholder, "style", css)
	}
}

// image renders inline images. Floating images are not supported in the
// preview and are skipped; unfetched images fall back to their URL.
func image(img *content.ImageRun) *html.Node {
	if img.Floating != nil {
		return nil
	}
	src := img.Src
	if len(img.Data) > 0 {
		src = "data:" + http.DetectContentType(img.Data) + ";base64," + base64.StdEncoding.EncodeToString(img.Data)
	}
	if src == "" {
		return nil
	}
	css := styleList{}
	if img.Transformation.Width > 0 {
		css.add("width", px(float64(units.CmToPx(img.Transformation.Width))))
	}
	if img.Transformation.Height > 0 {
		css.add("height", px(float64(units.CmToPx(img.Transformation.Height))))
	}
	return element(atom.Img, "src", src, "alt", img.AltText, "style", css.String())
}

func (s *Sink) BeginTable(info render.TableInfo) {
	css := styleList{}
	css.add("border-collapse", "collapse")
	if info.Options.Width > 0 {
		css.add("width", px(float64(units.CmToPx(info.Options.Width))))
	}
	switch info.Options.Alignment {
	case "center":
		css.add("margin-left", "auto")
		css.add("margin-right", "auto")
	case "right", "end":
		css.add("margin-left", "auto")
	}
	tbl := element(atom.Table, "class", ClassTable, "style", css.String(), "data-border", BorderCSS(info.Options.Borders))
	if len(info.Options.ColumnWidths) > 0 {
		cg := element(atom.Colgroup)
		for _, w := range info.Options.ColumnWidths {
			cg.AppendChild(element(atom.Col, "style", "width:"+px(float64(units.CmToPx(w)))))
		}
		tbl.AppendChild(cg)
	}
	s.push(tbl)
	s.push(element(atom.Tbody))
}

func (s *Sink) BeginRow(opts content.RowOptions) {
	css := styleList{}
	if opts.Height > 0 {
		css.add("height", px(float64(units.CmToPx(opts.Height))))
	}
	s.push(element(atom.Tr, "style", css.String()))
}

func (s *Sink) BeginCell(opts content.CellOptions) {
	tbl := s.stack[len(s.stack)-3]
	css := styleList{}
	css.add("border", attr(tbl, "data-border"))
	if opts.Width > 0 {
		css.add("width", px(float64(units.CmToPx(opts.Width))))
	}
	switch opts.VerticalAlign {
	case "top", "bottom":
		css.add("vertical-align", opts.VerticalAlign)
	case "center":
		css.add("vertical-align", "middle")
	}
	if opts.Shading != "" {
		css.add("background-color", "#"+render.NormalizeColor(opts.Shading))
	}
	colspan := ""
	if opts.ColumnSpan > 1 {
		colspan = strconv.Itoa(opts.ColumnSpan)
	}
	s.push(element(atom.Td, "colspan", colspan, "style", css.String(), "data-vmerge", opts.VerticalMerge))
}

func (s *Sink) EndCell() { s.pop() }
func (s *Sink) EndRow()  { s.pop() }

func (s *Sink) EndTable() {
	tbody := s.pop()
	tbl := s.pop()
	mergeRows(tbody)
	removeAttr(tbl, "data-border")
}

// BorderCSS is the CSS border shorthand matching the docx table borders.
func BorderCSS(b *content.Borders) string {
	style, size, color := "single", 0.5, render.DefaultColor
	if b != nil {
		if b.Style != "" {
			style = b.Style
		}
		if b.Size > 0 {
			size = b.Size
		}
		if b.Color != "" {
			color = render.NormalizeColor(b.Color)
		}
	}
	switch style {
	case "none":
		return "none"
	case "single":
		style = "solid"
	case "dashed", "dotted", "double":
	default:
		style = "solid"
	}
	return strconv.FormatFloat(size, 'f', -1, 64) + "pt " + style + " #" + color
}

// mergeRows turns verticalMerge restart/continue cells into rowspans.
func mergeRows(tbody *html.Node) {
	open := map[int]*html.Node{}
	for tr := tbody.FirstChild; tr != nil; tr = tr.NextSibling {
		col := 0
		for td := tr.FirstChild; td != nil; {
			next := td.NextSibling
			span := 1
			if v, err := strconv.Atoi(attr(td, "colspan")); err == nil && v > 1 {
				span = v
			}
			switch attr(td, "data-vmerge") {
			case "restart":
				open[col] = td
			case "continue":
				if start := open[col]; start != nil {
					rows := 1
					if v, err := strconv.Atoi(attr(start, "rowspan")); err == nil {
						rows = v
					}
					setAttr(start, "rowspan", strconv.Itoa(rows+1))
					tr.RemoveChild(td)
				}
			default:
				delete(open, col)
			}
			removeAttr(td, "data-vmerge")
			col += span
			td = next
		}
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

func removeAttr(n *html.Node, key string) {
	out := n.Attr[:0]
	for _, a := range n.Attr {
		if a.Key != key {
			out = append(out, a)
		}
	}
	n.Attr = out
}
