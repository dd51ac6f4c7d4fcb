package parser

import (
	"io"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/dgallion1/docweave/internal/content"
)

const (
	codeFont    = "Courier New"
	linkColor   = "0563C1"
	listIndent  = 0.74 // cm per list level
	quoteIndent = 1.0
)

// MarkdownImporter handles Markdown files using goldmark with the GitHub
// extensions (tables, strikethrough, task lists). Inline HTML is kept as
// text, so the supported inline tags such as <sup> still apply.
type MarkdownImporter struct{}

func (p *MarkdownImporter) Import(r io.Reader, filename string) (*content.Template, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(src))

	w := &mdWalker{src: src}
	nodes := w.blocks(doc, 0)
	title := w.title
	if title == "" {
		title = baseTitle(filename)
	}
	return template(title, nodes), nil
}

// mdWalker converts block nodes. The first level-1 heading becomes the
// document title.
type mdWalker struct {
	src   []byte
	title string
}

func (w *mdWalker) blocks(parent ast.Node, indent float64) []content.Node {
	var out []content.Node
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		out = append(out, w.block(n, indent)...)
	}
	return out
}

func (w *mdWalker) block(n ast.Node, indent float64) []content.Node {
	switch n := n.(type) {
	case *ast.Heading:
		t := plainText(n, w.src)
		if n.Level == 1 && w.title == "" {
			w.title = t
		}
		return []content.Node{heading(n.Level, t)}
	case *ast.Paragraph, *ast.TextBlock:
		return []content.Node{paragraph(w.inlines(n, runStyle{}), indent)}
	case *ast.List:
		return w.list(n, indent)
	case *ast.Blockquote:
		return w.blocks(n, indent+quoteIndent)
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		var buf strings.Builder
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(w.src))
		}
		run := &content.TextRun{Text: strings.TrimRight(buf.String(), "\n"), Font: codeFont}
		return []content.Node{paragraph([]content.Inline{run}, indent)}
	case *ast.ThematicBreak:
		return []content.Node{&content.EmptyParagraph{}}
	case *east.Table:
		return []content.Node{w.table(n)}
	}
	// HTML blocks and link reference definitions have no printable form.
	return nil
}

// list renders items as paragraphs with a bullet or number prefix on the
// item's first paragraph. Nested lists indent one more level.
func (w *mdWalker) list(l *ast.List, indent float64) []content.Node {
	var out []content.Node
	num := l.Start
	inner := indent + listIndent
	for item := l.FirstChild(); item != nil; item = item.NextSibling() {
		marker := "• "
		if l.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}
		first := true
		for c := item.FirstChild(); c != nil; c = c.NextSibling() {
			nodes := w.block(c, inner)
			if first {
				if p, ok := firstParagraph(nodes); ok {
					p.Children = append([]content.Inline{content.Text(marker)}, p.Children...)
				} else {
					out = append(out, paragraph([]content.Inline{content.Text(marker)}, inner))
				}
				first = false
			}
			out = append(out, nodes...)
		}
	}
	return out
}

func firstParagraph(nodes []content.Node) (*content.Paragraph, bool) {
	if len(nodes) == 0 {
		return nil, false
	}
	p, ok := nodes[0].(*content.Paragraph)
	return p, ok
}

func (w *mdWalker) table(t *east.Table) *content.Table {
	out := &content.Table{}
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		_, header := r.(*east.TableHeader)
		row := &content.Row{}
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cell, ok := c.(*east.TableCell)
			if !ok {
				continue
			}
			p := paragraph(w.inlines(cell, runStyle{bold: header}), 0)
			p.Options.Alignment = cellAlignment(cell.Alignment)
			row.Cells = append(row.Cells, &content.Cell{Children: []content.Node{p}})
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

func cellAlignment(a east.Alignment) string {
	switch a {
	case east.AlignCenter:
		return "center"
	case east.AlignRight:
		return "right"
	case east.AlignLeft:
		return "left"
	}
	return ""
}

// runStyle is the inline formatting in effect while walking.
type runStyle struct {
	bold, italic, strike, code, link bool
}

func (st runStyle) run(s string) *content.TextRun {
	r := &content.TextRun{Text: s}
	if st.bold {
		r.Bold = content.Bool(true)
	}
	if st.italic {
		r.Italics = content.Bool(true)
	}
	if st.strike {
		r.Strike = content.Bool(true)
	}
	if st.code {
		r.Font = codeFont
	}
	if st.link {
		u := content.Underline("single")
		r.Underline = &u
		r.Color = linkColor
	}
	return r
}

// runBuilder merges adjacent text with the same style into one run.
type runBuilder struct {
	runs      []content.Inline
	last      *content.TextRun
	lastStyle runStyle
}

func (b *runBuilder) text(s string, st runStyle) {
	if s == "" {
		return
	}
	if b.last != nil && b.lastStyle == st {
		b.last.Text += s
		return
	}
	r := st.run(s)
	b.runs = append(b.runs, r)
	b.last, b.lastStyle = r, st
}

func (b *runBuilder) image(img *content.ImageRun) {
	b.runs = append(b.runs, img)
	b.last = nil
}

func (w *mdWalker) inlines(parent ast.Node, st runStyle) []content.Inline {
	var b runBuilder
	w.collect(parent, st, &b)
	return b.runs
}

func (w *mdWalker) collect(parent ast.Node, st runStyle, b *runBuilder) {
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			b.text(string(n.Segment.Value(w.src)), st)
			switch {
			case n.HardLineBreak():
				b.text("\n", st)
			case n.SoftLineBreak():
				b.text(" ", st)
			}
		case *ast.String:
			b.text(string(n.Value), st)
		case *ast.CodeSpan:
			inner := st
			inner.code = true
			w.collect(n, inner, b)
		case *ast.Emphasis:
			inner := st
			if n.Level >= 2 {
				inner.bold = true
			} else {
				inner.italic = true
			}
			w.collect(n, inner, b)
		case *east.Strikethrough:
			inner := st
			inner.strike = true
			w.collect(n, inner, b)
		case *ast.Link:
			inner := st
			inner.link = true
			w.collect(n, inner, b)
		case *ast.AutoLink:
			inner := st
			inner.link = true
			b.text(string(n.Label(w.src)), inner)
		case *ast.Image:
			b.image(&content.ImageRun{Src: string(n.Destination), AltText: plainText(n, w.src)})
		case *ast.RawHTML:
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				b.text(string(seg.Value(w.src)), st)
			}
		case *east.TaskCheckBox:
			if n.IsChecked {
				b.text("☑ ", st)
			} else {
				b.text("☐ ", st)
			}
		default:
			w.collect(n, st, b)
		}
	}
}

// plainText gets the text content of a goldmark AST node.
func plainText(n ast.Node, src []byte) string {
	var buf strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			buf.Write(c.Segment.Value(src))
			if c.SoftLineBreak() || c.HardLineBreak() {
				buf.WriteByte(' ')
			}
		case *ast.String:
			buf.Write(c.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(buf.String())
}

func paragraph(runs []content.Inline, indent float64) *content.Paragraph {
	if runs == nil {
		runs = []content.Inline{}
	}
	p := &content.Paragraph{Children: runs}
	if indent > 0 {
		p.Options.Indent = &content.Indent{Left: indent}
	}
	return p
}
