package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/net/html"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/markup"
)

// HTMLImporter handles HTML files. Block elements become paragraphs and
// tables; the inline tags the markup grammar knows (strong, em, sup, ...)
// are kept as markup in the run text, one level deep.
type HTMLImporter struct{}

func (p *HTMLImporter) Import(r io.Reader, filename string) (*content.Template, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	title := baseTitle(filename)
	if t := findTitle(doc); t != "" {
		title = t
	}

	var nodes []content.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if level := headingLevel(n.Data); level > 0 {
				if t := textContent(n); t != "" {
					nodes = append(nodes, heading(level, t))
				}
				return
			}

			switch n.Data {
			case "script", "style", "nav", "template", "head":
				return
			case "p", "li", "blockquote", "pre", "dt", "dd", "figcaption":
				if p := htmlParagraph(n); p != nil {
					nodes = append(nodes, p)
				}
				return
			case "hr":
				nodes = append(nodes, &content.EmptyParagraph{})
				return
			case "table":
				if t := htmlTable(n); t != nil {
					nodes = append(nodes, t)
				}
				return
			}
		}

		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}

	// Find <body> or use whole document.
	if body := findBody(doc); body != nil {
		walk(body)
	} else {
		walk(doc)
	}
	return template(title, nodes), nil
}

// htmlParagraph converts an element's inline content. Images become image
// runs; everything else is flattened to markup text.
func htmlParagraph(n *html.Node) *content.Paragraph {
	var runs []content.Inline
	var buf strings.Builder
	pre := n.Data == "pre"
	flush := func() {
		t := strings.Trim(buf.String(), "\n")
		if !pre {
			t = tidyLines(t)
		}
		if t != "" {
			runs = append(runs, content.Text(t))
		}
		buf.Reset()
	}

	var inline func(*html.Node, bool)
	inline = func(c *html.Node, nested bool) {
		switch c.Type {
		case html.TextNode:
			buf.WriteString(collapseSpace(c.Data, pre))
			return
		case html.ElementNode:
		default:
			return
		}
		switch c.Data {
		case "br":
			buf.WriteString("\n")
			return
		case "img":
			flush()
			if src := attrValue(c, "src"); src != "" {
				runs = append(runs, &content.ImageRun{Src: src, AltText: attrValue(c, "alt")})
			}
			return
		case "script", "style":
			return
		}
		tag := markupTag(c.Data)
		if tag != "" && !nested {
			buf.WriteString("<" + tag + ">")
		}
		for cc := c.FirstChild; cc != nil; cc = cc.NextSibling {
			inline(cc, nested || tag != "")
		}
		if tag != "" && !nested {
			buf.WriteString("</" + tag + ">")
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		inline(c, false)
	}
	flush()
	if len(runs) == 0 {
		return nil
	}
	return &content.Paragraph{Children: runs}
}

// markupTag maps an HTML element to the inline markup tag it corresponds
// to, or "".
func markupTag(tag string) string {
	switch tag {
	case "strike":
		return string(markup.Del)
	case "ins":
		return string(markup.U)
	}
	for _, k := range markup.Tags {
		if string(k) == tag {
			return tag
		}
	}
	return ""
}

func htmlTable(n *html.Node) *content.Table {
	t := &content.Table{}
	var rows func(*html.Node)
	rows = func(c *html.Node) {
		for r := c.FirstChild; r != nil; r = r.NextSibling {
			if r.Type != html.ElementNode {
				continue
			}
			switch r.Data {
			case "thead", "tbody", "tfoot":
				rows(r)
			case "tr":
				row := &content.Row{}
				for cell := r.FirstChild; cell != nil; cell = cell.NextSibling {
					if cell.Type != html.ElementNode || (cell.Data != "td" && cell.Data != "th") {
						continue
					}
					out := &content.Cell{Children: []content.Node{}}
					if span, err := strconv.Atoi(attrValue(cell, "colspan")); err == nil && span > 1 {
						out.Options.ColumnSpan = span
					}
					if p := htmlParagraph(cell); p != nil {
						if cell.Data == "th" {
							for _, in := range p.Children {
								if tr, ok := in.(*content.TextRun); ok {
									tr.Bold = content.Bool(true)
								}
							}
						}
						out.Children = append(out.Children, p)
					}
					row.Cells = append(row.Cells, out)
				}
				t.Rows = append(t.Rows, row)
			}
		}
	}
	rows(n)
	if len(t.Rows) == 0 {
		return nil
	}
	return t
}

// collapseSpace folds whitespace runs to one space, keeping a single space
// at either edge so adjacent inline elements stay separated.
func collapseSpace(s string, pre bool) string {
	if pre || s == "" {
		return s
	}
	out := strings.Join(strings.Fields(s), " ")
	if out == "" {
		return " "
	}
	if unicode.IsSpace(rune(s[0])) {
		out = " " + out
	}
	if unicode.IsSpace(rune(s[len(s)-1])) {
		out += " "
	}
	return out
}

// tidyLines trims every line of flattened paragraph text.
func tidyLines(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSpace(l)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func headingLevel(tag string) int {
	switch tag {
	case "h1":
		return 1
	case "h2":
		return 2
	case "h3":
		return 3
	case "h4":
		return 4
	case "h5":
		return 5
	case "h6":
		return 6
	}
	return 0
}

func attrValue(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var extract func(*html.Node)
	extract = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			extract(c)
		}
	}
	extract(n)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func findTitle(n *html.Node) string {
	if n.Type == html.ElementNode && n.Data == "title" {
		return textContent(n)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := findTitle(c); t != "" {
			return t
		}
	}
	return ""
}

func findBody(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "body" {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if b := findBody(c); b != nil {
			return b
		}
	}
	return nil
}
