package htmlsink

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// StyleID identifies the injected stylesheet.
const StyleID = "docweave-styles"

// InjectStyles adds the stylesheet to the document's head. It reports
// whether anything was added; a second call on the same tree is a no-op.
func InjectStyles(doc *html.Node) bool {
	if findByID(doc, StyleID) != nil {
		return false
	}
	head := findElement(doc, atom.Head)
	if head == nil {
		return false
	}
	style := element(atom.Style, "id", StyleID)
	style.AppendChild(text(Stylesheet))
	head.AppendChild(style)
	return true
}

// Page wraps a rendered document in a complete HTML page with styles.
func Page(root *html.Node, title string) *html.Node {
	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	htm := element(atom.Html)
	head := element(atom.Head)
	meta := element(atom.Meta, "charset", "utf-8")
	head.AppendChild(meta)
	if title != "" {
		t := element(atom.Title)
		t.AppendChild(text(title))
		head.AppendChild(t)
	}
	body := element(atom.Body)
	htm.AppendChild(head)
	htm.AppendChild(body)
	doc.AppendChild(htm)
	if root != nil {
		if root.Parent != nil {
			root.Parent.RemoveChild(root)
		}
		body.AppendChild(root)
	}
	InjectStyles(doc)
	return doc
}

// InjectInto parses an existing page, ensures the stylesheet is present and
// appends fragment to its body.
func InjectInto(page io.Reader, fragment string) (string, error) {
	doc, err := html.Parse(page)
	if err != nil {
		return "", fmt.Errorf("parse page: %w", err)
	}
	body := findElement(doc, atom.Body)
	if body == nil {
		return "", fmt.Errorf("page has no body")
	}
	nodes, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", fmt.Errorf("parse fragment: %w", err)
	}
	for _, n := range nodes {
		body.AppendChild(n)
	}
	InjectStyles(doc)
	return Render(doc), nil
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}

func findByID(n *html.Node, id string) *html.Node {
	if n.Type == html.ElementNode && attr(n, "id") == id {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findByID(c, id); found != nil {
			return found
		}
	}
	return nil
}
