package parser

import (
	"bufio"
	"io"
	"strings"

	"github.com/dgallion1/docweave/internal/content"
)

// TextImporter handles plain text files. Blank lines separate paragraphs;
// line breaks inside a paragraph are kept and trailing whitespace (including
// a CRLF's \r) is dropped.
type TextImporter struct{}

func (p *TextImporter) Import(r io.Reader, filename string) (*content.Template, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var paragraphs []string
	var current strings.Builder

	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			if current.Len() > 0 {
				paragraphs = append(paragraphs, current.String())
				current.Reset()
			}
		} else {
			if current.Len() > 0 {
				current.WriteString("\n")
			}
			current.WriteString(line)
		}
	}
	if current.Len() > 0 {
		paragraphs = append(paragraphs, current.String())
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	nodes := make([]content.Node, 0, len(paragraphs))
	for _, para := range paragraphs {
		nodes = append(nodes, &content.Paragraph{Children: []content.Inline{content.Text(para)}})
	}
	return template(baseTitle(filename), nodes), nil
}
