// Package parser imports foreign documents as content templates and loads
// data bags for rendering.
package parser

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/units"
)

// Importer converts raw document bytes into a single-section template.
type Importer interface {
	Import(r io.Reader, filename string) (*content.Template, error)
}

// SupportedExtensions lists file extensions that can be imported.
var SupportedExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".html":     true,
	".htm":      true,
	".docx":     true,
}

// ForFile returns the importer for a filename.
func ForFile(filename string) (Importer, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".txt":
		return &TextImporter{}, nil
	case ".md", ".markdown":
		return &MarkdownImporter{}, nil
	case ".html", ".htm":
		return &HTMLImporter{}, nil
	case ".docx":
		return &DOCXImporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported file extension: %s", ext)
	}
}

// IsSupportedExtension checks if a file extension can be imported.
func IsSupportedExtension(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return SupportedExtensions[ext]
}

// baseTitle strips directories and the extension from a filename.
func baseTitle(filename string) string {
	base := filepath.Base(filename)
	if base == "." || base == "/" {
		return ""
	}
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// headingSizes maps heading levels 1-6 to named sizes.
var headingSizes = [...]string{"二号", "三号", "四号", "小四", "五号", "五号"}

// heading builds a bold paragraph sized for its level.
func heading(level int, text string) *content.Paragraph {
	if level < 1 {
		level = 1
	}
	if level > len(headingSizes) {
		level = len(headingSizes)
	}
	return &content.Paragraph{
		Options: content.ParagraphOptions{Spacing: &content.Spacing{Before: 12}},
		Children: []content.Inline{&content.TextRun{
			Text: text,
			Bold: content.Bool(true),
			Size: units.Named(headingSizes[level-1]),
		}},
	}
}

func template(title string, nodes []content.Node) *content.Template {
	if nodes == nil {
		nodes = []content.Node{}
	}
	return &content.Template{
		Properties: content.Properties{Title: title},
		Sections:   []*content.Section{{Children: nodes}},
	}
}
