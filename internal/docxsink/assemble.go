package docxsink

import (
	"github.com/fumiama/go-docx"

	"github.com/dgallion1/docweave/internal/content"
)

// Assemble writes rendered sections into doc's body, separated by page
// breaks, and closes the body with the last section's page geometry. go-docx
// paragraphs cannot carry a w:sectPr, so earlier sections share that geometry.
//
// go-docx cannot write header or footer parts. When flowHeaders is set the
// default slot (or first, if default is empty) is placed at the top and
// bottom of each section's body instead; otherwise they are left out.
func Assemble(doc *docx.Docx, sections []*SectionOutput, flowHeaders bool) {
	body := &doc.Document.Body
	for i, sec := range sections {
		if i > 0 {
			p := doc.AddParagraph()
			p.AddPageBreaks()
		}
		if flowHeaders {
			body.Items = append(body.Items, pickSlot(sec.Headers)...)
		}
		body.Items = append(body.Items, sec.Children...)
		if flowHeaders {
			body.Items = append(body.Items, pickSlot(sec.Footers)...)
		}
	}
	if n := len(sections); n > 0 {
		body.Items = append(body.Items, sections[n-1].Properties)
	}
}

func pickSlot(slots map[content.Slot][]any) []any {
	if items := slots[content.SlotDefault]; len(items) > 0 {
		return items
	}
	return slots[content.SlotFirst]
}
