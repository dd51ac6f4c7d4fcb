package render

import (
	"strings"

	"github.com/dgallion1/docweave/internal/content"
	"github.com/dgallion1/docweave/internal/markup"
	"github.com/dgallion1/docweave/internal/units"
)

// DefaultColor is used when a run sets no color.
const DefaultColor = "000000"

// Vertical alignment values, named as docx spells them.
const (
	Superscript = "superscript"
	Subscript   = "subscript"
)

// Defaults are the builder-wide fallbacks applied to every run.
type Defaults struct {
	Font string
	Size units.FontSize
}

// Style is the resolved formatting of one text segment. Both sinks read it
// unchanged, so docx and HTML output agree on every flag.
type Style struct {
	Bold      bool
	Italic    bool
	Strike    bool
	Underline string // "" when off, otherwise a docx underline value
	VertAlign string // "", Superscript or Subscript
	Font      string
	Size      int // half-points, 0 when neither run nor defaults set one
	Color     string
}

// baseStyle applies defaults and explicit run options, without any tag.
func baseStyle(run *content.TextRun, d Defaults) Style {
	return styleFor(markup.Text, run, d)
}

// styleFor derives the tag style and lets explicit run options override it.
func styleFor(kind markup.Kind, run *content.TextRun, d Defaults) Style {
	st := Style{
		Font:  d.Font,
		Size:  units.TextSize(d.Size),
		Color: DefaultColor,
	}

	switch kind {
	case markup.Strong, markup.B:
		st.Bold = true
	case markup.Em, markup.I:
		st.Italic = true
	case markup.Del, markup.S:
		st.Strike = true
	case markup.U:
		st.Underline = "single"
	case markup.Sub:
		st.VertAlign = Subscript
	case markup.Sup:
		st.VertAlign = Superscript
	case markup.Text:
	}

	if run.Bold != nil {
		st.Bold = *run.Bold
	}
	if run.Italics != nil {
		st.Italic = *run.Italics
	}
	if run.Strike != nil {
		st.Strike = *run.Strike
	}
	if run.Underline != nil {
		st.Underline = string(*run.Underline)
	}
	if run.SubScript != nil {
		switch {
		case *run.SubScript:
			st.VertAlign = Subscript
		case st.VertAlign == Subscript:
			st.VertAlign = ""
		}
	}
	if run.SuperScript != nil {
		switch {
		case *run.SuperScript:
			st.VertAlign = Superscript
		case st.VertAlign == Superscript:
			st.VertAlign = ""
		}
	}
	if run.Font != "" {
		st.Font = run.Font
	}
	if hp := units.TextSize(run.Size); hp > 0 {
		st.Size = hp
	}
	if run.Color != "" {
		st.Color = NormalizeColor(run.Color)
	}
	return st
}

// NormalizeColor returns an upper-case RRGGBB value. "#abc" expands to
// "AABBCC"; anything that is not hex falls back to DefaultColor.
func NormalizeColor(c string) string {
	c = strings.TrimPrefix(strings.TrimSpace(c), "#")
	if len(c) == 3 {
		c = string([]byte{c[0], c[0], c[1], c[1], c[2], c[2]})
	}
	if len(c) != 6 {
		return DefaultColor
	}
	for i := 0; i < len(c); i++ {
		ch := c[i]
		if !(ch >= '0' && ch <= '9' || ch >= 'a' && ch <= 'f' || ch >= 'A' && ch <= 'F') {
			return DefaultColor
		}
	}
	return strings.ToUpper(c)
}
