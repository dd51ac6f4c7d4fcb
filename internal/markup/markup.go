// Package markup splits run text into lines of plain and tagged segments.
//
// The vocabulary is fixed: <sup>, <sub>, <strong>, <b>, <em>, <i>, <del>, <s>
// and <u>. Tags never span lines. Nested or overlapping tags are not merged:
// the match that starts first wins (ties go to the earlier tag in Tags) and
// any match starting inside it is left as literal text of the winner.
package markup

import (
	"regexp"
	"sort"
	"strings"
)

// Kind is the segment type.
type Kind string

const (
	Text   Kind = "text"
	Sup    Kind = "sup"
	Sub    Kind = "sub"
	Strong Kind = "strong"
	B      Kind = "b"
	Em     Kind = "em"
	I      Kind = "i"
	Del    Kind = "del"
	S      Kind = "s"
	U      Kind = "u"
)

// Tags is the scan order, which is also the tie-break order.
var Tags = []Kind{Sup, Sub, Strong, B, Em, I, Del, S, U}

var tagPatterns = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(Tags))
	for i, tag := range Tags {
		out[i] = regexp.MustCompile("<" + string(tag) + ">(.*?)</" + string(tag) + ">")
	}
	return out
}()

// Segment is one typed piece of a line.
type Segment struct {
	Kind  Kind
	Value string
}

// Line is the ordered segments of one input line.
type Line []Segment

type match struct {
	start, end int
	seg        Segment
}

// Parse splits text on newlines and segments each line. An empty input yields
// no lines; an empty line yields a single empty text segment.
func Parse(text string) []Line {
	if text == "" {
		return nil
	}
	raw := strings.Split(text, "\n")
	lines := make([]Line, 0, len(raw))
	for _, l := range raw {
		lines = append(lines, parseLine(l))
	}
	return lines
}

func parseLine(line string) Line {
	var matches []match
	for i, re := range tagPatterns {
		for _, loc := range re.FindAllStringSubmatchIndex(line, -1) {
			matches = append(matches, match{
				start: loc[0],
				end:   loc[1],
				seg:   Segment{Kind: Tags[i], Value: line[loc[2]:loc[3]]},
			})
		}
	}
	if len(matches) == 0 {
		return Line{{Kind: Text, Value: line}}
	}
	sort.SliceStable(matches, func(a, b int) bool { return matches[a].start < matches[b].start })

	out := make(Line, 0, len(matches)*2+1)
	pos := 0
	for _, m := range matches {
		if m.start < pos {
			continue
		}
		if m.start > pos {
			out = append(out, Segment{Kind: Text, Value: line[pos:m.start]})
		}
		out = append(out, m.seg)
		pos = m.end
	}
	if pos < len(line) {
		out = append(out, Segment{Kind: Text, Value: line[pos:]})
	}
	return out
}

// Plain joins the segment values of every line, dropping the tags.
func Plain(lines []Line) string {
	var b strings.Builder
	for i, l := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		for _, s := range l {
			b.WriteString(s.Value)
		}
	}
	return b.String()
}
