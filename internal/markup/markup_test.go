package markup

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []Line
	}{
		{
			name: "single tag",
			in:   "hello <strong>world</strong>!",
			want: []Line{{{Text, "hello "}, {Strong, "world"}, {Text, "!"}}},
		},
		{
			name: "plain",
			in:   "no tags here",
			want: []Line{{{Text, "no tags here"}}},
		},
		{
			name: "mixed tags keep order",
			in:   "<u>a</u> and <b>b</b> with x<sup>2</sup>",
			want: []Line{{{U, "a"}, {Text, " and "}, {B, "b"}, {Text, " with x"}, {Sup, "2"}}},
		},
		{
			name: "multiple lines",
			in:   "H<sub>2</sub>O\n<em>water</em>",
			want: []Line{
				{{Text, "H"}, {Sub, "2"}, {Text, "O"}},
				{{Em, "water"}},
			},
		},
		{
			name: "empty middle line",
			in:   "a\n\nb",
			want: []Line{{{Text, "a"}}, {{Text, ""}}, {{Text, "b"}}},
		},
		{
			name: "non greedy",
			in:   "<i>x</i>y<i>z</i>",
			want: []Line{{{I, "x"}, {Text, "y"}, {I, "z"}}},
		},
		{
			name: "s does not match strong or sup",
			in:   "<s>gone</s><strong>kept</strong>",
			want: []Line{{{S, "gone"}, {Strong, "kept"}}},
		},
		{
			name: "tags do not span lines",
			in:   "<b>open\nclose</b>",
			want: []Line{{{Text, "<b>open"}}, {{Text, "close</b>"}}},
		},
		{
			name: "nested tags: outer wins",
			in:   "<strong><em>x</em></strong>",
			want: []Line{{{Strong, "<em>x</em>"}}},
		},
		{
			name: "del and empty tag",
			in:   "<del></del>t",
			want: []Line{{{Del, ""}, {Text, "t"}}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}

func TestParseEmpty(t *testing.T) {
	if got := Parse(""); got != nil {
		t.Errorf("expected nil, got %v", got)
	}
}

func TestParseCoversInput(t *testing.T) {
	in := "a<b>b</b>c<u>d</u>e"
	if got := Plain(Parse(in)); got != "abcde" {
		t.Errorf("expected %q, got %q", "abcde", got)
	}
}
