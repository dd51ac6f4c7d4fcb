package units

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// namedSizes maps the traditional Chinese size names to points.
var namedSizes = map[string]float64{
	"初号": 42,
	"小初": 36,
	"一号": 26,
	"小一": 24,
	"二号": 22,
	"小二": 18,
	"三号": 16,
	"小三": 15,
	"四号": 14,
	"小四": 12,
	"五号": 10.5,
	"小五": 9,
	"六号": 7.5,
	"小六": 6.5,
	"七号": 5.5,
	"八号": 5,
}

// NamedSize returns the point size for a traditional size name.
func NamedSize(name string) (float64, bool) {
	pt, ok := namedSizes[name]
	return pt, ok
}

// FontSize is either a point size or a named size. The zero value is unset.
type FontSize struct {
	Points float64
	Name   string
}

// Pt returns a FontSize of the given points.
func Pt(pt float64) FontSize { return FontSize{Points: pt} }

// Named returns a FontSize for a traditional size name.
func Named(name string) FontSize { return FontSize{Name: name} }

// IsZero reports whether no size was set.
func (f FontSize) IsZero() bool { return f.Points == 0 && f.Name == "" }

// PointSize resolves the size to points. Unknown names resolve to 0, false.
func (f FontSize) PointSize() (float64, bool) {
	if f.Name != "" {
		return NamedSize(f.Name)
	}
	if f.Points > 0 {
		return f.Points, true
	}
	return 0, false
}

func (f FontSize) String() string {
	if f.Name != "" {
		return f.Name
	}
	return strconv.FormatFloat(f.Points, 'f', -1, 64)
}

// TextSize returns the size in half-points, or 0 when the size is unset or unknown.
func TextSize(f FontSize) int {
	pt, ok := f.PointSize()
	if !ok {
		return 0
	}
	return HalfPoints(pt)
}

// ParseFontSize accepts "12", "10.5" or a named size such as "五号".
func ParseFontSize(s string) (FontSize, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return FontSize{}, nil
	}
	if _, ok := namedSizes[s]; ok {
		return Named(s), nil
	}
	pt, err := strconv.ParseFloat(strings.TrimSuffix(s, "pt"), 64)
	if err != nil || pt <= 0 {
		return FontSize{}, fmt.Errorf("unknown font size %q", s)
	}
	return Pt(pt), nil
}

// UnmarshalJSON accepts a JSON number or string.
func (f *FontSize) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = FontSize{}
		return nil
	}
	var n float64
	if err := json.Unmarshal(b, &n); err == nil {
		if n <= 0 {
			return fmt.Errorf("font size must be positive, got %v", n)
		}
		*f = Pt(n)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("font size must be a number or a string: %w", err)
	}
	parsed, err := ParseFontSize(s)
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalJSON writes named sizes as strings and point sizes as numbers.
func (f FontSize) MarshalJSON() ([]byte, error) {
	switch {
	case f.Name != "":
		return json.Marshal(f.Name)
	case f.Points > 0:
		return json.Marshal(f.Points)
	default:
		return []byte("null"), nil
	}
}
