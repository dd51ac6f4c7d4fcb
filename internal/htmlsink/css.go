package htmlsink

import (
	"strconv"
	"strings"

	"github.com/dgallion1/docweave/internal/render"
	"github.com/dgallion1/docweave/internal/units"
)

// styleList builds an inline style attribute in insertion order.
type styleList []string

func (s *styleList) add(prop, value string) {
	if value == "" {
		return
	}
	*s = append(*s, prop+":"+value)
}

func (s styleList) String() string { return strings.Join(s, ";") }

func px(v float64) string {
	return strconv.FormatFloat(round2(v), 'f', -1, 64) + "px"
}

func round2(v float64) float64 {
	if v < 0 {
		return -round2(-v)
	}
	return float64(int64(v*100+0.5)) / 100
}

// RunCSS maps a resolved style to CSS. Font size is converted from
// half-points to pixels and rounded to two decimals.
func RunCSS(st render.Style) string {
	css := styleList{}
	if st.Font != "" {
		css.add("font-family", quoteFont(st.Font))
	}
	if st.Size > 0 {
		css.add("font-size", px(units.HalfPointsToPx(st.Size)))
	}
	if st.Color != "" {
		css.add("color", "#"+st.Color)
	}
	if st.Bold {
		css.add("font-weight", "bold")
	}
	if st.Italic {
		css.add("font-style", "italic")
	}
	var deco []string
	if st.Underline != "" {
		deco = append(deco, "underline")
	}
	if st.Strike {
		deco = append(deco, "line-through")
	}
	if len(deco) > 0 {
		css.add("text-decoration", strings.Join(deco, " "))
		if s := underlineStyle(st.Underline); s != "" {
			css.add("text-decoration-style", s)
		}
	}
	switch st.VertAlign {
	case render.Superscript:
		css.add("vertical-align", "super")
	case render.Subscript:
		css.add("vertical-align", "sub")
	}
	return css.String()
}

func underlineStyle(u string) string {
	switch u {
	case "double":
		return "double"
	case "dotted", "dottedHeavy":
		return "dotted"
	case "dash", "dashedHeavy", "dashLong", "dotDash", "dotDotDash":
		return "dashed"
	case "wave", "wavyHeavy", "wavyDouble":
		return "wavy"
	}
	return ""
}

func quoteFont(f string) string {
	if strings.ContainsAny(f, " \"'") || !isASCII(f) {
		return "'" + strings.ReplaceAll(f, "'", "") + "'"
	}
	return f
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= 0x80 {
			return false
		}
	}
	return true
}

// Stylesheet is injected once per page by InjectStyles.
const Stylesheet = `.dw-document{background:#f0f0f0;padding:16px}
.dw-section{box-sizing:border-box;margin:0 auto 16px;background:#fff;box-shadow:0 1px 4px rgba(0,0,0,.2)}
.dw-header{border-bottom:1px dashed #ccc;margin-bottom:8px}
.dw-footer{border-top:1px dashed #ccc;margin-top:8px}
.dw-p{margin:0;white-space:pre-wrap}
.dw-table td{padding:0 4px}
.dw-control{font:inherit}`
