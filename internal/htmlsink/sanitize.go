package htmlsink

import (
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	previewPolicyOnce sync.Once
	previewPolicy     *bluemonday.Policy
)

// Sanitize strips anything from a rendered preview that the renderer itself
// never produces. Data values are escaped during rendering; this guards
// previews that are stored and served back to browsers.
func Sanitize(fragment string) string {
	return getPreviewPolicy().Sanitize(fragment)
}

func getPreviewPolicy() *bluemonday.Policy {
	previewPolicyOnce.Do(func() {
		policy := bluemonday.StrictPolicy()
		policy.AllowElements(
			"div", "p", "span", "br",
			"table", "colgroup", "col", "tbody", "tr", "td",
			"img", "input", "textarea", "select", "option",
		)
		policy.AllowAttrs("class", "style").Globally()
		policy.AllowAttrs("data-section", "data-slot").OnElements("div")
		policy.AllowAttrs("colspan", "rowspan").OnElements("td")
		policy.AllowAttrs("src", "alt").OnElements("img")
		policy.AllowAttrs("type", "name", "value", "placeholder").OnElements("input")
		policy.AllowAttrs("name", "rows", "placeholder").OnElements("textarea")
		policy.AllowAttrs("name").OnElements("select")
		policy.AllowAttrs("value", "selected").OnElements("option")
		policy.AllowDataURIImages()
		policy.AllowURLSchemes("http", "https")
		previewPolicy = policy
	})
	return previewPolicy
}
