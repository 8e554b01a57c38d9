// Package sanitize cleans user-supplied rich text before it is stored.
package sanitize

import (
	"regexp"

	"github.com/microcosm-cc/bluemonday"
)

var classNames = regexp.MustCompile(`^[a-zA-Z0-9_\- ]+$`)

var policy = newPolicy()

// newPolicy allows the formatting a rich text editor produces and nothing
// executable. Script and style elements are dropped together with their content.
func newPolicy() *bluemonday.Policy {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"h1", "h2", "h3", "h4", "h5", "h6",
		"p", "br", "hr", "blockquote",
		"em", "strong", "u", "s", "i", "b",
		"ul", "ol", "li",
		"code", "pre", "span",
	)
	p.AllowStandardURLs()
	p.AllowAttrs("href").OnElements("a")
	p.RequireNoFollowOnLinks(true)
	p.AllowImages()
	p.AllowAttrs("class").Matching(classNames).Globally()
	return p
}

// HTML returns s with every disallowed element and attribute removed.
func HTML(s string) string {
	return policy.Sanitize(s)
}
