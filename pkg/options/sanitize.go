package options

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	labelPolicyOnce   sync.Once
	labelPolicy       *bluemonday.Policy
	tooltipPolicyOnce sync.Once
	tooltipPolicy     *bluemonday.Policy
)

// sanitizeLabel strips any markup from a definition-authored label and
// returns plain text.
func sanitizeLabel(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	labelPolicyOnce.Do(func() {
		labelPolicy = bluemonday.StrictPolicy()
	})
	return strings.TrimSpace(html.UnescapeString(labelPolicy.Sanitize(trimmed)))
}

// sanitizeTooltip keeps basic inline formatting and links in tooltips.
func sanitizeTooltip(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	tooltipPolicyOnce.Do(func() {
		policy := bluemonday.NewPolicy()
		policy.AllowElements("b", "strong", "i", "em", "u", "br", "p", "ul", "ol", "li", "span")
		policy.AllowStandardURLs()
		policy.AllowAttrs("href").OnElements("a")
		policy.RequireNoFollowOnLinks(true)
		tooltipPolicy = policy
	})
	return strings.TrimSpace(tooltipPolicy.Sanitize(trimmed))
}
