package forms

import (
	"html"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	markupPolicyOnce sync.Once
	markupPolicy     *bluemonday.Policy
)

// StripMarkup removes HTML tags from raw text input. Entities produced by the
// policy are decoded again so literal characters such as '&' survive.
func StripMarkup(raw string) string {
	if raw == "" {
		return ""
	}
	return html.UnescapeString(markupSanitizer().Sanitize(raw))
}

// MarkupSanitizer returns an InputSanitizer applying StripMarkup to every path
// except the listed ones (typically secrets, which are kept verbatim).
func MarkupSanitizer(verbatim ...string) InputSanitizer {
	skip := make(map[string]struct{}, len(verbatim))
	for _, path := range verbatim {
		skip[path] = struct{}{}
	}
	return func(path, raw string) string {
		if _, ok := skip[path]; ok {
			return raw
		}
		return StripMarkup(raw)
	}
}

func markupSanitizer() *bluemonday.Policy {
	markupPolicyOnce.Do(func() {
		markupPolicy = bluemonday.StrictPolicy()
	})
	return markupPolicy
}
