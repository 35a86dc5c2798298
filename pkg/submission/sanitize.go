package submission

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans submitted names and values before they are classified.
type Sanitizer interface {
	Sanitize(string) string
}

// SanitizerFunc adapts a function to Sanitizer.
type SanitizerFunc func(string) string

func (f SanitizerFunc) Sanitize(s string) string { return f(s) }

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// StrictSanitizer strips every tag and trims surrounding whitespace. The
// remaining text is unescaped, so "Smith & Sons" is kept as typed.
func StrictSanitizer() Sanitizer {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return SanitizerFunc(func(raw string) string {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			return ""
		}
		return strings.TrimSpace(html.UnescapeString(strictPolicy.Sanitize(trimmed)))
	})
}
