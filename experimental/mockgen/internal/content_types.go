package mockgen

import (
	"mime"
	"regexp"
	"strings"
)

// DefaultContentTypes returns the media type patterns whose schemas are used
// to pick request and response types: JSON and structured-syntax JSON.
func DefaultContentTypes() []string {
	return []string{
		`^application/json$`,
		`^application/[a-z0-9.+-]+\+json$`,
	}
}

// ContentTypeMatcher decides which media types of a request body or response
// contribute a schema.
type ContentTypeMatcher struct {
	patterns []*regexp.Regexp
}

// NewContentTypeMatcher compiles patterns. Patterns that do not compile are
// ignored; Configuration.Validate reports them before generation starts.
func NewContentTypeMatcher(patterns []string) *ContentTypeMatcher {
	m := &ContentTypeMatcher{}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		m.patterns = append(m.patterns, re)
	}
	return m
}

// Matches reports whether contentType matches any pattern. Parameters such
// as "; charset=utf-8" are ignored and the comparison is case-insensitive.
func (m *ContentTypeMatcher) Matches(contentType string) bool {
	mediaType := strings.ToLower(strings.TrimSpace(contentType))
	if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
		mediaType = parsed
	}
	for _, re := range m.patterns {
		if re.MatchString(mediaType) {
			return true
		}
	}
	return false
}
