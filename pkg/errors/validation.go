package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// maxIDLength bounds block, image and template identifiers.
const maxIDLength = 128

// ValidateID validates an identifier used for text blocks, images and
// templates. Identifiers end up in cache keys and log lines, so control
// characters and path separators are rejected.
func ValidateID(kind, id string) error {
	if id == "" {
		return New(ErrCodeInvalidSpec, "%s id cannot be empty", kind)
	}
	if len(id) > maxIDLength {
		return New(ErrCodeInvalidSpec, "%s id too long (max %d characters)", kind, maxIDLength)
	}
	for _, r := range id {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidSpec, "%s id contains invalid control characters", kind)
		}
	}
	if strings.ContainsAny(id, "/\\") {
		return New(ErrCodeInvalidSpec, "%s id cannot contain path separators", kind)
	}
	return nil
}

var hexColorRegex = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ValidateColor validates a CSS hex color (#rgb, #rrggbb or #rrggbbaa).
// An empty color is valid and means "use the computed default".
func ValidateColor(c string) error {
	if c == "" {
		return nil
	}
	if !hexColorRegex.MatchString(c) {
		return New(ErrCodeInvalidColor, "invalid color %q (want #rgb or #rrggbb)", c)
	}
	return nil
}

// ValidateSource validates an image, template or font source reference.
//
// Accepted forms:
//   - http:// and https:// URLs
//   - data: URLs
//   - builtin: references to embedded assets
//   - relative or absolute filesystem paths without traversal sequences
func ValidateSource(src string) error {
	if src == "" {
		return New(ErrCodeInvalidSource, "source cannot be empty")
	}
	for _, r := range src {
		if r == '\x00' {
			return New(ErrCodeInvalidSource, "source contains null bytes")
		}
	}
	switch {
	case strings.HasPrefix(src, "http://"), strings.HasPrefix(src, "https://"),
		strings.HasPrefix(src, "data:"), strings.HasPrefix(src, "builtin:"):
		return nil
	case strings.Contains(src, "://"):
		return New(ErrCodeInvalidSource, "unsupported source scheme in %q", src)
	case strings.Contains(src, ".."):
		return New(ErrCodeInvalidSource, "source path cannot contain traversal sequences (..)")
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https).
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}
	return nil
}
