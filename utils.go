package sessions

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// IsValidPath validates that a path string meets the requirements for an object path.
// It checks that the path:
//   - is not empty, ".", or "/"
//   - is relative (does not start with "/")
//   - does not end with "/"
//   - does not contain ".." (path traversal)
//   - does not contain "//" (empty segments)
//   - does not contain invalid characters: \ ? # ~
//   - is valid UTF-8 without control characters or whitespace
func IsValidPath(p string) bool {
	if p == "" || p == "/" || p == "." {
		return false
	}

	if p[0] == '/' || strings.HasSuffix(p, "/") {
		return false
	}

	if strings.Contains(p, "..") || strings.Contains(p, "//") {
		return false
	}

	if strings.ContainsAny(p, `\?#~`) {
		return false
	}

	if !utf8.ValidString(p) {
		return false
	}

	if strings.Contains(p, "/./") || strings.HasPrefix(p, "./") || strings.HasSuffix(p, "/.") {
		return false
	}

	for _, r := range p {
		if r < 0x20 || r == 0x7f || unicode.IsSpace(r) {
			return false
		}
	}

	return true
}

// IsValidSegment reports whether s can be used as a single path segment.
func IsValidSegment(s string) bool {
	return !strings.Contains(s, "/") && IsValidPath(s)
}

// LastSegment returns the text after the last slash of a URL path. A path
// ending in a slash has an empty final segment.
func LastSegment(urlPath string) string {
	if i := strings.LastIndexByte(urlPath, '/'); i >= 0 {
		return urlPath[i+1:]
	}
	return urlPath
}
