package urls

import "strings"

// Normalize produces the ledger key for a course URL: trimmed, lowercased,
// fragment removed and trailing slashes removed. The same function must be
// used when recording and when looking up a URL.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.IndexByte(s, '#'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	for {
		s = strings.TrimSpace(s)
		if !strings.HasSuffix(s, "/") || strings.HasSuffix(s, "://") {
			return s
		}
		s = strings.TrimSuffix(s, "/")
	}
}
