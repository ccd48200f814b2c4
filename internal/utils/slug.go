package utils

import (
	"strings"
	"unicode"
)

// Slugify lowercases s and joins its letter and digit runs with single
// hyphens: "Kerala Backwaters & Hills" -> "kerala-backwaters-hills".
func Slugify(s string) string {
	var b strings.Builder
	pendingDash := false
	for _, r := range strings.ToLower(s) {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			if pendingDash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			pendingDash = false
			continue
		}
		pendingDash = true
	}
	return b.String()
}

// ValidSlug reports whether s is already in Slugify form.
func ValidSlug(s string) bool {
	return s != "" && Slugify(s) == s
}
