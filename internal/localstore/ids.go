package localstore

import (
	"fmt"
	"strings"
	"unicode"
)

// SanitizeID derives a filesystem-safe id from an entry's human name. Letters
// and digits in any script are kept alongside '_', '.', and '-'; every other
// rune becomes an underscore, runs of underscores collapse to one, and
// leading/trailing separators are trimmed. Returns "" when nothing survives;
// callers fall back to FallbackID.
func SanitizeID(name string) string {
	var b strings.Builder
	lastUnderscore := false
	for _, r := range name {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '.' || r == '-':
			b.WriteRune(r)
			lastUnderscore = false
		default:
			if !lastUnderscore {
				b.WriteRune('_')
				lastUnderscore = true
			}
		}
	}
	return strings.Trim(b.String(), "_.-")
}

// FallbackID names entries whose comment sanitizes to nothing.
func FallbackID(uid int) string {
	return fmt.Sprintf("entry_%d", uid)
}

// uniqueID ensures per-book id uniqueness by suffixing _1, _2, ... until the
// id is unused, then records it in used.
func uniqueID(id string, used map[string]bool) string {
	candidate := id
	for n := 1; used[candidate]; n++ {
		candidate = fmt.Sprintf("%s_%d", id, n)
	}
	used[candidate] = true
	return candidate
}
