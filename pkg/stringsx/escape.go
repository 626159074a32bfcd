package stringsx

import "strings"

// Unescape removes every backslash that escapes a following character.
// A trailing lone backslash is kept as-is.
func Unescape(s string) string {
	if !strings.ContainsRune(s, '\\') {
		return s
	}

	sb := strings.Builder{}
	sb.Grow(len(s))
	esc := false
	for _, r := range s {
		if !esc && r == '\\' {
			esc = true
			continue
		}
		esc = false
		sb.WriteRune(r)
	}
	if esc {
		sb.WriteByte('\\')
	}
	return sb.String()
}

// GlobEscape escapes the pattern metacharacters in s so that the result
// matches s literally when used as a glob pattern.
func GlobEscape(s string) string {
	if !strings.ContainsAny(s, `*?[\`) {
		return s
	}

	sb := strings.Builder{}
	sb.Grow(len(s) + 4)
	for _, r := range s {
		switch r {
		case '*', '?', '[', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
