package stringsx

import "strings"

// Fields splits s on any rune contained in seps, collapsing runs of
// separators and dropping leading and trailing ones.  With the default
// IFS characters this behaves exactly like strings.Fields.
func Fields(s, seps string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(seps, r)
	})
}

// HasLeadingSep and HasTrailingSep report whether s begins or ends with
// one of the runes in seps.  The expander needs this to decide whether a
// substitution result detaches from the surrounding word fragments.
func HasLeadingSep(s, seps string) bool {
	for _, r := range s {
		return strings.ContainsRune(seps, r)
	}
	return false
}

func HasTrailingSep(s, seps string) bool {
	rs := []rune(s)
	if len(rs) == 0 {
		return false
	}
	return strings.ContainsRune(seps, rs[len(rs)-1])
}
