package vm

// Match reports whether s matches the shell pattern pat.  ‘*’ matches
// any run of characters including slashes, ‘?’ matches one character,
// and ‘[…]’ matches a bracketed class with ranges and ‘!’ negation.  A
// backslash escapes the following character.  Matching is bytewise.
func Match(pat, s string) bool {
	p, i := 0, 0
	starP, starS := -1, 0

	for i < len(s) {
		if p < len(pat) {
			switch c := pat[p]; c {
			case '*':
				starP, starS = p, i
				p++
				continue
			case '?':
				p++
				i++
				continue
			case '[':
				if n, ok, valid := matchClass(pat[p:], s[i]); valid {
					if ok {
						p += n
						i++
						continue
					}
				} else if s[i] == '[' {
					// Malformed class: a literal bracket
					p++
					i++
					continue
				}
			case '\\':
				if p+1 < len(pat) && pat[p+1] == s[i] {
					p += 2
					i++
					continue
				}
			default:
				if c == s[i] {
					p++
					i++
					continue
				}
			}
		}

		if starP == -1 {
			return false
		}
		// Backtrack: let the last star swallow one more character
		starS++
		p, i = starP+1, starS
	}

	for p < len(pat) && pat[p] == '*' {
		p++
	}
	return p == len(pat)
}

// matchClass matches c against a bracketed class at the start of pat.
// It returns the length of the class, whether c matched, and whether the
// class was well formed.
func matchClass(pat string, c byte) (n int, ok, valid bool) {
	i := 1
	neg := false
	if i < len(pat) && (pat[i] == '!' || pat[i] == '^') {
		neg = true
		i++
	}

	match := false
	for first := true; ; first = false {
		if i >= len(pat) {
			return 0, false, false
		}
		if pat[i] == ']' && !first {
			return i + 1, match != neg, true
		}

		lo := pat[i]
		if lo == '\\' {
			i++
			if i >= len(pat) {
				return 0, false, false
			}
			lo = pat[i]
		}
		hi := lo
		if i+2 < len(pat) && pat[i+1] == '-' && pat[i+2] != ']' {
			hi = pat[i+2]
			i += 2
		}
		if lo <= c && c <= hi {
			match = true
		}
		i++
	}
}
