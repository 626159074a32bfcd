package vm

import (
	"bytes"
	"errors"
	"os"
	"os/user"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"git.sr.ht/~mango/posh/pkg/stringsx"
)

// Word expansion builds fields in two parallel representations: the
// literal text of the field, and a glob-pattern form in which characters
// that came from quotes or escapes are protected.  Pathname expansion
// then runs on the pattern form and falls back to the literal text when
// nothing matches.
type field struct {
	text string
	pat  string
}

type fieldBuf struct {
	fields []field
	cur    field
	open   bool
}

// add appends text to the current field, opening one if necessary.  An
// empty addition still opens a field, which is how ‘""’ produces an
// empty argument.
func (b *fieldBuf) add(text, pat string) {
	b.cur.text += text
	b.cur.pat += pat
	b.open = true
}

// brk terminates the current field, if any
func (b *fieldBuf) brk() {
	if b.open {
		b.fields = append(b.fields, b.cur)
		b.cur = field{}
		b.open = false
	}
}

// expandWord performs the full expansion of a word: tilde and parameter
// expansion, command substitution, field splitting, and pathname
// expansion, in that order.
func (m *Machine) expandWord(w Word, ctx context) ([]string, commandResult) {
	b := fieldBuf{}
	if res := m.expandInto(&b, w, ctx); res != nil {
		return nil, res
	}
	b.brk()

	xs := make([]string, 0, len(b.fields))
	for _, f := range b.fields {
		if hasGlobMeta(f.pat) {
			matches, err := afero.Glob(m.Fs, f.pat)
			if err == nil && len(matches) > 0 {
				sort.Strings(matches)
				xs = append(xs, matches...)
				continue
			}
		}
		// A pattern that matches nothing is used literally
		xs = append(xs, f.text)
	}
	return xs, nil
}

func (m *Machine) expandInto(b *fieldBuf, w Word, ctx context) commandResult {
	for i, part := range w {
		switch p := part.(type) {
		case Lit:
			s := string(p)
			if i == 0 {
				var err error
				if s, err = tildeExpand(s); err != nil {
					return errInternal{err}
				}
			}
			b.add(stringsx.Unescape(s), s)
		case Quoted:
			b.add(string(p), stringsx.GlobEscape(string(p)))
		case *VarRef:
			if res := m.expandVarRef(b, p, ctx); res != nil {
				return res
			}
		case *CmdSub:
			out, res := m.runCmdSub(p.Prog, ctx)
			if res != nil {
				return res
			}
			if p.Quoted {
				b.add(out, stringsx.GlobEscape(out))
			} else {
				m.splitInto(b, out)
			}
		}
	}
	return nil
}

func (m *Machine) expandVarRef(b *fieldBuf, vr *VarRef, ctx context) commandResult {
	if vr.Name == "@" || vr.Name == "*" {
		m.expandParams(b, vr)
		return nil
	}

	val, _ := m.Env.Lookup(vr.Name)
	if val == "" {
		switch vr.Op {
		case OpDefault:
			if vr.Quoted {
				d, res := m.expandWordFlat(vr.Word, ctx)
				if res != nil {
					return res
				}
				b.add(d, stringsx.GlobEscape(d))
				return nil
			}
			return m.expandInto(b, vr.Word, ctx)
		case OpAssign:
			d, res := m.expandWordFlat(vr.Word, ctx)
			if res != nil {
				return res
			}
			if !isName(vr.Name) {
				return cmdErrorf("${"+vr.Name+"}", 1,
					"cannot assign to this parameter")
			}
			m.Env.Set(vr.Name, d)
			val = d
		}
	}

	if vr.Quoted {
		b.add(val, stringsx.GlobEscape(val))
	} else {
		m.splitInto(b, val)
	}
	return nil
}

// expandParams handles ‘$@’ and ‘$*’.  Quoted ‘"$@"’ yields one field
// per parameter; quoted ‘"$*"’ joins them with the first character of
// IFS; unquoted, both are joined and resplit like any other value.
func (m *Machine) expandParams(b *fieldBuf, vr *VarRef) {
	params := m.Env.Params()
	sep := m.paramSep()

	switch {
	case vr.Quoted && vr.Name == "@":
		for i, p := range params {
			if i > 0 {
				b.brk()
			}
			b.add(p, stringsx.GlobEscape(p))
		}
	case vr.Quoted:
		s := strings.Join(params, sep)
		b.add(s, stringsx.GlobEscape(s))
	default:
		m.splitInto(b, strings.Join(params, sep))
	}
}

// splitInto field-splits an expansion result into the buffer.  A
// separator at either edge of the value also terminates the field being
// built from the surrounding word.
func (m *Machine) splitInto(b *fieldBuf, s string) {
	if s == "" {
		return
	}
	seps := m.ifs()
	if seps == "" {
		b.add(s, stringsx.GlobEscape(s))
		return
	}

	if stringsx.HasLeadingSep(s, seps) {
		b.brk()
	}
	for i, f := range stringsx.Fields(s, seps) {
		if i > 0 {
			b.brk()
		}
		b.add(f, stringsx.GlobEscape(f))
	}
	if stringsx.HasTrailingSep(s, seps) {
		b.brk()
	}
}

// expandWordFlat expands a word to exactly one string: no field
// splitting and no pathname expansion.  Case subjects, assignment
// values, and expansion-operator operands use this.
func (m *Machine) expandWordFlat(w Word, ctx context) (string, commandResult) {
	sb := strings.Builder{}
	for i, part := range w {
		switch p := part.(type) {
		case Lit:
			s := string(p)
			if i == 0 {
				var err error
				if s, err = tildeExpand(s); err != nil {
					return "", errInternal{err}
				}
			}
			sb.WriteString(stringsx.Unescape(s))
		case Quoted:
			sb.WriteString(string(p))
		case *VarRef:
			val, res := m.varRefFlat(p, ctx)
			if res != nil {
				return "", res
			}
			sb.WriteString(val)
		case *CmdSub:
			out, res := m.runCmdSub(p.Prog, ctx)
			if res != nil {
				return "", res
			}
			sb.WriteString(out)
		}
	}
	return sb.String(), nil
}

// expandWordPattern is expandWordFlat for case patterns: literal escapes
// survive and quoted text is protected, so that glob metacharacters
// keep or lose their meaning according to how they were written.
func (m *Machine) expandWordPattern(w Word, ctx context) (string, commandResult) {
	sb := strings.Builder{}
	for _, part := range w {
		switch p := part.(type) {
		case Lit:
			sb.WriteString(string(p))
		case Quoted:
			sb.WriteString(stringsx.GlobEscape(string(p)))
		case *VarRef:
			val, res := m.varRefFlat(p, ctx)
			if res != nil {
				return "", res
			}
			sb.WriteString(val)
		case *CmdSub:
			out, res := m.runCmdSub(p.Prog, ctx)
			if res != nil {
				return "", res
			}
			sb.WriteString(out)
		}
	}
	return sb.String(), nil
}

// paramSep is the separator used when the positional parameters are
// joined into a single string: the first character of IFS, or a space
// when IFS is unset.
func (m *Machine) paramSep() string {
	switch ifs := m.ifs(); {
	case ifs == defaultIfs:
		return " "
	case ifs == "":
		return ""
	default:
		return ifs[:1]
	}
}

func (m *Machine) varRefFlat(vr *VarRef, ctx context) (string, commandResult) {
	if vr.Name == "@" || vr.Name == "*" {
		return strings.Join(m.Env.Params(), m.paramSep()), nil
	}

	val, _ := m.Env.Lookup(vr.Name)
	if val == "" {
		switch vr.Op {
		case OpDefault:
			return m.expandWordFlat(vr.Word, ctx)
		case OpAssign:
			d, res := m.expandWordFlat(vr.Word, ctx)
			if res != nil {
				return "", res
			}
			if !isName(vr.Name) {
				return "", cmdErrorf("${"+vr.Name+"}", 1,
					"cannot assign to this parameter")
			}
			m.Env.Set(vr.Name, d)
			return d, nil
		}
	}
	return val, nil
}

// runCmdSub executes a command substitution in a subshell and captures
// its output with the trailing newline removed.  The substitution’s exit
// status does not become the status of the surrounding command.
func (m *Machine) runCmdSub(prog Program, ctx context) (string, commandResult) {
	out := bytes.Buffer{}
	sub := m.subshell()
	res := sub.execProgram(prog, context{ctx.in, &out, ctx.err})
	if !isFlow(res) {
		sub.reap(res, ctx)
	}
	return strings.TrimSuffix(out.String(), "\n"), nil
}

const defaultIfs = " \t\n"

func (m *Machine) ifs() string {
	if s, ok := m.Env.Lookup("IFS"); ok {
		return s
	}
	return defaultIfs
}

// hasGlobMeta reports whether pat contains an unescaped glob
// metacharacter.
func hasGlobMeta(pat string) bool {
	for i := 0; i < len(pat); i++ {
		switch pat[i] {
		case '\\':
			i++
		case '*', '?', '[':
			return true
		}
	}
	return false
}

func isName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_',
			'a' <= r && r <= 'z',
			'A' <= r && r <= 'Z':
		case '0' <= r && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

func tildeExpand(s string) (string, error) {
	if len(s) == 0 || s[0] != '~' {
		return s, nil
	}
	i := strings.IndexByte(s, '/')
	if i == -1 {
		i = len(s)
	}

	if i == 1 {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return home + s[i:], nil
	}

	name := s[1:i]
	switch u, err := user.Lookup(name); {
	case errors.Is(err, user.UnknownUserError(name)):
		return s, nil
	case err != nil:
		return "", err
	default:
		return u.HomeDir + s[i:], nil
	}
}
