// Package lexer turns raw script text into a stream of tokens.  Quoting
// is resolved here: a word arrives at the parser as a chain of fragments
// joined by TokConcat, and the fragment kind records which expansions
// still apply to it.  Text from single quotes is TokString and is never
// expanded; references lexed inside double quotes get the ‘flat’ kinds so
// that the expander knows not to field-split or glob their results.
package lexer

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"
)

const eof rune = -1

type Lexer struct {
	input string
	Out   chan Token
	pos   int
	width int

	// Set while lexing the interior of a double-quoted string so that
	// variable and command-substitution states know to emit flat kinds
	// and to hand control back to lexDouble afterwards.
	inDquote bool
}

type lexFn func(*Lexer) lexFn

func New(s string) *Lexer {
	return &Lexer{
		input: s,
		Out:   make(chan Token),
	}
}

func (l *Lexer) Run() {
	for state := lexDefault; state != nil; {
		state = state(l)
	}
	close(l.Out)
}

func (l *Lexer) emit(k TokenKind, val string) {
	l.Out <- Token{k, val}
}

func (l *Lexer) next() rune {
	if l.pos >= len(l.input) {
		l.width = 0
		return eof
	}
	r, w := utf8.DecodeRuneInString(l.input[l.pos:])
	l.pos += w
	l.width = w
	return r
}

func (l *Lexer) peek() rune {
	r := l.next()
	l.backup()
	return r
}

func (l *Lexer) backup() {
	l.pos -= l.width
}

func (l *Lexer) errorf(format string, args ...any) lexFn {
	l.Out <- Token{
		Kind: TokError,
		Val:  fmt.Sprintf(format, args...),
	}
	return nil
}

func lexDefault(l *Lexer) lexFn {
	for {
		switch r := l.next(); {
		case r == eof:
			l.emit(TokEof, "")
			return nil
		case r == '\n':
			l.emit(TokEndStmt, "\n")
		case r == ';':
			if l.peek() == ';' {
				l.next()
				l.emit(TokDSemi, ";;")
			} else {
				l.emit(TokEndStmt, ";")
			}
		case r == '#':
			return skipComment
		case r == '\\':
			if l.peek() == '\n' {
				l.next() // Line continuation
			} else {
				l.backup()
				return lexWord
			}
		case r == '\'':
			l.backup()
			return lexSingle
		case r == '"':
			l.backup()
			return lexDouble
		case r == '`':
			l.backup()
			return lexBacktick
		case r == '$':
			l.backup()
			return lexDollar
		case r == '|':
			if l.peek() == '|' {
				l.next()
				l.emit(TokLOr, "||")
			} else {
				l.emit(TokPipe, "|")
			}
		case r == '&':
			if l.peek() == '&' {
				l.next()
				l.emit(TokLAnd, "&&")
			} else {
				l.emit(TokAmp, "&")
			}
		case r == '<':
			l.emit(TokRead, "<")
		case r == '>':
			if l.peek() == '>' {
				l.next()
				l.emit(TokAppend, ">>")
			} else {
				l.emit(TokWrite, ">")
			}
		case r == '(':
			l.emit(TokParenOpen, "(")
		case r == ')':
			l.emit(TokParenClose, ")")
		case unicode.IsSpace(r):
		default:
			l.backup()
			return lexWord
		}
	}
}

func skipComment(l *Lexer) lexFn {
	if i := strings.IndexByte(l.input[l.pos:], '\n'); i != -1 {
		l.pos += i
	} else {
		l.pos = len(l.input)
	}
	return lexDefault
}

// lexWord collects an unquoted word fragment.  Backslash escapes are kept
// verbatim; the expander strips them, and their presence is what protects
// an escaped glob metacharacter from pathname expansion.
func lexWord(l *Lexer) lexFn {
	sb := strings.Builder{}
	for {
		switch r := l.next(); {
		case r == '\\':
			switch r2 := l.next(); {
			case r2 == '\n': // Line continuation
			case r2 == eof:
				sb.WriteByte('\\')
			default:
				sb.WriteByte('\\')
				sb.WriteRune(r2)
			}
		case r == eof || unicode.IsSpace(r) || isMetachar(r):
			l.backup()
			l.Out <- Token{TokArg, sb.String()}
			return lexMaybeConcat
		default:
			sb.WriteRune(r)
		}
	}
}

// lexMaybeConcat joins adjacent word fragments with TokConcat so the
// parser can reassemble ‘foo"bar"$baz’ into a single word.
func lexMaybeConcat(l *Lexer) lexFn {
	switch r := l.peek(); {
	case r == eof || unicode.IsSpace(r) || isOperator(r):
		return lexDefault
	case r == '\'':
		l.emit(TokConcat, "")
		return lexSingle
	case r == '"':
		l.emit(TokConcat, "")
		return lexDouble
	case r == '`':
		l.emit(TokConcat, "")
		return lexBacktick
	case r == '$':
		l.emit(TokConcat, "")
		return lexDollar
	default:
		l.emit(TokConcat, "")
		return lexWord
	}
}

// lexSingle lexes a single-quoted string.  Nothing inside is special, not
// even a backslash.
func lexSingle(l *Lexer) lexFn {
	l.next() // Consume quote
	i := strings.IndexByte(l.input[l.pos:], '\'')
	if i == -1 {
		return l.errorf("unterminated single-quoted string")
	}
	l.emit(TokString, l.input[l.pos:l.pos+i])
	l.pos += i + 1
	l.width = 0
	return lexMaybeConcat
}

// lexDouble lexes the interior of a double-quoted string.  It is entered
// once at the opening quote and re-entered after each embedded variable
// reference or command substitution.
func lexDouble(l *Lexer) lexFn {
	if l.inDquote {
		l.inDquote = false
		l.emit(TokConcat, "")
	} else {
		l.next() // Consume quote
	}

	sb := strings.Builder{}
	for {
		switch r := l.next(); {
		case r == eof:
			return l.errorf("unterminated double-quoted string")
		case r == '\\':
			switch r2 := l.next(); r2 {
			case '"', '`', '$', '\\':
				sb.WriteRune(r2)
			case '\n': // Line continuation
			case eof:
				return l.errorf("unterminated double-quoted string")
			default:
				sb.WriteByte('\\')
				sb.WriteRune(r2)
			}
		case r == '$' || r == '`':
			l.backup()
			l.inDquote = true
			l.Out <- Token{TokString, sb.String()}
			l.emit(TokConcat, "")
			if r == '$' {
				return lexDollar
			}
			return lexBacktick
		case r == '"':
			l.Out <- Token{TokString, sb.String()}
			return lexMaybeConcat
		default:
			sb.WriteRune(r)
		}
	}
}

// lexDollar lexes a variable reference or a ‘$(…)’ command substitution.
// The ‘${…}’ payload is passed through raw; the parser splits off the
// ‘:-’ and ‘:=’ operators.
func lexDollar(l *Lexer) lexFn {
	l.next() // Consume ‘$’

	kind := TokVarRef
	if l.inDquote {
		kind = TokVarFlat
	}

	switch r := l.peek(); {
	case r == '(':
		l.next()
		if l.peek() == '(' {
			return l.errorf("arithmetic expansion is not supported")
		}
		return lexCmdSubParen
	case r == '{':
		l.next()
		start := l.pos
		// Braces nest so that operands like ‘${x:-${y}}’ stay whole
		for depth := 1; depth > 0; {
			switch l.next() {
			case eof:
				return l.errorf("unterminated ‘${’")
			case '{':
				depth++
			case '}':
				depth--
			}
		}
		l.emit(kind, l.input[start:l.pos-1])
	case isSpecialParam(r):
		l.next()
		l.emit(kind, string(r))
	case isNameStart(r):
		start := l.pos
		for isNameRune(l.peek()) {
			l.next()
		}
		l.emit(kind, l.input[start:l.pos])
	default:
		// A lone ‘$’ is an ordinary character.
		l.Out <- Token{TokString, "$"}
	}

	if l.inDquote {
		return lexDouble
	}
	return lexMaybeConcat
}

// lexBacktick collects the raw body of a backtick command substitution.
// A backslash escapes ‘$’, ‘`’ and ‘\’ at this level; everything else is
// passed through for the nested parse.
func lexBacktick(l *Lexer) lexFn {
	kind := TokCmdSub
	if l.inDquote {
		kind = TokCmdSubFlat
	}
	l.next() // Consume backtick

	sb := strings.Builder{}
	for {
		switch r := l.next(); {
		case r == eof:
			return l.errorf("unterminated command substitution")
		case r == '\\':
			switch r2 := l.next(); r2 {
			case '`', '$', '\\':
				sb.WriteRune(r2)
			case eof:
				return l.errorf("unterminated command substitution")
			default:
				sb.WriteByte('\\')
				sb.WriteRune(r2)
			}
		case r == '`':
			l.Out <- Token{kind, sb.String()}
			if l.inDquote {
				return lexDouble
			}
			return lexMaybeConcat
		default:
			sb.WriteRune(r)
		}
	}
}

// lexCmdSubParen collects the raw body of a ‘$(…)’ substitution, counting
// paren depth so that nested subshells survive.  The body is re-lexed by
// the parser, so quoting inside it is resolved there.
func lexCmdSubParen(l *Lexer) lexFn {
	kind := TokCmdSub
	if l.inDquote {
		kind = TokCmdSubFlat
	}

	sb := strings.Builder{}
	depth := 1
	for {
		switch r := l.next(); {
		case r == eof:
			return l.errorf("unterminated command substitution")
		case r == '\\':
			sb.WriteByte('\\')
			if r2 := l.next(); r2 != eof {
				sb.WriteRune(r2)
			}
		case r == '(':
			depth++
			sb.WriteRune(r)
		case r == ')':
			depth--
			if depth == 0 {
				l.Out <- Token{kind, sb.String()}
				if l.inDquote {
					return lexDouble
				}
				return lexMaybeConcat
			}
			sb.WriteRune(r)
		default:
			sb.WriteRune(r)
		}
	}
}

func isMetachar(r rune) bool {
	return r == '\'' ||
		r == '"' ||
		r == '`' ||
		r == '$' ||
		r == '|' ||
		r == '&' ||
		r == ';' ||
		r == '<' ||
		r == '>' ||
		r == '(' ||
		r == ')'
}

func isOperator(r rune) bool {
	return r == '|' ||
		r == '&' ||
		r == ';' ||
		r == '<' ||
		r == '>' ||
		r == '(' ||
		r == ')'
}

func isSpecialParam(r rune) bool {
	return r == '?' ||
		r == '$' ||
		r == '!' ||
		r == '#' ||
		r == '*' ||
		r == '@' ||
		r >= '0' && r <= '9'
}

func isNameStart(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

func isNameRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
