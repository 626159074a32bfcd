package lexer

import "fmt"

type TokenKind int

const (
	TokError TokenKind = iota

	TokEndStmt
	TokEof

	TokArg
	TokConcat
	TokString
	TokVarRef
	TokVarFlat
	TokCmdSub
	TokCmdSubFlat

	TokAppend
	TokRead
	TokWrite

	TokPipe
	TokAmp
	TokDSemi

	TokLAnd
	TokLOr

	TokParenOpen
	TokParenClose
)

type Token struct {
	Kind TokenKind
	Val  string
}

const maxStrLen = 20

func (t Token) String() string {
	switch t.Kind {
	case TokError:
		return "lexing error: " + t.Val

	case TokEndStmt:
		return "end of statement"
	case TokEof:
		return "end of file"

	case TokArg, TokString:
		if len(t.Val) > maxStrLen {
			return fmt.Sprintf("‘%.*s…’", maxStrLen, t.Val)
		}
		return "‘" + t.Val + "’"
	case TokConcat:
		return "word concatination"
	case TokVarRef, TokVarFlat:
		return fmt.Sprintf("‘$%s’", t.Val)
	case TokCmdSub, TokCmdSubFlat:
		if len(t.Val) > maxStrLen {
			return fmt.Sprintf("‘$(%.*s…)’", maxStrLen, t.Val)
		}
		return fmt.Sprintf("‘$(%s)’", t.Val)

	case TokAppend:
		return "‘>>’"
	case TokRead:
		return "‘<’"
	case TokWrite:
		return "‘>’"

	case TokPipe:
		return "‘|’"
	case TokAmp:
		return "‘&’"
	case TokDSemi:
		return "‘;;’"

	case TokLAnd:
		return "‘&&’"
	case TokLOr:
		return "‘||’"

	case TokParenOpen:
		return "‘(’"
	case TokParenClose:
		return "‘)’"
	}

	panic("unreachable")
}

// IsValue reports whether a token of kind k can begin or continue a word.
func IsValue(k TokenKind) bool {
	return k == TokArg ||
		k == TokString ||
		k == TokVarRef ||
		k == TokVarFlat ||
		k == TokCmdSub ||
		k == TokCmdSubFlat
}

// IsRedir reports whether a token of kind k introduces a redirection.
func IsRedir(k TokenKind) bool {
	return k == TokAppend ||
		k == TokRead ||
		k == TokWrite
}
