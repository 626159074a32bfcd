package lexer

import "testing"

func getTokens(s string) []Token {
	l := New(s)
	go l.Run()

	toks := []Token{}
	for t := range l.Out {
		toks = append(toks, t)
	}
	return toks
}

func assertTokens(t *testing.T, src string, wants []Token) {
	t.Helper()
	toks := getTokens(src)
	if len(toks) != len(wants) {
		t.Fatalf("Expected %d tokens but got %d: %v",
			len(wants), len(toks), toks)
	}
	for i, want := range wants {
		if toks[i] != want {
			t.Fatalf("Token %d: expected %v but got %v", i, want, toks[i])
		}
	}
}

func TestSimpleCommand(t *testing.T) {
	assertTokens(t, "echo hello world\n", []Token{
		{TokArg, "echo"},
		{TokArg, "hello"},
		{TokArg, "world"},
		{TokEndStmt, "\n"},
		{TokEof, ""},
	})
}

func TestOperators(t *testing.T) {
	assertTokens(t, "a|b&&c||d&e;f", []Token{
		{TokArg, "a"},
		{TokPipe, "|"},
		{TokArg, "b"},
		{TokLAnd, "&&"},
		{TokArg, "c"},
		{TokLOr, "||"},
		{TokArg, "d"},
		{TokAmp, "&"},
		{TokArg, "e"},
		{TokEndStmt, ";"},
		{TokArg, "f"},
		{TokEof, ""},
	})
}

func TestRedirections(t *testing.T) {
	assertTokens(t, "cmd <in >out >>log", []Token{
		{TokArg, "cmd"},
		{TokRead, "<"},
		{TokArg, "in"},
		{TokWrite, ">"},
		{TokArg, "out"},
		{TokAppend, ">>"},
		{TokArg, "log"},
		{TokEof, ""},
	})
}

func TestSingleQuotes(t *testing.T) {
	assertTokens(t, `echo 'a  b' '$x'`, []Token{
		{TokArg, "echo"},
		{TokString, "a  b"},
		{TokString, "$x"},
		{TokEof, ""},
	})
}

func TestConcatination(t *testing.T) {
	assertTokens(t, `a'b'"c"d`, []Token{
		{TokArg, "a"},
		{TokConcat, ""},
		{TokString, "b"},
		{TokConcat, ""},
		{TokString, "c"},
		{TokConcat, ""},
		{TokArg, "d"},
		{TokEof, ""},
	})
}

func TestDoubleQuotedVar(t *testing.T) {
	assertTokens(t, `"pre $x post"`, []Token{
		{TokString, "pre "},
		{TokConcat, ""},
		{TokVarFlat, "x"},
		{TokConcat, ""},
		{TokString, " post"},
		{TokEof, ""},
	})
}

func TestDoubleQuotedEscapes(t *testing.T) {
	assertTokens(t, `"a\"b\$c\\d\ne"`, []Token{
		{TokString, `a"b$c\d\ne`},
		{TokEof, ""},
	})
}

func TestVarRefs(t *testing.T) {
	assertTokens(t, `$@ $* $? $# $1 ${10} ${x:-foo} ${y:=bar}`, []Token{
		{TokVarRef, "@"},
		{TokVarRef, "*"},
		{TokVarRef, "?"},
		{TokVarRef, "#"},
		{TokVarRef, "1"},
		{TokVarRef, "10"},
		{TokVarRef, "x:-foo"},
		{TokVarRef, "y:=bar"},
		{TokEof, ""},
	})
}

func TestNestedBraceVarRef(t *testing.T) {
	assertTokens(t, `${x:-${y}}`, []Token{
		{TokVarRef, "x:-${y}"},
		{TokEof, ""},
	})
}

func TestLoneDollar(t *testing.T) {
	assertTokens(t, "echo $ x", []Token{
		{TokArg, "echo"},
		{TokString, "$"},
		{TokArg, "x"},
		{TokEof, ""},
	})
}

func TestCmdSub(t *testing.T) {
	assertTokens(t, "$(echo hi) `date` $(a $(b))", []Token{
		{TokCmdSub, "echo hi"},
		{TokCmdSub, "date"},
		{TokCmdSub, "a $(b)"},
		{TokEof, ""},
	})
}

func TestCmdSubInQuotes(t *testing.T) {
	assertTokens(t, `"now: $(date)"`, []Token{
		{TokString, "now: "},
		{TokConcat, ""},
		{TokCmdSubFlat, "date"},
		{TokConcat, ""},
		{TokString, ""},
		{TokEof, ""},
	})
}

func TestEscapedGlob(t *testing.T) {
	// The backslash must survive lexing so that pathname expansion can
	// see it.
	assertTokens(t, `echo \*.c`, []Token{
		{TokArg, "echo"},
		{TokArg, `\*.c`},
		{TokEof, ""},
	})
}

func TestComments(t *testing.T) {
	assertTokens(t, "echo hi # rest of line\necho", []Token{
		{TokArg, "echo"},
		{TokArg, "hi"},
		{TokEndStmt, "\n"},
		{TokArg, "echo"},
		{TokEof, ""},
	})
	assertTokens(t, "echo # comment at eof", []Token{
		{TokArg, "echo"},
		{TokEof, ""},
	})
}

func TestLineContinuation(t *testing.T) {
	assertTokens(t, "echo a\\\nb", []Token{
		{TokArg, "echo"},
		{TokArg, "ab"},
		{TokEof, ""},
	})
}

func TestCaseTokens(t *testing.T) {
	assertTokens(t, "case $x in a|b) echo ;; esac", []Token{
		{TokArg, "case"},
		{TokVarRef, "x"},
		{TokArg, "in"},
		{TokArg, "a"},
		{TokPipe, "|"},
		{TokArg, "b"},
		{TokParenClose, ")"},
		{TokArg, "echo"},
		{TokDSemi, ";;"},
		{TokArg, "esac"},
		{TokEof, ""},
	})
}

func TestErrors(t *testing.T) {
	for _, src := range []string{
		"'unterminated",
		`"unterminated`,
		"`unterminated",
		"$(unterminated",
		"${unterminated",
		"$((1 + 1))",
	} {
		toks := getTokens(src)
		if len(toks) == 0 || toks[len(toks)-1].Kind != TokError {
			t.Fatalf("Expected a lexing error for %q but got %v", src, toks)
		}
	}
}
