package parser

import (
	"slices"
	"strings"

	"git.sr.ht/~mango/posh/lexer"
	"git.sr.ht/~mango/posh/vm"
)

func (p *Parser) parseProgram() vm.Program {
	prog := vm.Program{}

	for {
		switch p.peek().Kind {
		case lexer.TokEndStmt:
			p.next()
		case lexer.TokEof:
			return prog
		default:
			prog = append(prog, p.parseList())
		}
	}
}

func (p *Parser) skipNewlines() {
	for p.peek().Kind == lexer.TokEndStmt {
		p.next()
	}
}

func (p *Parser) parseList() vm.List {
	list := vm.List{Rhs: p.parsePipeline()}

	for {
		var op vm.BinOp
		switch p.peek().Kind {
		case lexer.TokLAnd:
			op = vm.LAnd
		case lexer.TokLOr:
			op = vm.LOr
		case lexer.TokAmp:
			p.next()
			list.Async = true
			return list
		default:
			return list
		}

		p.next() // Consume operator
		p.skipNewlines()
		tmp := list
		list = vm.List{Lhs: &tmp, Op: op, Rhs: p.parsePipeline()}
	}
}

func (p *Parser) parsePipeline() vm.Pipeline {
	pipe := vm.Pipeline{p.parseCommand()}

	for p.peek().Kind == lexer.TokPipe {
		p.next()
		p.skipNewlines()
		pipe = append(pipe, p.parseCommand())
	}
	return pipe
}

func isKw(t lexer.Token, kw string) bool {
	return t.Kind == lexer.TokArg && t.Val == kw
}

func (p *Parser) parseCommand() vm.Command {
	var cmd vm.Command

	switch t := p.peek(); {
	case isKw(t, "if"):
		p.next()
		cmd = p.parseIf()
	case isKw(t, "while"):
		p.next()
		cmd = p.parseWhile()
	case isKw(t, "for"):
		p.next()
		cmd = p.parseFor()
	case isKw(t, "case"):
		p.next()
		cmd = p.parseCase()
	case t.Kind == lexer.TokParenOpen:
		p.next()
		cmd = p.parseSubshell()
	default:
		cmd = p.parseSimple()
	}

	redirs := []vm.Redirect{}
	for {
		switch t := p.peek(); {
		case lexer.IsRedir(t.Kind):
			p.next()
			if !lexer.IsValue(p.peek().Kind) {
				die(ParseError{"a file after " + t.String(),
					p.peek().String()})
			}
			r := vm.NewRedir(t.Kind)
			r.File = p.parseWord()
			redirs = append(redirs, r)
		case lexer.IsValue(t.Kind):
			// Arguments may follow a redirection
			s, ok := cmd.(*vm.Simple)
			if !ok {
				die(ParseError{"‘;’ or newline", t.String()})
			}
			s.Args = append(s.Args, p.parseWord())
		default:
			cmd.SetRedirs(redirs)
			return cmd
		}
	}
}

// parseBody parses statements until one of the given keywords appears at
// the start of a statement.  It returns the parsed program and the
// keyword that ended it.
func (p *Parser) parseBody(kws ...string) (vm.Program, string) {
	prog := vm.Program{}

	for {
		switch t := p.peek(); {
		case t.Kind == lexer.TokEndStmt:
			p.next()
		case t.Kind == lexer.TokArg && slices.Contains(kws, t.Val):
			p.next()
			return prog, t.Val
		case t.Kind == lexer.TokEof:
			die(ParseError{kwList(kws), t.String()})
		default:
			prog = append(prog, p.parseList())
		}
	}
}

func kwList(kws []string) string {
	xs := make([]string, len(kws))
	for i, kw := range kws {
		xs[i] = "‘" + kw + "’"
	}
	return strings.Join(xs, " or ")
}

func (p *Parser) parseIf() *vm.If {
	cmd := vm.If{}
	cmd.Cond, _ = p.parseBody("then")

	var kw string
	cmd.Body, kw = p.parseBody("elif", "else", "fi")
	switch kw {
	case "elif":
		elif := p.parseIf()
		cmd.Else = vm.Program{{Rhs: vm.Pipeline{elif}}}
	case "else":
		cmd.Else, _ = p.parseBody("fi")
	}
	return &cmd
}

func (p *Parser) parseWhile() *vm.While {
	cmd := vm.While{}
	cmd.Cond, _ = p.parseBody("do")
	cmd.Body, _ = p.parseBody("done")
	return &cmd
}

func (p *Parser) parseFor() *vm.For {
	t := p.next()
	if t.Kind != lexer.TokArg || !isName(t.Val) {
		die(ParseError{"a variable name after ‘for’", t.String()})
	}
	cmd := vm.For{Name: t.Val}

	p.skipNewlines()
	if isKw(p.peek(), "in") {
		p.next()
		cmd.In = true
		cmd.Words = []vm.Word{}
		for lexer.IsValue(p.peek().Kind) {
			cmd.Words = append(cmd.Words, p.parseWord())
		}
		if t := p.peek(); t.Kind != lexer.TokEndStmt {
			die(ParseError{"‘;’ or newline after the ‘for’ words",
				t.String()})
		}
		p.skipNewlines()
	}

	if t := p.next(); !isKw(t, "do") {
		die(ParseError{"‘do’", t.String()})
	}
	cmd.Body, _ = p.parseBody("done")
	return &cmd
}

func (p *Parser) parseCase() *vm.Case {
	if !lexer.IsValue(p.peek().Kind) {
		die(ParseError{"a word after ‘case’", p.peek().String()})
	}
	cmd := vm.Case{Word: p.parseWord()}

	p.skipNewlines()
	if t := p.next(); !isKw(t, "in") {
		die(ParseError{"‘in’ after the ‘case’ word", t.String()})
	}
	p.skipNewlines()

	for {
		if isKw(p.peek(), "esac") {
			p.next()
			return &cmd
		}
		cmd.Clauses = append(cmd.Clauses, p.parseCaseClause())
		p.skipNewlines()
	}
}

// parseCaseClause parses one ‘pattern|…) body ;;’ clause.  The final
// clause may omit the ‘;;’; the ‘esac’ is left for the caller.
func (p *Parser) parseCaseClause() vm.CaseClause {
	cl := vm.CaseClause{}

	if p.peek().Kind == lexer.TokParenOpen {
		p.next()
	}
	for {
		if !lexer.IsValue(p.peek().Kind) {
			die(ParseError{"a pattern", p.peek().String()})
		}
		cl.Patterns = append(cl.Patterns, p.parseWord())
		if p.peek().Kind != lexer.TokPipe {
			break
		}
		p.next()
	}
	if t := p.next(); t.Kind != lexer.TokParenClose {
		die(ParseError{"‘)’ after the patterns", t.String()})
	}

	for {
		switch t := p.peek(); {
		case t.Kind == lexer.TokDSemi:
			p.next()
			return cl
		case t.Kind == lexer.TokEndStmt:
			p.next()
		case isKw(t, "esac"):
			return cl
		case t.Kind == lexer.TokEof:
			die(ParseError{"‘;;’ or ‘esac’", t.String()})
		default:
			cl.Body = append(cl.Body, p.parseList())
		}
	}
}

func (p *Parser) parseSubshell() *vm.Subshell {
	cmd := vm.Subshell{Body: vm.Program{}}

	for {
		switch t := p.peek(); t.Kind {
		case lexer.TokEndStmt:
			p.next()
		case lexer.TokParenClose:
			p.next()
			return &cmd
		case lexer.TokEof:
			die(ParseError{"‘)’", t.String()})
		default:
			cmd.Body = append(cmd.Body, p.parseList())
		}
	}
}

func (p *Parser) parseSimple() vm.Command {
	cmd := vm.Simple{}

	// Leading NAME=value words are assignments
	for p.peek().Kind == lexer.TokArg {
		name, rest, ok := splitAssign(p.peek().Val)
		if !ok {
			break
		}
		p.next()

		a := vm.Assign{Name: name}
		if rest != "" {
			a.Value = append(a.Value, vm.Lit(rest))
		}
		for p.peek().Kind == lexer.TokConcat {
			p.next()
			a.Value = append(a.Value, p.parsePart())
		}
		cmd.Assigns = append(cmd.Assigns, a)
	}

	if !lexer.IsValue(p.peek().Kind) {
		if len(cmd.Assigns) == 0 {
			die(ParseError{"a command", p.peek().String()})
		}
		return &cmd
	}

	w := p.parseWord()
	if len(cmd.Assigns) == 0 && p.peek().Kind == lexer.TokParenOpen {
		return p.parseFuncDef(w)
	}
	cmd.Args = append(cmd.Args, w)
	for lexer.IsValue(p.peek().Kind) {
		cmd.Args = append(cmd.Args, p.parseWord())
	}
	return &cmd
}

// parseFuncDef parses the remainder of ‘name() { … }’; w is the already
// parsed name.
func (p *Parser) parseFuncDef(w vm.Word) vm.Command {
	name, ok := litName(w)
	if !ok {
		die(ParseError{"a function name before ‘()’", "a composite word"})
	}

	p.next() // Consume ‘(’
	if t := p.next(); t.Kind != lexer.TokParenClose {
		die(ParseError{"‘)’", t.String()})
	}
	p.skipNewlines()
	if t := p.next(); !isKw(t, "{") {
		die(ParseError{"‘{’", t.String()})
	}

	body, _ := p.parseBody("}")
	return &vm.FuncDef{Name: name, Body: body}
}

func litName(w vm.Word) (string, bool) {
	if len(w) != 1 {
		return "", false
	}
	l, ok := w[0].(vm.Lit)
	if !ok || !isName(string(l)) {
		return "", false
	}
	return string(l), true
}

func splitAssign(s string) (name, rest string, ok bool) {
	i := strings.IndexByte(s, '=')
	if i < 1 || !isName(s[:i]) {
		return "", "", false
	}
	return s[:i], s[i+1:], true
}

func (p *Parser) parseWord() vm.Word {
	w := vm.Word{}

	for {
		w = append(w, p.parsePart())
		if p.peek().Kind != lexer.TokConcat {
			return w
		}
		p.next()
	}
}

func (p *Parser) parsePart() vm.Part {
	switch t := p.next(); t.Kind {
	case lexer.TokArg:
		return vm.Lit(t.Val)
	case lexer.TokString:
		return vm.Quoted(t.Val)
	case lexer.TokVarRef:
		return p.newVarRef(t.Val, false)
	case lexer.TokVarFlat:
		return p.newVarRef(t.Val, true)
	case lexer.TokCmdSub:
		return newCmdSub(t.Val, false)
	case lexer.TokCmdSubFlat:
		return newCmdSub(t.Val, true)
	default:
		die(ParseError{"a word", t.String()})
	}
	panic("unreachable")
}

// newVarRef splits a ‘${…}’ payload into the parameter name, the
// expansion operator, and its operand word.
func (p *Parser) newVarRef(payload string, quoted bool) *vm.VarRef {
	vr := vm.VarRef{Name: payload, Quoted: quoted}

	// The operator is whichever of ‘:-’ and ‘:=’ comes first
	i, j := strings.Index(payload, ":-"), strings.Index(payload, ":=")
	switch {
	case i != -1 && (j == -1 || i < j):
		vr.Name, vr.Op = payload[:i], vm.OpDefault
		vr.Word = parseWordString(payload[i+2:])
	case j != -1:
		vr.Name, vr.Op = payload[:j], vm.OpAssign
		vr.Word = parseWordString(payload[j+2:])
	}

	if !isParam(vr.Name) {
		die(ParseError{"a parameter name", "‘$" + payload + "’"})
	}
	return &vr
}

// parseWordString parses a string that must contain at most one word,
// such as the operand of an expansion operator.
func parseWordString(s string) vm.Word {
	l := lexer.New(s)
	go l.Run()
	p := Parser{toks: l.Out}

	w := vm.Word{}
	if lexer.IsValue(p.peek().Kind) {
		w = p.parseWord()
	}
	if t := p.peek(); t.Kind != lexer.TokEof {
		die(ParseError{"a single word", t.String()})
	}
	return w
}

func newCmdSub(body string, quoted bool) *vm.CmdSub {
	prog, err := Parse(body)
	if err != nil {
		die(err)
	}
	return &vm.CmdSub{Prog: prog, Quoted: quoted}
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
		case '0' <= r && r <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

func isParam(s string) bool {
	switch s {
	case "?", "$", "!", "#", "*", "@":
		return true
	}
	if isDigits(s) {
		return true
	}
	return isName(s)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
