// Package parser consumes the lexer’s token stream and produces a
// program for the vm package to interpret.
package parser

import (
	"git.sr.ht/~mango/posh/lexer"
	"git.sr.ht/~mango/posh/vm"
)

type Parser struct {
	toks  <-chan lexer.Token
	cache *lexer.Token
}

// Parse lexes and parses a complete script.  Errors are returned rather
// than reported so that callers can decide whether they are fatal; an
// interactive shell keeps its session, a script run does not.
func Parse(src string) (vm.Program, error) {
	l := lexer.New(src)
	go l.Run()

	p := Parser{toks: l.Out}
	prog, err := p.run()
	if err != nil {
		// Unblock the lexer goroutine
		go func() {
			for range l.Out {
			}
		}()
	}
	return prog, err
}

func (p *Parser) run() (prog vm.Program, err error) {
	defer func() {
		switch e := recover(); e.(type) {
		case nil:
		case LexError, ParseError:
			prog, err = nil, e.(error)
		default:
			panic(e)
		}
	}()
	return p.parseProgram(), nil
}

// die aborts the parse; run turns the panic back into a returned error.
func die(e error) {
	panic(e)
}

func (p *Parser) next() lexer.Token {
	var t lexer.Token
	if p.cache != nil {
		t, p.cache = *p.cache, nil
	} else {
		var ok bool
		if t, ok = <-p.toks; !ok {
			t = lexer.Token{Kind: lexer.TokEof}
		}
	}
	if t.Kind == lexer.TokError {
		die(LexError(t.Val))
	}
	return t
}

func (p *Parser) peek() lexer.Token {
	if p.cache == nil {
		t, ok := <-p.toks
		if !ok {
			t = lexer.Token{Kind: lexer.TokEof}
		}
		if t.Kind == lexer.TokError {
			die(LexError(t.Val))
		}
		p.cache = &t
	}
	return *p.cache
}
