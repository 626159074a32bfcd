package vm

import "git.sr.ht/~mango/posh/lexer"

// Program is a complete script
type Program = []List

// List is a sequence of pipelines connected by ‘&&’ and ‘||’, optionally
// run asynchronously.  The operators associate to the left, so the parser
// hands us (op (op (op nil e1) e2) e3) with the first pipeline at the
// bottom.
type List struct {
	Lhs   *List
	Op    BinOp
	Rhs   Pipeline
	Async bool
}

type BinOp int

const (
	LAnd BinOp = iota
	LOr
)

// Pipeline is a list of commands connected by pipes
type Pipeline []Command

// Command is a command the shell can execute
type Command interface {
	isCommand()

	Redirs() []Redirect
	SetRedirs([]Redirect)
}

// Simple is the simplest form of a command: variable assignments,
// arguments, and redirects
type Simple struct {
	Assigns []Assign
	Args    []Word
	redirs  []Redirect
}

// Assign is a ‘NAME=value’ prefix of a simple command
type Assign struct {
	Name  string
	Value Word
}

// If is a conditional branch; it executes Body if Cond was successful
type If struct {
	Cond, Body, Else Program
	redirs           []Redirect
}

// While is a loop; it executes Body for as long as Cond is successful
type While struct {
	Cond, Body Program
	redirs     []Redirect
}

// For binds Name to each expanded word in turn and executes Body.  When
// In is unset the loop iterates over the positional parameters.
type For struct {
	Name   string
	In     bool
	Words  []Word
	Body   Program
	redirs []Redirect
}

// Case matches Word against each clause’s patterns and executes the body
// of the first clause that matches
type Case struct {
	Word    Word
	Clauses []CaseClause
	redirs  []Redirect
}

type CaseClause struct {
	Patterns []Word
	Body     Program
}

// Subshell is a program run in an isolated copy of the environment
type Subshell struct {
	Body   Program
	redirs []Redirect
}

// FuncDef registers Body as a function under Name
type FuncDef struct {
	Name   string
	Body   Program
	redirs []Redirect
}

func (_ Simple) isCommand()   {}
func (_ If) isCommand()       {}
func (_ While) isCommand()    {}
func (_ For) isCommand()      {}
func (_ Case) isCommand()     {}
func (_ Subshell) isCommand() {}
func (_ FuncDef) isCommand()  {}

func (c *Simple) Redirs() []Redirect   { return c.redirs }
func (c *If) Redirs() []Redirect       { return c.redirs }
func (c *While) Redirs() []Redirect    { return c.redirs }
func (c *For) Redirs() []Redirect      { return c.redirs }
func (c *Case) Redirs() []Redirect     { return c.redirs }
func (c *Subshell) Redirs() []Redirect { return c.redirs }
func (c *FuncDef) Redirs() []Redirect  { return c.redirs }

func (c *Simple) SetRedirs(rs []Redirect)   { c.redirs = rs }
func (c *If) SetRedirs(rs []Redirect)       { c.redirs = rs }
func (c *While) SetRedirs(rs []Redirect)    { c.redirs = rs }
func (c *For) SetRedirs(rs []Redirect)      { c.redirs = rs }
func (c *Case) SetRedirs(rs []Redirect)     { c.redirs = rs }
func (c *Subshell) SetRedirs(rs []Redirect) { c.redirs = rs }
func (c *FuncDef) SetRedirs(rs []Redirect)  { c.redirs = rs }

// Redirect is a redirection between a command and a file
type Redirect struct {
	Type RedirType
	File Word
}

type RedirType int

const (
	RedirAppend RedirType = iota
	RedirRead
	RedirWrite
)

func NewRedir(k lexer.TokenKind) Redirect {
	switch k {
	case lexer.TokAppend:
		return Redirect{Type: RedirAppend}
	case lexer.TokRead:
		return Redirect{Type: RedirRead}
	case lexer.TokWrite:
		return Redirect{Type: RedirWrite}
	}
	panic("unreachable")
}

// Word is a sequence of parts that concatenate into a single word before
// expansion.  How a part expands depends on its kind: literals undergo
// tilde expansion and keep their escapes for the glob step, quoted text
// is copied through untouched, and variable references and command
// substitutions know whether they were spelled inside double quotes.
type Word []Part

type Part interface {
	isPart()
}

// Lit is unquoted text with backslash escapes intact
type Lit string

// Quoted is text from a quoted string; it expands to itself
type Quoted string

// VarRef is a reference to a variable or special parameter.  Quoted
// references expand without field splitting or pathname expansion.
type VarRef struct {
	Name   string
	Op     VarOp
	Word   Word // Operand of ‘:-’ and ‘:=’
	Quoted bool
}

type VarOp int

const (
	OpNone VarOp = iota
	OpDefault
	OpAssign
)

// CmdSub runs Prog in a subshell and expands to its output with the
// trailing newline removed
type CmdSub struct {
	Prog   Program
	Quoted bool
}

func (_ Lit) isPart()     {}
func (_ Quoted) isPart()  {}
func (_ *VarRef) isPart() {}
func (_ *CmdSub) isPart() {}
