package vm

import (
	"io"
	"maps"
	"os"
	"os/exec"
	"sync"

	"github.com/spf13/afero"
)

// Machine interprets parsed programs.  All file access for redirections,
// pathname expansion, and the ‘.’ builtin goes through Fs so that tests
// can substitute an in-memory filesystem.
type Machine struct {
	Fs  afero.Fs
	Env *Env
	In  io.Reader
	Out io.Writer
	Err io.Writer

	// Parse turns source text into a program.  The ‘.’ and ‘eval’
	// builtins need it; it is injected by the caller because the parser
	// package depends on this one.
	Parse func(string) (Program, error)

	funcs map[string]Program
	jobs  []*exec.Cmd
	bg    sync.WaitGroup
	depth int // Function call depth
}

func New(fs afero.Fs, environ []string, name0 string, params []string) *Machine {
	return &Machine{
		Fs:    fs,
		Env:   NewEnv(environ, name0, params),
		In:    os.Stdin,
		Out:   os.Stdout,
		Err:   os.Stderr,
		funcs: map[string]Program{},
	}
}

// Run interprets prog and returns the shell’s resulting exit status.
// ‘exit’ anywhere in prog stops interpretation and yields its status.
func (m *Machine) Run(prog Program) uint8 {
	res := m.execProgram(prog, context{m.In, m.Out, m.Err})
	if isFlow(res) {
		m.Env.SetStatus(res.ExitCode())
	}
	return m.Env.Status()
}

// subshell clones the machine for an isolated child environment.
// Functions are copied so that definitions made inside the child do not
// leak out; background jobs stay with the parent.
func (m *Machine) subshell() *Machine {
	return &Machine{
		Fs:    m.Fs,
		Env:   m.Env.Clone(),
		In:    m.In,
		Out:   m.Out,
		Err:   m.Err,
		Parse: m.Parse,
		funcs: maps.Clone(m.funcs),
		depth: m.depth,
	}
}
