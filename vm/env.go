package vm

import (
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"git.sr.ht/~mango/posh/pkg/stack"
)

// Env holds the variables and positional parameters of one shell
// environment.  Function calls push a new parameter frame so that ‘$1’
// and friends refer to the function’s arguments while it runs; the
// variable table itself is shared between frames.
type Env struct {
	vars   map[string]string
	name0  string
	frames stack.Stack[[]string]
	status uint8
	bgpid  int
}

func NewEnv(environ []string, name0 string, params []string) *Env {
	vars := make(map[string]string, len(environ))
	for _, kv := range environ {
		if i := strings.IndexByte(kv, '='); i > 0 {
			vars[kv[:i]] = kv[i+1:]
		}
	}

	e := Env{vars: vars, name0: name0}
	e.frames.Push(params)
	return &e
}

// Clone returns an independent copy of the environment for use in a
// subshell.  The copy sees the current positional parameters as its base
// frame; later mutations on either side stay invisible to the other.
func (e *Env) Clone() *Env {
	c := Env{
		vars:   maps.Clone(e.vars),
		name0:  e.name0,
		status: e.status,
		bgpid:  e.bgpid,
	}
	c.frames.Push(slices.Clone(e.Params()))
	return &c
}

// Lookup resolves a variable or special parameter.  The boolean result
// reports whether the parameter is set, which the ‘:-’ and ‘:=’
// expansion operators care about.
func (e *Env) Lookup(name string) (string, bool) {
	switch name {
	case "?":
		return strconv.Itoa(int(e.status)), true
	case "$":
		return strconv.Itoa(os.Getpid()), true
	case "!":
		if e.bgpid == 0 {
			return "", false
		}
		return strconv.Itoa(e.bgpid), true
	case "#":
		return strconv.Itoa(len(e.Params())), true
	case "0":
		return e.name0, true
	case "*", "@":
		return strings.Join(e.Params(), " "), true
	}

	if n, err := strconv.Atoi(name); err == nil {
		ps := e.Params()
		// ‘$0’ was handled above, so ‘${00}’ and the like are unset
		if n < 1 || n > len(ps) {
			return "", false
		}
		return ps[n-1], true
	}

	s, ok := e.vars[name]
	return s, ok
}

func (e *Env) Set(name, val string) {
	e.vars[name] = val
}

func (e *Env) Unset(name string) {
	delete(e.vars, name)
}

// Environ returns the variable table in the ‘NAME=value’ form expected
// by exec.Cmd.
func (e *Env) Environ() []string {
	xs := make([]string, 0, len(e.vars))
	for k, v := range e.vars {
		xs = append(xs, k+"="+v)
	}
	slices.Sort(xs)
	return xs
}

func (e *Env) Params() []string {
	return *e.frames.Peek()
}

func (e *Env) PushFrame(params []string) {
	e.frames.Push(params)
}

func (e *Env) PopFrame() {
	e.frames.Pop()
}

// Shift drops the first n positional parameters of the current frame.
// It reports failure when n exceeds the number of parameters.
func (e *Env) Shift(n int) bool {
	ps := e.frames.Peek()
	if n < 0 || n > len(*ps) {
		return false
	}
	*ps = (*ps)[n:]
	return true
}

func (e *Env) Status() uint8 {
	return e.status
}

func (e *Env) SetStatus(s uint8) {
	e.status = s
}

func (e *Env) SetBgPid(pid int) {
	e.bgpid = pid
}
