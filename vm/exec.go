package vm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

const appendFlags = os.O_APPEND | os.O_CREATE | os.O_WRONLY

type context struct {
	in       io.Reader
	out, err io.Writer
}

func (m *Machine) execProgram(prog Program, ctx context) commandResult {
	res := commandResult(errExitCode(m.Env.Status()))

	for _, l := range prog {
		res = m.execList(l, ctx)
		if isFlow(res) {
			return res
		}
		res = m.reap(res, ctx)
		m.Env.SetStatus(res.ExitCode())
	}
	return res
}

// reap reports a diagnostic result on standard error and flattens it to
// a plain exit status.  Failures never abort the surrounding program.
func (m *Machine) reap(res commandResult, ctx context) commandResult {
	if _, ok := res.(shellError); ok {
		fmt.Fprintf(ctx.err, "posh: %s\n", res)
		return errExitCode(res.ExitCode())
	}
	return res
}

func (m *Machine) execList(l List, ctx context) commandResult {
	if l.Async {
		return m.execAsync(l, ctx)
	}
	return m.execListSeq(l, ctx)
}

func (m *Machine) execListSeq(l List, ctx context) commandResult {
	if l.Lhs == nil {
		return m.execPipeline(l.Rhs, ctx)
	}

	res := m.execListSeq(*l.Lhs, ctx)
	if isFlow(res) {
		return res
	}
	res = m.reap(res, ctx)
	ec := res.ExitCode()
	m.Env.SetStatus(ec)

	if l.Op == LAnd && ec == 0 || l.Op == LOr && ec != 0 {
		return m.execPipeline(l.Rhs, ctx)
	}
	return res
}

// execAsync launches l in the background and reports success.  A single
// external command is spawned directly so that ‘$!’ can name its process;
// anything more complex runs in a subshell goroutine.
func (m *Machine) execAsync(l List, ctx context) commandResult {
	if cmd, ok := asyncSpawnable(l); ok {
		argv := make([]string, 0, len(cmd.Args))
		for _, w := range cmd.Args {
			fields, res := m.expandWord(w, ctx)
			if res != nil {
				return res
			}
			argv = append(argv, fields...)
		}

		if len(argv) > 0 && !m.isShellCommand(argv[0]) {
			c := exec.Command(argv[0], argv[1:]...)
			c.Stdin, c.Stdout, c.Stderr = ctx.in, ctx.out, ctx.err
			c.Env = m.Env.Environ()
			if err := c.Start(); err != nil {
				return m.spawnError(argv[0], err)
			}
			m.jobs = append(m.jobs, c)
			m.Env.SetBgPid(c.Process.Pid)
			return errExitCode(0)
		}
	}

	sub := m.subshell()
	l.Async = false
	m.bg.Add(1)
	go func() {
		defer m.bg.Done()
		res := sub.execList(l, ctx)
		if !isFlow(res) {
			sub.reap(res, ctx)
		}
	}()
	return errExitCode(0)
}

func asyncSpawnable(l List) (*Simple, bool) {
	if l.Lhs != nil || len(l.Rhs) != 1 {
		return nil, false
	}
	cmd, ok := l.Rhs[0].(*Simple)
	if !ok || len(cmd.Assigns) > 0 || len(cmd.Redirs()) > 0 {
		return nil, false
	}
	return cmd, true
}

func (m *Machine) isShellCommand(name string) bool {
	if _, ok := m.funcs[name]; ok {
		return true
	}
	_, ok := builtins[name]
	return ok
}

// execPipeline connects the commands with pipes and runs each in its own
// goroutine.  Every stage of a multi-command pipeline executes in a
// subshell, so assignments made inside one do not survive it; the status
// of the pipeline is the status of its last command.
func (m *Machine) execPipeline(pl Pipeline, ctx context) commandResult {
	n := len(pl)
	if n == 1 {
		return m.execCommand(pl[0], ctx)
	}

	machines := make([]*Machine, n)
	ctxs := make([]context, n)
	for i := range pl {
		machines[i] = m.subshell()
		ctxs[i] = ctx
	}

	for i := range pl[:n-1] {
		r, w, err := os.Pipe()
		if err != nil {
			return errInternal{err}
		}
		ctxs[i+0].out = w
		ctxs[i+1].in = r
	}

	results := make([]commandResult, n)
	wg := sync.WaitGroup{}
	wg.Add(n)

	for i := range pl {
		go func(i int) {
			defer wg.Done()
			results[i] = machines[i].execCommand(pl[i], ctxs[i])
			if i > 0 {
				ctxs[i].in.(*os.File).Close()
			}
			if i < n-1 {
				ctxs[i].out.(*os.File).Close()
			}
		}(i)
	}
	wg.Wait()

	for _, res := range results[:n-1] {
		m.reap(res, ctx)
	}
	res := results[n-1]
	if isFlow(res) {
		// ‘exit’ in a pipeline stage only leaves its subshell
		res = errExitCode(res.ExitCode())
	}
	return res
}

func (m *Machine) execCommand(cmd Command, ctx context) commandResult {
	for _, r := range cmd.Redirs() {
		fields, res := m.expandWord(r.File, ctx)
		if res != nil {
			return res
		}
		if len(fields) != 1 {
			return errRedirect{len(fields)}
		}
		name := fields[0]

		switch r.Type {
		case RedirAppend:
			fp, err := m.Fs.OpenFile(name, appendFlags, 0666)
			if err != nil {
				return errInternal{err}
			}
			defer fp.Close()
			ctx.out = fp
		case RedirWrite:
			fp, err := m.Fs.Create(name)
			if err != nil {
				return errInternal{err}
			}
			defer fp.Close()
			ctx.out = fp
		case RedirRead:
			fp, err := m.Fs.Open(name)
			if err != nil {
				return errInternal{err}
			}
			defer fp.Close()
			ctx.in = fp
		default:
			panic("unreachable")
		}
	}

	switch cmd := cmd.(type) {
	case *Simple:
		return m.execSimple(cmd, ctx)
	case *If:
		return m.execIf(cmd, ctx)
	case *While:
		return m.execWhile(cmd, ctx)
	case *For:
		return m.execFor(cmd, ctx)
	case *Case:
		return m.execCase(cmd, ctx)
	case *Subshell:
		return m.execSubshell(cmd, ctx)
	case *FuncDef:
		return m.execFuncDef(cmd)
	}
	panic("unreachable")
}

func (m *Machine) execIf(cmd *If, ctx context) commandResult {
	res := m.execProgram(cmd.Cond, ctx)
	if isFlow(res) {
		return res
	}
	if !failed(res) {
		return m.execProgram(cmd.Body, ctx)
	}
	if cmd.Else == nil {
		return errExitCode(0)
	}
	return m.execProgram(cmd.Else, ctx)
}

func (m *Machine) execWhile(cmd *While, ctx context) commandResult {
	last := commandResult(errExitCode(0))
	for {
		res := m.execProgram(cmd.Cond, ctx)
		if isFlow(res) {
			return res
		}
		if failed(res) {
			return last
		}

		last = m.execProgram(cmd.Body, ctx)
		if isFlow(last) {
			return last
		}
	}
}

func (m *Machine) execFor(cmd *For, ctx context) commandResult {
	var words []string
	if cmd.In {
		for _, w := range cmd.Words {
			fields, res := m.expandWord(w, ctx)
			if res != nil {
				return res
			}
			words = append(words, fields...)
		}
	} else {
		words = m.Env.Params()
	}

	last := commandResult(errExitCode(0))
	for _, w := range words {
		m.Env.Set(cmd.Name, w)
		last = m.execProgram(cmd.Body, ctx)
		if isFlow(last) {
			return last
		}
	}
	return last
}

func (m *Machine) execCase(cmd *Case, ctx context) commandResult {
	subject, res := m.expandWordFlat(cmd.Word, ctx)
	if res != nil {
		return res
	}

	for _, cl := range cmd.Clauses {
		for _, w := range cl.Patterns {
			pat, res := m.expandWordPattern(w, ctx)
			if res != nil {
				return res
			}
			if Match(pat, subject) {
				return m.execProgram(cl.Body, ctx)
			}
		}
	}
	return errExitCode(0)
}

func (m *Machine) execSubshell(cmd *Subshell, ctx context) commandResult {
	sub := m.subshell()
	res := sub.execProgram(cmd.Body, ctx)
	if isFlow(res) {
		// ‘exit’ and ‘return’ stop at the subshell boundary
		res = errExitCode(res.ExitCode())
	}
	return res
}

func (m *Machine) execFuncDef(cmd *FuncDef) commandResult {
	m.funcs[cmd.Name] = cmd.Body
	return errExitCode(0)
}

func (m *Machine) execSimple(cmd *Simple, ctx context) commandResult {
	argv := make([]string, 0, len(cmd.Args))
	for _, w := range cmd.Args {
		fields, res := m.expandWord(w, ctx)
		if res != nil {
			return res
		}
		argv = append(argv, fields...)
	}

	// A command that is only assignments mutates the current environment
	if len(argv) == 0 {
		for _, a := range cmd.Assigns {
			val, res := m.expandWordFlat(a.Value, ctx)
			if res != nil {
				return res
			}
			m.Env.Set(a.Name, val)
		}
		return errExitCode(0)
	}

	if prog, ok := m.funcs[argv[0]]; ok {
		if res := m.applyAssigns(cmd.Assigns, ctx); res != nil {
			return res
		}
		return m.callFunc(prog, argv, ctx)
	}
	if f, ok := builtins[argv[0]]; ok {
		if res := m.applyAssigns(cmd.Assigns, ctx); res != nil {
			return res
		}
		return f(m, ctx, argv[1:])
	}

	c := exec.Command(argv[0], argv[1:]...)
	c.Stdin, c.Stdout, c.Stderr = ctx.in, ctx.out, ctx.err
	c.Env = m.Env.Environ()
	for _, a := range cmd.Assigns {
		val, res := m.expandWordFlat(a.Value, ctx)
		if res != nil {
			return res
		}
		c.Env = append(c.Env, a.Name+"="+val)
	}

	switch err := c.Run().(type) {
	case nil:
		return errExitCode(0)
	case *exec.ExitError:
		return errExitCode(uint8(err.ExitCode()))
	default:
		return m.spawnError(argv[0], err)
	}
}

func (m *Machine) spawnError(name string, err error) commandResult {
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return errNotFound(name)
	case errors.Is(err, os.ErrPermission):
		return errNoPerm(name)
	}
	return errInternal{err}
}

// applyAssigns handles assignment prefixes on function and builtin calls,
// which simply land in the current environment.
func (m *Machine) applyAssigns(assigns []Assign, ctx context) commandResult {
	for _, a := range assigns {
		val, res := m.expandWordFlat(a.Value, ctx)
		if res != nil {
			return res
		}
		m.Env.Set(a.Name, val)
	}
	return nil
}

// callFunc runs a function body with the positional parameters bound to
// the call arguments.  ‘$0’ keeps its outer value.
func (m *Machine) callFunc(body Program, argv []string, ctx context) commandResult {
	m.Env.PushFrame(argv[1:])
	m.depth++
	res := m.execProgram(body, ctx)
	m.depth--
	m.Env.PopFrame()

	if r, ok := res.(errReturn); ok {
		res = errExitCode(uint8(r))
	}
	return res
}
