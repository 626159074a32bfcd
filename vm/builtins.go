package vm

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"git.sr.ht/~mango/posh/pkg/stringsx"
)

type builtin func(m *Machine, ctx context, args []string) commandResult

var builtins map[string]builtin

// The map is populated in init because eval and ‘.’ re-enter the
// executor, which consults the map again.
func init() {
	builtins = map[string]builtin{
		":":      builtinColon,
		".":      builtinDot,
		"[":      builtinBracket,
		"cd":     builtinCd,
		"echo":   builtinEcho,
		"eval":   builtinEval,
		"exit":   builtinExit,
		"export": builtinExport,
		"false":  builtinFalse,
		"read":   builtinRead,
		"return": builtinReturn,
		"shift":  builtinShift,
		"test":   builtinTest,
		"true":   builtinTrue,
		"unset":  builtinUnset,
		"wait":   builtinWait,
	}
}

func builtinColon(_ *Machine, _ context, _ []string) commandResult {
	return errExitCode(0)
}

func builtinTrue(_ *Machine, _ context, _ []string) commandResult {
	return errExitCode(0)
}

func builtinFalse(_ *Machine, _ context, _ []string) commandResult {
	return errExitCode(1)
}

func builtinEcho(_ *Machine, ctx context, args []string) commandResult {
	nl := "\n"
	if len(args) > 0 && args[0] == "-n" {
		nl = ""
		args = args[1:]
	}
	fmt.Fprint(ctx.out, strings.Join(args, " ")+nl)
	return errExitCode(0)
}

func builtinCd(m *Machine, ctx context, args []string) commandResult {
	var dir string
	print := false

	switch {
	case len(args) == 0:
		if dir, _ = m.Env.Lookup("HOME"); dir == "" {
			var err error
			if dir, err = os.UserHomeDir(); err != nil {
				return cmdErrorf("cd", 1, "%s", err)
			}
		}
	case len(args) > 1:
		return cmdErrorf("cd", 2, "too many arguments")
	case args[0] == "-":
		var ok bool
		if dir, ok = m.Env.Lookup("OLDPWD"); !ok {
			return cmdErrorf("cd", 1, "OLDPWD not set")
		}
		print = true
	default:
		dir = args[0]
	}

	old, _ := os.Getwd()
	if err := os.Chdir(dir); err != nil {
		return cmdErrorf("cd", 1, "%s", err)
	}
	wd, _ := os.Getwd()
	m.Env.Set("OLDPWD", old)
	m.Env.Set("PWD", wd)
	if print {
		fmt.Fprintln(ctx.out, wd)
	}
	return errExitCode(0)
}

func builtinShift(m *Machine, _ context, args []string) commandResult {
	n := 1
	switch {
	case len(args) > 1:
		return cmdErrorf("shift", 2, "too many arguments")
	case len(args) == 1:
		var err error
		if n, err = strconv.Atoi(args[0]); err != nil {
			return cmdErrorf("shift", 2, "‘%s’ is not a number", args[0])
		}
	}

	if !m.Env.Shift(n) {
		return cmdErrorf("shift", 1, "shift count out of range")
	}
	return errExitCode(0)
}

func builtinExit(m *Machine, _ context, args []string) commandResult {
	code, res := statusArg("exit", m, args)
	if res != nil {
		return res
	}
	return errExit(code)
}

func builtinReturn(m *Machine, _ context, args []string) commandResult {
	if m.depth == 0 {
		return cmdErrorf("return", 2, "can only return from a function")
	}
	code, res := statusArg("return", m, args)
	if res != nil {
		return res
	}
	return errReturn(code)
}

func statusArg(cmd string, m *Machine, args []string) (uint8, commandResult) {
	switch {
	case len(args) > 1:
		return 0, cmdErrorf(cmd, 2, "too many arguments")
	case len(args) == 0:
		return m.Env.Status(), nil
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, cmdErrorf(cmd, 2, "‘%s’ is not a number", args[0])
	}
	return uint8(n), nil
}

func builtinExport(m *Machine, _ context, args []string) commandResult {
	// Every variable is passed to child processes already, so exporting
	// reduces to assignment.
	for _, a := range args {
		name, val := a, ""
		if i := strings.IndexByte(a, '='); i != -1 {
			name, val = a[:i], a[i+1:]
		} else if _, ok := m.Env.Lookup(name); ok {
			continue
		}
		if !isName(name) {
			return cmdErrorf("export", 1, "‘%s’ is not a valid name", name)
		}
		m.Env.Set(name, val)
	}
	return errExitCode(0)
}

func builtinUnset(m *Machine, _ context, args []string) commandResult {
	for _, name := range args {
		if !isName(name) {
			return cmdErrorf("unset", 1, "‘%s’ is not a valid name", name)
		}
		m.Env.Unset(name)
	}
	return errExitCode(0)
}

func builtinWait(m *Machine, _ context, _ []string) commandResult {
	for _, c := range m.jobs {
		c.Wait()
	}
	m.jobs = nil
	m.bg.Wait()
	return errExitCode(0)
}

// builtinRead reads one line from standard input and splits it into the
// named variables; the last one receives the remainder of the line.  It
// reads a byte at a time so that later commands see the rest of the
// stream.
func builtinRead(m *Machine, ctx context, args []string) commandResult {
	if len(args) == 0 {
		args = []string{"REPLY"}
	}
	for _, name := range args {
		if !isName(name) {
			return cmdErrorf("read", 2, "‘%s’ is not a valid name", name)
		}
	}

	line, err := readLine(ctx.in)
	fields := stringsx.Fields(line, m.ifs())

	for i, name := range args {
		switch {
		case i == len(args)-1 && len(fields) > len(args):
			m.Env.Set(name, strings.Join(fields[i:], " "))
		case i < len(fields):
			m.Env.Set(name, fields[i])
		default:
			m.Env.Set(name, "")
		}
	}

	if err != nil {
		return errExitCode(1)
	}
	return errExitCode(0)
}

func readLine(r io.Reader) (string, error) {
	sb := strings.Builder{}
	buf := make([]byte, 1)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if buf[0] == '\n' {
				return sb.String(), nil
			}
			sb.WriteByte(buf[0])
		}
		if err != nil {
			return sb.String(), err
		}
	}
}

// builtinDot runs a script in the current environment
func builtinDot(m *Machine, ctx context, args []string) commandResult {
	if len(args) != 1 {
		return cmdErrorf(".", 2, "expected a filename")
	}
	if m.Parse == nil {
		return cmdErrorf(".", 1, "sourcing is not available")
	}

	data, err := afero.ReadFile(m.Fs, args[0])
	if err != nil {
		return cmdErrorf(".", 1, "%s", err)
	}
	prog, err := m.Parse(string(data))
	if err != nil {
		return cmdErrorf(".", 2, "%s: %s", args[0], err)
	}

	res := m.execProgram(prog, ctx)
	if r, ok := res.(errReturn); ok {
		res = errExitCode(uint8(r))
	}
	return res
}

func builtinEval(m *Machine, ctx context, args []string) commandResult {
	src := strings.Join(args, " ")
	if strings.TrimSpace(src) == "" {
		return errExitCode(0)
	}
	if m.Parse == nil {
		return cmdErrorf("eval", 1, "evaluation is not available")
	}

	prog, err := m.Parse(src)
	if err != nil {
		return cmdErrorf("eval", 2, "%s", err)
	}
	return m.execProgram(prog, ctx)
}

func builtinTest(m *Machine, _ context, args []string) commandResult {
	ok, res := evalTest(m, args)
	if res != nil {
		return res
	}
	if ok {
		return errExitCode(0)
	}
	return errExitCode(1)
}

func builtinBracket(m *Machine, ctx context, args []string) commandResult {
	if len(args) == 0 || args[len(args)-1] != "]" {
		return cmdErrorf("[", 2, "missing closing ‘]’")
	}
	return builtinTest(m, ctx, args[:len(args)-1])
}
