package vm

import "fmt"

type commandResult interface {
	error
	ExitCode() uint8
}

type errExitCode uint8

func (e errExitCode) ExitCode() uint8 {
	return uint8(e)
}

func (_ errExitCode) Error() string {
	return ""
}

type errInternal struct {
	e error
}

func (e errInternal) ExitCode() uint8 {
	return 1
}

func (e errInternal) Error() string {
	return e.e.Error()
}

type errNotFound string

func (e errNotFound) ExitCode() uint8 {
	return 127
}

func (e errNotFound) Error() string {
	return fmt.Sprintf("%s: not found", string(e))
}

type errNoPerm string

func (e errNoPerm) ExitCode() uint8 {
	return 126
}

func (e errNoPerm) Error() string {
	return fmt.Sprintf("%s: permission denied", string(e))
}

type errRedirect struct {
	n int // Number of fields the target expanded to
}

func (e errRedirect) ExitCode() uint8 {
	return 1
}

func (e errRedirect) Error() string {
	return fmt.Sprintf("ambiguous redirect; expected 1 filename but got %d",
		e.n)
}

// errCmd is a diagnostic raised by a builtin or during expansion.  It is
// reported on standard error and turned into an exit status; it never
// aborts the script.
type errCmd struct {
	cmd  string
	msg  string
	code uint8
}

func (e errCmd) ExitCode() uint8 {
	return e.code
}

func (e errCmd) Error() string {
	return e.cmd + ": " + e.msg
}

func cmdErrorf(cmd string, code uint8, format string, args ...any) commandResult {
	return errCmd{cmd, fmt.Sprintf(format, args...), code}
}

// errExit and errReturn unwind the interpreter on ‘exit’ and ‘return’.
// They carry the requested status and are not diagnostics.
type errExit uint8

func (e errExit) ExitCode() uint8 {
	return uint8(e)
}

func (_ errExit) Error() string {
	return ""
}

type errReturn uint8

func (e errReturn) ExitCode() uint8 {
	return uint8(e)
}

func (_ errReturn) Error() string {
	return ""
}

// shellError marks results that carry a message the user should see
type shellError interface {
	isShellError()
}

func (_ errInternal) isShellError() {}
func (_ errNotFound) isShellError() {}
func (_ errNoPerm) isShellError()   {}
func (_ errRedirect) isShellError() {}
func (_ errCmd) isShellError()      {}

func failed(res commandResult) bool {
	return res.ExitCode() != 0
}

// isFlow reports whether res unwinds enclosing constructs rather than
// describing an exit status.
func isFlow(res commandResult) bool {
	switch res.(type) {
	case errExit, errReturn:
		return true
	}
	return false
}
