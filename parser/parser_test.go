package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"git.sr.ht/~mango/posh/vm"
)

func parse(t *testing.T, src string) vm.Program {
	t.Helper()
	prog, err := Parse(src)
	require.NoError(t, err)
	return prog
}

func simple(t *testing.T, pipe vm.Pipeline, i int) *vm.Simple {
	t.Helper()
	require.Greater(t, len(pipe), i)
	cmd, ok := pipe[i].(*vm.Simple)
	require.True(t, ok, "expected a simple command")
	return cmd
}

func TestSimpleCommand(t *testing.T) {
	prog := parse(t, "echo hello world")
	require.Len(t, prog, 1)

	cmd := simple(t, prog[0].Rhs, 0)
	want := []vm.Word{
		{vm.Lit("echo")},
		{vm.Lit("hello")},
		{vm.Lit("world")},
	}
	require.Equal(t, want, cmd.Args)
}

func TestAssignments(t *testing.T) {
	prog := parse(t, "FOO=bar BAZ= env")
	cmd := simple(t, prog[0].Rhs, 0)

	require.Equal(t, []vm.Assign{
		{Name: "FOO", Value: vm.Word{vm.Lit("bar")}},
		{Name: "BAZ"},
	}, cmd.Assigns)
	require.Equal(t, []vm.Word{{vm.Lit("env")}}, cmd.Args)
}

func TestAssignmentOnly(t *testing.T) {
	prog := parse(t, "x=42")
	cmd := simple(t, prog[0].Rhs, 0)
	require.Len(t, cmd.Assigns, 1)
	require.Empty(t, cmd.Args)
}

func TestPipeline(t *testing.T) {
	prog := parse(t, "a | b |\n c")
	require.Len(t, prog, 1)
	require.Len(t, prog[0].Rhs, 3)
}

func TestAndOrAssociativity(t *testing.T) {
	prog := parse(t, "a && b || c")
	require.Len(t, prog, 1)

	list := prog[0]
	require.Equal(t, vm.LOr, list.Op)
	require.NotNil(t, list.Lhs)
	require.Equal(t, vm.LAnd, list.Lhs.Op)
	require.NotNil(t, list.Lhs.Lhs)
	require.Nil(t, list.Lhs.Lhs.Lhs)
}

func TestAsync(t *testing.T) {
	prog := parse(t, "sleep 5 &\necho done")
	require.Len(t, prog, 2)
	require.True(t, prog[0].Async)
	require.False(t, prog[1].Async)
}

func TestIfElifElse(t *testing.T) {
	prog := parse(t, `
if a; then
	echo a
elif b; then
	echo b
else
	echo c
fi`)
	require.Len(t, prog, 1)

	cmd, ok := prog[0].Rhs[0].(*vm.If)
	require.True(t, ok)
	require.Len(t, cmd.Cond, 1)
	require.Len(t, cmd.Body, 1)
	require.Len(t, cmd.Else, 1)

	elif, ok := cmd.Else[0].Rhs[0].(*vm.If)
	require.True(t, ok)
	require.Len(t, elif.Else, 1)
}

func TestWhile(t *testing.T) {
	prog := parse(t, "while test -e lock; do sleep 1; done")
	cmd, ok := prog[0].Rhs[0].(*vm.While)
	require.True(t, ok)
	require.Len(t, cmd.Cond, 1)
	require.Len(t, cmd.Body, 1)
}

func TestForIn(t *testing.T) {
	prog := parse(t, "for x in a b c; do echo $x; done")
	cmd, ok := prog[0].Rhs[0].(*vm.For)
	require.True(t, ok)
	require.Equal(t, "x", cmd.Name)
	require.True(t, cmd.In)
	require.Len(t, cmd.Words, 3)
}

func TestForOverParams(t *testing.T) {
	prog := parse(t, "for arg; do echo $arg; done")
	cmd, ok := prog[0].Rhs[0].(*vm.For)
	require.True(t, ok)
	require.False(t, cmd.In)
	require.Empty(t, cmd.Words)
}

func TestCase(t *testing.T) {
	prog := parse(t, `
case $x in
	a | b) echo ab ;;
	(*) echo other
esac`)
	cmd, ok := prog[0].Rhs[0].(*vm.Case)
	require.True(t, ok)
	require.Len(t, cmd.Clauses, 2)
	require.Len(t, cmd.Clauses[0].Patterns, 2)
	require.Len(t, cmd.Clauses[1].Patterns, 1)
}

func TestSubshell(t *testing.T) {
	prog := parse(t, "(cd /tmp; pwd) > out")
	cmd, ok := prog[0].Rhs[0].(*vm.Subshell)
	require.True(t, ok)
	require.Len(t, cmd.Body, 2)
	require.Len(t, cmd.Redirs(), 1)
}

func TestFuncDef(t *testing.T) {
	prog := parse(t, "greet() {\n\techo hello $1\n}")
	cmd, ok := prog[0].Rhs[0].(*vm.FuncDef)
	require.True(t, ok)
	require.Equal(t, "greet", cmd.Name)
	require.Len(t, cmd.Body, 1)
}

func TestVarRefOps(t *testing.T) {
	prog := parse(t, `echo ${x:-fallback} ${y:=default} ${1:-}`)
	cmd := simple(t, prog[0].Rhs, 0)
	require.Len(t, cmd.Args, 4)

	vr := cmd.Args[1][0].(*vm.VarRef)
	require.Equal(t, "x", vr.Name)
	require.Equal(t, vm.OpDefault, vr.Op)
	require.Equal(t, vm.Word{vm.Lit("fallback")}, vr.Word)

	vr = cmd.Args[2][0].(*vm.VarRef)
	require.Equal(t, "y", vr.Name)
	require.Equal(t, vm.OpAssign, vr.Op)

	vr = cmd.Args[3][0].(*vm.VarRef)
	require.Equal(t, "1", vr.Name)
	require.Equal(t, vm.OpDefault, vr.Op)
	require.Empty(t, vr.Word)
}

func TestQuotedVarIsFlat(t *testing.T) {
	prog := parse(t, `echo "$x" $x`)
	cmd := simple(t, prog[0].Rhs, 0)

	quoted := cmd.Args[1][1].(*vm.VarRef)
	require.True(t, quoted.Quoted)
	bare := cmd.Args[2][0].(*vm.VarRef)
	require.False(t, bare.Quoted)
}

func TestCmdSub(t *testing.T) {
	prog := parse(t, "echo $(date | head)")
	cmd := simple(t, prog[0].Rhs, 0)

	cs, ok := cmd.Args[1][0].(*vm.CmdSub)
	require.True(t, ok)
	require.False(t, cs.Quoted)
	require.Len(t, cs.Prog, 1)
	require.Len(t, cs.Prog[0].Rhs, 2)
}

func TestArgsAfterRedirect(t *testing.T) {
	prog := parse(t, "echo >out hi there")
	cmd := simple(t, prog[0].Rhs, 0)
	require.Len(t, cmd.Args, 3)
	require.Len(t, cmd.Redirs(), 1)
	require.Equal(t, vm.RedirWrite, cmd.Redirs()[0].Type)
}

func TestErrors(t *testing.T) {
	for _, src := range []string{
		"if true; then echo",
		"while x; do",
		"case x in a) echo",
		"for 1x in a; do :; done",
		"| foo",
		"foo() echo",
		"echo 'unterminated",
		"echo $((1+2))",
		"echo ${x:-a b}",
	} {
		if _, err := Parse(src); err == nil {
			t.Errorf("Expected a parse error for %q", src)
		}
	}
}
