package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"git.sr.ht/~mango/posh/parser"
	"git.sr.ht/~mango/posh/vm"
)

// runScript interprets testdata/<name>.sh in-process and returns its
// combined output.
func runScript(t *testing.T, name string, params []string) []byte {
	t.Helper()

	src, err := os.ReadFile(filepath.Join("testdata", name+".sh"))
	require.NoError(t, err)
	prog, err := parser.Parse(string(src))
	require.NoError(t, err)

	m := vm.New(afero.NewOsFs(), []string{
		"PATH=" + os.Getenv("PATH"),
	}, name+".sh", params)
	m.Parse = parser.Parse

	out := bytes.Buffer{}
	m.In = strings.NewReader("")
	m.Out, m.Err = &out, &out
	m.Run(prog)
	return out.Bytes()
}

func TestScripts(t *testing.T) {
	g := goldie.New(t, goldie.WithDiffEngine(goldie.ColoredDiff))

	for _, tc := range []struct {
		name   string
		params []string
	}{
		{"quoting", nil},
		{"control", nil},
		{"functions", []string{"alpha", "beta gamma", "delta"}},
		{"expansion", nil},
		{"errors", nil},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g.Assert(t, tc.name, runScript(t, tc.name, tc.params))
		})
	}
}
