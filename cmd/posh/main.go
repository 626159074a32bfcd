package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"git.sr.ht/~sircmpwn/getopt"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/spf13/afero"

	"git.sr.ht/~mango/posh/log"
	"git.sr.ht/~mango/posh/parser"
	"git.sr.ht/~mango/posh/vm"
)

func main() {
	command := ""
	noexec := false

	opts, optind, err := getopt.Getopts(os.Args, "c:n")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Usage: %s [-n] [-c command] [file [args...]]\n",
			os.Args[0])
		os.Exit(2)
	}
	for _, opt := range opts {
		switch opt.Option {
		case 'c':
			command = opt.Value
		case 'n':
			noexec = true
		}
	}
	args := os.Args[optind:]

	switch {
	case command != "":
		name0, params := "posh", []string{}
		if len(args) > 0 {
			name0, params = args[0], args[1:]
		}
		os.Exit(runString(command, name0, params, noexec))
	case len(args) > 0:
		data, err := os.ReadFile(args[0])
		if err != nil {
			log.Fatal("%s", err)
		}
		os.Exit(runString(string(data), args[0], args[1:], noexec))
	default:
		repl(noexec)
	}
}

func newMachine(name0 string, params []string) *vm.Machine {
	m := vm.New(afero.NewOsFs(), os.Environ(), name0, params)
	m.Parse = parser.Parse
	return m
}

func runString(src, name0 string, params []string, noexec bool) int {
	prog, err := parser.Parse(src)
	if err != nil {
		log.Err("%s", err)
		return 2
	}
	if noexec {
		return 0
	}
	return int(newMachine(name0, params).Run(prog))
}

func repl(noexec bool) {
	m := newMachine("posh", nil)

	if home, err := os.UserHomeDir(); err == nil {
		if data, err := os.ReadFile(filepath.Join(home, ".poshrc")); err == nil {
			if prog, err := parser.Parse(string(data)); err != nil {
				log.Err("%s", err)
			} else {
				m.Run(prog)
			}
		}
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt(0),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		log.Fatal("%s", err)
	}
	defer rl.Close()

	for {
		rl.SetPrompt(prompt(m.Env.Status()))
		line, err := rl.Readline()
		switch err {
		case nil:
		case readline.ErrInterrupt:
			continue
		default:
			return
		}
		if strings.TrimSpace(line) == "" {
			continue
		}

		prog, err := parser.Parse(line)
		if err != nil {
			log.Err("%s", err)
			m.Env.SetStatus(2)
			continue
		}
		if !noexec {
			m.Run(prog)
		}
	}
}

func prompt(status uint8) string {
	if status == 0 {
		return color.GreenString("posh> ")
	}
	return color.RedString("[%d] posh> ", status)
}
