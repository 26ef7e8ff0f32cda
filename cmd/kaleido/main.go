package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/mattn/go-isatty"
	"github.com/peterh/liner"
	"nikand.dev/go/cli"
	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/kaleidolang/kaleido/compiler"
	"github.com/kaleidolang/kaleido/repl"
)

const historyFile = ".kaleido_history"

func main() {
	replCmd := &cli.Command{
		Name:        "repl",
		Description: "interactive session",
		Action:      replAct,
	}

	runCmd := &cli.Command{
		Name:        "run",
		Description: "evaluate files with the session loop",
		Action:      runAct,
		Args:        cli.Args{},
	}

	parseCmd := &cli.Command{
		Name:        "parse",
		Description: "dump abstract syntax trees",
		Action:      parseAct,
		Args:        cli.Args{},
	}

	compileCmd := &cli.Command{
		Name:        "compile",
		Description: "compile files to ir without executing",
		Action:      compileAct,
		Args:        cli.Args{},
	}

	app := &cli.Command{
		Name:        "kaleido",
		Description: "kaleido is an interactive compiler for the kaleido expression language",
		Action:      replAct,
		Commands: []*cli.Command{
			replCmd,
			runCmd,
			parseCmd,
			compileCmd,
		},
	}

	cli.RunAndExit(app, os.Args, os.Environ())
}

func replAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	if !isatty.IsTerminal(os.Stdin.Fd()) {
		s := repl.New(os.Stdin, os.Stderr, os.Stdout)
		s.Prompt = ""

		return s.Run(ctx)
	}

	ln := liner.NewLiner()
	defer ln.Close()

	ln.SetCtrlCAborts(true)

	hist := historyPath()

	if f, err := os.Open(hist); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}

	defer func() {
		if f, e := os.Create(hist); e == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	s := repl.New(newLinerReader(ln, "ready> "), os.Stderr, os.Stdout)
	s.Prompt = "" // liner draws the prompt

	return s.Run(ctx)
}

func runAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		f, err := os.Open(a)
		if err != nil {
			return errors.Wrap(err, "open %v", a)
		}

		s := repl.New(f, os.Stderr, os.Stdout)
		s.Prompt = ""

		err = s.Run(ctx)

		_ = f.Close()

		if err != nil {
			return errors.Wrap(err, "run %v", a)
		}
	}

	return nil
}

func parseAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		items, err := compiler.ParseFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "parse %v", a)
		}

		for _, x := range items {
			fmt.Printf("ast: %+v\n", x)
		}
	}

	return nil
}

func compileAct(c *cli.Command) (err error) {
	ctx := context.Background()
	ctx = tlog.ContextWithSpan(ctx, tlog.Root())

	for _, a := range c.Args {
		m, err := compiler.CompileFile(ctx, a)
		if err != nil {
			return errors.Wrap(err, "compile %v", a)
		}

		fmt.Printf("%s", m.String())
	}

	return nil
}

func historyPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return historyFile
	}

	return filepath.Join(home, historyFile)
}

type linerReader struct {
	ln     *liner.State
	prompt string

	buf []byte
	eof bool
}

// newLinerReader adapts line-edited input to the character-stream contract
// the lexer expects.
func newLinerReader(ln *liner.State, prompt string) *linerReader {
	return &linerReader{ln: ln, prompt: prompt}
}

func (r *linerReader) Read(p []byte) (n int, err error) {
	for len(r.buf) == 0 {
		if r.eof {
			return 0, io.EOF
		}

		line, err := r.ln.Prompt(r.prompt)
		if err == io.EOF {
			r.eof = true
			return 0, io.EOF
		}
		if err == liner.ErrPromptAborted {
			// Ctrl-C drops the pending line
			continue
		}
		if err != nil {
			return 0, err
		}

		if strings.TrimSpace(line) != "" {
			r.ln.AppendHistory(line)
		}

		r.buf = append(r.buf, line...)
		r.buf = append(r.buf, '\n')
	}

	n = copy(p, r.buf)
	r.buf = r.buf[n:]

	return n, nil
}
