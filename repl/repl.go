// Package repl drives the incremental compile-and-evaluate loop: one
// compilation unit per top-level input item, immediate invocation of
// anonymous expressions, and single-token resynchronization after errors.
package repl

import (
	"context"
	"fmt"
	"io"

	"tlog.app/go/tlog"

	"github.com/kaleidolang/kaleido/compiler/ast"
	"github.com/kaleidolang/kaleido/compiler/codegen"
	"github.com/kaleidolang/kaleido/compiler/jit"
	"github.com/kaleidolang/kaleido/compiler/lexer"
	"github.com/kaleidolang/kaleido/compiler/parser"
)

type (
	// Session owns the parser, the code generator state, the engine and
	// the currently open compilation unit. Diagnostics (prompts,
	// acknowledgements, errors) and results (IR dumps, evaluated values)
	// go to separate streams. Not safe for concurrent use; one Session per
	// input stream.
	Session struct {
		p    *parser.Parser
		sess *codegen.Session
		eng  *jit.Engine

		unit  *codegen.Unit
		units int

		// Prompt is written to Diag before each top-level item. Empty
		// disables it (the input source may draw its own).
		Prompt string

		Diag io.Writer
		Out  io.Writer
	}
)

// New returns a session reading from r. Host callback output and results go
// to out, prompts and errors to diag.
func New(r io.Reader, diag, out io.Writer) *Session {
	eng := jit.New()
	eng.SetOutput(out)

	return &Session{
		p:      parser.New(lexer.New(r)),
		sess:   codegen.NewSession(),
		eng:    eng,
		Prompt: "ready> ",
		Diag:   diag,
		Out:    out,
	}
}

// Run consumes top-level items until end of input. Malformed input never
// ends the session; the final (possibly empty) unit is dumped on EOF.
func (s *Session) Run(ctx context.Context) error {
	s.unit = s.sess.NewUnit(s.unitName())

	for {
		s.prompt()

		switch tok := s.p.Cur(); {
		case tok.Kind == lexer.EOF:
			fmt.Fprintf(s.Out, "%s", s.unit.Module().String())
			return nil
		case tok.Kind == lexer.Char && tok.Char == ';':
			// top-level separator
			s.p.Advance()
		case tok.Kind == lexer.Def:
			s.handleDefinition(ctx)
		case tok.Kind == lexer.Extern:
			s.handleExtern(ctx)
		default:
			s.handleTopLevel(ctx)
		}
	}
}

// handleDefinition compiles one def into the current unit, hands the unit
// to the engine and opens a fresh one. Named functions stay linked for the
// session's lifetime.
func (s *Session) handleDefinition(ctx context.Context) {
	fn, err := s.p.ParseDefinition(ctx)
	if err != nil {
		s.report(err)
		s.p.Advance() // resync
		return
	}

	fmt.Fprintf(s.Diag, "Parsed a function definition.\n")

	f, err := s.unit.Function(ctx, fn)
	if err != nil {
		s.report(err)
		return
	}

	fmt.Fprintf(s.Out, "%s", f.String())

	err = s.eng.AddModule(ctx, s.unit.Module())
	if err != nil {
		s.report(err)
		return
	}

	s.fresh()
}

// handleExtern records the prototype; nothing is linked and the current
// unit stays open.
func (s *Session) handleExtern(ctx context.Context) {
	proto, err := s.p.ParseExtern(ctx)
	if err != nil {
		s.report(err)
		s.p.Advance() // resync
		return
	}

	fmt.Fprintf(s.Diag, "Parsed an extern\n")

	f := s.unit.Extern(ctx, proto)

	fmt.Fprintf(s.Out, "%s", f.String())
}

// handleTopLevel wraps a bare expression as an anonymous zero-argument
// function, links it under a resource tracker, invokes it, prints the
// result and unloads it again.
func (s *Session) handleTopLevel(ctx context.Context) {
	fn, err := s.p.ParseTopLevelExpr(ctx)
	if err != nil {
		s.report(err)
		s.p.Advance() // resync
		return
	}

	fmt.Fprintf(s.Diag, "Parsed a top-level expr\n")

	f, err := s.unit.Function(ctx, fn)
	if err != nil {
		s.report(err)
		return
	}

	fmt.Fprintf(s.Out, "%s", f.String())

	rt, err := s.eng.AddModuleTracked(ctx, s.unit.Module())
	if err != nil {
		s.report(err)
		return
	}
	defer rt.Remove()

	s.fresh()

	call, err := s.eng.Lookup(ast.AnonName)
	if err != nil {
		s.report(err)
		return
	}

	v, err := call(ctx)
	if err != nil {
		s.report(err)
		return
	}

	fmt.Fprintf(s.Out, "Evaluated to %f\n", v)
}

func (s *Session) report(err error) {
	tlog.Root().V("repl").Printw("error", "err", err)

	fmt.Fprintf(s.Diag, "Error: %v\n", err)
}

func (s *Session) prompt() {
	if s.Prompt != "" {
		fmt.Fprintf(s.Diag, "%s", s.Prompt)
	}
}

func (s *Session) fresh() {
	s.units++
	s.unit = s.sess.NewUnit(s.unitName())
}

func (s *Session) unitName() string {
	return fmt.Sprintf("repl.%d", s.units)
}
