package compiler

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/kaleidolang/kaleido/compiler/ast"
	"github.com/kaleidolang/kaleido/compiler/codegen"
	"github.com/kaleidolang/kaleido/compiler/ir"
	"github.com/kaleidolang/kaleido/compiler/lexer"
	"github.com/kaleidolang/kaleido/compiler/parser"
)

// Batch entry points: a whole file compiled into one unit, errors strict.
// The interactive unit-per-item loop lives in the repl package.

func CompileFile(ctx context.Context, name string) (*ir.Module, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	tlog.SpanFromContext(ctx).Printw("read file", "size", len(text), "name", name)

	return Compile(ctx, name, text)
}

// Compile translates every top-level item of text into a single module
// without executing anything. Unlike the session loop, the first error
// aborts.
func Compile(ctx context.Context, name string, text []byte) (*ir.Module, error) {
	p := parser.New(lexer.New(bytes.NewReader(text)))

	sess := codegen.NewSession()
	u := sess.NewUnit(name)

	anon := 0

	for {
		switch tok := p.Cur(); {
		case tok.Kind == lexer.EOF:
			return u.Module(), nil
		case tok.Kind == lexer.Char && tok.Char == ';':
			p.Advance()
		case tok.Kind == lexer.Def:
			fn, err := p.ParseDefinition(ctx)
			if err != nil {
				return nil, errors.Wrap(err, "parse definition")
			}

			_, err = u.Function(ctx, fn)
			if err != nil {
				return nil, errors.Wrap(err, "codegen %v", fn.Proto.Name)
			}
		case tok.Kind == lexer.Extern:
			proto, err := p.ParseExtern(ctx)
			if err != nil {
				return nil, errors.Wrap(err, "parse extern")
			}

			u.Extern(ctx, proto)
		default:
			fn, err := p.ParseTopLevelExpr(ctx)
			if err != nil {
				return nil, errors.Wrap(err, "parse expression")
			}

			// all expressions share one unit here, so each needs its
			// own name
			fn.Proto.Name = fmt.Sprintf("%s.%d", ast.AnonName, anon)
			anon++

			_, err = u.Function(ctx, fn)
			if err != nil {
				return nil, errors.Wrap(err, "codegen expression")
			}
		}
	}
}

// ParseFile returns the file's top-level items (*ast.Function and
// *ast.Prototype) without generating code.
func ParseFile(ctx context.Context, name string) ([]any, error) {
	text, err := os.ReadFile(name)
	if err != nil {
		return nil, errors.Wrap(err, "read file")
	}

	return Parse(ctx, name, text)
}

func Parse(ctx context.Context, name string, text []byte) (items []any, err error) {
	p := parser.New(lexer.New(bytes.NewReader(text)))

	for {
		switch tok := p.Cur(); {
		case tok.Kind == lexer.EOF:
			return items, nil
		case tok.Kind == lexer.Char && tok.Char == ';':
			p.Advance()
		case tok.Kind == lexer.Def:
			fn, err := p.ParseDefinition(ctx)
			if err != nil {
				return nil, errors.Wrap(err, "parse definition")
			}

			items = append(items, fn)
		case tok.Kind == lexer.Extern:
			proto, err := p.ParseExtern(ctx)
			if err != nil {
				return nil, errors.Wrap(err, "parse extern")
			}

			items = append(items, proto)
		default:
			fn, err := p.ParseTopLevelExpr(ctx)
			if err != nil {
				return nil, errors.Wrap(err, "parse expression")
			}

			items = append(items, fn)
		}
	}
}
