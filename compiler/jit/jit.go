package jit

import (
	"context"
	"io"
	"os"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/kaleidolang/kaleido/compiler/ir"
)

type (
	// Engine links compilation units and resolves symbols to callable
	// functions. Linked code is executed by evaluating its IR. Definitions
	// added later shadow earlier ones with the same name: callees are
	// resolved at invocation time, so calls dispatch to the newest body.
	// Not safe for concurrent use.
	Engine struct {
		funcs map[string]*ir.Func
		host  map[string]HostFunc

		out io.Writer
	}

	// HostFunc is a native callback reachable by name from generated code.
	HostFunc func(x float64) float64

	// ResourceTracker owns the symbols one tracked unit contributed.
	// Remove unlinks exactly those, so one-shot units do not accumulate.
	ResourceTracker struct {
		e     *Engine
		names []string
	}

	// Callable invokes a linked function with the given arguments.
	Callable func(ctx context.Context, args ...float64) (float64, error)
)

// New returns an engine with the host callback surface pre-registered:
// putchard writes the byte of its argument, printd prints its argument as a
// fixed-precision float; both return 0.
func New() *Engine {
	e := &Engine{
		funcs: make(map[string]*ir.Func),
		host:  make(map[string]HostFunc),
		out:   os.Stdout,
	}

	e.RegisterHost("putchard", e.putchard)
	e.RegisterHost("printd", e.printd)

	return e
}

// SetOutput redirects the host callbacks' output.
func (e *Engine) SetOutput(w io.Writer) { e.out = w }

// RegisterHost makes f reachable from generated code under name.
func (e *Engine) RegisterHost(name string, f HostFunc) {
	e.host[name] = f
}

// AddModule links the unit's definitions into the engine. Declarations are
// skipped: they resolve against the engine's symbol table when called.
func (e *Engine) AddModule(ctx context.Context, m *ir.Module) error {
	_, err := e.add(ctx, m, false)
	return err
}

// AddModuleTracked links the unit under a resource tracker whose Remove
// unloads the unit's symbols again.
func (e *Engine) AddModuleTracked(ctx context.Context, m *ir.Module) (*ResourceTracker, error) {
	return e.add(ctx, m, true)
}

func (e *Engine) add(ctx context.Context, m *ir.Module, tracked bool) (rt *ResourceTracker, err error) {
	tr, _ := tlog.SpawnFromContextAndWrap(ctx, "jit: add unit", "unit", m.Name, "tracked", tracked)
	defer tr.Finish("err", &err)

	err = m.Verify()
	if err != nil {
		return nil, errors.Wrap(err, "verify")
	}

	if tracked {
		rt = &ResourceTracker{e: e}
	}

	for _, f := range m.Funcs {
		if f.Declaration() {
			continue
		}

		e.funcs[f.Name] = f

		if rt != nil {
			rt.names = append(rt.names, f.Name)
		}
	}

	return rt, nil
}

// Remove unlinks the symbols the tracked unit added. Safe to call once the
// unit's results have been read; repeated calls are no-ops.
func (rt *ResourceTracker) Remove() {
	for _, name := range rt.names {
		delete(rt.e.funcs, name)
	}

	rt.names = nil
}

// Lookup resolves a symbol's runtime entry point by name.
func (e *Engine) Lookup(name string) (Callable, error) {
	if f, ok := e.funcs[name]; ok {
		return func(ctx context.Context, args ...float64) (float64, error) {
			return e.call(ctx, f, args)
		}, nil
	}

	if h, ok := e.host[name]; ok {
		return func(ctx context.Context, args ...float64) (float64, error) {
			return e.callHost(name, h, args)
		}, nil
	}

	return nil, errors.New("symbol not found: %v", name)
}

// dispatch resolves a callee at invocation time: linked definitions first,
// then the host callback surface.
func (e *Engine) dispatch(ctx context.Context, name string, args []float64) (float64, error) {
	if f, ok := e.funcs[name]; ok {
		return e.call(ctx, f, args)
	}

	if h, ok := e.host[name]; ok {
		return e.callHost(name, h, args)
	}

	return 0, errors.New("symbol not found: %v", name)
}

func (e *Engine) callHost(name string, h HostFunc, args []float64) (float64, error) {
	if len(args) != 1 {
		return 0, errors.New("incorrect number of arguments passed: %v takes 1, given %d", name, len(args))
	}

	return h(args[0]), nil
}
