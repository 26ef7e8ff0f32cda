package codegen

import (
	"context"
	"fmt"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/kaleidolang/kaleido/compiler/ast"
	"github.com/kaleidolang/kaleido/compiler/ir"
)

type (
	// Session is the state that survives across compilation units: the
	// prototype registry. A name referenced by a later unit resolves
	// against the most recently seen prototype, so units compiled earlier
	// and already handed off stay callable. Not safe for concurrent use.
	Session struct {
		Protos map[string]*ast.Prototype
	}

	// Unit translates AST into one ir.Module. The driver opens a fresh
	// Unit per top-level item; units are never reused after hand-off.
	Unit struct {
		sess *Session

		mod *ir.Module
		b   *ir.Builder

		// vars maps parameter and loop-variable names to their values,
		// valid only while one function body is being generated.
		vars map[string]ir.Value
	}
)

func NewSession() *Session {
	return &Session{
		Protos: make(map[string]*ast.Prototype),
	}
}

// NewUnit opens an empty compilation unit named name.
func (s *Session) NewUnit(name string) *Unit {
	m := ir.NewModule(name)

	return &Unit{
		sess: s,
		mod:  m,
		b:    ir.NewBuilder(m),
		vars: make(map[string]ir.Value),
	}
}

func (u *Unit) Module() *ir.Module { return u.mod }

// Function generates a def or a wrapped top-level expression. The
// function's prototype is recorded in the registry first, so the body may
// refer to the function itself and later units may call it. On body failure
// the half-built definition is removed from the unit and the registry entry
// is kept, matching the original's recovery behavior.
func (u *Unit) Function(ctx context.Context, fn *ast.Function) (f *ir.Func, err error) {
	tr, ctx := tlog.SpawnFromContextAndWrap(ctx, "codegen func", "name", fn.Proto.Name)
	defer tr.Finish("err", &err)

	u.sess.Protos[fn.Proto.Name] = fn.Proto

	f = u.lookupFunc(fn.Proto.Name)

	if !f.Declaration() {
		return nil, errors.New("function cannot be redefined: %v", fn.Proto.Name)
	}

	entry := u.b.NewBlock(f)
	u.b.SetInsert(f, entry)

	u.vars = make(map[string]ir.Value, len(f.Params))
	for i := range f.Params {
		u.vars[f.Params[i]] = f.ParamValue(i) // duplicates shadow
	}

	ret, err := u.Expr(ctx, fn.Body)
	if err != nil {
		u.mod.RemoveFunc(f.Name)
		return nil, errors.Wrap(err, "body")
	}

	u.b.Ret(ret)

	err = f.Verify()
	if err != nil {
		u.mod.RemoveFunc(f.Name)
		return nil, errors.Wrap(err, "verify")
	}

	if tr.If("dump_func") {
		tr.Printw("generated", "name", f.Name, "ir", f.String())
	}

	return f, nil
}

// Extern records the prototype in the registry and declares it in the
// current unit. No linking happens: the declaration resolves when called.
func (u *Unit) Extern(ctx context.Context, p *ast.Prototype) *ir.Func {
	u.sess.Protos[p.Name] = p

	if f := u.mod.Func(p.Name); f != nil {
		return f
	}

	return u.declare(p)
}

// Expr generates code for one expression node and returns the value it
// produces. Exactly one backend value per node; the first failure aborts
// the whole subtree.
func (u *Unit) Expr(ctx context.Context, e ast.Expr) (ir.Value, error) {
	switch e := e.(type) {
	case *ast.Number:
		return u.b.Const(e.Val), nil
	case *ast.Variable:
		v, ok := u.vars[e.Name]
		if !ok {
			return ir.Nil, errors.New("unknown variable name: %v", e.Name)
		}

		return v, nil
	case *ast.Binary:
		return u.binary(ctx, e)
	case *ast.Call:
		return u.call(ctx, e)
	case *ast.If:
		return u.ifExpr(ctx, e)
	case *ast.For:
		return u.forExpr(ctx, e)
	default:
		panic(fmt.Sprintf("unsupported node: %T", e))
	}
}

func (u *Unit) binary(ctx context.Context, e *ast.Binary) (ir.Value, error) {
	l, err := u.Expr(ctx, e.LHS)
	if err != nil {
		return ir.Nil, err
	}

	r, err := u.Expr(ctx, e.RHS)
	if err != nil {
		return ir.Nil, err
	}

	switch e.Op {
	case '+':
		return u.b.FAdd(l, r), nil
	case '-':
		return u.b.FSub(l, r), nil
	case '*':
		return u.b.FMul(l, r), nil
	case '<':
		cmp := u.b.FCmpULT(l, r)

		// widen bool 0/1 to 0.0/1.0
		return u.b.UIToFP(cmp), nil
	default:
		return ir.Nil, errors.New("invalid binary operator: %c", e.Op)
	}
}

func (u *Unit) call(ctx context.Context, e *ast.Call) (ir.Value, error) {
	callee := u.lookupFunc(e.Callee)
	if callee == nil {
		return ir.Nil, errors.New("unknown function referenced: %v", e.Callee)
	}

	if len(callee.Params) != len(e.Args) {
		return ir.Nil, errors.New("incorrect number of arguments passed: %v takes %d, given %d",
			e.Callee, len(callee.Params), len(e.Args))
	}

	args := make([]ir.Value, len(e.Args))

	for i, a := range e.Args {
		v, err := u.Expr(ctx, a)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "argument %d", i)
		}

		args[i] = v
	}

	return u.b.Call(callee.Name, args), nil
}

// ifExpr lowers the expression-if to a diamond: the condition is compared
// not-equal to 0, each branch generates its value and jumps to a merge
// block, and a two-input phi keyed by the originating blocks joins them.
func (u *Unit) ifExpr(ctx context.Context, e *ast.If) (ir.Value, error) {
	cond, err := u.Expr(ctx, e.Cond)
	if err != nil {
		return ir.Nil, errors.Wrap(err, "cond")
	}

	zero := u.b.Const(0)
	condv := u.b.FCmpONE(cond, zero)

	f := u.b.Func()

	thenBB := u.b.NewBlock(f)
	elseBB := u.b.NewBlock(f)
	mergeBB := u.b.NewBlock(f)

	u.b.CondBr(condv, thenBB.Label, elseBB.Label)

	u.b.SetInsert(f, thenBB)

	thenV, err := u.Expr(ctx, e.Then)
	if err != nil {
		return ir.Nil, errors.Wrap(err, "then")
	}

	u.b.Br(mergeBB.Label)

	// generating the branch may have moved the insertion point; the phi
	// is keyed by the block the value actually arrives from
	thenEnd := u.b.InsertBlock().Label

	u.b.SetInsert(f, elseBB)

	elseV, err := u.Expr(ctx, e.Else)
	if err != nil {
		return ir.Nil, errors.Wrap(err, "else")
	}

	u.b.Br(mergeBB.Label)
	elseEnd := u.b.InsertBlock().Label

	u.b.SetInsert(f, mergeBB)

	phi := u.b.Phi(
		ir.PhiIncoming{Block: thenEnd, Value: thenV},
		ir.PhiIncoming{Block: elseEnd, Value: elseV},
	)

	return phi, nil
}

// forExpr lowers the loop to a header block whose induction value is a phi
// merged over the pre-loop edge and the back edge. The loop variable is
// bound to the induction value while the body (and the step and end
// expressions) generate, shadowing and then restoring any outer binding of
// the same name. The loop itself always yields 0.
func (u *Unit) forExpr(ctx context.Context, e *ast.For) (ir.Value, error) {
	start, err := u.Expr(ctx, e.Start)
	if err != nil {
		return ir.Nil, errors.Wrap(err, "start")
	}

	f := u.b.Func()
	pre := u.b.InsertBlock().Label

	loopBB := u.b.NewBlock(f)
	u.b.Br(loopBB.Label)
	u.b.SetInsert(f, loopBB)

	ind := u.b.Phi(ir.PhiIncoming{Block: pre, Value: start})

	old, shadowed := u.vars[e.Var]
	u.vars[e.Var] = ind

	defer func() {
		if shadowed {
			u.vars[e.Var] = old
		} else {
			delete(u.vars, e.Var)
		}
	}()

	// body value is discarded; the loop runs for effect only
	_, err = u.Expr(ctx, e.Body)
	if err != nil {
		return ir.Nil, errors.Wrap(err, "body")
	}

	var step ir.Value

	if e.Step != nil {
		step, err = u.Expr(ctx, e.Step)
		if err != nil {
			return ir.Nil, errors.Wrap(err, "step")
		}
	} else {
		step = u.b.Const(1)
	}

	next := u.b.FAdd(ind, step)

	endv, err := u.Expr(ctx, e.End)
	if err != nil {
		return ir.Nil, errors.Wrap(err, "end")
	}

	zero := u.b.Const(0)
	cond := u.b.FCmpONE(endv, zero)

	loopEnd := u.b.InsertBlock().Label
	after := u.b.NewBlock(f)

	u.b.CondBr(cond, loopBB.Label, after.Label)
	u.b.SetInsert(f, after)

	u.b.AddIncoming(ind, loopEnd, next)

	return u.b.Const(0), nil
}

// lookupFunc resolves a callee: first against the currently open unit, then
// against the prototype registry, declaring the function into the unit from
// the stored prototype. Nil if the name is unknown on both paths.
func (u *Unit) lookupFunc(name string) *ir.Func {
	if f := u.mod.Func(name); f != nil {
		return f
	}

	if p, ok := u.sess.Protos[name]; ok {
		return u.declare(p)
	}

	return nil
}

func (u *Unit) declare(p *ast.Prototype) *ir.Func {
	return u.b.NewFunc(p.Name, p.Params)
}
