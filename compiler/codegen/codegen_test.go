package codegen

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaleidolang/kaleido/compiler/ast"
	"github.com/kaleidolang/kaleido/compiler/ir"
)

func num(v float64) ast.Expr     { return &ast.Number{Val: v} }
func variable(n string) ast.Expr { return &ast.Variable{Name: n} }

func bin(op byte, l, r ast.Expr) ast.Expr {
	return &ast.Binary{Op: op, LHS: l, RHS: r}
}

func fn(name string, params []string, body ast.Expr) *ast.Function {
	return &ast.Function{
		Proto: &ast.Prototype{Name: name, Params: params},
		Body:  body,
	}
}

func TestNumberAndBinary(t *testing.T) {
	ctx := context.Background()

	u := NewSession().NewUnit("test")

	f, err := u.Function(ctx, fn("seven", nil, bin('+', num(1), bin('*', num(2), num(3)))))
	require.NoError(t, err)
	require.NoError(t, f.Verify())

	text := f.String()
	assert.Contains(t, text, "fmul")
	assert.Contains(t, text, "fadd")
	assert.Contains(t, text, "ret")
}

func TestUnknownVariable(t *testing.T) {
	ctx := context.Background()

	u := NewSession().NewUnit("test")

	_, err := u.Function(ctx, fn("f", []string{"x"}, variable("y")))
	require.ErrorContains(t, err, "unknown variable name: y")

	// the half-built definition is discarded from the unit
	assert.Nil(t, u.Module().Func("f"))
}

func TestInvalidOperator(t *testing.T) {
	ctx := context.Background()

	u := NewSession().NewUnit("test")

	_, err := u.Function(ctx, fn("f", nil, bin('|', num(1), num(2))))
	require.ErrorContains(t, err, "invalid binary operator")
}

func TestUnknownFunction(t *testing.T) {
	ctx := context.Background()

	u := NewSession().NewUnit("test")

	_, err := u.Function(ctx, fn("f", nil, &ast.Call{Callee: "nope"}))
	require.ErrorContains(t, err, "unknown function referenced: nope")
}

func TestArityMismatch(t *testing.T) {
	ctx := context.Background()

	sess := NewSession()
	u := sess.NewUnit("test")

	u.Extern(ctx, &ast.Prototype{Name: "two", Params: []string{"a", "b"}})

	_, err := u.Function(ctx, fn("f", nil, &ast.Call{Callee: "two", Args: []ast.Expr{num(1)}}))
	require.ErrorContains(t, err, "incorrect number of arguments")
}

func TestCallResolvesThroughRegistry(t *testing.T) {
	ctx := context.Background()

	sess := NewSession()

	// the prototype is recorded in one unit...
	sess.NewUnit("a").Extern(ctx, &ast.Prototype{Name: "foo", Params: []string{"x"}})

	// ...and resolves in a later, unrelated unit
	u := sess.NewUnit("b")

	f, err := u.Function(ctx, fn("g", nil, &ast.Call{Callee: "foo", Args: []ast.Expr{num(1)}}))
	require.NoError(t, err)
	assert.Contains(t, f.String(), "call @foo")

	// resolving declared foo into the unit
	decl := u.Module().Func("foo")
	require.NotNil(t, decl)
	assert.True(t, decl.Declaration())
}

func TestRegistryLastWriteWins(t *testing.T) {
	ctx := context.Background()

	sess := NewSession()

	sess.NewUnit("a").Extern(ctx, &ast.Prototype{Name: "foo", Params: []string{"x"}})
	sess.NewUnit("b").Extern(ctx, &ast.Prototype{Name: "foo", Params: []string{"x", "y"}})

	require.Equal(t, []string{"x", "y"}, sess.Protos["foo"].Params)
}

func TestIfGeneratesDiamond(t *testing.T) {
	ctx := context.Background()

	u := NewSession().NewUnit("test")

	body := &ast.If{Cond: num(1), Then: num(10), Else: num(20)}

	f, err := u.Function(ctx, fn("f", nil, body))
	require.NoError(t, err)
	require.NoError(t, f.Verify())

	// entry + then + else + merge
	require.Len(t, f.Blocks, 4)

	var phis int
	for _, x := range f.Instrs {
		if p, ok := x.(ir.Phi); ok {
			phis++
			assert.Len(t, p, 2)
		}
	}
	assert.Equal(t, 1, phis)
}

func TestForShadowsAndRestoresLoopVariable(t *testing.T) {
	ctx := context.Background()

	u := NewSession().NewUnit("test")

	// body: (for x = 1, x < 3 in x) + x  -- the trailing x must be the
	// parameter again once the loop closes
	loop := &ast.For{
		Var:   "x",
		Start: num(1),
		End:   bin('<', variable("x"), num(3)),
		Body:  variable("x"),
	}

	f, err := u.Function(ctx, fn("f", []string{"x"}, bin('+', loop, variable("x"))))
	require.NoError(t, err)
	require.NoError(t, f.Verify())

	var ret ir.Ret
	for _, x := range f.Instrs {
		if r, ok := x.(ir.Ret); ok {
			ret = r
		}
	}

	add, ok := f.Instrs[ret.X].(ir.FAdd)
	require.True(t, ok)
	assert.Equal(t, f.ParamValue(0), add.R, "restored binding must be the parameter")
}

func TestForRemovesFreshLoopVariable(t *testing.T) {
	ctx := context.Background()

	u := NewSession().NewUnit("test")

	// i exists only inside the loop; referencing it after is an error
	loop := &ast.For{Var: "i", Start: num(1), End: num(0), Body: variable("i")}

	_, err := u.Function(ctx, fn("f", nil, bin('+', loop, variable("i"))))
	require.ErrorContains(t, err, "unknown variable name: i")
}

func TestDuplicateParamsShadow(t *testing.T) {
	ctx := context.Background()

	u := NewSession().NewUnit("test")

	f, err := u.Function(ctx, fn("f", []string{"x", "x"}, variable("x")))
	require.NoError(t, err)

	var ret ir.Ret
	for _, x := range f.Instrs {
		if r, ok := x.(ir.Ret); ok {
			ret = r
		}
	}

	// the later parameter shadows the earlier one
	assert.Equal(t, f.ParamValue(1), ret.X)
}

func TestRedefinitionWithinUnitRejected(t *testing.T) {
	ctx := context.Background()

	u := NewSession().NewUnit("test")

	_, err := u.Function(ctx, fn("f", nil, num(1)))
	require.NoError(t, err)

	_, err = u.Function(ctx, fn("f", nil, num(2)))
	require.ErrorContains(t, err, "cannot be redefined")
}
