package parser

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaleidolang/kaleido/compiler/ast"
	"github.com/kaleidolang/kaleido/compiler/lexer"
)

func newParser(src string) *Parser {
	p := New(lexer.New(strings.NewReader(src)))
	p.Advance() // step over the initial ';' separator

	return p
}

func parseExpr(t *testing.T, src string) ast.Expr {
	t.Helper()

	x, err := newParser(src).ParseExpression(context.Background())
	require.NoError(t, err)

	return x
}

func TestPrecedence(t *testing.T) {
	x := parseExpr(t, "1+2*3")

	// * binds tighter: 1 + (2 * 3)
	add, ok := x.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, byte('+'), add.Op)
	assert.Equal(t, &ast.Number{Val: 1}, add.LHS)

	mul, ok := add.RHS.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, byte('*'), mul.Op)
	assert.Equal(t, &ast.Number{Val: 2}, mul.LHS)
	assert.Equal(t, &ast.Number{Val: 3}, mul.RHS)
}

func TestParens(t *testing.T) {
	x := parseExpr(t, "(1+2)*3")

	mul, ok := x.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, byte('*'), mul.Op)

	add, ok := mul.LHS.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, byte('+'), add.Op)
	assert.Equal(t, &ast.Number{Val: 3}, mul.RHS)
}

func TestLeftAssociativity(t *testing.T) {
	x := parseExpr(t, "10-2-3")

	// equal precedence binds left to right: (10 - 2) - 3
	outer, ok := x.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, byte('-'), outer.Op)
	assert.Equal(t, &ast.Number{Val: 3}, outer.RHS)

	inner, ok := outer.LHS.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, &ast.Number{Val: 10}, inner.LHS)
	assert.Equal(t, &ast.Number{Val: 2}, inner.RHS)
}

func TestCall(t *testing.T) {
	x := parseExpr(t, "foo(1, bar, 2+3)")

	call, ok := x.(*ast.Call)
	require.True(t, ok)
	assert.Equal(t, "foo", call.Callee)
	require.Len(t, call.Args, 3)
	assert.Equal(t, &ast.Variable{Name: "bar"}, call.Args[1])
}

func TestCallMissingComma(t *testing.T) {
	_, err := newParser("foo(1 2)").ParseExpression(context.Background())
	require.ErrorContains(t, err, "expected ')' or ','")
}

func TestIf(t *testing.T) {
	x := parseExpr(t, "if a < b then a else b")

	ifx, ok := x.(*ast.If)
	require.True(t, ok)

	cond, ok := ifx.Cond.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, byte('<'), cond.Op)
	assert.Equal(t, &ast.Variable{Name: "a"}, ifx.Then)
	assert.Equal(t, &ast.Variable{Name: "b"}, ifx.Else)
}

func TestIfClausesMandatory(t *testing.T) {
	_, err := newParser("if 1 else 2").ParseExpression(context.Background())
	require.ErrorContains(t, err, "expected then")

	_, err = newParser("if 1 then 2").ParseExpression(context.Background())
	require.ErrorContains(t, err, "expected else")
}

func TestFor(t *testing.T) {
	x := parseExpr(t, "for i = 1, i < 10, 2 in i")

	f, ok := x.(*ast.For)
	require.True(t, ok)
	assert.Equal(t, "i", f.Var)
	assert.Equal(t, &ast.Number{Val: 1}, f.Start)
	assert.Equal(t, &ast.Number{Val: 2}, f.Step)
	assert.Equal(t, &ast.Variable{Name: "i"}, f.Body)
}

func TestForStepOptional(t *testing.T) {
	x := parseExpr(t, "for i = 1, i < 10 in i")

	f, ok := x.(*ast.For)
	require.True(t, ok)
	assert.Nil(t, f.Step)
}

func TestForErrors(t *testing.T) {
	ctx := context.Background()

	_, err := newParser("for 1 = 1, 2 in 3").ParseExpression(ctx)
	require.ErrorContains(t, err, "expected identifier after for")

	_, err = newParser("for i 1, 2 in 3").ParseExpression(ctx)
	require.ErrorContains(t, err, "expected '=' after for")

	_, err = newParser("for i = 1 in 3").ParseExpression(ctx)
	require.ErrorContains(t, err, "expected ',' after for start value")

	_, err = newParser("for i = 1, 2 3").ParseExpression(ctx)
	require.ErrorContains(t, err, "expected 'in' after for")
}

func TestPrototype(t *testing.T) {
	p := newParser("foo(a b c)")

	proto, err := p.ParsePrototype(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "foo", proto.Name)
	assert.Equal(t, []string{"a", "b", "c"}, proto.Params)
}

func TestDefinition(t *testing.T) {
	p := newParser("def add(a b) a+b")

	fn, err := p.ParseDefinition(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "add", fn.Proto.Name)
	assert.False(t, fn.Anonymous())

	body, ok := fn.Body.(*ast.Binary)
	require.True(t, ok)
	assert.Equal(t, byte('+'), body.Op)
}

func TestExtern(t *testing.T) {
	p := newParser("extern sin(x)")

	proto, err := p.ParseExtern(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "sin", proto.Name)
	assert.Equal(t, []string{"x"}, proto.Params)
}

func TestTopLevelExprIsAnonymous(t *testing.T) {
	p := newParser("1+2")

	fn, err := p.ParseTopLevelExpr(context.Background())
	require.NoError(t, err)
	assert.True(t, fn.Anonymous())
	assert.Empty(t, fn.Proto.Params)
}

func TestUnknownOperatorStopsExpression(t *testing.T) {
	p := newParser("1 @ 2")

	x, err := p.ParseExpression(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &ast.Number{Val: 1}, x)

	// the unknown operator is left unconsumed for the driver to resync on
	assert.Equal(t, lexer.Token{Kind: lexer.Char, Char: '@'}, p.Cur())
}
