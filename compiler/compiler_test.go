package compiler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kaleidolang/kaleido/compiler/ast"
)

func TestCompile(t *testing.T) {
	ctx := context.Background()

	src := []byte(`
# library
extern printd(x)

def twice(x) x*2

twice(21)
printd(4)
`)

	m, err := Compile(ctx, "test", src)
	require.NoError(t, err)

	text := m.String()
	assert.Contains(t, text, "declare @printd(x)")
	assert.Contains(t, text, "define @twice(x)")
	assert.Contains(t, text, "define @__anon_expr.0()")
	assert.Contains(t, text, "define @__anon_expr.1()")

	t.Logf("ir:\n%s", text)
}

func TestCompileError(t *testing.T) {
	ctx := context.Background()

	_, err := Compile(ctx, "test", []byte("def f(x) y"))
	require.ErrorContains(t, err, "unknown variable name")
}

func TestParse(t *testing.T) {
	ctx := context.Background()

	items, err := Parse(ctx, "test", []byte("extern sin(x)\ndef f(x) sin(x)\n1+2\n"))
	require.NoError(t, err)
	require.Len(t, items, 3)

	_, ok := items[0].(*ast.Prototype)
	assert.True(t, ok)

	fn, ok := items[1].(*ast.Function)
	require.True(t, ok)
	assert.Equal(t, "f", fn.Proto.Name)

	anon, ok := items[2].(*ast.Function)
	require.True(t, ok)
	assert.True(t, anon.Anonymous())
}

func TestParseError(t *testing.T) {
	ctx := context.Background()

	_, err := Parse(ctx, "test", []byte("def ("))
	require.ErrorContains(t, err, "expected function name in prototype")
}
