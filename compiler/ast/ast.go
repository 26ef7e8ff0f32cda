package ast

type (
	// Expr is the closed set of expression nodes. Every expression
	// evaluates to the language's single numeric type.
	Expr interface {
		expr()
	}

	Number struct {
		Val float64
	}

	Variable struct {
		Name string
	}

	Binary struct {
		Op       byte
		LHS, RHS Expr
	}

	Call struct {
		Callee string
		Args   []Expr
	}

	// If is an expression: both branches produce a value and the whole
	// node evaluates to the taken branch's value.
	If struct {
		Cond, Then, Else Expr
	}

	// For evaluates its body for effect only; the node itself always
	// evaluates to 0. Step is nil when the clause is omitted and then
	// defaults to 1 during code generation.
	For struct {
		Var   string
		Start Expr
		End   Expr
		Step  Expr
		Body  Expr
	}

	// Prototype is a function's name and parameter names, independent of
	// its body. Arity is implied by the parameter list. Doubles as a
	// forward declaration.
	Prototype struct {
		Name   string
		Params []string
	}

	Function struct {
		Proto *Prototype
		Body  Expr
	}
)

// AnonName is the reserved name under which a bare top-level expression is
// compiled and then looked up for immediate evaluation.
const AnonName = "__anon_expr"

// Anonymous reports whether the function is a wrapped top-level expression.
func (f *Function) Anonymous() bool {
	return f.Proto.Name == AnonName
}

func (*Number) expr()   {}
func (*Variable) expr() {}
func (*Binary) expr()   {}
func (*Call) expr()     {}
func (*If) expr()       {}
func (*For) expr()      {}
