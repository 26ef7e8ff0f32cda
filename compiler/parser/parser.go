package parser

import (
	"context"

	"tlog.app/go/errors"
	"tlog.app/go/tlog"

	"github.com/kaleidolang/kaleido/compiler/ast"
	"github.com/kaleidolang/kaleido/compiler/lexer"
)

type (
	// Parser is a recursive-descent parser with precedence climbing for
	// binary operators. It owns the single token of lookahead shared with
	// the lexer and the mutable operator precedence table.
	// Not safe for concurrent use.
	Parser struct {
		lex *lexer.Lexer
		tok lexer.Token

		prec map[byte]int
	}
)

// DefaultPrecedence returns the operator table installed by New.
// Higher value binds tighter; entries at or below zero are not operators.
func DefaultPrecedence() map[byte]int {
	return map[byte]int{
		'<': 10,
		'>': 10,
		'+': 20,
		'-': 20,
		'*': 40,
		'/': 40,
	}
}

// New returns a parser over the lexer's token stream. The lookahead starts
// as a ';' separator so that nothing is read from the stream until the
// driver advances past it; the interactive prompt is printed first.
func New(l *lexer.Lexer) *Parser {
	return &Parser{
		lex:  l,
		tok:  lexer.Token{Kind: lexer.Char, Char: ';'},
		prec: DefaultPrecedence(),
	}
}

// Cur returns the current lookahead token without consuming it.
func (p *Parser) Cur() lexer.Token { return p.tok }

// Advance pulls the next token from the lexer into the lookahead.
func (p *Parser) Advance() lexer.Token {
	p.tok = p.lex.Next()
	return p.tok
}

// Precedence returns the binding strength of the current token, or -1 if it
// is not a binary operator.
func (p *Parser) Precedence() int {
	if p.tok.Kind != lexer.Char {
		return -1
	}

	prec, ok := p.prec[p.tok.Char]
	if !ok || prec <= 0 {
		return -1
	}

	return prec
}

// ParseExpression parses primary binoprhs.
func (p *Parser) ParseExpression(ctx context.Context) (ast.Expr, error) {
	lhs, err := p.parsePrimary(ctx)
	if err != nil {
		return nil, err
	}

	return p.parseBinOpRHS(ctx, 0, lhs)
}

// parseBinOpRHS absorbs operator-expression pairs into lhs while their
// precedence is at least min. A following operator that binds strictly
// tighter takes the freshly parsed primary as its own lhs first; equal
// precedence resolves left to right.
func (p *Parser) parseBinOpRHS(ctx context.Context, min int, lhs ast.Expr) (ast.Expr, error) {
	for {
		prec := p.Precedence()
		if prec < min {
			return lhs, nil
		}

		op := p.tok.Char
		p.Advance()

		rhs, err := p.parsePrimary(ctx)
		if err != nil {
			return nil, err
		}

		if next := p.Precedence(); prec < next {
			rhs, err = p.parseBinOpRHS(ctx, prec+1, rhs)
			if err != nil {
				return nil, err
			}
		}

		lhs = &ast.Binary{Op: op, LHS: lhs, RHS: rhs}
	}
}

func (p *Parser) parsePrimary(ctx context.Context) (ast.Expr, error) {
	switch {
	case p.tok.Kind == lexer.Number:
		x := &ast.Number{Val: p.tok.Num}
		p.Advance()

		return x, nil
	case p.tok.Kind == lexer.Ident:
		return p.parseIdentifier(ctx)
	case p.tok.Kind == lexer.If:
		return p.parseIf(ctx)
	case p.tok.Kind == lexer.For:
		return p.parseFor(ctx)
	case p.isChar('('):
		return p.parseParen(ctx)
	default:
		return nil, errors.New("unknown token when expecting an expression: %v", p.tok)
	}
}

func (p *Parser) parseParen(ctx context.Context) (ast.Expr, error) {
	p.Advance() // eat (

	x, err := p.ParseExpression(ctx)
	if err != nil {
		return nil, err
	}

	if !p.isChar(')') {
		return nil, errors.New("expected ')'")
	}

	p.Advance()

	return x, nil
}

// parseIdentifier parses a variable reference or, when the identifier is
// immediately followed by '(', a call with comma-separated arguments.
func (p *Parser) parseIdentifier(ctx context.Context) (ast.Expr, error) {
	name := p.tok.Text
	p.Advance() // eat identifier

	if !p.isChar('(') {
		return &ast.Variable{Name: name}, nil
	}

	p.Advance() // eat (

	var args []ast.Expr

	if !p.isChar(')') {
		for {
			arg, err := p.ParseExpression(ctx)
			if err != nil {
				return nil, err
			}

			args = append(args, arg)

			if p.isChar(')') {
				break
			}

			if !p.isChar(',') {
				return nil, errors.New("expected ')' or ',' in argument list")
			}

			p.Advance()
		}
	}

	p.Advance() // eat )

	return &ast.Call{Callee: name, Args: args}, nil
}

// parseIf parses 'if' expression 'then' expression 'else' expression.
// All three clauses are mandatory.
func (p *Parser) parseIf(ctx context.Context) (ast.Expr, error) {
	p.Advance() // eat if

	cond, err := p.ParseExpression(ctx)
	if err != nil {
		return nil, err
	}

	if p.tok.Kind != lexer.Then {
		return nil, errors.New("expected then")
	}

	p.Advance()

	then, err := p.ParseExpression(ctx)
	if err != nil {
		return nil, err
	}

	if p.tok.Kind != lexer.Else {
		return nil, errors.New("expected else")
	}

	p.Advance()

	els, err := p.ParseExpression(ctx)
	if err != nil {
		return nil, err
	}

	return &ast.If{Cond: cond, Then: then, Else: els}, nil
}

// parseFor parses 'for' ident '=' expr ',' expr (',' expr)? 'in' expr.
func (p *Parser) parseFor(ctx context.Context) (ast.Expr, error) {
	p.Advance() // eat for

	if p.tok.Kind != lexer.Ident {
		return nil, errors.New("expected identifier after for")
	}

	name := p.tok.Text
	p.Advance()

	if !p.isChar('=') {
		return nil, errors.New("expected '=' after for")
	}

	p.Advance()

	start, err := p.ParseExpression(ctx)
	if err != nil {
		return nil, err
	}

	if !p.isChar(',') {
		return nil, errors.New("expected ',' after for start value")
	}

	p.Advance()

	end, err := p.ParseExpression(ctx)
	if err != nil {
		return nil, err
	}

	var step ast.Expr

	if p.isChar(',') {
		p.Advance()

		step, err = p.ParseExpression(ctx)
		if err != nil {
			return nil, err
		}
	}

	if p.tok.Kind != lexer.In {
		return nil, errors.New("expected 'in' after for")
	}

	p.Advance()

	body, err := p.ParseExpression(ctx)
	if err != nil {
		return nil, err
	}

	return &ast.For{Var: name, Start: start, End: end, Step: step, Body: body}, nil
}

// ParsePrototype parses id '(' id* ')'. Parameter names are separated by
// whitespace, not commas.
func (p *Parser) ParsePrototype(ctx context.Context) (*ast.Prototype, error) {
	if p.tok.Kind != lexer.Ident {
		return nil, errors.New("expected function name in prototype")
	}

	name := p.tok.Text
	p.Advance()

	if !p.isChar('(') {
		return nil, errors.New("expected '(' in prototype")
	}

	var params []string

	for {
		tk := p.Advance()
		if tk.Kind != lexer.Ident {
			break
		}

		params = append(params, tk.Text)
	}

	if !p.isChar(')') {
		return nil, errors.New("expected ')' in prototype")
	}

	p.Advance() // eat )

	return &ast.Prototype{Name: name, Params: params}, nil
}

// ParseDefinition parses 'def' prototype expression.
func (p *Parser) ParseDefinition(ctx context.Context) (*ast.Function, error) {
	p.Advance() // eat def

	proto, err := p.ParsePrototype(ctx)
	if err != nil {
		return nil, err
	}

	body, err := p.ParseExpression(ctx)
	if err != nil {
		return nil, err
	}

	tlog.SpanFromContext(ctx).V("parse").Printw("definition", "name", proto.Name, "params", proto.Params)

	return &ast.Function{Proto: proto, Body: body}, nil
}

// ParseExtern parses 'extern' prototype.
func (p *Parser) ParseExtern(ctx context.Context) (*ast.Prototype, error) {
	p.Advance() // eat extern

	return p.ParsePrototype(ctx)
}

// ParseTopLevelExpr parses a bare expression and wraps it as the body of an
// anonymous zero-argument function.
func (p *Parser) ParseTopLevelExpr(ctx context.Context) (*ast.Function, error) {
	body, err := p.ParseExpression(ctx)
	if err != nil {
		return nil, err
	}

	proto := &ast.Prototype{Name: ast.AnonName}

	return &ast.Function{Proto: proto, Body: body}, nil
}

func (p *Parser) isChar(c byte) bool {
	return p.tok.Kind == lexer.Char && p.tok.Char == c
}
