package parser

import (
	"fmt"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/iley/exprc/internal/ast"
	"github.com/iley/exprc/internal/lexer"
)

var (
	ErrUnclosedParen   = errors.New("expected closing parenthesis")
	ErrExpectedPrimary = errors.New("expected number or parenthesis")
	ErrTrailingInput   = errors.New("unexpected token after expression")
)

// ParseError points at the lexeme the parser could not accept.
type ParseError struct {
	Loc lexer.Location
	Got lexer.Lexeme
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s: %s, got %v", e.Loc, e.Err, e.Got)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type Option func(*Parser)

// WithTrailingInput makes the parser stop after the first complete
// expression and ignore whatever lexemes follow it.
func WithTrailingInput() Option {
	return func(p *Parser) {
		p.allowTrailing = true
	}
}

var equalityOps = map[lexer.TokenType]ast.Operator{
	lexer.LEX_EQ: ast.OpEq,
	lexer.LEX_NE: ast.OpNe,
}

var relationalOps = map[lexer.TokenType]ast.Operator{
	lexer.LEX_LT: ast.OpLt,
	lexer.LEX_LE: ast.OpLe,
	lexer.LEX_GT: ast.OpGt,
	lexer.LEX_GE: ast.OpGe,
}

var additiveOps = map[lexer.TokenType]ast.Operator{
	lexer.LEX_PLUS:  ast.OpAdd,
	lexer.LEX_MINUS: ast.OpSub,
}

var multiplicativeOps = map[lexer.TokenType]ast.Operator{
	lexer.LEX_STAR:  ast.OpMul,
	lexer.LEX_SLASH: ast.OpDiv,
}

type Parser struct {
	lexemes       []lexer.Lexeme
	pos           int
	allowTrailing bool
}

func New(lexemes []lexer.Lexeme, opts ...Option) *Parser {
	p := &Parser{lexemes: lexemes}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func Parse(lexemes []lexer.Lexeme, opts ...Option) (ast.Node, error) {
	return New(lexemes, opts...).ParseExpression()
}

func (p *Parser) peek() lexer.Lexeme {
	if p.pos >= len(p.lexemes) {
		return lexer.Lexeme{Type: lexer.LEX_EOF, Loc: p.endLocation()}
	}
	return p.lexemes[p.pos]
}

func (p *Parser) consume() lexer.Lexeme {
	lex := p.peek()
	if p.pos < len(p.lexemes) {
		p.pos++
	}
	return lex
}

// endLocation is used when the lexeme slice is not terminated by LEX_EOF.
func (p *Parser) endLocation() lexer.Location {
	if len(p.lexemes) == 0 {
		return lexer.Location{Line: 1, Col: 1}
	}
	last := p.lexemes[len(p.lexemes)-1]
	end := last.Loc
	end.Col += utf8.RuneCountInString(last.Str)
	end.Offset += len(last.Str)
	return end
}

func (p *Parser) errorAt(lex lexer.Lexeme, err error) error {
	return &ParseError{Loc: lex.Loc, Got: lex, Err: err}
}

// ParseExpression parses a single expression. Unless WithTrailingInput was
// given, every lexeme up to LEX_EOF must be part of it.
func (p *Parser) ParseExpression() (ast.Node, error) {
	node, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if !p.allowTrailing {
		if lex := p.peek(); lex.Type != lexer.LEX_EOF {
			return nil, p.errorAt(lex, ErrTrailingInput)
		}
	}
	return node, nil
}

func (p *Parser) parseExpr() (ast.Node, error) {
	return p.parseEquality()
}

func (p *Parser) parseEquality() (ast.Node, error) {
	return p.parseLeftAssoc(equalityOps, p.parseRelational)
}

func (p *Parser) parseRelational() (ast.Node, error) {
	return p.parseLeftAssoc(relationalOps, p.parseAdditive)
}

func (p *Parser) parseAdditive() (ast.Node, error) {
	return p.parseLeftAssoc(additiveOps, p.parseMultiplicative)
}

func (p *Parser) parseMultiplicative() (ast.Node, error) {
	return p.parseLeftAssoc(multiplicativeOps, p.parseUnary)
}

// parseLeftAssoc parses operand (op operand)* and folds the chain to the left.
func (p *Parser) parseLeftAssoc(ops map[lexer.TokenType]ast.Operator, operand func() (ast.Node, error)) (ast.Node, error) {
	node, err := operand()
	if err != nil {
		return nil, err
	}

	for {
		lex := p.peek()
		op, ok := ops[lex.Type]
		if !ok {
			return node, nil
		}
		p.consume()

		right, err := operand()
		if err != nil {
			return nil, err
		}
		node = &ast.BinaryOperation{
			Loc:   lex.Loc,
			Op:    op,
			Left:  node,
			Right: right,
		}
	}
}

func (p *Parser) parseUnary() (ast.Node, error) {
	lex := p.peek()
	switch lex.Type {
	case lexer.LEX_PLUS:
		p.consume()
		return p.parseUnary()
	case lexer.LEX_MINUS:
		p.consume()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		// -x is 0 - x
		return &ast.BinaryOperation{
			Loc:   lex.Loc,
			Op:    ast.OpSub,
			Left:  &ast.Number{Loc: lex.Loc, Value: 0},
			Right: operand,
		}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (ast.Node, error) {
	lex := p.consume()
	switch lex.Type {
	case lexer.LEX_NUMBER:
		return &ast.Number{Loc: lex.Loc, Value: lex.Value}, nil
	case lexer.LEX_LPAREN:
		node, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		closing := p.consume()
		if closing.Type != lexer.LEX_RPAREN {
			return nil, p.errorAt(closing, ErrUnclosedParen)
		}
		return node, nil
	}
	return nil, p.errorAt(lex, ErrExpectedPrimary)
}
