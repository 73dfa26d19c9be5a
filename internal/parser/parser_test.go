package parser

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iley/exprc/internal/ast"
	"github.com/iley/exprc/internal/lexer"
)

var ignoreLocations = cmp.Options{
	cmpopts.IgnoreFields(ast.Number{}, "Loc"),
	cmpopts.IgnoreFields(ast.BinaryOperation{}, "Loc"),
}

func num(v uint64) ast.Node {
	return ast.NewNumber(v)
}

func bin(op ast.Operator, left, right ast.Node) ast.Node {
	return ast.NewBinaryOperation(op, left, right)
}

func neg(operand ast.Node) ast.Node {
	return bin(ast.OpSub, num(0), operand)
}

func parseString(t *testing.T, src string, opts ...Option) (ast.Node, error) {
	t.Helper()
	lexemes, err := lexer.Tokenize(src)
	require.NoError(t, err)
	return Parse(lexemes, opts...)
}

func TestParseExpression(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		expected ast.Node
	}{
		{
			name:     "single number",
			src:      "42",
			expected: num(42),
		},
		{
			name:     "left-associative addition and subtraction",
			src:      "5+20-4",
			expected: bin(ast.OpSub, bin(ast.OpAdd, num(5), num(20)), num(4)),
		},
		{
			name:     "multiplication binds tighter than addition",
			src:      "5+6*7",
			expected: bin(ast.OpAdd, num(5), bin(ast.OpMul, num(6), num(7))),
		},
		{
			name:     "left-associative division",
			src:      "8/4/2",
			expected: bin(ast.OpDiv, bin(ast.OpDiv, num(8), num(4)), num(2)),
		},
		{
			name:     "parentheses override precedence",
			src:      "5*(9-6)",
			expected: bin(ast.OpMul, num(5), bin(ast.OpSub, num(9), num(6))),
		},
		{
			name:     "parenthesized left operand",
			src:      "(3+5)/2",
			expected: bin(ast.OpDiv, bin(ast.OpAdd, num(3), num(5)), num(2)),
		},
		{
			name:     "nested parentheses",
			src:      "((1))",
			expected: num(1),
		},
		{
			name:     "equality",
			src:      "1==1",
			expected: bin(ast.OpEq, num(1), num(1)),
		},
		{
			name:     "inequality",
			src:      "1!=1",
			expected: bin(ast.OpNe, num(1), num(1)),
		},
		{
			name:     "relational operators",
			src:      "1<2<=3>4>=5",
			expected: bin(ast.OpGe, bin(ast.OpGt, bin(ast.OpLe, bin(ast.OpLt, num(1), num(2)), num(3)), num(4)), num(5)),
		},
		{
			name:     "relational binds tighter than equality",
			src:      "1<2==3>4",
			expected: bin(ast.OpEq, bin(ast.OpLt, num(1), num(2)), bin(ast.OpGt, num(3), num(4))),
		},
		{
			name:     "additive binds tighter than relational",
			src:      "1+2<3*4",
			expected: bin(ast.OpLt, bin(ast.OpAdd, num(1), num(2)), bin(ast.OpMul, num(3), num(4))),
		},
		{
			name:     "unary minus",
			src:      "-3+5",
			expected: bin(ast.OpAdd, neg(num(3)), num(5)),
		},
		{
			name:     "unary plus is dropped",
			src:      "+3",
			expected: num(3),
		},
		{
			name:     "double negation",
			src:      "--5",
			expected: neg(neg(num(5))),
		},
		{
			name:     "mixed signs",
			src:      "-+-5",
			expected: neg(neg(num(5))),
		},
		{
			name:     "unary binds tighter than multiplication",
			src:      "-2*3",
			expected: bin(ast.OpMul, neg(num(2)), num(3)),
		},
		{
			name:     "unary after binary operator",
			src:      "2*-3",
			expected: bin(ast.OpMul, num(2), neg(num(3))),
		},
		{
			name:     "negated parenthesized expression",
			src:      "-(1+2)",
			expected: neg(bin(ast.OpAdd, num(1), num(2))),
		},
		{
			name:     "whitespace is insignificant",
			src:      " 1 +\n2 ",
			expected: bin(ast.OpAdd, num(1), num(2)),
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseString(t, tc.src)
			require.NoError(t, err)
			if diff := cmp.Diff(tc.expected, got, ignoreLocations); diff != "" {
				t.Errorf("Parse(%q) mismatch (-want +got):\n%s", tc.src, diff)
			}
		})
	}
}

func TestParseLocations(t *testing.T) {
	got, err := parseString(t, "1 + -2")
	require.NoError(t, err)

	expected := &ast.BinaryOperation{
		Loc: lexer.Location{Line: 1, Col: 3, Offset: 2},
		Op:  ast.OpAdd,
		Left: &ast.Number{
			Loc:   lexer.Location{Line: 1, Col: 1, Offset: 0},
			Value: 1,
		},
		Right: &ast.BinaryOperation{
			Loc: lexer.Location{Line: 1, Col: 5, Offset: 4},
			Op:  ast.OpSub,
			Left: &ast.Number{
				Loc:   lexer.Location{Line: 1, Col: 5, Offset: 4},
				Value: 0,
			},
			Right: &ast.Number{
				Loc:   lexer.Location{Line: 1, Col: 6, Offset: 5},
				Value: 2,
			},
		},
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("mismatch (-want +got):\n%s", diff)
	}
}

func TestParseErrors(t *testing.T) {
	testCases := []struct {
		name     string
		src      string
		err      error
		loc      lexer.Location
		expected string
	}{
		{
			name:     "dangling operator",
			src:      "1+",
			err:      ErrExpectedPrimary,
			loc:      lexer.Location{Line: 1, Col: 3, Offset: 2},
			expected: "1:3: expected number or parenthesis, got <EOF>",
		},
		{
			name:     "lone plus",
			src:      "+",
			err:      ErrExpectedPrimary,
			loc:      lexer.Location{Line: 1, Col: 2, Offset: 1},
			expected: "1:2: expected number or parenthesis, got <EOF>",
		},
		{
			name:     "empty input",
			src:      "",
			err:      ErrExpectedPrimary,
			loc:      lexer.Location{Line: 1, Col: 1, Offset: 0},
			expected: "1:1: expected number or parenthesis, got <EOF>",
		},
		{
			name:     "operator in primary position",
			src:      "1**2",
			err:      ErrExpectedPrimary,
			loc:      lexer.Location{Line: 1, Col: 3, Offset: 2},
			expected: `1:3: expected number or parenthesis, got <STAR "*">`,
		},
		{
			name:     "closing parenthesis in primary position",
			src:      "()",
			err:      ErrExpectedPrimary,
			loc:      lexer.Location{Line: 1, Col: 2, Offset: 1},
			expected: `1:2: expected number or parenthesis, got <RPAREN ")">`,
		},
		{
			name:     "unclosed parenthesis",
			src:      "(1+2",
			err:      ErrUnclosedParen,
			loc:      lexer.Location{Line: 1, Col: 5, Offset: 4},
			expected: "1:5: expected closing parenthesis, got <EOF>",
		},
		{
			name:     "parenthesis closed by something else",
			src:      "(1 2)",
			err:      ErrUnclosedParen,
			loc:      lexer.Location{Line: 1, Col: 4, Offset: 3},
			expected: `1:4: expected closing parenthesis, got <NUMBER "2">`,
		},
		{
			name:     "trailing closing parenthesis",
			src:      "1+2)",
			err:      ErrTrailingInput,
			loc:      lexer.Location{Line: 1, Col: 4, Offset: 3},
			expected: `1:4: unexpected token after expression, got <RPAREN ")">`,
		},
		{
			name:     "two numbers",
			src:      "1 2",
			err:      ErrTrailingInput,
			loc:      lexer.Location{Line: 1, Col: 3, Offset: 2},
			expected: `1:3: unexpected token after expression, got <NUMBER "2">`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			node, err := parseString(t, tc.src)
			require.Error(t, err)
			assert.Nil(t, node)
			assert.True(t, errors.Is(err, tc.err), "unexpected error kind: %v", err)

			var parseErr *ParseError
			require.True(t, errors.As(err, &parseErr))
			assert.Equal(t, tc.loc, parseErr.Loc)
			assert.Equal(t, tc.expected, err.Error())
		})
	}
}

func TestTrailingInputAllowed(t *testing.T) {
	testCases := []struct {
		src      string
		expected ast.Node
	}{
		{"1 2", num(1)},
		{"1+2)", bin(ast.OpAdd, num(1), num(2))},
		{"(1))((", num(1)},
	}

	for _, tc := range testCases {
		t.Run(tc.src, func(t *testing.T) {
			got, err := parseString(t, tc.src, WithTrailingInput())
			require.NoError(t, err)
			if diff := cmp.Diff(tc.expected, got, ignoreLocations); diff != "" {
				t.Errorf("mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseWithoutEOFLexeme(t *testing.T) {
	lexemes := []lexer.Lexeme{
		{Type: lexer.LEX_NUMBER, Str: "12", Value: 12, Loc: lexer.Location{Line: 1, Col: 1}},
		{Type: lexer.LEX_PLUS, Str: "+", Loc: lexer.Location{Line: 1, Col: 3, Offset: 2}},
	}
	_, err := Parse(lexemes)
	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, lexer.Location{Line: 1, Col: 4, Offset: 3}, parseErr.Loc)

	node, err := Parse(lexemes[:1])
	require.NoError(t, err)
	assert.Equal(t, "12", node.String())

	_, err = Parse(nil)
	assert.True(t, errors.Is(err, ErrExpectedPrimary))
}

func TestDeepNesting(t *testing.T) {
	depth := 1000
	src := strings.Repeat("(", depth) + "7" + strings.Repeat(")", depth)
	got, err := parseString(t, src)
	require.NoError(t, err)
	assert.Equal(t, "7", got.String())

	src = strings.Repeat("-", depth) + "7"
	got, err = parseString(t, src)
	require.NoError(t, err)
	value, err := ast.Eval(got)
	require.NoError(t, err)
	assert.Equal(t, int64(7), value)
}
