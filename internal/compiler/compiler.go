// Package compiler wires the lexer, parser and code generator into a single
// fail-fast pipeline.
package compiler

import (
	"bytes"

	"github.com/pkg/errors"

	"github.com/iley/exprc/internal/ast"
	"github.com/iley/exprc/internal/codegen"
	"github.com/iley/exprc/internal/codegen/asm"
	"github.com/iley/exprc/internal/lexer"
	"github.com/iley/exprc/internal/parser"
)

type Options struct {
	Target codegen.Target
	// AllowTrailing ignores tokens left after a complete expression.
	AllowTrailing bool
	// CheckedNumbers rejects numerals that do not fit in 64 bits.
	CheckedNumbers bool
}

// Result holds every intermediate product of a successful compilation.
type Result struct {
	Input    string
	Lexemes  []lexer.Lexeme
	AST      ast.Node
	Program  asm.Program
	Assembly []byte
	Target   codegen.Target
}

func (o Options) lexerOptions() []lexer.Option {
	var opts []lexer.Option
	if o.CheckedNumbers {
		opts = append(opts, lexer.WithCheckedNumbers())
	}
	return opts
}

func (o Options) parserOptions() []parser.Option {
	var opts []parser.Option
	if o.AllowTrailing {
		opts = append(opts, parser.WithTrailingInput())
	}
	return opts
}

// Tokenize runs only the lexing stage.
func Tokenize(input string, opts Options) ([]lexer.Lexeme, error) {
	lexemes, err := lexer.Tokenize(input, opts.lexerOptions()...)
	if err != nil {
		return nil, errors.Wrap(err, "lexing failed")
	}
	return lexemes, nil
}

// Parse runs lexing and parsing.
func Parse(input string, opts Options) (ast.Node, error) {
	lexemes, err := Tokenize(input, opts)
	if err != nil {
		return nil, err
	}
	node, err := parser.Parse(lexemes, opts.parserOptions()...)
	if err != nil {
		return nil, errors.Wrap(err, "parsing failed")
	}
	return node, nil
}

func Compile(input string, opts Options) (*Result, error) {
	lexemes, err := Tokenize(input, opts)
	if err != nil {
		return nil, err
	}

	node, err := parser.Parse(lexemes, opts.parserOptions()...)
	if err != nil {
		return nil, errors.Wrap(err, "parsing failed")
	}

	program, err := codegen.Lower(opts.Target, node)
	if err != nil {
		return nil, errors.Wrap(err, "code generation failed")
	}

	var out bytes.Buffer
	if err := codegen.Format(&out, opts.Target, program); err != nil {
		return nil, errors.Wrap(err, "code generation failed")
	}

	return &Result{
		Input:    input,
		Lexemes:  lexemes,
		AST:      node,
		Program:  program,
		Assembly: out.Bytes(),
		Target:   opts.Target,
	}, nil
}
