package lexer

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/pkg/errors"

	"github.com/iley/exprc/internal/util"
)

type TokenType int

// Token types
const (
	LEX_EOF TokenType = iota
	LEX_NUMBER
	LEX_PLUS
	LEX_MINUS
	LEX_STAR
	LEX_SLASH
	LEX_LPAREN
	LEX_RPAREN
	LEX_EQ
	LEX_NE
	LEX_LT
	LEX_LE
	LEX_GT
	LEX_GE
)

func (t TokenType) String() string {
	switch t {
	case LEX_EOF:
		return "EOF"
	case LEX_NUMBER:
		return "NUMBER"
	case LEX_PLUS:
		return "PLUS"
	case LEX_MINUS:
		return "MINUS"
	case LEX_STAR:
		return "STAR"
	case LEX_SLASH:
		return "SLASH"
	case LEX_LPAREN:
		return "LPAREN"
	case LEX_RPAREN:
		return "RPAREN"
	case LEX_EQ:
		return "EQ"
	case LEX_NE:
		return "NE"
	case LEX_LT:
		return "LT"
	case LEX_LE:
		return "LE"
	case LEX_GT:
		return "GT"
	case LEX_GE:
		return "GE"
	default:
		return "UNKNOWN"
	}
}

// Two-character operators. They win over their one-character prefixes.
var twoCharTokens = map[string]TokenType{
	"==": LEX_EQ,
	"!=": LEX_NE,
	"<=": LEX_LE,
	">=": LEX_GE,
}

var singleCharTokens = map[rune]TokenType{
	'+': LEX_PLUS,
	'-': LEX_MINUS,
	'*': LEX_STAR,
	'/': LEX_SLASH,
	'(': LEX_LPAREN,
	')': LEX_RPAREN,
	'<': LEX_LT,
	'>': LEX_GT,
}

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrNumberOverflow = errors.New("number literal overflows 64 bits")
)

// Location is a position in the input. Line and Col are 1-based and count
// runes, Offset is the 0-based byte offset.
type Location struct {
	Line   int
	Col    int
	Offset int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Col)
}

type Lexeme struct {
	Type TokenType
	Str  string
	// Value is only meaningful for LEX_NUMBER.
	Value uint64
	Loc   Location
}

func (l Lexeme) String() string {
	if l.Str == "" {
		return fmt.Sprintf("<%s>", l.Type)
	}
	return fmt.Sprintf("<%s %q>", l.Type, l.Str)
}

// LexError is returned for input the lexer cannot classify. It keeps the
// whole input so callers can point at the failing column.
type LexError struct {
	Input string
	Loc   Location
	Text  string
	Err   error
}

func (e *LexError) Error() string {
	return fmt.Sprintf("%s: %s '%s'", e.Loc, e.Err, util.EscapeString(e.Text))
}

func (e *LexError) Unwrap() error {
	return e.Err
}

type Option func(*Lexer)

// WithCheckedNumbers makes numerals that do not fit in 64 bits a lexical
// error instead of letting them wrap around.
func WithCheckedNumbers() Option {
	return func(l *Lexer) {
		l.checkedNumbers = true
	}
}

type Lexer struct {
	source         string
	input          *bufio.Reader
	checkedNumbers bool

	line      int
	col       int
	offset    int
	prevCol   int
	lastRune  rune
	lastSize  int
	hasUnread bool
}

func New(source string, opts ...Option) *Lexer {
	l := &Lexer{
		source:  source,
		input:   bufio.NewReader(strings.NewReader(source)),
		line:    1,
		col:     1,
		prevCol: 1,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Tokenize splits input into lexemes. The result always ends with a single
// LEX_EOF lexeme located at the end of the input.
func Tokenize(input string, opts ...Option) ([]Lexeme, error) {
	l := New(input, opts...)
	var lexemes []Lexeme
	for {
		lex, err := l.Next()
		if err != nil {
			return nil, err
		}
		lexemes = append(lexemes, lex)
		if lex.Type == LEX_EOF {
			return lexemes, nil
		}
	}
}

// ScanNumber folds the leading run of decimal digits in s into a uint64 and
// returns it together with the number of bytes consumed. Values that do not
// fit wrap around.
func ScanNumber(s string) (uint64, int) {
	var n uint64
	i := 0
	for i < len(s) && isDigit(rune(s[i])) {
		n = n*10 + uint64(s[i]-'0')
		i++
	}
	return n, i
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func (l *Lexer) location() Location {
	return Location{Line: l.line, Col: l.col, Offset: l.offset}
}

// readRune reads the next rune from the input
func (l *Lexer) readRune() (rune, int, error) {
	var r rune
	var size int
	var err error

	if l.hasUnread {
		l.hasUnread = false
		r, size, err = l.lastRune, l.lastSize, nil
	} else {
		l.prevCol = l.col
		r, size, err = l.input.ReadRune()
	}

	if err != nil {
		return 0, 0, err
	}

	l.lastRune = r
	l.lastSize = size
	l.offset += size
	if r == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return r, size, nil
}

// unreadRune puts back the last read rune.
// Should be called at most once per readRune.
func (l *Lexer) unreadRune() {
	l.hasUnread = true
	if l.lastRune == '\n' {
		l.line--
	}
	l.col = l.prevCol
	l.offset -= l.lastSize
}

func (l *Lexer) skipSpace() error {
	for {
		r, _, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !unicode.IsSpace(r) {
			l.unreadRune()
			return nil
		}
	}
}

func (l *Lexer) errorAt(loc Location, err error, text string) error {
	return &LexError{
		Input: l.source,
		Loc:   loc,
		Text:  text,
		Err:   err,
	}
}

// Next returns the next lexeme from the input
func (l *Lexer) Next() (Lexeme, error) {
	if err := l.skipSpace(); err != nil {
		return Lexeme{Type: LEX_EOF}, err
	}
	start := l.location()
	r, _, err := l.readRune()
	if err != nil {
		if err == io.EOF {
			return Lexeme{Type: LEX_EOF, Loc: start}, nil
		}
		return Lexeme{Type: LEX_EOF}, err
	}

	switch {
	case isDigit(r):
		l.unreadRune()
		return l.lexNumber(start)
	case r == '=' || r == '!' || r == '<' || r == '>':
		return l.lexComparison(r, start)
	}

	if tokenType, ok := singleCharTokens[r]; ok {
		return Lexeme{Type: tokenType, Str: string(r), Loc: start}, nil
	}
	return Lexeme{Type: LEX_EOF}, l.errorAt(start, ErrInvalidToken, string(r))
}

// lexComparison tries the two-character form first and falls back to the
// single character one. A lone '=' or '!' is not a token.
func (l *Lexer) lexComparison(first rune, start Location) (Lexeme, error) {
	next, _, err := l.readRune()
	if err != nil && err != io.EOF {
		return Lexeme{Type: LEX_EOF}, err
	}
	if err == nil {
		pair := string([]rune{first, next})
		if tokenType, ok := twoCharTokens[pair]; ok {
			return Lexeme{Type: tokenType, Str: pair, Loc: start}, nil
		}
		l.unreadRune()
	}

	if tokenType, ok := singleCharTokens[first]; ok {
		return Lexeme{Type: tokenType, Str: string(first), Loc: start}, nil
	}
	return Lexeme{Type: LEX_EOF}, l.errorAt(start, ErrInvalidToken, string(first))
}

func (l *Lexer) lexNumber(start Location) (Lexeme, error) {
	var sb strings.Builder

	for {
		r, _, err := l.readRune()
		if err != nil {
			if err == io.EOF {
				break
			}
			return Lexeme{Type: LEX_EOF}, err
		}
		if !isDigit(r) {
			l.unreadRune()
			break
		}
		sb.WriteRune(r)
	}

	num := sb.String()
	if l.checkedNumbers {
		if _, err := strconv.ParseUint(num, 10, 64); err != nil {
			return Lexeme{Type: LEX_EOF}, l.errorAt(start, ErrNumberOverflow, num)
		}
	}
	value, _ := ScanNumber(num)

	return Lexeme{
		Type:  LEX_NUMBER,
		Str:   num,
		Value: value,
		Loc:   start,
	}, nil
}
