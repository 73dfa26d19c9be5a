package ast

import (
	"fmt"
	"strconv"

	"github.com/iley/exprc/internal/lexer"
)

type Location = lexer.Location

// Node is an expression tree node. Every tree is finite, leaves are *Number
// and every *BinaryOperation owns exactly two children.
type Node interface {
	fmt.Stringer
	GetLocation() Location
	Accept(visitor Visitor)
}

type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv
	OpEq
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
)

func (op Operator) String() string {
	switch op {
	case OpAdd:
		return "+"
	case OpSub:
		return "-"
	case OpMul:
		return "*"
	case OpDiv:
		return "/"
	case OpEq:
		return "=="
	case OpNe:
		return "!="
	case OpLt:
		return "<"
	case OpLe:
		return "<="
	case OpGt:
		return ">"
	case OpGe:
		return ">="
	default:
		return fmt.Sprintf("Operator(%d)", int(op))
	}
}

// IsComparison reports whether op produces a 0/1 truth value.
func (op Operator) IsComparison() bool {
	switch op {
	case OpEq, OpNe, OpLt, OpLe, OpGt, OpGe:
		return true
	}
	return false
}

type Number struct {
	Loc   Location
	Value uint64
}

func NewNumber(value uint64) *Number {
	return &Number{Value: value}
}

func (n *Number) GetLocation() Location {
	return n.Loc
}

func (n *Number) String() string {
	return strconv.FormatUint(n.Value, 10)
}

func (n *Number) Accept(visitor Visitor) {
	visitor.VisitNumber(n)
}

type BinaryOperation struct {
	Loc   Location
	Op    Operator
	Left  Node
	Right Node
}

func NewBinaryOperation(op Operator, left, right Node) *BinaryOperation {
	return &BinaryOperation{Op: op, Left: left, Right: right}
}

func (b *BinaryOperation) GetLocation() Location {
	return b.Loc
}

func (b *BinaryOperation) String() string {
	return fmt.Sprintf("(%s %s %s)", b.Op, b.Left.String(), b.Right.String())
}

func (b *BinaryOperation) Accept(visitor Visitor) {
	visitor.VisitBinaryOperation(b)
}
