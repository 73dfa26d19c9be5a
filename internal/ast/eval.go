package ast

import (
	"fmt"
	"math"

	"github.com/pkg/errors"
)

var (
	ErrDivisionByZero = errors.New("division by zero")
	// ErrDivisionOverflow is MinInt64 / -1, which traps on x86_64.
	ErrDivisionOverflow = errors.New("division overflow")
)

// Eval computes the value the generated program returns for node. Literals
// are reinterpreted as two's complement int64, arithmetic wraps, division
// truncates toward zero and comparisons yield 0 or 1.
func Eval(node Node) (int64, error) {
	switch n := node.(type) {
	case *Number:
		return int64(n.Value), nil
	case *BinaryOperation:
		left, err := Eval(n.Left)
		if err != nil {
			return 0, err
		}
		right, err := Eval(n.Right)
		if err != nil {
			return 0, err
		}
		return apply(n, left, right)
	default:
		panic(fmt.Sprintf("unsupported node type: %T", node))
	}
}

func apply(n *BinaryOperation, left, right int64) (int64, error) {
	switch n.Op {
	case OpAdd:
		return left + right, nil
	case OpSub:
		return left - right, nil
	case OpMul:
		return left * right, nil
	case OpDiv:
		if right == 0 {
			return 0, errors.Wrapf(ErrDivisionByZero, "at %s", n.Loc)
		}
		if left == math.MinInt64 && right == -1 {
			return 0, errors.Wrapf(ErrDivisionOverflow, "at %s", n.Loc)
		}
		return left / right, nil
	case OpEq:
		return boolToInt(left == right), nil
	case OpNe:
		return boolToInt(left != right), nil
	case OpLt:
		return boolToInt(left < right), nil
	case OpLe:
		return boolToInt(left <= right), nil
	case OpGt:
		return boolToInt(left > right), nil
	case OpGe:
		return boolToInt(left >= right), nil
	default:
		panic(fmt.Sprintf("unsupported operator: %v", n.Op))
	}
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
