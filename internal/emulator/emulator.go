// Package emulator interprets the instruction subset emitted by the code
// generators, so programs can be checked without an assembler or a host of
// the right architecture.
package emulator

import (
	"math"

	"github.com/pkg/errors"

	"github.com/iley/exprc/internal/codegen/asm"
)

var (
	ErrStackUnderflow         = errors.New("stack underflow")
	ErrUnbalancedStack        = errors.New("values left on the stack at return")
	ErrDivideError            = errors.New("divide error")
	ErrUnsupportedInstruction = errors.New("unsupported instruction")
	ErrNoMain                 = errors.New("program has no main function")
	ErrNoReturn               = errors.New("main falls off the end without returning")
)

// Machine is the architectural state visible to generated code. Flags are
// kept as the two compared operands and evaluated lazily by condition code.
type Machine struct {
	Regs  map[string]int64
	Stack []int64

	cmpLeft  int64
	cmpRight int64
	returned bool
}

type handler func(m *Machine, line asm.Line) error

func New() *Machine {
	return &Machine{Regs: make(map[string]int64)}
}

// Run executes the main function of p and returns the value left in the
// return register.
func Run(p asm.Program) (int64, error) {
	var handlers map[string]handler
	var result string
	switch p.Arch {
	case asm.ArchX86_64:
		handlers, result = x86Handlers, "rax"
	case asm.ArchAArch64:
		handlers, result = aarch64Handlers, "x0"
	default:
		return 0, errors.Errorf("unknown architecture: %v", p.Arch)
	}

	fn, ok := findMain(p)
	if !ok {
		return 0, ErrNoMain
	}

	m := New()
	for i, line := range fn.Lines {
		if line.Op == "" {
			continue
		}
		h, ok := handlers[line.Op]
		if !ok {
			return 0, errors.Wrapf(ErrUnsupportedInstruction, "line %d: %s", i, line.Op)
		}
		if err := h(m, line); err != nil {
			return 0, errors.Wrapf(err, "line %d: %s", i, line.Op)
		}
		if m.returned {
			if len(m.Stack) != 0 {
				return 0, errors.Wrapf(ErrUnbalancedStack, "%d values", len(m.Stack))
			}
			return m.Regs[result], nil
		}
	}
	return 0, ErrNoReturn
}

func findMain(p asm.Program) (asm.Function, bool) {
	for _, fn := range p.Functions {
		if fn.Name == "main" {
			return fn, true
		}
	}
	return asm.Function{}, false
}

// ExitStatus is what a parent process observes for a main() return value.
func ExitStatus(v int64) int {
	return int(uint8(v))
}

func (m *Machine) push(v int64) {
	m.Stack = append(m.Stack, v)
}

func (m *Machine) pop() (int64, error) {
	if len(m.Stack) == 0 {
		return 0, ErrStackUnderflow
	}
	v := m.Stack[len(m.Stack)-1]
	m.Stack = m.Stack[:len(m.Stack)-1]
	return v, nil
}

func (m *Machine) compare(left, right int64) {
	m.cmpLeft = left
	m.cmpRight = right
}

func (m *Machine) condition(cond string) (bool, error) {
	l, r := m.cmpLeft, m.cmpRight
	switch cond {
	case "eq":
		return l == r, nil
	case "ne":
		return l != r, nil
	case "lt":
		return l < r, nil
	case "le":
		return l <= r, nil
	case "gt":
		return l > r, nil
	case "ge":
		return l >= r, nil
	}
	return false, errors.Wrapf(ErrUnsupportedInstruction, "condition %q", cond)
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}

func checkArity(line asm.Line, arity int) error {
	if line.Arity != arity {
		return errors.Wrapf(ErrUnsupportedInstruction, "expected %d operands, got %d", arity, line.Arity)
	}
	return nil
}

func isPlainReg(arg asm.Arg) bool {
	return arg.Reg != "" && !arg.Deref && arg.Imm == nil
}

// wrappingDiv is aarch64 sdiv: x/0 is 0 and MinInt64/-1 wraps.
func wrappingDiv(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	if a == math.MinInt64 && b == -1 {
		return math.MinInt64
	}
	return a / b
}
