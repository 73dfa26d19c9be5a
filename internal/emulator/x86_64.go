package emulator

import (
	"math"

	"github.com/pkg/errors"

	"github.com/iley/exprc/internal/codegen/asm"
)

var x86Handlers = map[string]handler{
	"pushq":   x86Push,
	"popq":    x86Pop,
	"movabsq": x86Movabs,
	"addq":    x86Arith(func(dst, src int64) int64 { return dst + src }),
	"subq":    x86Arith(func(dst, src int64) int64 { return dst - src }),
	"imulq":   x86Arith(func(dst, src int64) int64 { return dst * src }),
	"cqto":    x86Cqto,
	"idivq":   x86Idiv,
	"cmpq":    x86Cmp,
	"sete":    x86Set("eq"),
	"setne":   x86Set("ne"),
	"setl":    x86Set("lt"),
	"setle":   x86Set("le"),
	"setg":    x86Set("gt"),
	"setge":   x86Set("ge"),
	"movzbq":  x86Movzb,
	"ret":     x86Ret,
}

// x86Read resolves an immediate, a 64-bit register or the low byte of rax.
func (m *Machine) x86Read(arg asm.Arg) (int64, error) {
	if arg.Imm != nil {
		return *arg.Imm, nil
	}
	if !isPlainReg(arg) {
		return 0, errors.Wrapf(ErrUnsupportedInstruction, "operand %#v", arg)
	}
	if arg.Reg == "al" {
		return m.Regs["rax"] & 0xff, nil
	}
	return m.Regs[arg.Reg], nil
}

func (m *Machine) x86Write(arg asm.Arg, v int64) error {
	if !isPlainReg(arg) {
		return errors.Wrapf(ErrUnsupportedInstruction, "destination %#v", arg)
	}
	if arg.Reg == "al" {
		m.Regs["rax"] = m.Regs["rax"]&^0xff | v&0xff
		return nil
	}
	m.Regs[arg.Reg] = v
	return nil
}

func x86Push(m *Machine, line asm.Line) error {
	if err := checkArity(line, 1); err != nil {
		return err
	}
	v, err := m.x86Read(line.Arg1)
	if err != nil {
		return err
	}
	if line.Arg1.Imm != nil && (v < math.MinInt32 || v > math.MaxInt32) {
		return errors.Wrapf(ErrUnsupportedInstruction, "immediate %d does not fit 32 bits", v)
	}
	m.push(v)
	return nil
}

func x86Pop(m *Machine, line asm.Line) error {
	if err := checkArity(line, 1); err != nil {
		return err
	}
	v, err := m.pop()
	if err != nil {
		return err
	}
	return m.x86Write(line.Arg1, v)
}

func x86Movabs(m *Machine, line asm.Line) error {
	if err := checkArity(line, 2); err != nil {
		return err
	}
	v, err := m.x86Read(line.Arg1)
	if err != nil {
		return err
	}
	return m.x86Write(line.Arg2, v)
}

// AT&T operand order: op src, dst.
func x86Arith(f func(dst, src int64) int64) handler {
	return func(m *Machine, line asm.Line) error {
		if err := checkArity(line, 2); err != nil {
			return err
		}
		src, err := m.x86Read(line.Arg1)
		if err != nil {
			return err
		}
		dst, err := m.x86Read(line.Arg2)
		if err != nil {
			return err
		}
		return m.x86Write(line.Arg2, f(dst, src))
	}
}

func x86Cqto(m *Machine, line asm.Line) error {
	if err := checkArity(line, 0); err != nil {
		return err
	}
	m.Regs["rdx"] = m.Regs["rax"] >> 63
	return nil
}

// x86Idiv divides rdx:rax. The generator always sign-extends with cqto, so
// only that case is modelled.
func x86Idiv(m *Machine, line asm.Line) error {
	if err := checkArity(line, 1); err != nil {
		return err
	}
	divisor, err := m.x86Read(line.Arg1)
	if err != nil {
		return err
	}
	dividend := m.Regs["rax"]
	if m.Regs["rdx"] != dividend>>63 {
		return errors.Wrap(ErrUnsupportedInstruction, "idivq without sign-extended rdx")
	}
	if divisor == 0 {
		return errors.Wrap(ErrDivideError, "division by zero")
	}
	if dividend == math.MinInt64 && divisor == -1 {
		return errors.Wrap(ErrDivideError, "quotient overflow")
	}
	m.Regs["rax"] = dividend / divisor
	m.Regs["rdx"] = dividend % divisor
	return nil
}

func x86Cmp(m *Machine, line asm.Line) error {
	if err := checkArity(line, 2); err != nil {
		return err
	}
	src, err := m.x86Read(line.Arg1)
	if err != nil {
		return err
	}
	dst, err := m.x86Read(line.Arg2)
	if err != nil {
		return err
	}
	m.compare(dst, src)
	return nil
}

func x86Set(cond string) handler {
	return func(m *Machine, line asm.Line) error {
		if err := checkArity(line, 1); err != nil {
			return err
		}
		ok, err := m.condition(cond)
		if err != nil {
			return err
		}
		return m.x86Write(line.Arg1, boolToInt(ok))
	}
}

func x86Movzb(m *Machine, line asm.Line) error {
	if err := checkArity(line, 2); err != nil {
		return err
	}
	if line.Arg1.Reg != "al" {
		return errors.Wrapf(ErrUnsupportedInstruction, "movzbq from %q", line.Arg1.Reg)
	}
	v, err := m.x86Read(line.Arg1)
	if err != nil {
		return err
	}
	return m.x86Write(line.Arg2, v)
}

func x86Ret(m *Machine, line asm.Line) error {
	if err := checkArity(line, 0); err != nil {
		return err
	}
	m.returned = true
	return nil
}
