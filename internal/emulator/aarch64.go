package emulator

import (
	"github.com/pkg/errors"

	"github.com/iley/exprc/internal/codegen/asm"
)

const aarch64SlotSize = 16

var aarch64Handlers = map[string]handler{
	"mov":  aarch64Mov,
	"movk": aarch64Movk,
	"str":  aarch64Str,
	"ldr":  aarch64Ldr,
	"add":  aarch64Arith(func(a, b int64) int64 { return a + b }),
	"sub":  aarch64Arith(func(a, b int64) int64 { return a - b }),
	"mul":  aarch64Arith(func(a, b int64) int64 { return a * b }),
	"sdiv": aarch64Arith(wrappingDiv),
	"cmp":  aarch64Cmp,
	"cset": aarch64Cset,
	"ret":  aarch64Ret,
}

func (m *Machine) aarch64Reg(arg asm.Arg) (string, error) {
	if !isPlainReg(arg) || arg.Reg == "sp" {
		return "", errors.Wrapf(ErrUnsupportedInstruction, "operand %#v", arg)
	}
	return arg.Reg, nil
}

func (m *Machine) aarch64Read(arg asm.Arg) (int64, error) {
	reg, err := m.aarch64Reg(arg)
	if err != nil {
		return 0, err
	}
	return m.Regs[reg], nil
}

func aarch64Mov(m *Machine, line asm.Line) error {
	if err := checkArity(line, 2); err != nil {
		return err
	}
	dst, err := m.aarch64Reg(line.Arg1)
	if err != nil {
		return err
	}
	if line.Arg2.Imm == nil {
		v, err := m.aarch64Read(line.Arg2)
		if err != nil {
			return err
		}
		m.Regs[dst] = v
		return nil
	}
	imm := *line.Arg2.Imm
	if imm < 0 || imm > 0xffff {
		return errors.Wrapf(ErrUnsupportedInstruction, "immediate %d does not fit 16 bits", imm)
	}
	m.Regs[dst] = imm
	return nil
}

func aarch64Movk(m *Machine, line asm.Line) error {
	if err := checkArity(line, 3); err != nil {
		return err
	}
	dst, err := m.aarch64Reg(line.Arg1)
	if err != nil {
		return err
	}
	if line.Arg2.Imm == nil || *line.Arg2.Imm < 0 || *line.Arg2.Imm > 0xffff {
		return errors.Wrapf(ErrUnsupportedInstruction, "movk immediate %#v", line.Arg2)
	}
	shift := line.Arg3.Lsl
	if shift%16 != 0 || shift < 16 || shift > 48 {
		return errors.Wrapf(ErrUnsupportedInstruction, "movk shift %d", shift)
	}
	mask := uint64(0xffff) << shift
	v := uint64(m.Regs[dst])&^mask | uint64(*line.Arg2.Imm)<<shift
	m.Regs[dst] = int64(v)
	return nil
}

// Only the stack idioms are modelled: str with pre-decrement and ldr with
// post-increment of sp by one slot.
func aarch64Str(m *Machine, line asm.Line) error {
	if err := checkArity(line, 2); err != nil {
		return err
	}
	addr := line.Arg2
	if addr.Reg != "sp" || !addr.PreIndex || addr.Offset != -aarch64SlotSize {
		return errors.Wrapf(ErrUnsupportedInstruction, "store address %#v", addr)
	}
	v, err := m.aarch64Read(line.Arg1)
	if err != nil {
		return err
	}
	m.push(v)
	return nil
}

func aarch64Ldr(m *Machine, line asm.Line) error {
	if err := checkArity(line, 2); err != nil {
		return err
	}
	addr := line.Arg2
	if addr.Reg != "sp" || !addr.PostIndex || addr.Offset != aarch64SlotSize {
		return errors.Wrapf(ErrUnsupportedInstruction, "load address %#v", addr)
	}
	dst, err := m.aarch64Reg(line.Arg1)
	if err != nil {
		return err
	}
	v, err := m.pop()
	if err != nil {
		return err
	}
	m.Regs[dst] = v
	return nil
}

func aarch64Arith(f func(a, b int64) int64) handler {
	return func(m *Machine, line asm.Line) error {
		if err := checkArity(line, 3); err != nil {
			return err
		}
		dst, err := m.aarch64Reg(line.Arg1)
		if err != nil {
			return err
		}
		a, err := m.aarch64Read(line.Arg2)
		if err != nil {
			return err
		}
		b, err := m.aarch64Read(line.Arg3)
		if err != nil {
			return err
		}
		m.Regs[dst] = f(a, b)
		return nil
	}
}

func aarch64Cmp(m *Machine, line asm.Line) error {
	if err := checkArity(line, 2); err != nil {
		return err
	}
	a, err := m.aarch64Read(line.Arg1)
	if err != nil {
		return err
	}
	b, err := m.aarch64Read(line.Arg2)
	if err != nil {
		return err
	}
	m.compare(a, b)
	return nil
}

// cset takes the condition code as a bare register-like operand.
func aarch64Cset(m *Machine, line asm.Line) error {
	if err := checkArity(line, 2); err != nil {
		return err
	}
	dst, err := m.aarch64Reg(line.Arg1)
	if err != nil {
		return err
	}
	ok, err := m.condition(line.Arg2.Reg)
	if err != nil {
		return err
	}
	m.Regs[dst] = boolToInt(ok)
	return nil
}

func aarch64Ret(m *Machine, line asm.Line) error {
	if err := checkArity(line, 0); err != nil {
		return err
	}
	m.returned = true
	return nil
}
