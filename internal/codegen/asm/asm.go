package asm

import "github.com/iley/exprc/internal/util"

type Arch int

const (
	ArchX86_64 Arch = iota
	ArchAArch64
)

func (a Arch) String() string {
	switch a {
	case ArchX86_64:
		return "x86_64"
	case ArchAArch64:
		return "aarch64"
	default:
		return "unknown"
	}
}

type Program struct {
	Arch      Arch
	Functions []Function
}

type Function struct {
	Name  string
	Lines []Line
}

type Line struct {
	Comment string
	Label   string
	Op      string
	Arity   int
	Arg1    Arg
	Arg2    Arg
	Arg3    Arg
}

// Arg is a single instruction operand. Exactly one of Reg, Imm or Lsl is set.
// Memory operands set Reg and Deref, optionally with an offset that is
// applied before (PreIndex) or after (PostIndex) the access and written back.
type Arg struct {
	Reg       string
	Imm       *int64
	Lsl       int
	Offset    int
	Deref     bool
	PreIndex  bool
	PostIndex bool
}

func (a Arg) WithOffset(offset int) Arg {
	result := a
	result.Offset = offset
	return result
}

func (a Arg) AsDeref() Arg {
	result := a
	result.Deref = true
	return result
}

func Imm(value int64) Arg {
	return Arg{Imm: util.Int64Ptr(value)}
}

func Reg(reg string) Arg {
	return Arg{Reg: reg}
}

func LSL(shift int) Arg {
	return Arg{Lsl: shift}
}

// PreIndexed is [reg, #offset]!
func PreIndexed(reg string, offset int) Arg {
	result := Reg(reg).WithOffset(offset).AsDeref()
	result.PreIndex = true
	return result
}

// PostIndexed is [reg], #offset
func PostIndexed(reg string, offset int) Arg {
	result := Reg(reg).WithOffset(offset).AsDeref()
	result.PostIndex = true
	return result
}

func Op0(op string) Line {
	return Line{Op: op, Arity: 0}
}

func Op1(op string, arg Arg) Line {
	return Line{Op: op, Arity: 1, Arg1: arg}
}

func Op2(op string, arg1, arg2 Arg) Line {
	return Line{Op: op, Arity: 2, Arg1: arg1, Arg2: arg2}
}

func Op3(op string, arg1, arg2, arg3 Arg) Line {
	return Line{Op: op, Arity: 3, Arg1: arg1, Arg2: arg2, Arg3: arg3}
}

func Comment(text string) Line {
	return Line{Comment: text}
}

func Label(text string) Line {
	return Line{Label: text}
}

// Args returns the operands of an instruction line in order.
func (l Line) Args() []Arg {
	return []Arg{l.Arg1, l.Arg2, l.Arg3}[:l.Arity]
}
