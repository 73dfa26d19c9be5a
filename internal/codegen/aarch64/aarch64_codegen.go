package aarch64

import (
	"fmt"

	"github.com/iley/exprc/internal/ast"
	"github.com/iley/exprc/internal/codegen/asm"
	"github.com/iley/exprc/internal/util"
)

const (
	X0 = "x0"
	X1 = "x1"
	SP = "sp"
)

// The stack pointer must stay 16-byte aligned, so each value takes a full slot.
const stackSlotSize = 16

var conditionCodes = map[ast.Operator]string{
	ast.OpEq: "eq",
	ast.OpNe: "ne",
	ast.OpLt: "lt",
	ast.OpLe: "le",
	ast.OpGt: "gt",
	ast.OpGe: "ge",
}

var arithmeticInstructions = map[ast.Operator]string{
	ast.OpAdd: "add",
	ast.OpSub: "sub",
	ast.OpMul: "mul",
	ast.OpDiv: "sdiv",
}

type generator struct {
	lines []asm.Line
	depth int
}

var _ ast.Visitor = &generator{}

// Generate emits main() computing node and returning it in x0.
func Generate(node ast.Node) asm.Program {
	g := &generator{}
	node.Accept(g)
	if g.depth != 1 {
		panic(fmt.Sprintf("evaluation stack holds %d values after the expression, want 1", g.depth))
	}
	g.pop(X0)
	g.emit(asm.Op0("ret"))

	return asm.Program{
		Arch: asm.ArchAArch64,
		Functions: []asm.Function{
			{Name: "main", Lines: g.lines},
		},
	}
}

func (g *generator) emit(lines ...asm.Line) {
	g.lines = append(g.lines, lines...)
}

func (g *generator) push(reg string) {
	g.emit(asm.Op2("str", asm.Reg(reg), asm.PreIndexed(SP, -stackSlotSize)))
	g.depth++
}

func (g *generator) pop(reg string) {
	g.emit(asm.Op2("ldr", asm.Reg(reg), asm.PostIndexed(SP, stackSlotSize)))
	g.depth--
}

func (g *generator) VisitNumber(number *ast.Number) {
	g.emit(LoadImmediate(X0, number.Value)...)
	g.push(X0)
}

func (g *generator) VisitBinaryOperation(binop *ast.BinaryOperation) {
	binop.Left.Accept(g)
	binop.Right.Accept(g)

	g.pop(X1)
	g.pop(X0)

	if op, ok := arithmeticInstructions[binop.Op]; ok {
		g.emit(asm.Op3(op, asm.Reg(X0), asm.Reg(X0), asm.Reg(X1)))
	} else if cond, ok := conditionCodes[binop.Op]; ok {
		g.emit(asm.Op2("cmp", asm.Reg(X0), asm.Reg(X1)))
		g.emit(asm.Op2("cset", asm.Reg(X0), asm.Arg{Reg: cond}))
	} else {
		panic(fmt.Sprintf("unsupported operator: %v", binop.Op))
	}

	g.push(X0)
}

// LoadImmediate materializes a 64-bit value 16 bits at a time. Zero slices
// above the lowest one are skipped.
func LoadImmediate(reg string, val uint64) []asm.Line {
	lines := []asm.Line{
		asm.Op2("mov", asm.Reg(reg), asm.Imm(int64(util.Slice16bits(val, 0)))),
	}
	for shift := 16; shift < 64; shift += 16 {
		if chunk := util.Slice16bits(val, shift); chunk != 0 {
			lines = append(lines, asm.Op3("movk", asm.Reg(reg), asm.Imm(int64(chunk)), asm.LSL(shift)))
		}
	}
	return lines
}
