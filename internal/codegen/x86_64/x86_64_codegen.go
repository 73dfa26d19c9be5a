package x86_64

import (
	"fmt"

	"github.com/iley/exprc/internal/ast"
	"github.com/iley/exprc/internal/codegen/asm"
	"github.com/iley/exprc/internal/util"
)

const (
	RAX = "rax"
	RDI = "rdi"
	AL  = "al"
)

var setInstructions = map[ast.Operator]string{
	ast.OpEq: "sete",
	ast.OpNe: "setne",
	ast.OpLt: "setl",
	ast.OpLe: "setle",
	ast.OpGt: "setg",
	ast.OpGe: "setge",
}

// generator lowers an expression into a stack machine program. Every
// subtree leaves exactly one value on the machine stack.
type generator struct {
	lines []asm.Line
	depth int
}

var _ ast.Visitor = &generator{}

// Generate emits main() computing node and returning it in rax.
func Generate(node ast.Node) asm.Program {
	g := &generator{}
	node.Accept(g)
	if g.depth != 1 {
		panic(fmt.Sprintf("evaluation stack holds %d values after the expression, want 1", g.depth))
	}
	g.pop(RAX)
	g.emit(asm.Op0("ret"))

	return asm.Program{
		Arch: asm.ArchX86_64,
		Functions: []asm.Function{
			{Name: "main", Lines: g.lines},
		},
	}
}

func (g *generator) emit(line asm.Line) {
	g.lines = append(g.lines, line)
}

func (g *generator) push(arg asm.Arg) {
	g.emit(asm.Op1("pushq", arg))
	g.depth++
}

func (g *generator) pop(reg string) {
	g.emit(asm.Op1("popq", asm.Reg(reg)))
	g.depth--
}

func (g *generator) VisitNumber(number *ast.Number) {
	value := int64(number.Value)
	// pushq only takes a sign-extended 32-bit immediate.
	if util.FitsInt32(value) {
		g.push(asm.Imm(value))
		return
	}
	g.emit(asm.Op2("movabsq", asm.Imm(value), asm.Reg(RAX)))
	g.push(asm.Reg(RAX))
}

func (g *generator) VisitBinaryOperation(binop *ast.BinaryOperation) {
	binop.Left.Accept(g)
	binop.Right.Accept(g)

	// The right operand was pushed last.
	g.pop(RDI)
	g.pop(RAX)

	switch binop.Op {
	case ast.OpAdd:
		g.emit(asm.Op2("addq", asm.Reg(RDI), asm.Reg(RAX)))
	case ast.OpSub:
		g.emit(asm.Op2("subq", asm.Reg(RDI), asm.Reg(RAX)))
	case ast.OpMul:
		g.emit(asm.Op2("imulq", asm.Reg(RDI), asm.Reg(RAX)))
	case ast.OpDiv:
		g.emit(asm.Op0("cqto"))
		g.emit(asm.Op1("idivq", asm.Reg(RDI)))
	default:
		set, ok := setInstructions[binop.Op]
		if !ok {
			panic(fmt.Sprintf("unsupported operator: %v", binop.Op))
		}
		g.emit(asm.Op2("cmpq", asm.Reg(RDI), asm.Reg(RAX)))
		g.emit(asm.Op1(set, asm.Reg(AL)))
		g.emit(asm.Op2("movzbq", asm.Reg(AL), asm.Reg(RAX)))
	}

	g.push(asm.Reg(RAX))
}
