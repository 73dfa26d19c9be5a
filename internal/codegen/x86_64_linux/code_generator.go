package x86_64_linux

import (
	"io"

	"github.com/iley/exprc/internal/ast"
	"github.com/iley/exprc/internal/codegen/asm"
	"github.com/iley/exprc/internal/codegen/x86_64"
)

type CodeGenerator struct{}

func (cg *CodeGenerator) Generate(node ast.Node) asm.Program {
	return x86_64.Generate(node)
}

func (cg *CodeGenerator) Format(out io.Writer, p asm.Program) {
	formatProgram(out, p)
}
