package aarch64_linux

import (
	"io"

	"github.com/iley/exprc/internal/ast"
	"github.com/iley/exprc/internal/codegen/aarch64"
	"github.com/iley/exprc/internal/codegen/asm"
)

type CodeGenerator struct{}

func (cg *CodeGenerator) Generate(node ast.Node) asm.Program {
	return aarch64.Generate(node)
}

func (cg *CodeGenerator) Format(out io.Writer, p asm.Program) {
	formatProgram(out, p)
}
