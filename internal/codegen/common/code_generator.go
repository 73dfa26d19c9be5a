package common

import (
	"io"

	"github.com/iley/exprc/internal/ast"
	"github.com/iley/exprc/internal/codegen/asm"
)

type CodeGenerator interface {
	Generate(ast.Node) asm.Program
	Format(io.Writer, asm.Program)
}
