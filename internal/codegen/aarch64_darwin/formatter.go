package aarch64_darwin

import (
	"fmt"
	"io"

	"github.com/iley/exprc/internal/codegen/aarch64"
	"github.com/iley/exprc/internal/codegen/asm"
)

func formatProgram(out io.Writer, p asm.Program) {
	for _, fn := range p.Functions {
		formatFunction(out, fn)
	}
}

// Mach-O symbols carry a leading underscore.
func formatFunction(out io.Writer, fn asm.Function) {
	fmt.Fprintf(out, ".globl _%s\n", fn.Name)
	fmt.Fprintf(out, ".p2align 2\n")
	fmt.Fprintf(out, "_%s:\n", fn.Name)

	for _, line := range fn.Lines {
		aarch64.FormatLine(out, line, ";")
	}
}
