package aarch64_linux

import (
	"fmt"
	"io"

	"github.com/iley/exprc/internal/codegen/aarch64"
	"github.com/iley/exprc/internal/codegen/asm"
)

func formatProgram(out io.Writer, p asm.Program) {
	for _, fn := range p.Functions {
		fmt.Fprintf(out, ".globl %s\n", fn.Name)
		fmt.Fprintf(out, ".p2align 2\n")
		fmt.Fprintf(out, "%s:\n", fn.Name)

		for _, line := range fn.Lines {
			aarch64.FormatLine(out, line, "//")
		}
	}
}
