package x86_64_linux

import (
	"fmt"
	"io"

	"github.com/iley/exprc/internal/codegen/asm"
)

func formatProgram(out io.Writer, p asm.Program) {
	for _, fn := range p.Functions {
		formatFunction(out, fn)
	}
}

func formatFunction(out io.Writer, fn asm.Function) {
	fmt.Fprintf(out, ".text\n")
	fmt.Fprintf(out, ".globl %s\n", fn.Name)
	fmt.Fprintf(out, "%s:\n", fn.Name)

	for _, line := range fn.Lines {
		formatLine(out, line)
	}
}

func formatLine(out io.Writer, line asm.Line) {
	if line.Label != "" {
		fmt.Fprintf(out, "%s:", line.Label)
	} else if line.Op != "" {
		fmt.Fprintf(out, "  %s", line.Op)

		for i, arg := range line.Args() {
			if i == 0 {
				fmt.Fprintf(out, " %s", argToString(arg))
			} else {
				fmt.Fprintf(out, ", %s", argToString(arg))
			}
		}
	}

	if line.Comment != "" {
		fmt.Fprintf(out, "  # %s", line.Comment)
	}

	fmt.Fprintf(out, "\n")
}

func argToString(arg asm.Arg) string {
	if arg.Deref && arg.Reg == "" {
		panic(fmt.Errorf("invalid arg %#v. dereferencing only supported for registers", arg))
	}
	if arg.PreIndex || arg.PostIndex {
		panic(fmt.Errorf("writeback addressing not supported on x86_64: %#v", arg))
	}

	if arg.Reg != "" {
		if arg.Offset != 0 && arg.Deref {
			return fmt.Sprintf("%d(%%%s)", arg.Offset, arg.Reg)
		} else if arg.Deref {
			return fmt.Sprintf("(%%%s)", arg.Reg)
		}
		return fmt.Sprintf("%%%s", arg.Reg)
	} else if arg.Lsl != 0 {
		panic(fmt.Errorf("lsl not supported on x86_64: %#v", arg))
	} else if arg.Imm != nil {
		return fmt.Sprintf("$%d", *arg.Imm)
	}
	panic(fmt.Errorf("invalid arg %#v", arg))
}
