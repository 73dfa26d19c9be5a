package aarch64

import (
	"fmt"
	"io"

	"github.com/iley/exprc/internal/codegen/asm"
)

// FormatLine writes a single line in GNU/Apple aarch64 syntax. The two
// assemblers differ only in the comment marker.
func FormatLine(out io.Writer, line asm.Line, commentMarker string) {
	if line.Label != "" {
		fmt.Fprintf(out, "%s:", line.Label)
	} else if line.Op != "" {
		fmt.Fprintf(out, "  %s", line.Op)

		for i, arg := range line.Args() {
			if i == 0 {
				fmt.Fprintf(out, " %s", ArgToString(arg))
			} else {
				fmt.Fprintf(out, ", %s", ArgToString(arg))
			}
		}
	}

	if line.Comment != "" {
		fmt.Fprintf(out, "  %s %s", commentMarker, line.Comment)
	}

	fmt.Fprintf(out, "\n")
}

func ArgToString(arg asm.Arg) string {
	if arg.Deref && arg.Reg == "" {
		panic(fmt.Errorf("invalid arg %#v. dereferencing only supported for registers", arg))
	}

	if arg.Reg != "" {
		switch {
		case arg.PreIndex:
			return fmt.Sprintf("[%s, #%d]!", arg.Reg, arg.Offset)
		case arg.PostIndex:
			return fmt.Sprintf("[%s], #%d", arg.Reg, arg.Offset)
		case arg.Offset != 0 && arg.Deref:
			return fmt.Sprintf("[%s, #%d]", arg.Reg, arg.Offset)
		case arg.Deref:
			return fmt.Sprintf("[%s]", arg.Reg)
		}
		return arg.Reg
	} else if arg.Lsl != 0 {
		return fmt.Sprintf("lsl #%d", arg.Lsl)
	} else if arg.Imm != nil {
		return fmt.Sprintf("#%d", *arg.Imm)
	}
	panic(fmt.Errorf("invalid arg %#v", arg))
}
