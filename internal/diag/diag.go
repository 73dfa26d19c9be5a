package diag

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/pkg/errors"

	"github.com/iley/exprc/internal/lexer"
	"github.com/iley/exprc/internal/parser"
)

var (
	errorLabel = color.New(color.FgRed, color.Bold)
	caretColor = color.New(color.FgGreen, color.Bold)
)

// Report writes a human-readable rendering of err. Errors that carry a
// location also get the offending source line with a caret under the column.
func Report(w io.Writer, source string, err error) {
	if err == nil {
		return
	}

	message, loc, ok := locate(err)
	errorLabel.Fprint(w, "error:")
	fmt.Fprintf(w, " %s\n", message)
	if !ok {
		return
	}

	line, ok := sourceLine(source, loc.Line)
	if !ok {
		return
	}
	fmt.Fprintf(w, "  %s\n", line)
	fmt.Fprintf(w, "  %s", caretPadding(line, loc.Col))
	caretColor.Fprintln(w, "^")
}

func locate(err error) (string, lexer.Location, bool) {
	var lexErr *lexer.LexError
	if errors.As(err, &lexErr) {
		return lexErr.Error(), lexErr.Loc, true
	}
	var parseErr *parser.ParseError
	if errors.As(err, &parseErr) {
		return parseErr.Error(), parseErr.Loc, true
	}
	return err.Error(), lexer.Location{}, false
}

// sourceLine returns the 1-based line n of source without its terminator.
func sourceLine(source string, n int) (string, bool) {
	if n < 1 {
		return "", false
	}
	lines := strings.Split(source, "\n")
	if n > len(lines) {
		return "", false
	}
	return strings.TrimSuffix(lines[n-1], "\r"), true
}

// caretPadding reproduces tabs from the line so the caret lines up in a
// terminal regardless of tab width.
func caretPadding(line string, col int) string {
	var sb strings.Builder
	i := 1
	for _, r := range line {
		if i >= col {
			break
		}
		if r == '\t' {
			sb.WriteRune('\t')
		} else {
			sb.WriteRune(' ')
		}
		i++
	}
	for ; i < col; i++ {
		sb.WriteRune(' ')
	}
	return sb.String()
}
