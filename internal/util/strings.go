package util

import (
	"fmt"
	"strings"
	"unicode"
)

// EscapeString makes s safe to print inside single quotes on one line.
func EscapeString(s string) string {
	sb := strings.Builder{}
	for _, r := range s {
		switch r {
		case '\n':
			sb.WriteString(`\n`)
		case '\t':
			sb.WriteString(`\t`)
		case '\'':
			sb.WriteString(`\'`)
		case '\\':
			sb.WriteString(`\\`)
		default:
			if unicode.IsPrint(r) {
				sb.WriteRune(r)
			} else if r <= 0xff {
				sb.WriteString(fmt.Sprintf("\\x%02X", r))
			} else {
				sb.WriteString(fmt.Sprintf("\\u%04X", r))
			}
		}
	}
	return sb.String()
}
