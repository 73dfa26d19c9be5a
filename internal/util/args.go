package util

import "regexp"

// A sign run followed by a digit or a parenthesis is an expression, not an
// option: "-1", "--5", "-(2)". Option names start with a letter.
var signedExpression = regexp.MustCompile(`^[-+]+[0-9(]`)

// EndOptionsBeforeExpression inserts "--" in front of the first argument that
// reads as a signed expression so flag parsers pass it through as an operand.
// Arguments that already contain "--" are returned unchanged.
func EndOptionsBeforeExpression(args []string) []string {
	for i, arg := range args {
		if arg == "--" {
			return args
		}
		if signedExpression.MatchString(arg) {
			result := make([]string, 0, len(args)+1)
			result = append(result, args[:i]...)
			result = append(result, "--")
			return append(result, args[i:]...)
		}
	}
	return args
}
