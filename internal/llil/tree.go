package llil

import "strings"

// Indent is the per-level indentation used by Tree.
const Indent = "    "

// Tree lays out a canonical string for reading. An opening parenthesis
// breaks the line one level deeper, a closing one returns a level without
// printing anything, and a comma breaks the line at the current level.
// Depth never goes below zero, so unbalanced input still renders.
func Tree(s string) string {
	var sb strings.Builder
	depth := 0

	newline := func() {
		sb.WriteByte('\n')
		sb.WriteString(strings.Repeat(Indent, depth))
	}

	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(':
			depth++
			newline()
		case ')':
			if depth > 0 {
				depth--
			}
		case ',':
			newline()
		default:
			sb.WriteByte(c)
		}
	}
	return sb.String()
}
