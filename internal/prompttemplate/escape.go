package prompttemplate

import "strings"

var braceEscaper = strings.NewReplacer("{", "{{", "}", "}}")

// Escape doubles every brace in s so the result renders back to s verbatim
// when used as template text. It must be applied exactly once per value.
func Escape(s string) string {
	return braceEscaper.Replace(s)
}
