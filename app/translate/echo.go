package translate

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// IsEcho reports whether output is the input returned unchanged, ignoring
// Unicode normalization form, case and whitespace.
func IsEcho(input, output string) bool {
	return normalize(input) == normalize(output)
}

func normalize(text string) string {
	folded := cases.Fold().String(norm.NFC.String(text))
	return strings.Join(strings.Fields(folded), " ")
}
