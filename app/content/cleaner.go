package content

import (
	"html"
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	scriptPattern     = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	stylePattern      = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	spacePattern      = regexp.MustCompile(`[ \t\f\r\v\x{00a0}]+`)
	blankLinesPattern = regexp.MustCompile(`\n{3,}`)
	anySpacePattern   = regexp.MustCompile(`[\s\x{00a0}]+`)
)

// StripTags removes markup and decodes entities, returning single-spaced text.
func StripTags(markup string) string {
	text := scriptPattern.ReplaceAllString(markup, "")
	text = stylePattern.ReplaceAllString(text, "")
	text = tagPattern.ReplaceAllString(text, " ")
	text = html.UnescapeString(text)
	text = anySpacePattern.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

// Clean collapses runs of spaces inside lines, keeps at most one blank line
// between paragraphs and truncates the result to maxLength runes.
func Clean(text string, maxLength int) string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(spacePattern.ReplaceAllString(line, " "))
	}

	cleaned := strings.Join(lines, "\n")
	cleaned = blankLinesPattern.ReplaceAllString(cleaned, "\n\n")
	cleaned = strings.TrimSpace(cleaned)

	return truncateRunes(cleaned, maxLength)
}

func truncateRunes(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:limit]))
}

func runeLen(text string) int {
	return utf8.RuneCountInString(text)
}
