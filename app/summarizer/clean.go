package summarizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var (
	archivesPattern   = regexp.MustCompile(`(?i)News\s+News\s+chronological\s+archives[^\n]*`)
	timestampPattern  = regexp.MustCompile(`(?m)^\s*\d{2}:\d{2}\s+[A-Z][^\n]*`)
	conventionPattern = regexp.MustCompile(`(?i)Convention\s+reports[^\n]*`)

	bareTimestampLine = regexp.MustCompile(`^\d{2}:\d{2}\s*$`)
	navigationLine    = regexp.MustCompile(`(?i)^(News|Archive|More|Read|Click|View)\s`)
	tagPattern        = regexp.MustCompile(`<[^>]+>`)
	whitespacePattern = regexp.MustCompile(`\s+`)
	sentenceBreak     = regexp.MustCompile(`[.!?]+\s+`)
	trailingFragment  = regexp.MustCompile(`[^.!?]*$`)
)

const minLineLength = 20

// cleanLines drops boilerplate and navigation-like lines and returns the
// remaining lines with markup removed and whitespace collapsed.
func cleanLines(text string) []string {
	cleaned := archivesPattern.ReplaceAllString(text, "")
	cleaned = timestampPattern.ReplaceAllString(cleaned, "")
	cleaned = conventionPattern.ReplaceAllString(cleaned, "")

	var lines []string
	for _, line := range strings.Split(cleaned, "\n") {
		trimmed := strings.TrimSpace(line)
		if utf8.RuneCountInString(trimmed) < minLineLength {
			continue
		}
		if bareTimestampLine.MatchString(trimmed) || navigationLine.MatchString(trimmed) {
			continue
		}

		trimmed = collapse(tagPattern.ReplaceAllString(trimmed, " "))
		if trimmed != "" {
			lines = append(lines, trimmed)
		}
	}

	return lines
}

// cleanText is cleanLines flattened into a single space-separated string.
func cleanText(text string) string {
	return collapse(strings.Join(cleanLines(text), " "))
}

func collapse(text string) string {
	return strings.TrimSpace(whitespacePattern.ReplaceAllString(text, " "))
}

// splitSentences splits on terminal punctuation followed by whitespace and
// keeps the punctuation with its sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for _, loc := range sentenceBreak.FindAllStringIndex(text, -1) {
		sentence := strings.TrimSpace(text[start:loc[1]])
		if sentence != "" {
			sentences = append(sentences, sentence)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func words(text string) []string {
	return strings.Fields(text)
}

func wordCount(text string) int {
	return len(strings.Fields(text))
}

// capWords keeps at most limit words and, when that cut a sentence, trims
// back to the last sentence boundary as long as at least minWords remain.
func capWords(text string, limit, minWords int) string {
	all := words(text)
	if len(all) <= limit {
		return text
	}

	capped := strings.Join(all[:limit], " ")
	trimmed := strings.TrimSpace(trailingFragment.ReplaceAllString(capped, ""))
	if wordCount(trimmed) >= minWords {
		return trimmed
	}
	return capped
}

func truncateRunes(text string, limit int) string {
	if utf8.RuneCountInString(text) <= limit {
		return text
	}
	return string([]rune(text)[:limit])
}
