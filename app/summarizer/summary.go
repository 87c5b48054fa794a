package summarizer

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

const (
	MinSummaryWords = 10
	MaxSummaryWords = 50

	minSentenceLength = 20
	maxSentenceLength = 300
)

var (
	digitPattern   = regexp.MustCompile(`\d+`)
	percentPattern = regexp.MustCompile(`\d+%`)
	yearPattern    = regexp.MustCompile(`\d{4}`)

	keywords      = []string{"announced", "released", "launched", "revealed", "according", "reports", "says", "confirmed"}
	fillerPhrases = []string{"click here", "read more", "continue reading", "check the source"}
)

type scoredSentence struct {
	text  string
	score float64
}

// keySentences returns up to limit sentences ranked by how much concrete
// information they appear to carry.
func keySentences(text string, limit int) []string {
	var candidates []string
	for _, sentence := range splitSentences(text) {
		length := utf8.RuneCountInString(sentence)
		if length > minSentenceLength && length < maxSentenceLength {
			candidates = append(candidates, sentence)
		}
	}

	total := float64(len(candidates))
	scored := make([]scoredSentence, 0, len(candidates))
	for i, sentence := range candidates {
		scored = append(scored, scoredSentence{text: sentence, score: scoreSentence(sentence, i, total)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].score > scored[j].score
	})

	if len(scored) > limit {
		scored = scored[:limit]
	}

	result := make([]string, 0, len(scored))
	for _, s := range scored {
		result = append(result, s.text)
	}
	return result
}

func scoreSentence(sentence string, index int, total float64) float64 {
	var score float64
	lower := strings.ToLower(sentence)

	if digitPattern.MatchString(sentence) {
		score += 3
	}
	if percentPattern.MatchString(sentence) {
		score += 5
	}
	if yearPattern.MatchString(sentence) {
		score += 2
	}

	for _, word := range keywords {
		if strings.Contains(lower, word) {
			score += 2
		}
	}

	if total > 0 {
		score += (total - float64(index)) / total * 2
	}

	for _, phrase := range fillerPhrases {
		if strings.Contains(lower, phrase) {
			score -= 10
			break
		}
	}

	return score
}

// assemble adds whole sentences until the word cap; a final partial sentence
// is only used when at least MinSummaryWords of room remain.
func assemble(sentences []string) string {
	var parts []string
	count := 0

	for _, sentence := range sentences {
		sentenceWords := words(sentence)
		if count+len(sentenceWords) <= MaxSummaryWords {
			parts = append(parts, sentence)
			count += len(sentenceWords)
			continue
		}

		remaining := MaxSummaryWords - count
		if remaining >= MinSummaryWords {
			parts = append(parts, strings.Join(sentenceWords[:remaining], " "))
			return capWords(trimToBoundary(strings.Join(parts, " ")), MaxSummaryWords, MinSummaryWords)
		}
		break
	}

	return capWords(strings.Join(parts, " "), MaxSummaryWords, MinSummaryWords)
}

// trimToBoundary drops a trailing unfinished sentence, unless nothing would
// be left.
func trimToBoundary(text string) string {
	trimmed := strings.TrimSpace(trailingFragment.ReplaceAllString(text, ""))
	if trimmed == "" {
		return text
	}
	return trimmed
}

func createSummary(title, description, content string) string {
	cleaned := cleanText(content)

	descLength := utf8.RuneCountInString(description)
	if descLength > 30 && descLength < 200 {
		descWords := wordCount(description)
		if descWords >= MinSummaryWords && descWords <= MaxSummaryWords {
			return strings.TrimSpace(description)
		}
		if descWords > MaxSummaryWords {
			return capWords(description, MaxSummaryWords, MinSummaryWords)
		}
	}

	summary := assemble(keySentences(cleaned, 3))
	if wordCount(summary) < MinSummaryWords && utf8.RuneCountInString(cleaned) > 100 {
		if wider := assemble(keySentences(cleaned, 5)); wordCount(wider) > wordCount(summary) {
			summary = wider
		}
	}
	if summary != "" {
		return summary
	}

	if utf8.RuneCountInString(cleaned) > 100 {
		firstParagraph := strings.SplitN(cleaned, "\n\n", 2)[0]
		if firstParagraph == "" {
			firstParagraph = truncateRunes(cleaned, 300)
		}
		if wordCount(firstParagraph) > 0 {
			return capWords(firstParagraph, MaxSummaryWords, MinSummaryWords)
		}
	}

	if titleWords := words(title); len(titleWords) > 0 {
		return capWords(strings.Join(titleWords, " "), MaxSummaryWords, MinSummaryWords)
	}

	return "Latest news update."
}

// boundSummary enforces the 10-50 word contract. Below ten words it tops up
// from the opening sentences and then from every available input word, so a
// short result means the inputs themselves hold fewer than ten words.
func boundSummary(summary, title, description, content string) string {
	summary = capWords(summary, MaxSummaryWords, MinSummaryWords)
	if wordCount(summary) >= MinSummaryWords {
		return summary
	}

	cleaned := cleanText(content)
	if utf8.RuneCountInString(cleaned) > 100 {
		sentences := splitSentences(cleaned)
		if len(sentences) > 3 {
			sentences = sentences[:3]
		}
		if opening := strings.Join(sentences, " "); wordCount(opening) >= MinSummaryWords {
			return capWords(opening, MaxSummaryWords, MinSummaryWords)
		}
	}

	pool := words(strings.Join([]string{title, description, collapse(tagPattern.ReplaceAllString(content, " "))}, " "))
	if len(pool) <= wordCount(summary) {
		return summary
	}
	if len(pool) > MaxSummaryWords {
		pool = pool[:MaxSummaryWords]
	}
	return strings.Join(pool, " ")
}
