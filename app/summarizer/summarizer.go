// Package summarizer builds news posts directly from article text without any
// external service. It is the terminal fallback for generation and never
// fails.
package summarizer

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	HashtagCount = 5

	maxHeadlineLength = 80
	maxBodyWords      = 3000
	minBodyLength     = 500
	minBodyLineLength = 15
	brandSampleLength = 500
)

var (
	categoryHashtags = map[string]string{
		"tech":          "#Technology",
		"entertainment": "#Entertainment",
		"games":         "#Gaming",
		"anime_comics":  "#Anime",
	}
	brandWords      = []string{"apple", "google", "microsoft", "amazon", "tesla", "iphone", "android", "windows", "xbox", "playstation"}
	defaultHashtags = []string{"#News", "#Breaking", "#Update", "#Latest", "#Tech"}

	nonAlphanumeric  = regexp.MustCompile(`[^a-z0-9\s]`)
	timestampedLine  = regexp.MustCompile(`^\d{2}:\d{2}\s`)
	excessBlankLines = regexp.MustCompile(`\n{3,}`)
)

type Input struct {
	Title       string
	Description string
	Content     string
	SourceName  string
	Category    string
}

type Output struct {
	Headline    string
	Summary     string
	Body        string
	Hashtags    []string
	Attribution string
}

// Generate derives a complete post from the article fields.
func Generate(input Input) Output {
	title := strings.TrimSpace(input.Title)
	description := strings.TrimSpace(input.Description)

	fullContent := input.Content
	if strings.TrimSpace(fullContent) == "" {
		fullContent = description
	}
	if strings.TrimSpace(fullContent) == "" {
		fullContent = title
	}

	summary := createSummary(title, description, fullContent)
	summary = boundSummary(summary, title, description, fullContent)

	return Output{
		Headline:    Headline(title),
		Summary:     summary,
		Body:        createBody(title, description, fullContent),
		Hashtags:    Hashtags(title, fullContent, input.Category),
		Attribution: Attribution(input.SourceName),
	}
}

func Headline(title string) string {
	if utf8.RuneCountInString(title) > maxHeadlineLength {
		return truncateRunes(title, maxHeadlineLength-3) + "..."
	}
	return title
}

func Attribution(sourceName string) string {
	return fmt.Sprintf("Source: %s", sourceName)
}

// Summary returns only the bounded summary for the given article fields.
func Summary(title, description, content string) string {
	return boundSummary(createSummary(title, description, content), title, description, content)
}

func createBody(title, description, content string) string {
	lines := cleanLines(content)
	if utf8.RuneCountInString(strings.Join(lines, "\n\n")) > minBodyLength {
		var kept []string
		for _, line := range lines {
			if utf8.RuneCountInString(line) < minBodyLineLength || timestampedLine.MatchString(line) {
				continue
			}
			kept = append(kept, line)
		}
		return capBody(kept)
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n\n")
	if description != "" {
		b.WriteString(description)
		b.WriteString("\n\n")
	}
	if utf8.RuneCountInString(content) > 50 {
		b.WriteString(content)
	} else {
		fmt.Fprintf(&b, "This article covers: %s. For more information, visit the source.", title)
	}

	return strings.TrimSpace(excessBlankLines.ReplaceAllString(b.String(), "\n\n"))
}

// capBody keeps paragraphs until maxBodyWords and, when truncated, ends at
// the last full stop if it lies in the final fifth of the text.
func capBody(paragraphs []string) string {
	var kept []string
	count := 0
	truncated := false

	for _, paragraph := range paragraphs {
		paragraphWords := words(paragraph)
		if count+len(paragraphWords) > maxBodyWords {
			if remaining := maxBodyWords - count; remaining > 0 {
				kept = append(kept, strings.Join(paragraphWords[:remaining], " "))
			}
			truncated = true
			break
		}
		kept = append(kept, paragraph)
		count += len(paragraphWords)
	}

	body := strings.Join(kept, "\n\n")
	if truncated {
		if lastPeriod := strings.LastIndex(body, "."); lastPeriod > len(body)*8/10 {
			body = body[:lastPeriod+1]
		}
	}

	return strings.TrimSpace(body)
}

// Hashtags always returns exactly HashtagCount unique tags.
func Hashtags(title, content, category string) []string {
	tags := make([]string, 0, HashtagCount)
	add := func(tag string) {
		for _, existing := range tags {
			if existing == tag {
				return
			}
		}
		tags = append(tags, tag)
	}

	if tag, ok := categoryHashtags[category]; ok {
		add(tag)
	}

	titleWords := 0
	for _, word := range strings.Fields(nonAlphanumeric.ReplaceAllString(strings.ToLower(title), " ")) {
		if titleWords == 3 {
			break
		}
		if len(word) > 4 {
			add("#" + capitalize(word))
			titleWords++
		}
	}

	sample := strings.ToLower(truncateRunes(content, brandSampleLength))
	for _, brand := range brandWords {
		if strings.Contains(sample, brand) {
			add("#" + capitalize(brand))
		}
	}

	for _, tag := range defaultHashtags {
		if len(tags) >= HashtagCount {
			break
		}
		add(tag)
	}

	return tags[:HashtagCount]
}

func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return string(unicode.ToUpper(r)) + word[size:]
}
