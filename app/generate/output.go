package generate

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/lysyi3m/news-comb/app/database"
	"github.com/lysyi3m/news-comb/app/errs"
)

const maxHashtags = database.MaxHashtags

var (
	codeFencePattern = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")

	genericPhrases = []string{
		"check the original source",
		"check the source",
		"refer to the article",
		"please refer",
		"for details",
		"for more details",
		"this news was reported by",
	}
)

type providerOutput struct {
	Headline    string   `json:"headline"`
	Summary     string   `json:"summary"`
	Body        string   `json:"body"`
	Hashtags    []string `json:"hashtags"`
	Attribution string   `json:"attribution"`
}

// ParseOutput decodes a provider response. Code fences are tolerated; missing
// fields are an upstream format failure.
func ParseOutput(raw string) (database.PostContent, error) {
	text := strings.TrimSpace(raw)
	if match := codeFencePattern.FindStringSubmatch(text); match != nil {
		text = match[1]
	}

	var out providerOutput
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return database.PostContent{}, fmt.Errorf("%w: invalid JSON output: %v", errs.ErrUpstreamFormat, err)
	}

	hashtags := make([]string, 0, len(out.Hashtags))
	for _, tag := range out.Hashtags {
		if tag = strings.TrimSpace(tag); tag != "" {
			hashtags = append(hashtags, tag)
		}
	}

	content := database.PostContent{
		Headline:    strings.TrimSpace(out.Headline),
		Summary:     strings.TrimSpace(out.Summary),
		Body:        strings.TrimSpace(out.Body),
		Hashtags:    hashtags,
		Attribution: strings.TrimSpace(out.Attribution),
	}

	if content.Headline == "" || content.Summary == "" || content.Body == "" || len(content.Hashtags) == 0 {
		return database.PostContent{}, fmt.Errorf("%w: output is missing required fields", errs.ErrUpstreamFormat)
	}

	return content, nil
}

// CheckQuality rejects placeholder output produced for articles that had
// enough source text to summarise properly.
func CheckQuality(content database.PostContent, sourceContent string, minContent int) error {
	if utf8.RuneCountInString(sourceContent) <= minContent {
		return nil
	}

	text := strings.ToLower(content.Summary + "\n" + content.Body)
	for _, phrase := range genericPhrases {
		if strings.Contains(text, phrase) {
			return fmt.Errorf("%w: output contains generic phrase %q", errs.ErrQuality, phrase)
		}
	}
	return nil
}

func finalize(content database.PostContent, sourceName string) database.PostContent {
	if len(content.Hashtags) > maxHashtags {
		content.Hashtags = content.Hashtags[:maxHashtags]
	}
	if content.Attribution == "" {
		content.Attribution = "Source: " + sourceName
	}
	return content
}
