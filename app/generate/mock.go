package generate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// MockProvider returns canned placeholder output built from the TITLE and
// SOURCE lines of the user prompt.
type MockProvider struct{}

func NewMockProvider() *MockProvider {
	return &MockProvider{}
}

func (p *MockProvider) Name() string {
	return ProviderMock
}

func (p *MockProvider) Complete(ctx context.Context, system, user string) (string, error) {
	title, source := "Untitled", "the source"

	scanner := bufio.NewScanner(strings.NewReader(user))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if value, ok := strings.CutPrefix(line, "TITLE: "); ok && value != "" {
			title = value
		}
		if value, ok := strings.CutPrefix(line, "SOURCE: "); ok && value != "" {
			source = value
		}
	}

	headline := "Breaking: " + truncateRunes(title, 60)
	out := providerOutput{
		Headline: headline,
		Summary:  fmt.Sprintf("This news was reported by %s. Check the original source for details.", source),
		Body: fmt.Sprintf("%s\n\nThis news was reported by %s. For detailed information, please refer to the original news source. For more details, check the original source.\n\nSource: %s",
			headline, source, source),
		Hashtags:    []string{"#News", "#Breaking", "#Update", "#Latest", "#Info"},
		Attribution: "Source: " + source,
	}

	data, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("failed to encode mock output: %w", err)
	}
	return string(data), nil
}
