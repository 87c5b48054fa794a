package generate

import (
	"context"
	"fmt"
	"net/http"

	"github.com/lysyi3m/news-comb/app/errs"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderMock   = "mock"
	ProviderNone   = "none"
)

// Provider turns a system and user prompt into raw model output.
type Provider interface {
	Name() string
	Complete(ctx context.Context, system, user string) (string, error)
}

type ProviderConfig struct {
	Name          string
	OpenAIAPIKey  string
	OpenAIModel   string
	OpenAIBaseURL string
	GeminiAPIKey  string
	GeminiModel   string
	HTTPClient    *http.Client
}

// NewProvider returns nil for ProviderNone, which leaves generation to the
// heuristic summarizer.
func NewProvider(ctx context.Context, config ProviderConfig) (Provider, error) {
	switch config.Name {
	case ProviderNone, "":
		return nil, nil
	case ProviderMock:
		return NewMockProvider(), nil
	case ProviderOpenAI:
		if config.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY is not set", errs.ErrConfiguration)
		}
		return NewOpenAIProvider(config.HTTPClient, config.OpenAIBaseURL, config.OpenAIAPIKey, config.OpenAIModel), nil
	case ProviderGemini:
		if config.GeminiAPIKey == "" {
			return nil, fmt.Errorf("%w: GEMINI_API_KEY is not set", errs.ErrConfiguration)
		}
		provider, err := NewGeminiProvider(ctx, config.GeminiAPIKey, config.GeminiModel)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("%w: unknown generation provider %q", errs.ErrConfiguration, config.Name)
	}
}
