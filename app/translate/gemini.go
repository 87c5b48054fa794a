package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/lysyi3m/news-comb/app/errs"
)

const DefaultGeminiBaseURL = "https://generativelanguage.googleapis.com"

var (
	fallbackModels = []string{
		"gemini-2.0-flash-exp",
		"gemini-1.5-flash-latest",
		"gemini-1.5-pro-latest",
		"gemini-1.5-flash",
		"gemini-1.5-pro",
		"gemini-pro",
	}
	apiVersions = []string{"v1beta", "v1"}
)

// Action tells the Gemini state machine what to do after a failed attempt.
type Action int

const (
	// RetryNext moves on to the next model/version pair.
	RetryNext Action = iota
	// AbortProvider gives up on Gemini so the chain falls through.
	AbortProvider
)

func (a Action) String() string {
	if a == RetryNext {
		return "retry_next"
	}
	return "abort_provider"
}

type statusError struct {
	StatusCode int
	Body       string
}

func (e *statusError) Error() string {
	return fmt.Sprintf("gemini error %d: %s", e.StatusCode, e.Body)
}

func (e *statusError) Unwrap() error {
	return errs.ErrTransport
}

// Classify maps a failed attempt to the next state machine action. Only
// "model not found" style failures move on to the next candidate.
func Classify(err error) Action {
	if err == nil {
		return AbortProvider
	}
	if errors.Is(err, errs.ErrQuality) {
		return AbortProvider
	}
	if errors.Is(err, errs.ErrUpstreamFormat) {
		return RetryNext
	}

	var statusErr *statusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusNotFound {
			return RetryNext
		}
		return AbortProvider
	}

	message := strings.ToLower(err.Error())
	for _, marker := range []string{"auth", "quota", "permission", "401", "403"} {
		if strings.Contains(message, marker) {
			return AbortProvider
		}
	}
	for _, marker := range []string{"404", "not found", "not_found"} {
		if strings.Contains(message, marker) {
			return RetryNext
		}
	}
	return AbortProvider
}

type GeminiTranslator struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
}

type geminiRequest struct {
	Contents []struct {
		Parts []geminiPart `json:"parts"`
	} `json:"contents"`
	GenerationConfig struct {
		Temperature float64 `json:"temperature"`
	} `json:"generationConfig"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content struct {
			Parts []geminiPart `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

type geminiModelList struct {
	Models []struct {
		Name                       string   `json:"name"`
		SupportedGenerationMethods []string `json:"supportedGenerationMethods"`
	} `json:"models"`
}

func NewGeminiTranslator(httpClient *http.Client, baseURL, apiKey, model string) *GeminiTranslator {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if baseURL == "" {
		baseURL = DefaultGeminiBaseURL
	}
	return &GeminiTranslator{
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
	}
}

func (g *GeminiTranslator) Name() string {
	return "gemini"
}

// Translate tries each candidate model on each API version until one
// answers, stopping early on any failure Classify marks as AbortProvider.
func (g *GeminiTranslator) Translate(ctx context.Context, text, reference string) (string, error) {
	prompt := buildPrompt(text, reference)

	var lastErr error
	for _, model := range g.candidates(ctx) {
		for _, version := range apiVersions {
			out, err := g.generate(ctx, version, model, prompt)
			if err == nil && IsEcho(text, out) {
				err = fmt.Errorf("%w: gemini returned the input unchanged", errs.ErrQuality)
			}
			if err == nil {
				return out, nil
			}

			if Classify(err) == AbortProvider {
				return "", err
			}
			slog.Debug("Gemini attempt failed, trying next", "model", model, "version", version, "error", err)
			lastErr = err
		}
	}

	return "", fmt.Errorf("%w: no working gemini model/version found: %v", errs.ErrTransport, lastErr)
}

func (g *GeminiTranslator) candidates(ctx context.Context) []string {
	if g.model != "" {
		return []string{g.model}
	}
	models, err := g.listModels(ctx)
	if err != nil || len(models) == 0 {
		slog.Debug("Using fallback gemini models", "error", err)
		return fallbackModels
	}
	return models
}

func (g *GeminiTranslator) listModels(ctx context.Context) ([]string, error) {
	endpoint := fmt.Sprintf("%s/v1beta/models?key=%s", g.baseURL, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to list models: %v", errs.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &statusError{StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	var list geminiModelList
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("%w: failed to decode model list: %v", errs.ErrUpstreamFormat, err)
	}

	var models []string
	for _, model := range list.Models {
		for _, method := range model.SupportedGenerationMethods {
			if method == "generateContent" {
				models = append(models, strings.TrimPrefix(model.Name, "models/"))
				break
			}
		}
	}
	return models, nil
}

func (g *GeminiTranslator) generate(ctx context.Context, version, model, prompt string) (string, error) {
	var body geminiRequest
	body.Contents = []struct {
		Parts []geminiPart `json:"parts"`
	}{{Parts: []geminiPart{{Text: prompt}}}}
	body.GenerationConfig.Temperature = 0.6

	payload, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/%s/models/%s:generateContent?key=%s", g.baseURL, version, model, url.QueryEscape(g.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: gemini request failed: %v", errs.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", &statusError{StatusCode: resp.StatusCode, Body: readErrorBody(resp.Body)}
	}

	var decoded geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: failed to decode gemini response: %v", errs.ErrUpstreamFormat, err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("%w: gemini returned no candidates", errs.ErrUpstreamFormat)
	}

	out := strings.TrimSpace(decoded.Candidates[0].Content.Parts[0].Text)
	if out == "" {
		return "", fmt.Errorf("%w: gemini returned an empty translation", errs.ErrUpstreamFormat)
	}
	return out, nil
}

func buildPrompt(text, reference string) string {
	var b strings.Builder
	b.WriteString("You are an expert translator specializing in English to Sinhala translation. ")
	b.WriteString("Translate the following English text into natural, native Sinhala. Translate everything and do not keep any English words.\n\n")
	if reference != "" {
		fmt.Fprintf(&b, "Context (for reference only): %s\n\n", reference)
	}
	fmt.Fprintf(&b, "Text to translate: %q\n\nProvide ONLY the complete Sinhala translation:", text)
	return b.String()
}

func readErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, 512))
	return strings.TrimSpace(string(data))
}
