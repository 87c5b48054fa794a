package translate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/lysyi3m/news-comb/app/errs"
)

type LibreTranslator struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	sourceLang string
	targetLang string
}

type libreRequest struct {
	Q      string `json:"q"`
	Source string `json:"source"`
	Target string `json:"target"`
	Format string `json:"format"`
	APIKey string `json:"api_key,omitempty"`
}

type libreResponse struct {
	TranslatedText string `json:"translatedText"`
}

func NewLibreTranslator(httpClient *http.Client, endpoint, apiKey, sourceLang, targetLang string) *LibreTranslator {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if sourceLang == "" {
		sourceLang = DefaultSourceLang
	}
	if targetLang == "" {
		targetLang = DefaultTargetLang
	}
	return &LibreTranslator{
		httpClient: httpClient,
		endpoint:   endpoint,
		apiKey:     apiKey,
		sourceLang: sourceLang,
		targetLang: targetLang,
	}
}

func (l *LibreTranslator) Name() string {
	return "libretranslate"
}

func (l *LibreTranslator) Translate(ctx context.Context, text, reference string) (string, error) {
	payload, err := json.Marshal(libreRequest{
		Q:      text,
		Source: l.sourceLang,
		Target: l.targetLang,
		Format: "text",
		APIKey: l.apiKey,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, l.endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: libretranslate request failed: %v", errs.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: libretranslate error %d: %s", errs.ErrTransport, resp.StatusCode, readErrorBody(resp.Body))
	}

	var decoded libreResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: failed to decode libretranslate response: %v", errs.ErrUpstreamFormat, err)
	}

	out := strings.TrimSpace(decoded.TranslatedText)
	if out == "" {
		return "", fmt.Errorf("%w: libretranslate returned an empty translation", errs.ErrUpstreamFormat)
	}
	return out, nil
}
