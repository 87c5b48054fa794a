package translate

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/lysyi3m/news-comb/app/errs"
)

const DefaultMyMemoryURL = "https://api.mymemory.translated.net/get"

type MyMemoryTranslator struct {
	httpClient *http.Client
	endpoint   string
	sourceLang string
	targetLang string
}

// MyMemory answers HTTP 200 for quota and length errors and reports them in
// responseStatus, which arrives either as a number or a string.
type myMemoryResponse struct {
	ResponseData struct {
		TranslatedText string `json:"translatedText"`
	} `json:"responseData"`
	ResponseStatus  json.Number `json:"responseStatus"`
	ResponseDetails string      `json:"responseDetails"`
}

func NewMyMemoryTranslator(httpClient *http.Client, endpoint, sourceLang, targetLang string) *MyMemoryTranslator {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if endpoint == "" {
		endpoint = DefaultMyMemoryURL
	}
	if sourceLang == "" {
		sourceLang = DefaultSourceLang
	}
	if targetLang == "" {
		targetLang = DefaultTargetLang
	}
	return &MyMemoryTranslator{
		httpClient: httpClient,
		endpoint:   endpoint,
		sourceLang: sourceLang,
		targetLang: targetLang,
	}
}

func (m *MyMemoryTranslator) Name() string {
	return "mymemory"
}

// Translate makes a single GET request; the reference is not supported.
func (m *MyMemoryTranslator) Translate(ctx context.Context, text, reference string) (string, error) {
	params := url.Values{}
	params.Set("q", text)
	params.Set("langpair", m.sourceLang+"|"+m.targetLang)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, m.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: mymemory request failed: %v", errs.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("%w: mymemory error %d: %s", errs.ErrTransport, resp.StatusCode, readErrorBody(resp.Body))
	}

	var decoded myMemoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", fmt.Errorf("%w: failed to decode mymemory response: %v", errs.ErrUpstreamFormat, err)
	}

	if status := decoded.ResponseStatus.String(); status != "" && status != "200" {
		details := cmp.Or(strings.TrimSpace(decoded.ResponseDetails), decoded.ResponseData.TranslatedText)
		return "", fmt.Errorf("%w: mymemory status %s: %s", errs.ErrTransport, status, details)
	}

	out := strings.TrimSpace(decoded.ResponseData.TranslatedText)
	if out == "" {
		return "", fmt.Errorf("%w: mymemory returned an empty translation", errs.ErrUpstreamFormat)
	}
	return out, nil
}
