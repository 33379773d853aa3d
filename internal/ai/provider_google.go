package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/p-n-ai/learnly/internal/platform/httpx"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// GoogleProvider implements Provider for Google Gemini.
type GoogleProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	retry   httpx.RetryPolicy
}

// GoogleOption configures a GoogleProvider.
type GoogleOption func(*GoogleProvider)

// WithGoogleBaseURL sets the base URL (for testing).
func WithGoogleBaseURL(url string) GoogleOption {
	return func(p *GoogleProvider) {
		p.baseURL = url
	}
}

// WithGoogleHTTPClient sets a custom HTTP client.
func WithGoogleHTTPClient(client *http.Client) GoogleOption {
	return func(p *GoogleProvider) {
		p.client = client
	}
}

// WithGoogleRetryPolicy overrides the retry policy for transient upstream errors.
func WithGoogleRetryPolicy(policy httpx.RetryPolicy) GoogleOption {
	return func(p *GoogleProvider) {
		p.retry = policy
	}
}

// NewGoogleProvider creates a new Google Gemini provider.
func NewGoogleProvider(apiKey string, opts ...GoogleOption) *GoogleProvider {
	p := &GoogleProvider{
		apiKey:  apiKey,
		baseURL: defaultGeminiBaseURL,
		client:  httpx.NewClient(90 * time.Second),
		retry:   httpx.DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// geminiRequest is the request body for the Gemini generateContent API.
type geminiRequest struct {
	SystemInstruction *geminiContent          `json:"systemInstruction,omitempty"`
	Contents          []geminiContent         `json:"contents"`
	GenerationConfig  *geminiGenerationConfig `json:"generationConfig,omitempty"`
}

type geminiContent struct {
	Role  string       `json:"role,omitempty"`
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiGenerationConfig struct {
	MaxOutputTokens  int      `json:"maxOutputTokens,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	ResponseMIMEType string   `json:"responseMimeType,omitempty"`
}

type geminiCandidate struct {
	Content geminiContent `json:"content"`
}

type geminiUsage struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

// geminiResponse is the response from the Gemini API.
type geminiResponse struct {
	Candidates    []geminiCandidate `json:"candidates"`
	UsageMetadata geminiUsage       `json:"usageMetadata"`
}

func (p *GoogleProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = "gemini-2.5-flash"
	}

	system, rest := systemPrompt(req.Messages)
	contents := make([]geminiContent, 0, len(rest))
	for _, m := range rest {
		role := m.Role
		// Gemini uses "user" and "model" roles.
		if role == "assistant" {
			role = "model"
		}
		contents = append(contents, geminiContent{
			Role:  role,
			Parts: []geminiPart{{Text: m.Content}},
		})
	}

	gemReq := geminiRequest{Contents: contents}
	if system != "" {
		gemReq.SystemInstruction = &geminiContent{Parts: []geminiPart{{Text: system}}}
	}
	if req.MaxTokens > 0 || req.Temperature > 0 || req.JSON {
		config := &geminiGenerationConfig{MaxOutputTokens: req.MaxTokens}
		if req.Temperature > 0 {
			temp := req.Temperature
			config.Temperature = &temp
		}
		if req.JSON {
			config.ResponseMIMEType = "application/json"
		}
		gemReq.GenerationConfig = config
	}

	body, err := json.Marshal(gemReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, model, url.QueryEscape(p.apiKey))
	resp, err := httpx.DoWithRetry(ctx, p.client, p.retry, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("gemini api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var gemResp geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&gemResp); err != nil {
		return CompletionResponse{}, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(gemResp.Candidates) == 0 || len(gemResp.Candidates[0].Content.Parts) == 0 {
		return CompletionResponse{}, fmt.Errorf("no content in response")
	}

	var text strings.Builder
	for _, part := range gemResp.Candidates[0].Content.Parts {
		text.WriteString(part.Text)
	}

	return CompletionResponse{
		Content:      text.String(),
		Model:        model,
		InputTokens:  gemResp.UsageMetadata.PromptTokenCount,
		OutputTokens: gemResp.UsageMetadata.CandidatesTokenCount,
	}, nil
}

func (p *GoogleProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "gemini-2.5-pro", Name: "Gemini 2.5 Pro", MaxTokens: 1048576, Description: "Long curricula"},
		{ID: "gemini-2.5-flash", Name: "Gemini 2.5 Flash", MaxTokens: 1048576, Description: "Default for generation"},
	}
}

func (p *GoogleProvider) HealthCheck(ctx context.Context) error {
	endpoint := fmt.Sprintf("%s/models?key=%s", p.baseURL, url.QueryEscape(p.apiKey))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}
