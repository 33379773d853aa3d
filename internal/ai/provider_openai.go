package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/p-n-ai/learnly/internal/platform/httpx"
)

const (
	defaultOpenAIBaseURL     = "https://api.openai.com/v1"
	defaultDeepSeekBaseURL   = "https://api.deepseek.com"
	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
	defaultOllamaBaseURL     = "http://localhost:11434"
)

// OpenAIProvider implements Provider for OpenAI and OpenAI-compatible APIs
// (DeepSeek, OpenRouter, Ollama) via a configurable base URL.
type OpenAIProvider struct {
	apiKey       string
	baseURL      string
	client       *http.Client
	retry        httpx.RetryPolicy
	name         string
	defaultModel string
	jsonMode     bool // whether the backend honours response_format
	headers      map[string]string
	models       []ModelInfo
}

// OpenAIOption configures an OpenAIProvider.
type OpenAIOption func(*OpenAIProvider)

// WithBaseURL sets the base URL for the OpenAI-compatible API.
func WithBaseURL(url string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.client = client
	}
}

// WithRetryPolicy overrides the retry policy for transient upstream errors.
func WithRetryPolicy(policy httpx.RetryPolicy) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.retry = policy
	}
}

// WithModels sets the available models for this provider.
func WithModels(models []ModelInfo) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.models = models
	}
}

// WithDefaultModel sets the model used when a request doesn't name one.
func WithDefaultModel(model string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.defaultModel = model
	}
}

// WithProviderName sets the provider name (for multi-instance use, e.g. "deepseek").
func WithProviderName(name string) OpenAIOption {
	return func(p *OpenAIProvider) {
		p.name = name
	}
}

// NewOpenAIProvider creates a new OpenAI-compatible provider.
func NewOpenAIProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	p := &OpenAIProvider{
		apiKey:       apiKey,
		baseURL:      defaultOpenAIBaseURL,
		client:       httpx.NewClient(90 * time.Second),
		retry:        httpx.DefaultRetryPolicy,
		name:         "openai",
		defaultModel: "gpt-4o-mini",
		jsonMode:     true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewDeepSeekProvider creates a provider for the DeepSeek API.
func NewDeepSeekProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	opts = append([]OpenAIOption{
		WithBaseURL(defaultDeepSeekBaseURL),
		WithProviderName("deepseek"),
		WithDefaultModel("deepseek-chat"),
	}, opts...)
	return NewOpenAIProvider(apiKey, opts...)
}

// NewOpenRouterProvider creates a provider for OpenRouter's OpenAI-compatible endpoint.
func NewOpenRouterProvider(apiKey string, opts ...OpenAIOption) *OpenAIProvider {
	opts = append([]OpenAIOption{
		WithBaseURL(defaultOpenRouterBaseURL),
		WithProviderName("openrouter"),
		WithDefaultModel("openai/gpt-4o-mini"),
	}, opts...)
	p := NewOpenAIProvider(apiKey, opts...)
	p.headers = map[string]string{"X-Title": "Learnly"}
	return p
}

// NewOllamaProvider creates a provider for a self-hosted Ollama server. Ollama
// serves the OpenAI-compatible API under /v1 and needs no key.
func NewOllamaProvider(baseURL string, opts ...OpenAIOption) *OpenAIProvider {
	if baseURL == "" {
		baseURL = defaultOllamaBaseURL
	}
	opts = append([]OpenAIOption{
		WithBaseURL(baseURL + "/v1"),
		WithProviderName("ollama"),
		WithDefaultModel("llama3.1"),
	}, opts...)
	p := NewOpenAIProvider("", opts...)
	p.jsonMode = false
	return p
}

// Name returns the provider name used for router registration.
func (p *OpenAIProvider) Name() string { return p.name }

// openaiRequest is the request body for the OpenAI chat completions API.
type openaiRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type openaiChoice struct {
	Message Message `json:"message"`
}

type openaiUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// openaiResponse is the response from the OpenAI chat completions API.
type openaiResponse struct {
	Choices []openaiChoice `json:"choices"`
	Model   string         `json:"model"`
	Usage   openaiUsage    `json:"usage"`
}

func (p *OpenAIProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	oaiReq := openaiRequest{
		Model:     model,
		Messages:  req.Messages,
		MaxTokens: req.MaxTokens,
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		oaiReq.Temperature = &temp
	}
	if req.JSON && p.jsonMode {
		oaiReq.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	body, err := json.Marshal(oaiReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshal request: %w", err)
	}

	resp, err := httpx.DoWithRetry(ctx, p.client, p.retry, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		p.setHeaders(httpReq)
		httpReq.Header.Set("Content-Type", "application/json")
		return httpReq, nil
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("%s api: %w", p.name, err)
	}
	defer func() { _ = resp.Body.Close() }()

	var oaiResp openaiResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaiResp); err != nil {
		return CompletionResponse{}, fmt.Errorf("unmarshal response: %w", err)
	}

	if len(oaiResp.Choices) == 0 {
		return CompletionResponse{}, fmt.Errorf("no choices in response")
	}
	if oaiResp.Model == "" {
		oaiResp.Model = model
	}

	return CompletionResponse{
		Content:      oaiResp.Choices[0].Message.Content,
		Model:        oaiResp.Model,
		InputTokens:  oaiResp.Usage.PromptTokens,
		OutputTokens: oaiResp.Usage.CompletionTokens,
	}, nil
}

func (p *OpenAIProvider) setHeaders(req *http.Request) {
	if p.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.apiKey)
	}
	for k, v := range p.headers {
		req.Header.Set(k, v)
	}
}

func (p *OpenAIProvider) Models() []ModelInfo {
	if p.models != nil {
		return p.models
	}
	return []ModelInfo{
		{ID: p.defaultModel, Name: p.defaultModel, MaxTokens: 128000, Description: p.name + " default model"},
	}
}

func (p *OpenAIProvider) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/models", nil)
	if err != nil {
		return err
	}
	p.setHeaders(req)

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
