package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/p-n-ai/learnly/internal/platform/httpx"
)

const defaultAnthropicBaseURL = "https://api.anthropic.com/v1"

// jsonOnlyInstruction is appended to the system prompt when a JSON answer is
// requested, since the messages API has no response_format switch.
const jsonOnlyInstruction = "Respond with a single JSON value and nothing else."

// AnthropicProvider implements Provider for Anthropic Claude.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	client  *http.Client
	retry   httpx.RetryPolicy
}

// AnthropicOption configures an AnthropicProvider.
type AnthropicOption func(*AnthropicProvider)

// WithAnthropicBaseURL sets the base URL (for testing).
func WithAnthropicBaseURL(url string) AnthropicOption {
	return func(p *AnthropicProvider) {
		p.baseURL = url
	}
}

// WithAnthropicRetryPolicy overrides the retry policy for transient upstream errors.
func WithAnthropicRetryPolicy(policy httpx.RetryPolicy) AnthropicOption {
	return func(p *AnthropicProvider) {
		p.retry = policy
	}
}

// NewAnthropicProvider creates a new Anthropic provider.
func NewAnthropicProvider(apiKey string, opts ...AnthropicOption) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	p := &AnthropicProvider{
		apiKey:  apiKey,
		baseURL: defaultAnthropicBaseURL,
		client:  httpx.NewClient(90 * time.Second),
		retry:   httpx.DefaultRetryPolicy,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

type anthropicRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []Message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model string `json:"model"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

func (p *AnthropicProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	model := req.Model
	if model == "" {
		model = "claude-sonnet-4-6"
	}
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = 8192
	}

	system, messages := systemPrompt(req.Messages)
	if req.JSON {
		system = strings.TrimSpace(system + "\n\n" + jsonOnlyInstruction)
	}

	antReq := anthropicRequest{
		Model:     model,
		MaxTokens: maxTokens,
		System:    system,
		Messages:  messages,
	}
	if req.Temperature > 0 {
		temp := req.Temperature
		antReq.Temperature = &temp
	}

	body, err := json.Marshal(antReq)
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("marshaling request: %w", err)
	}

	resp, err := httpx.DoWithRetry(ctx, p.client, p.retry, func() (*http.Request, error) {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		httpReq.Header.Set("x-api-key", p.apiKey)
		httpReq.Header.Set("anthropic-version", "2023-06-01")
		return httpReq, nil
	})
	if err != nil {
		return CompletionResponse{}, fmt.Errorf("anthropic api: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	var result anthropicResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return CompletionResponse{}, fmt.Errorf("parsing response: %w", err)
	}

	var text strings.Builder
	for _, block := range result.Content {
		if block.Type == "" || block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return CompletionResponse{}, fmt.Errorf("anthropic returned no content")
	}

	return CompletionResponse{
		Content:      text.String(),
		Model:        result.Model,
		InputTokens:  result.Usage.InputTokens,
		OutputTokens: result.Usage.OutputTokens,
	}, nil
}

func (p *AnthropicProvider) Models() []ModelInfo {
	return []ModelInfo{
		{ID: "claude-sonnet-4-6", Name: "Claude Sonnet 4.6", MaxTokens: 200000, Description: "Curriculum generation"},
		{ID: "claude-haiku-4-5-20251001", Name: "Claude Haiku 4.5", MaxTokens: 200000, Description: "Quizzes and suggestions"},
	}
}

func (p *AnthropicProvider) HealthCheck(ctx context.Context) error {
	_, err := p.Complete(ctx, CompletionRequest{
		Messages:  []Message{{Role: "user", Content: "ping"}},
		MaxTokens: 1,
	})
	return err
}
