package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/p-n-ai/learnly/internal/platform/httpx"
)

var noRetry = httpx.RetryPolicy{}

var fastRetry = httpx.RetryPolicy{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 2 * time.Millisecond}

func okChoice(content, model string) openaiResponse {
	return openaiResponse{
		Choices: []openaiChoice{{Message: Message{Role: "assistant", Content: content}}},
		Model:   model,
		Usage:   openaiUsage{PromptTokens: 10, CompletionTokens: 5},
	}
}

func TestOpenAIProvider_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("unexpected auth header: %s", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("unexpected content type: %s", r.Header.Get("Content-Type"))
		}

		var req openaiRequest
		_ = json.NewDecoder(r.Body).Decode(&req)

		if req.Model != "gpt-4o" {
			t.Errorf("model = %q, want %q", req.Model, "gpt-4o")
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "hello" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		if req.ResponseFormat != nil {
			t.Errorf("response_format = %+v, want nil without JSON hint", req.ResponseFormat)
		}

		_ = json.NewEncoder(w).Encode(okChoice("Hi there!", "gpt-4o"))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
		Model:    "gpt-4o",
	})

	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Hi there!" {
		t.Errorf("content = %q, want %q", resp.Content, "Hi there!")
	}
	if resp.InputTokens != 10 {
		t.Errorf("input_tokens = %d, want 10", resp.InputTokens)
	}
	if resp.OutputTokens != 5 {
		t.Errorf("output_tokens = %d, want 5", resp.OutputTokens)
	}
}

func TestOpenAIProvider_JSONMode(t *testing.T) {
	var got *responseFormat
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req openaiRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		got = req.ResponseFormat
		_ = json.NewEncoder(w).Encode(okChoice(`{"weeks":[]}`, "gpt-4o-mini"))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
	if _, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "plan"}},
		JSON:     true,
	}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got == nil || got.Type != "json_object" {
		t.Errorf("response_format = %+v, want json_object", got)
	}
}

func TestOpenAIProvider_Complete_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error": "bad request"}`))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL), WithRetryPolicy(noRetry))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})

	var statusErr *httpx.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Complete() error = %v, want *httpx.StatusError", err)
	}
	if statusErr.Status != http.StatusBadRequest {
		t.Errorf("Status = %d, want 400", statusErr.Status)
	}
}

func TestOpenAIProvider_RetriesRateLimit(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_ = json.NewEncoder(w).Encode(okChoice("after retry", "gpt-4o-mini"))
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL), WithRetryPolicy(fastRetry))

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "after retry" {
		t.Errorf("content = %q", resp.Content)
	}
	if calls.Load() != 2 {
		t.Errorf("calls = %d, want 2", calls.Load())
	}
}

func TestOpenAIProvider_Complete_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(openaiResponse{Choices: nil})
	}))
	defer server.Close()

	provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))

	_, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "hello"}},
	})

	if err == nil {
		t.Fatal("Complete() should return error when no choices")
	}
}

func TestCompatibleProviders(t *testing.T) {
	tests := []struct {
		name      string
		build     func(url string) *OpenAIProvider
		wantPath  string
		wantModel string
		wantAuth  string
		wantJSON  bool
	}{
		{
			name:      "deepseek",
			build:     func(url string) *OpenAIProvider { return NewDeepSeekProvider("ds-key", WithBaseURL(url)) },
			wantPath:  "/chat/completions",
			wantModel: "deepseek-chat",
			wantAuth:  "Bearer ds-key",
			wantJSON:  true,
		},
		{
			name:      "openrouter",
			build:     func(url string) *OpenAIProvider { return NewOpenRouterProvider("or-key", WithBaseURL(url)) },
			wantPath:  "/chat/completions",
			wantModel: "openai/gpt-4o-mini",
			wantAuth:  "Bearer or-key",
			wantJSON:  true,
		},
		{
			name:      "ollama",
			build:     func(url string) *OpenAIProvider { return NewOllamaProvider(url) },
			wantPath:  "/v1/chat/completions",
			wantModel: "llama3.1",
			wantAuth:  "",
			wantJSON:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var path, auth string
			var req openaiRequest
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				path = r.URL.Path
				auth = r.Header.Get("Authorization")
				_ = json.NewDecoder(r.Body).Decode(&req)
				_ = json.NewEncoder(w).Encode(okChoice(tt.name+" response", ""))
			}))
			defer server.Close()

			provider := tt.build(server.URL)
			if provider.Name() != tt.name {
				t.Errorf("Name() = %q, want %q", provider.Name(), tt.name)
			}

			resp, err := provider.Complete(context.Background(), CompletionRequest{
				Messages: []Message{{Role: "user", Content: "hello"}},
				JSON:     true,
			})
			if err != nil {
				t.Fatalf("Complete() error = %v", err)
			}
			if path != tt.wantPath {
				t.Errorf("path = %q, want %q", path, tt.wantPath)
			}
			if auth != tt.wantAuth {
				t.Errorf("Authorization = %q, want %q", auth, tt.wantAuth)
			}
			if req.Model != tt.wantModel {
				t.Errorf("model = %q, want %q", req.Model, tt.wantModel)
			}
			if (req.ResponseFormat != nil) != tt.wantJSON {
				t.Errorf("response_format set = %v, want %v", req.ResponseFormat != nil, tt.wantJSON)
			}
			if resp.Model != tt.wantModel {
				t.Errorf("resp.Model = %q, want fallback %q", resp.Model, tt.wantModel)
			}
		})
	}
}

func TestOpenAIProvider_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy", http.StatusUnauthorized, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/models" {
					t.Errorf("unexpected path: %s", r.URL.Path)
				}
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			provider := NewOpenAIProvider("test-key", WithBaseURL(server.URL))
			err := provider.HealthCheck(context.Background())

			if (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOpenAIProvider_CustomModels(t *testing.T) {
	custom := []ModelInfo{{ID: "custom-model", Name: "Custom"}}
	provider := NewOpenAIProvider("test-key", WithModels(custom))
	models := provider.Models()

	if len(models) != 1 || models[0].ID != "custom-model" {
		t.Errorf("Models() = %+v, want custom models", models)
	}
}
