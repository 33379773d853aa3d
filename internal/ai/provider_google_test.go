package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func geminiText(parts ...string) geminiResponse {
	content := geminiContent{Role: "model"}
	for _, p := range parts {
		content.Parts = append(content.Parts, geminiPart{Text: p})
	}
	return geminiResponse{
		Candidates:    []geminiCandidate{{Content: content}},
		UsageMetadata: geminiUsage{PromptTokenCount: 8, CandidatesTokenCount: 12},
	}
}

func TestGoogleProvider_Complete(t *testing.T) {
	var got geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/models/gemini-2.5-flash:generateContent") {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("missing or wrong API key in query")
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(geminiText("Gemini ", "response"))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))

	resp, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: "system", Content: "You are a curriculum designer."},
			{Role: "user", Content: "hello"},
			{Role: "assistant", Content: "hi"},
		},
	})
	if err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if resp.Content != "Gemini response" {
		t.Errorf("content = %q, want %q", resp.Content, "Gemini response")
	}
	if resp.InputTokens != 8 || resp.OutputTokens != 12 {
		t.Errorf("tokens = %d/%d, want 8/12", resp.InputTokens, resp.OutputTokens)
	}

	if got.SystemInstruction == nil || got.SystemInstruction.Parts[0].Text != "You are a curriculum designer." {
		t.Errorf("systemInstruction = %+v", got.SystemInstruction)
	}
	if len(got.Contents) != 2 {
		t.Fatalf("contents = %d, want 2 (system moved out of band)", len(got.Contents))
	}
	if got.Contents[1].Role != "model" {
		t.Errorf("assistant role mapped to %q, want model", got.Contents[1].Role)
	}
}

func TestGoogleProvider_JSONMode(t *testing.T) {
	var got geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(geminiText(`{"weeks":[]}`))
	}))
	defer server.Close()

	provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))
	if _, err := provider.Complete(context.Background(), CompletionRequest{
		Messages: []Message{{Role: "user", Content: "plan"}},
		JSON:     true,
	}); err != nil {
		t.Fatalf("Complete() error = %v", err)
	}
	if got.GenerationConfig == nil || got.GenerationConfig.ResponseMIMEType != "application/json" {
		t.Errorf("generationConfig = %+v, want application/json mime type", got.GenerationConfig)
	}
}

func TestGoogleProvider_Complete_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"api error", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}},
		{"no candidates", func(w http.ResponseWriter, r *http.Request) {
			_ = json.NewEncoder(w).Encode(geminiResponse{})
		}},
		{"bad json", func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("not json"))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL), WithGoogleRetryPolicy(noRetry))
			_, err := provider.Complete(context.Background(), CompletionRequest{
				Messages: []Message{{Role: "user", Content: "hello"}},
			})
			if err == nil {
				t.Fatal("Complete() should return error")
			}
		})
	}
}

func TestGoogleProvider_HealthCheck(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		wantErr    bool
	}{
		{"healthy", http.StatusOK, false},
		{"unhealthy", http.StatusForbidden, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
			}))
			defer server.Close()

			provider := NewGoogleProvider("test-key", WithGoogleBaseURL(server.URL))
			if err := provider.HealthCheck(context.Background()); (err != nil) != tt.wantErr {
				t.Errorf("HealthCheck() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
