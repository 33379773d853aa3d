package resource

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/p-n-ai/learnly/internal/ai"
	"github.com/p-n-ai/learnly/internal/curriculum"
)

const suggestionPrompt = `Find the best free educational resources for learning %q. Include free courses
(MIT OpenCourseWare, Coursera, edX), official documentation and guides, interactive practice
platforms, GitHub repositories with tutorials, and well-regarded articles.

Return at most %d resources as JSON: {"resources": [{"type": "article|practice|video", "title": "...",
"url": "https://...", "duration": "30 minutes", "description": "...", "source": "..."}]}`

// SuggestionClient asks a language model for free non-video resources.
type SuggestionClient struct {
	llm ai.Completer
}

// NewSuggestionClient creates a SuggestionClient backed by the given completer.
func NewSuggestionClient(llm ai.Completer) *SuggestionClient {
	return &SuggestionClient{llm: llm}
}

type suggestion struct {
	Type        string `json:"type"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Duration    string `json:"duration"`
	Description string `json:"description"`
	Source      string `json:"source"`
}

func (c *SuggestionClient) Search(ctx context.Context, query string, limit int) ([]Resource, error) {
	if limit <= 0 {
		return nil, nil
	}
	resp, err := c.llm.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "user", Content: fmt.Sprintf(suggestionPrompt, query, limit)},
		},
		Task:        ai.TaskResources,
		Temperature: 0.3,
		MaxTokens:   2048,
		JSON:        true,
	})
	if err != nil {
		return nil, fmt.Errorf("suggesting resources: %w", err)
	}

	items, err := decodeSuggestions(resp.Content)
	if err != nil {
		return nil, err
	}

	out := make([]Resource, 0, len(items))
	for _, s := range items {
		if strings.TrimSpace(s.Title) == "" || !strings.HasPrefix(s.URL, "http") {
			continue
		}
		source := s.Source
		if source == "" {
			source = "Suggested"
		}
		out = append(out, Resource{
			Kind:        ParseKind(strings.ToLower(s.Type)),
			Title:       s.Title,
			URL:         s.URL,
			Duration:    s.Duration,
			Description: s.Description,
			Source:      source,
		})
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// decodeSuggestions accepts either {"resources": [...]} or a bare array
// somewhere in the text.
func decodeSuggestions(text string) ([]suggestion, error) {
	if raw, err := curriculum.ExtractObject(text); err == nil {
		var wrapped struct {
			Resources []suggestion `json:"resources"`
		}
		if err := json.Unmarshal(raw, &wrapped); err == nil && wrapped.Resources != nil {
			return wrapped.Resources, nil
		}
	}
	raw, err := curriculum.ExtractArray(text)
	if err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}
	var items []suggestion
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decoding suggestions: %w", err)
	}
	return items, nil
}
