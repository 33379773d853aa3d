// Package ai provides a provider-agnostic completion gateway with ordered fallback.
package ai

import "context"

// TaskType defines the kind of AI task for routing and logging purposes.
type TaskType int

const (
	TaskCurriculum TaskType = iota
	TaskResources
	TaskQuiz
)

func (t TaskType) String() string {
	switch t {
	case TaskCurriculum:
		return "curriculum"
	case TaskResources:
		return "resources"
	case TaskQuiz:
		return "quiz"
	default:
		return "unknown"
	}
}

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest is the input to an AI completion.
type CompletionRequest struct {
	Messages    []Message `json:"messages"`
	Model       string    `json:"model,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
	Task        TaskType  `json:"task,omitempty"`
	// JSON asks the provider for a JSON-only answer where the API supports it.
	// Callers must still extract and validate the payload themselves.
	JSON bool `json:"json,omitempty"`
}

// CompletionResponse is the output from an AI completion.
type CompletionResponse struct {
	Content      string `json:"content"`
	Model        string `json:"model"`
	Provider     string `json:"provider,omitempty"`
	InputTokens  int    `json:"input_tokens"`
	OutputTokens int    `json:"output_tokens"`
}

// TotalTokens returns the sum of input and output tokens.
func (r CompletionResponse) TotalTokens() int {
	return r.InputTokens + r.OutputTokens
}

// ModelInfo describes an available model.
type ModelInfo struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	MaxTokens   int    `json:"max_tokens"`
	Description string `json:"description"`
}

// Provider is the interface all AI providers must implement.
type Provider interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Models() []ModelInfo
	HealthCheck(ctx context.Context) error
}

// Completer is the narrow interface consumers depend on. *Router satisfies it.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
}

// systemPrompt returns the concatenated system messages and the remaining
// conversation, for APIs that take the system prompt out of band.
func systemPrompt(msgs []Message) (string, []Message) {
	var system string
	rest := make([]Message, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == "system" {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
