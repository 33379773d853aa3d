package ai

import (
	"fmt"

	"github.com/p-n-ai/learnly/internal/platform/config"
)

// NewRouterFromConfig registers every configured provider in preference
// order. It returns ErrNoProvider when none is configured.
func NewRouterFromConfig(cfg config.AIConfig) (*Router, error) {
	r := NewRouter()
	if cfg.OpenAI.APIKey != "" {
		r.Register("openai", NewOpenAIProvider(cfg.OpenAI.APIKey))
	}
	if cfg.Anthropic.APIKey != "" {
		p, err := NewAnthropicProvider(cfg.Anthropic.APIKey)
		if err != nil {
			return nil, fmt.Errorf("creating Anthropic provider: %w", err)
		}
		r.Register("anthropic", p)
	}
	if cfg.Google.APIKey != "" {
		r.Register("google", NewGoogleProvider(cfg.Google.APIKey))
	}
	if cfg.DeepSeek.APIKey != "" {
		r.Register("deepseek", NewDeepSeekProvider(cfg.DeepSeek.APIKey))
	}
	if cfg.OpenRouter.APIKey != "" {
		r.Register("openrouter", NewOpenRouterProvider(cfg.OpenRouter.APIKey))
	}
	if cfg.Ollama.Enabled {
		r.Register("ollama", NewOllamaProvider(cfg.Ollama.URL))
	}
	if !r.HasProvider() {
		return nil, ErrNoProvider
	}
	return r, nil
}
