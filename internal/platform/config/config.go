// Package config loads application configuration from environment variables.
// All variables use the LEARN_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Cache      CacheConfig
	AI         AIConfig
	YouTube    YouTubeConfig
	Curriculum CurriculumConfig
	Progress   ProgressConfig
	Log        LogConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int
	Host string
}

// DatabaseConfig holds PostgreSQL connection settings.
// An empty URL keeps learner progress in memory.
type DatabaseConfig struct {
	URL      string
	MaxConns int
	MinConns int
}

// CacheConfig holds Redis connection settings for the generated-curriculum cache.
// An empty URL disables caching.
type CacheConfig struct {
	URL string
	TTL time.Duration
}

// AIConfig holds configuration for all AI providers.
type AIConfig struct {
	OpenAI      OpenAIConfig
	Anthropic   AnthropicConfig
	DeepSeek    DeepSeekConfig
	Google      GoogleConfig
	Ollama      OllamaConfig
	OpenRouter  OpenRouterConfig
	TokenBudget int64 // per-learner token budget, 0 means unlimited
}

// OpenAIConfig holds OpenAI provider settings.
type OpenAIConfig struct {
	APIKey string
}

// AnthropicConfig holds Anthropic provider settings.
type AnthropicConfig struct {
	APIKey string
}

// DeepSeekConfig holds DeepSeek provider settings (OpenAI-compatible).
type DeepSeekConfig struct {
	APIKey string
}

// GoogleConfig holds Google Gemini provider settings.
type GoogleConfig struct {
	APIKey string
}

// OllamaConfig holds self-hosted Ollama settings.
type OllamaConfig struct {
	Enabled bool
	URL     string
}

// OpenRouterConfig holds OpenRouter provider settings.
type OpenRouterConfig struct {
	APIKey string
}

// YouTubeConfig holds YouTube Data API settings for the video resource search.
type YouTubeConfig struct {
	APIKey     string
	MaxResults int
}

// CurriculumConfig holds generation settings.
type CurriculumConfig struct {
	Weeks int
}

// ProgressConfig holds gamification settings.
type ProgressConfig struct {
	RulesPath string // optional YAML rules file, defaults are used when empty
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level  string
	Format string
}

// Load reads configuration from environment variables with LEARN_ prefix.
func Load() (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port: envInt("LEARN_SERVER_PORT", 8080),
			Host: envStr("LEARN_SERVER_HOST", "0.0.0.0"),
		},
		Database: DatabaseConfig{
			URL:      envStr("LEARN_DATABASE_URL", ""),
			MaxConns: envInt("LEARN_DATABASE_MAX_CONNS", 25),
			MinConns: envInt("LEARN_DATABASE_MIN_CONNS", 5),
		},
		Cache: CacheConfig{
			URL: envStr("LEARN_CACHE_URL", ""),
			TTL: envDuration("LEARN_CACHE_TTL", 24*time.Hour),
		},
		AI: AIConfig{
			OpenAI: OpenAIConfig{
				APIKey: envStr("LEARN_AI_OPENAI_API_KEY", ""),
			},
			Anthropic: AnthropicConfig{
				APIKey: envStr("LEARN_AI_ANTHROPIC_API_KEY", ""),
			},
			DeepSeek: DeepSeekConfig{
				APIKey: envStr("LEARN_AI_DEEPSEEK_API_KEY", ""),
			},
			Google: GoogleConfig{
				APIKey: envStr("LEARN_AI_GOOGLE_API_KEY", ""),
			},
			Ollama: OllamaConfig{
				Enabled: envBool("LEARN_AI_OLLAMA_ENABLED", false),
				URL:     envStr("LEARN_AI_OLLAMA_URL", "http://localhost:11434"),
			},
			OpenRouter: OpenRouterConfig{
				APIKey: envStr("LEARN_AI_OPENROUTER_API_KEY", ""),
			},
			TokenBudget: int64(envInt("LEARN_AI_TOKEN_BUDGET", 0)),
		},
		YouTube: YouTubeConfig{
			APIKey:     envStr("LEARN_YOUTUBE_API_KEY", ""),
			MaxResults: envInt("LEARN_YOUTUBE_MAX_RESULTS", 20),
		},
		Curriculum: CurriculumConfig{
			Weeks: envInt("LEARN_CURRICULUM_WEEKS", 8),
		},
		Progress: ProgressConfig{
			RulesPath: envStr("LEARN_PROGRESS_RULES_PATH", ""),
		},
		Log: LogConfig{
			Level:  envStr("LEARN_LOG_LEVEL", "info"),
			Format: envStr("LEARN_LOG_FORMAT", "json"),
		},
	}

	return cfg, nil
}

// Validate checks that required configuration is present.
func (c *Config) Validate() error {
	if !c.HasAIProvider() {
		return fmt.Errorf("at least one AI provider must be configured")
	}

	if c.Curriculum.Weeks < 1 || c.Curriculum.Weeks > 52 {
		return fmt.Errorf("LEARN_CURRICULUM_WEEKS must be between 1 and 52, got %d", c.Curriculum.Weeks)
	}

	if c.YouTube.MaxResults < 1 || c.YouTube.MaxResults > 50 {
		return fmt.Errorf("LEARN_YOUTUBE_MAX_RESULTS must be between 1 and 50, got %d", c.YouTube.MaxResults)
	}

	switch c.Log.Format {
	case "json", "text":
	default:
		return fmt.Errorf("LEARN_LOG_FORMAT must be 'json' or 'text', got %q", c.Log.Format)
	}

	return nil
}

// HasAIProvider returns true if at least one AI provider is configured.
func (c *Config) HasAIProvider() bool {
	return c.AI.OpenAI.APIKey != "" ||
		c.AI.Anthropic.APIKey != "" ||
		c.AI.DeepSeek.APIKey != "" ||
		c.AI.Google.APIKey != "" ||
		c.AI.OpenRouter.APIKey != "" ||
		c.AI.Ollama.Enabled
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		return strings.EqualFold(v, "true") || v == "1"
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
