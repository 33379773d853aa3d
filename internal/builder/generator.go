// Package builder turns a free-text topic into a normalized, gamified
// curriculum by combining a generated course outline with searched resources.
package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/p-n-ai/learnly/internal/ai"
	"github.com/p-n-ai/learnly/internal/curriculum"
)

// ErrBudgetExceeded is returned when the learner has used up their token budget.
var ErrBudgetExceeded = errors.New("token budget exceeded")

// Request is one generation call.
type Request struct {
	LearnerID string
	Topic     string
	Level     curriculum.Level
	Weeks     int
}

// Generator produces the raw text of a course outline.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// GeneratorFunc adapts a function to Generator.
type GeneratorFunc func(ctx context.Context, req Request) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// AIGenerator generates outlines through the AI gateway.
type AIGenerator struct {
	llm    ai.Completer
	budget ai.BudgetChecker
}

// NewAIGenerator creates a generator. budget may be nil.
func NewAIGenerator(llm ai.Completer, budget ai.BudgetChecker) *AIGenerator {
	return &AIGenerator{llm: llm, budget: budget}
}

func (g *AIGenerator) Generate(ctx context.Context, req Request) (string, error) {
	metered := g.budget != nil && req.LearnerID != ""
	if metered {
		ok, err := g.budget.Check(req.LearnerID)
		if err != nil {
			return "", fmt.Errorf("checking budget: %w", err)
		}
		if !ok {
			return "", ErrBudgetExceeded
		}
	}

	resp, err := g.llm.Complete(ctx, ai.CompletionRequest{
		Messages: []ai.Message{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: outlinePrompt(req)},
		},
		Task:        ai.TaskCurriculum,
		Temperature: 0.7,
		MaxTokens:   8192,
		JSON:        true,
	})
	if err != nil {
		return "", err
	}

	if metered {
		if err := g.budget.Record(req.LearnerID, resp.TotalTokens()); err != nil {
			slog.Warn("failed to record token usage", "learner_id", req.LearnerID, "error", err)
		}
	}
	slog.Debug("curriculum outline generated",
		"topic", req.Topic,
		"provider", resp.Provider,
		"model", resp.Model,
		"tokens", resp.TotalTokens(),
	)
	return resp.Content, nil
}
