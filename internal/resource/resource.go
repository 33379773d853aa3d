// Package resource finds external learning material (videos, articles,
// practice sites) for a topic. Search is best effort: callers keep building
// a curriculum with whatever comes back.
package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// Kind classifies a resource by how it is consumed.
type Kind string

const (
	KindVideo    Kind = "video"
	KindArticle  Kind = "article"
	KindPractice Kind = "practice"
)

// ParseKind maps loose provider labels onto a Kind. Unknown labels read as articles.
func ParseKind(s string) Kind {
	switch s {
	case "video", "watch":
		return KindVideo
	case "practice", "exercise", "interactive", "project":
		return KindPractice
	default:
		return KindArticle
	}
}

// Resource is one search hit.
type Resource struct {
	Kind        Kind   `json:"kind"`
	Title       string `json:"title"`
	URL         string `json:"url"`
	Duration    string `json:"duration,omitempty"`
	Description string `json:"description,omitempty"`
	Source      string `json:"source,omitempty"`
}

// Client searches one resource provider. An empty result is not an error.
type Client interface {
	Search(ctx context.Context, query string, limit int) ([]Resource, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, query string, limit int) ([]Resource, error)

func (f ClientFunc) Search(ctx context.Context, query string, limit int) ([]Resource, error) {
	return f(ctx, query, limit)
}

// ErrSearchDegraded marks a search that failed and was replaced by an empty result.
var ErrSearchDegraded = errors.New("resource search degraded")

// BestEffort runs c.Search and never fails. On error it logs, returns no
// resources and reports degraded=true. A nil client yields nothing.
func BestEffort(ctx context.Context, c Client, query string, limit int) ([]Resource, bool) {
	if c == nil {
		return nil, false
	}
	res, err := c.Search(ctx, query, limit)
	if err != nil {
		slog.Warn("resource search failed, continuing without resources",
			"query", query,
			"error", fmt.Errorf("%w: %w", ErrSearchDegraded, err),
		)
		return nil, true
	}
	return res, false
}

// Static serves a fixed list, truncated to the requested limit.
type Static []Resource

func (s Static) Search(_ context.Context, _ string, limit int) ([]Resource, error) {
	if limit <= 0 || limit > len(s) {
		limit = len(s)
	}
	out := make([]Resource, limit)
	copy(out, s[:limit])
	return out, nil
}
