package builder_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/p-n-ai/learnly/internal/builder"
	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/resource"
)

func TestCachedBuilder_HitGetsFreshID(t *testing.T) {
	gen := &countingGenerator{text: outline(1, 2, 2, 100)}
	store := newMemoryStore()
	b := builder.NewCachedBuilder(newBuilder(gen, resource.Static{}), store, time.Hour)

	first, err := b.Build(context.Background(), "Kubernetes", "intermediate")
	if err != nil {
		t.Fatalf("first Build() error = %v", err)
	}
	second, err := b.Build(context.Background(), "  kubernetes ", "Intermediate")
	if err != nil {
		t.Fatalf("second Build() error = %v", err)
	}

	if gen.calls.Load() != 1 {
		t.Errorf("generator called %d times, want 1", gen.calls.Load())
	}
	if store.sets != 1 || store.lastTTL != time.Hour {
		t.Errorf("sets = %d, ttl = %v", store.sets, store.lastTTL)
	}
	if first.ID == second.ID {
		t.Error("cache hit reused the curriculum ID")
	}
	if second.TotalXP != first.TotalXP || len(second.Weeks) != len(first.Weeks) {
		t.Error("cache hit differs from the original build")
	}
}

func TestCachedBuilder_ReadErrorFallsThrough(t *testing.T) {
	gen := &countingGenerator{text: outline(1, 1, 1, 100)}
	store := newMemoryStore()
	store.getErr = errors.New("connection refused")
	b := builder.NewCachedBuilder(newBuilder(gen, nil), store, time.Hour)

	for range 2 {
		if _, err := b.Build(context.Background(), "Go", ""); err != nil {
			t.Fatalf("Build() error = %v", err)
		}
	}
	if gen.calls.Load() != 2 {
		t.Errorf("generator called %d times, want 2", gen.calls.Load())
	}
}

func TestCachedBuilder_SkipsDegradedAndInvalid(t *testing.T) {
	gen := &countingGenerator{text: outline(1, 1, 1, 100)}
	store := newMemoryStore()
	failing := resource.ClientFunc(func(context.Context, string, int) ([]resource.Resource, error) {
		return nil, errors.New("down")
	})
	b := builder.NewCachedBuilder(newBuilder(gen, failing), store, time.Hour)

	if _, err := b.Build(context.Background(), "Go", ""); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if store.sets != 0 {
		t.Errorf("degraded build was cached")
	}

	_, err := b.Build(context.Background(), "", "")
	var topicErr *curriculum.TopicError
	if !errors.As(err, &topicErr) {
		t.Errorf("Build(\"\") error = %v, want *TopicError", err)
	}
}

func TestCacheKey(t *testing.T) {
	a := builder.CacheKey("go", curriculum.LevelBeginner)
	if !strings.HasPrefix(a, "learnly:curriculum:") {
		t.Errorf("CacheKey() = %q", a)
	}
	if a != builder.CacheKey("Go", curriculum.LevelBeginner) {
		t.Error("CacheKey should ignore case")
	}
	if a == builder.CacheKey("go", curriculum.LevelAdvanced) {
		t.Error("CacheKey should depend on level")
	}
}
