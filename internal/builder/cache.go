package builder

import (
	"context"
	"encoding/hex"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"

	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/platform/cache"
)

const cacheKeyPrefix = "learnly:curriculum:"

// Store is the JSON cache CachedBuilder reads and writes. *cache.Cache
// satisfies it. GetJSON must return cache.ErrMiss for absent keys.
type Store interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

// CachedBuilder memoizes built curricula per topic and level. A hit is
// returned with a fresh ID and creation time so two learners never share one.
type CachedBuilder struct {
	next  *Builder
	store Store
	ttl   time.Duration
}

// NewCachedBuilder wraps next with store. A nil store disables caching.
func NewCachedBuilder(next *Builder, store Store, ttl time.Duration) *CachedBuilder {
	return &CachedBuilder{next: next, store: store, ttl: ttl}
}

func (b *CachedBuilder) Build(ctx context.Context, topic, level string) (*curriculum.Curriculum, error) {
	return b.BuildFor(ctx, "", topic, level)
}

func (b *CachedBuilder) BuildFor(ctx context.Context, learnerID, topic, level string) (*curriculum.Curriculum, error) {
	if b.store == nil {
		return b.next.BuildFor(ctx, learnerID, topic, level)
	}
	// Validate first so bad input never touches the cache.
	req, err := b.next.request(learnerID, topic, level)
	if err != nil {
		return nil, err
	}
	key := CacheKey(req.Topic, req.Level)

	var hit curriculum.Curriculum
	switch err := b.store.GetJSON(ctx, key, &hit); {
	case err == nil:
		hit.ID = uuid.NewString()
		hit.CreatedAt = b.next.now().UTC()
		slog.Info("curriculum cache hit", "topic", req.Topic, "level", req.Level)
		return &hit, nil
	case !errors.Is(err, cache.ErrMiss):
		slog.Warn("curriculum cache read failed", "key", key, "error", err)
	}

	c, err := b.next.BuildFor(ctx, learnerID, topic, level)
	if err != nil {
		return nil, err
	}
	// Degraded builds are not cached so a later search can fill them in.
	if !c.ResourcesDegraded {
		if err := b.store.SetJSON(ctx, key, c, b.ttl); err != nil {
			slog.Warn("curriculum cache write failed", "key", key, "error", err)
		}
	}
	return c, nil
}

// CacheKey is the cache key for a normalized topic and level.
func CacheKey(topic string, level curriculum.Level) string {
	sum := blake2b.Sum256([]byte(strings.ToLower(topic) + "|" + string(level)))
	return cacheKeyPrefix + hex.EncodeToString(sum[:16])
}
