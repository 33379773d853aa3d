package builder

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/resource"
)

const (
	defaultWeeks         = 8
	defaultResourceLimit = 20
	maxTopicLen          = 200
)

// Config holds dependencies for the curriculum builder.
type Config struct {
	Generator     Generator
	Resources     resource.Client // optional; nil builds with practice activities only
	Weeks         int             // requested course length (default 8)
	ResourceLimit int             // resources fetched per build (default 20)
	Now           func() time.Time
}

// Builder builds curricula. It holds no per-build state and is safe for
// concurrent use.
type Builder struct {
	gen           Generator
	resources     resource.Client
	weeks         int
	resourceLimit int
	now           func() time.Time
}

// New creates a builder.
func New(cfg Config) *Builder {
	weeks := cfg.Weeks
	if weeks <= 0 {
		weeks = defaultWeeks
	}
	limit := cfg.ResourceLimit
	if limit <= 0 {
		limit = defaultResourceLimit
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Builder{
		gen:           cfg.Generator,
		resources:     cfg.Resources,
		weeks:         weeks,
		resourceLimit: limit,
		now:           now,
	}
}

// Build builds a curriculum for topic without a learner budget.
func (b *Builder) Build(ctx context.Context, topic, level string) (*curriculum.Curriculum, error) {
	return b.BuildFor(ctx, "", topic, level)
}

// BuildFor builds a curriculum on behalf of learnerID. Invalid input fails
// with *curriculum.TopicError before anything is called. Unusable generated
// text fails with *curriculum.GenerationError. Resource search failures only
// mark the result as degraded.
func (b *Builder) BuildFor(ctx context.Context, learnerID, topic, level string) (*curriculum.Curriculum, error) {
	req, err := b.request(learnerID, topic, level)
	if err != nil {
		return nil, err
	}

	var (
		text      string
		found     []resource.Resource
		degraded  bool
		startedAt = time.Now()
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := b.gen.Generate(gctx, req)
		if err != nil {
			return err
		}
		text = out
		return nil
	})
	g.Go(func() error {
		found, degraded = resource.BestEffort(gctx, b.resources, req.Topic+" tutorial", b.resourceLimit)
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrBudgetExceeded) || ctx.Err() != nil {
			return nil, fmt.Errorf("generating curriculum: %w", err)
		}
		return nil, &curriculum.GenerationError{Stage: "generate", Err: err}
	}

	raw, err := curriculum.ExtractObject(text)
	if err != nil {
		return nil, &curriculum.GenerationError{Stage: "extract", Err: err}
	}
	c, err := curriculum.ParseGenerated(raw)
	if err != nil {
		return nil, err
	}

	b.assemble(c, req, found)
	c.ResourcesDegraded = degraded
	if violations := curriculum.Validate(c); len(violations) > 0 {
		return nil, &curriculum.GenerationError{Stage: "shape", Details: violations}
	}

	lessons, _, activities := c.Counts()
	slog.Info("curriculum built",
		"topic", c.Topic,
		"level", c.Level,
		"weeks", c.TotalWeeks,
		"lessons", lessons,
		"activities", activities,
		"resources", len(found),
		"resources_degraded", degraded,
		"duration_ms", time.Since(startedAt).Milliseconds(),
	)
	return c, nil
}

func (b *Builder) request(learnerID, topic, level string) (Request, error) {
	t := strings.Join(strings.Fields(topic), " ")
	if t == "" {
		return Request{}, &curriculum.TopicError{Topic: topic, Reason: "topic is empty"}
	}
	if len([]rune(t)) > maxTopicLen {
		return Request{}, &curriculum.TopicError{Topic: topic, Reason: fmt.Sprintf("topic is longer than %d characters", maxTopicLen)}
	}
	lvl, ok := curriculum.ParseLevel(level)
	if !ok {
		return Request{}, &curriculum.TopicError{Topic: topic, Reason: fmt.Sprintf("unknown level %q", level)}
	}
	return Request{LearnerID: learnerID, Topic: t, Level: lvl, Weeks: b.weeks}, nil
}

// assemble normalizes the generated outline in place and rebuilds every
// lesson's activities from the matched resources.
func (b *Builder) assemble(c *curriculum.Curriculum, req Request, found []resource.Resource) {
	c.ID = uuid.NewString()
	c.Topic = req.Topic
	c.Level = req.Level
	c.Title = strings.TrimSpace(c.Title)
	c.CreatedAt = b.now().UTC()
	c.TotalWeeks = len(c.Weeks)
	if len(c.MotivationalMessages) == 0 {
		c.MotivationalMessages = slices.Clone(motivationalMessages)
	}

	pool := candidates(found)
	lessonOrdinal, activityOrdinal := 0, 0
	c.TotalXP = 0
	for wi := range c.Weeks {
		w := &c.Weeks[wi]
		w.WeekNumber = wi + 1
		if w.Assignment != nil && w.Assignment.CompletionMessage == "" {
			w.Assignment.CompletionMessage = completionMessages[wi%len(completionMessages)]
		}

		w.TotalWeekXP = 0
		for mi := range w.Modules {
			m := &w.Modules[mi]
			for li := range m.Lessons {
				l := &m.Lessons[li]
				if l.XPPoints <= 0 {
					l.XPPoints = DefaultLessonXP
				}
				l.XPPoints = min(l.XPPoints, curriculum.MaxLessonXP)
				if l.Day <= 0 {
					l.Day = lessonOrdinal + 1
				}
				l.Difficulty = normalizeDifficulty(l.Difficulty)
				if l.MotivationalMessage == "" {
					l.MotivationalMessage = motivationalMessages[lessonOrdinal%len(motivationalMessages)]
				}
				l.Activities = lessonActivities(*l, matchResources(*l, pool, ActivitiesPerLesson), activityOrdinal)

				activityOrdinal += len(l.Activities)
				lessonOrdinal++
				w.TotalWeekXP += l.XPPoints
			}
		}
		c.TotalXP += w.TotalWeekXP
	}
}

func normalizeDifficulty(d string) string {
	switch d = strings.ToLower(strings.TrimSpace(d)); d {
	case curriculum.DifficultyEasy, curriculum.DifficultyMedium, curriculum.DifficultyHard:
		return d
	}
	return ""
}
