// Package session is the call surface the HTTP server and CLI use for a
// learner: start a session, build a curriculum, complete activities and take
// quizzes. It owns one progress tracker per learner and persists every change.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/metrics"
	"github.com/p-n-ai/learnly/internal/progress"
	"github.com/p-n-ai/learnly/internal/quiz"
)

var (
	// ErrSuperseded is returned by a build that a newer build for the same
	// learner replaced. Its result is discarded.
	ErrSuperseded = errors.New("curriculum build superseded by a newer request")
	// ErrNoCurriculum is returned for operations that need a bound curriculum.
	ErrNoCurriculum = errors.New("learner has no curriculum")
	ErrNoLearnerID  = errors.New("learner id is required")
)

// CurriculumBuilder builds a curriculum for a learner.
type CurriculumBuilder interface {
	BuildFor(ctx context.Context, learnerID, topic, level string) (*curriculum.Curriculum, error)
}

// QuizGenerator creates quizzes.
type QuizGenerator interface {
	Generate(ctx context.Context, topic, level string) (*quiz.Quiz, error)
}

// Publisher fans deltas out to live listeners.
type Publisher interface {
	Publish(learnerID string, d progress.Delta)
}

// Config holds dependencies for the session service.
type Config struct {
	Builder   CurriculumBuilder
	Quizzes   QuizGenerator // optional
	Store     ProgressStore // default in-memory
	Events    EventLogger   // default no-op
	Publisher Publisher     // optional
	Rules     progress.Rules
	Now       func() time.Time
}

// Service manages learners. Safe for concurrent use.
type Service struct {
	builder   CurriculumBuilder
	quizGen   QuizGenerator
	quizzes   *quiz.Store
	store     ProgressStore
	events    EventLogger
	publisher Publisher
	rules     progress.Rules
	now       func() time.Time

	mu       sync.Mutex
	learners map[string]*learner
}

// learner is the live state of one learner. mu serializes every mutation so
// saved snapshots are never reordered.
type learner struct {
	mu       sync.Mutex
	progress progress.UserProgress // used while no curriculum is bound
	tracker  *progress.Tracker

	buildSeq    uint64
	cancelBuild context.CancelFunc
}

// New creates a session service.
func New(cfg Config) *Service {
	store := cfg.Store
	if store == nil {
		store = NewMemoryStore()
	}
	events := cfg.Events
	if events == nil {
		events = NopEventLogger{}
	}
	rules := cfg.Rules
	if rules.LevelXPThreshold == 0 {
		rules = progress.DefaultRules()
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		builder:   cfg.Builder,
		quizGen:   cfg.Quizzes,
		quizzes:   quiz.NewStore(),
		store:     store,
		events:    events,
		publisher: cfg.Publisher,
		rules:     rules,
		now:       now,
		learners:  make(map[string]*learner),
	}
}

// Rules returns the gamification rules in use.
func (s *Service) Rules() progress.Rules { return s.rules }

// StartSession loads or creates the learner and applies today's streak
// update. profile only seeds a learner seen for the first time.
func (s *Service) StartSession(ctx context.Context, learnerID string, profile progress.Profile) (progress.Delta, error) {
	l, err := s.learner(ctx, learnerID, profile)
	if err != nil {
		return progress.Delta{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	var d progress.Delta
	if l.tracker != nil {
		d = l.tracker.Touch(s.now())
	} else {
		d = progress.Touch(&l.progress, s.rules, s.now())
	}
	if err := s.commit(ctx, l, d); err != nil {
		return progress.Delta{}, err
	}
	slog.Info("session started", "learner_id", learnerID, "streak_days", d.StreakDays)
	return d, nil
}

// BuildCurriculum builds a curriculum and binds it to the learner. A newer
// call for the same learner cancels this one, which then returns
// ErrSuperseded. Rewards carry over to the new curriculum; completion does not.
func (s *Service) BuildCurriculum(ctx context.Context, learnerID, topic, level string) (*curriculum.Curriculum, error) {
	l, err := s.learner(ctx, learnerID, progress.Profile{})
	if err != nil {
		return nil, err
	}

	buildCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	l.mu.Lock()
	if l.cancelBuild != nil {
		l.cancelBuild()
	}
	l.buildSeq++
	seq := l.buildSeq
	l.cancelBuild = cancel
	l.mu.Unlock()

	start := time.Now()
	c, buildErr := s.builder.BuildFor(buildCtx, learnerID, topic, level)
	metrics.CurriculumBuildDuration.Observe(time.Since(start).Seconds())

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.buildSeq != seq {
		metrics.CurriculumBuilds.WithLabelValues("superseded").Inc()
		slog.Info("curriculum build superseded", "learner_id", learnerID, "topic", topic)
		return nil, ErrSuperseded
	}
	l.cancelBuild = nil
	if buildErr != nil {
		metrics.CurriculumBuilds.WithLabelValues(buildResult(buildErr)).Inc()
		return nil, buildErr
	}

	next := s.current(l).Carry(c.ID)
	l.tracker = progress.NewTracker(c, next, s.rules, progress.WithClock(s.now))
	if err := s.save(ctx, l); err != nil {
		return nil, err
	}

	metrics.CurriculumBuilds.WithLabelValues("ok").Inc()
	if c.ResourcesDegraded {
		metrics.ResourceSearchDegraded.Inc()
	}
	slog.Info("curriculum bound",
		"learner_id", learnerID,
		"curriculum_id", c.ID,
		"topic", c.Topic,
		"weeks", c.TotalWeeks,
	)
	return c, nil
}

// CompleteActivity marks key complete for the learner's curriculum.
func (s *Service) CompleteActivity(ctx context.Context, learnerID string, key curriculum.ActivityKey) (progress.Delta, error) {
	l, err := s.existing(ctx, learnerID)
	if err != nil {
		return progress.Delta{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tracker == nil {
		return progress.Delta{}, ErrNoCurriculum
	}

	d, err := l.tracker.CompleteActivity(key)
	if err != nil {
		return progress.Delta{}, err
	}
	if err := s.commit(ctx, l, d); err != nil {
		return progress.Delta{}, err
	}
	return d, nil
}

// DerivedState returns the render state of the learner's curriculum.
func (s *Service) DerivedState(ctx context.Context, learnerID string) (progress.DerivedState, error) {
	l, err := s.existing(ctx, learnerID)
	if err != nil {
		return progress.DerivedState{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tracker == nil {
		return progress.DerivedState{}, ErrNoCurriculum
	}
	return l.tracker.State(), nil
}

// Curriculum returns the learner's bound curriculum.
func (s *Service) Curriculum(ctx context.Context, learnerID string) (*curriculum.Curriculum, error) {
	l, err := s.existing(ctx, learnerID)
	if err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.tracker == nil {
		return nil, ErrNoCurriculum
	}
	return l.tracker.Curriculum(), nil
}

// Progress returns a copy of the learner's progress record.
func (s *Service) Progress(ctx context.Context, learnerID string) (progress.UserProgress, error) {
	l, err := s.existing(ctx, learnerID)
	if err != nil {
		return progress.UserProgress{}, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	return s.current(l), nil
}

// GenerateQuiz creates a quiz for the learner. An empty topic quizzes the
// learner on their curriculum topic.
func (s *Service) GenerateQuiz(ctx context.Context, learnerID, topic string) (*quiz.Quiz, error) {
	if s.quizGen == nil {
		return nil, errors.New("quizzes are not configured")
	}
	level := ""
	if c, err := s.Curriculum(ctx, learnerID); err == nil {
		level = string(c.Level)
		if strings.TrimSpace(topic) == "" {
			topic = c.Topic
		}
	}

	q, err := s.quizGen.Generate(ctx, topic, level)
	if err != nil {
		return nil, err
	}
	s.quizzes.Put(learnerID, q)
	return q, nil
}

// SubmitQuiz grades answers and credits the XP of a passed quiz once.
func (s *Service) SubmitQuiz(ctx context.Context, learnerID, quizID string, answers []string) (quiz.Result, progress.Delta, error) {
	q, err := s.quizzes.Get(learnerID, quizID)
	if err != nil {
		return quiz.Result{}, progress.Delta{}, err
	}
	res := quiz.Grade(q, answers)
	outcome := "failed"
	if res.Passed {
		outcome = "passed"
	}
	metrics.QuizzesGraded.WithLabelValues(outcome).Inc()
	if !res.Passed {
		return res, progress.Delta{}, nil
	}

	l, err := s.learner(ctx, learnerID, progress.Profile{})
	if err != nil {
		return quiz.Result{}, progress.Delta{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	var d progress.Delta
	if l.tracker != nil {
		d, err = l.tracker.CreditQuiz(q.ID, res.XPEarned, q.Title)
	} else {
		d, err = progress.CreditQuiz(&l.progress, s.rules, q.ID, res.XPEarned, q.Title, s.now())
	}
	if err != nil {
		return quiz.Result{}, progress.Delta{}, err
	}
	if err := s.commit(ctx, l, d); err != nil {
		return quiz.Result{}, progress.Delta{}, err
	}
	return res, d, nil
}

// learner returns the live learner, loading it from the store or creating it
// from profile.
func (s *Service) learner(ctx context.Context, learnerID string, profile progress.Profile) (*learner, error) {
	return s.lookup(ctx, learnerID, &profile)
}

// existing is learner without creation: unknown learners have no curriculum.
func (s *Service) existing(ctx context.Context, learnerID string) (*learner, error) {
	l, err := s.lookup(ctx, learnerID, nil)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNoCurriculum
	}
	return l, err
}

func (s *Service) lookup(ctx context.Context, learnerID string, profile *progress.Profile) (*learner, error) {
	if strings.TrimSpace(learnerID) == "" {
		return nil, ErrNoLearnerID
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if l, ok := s.learners[learnerID]; ok {
		return l, nil
	}

	rec, err := s.store.Load(ctx, learnerID)
	switch {
	case err == nil:
	case errors.Is(err, ErrNotFound) && profile != nil:
		rec = Record{Progress: progress.NewUserProgress(learnerID, *profile, s.rules)}
	default:
		return nil, err
	}

	l := &learner{progress: rec.Progress}
	if rec.Curriculum != nil {
		l.tracker = progress.NewTracker(rec.Curriculum, rec.Progress, s.rules, progress.WithClock(s.now))
	}
	s.learners[learnerID] = l
	return l, nil
}

// current returns the learner's latest progress. l.mu must be held.
func (s *Service) current(l *learner) progress.UserProgress {
	if l.tracker != nil {
		return l.tracker.Snapshot()
	}
	return l.progress.Clone()
}

// save persists the learner. l.mu must be held.
func (s *Service) save(ctx context.Context, l *learner) error {
	rec := Record{Progress: s.current(l)}
	if l.tracker != nil {
		rec.Curriculum = l.tracker.Curriculum()
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return fmt.Errorf("saving progress: %w", err)
	}
	return nil
}

// commit persists a change and reports it. A zero delta changed nothing and
// is not reported. l.mu must be held.
func (s *Service) commit(ctx context.Context, l *learner, d progress.Delta) error {
	if d.IsZero() {
		return nil
	}
	if err := s.save(ctx, l); err != nil {
		return err
	}

	for _, e := range deltaEvents(d) {
		if err := s.events.LogEvent(e); err != nil {
			slog.Warn("failed to log progress event", "type", e.EventType, "learner_id", e.LearnerID, "error", err)
		}
		metrics.ProgressEvents.WithLabelValues(e.EventType).Inc()
	}
	metrics.XPAwarded.Add(float64(d.XPGained))
	if s.publisher != nil {
		s.publisher.Publish(d.LearnerID, d)
	}
	return nil
}

func buildResult(err error) string {
	var topicErr *curriculum.TopicError
	var genErr *curriculum.GenerationError
	switch {
	case errors.As(err, &topicErr):
		return "topic_error"
	case errors.As(err, &genErr):
		return "generation_error"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "error"
	}
}
