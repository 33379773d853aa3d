package session_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/progress"
	"github.com/p-n-ai/learnly/internal/quiz"
	"github.com/p-n-ai/learnly/internal/session"
)

var today = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

// smallCourse is one week, one module, one lesson of two 50 XP activities.
func smallCourse(id, topic string) *curriculum.Curriculum {
	return &curriculum.Curriculum{
		ID:         id,
		Topic:      topic,
		Level:      curriculum.LevelBeginner,
		Title:      topic + " in a week",
		TotalWeeks: 1,
		TotalXP:    100,
		Weeks: []curriculum.Week{{
			WeekNumber:  1,
			Title:       "Basics",
			TotalWeekXP: 100,
			Modules: []curriculum.Module{{
				Title: "Start",
				Lessons: []curriculum.Lesson{{
					Title:    "Hello",
					XPPoints: 100,
					Activities: []curriculum.Activity{
						{Type: curriculum.ActivityWatch, Title: "Intro video", XPReward: 50, CompletionMessage: "Nice!"},
						{Type: curriculum.ActivityPractice, Title: "Try it", XPReward: 50, CompletionMessage: "Great!"},
					},
				}},
			}},
		}},
	}
}

// fakeBuilder returns smallCourse for every topic.
type fakeBuilder struct {
	calls atomic.Int32
	err   error
}

func (b *fakeBuilder) BuildFor(_ context.Context, _, topic, _ string) (*curriculum.Curriculum, error) {
	n := b.calls.Add(1)
	if b.err != nil {
		return nil, b.err
	}
	return smallCourse("course-"+string(rune('0'+n)), topic), nil
}

// blockingBuilder blocks its first call until the context is canceled.
type blockingBuilder struct {
	started chan struct{}
	calls   atomic.Int32
}

func (b *blockingBuilder) BuildFor(ctx context.Context, _, topic, _ string) (*curriculum.Curriculum, error) {
	if b.calls.Add(1) == 1 {
		close(b.started)
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return smallCourse("second", topic), nil
}

type recordingPublisher struct {
	mu     sync.Mutex
	deltas []progress.Delta
}

func (p *recordingPublisher) Publish(_ string, d progress.Delta) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deltas = append(p.deltas, d)
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.deltas)
}

type fakeQuizzes struct {
	lastTopic string
	lastLevel string
}

func (f *fakeQuizzes) Generate(_ context.Context, topic, level string) (*quiz.Quiz, error) {
	f.lastTopic, f.lastLevel = topic, level
	return &quiz.Quiz{
		ID:           "quiz-1",
		Topic:        topic,
		Title:        "Check",
		XPReward:     100,
		PassingScore: 80,
		Questions: []quiz.Question{
			{Question: "1+1?", Options: []string{"2", "3"}, CorrectAnswer: "2", XPPoints: 10},
		},
	}, nil
}

type fixture struct {
	svc    *session.Service
	store  *session.MemoryStore
	events *session.MemoryEventLogger
	pub    *recordingPublisher
	quiz   *fakeQuizzes
}

func newFixture(b session.CurriculumBuilder) fixture {
	f := fixture{
		store:  session.NewMemoryStore(),
		events: session.NewMemoryEventLogger(),
		pub:    &recordingPublisher{},
		quiz:   &fakeQuizzes{},
	}
	f.svc = session.New(session.Config{
		Builder:   b,
		Quizzes:   f.quiz,
		Store:     f.store,
		Events:    f.events,
		Publisher: f.pub,
		Rules:     progress.DefaultRules(),
		Now:       func() time.Time { return today },
	})
	return f
}
