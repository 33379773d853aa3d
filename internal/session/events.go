package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/learnly/internal/progress"
)

// Event is one progress event as written to the events log.
type Event struct {
	LearnerID    string
	CurriculumID string
	EventType    string
	Data         map[string]any
	CreatedAt    time.Time
}

// EventLogger defines event logging behavior.
type EventLogger interface {
	LogEvent(event Event) error
}

// NopEventLogger ignores all events.
type NopEventLogger struct{}

func (NopEventLogger) LogEvent(Event) error {
	return nil
}

// MemoryEventLogger stores events in memory for tests.
type MemoryEventLogger struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryEventLogger() *MemoryEventLogger {
	return &MemoryEventLogger{
		events: []Event{},
	}
}

func (l *MemoryEventLogger) LogEvent(event Event) error {
	if event.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	l.mu.Lock()
	l.events = append(l.events, event)
	l.mu.Unlock()

	return nil
}

func (l *MemoryEventLogger) Events() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Event{}, l.events...)
}

// PostgresEventLogger inserts events into the progress_events table.
type PostgresEventLogger struct {
	pool *pgxpool.Pool
}

func NewPostgresEventLogger(pool *pgxpool.Pool) *PostgresEventLogger {
	return &PostgresEventLogger{pool: pool}
}

func (l *PostgresEventLogger) LogEvent(event Event) error {
	if l == nil || l.pool == nil {
		return fmt.Errorf("event logger pool is nil")
	}
	if event.EventType == "" {
		return fmt.Errorf("event_type is required")
	}
	if event.LearnerID == "" {
		return fmt.Errorf("learner_id is required")
	}

	payload := event.Data
	if payload == nil {
		payload = map[string]any{}
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal event data: %w", err)
	}

	createdAt := event.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(context.Background(), dbTimeout)
	defer cancel()

	if _, err := l.pool.Exec(ctx,
		`INSERT INTO progress_events (learner_id, curriculum_id, event_type, data, created_at)
		 VALUES ($1, $2, $3, $4::jsonb, $5)`,
		event.LearnerID,
		event.CurriculumID,
		event.EventType,
		string(data),
		createdAt,
	); err != nil {
		return fmt.Errorf("insert event: %w", err)
	}

	slog.Debug("event logged",
		"type", event.EventType,
		"learner_id", event.LearnerID,
		"curriculum_id", event.CurriculumID,
	)
	return nil
}

// deltaEvents flattens a delta into log rows, one per progress event.
func deltaEvents(d progress.Delta) []Event {
	out := make([]Event, 0, len(d.Events))
	for _, e := range d.Events {
		data := map[string]any{"xp": e.XP}
		if e.Key != "" {
			data["key"] = e.Key
		}
		if e.Title != "" {
			data["title"] = e.Title
		}
		if e.Level != 0 {
			data["level"] = e.Level
		}
		if e.Achievement != "" {
			data["achievement"] = e.Achievement
		}
		out = append(out, Event{
			LearnerID:    d.LearnerID,
			CurriculumID: d.CurriculumID,
			EventType:    string(e.Kind),
			Data:         data,
			CreatedAt:    e.At,
		})
	}
	return out
}
