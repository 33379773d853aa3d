package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/p-n-ai/learnly/internal/curriculum"
)

const dbTimeout = 5 * time.Second

// PostgresStore is a PostgreSQL-backed ProgressStore. Progress and the bound
// curriculum are stored as jsonb next to a few queryable totals.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a store on pool. The schema must already exist,
// see database.Migrate.
func NewPostgresStore(pool *pgxpool.Pool) (*PostgresStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is nil")
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) Load(ctx context.Context, learnerID string) (Record, error) {
	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	var snapshot, curr []byte
	err := s.pool.QueryRow(ctx,
		`SELECT snapshot, curriculum
		 FROM learner_progress
		 WHERE learner_id = $1`,
		learnerID,
	).Scan(&snapshot, &curr)
	if errors.Is(err, pgx.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("load progress %s: %w", learnerID, err)
	}

	var r Record
	if err := json.Unmarshal(snapshot, &r.Progress); err != nil {
		return Record{}, fmt.Errorf("decode progress %s: %w", learnerID, err)
	}
	if curr != nil {
		r.Curriculum = new(curriculum.Curriculum)
		if err := json.Unmarshal(curr, r.Curriculum); err != nil {
			return Record{}, fmt.Errorf("decode curriculum %s: %w", learnerID, err)
		}
	}
	return r, nil
}

func (s *PostgresStore) Save(ctx context.Context, r Record) error {
	p := r.Progress
	if p.LearnerID == "" {
		return fmt.Errorf("learner_id is required")
	}

	snapshot, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode progress: %w", err)
	}
	var curr []byte
	if r.Curriculum != nil {
		if curr, err = json.Marshal(r.Curriculum); err != nil {
			return fmt.Errorf("encode curriculum: %w", err)
		}
	}

	updatedAt := p.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	ctx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	_, err = s.pool.Exec(ctx,
		`INSERT INTO learner_progress (learner_id, curriculum_id, total_xp, level, streak_days, snapshot, curriculum, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8)
		 ON CONFLICT (learner_id) DO UPDATE SET
		   curriculum_id = EXCLUDED.curriculum_id,
		   total_xp      = EXCLUDED.total_xp,
		   level         = EXCLUDED.level,
		   streak_days   = EXCLUDED.streak_days,
		   snapshot      = EXCLUDED.snapshot,
		   curriculum    = EXCLUDED.curriculum,
		   updated_at    = EXCLUDED.updated_at`,
		p.LearnerID,
		p.CurriculumID,
		p.TotalXP,
		p.Level,
		p.StreakDays,
		string(snapshot),
		nullIfEmpty(string(curr)),
		updatedAt,
	)
	if err != nil {
		return fmt.Errorf("save progress %s: %w", p.LearnerID, err)
	}
	return nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
