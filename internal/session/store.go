package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/p-n-ai/learnly/internal/curriculum"
	"github.com/p-n-ai/learnly/internal/progress"
)

// ErrNotFound is returned by a ProgressStore for a learner it has never saved.
var ErrNotFound = errors.New("learner not found")

// Record is what a ProgressStore keeps per learner: the progress and the
// curriculum it is bound to, if any.
type Record struct {
	Progress   progress.UserProgress  `json:"progress"`
	Curriculum *curriculum.Curriculum `json:"curriculum,omitempty"`
}

// ProgressStore persists learner records.
type ProgressStore interface {
	Load(ctx context.Context, learnerID string) (Record, error)
	Save(ctx context.Context, r Record) error
}

// MemoryStore is an in-memory implementation of ProgressStore.
type MemoryStore struct {
	records map[string]Record
	mu      sync.RWMutex
}

// NewMemoryStore creates a new in-memory progress store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

func (s *MemoryStore) Load(_ context.Context, learnerID string) (Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[learnerID]
	if !ok {
		return Record{}, ErrNotFound
	}
	r.Progress = r.Progress.Clone()
	return r, nil
}

func (s *MemoryStore) Save(_ context.Context, r Record) error {
	if r.Progress.LearnerID == "" {
		return fmt.Errorf("learner_id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	r.Progress = r.Progress.Clone()
	s.records[r.Progress.LearnerID] = r
	return nil
}
