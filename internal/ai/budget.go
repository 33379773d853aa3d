package ai

import (
	"fmt"
	"sync"
)

// BudgetChecker checks and records token usage against per-learner budgets.
type BudgetChecker interface {
	// Check returns true if the learner has budget remaining.
	Check(learnerID string) (bool, error)
	// Record records token usage for a learner.
	Record(learnerID string, tokens int) error
	// Usage returns current usage and limit for a learner.
	Usage(learnerID string) (used int64, budget int64, err error)
}

// InMemoryBudget is an in-memory budget tracker. A default limit applies to
// every learner without an explicit budget; zero means unlimited.
type InMemoryBudget struct {
	mu           sync.RWMutex
	defaultLimit int64
	budgets      map[string]int64 // learner -> budget limit
	usage        map[string]int64 // learner -> tokens used
}

// NewInMemoryBudget creates a new in-memory budget tracker.
func NewInMemoryBudget(defaultLimit int64) *InMemoryBudget {
	return &InMemoryBudget{
		defaultLimit: defaultLimit,
		budgets:      make(map[string]int64),
		usage:        make(map[string]int64),
	}
}

// SetBudget sets the token budget for a learner.
func (b *InMemoryBudget) SetBudget(learnerID string, tokens int64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.budgets[learnerID] = tokens
}

func (b *InMemoryBudget) limit(learnerID string) int64 {
	if v, ok := b.budgets[learnerID]; ok {
		return v
	}
	return b.defaultLimit
}

func (b *InMemoryBudget) Check(learnerID string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	budget := b.limit(learnerID)
	if budget <= 0 {
		return true, nil
	}
	return b.usage[learnerID] < budget, nil
}

func (b *InMemoryBudget) Record(learnerID string, tokens int) error {
	if tokens < 0 {
		return fmt.Errorf("tokens must be non-negative, got %d", tokens)
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	b.usage[learnerID] += int64(tokens)
	return nil
}

func (b *InMemoryBudget) Usage(learnerID string) (int64, int64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.usage[learnerID], b.limit(learnerID), nil
}
