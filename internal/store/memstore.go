package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/dusk-indust/docplan/internal/record"
)

// Compile-time assertion: *MemStore satisfies Store.
var _ Store = (*MemStore)(nil)

// MemStore implements Store using Go maps. Thread-safe via sync.RWMutex.
type MemStore struct {
	mu    sync.RWMutex
	plans map[string]StoredPlan
}

// NewMemStore returns an initialized MemStore ready for use.
func NewMemStore() *MemStore {
	return &MemStore{plans: make(map[string]StoredPlan)}
}

// InitSchema is a no-op for the in-memory store.
func (m *MemStore) InitSchema(_ context.Context) error {
	return nil
}

// SavePlan stores a plan. Trees are immutable, so the root is shared.
func (m *MemStore) SavePlan(_ context.Context, plan StoredPlan) error {
	if err := validate(plan); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.plans[plan.ID]; ok {
		return fmt.Errorf("store: plan %q already exists", plan.ID)
	}
	m.plans[plan.ID] = plan
	return nil
}

// GetPlan returns the plan for the given ID, or nil if not found.
func (m *MemStore) GetPlan(_ context.Context, id string) (*StoredPlan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.plans[id]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

// ListPlans returns all plan summaries.
func (m *MemStore) ListPlans(_ context.Context) ([]PlanSummary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]PlanSummary, 0, len(m.plans))
	for _, p := range m.plans {
		out = append(out, p.Summary())
	}
	sortSummaries(out)
	return out, nil
}

// Stats returns plan and node counts.
func (m *MemStore) Stats(_ context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	st := &Stats{PlanCount: len(m.plans)}
	for _, p := range m.plans {
		msgs, rels := record.Count(p.Root)
		st.MessageCount += msgs
		st.RelationCount += rels
	}
	return st, nil
}

// Close is a no-op for MemStore.
func (m *MemStore) Close() error {
	return nil
}
