// Package store persists document plans.
package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/record"
)

// Store is the interface for plan persistence.
// Implementations: KuzuStore (production, cgo), MemStore (testing and
// builds without cgo).
type Store interface {
	io.Closer

	// InitSchema is called once before any plan is saved. It is idempotent.
	InitSchema(ctx context.Context) error

	SavePlan(ctx context.Context, plan StoredPlan) error

	// GetPlan returns the plan with the given ID, or nil if not found.
	GetPlan(ctx context.Context, id string) (*StoredPlan, error)

	// ListPlans returns summaries ordered by creation time, then ID.
	ListPlans(ctx context.Context) ([]PlanSummary, error)

	Stats(ctx context.Context) (*Stats, error)
}

// StoredPlan is a document plan with its storage identity.
type StoredPlan struct {
	ID        string
	ItemID    string
	Title     string
	Score     float64
	CreatedAt time.Time
	Root      record.Node
}

// PlanSummary describes a stored plan without its tree.
type PlanSummary struct {
	ID        string    `json:"id"`
	ItemID    string    `json:"itemId"`
	Title     string    `json:"title,omitempty"`
	Score     float64   `json:"score"`
	CreatedAt time.Time `json:"createdAt"`
	Messages  int       `json:"messages"`
	Relations int       `json:"relations"`
}

// Stats counts stored plans and tree nodes.
type Stats struct {
	PlanCount     int `json:"planCount"`
	MessageCount  int `json:"messageCount"`
	RelationCount int `json:"relationCount"`
}

// NewStoredPlan assigns a fresh ID and timestamp to dp.
func NewStoredPlan(dp *planner.DocumentPlan) StoredPlan {
	return StoredPlan{
		ID:        uuid.NewString(),
		ItemID:    dp.ItemID,
		Title:     dp.Title,
		Score:     dp.Score,
		CreatedAt: time.Now().UTC(),
		Root:      dp.Root,
	}
}

// DocumentPlan returns the plan without its storage identity.
func (p *StoredPlan) DocumentPlan() *planner.DocumentPlan {
	return &planner.DocumentPlan{ItemID: p.ItemID, Title: p.Title, Score: p.Score, Root: p.Root}
}

// Summary describes p.
func (p *StoredPlan) Summary() PlanSummary {
	msgs, rels := record.Count(p.Root)
	return PlanSummary{
		ID:        p.ID,
		ItemID:    p.ItemID,
		Title:     p.Title,
		Score:     p.Score,
		CreatedAt: p.CreatedAt,
		Messages:  msgs,
		Relations: rels,
	}
}

func validate(p StoredPlan) error {
	if p.ID == "" {
		return errors.New("store: plan has no ID")
	}
	if p.Root == nil {
		return fmt.Errorf("store: plan %q has no tree", p.ID)
	}
	return nil
}

func sortSummaries(out []PlanSummary) {
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
}
