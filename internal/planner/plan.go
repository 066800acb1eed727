package planner

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/dusk-indust/docplan/internal/record"
)

// Item is the content selected for one described item.
type Item struct {
	ID       string
	Title    string
	Score    float64
	Messages []record.Message
}

// DocumentPlan is a discourse tree together with the item it describes.
type DocumentPlan struct {
	ItemID string
	Title  string
	Score  float64
	Root   record.Node
}

// Status is the outcome of planning one item.
type Status string

const (
	StatusPlanned Status = "planned"
	StatusNoPlan  Status = "no-plan"
)

// Result reports the outcome of Plan. Plan is set only when Status is
// StatusPlanned; Reason explains a StatusNoPlan outcome.
type Result struct {
	Status     Status
	Plan       *DocumentPlan
	Reason     string
	Expansions int
}

// Plan deduplicates item's messages, solves the pool, and wraps the root
// with the item's metadata. A missing plan is reported in the Result, not
// as an error; the error is reserved for an item with no messages and for a
// catalog whose native guard panicked (ErrRulePanic).
func (p *Planner) Plan(ctx context.Context, item Item) (Result, error) {
	nodes := make([]record.Node, 0, len(item.Messages))
	for _, m := range item.Messages {
		nodes = append(nodes, m)
	}
	pool := record.NewPool(nodes...)

	root, expansions, err := p.solve(ctx, pool)
	switch {
	case err == nil:
		p.logger.Debug("Planned item",
			zap.String("item", item.ID),
			zap.Int("messages", pool.Len()),
			zap.Int("expansions", expansions))
		return Result{
			Status: StatusPlanned,
			Plan: &DocumentPlan{
				ItemID: item.ID,
				Title:  item.Title,
				Score:  item.Score,
				Root:   root,
			},
			Expansions: expansions,
		}, nil
	case errors.Is(err, ErrNoPlan):
		p.logger.Debug("No plan for item",
			zap.String("item", item.ID),
			zap.Int("expansions", expansions),
			zap.Error(err))
		return Result{Status: StatusNoPlan, Reason: err.Error(), Expansions: expansions}, nil
	default:
		return Result{}, fmt.Errorf("planner: item %q: %w", item.ID, err)
	}
}
