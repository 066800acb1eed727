package mcptools

import (
	"context"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/dusk-indust/docplan/internal/export"
	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/record"
	"github.com/dusk-indust/docplan/internal/rule"
	"github.com/dusk-indust/docplan/internal/store"
)

// PlanService holds the planner and plan store used by MCP tool handlers.
type PlanService struct {
	planner *planner.Planner
	store   store.Store
	logger  *zap.Logger
}

// NewPlanService creates a PlanService. A nil logger discards output.
func NewPlanService(p *planner.Planner, s store.Store, logger *zap.Logger) *PlanService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanService{planner: p, store: s, logger: logger}
}

// PlanItem plans a single item and optionally persists the result.
func (s *PlanService) PlanItem(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input PlanItemInput,
) (*mcp.CallToolResult, PlanItemOutput, error) {
	spec := input.Item
	if spec.ID == "" {
		spec.ID = "item"
	}
	item, err := spec.Item()
	if err != nil {
		return nil, PlanItemOutput{}, fmt.Errorf("invalid item: %w", err)
	}

	s.logger.Debug("Planning item",
		zap.String("item", item.ID),
		zap.Int("messages", len(item.Messages)),
		zap.Bool("save", input.Save))
	res, err := s.planner.Plan(ctx, item)
	if err != nil {
		return nil, PlanItemOutput{}, err
	}
	out := PlanItemOutput{
		Status:     string(res.Status),
		Reason:     res.Reason,
		Expansions: res.Expansions,
	}
	if res.Status != planner.StatusPlanned {
		s.logger.Info("No plan", zap.String("item", item.ID), zap.String("reason", res.Reason))
		return nil, out, nil
	}

	out.Outline = export.Outline(res.Plan.Root)
	out.Tree = record.ToAny(res.Plan.Root)

	if input.Save {
		if s.store == nil {
			return nil, PlanItemOutput{}, fmt.Errorf("save requested but no store is configured")
		}
		sp := store.NewStoredPlan(res.Plan)
		if err := s.store.SavePlan(ctx, sp); err != nil {
			return nil, PlanItemOutput{}, fmt.Errorf("save plan: %w", err)
		}
		out.PlanID = sp.ID
		s.logger.Info("Saved plan", zap.String("item", item.ID), zap.String("id", sp.ID))
	}
	return nil, out, nil
}

// ListRules describes every rule of the planner's catalog in catalog order.
func (s *PlanService) ListRules(
	_ context.Context,
	_ *mcp.CallToolRequest,
	_ ListRulesInput,
) (*mcp.CallToolResult, ListRulesOutput, error) {
	rules := s.planner.Catalog().Rules()
	out := ListRulesOutput{Rules: make([]RuleInfo, 0, len(rules))}
	for _, r := range rules {
		info := RuleInfo{
			Name:      r.Name,
			Relation:  r.Relation,
			Weight:    r.Weight,
			Nucleus:   bindingStrings(r.Nucleus),
			Satellite: bindingStrings(r.Satellite),
			Guards:    make([]string, 0, len(r.Guards)),
		}
		for _, g := range r.Guards {
			info.Guards = append(info.Guards, g.String())
		}
		out.Rules = append(out.Rules, info)
	}
	return nil, out, nil
}

func bindingStrings(bs []rule.Binding) []string {
	out := make([]string, 0, len(bs))
	for _, b := range bs {
		out = append(out, b.Name+"="+b.Pattern.String())
	}
	return out
}

// GetPlan fetches a stored plan. A missing plan is reported with
// Found=false, not as an error.
func (s *PlanService) GetPlan(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetPlanInput,
) (*mcp.CallToolResult, GetPlanOutput, error) {
	if input.ID == "" {
		return nil, GetPlanOutput{}, fmt.Errorf("id is required")
	}
	if s.store == nil {
		return nil, GetPlanOutput{}, fmt.Errorf("no store is configured")
	}
	sp, err := s.store.GetPlan(ctx, input.ID)
	if err != nil {
		return nil, GetPlanOutput{}, fmt.Errorf("get plan: %w", err)
	}
	if sp == nil {
		return nil, GetPlanOutput{Found: false}, nil
	}
	sum := toSummary(sp.Summary())
	return nil, GetPlanOutput{
		Found:   true,
		Plan:    &sum,
		Outline: export.Outline(sp.Root),
		Tree:    record.ToAny(sp.Root),
	}, nil
}

// ListPlans lists stored plans in creation order.
func (s *PlanService) ListPlans(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	_ ListPlansInput,
) (*mcp.CallToolResult, ListPlansOutput, error) {
	if s.store == nil {
		return nil, ListPlansOutput{Plans: []PlanSummary{}}, nil
	}
	sums, err := s.store.ListPlans(ctx)
	if err != nil {
		return nil, ListPlansOutput{}, fmt.Errorf("list plans: %w", err)
	}
	out := ListPlansOutput{Plans: make([]PlanSummary, 0, len(sums)), Total: len(sums)}
	for _, ps := range sums {
		out.Plans = append(out.Plans, toSummary(ps))
	}
	return nil, out, nil
}

func toSummary(ps store.PlanSummary) PlanSummary {
	return PlanSummary{
		ID:        ps.ID,
		ItemID:    ps.ItemID,
		Title:     ps.Title,
		Score:     ps.Score,
		CreatedAt: ps.CreatedAt.Format(time.RFC3339Nano),
		Messages:  ps.Messages,
		Relations: ps.Relations,
	}
}
