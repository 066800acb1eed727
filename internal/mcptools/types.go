package mcptools

import "github.com/dusk-indust/docplan/internal/content"

// --- MCP Tool Input Types ---
// The MCP Go SDK derives each tool's JSON schema from these structs.

// PlanItemInput is the input for the plan_item MCP tool.
type PlanItemInput struct {
	Item content.ItemSpec `json:"item" jsonschema:"the item to plan: id, title, score and its selected messages"`
	Save bool             `json:"save,omitempty" jsonschema:"persist the plan in the store when one is found"`
}

// PlanItemOutput is the result of the plan_item MCP tool.
type PlanItemOutput struct {
	Status     string `json:"status" jsonschema:"planned or no-plan"`
	Reason     string `json:"reason,omitempty"`
	Expansions int    `json:"expansions"`
	PlanID     string `json:"planId,omitempty" jsonschema:"store ID when save was requested"`
	Outline    string `json:"outline,omitempty"`
	Tree       any    `json:"tree,omitempty"`
}

// ListRulesInput is the input for the list_rules MCP tool.
type ListRulesInput struct{}

// RuleInfo describes one rule of the active catalog.
type RuleInfo struct {
	Name      string   `json:"name"`
	Relation  string   `json:"relation"`
	Weight    int      `json:"weight"`
	Nucleus   []string `json:"nucleus"`
	Satellite []string `json:"satellite"`
	Guards    []string `json:"guards"`
}

// ListRulesOutput is the result of the list_rules MCP tool.
type ListRulesOutput struct {
	Rules []RuleInfo `json:"rules"`
}

// GetPlanInput is the input for the get_plan MCP tool.
type GetPlanInput struct {
	ID string `json:"id" jsonschema:"store ID returned by plan_item or list_plans"`
}

// GetPlanOutput is the result of the get_plan MCP tool.
type GetPlanOutput struct {
	Found   bool         `json:"found"`
	Plan    *PlanSummary `json:"plan,omitempty"`
	Outline string       `json:"outline,omitempty"`
	Tree    any          `json:"tree,omitempty"`
}

// ListPlansInput is the input for the list_plans MCP tool.
type ListPlansInput struct{}

// PlanSummary describes a stored plan.
type PlanSummary struct {
	ID        string  `json:"id"`
	ItemID    string  `json:"itemId"`
	Title     string  `json:"title,omitempty"`
	Score     float64 `json:"score"`
	CreatedAt string  `json:"createdAt" jsonschema:"RFC 3339 timestamp"`
	Messages  int     `json:"messages"`
	Relations int     `json:"relations"`
}

// ListPlansOutput is the result of the list_plans MCP tool.
type ListPlansOutput struct {
	Plans []PlanSummary `json:"plans"`
	Total int           `json:"total"`
}
