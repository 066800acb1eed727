package export

import (
	"encoding/json"
	"time"

	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/record"
)

// PlanExport is the JSON export structure for one document plan.
type PlanExport struct {
	ID         string  `json:"id,omitempty"`
	ItemID     string  `json:"itemId"`
	Title      string  `json:"title,omitempty"`
	Score      float64 `json:"score"`
	ExportedAt string  `json:"exportedAt"`
	Messages   int     `json:"messages"`
	Relations  int     `json:"relations"`

	// Tree is the plan as nested maps: relations are
	// {relation, nucleus, satellite}, messages are {type, attrs}.
	Tree any `json:"tree"`
}

// ExportPlan builds a PlanExport from dp.
func ExportPlan(dp *planner.DocumentPlan) *PlanExport {
	msgs, rels := record.Count(dp.Root)
	return &PlanExport{
		ItemID:     dp.ItemID,
		Title:      dp.Title,
		Score:      dp.Score,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		Messages:   msgs,
		Relations:  rels,
		Tree:       record.ToAny(dp.Root),
	}
}

// MarshalPlans renders plans as an indented JSON array.
func MarshalPlans(plans []*PlanExport) ([]byte, error) {
	if plans == nil {
		plans = []*PlanExport{}
	}
	return json.MarshalIndent(plans, "", "  ")
}
