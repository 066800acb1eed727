package export

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/record"
)

func samplePlan() *planner.DocumentPlan {
	id := record.NewMessage("id", map[string]record.Value{"name": record.String("X1")})
	feat := record.NewMessage("feature", map[string]record.Value{
		"match": record.NewSet(record.String("ram"), record.String("cpu")),
	})
	price := record.NewMessage("price", map[string]record.Value{"value": record.NewRated(record.Int(999), "good")})
	root := record.NewConstituentSet("evaluation", record.NewConstituentSet("elaboration", id, feat), price)
	return &planner.DocumentPlan{ItemID: "x1", Title: "Acme X1", Score: 0.87, Root: root}
}

func TestOutline(t *testing.T) {
	want := strings.Join([]string{
		"evaluation",
		"  N elaboration",
		"    N id {name=X1}",
		"    S feature {match=[cpu, ram]}",
		"  S price {value=999 (good)}",
		"",
	}, "\n")
	assert.Equal(t, want, Outline(samplePlan().Root))

	assert.Equal(t, "extra\n", Outline(record.NewMessage("extra", nil)))
	assert.Empty(t, Outline(nil))
}

func TestPlanOutline(t *testing.T) {
	out := PlanOutline(samplePlan())
	assert.True(t, strings.HasPrefix(out, "# x1 \"Acme X1\" (score 0.87)\nevaluation\n"), out)
}

func TestGenerateMermaid(t *testing.T) {
	want := strings.Join([]string{
		"graph TD",
		`  N0{{"evaluation"}}`,
		`  N1{{"elaboration"}}`,
		`  N2["id {name=X1}"]`,
		`  N3["feature {match=[cpu, ram]}"]`,
		"  N1 -->|nucleus| N2",
		"  N1 -.->|satellite| N3",
		`  N4["price {value=999 (good)}"]`,
		"  N0 -->|nucleus| N1",
		"  N0 -.->|satellite| N4",
		"",
	}, "\n")
	assert.Equal(t, want, GenerateMermaid(samplePlan().Root))
	assert.Equal(t, "graph TD\n", GenerateMermaid(nil))
}

func TestLabel(t *testing.T) {
	assert.Equal(t, "say #quot;hi#quot;", label(`say "hi"`))
	long := strings.Repeat("x", 60)
	assert.Equal(t, 48, len([]rune(label(long))))
}

func TestExportPlan(t *testing.T) {
	exp := ExportPlan(samplePlan())
	assert.Equal(t, "x1", exp.ItemID)
	assert.Equal(t, 3, exp.Messages)
	assert.Equal(t, 2, exp.Relations)
	assert.NotEmpty(t, exp.ExportedAt)

	data, err := MarshalPlans([]*PlanExport{exp})
	require.NoError(t, err)

	var decoded []map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "Acme X1", decoded[0]["title"])

	tree := decoded[0]["tree"].(map[string]any)
	assert.Equal(t, "evaluation", tree["relation"])
	nucleus := tree["nucleus"].(map[string]any)
	assert.Equal(t, "elaboration", nucleus["relation"])
	price := tree["satellite"].(map[string]any)
	attrs := price["attrs"].(map[string]any)
	assert.Equal(t, map[string]any{"value": float64(999), "rating": "good"}, attrs["value"])

	empty, err := MarshalPlans(nil)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(empty))
}
