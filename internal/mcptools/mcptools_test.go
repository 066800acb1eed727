package mcptools

import (
	"context"
	"encoding/json"
	"net"
	"sort"
	"strings"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/docplan/internal/catalog"
	"github.com/dusk-indust/docplan/internal/content"
	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/store"
)

func laptopSpec() content.ItemSpec {
	return content.ItemSpec{
		ID:    "x1",
		Title: "Acme X1",
		Score: 0.87,
		Messages: []content.MessageSpec{
			{Type: catalog.TypeID, Attrs: map[string]any{"name": "X1", "brand": "Acme"}},
			{Type: catalog.TypeFeature, Attrs: map[string]any{catalog.AttrMatch: []any{"ram", "cpu"}}},
			{Type: catalog.TypeFeature, Attrs: map[string]any{catalog.AttrMismatch: []any{"gpu"}}},
			{Type: catalog.TypePrice, Attrs: map[string]any{catalog.AttrValue: map[string]any{"value": 999, "rating": "good"}}},
			{Type: catalog.TypeExtra, Attrs: map[string]any{"note": "ships in two days"}},
		},
	}
}

func newService() (*PlanService, *store.MemStore) {
	ms := store.NewMemStore()
	return NewPlanService(planner.New(nil), ms, nil), ms
}

func TestPlanItem(t *testing.T) {
	svc, ms := newService()
	ctx := context.Background()

	_, out, err := svc.PlanItem(ctx, nil, PlanItemInput{Item: laptopSpec(), Save: true})
	require.NoError(t, err)
	assert.Equal(t, "planned", out.Status)
	assert.Positive(t, out.Expansions)
	assert.True(t, strings.HasPrefix(out.Outline, "sequence\n"), out.Outline)
	assert.Contains(t, out.Outline, "  S extra {note=ships in two days}\n")
	require.NotEmpty(t, out.PlanID)

	tree, ok := out.Tree.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, catalog.RelSequence, tree["relation"])

	sp, err := ms.GetPlan(ctx, out.PlanID)
	require.NoError(t, err)
	require.NotNil(t, sp)
	assert.Equal(t, "x1", sp.ItemID)
}

func TestPlanItem_NoPlan(t *testing.T) {
	svc, ms := newService()
	spec := content.ItemSpec{
		ID: "lonely",
		Messages: []content.MessageSpec{
			{Type: catalog.TypeExtra, Attrs: map[string]any{"note": "a"}},
			{Type: catalog.TypeExtra, Attrs: map[string]any{"note": "b"}},
		},
	}

	_, out, err := svc.PlanItem(context.Background(), nil, PlanItemInput{Item: spec, Save: true})
	require.NoError(t, err)
	assert.Equal(t, "no-plan", out.Status)
	assert.NotEmpty(t, out.Reason)
	assert.Empty(t, out.PlanID)
	assert.Nil(t, out.Tree)

	sums, err := ms.ListPlans(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sums)
}

func TestPlanItem_Invalid(t *testing.T) {
	svc, _ := newService()
	_, _, err := svc.PlanItem(context.Background(), nil, PlanItemInput{})
	assert.ErrorContains(t, err, "invalid item")

	noStore := NewPlanService(planner.New(nil), nil, nil)
	_, _, err = noStore.PlanItem(context.Background(), nil, PlanItemInput{Item: laptopSpec(), Save: true})
	assert.ErrorContains(t, err, "no store")
}

func TestListRules(t *testing.T) {
	svc, _ := newService()
	_, out, err := svc.ListRules(context.Background(), nil, ListRulesInput{})
	require.NoError(t, err)

	builtin := catalog.Builtin().Rules()
	require.Len(t, out.Rules, len(builtin))
	for i, r := range builtin {
		assert.Equal(t, r.Name, out.Rules[i].Name)
		assert.Equal(t, r.Relation, out.Rules[i].Relation)
		assert.Equal(t, r.Weight, out.Rules[i].Weight)
		assert.Len(t, out.Rules[i].Guards, len(r.Guards))
		assert.NotNil(t, out.Rules[i].Satellite)
	}
	assert.True(t, strings.HasPrefix(out.Rules[0].Nucleus[0], "good="), out.Rules[0].Nucleus[0])
}

func TestGetPlanAndListPlans(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	_, out, err := svc.ListPlans(ctx, nil, ListPlansInput{})
	require.NoError(t, err)
	assert.NotNil(t, out.Plans)
	assert.Zero(t, out.Total)

	_, planned, err := svc.PlanItem(ctx, nil, PlanItemInput{Item: laptopSpec(), Save: true})
	require.NoError(t, err)

	_, got, err := svc.GetPlan(ctx, nil, GetPlanInput{ID: planned.PlanID})
	require.NoError(t, err)
	require.True(t, got.Found)
	assert.Equal(t, planned.PlanID, got.Plan.ID)
	assert.Equal(t, 5, got.Plan.Messages)
	assert.Equal(t, 4, got.Plan.Relations)
	assert.Equal(t, planned.Outline, got.Outline)

	_, missing, err := svc.GetPlan(ctx, nil, GetPlanInput{ID: "nope"})
	require.NoError(t, err)
	assert.False(t, missing.Found)
	assert.Nil(t, missing.Plan)

	_, _, err = svc.GetPlan(ctx, nil, GetPlanInput{})
	assert.Error(t, err)

	_, out, err = svc.ListPlans(ctx, nil, ListPlansInput{})
	require.NoError(t, err)
	require.Equal(t, 1, out.Total)
	assert.Equal(t, "x1", out.Plans[0].ItemID)
}

// setupServerClient wires an MCP server and client together using in-memory
// transports.
func setupServerClient(t *testing.T) *mcp.ClientSession {
	t.Helper()

	svc, _ := newService()
	server := NewPlanMCPServer(svc)

	st, ct := mcp.NewInMemoryTransports()
	ctx := context.Background()

	_, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)

	client := mcp.NewClient(&mcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)

	session, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)

	t.Cleanup(func() {
		session.Close()
	})
	return session
}

func TestMCPListTools(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.ListTools(context.Background(), &mcp.ListToolsParams{})
	require.NoError(t, err)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	sort.Strings(names)
	assert.Equal(t, []string{"get_plan", "list_plans", "list_rules", "plan_item"}, names)
}

func TestMCPPlanItem(t *testing.T) {
	session := setupServerClient(t)
	ctx := context.Background()

	result, err := session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "plan_item",
		Arguments: PlanItemInput{Item: laptopSpec(), Save: true},
	})
	require.NoError(t, err)
	require.False(t, result.IsError, "plan_item should succeed")
	require.NotNil(t, result.StructuredContent)

	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var out PlanItemOutput
	require.NoError(t, json.Unmarshal(raw, &out))
	assert.Equal(t, "planned", out.Status)
	require.NotEmpty(t, out.PlanID)

	result, err = session.CallTool(ctx, &mcp.CallToolParams{
		Name:      "list_plans",
		Arguments: ListPlansInput{},
	})
	require.NoError(t, err)
	require.False(t, result.IsError)

	raw, err = json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	var plans ListPlansOutput
	require.NoError(t, json.Unmarshal(raw, &plans))
	require.Len(t, plans.Plans, 1)
	assert.Equal(t, out.PlanID, plans.Plans[0].ID)
}

func TestMCPPlanItem_ToolError(t *testing.T) {
	session := setupServerClient(t)

	result, err := session.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "get_plan",
		Arguments: GetPlanInput{},
	})
	require.NoError(t, err)
	assert.True(t, result.IsError)
}

func TestRunMCPServer_ListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	svc, _ := newService()
	err = RunMCPServer(context.Background(), svc, ln.Addr().String())
	assert.ErrorContains(t, err, "listen "+ln.Addr().String())
}

func TestServeMCPOverHTTP(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	svc, _ := newService()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- ServeMCP(ctx, svc, ln) }()

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, &mcp.StreamableClientTransport{Endpoint: "http://" + ln.Addr().String()}, nil)
	require.NoError(t, err)

	result, err := session.CallTool(ctx, &mcp.CallToolParams{Name: "list_rules", Arguments: ListRulesInput{}})
	require.NoError(t, err)
	require.False(t, result.IsError)
	raw, err := json.Marshal(result.StructuredContent)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "contrast-features")
	require.NoError(t, session.Close())

	cancel()
	assert.NoError(t, <-done)
}
