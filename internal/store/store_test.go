package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/record"
)

func sampleTree() record.Node {
	id := record.NewMessage("id", map[string]record.Value{
		"name": record.String("X1"),
		"dims": record.NewMessage("dims", map[string]record.Value{"w": record.Int(30), "h": record.Float(1.5)}),
	})
	match := record.NewMessage("feature", map[string]record.Value{
		"match": record.NewSet(record.String("ram"), record.String("cpu")),
	})
	mismatch := record.NewMessage("feature", map[string]record.Value{
		"mismatch": record.NewSet(record.String("gpu")),
	})
	price := record.NewMessage("price", map[string]record.Value{
		"value": record.NewRated(record.Int(999), "good"),
		"sale":  record.Bool(true),
	})
	return record.NewConstituentSet("evaluation",
		record.NewConstituentSet("elaboration", id, record.NewConstituentSet("contrast", match, mismatch)),
		price)
}

// testStoreContract exercises the Store behaviour shared by all
// implementations.
func testStoreContract(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, s.InitSchema(ctx))
	require.NoError(t, s.InitSchema(ctx), "InitSchema must be idempotent")

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tree := StoredPlan{ID: "p-tree", ItemID: "x1", Title: "Acme X1", Score: 0.87, CreatedAt: base.Add(time.Minute), Root: sampleTree()}
	single := StoredPlan{ID: "p-single", ItemID: "x2", Score: 0.5, CreatedAt: base, Root: record.NewMessage("extra", nil)}

	t.Run("save and get", func(t *testing.T) {
		require.NoError(t, s.SavePlan(ctx, tree))
		require.NoError(t, s.SavePlan(ctx, single))

		got, err := s.GetPlan(ctx, "p-tree")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.Equal(t, "x1", got.ItemID)
		assert.Equal(t, "Acme X1", got.Title)
		assert.InDelta(t, 0.87, got.Score, 1e-9)
		assert.True(t, tree.CreatedAt.Equal(got.CreatedAt), "created at %v, want %v", got.CreatedAt, tree.CreatedAt)
		assert.True(t, record.Equal(tree.Root, got.Root), "tree differs:\n got %s\nwant %s", got.Root.Key(), tree.Root.Key())

		got, err = s.GetPlan(ctx, "p-single")
		require.NoError(t, err)
		require.NotNil(t, got)
		assert.True(t, record.Equal(single.Root, got.Root))
	})

	t.Run("missing plan", func(t *testing.T) {
		got, err := s.GetPlan(ctx, "nope")
		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("duplicate and invalid plans", func(t *testing.T) {
		err := s.SavePlan(ctx, tree)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "already exists")

		assert.Error(t, s.SavePlan(ctx, StoredPlan{ID: "no-root"}))
		assert.Error(t, s.SavePlan(ctx, StoredPlan{Root: record.NewMessage("id", nil)}))
	})

	t.Run("list", func(t *testing.T) {
		list, err := s.ListPlans(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "p-single", list[0].ID)
		assert.Equal(t, "p-tree", list[1].ID)
		assert.Equal(t, 4, list[1].Messages)
		assert.Equal(t, 3, list[1].Relations)
		assert.Equal(t, 1, list[0].Messages)
		assert.Equal(t, 0, list[0].Relations)
	})

	t.Run("stats", func(t *testing.T) {
		st, err := s.Stats(ctx)
		require.NoError(t, err)
		assert.Equal(t, &Stats{PlanCount: 2, MessageCount: 5, RelationCount: 3}, st)
	})
}

func TestMemStore(t *testing.T) {
	s := NewMemStore()
	t.Cleanup(func() { _ = s.Close() })
	testStoreContract(t, s)
}

func TestNewStoredPlan(t *testing.T) {
	dp := &planner.DocumentPlan{ItemID: "x1", Title: "Acme", Score: 0.5, Root: sampleTree()}
	a := NewStoredPlan(dp)
	b := NewStoredPlan(dp)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.False(t, a.CreatedAt.IsZero())
	assert.Equal(t, dp, a.DocumentPlan())

	sum := a.Summary()
	assert.Equal(t, a.ID, sum.ID)
	assert.Equal(t, 4, sum.Messages)
	assert.Equal(t, 3, sum.Relations)
}
