//go:build cgo

package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKuzuStore(t *testing.T) {
	s, err := NewKuzuStore()
	require.NoError(t, err, "NewKuzuStore should not fail")
	t.Cleanup(func() { _ = s.Close() })

	testStoreContract(t, s)
}

func TestKuzuFileStore_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "plans.kz")
	ctx := context.Background()

	s, err := NewKuzuFileStore(path)
	require.NoError(t, err)
	require.NoError(t, s.InitSchema(ctx))
	plan := StoredPlan{ID: "kept", ItemID: "x1", Root: sampleTree()}
	require.NoError(t, s.SavePlan(ctx, plan))
	require.NoError(t, s.Close())

	reopened, err := NewKuzuFileStore(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = reopened.Close() })
	require.NoError(t, reopened.InitSchema(ctx))

	got, err := reopened.GetPlan(ctx, "kept")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, plan.Root.Key(), got.Root.Key())
}
