//go:build e2e

package e2e

import (
	"context"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dusk-indust/docplan/internal/batch"
	"github.com/dusk-indust/docplan/internal/content"
	"github.com/dusk-indust/docplan/internal/export"
	"github.com/dusk-indust/docplan/internal/planner"
)

var update = flag.Bool("update", false, "update golden files")

// goldenDir returns the path to the testdata/golden directory.
func goldenDir() string {
	return filepath.Join("..", "..", "testdata", "golden")
}

// goldenCases maps item files to golden outline files.
var goldenCases = []struct {
	items  string
	golden string
}{
	{"laptops.yml", "laptops.outline"},
}

// planOutlines plans every item in an item file with the builtin catalog and
// renders the planned items the way `docplan plan` does.
func planOutlines(t *testing.T, itemsFile string) string {
	t.Helper()

	items, err := content.Load(filepath.Join("..", "..", "testdata", "items", itemsFile))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	runner := batch.NewRunner(planner.New(nil), batch.WithWorkers(2))
	results, err := runner.Run(ctx, items)
	require.NoError(t, err)

	var parts []string
	for _, dp := range batch.Plans(results) {
		parts = append(parts, export.PlanOutline(dp))
	}
	return strings.Join(parts, "\n")
}

// TestGolden compares planner output against golden files. If golden files
// do not exist, the test is skipped with a message to run with -update.
func TestGolden(t *testing.T) {
	for _, gc := range goldenCases {
		t.Run(gc.golden, func(t *testing.T) {
			golden, err := os.ReadFile(filepath.Join(goldenDir(), gc.golden))
			if os.IsNotExist(err) {
				t.Skipf("golden file %s not found; run with -update to generate", gc.golden)
				return
			}
			require.NoError(t, err)

			assert.Equal(t, string(golden), planOutlines(t, gc.items),
				"output for %s does not match golden file", gc.items)
		})
	}
}

// TestUpdateGolden regenerates golden files from the current planner output.
// Run with: go test -tags e2e -run TestUpdateGolden ./internal/e2e/ -update
func TestUpdateGolden(t *testing.T) {
	if !*update {
		t.Skip("skipping golden file update; run with -update flag")
	}

	require.NoError(t, os.MkdirAll(goldenDir(), 0o755))
	for _, gc := range goldenCases {
		out := planOutlines(t, gc.items)
		require.NoError(t, os.WriteFile(filepath.Join(goldenDir(), gc.golden), []byte(out), 0o644))
		t.Logf("updated %s", gc.golden)
	}
}
