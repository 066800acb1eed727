package batch

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/dusk-indust/docplan/internal/catalog"
	"github.com/dusk-indust/docplan/internal/pattern"
	"github.com/dusk-indust/docplan/internal/planner"
	"github.com/dusk-indust/docplan/internal/record"
	"github.com/dusk-indust/docplan/internal/rule"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func plannable(id string) planner.Item {
	return planner.Item{
		ID: id,
		Messages: []record.Message{
			record.NewMessage(catalog.TypeID, map[string]record.Value{"name": record.String(id)}),
			record.NewMessage(catalog.TypeExtra, nil),
		},
	}
}

func unplannable(id string) planner.Item {
	return planner.Item{
		ID:       id,
		Messages: []record.Message{record.NewMessage("A", nil), record.NewMessage("B", nil)},
	}
}

type recorder struct {
	mu     sync.Mutex
	events []ProgressEvent
}

func (r *recorder) record(ev ProgressEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) statuses(id string) []ProgressStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ProgressStatus
	for _, ev := range r.events {
		if ev.ItemID == id {
			out = append(out, ev.Status)
		}
	}
	return out
}

func TestRunMixedBatch(t *testing.T) {
	rec := &recorder{}
	runner := NewRunner(planner.New(catalog.Builtin()), WithWorkers(2), WithProgress(rec.record))
	items := []planner.Item{plannable("ok"), unplannable("stuck"), {ID: "empty"}}

	results, err := runner.Run(context.Background(), items)
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.Equal(t, "ok", results[0].ItemID)
	assert.Equal(t, planner.StatusPlanned, results[0].Result.Status)
	require.NotNil(t, results[0].Result.Plan)
	assert.Equal(t, catalog.RelSequence, results[0].Result.Plan.Root.Tag())

	assert.Equal(t, planner.StatusNoPlan, results[1].Result.Status)
	assert.NoError(t, results[1].Err)

	assert.ErrorIs(t, results[2].Err, planner.ErrEmptyPool)

	assert.Equal(t, Summary{Planned: 1, NoPlan: 1, Failed: 1}, Summarize(results))
	assert.Len(t, Plans(results), 1)

	assert.Equal(t, []ProgressStatus{ProgressPending, ProgressWorking, ProgressPlanned}, rec.statuses("ok"))
	assert.Equal(t, []ProgressStatus{ProgressPending, ProgressWorking, ProgressNoPlan}, rec.statuses("stuck"))
	assert.Equal(t, []ProgressStatus{ProgressPending, ProgressWorking, ProgressFailed}, rec.statuses("empty"))
}

func TestRunRespectsWorkerLimit(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	onProgress := func(ev ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		switch ev.Status {
		case ProgressWorking:
			inFlight++
			if inFlight > peak {
				peak = inFlight
			}
		case ProgressPlanned, ProgressNoPlan, ProgressFailed:
			inFlight--
		}
	}

	items := make([]planner.Item, 20)
	for i := range items {
		items[i] = plannable(string(rune('a' + i)))
	}
	runner := NewRunner(planner.New(nil), WithWorkers(1), WithProgress(onProgress))

	results, err := runner.Run(context.Background(), items)
	require.NoError(t, err)
	assert.Equal(t, 20, Summarize(results).Planned)
	assert.Equal(t, 1, peak)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	runner := NewRunner(planner.New(nil), WithItemTimeout(time.Second))
	results, err := runner.Run(ctx, []planner.Item{plannable("a"), plannable("b")})
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 2)
	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
	assert.Equal(t, Summary{Failed: 2}, Summarize(results))
}

func TestRunEmptyBatch(t *testing.T) {
	results, err := NewRunner(planner.New(nil)).Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestNewRunnerDefaultsWorkers(t *testing.T) {
	r := NewRunner(planner.New(nil), WithWorkers(0))
	assert.GreaterOrEqual(t, r.workers, 1)
}

func TestRunPanickingGuardFailsOnlyThatItem(t *testing.T) {
	// The guard reads a "brand" attribute that only some ids carry.
	cat := catalog.MustNew(rule.Rule{
		Name:      "sequence-extra",
		Relation:  catalog.RelSequence,
		Nucleus:   []rule.Binding{rule.Bind("item", pattern.Message(catalog.TypeID))},
		Satellite: []rule.Binding{rule.Bind("more", pattern.Message(catalog.TypeExtra))},
		Guards: []rule.Guard{rule.Func("branded", []string{"item"}, func(b rule.Bindings) bool {
			v, _ := b["item"].Attr("brand")
			return v.Size() > 0
		})},
		Weight: 4,
	})
	branded := planner.Item{
		ID: "branded",
		Messages: []record.Message{
			record.NewMessage(catalog.TypeID, map[string]record.Value{"brand": record.String("Acme")}),
			record.NewMessage(catalog.TypeExtra, nil),
		},
	}

	rec := &recorder{}
	runner := NewRunner(planner.New(cat), WithWorkers(2), WithProgress(rec.record))
	results, err := runner.Run(context.Background(), []planner.Item{plannable("bare"), branded})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.ErrorIs(t, results[0].Err, planner.ErrRulePanic)
	assert.Equal(t, []ProgressStatus{ProgressPending, ProgressWorking, ProgressFailed}, rec.statuses("bare"))

	require.NoError(t, results[1].Err)
	assert.Equal(t, planner.StatusPlanned, results[1].Result.Status)
	assert.Equal(t, Summary{Planned: 1, Failed: 1}, Summarize(results))
}
