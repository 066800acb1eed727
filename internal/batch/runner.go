// Package batch plans many items in parallel against one shared planner.
package batch

import (
	"context"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/dusk-indust/docplan/internal/planner"
)

// ItemResult holds the outcome of planning one item.
type ItemResult struct {
	ItemID string

	// Result is the planner's outcome. It is the zero Result when Err is set.
	Result planner.Result

	// Err is non-nil if the item could not be planned at all, for example
	// because it had no messages or the batch was cancelled first.
	Err error

	Duration time.Duration
}

// Runner plans items concurrently. A missing plan or a failure for one item
// is recorded in that item's result and never stops the others.
type Runner struct {
	planner     *planner.Planner
	workers     int
	itemTimeout time.Duration
	onProgress  func(ProgressEvent)
	logger      *zap.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithWorkers bounds the number of items planned at once. Values below one
// select GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Runner) { r.workers = n }
}

// WithItemTimeout bounds the search time of each item. A timed-out item
// reports no plan. Zero disables the bound.
func WithItemTimeout(d time.Duration) Option {
	return func(r *Runner) { r.itemTimeout = d }
}

// WithProgress registers a callback invoked from worker goroutines on every
// status change.
func WithProgress(fn func(ProgressEvent)) Option {
	return func(r *Runner) { r.onProgress = fn }
}

// WithLogger sets the logger for per-item outcomes.
func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewRunner creates a Runner that plans with p.
func NewRunner(p *planner.Planner, opts ...Option) *Runner {
	r := &Runner{planner: p, logger: zap.NewNop()}
	for _, o := range opts {
		o(r)
	}
	if r.workers < 1 {
		r.workers = runtime.GOMAXPROCS(0)
	}
	return r
}

// Run plans every item and returns one result per item, in input order.
// The returned error is non-nil only when ctx ends before the batch
// completes; items that never started carry the context error.
func (r *Runner) Run(ctx context.Context, items []planner.Item) ([]ItemResult, error) {
	results := make([]ItemResult, len(items))
	for _, item := range items {
		r.emit(ProgressEvent{ItemID: item.ID, Status: ProgressPending})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.workers)

	for i, item := range items {
		g.Go(func() error {
			results[i] = r.planOne(gctx, item)
			return nil
		})
	}

	_ = g.Wait()
	return results, ctx.Err()
}

func (r *Runner) planOne(ctx context.Context, item planner.Item) ItemResult {
	if err := ctx.Err(); err != nil {
		r.emit(ProgressEvent{ItemID: item.ID, Status: ProgressFailed, Message: err.Error()})
		return ItemResult{ItemID: item.ID, Err: err}
	}

	r.emit(ProgressEvent{ItemID: item.ID, Status: ProgressWorking})
	if r.itemTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.itemTimeout)
		defer cancel()
	}

	start := time.Now()
	res, err := r.planner.Plan(ctx, item)
	out := ItemResult{ItemID: item.ID, Result: res, Err: err, Duration: time.Since(start)}

	switch {
	case err != nil:
		r.logger.Warn("Item failed", zap.String("item", item.ID), zap.Error(err))
		r.emit(ProgressEvent{ItemID: item.ID, Status: ProgressFailed, Message: err.Error()})
	case res.Status == planner.StatusNoPlan:
		r.logger.Info("No plan for item", zap.String("item", item.ID), zap.String("reason", res.Reason))
		r.emit(ProgressEvent{ItemID: item.ID, Status: ProgressNoPlan, Message: res.Reason})
	default:
		r.logger.Debug("Item planned",
			zap.String("item", item.ID),
			zap.Int("expansions", res.Expansions),
			zap.Duration("took", out.Duration))
		r.emit(ProgressEvent{ItemID: item.ID, Status: ProgressPlanned})
	}
	return out
}

func (r *Runner) emit(ev ProgressEvent) {
	if r.onProgress != nil {
		r.onProgress(ev)
	}
}

// Summary counts batch outcomes.
type Summary struct {
	Planned int
	NoPlan  int
	Failed  int
}

// Summarize counts the outcomes in results.
func Summarize(results []ItemResult) Summary {
	var s Summary
	for _, r := range results {
		switch {
		case r.Err != nil:
			s.Failed++
		case r.Result.Status == planner.StatusPlanned:
			s.Planned++
		default:
			s.NoPlan++
		}
	}
	return s
}

// Plans returns the document plans of the planned items, in input order.
func Plans(results []ItemResult) []*planner.DocumentPlan {
	var out []*planner.DocumentPlan
	for _, r := range results {
		if r.Err == nil && r.Result.Plan != nil {
			out = append(out, r.Result.Plan)
		}
	}
	return out
}
