// Package planner builds discourse trees from message pools.
//
// The search is bottom-up and best-first: at each step every catalog rule is
// evaluated against the current pool, the options are ranked by weight, and
// each is tried in turn by recursing on the pool it produces. The first
// branch that reduces the pool to a single node wins. A branch that runs out
// of options fails back to its caller, which moves on to its next option.
//
// The result is locally greedy. It is not guaranteed to be the tree with the
// highest total weight.
package planner

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/dusk-indust/docplan/internal/catalog"
	"github.com/dusk-indust/docplan/internal/record"
)

var (
	// ErrNoPlan is returned when no sequence of rule applications reduces
	// the pool to one node.
	ErrNoPlan = errors.New("no plan")

	// ErrEmptyPool marks a caller bug: planning was asked for nothing.
	ErrEmptyPool = errors.New("empty pool")

	// ErrSearchAborted is returned, alongside ErrNoPlan, when the expansion
	// budget is spent or the context ends before a plan is found.
	ErrSearchAborted = errors.New("search aborted")

	// ErrRulePanic is returned when a rule's native guard panics during
	// evaluation. It is a catalog defect, not a planning outcome.
	ErrRulePanic = errors.New("rule evaluation panicked")
)

var errBudget = errors.New("expansion budget exhausted")

// Planner runs the search against a fixed catalog. It holds no per-call
// state and may be used from many goroutines at once.
type Planner struct {
	cat           *catalog.Catalog
	maxExpansions int
	logger        *zap.Logger
}

// Option configures a Planner.
type Option func(*Planner)

// WithMaxExpansions bounds the number of pool states a single call may
// expand. Zero means unbounded.
func WithMaxExpansions(n int) Option {
	return func(p *Planner) {
		if n >= 0 {
			p.maxExpansions = n
		}
	}
}

// WithLogger sets the logger used for search tracing.
func WithLogger(l *zap.Logger) Option {
	return func(p *Planner) {
		if l != nil {
			p.logger = l
		}
	}
}

// New returns a planner over cat. A nil catalog selects catalog.Builtin.
func New(cat *catalog.Catalog, opts ...Option) *Planner {
	if cat == nil {
		cat = catalog.Builtin()
	}
	p := &Planner{cat: cat, logger: zap.NewNop()}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Catalog returns the planner's rule catalog.
func (p *Planner) Catalog() *catalog.Catalog { return p.cat }

// Solve reduces pool to a single node. It returns ErrEmptyPool for an empty
// pool and an error wrapping ErrNoPlan when no plan exists or the search was
// cut short.
func (p *Planner) Solve(ctx context.Context, pool record.Pool) (record.Node, error) {
	root, _, err := p.solve(ctx, pool)
	return root, err
}

func (p *Planner) solve(ctx context.Context, pool record.Pool) (root record.Node, expansions int, err error) {
	if pool.Len() == 0 {
		return nil, 0, ErrEmptyPool
	}
	s := &search{
		ctx:    ctx,
		cat:    p.cat,
		max:    p.maxExpansions,
		logger: p.logger,
		dead:   make(map[string]struct{}),
	}
	defer func() {
		if v := recover(); v != nil {
			root, expansions, err = nil, s.expansions, fmt.Errorf("%w: %v", ErrRulePanic, v)
		}
	}()

	root, ok := s.run(pool, 0)
	switch {
	case ok:
		return root, s.expansions, nil
	case s.abort != nil:
		return nil, s.expansions, fmt.Errorf("%w (%w): %w", ErrNoPlan, ErrSearchAborted, s.abort)
	default:
		return nil, s.expansions, ErrNoPlan
	}
}

// search is the scratch state of one Solve call.
type search struct {
	ctx    context.Context
	cat    *catalog.Catalog
	max    int
	logger *zap.Logger

	expansions int
	// dead holds pool states, by membership key, already shown to have no
	// plan. Failure depends only on membership, so a state reached again by
	// a different route fails again.
	dead  map[string]struct{}
	abort error
}

func (s *search) run(pool record.Pool, depth int) (record.Node, bool) {
	if pool.Len() == 1 {
		return pool.At(0), true
	}

	key := pool.Key()
	if _, ok := s.dead[key]; ok {
		return nil, false
	}
	if err := s.ctx.Err(); err != nil {
		s.abort = err
		return nil, false
	}
	if s.max > 0 && s.expansions >= s.max {
		s.abort = errBudget
		return nil, false
	}
	s.expansions++

	opts := s.cat.Options(pool)
	// Stable, so equal weights keep catalog order then discovery order.
	sort.SliceStable(opts, func(i, j int) bool { return opts[i].Score > opts[j].Score })

	for _, opt := range opts {
		next := pool.Combine(opt.Consumed[:], opt.Produced)
		s.logger.Debug("Applying rule",
			zap.String("rule", opt.Rule),
			zap.Int("score", opt.Score),
			zap.Int("depth", depth),
			zap.Int("pool", next.Len()))

		if root, ok := s.run(next, depth+1); ok {
			return root, true
		}
		if s.abort != nil {
			return nil, false
		}
	}

	if len(opts) > 0 {
		s.logger.Debug("Backtracking", zap.Int("depth", depth), zap.Int("options", len(opts)))
	}
	s.dead[key] = struct{}{}
	return nil, false
}
