// Package branches draws the family branches of a surname: every lineage
// in a tree whose members carry the surname, starting from the earliest
// member of each lineage (its patriarch).
package branches

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/kinbranch/api"
	"github.com/agentic-research/kinbranch/internal/genealogy"
	"github.com/agentic-research/kinbranch/internal/surname"
)

// Request selects the branches to draw.
type Request struct {
	Tree       string
	Surname    string
	SoundexStd bool // also match surnames with a shared Russell code
	SoundexDM  bool // also match surnames with a shared Daitch-Mokotoff code
	// Self is the individual whose direct ancestors are annotated with
	// Sosa numbers. May be nil.
	Self *genealogy.Individual
}

// Engine runs the branch pipeline: load candidates, index the ancestors
// of Self, resolve patriarchs and render one branch per patriarch.
type Engine struct {
	Store      genealogy.Store
	Linker     RelationshipLinker // optional
	Normalizer surname.Normalizer
	MaxDepth   int // 0 selects DefaultMaxDepth
	// Parallelism > 1 renders up to that many branches concurrently.
	Parallelism int

	Logger  *zap.Logger // nil disables logging
	Metrics *Metrics    // nil disables metrics
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// RenderBranches draws the branches of req.Surname in req.Tree.
// No match is not an error: the forest is simply empty.
func (e *Engine) RenderBranches(ctx context.Context, req Request) (*api.Forest, error) {
	start := time.Now()
	log := e.logger().With(
		zap.String("request_id", uuid.NewString()),
		zap.String("tree", req.Tree),
		zap.String("surname", req.Surname),
	)

	forest, stats, err := e.run(ctx, req, log)
	elapsed := time.Since(start)

	if e.Metrics != nil {
		result := "success"
		if err != nil {
			result = "error"
		}
		e.Metrics.RequestsTotal.WithLabelValues(result).Inc()
		e.Metrics.RequestDuration.Observe(elapsed.Seconds())
		if err == nil {
			e.Metrics.Candidates.Observe(float64(stats.candidates))
			e.Metrics.Patriarchs.Observe(float64(stats.patriarchs))
		}
	}

	if err != nil {
		log.Error("render branches failed", zap.Error(err), zap.Duration("duration", elapsed))
		return nil, err
	}
	log.Info("rendered branches",
		zap.Int("candidates", stats.candidates),
		zap.Int("patriarchs", stats.patriarchs),
		zap.Int("ancestors", stats.ancestors),
		zap.Duration("duration", elapsed),
	)
	return forest, nil
}

type runStats struct {
	candidates int
	patriarchs int
	ancestors  int
}

func (e *Engine) run(ctx context.Context, req Request, log *zap.Logger) (*api.Forest, runStats, error) {
	var stats runStats
	forest := &api.Forest{Tree: req.Tree, Surname: req.Surname, Branches: []*api.Node{}}

	candidates, err := Loader{Store: e.Store}.Load(ctx, req.Tree, req.Surname, req.SoundexStd, req.SoundexDM)
	if err != nil {
		return nil, stats, err
	}
	stats.candidates = len(candidates)
	log.Debug("loaded candidates", zap.Int("count", len(candidates)))
	if len(candidates) == 0 {
		return forest, stats, nil
	}

	ancestors, err := BuildAncestorMap(ctx, e.Store, req.Self)
	if err != nil {
		return nil, stats, fmt.Errorf("build ancestor map: %w", err)
	}
	stats.ancestors = ancestors.Len()
	log.Debug("indexed ancestors", zap.Int("count", ancestors.Len()))

	patriarchs, err := FindPatriarchs(ctx, e.Store, candidates)
	if err != nil {
		return nil, stats, fmt.Errorf("find patriarchs: %w", err)
	}
	stats.patriarchs = len(patriarchs)
	log.Debug("resolved patriarchs", zap.Int("count", len(patriarchs)))

	r := &Renderer{
		Store:   e.Store,
		Surname: req.Surname,
		Matcher: surname.Matcher{
			Std:        req.SoundexStd,
			DM:         req.SoundexDM,
			Normalizer: e.Normalizer,
		},
		Ancestors: ancestors,
		Linker:    e.Linker,
		MaxDepth:  e.MaxDepth,
	}
	r.OnTruncate = func(ind *genealogy.Individual) {
		log.Warn("branch truncated", zap.String("xref", ind.XRef))
		if e.Metrics != nil {
			e.Metrics.TruncatedTotal.Inc()
		}
	}

	branches, err := e.renderAll(ctx, r, patriarchs)
	if err != nil {
		return nil, stats, err
	}
	forest.Branches = branches
	return forest, stats, nil
}

// renderAll renders one branch per patriarch, keeping patriarch order.
func (e *Engine) renderAll(ctx context.Context, r *Renderer, patriarchs []*genealogy.Individual) ([]*api.Node, error) {
	out := make([]*api.Node, len(patriarchs))

	if e.Parallelism <= 1 {
		for i, p := range patriarchs {
			node, err := r.Render(ctx, p, nil)
			if err != nil {
				return nil, fmt.Errorf("render branch %s: %w", p.XRef, err)
			}
			out[i] = node
		}
		return out, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.Parallelism)
	for i, p := range patriarchs {
		g.Go(func() error {
			node, err := r.Render(gctx, p, nil)
			if err != nil {
				return fmt.Errorf("render branch %s: %w", p.XRef, err)
			}
			out[i] = node
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
