package graph

import (
	"context"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
)

const defaultFetchLimit = 50

// Lister is the slice of the catalog repository this strategy needs for
// searches that carry no prior selections.
type Lister interface {
	ListByComponentType(ctx context.Context, componentType string, limit int) ([]domain.Product, error)
}

// Strategy retrieves candidates from the compatibility graph. It cannot rank
// them, so Scores stays empty and the consolidator applies its default.
// Without a compatibility context there is no relation to traverse, so the
// first component of a configuration is listed straight from the catalog.
type Strategy struct {
	enabled    bool
	weight     float64
	graph      ports.CompatibilityGraph
	catalog    Lister
	fetchLimit int
}

var _ ports.Strategy = (*Strategy)(nil)

func New(graph ports.CompatibilityGraph, catalog Lister, enabled bool, weight float64) *Strategy {
	return &Strategy{
		enabled:    enabled,
		weight:     weight,
		graph:      graph,
		catalog:    catalog,
		fetchLimit: defaultFetchLimit,
	}
}

func (s *Strategy) Name() string    { return "graph" }
func (s *Strategy) Enabled() bool   { return s.enabled }
func (s *Strategy) Weight() float64 { return s.weight }

func (s *Strategy) Search(ctx context.Context, req domain.SearchRequest) (*domain.StrategyResult, error) {
	limit := s.fetchLimit
	if need := req.Offset + req.Limit; need > limit {
		limit = need
	}

	if len(req.CompatibilityContext) == 0 {
		return s.listAll(ctx, req.ComponentType, limit)
	}

	candidates, err := s.graph.FindCompatible(ctx, req.ComponentType, req.CompatibilityContext, limit)
	if err != nil {
		return nil, err
	}
	return &domain.StrategyResult{
		StrategyName: s.Name(),
		Candidates:   candidates,
	}, nil
}

func (s *Strategy) listAll(ctx context.Context, componentType string, limit int) (*domain.StrategyResult, error) {
	products, err := s.catalog.ListByComponentType(ctx, componentType, limit)
	if err != nil {
		return nil, err
	}
	candidates := make([]domain.Candidate, 0, len(products))
	for _, product := range products {
		candidates = append(candidates, product.ToCandidate())
	}
	return &domain.StrategyResult{
		StrategyName: s.Name(),
		Candidates:   candidates,
	}, nil
}
