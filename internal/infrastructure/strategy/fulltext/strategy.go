package fulltext

import (
	"context"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
)

const defaultFetchLimit = 50

// Searcher is the slice of the catalog repository this strategy needs.
type Searcher interface {
	SearchRanked(ctx context.Context, componentType, query string, limit int) ([]domain.Candidate, map[string]float64, error)
}

// Strategy ranks candidates with Postgres full-text search. The repository
// normalizes ts_rank through rank/(rank+1), so the scores it hands the
// consolidator already sit in [0,1).
type Strategy struct {
	enabled    bool
	weight     float64
	searcher   Searcher
	fetchLimit int
}

var _ ports.Strategy = (*Strategy)(nil)

func New(searcher Searcher, enabled bool, weight float64) *Strategy {
	return &Strategy{
		enabled:    enabled,
		weight:     weight,
		searcher:   searcher,
		fetchLimit: defaultFetchLimit,
	}
}

func (s *Strategy) Name() string    { return "fulltext" }
func (s *Strategy) Enabled() bool   { return s.enabled }
func (s *Strategy) Weight() float64 { return s.weight }

func (s *Strategy) Search(ctx context.Context, req domain.SearchRequest) (*domain.StrategyResult, error) {
	query := req.QueryText()
	if query == "" {
		// Nothing to match against; an empty result is correct, not a failure.
		return &domain.StrategyResult{StrategyName: s.Name(), Candidates: []domain.Candidate{}}, nil
	}

	limit := s.fetchLimit
	if need := req.Offset + req.Limit; need > limit {
		limit = need
	}

	candidates, scores, err := s.searcher.SearchRanked(ctx, req.ComponentType, query, limit)
	if err != nil {
		return nil, err
	}
	return &domain.StrategyResult{
		StrategyName: s.Name(),
		Candidates:   candidates,
		Scores:       scores,
	}, nil
}
