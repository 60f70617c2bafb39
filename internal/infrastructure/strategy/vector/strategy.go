package vector

import (
	"context"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
)

const defaultFetchLimit = 50

// Strategy embeds the query text and searches the vector index for similar
// products of the requested component type.
type Strategy struct {
	enabled    bool
	weight     float64
	embedder   ports.Embedder
	index      ports.VectorIndex
	fetchLimit int
}

var _ ports.Strategy = (*Strategy)(nil)

func New(embedder ports.Embedder, index ports.VectorIndex, enabled bool, weight float64) *Strategy {
	return &Strategy{
		enabled:    enabled,
		weight:     weight,
		embedder:   embedder,
		index:      index,
		fetchLimit: defaultFetchLimit,
	}
}

func (s *Strategy) Name() string    { return "vector" }
func (s *Strategy) Enabled() bool   { return s.enabled }
func (s *Strategy) Weight() float64 { return s.weight }

func (s *Strategy) Search(ctx context.Context, req domain.SearchRequest) (*domain.StrategyResult, error) {
	query := req.QueryText()
	if query == "" {
		return &domain.StrategyResult{StrategyName: s.Name(), Candidates: []domain.Candidate{}}, nil
	}

	queryVector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	limit := s.fetchLimit
	if need := req.Offset + req.Limit; need > limit {
		limit = need
	}

	candidates, scores, err := s.index.Search(ctx, queryVector, req.ComponentType, limit)
	if err != nil {
		return nil, err
	}
	return &domain.StrategyResult{
		StrategyName: s.Name(),
		Candidates:   candidates,
		Scores:       scores,
	}, nil
}
