package rerank

import (
	"context"
	"log/slog"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
)

// Strategy decorates another strategy with language-model re-scoring. The
// model's scores replace the inner ones where it produced a grade; when the
// model is unavailable the inner result passes through untouched, so this
// strategy never fails harder than the one it wraps.
type Strategy struct {
	enabled bool
	weight  float64
	inner   ports.Strategy
	scorer  ports.CandidateScorer
	logger  *slog.Logger
}

var _ ports.Strategy = (*Strategy)(nil)

func New(inner ports.Strategy, scorer ports.CandidateScorer, enabled bool, weight float64, logger *slog.Logger) *Strategy {
	if logger == nil {
		logger = slog.Default()
	}
	return &Strategy{
		enabled: enabled,
		weight:  weight,
		inner:   inner,
		scorer:  scorer,
		logger:  logger,
	}
}

func (s *Strategy) Name() string    { return "rerank" }
func (s *Strategy) Enabled() bool   { return s.enabled }
func (s *Strategy) Weight() float64 { return s.weight }

func (s *Strategy) Search(ctx context.Context, req domain.SearchRequest) (*domain.StrategyResult, error) {
	inner, err := s.inner.Search(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(inner.Candidates) == 0 {
		return &domain.StrategyResult{StrategyName: s.Name(), Candidates: inner.Candidates}, nil
	}

	scores := make(map[string]float64, len(inner.Candidates))
	for key, score := range inner.Scores {
		scores[key] = score
	}

	graded, err := s.scorer.ScoreCandidates(ctx, req.QueryText(), inner.Candidates)
	if err != nil {
		s.logger.Warn("rerank_scoring_failed",
			"component_type", req.ComponentType,
			"candidates", len(inner.Candidates),
			"error", err,
		)
	} else {
		for key, score := range graded {
			scores[key] = score
		}
	}

	return &domain.StrategyResult{
		StrategyName: s.Name(),
		Candidates:   inner.Candidates,
		Scores:       scores,
	}, nil
}
