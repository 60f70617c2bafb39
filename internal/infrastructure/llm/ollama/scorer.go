package ollama

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
	"github.com/beedev/recommender/internal/infrastructure/resilience"
)

// Scorer asks the generate endpoint to grade candidates against the query
// text. Scores come back as a JSON object keyed by product key; keys the
// model invents are dropped, values are clamped to [0,1].
type Scorer struct {
	client   *Client
	executor *resilience.Executor
}

var _ ports.CandidateScorer = (*Scorer)(nil)

func NewScorer(client *Client, executor *resilience.Executor) *Scorer {
	return &Scorer{client: client, executor: executor}
}

func (s *Scorer) ScoreCandidates(ctx context.Context, query string, candidates []domain.Candidate) (map[string]float64, error) {
	if len(candidates) == 0 {
		return map[string]float64{}, nil
	}

	var raw string
	err := s.execute(ctx, "ollama_score", func(callCtx context.Context) error {
		var callErr error
		raw, callErr = s.client.generateJSON(callCtx, buildScoringPrompt(query, candidates))
		return callErr
	})
	if err != nil {
		return nil, err
	}

	var parsed map[string]float64
	if err := json.Unmarshal([]byte(extractJSONObject(raw)), &parsed); err != nil {
		return nil, fmt.Errorf("parse scoring json: %w", err)
	}

	known := make(map[string]bool, len(candidates))
	for _, cand := range candidates {
		known[cand.Key] = true
	}
	scores := make(map[string]float64, len(parsed))
	for key, score := range parsed {
		if !known[key] {
			continue
		}
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		scores[key] = score
	}
	return scores, nil
}

func (s *Scorer) execute(ctx context.Context, operation string, fn func(context.Context) error) error {
	if s.executor == nil {
		return wrapTemporaryIfNeeded(operation, fn(ctx))
	}
	err := s.executor.Execute(ctx, operation, fn, classifyOllamaError)
	return wrapTemporaryIfNeeded(operation, err)
}
