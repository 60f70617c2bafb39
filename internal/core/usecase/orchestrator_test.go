package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/beedev/recommender/internal/core/domain"
)

type fakeStrategy struct {
	name    string
	enabled bool
	weight  float64
	delay   time.Duration
	result  *domain.StrategyResult
	err     error
	panics  bool
}

func (f *fakeStrategy) Name() string    { return f.name }
func (f *fakeStrategy) Enabled() bool   { return f.enabled }
func (f *fakeStrategy) Weight() float64 { return f.weight }

func (f *fakeStrategy) Search(ctx context.Context, _ domain.SearchRequest) (*domain.StrategyResult, error) {
	if f.panics {
		panic("backend exploded")
	}
	if f.delay > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(f.delay):
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func okStrategy(name string, keys ...string) *fakeStrategy {
	result := &domain.StrategyResult{StrategyName: name, Scores: map[string]float64{}}
	for i, key := range keys {
		result.Candidates = append(result.Candidates, domain.Candidate{Key: key, Name: key})
		result.Scores[key] = 0.9 - float64(i)*0.05
	}
	return &fakeStrategy{name: name, enabled: true, weight: 1.0, result: result}
}

func newOrchestrator(t *testing.T, cfg OrchestrationConfig, strategies ...*fakeStrategy) *Orchestrator {
	t.Helper()
	registry := NewStrategyRegistry()
	for _, s := range strategies {
		if err := registry.Register(s); err != nil {
			t.Fatalf("register %s: %v", s.name, err)
		}
	}
	orchestrator, err := NewOrchestrator(registry, NewConsolidator(DefaultConsolidationConfig()), cfg)
	if err != nil {
		t.Fatalf("new orchestrator: %v", err)
	}
	return orchestrator
}

func searchReq() domain.SearchRequest {
	return domain.SearchRequest{ComponentType: "power_source", Limit: 10}
}

func TestSearchMergesResultsAcrossStrategies(t *testing.T) {
	for _, mode := range []string{ExecutionModeParallel, ExecutionModeSequential} {
		cfg := DefaultOrchestrationConfig()
		cfg.ExecutionMode = mode
		orchestrator := newOrchestrator(t, cfg,
			okStrategy("graph", "p1", "p2"),
			okStrategy("vector", "p2", "p3"),
		)

		resp, err := orchestrator.Search(context.Background(), searchReq())
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", mode, err)
		}
		if len(resp.StrategiesSucceeded) != 2 || len(resp.StrategiesFailed) != 0 {
			t.Fatalf("%s: succeeded=%v failed=%v", mode, resp.StrategiesSucceeded, resp.StrategiesFailed)
		}
		if resp.TotalCount == 0 {
			t.Fatalf("%s: expected merged candidates", mode)
		}
		seen := map[string]bool{}
		for _, cand := range resp.Candidates {
			if seen[cand.Key] {
				t.Fatalf("%s: duplicate key %s in page", mode, cand.Key)
			}
			seen[cand.Key] = true
		}
	}
}

func TestSearchIsolatesFailedStrategy(t *testing.T) {
	orchestrator := newOrchestrator(t, DefaultOrchestrationConfig(),
		okStrategy("graph", "p1"),
		&fakeStrategy{name: "fulltext", enabled: true, weight: 1.0, err: errors.New("index offline")},
	)

	resp, err := orchestrator.Search(context.Background(), searchReq())
	if err != nil {
		t.Fatalf("failed strategy must not abort the request: %v", err)
	}
	if len(resp.StrategiesFailed) != 1 || resp.StrategiesFailed[0] != "fulltext" {
		t.Fatalf("strategiesFailed = %v", resp.StrategiesFailed)
	}
	if len(resp.Candidates) == 0 {
		t.Fatalf("surviving strategy results must be returned")
	}
}

func TestSearchAllStrategiesFailReturnsExplainedEmptyResponse(t *testing.T) {
	orchestrator := newOrchestrator(t, DefaultOrchestrationConfig(),
		&fakeStrategy{name: "a", enabled: true, weight: 1, err: errors.New("down")},
		&fakeStrategy{name: "b", enabled: true, weight: 1, err: errors.New("also down")},
	)

	resp, err := orchestrator.Search(context.Background(), searchReq())
	if err != nil {
		t.Fatalf("expected explained empty response, got error %v", err)
	}
	if len(resp.Candidates) != 0 || resp.TotalCount != 0 {
		t.Fatalf("expected empty response, got %+v", resp)
	}
	if resp.ZeroResultsExplanation == "" {
		t.Fatalf("expected a zero-results explanation")
	}
	if len(resp.StrategiesFailed) != 2 {
		t.Fatalf("strategiesFailed = %v", resp.StrategiesFailed)
	}
}

func TestSearchRequireAtLeastOneSuccessEscalates(t *testing.T) {
	cfg := DefaultOrchestrationConfig()
	cfg.RequireAtLeastOneSuccess = true
	orchestrator := newOrchestrator(t, cfg,
		&fakeStrategy{name: "a", enabled: true, weight: 1, err: errors.New("down")},
	)

	_, err := orchestrator.Search(context.Background(), searchReq())
	if !domain.IsKind(err, domain.ErrAllStrategiesFailed) {
		t.Fatalf("expected ErrAllStrategiesFailed, got %v", err)
	}
}

func TestSearchFailFastPropagatesFirstError(t *testing.T) {
	for _, mode := range []string{ExecutionModeParallel, ExecutionModeSequential} {
		cfg := DefaultOrchestrationConfig()
		cfg.ExecutionMode = mode
		cfg.FallbackOnError = false
		orchestrator := newOrchestrator(t, cfg,
			&fakeStrategy{name: "broken", enabled: true, weight: 1, err: errors.New("backend down")},
			okStrategy("healthy", "p1"),
		)

		_, err := orchestrator.Search(context.Background(), searchReq())
		if err == nil {
			t.Fatalf("%s: fail-fast mode must propagate the strategy error", mode)
		}
	}
}

func TestSearchParallelTimeoutDowngradesSlowStrategy(t *testing.T) {
	cfg := DefaultOrchestrationConfig()
	cfg.Timeout = 30 * time.Millisecond
	orchestrator := newOrchestrator(t, cfg,
		okStrategy("fast", "p1"),
		&fakeStrategy{
			name: "slow", enabled: true, weight: 1, delay: time.Second,
			result: &domain.StrategyResult{StrategyName: "slow"},
		},
	)

	resp, err := orchestrator.Search(context.Background(), searchReq())
	if err != nil {
		t.Fatalf("timeout must not abort the request: %v", err)
	}
	if len(resp.StrategiesFailed) != 1 || resp.StrategiesFailed[0] != "slow" {
		t.Fatalf("strategiesFailed = %v", resp.StrategiesFailed)
	}
	if len(resp.StrategiesSucceeded) != 1 || resp.StrategiesSucceeded[0] != "fast" {
		t.Fatalf("strategiesSucceeded = %v", resp.StrategiesSucceeded)
	}
}

func TestSearchRecoversStrategyPanic(t *testing.T) {
	orchestrator := newOrchestrator(t, DefaultOrchestrationConfig(),
		&fakeStrategy{name: "panicky", enabled: true, weight: 1, panics: true},
		okStrategy("stable", "p1"),
	)

	resp, err := orchestrator.Search(context.Background(), searchReq())
	if err != nil {
		t.Fatalf("panic must degrade to a failed strategy: %v", err)
	}
	if len(resp.StrategiesFailed) != 1 || resp.StrategiesFailed[0] != "panicky" {
		t.Fatalf("strategiesFailed = %v", resp.StrategiesFailed)
	}
}

func TestSearchSkipsDisabledStrategies(t *testing.T) {
	disabled := okStrategy("disabled", "px")
	disabled.enabled = false
	orchestrator := newOrchestrator(t, DefaultOrchestrationConfig(),
		disabled,
		okStrategy("active", "p1"),
	)

	resp, err := orchestrator.Search(context.Background(), searchReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, cand := range resp.Candidates {
		if cand.Key == "px" {
			t.Fatalf("disabled strategy leaked results")
		}
	}
	if len(resp.StrategiesSucceeded) != 1 {
		t.Fatalf("strategiesSucceeded = %v", resp.StrategiesSucceeded)
	}
}

func TestSearchNoStrategiesEnabledExplains(t *testing.T) {
	disabled := okStrategy("only", "p1")
	disabled.enabled = false
	orchestrator := newOrchestrator(t, DefaultOrchestrationConfig(), disabled)

	resp, err := orchestrator.Search(context.Background(), searchReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resp.ZeroResultsExplanation, "enabled") {
		t.Fatalf("explanation = %q", resp.ZeroResultsExplanation)
	}
}

func TestSearchZeroFoundExplanationDependsOnCompatibilityContext(t *testing.T) {
	empty := &fakeStrategy{
		name: "graph", enabled: true, weight: 1,
		result: &domain.StrategyResult{StrategyName: "graph", Candidates: []domain.Candidate{}},
	}
	orchestrator := newOrchestrator(t, DefaultOrchestrationConfig(), empty)

	// Upstream selections exist: the empty result reads as a compatibility miss.
	req := searchReq()
	req.CompatibilityContext = map[string]string{"power_source": "aristo-500ix"}
	resp, err := orchestrator.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(resp.ZeroResultsExplanation, "compatible") {
		t.Fatalf("expected compatibility explanation, got %q", resp.ZeroResultsExplanation)
	}

	// First component in the flow: no compatibility framing.
	resp, err = orchestrator.Search(context.Background(), searchReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.ZeroResultsExplanation == "" || strings.Contains(resp.ZeroResultsExplanation, "compatible") {
		t.Fatalf("expected plain no-matches explanation, got %q", resp.ZeroResultsExplanation)
	}
}

func TestSearchOffsetPastEndExplains(t *testing.T) {
	orchestrator := newOrchestrator(t, DefaultOrchestrationConfig(), okStrategy("s", "p1", "p2"))

	req := searchReq()
	req.Offset = 50
	resp, err := orchestrator.Search(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.TotalCount == 0 {
		t.Fatalf("candidates should exist before pagination")
	}
	if !strings.Contains(resp.ZeroResultsExplanation, "page") {
		t.Fatalf("explanation = %q", resp.ZeroResultsExplanation)
	}
}

func TestSearchValidatesRequest(t *testing.T) {
	orchestrator := newOrchestrator(t, DefaultOrchestrationConfig(), okStrategy("s", "p1"))

	_, err := orchestrator.Search(context.Background(), domain.SearchRequest{})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	_, err = orchestrator.Search(context.Background(), domain.SearchRequest{ComponentType: "ct", Limit: -1})
	if !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for negative limit, got %v", err)
	}
}

func TestSearchSequentialRunsInRegistrationOrder(t *testing.T) {
	cfg := DefaultOrchestrationConfig()
	cfg.ExecutionMode = ExecutionModeSequential
	orchestrator := newOrchestrator(t, cfg,
		okStrategy("first", "first-key"),
		okStrategy("second", "second-key"),
	)

	resp, err := orchestrator.Search(context.Background(), searchReq())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	order := resp.StrategiesSucceeded
	if len(order) != 2 || order[0] != "first" || order[1] != "second" {
		t.Fatalf("succeeded order = %v", order)
	}
}
