package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
	"github.com/beedev/recommender/internal/observability/metrics"
)

// Execution modes for strategy dispatch.
const (
	ExecutionModeParallel   = "parallel"
	ExecutionModeSequential = "sequential"
)

const failureReasonTimeout = "timeout"

type OrchestrationConfig struct {
	// ExecutionMode selects parallel fan-out or registration-order calls.
	ExecutionMode string

	// Timeout bounds the whole dispatch phase in parallel mode and each
	// individual call in sequential mode.
	Timeout time.Duration

	// FallbackOnError keeps the request alive when individual strategies
	// fail. When false, the first strategy error aborts the request.
	FallbackOnError bool

	// RequireAtLeastOneSuccess escalates "all strategies failed" from an
	// explained empty result to a propagated error.
	RequireAtLeastOneSuccess bool

	// DefaultLimit is applied when the request carries no limit.
	DefaultLimit int
}

func DefaultOrchestrationConfig() OrchestrationConfig {
	return OrchestrationConfig{
		ExecutionMode:   ExecutionModeParallel,
		Timeout:         10 * time.Second,
		FallbackOnError: true,
		DefaultLimit:    10,
	}
}

func (c OrchestrationConfig) normalize() OrchestrationConfig {
	out := c
	def := DefaultOrchestrationConfig()

	if out.ExecutionMode != ExecutionModeParallel && out.ExecutionMode != ExecutionModeSequential {
		out.ExecutionMode = def.ExecutionMode
	}
	if out.Timeout <= 0 {
		out.Timeout = def.Timeout
	}
	if out.DefaultLimit <= 0 {
		out.DefaultLimit = def.DefaultLimit
	}
	return out
}

// strategyOutcome is the tagged result of one dispatched strategy call.
// Failures travel as values across the goroutine boundary, never as panics or
// group errors, so one broken backend cannot sink the request.
type strategyOutcome struct {
	name     string
	result   *domain.StrategyResult
	err      error
	duration time.Duration
}

func (o strategyOutcome) failureReason() string {
	if errors.Is(o.err, context.DeadlineExceeded) {
		return failureReasonTimeout
	}
	return o.err.Error()
}

// Orchestrator coordinates strategy execution for one request under a shared
// time budget, isolates per-strategy failure, and hands the surviving results
// to the consolidator. It holds no state across requests.
type Orchestrator struct {
	registry     *StrategyRegistry
	consolidator *Consolidator
	cfg          OrchestrationConfig
	metrics      *metrics.SearchMetrics
	events       ports.EventPublisher
	logger       *slog.Logger
}

var _ ports.CandidateSearchService = (*Orchestrator)(nil)

// OrchestratorOption configures optional collaborators.
type OrchestratorOption func(*Orchestrator)

// WithSearchMetrics attaches a Prometheus collector for per-request and
// per-strategy telemetry.
func WithSearchMetrics(m *metrics.SearchMetrics) OrchestratorOption {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithEventPublisher attaches a best-effort analytics event sink. Publish
// failures are logged, never surfaced to the caller.
func WithEventPublisher(p ports.EventPublisher) OrchestratorOption {
	return func(o *Orchestrator) { o.events = p }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) OrchestratorOption {
	return func(o *Orchestrator) { o.logger = l }
}

func NewOrchestrator(
	registry *StrategyRegistry,
	consolidator *Consolidator,
	cfg OrchestrationConfig,
	opts ...OrchestratorOption,
) (*Orchestrator, error) {
	if registry == nil {
		return nil, fmt.Errorf("new orchestrator: registry is required")
	}
	if consolidator == nil {
		return nil, fmt.Errorf("new orchestrator: consolidator is required")
	}
	o := &Orchestrator{
		registry:     registry,
		consolidator: consolidator,
		cfg:          cfg.normalize(),
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o, nil
}

// Search executes the enabled strategies for one request, consolidates their
// results, and produces the final paginated response. Strategy failures are
// downgraded to entries in StrategiesFailed unless fail-fast mode is active.
func (o *Orchestrator) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Limit == 0 {
		req.Limit = o.cfg.DefaultLimit
	}
	start := time.Now()

	enabled := o.registry.Enabled()
	if len(enabled) == 0 {
		o.logger.Warn("no_strategies_enabled",
			"component_type", req.ComponentType,
			"error", domain.ErrNoStrategiesEnabled,
		)
		resp := &domain.SearchResponse{
			Candidates:             []domain.ConsolidatedCandidate{},
			StrategiesSucceeded:    []string{},
			StrategiesFailed:       []string{},
			ZeroResultsExplanation: explainNoStrategies(),
		}
		o.finish(ctx, req, resp, start)
		return resp, nil
	}

	var outcomes []strategyOutcome
	var err error
	if o.cfg.ExecutionMode == ExecutionModeSequential {
		outcomes, err = o.dispatchSequential(ctx, enabled, req)
	} else {
		outcomes, err = o.dispatchParallel(ctx, enabled, req)
	}
	if err != nil {
		// Fail-fast mode: the first strategy error aborts the request.
		o.observeRequest(req, "error", time.Since(start))
		return nil, err
	}

	succeeded := make([]string, 0, len(outcomes))
	failed := make([]string, 0)
	results := make([]domain.StrategyResult, 0, len(outcomes))
	for _, outcome := range outcomes {
		o.observeStrategy(outcome)
		if outcome.err != nil {
			o.logger.Warn("strategy_failed",
				"strategy", outcome.name,
				"component_type", req.ComponentType,
				"reason", outcome.failureReason(),
				"duration_ms", float64(outcome.duration.Microseconds())/1000.0,
			)
			failed = append(failed, outcome.name)
			continue
		}
		succeeded = append(succeeded, outcome.name)
		results = append(results, *outcome.result)
	}

	if len(succeeded) == 0 {
		if o.cfg.RequireAtLeastOneSuccess {
			o.observeRequest(req, "error", time.Since(start))
			return nil, domain.WrapError(domain.ErrAllStrategiesFailed, "search "+req.ComponentType,
				fmt.Errorf("%d strategies dispatched, none succeeded", len(enabled)))
		}
		resp := &domain.SearchResponse{
			Candidates:             []domain.ConsolidatedCandidate{},
			StrategiesSucceeded:    succeeded,
			StrategiesFailed:       failed,
			ZeroResultsExplanation: explainAllFailed(),
		}
		o.finish(ctx, req, resp, start)
		return resp, nil
	}

	consolidated := o.consolidator.Consolidate(results, req, o.registry.Weights())
	resp := &domain.SearchResponse{
		Candidates:          consolidated.Page,
		TotalCount:          consolidated.TotalCount,
		HasMore:             consolidated.HasMore,
		StrategiesSucceeded: succeeded,
		StrategiesFailed:    failed,
	}
	if len(resp.Candidates) == 0 {
		resp.ZeroResultsExplanation = explainEmptyPage(req, consolidated)
	}
	o.finish(ctx, req, resp, start)
	return resp, nil
}

// dispatchParallel starts one goroutine per enabled strategy under a shared
// deadline. Each goroutine writes only its own outcome slot; the join after
// Wait is the only synchronization point. A strategy still running when the
// deadline elapses is cancelled and recorded as failed, with any partial data
// discarded.
func (o *Orchestrator) dispatchParallel(ctx context.Context, strategies []ports.Strategy, req domain.SearchRequest) ([]strategyOutcome, error) {
	dispatchCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
	defer cancel()

	outcomes := make([]strategyOutcome, len(strategies))
	g, gctx := errgroup.WithContext(dispatchCtx)
	for i, strategy := range strategies {
		g.Go(func() error {
			callStart := time.Now()
			result, err := o.callStrategy(gctx, strategy, req)
			outcomes[i] = strategyOutcome{
				name:     strategy.Name(),
				result:   result,
				err:      err,
				duration: time.Since(callStart),
			}
			if err != nil && !o.cfg.FallbackOnError {
				return domain.WrapError(domain.ErrTemporary, "strategy "+strategy.Name(), err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// dispatchSequential runs strategies one at a time in registration order with
// the timeout applied per call. The cumulative budget is the caller's concern.
func (o *Orchestrator) dispatchSequential(ctx context.Context, strategies []ports.Strategy, req domain.SearchRequest) ([]strategyOutcome, error) {
	outcomes := make([]strategyOutcome, 0, len(strategies))
	for _, strategy := range strategies {
		callCtx, cancel := context.WithTimeout(ctx, o.cfg.Timeout)
		callStart := time.Now()
		result, err := o.callStrategy(callCtx, strategy, req)
		cancel()

		outcome := strategyOutcome{
			name:     strategy.Name(),
			result:   result,
			err:      err,
			duration: time.Since(callStart),
		}
		if err != nil && !o.cfg.FallbackOnError {
			return nil, domain.WrapError(domain.ErrTemporary, "strategy "+strategy.Name(), err)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes, nil
}

// callStrategy invokes one strategy, converting panics and nil results into
// ordinary failures so a misbehaving backend degrades instead of crashing the
// fan-out.
func (o *Orchestrator) callStrategy(ctx context.Context, strategy ports.Strategy, req domain.SearchRequest) (result *domain.StrategyResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("strategy panic: %v", r)
		}
	}()

	result, err = strategy.Search(ctx, req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, err
	}
	if result == nil {
		return nil, fmt.Errorf("strategy returned nil result")
	}
	if result.StrategyName == "" {
		result.StrategyName = strategy.Name()
	}
	return result, nil
}

func (o *Orchestrator) finish(ctx context.Context, req domain.SearchRequest, resp *domain.SearchResponse, start time.Time) {
	duration := time.Since(start)
	o.observeRequest(req, "ok", duration)
	if o.metrics != nil {
		o.metrics.ObserveResultCount(req.ComponentType, resp.TotalCount)
		if len(resp.Candidates) == 0 {
			o.metrics.IncZeroResults(req.ComponentType)
		}
	}
	o.logger.Info("search_completed",
		"component_type", req.ComponentType,
		"total_count", resp.TotalCount,
		"succeeded", len(resp.StrategiesSucceeded),
		"failed", len(resp.StrategiesFailed),
		"duration_ms", float64(duration.Microseconds())/1000.0,
	)

	if o.events == nil {
		return
	}
	event := domain.SearchEvent{
		ComponentType:       req.ComponentType,
		StrategiesSucceeded: resp.StrategiesSucceeded,
		StrategiesFailed:    resp.StrategiesFailed,
		TotalCount:          resp.TotalCount,
		Duration:            duration,
		ZeroResults:         len(resp.Candidates) == 0,
		Timestamp:           time.Now().UTC(),
	}
	if err := o.events.PublishSearchCompleted(ctx, event); err != nil {
		o.logger.Warn("search_event_publish_failed", "error", err)
	}
}

func (o *Orchestrator) observeRequest(req domain.SearchRequest, status string, duration time.Duration) {
	if o.metrics == nil {
		return
	}
	o.metrics.ObserveSearch(req.ComponentType, status, duration)
}

func (o *Orchestrator) observeStrategy(outcome strategyOutcome) {
	if o.metrics == nil {
		return
	}
	status := "ok"
	if outcome.err != nil {
		status = "error"
		if errors.Is(outcome.err, context.DeadlineExceeded) {
			status = failureReasonTimeout
		}
	}
	o.metrics.ObserveStrategy(outcome.name, status, outcome.duration)
}
