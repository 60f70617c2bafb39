package ports

import (
	"context"

	"github.com/beedev/recommender/internal/core/domain"
)

// Strategy is one pluggable retrieval backend. Implementations must return an
// empty candidate list for "no results" and reserve the error return for
// backend unavailability; that is the only condition the orchestrator treats
// as a strategy failure. Instances hold no shared mutable state and are safe
// to call concurrently with other strategies.
type Strategy interface {
	// Name identifies the strategy in results, logs, and metrics.
	Name() string

	// Enabled reports whether this strategy participates in dispatch.
	Enabled() bool

	// Weight is the relative trust of this strategy's scores (default 1.0).
	Weight() float64

	// Search retrieves candidates for the request. Strategies that cannot
	// self-score omit keys from StrategyResult.Scores rather than inventing
	// values; the consolidator applies the configured default.
	Search(ctx context.Context, req domain.SearchRequest) (*domain.StrategyResult, error)
}

// CatalogRepository persists and reads the product catalog.
type CatalogRepository interface {
	UpsertProducts(ctx context.Context, products []domain.Product) error
	GetByKey(ctx context.Context, key string) (*domain.Product, error)
	ListByComponentType(ctx context.Context, componentType string, limit int) ([]domain.Product, error)
}

// Embedder builds vectors for product text and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// VectorIndex stores product vectors and performs similarity search.
type VectorIndex interface {
	IndexProducts(ctx context.Context, products []domain.Product, vectors [][]float32) error
	Search(ctx context.Context, queryVector []float32, componentType string, limit int) ([]domain.Candidate, map[string]float64, error)
}

// CompatibilityGraph stores product nodes and compatibility relations and
// answers "what is compatible with these selections" queries.
type CompatibilityGraph interface {
	UpsertProducts(ctx context.Context, products []domain.Product) error
	FindCompatible(ctx context.Context, componentType string, selections map[string]string, limit int) ([]domain.Candidate, error)
}

// CandidateScorer asks a language model to score a candidate set against the
// query text. Scores are normalized to [0,1], keyed by candidate key.
type CandidateScorer interface {
	ScoreCandidates(ctx context.Context, query string, candidates []domain.Candidate) (map[string]float64, error)
}

// EventPublisher emits search telemetry events for downstream analytics.
type EventPublisher interface {
	PublishSearchCompleted(ctx context.Context, event domain.SearchEvent) error
}

// ReindexQueue delivers catalog-reindex requests to the indexer worker.
type ReindexQueue interface {
	PublishReindexRequested(ctx context.Context, workbookPath string) error
	SubscribeReindexRequested(ctx context.Context, handler func(context.Context, string) error) error
}

// DatasheetExtractor pulls plain text out of a product datasheet document.
type DatasheetExtractor interface {
	Extract(ctx context.Context, path string) (string, error)
}

// WorkbookLoader reads a catalog workbook into products.
type WorkbookLoader interface {
	Load(path string) ([]domain.Product, error)
}
