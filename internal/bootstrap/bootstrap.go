package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/beedev/recommender/internal/config"
	"github.com/beedev/recommender/internal/core/ports"
	"github.com/beedev/recommender/internal/core/usecase"
	"github.com/beedev/recommender/internal/infrastructure/catalog/datasheet"
	"github.com/beedev/recommender/internal/infrastructure/catalog/excel"
	neo4jgraph "github.com/beedev/recommender/internal/infrastructure/graph/neo4j"
	"github.com/beedev/recommender/internal/infrastructure/llm/ollama"
	"github.com/beedev/recommender/internal/infrastructure/queue/nats"
	"github.com/beedev/recommender/internal/infrastructure/repository/postgres"
	"github.com/beedev/recommender/internal/infrastructure/resilience"
	"github.com/beedev/recommender/internal/infrastructure/strategy/fulltext"
	"github.com/beedev/recommender/internal/infrastructure/strategy/graph"
	"github.com/beedev/recommender/internal/infrastructure/strategy/rerank"
	"github.com/beedev/recommender/internal/infrastructure/strategy/vector"
	"github.com/beedev/recommender/internal/infrastructure/vector/qdrant"
	"github.com/beedev/recommender/internal/observability/metrics"
)

// App wires the retrieval engine and its backends for one process. The api
// and indexer binaries share this construction and use different slices of it.
type App struct {
	Config config.Config
	Engine config.EngineConfig

	SearchService ports.CandidateSearchService
	Catalog       *postgres.CatalogRepository
	Ingestor      ports.CatalogIngestor
	Queue         *nats.Queue

	SearchMetrics  *metrics.SearchMetrics
	HTTPMetrics    *metrics.HTTPServerMetrics
	IndexerMetrics *metrics.IndexerMetrics

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, service string, logger *slog.Logger) (*App, error) {
	engine, err := config.LoadEngine(cfg.EngineFile)
	if err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	catalog := postgres.NewCatalogRepository(db)
	if err := catalog.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSearchSubject, cfg.NATSReindexSubject, nats.Options{
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaRerankModel, cfg.OllamaEmbedModel)
	embedder := ollama.NewEmbedder(ollamaClient, executor)
	scorer := ollama.NewScorer(ollamaClient, executor)

	vectorIndex := qdrant.New(cfg.QdrantURL, cfg.QdrantCollection)

	compatGraph, err := neo4jgraph.NewStore(cfg.Neo4jURI, cfg.Neo4jUser, cfg.Neo4jPassword)
	if err != nil {
		return nil, fmt.Errorf("init compatibility graph: %w", err)
	}

	registry, err := buildStrategies(engine, compatGraph, catalog, embedder, vectorIndex, scorer, logger)
	if err != nil {
		return nil, err
	}

	promRegistry := prometheus.NewRegistry()
	searchMetrics := metrics.NewSearchMetrics(service, promRegistry)
	httpMetrics := metrics.NewHTTPServerMetrics(service, promRegistry)

	consolidator := usecase.NewConsolidator(engine.ConsolidationConfig())
	orchestrator, err := usecase.NewOrchestrator(
		registry,
		consolidator,
		engine.OrchestrationConfig(),
		usecase.WithSearchMetrics(searchMetrics),
		usecase.WithEventPublisher(queue),
		usecase.WithLogger(logger),
	)
	if err != nil {
		return nil, fmt.Errorf("build orchestrator: %w", err)
	}

	indexerMetrics := metrics.NewIndexerMetrics(service)
	ingestor := usecase.NewIngestCatalogUseCase(
		excel.NewLoader(),
		catalog,
		embedder,
		vectorIndex,
		compatGraph,
		usecase.WithDatasheets(datasheet.NewExtractor(), cfg.DatasheetDir),
		usecase.WithIngestBatchSize(cfg.IndexerBatchSize),
		usecase.WithIndexerMetrics(indexerMetrics),
		usecase.WithIngestLogger(logger),
	)

	return &App{
		Config: cfg,
		Engine: engine,

		SearchService: orchestrator,
		Catalog:       catalog,
		Ingestor:      ingestor,
		Queue:         queue,

		SearchMetrics:  searchMetrics,
		HTTPMetrics:    httpMetrics,
		IndexerMetrics: indexerMetrics,

		closeFn: func() {
			queue.Close()
			_ = compatGraph.Close(context.Background())
			_ = db.Close()
		},
	}, nil
}

func buildStrategies(
	engine config.EngineConfig,
	compatGraph ports.CompatibilityGraph,
	catalog *postgres.CatalogRepository,
	embedder ports.Embedder,
	vectorIndex ports.VectorIndex,
	scorer ports.CandidateScorer,
	logger *slog.Logger,
) (*usecase.StrategyRegistry, error) {
	factories := map[string]usecase.StrategyFactory{
		"graph": func(enabled bool, weight float64) (ports.Strategy, error) {
			return graph.New(compatGraph, catalog, enabled, weight), nil
		},
		"fulltext": func(enabled bool, weight float64) (ports.Strategy, error) {
			return fulltext.New(catalog, enabled, weight), nil
		},
		"vector": func(enabled bool, weight float64) (ports.Strategy, error) {
			return vector.New(embedder, vectorIndex, enabled, weight), nil
		},
		"rerank": func(enabled bool, weight float64) (ports.Strategy, error) {
			inner := vector.New(embedder, vectorIndex, true, weight)
			return rerank.New(inner, scorer, enabled, weight, logger), nil
		},
	}
	registry, err := usecase.BuildRegistry(engine.Strategies, factories)
	if err != nil {
		return nil, fmt.Errorf("build strategies: %w", err)
	}
	return registry, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
