package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
	"github.com/beedev/recommender/internal/observability/metrics"
)

const defaultIngestBatchSize = 200

// IngestCatalogUseCase loads a catalog workbook and projects it into every
// retrieval backend: Postgres is the source of truth, the vector index and
// the compatibility graph are rebuilt from it. Datasheet text, when a PDF is
// found for the product key, is folded into the embedded text only; the
// stored description stays as authored.
type IngestCatalogUseCase struct {
	loader       ports.WorkbookLoader
	repo         ports.CatalogRepository
	embedder     ports.Embedder
	vectorIndex  ports.VectorIndex
	graph        ports.CompatibilityGraph
	datasheets   ports.DatasheetExtractor
	datasheetDir string
	batchSize    int
	metrics      *metrics.IndexerMetrics
	logger       *slog.Logger
}

var _ ports.CatalogIngestor = (*IngestCatalogUseCase)(nil)

type IngestOption func(*IngestCatalogUseCase)

// WithDatasheets enables datasheet enrichment from PDFs in dir, matched by
// product key.
func WithDatasheets(extractor ports.DatasheetExtractor, dir string) IngestOption {
	return func(uc *IngestCatalogUseCase) {
		uc.datasheets = extractor
		uc.datasheetDir = dir
	}
}

func WithIngestBatchSize(size int) IngestOption {
	return func(uc *IngestCatalogUseCase) {
		if size > 0 {
			uc.batchSize = size
		}
	}
}

func WithIndexerMetrics(m *metrics.IndexerMetrics) IngestOption {
	return func(uc *IngestCatalogUseCase) { uc.metrics = m }
}

func WithIngestLogger(l *slog.Logger) IngestOption {
	return func(uc *IngestCatalogUseCase) { uc.logger = l }
}

func NewIngestCatalogUseCase(
	loader ports.WorkbookLoader,
	repo ports.CatalogRepository,
	embedder ports.Embedder,
	vectorIndex ports.VectorIndex,
	graph ports.CompatibilityGraph,
	opts ...IngestOption,
) *IngestCatalogUseCase {
	uc := &IngestCatalogUseCase{
		loader:      loader,
		repo:        repo,
		embedder:    embedder,
		vectorIndex: vectorIndex,
		graph:       graph,
		batchSize:   defaultIngestBatchSize,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(uc)
	}
	return uc
}

func (uc *IngestCatalogUseCase) IngestWorkbook(ctx context.Context, path string) (err error) {
	start := time.Now()
	if uc.metrics != nil {
		uc.metrics.StartIngest()
		defer func() {
			uc.metrics.FinishIngest(time.Since(start), err)
		}()
	}

	products, err := uc.loader.Load(path)
	if err != nil {
		return fmt.Errorf("load workbook: %w", err)
	}
	uc.logger.Info("catalog_loaded", "workbook", path, "products", len(products))

	for offset := 0; offset < len(products); offset += uc.batchSize {
		end := offset + uc.batchSize
		if end > len(products) {
			end = len(products)
		}
		if err := uc.ingestBatch(ctx, products[offset:end]); err != nil {
			return fmt.Errorf("ingest batch at %d: %w", offset, err)
		}
	}

	uc.logger.Info("catalog_ingested",
		"workbook", path,
		"products", len(products),
		"duration_ms", float64(time.Since(start).Microseconds())/1000.0,
	)
	return nil
}

func (uc *IngestCatalogUseCase) ingestBatch(ctx context.Context, products []domain.Product) error {
	if err := uc.repo.UpsertProducts(ctx, products); err != nil {
		return fmt.Errorf("upsert catalog: %w", err)
	}
	uc.addIndexed("postgres", len(products))

	texts := make([]string, len(products))
	for i, product := range products {
		texts[i] = uc.embeddingText(ctx, product)
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed products: %w", err)
	}
	if err := uc.vectorIndex.IndexProducts(ctx, products, vectors); err != nil {
		return fmt.Errorf("index vectors: %w", err)
	}
	uc.addIndexed("qdrant", len(products))

	if err := uc.graph.UpsertProducts(ctx, products); err != nil {
		return fmt.Errorf("upsert graph: %w", err)
	}
	uc.addIndexed("neo4j", len(products))
	return nil
}

func (uc *IngestCatalogUseCase) embeddingText(ctx context.Context, product domain.Product) string {
	var b strings.Builder
	b.WriteString(product.Name)
	if product.Category != "" {
		b.WriteString(" ")
		b.WriteString(product.Category)
	}
	if product.Description != "" {
		b.WriteString(" ")
		b.WriteString(product.Description)
	}
	keys := make([]string, 0, len(product.Attributes))
	for key := range product.Attributes {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		b.WriteString(" ")
		b.WriteString(key)
		b.WriteString(" ")
		b.WriteString(product.Attributes[key])
	}

	if uc.datasheets == nil || uc.datasheetDir == "" {
		return b.String()
	}
	sheetPath := filepath.Join(uc.datasheetDir, product.Key+".pdf")
	if _, statErr := os.Stat(sheetPath); statErr != nil {
		return b.String()
	}
	text, err := uc.datasheets.Extract(ctx, sheetPath)
	if err != nil {
		// Enrichment is best effort; the authored description still embeds.
		uc.logger.Warn("datasheet_extract_failed", "product", product.Key, "error", err)
		return b.String()
	}
	b.WriteString(" ")
	b.WriteString(text)
	return b.String()
}

func (uc *IngestCatalogUseCase) addIndexed(backend string, count int) {
	if uc.metrics != nil {
		uc.metrics.AddIndexedProducts(backend, count)
	}
}
