package ports

import (
	"context"

	"github.com/beedev/recommender/internal/core/domain"
)

// CandidateSearchService is the inbound contract for orchestrated candidate
// search. This is the surface the configuration workflow, HTTP adapter, and
// MCP adapter all call.
type CandidateSearchService interface {
	Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error)
}

// CatalogIngestor is the inbound contract for asynchronous catalog indexing.
type CatalogIngestor interface {
	IngestWorkbook(ctx context.Context, path string) error
}
