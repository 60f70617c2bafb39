package httpadapter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/beedev/recommender/internal/core/domain"
)

type stubSearchService struct {
	gotRequest domain.SearchRequest
	response   *domain.SearchResponse
	err        error
}

func (s *stubSearchService) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	s.gotRequest = req
	return s.response, s.err
}

type stubCatalog struct {
	product *domain.Product
	err     error
}

func (s *stubCatalog) UpsertProducts(context.Context, []domain.Product) error { return nil }
func (s *stubCatalog) GetByKey(context.Context, string) (*domain.Product, error) {
	return s.product, s.err
}
func (s *stubCatalog) ListByComponentType(context.Context, string, int) ([]domain.Product, error) {
	return nil, nil
}

type stubReindexQueue struct {
	published []string
	err       error
}

func (s *stubReindexQueue) PublishReindexRequested(_ context.Context, workbook string) error {
	s.published = append(s.published, workbook)
	return s.err
}
func (s *stubReindexQueue) SubscribeReindexRequested(context.Context, func(context.Context, string) error) error {
	return nil
}

func newTestHandler(search *stubSearchService, catalog *stubCatalog, queue *stubReindexQueue, cfg RouterConfig) http.Handler {
	if search == nil {
		search = &stubSearchService{response: &domain.SearchResponse{
			Candidates:          []domain.ConsolidatedCandidate{},
			StrategiesSucceeded: []string{},
			StrategiesFailed:    []string{},
		}}
	}
	if catalog == nil {
		catalog = &stubCatalog{}
	}
	return NewRouter(search, catalog, queue, cfg).Handler()
}

func TestSearchEndpointReturnsConsolidatedResponse(t *testing.T) {
	search := &stubSearchService{response: &domain.SearchResponse{
		Candidates: []domain.ConsolidatedCandidate{{
			Candidate:         domain.Candidate{Key: "aristo-500ix", Name: "Aristo 500ix CE"},
			ConsolidatedScore: 0.84,
			FoundBy:           []string{"graph", "vector"},
		}},
		TotalCount:          1,
		StrategiesSucceeded: []string{"graph", "vector"},
		StrategiesFailed:    []string{},
	}}
	handler := newTestHandler(search, nil, nil, RouterConfig{})

	body := `{"component_type":"power_source","query":"500A pulse","limit":10}`
	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", res.Code, res.Body.String())
	}
	if search.gotRequest.ComponentType != "power_source" || search.gotRequest.RawQueryText != "500A pulse" {
		t.Fatalf("decoded request = %+v", search.gotRequest)
	}

	var resp domain.SearchResponse
	if err := json.Unmarshal(res.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Candidates) != 1 || resp.Candidates[0].Key != "aristo-500ix" {
		t.Fatalf("response = %+v", resp)
	}
}

func TestSearchEndpointRejectsMissingComponentType(t *testing.T) {
	handler := newTestHandler(nil, nil, nil, RouterConfig{})

	body := `{"query":"500A pulse"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	// The embedded contract rejects this before the handler runs.
	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, body = %s", res.Code, res.Body.String())
	}
}

func TestSearchEndpointMapsInvalidInputTo400(t *testing.T) {
	search := &stubSearchService{err: domain.WrapError(domain.ErrInvalidInput, "validate request", context.Canceled)}
	handler := newTestHandler(search, nil, nil, RouterConfig{})

	body := `{"component_type":"power_source","limit":5}`
	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestSearchEndpointMapsAllFailedTo503(t *testing.T) {
	search := &stubSearchService{err: domain.WrapError(domain.ErrAllStrategiesFailed, "search power_source", context.DeadlineExceeded)}
	handler := newTestHandler(search, nil, nil, RouterConfig{})

	body := `{"component_type":"power_source"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/search", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestGetProductMapsNotFoundTo404(t *testing.T) {
	catalog := &stubCatalog{err: domain.WrapError(domain.ErrProductNotFound, "get product", context.Canceled)}
	handler := newTestHandler(nil, catalog, nil, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/v1/products/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("status = %d", res.Code)
	}
}

func TestReindexEndpointPublishes(t *testing.T) {
	queue := &stubReindexQueue{}
	handler := newTestHandler(nil, nil, queue, RouterConfig{})

	body := `{"workbook":"/data/catalog.xlsx"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/reindex", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", res.Code, res.Body.String())
	}
	if len(queue.published) != 1 || queue.published[0] != "/data/catalog.xlsx" {
		t.Fatalf("published = %v", queue.published)
	}
}

func TestRequestIDHeaderIsEchoedOrGenerated(t *testing.T) {
	handler := newTestHandler(nil, nil, nil, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Header().Get(requestIDHeader) != "req-123" {
		t.Fatalf("request id not echoed: %q", res.Header().Get(requestIDHeader))
	}

	req2 := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res2 := httptest.NewRecorder()
	handler.ServeHTTP(res2, req2)
	if res2.Header().Get(requestIDHeader) == "" {
		t.Fatalf("request id not generated")
	}
}

func TestOpenAPIDocIsServed(t *testing.T) {
	handler := newTestHandler(nil, nil, nil, RouterConfig{})

	req := httptest.NewRequest(http.MethodGet, "/openapi.json", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("status = %d", res.Code)
	}
	var doc map[string]any
	if err := json.Unmarshal(res.Body.Bytes(), &doc); err != nil {
		t.Fatalf("served document is not json: %v", err)
	}
	if doc["openapi"] == "" {
		t.Fatalf("unexpected document: %v", doc)
	}
}
