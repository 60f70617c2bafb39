package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/beedev/recommender/internal/core/domain"
	"github.com/beedev/recommender/internal/core/ports"
)

// RouterConfig carries the traffic-control knobs for the public surface.
type RouterConfig struct {
	RateLimitRPS      float64
	RateLimitBurst    int
	MaxConcurrent     int
	BackpressureWait  time.Duration
	MetricsMiddleware func(http.Handler) http.Handler
}

type Router struct {
	search  ports.CandidateSearchService
	catalog ports.CatalogRepository
	reindex ports.ReindexQueue
	cfg     RouterConfig
}

func NewRouter(
	search ports.CandidateSearchService,
	catalog ports.CatalogRepository,
	reindex ports.ReindexQueue,
	cfg RouterConfig,
) *Router {
	return &Router{
		search:  search,
		catalog: catalog,
		reindex: reindex,
		cfg:     cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/openapi.json", rt.openapiDoc)
	mux.HandleFunc("/v1/search", rt.searchCandidates)
	mux.HandleFunc("/v1/products/", rt.getProductByKey)
	mux.HandleFunc("/v1/reindex", rt.requestReindex)

	var handler http.Handler = mux
	if validator, err := contractValidationMiddleware(); err == nil {
		handler = validator(handler)
	} else {
		slog.Error("openapi_contract_unavailable", "error", err)
	}
	if rt.cfg.MetricsMiddleware != nil {
		handler = rt.cfg.MetricsMiddleware(handler)
	}
	if rt.cfg.MaxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.MaxConcurrent, rt.cfg.BackpressureWait)
	}
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) searchCandidates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	resp, err := rt.search.Search(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) getProductByKey(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/v1/products/")
	if key == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "product key is required"})
		return
	}

	product, err := rt.catalog.GetByKey(r.Context(), key)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, product)
}

func (rt *Router) requestReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.reindex == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "reindex queue is not configured"})
		return
	}

	var req struct {
		Workbook string `json:"workbook"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Workbook) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workbook is required"})
		return
	}

	if err := rt.reindex.PublishReindexRequested(r.Context(), req.Workbook); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
}

func (rt *Router) openapiDoc(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(openapiSpec)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := mapErrorToHTTPStatus(err)
	if status >= 500 {
		slog.Error("request_failed",
			"request_id", requestIDFromContext(r.Context()),
			"path", r.URL.Path,
			"error", err,
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
