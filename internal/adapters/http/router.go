// Package httpadapter exposes the knowledge service over HTTP: retrieval
// endpoints backed by the semantic retriever, document ingestion, and a
// health probe that reflects vector-store reachability.
package httpadapter

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
	"github.com/wealthdesk/knowledge-service/internal/core/ports"
	"github.com/wealthdesk/knowledge-service/internal/observability/metrics"
)

type RouterConfig struct {
	Service             string
	RateLimitRPS        float64
	RateLimitBurst      int
	MaxInFlightRequests int
	BackpressureTimeout time.Duration
}

type Router struct {
	retriever ports.KnowledgeRetriever
	ingestUC  ports.DocumentIngestor
	reader    ports.DocumentReader
	metrics   *metrics.HTTPServerMetrics
	cfg       RouterConfig
}

func NewRouter(
	retriever ports.KnowledgeRetriever,
	ingestUC ports.DocumentIngestor,
	reader ports.DocumentReader,
	serverMetrics *metrics.HTTPServerMetrics,
	cfg RouterConfig,
) *Router {
	if cfg.Service == "" {
		cfg.Service = "api"
	}
	return &Router{
		retriever: retriever,
		ingestUC:  ingestUC,
		reader:    reader,
		metrics:   serverMetrics,
		cfg:       cfg,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/knowledge/search", rt.searchKnowledge)
	mux.HandleFunc("/v1/knowledge/combine", rt.combineKnowledge)
	mux.HandleFunc("/v1/knowledge/generate", rt.generateKnowledge)
	mux.HandleFunc("/v1/documents", rt.uploadDocument)
	mux.HandleFunc("/v1/documents/", rt.getDocumentByID)

	var handler http.Handler = mux
	if rt.cfg.MaxInFlightRequests > 0 {
		handler = backpressureMiddleware(handler, rt.cfg.MaxInFlightRequests, rt.cfg.BackpressureTimeout)
	}
	if rt.cfg.RateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.cfg.Service, handler)
	}
	return requestIDMiddleware(accessLogMiddleware(handler))
}

func (rt *Router) healthz(w http.ResponseWriter, r *http.Request) {
	status := rt.retriever.HealthCheck(r.Context())
	code := http.StatusOK
	if !status.Healthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (rt *Router) searchKnowledge(w http.ResponseWriter, r *http.Request) {
	query, ok := rt.decodeRetrievalRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	docs := rt.retriever.Retrieve(r.Context(), query)
	rt.recordRetrieval("search", len(docs), time.Since(start))

	writeJSON(w, http.StatusOK, map[string]any{
		"documents":       docs,
		"total_documents": len(docs),
	})
}

func (rt *Router) combineKnowledge(w http.ResponseWriter, r *http.Request) {
	query, ok := rt.decodeRetrievalRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result := rt.retriever.RetrieveAndCombine(r.Context(), query)
	rt.recordRetrieval("combine", result.TotalSources, time.Since(start))

	writeJSON(w, http.StatusOK, result)
}

func (rt *Router) generateKnowledge(w http.ResponseWriter, r *http.Request) {
	query, ok := rt.decodeRetrievalRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	result := rt.retriever.RetrieveAndGenerate(r.Context(), query)
	rt.recordRetrieval("generate", result.TotalSources, time.Since(start))

	writeJSON(w, http.StatusOK, result)
}

// decodeRetrievalRequest enforces the request contract: the body must be
// JSON and the query field must be a JSON string. A present-but-blank
// query is legal and yields an empty result downstream.
func (rt *Router) decodeRetrievalRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return "", false
	}

	var req struct {
		Query json.RawMessage `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode request", err))
		return "", false
	}
	raw := bytes.TrimSpace(req.Query)
	if len(raw) == 0 {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("field 'query' is required")))
		return "", false
	}
	// json.Unmarshal accepts null into a string without error, so the
	// string check has to look at the raw token.
	if raw[0] != '"' {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("field 'query' must be a string")))
		return "", false
	}

	var query string
	if err := json.Unmarshal(raw, &query); err != nil {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "decode request", errors.New("field 'query' must be a string")))
		return "", false
	}
	return query, true
}

func (rt *Router) recordRetrieval(endpoint string, sourceCount int, duration time.Duration) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordRetrievalObservation(rt.cfg.Service, endpoint, sourceCount, duration)
}

func (rt *Router) uploadDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart field 'file' is required"})
		return
	}
	defer file.Close()

	doc, err := rt.ingestUC.Upload(
		r.Context(),
		fileHeader.Filename,
		fileHeader.Header.Get("Content-Type"),
		file,
	)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, doc)
}

func (rt *Router) getDocumentByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/documents/")
	if id == "" {
		writeError(w, domain.WrapError(domain.ErrInvalidInput, "get document", errors.New("document id is required")))
		return
	}

	doc, err := rt.reader.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
