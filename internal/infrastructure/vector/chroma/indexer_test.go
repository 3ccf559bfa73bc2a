package chroma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
)

func TestIndexChunksCreatesCollectionOnce(t *testing.T) {
	var createCalls, addCalls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/collections":
			atomic.AddInt32(&createCalls, 1)
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "col-1", "name": "research"})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/collections/col-1/add":
			atomic.AddInt32(&addCalls, 1)
			var req struct {
				IDs       []string         `json:"ids"`
				Documents []string         `json:"documents"`
				Metadatas []map[string]any `json:"metadatas"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			if len(req.IDs) != 2 || len(req.Documents) != 2 || len(req.Metadatas) != 2 {
				http.Error(w, "unexpected payload", http.StatusBadRequest)
				return
			}
			w.WriteHeader(http.StatusCreated)
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	indexer := NewIndexer(NewClient(server.URL), "research", nil)
	doc := &domain.Document{ID: "doc-1", Filename: "a.pdf"}

	if err := indexer.IndexChunks(context.Background(), doc, []string{"a", "b"}); err != nil {
		t.Fatalf("first IndexChunks() error = %v", err)
	}
	if err := indexer.IndexChunks(context.Background(), doc, []string{"a", "b"}); err != nil {
		t.Fatalf("second IndexChunks() error = %v", err)
	}
	if got := atomic.LoadInt32(&createCalls); got != 1 {
		t.Fatalf("expected get-or-create called once, got %d", got)
	}
	if got := atomic.LoadInt32(&addCalls); got != 2 {
		t.Fatalf("expected two add calls, got %d", got)
	}
}

func TestIndexChunksSkipsEmptyInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("unexpected backend call: %s %s", r.Method, r.URL.Path)
	}))
	defer server.Close()

	indexer := NewIndexer(NewClient(server.URL), "research", nil)
	if err := indexer.IndexChunks(context.Background(), &domain.Document{ID: "doc-1"}, nil); err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}
}

func TestIndexChunksAddFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/collections":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "col-1", "name": "research"})
		default:
			http.Error(w, "boom", http.StatusInternalServerError)
		}
	}))
	defer server.Close()

	indexer := NewIndexer(NewClient(server.URL), "research", nil)
	err := indexer.IndexChunks(context.Background(), &domain.Document{ID: "doc-1"}, []string{"a"})
	if err == nil {
		t.Fatalf("expected error")
	}
}
