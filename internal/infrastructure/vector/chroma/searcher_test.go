package chroma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
)

func TestNewSearcherResolvesCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == "/api/v1/collections/research" {
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "col-1", "name": "research"})
			return
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	searcher, err := NewSearcher(context.Background(), NewClient(server.URL), "research")
	if err != nil {
		t.Fatalf("NewSearcher() error = %v", err)
	}
	if searcher.collection.ID != "col-1" {
		t.Fatalf("expected resolved collection id col-1, got %s", searcher.collection.ID)
	}
}

func TestNewSearcherMissingCollection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewSearcher(context.Background(), NewClient(server.URL), "missing")
	if !domain.IsKind(err, domain.ErrCollectionNotFound) {
		t.Fatalf("expected ErrCollectionNotFound, got %v", err)
	}
}

func TestNewSearcherNeverCreatesCollections(t *testing.T) {
	var createCalls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost && r.URL.Path == "/api/v1/collections" {
			createCalls++
		}
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, _ = NewSearcher(context.Background(), NewClient(server.URL), "missing")
	if createCalls != 0 {
		t.Fatalf("searcher attempted to create a collection")
	}
}

func TestSearcherQueryParsesParallelArrays(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/collections/research":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "col-1", "name": "research"})
		case r.Method == http.MethodPost && r.URL.Path == "/api/v1/collections/col-1/query":
			var req struct {
				QueryTexts []string `json:"query_texts"`
				NResults   int      `json:"n_results"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				http.Error(w, "bad body", http.StatusBadRequest)
				return
			}
			if len(req.QueryTexts) != 1 || req.QueryTexts[0] != "growth outlook" || req.NResults != 3 {
				http.Error(w, "unexpected query", http.StatusBadRequest)
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"documents": [][]string{{"doc a", "doc b"}},
				"metadatas": [][]map[string]any{{{"page": 1}, {"page": "2"}}},
				"distances": [][]float64{{0.1, 0.3}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	searcher, err := NewSearcher(context.Background(), NewClient(server.URL), "research")
	if err != nil {
		t.Fatalf("NewSearcher() error = %v", err)
	}

	hits, err := searcher.Query(context.Background(), "growth outlook", 3)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Content != "doc a" || hits[0].Distance != 0.1 {
		t.Fatalf("unexpected first hit: %+v", hits[0])
	}
	if hits[0].Metadata["page"] != "1" || hits[1].Metadata["page"] != "2" {
		t.Fatalf("expected stringified metadata, got %+v %+v", hits[0].Metadata, hits[1].Metadata)
	}
}

func TestSearcherQueryLengthMismatch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/collections/research":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "col-1", "name": "research"})
		case r.URL.Path == "/api/v1/collections/col-1/query":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"documents": [][]string{{"doc a", "doc b"}},
				"distances": [][]float64{{0.1}},
			})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	searcher, err := NewSearcher(context.Background(), NewClient(server.URL), "research")
	if err != nil {
		t.Fatalf("NewSearcher() error = %v", err)
	}
	if _, err := searcher.Query(context.Background(), "q", 5); err == nil {
		t.Fatalf("expected error on malformed response")
	}
}

func TestSearcherCount(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v1/collections/research":
			_ = json.NewEncoder(w).Encode(map[string]string{"id": "col-1", "name": "research"})
		case r.Method == http.MethodGet && r.URL.Path == "/api/v1/collections/col-1/count":
			_, _ = w.Write([]byte("17"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	searcher, err := NewSearcher(context.Background(), NewClient(server.URL), "research")
	if err != nil {
		t.Fatalf("NewSearcher() error = %v", err)
	}
	count, err := searcher.Count(context.Background())
	if err != nil {
		t.Fatalf("Count() error = %v", err)
	}
	if count != 17 {
		t.Fatalf("expected count 17, got %d", count)
	}
}
