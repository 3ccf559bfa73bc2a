package chroma

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
	"github.com/wealthdesk/knowledge-service/internal/core/ports"
)

// Searcher is the read-side adapter over one resolved collection. It
// implements ports.VectorSearcher.
type Searcher struct {
	client     *Client
	collection collectionInfo
}

// NewSearcher resolves the named collection eagerly so a missing collection
// fails construction instead of every later query.
func NewSearcher(ctx context.Context, client *Client, collectionName string) (*Searcher, error) {
	info, err := client.resolveCollection(ctx, collectionName)
	if err != nil {
		return nil, err
	}
	return &Searcher{client: client, collection: info}, nil
}

type queryResponse struct {
	Documents [][]string         `json:"documents"`
	Metadatas [][]map[string]any `json:"metadatas"`
	Distances [][]float64        `json:"distances"`
}

// Query runs one nearest-neighbour search by raw text and returns hits in
// backend order (ascending distance).
func (s *Searcher) Query(ctx context.Context, text string, limit int) ([]domain.SearchHit, error) {
	reqBody := map[string]any{
		"query_texts": []string{text},
		"n_results":   limit,
		"include":     []string{"documents", "metadatas", "distances"},
	}

	url := fmt.Sprintf("%s/api/v1/collections/%s/query", s.client.baseURL, s.collection.ID)
	var resp queryResponse
	if err := s.client.postJSON(ctx, url, reqBody, &resp); err != nil {
		return nil, fmt.Errorf("chroma query: %w", err)
	}

	if len(resp.Documents) == 0 {
		return []domain.SearchHit{}, nil
	}
	docs := resp.Documents[0]
	if len(resp.Distances) == 0 || len(resp.Distances[0]) != len(docs) {
		return nil, fmt.Errorf("chroma query: documents/distances length mismatch")
	}
	var metas []map[string]any
	if len(resp.Metadatas) > 0 {
		metas = resp.Metadatas[0]
	}

	hits := make([]domain.SearchHit, len(docs))
	for i := range docs {
		var meta map[string]any
		if i < len(metas) {
			meta = metas[i]
		}
		hits[i] = domain.SearchHit{
			Content:  docs[i],
			Metadata: stringifyMetadata(meta),
			Distance: resp.Distances[0][i],
		}
	}
	return hits, nil
}

// Count returns the number of documents in the collection.
func (s *Searcher) Count(ctx context.Context) (int, error) {
	url := fmt.Sprintf("%s/api/v1/collections/%s/count", s.client.baseURL, s.collection.ID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return 0, fmt.Errorf("create count request: %w", err)
	}

	resp, err := s.client.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("chroma count request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return 0, fmt.Errorf("chroma count status: %s", resp.Status)
	}

	var count int
	if err := json.NewDecoder(resp.Body).Decode(&count); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return count, nil
}

var _ ports.VectorSearcher = (*Searcher)(nil)
