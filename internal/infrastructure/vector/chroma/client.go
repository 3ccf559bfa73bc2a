// Package chroma adapts a Chroma HTTP backend to the vector ports. The
// read side (Searcher) resolves an existing collection and never creates
// one; the write side (Indexer) may get-or-create its collection.
package chroma

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
)

type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

type collectionInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// resolveCollection looks up an existing collection by name. A 404 maps to
// ErrCollectionNotFound; other failures surface as connectivity errors.
func (c *Client) resolveCollection(ctx context.Context, name string) (collectionInfo, error) {
	url := fmt.Sprintf("%s/api/v1/collections/%s", c.baseURL, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return collectionInfo{}, fmt.Errorf("create get collection request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return collectionInfo{}, fmt.Errorf("chroma get collection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return collectionInfo{}, domain.WrapError(domain.ErrCollectionNotFound, "resolve collection",
			fmt.Errorf("collection %q does not exist at %s", name, c.baseURL))
	}
	if resp.StatusCode >= 300 {
		return collectionInfo{}, fmt.Errorf("chroma get collection status: %s", resp.Status)
	}

	var info collectionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return collectionInfo{}, fmt.Errorf("decode collection response: %w", err)
	}
	if info.ID == "" {
		return collectionInfo{}, fmt.Errorf("chroma returned collection without id for %q", name)
	}
	return info, nil
}

// getOrCreateCollection creates the named collection if it is missing and
// returns its handle either way. Cosine space matches the retriever's
// distance-to-similarity conversion.
func (c *Client) getOrCreateCollection(ctx context.Context, name string) (collectionInfo, error) {
	reqBody := map[string]any{
		"name":          name,
		"metadata":      map[string]any{"hnsw:space": "cosine"},
		"get_or_create": true,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return collectionInfo{}, fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/collections", c.baseURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return collectionInfo{}, fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return collectionInfo{}, fmt.Errorf("chroma create collection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return collectionInfo{}, fmt.Errorf("chroma create collection status: %s", resp.Status)
	}

	var info collectionInfo
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return collectionInfo{}, fmt.Errorf("decode create collection response: %w", err)
	}
	if info.ID == "" {
		return collectionInfo{}, fmt.Errorf("chroma returned collection without id for %q", name)
	}
	return info, nil
}

func (c *Client) postJSON(ctx context.Context, url string, payload any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("chroma request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("chroma status: %s", resp.Status)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func stringifyMetadata(raw map[string]any) map[string]string {
	if len(raw) == 0 {
		return map[string]string{}
	}
	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			out[k] = s
			continue
		}
		out[k] = fmt.Sprintf("%v", v)
	}
	return out
}
