package chroma

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
	"github.com/wealthdesk/knowledge-service/internal/core/ports"
	"github.com/wealthdesk/knowledge-service/internal/infrastructure/resilience"
)

// Indexer is the write-side adapter. Unlike the Searcher it may create its
// collection on first use. It implements ports.VectorIndexer.
type Indexer struct {
	client         *Client
	collectionName string
	executor       *resilience.Executor

	ensureMu sync.Mutex
	resolved *collectionInfo
}

func NewIndexer(client *Client, collectionName string, executor *resilience.Executor) *Indexer {
	return &Indexer{
		client:         client,
		collectionName: collectionName,
		executor:       executor,
	}
}

// IndexChunks upserts document chunks. Chroma embeds server-side, so only
// raw text and metadata cross the wire.
func (ix *Indexer) IndexChunks(ctx context.Context, doc *domain.Document, chunks []string) error {
	if len(chunks) == 0 {
		return nil
	}

	info, err := ix.ensureCollection(ctx)
	if err != nil {
		return err
	}

	ids := make([]string, len(chunks))
	metadatas := make([]map[string]any, len(chunks))
	for i := range chunks {
		ids[i] = uuid.NewString()
		metadatas[i] = map[string]any{
			"doc_id":      doc.ID,
			"filename":    doc.Filename,
			"chunk_index": strconv.Itoa(i),
		}
	}

	reqBody := map[string]any{
		"ids":       ids,
		"documents": chunks,
		"metadatas": metadatas,
	}
	url := fmt.Sprintf("%s/api/v1/collections/%s/add", ix.client.baseURL, info.ID)

	call := func(callCtx context.Context) error {
		if err := ix.client.postJSON(callCtx, url, reqBody, nil); err != nil {
			return fmt.Errorf("chroma add: %w", err)
		}
		return nil
	}

	if ix.executor != nil {
		err = ix.executor.Execute(ctx, "chroma.add", call, classifyChromaError)
	} else {
		err = call(ctx)
	}
	if err != nil {
		return err
	}
	return nil
}

func (ix *Indexer) ensureCollection(ctx context.Context) (collectionInfo, error) {
	ix.ensureMu.Lock()
	defer ix.ensureMu.Unlock()

	if ix.resolved != nil {
		return *ix.resolved, nil
	}
	info, err := ix.client.getOrCreateCollection(ctx, ix.collectionName)
	if err != nil {
		return collectionInfo{}, err
	}
	ix.resolved = &info
	return info, nil
}

// classifyChromaError retries transport-level failures but not rejected
// payloads.
func classifyChromaError(err error) resilience.ErrorClassification {
	if err == nil {
		return resilience.ErrorClassification{}
	}
	msg := err.Error()
	retryable := strings.Contains(msg, "request:") ||
		strings.Contains(msg, "status: 5") ||
		strings.Contains(msg, "connection refused")
	return resilience.ErrorClassification{
		Retryable:     retryable,
		RecordFailure: true,
	}
}

var _ ports.VectorIndexer = (*Indexer)(nil)
