package ports

import (
	"context"
	"io"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
)

// KnowledgeRetriever is the inbound contract for semantic retrieval.
// The retrieval methods absorb backend failures and always return a
// well-formed (possibly empty) result; only construction may fail.
type KnowledgeRetriever interface {
	Retrieve(ctx context.Context, query string) []domain.RetrievedDocument
	RetrieveAndCombine(ctx context.Context, query string) domain.CombinedResult
	RetrieveAndGenerate(ctx context.Context, query string) domain.GeneratedResult
	HealthCheck(ctx context.Context) domain.HealthStatus
}

// DocumentIngestor is the inbound contract for document upload orchestration.
type DocumentIngestor interface {
	Upload(ctx context.Context, filename, mimeType string, body io.Reader) (*domain.Document, error)
}

// DocumentIndexer is the inbound contract for asynchronous indexing.
type DocumentIndexer interface {
	IndexByID(ctx context.Context, documentID string) error
}

// DocumentReader is the inbound read model for document metadata/state.
type DocumentReader interface {
	GetByID(ctx context.Context, id string) (*domain.Document, error)
}
