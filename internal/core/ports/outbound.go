package ports

import (
	"context"
	"io"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
)

// VectorSearcher is the narrow read-side contract against the vector-store
// backend: one nearest-neighbour query by raw text, plus a document count
// for health probing. Any concrete vector-store client is an adapter
// implementing this interface.
type VectorSearcher interface {
	Query(ctx context.Context, text string, limit int) ([]domain.SearchHit, error)
	Count(ctx context.Context) (int, error)
}

// VectorIndexer writes document chunks into the vector store. Embedding
// happens backend-side; the indexer ships raw text.
type VectorIndexer interface {
	IndexChunks(ctx context.Context, doc *domain.Document, chunks []string) error
}

// DocumentRepository persists and reads document state.
type DocumentRepository interface {
	Create(ctx context.Context, doc *domain.Document) error
	GetByID(ctx context.Context, id string) (*domain.Document, error)
	UpdateStatus(ctx context.Context, id string, status domain.DocumentStatus, errMessage string) error
	SaveIndexStats(ctx context.Context, id string, chunkCount int) error
}

// ObjectStorage stores source documents.
type ObjectStorage interface {
	Save(ctx context.Context, key string, data io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// MessageQueue publishes/consumes ingestion events.
type MessageQueue interface {
	PublishDocumentIngested(ctx context.Context, documentID string) error
	SubscribeDocumentIngested(ctx context.Context, handler func(context.Context, string) error) error
}

// TextExtractor extracts plain text from a stored document.
type TextExtractor interface {
	Extract(ctx context.Context, doc *domain.Document) (string, error)
}

// Chunker splits text into semantically usable chunks.
type Chunker interface {
	Split(text string) []string
}
