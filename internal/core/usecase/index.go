package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
	"github.com/wealthdesk/knowledge-service/internal/core/ports"
)

// IndexDocumentUseCase runs the worker-side pipeline for one uploaded
// document: extract text, chunk it and write the chunks into the vector
// store so the retriever can find them.
type IndexDocumentUseCase struct {
	repo      ports.DocumentRepository
	extractor ports.TextExtractor
	chunker   ports.Chunker
	indexer   ports.VectorIndexer
}

func NewIndexDocumentUseCase(
	repo ports.DocumentRepository,
	extractor ports.TextExtractor,
	chunker ports.Chunker,
	indexer ports.VectorIndexer,
) *IndexDocumentUseCase {
	return &IndexDocumentUseCase{
		repo:      repo,
		extractor: extractor,
		chunker:   chunker,
		indexer:   indexer,
	}
}

func (uc *IndexDocumentUseCase) IndexByID(ctx context.Context, documentID string) error {
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusIndexing, ""); err != nil {
		return fmt.Errorf("set status=indexing: %w", err)
	}

	chunkCount, err := uc.indexPipeline(ctx, documentID)
	if err != nil {
		if failErr := uc.repo.UpdateStatus(ctx, documentID, domain.StatusFailed, err.Error()); failErr != nil {
			return fmt.Errorf("%w; mark failed status: %v", err, failErr)
		}
		return err
	}

	if err := uc.repo.SaveIndexStats(ctx, documentID, chunkCount); err != nil {
		return fmt.Errorf("save index stats: %w", err)
	}
	if err := uc.repo.UpdateStatus(ctx, documentID, domain.StatusIndexed, ""); err != nil {
		return fmt.Errorf("set status=indexed: %w", err)
	}
	return nil
}

func (uc *IndexDocumentUseCase) indexPipeline(ctx context.Context, documentID string) (int, error) {
	doc, err := uc.repo.GetByID(ctx, documentID)
	if err != nil {
		return 0, fmt.Errorf("fetch document by id: %w", err)
	}

	text, err := uc.extractor.Extract(ctx, doc)
	if err != nil {
		return 0, fmt.Errorf("extract text: %w", err)
	}
	if text == "" {
		return 0, domain.WrapError(domain.ErrInvalidInput, "extract text", errors.New("empty extracted text"))
	}

	chunks := uc.chunker.Split(text)
	if len(chunks) == 0 {
		return 0, domain.WrapError(domain.ErrInvalidInput, "chunk document", errors.New("chunking produced zero chunks"))
	}

	if err := uc.indexer.IndexChunks(ctx, doc, chunks); err != nil {
		return 0, fmt.Errorf("index chunks in vector store: %w", err)
	}
	return len(chunks), nil
}
