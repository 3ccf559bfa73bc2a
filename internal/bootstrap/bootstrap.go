package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wealthdesk/knowledge-service/internal/config"
	"github.com/wealthdesk/knowledge-service/internal/core/ports"
	"github.com/wealthdesk/knowledge-service/internal/core/usecase"
	"github.com/wealthdesk/knowledge-service/internal/infrastructure/chunking"
	"github.com/wealthdesk/knowledge-service/internal/infrastructure/extractor"
	"github.com/wealthdesk/knowledge-service/internal/infrastructure/extractor/pdfextract"
	"github.com/wealthdesk/knowledge-service/internal/infrastructure/extractor/plaintext"
	"github.com/wealthdesk/knowledge-service/internal/infrastructure/queue/nats"
	"github.com/wealthdesk/knowledge-service/internal/infrastructure/repository/postgres"
	"github.com/wealthdesk/knowledge-service/internal/infrastructure/resilience"
	"github.com/wealthdesk/knowledge-service/internal/infrastructure/storage/localfs"
	"github.com/wealthdesk/knowledge-service/internal/infrastructure/vector/chroma"
)

type App struct {
	Config config.Config

	Queue     ports.MessageQueue
	Repo      ports.DocumentRepository
	Retriever ports.KnowledgeRetriever
	IngestUC  ports.DocumentIngestor
	IndexUC   ports.DocumentIndexer

	closeFn func()
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewDocumentRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: executor,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	chromaClient := chroma.NewClient(cfg.ChromaURL)
	searcher, err := chroma.NewSearcher(ctx, chromaClient, cfg.ChromaCollection)
	if err != nil {
		return nil, fmt.Errorf("init vector searcher: %w", err)
	}
	indexer := chroma.NewIndexer(chromaClient, cfg.ChromaCollection, executor)

	retriever, err := usecase.NewSemanticRetriever(usecase.RetrieverConfig{
		StorageURL:          cfg.ChromaURL,
		Collection:          cfg.ChromaCollection,
		MaxResults:          cfg.RetrieverMaxResults,
		SimilarityThreshold: cfg.RetrieverSimilarityThreshold,
	}, searcher, logger)
	if err != nil {
		return nil, fmt.Errorf("init semantic retriever: %w", err)
	}

	chunker := chunking.NewSplitter(cfg.ChunkSize, cfg.ChunkOverlap)
	textExtractor := extractor.NewSelector(
		plaintext.NewExtractor(storage),
		pdfextract.NewExtractor(storage),
	)

	ingestUC := usecase.NewIngestDocumentUseCase(repo, storage, queue, cfg.ChromaCollection)
	indexUC := usecase.NewIndexDocumentUseCase(repo, textExtractor, chunker, indexer)

	return &App{
		Config: cfg,

		Queue:     queue,
		Repo:      repo,
		Retriever: retriever,
		IngestUC:  ingestUC,
		IndexUC:   indexUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}
