package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	mcpadapter "github.com/wealthdesk/knowledge-service/internal/adapters/mcp"
	"github.com/wealthdesk/knowledge-service/internal/config"
	"github.com/wealthdesk/knowledge-service/internal/core/usecase"
	"github.com/wealthdesk/knowledge-service/internal/infrastructure/vector/chroma"
)

const serverVersion = "0.1.0"

func main() {
	cfg := config.Load()

	// Stdout carries the MCP protocol, so logs go to stderr.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, nil)).With("service", "mcp")
	slog.SetDefault(logger)

	chromaClient := chroma.NewClient(cfg.ChromaURL)
	searcher, err := chroma.NewSearcher(context.Background(), chromaClient, cfg.ChromaCollection)
	if err != nil {
		log.Fatalf("init vector searcher: %v", err)
	}

	retriever, err := usecase.NewSemanticRetriever(usecase.RetrieverConfig{
		StorageURL:          cfg.ChromaURL,
		Collection:          cfg.ChromaCollection,
		MaxResults:          cfg.RetrieverMaxResults,
		SimilarityThreshold: cfg.RetrieverSimilarityThreshold,
	}, searcher, logger)
	if err != nil {
		log.Fatalf("init semantic retriever: %v", err)
	}

	srv := mcpadapter.NewServer(retriever, serverVersion)
	if err := srv.ServeStdio(); err != nil {
		log.Fatalf("mcp server error: %v", err)
	}
}
