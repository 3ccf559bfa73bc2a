package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
	"github.com/wealthdesk/knowledge-service/internal/core/ports"
)

const (
	// documentSeparator segments documents in the combined view so prompt
	// templates can split them back apart.
	documentSeparator = "\n\n---\n\n"
	previewRunes      = 100
	summaryRunes      = 200
	ellipsis          = "..."
)

// RetrieverConfig is the immutable configuration of a SemanticRetriever.
type RetrieverConfig struct {
	// StorageURL locates the vector-store backend.
	StorageURL string
	// Collection names a pre-existing collection; the retriever never
	// creates collections.
	Collection string
	// MaxResults bounds nearest-neighbour results per query. Must be > 0.
	MaxResults int
	// SimilarityThreshold is the minimum similarity for a hit to be
	// surfaced. Must lie in [0, 1].
	SimilarityThreshold float64
}

// Validate returns the first violated constraint, wrapped as ErrInvalidConfig.
func (c RetrieverConfig) Validate() error {
	switch {
	case strings.TrimSpace(c.StorageURL) == "":
		return domain.WrapError(domain.ErrInvalidConfig, "validate retriever config",
			fmt.Errorf("storage url must not be empty"))
	case strings.TrimSpace(c.Collection) == "":
		return domain.WrapError(domain.ErrInvalidConfig, "validate retriever config",
			fmt.Errorf("collection name must not be empty"))
	case c.MaxResults <= 0:
		return domain.WrapError(domain.ErrInvalidConfig, "validate retriever config",
			fmt.Errorf("max_results must be positive, got %d", c.MaxResults))
	case c.SimilarityThreshold < 0 || c.SimilarityThreshold > 1:
		return domain.WrapError(domain.ErrInvalidConfig, "validate retriever config",
			fmt.Errorf("similarity_threshold must be in [0,1], got %g", c.SimilarityThreshold))
	}
	return nil
}

// SemanticRetriever converts a free-text query into a ranked,
// threshold-filtered list of documents from a vector-store collection and
// offers derived combined/generated views.
//
// Backend failures on the retrieval path are absorbed into empty results
// and logged; callers that need to distinguish a degraded backend from a
// genuine miss must consult HealthCheck.
type SemanticRetriever struct {
	cfg     RetrieverConfig
	backend ports.VectorSearcher
	logger  *slog.Logger
}

var _ ports.KnowledgeRetriever = (*SemanticRetriever)(nil)

// NewSemanticRetriever validates cfg and wires the backend. Construction is
// the only error path of the retriever; cfg violations are reported before
// the backend is touched.
func NewSemanticRetriever(cfg RetrieverConfig, backend ports.VectorSearcher, logger *slog.Logger) (*SemanticRetriever, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if backend == nil {
		return nil, domain.WrapError(domain.ErrInvalidConfig, "validate retriever config",
			fmt.Errorf("vector backend must not be nil"))
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SemanticRetriever{
		cfg:     cfg,
		backend: backend,
		logger:  logger.With("component", "semantic_retriever", "collection", cfg.Collection),
	}, nil
}

// Retrieve issues one nearest-neighbour query and returns the hits whose
// similarity meets the threshold, in backend order. An empty or
// whitespace-only query short-circuits to an empty result without touching
// the backend. The returned slice is never nil.
func (r *SemanticRetriever) Retrieve(ctx context.Context, query string) []domain.RetrievedDocument {
	if strings.TrimSpace(query) == "" {
		return []domain.RetrievedDocument{}
	}

	hits, err := r.backend.Query(ctx, query, r.cfg.MaxResults)
	if err != nil {
		r.logger.Error("retrieval backend query failed", "error", err)
		return []domain.RetrievedDocument{}
	}

	docs := make([]domain.RetrievedDocument, 0, len(hits))
	for _, hit := range hits {
		score := similarityFromDistance(hit.Distance)
		if score < r.cfg.SimilarityThreshold {
			continue
		}
		docs = append(docs, domain.RetrievedDocument{
			Content:         hit.Content,
			Metadata:        hit.Metadata,
			SimilarityScore: score,
		})
	}
	return docs
}

// RetrieveAndCombine retrieves, orders documents by descending similarity
// and joins their contents under 1-based "Document N:" labels.
func (r *SemanticRetriever) RetrieveAndCombine(ctx context.Context, query string) domain.CombinedResult {
	docs := r.Retrieve(ctx, query)
	if len(docs) == 0 {
		return domain.CombinedResult{Sources: []domain.SourceRef{}}
	}

	// Stable: ties keep backend order.
	sort.SliceStable(docs, func(i, j int) bool {
		return docs[i].SimilarityScore > docs[j].SimilarityScore
	})

	labeled := make([]string, len(docs))
	sources := make([]domain.SourceRef, len(docs))
	for i, doc := range docs {
		labeled[i] = fmt.Sprintf("Document %d:\n%s", i+1, doc.Content)
		sources[i] = domain.SourceRef{
			Metadata:        doc.Metadata,
			SimilarityScore: doc.SimilarityScore,
			ContentPreview:  previewOf(doc.Content),
		}
	}

	return domain.CombinedResult{
		CombinedContent: strings.Join(labeled, documentSeparator),
		Sources:         sources,
		TotalSources:    len(sources),
	}
}

// RetrieveAndGenerate returns the combined content verbatim together with a
// short summary derived from the best-matching source.
func (r *SemanticRetriever) RetrieveAndGenerate(ctx context.Context, query string) domain.GeneratedResult {
	combined := r.RetrieveAndCombine(ctx, query)
	if combined.CombinedContent == "" {
		return domain.GeneratedResult{Sources: []domain.SourceRef{}}
	}

	summary := ""
	if len(combined.Sources) > 0 {
		summary = combined.Sources[0].ContentPreview
	}
	if summary == "" {
		summary, _, _ = strings.Cut(combined.CombinedContent, "\n\n")
	}

	return domain.GeneratedResult{
		GeneratedContent: combined.CombinedContent,
		Summary:          capSummary(summary),
		Sources:          combined.Sources,
		TotalSources:     combined.TotalSources,
	}
}

// HealthCheck probes the backend with a document count. It never fails hard.
func (r *SemanticRetriever) HealthCheck(ctx context.Context) domain.HealthStatus {
	count, err := r.backend.Count(ctx)
	if err != nil {
		r.logger.Warn("retrieval backend health check failed", "error", err)
		return domain.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("collection %q unreachable: %v", r.cfg.Collection, err),
		}
	}
	return domain.HealthStatus{
		Healthy: true,
		Message: fmt.Sprintf("collection %q reachable with %d documents", r.cfg.Collection, count),
	}
}

// similarityFromDistance converts a backend cosine distance into a [0,1]
// similarity. The clamp at 1.0 keeps similarity non-negative for metrics
// whose distances exceed 1; it is preserved for compatibility with the
// original scoring even though it flattens the ranking of far-away hits.
func similarityFromDistance(distance float64) float64 {
	if distance > 1.0 {
		distance = 1.0
	}
	return 1.0 - distance
}

// previewOf returns the first previewRunes runes of s with an ellipsis
// appended when truncation occurred.
func previewOf(s string) string {
	runes := []rune(s)
	if len(runes) <= previewRunes {
		return s
	}
	return string(runes[:previewRunes]) + ellipsis
}

// capSummary bounds s at summaryRunes runes total, ellipsis included.
func capSummary(s string) string {
	runes := []rune(s)
	if len(runes) <= summaryRunes {
		return s
	}
	return string(runes[:summaryRunes-len(ellipsis)]) + ellipsis
}
