package domain

// SearchHit is a single raw match returned by the vector-store backend:
// document text, opaque metadata and a cosine distance (lower = closer).
type SearchHit struct {
	Content  string
	Metadata map[string]string
	Distance float64
}

// RetrievedDocument is a hit that passed the similarity threshold.
type RetrievedDocument struct {
	Content         string            `json:"content"`
	Metadata        map[string]string `json:"metadata"`
	SimilarityScore float64           `json:"similarity_score"`
}

// SourceRef describes where a combined result fragment came from.
type SourceRef struct {
	Metadata        map[string]string `json:"metadata"`
	SimilarityScore float64           `json:"similarity_score"`
	ContentPreview  string            `json:"content_preview"`
}

type CombinedResult struct {
	CombinedContent string      `json:"combined_content"`
	Sources         []SourceRef `json:"sources"`
	TotalSources    int         `json:"total_sources"`
}

type GeneratedResult struct {
	GeneratedContent string      `json:"generated_content"`
	Summary          string      `json:"summary"`
	Sources          []SourceRef `json:"sources"`
	TotalSources     int         `json:"total_sources"`
}

// HealthStatus reports backend reachability for out-of-band probing.
// Retrieval itself never surfaces backend failures to callers.
type HealthStatus struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message"`
}
