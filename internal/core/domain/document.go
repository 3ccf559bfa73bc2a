package domain

import "time"

type DocumentStatus string

const (
	StatusUploaded DocumentStatus = "uploaded"
	StatusIndexing DocumentStatus = "indexing"
	StatusIndexed  DocumentStatus = "indexed"
	StatusFailed   DocumentStatus = "failed"
)

// Document is a knowledge-base source file tracked through ingestion.
type Document struct {
	ID          string         `json:"id"`
	Filename    string         `json:"filename"`
	MimeType    string         `json:"mime_type"`
	StoragePath string         `json:"storage_path"`
	Collection  string         `json:"collection"`
	ChunkCount  int            `json:"chunk_count,omitempty"`
	Status      DocumentStatus `json:"status"`
	Error       string         `json:"error,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}
