// Package extractor routes a stored document to the extractor that can
// read its format.
package extractor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
	"github.com/wealthdesk/knowledge-service/internal/core/ports"
)

type Selector struct {
	plain ports.TextExtractor
	pdf   ports.TextExtractor
}

func NewSelector(plain, pdf ports.TextExtractor) *Selector {
	return &Selector{plain: plain, pdf: pdf}
}

func (s *Selector) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	if isPDF(doc) {
		return s.pdf.Extract(ctx, doc)
	}
	return s.plain.Extract(ctx, doc)
}

func isPDF(doc *domain.Document) bool {
	if strings.EqualFold(doc.MimeType, "application/pdf") {
		return true
	}
	return strings.EqualFold(filepath.Ext(doc.Filename), ".pdf")
}
