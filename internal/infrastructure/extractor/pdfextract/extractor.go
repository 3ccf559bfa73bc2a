// Package pdfextract pulls plain text out of stored PDF documents. Pages
// are concatenated with blank lines so the downstream splitter sees
// paragraph boundaries at page breaks.
package pdfextract

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
	"github.com/wealthdesk/knowledge-service/internal/core/ports"
)

type Extractor struct {
	storage ports.ObjectStorage
}

func NewExtractor(storage ports.ObjectStorage) *Extractor {
	return &Extractor{storage: storage}
}

func (e *Extractor) Extract(ctx context.Context, doc *domain.Document) (string, error) {
	reader, err := e.storage.Open(ctx, doc.StoragePath)
	if err != nil {
		return "", fmt.Errorf("open source document: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("read source document: %w", err)
	}

	pdfReader, err := pdf.NewReader(bytes.NewReader(raw), int64(len(raw)))
	if err != nil {
		return "", fmt.Errorf("parse pdf %s: %w", doc.Filename, err)
	}

	var pages []string
	for pageNum := 1; pageNum <= pdfReader.NumPage(); pageNum++ {
		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract pdf page %d of %s: %w", pageNum, doc.Filename, err)
		}
		content = strings.TrimSpace(content)
		if content != "" {
			pages = append(pages, content)
		}
	}

	return strings.TrimSpace(strings.Join(pages, "\n\n")), nil
}
