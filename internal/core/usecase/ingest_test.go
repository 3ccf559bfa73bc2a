package usecase

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
)

type ingestRepoFake struct {
	created *domain.Document
	err     error
}

func (f *ingestRepoFake) Create(_ context.Context, doc *domain.Document) error {
	if f.err != nil {
		return f.err
	}
	copyDoc := *doc
	f.created = &copyDoc
	return nil
}

func (f *ingestRepoFake) GetByID(context.Context, string) (*domain.Document, error) {
	return nil, errors.New("not implemented")
}
func (f *ingestRepoFake) UpdateStatus(context.Context, string, domain.DocumentStatus, string) error {
	return errors.New("not implemented")
}
func (f *ingestRepoFake) SaveIndexStats(context.Context, string, int) error {
	return errors.New("not implemented")
}

type ingestStorageFake struct {
	savedKey  string
	savedBody string
	err       error
}

func (f *ingestStorageFake) Save(_ context.Context, key string, data io.Reader) error {
	if f.err != nil {
		return f.err
	}
	raw, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	f.savedKey = key
	f.savedBody = string(raw)
	return nil
}

func (f *ingestStorageFake) Open(context.Context, string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

type ingestQueueFake struct {
	documentID string
	err        error
}

func (f *ingestQueueFake) PublishDocumentIngested(_ context.Context, documentID string) error {
	if f.err != nil {
		return f.err
	}
	f.documentID = documentID
	return nil
}

func (f *ingestQueueFake) SubscribeDocumentIngested(context.Context, func(context.Context, string) error) error {
	return errors.New("not implemented")
}

func TestIngestUploadSuccess(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := &ingestStorageFake{}
	queue := &ingestQueueFake{}
	uc := NewIngestDocumentUseCase(repo, storage, queue, "research")

	doc, err := uc.Upload(context.Background(), "outlook 2025.pdf", "application/pdf", bytes.NewBufferString("hello"))
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if doc.ID == "" {
		t.Fatalf("expected document id")
	}
	if doc.Status != domain.StatusUploaded {
		t.Fatalf("expected status uploaded, got %s", doc.Status)
	}
	if doc.Collection != "research" {
		t.Fatalf("expected collection research, got %s", doc.Collection)
	}
	if repo.created == nil {
		t.Fatalf("expected repo.Create call")
	}
	if queue.documentID != doc.ID {
		t.Fatalf("expected queued doc id %s, got %s", doc.ID, queue.documentID)
	}
	if !strings.Contains(storage.savedKey, "_outlook_2025.pdf") {
		t.Fatalf("expected sanitized key suffix, got %s", storage.savedKey)
	}
	if storage.savedBody != "hello" {
		t.Fatalf("expected saved body hello, got %s", storage.savedBody)
	}
}

func TestIngestUploadQueueError(t *testing.T) {
	repo := &ingestRepoFake{}
	storage := &ingestStorageFake{}
	queue := &ingestQueueFake{err: errors.New("queue down")}
	uc := NewIngestDocumentUseCase(repo, storage, queue, "research")

	_, err := uc.Upload(context.Background(), "report.txt", "text/plain", bytes.NewBufferString("hello"))
	if err == nil {
		t.Fatalf("expected error")
	}
	if !strings.Contains(err.Error(), "publish ingestion event") {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestIngestUploadStorageError(t *testing.T) {
	uc := NewIngestDocumentUseCase(&ingestRepoFake{}, &ingestStorageFake{err: errors.New("disk full")}, &ingestQueueFake{}, "research")

	_, err := uc.Upload(context.Background(), "report.txt", "text/plain", bytes.NewBufferString("hello"))
	if err == nil || !strings.Contains(err.Error(), "save to object storage") {
		t.Fatalf("expected storage error, got %v", err)
	}
}
