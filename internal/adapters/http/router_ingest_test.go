package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wealthdesk/knowledge-service/internal/core/domain"
)

type ingestorFake struct {
	doc *domain.Document
	err error

	gotFilename string
	gotMimeType string
}

func (f *ingestorFake) Upload(_ context.Context, filename, mimeType string, _ io.Reader) (*domain.Document, error) {
	f.gotFilename = filename
	f.gotMimeType = mimeType
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

type readerFake struct {
	doc *domain.Document
	err error
}

func (f *readerFake) GetByID(context.Context, string) (*domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.doc, nil
}

func newIngestHandler(ingestor *ingestorFake, reader *readerFake) http.Handler {
	router := NewRouter(&retrieverFake{}, ingestor, reader, nil, RouterConfig{Service: "api-test"})
	return router.Handler()
}

func multipartBody(t *testing.T, fieldName, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestUploadDocumentAccepted(t *testing.T) {
	ingestor := &ingestorFake{
		doc: &domain.Document{ID: "doc-1", Filename: "outlook.pdf", Status: domain.StatusUploaded},
	}
	handler := newIngestHandler(ingestor, &readerFake{})

	body, contentType := multipartBody(t, "file", "outlook.pdf", "quarterly outlook")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	if ingestor.gotFilename != "outlook.pdf" {
		t.Fatalf("expected filename forwarded, got %q", ingestor.gotFilename)
	}

	var doc domain.Document
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.ID != "doc-1" || doc.Status != domain.StatusUploaded {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestUploadDocumentRequiresFileField(t *testing.T) {
	handler := newIngestHandler(&ingestorFake{}, &readerFake{})

	body, contentType := multipartBody(t, "attachment", "outlook.pdf", "quarterly outlook")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestUploadDocumentTemporaryFailureMapsTo503(t *testing.T) {
	ingestor := &ingestorFake{
		err: domain.WrapError(domain.ErrTemporary, "publish ingestion event", errors.New("nats down")),
	}
	handler := newIngestHandler(ingestor, &readerFake{})

	body, contentType := multipartBody(t, "file", "outlook.pdf", "quarterly outlook")
	req := httptest.NewRequest(http.MethodPost, "/v1/documents", body)
	req.Header.Set("Content-Type", contentType)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestGetDocumentByID(t *testing.T) {
	reader := &readerFake{
		doc: &domain.Document{ID: "doc-1", Status: domain.StatusIndexed, ChunkCount: 4},
	}
	handler := newIngestHandler(&ingestorFake{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var doc domain.Document
	if err := json.NewDecoder(res.Body).Decode(&doc); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if doc.ChunkCount != 4 {
		t.Fatalf("unexpected document: %+v", doc)
	}
}

func TestGetDocumentByIDNotFound(t *testing.T) {
	reader := &readerFake{
		err: domain.WrapError(domain.ErrDocumentNotFound, "load document", errors.New("id missing")),
	}
	handler := newIngestHandler(&ingestorFake{}, reader)

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/missing", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestResponsesCarryRequestID(t *testing.T) {
	handler := newIngestHandler(&ingestorFake{}, &readerFake{doc: &domain.Document{ID: "doc-1"}})

	req := httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatalf("expected generated request id header")
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/documents/doc-1", nil)
	req.Header.Set("X-Request-Id", "req-42")
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Header().Get("X-Request-Id") != "req-42" {
		t.Fatalf("expected propagated request id, got %q", res.Header().Get("X-Request-Id"))
	}
}
