package service

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"aduanas_portal_backend/internal/adapters/storage"
	aforodomain "aduanas_portal_backend/internal/aforo/domain"
	"aduanas_portal_backend/internal/documents/repository"
	"aduanas_portal_backend/platform/apperr"
	"aduanas_portal_backend/platform/logger"
)

type fakeRepo struct {
	created []repository.Document
	deleted []uuid.UUID
	byID    map[uuid.UUID]repository.Document
}

func (f *fakeRepo) Create(_ context.Context, doc repository.Document) error {
	f.created = append(f.created, doc)
	return nil
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (repository.Document, error) {
	doc, ok := f.byID[id]
	if !ok {
		return repository.Document{}, apperr.NotFound("document not found")
	}
	return doc, nil
}

func (f *fakeRepo) ListByNE(_ context.Context, ne string) ([]repository.Document, error) {
	var docs []repository.Document
	for _, doc := range f.byID {
		if doc.NE == ne {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

func (f *fakeRepo) Delete(_ context.Context, id uuid.UUID) error {
	f.deleted = append(f.deleted, id)
	return nil
}

type fakeCaseLog struct {
	cases   map[string]aforodomain.Case
	entries []aforodomain.UpdateEntry
}

func (f *fakeCaseLog) GetByNE(_ context.Context, ne string) (aforodomain.Case, error) {
	c, ok := f.cases[ne]
	if !ok {
		return aforodomain.Case{}, apperr.NotFound("aforo case not found")
	}
	return c, nil
}

func (f *fakeCaseLog) AppendCaseEntry(_ context.Context, _ uuid.UUID, _ string, entry aforodomain.UpdateEntry) error {
	f.entries = append(f.entries, entry)
	return nil
}

type fakeStore struct {
	uploadCalls   int
	downloadCalls int
	deletedKeys   []string
}

func (f *fakeStore) GenerateUploadURL(_ context.Context, _, folder, fileName, _ string, _ int64) (*storage.PresignedURL, error) {
	f.uploadCalls++
	return &storage.PresignedURL{
		URL:       "https://storage.local/put",
		FileKey:   folder + "/" + fileName,
		ExpiresAt: time.Now().Add(storage.PresignedURLTTL),
	}, nil
}

func (f *fakeStore) GenerateDownloadURL(_ context.Context, _, fileKey string) (*storage.PresignedURL, error) {
	f.downloadCalls++
	return &storage.PresignedURL{URL: "https://storage.local/get/" + fileKey, FileKey: fileKey}, nil
}

func (f *fakeStore) DownloadFile(_ context.Context, _, _ string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("")), nil
}

func (f *fakeStore) DeleteObject(_ context.Context, _, fileKey string) error {
	f.deletedKeys = append(f.deletedKeys, fileKey)
	return nil
}

func (f *fakeStore) EnsureBucketExists(_ context.Context, _ string) error { return nil }

func (f *fakeStore) ValidateContentType(contentType string) error {
	if contentType == "application/x-disallowed" {
		return apperr.Validation("content type not allowed")
	}
	return nil
}

func (f *fakeStore) ValidateFileSize(_ int64) error { return nil }

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeCaseLog, *fakeStore) {
	t.Helper()

	caseID := uuid.New()
	cases := &fakeCaseLog{cases: map[string]aforodomain.Case{
		"NE20240001": {ID: caseID, NE: "NE20240001"},
	}}
	repo := &fakeRepo{byID: make(map[uuid.UUID]repository.Document)}
	store := &fakeStore{}

	svc := New(repo, cases, store, "case-documents", true, logger.New("development"))
	svc.now = func() time.Time {
		return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)
	}
	return svc, repo, cases, store
}

func TestRequestUploadUnknownNE(t *testing.T) {
	svc, _, _, store := newTestService(t)

	_, err := svc.RequestUpload(context.Background(), UploadRequest{
		NE: "NE20249999", FileName: "factura.pdf", ContentType: "application/pdf", SizeBytes: 1024,
	})
	if !apperr.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if store.uploadCalls != 0 {
		t.Fatalf("expected no presign call for unknown NE")
	}
}

func TestConfirmUploadRecordsRowAndLogEntry(t *testing.T) {
	svc, repo, cases, _ := newTestService(t)

	doc, err := svc.ConfirmUpload(context.Background(), ConfirmParams{
		NE:          "NE20240001",
		FileKey:     "NE20240001/factura-abc.pdf",
		FileName:    "factura.pdf",
		ContentType: "application/pdf",
		SizeBytes:   2048,
		Actor:       "Maria Reyes",
	})
	if err != nil {
		t.Fatalf("ConfirmUpload: %v", err)
	}

	if len(repo.created) != 1 {
		t.Fatalf("expected 1 attachment row, got %d", len(repo.created))
	}
	if repo.created[0].UploadedBy != "Maria Reyes" {
		t.Errorf("uploadedBy = %q", repo.created[0].UploadedBy)
	}
	if doc.CreatedAt != time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) {
		t.Errorf("createdAt = %v", doc.CreatedAt)
	}

	if len(cases.entries) != 1 {
		t.Fatalf("expected 1 log entry, got %d", len(cases.entries))
	}
	entry := cases.entries[0]
	if entry.Field != aforodomain.TagDocumentUpdate {
		t.Errorf("entry field = %q", entry.Field)
	}
	if entry.NewValue != "factura.pdf" {
		t.Errorf("entry newValue = %q", entry.NewValue)
	}
}

func TestDeleteRemovesObjectRowAndAppendsEntry(t *testing.T) {
	svc, repo, cases, store := newTestService(t)

	id := uuid.New()
	repo.byID[id] = repository.Document{
		ID: id, CaseID: uuid.New(), NE: "NE20240001",
		FileKey: "NE20240001/factura-abc.pdf", FileName: "factura.pdf",
	}

	if err := svc.Delete(context.Background(), id, "Maria Reyes"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if len(store.deletedKeys) != 1 || store.deletedKeys[0] != "NE20240001/factura-abc.pdf" {
		t.Fatalf("deleted keys = %v", store.deletedKeys)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != id {
		t.Fatalf("deleted rows = %v", repo.deleted)
	}
	if len(cases.entries) != 1 || cases.entries[0].OldValue != "factura.pdf" {
		t.Fatalf("entries = %+v", cases.entries)
	}
}

func TestOperationsFailWhenStorageDisabled(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	svc.enabled = false

	_, err := svc.RequestUpload(context.Background(), UploadRequest{
		NE: "NE20240001", FileName: "factura.pdf", ContentType: "application/pdf", SizeBytes: 1024,
	})
	if !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}
