// Package service implements the case document attachment flow: a presigned
// upload URL is issued first, then the upload is confirmed, which records the
// attachment and appends a document_update entry on the case log.
package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"aduanas_portal_backend/internal/adapters/storage"
	aforodomain "aduanas_portal_backend/internal/aforo/domain"
	afororepo "aduanas_portal_backend/internal/aforo/repository"
	"aduanas_portal_backend/internal/documents/repository"
	"aduanas_portal_backend/platform/apperr"
	"aduanas_portal_backend/platform/logger"
)

// CaseLog is the slice of the aforo repository the document flow needs: case
// lookup plus the append-only entry writer.
type CaseLog interface {
	GetByNE(ctx context.Context, ne string) (aforodomain.Case, error)
	AppendCaseEntry(ctx context.Context, caseID uuid.UUID, ne string, entry aforodomain.UpdateEntry) error
}

// Service coordinates object storage and the attachment ledger.
type Service struct {
	repo    repository.Repository
	cases   CaseLog
	store   storage.Service
	bucket  string
	enabled bool
	log     *logger.Logger
	now     func() time.Time
}

// New creates a document service. When enabled is false every operation
// returns a validation error, so deployments without MinIO still boot.
func New(repo repository.Repository, cases CaseLog, store storage.Service, bucket string, enabled bool, log *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		cases:   cases,
		store:   store,
		bucket:  bucket,
		enabled: enabled,
		log:     log,
		now:     time.Now,
	}
}

// UploadRequest describes a pending file upload for a case.
type UploadRequest struct {
	NE          string
	FileName    string
	ContentType string
	SizeBytes   int64
}

// RequestUpload validates the file and issues a presigned PUT URL. Nothing is
// recorded until the upload is confirmed.
func (s *Service) RequestUpload(ctx context.Context, req UploadRequest) (*storage.PresignedURL, error) {
	if err := s.checkEnabled(); err != nil {
		return nil, err
	}

	if _, err := s.cases.GetByNE(ctx, req.NE); err != nil {
		return nil, err
	}

	presigned, err := s.store.GenerateUploadURL(ctx, s.bucket, req.NE, req.FileName, req.ContentType, req.SizeBytes)
	if err != nil {
		return nil, err
	}
	return presigned, nil
}

// ConfirmParams confirms a completed upload.
type ConfirmParams struct {
	NE          string
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	Actor       string
}

// ConfirmUpload records the attachment row and appends a document_update
// entry on the case's log path.
func (s *Service) ConfirmUpload(ctx context.Context, p ConfirmParams) (repository.Document, error) {
	if err := s.checkEnabled(); err != nil {
		return repository.Document{}, err
	}

	c, err := s.cases.GetByNE(ctx, p.NE)
	if err != nil {
		return repository.Document{}, err
	}

	now := s.now()
	doc := repository.Document{
		ID:          uuid.New(),
		CaseID:      c.ID,
		NE:          p.NE,
		FileKey:     p.FileKey,
		FileName:    p.FileName,
		ContentType: p.ContentType,
		SizeBytes:   p.SizeBytes,
		UploadedBy:  p.Actor,
		CreatedAt:   now,
	}
	if err := s.repo.Create(ctx, doc); err != nil {
		return repository.Document{}, err
	}

	entry := aforodomain.UpdateEntry{
		Field:     aforodomain.TagDocumentUpdate,
		NewValue:  p.FileName,
		Comment:   fmt.Sprintf("Documento adjuntado: %s", p.FileName),
		UpdatedBy: p.Actor,
		At:        now,
	}
	if err := s.cases.AppendCaseEntry(ctx, c.ID, p.NE, entry); err != nil {
		// The attachment row exists; the missing log entry is the lesser
		// failure. Surface it so the client can retry.
		return repository.Document{}, err
	}

	s.log.WithContext(ctx).Info("document attached", "ne", p.NE, "file", p.FileName, "actor", p.Actor)
	return doc, nil
}

// List returns the attachments on a case, newest first.
func (s *Service) List(ctx context.Context, ne string) ([]repository.Document, error) {
	if _, err := s.cases.GetByNE(ctx, ne); err != nil {
		return nil, err
	}
	return s.repo.ListByNE(ctx, ne)
}

// DownloadURL issues a presigned GET URL for an existing attachment.
func (s *Service) DownloadURL(ctx context.Context, id uuid.UUID) (*storage.PresignedURL, error) {
	if err := s.checkEnabled(); err != nil {
		return nil, err
	}

	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.store.GenerateDownloadURL(ctx, s.bucket, doc.FileKey)
}

// Delete removes an attachment from storage and the ledger, and appends a
// document_update entry noting the removal.
func (s *Service) Delete(ctx context.Context, id uuid.UUID, actor string) error {
	if err := s.checkEnabled(); err != nil {
		return err
	}

	doc, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteObject(ctx, s.bucket, doc.FileKey); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	entry := aforodomain.UpdateEntry{
		Field:     aforodomain.TagDocumentUpdate,
		OldValue:  doc.FileName,
		Comment:   fmt.Sprintf("Documento eliminado: %s", doc.FileName),
		UpdatedBy: actor,
		At:        s.now(),
	}
	return s.cases.AppendCaseEntry(ctx, doc.CaseID, doc.NE, entry)
}

func (s *Service) checkEnabled() error {
	if !s.enabled {
		return apperr.Validation("document storage is not configured")
	}
	return nil
}

// compile-time check that the aforo repository satisfies CaseLog
var _ CaseLog = (afororepo.Repository)(nil)
