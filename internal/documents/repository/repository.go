// Package repository persists case document attachments.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"aduanas_portal_backend/platform/apperr"
)

// Document is one confirmed attachment on a case.
type Document struct {
	ID          uuid.UUID
	CaseID      uuid.UUID
	NE          string
	FileKey     string
	FileName    string
	ContentType string
	SizeBytes   int64
	UploadedBy  string
	CreatedAt   time.Time
}

// Repository defines persistence for case documents.
type Repository interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, id uuid.UUID) (Document, error)
	ListByNE(ctx context.Context, ne string) ([]Document, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Repo implements Repository backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a document repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const documentColumns = `id, case_id, ne, file_key, file_name, content_type, size_bytes, uploaded_by, created_at`

func (r *Repo) Create(ctx context.Context, doc Document) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO case_documents (id, case_id, ne, file_key, file_name, content_type, size_bytes, uploaded_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.ID, doc.CaseID, doc.NE, doc.FileKey, doc.FileName, doc.ContentType, doc.SizeBytes, doc.UploadedBy, doc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert case document: %w", err)
	}
	return nil
}

func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (Document, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+documentColumns+` FROM case_documents WHERE id = $1`, id)

	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Document{}, apperr.NotFound("document not found")
		}
		return Document{}, fmt.Errorf("get case document: %w", err)
	}
	return doc, nil
}

func (r *Repo) ListByNE(ctx context.Context, ne string) ([]Document, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+documentColumns+`
		FROM case_documents
		WHERE ne = $1
		ORDER BY created_at DESC`, ne)
	if err != nil {
		return nil, fmt.Errorf("list case documents: %w", err)
	}
	defer rows.Close()

	docs := make([]Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan case document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func (r *Repo) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM case_documents WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete case document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("document not found")
	}
	return nil
}

func scanDocument(row pgx.Row) (Document, error) {
	var doc Document
	err := row.Scan(
		&doc.ID, &doc.CaseID, &doc.NE, &doc.FileKey, &doc.FileName,
		&doc.ContentType, &doc.SizeBytes, &doc.UploadedBy, &doc.CreatedAt,
	)
	return doc, err
}
