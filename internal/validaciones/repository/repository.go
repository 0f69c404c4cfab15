// Package repository persists the append-only duplicate validation ledger.
package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Record is one immutable duplicate-validation resolution. No code path
// updates or deletes these rows.
type Record struct {
	ID           uuid.UUID
	DuplicateNE  string
	DuplicateIDs []string
	ResolvedBy   string
	Outcome      string
	Comment      string
	CreatedAt    time.Time
}

// Filter is the explicit query configuration for ledger lists.
type Filter struct {
	// NE matches duplicate-NE substrings case-insensitively.
	NE string
	// ResolvedBy matches resolver substrings case-insensitively.
	ResolvedBy string
	Limit      int
	Offset     int
}

// Repository is the ledger persistence contract.
type Repository interface {
	Append(ctx context.Context, rec Record) error
	List(ctx context.Context, filter Filter) ([]Record, int, error)
}

// Repo is the pgx-backed ledger repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates the validaciones repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// Append inserts one ledger row.
func (r *Repo) Append(ctx context.Context, rec Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO validacion_records (id, duplicate_ne, duplicate_ids, resolved_by, outcome, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, rec.ID, rec.DuplicateNE, rec.DuplicateIDs, rec.ResolvedBy, rec.Outcome, rec.Comment, rec.CreatedAt)
	return err
}

// List returns ledger rows newest first, filtered by NE and resolver
// substrings, plus the unpaginated total.
func (r *Repo) List(ctx context.Context, filter Filter) ([]Record, int, error) {
	conditions := make([]string, 0, 2)
	args := make([]interface{}, 0, 2)

	if ne := strings.TrimSpace(filter.NE); ne != "" {
		args = append(args, "%"+ne+"%")
		conditions = append(conditions, fmt.Sprintf("duplicate_ne ILIKE $%d", len(args)))
	}
	if resolver := strings.TrimSpace(filter.ResolvedBy); resolver != "" {
		args = append(args, "%"+resolver+"%")
		conditions = append(conditions, fmt.Sprintf("resolved_by ILIKE $%d", len(args)))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM validacion_records`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
		SELECT id, duplicate_ne, duplicate_ids, resolved_by, outcome, comment, created_at
		FROM validacion_records%s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	records := make([]Record, 0)
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.DuplicateNE, &rec.DuplicateIDs, &rec.ResolvedBy, &rec.Outcome, &rec.Comment, &rec.CreatedAt); err != nil {
			return nil, 0, err
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return records, total, nil
}
