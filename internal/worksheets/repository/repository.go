package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	aforodomain "aduanas_portal_backend/internal/aforo/domain"
	"aduanas_portal_backend/internal/worksheets/domain"
	"aduanas_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const worksheetColumns = `
	id, ne, executive, consignee, consignee_phone, classification,
	logistics, is_archived, created_at, updated_at`

// Repo is the pgx-backed worksheets repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates the worksheets repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// GetByID loads a worksheet by its id.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (domain.Worksheet, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+worksheetColumns+` FROM worksheets WHERE id = $1`, id)
	return scanWorksheet(row)
}

// GetByNE loads a worksheet by its NE.
func (r *Repo) GetByNE(ctx context.Context, ne string) (domain.Worksheet, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+worksheetColumns+` FROM worksheets WHERE ne = $1`, ne)
	return scanWorksheet(row)
}

// List returns worksheets matching the explicit filter plus the unpaginated
// total.
func (r *Repo) List(ctx context.Context, filter WorksheetFilter) ([]domain.Worksheet, int, error) {
	conditions := make([]string, 0, 5)
	args := make([]interface{}, 0, 5)

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Classification != nil {
		addCondition("classification = $%d", *filter.Classification)
	}
	if filter.Archived != nil {
		addCondition("is_archived = $%d", *filter.Archived)
	}
	if filter.CreatedFrom != nil {
		addCondition("created_at >= $%d", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		addCondition("created_at <= $%d", *filter.CreatedTo)
	}
	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		conditions = append(conditions,
			fmt.Sprintf("(ne ILIKE $%d OR executive ILIKE $%d OR consignee ILIKE $%d)", n, n, n))
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM worksheets`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT `+worksheetColumns+` FROM worksheets%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	sheets := make([]domain.Worksheet, 0)
	for rows.Next() {
		w, err := scanWorksheet(rows)
		if err != nil {
			return nil, 0, err
		}
		sheets = append(sheets, w)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return sheets, total, nil
}

// CreatePair inserts the worksheet and its paired aforo case atomically. The
// NE must be free in both tables; a hit aborts the whole batch with a
// conflict before anything is written.
func (r *Repo) CreatePair(ctx context.Context, w PairWrite) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var inWorksheets, inCases bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM worksheets WHERE ne = $1)`, w.Worksheet.NE).Scan(&inWorksheets); err != nil {
		return err
	}
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM aforo_cases WHERE ne = $1)`, w.Worksheet.NE).Scan(&inCases); err != nil {
		return err
	}
	if inWorksheets || inCases {
		return apperr.Conflict("NE " + w.Worksheet.NE + " already exists")
	}

	logistics, err := json.Marshal(w.Worksheet.Logistics)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO worksheets (id, ne, executive, consignee, consignee_phone, classification, logistics, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, w.Worksheet.ID, w.Worksheet.NE, w.Worksheet.Executive, w.Worksheet.Consignee,
		w.Worksheet.ConsigneePhone, w.Worksheet.Classification, logistics,
		w.Worksheet.IsArchived, w.Worksheet.CreatedAt, w.Worksheet.UpdatedAt)
	if err != nil {
		return err
	}

	comments, err := json.Marshal(w.Case.ExecutiveComments)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO aforo_cases (
			id, ne, worksheet_id,
			aforador_status, revisor_status, preliquidation_status,
			digitacion_status, facturacion_status,
			is_archived, executive_comments, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, w.Case.ID, w.Case.NE, w.Case.WorksheetID,
		w.Case.AforadorStatus, w.Case.RevisorStatus, w.Case.PreliquidationStatus,
		w.Case.DigitacionStatus, w.Case.FacturacionStatus,
		w.Case.IsArchived, comments, w.Case.CreatedAt, w.Case.UpdatedAt)
	if err != nil {
		return err
	}

	if err := insertEntryTx(ctx, tx, "worksheet", w.Worksheet.ID, w.Worksheet.NE, w.WorksheetEntry); err != nil {
		return err
	}
	if err := insertEntryTx(ctx, tx, "case", w.Case.ID, w.Case.NE, w.CaseEntry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// Update persists a worksheet update together with its document_update log
// entry.
func (r *Repo) Update(ctx context.Context, w UpdateWrite) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	logistics, err := json.Marshal(w.Worksheet.Logistics)
	if err != nil {
		return err
	}
	tag, err := tx.Exec(ctx, `
		UPDATE worksheets SET
			executive = $2, consignee = $3, consignee_phone = $4,
			classification = $5, logistics = $6, updated_at = $7
		WHERE id = $1
	`, w.Worksheet.ID, w.Worksheet.Executive, w.Worksheet.Consignee,
		w.Worksheet.ConsigneePhone, w.Worksheet.Classification, logistics, w.Worksheet.UpdatedAt)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("worksheet not found")
	}

	if err := insertEntryTx(ctx, tx, "worksheet", w.Worksheet.ID, w.Worksheet.NE, w.Entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func insertEntryTx(ctx context.Context, tx pgx.Tx, kind string, entityID uuid.UUID, ne string, e aforodomain.UpdateEntry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO case_updates (entity_kind, entity_id, ne, field, old_value, new_value, comment, updated_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, kind, entityID, ne, e.Field,
		nullable(e.OldValue), nullable(e.NewValue), nullable(e.Comment),
		e.UpdatedBy, e.At)
	return err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanWorksheet(s rowScanner) (domain.Worksheet, error) {
	var w domain.Worksheet
	var logistics []byte
	err := s.Scan(
		&w.ID, &w.NE, &w.Executive, &w.Consignee, &w.ConsigneePhone,
		&w.Classification, &logistics, &w.IsArchived, &w.CreatedAt, &w.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Worksheet{}, apperr.NotFound("worksheet not found")
		}
		return domain.Worksheet{}, err
	}
	if len(logistics) > 0 {
		_ = json.Unmarshal(logistics, &w.Logistics)
	}
	return w, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
