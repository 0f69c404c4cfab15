package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"aduanas_portal_backend/internal/aforo/domain"
	"aduanas_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const caseNotFoundMessage = "aforo case not found"

// caseColumns is the canonical SELECT column order; scanCase must match it.
const caseColumns = `
	id, ne, worksheet_id,
	aforador_status, revisor_status, preliquidation_status,
	digitacion_status, facturacion_status, incident_status,
	aforador_updated_by, aforador_updated_at,
	revisor_updated_by, revisor_updated_at,
	preliquidation_updated_by, preliquidation_updated_at,
	digitacion_updated_by, digitacion_updated_at,
	facturacion_updated_by, facturacion_updated_at,
	incident_updated_by, incident_updated_at,
	is_archived, facturado_at, executive_comments, created_at, updated_at`

// Repo is the pgx-backed aforo repository.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates the aforo repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var _ Repository = (*Repo)(nil)

// GetByNE loads a case by its NE.
func (r *Repo) GetByNE(ctx context.Context, ne string) (domain.Case, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+caseColumns+` FROM aforo_cases WHERE ne = $1`, ne)
	c, err := scanCase(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Case{}, apperr.NotFound(caseNotFoundMessage)
		}
		return domain.Case{}, err
	}
	return c, nil
}

// ListByNEs loads the cases for the given NEs; missing NEs are simply absent
// from the result, the bulk coordinator reports them individually.
func (r *Repo) ListByNEs(ctx context.Context, nes []string) ([]domain.Case, error) {
	if len(nes) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `SELECT `+caseColumns+` FROM aforo_cases WHERE ne = ANY($1)`, nes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return collectCases(rows)
}

// List returns cases matching the explicit filter plus the unpaginated total.
func (r *Repo) List(ctx context.Context, filter CaseFilter) ([]domain.Case, int, error) {
	conditions := make([]string, 0, 6)
	args := make([]interface{}, 0, 6)

	addCondition := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.AforadorStatus != nil {
		addCondition("aforador_status = $%d", *filter.AforadorStatus)
	}
	if filter.RevisorStatus != nil {
		addCondition("revisor_status = $%d", *filter.RevisorStatus)
	}
	if filter.DigitacionStatus != nil {
		addCondition("digitacion_status = $%d", *filter.DigitacionStatus)
	}
	if filter.FacturacionStatus != nil {
		addCondition("facturacion_status = $%d", *filter.FacturacionStatus)
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
		addCondition("ne ILIKE $%d", "%"+search+"%")
	}

	where := ""
	if len(conditions) > 0 {
		where = " WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM aforo_cases`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`SELECT `+caseColumns+` FROM aforo_cases%s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		where, len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	cases, err := collectCases(rows)
	if err != nil {
		return nil, 0, err
	}
	return cases, total, nil
}

// ListWorksheetRefs returns the paired worksheet id/classification for the
// given case NEs.
func (r *Repo) ListWorksheetRefs(ctx context.Context, nes []string) ([]WorksheetRef, error) {
	if len(nes) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT w.id, w.ne, w.classification
		FROM worksheets w
		JOIN aforo_cases c ON c.worksheet_id = w.id
		WHERE c.ne = ANY($1)
	`, nes)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	refs := make([]WorksheetRef, 0, len(nes))
	for rows.Next() {
		var ref WorksheetRef
		if err := rows.Scan(&ref.ID, &ref.NE, &ref.Classification); err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// CommitTransition persists one case update plus its audit entry atomically.
func (r *Repo) CommitTransition(ctx context.Context, w TransitionWrite) error {
	return r.CommitBulk(ctx, []TransitionWrite{w})
}

// CommitBulk persists every staged write in a single transaction: either all
// selected cases advance together with their log entries, or none do.
func (r *Repo) CommitBulk(ctx context.Context, writes []TransitionWrite) error {
	if len(writes) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, w := range writes {
		if err := updateCaseTx(ctx, tx, w.Case); err != nil {
			return err
		}
		if err := insertEntryTx(ctx, tx, EntityKindCase, w.Case.ID, w.Case.NE, w.Entry); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// CommitArchive flips the archived flag on the case and its paired worksheet
// in one transaction, logging the flip on the worksheet's log path.
func (r *Repo) CommitArchive(ctx context.Context, w ArchiveWrite) error {
	if w.Case.WorksheetID == nil {
		return apperr.Validation("case has no paired worksheet")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := updateCaseTx(ctx, tx, w.Case); err != nil {
		return err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE worksheets SET is_archived = $1, updated_at = $2 WHERE id = $3`,
		w.Archived, w.Case.UpdatedAt, *w.Case.WorksheetID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("paired worksheet not found")
	}

	if err := insertEntryTx(ctx, tx, EntityKindWorksheet, *w.Case.WorksheetID, w.Case.NE, w.Entry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CommitDuplicate runs the duplicate-and-retire batch: point-reads guard the
// fresh NE against collisions in both stores before anything is written, then
// the fresh worksheet+case pair, the retired original, its archived
// worksheet, and both log entries commit together.
func (r *Repo) CommitDuplicate(ctx context.Context, w DuplicateWrite) error {
	if w.Retired.WorksheetID == nil {
		return apperr.Validation("case has no paired worksheet")
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	taken, err := neExistsTx(ctx, tx, w.Fresh.NE)
	if err != nil {
		return err
	}
	if taken {
		return apperr.Conflict("NE " + w.Fresh.NE + " already exists")
	}

	// Clone the original worksheet's descriptive fields under the fresh NE.
	var executive, consignee, consigneePhone, classification string
	var logistics []byte
	err = tx.QueryRow(ctx, `
		SELECT executive, consignee, consignee_phone, classification, logistics
		FROM worksheets WHERE id = $1
	`, *w.Retired.WorksheetID).Scan(&executive, &consignee, &consigneePhone, &classification, &logistics)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperr.NotFound("paired worksheet not found")
		}
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO worksheets (id, ne, executive, consignee, consignee_phone, classification, logistics, is_archived, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, false, $8, $8)
	`, w.NewWorksheetID, w.Fresh.NE, executive, consignee, consigneePhone, classification, logistics, w.Fresh.CreatedAt)
	if err != nil {
		return err
	}

	if err := insertCaseTx(ctx, tx, w.Fresh); err != nil {
		return err
	}
	if err := updateCaseTx(ctx, tx, w.Retired); err != nil {
		return err
	}

	_, err = tx.Exec(ctx,
		`UPDATE worksheets SET is_archived = true, updated_at = $1 WHERE id = $2`,
		w.Retired.UpdatedAt, *w.Retired.WorksheetID)
	if err != nil {
		return err
	}

	if err := insertEntryTx(ctx, tx, EntityKindCase, w.Retired.ID, w.Retired.NE, w.RetiredEntry); err != nil {
		return err
	}
	if err := insertEntryTx(ctx, tx, EntityKindCase, w.Fresh.ID, w.Fresh.NE, w.FreshEntry); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// CommitReclassify persists every worksheet reclassification plus its audit
// entry in a single transaction.
func (r *Repo) CommitReclassify(ctx context.Context, writes []ReclassifyWrite) error {
	if len(writes) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, w := range writes {
		tag, err := tx.Exec(ctx,
			`UPDATE worksheets SET classification = $1, updated_at = $2 WHERE id = $3`,
			w.NewValue, w.Entry.At, w.WorksheetID)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return apperr.NotFound("worksheet not found for " + w.NE)
		}
		if err := insertEntryTx(ctx, tx, EntityKindWorksheet, w.WorksheetID, w.NE, w.Entry); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// AppendCaseEntry appends a standalone log entry (value-doubt reports,
// document updates) on the case's log path.
func (r *Repo) AppendCaseEntry(ctx context.Context, caseID uuid.UUID, ne string, entry domain.UpdateEntry) error {
	return insertEntry(ctx, r.pool, EntityKindCase, caseID, ne, entry)
}

// ListEntriesByNE returns the ordered update log for an NE, both the case
// and the worksheet log paths, oldest first.
func (r *Repo) ListEntriesByNE(ctx context.Context, ne string) ([]UpdateRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, entity_kind, entity_id, ne, field, old_value, new_value, comment, updated_by, created_at
		FROM case_updates
		WHERE ne = $1
		ORDER BY created_at ASC, id ASC
	`, ne)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]UpdateRecord, 0)
	for rows.Next() {
		var rec UpdateRecord
		if err := rows.Scan(
			&rec.ID, &rec.EntityKind, &rec.EntityID, &rec.NE, &rec.Field,
			&rec.OldValue, &rec.NewValue, &rec.Comment, &rec.UpdatedBy, &rec.CreatedAt,
		); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// =============================================================================
// Internal helpers
// =============================================================================

func neExistsTx(ctx context.Context, tx pgx.Tx, ne string) (bool, error) {
	var inWorksheets, inCases bool
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM worksheets WHERE ne = $1)`, ne).Scan(&inWorksheets); err != nil {
		return false, err
	}
	if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM aforo_cases WHERE ne = $1)`, ne).Scan(&inCases); err != nil {
		return false, err
	}
	return inWorksheets || inCases, nil
}

func insertCaseTx(ctx context.Context, tx pgx.Tx, c domain.Case) error {
	comments, err := json.Marshal(c.ExecutiveComments)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO aforo_cases (
			id, ne, worksheet_id,
			aforador_status, revisor_status, preliquidation_status,
			digitacion_status, facturacion_status, incident_status,
			aforador_updated_by, aforador_updated_at,
			revisor_updated_by, revisor_updated_at,
			preliquidation_updated_by, preliquidation_updated_at,
			digitacion_updated_by, digitacion_updated_at,
			facturacion_updated_by, facturacion_updated_at,
			incident_updated_by, incident_updated_at,
			is_archived, facturado_at, executive_comments, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9,
			$10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21,
			$22, $23, $24, $25, $26
		)
	`, caseArgs(c, comments)...)
	return err
}

func updateCaseTx(ctx context.Context, tx pgx.Tx, c domain.Case) error {
	comments, err := json.Marshal(c.ExecutiveComments)
	if err != nil {
		return err
	}

	tag, err := tx.Exec(ctx, `
		UPDATE aforo_cases SET
			ne = $2, worksheet_id = $3,
			aforador_status = $4, revisor_status = $5, preliquidation_status = $6,
			digitacion_status = $7, facturacion_status = $8, incident_status = $9,
			aforador_updated_by = $10, aforador_updated_at = $11,
			revisor_updated_by = $12, revisor_updated_at = $13,
			preliquidation_updated_by = $14, preliquidation_updated_at = $15,
			digitacion_updated_by = $16, digitacion_updated_at = $17,
			facturacion_updated_by = $18, facturacion_updated_at = $19,
			incident_updated_by = $20, incident_updated_at = $21,
			is_archived = $22, facturado_at = $23, executive_comments = $24,
			created_at = $25, updated_at = $26
		WHERE id = $1
	`, caseArgs(c, comments)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound(caseNotFoundMessage)
	}
	return nil
}

func caseArgs(c domain.Case, comments []byte) []interface{} {
	return []interface{}{
		c.ID, c.NE, c.WorksheetID,
		c.AforadorStatus, c.RevisorStatus, c.PreliquidationStatus,
		c.DigitacionStatus, c.FacturacionStatus, nullableString(c.IncidentStatus),
		nullableString(c.AforadorLastUpdate.By), nullableTime(c.AforadorLastUpdate.At),
		nullableString(c.RevisorLastUpdate.By), nullableTime(c.RevisorLastUpdate.At),
		nullableString(c.PreliquidationLastUpdate.By), nullableTime(c.PreliquidationLastUpdate.At),
		nullableString(c.DigitacionLastUpdate.By), nullableTime(c.DigitacionLastUpdate.At),
		nullableString(c.FacturacionLastUpdate.By), nullableTime(c.FacturacionLastUpdate.At),
		nullableString(c.IncidentLastUpdate.By), nullableTime(c.IncidentLastUpdate.At),
		c.IsArchived, c.FacturadoAt, comments, c.CreatedAt, c.UpdatedAt,
	}
}

func insertEntryTx(ctx context.Context, tx pgx.Tx, kind string, entityID uuid.UUID, ne string, e domain.UpdateEntry) error {
	_, err := tx.Exec(ctx, insertEntrySQL, entryArgs(kind, entityID, ne, e)...)
	return err
}

func insertEntry(ctx context.Context, pool *pgxpool.Pool, kind string, entityID uuid.UUID, ne string, e domain.UpdateEntry) error {
	_, err := pool.Exec(ctx, insertEntrySQL, entryArgs(kind, entityID, ne, e)...)
	return err
}

const insertEntrySQL = `
	INSERT INTO case_updates (entity_kind, entity_id, ne, field, old_value, new_value, comment, updated_by, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

func entryArgs(kind string, entityID uuid.UUID, ne string, e domain.UpdateEntry) []interface{} {
	return []interface{}{
		kind, entityID, ne, e.Field,
		nullableString(e.OldValue), nullableString(e.NewValue), nullableString(e.Comment),
		e.UpdatedBy, e.At,
	}
}

// caseRowScanner is satisfied by pgx.Rows and pgx.Row so that scanCase can be
// shared between single-row and multi-row queries.
type caseRowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCase(s caseRowScanner) (domain.Case, error) {
	var c domain.Case
	var incidentStatus *string
	var comments []byte
	var lastUpdates [6]struct {
		by *string
		at *time.Time
	}

	if err := s.Scan(
		&c.ID, &c.NE, &c.WorksheetID,
		&c.AforadorStatus, &c.RevisorStatus, &c.PreliquidationStatus,
		&c.DigitacionStatus, &c.FacturacionStatus, &incidentStatus,
		&lastUpdates[0].by, &lastUpdates[0].at,
		&lastUpdates[1].by, &lastUpdates[1].at,
		&lastUpdates[2].by, &lastUpdates[2].at,
		&lastUpdates[3].by, &lastUpdates[3].at,
		&lastUpdates[4].by, &lastUpdates[4].at,
		&lastUpdates[5].by, &lastUpdates[5].at,
		&c.IsArchived, &c.FacturadoAt, &comments, &c.CreatedAt, &c.UpdatedAt,
	); err != nil {
		return domain.Case{}, err
	}

	if incidentStatus != nil {
		c.IncidentStatus = *incidentStatus
	}
	c.AforadorLastUpdate = toLastUpdate(lastUpdates[0].by, lastUpdates[0].at)
	c.RevisorLastUpdate = toLastUpdate(lastUpdates[1].by, lastUpdates[1].at)
	c.PreliquidationLastUpdate = toLastUpdate(lastUpdates[2].by, lastUpdates[2].at)
	c.DigitacionLastUpdate = toLastUpdate(lastUpdates[3].by, lastUpdates[3].at)
	c.FacturacionLastUpdate = toLastUpdate(lastUpdates[4].by, lastUpdates[4].at)
	c.IncidentLastUpdate = toLastUpdate(lastUpdates[5].by, lastUpdates[5].at)

	if len(comments) > 0 {
		_ = json.Unmarshal(comments, &c.ExecutiveComments)
	}

	return c, nil
}

func collectCases(rows pgx.Rows) ([]domain.Case, error) {
	cases := make([]domain.Case, 0)
	for rows.Next() {
		c, err := scanCase(rows)
		if err != nil {
			return nil, err
		}
		cases = append(cases, c)
	}
	return cases, rows.Err()
}

func toLastUpdate(by *string, at *time.Time) domain.LastUpdateInfo {
	var info domain.LastUpdateInfo
	if by != nil {
		info.By = *by
	}
	if at != nil {
		info.At = *at
	}
	return info
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
