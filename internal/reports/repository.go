package reports

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"aduanas_portal_backend/platform/apperr"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrAPIKeyNotFound = errors.New("report API key not found")

const apiKeyPrefix = "adrep_"

// APIKey represents a report API key stored in the database.
type APIKey struct {
	ID         uuid.UUID
	Name       string
	KeyHash    string
	KeyPrefix  string
	IsActive   bool
	CreatedBy  *uuid.UUID
	CreatedAt  time.Time
	UpdatedAt  time.Time
	LastUsedAt *time.Time
}

// CaseSnapshot is the flattened case + worksheet view served by the
// reporting boundary.
type CaseSnapshot struct {
	NE                   string
	Executive            string
	Consignee            string
	Classification       string
	AforadorStatus       string
	RevisorStatus        string
	PreliquidationStatus string
	DigitacionStatus     string
	FacturacionStatus    string
	IncidentStatus       *string
	IsArchived           bool
	FacturadoAt          *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// UpdateRow is one update-log row as exported to CSV.
type UpdateRow struct {
	NE         string
	EntityKind string
	Field      string
	OldValue   *string
	NewValue   *string
	Comment    *string
	UpdatedBy  string
	CreatedAt  time.Time
}

// Repository provides data access for the reporting boundary.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates the reports repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// GenerateAPIKey creates a new random API key and returns the plaintext key
// and its hash.
func GenerateAPIKey() (plaintext string, hash string, prefix string, err error) {
	bytes := make([]byte, 32)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", "", err
	}
	plaintext = apiKeyPrefix + hex.EncodeToString(bytes)
	h := sha256.Sum256([]byte(plaintext))
	hash = hex.EncodeToString(h[:])
	prefix = plaintext[:12]
	return plaintext, hash, prefix, nil
}

// HashKey hashes a plaintext API key for lookup.
func HashKey(plaintext string) string {
	h := sha256.Sum256([]byte(plaintext))
	return hex.EncodeToString(h[:])
}

// GetCaseSnapshot returns the joined case + worksheet view for one NE.
func (r *Repository) GetCaseSnapshot(ctx context.Context, ne string) (CaseSnapshot, error) {
	var s CaseSnapshot
	err := r.pool.QueryRow(ctx, `
		SELECT c.ne, w.executive, w.consignee, w.classification,
			c.aforador_status, c.revisor_status, c.preliquidation_status,
			c.digitacion_status, c.facturacion_status, c.incident_status,
			c.is_archived, c.facturado_at, c.created_at, c.updated_at
		FROM aforo_cases c
		JOIN worksheets w ON w.id = c.worksheet_id
		WHERE c.ne = $1
	`, ne).Scan(
		&s.NE, &s.Executive, &s.Consignee, &s.Classification,
		&s.AforadorStatus, &s.RevisorStatus, &s.PreliquidationStatus,
		&s.DigitacionStatus, &s.FacturacionStatus, &s.IncidentStatus,
		&s.IsArchived, &s.FacturadoAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return CaseSnapshot{}, apperr.NotFound("aforo case not found")
	}
	return s, err
}

// ListUpdateRows returns update-log rows over a date range, oldest first.
func (r *Repository) ListUpdateRows(ctx context.Context, from, to time.Time, limit int) ([]UpdateRow, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT ne, entity_kind, field, old_value, new_value, comment, updated_by, created_at
		FROM case_updates
		WHERE created_at >= $1 AND created_at <= $2
		ORDER BY created_at ASC
		LIMIT $3
	`, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]UpdateRow, 0)
	for rows.Next() {
		var row UpdateRow
		if err := rows.Scan(&row.NE, &row.EntityKind, &row.Field, &row.OldValue, &row.NewValue, &row.Comment, &row.UpdatedBy, &row.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, row)
	}
	return items, rows.Err()
}

// CreateAPIKey creates a new report API key record.
func (r *Repository) CreateAPIKey(ctx context.Context, name, keyHash, keyPrefix string, createdBy *uuid.UUID) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx, `
		INSERT INTO report_api_keys (name, key_hash, key_prefix, created_by)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, key_hash, key_prefix, is_active, created_by, created_at, updated_at, last_used_at
	`, name, keyHash, keyPrefix, createdBy).Scan(
		&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &key.IsActive, &key.CreatedBy, &key.CreatedAt, &key.UpdatedAt, &key.LastUsedAt,
	)
	return key, err
}

// GetAPIKeyByHash retrieves an active API key by its hash.
func (r *Repository) GetAPIKeyByHash(ctx context.Context, keyHash string) (APIKey, error) {
	var key APIKey
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, key_hash, key_prefix, is_active, created_by, created_at, updated_at, last_used_at
		FROM report_api_keys
		WHERE key_hash = $1 AND is_active = true
	`, keyHash).Scan(
		&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &key.IsActive, &key.CreatedBy, &key.CreatedAt, &key.UpdatedAt, &key.LastUsedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return APIKey{}, ErrAPIKeyNotFound
	}
	return key, err
}

// ListAPIKeys returns all report API keys.
func (r *Repository) ListAPIKeys(ctx context.Context) ([]APIKey, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, key_hash, key_prefix, is_active, created_by, created_at, updated_at, last_used_at
		FROM report_api_keys
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make([]APIKey, 0)
	for rows.Next() {
		var key APIKey
		if err := rows.Scan(
			&key.ID, &key.Name, &key.KeyHash, &key.KeyPrefix, &key.IsActive, &key.CreatedBy, &key.CreatedAt, &key.UpdatedAt, &key.LastUsedAt,
		); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

// RevokeAPIKey deactivates a report API key.
func (r *Repository) RevokeAPIKey(ctx context.Context, keyID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE report_api_keys SET is_active = false, updated_at = now()
		WHERE id = $1
	`, keyID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrAPIKeyNotFound
	}
	return nil
}

// TouchAPIKey updates the last_used_at timestamp for the key.
func (r *Repository) TouchAPIKey(ctx context.Context, keyID uuid.UUID) {
	_, _ = r.pool.Exec(ctx, `
		UPDATE report_api_keys SET last_used_at = now(), updated_at = now()
		WHERE id = $1
	`, keyID)
}
