package repository

import (
	"context"
	"time"

	"aduanas_portal_backend/internal/aforo/domain"

	"github.com/google/uuid"
)

// UpdateRecord is one persisted update-log row. Rows are append-only: no
// code path updates or deletes them.
type UpdateRecord struct {
	ID         uuid.UUID
	EntityKind string // "case" or "worksheet"
	EntityID   uuid.UUID
	NE         string
	Field      string
	OldValue   *string
	NewValue   *string
	Comment    *string
	UpdatedBy  string
	CreatedAt  time.Time
}

// Log-path entity kinds.
const (
	EntityKindCase      = "case"
	EntityKindWorksheet = "worksheet"
)

// CaseFilter is the explicit, passed-in query configuration for case lists.
// No ambient filter state exists; every query names its own constraints.
type CaseFilter struct {
	AforadorStatus    *string
	RevisorStatus     *string
	DigitacionStatus  *string
	FacturacionStatus *string
	Archived          *bool
	CreatedFrom       *time.Time
	CreatedTo         *time.Time
	// Search matches NE substrings case-insensitively.
	Search string
	Limit  int
	Offset int
}

// TransitionWrite stages one case update plus its single audit entry. The
// two are committed together or not at all.
type TransitionWrite struct {
	Case  domain.Case
	Entry domain.UpdateEntry
}

// ArchiveWrite stages an archive/restore flip for a case and its paired
// worksheet, with the audit entry on the worksheet's log path.
type ArchiveWrite struct {
	Case     domain.Case
	Archived bool
	Entry    domain.UpdateEntry
}

// DuplicateWrite stages the duplicate-and-retire batch: the retired original
// (plus its archived worksheet), the fresh worksheet+case pair cloned from
// the original's descriptive fields, and one log entry per side.
type DuplicateWrite struct {
	Retired         domain.Case
	Fresh           domain.Case
	NewWorksheetID  uuid.UUID
	RetiredEntry    domain.UpdateEntry
	FreshEntry      domain.UpdateEntry
}

// WorksheetRef is the slice of worksheet state the bulk reclassify
// coordinator needs.
type WorksheetRef struct {
	ID             uuid.UUID
	NE             string
	Classification string
}

// ReclassifyWrite stages one worksheet reclassification plus its audit entry.
type ReclassifyWrite struct {
	WorksheetID uuid.UUID
	NE          string
	NewValue    string
	Entry       domain.UpdateEntry
}

// CaseReader provides read access to aforo cases.
type CaseReader interface {
	GetByNE(ctx context.Context, ne string) (domain.Case, error)
	ListByNEs(ctx context.Context, nes []string) ([]domain.Case, error)
	List(ctx context.Context, filter CaseFilter) ([]domain.Case, int, error)
	ListWorksheetRefs(ctx context.Context, nes []string) ([]WorksheetRef, error)
}

// CaseWriter commits staged lifecycle writes. Every method issues exactly one
// transaction; a failure leaves the store untouched.
type CaseWriter interface {
	CommitTransition(ctx context.Context, w TransitionWrite) error
	CommitBulk(ctx context.Context, writes []TransitionWrite) error
	CommitArchive(ctx context.Context, w ArchiveWrite) error
	CommitDuplicate(ctx context.Context, w DuplicateWrite) error
	CommitReclassify(ctx context.Context, writes []ReclassifyWrite) error
	AppendCaseEntry(ctx context.Context, caseID uuid.UUID, ne string, entry domain.UpdateEntry) error
}

// UpdateLogReader reads the ordered, append-only update log.
type UpdateLogReader interface {
	ListEntriesByNE(ctx context.Context, ne string) ([]UpdateRecord, error)
}

// Repository is the full aforo persistence contract.
type Repository interface {
	CaseReader
	CaseWriter
	UpdateLogReader
}
