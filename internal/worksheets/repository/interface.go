package repository

import (
	"context"
	"time"

	aforodomain "aduanas_portal_backend/internal/aforo/domain"
	"aduanas_portal_backend/internal/worksheets/domain"

	"github.com/google/uuid"
)

// WorksheetFilter is the explicit query configuration for worksheet lists.
type WorksheetFilter struct {
	Classification *string
	Archived       *bool
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	// Search matches NE, executive and consignee substrings
	// case-insensitively.
	Search string
	Limit  int
	Offset int
}

// PairWrite stages the atomic creation of a worksheet and its aforo case,
// with one creation entry on each side's log path.
type PairWrite struct {
	Worksheet      domain.Worksheet
	Case           aforodomain.Case
	WorksheetEntry aforodomain.UpdateEntry
	CaseEntry      aforodomain.UpdateEntry
}

// UpdateWrite stages one worksheet update plus its document_update entry.
type UpdateWrite struct {
	Worksheet domain.Worksheet
	Entry     aforodomain.UpdateEntry
}

// Reader provides read access to worksheets.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (domain.Worksheet, error)
	GetByNE(ctx context.Context, ne string) (domain.Worksheet, error)
	List(ctx context.Context, filter WorksheetFilter) ([]domain.Worksheet, int, error)
}

// Writer commits staged worksheet writes, each in one transaction.
type Writer interface {
	CreatePair(ctx context.Context, w PairWrite) error
	Update(ctx context.Context, w UpdateWrite) error
}

// Repository is the full worksheets persistence contract.
type Repository interface {
	Reader
	Writer
}
