// Package service coordinates worksheet creation and maintenance. Creating a
// worksheet always creates its paired aforo case in the same transaction.
package service

import (
	"context"
	"sort"
	"strings"
	"time"

	aforodomain "aduanas_portal_backend/internal/aforo/domain"
	appevents "aduanas_portal_backend/internal/events"
	"aduanas_portal_backend/internal/worksheets/domain"
	"aduanas_portal_backend/internal/worksheets/repository"
	"aduanas_portal_backend/platform/apperr"
	"aduanas_portal_backend/platform/events"
	"aduanas_portal_backend/platform/logger"
	"aduanas_portal_backend/platform/phone"

	"github.com/google/uuid"
)

// Service implements worksheet operations.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
	bus  events.Bus
	now  func() time.Time
}

// New creates the worksheets service.
func New(repo repository.Repository, log *logger.Logger, bus events.Bus) *Service {
	return &Service{
		repo: repo,
		log:  log,
		bus:  bus,
		now:  time.Now,
	}
}

// CreateParams carries the fields for a new worksheet.
type CreateParams struct {
	NE             string
	Executive      string
	Consignee      string
	ConsigneePhone string
	Classification string
	Logistics      domain.Logistics
	Actor          string
}

// Create builds the worksheet and its paired aforo case. Both rows plus one
// creation entry per side commit atomically; a duplicate NE aborts the whole
// batch.
func (s *Service) Create(ctx context.Context, p CreateParams) (domain.Worksheet, error) {
	if strings.TrimSpace(p.Actor) == "" {
		return domain.Worksheet{}, apperr.Validation("actor identity is required")
	}
	classification := p.Classification
	if classification == "" {
		classification = domain.ClassificationHojaDeTrabajo
	}
	if !domain.IsValidClassification(classification) {
		return domain.Worksheet{}, apperr.Validation("unknown classification: " + classification)
	}

	now := s.now()
	sheet := domain.Worksheet{
		ID:             uuid.New(),
		NE:             strings.TrimSpace(p.NE),
		Executive:      strings.TrimSpace(p.Executive),
		Consignee:      strings.TrimSpace(p.Consignee),
		ConsigneePhone: phone.NormalizeE164(p.ConsigneePhone),
		Classification: classification,
		Logistics:      p.Logistics,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	aforoCase := aforodomain.NewCase(sheet.NE, sheet.ID, now)

	err := s.repo.CreatePair(ctx, repository.PairWrite{
		Worksheet: sheet,
		Case:      aforoCase,
		WorksheetEntry: aforodomain.UpdateEntry{
			Field:     aforodomain.TagCreation,
			NewValue:  sheet.NE,
			UpdatedBy: p.Actor,
			At:        now,
		},
		CaseEntry: aforodomain.UpdateEntry{
			Field:     aforodomain.TagCreation,
			NewValue:  sheet.NE,
			UpdatedBy: p.Actor,
			At:        now,
		},
	})
	if err != nil {
		return domain.Worksheet{}, err
	}

	s.bus.Publish(ctx, appevents.WorksheetCreatedEvent{
		BaseEvent: events.NewBaseEvent(),
		NE:        sheet.NE,
		Executive: sheet.Executive,
		CreatedBy: p.Actor,
	})

	return sheet, nil
}

// UpdateParams carries the optional fields of a worksheet update. Nil fields
// stay untouched; the entry comment records the changed field set.
type UpdateParams struct {
	Executive      *string
	Consignee      *string
	ConsigneePhone *string
	Logistics      *domain.Logistics
	Actor          string
}

// Update applies the non-nil fields and appends one document_update entry
// naming everything that changed.
func (s *Service) Update(ctx context.Context, ne string, p UpdateParams) (domain.Worksheet, error) {
	if strings.TrimSpace(p.Actor) == "" {
		return domain.Worksheet{}, apperr.Validation("actor identity is required")
	}

	sheet, err := s.repo.GetByNE(ctx, ne)
	if err != nil {
		return domain.Worksheet{}, err
	}

	changed := make([]string, 0, 4)
	if p.Executive != nil && *p.Executive != sheet.Executive {
		sheet.Executive = strings.TrimSpace(*p.Executive)
		changed = append(changed, "executive")
	}
	if p.Consignee != nil && *p.Consignee != sheet.Consignee {
		sheet.Consignee = strings.TrimSpace(*p.Consignee)
		changed = append(changed, "consignee")
	}
	if p.ConsigneePhone != nil {
		normalized := phone.NormalizeE164(*p.ConsigneePhone)
		if normalized != sheet.ConsigneePhone {
			sheet.ConsigneePhone = normalized
			changed = append(changed, "consigneePhone")
		}
	}
	if p.Logistics != nil && *p.Logistics != sheet.Logistics {
		sheet.Logistics = *p.Logistics
		changed = append(changed, "logistics")
	}

	if len(changed) == 0 {
		return sheet, nil
	}
	sort.Strings(changed)

	now := s.now()
	sheet.UpdatedAt = now

	err = s.repo.Update(ctx, repository.UpdateWrite{
		Worksheet: sheet,
		Entry: aforodomain.UpdateEntry{
			Field:     aforodomain.TagDocumentUpdate,
			Comment:   "Campos actualizados: " + strings.Join(changed, ", "),
			UpdatedBy: p.Actor,
			At:        now,
		},
	})
	if err != nil {
		return domain.Worksheet{}, err
	}

	return sheet, nil
}

// Get returns the worksheet for the given NE.
func (s *Service) Get(ctx context.Context, ne string) (domain.Worksheet, error) {
	return s.repo.GetByNE(ctx, ne)
}

// List returns worksheets matching the filter plus the unpaginated total.
func (s *Service) List(ctx context.Context, filter repository.WorksheetFilter) ([]domain.Worksheet, int, error) {
	return s.repo.List(ctx, filter)
}
