// Package service records duplicate validation resolutions in the
// append-only ledger.
package service

import (
	"context"
	"strings"
	"time"

	appevents "aduanas_portal_backend/internal/events"
	"aduanas_portal_backend/internal/validaciones/repository"
	"aduanas_portal_backend/platform/apperr"
	"aduanas_portal_backend/platform/events"
	"aduanas_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Resolution outcomes: either the flagged NE turned out not to be a
// duplicate, or the redundant documents were handed off for deletion.
const (
	OutcomeNotDuplicate      = "validated_not_duplicate"
	OutcomeDeletionRequested = "deletion_requested"
)

var validOutcomes = map[string]struct{}{
	OutcomeNotDuplicate:      {},
	OutcomeDeletionRequested: {},
}

// Service implements the duplicate validation ledger.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
	bus  events.Bus
	now  func() time.Time
}

// New creates the validaciones service.
func New(repo repository.Repository, log *logger.Logger, bus events.Bus) *Service {
	return &Service{
		repo: repo,
		log:  log,
		bus:  bus,
		now:  time.Now,
	}
}

// RecordParams carries one duplicate resolution.
type RecordParams struct {
	DuplicateNE  string
	DuplicateIDs []string
	Outcome      string
	Comment      string
	ResolvedBy   string
}

// RecordResolution appends one immutable ledger row.
func (s *Service) RecordResolution(ctx context.Context, p RecordParams) (repository.Record, error) {
	if strings.TrimSpace(p.ResolvedBy) == "" {
		return repository.Record{}, apperr.Validation("resolver identity is required")
	}
	if strings.TrimSpace(p.DuplicateNE) == "" {
		return repository.Record{}, apperr.Validation("the duplicate NE is required")
	}
	if _, ok := validOutcomes[p.Outcome]; !ok {
		return repository.Record{}, apperr.Validation("outcome must be validated_not_duplicate or deletion_requested")
	}

	rec := repository.Record{
		ID:           uuid.New(),
		DuplicateNE:  strings.TrimSpace(p.DuplicateNE),
		DuplicateIDs: p.DuplicateIDs,
		ResolvedBy:   p.ResolvedBy,
		Outcome:      p.Outcome,
		Comment:      strings.TrimSpace(p.Comment),
		CreatedAt:    s.now(),
	}
	if err := s.repo.Append(ctx, rec); err != nil {
		return repository.Record{}, err
	}

	s.bus.Publish(ctx, appevents.DuplicateResolvedEvent{
		BaseEvent:   events.NewBaseEvent(),
		DuplicateNE: rec.DuplicateNE,
		Outcome:     rec.Outcome,
		ResolvedBy:  rec.ResolvedBy,
	})

	return rec, nil
}

// List returns ledger rows matching the filter, newest first.
func (s *Service) List(ctx context.Context, filter repository.Filter) ([]repository.Record, int, error) {
	return s.repo.List(ctx, filter)
}
