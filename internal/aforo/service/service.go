// Package service coordinates aforo case lifecycle operations: single and
// bulk status transitions, archive/restore of worksheet-case pairs, and
// duplicate-and-retire.
package service

import (
	"context"
	"time"

	"aduanas_portal_backend/internal/aforo/domain"
	"aduanas_portal_backend/internal/aforo/repository"
	appevents "aduanas_portal_backend/internal/events"
	wsdomain "aduanas_portal_backend/internal/worksheets/domain"
	"aduanas_portal_backend/platform/apperr"
	"aduanas_portal_backend/platform/events"
	"aduanas_portal_backend/platform/httpkit"
	"aduanas_portal_backend/platform/logger"

	"github.com/google/uuid"
)

// Service implements the aforo case lifecycle operations.
type Service struct {
	repo repository.Repository
	log  *logger.Logger
	bus  events.Bus
	now  func() time.Time
}

// New creates the aforo service.
func New(repo repository.Repository, log *logger.Logger, bus events.Bus) *Service {
	return &Service{
		repo: repo,
		log:  log,
		bus:  bus,
		now:  time.Now,
	}
}

// GetCase returns the case for the given NE.
func (s *Service) GetCase(ctx context.Context, ne string) (domain.Case, error) {
	return s.repo.GetByNE(ctx, ne)
}

// ListCases returns the cases matching the filter plus the unpaginated total.
func (s *Service) ListCases(ctx context.Context, filter repository.CaseFilter) ([]domain.Case, int, error) {
	return s.repo.List(ctx, filter)
}

// Timeline returns the ordered update log for an NE, oldest first.
func (s *Service) Timeline(ctx context.Context, ne string) ([]repository.UpdateRecord, error) {
	if _, err := s.repo.GetByNE(ctx, ne); err != nil {
		return nil, err
	}
	return s.repo.ListEntriesByNE(ctx, ne)
}

// TransitionParams identifies one status transition request.
type TransitionParams struct {
	NE      string
	Track   domain.Track
	Value   string
	Comment string
	Actor   string
}

// Transition applies one single-track status transition and persists the
// case update together with its audit entry.
func (s *Service) Transition(ctx context.Context, p TransitionParams) (domain.Case, error) {
	c, err := s.repo.GetByNE(ctx, p.NE)
	if err != nil {
		return domain.Case{}, err
	}

	updated, entry, err := domain.ApplyTransition(c, p.Track, p.Value, p.Actor, p.Comment, s.now())
	if err != nil {
		return domain.Case{}, err
	}

	if err := s.repo.CommitTransition(ctx, repository.TransitionWrite{Case: updated, Entry: entry}); err != nil {
		return domain.Case{}, err
	}

	s.log.CaseTransition(updated.NE, string(p.Track), entry.OldValue, entry.NewValue, p.Actor)
	s.publishIfRejection(updated.NE, p.Track, p.Value, p.Comment, p.Actor)

	return updated, nil
}

// BulkFailure records why one NE was excluded from a bulk operation.
type BulkFailure struct {
	NE     string `json:"ne"`
	Reason string `json:"reason"`
}

// BulkResult reports the outcome of a bulk operation. Applied NEs were
// committed together in one transaction; Failed NEs were excluded up front
// and never partially written.
type BulkResult struct {
	Applied []string      `json:"applied"`
	Failed  []BulkFailure `json:"failed"`
}

// ApplyBulk runs fn over every selected case and commits the surviving
// writes in a single transaction. Cases that cannot be loaded, that have no
// paired worksheet, or that fn rejects are reported in Failed and excluded
// before anything touches the store, so a commit failure leaves every case
// unchanged.
func (s *Service) ApplyBulk(ctx context.Context, nes []string, actor string, fn func(domain.Case) (domain.Case, domain.UpdateEntry, error)) (BulkResult, error) {
	if len(nes) == 0 {
		return BulkResult{}, apperr.Validation("at least one NE is required")
	}

	cases, err := s.repo.ListByNEs(ctx, nes)
	if err != nil {
		return BulkResult{}, err
	}
	byNE := make(map[string]domain.Case, len(cases))
	for _, c := range cases {
		byNE[c.NE] = c
	}

	result := BulkResult{Applied: make([]string, 0, len(nes))}
	writes := make([]repository.TransitionWrite, 0, len(nes))
	seen := make(map[string]struct{}, len(nes))

	for _, ne := range nes {
		if _, dup := seen[ne]; dup {
			continue
		}
		seen[ne] = struct{}{}

		c, ok := byNE[ne]
		if !ok {
			result.Failed = append(result.Failed, BulkFailure{NE: ne, Reason: "case not found"})
			continue
		}
		if c.WorksheetID == nil {
			result.Failed = append(result.Failed, BulkFailure{NE: ne, Reason: "missing worksheetId"})
			continue
		}
		updated, entry, err := fn(c)
		if err != nil {
			result.Failed = append(result.Failed, BulkFailure{NE: ne, Reason: err.Error()})
			continue
		}
		writes = append(writes, repository.TransitionWrite{Case: updated, Entry: entry})
		result.Applied = append(result.Applied, ne)
	}

	if len(writes) > 0 {
		if err := s.repo.CommitBulk(ctx, writes); err != nil {
			return BulkResult{}, err
		}
	}

	s.log.BulkOperation("bulk_transition", len(result.Applied), len(result.Failed), actor)
	return result, nil
}

// BulkApproveRevisor moves the revisor track to Aprobado on every selected
// case.
func (s *Service) BulkApproveRevisor(ctx context.Context, nes []string, actor, comment string) (BulkResult, error) {
	at := s.now()
	return s.ApplyBulk(ctx, nes, actor, func(c domain.Case) (domain.Case, domain.UpdateEntry, error) {
		return domain.ApplyTransition(c, domain.TrackRevisor, domain.RevisorAprobado, actor, comment, at)
	})
}

// BulkSendToDigitacion moves eligible cases to Pendiente de Digitación. A
// case qualifies only when revisor and preliquidación are both approved and
// digitación has not started; ineligible cases are reported in Failed.
func (s *Service) BulkSendToDigitacion(ctx context.Context, nes []string, actor string) (BulkResult, error) {
	at := s.now()
	return s.ApplyBulk(ctx, nes, actor, func(c domain.Case) (domain.Case, domain.UpdateEntry, error) {
		if !c.DigitacionEligible() {
			return domain.Case{}, domain.UpdateEntry{}, apperr.Validation("case does not meet the digitación prerequisite")
		}
		return domain.ApplyTransition(c, domain.TrackDigitacion, domain.DigitacionPendienteDe, actor, "", at)
	})
}

// BulkReclassify changes the paired worksheets' classification for every
// selected NE. Admin only.
func (s *Service) BulkReclassify(ctx context.Context, nes []string, classification, actor string, roles []string) (BulkResult, error) {
	if !hasAnyRole(roles, httpkit.RoleAdmin) {
		return BulkResult{}, apperr.Forbidden("reclassification requires the admin role")
	}
	if !wsdomain.IsValidClassification(classification) {
		return BulkResult{}, apperr.Validation("unknown classification: " + classification)
	}
	if len(nes) == 0 {
		return BulkResult{}, apperr.Validation("at least one NE is required")
	}

	refs, err := s.repo.ListWorksheetRefs(ctx, nes)
	if err != nil {
		return BulkResult{}, err
	}
	byNE := make(map[string]repository.WorksheetRef, len(refs))
	for _, ref := range refs {
		byNE[ref.NE] = ref
	}

	at := s.now()
	result := BulkResult{Applied: make([]string, 0, len(nes))}
	writes := make([]repository.ReclassifyWrite, 0, len(nes))
	seen := make(map[string]struct{}, len(nes))

	for _, ne := range nes {
		if _, dup := seen[ne]; dup {
			continue
		}
		seen[ne] = struct{}{}

		ref, ok := byNE[ne]
		if !ok {
			result.Failed = append(result.Failed, BulkFailure{NE: ne, Reason: "worksheet not found"})
			continue
		}
		writes = append(writes, repository.ReclassifyWrite{
			WorksheetID: ref.ID,
			NE:          ne,
			NewValue:    classification,
			Entry: domain.UpdateEntry{
				Field:     "classification",
				OldValue:  ref.Classification,
				NewValue:  classification,
				UpdatedBy: actor,
				At:        at,
			},
		})
		result.Applied = append(result.Applied, ne)
	}

	if len(writes) > 0 {
		if err := s.repo.CommitReclassify(ctx, writes); err != nil {
			return BulkResult{}, err
		}
	}

	s.log.BulkOperation("bulk_reclassify", len(result.Applied), len(result.Failed), actor)
	return result, nil
}

// Archive archives the case and its paired worksheet together. Admin or
// supervisor only.
func (s *Service) Archive(ctx context.Context, ne, actor string, roles []string) error {
	return s.setArchived(ctx, ne, actor, roles, true)
}

// Restore reverses Archive for the pair. Admin or supervisor only.
func (s *Service) Restore(ctx context.Context, ne, actor string, roles []string) error {
	return s.setArchived(ctx, ne, actor, roles, false)
}

func (s *Service) setArchived(ctx context.Context, ne, actor string, roles []string, archived bool) error {
	if !hasAnyRole(roles, httpkit.RoleAdmin, httpkit.RoleSupervisor) {
		return apperr.Forbidden("archiving requires the admin or supervisor role")
	}

	c, err := s.repo.GetByNE(ctx, ne)
	if err != nil {
		return err
	}

	var updated domain.Case
	var entry domain.UpdateEntry
	if archived {
		updated, entry, err = domain.Archive(c, actor, s.now())
	} else {
		updated, entry, err = domain.Restore(c, actor, s.now())
	}
	if err != nil {
		return err
	}

	return s.repo.CommitArchive(ctx, repository.ArchiveWrite{
		Case:     updated,
		Archived: archived,
		Entry:    entry,
	})
}

// DuplicateAndRetire clones the case under newNE and retires the original:
// the fresh worksheet+case pair, the TRASLADADO+archived original, and one
// log entry per side all commit in a single transaction. An existing NE
// equal to newNE aborts the whole batch with a conflict.
func (s *Service) DuplicateAndRetire(ctx context.Context, ne, newNE, reason, actor string) (domain.Case, error) {
	orig, err := s.repo.GetByNE(ctx, ne)
	if err != nil {
		return domain.Case{}, err
	}

	newWorksheetID := uuid.New()
	retired, fresh, origEntry, freshEntry, err := domain.DuplicateAndRetire(orig, newNE, newWorksheetID, reason, actor, s.now())
	if err != nil {
		return domain.Case{}, err
	}

	err = s.repo.CommitDuplicate(ctx, repository.DuplicateWrite{
		Retired:        retired,
		Fresh:          fresh,
		NewWorksheetID: newWorksheetID,
		RetiredEntry:   origEntry,
		FreshEntry:     freshEntry,
	})
	if err != nil {
		return domain.Case{}, err
	}

	s.bus.Publish(ctx, appevents.CaseDuplicatedEvent{
		BaseEvent:  events.NewBaseEvent(),
		OriginalNE: ne,
		NewNE:      fresh.NE,
		Reason:     reason,
		Actor:      actor,
	})

	return fresh, nil
}

// ReportIncident opens the incident sub-flow on a case.
func (s *Service) ReportIncident(ctx context.Context, ne, actor, comment string) (domain.Case, error) {
	c, err := s.repo.GetByNE(ctx, ne)
	if err != nil {
		return domain.Case{}, err
	}

	updated, entry, err := domain.ReportIncident(c, actor, comment, s.now())
	if err != nil {
		return domain.Case{}, err
	}

	if err := s.repo.CommitTransition(ctx, repository.TransitionWrite{Case: updated, Entry: entry}); err != nil {
		return domain.Case{}, err
	}

	s.bus.Publish(ctx, appevents.IncidentReportedEvent{
		BaseEvent: events.NewBaseEvent(),
		NE:        ne,
		Comment:   comment,
		Actor:     actor,
	})

	return updated, nil
}

// ResolveIncident closes the incident sub-flow with Aprobada or Rechazada.
// Rejections go through the Status Engine, so the comment requirement
// applies.
func (s *Service) ResolveIncident(ctx context.Context, ne, actor, outcome, comment string) (domain.Case, error) {
	if outcome != domain.IncidenteAprobada && outcome != domain.IncidenteRechazada {
		return domain.Case{}, apperr.Validation("incident outcome must be Aprobada or Rechazada")
	}
	return s.Transition(ctx, TransitionParams{
		NE:      ne,
		Track:   domain.TrackIncidente,
		Value:   outcome,
		Comment: comment,
		Actor:   actor,
	})
}

// ReportValueDoubt appends a value-doubt entry on the case's log path
// without changing any status track.
func (s *Service) ReportValueDoubt(ctx context.Context, ne, actor, comment string) error {
	c, err := s.repo.GetByNE(ctx, ne)
	if err != nil {
		return err
	}

	entry, err := domain.ReportValueDoubt(c, actor, comment, s.now())
	if err != nil {
		return err
	}

	return s.repo.AppendCaseEntry(ctx, c.ID, c.NE, entry)
}

func (s *Service) publishIfRejection(ne string, track domain.Track, value, comment, actor string) {
	if !domain.RequiresComment(track, value) {
		return
	}
	s.bus.Publish(context.Background(), appevents.CaseRejectedEvent{
		BaseEvent: events.NewBaseEvent(),
		NE:        ne,
		Track:     string(track),
		Value:     value,
		Comment:   comment,
		Actor:     actor,
	})
}

func hasAnyRole(roles []string, wanted ...string) bool {
	for _, r := range roles {
		for _, w := range wanted {
			if r == w {
				return true
			}
		}
	}
	return false
}
