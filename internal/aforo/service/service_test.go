package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"aduanas_portal_backend/internal/aforo/domain"
	"aduanas_portal_backend/internal/aforo/repository"
	"aduanas_portal_backend/platform/apperr"
	"aduanas_portal_backend/platform/events"
	"aduanas_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	cases map[string]domain.Case
	refs  map[string]repository.WorksheetRef

	committedBulk     [][]repository.TransitionWrite
	committedArchive  []repository.ArchiveWrite
	committedDup      []repository.DuplicateWrite
	committedReclass  [][]repository.ReclassifyWrite
	appendedEntries   []domain.UpdateEntry
	bulkErr           error
	duplicateErr      error
}

func newFakeRepo(cases ...domain.Case) *fakeRepo {
	f := &fakeRepo{
		cases: make(map[string]domain.Case),
		refs:  make(map[string]repository.WorksheetRef),
	}
	for _, c := range cases {
		f.cases[c.NE] = c
		if c.WorksheetID != nil {
			f.refs[c.NE] = repository.WorksheetRef{
				ID:             *c.WorksheetID,
				NE:             c.NE,
				Classification: "hoja_de_trabajo",
			}
		}
	}
	return f
}

func (f *fakeRepo) GetByNE(_ context.Context, ne string) (domain.Case, error) {
	c, ok := f.cases[ne]
	if !ok {
		return domain.Case{}, apperr.NotFound("aforo case not found")
	}
	return c, nil
}

func (f *fakeRepo) ListByNEs(_ context.Context, nes []string) ([]domain.Case, error) {
	out := make([]domain.Case, 0, len(nes))
	for _, ne := range nes {
		if c, ok := f.cases[ne]; ok {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeRepo) List(_ context.Context, _ repository.CaseFilter) ([]domain.Case, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) ListWorksheetRefs(_ context.Context, nes []string) ([]repository.WorksheetRef, error) {
	out := make([]repository.WorksheetRef, 0, len(nes))
	for _, ne := range nes {
		if ref, ok := f.refs[ne]; ok {
			out = append(out, ref)
		}
	}
	return out, nil
}

func (f *fakeRepo) CommitTransition(ctx context.Context, w repository.TransitionWrite) error {
	return f.CommitBulk(ctx, []repository.TransitionWrite{w})
}

func (f *fakeRepo) CommitBulk(_ context.Context, writes []repository.TransitionWrite) error {
	if f.bulkErr != nil {
		return f.bulkErr
	}
	f.committedBulk = append(f.committedBulk, writes)
	for _, w := range writes {
		f.cases[w.Case.NE] = w.Case
	}
	return nil
}

func (f *fakeRepo) CommitArchive(_ context.Context, w repository.ArchiveWrite) error {
	f.committedArchive = append(f.committedArchive, w)
	f.cases[w.Case.NE] = w.Case
	return nil
}

func (f *fakeRepo) CommitDuplicate(_ context.Context, w repository.DuplicateWrite) error {
	if f.duplicateErr != nil {
		return f.duplicateErr
	}
	f.committedDup = append(f.committedDup, w)
	f.cases[w.Retired.NE] = w.Retired
	f.cases[w.Fresh.NE] = w.Fresh
	return nil
}

func (f *fakeRepo) CommitReclassify(_ context.Context, writes []repository.ReclassifyWrite) error {
	f.committedReclass = append(f.committedReclass, writes)
	return nil
}

func (f *fakeRepo) AppendCaseEntry(_ context.Context, _ uuid.UUID, _ string, entry domain.UpdateEntry) error {
	f.appendedEntries = append(f.appendedEntries, entry)
	return nil
}

func (f *fakeRepo) ListEntriesByNE(_ context.Context, _ string) ([]repository.UpdateRecord, error) {
	return nil, nil
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, e events.Event)          { b.published = append(b.published, e) }
func (b *captureBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}
func (b *captureBus) Subscribe(string, events.Handler) {}

func newTestService(repo *fakeRepo) (*Service, *captureBus) {
	bus := &captureBus{}
	svc := New(repo, logger.New("development"), bus)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) }
	return svc, bus
}

func testCase(ne string) domain.Case {
	return domain.NewCase(ne, uuid.New(), time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
}

func TestTransitionPersistsCaseAndEntry(t *testing.T) {
	repo := newFakeRepo(testCase("NX112345"))
	svc, _ := newTestService(repo)

	updated, err := svc.Transition(context.Background(), TransitionParams{
		NE:    "NX112345",
		Track: domain.TrackRevisor,
		Value: domain.RevisorAprobado,
		Actor: "Ana Lopez",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if updated.RevisorStatus != domain.RevisorAprobado {
		t.Errorf("revisor status = %q, want %q", updated.RevisorStatus, domain.RevisorAprobado)
	}
	if len(repo.committedBulk) != 1 || len(repo.committedBulk[0]) != 1 {
		t.Fatalf("expected one committed write, got %v", repo.committedBulk)
	}
	entry := repo.committedBulk[0][0].Entry
	if entry.Field != string(domain.TrackRevisor) || entry.NewValue != domain.RevisorAprobado {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestTransitionRejectionPublishesEvent(t *testing.T) {
	repo := newFakeRepo(testCase("NX112345"))
	svc, bus := newTestService(repo)

	_, err := svc.Transition(context.Background(), TransitionParams{
		NE:      "NX112345",
		Track:   domain.TrackRevisor,
		Value:   domain.RevisorRechazado,
		Comment: "clasificación arancelaria incorrecta",
		Actor:   "Ana Lopez",
	})
	if err != nil {
		t.Fatalf("Transition: %v", err)
	}
	if len(bus.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(bus.published))
	}
	if name := bus.published[0].EventName(); name != "aforo.case.rejected" {
		t.Errorf("event name = %q, want aforo.case.rejected", name)
	}
}

func TestTransitionUnknownNE(t *testing.T) {
	svc, _ := newTestService(newFakeRepo())

	_, err := svc.Transition(context.Background(), TransitionParams{
		NE:    "NX999999",
		Track: domain.TrackRevisor,
		Value: domain.RevisorAprobado,
		Actor: "Ana Lopez",
	})
	if apperr.GetKind(err) != apperr.KindNotFound {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestBulkApproveRevisorReportsMissingAndCommitsRest(t *testing.T) {
	repo := newFakeRepo(testCase("NX100001"), testCase("NX100002"))
	svc, _ := newTestService(repo)

	result, err := svc.BulkApproveRevisor(context.Background(), []string{"NX100001", "NX999999", "NX100002"}, "Maria Diaz", "")
	if err != nil {
		t.Fatalf("BulkApproveRevisor: %v", err)
	}

	if len(result.Applied) != 2 {
		t.Errorf("applied = %v, want 2 NEs", result.Applied)
	}
	if len(result.Failed) != 1 || result.Failed[0].NE != "NX999999" {
		t.Errorf("failed = %v, want NX999999", result.Failed)
	}
	if len(repo.committedBulk) != 1 {
		t.Fatalf("expected exactly one atomic commit, got %d", len(repo.committedBulk))
	}
	if got := len(repo.committedBulk[0]); got != 2 {
		t.Errorf("committed writes = %d, want 2", got)
	}
}

func TestBulkApproveRevisorFailsUnpairedCase(t *testing.T) {
	unpaired := testCase("NX100002")
	unpaired.WorksheetID = nil

	repo := newFakeRepo(testCase("NX100001"), unpaired)
	svc, _ := newTestService(repo)

	result, err := svc.BulkApproveRevisor(context.Background(), []string{"NX100001", "NX100002"}, "Maria Diaz", "")
	if err != nil {
		t.Fatalf("BulkApproveRevisor: %v", err)
	}

	if len(result.Applied) != 1 || result.Applied[0] != "NX100001" {
		t.Errorf("applied = %v, want [NX100001]", result.Applied)
	}
	if len(result.Failed) != 1 || result.Failed[0].NE != "NX100002" {
		t.Fatalf("failed = %v, want NX100002", result.Failed)
	}
	if got := result.Failed[0].Reason; got != "missing worksheetId" {
		t.Errorf("failure reason = %q, want %q", got, "missing worksheetId")
	}
	if len(repo.committedBulk) != 1 || len(repo.committedBulk[0]) != 1 {
		t.Fatalf("expected one commit with one write, got %v", repo.committedBulk)
	}
	if got := repo.cases["NX100002"].RevisorStatus; got != domain.RevisorPendiente {
		t.Errorf("unpaired case mutated: revisor = %q", got)
	}
}

func TestBulkCommitFailureLeavesNothingApplied(t *testing.T) {
	repo := newFakeRepo(testCase("NX100001"))
	repo.bulkErr = errors.New("connection reset")
	svc, _ := newTestService(repo)

	_, err := svc.BulkApproveRevisor(context.Background(), []string{"NX100001"}, "Maria Diaz", "")
	if err == nil {
		t.Fatal("expected commit error")
	}
	if got := repo.cases["NX100001"].RevisorStatus; got != domain.RevisorPendiente {
		t.Errorf("revisor status mutated to %q despite failed commit", got)
	}
}

func TestBulkSendToDigitacionFiltersIneligible(t *testing.T) {
	eligible := testCase("NX200001")
	eligible.RevisorStatus = domain.RevisorAprobado
	eligible.PreliquidationStatus = domain.PreliquidacionAprobada

	ineligible := testCase("NX200002") // revisor still Pendiente

	repo := newFakeRepo(eligible, ineligible)
	svc, _ := newTestService(repo)

	result, err := svc.BulkSendToDigitacion(context.Background(), []string{"NX200001", "NX200002"}, "Luis Paz")
	if err != nil {
		t.Fatalf("BulkSendToDigitacion: %v", err)
	}

	if len(result.Applied) != 1 || result.Applied[0] != "NX200001" {
		t.Errorf("applied = %v, want [NX200001]", result.Applied)
	}
	if len(result.Failed) != 1 || result.Failed[0].NE != "NX200002" {
		t.Errorf("failed = %v, want NX200002", result.Failed)
	}
	if got := repo.cases["NX200001"].DigitacionStatus; got != domain.DigitacionPendienteDe {
		t.Errorf("digitación status = %q, want %q", got, domain.DigitacionPendienteDe)
	}
	if got := repo.cases["NX200002"].DigitacionStatus; got != domain.DigitacionPendiente {
		t.Errorf("ineligible case mutated: digitación = %q", got)
	}
}

func TestBulkReclassifyRequiresAdmin(t *testing.T) {
	svc, _ := newTestService(newFakeRepo(testCase("NX300001")))

	_, err := svc.BulkReclassify(context.Background(), []string{"NX300001"}, "anexo_5", "Luis Paz", []string{"revisor"})
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestBulkReclassifyRejectsUnknownClassification(t *testing.T) {
	svc, _ := newTestService(newFakeRepo(testCase("NX300001")))

	_, err := svc.BulkReclassify(context.Background(), []string{"NX300001"}, "anexo_99", "Luis Paz", []string{"admin"})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestBulkReclassifyWritesOneEntryPerWorksheet(t *testing.T) {
	repo := newFakeRepo(testCase("NX300001"), testCase("NX300002"))
	svc, _ := newTestService(repo)

	result, err := svc.BulkReclassify(context.Background(), []string{"NX300001", "NX300002"}, "anexo_5", "Luis Paz", []string{"admin"})
	if err != nil {
		t.Fatalf("BulkReclassify: %v", err)
	}
	if len(result.Applied) != 2 {
		t.Errorf("applied = %v, want 2", result.Applied)
	}
	if len(repo.committedReclass) != 1 || len(repo.committedReclass[0]) != 2 {
		t.Fatalf("expected one commit with 2 writes, got %v", repo.committedReclass)
	}
	entry := repo.committedReclass[0][0].Entry
	if entry.Field != "classification" || entry.NewValue != "anexo_5" || entry.OldValue != "hoja_de_trabajo" {
		t.Errorf("unexpected entry %+v", entry)
	}
}

func TestArchiveRequiresRole(t *testing.T) {
	svc, _ := newTestService(newFakeRepo(testCase("NX400001")))

	err := svc.Archive(context.Background(), "NX400001", "Luis Paz", []string{"aforador"})
	if apperr.GetKind(err) != apperr.KindForbidden {
		t.Errorf("expected forbidden, got %v", err)
	}
}

func TestArchiveAndRestorePair(t *testing.T) {
	repo := newFakeRepo(testCase("NX400001"))
	svc, _ := newTestService(repo)

	if err := svc.Archive(context.Background(), "NX400001", "Sofia Mejia", []string{"supervisor"}); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	if !repo.cases["NX400001"].IsArchived {
		t.Error("case not archived")
	}
	if len(repo.committedArchive) != 1 || !repo.committedArchive[0].Archived {
		t.Fatalf("unexpected archive writes %+v", repo.committedArchive)
	}
	if repo.committedArchive[0].Entry.Field != "isArchived" {
		t.Errorf("entry field = %q, want isArchived", repo.committedArchive[0].Entry.Field)
	}

	if err := svc.Restore(context.Background(), "NX400001", "Sofia Mejia", []string{"admin"}); err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if repo.cases["NX400001"].IsArchived {
		t.Error("case still archived after restore")
	}
}

func TestDuplicateAndRetireCommitsBatchAndPublishes(t *testing.T) {
	repo := newFakeRepo(testCase("NX500001"))
	svc, bus := newTestService(repo)

	fresh, err := svc.DuplicateAndRetire(context.Background(), "NX500001", "NX500002", "documentación incompleta", "Sofia Mejia")
	if err != nil {
		t.Fatalf("DuplicateAndRetire: %v", err)
	}
	if fresh.NE != "NX500002" {
		t.Errorf("fresh NE = %q, want NX500002", fresh.NE)
	}

	retired := repo.cases["NX500001"]
	if retired.DigitacionStatus != domain.DigitacionTrasladado || !retired.IsArchived {
		t.Errorf("original not retired: %+v", retired)
	}
	if len(repo.committedDup) != 1 {
		t.Fatalf("expected one duplicate commit, got %d", len(repo.committedDup))
	}
	if len(bus.published) != 1 || bus.published[0].EventName() != "aforo.case.duplicated" {
		t.Errorf("expected aforo.case.duplicated event, got %v", bus.published)
	}
}

func TestDuplicateAndRetireConflictPropagates(t *testing.T) {
	repo := newFakeRepo(testCase("NX500001"))
	repo.duplicateErr = apperr.Conflict("NE NX500002 already exists")
	svc, bus := newTestService(repo)

	_, err := svc.DuplicateAndRetire(context.Background(), "NX500001", "NX500002", "razones", "Sofia Mejia")
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("expected conflict, got %v", err)
	}
	if got := repo.cases["NX500001"].DigitacionStatus; got == domain.DigitacionTrasladado {
		t.Error("original retired despite aborted batch")
	}
	if len(bus.published) != 0 {
		t.Errorf("event published despite aborted batch: %v", bus.published)
	}
}

func TestResolveIncidentValidatesOutcome(t *testing.T) {
	c := testCase("NX600001")
	c.IncidentStatus = domain.IncidentePendiente
	repo := newFakeRepo(c)
	svc, _ := newTestService(repo)

	if _, err := svc.ResolveIncident(context.Background(), "NX600001", "Luis Paz", "Pendiente", ""); apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("expected validation error for Pendiente outcome, got %v", err)
	}

	updated, err := svc.ResolveIncident(context.Background(), "NX600001", "Luis Paz", domain.IncidenteAprobada, "")
	if err != nil {
		t.Fatalf("ResolveIncident: %v", err)
	}
	if updated.IncidentStatus != domain.IncidenteAprobada {
		t.Errorf("incident status = %q, want Aprobada", updated.IncidentStatus)
	}
}

func TestReportValueDoubtAppendsEntryOnly(t *testing.T) {
	c := testCase("NX700001")
	repo := newFakeRepo(c)
	svc, _ := newTestService(repo)

	if err := svc.ReportValueDoubt(context.Background(), "NX700001", "Luis Paz", "valor declarado inconsistente"); err != nil {
		t.Fatalf("ReportValueDoubt: %v", err)
	}
	if len(repo.appendedEntries) != 1 {
		t.Fatalf("expected one appended entry, got %d", len(repo.appendedEntries))
	}
	if repo.appendedEntries[0].Field != domain.TagValueDoubtReport {
		t.Errorf("entry field = %q", repo.appendedEntries[0].Field)
	}
	if got := repo.cases["NX700001"]; got.AforadorStatus != c.AforadorStatus || got.UpdatedAt != c.UpdatedAt {
		t.Error("case mutated by value-doubt report")
	}
}
