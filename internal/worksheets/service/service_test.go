package service

import (
	"context"
	"testing"
	"time"

	aforodomain "aduanas_portal_backend/internal/aforo/domain"
	"aduanas_portal_backend/internal/worksheets/domain"
	"aduanas_portal_backend/internal/worksheets/repository"
	"aduanas_portal_backend/platform/apperr"
	"aduanas_portal_backend/platform/events"
	"aduanas_portal_backend/platform/logger"

	"github.com/google/uuid"
)

type fakeRepo struct {
	sheets      map[string]domain.Worksheet
	pairWrites  []repository.PairWrite
	updates     []repository.UpdateWrite
	createErr   error
}

func newFakeRepo(sheets ...domain.Worksheet) *fakeRepo {
	f := &fakeRepo{sheets: make(map[string]domain.Worksheet)}
	for _, w := range sheets {
		f.sheets[w.NE] = w
	}
	return f
}

func (f *fakeRepo) GetByID(_ context.Context, id uuid.UUID) (domain.Worksheet, error) {
	for _, w := range f.sheets {
		if w.ID == id {
			return w, nil
		}
	}
	return domain.Worksheet{}, apperr.NotFound("worksheet not found")
}

func (f *fakeRepo) GetByNE(_ context.Context, ne string) (domain.Worksheet, error) {
	w, ok := f.sheets[ne]
	if !ok {
		return domain.Worksheet{}, apperr.NotFound("worksheet not found")
	}
	return w, nil
}

func (f *fakeRepo) List(_ context.Context, _ repository.WorksheetFilter) ([]domain.Worksheet, int, error) {
	return nil, 0, nil
}

func (f *fakeRepo) CreatePair(_ context.Context, w repository.PairWrite) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.pairWrites = append(f.pairWrites, w)
	f.sheets[w.Worksheet.NE] = w.Worksheet
	return nil
}

func (f *fakeRepo) Update(_ context.Context, w repository.UpdateWrite) error {
	f.updates = append(f.updates, w)
	f.sheets[w.Worksheet.NE] = w.Worksheet
	return nil
}

func newTestService(repo *fakeRepo) *Service {
	svc := New(repo, logger.New("development"), events.NewInMemoryBus(logger.New("development")))
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateBuildsPairWithInitialStatuses(t *testing.T) {
	repo := newFakeRepo()
	svc := newTestService(repo)

	sheet, err := svc.Create(context.Background(), CreateParams{
		NE:             "NX112345",
		Executive:      "Maria Diaz",
		Consignee:      "Importadora del Norte",
		ConsigneePhone: "9999-1234",
		Actor:          "Maria Diaz",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if sheet.Classification != domain.ClassificationHojaDeTrabajo {
		t.Errorf("classification = %q, want default hoja_de_trabajo", sheet.Classification)
	}
	if sheet.ConsigneePhone != "+50499991234" {
		t.Errorf("phone = %q, want E.164 +50499991234", sheet.ConsigneePhone)
	}

	if len(repo.pairWrites) != 1 {
		t.Fatalf("expected one pair write, got %d", len(repo.pairWrites))
	}
	pair := repo.pairWrites[0]
	if pair.Case.NE != sheet.NE {
		t.Errorf("case NE = %q, want %q", pair.Case.NE, sheet.NE)
	}
	if pair.Case.WorksheetID == nil || *pair.Case.WorksheetID != sheet.ID {
		t.Error("case not paired with the worksheet id")
	}
	if pair.Case.AforadorStatus != aforodomain.AforadorEnProceso {
		t.Errorf("aforador status = %q, want initial En proceso", pair.Case.AforadorStatus)
	}
	if pair.WorksheetEntry.Field != aforodomain.TagCreation || pair.CaseEntry.Field != aforodomain.TagCreation {
		t.Error("expected creation entries on both sides")
	}
}

func TestCreateRejectsUnknownClassification(t *testing.T) {
	svc := newTestService(newFakeRepo())

	_, err := svc.Create(context.Background(), CreateParams{
		NE:             "NX112345",
		Classification: "anexo_99",
		Actor:          "Maria Diaz",
	})
	if apperr.GetKind(err) != apperr.KindValidation {
		t.Errorf("expected validation error, got %v", err)
	}
}

func TestCreateConflictPropagates(t *testing.T) {
	repo := newFakeRepo()
	repo.createErr = apperr.Conflict("NE NX112345 already exists")
	svc := newTestService(repo)

	_, err := svc.Create(context.Background(), CreateParams{NE: "NX112345", Actor: "Maria Diaz"})
	if apperr.GetKind(err) != apperr.KindConflict {
		t.Errorf("expected conflict, got %v", err)
	}
}

func TestUpdateRecordsChangedFieldSet(t *testing.T) {
	existing := domain.Worksheet{
		ID:        uuid.New(),
		NE:        "NX112345",
		Executive: "Maria Diaz",
		Consignee: "Importadora del Norte",
	}
	repo := newFakeRepo(existing)
	svc := newTestService(repo)

	newExec := "Luis Paz"
	newLogistics := domain.Logistics{Transportista: "TransHond", NumeroDeGuia: "GU-5521"}
	_, err := svc.Update(context.Background(), "NX112345", UpdateParams{
		Executive: &newExec,
		Logistics: &newLogistics,
		Actor:     "Luis Paz",
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if len(repo.updates) != 1 {
		t.Fatalf("expected one update write, got %d", len(repo.updates))
	}
	entry := repo.updates[0].Entry
	if entry.Field != aforodomain.TagDocumentUpdate {
		t.Errorf("entry field = %q, want document_update", entry.Field)
	}
	if entry.Comment != "Campos actualizados: executive, logistics" {
		t.Errorf("entry comment = %q", entry.Comment)
	}
}

func TestUpdateWithNoChangesWritesNothing(t *testing.T) {
	existing := domain.Worksheet{ID: uuid.New(), NE: "NX112345", Executive: "Maria Diaz"}
	repo := newFakeRepo(existing)
	svc := newTestService(repo)

	same := "Maria Diaz"
	_, err := svc.Update(context.Background(), "NX112345", UpdateParams{Executive: &same, Actor: "Maria Diaz"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(repo.updates) != 0 {
		t.Errorf("expected no update writes, got %d", len(repo.updates))
	}
}
