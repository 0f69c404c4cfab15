package service

import (
	"context"
	"testing"
	"time"

	"aduanas_portal_backend/internal/validaciones/repository"
	"aduanas_portal_backend/platform/apperr"
	"aduanas_portal_backend/platform/events"
	"aduanas_portal_backend/platform/logger"
)

type fakeRepo struct {
	appended []repository.Record
}

func (f *fakeRepo) Append(_ context.Context, rec repository.Record) error {
	f.appended = append(f.appended, rec)
	return nil
}

func (f *fakeRepo) List(_ context.Context, _ repository.Filter) ([]repository.Record, int, error) {
	return f.appended, len(f.appended), nil
}

type captureBus struct {
	published []events.Event
}

func (b *captureBus) Publish(_ context.Context, e events.Event) { b.published = append(b.published, e) }
func (b *captureBus) PublishSync(_ context.Context, e events.Event) error {
	b.published = append(b.published, e)
	return nil
}
func (b *captureBus) Subscribe(string, events.Handler) {}

func newTestService(repo *fakeRepo, bus *captureBus) *Service {
	svc := New(repo, logger.New("development"), bus)
	svc.now = func() time.Time { return time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC) }
	return svc
}

func TestRecordResolutionAppendsAndPublishes(t *testing.T) {
	repo := &fakeRepo{}
	bus := &captureBus{}
	svc := newTestService(repo, bus)

	rec, err := svc.RecordResolution(context.Background(), RecordParams{
		DuplicateNE:  "NX112345",
		DuplicateIDs: []string{"a1", "b2"},
		Outcome:      OutcomeDeletionRequested,
		Comment:      "registro duplicado por error de captura",
		ResolvedBy:   "Sofia Mejia",
	})
	if err != nil {
		t.Fatalf("RecordResolution: %v", err)
	}
	if rec.Outcome != OutcomeDeletionRequested {
		t.Errorf("outcome = %q", rec.Outcome)
	}
	if len(repo.appended) != 1 {
		t.Fatalf("expected one appended row, got %d", len(repo.appended))
	}
	if len(bus.published) != 1 || bus.published[0].EventName() != "validaciones.duplicate.resolved" {
		t.Errorf("expected validaciones.duplicate.resolved event, got %v", bus.published)
	}
}

func TestRecordResolutionValidation(t *testing.T) {
	tests := []struct {
		name   string
		params RecordParams
	}{
		{"missing resolver", RecordParams{DuplicateNE: "NX112345", Outcome: OutcomeNotDuplicate}},
		{"missing NE", RecordParams{Outcome: OutcomeNotDuplicate, ResolvedBy: "Sofia Mejia"}},
		{"unknown outcome", RecordParams{DuplicateNE: "NX112345", Outcome: "archived", ResolvedBy: "Sofia Mejia"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(&fakeRepo{}, &captureBus{})
			_, err := svc.RecordResolution(context.Background(), tt.params)
			if apperr.GetKind(err) != apperr.KindValidation {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}
