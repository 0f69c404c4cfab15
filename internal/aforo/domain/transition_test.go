package domain

import (
	"testing"
	"time"

	"aduanas_portal_backend/platform/apperr"

	"github.com/google/uuid"
)

var testNow = time.Date(2025, 6, 12, 15, 4, 5, 0, time.UTC)

func testCase() Case {
	c := NewCase("NX112345", uuid.New(), testNow.Add(-48*time.Hour))
	return c
}

func TestApplyTransitionApprovesRevisor(t *testing.T) {
	c := testCase()

	updated, entry, err := ApplyTransition(c, TrackRevisor, RevisorAprobado, "Ana Lopez", "", testNow)
	if err != nil {
		t.Fatalf("ApplyTransition returned error: %v", err)
	}

	if updated.RevisorStatus != RevisorAprobado {
		t.Errorf("revisorStatus = %q, want %q", updated.RevisorStatus, RevisorAprobado)
	}
	if updated.RevisorLastUpdate.By != "Ana Lopez" || !updated.RevisorLastUpdate.At.Equal(testNow) {
		t.Errorf("revisor last update = %+v, want by Ana Lopez at %v", updated.RevisorLastUpdate, testNow)
	}
	if entry.Field != string(TrackRevisor) || entry.OldValue != RevisorPendiente || entry.NewValue != RevisorAprobado {
		t.Errorf("entry = %+v, want field %q old %q new %q", entry, TrackRevisor, RevisorPendiente, RevisorAprobado)
	}
	if entry.UpdatedBy != "Ana Lopez" || !entry.At.Equal(testNow) {
		t.Errorf("entry attribution = %q at %v", entry.UpdatedBy, entry.At)
	}
}

func TestApplyTransitionTrimsValueBeforeMatching(t *testing.T) {
	c := testCase()

	updated, entry, err := ApplyTransition(c, TrackDigitacion, DigitacionAlmacenado+" ", "Ana Lopez", "", testNow)
	if err != nil {
		t.Fatalf("ApplyTransition returned error: %v", err)
	}
	if updated.DigitacionStatus != DigitacionAlmacenado {
		t.Errorf("digitacionStatus = %q, want trimmed %q", updated.DigitacionStatus, DigitacionAlmacenado)
	}
	if entry.NewValue != DigitacionAlmacenado {
		t.Errorf("entry new value = %q, want trimmed %q", entry.NewValue, DigitacionAlmacenado)
	}
}

func TestApplyTransitionTouchesOnlyTargetTrack(t *testing.T) {
	c := testCase()

	updated, _, err := ApplyTransition(c, TrackAforador, AforadorEnRevision, "Luis Ramos", "", testNow)
	if err != nil {
		t.Fatalf("ApplyTransition returned error: %v", err)
	}

	// Revert the expected deltas; the rest must be byte-identical to the input.
	updated.AforadorStatus = c.AforadorStatus
	updated.AforadorLastUpdate = c.AforadorLastUpdate
	updated.UpdatedAt = c.UpdatedAt

	if updated.RevisorStatus != c.RevisorStatus ||
		updated.PreliquidationStatus != c.PreliquidationStatus ||
		updated.DigitacionStatus != c.DigitacionStatus ||
		updated.FacturacionStatus != c.FacturacionStatus ||
		updated.IncidentStatus != c.IncidentStatus ||
		updated.IsArchived != c.IsArchived ||
		updated.FacturadoAt != c.FacturadoAt {
		t.Errorf("transition mutated tracks other than aforadorStatus: got %+v", updated)
	}
}

func TestApplyTransitionFacturadoStampsTimestamp(t *testing.T) {
	c := testCase()

	updated, _, err := ApplyTransition(c, TrackFacturacion, FacturacionFacturado, "Rosa Meza", "", testNow)
	if err != nil {
		t.Fatalf("ApplyTransition returned error: %v", err)
	}
	if updated.FacturadoAt == nil || !updated.FacturadoAt.Equal(testNow) {
		t.Errorf("facturadoAt = %v, want %v", updated.FacturadoAt, testNow)
	}

	// Other facturación values must not stamp the timestamp.
	updated, _, err = ApplyTransition(c, TrackFacturacion, FacturacionEnviado, "Rosa Meza", "", testNow)
	if err != nil {
		t.Fatalf("ApplyTransition returned error: %v", err)
	}
	if updated.FacturadoAt != nil {
		t.Errorf("facturadoAt stamped on %q", FacturacionEnviado)
	}
}

func TestApplyTransitionValidation(t *testing.T) {
	cases := []struct {
		name    string
		track   Track
		value   string
		actor   string
		comment string
	}{
		{"unknown track", Track("remisionStatus"), "Pendiente", "Ana Lopez", ""},
		{"value from another track", TrackRevisor, "Almacenado", "Ana Lopez", ""},
		{"unknown value", TrackAforador, "Finalizado", "Ana Lopez", ""},
		{"missing actor", TrackRevisor, RevisorAprobado, "  ", ""},
		{"rejection without comment", TrackRevisor, RevisorRechazado, "Ana Lopez", ""},
		{"incident rejection without comment", TrackIncidente, IncidenteRechazada, "Ana Lopez", "  "},
		{"trasladado via transition", TrackDigitacion, DigitacionTrasladado, "Ana Lopez", "x"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ApplyTransition(testCase(), tc.track, tc.value, tc.actor, tc.comment, testNow)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Errorf("ApplyTransition(%q, %q) err = %v, want validation error", tc.track, tc.value, err)
			}
		})
	}
}

func TestApplyTransitionRejectionWithCommentSucceeds(t *testing.T) {
	updated, entry, err := ApplyTransition(testCase(), TrackRevisor, RevisorRechazado, "Ana Lopez", "factura ilegible", testNow)
	if err != nil {
		t.Fatalf("ApplyTransition returned error: %v", err)
	}
	if updated.RevisorStatus != RevisorRechazado {
		t.Errorf("revisorStatus = %q", updated.RevisorStatus)
	}
	if entry.Comment != "factura ilegible" {
		t.Errorf("entry comment = %q", entry.Comment)
	}
}

func TestDigitacionEligible(t *testing.T) {
	cases := []struct {
		name       string
		revisor    string
		prelim     string
		digitacion string
		want       bool
	}{
		{"both approved, pending", RevisorAprobado, PreliquidacionAprobada, DigitacionPendiente, true},
		{"both approved, unset", RevisorAprobado, PreliquidacionAprobada, "", true},
		{"both approved, N/A", RevisorAprobado, PreliquidacionAprobada, "N/A", true},
		{"revisor pending", RevisorPendiente, PreliquidacionAprobada, DigitacionPendiente, false},
		{"prelim pending", RevisorAprobado, PreliquidacionPendiente, DigitacionPendiente, false},
		{"already in digitación", RevisorAprobado, PreliquidacionAprobada, DigitacionPendienteDe, false},
		{"already completed", RevisorAprobado, PreliquidacionAprobada, DigitacionTramiteCompleto, false},
		{"retired", RevisorAprobado, PreliquidacionAprobada, DigitacionTrasladado, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := testCase()
			c.RevisorStatus = tc.revisor
			c.PreliquidationStatus = tc.prelim
			c.DigitacionStatus = tc.digitacion
			if got := c.DigitacionEligible(); got != tc.want {
				t.Errorf("DigitacionEligible() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestArchiveRestoreRoundTrip(t *testing.T) {
	c := testCase()

	archived, entry, err := Archive(c, "Marta Diaz", testNow)
	if err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}
	if !archived.IsArchived {
		t.Fatal("case not archived")
	}
	if entry.Field != "isArchived" || entry.OldValue != "false" || entry.NewValue != "true" {
		t.Errorf("archive entry = %+v", entry)
	}
	if entry.UpdatedBy != "Marta Diaz" {
		t.Errorf("archive entry actor = %q", entry.UpdatedBy)
	}

	restored, entry, err := Restore(archived, "Marta Diaz", testNow.Add(time.Hour))
	if err != nil {
		t.Fatalf("Restore returned error: %v", err)
	}
	if restored.IsArchived {
		t.Fatal("case still archived after restore")
	}
	if entry.OldValue != "true" || entry.NewValue != "false" {
		t.Errorf("restore entry = %+v", entry)
	}
}

func TestArchiveTwiceRejected(t *testing.T) {
	c := testCase()
	archived, _, err := Archive(c, "Marta Diaz", testNow)
	if err != nil {
		t.Fatalf("Archive returned error: %v", err)
	}
	if _, _, err := Archive(archived, "Marta Diaz", testNow); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("second Archive err = %v, want validation error", err)
	}
	if _, _, err := Restore(c, "Marta Diaz", testNow); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("Restore of active case err = %v, want validation error", err)
	}
}

func TestDuplicateAndRetire(t *testing.T) {
	orig := testCase()
	orig.RevisorStatus = RevisorAprobado
	orig.DigitacionStatus = DigitacionEnProceso
	newWorksheetID := uuid.New()

	retired, fresh, origEntry, freshEntry, err := DuplicateAndRetire(orig, "NX990001", newWorksheetID, "NE digitado dos veces", "Marta Diaz", testNow)
	if err != nil {
		t.Fatalf("DuplicateAndRetire returned error: %v", err)
	}

	if retired.NE != orig.NE {
		t.Errorf("retired NE changed to %q", retired.NE)
	}
	if retired.DigitacionStatus != DigitacionTrasladado || !retired.IsArchived {
		t.Errorf("retired case = digitación %q archived %v", retired.DigitacionStatus, retired.IsArchived)
	}

	if fresh.NE != "NX990001" {
		t.Errorf("fresh NE = %q", fresh.NE)
	}
	if fresh.WorksheetID == nil || *fresh.WorksheetID != newWorksheetID {
		t.Errorf("fresh worksheetID = %v", fresh.WorksheetID)
	}
	if fresh.RevisorStatus != RevisorPendiente || fresh.DigitacionStatus != DigitacionPendiente {
		t.Errorf("fresh tracks not reset: revisor %q digitación %q", fresh.RevisorStatus, fresh.DigitacionStatus)
	}
	if len(fresh.ExecutiveComments) != 1 {
		t.Fatalf("fresh executive comments = %v", fresh.ExecutiveComments)
	}

	// The two entries must reference each other's NE.
	if want := "Caso trasladado a NX990001: NE digitado dos veces"; origEntry.Comment != want {
		t.Errorf("orig entry comment = %q, want %q", origEntry.Comment, want)
	}
	if want := "Caso duplicado desde NX112345"; freshEntry.Comment != want {
		t.Errorf("fresh entry comment = %q, want %q", freshEntry.Comment, want)
	}
	if freshEntry.Field != TagCreation {
		t.Errorf("fresh entry field = %q", freshEntry.Field)
	}
}

func TestDuplicateAndRetireValidation(t *testing.T) {
	orig := testCase()
	wid := uuid.New()

	if _, _, _, _, err := DuplicateAndRetire(orig, "", wid, "reason", "Marta Diaz", testNow); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank NE err = %v", err)
	}
	if _, _, _, _, err := DuplicateAndRetire(orig, "NX990001", wid, " ", "Marta Diaz", testNow); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank reason err = %v", err)
	}
	if _, _, _, _, err := DuplicateAndRetire(orig, orig.NE, wid, "reason", "Marta Diaz", testNow); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("same NE err = %v", err)
	}
}

func TestReportIncident(t *testing.T) {
	c := testCase()

	updated, entry, err := ReportIncident(c, "Luis Ramos", "bulto con discrepancia de peso", testNow)
	if err != nil {
		t.Fatalf("ReportIncident returned error: %v", err)
	}
	if updated.IncidentStatus != IncidentePendiente {
		t.Errorf("incidentStatus = %q", updated.IncidentStatus)
	}
	if entry.Field != TagIncidentReport || entry.NewValue != IncidentePendiente {
		t.Errorf("entry = %+v", entry)
	}

	if _, _, err := ReportIncident(c, "Luis Ramos", " ", testNow); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank comment err = %v", err)
	}
}

func TestReportValueDoubt(t *testing.T) {
	entry, err := ReportValueDoubt(testCase(), "Luis Ramos", "valor declarado bajo referencia", testNow)
	if err != nil {
		t.Fatalf("ReportValueDoubt returned error: %v", err)
	}
	if entry.Field != TagValueDoubtReport || entry.Comment == "" {
		t.Errorf("entry = %+v", entry)
	}

	if _, err := ReportValueDoubt(testCase(), "", "x", testNow); !apperr.Is(err, apperr.KindValidation) {
		t.Errorf("blank actor err = %v", err)
	}
}
