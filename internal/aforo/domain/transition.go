package domain

import (
	"strings"
	"time"

	"aduanas_portal_backend/platform/apperr"
)

// Structural update-log tags used for entries that do not map to a single
// status column.
const (
	TagStatusChange     = "status_change"
	TagCreation         = "creation"
	TagIncidentReport   = "incident_report"
	TagDocumentUpdate   = "document_update"
	TagValueDoubtReport = "value_doubt_report"
)

// UpdateEntry is one append-only audit record. Field is either a track name
// or one of the structural tags above.
type UpdateEntry struct {
	Field     string
	OldValue  string
	NewValue  string
	Comment   string
	UpdatedBy string
	At        time.Time
}

// ApplyTransition validates and applies a single-track status transition.
// The returned case differs from the input only in the target track's value
// and its last-update side-car (plus FacturadoAt when facturación reaches
// Facturado), and the returned entry mirrors the transition exactly.
//
// Cross-track ordering is not checked here: every track is an independent
// write, and the one prerequisite that exists in the system (revisor and
// preliquidación approved before digitación) is enforced by the bulk
// send-to-digitación coordinator.
func ApplyTransition(c Case, track Track, newValue, actor, comment string, at time.Time) (Case, UpdateEntry, error) {
	if !IsKnownTrack(track) {
		return Case{}, UpdateEntry{}, apperr.Validation("unknown status track: " + string(track))
	}
	if strings.TrimSpace(actor) == "" {
		return Case{}, UpdateEntry{}, apperr.Validation("actor identity is required")
	}
	// The legacy system stored one digitación value with a trailing space;
	// incoming values are trimmed so only canonical enum spellings persist.
	newValue = strings.TrimSpace(newValue)
	if newValue == DigitacionTrasladado {
		// Only duplicate-and-retire may retire a case.
		return Case{}, UpdateEntry{}, apperr.Validation("TRASLADADO cannot be set through a status transition")
	}
	if !IsMember(track, newValue) {
		return Case{}, UpdateEntry{}, apperr.Validation("invalid value for " + string(track) + ": " + newValue)
	}
	if RequiresComment(track, newValue) && strings.TrimSpace(comment) == "" {
		return Case{}, UpdateEntry{}, apperr.Validation("a comment is required when rejecting")
	}

	oldValue := c.StatusValue(track)
	c.setStatus(track, newValue, LastUpdateInfo{By: actor, At: at})
	if track == TrackFacturacion && newValue == FacturacionFacturado {
		facturadoAt := at
		c.FacturadoAt = &facturadoAt
	}
	c.UpdatedAt = at

	entry := UpdateEntry{
		Field:     string(track),
		OldValue:  oldValue,
		NewValue:  newValue,
		Comment:   strings.TrimSpace(comment),
		UpdatedBy: actor,
		At:        at,
	}
	return c, entry, nil
}

// ReportIncident opens the incident sub-flow: incidente moves to Pendiente
// and an incident_report entry is produced. The describing comment is
// mandatory.
func ReportIncident(c Case, actor, comment string, at time.Time) (Case, UpdateEntry, error) {
	if strings.TrimSpace(actor) == "" {
		return Case{}, UpdateEntry{}, apperr.Validation("actor identity is required")
	}
	if strings.TrimSpace(comment) == "" {
		return Case{}, UpdateEntry{}, apperr.Validation("an incident description is required")
	}

	oldValue := c.IncidentStatus
	c.setStatus(TrackIncidente, IncidentePendiente, LastUpdateInfo{By: actor, At: at})
	c.UpdatedAt = at

	entry := UpdateEntry{
		Field:     TagIncidentReport,
		OldValue:  oldValue,
		NewValue:  IncidentePendiente,
		Comment:   strings.TrimSpace(comment),
		UpdatedBy: actor,
		At:        at,
	}
	return c, entry, nil
}

// ReportValueDoubt produces a value_doubt_report entry without mutating any
// status track.
func ReportValueDoubt(c Case, actor, comment string, at time.Time) (UpdateEntry, error) {
	if strings.TrimSpace(actor) == "" {
		return UpdateEntry{}, apperr.Validation("actor identity is required")
	}
	if strings.TrimSpace(comment) == "" {
		return UpdateEntry{}, apperr.Validation("a value-doubt description is required")
	}

	return UpdateEntry{
		Field:     TagValueDoubtReport,
		Comment:   strings.TrimSpace(comment),
		UpdatedBy: actor,
		At:        at,
	}, nil
}
