// Package events defines the domain events exchanged between bounded
// contexts over the platform event bus.
package events

import (
	"github.com/google/uuid"

	"aduanas_portal_backend/platform/events"
)

// Event names, used both for publishing and subscribing.
const (
	CaseRejectedName          = "aforo.case.rejected"
	CaseDuplicatedName        = "aforo.case.duplicated"
	IncidentReportedName      = "aforo.incident.reported"
	DuplicateResolvedName     = "validaciones.duplicate.resolved"
	WorksheetCreatedName      = "worksheets.created"
	NotificationOutboxDueName = "notification.outbox.due"
)

// CaseRejectedEvent fires when a revisor or incidente track lands on a
// rejection value.
type CaseRejectedEvent struct {
	events.BaseEvent
	NE      string `json:"ne"`
	Track   string `json:"track"`
	Value   string `json:"value"`
	Comment string `json:"comment"`
	Actor   string `json:"actor"`
}

func (e CaseRejectedEvent) EventName() string { return CaseRejectedName }

// CaseDuplicatedEvent fires when duplicate-and-retire replaces a case.
type CaseDuplicatedEvent struct {
	events.BaseEvent
	OriginalNE string `json:"originalNe"`
	NewNE      string `json:"newNe"`
	Reason     string `json:"reason"`
	Actor      string `json:"actor"`
}

func (e CaseDuplicatedEvent) EventName() string { return CaseDuplicatedName }

// IncidentReportedEvent fires when the incident sub-flow opens on a case.
type IncidentReportedEvent struct {
	events.BaseEvent
	NE      string `json:"ne"`
	Comment string `json:"comment"`
	Actor   string `json:"actor"`
}

func (e IncidentReportedEvent) EventName() string { return IncidentReportedName }

// DuplicateResolvedEvent fires when a duplicate validation is recorded.
type DuplicateResolvedEvent struct {
	events.BaseEvent
	DuplicateNE string `json:"duplicateNe"`
	Outcome     string `json:"outcome"`
	ResolvedBy  string `json:"resolvedBy"`
}

func (e DuplicateResolvedEvent) EventName() string { return DuplicateResolvedName }

// WorksheetCreatedEvent fires when a worksheet and its paired case are
// created.
type WorksheetCreatedEvent struct {
	events.BaseEvent
	NE        string `json:"ne"`
	Executive string `json:"executive"`
	CreatedBy string `json:"createdBy"`
}

func (e WorksheetCreatedEvent) EventName() string { return WorksheetCreatedName }

// NotificationOutboxDueEvent fires when the scheduler worker picks up an
// enqueued outbox row that is due for delivery.
type NotificationOutboxDueEvent struct {
	events.BaseEvent
	OutboxID uuid.UUID `json:"outboxId"`
}

func (e NotificationOutboxDueEvent) EventName() string { return NotificationOutboxDueName }
