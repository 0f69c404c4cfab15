// Package notification turns domain events into emails. Domain modules only
// publish events; this module owns recipients, templates and delivery. Every
// notification goes through the outbox table first, so a failed SMTP server
// never breaks the user action that triggered it.
package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"aduanas_portal_backend/internal/email"
	appevents "aduanas_portal_backend/internal/events"
	"aduanas_portal_backend/internal/notification/outbox"
	"aduanas_portal_backend/platform/events"
	"aduanas_portal_backend/platform/httpkit"
	"aduanas_portal_backend/platform/logger"
)

// Notification templates (outbox rows carry one of these).
const (
	TemplateCaseRejected      = "case_rejected"
	TemplateCaseDuplicated    = "case_duplicated"
	TemplateDuplicateResolved = "duplicate_resolved"
	TemplateIncidentReported  = "incident_reported"
)

type caseRejectedPayload struct {
	NE      string `json:"ne"`
	Track   string `json:"track"`
	Comment string `json:"comment"`
	Actor   string `json:"actor"`
}

type caseDuplicatedPayload struct {
	OriginalNE string `json:"originalNe"`
	NewNE      string `json:"newNe"`
	Reason     string `json:"reason"`
	Actor      string `json:"actor"`
}

type duplicateResolvedPayload struct {
	NE         string `json:"ne"`
	Outcome    string `json:"outcome"`
	ResolvedBy string `json:"resolvedBy"`
}

type incidentReportedPayload struct {
	NE          string `json:"ne"`
	Description string `json:"description"`
	Actor       string `json:"actor"`
}

// Recipients resolves the email addresses a template should go to.
type Recipients interface {
	EmailsByRoles(ctx context.Context, roles []string) ([]string, error)
}

// Module wires domain events to the notification outbox and delivers due
// outbox rows via the email sender.
type Module struct {
	outbox     *outbox.Repository
	sender     email.Sender
	recipients Recipients
	log        *logger.Logger
}

// NewModule creates the notification module and subscribes it on the bus.
func NewModule(pool *pgxpool.Pool, bus events.Bus, sender email.Sender, log *logger.Logger) *Module {
	m := &Module{
		outbox:     outbox.New(pool),
		sender:     sender,
		recipients: &userDirectory{pool: pool},
		log:        log,
	}

	bus.Subscribe(appevents.CaseRejectedName, events.HandlerFunc(m.onCaseRejected))
	bus.Subscribe(appevents.CaseDuplicatedName, events.HandlerFunc(m.onCaseDuplicated))
	bus.Subscribe(appevents.DuplicateResolvedName, events.HandlerFunc(m.onDuplicateResolved))
	bus.Subscribe(appevents.IncidentReportedName, events.HandlerFunc(m.onIncidentReported))
	bus.Subscribe(appevents.NotificationOutboxDueName, events.HandlerFunc(m.onOutboxDue))

	return m
}

func (m *Module) onCaseRejected(ctx context.Context, event events.Event) error {
	e, ok := event.(appevents.CaseRejectedEvent)
	if !ok {
		return nil
	}
	return m.enqueue(ctx, TemplateCaseRejected, caseRejectedPayload{
		NE: e.NE, Track: e.Track, Comment: e.Comment, Actor: e.Actor,
	})
}

func (m *Module) onCaseDuplicated(ctx context.Context, event events.Event) error {
	e, ok := event.(appevents.CaseDuplicatedEvent)
	if !ok {
		return nil
	}
	return m.enqueue(ctx, TemplateCaseDuplicated, caseDuplicatedPayload{
		OriginalNE: e.OriginalNE, NewNE: e.NewNE, Reason: e.Reason, Actor: e.Actor,
	})
}

func (m *Module) onDuplicateResolved(ctx context.Context, event events.Event) error {
	e, ok := event.(appevents.DuplicateResolvedEvent)
	if !ok {
		return nil
	}
	return m.enqueue(ctx, TemplateDuplicateResolved, duplicateResolvedPayload{
		NE: e.DuplicateNE, Outcome: e.Outcome, ResolvedBy: e.ResolvedBy,
	})
}

func (m *Module) onIncidentReported(ctx context.Context, event events.Event) error {
	e, ok := event.(appevents.IncidentReportedEvent)
	if !ok {
		return nil
	}
	return m.enqueue(ctx, TemplateIncidentReported, incidentReportedPayload{
		NE: e.NE, Description: e.Comment, Actor: e.Actor,
	})
}

func (m *Module) enqueue(ctx context.Context, template string, payload any) error {
	id, err := m.outbox.Insert(ctx, outbox.InsertParams{Template: template, Payload: payload})
	if err != nil {
		m.log.Error("outbox insert failed", "template", template, "error", err)
		return err
	}
	m.log.Debug("notification queued", "template", template, "outboxId", id)
	return nil
}

// onOutboxDue delivers one claimed outbox row. Returned errors mark the row
// failed; asynq retries the task later.
func (m *Module) onOutboxDue(ctx context.Context, event events.Event) error {
	e, ok := event.(appevents.NotificationOutboxDueEvent)
	if !ok {
		return nil
	}

	rec, err := m.outbox.GetByID(ctx, e.OutboxID)
	if err != nil {
		return err
	}
	if rec.Status == outbox.StatusSucceeded {
		return nil
	}

	if err := m.outbox.MarkProcessing(ctx, rec.ID); err != nil {
		return err
	}

	if err := m.deliver(ctx, rec); err != nil {
		if markErr := m.outbox.MarkFailed(ctx, rec.ID, err.Error()); markErr != nil {
			m.log.Error("outbox mark failed", "outboxId", rec.ID, "error", markErr)
		}
		return err
	}

	return m.outbox.MarkSucceeded(ctx, rec.ID)
}

func (m *Module) deliver(ctx context.Context, rec outbox.Record) error {
	emails, err := m.recipients.EmailsByRoles(ctx, rolesForTemplate(rec.Template))
	if err != nil {
		return err
	}
	if len(emails) == 0 {
		m.log.Warn("no recipients for notification", "template", rec.Template)
		return nil
	}

	for _, to := range emails {
		if err := m.send(ctx, to, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *Module) send(ctx context.Context, to string, rec outbox.Record) error {
	switch rec.Template {
	case TemplateCaseRejected:
		var p caseRejectedPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", rec.Template, err)
		}
		return m.sender.SendCaseRejectedEmail(ctx, to, p.NE, p.Track, p.Comment, p.Actor)

	case TemplateCaseDuplicated:
		var p caseDuplicatedPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", rec.Template, err)
		}
		return m.sender.SendCaseDuplicatedEmail(ctx, to, p.OriginalNE, p.NewNE, p.Reason, p.Actor)

	case TemplateDuplicateResolved:
		var p duplicateResolvedPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", rec.Template, err)
		}
		return m.sender.SendDuplicateResolvedEmail(ctx, to, p.NE, p.Outcome, p.ResolvedBy)

	case TemplateIncidentReported:
		var p incidentReportedPayload
		if err := json.Unmarshal(rec.Payload, &p); err != nil {
			return fmt.Errorf("unmarshal %s payload: %w", rec.Template, err)
		}
		return m.sender.SendIncidentReportedEmail(ctx, to, p.NE, p.Description, p.Actor)

	default:
		return fmt.Errorf("unknown notification template %q", rec.Template)
	}
}

// rolesForTemplate maps each notification to the roles that act on it.
func rolesForTemplate(template string) []string {
	switch template {
	case TemplateCaseRejected:
		return []string{httpkit.RoleAforador, httpkit.RoleEjecutivo}
	case TemplateCaseDuplicated:
		return []string{httpkit.RoleEjecutivo}
	case TemplateDuplicateResolved:
		return []string{httpkit.RoleSupervisor}
	case TemplateIncidentReported:
		return []string{httpkit.RoleSupervisor}
	default:
		return nil
	}
}

// userDirectory resolves active user emails by role.
type userDirectory struct {
	pool *pgxpool.Pool
}

func (d *userDirectory) EmailsByRoles(ctx context.Context, roles []string) ([]string, error) {
	if len(roles) == 0 {
		return nil, nil
	}

	rows, err := d.pool.Query(ctx,
		`SELECT email FROM users WHERE is_active = TRUE AND roles && $1::text[] ORDER BY email`,
		roles,
	)
	if err != nil {
		return nil, fmt.Errorf("list recipient emails: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, err
		}
		emails = append(emails, e)
	}
	return emails, rows.Err()
}
