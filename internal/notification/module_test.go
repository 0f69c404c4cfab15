package notification

import (
	"context"
	"encoding/json"
	"testing"

	"aduanas_portal_backend/internal/notification/outbox"
	"aduanas_portal_backend/platform/httpkit"
	"aduanas_portal_backend/platform/logger"
)

type sentEmail struct {
	to       string
	template string
}

type fakeSender struct {
	sent []sentEmail
}

func (f *fakeSender) SendCaseRejectedEmail(_ context.Context, to, _, _, _, _ string) error {
	f.sent = append(f.sent, sentEmail{to: to, template: TemplateCaseRejected})
	return nil
}

func (f *fakeSender) SendCaseDuplicatedEmail(_ context.Context, to, _, _, _, _ string) error {
	f.sent = append(f.sent, sentEmail{to: to, template: TemplateCaseDuplicated})
	return nil
}

func (f *fakeSender) SendDuplicateResolvedEmail(_ context.Context, to, _, _, _ string) error {
	f.sent = append(f.sent, sentEmail{to: to, template: TemplateDuplicateResolved})
	return nil
}

func (f *fakeSender) SendIncidentReportedEmail(_ context.Context, to, _, _, _ string) error {
	f.sent = append(f.sent, sentEmail{to: to, template: TemplateIncidentReported})
	return nil
}


type fakeRecipients struct {
	emails []string
}

func (f *fakeRecipients) EmailsByRoles(_ context.Context, _ []string) ([]string, error) {
	return f.emails, nil
}

func newTestModule(sender *fakeSender, recipients *fakeRecipients) *Module {
	return &Module{
		sender:     sender,
		recipients: recipients,
		log:        logger.New("development"),
	}
}

func TestDeliverSendsToEveryRecipient(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModule(sender, &fakeRecipients{emails: []string{"ana@acme.hn", "luis@acme.hn"}})

	payload, _ := json.Marshal(caseRejectedPayload{
		NE: "NE20240001", Track: "revisorStatus", Comment: "falta factura", Actor: "Carlos Pineda",
	})
	err := m.deliver(context.Background(), outbox.Record{
		Template: TemplateCaseRejected,
		Payload:  payload,
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}

	if len(sender.sent) != 2 {
		t.Fatalf("expected 2 emails, got %d", len(sender.sent))
	}
	for _, s := range sender.sent {
		if s.template != TemplateCaseRejected {
			t.Errorf("sent template = %q", s.template)
		}
	}
}

func TestDeliverWithNoRecipientsIsNotAnError(t *testing.T) {
	sender := &fakeSender{}
	m := newTestModule(sender, &fakeRecipients{})

	payload, _ := json.Marshal(incidentReportedPayload{NE: "NE20240001"})
	err := m.deliver(context.Background(), outbox.Record{
		Template: TemplateIncidentReported,
		Payload:  payload,
	})
	if err != nil {
		t.Fatalf("deliver: %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no emails, got %d", len(sender.sent))
	}
}

func TestSendRejectsUnknownTemplate(t *testing.T) {
	m := newTestModule(&fakeSender{}, &fakeRecipients{emails: []string{"ana@acme.hn"}})

	err := m.send(context.Background(), "ana@acme.hn", outbox.Record{Template: "mystery"})
	if err == nil {
		t.Fatal("expected error for unknown template")
	}
}

func TestRolesForTemplate(t *testing.T) {
	tests := []struct {
		template string
		want     []string
	}{
		{TemplateCaseRejected, []string{httpkit.RoleAforador, httpkit.RoleEjecutivo}},
		{TemplateCaseDuplicated, []string{httpkit.RoleEjecutivo}},
		{TemplateDuplicateResolved, []string{httpkit.RoleSupervisor}},
		{TemplateIncidentReported, []string{httpkit.RoleSupervisor}},
	}
	for _, tt := range tests {
		got := rolesForTemplate(tt.template)
		if len(got) != len(tt.want) {
			t.Errorf("%s: roles = %v, want %v", tt.template, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("%s: roles = %v, want %v", tt.template, got, tt.want)
				break
			}
		}
	}
}
