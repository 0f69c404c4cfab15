package email

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	gomail "github.com/wneessen/go-mail"

	"aduanas_portal_backend/platform/config"
)

// SenderConfig is the configuration surface the SMTP sender reads: SMTP
// connection settings plus the portal base URL used to build case links.
type SenderConfig interface {
	config.EmailConfig
	config.NotificationConfig
}

// SMTPSender implements Sender over a direct SMTP connection via go-mail.
type SMTPSender struct {
	host      string
	port      int
	username  string
	password  string
	fromName  string
	fromEmail string
	baseURL   string
}

// NewSMTPSender creates a new SMTPSender from the email configuration.
func NewSMTPSender(cfg SenderConfig) *SMTPSender {
	return &SMTPSender{
		host:      cfg.GetSMTPHost(),
		port:      cfg.GetSMTPPort(),
		username:  cfg.GetSMTPUsername(),
		password:  cfg.GetSMTPPassword(),
		fromName:  cfg.GetEmailFromName(),
		fromEmail: cfg.GetEmailFromAddress(),
		baseURL:   cfg.GetAppBaseURL(),
	}
}

// caseURL points the recipient at the case detail page in the portal.
func (s *SMTPSender) caseURL(ne string) string {
	if s.baseURL == "" {
		return ""
	}
	return strings.TrimRight(s.baseURL, "/") + "/cases/" + ne
}

func (s *SMTPSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromEmail); err != nil {
		return fmt.Errorf("smtp from: %w", err)
	}
	if err := msg.To(toEmail); err != nil {
		return fmt.Errorf("smtp to: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(gomail.TypeTextHTML, htmlContent)

	client, err := gomail.NewClient(s.host,
		gomail.WithPort(s.port),
		gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
		gomail.WithUsername(s.username),
		gomail.WithPassword(s.password),
		gomail.WithTLSPortPolicy(gomail.TLSOpportunistic),
		gomail.WithTimeout(15*time.Second),
		gomail.WithDialContextFunc(func(dctx context.Context, _ string, addr string) (net.Conn, error) {
			return (&net.Dialer{}).DialContext(dctx, "tcp4", addr)
		}),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}

	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}

	return nil
}

func (s *SMTPSender) SendCaseRejectedEmail(ctx context.Context, toEmail, ne, track, comment, actor string) error {
	content, err := renderEmailTemplate("case_rejected.html", caseRejectedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Caso rechazado",
			Heading: "Caso rechazado",
			CaseURL: s.caseURL(ne),
		},
		NE:      ne,
		Track:   track,
		Comment: comment,
		Actor:   actor,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectCaseRejectedFmt, ne), content)
}

func (s *SMTPSender) SendCaseDuplicatedEmail(ctx context.Context, toEmail, originalNE, newNE, reason, actor string) error {
	content, err := renderEmailTemplate("case_duplicated.html", caseDuplicatedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Caso trasladado",
			Heading: "Caso trasladado",
			CaseURL: s.caseURL(newNE),
		},
		OriginalNE: originalNE,
		NewNE:      newNE,
		Reason:     reason,
		Actor:      actor,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectCaseDuplicatedFmt, originalNE, newNE), content)
}

func (s *SMTPSender) SendDuplicateResolvedEmail(ctx context.Context, toEmail, ne, outcome, resolvedBy string) error {
	content, err := renderEmailTemplate("duplicate_resolved.html", duplicateResolvedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Duplicado resuelto",
			Heading: "Duplicado resuelto",
			CaseURL: s.caseURL(ne),
		},
		NE:         ne,
		Outcome:    outcome,
		ResolvedBy: resolvedBy,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectDuplicateResolvedFmt, ne), content)
}

func (s *SMTPSender) SendIncidentReportedEmail(ctx context.Context, toEmail, ne, description, actor string) error {
	content, err := renderEmailTemplate("incident_reported.html", incidentReportedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Incidente reportado",
			Heading: "Incidente reportado",
			CaseURL: s.caseURL(ne),
		},
		NE:          ne,
		Description: description,
		Actor:       actor,
	})
	if err != nil {
		return err
	}
	return s.send(ctx, toEmail, fmt.Sprintf(subjectIncidentReportedFmt, ne), content)
}
