// Package email sends operational notifications over SMTP.
package email

import "context"

// Sender delivers the portal's notification emails.
type Sender interface {
	SendCaseRejectedEmail(ctx context.Context, toEmail, ne, track, comment, actor string) error
	SendCaseDuplicatedEmail(ctx context.Context, toEmail, originalNE, newNE, reason, actor string) error
	SendDuplicateResolvedEmail(ctx context.Context, toEmail, ne, outcome, resolvedBy string) error
	SendIncidentReportedEmail(ctx context.Context, toEmail, ne, description, actor string) error
}

// NoopSender satisfies Sender without delivering anything. Used when email
// is disabled.
type NoopSender struct{}

func (NoopSender) SendCaseRejectedEmail(context.Context, string, string, string, string, string) error {
	return nil
}

func (NoopSender) SendCaseDuplicatedEmail(context.Context, string, string, string, string, string) error {
	return nil
}

func (NoopSender) SendDuplicateResolvedEmail(context.Context, string, string, string, string) error {
	return nil
}

func (NoopSender) SendIncidentReportedEmail(context.Context, string, string, string, string) error {
	return nil
}
