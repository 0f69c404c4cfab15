package email

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

type baseEmailData struct {
	Title   string
	Heading string
	CaseURL string
}

type caseRejectedEmailData struct {
	baseEmailData
	NE      string
	Track   string
	Comment string
	Actor   string
}

type caseDuplicatedEmailData struct {
	baseEmailData
	OriginalNE string
	NewNE      string
	Reason     string
	Actor      string
}

type duplicateResolvedEmailData struct {
	baseEmailData
	NE         string
	Outcome    string
	ResolvedBy string
}

type incidentReportedEmailData struct {
	baseEmailData
	NE          string
	Description string
	Actor       string
}

func renderEmailTemplate(name string, data any) (string, error) {
	templates := []string{"templates/base.html", "templates/" + name}
	tmpl, err := template.New("base.html").ParseFS(templateFS, templates...)
	if err != nil {
		return "", fmt.Errorf("parse email template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "email", data); err != nil {
		return "", fmt.Errorf("execute email template %s: %w", name, err)
	}
	return buf.String(), nil
}
