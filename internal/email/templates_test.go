package email

import (
	"strings"
	"testing"
)

func TestRenderCaseRejectedTemplate(t *testing.T) {
	content, err := renderEmailTemplate("case_rejected.html", caseRejectedEmailData{
		baseEmailData: baseEmailData{Title: "Caso rechazado", Heading: "Caso rechazado"},
		NE:            "NE20240001",
		Track:         "revisorStatus",
		Comment:       "Falta la factura comercial",
		Actor:         "Carlos Pineda",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"NE20240001", "Falta la factura comercial", "Carlos Pineda"} {
		if !strings.Contains(content, want) {
			t.Errorf("rendered email missing %q", want)
		}
	}
}

func TestRenderCaseLinkWhenBaseURLConfigured(t *testing.T) {
	sender := &SMTPSender{baseURL: "https://portal.example.com/"}

	content, err := renderEmailTemplate("case_rejected.html", caseRejectedEmailData{
		baseEmailData: baseEmailData{
			Title:   "Caso rechazado",
			Heading: "Caso rechazado",
			CaseURL: sender.caseURL("NE20240001"),
		},
		NE:    "NE20240001",
		Track: "revisorStatus",
		Actor: "Carlos Pineda",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(content, `href="https://portal.example.com/cases/NE20240001"`) {
		t.Errorf("rendered email missing case link:\n%s", content)
	}
}

func TestCaseURLEmptyWhenBaseURLUnset(t *testing.T) {
	sender := &SMTPSender{}
	if got := sender.caseURL("NE20240001"); got != "" {
		t.Errorf("caseURL = %q, want empty without a base URL", got)
	}
}

func TestRenderCaseDuplicatedTemplateOmitsEmptyReason(t *testing.T) {
	content, err := renderEmailTemplate("case_duplicated.html", caseDuplicatedEmailData{
		baseEmailData: baseEmailData{Title: "Caso trasladado", Heading: "Caso trasladado"},
		OriginalNE:    "NE20240001",
		NewNE:         "NE20240002",
		Actor:         "Maria Reyes",
	})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if strings.Contains(content, "Motivo:") {
		t.Errorf("empty reason should not render the motivo block")
	}
}
