package transport

import (
	"time"

	"aduanas_portal_backend/internal/aforo/domain"
	"aduanas_portal_backend/internal/aforo/repository"
	"aduanas_portal_backend/internal/aforo/service"

	"github.com/google/uuid"
)

// TransitionRequest asks for one single-track status change.
type TransitionRequest struct {
	Track   string `json:"track" validate:"required"`
	Value   string `json:"value" validate:"required"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// BulkTransitionRequest selects the NEs for a bulk operation.
type BulkTransitionRequest struct {
	NEs     []string `json:"nes" validate:"required,min=1,max=200,dive,ne_format"`
	Comment string   `json:"comment" validate:"omitempty,max=2000"`
}

// BulkReclassifyRequest changes the worksheet classification for a selection.
type BulkReclassifyRequest struct {
	NEs            []string `json:"nes" validate:"required,min=1,max=200,dive,ne_format"`
	Classification string   `json:"classification" validate:"required"`
}

// DuplicateRequest retires a case under a fresh NE.
type DuplicateRequest struct {
	NewNE  string `json:"newNe" validate:"required,ne_format"`
	Reason string `json:"reason" validate:"required,max=2000"`
}

// IncidentRequest opens the incident sub-flow.
type IncidentRequest struct {
	Comment string `json:"comment" validate:"required,max=2000"`
}

// ResolveIncidentRequest closes the incident sub-flow.
type ResolveIncidentRequest struct {
	Outcome string `json:"outcome" validate:"required"`
	Comment string `json:"comment" validate:"omitempty,max=2000"`
}

// ValueDoubtRequest records a duda de valor on the case's log.
type ValueDoubtRequest struct {
	Comment string `json:"comment" validate:"required,max=2000"`
}

// ListCasesRequest is the explicit query configuration for case lists.
type ListCasesRequest struct {
	AforadorStatus    string `form:"aforadorStatus"`
	RevisorStatus     string `form:"revisorStatus"`
	DigitacionStatus  string `form:"digitacionStatus"`
	FacturacionStatus string `form:"facturacionStatus"`
	Archived          *bool  `form:"archived"`
	From              string `form:"from"`
	To                string `form:"to"`
	Search            string `form:"search"`
	Limit             int    `form:"limit"`
	Offset            int    `form:"offset"`
}

// LastUpdateResponse is a track's {by, at} side-car.
type LastUpdateResponse struct {
	By string     `json:"by,omitempty"`
	At *time.Time `json:"at,omitempty"`
}

// CaseResponse represents an aforo case in API responses.
type CaseResponse struct {
	ID          uuid.UUID  `json:"id"`
	NE          string     `json:"ne"`
	WorksheetID *uuid.UUID `json:"worksheetId,omitempty"`

	AforadorStatus       string `json:"aforadorStatus"`
	RevisorStatus        string `json:"revisorStatus"`
	PreliquidationStatus string `json:"preliquidationStatus"`
	DigitacionStatus     string `json:"digitacionStatus"`
	FacturacionStatus    string `json:"facturacionStatus"`
	IncidentStatus       string `json:"incidentStatus,omitempty"`

	AforadorLastUpdate       LastUpdateResponse `json:"aforadorLastUpdate"`
	RevisorLastUpdate        LastUpdateResponse `json:"revisorLastUpdate"`
	PreliquidationLastUpdate LastUpdateResponse `json:"preliquidationLastUpdate"`
	DigitacionLastUpdate     LastUpdateResponse `json:"digitacionLastUpdate"`
	FacturacionLastUpdate    LastUpdateResponse `json:"facturacionLastUpdate"`
	IncidentLastUpdate       LastUpdateResponse `json:"incidentLastUpdate"`

	IsArchived        bool       `json:"isArchived"`
	FacturadoAt       *time.Time `json:"facturadoAt,omitempty"`
	ExecutiveComments []string   `json:"executiveComments,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CaseListResponse wraps a page of cases with the unpaginated total.
type CaseListResponse struct {
	Items []CaseResponse `json:"items"`
	Total int            `json:"total"`
}

// UpdateEntryResponse is one row of the ordered update log.
type UpdateEntryResponse struct {
	ID         uuid.UUID `json:"id"`
	EntityKind string    `json:"entityKind"`
	NE         string    `json:"ne"`
	Field      string    `json:"field"`
	OldValue   *string   `json:"oldValue,omitempty"`
	NewValue   *string   `json:"newValue,omitempty"`
	Comment    *string   `json:"comment,omitempty"`
	UpdatedBy  string    `json:"updatedBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TimelineResponse is the ordered update log for one NE.
type TimelineResponse struct {
	NE      string                `json:"ne"`
	Entries []UpdateEntryResponse `json:"entries"`
}

// BulkResultResponse reports a bulk operation outcome.
type BulkResultResponse struct {
	Applied []string              `json:"applied"`
	Failed  []service.BulkFailure `json:"failed"`
}

// FromCase maps a domain case to its response shape.
func FromCase(c domain.Case) CaseResponse {
	return CaseResponse{
		ID:          c.ID,
		NE:          c.NE,
		WorksheetID: c.WorksheetID,

		AforadorStatus:       c.AforadorStatus,
		RevisorStatus:        c.RevisorStatus,
		PreliquidationStatus: c.PreliquidationStatus,
		DigitacionStatus:     c.DigitacionStatus,
		FacturacionStatus:    c.FacturacionStatus,
		IncidentStatus:       c.IncidentStatus,

		AforadorLastUpdate:       fromLastUpdate(c.AforadorLastUpdate),
		RevisorLastUpdate:        fromLastUpdate(c.RevisorLastUpdate),
		PreliquidationLastUpdate: fromLastUpdate(c.PreliquidationLastUpdate),
		DigitacionLastUpdate:     fromLastUpdate(c.DigitacionLastUpdate),
		FacturacionLastUpdate:    fromLastUpdate(c.FacturacionLastUpdate),
		IncidentLastUpdate:       fromLastUpdate(c.IncidentLastUpdate),

		IsArchived:        c.IsArchived,
		FacturadoAt:       c.FacturadoAt,
		ExecutiveComments: c.ExecutiveComments,

		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

// FromCases maps a case page plus total.
func FromCases(cases []domain.Case, total int) CaseListResponse {
	items := make([]CaseResponse, len(cases))
	for i, c := range cases {
		items[i] = FromCase(c)
	}
	return CaseListResponse{Items: items, Total: total}
}

// FromUpdateRecords maps the update-log rows for one NE.
func FromUpdateRecords(ne string, records []repository.UpdateRecord) TimelineResponse {
	entries := make([]UpdateEntryResponse, len(records))
	for i, r := range records {
		entries[i] = UpdateEntryResponse{
			ID:         r.ID,
			EntityKind: r.EntityKind,
			NE:         r.NE,
			Field:      r.Field,
			OldValue:   r.OldValue,
			NewValue:   r.NewValue,
			Comment:    r.Comment,
			UpdatedBy:  r.UpdatedBy,
			CreatedAt:  r.CreatedAt,
		}
	}
	return TimelineResponse{NE: ne, Entries: entries}
}

// ToCaseFilter converts the list request to the repository filter. Date
// bounds parse as RFC 3339 or plain dates; unparseable bounds are ignored.
func ToCaseFilter(req ListCasesRequest) repository.CaseFilter {
	filter := repository.CaseFilter{
		Archived: req.Archived,
		Search:   req.Search,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if req.AforadorStatus != "" {
		filter.AforadorStatus = &req.AforadorStatus
	}
	if req.RevisorStatus != "" {
		filter.RevisorStatus = &req.RevisorStatus
	}
	if req.DigitacionStatus != "" {
		filter.DigitacionStatus = &req.DigitacionStatus
	}
	if req.FacturacionStatus != "" {
		filter.FacturacionStatus = &req.FacturacionStatus
	}
	if t, ok := parseDate(req.From); ok {
		filter.CreatedFrom = &t
	}
	if req.To != "" {
		if t, err := time.Parse(time.RFC3339, req.To); err == nil {
			filter.CreatedTo = &t
		} else if t, err := time.Parse("2006-01-02", req.To); err == nil {
			// A plain date upper bound is inclusive of the whole day.
			end := t.Add(24*time.Hour - time.Nanosecond)
			filter.CreatedTo = &end
		}
	}
	return filter
}

func fromLastUpdate(info domain.LastUpdateInfo) LastUpdateResponse {
	resp := LastUpdateResponse{By: info.By}
	if !info.At.IsZero() {
		at := info.At
		resp.At = &at
	}
	return resp
}

func parseDate(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}
