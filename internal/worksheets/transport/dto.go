package transport

import (
	"time"

	"aduanas_portal_backend/internal/worksheets/domain"
	"aduanas_portal_backend/internal/worksheets/repository"

	"github.com/google/uuid"
)

// CreateWorksheetRequest contains data for a new worksheet (and its paired
// aforo case).
type CreateWorksheetRequest struct {
	NE             string            `json:"ne" validate:"required,ne_format"`
	Executive      string            `json:"executive" validate:"required,min=1,max=200"`
	Consignee      string            `json:"consignee" validate:"required,min=1,max=300"`
	ConsigneePhone string            `json:"consigneePhone" validate:"omitempty,max=30"`
	Classification string            `json:"classification" validate:"omitempty"`
	Logistics      *domain.Logistics `json:"logistics,omitempty"`
}

// UpdateWorksheetRequest contains the optional fields of a worksheet update.
type UpdateWorksheetRequest struct {
	Executive      *string           `json:"executive,omitempty" validate:"omitempty,min=1,max=200"`
	Consignee      *string           `json:"consignee,omitempty" validate:"omitempty,min=1,max=300"`
	ConsigneePhone *string           `json:"consigneePhone,omitempty" validate:"omitempty,max=30"`
	Logistics      *domain.Logistics `json:"logistics,omitempty"`
}

// ListWorksheetsRequest is the explicit query configuration for worksheet
// lists.
type ListWorksheetsRequest struct {
	Classification string `form:"classification"`
	Archived       *bool  `form:"archived"`
	From           string `form:"from"`
	To             string `form:"to"`
	Search         string `form:"search"`
	Limit          int    `form:"limit"`
	Offset         int    `form:"offset"`
}

// WorksheetResponse represents a worksheet in API responses.
type WorksheetResponse struct {
	ID             uuid.UUID        `json:"id"`
	NE             string           `json:"ne"`
	Executive      string           `json:"executive"`
	Consignee      string           `json:"consignee"`
	ConsigneePhone string           `json:"consigneePhone,omitempty"`
	Classification string           `json:"classification"`
	Logistics      domain.Logistics `json:"logistics"`
	IsArchived     bool             `json:"isArchived"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// WorksheetListResponse wraps a page of worksheets.
type WorksheetListResponse struct {
	Items []WorksheetResponse `json:"items"`
	Total int                 `json:"total"`
}

// FromWorksheet maps a domain worksheet to its response shape.
func FromWorksheet(w domain.Worksheet) WorksheetResponse {
	return WorksheetResponse{
		ID:             w.ID,
		NE:             w.NE,
		Executive:      w.Executive,
		Consignee:      w.Consignee,
		ConsigneePhone: w.ConsigneePhone,
		Classification: w.Classification,
		Logistics:      w.Logistics,
		IsArchived:     w.IsArchived,
		CreatedAt:      w.CreatedAt,
		UpdatedAt:      w.UpdatedAt,
	}
}

// FromWorksheets maps a worksheet page plus total.
func FromWorksheets(sheets []domain.Worksheet, total int) WorksheetListResponse {
	items := make([]WorksheetResponse, len(sheets))
	for i, w := range sheets {
		items[i] = FromWorksheet(w)
	}
	return WorksheetListResponse{Items: items, Total: total}
}

// ToWorksheetFilter converts the list request to the repository filter.
func ToWorksheetFilter(req ListWorksheetsRequest) repository.WorksheetFilter {
	filter := repository.WorksheetFilter{
		Archived: req.Archived,
		Search:   req.Search,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}
	if req.Classification != "" {
		filter.Classification = &req.Classification
	}
	if t, err := time.Parse("2006-01-02", req.From); err == nil {
		filter.CreatedFrom = &t
	}
	if t, err := time.Parse("2006-01-02", req.To); err == nil {
		end := t.Add(24*time.Hour - time.Nanosecond)
		filter.CreatedTo = &end
	}
	return filter
}
