package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"aduanas_portal_backend/internal/validaciones/repository"
	"aduanas_portal_backend/internal/validaciones/service"
	"aduanas_portal_backend/platform/httpkit"
	"aduanas_portal_backend/platform/validator"
)

// Handler handles HTTP requests for the duplicate validation ledger.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates the validaciones handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// RecordRequest contains one duplicate resolution.
type RecordRequest struct {
	DuplicateNE  string   `json:"duplicateNe" validate:"required,ne_format"`
	DuplicateIDs []string `json:"duplicateIds" validate:"omitempty,max=50"`
	Outcome      string   `json:"outcome" validate:"required"`
	Comment      string   `json:"comment" validate:"omitempty,max=2000"`
}

// ListRequest is the explicit query configuration for ledger lists.
type ListRequest struct {
	NE         string `form:"ne"`
	ResolvedBy string `form:"resolvedBy"`
	Limit      int    `form:"limit"`
	Offset     int    `form:"offset"`
}

// RecordResponse represents one ledger row in API responses.
type RecordResponse struct {
	ID           uuid.UUID `json:"id"`
	DuplicateNE  string    `json:"duplicateNe"`
	DuplicateIDs []string  `json:"duplicateIds,omitempty"`
	ResolvedBy   string    `json:"resolvedBy"`
	Outcome      string    `json:"outcome"`
	Comment      string    `json:"comment,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ListResponse wraps a page of ledger rows.
type ListResponse struct {
	Items []RecordResponse `json:"items"`
	Total int              `json:"total"`
}

// Record appends one resolution to the ledger.
// POST /api/v1/validaciones
func (h *Handler) Record(c *gin.Context) {
	var req RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	rec, err := h.svc.RecordResolution(c.Request.Context(), service.RecordParams{
		DuplicateNE:  req.DuplicateNE,
		DuplicateIDs: req.DuplicateIDs,
		Outcome:      req.Outcome,
		Comment:      req.Comment,
		ResolvedBy:   identity.DisplayName(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, fromRecord(rec))
}

// List retrieves ledger rows, newest first.
// GET /api/v1/validaciones
func (h *Handler) List(c *gin.Context) {
	var req ListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return
	}

	records, total, err := h.svc.List(c.Request.Context(), repository.Filter{
		NE:         req.NE,
		ResolvedBy: req.ResolvedBy,
		Limit:      req.Limit,
		Offset:     req.Offset,
	})
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]RecordResponse, len(records))
	for i, rec := range records {
		items[i] = fromRecord(rec)
	}
	httpkit.OK(c, ListResponse{Items: items, Total: total})
}

func fromRecord(rec repository.Record) RecordResponse {
	return RecordResponse{
		ID:           rec.ID,
		DuplicateNE:  rec.DuplicateNE,
		DuplicateIDs: rec.DuplicateIDs,
		ResolvedBy:   rec.ResolvedBy,
		Outcome:      rec.Outcome,
		Comment:      rec.Comment,
		CreatedAt:    rec.CreatedAt,
	}
}
