package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aduanas_portal_backend/internal/aforo/domain"
	"aduanas_portal_backend/internal/aforo/service"
	"aduanas_portal_backend/internal/aforo/transport"
	"aduanas_portal_backend/platform/httpkit"
	"aduanas_portal_backend/platform/validator"
)

// Handler handles HTTP requests for aforo cases.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidNE        = "invalid NE"
)

// New creates the aforo handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// List retrieves cases by explicit filter.
// GET /api/v1/cases
func (h *Handler) List(c *gin.Context) {
	var req transport.ListCasesRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	cases, total, err := h.svc.ListCases(c.Request.Context(), transport.ToCaseFilter(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromCases(cases, total))
}

// Get retrieves one case by NE.
// GET /api/v1/cases/:ne
func (h *Handler) Get(c *gin.Context) {
	ne, ok := h.caseNE(c)
	if !ok {
		return
	}

	result, err := h.svc.GetCase(c.Request.Context(), ne)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromCase(result))
}

// Timeline retrieves the ordered update log for an NE.
// GET /api/v1/cases/:ne/updates
func (h *Handler) Timeline(c *gin.Context) {
	ne, ok := h.caseNE(c)
	if !ok {
		return
	}

	records, err := h.svc.Timeline(c.Request.Context(), ne)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromUpdateRecords(ne, records))
}

// Transition applies a single-track status change.
// PATCH /api/v1/cases/:ne/status
func (h *Handler) Transition(c *gin.Context) {
	ne, ok := h.caseNE(c)
	if !ok {
		return
	}
	var req transport.TransitionRequest
	if !h.bindAndValidate(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.Transition(c.Request.Context(), service.TransitionParams{
		NE:      ne,
		Track:   domain.Track(req.Track),
		Value:   req.Value,
		Comment: req.Comment,
		Actor:   identity.DisplayName(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromCase(result))
}

// BulkApproveRevisor approves the revisor track on a selection.
// POST /api/v1/cases/bulk/approve-revisor
func (h *Handler) BulkApproveRevisor(c *gin.Context) {
	var req transport.BulkTransitionRequest
	if !h.bindAndValidate(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.BulkApproveRevisor(c.Request.Context(), req.NEs, identity.DisplayName(), req.Comment)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, bulkResponse(result))
}

// BulkSendToDigitacion moves eligible cases to digitación.
// POST /api/v1/cases/bulk/send-to-digitacion
func (h *Handler) BulkSendToDigitacion(c *gin.Context) {
	var req transport.BulkTransitionRequest
	if !h.bindAndValidate(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.BulkSendToDigitacion(c.Request.Context(), req.NEs, identity.DisplayName())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, bulkResponse(result))
}

// BulkReclassify changes the worksheet classification on a selection.
// POST /api/v1/admin/cases/bulk/reclassify
func (h *Handler) BulkReclassify(c *gin.Context) {
	var req transport.BulkReclassifyRequest
	if !h.bindAndValidate(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.BulkReclassify(c.Request.Context(), req.NEs, req.Classification, identity.DisplayName(), identity.Roles())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, bulkResponse(result))
}

// Archive archives the case and its paired worksheet.
// POST /api/v1/cases/:ne/archive
func (h *Handler) Archive(c *gin.Context) {
	h.setArchived(c, true)
}

// Restore reverses Archive.
// POST /api/v1/cases/:ne/restore
func (h *Handler) Restore(c *gin.Context) {
	h.setArchived(c, false)
}

func (h *Handler) setArchived(c *gin.Context, archived bool) {
	ne, ok := h.caseNE(c)
	if !ok {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var err error
	if archived {
		err = h.svc.Archive(c.Request.Context(), ne, identity.DisplayName(), identity.Roles())
	} else {
		err = h.svc.Restore(c.Request.Context(), ne, identity.DisplayName(), identity.Roles())
	}
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ne": ne, "isArchived": archived})
}

// Duplicate retires the case under a fresh NE.
// POST /api/v1/cases/:ne/duplicate
func (h *Handler) Duplicate(c *gin.Context) {
	ne, ok := h.caseNE(c)
	if !ok {
		return
	}
	var req transport.DuplicateRequest
	if !h.bindAndValidate(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	fresh, err := h.svc.DuplicateAndRetire(c.Request.Context(), ne, req.NewNE, req.Reason, identity.DisplayName())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.FromCase(fresh))
}

// ReportIncident opens the incident sub-flow.
// POST /api/v1/cases/:ne/incidents
func (h *Handler) ReportIncident(c *gin.Context) {
	ne, ok := h.caseNE(c)
	if !ok {
		return
	}
	var req transport.IncidentRequest
	if !h.bindAndValidate(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ReportIncident(c.Request.Context(), ne, identity.DisplayName(), req.Comment)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromCase(result))
}

// ResolveIncident closes the incident sub-flow.
// POST /api/v1/cases/:ne/incidents/resolve
func (h *Handler) ResolveIncident(c *gin.Context) {
	ne, ok := h.caseNE(c)
	if !ok {
		return
	}
	var req transport.ResolveIncidentRequest
	if !h.bindAndValidate(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	result, err := h.svc.ResolveIncident(c.Request.Context(), ne, identity.DisplayName(), req.Outcome, req.Comment)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromCase(result))
}

// ReportValueDoubt records a duda de valor entry.
// POST /api/v1/cases/:ne/value-doubts
func (h *Handler) ReportValueDoubt(c *gin.Context) {
	ne, ok := h.caseNE(c)
	if !ok {
		return
	}
	var req transport.ValueDoubtRequest
	if !h.bindAndValidate(c, &req) {
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	err := h.svc.ReportValueDoubt(c.Request.Context(), ne, identity.DisplayName(), req.Comment)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"ne": ne, "reported": true})
}

func (h *Handler) caseNE(c *gin.Context) (string, bool) {
	ne := c.Param("ne")
	if err := h.val.Var(ne, "required,ne_format"); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidNE, nil)
		return "", false
	}
	return ne, true
}

func (h *Handler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return false
	}
	return true
}

func bulkResponse(r service.BulkResult) transport.BulkResultResponse {
	return transport.BulkResultResponse{Applied: r.Applied, Failed: r.Failed}
}
