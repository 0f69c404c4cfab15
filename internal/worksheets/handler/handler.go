package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"aduanas_portal_backend/internal/worksheets/domain"
	"aduanas_portal_backend/internal/worksheets/service"
	"aduanas_portal_backend/internal/worksheets/transport"
	"aduanas_portal_backend/platform/httpkit"
	"aduanas_portal_backend/platform/validator"
)

// Handler handles HTTP requests for worksheets.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

const (
	msgInvalidRequest   = "invalid request"
	msgValidationFailed = "validation failed"
	msgInvalidNE        = "invalid NE"
)

// New creates the worksheets handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// Create creates a worksheet and its paired aforo case.
// POST /api/v1/worksheets
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateWorksheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	params := service.CreateParams{
		NE:             req.NE,
		Executive:      req.Executive,
		Consignee:      req.Consignee,
		ConsigneePhone: req.ConsigneePhone,
		Classification: req.Classification,
		Actor:          identity.DisplayName(),
	}
	if req.Logistics != nil {
		params.Logistics = *req.Logistics
	}

	sheet, err := h.svc.Create(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, transport.FromWorksheet(sheet))
}

// Update applies optional field changes.
// PATCH /api/v1/worksheets/:ne
func (h *Handler) Update(c *gin.Context) {
	ne, ok := h.worksheetNE(c)
	if !ok {
		return
	}
	var req transport.UpdateWorksheetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgValidationFailed, err.Error())
		return
	}
	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	var logistics *domain.Logistics
	if req.Logistics != nil {
		logistics = req.Logistics
	}

	sheet, err := h.svc.Update(c.Request.Context(), ne, service.UpdateParams{
		Executive:      req.Executive,
		Consignee:      req.Consignee,
		ConsigneePhone: req.ConsigneePhone,
		Logistics:      logistics,
		Actor:          identity.DisplayName(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromWorksheet(sheet))
}

// Get retrieves a worksheet by NE.
// GET /api/v1/worksheets/:ne
func (h *Handler) Get(c *gin.Context) {
	ne, ok := h.worksheetNE(c)
	if !ok {
		return
	}

	sheet, err := h.svc.Get(c.Request.Context(), ne)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromWorksheet(sheet))
}

// List retrieves worksheets by explicit filter.
// GET /api/v1/worksheets
func (h *Handler) List(c *gin.Context) {
	var req transport.ListWorksheetsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidRequest, nil)
		return
	}

	sheets, total, err := h.svc.List(c.Request.Context(), transport.ToWorksheetFilter(req))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, transport.FromWorksheets(sheets, total))
}

func (h *Handler) worksheetNE(c *gin.Context) (string, bool) {
	ne := c.Param("ne")
	if err := h.val.Var(ne, "required,ne_format"); err != nil {
		httpkit.Error(c, http.StatusBadRequest, msgInvalidNE, nil)
		return "", false
	}
	return ne, true
}
