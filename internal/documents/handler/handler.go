package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"aduanas_portal_backend/internal/documents/repository"
	"aduanas_portal_backend/internal/documents/service"
	"aduanas_portal_backend/platform/httpkit"
	"aduanas_portal_backend/platform/validator"
)

// Handler handles HTTP requests for case document attachments.
type Handler struct {
	svc *service.Service
	val *validator.Validator
}

// New creates the documents handler.
func New(svc *service.Service, val *validator.Validator) *Handler {
	return &Handler{svc: svc, val: val}
}

// UploadRequest asks for a presigned upload URL.
type UploadRequest struct {
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,gt=0"`
}

// ConfirmRequest confirms a completed upload.
type ConfirmRequest struct {
	FileKey     string `json:"fileKey" validate:"required,max=512"`
	FileName    string `json:"fileName" validate:"required,max=255"`
	ContentType string `json:"contentType" validate:"required,max=100"`
	SizeBytes   int64  `json:"sizeBytes" validate:"required,gt=0"`
}

// DocumentResponse represents one attachment in API responses.
type DocumentResponse struct {
	ID          uuid.UUID `json:"id"`
	NE          string    `json:"ne"`
	FileName    string    `json:"fileName"`
	ContentType string    `json:"contentType"`
	SizeBytes   int64     `json:"sizeBytes"`
	UploadedBy  string    `json:"uploadedBy"`
	CreatedAt   time.Time `json:"createdAt"`
}

// ListResponse wraps a case's attachments.
type ListResponse struct {
	Items []DocumentResponse `json:"items"`
}

// RequestUpload issues a presigned PUT URL for a new attachment.
// POST /api/v1/cases/:ne/documents/upload-url
func (h *Handler) RequestUpload(c *gin.Context) {
	ne, ok := h.caseNE(c)
	if !ok {
		return
	}

	var req UploadRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	presigned, err := h.svc.RequestUpload(c.Request.Context(), service.UploadRequest{
		NE:          ne,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, presigned)
}

// ConfirmUpload records a completed upload on the case.
// POST /api/v1/cases/:ne/documents
func (h *Handler) ConfirmUpload(c *gin.Context) {
	ne, ok := h.caseNE(c)
	if !ok {
		return
	}

	var req ConfirmRequest
	if !h.bindAndValidate(c, &req) {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	doc, err := h.svc.ConfirmUpload(c.Request.Context(), service.ConfirmParams{
		NE:          ne,
		FileKey:     req.FileKey,
		FileName:    req.FileName,
		ContentType: req.ContentType,
		SizeBytes:   req.SizeBytes,
		Actor:       identity.DisplayName(),
	})
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, fromDocument(doc))
}

// List returns a case's attachments, newest first.
// GET /api/v1/cases/:ne/documents
func (h *Handler) List(c *gin.Context) {
	ne, ok := h.caseNE(c)
	if !ok {
		return
	}

	docs, err := h.svc.List(c.Request.Context(), ne)
	if httpkit.HandleError(c, err) {
		return
	}

	items := make([]DocumentResponse, len(docs))
	for i, doc := range docs {
		items[i] = fromDocument(doc)
	}
	httpkit.OK(c, ListResponse{Items: items})
}

// DownloadURL issues a presigned GET URL for an attachment.
// GET /api/v1/cases/:ne/documents/:id/download-url
func (h *Handler) DownloadURL(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	presigned, err := h.svc.DownloadURL(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, presigned)
}

// Delete removes an attachment.
// DELETE /api/v1/cases/:ne/documents/:id
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.documentID(c)
	if !ok {
		return
	}

	identity := httpkit.MustGetIdentity(c)
	if identity == nil {
		return
	}

	if httpkit.HandleError(c, h.svc.Delete(c.Request.Context(), id, identity.DisplayName())) {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) caseNE(c *gin.Context) (string, bool) {
	ne := c.Param("ne")
	if err := h.val.Var(ne, "required,ne_format"); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid NE format", nil)
		return "", false
	}
	return ne, true
}

func (h *Handler) documentID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid document id", nil)
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) bindAndValidate(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid request", nil)
		return false
	}
	if err := h.val.Struct(req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "validation failed", err.Error())
		return false
	}
	return true
}

func fromDocument(doc repository.Document) DocumentResponse {
	return DocumentResponse{
		ID:          doc.ID,
		NE:          doc.NE,
		FileName:    doc.FileName,
		ContentType: doc.ContentType,
		SizeBytes:   doc.SizeBytes,
		UploadedBy:  doc.UploadedBy,
		CreatedAt:   doc.CreatedAt,
	}
}
