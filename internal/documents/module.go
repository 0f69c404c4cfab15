// Package documents provides case document attachments backed by
// S3-compatible object storage. Uploads go straight to storage via presigned
// URLs; the API only brokers URLs and records confirmed attachments.
package documents

import (
	"aduanas_portal_backend/internal/adapters/storage"
	afororepo "aduanas_portal_backend/internal/aforo/repository"
	"aduanas_portal_backend/internal/documents/handler"
	"aduanas_portal_backend/internal/documents/repository"
	"aduanas_portal_backend/internal/documents/service"
	apphttp "aduanas_portal_backend/internal/http"
	"aduanas_portal_backend/platform/logger"
	"aduanas_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the documents bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the documents module. store may be nil
// when object storage is not configured; enabled must be false in that case.
func NewModule(pool *pgxpool.Pool, cases afororepo.Repository, store storage.Service, bucket string, enabled bool, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cases, store, bucket, enabled, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "documents"
}

// RegisterRoutes mounts attachment routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/cases/:ne/documents")
	group.GET("", m.handler.List)
	group.POST("", m.handler.ConfirmUpload)
	group.POST("/upload-url", m.handler.RequestUpload)
	group.GET("/:id/download-url", m.handler.DownloadURL)
	group.DELETE("/:id", m.handler.Delete)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
