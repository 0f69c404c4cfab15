// Package aforo provides the aforo case lifecycle bounded context: the
// multi-track status engine, bulk coordinator, archive/pairing manager, and
// the append-only update log.
package aforo

import (
	"aduanas_portal_backend/internal/aforo/handler"
	"aduanas_portal_backend/internal/aforo/repository"
	"aduanas_portal_backend/internal/aforo/service"
	apphttp "aduanas_portal_backend/internal/http"
	"aduanas_portal_backend/platform/events"
	"aduanas_portal_backend/platform/logger"
	"aduanas_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the aforo bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the aforo module with all its dependencies.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger, bus events.Bus) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log, bus)
	h := handler.New(svc, val)

	return &Module{
		handler: h,
		service: svc,
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "aforo"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// Repository returns the repository for direct access if needed.
func (m *Module) Repository() repository.Repository {
	return m.repo
}

// RegisterRoutes mounts aforo case routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	cases := ctx.Protected.Group("/cases")
	cases.GET("", m.handler.List)
	cases.GET("/:ne", m.handler.Get)
	cases.GET("/:ne/updates", m.handler.Timeline)
	cases.PATCH("/:ne/status", m.handler.Transition)
	cases.POST("/:ne/archive", m.handler.Archive)
	cases.POST("/:ne/restore", m.handler.Restore)
	cases.POST("/:ne/duplicate", m.handler.Duplicate)
	cases.POST("/:ne/incidents", m.handler.ReportIncident)
	cases.POST("/:ne/incidents/resolve", m.handler.ResolveIncident)
	cases.POST("/:ne/value-doubts", m.handler.ReportValueDoubt)

	cases.POST("/bulk/approve-revisor", m.handler.BulkApproveRevisor)
	cases.POST("/bulk/send-to-digitacion", m.handler.BulkSendToDigitacion)

	ctx.Admin.POST("/cases/bulk/reclassify", m.handler.BulkReclassify)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
