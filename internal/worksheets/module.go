// Package worksheets provides the worksheet bounded context: the
// executive-facing side of an NE, always created in lockstep with its aforo
// case.
package worksheets

import (
	apphttp "aduanas_portal_backend/internal/http"
	"aduanas_portal_backend/internal/worksheets/handler"
	"aduanas_portal_backend/internal/worksheets/repository"
	"aduanas_portal_backend/internal/worksheets/service"
	"aduanas_portal_backend/platform/events"
	"aduanas_portal_backend/platform/logger"
	"aduanas_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the worksheets bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
	repo    repository.Repository
}

// NewModule creates and initializes the worksheets module.
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
	return "worksheets"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts worksheet routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	sheets := ctx.Protected.Group("/worksheets")
	sheets.GET("", m.handler.List)
	sheets.POST("", m.handler.Create)
	sheets.GET("/:ne", m.handler.Get)
	sheets.PATCH("/:ne", m.handler.Update)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
