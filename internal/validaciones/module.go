// Package validaciones provides the duplicate validation ledger: an
// append-only record of how duplicate NE registrations were resolved.
package validaciones

import (
	apphttp "aduanas_portal_backend/internal/http"
	"aduanas_portal_backend/internal/validaciones/handler"
	"aduanas_portal_backend/internal/validaciones/repository"
	"aduanas_portal_backend/internal/validaciones/service"
	"aduanas_portal_backend/platform/events"
	"aduanas_portal_backend/platform/logger"
	"aduanas_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the validaciones bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the validaciones module.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger, bus events.Bus) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, log, bus)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "validaciones"
}

// RegisterRoutes mounts ledger routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.Protected.Group("/validaciones")
	group.GET("", m.handler.List)
	group.POST("", m.handler.Record)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
