// Package reports provides the reporting boundary: authenticated case
// snapshots and the API-key gated CSV export of the update log.
package reports

import (
	afororepo "aduanas_portal_backend/internal/aforo/repository"
	apphttp "aduanas_portal_backend/internal/http"
	"aduanas_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the reports bounded context module implementing http.Module.
type Module struct {
	handler *Handler
	repo    *Repository
}

// NewModule creates and initializes the reports module. The update-log
// reader is shared with the aforo module.
func NewModule(pool *pgxpool.Pool, updates afororepo.UpdateLogReader, val *validator.Validator) *Module {
	repo := NewRepository(pool)
	return &Module{
		handler: NewHandler(repo, updates, val),
		repo:    repo,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "reports"
}

// RegisterRoutes mounts reporting routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Protected.GET("/reports/cases/:ne", m.handler.HandleCaseReport)

	// External collaborators authenticate with an API key, not a JWT.
	export := ctx.V1.Group("/export")
	export.Use(APIKeyAuthMiddleware(m.repo))
	export.GET("/case-updates.csv", m.handler.HandleCaseUpdatesCSV)

	keys := ctx.Admin.Group("/report-keys")
	keys.POST("", m.handler.HandleCreateAPIKey)
	keys.GET("", m.handler.HandleListAPIKeys)
	keys.DELETE("/:id", m.handler.HandleRevokeAPIKey)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
