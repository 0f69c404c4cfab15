// Package auth provides sign-in, token refresh and user administration. The
// access token carries the display name every lifecycle write stamps as
// updated_by.
package auth

import (
	"aduanas_portal_backend/internal/auth/handler"
	"aduanas_portal_backend/internal/auth/repository"
	"aduanas_portal_backend/internal/auth/service"
	apphttp "aduanas_portal_backend/internal/http"
	"aduanas_portal_backend/platform/config"
	"aduanas_portal_backend/platform/logger"
	"aduanas_portal_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Module is the auth bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *service.Service
}

// NewModule creates and initializes the auth module.
func NewModule(pool *pgxpool.Pool, cfg config.AuthServiceConfig, val *validator.Validator, log *logger.Logger) *Module {
	repo := repository.New(pool)
	svc := service.New(repo, cfg, log)

	return &Module{
		handler: handler.New(svc, val),
		service: svc,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "auth"
}

// Service returns the service layer for external use.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts auth routes on the provided router context. Sign-in
// and refresh sit behind the stricter auth rate limiter.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	group := ctx.V1.Group("/auth")
	group.Use(ctx.AuthRateLimiter.RateLimit())
	group.POST("/sign-in", m.handler.SignIn)
	group.POST("/refresh", m.handler.Refresh)
	group.POST("/sign-out", m.handler.SignOut)

	users := ctx.Admin.Group("/users")
	users.POST("", m.handler.CreateUser)
	users.GET("", m.handler.ListUsers)
	users.PUT("/:id/roles", m.handler.SetRoles)
	users.PATCH("/:id/active", m.handler.SetActive)
}

// Compile-time check that Module implements http.Module
var _ apphttp.Module = (*Module)(nil)
