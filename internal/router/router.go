package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turismo-reservas/internal/handler"
	"github.com/iliyamo/turismo-reservas/internal/middleware"
	"github.com/iliyamo/turismo-reservas/internal/model"
)

// RegisterRoutes registers routes that do not require authentication:
// the health check and the GitHub webhook receiver.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.POST("/github-webhook", handler.GitHubWebhook)
}

// RegisterAuth registers all authentication‑related routes.  Token
// issuing operations live under /v1/auth; /v1/me requires a valid
// access token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// rotates the refresh token
	g.POST("/refresh", a.Refresh)
	// accepts either a refresh_token body or a bearer token, so no JWT middleware
	g.POST("/logout", a.Logout)

	e.GET("/v1/me", a.Me,
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RolUsuario, model.RolEmprendedor, model.RolAdmin),
	)
}

// RegisterPublic registers unauthenticated emprendimiento endpoints
// for guests browsing services.
func RegisterPublic(e *echo.Echo, p *handler.EmprendimientoHandler) {
	e.GET("/v1/emprendimientos/:id/servicios", p.Servicios)
	e.GET("/v1/emprendimientos/:id/telefono", p.Telefono)
}
