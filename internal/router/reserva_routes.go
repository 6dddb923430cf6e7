package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/turismo-reservas/internal/handler"
	"github.com/iliyamo/turismo-reservas/internal/middleware"
	"github.com/iliyamo/turismo-reservas/internal/model"
)

// RegisterReservas registers reservation endpoints under /v1.  Every
// route requires a valid JWT.  Ownership of the emprendimiento is
// checked by the handlers; the role check only rejects unknown roles
// and, for the business listing, non emprendedores.
func RegisterReservas(e *echo.Echo, h *handler.ReservaHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole(model.RolUsuario, model.RolEmprendedor, model.RolAdmin),
	)
	g.POST("/reservas", h.Create)
	g.GET("/reservas/:id", h.Get)
	g.PATCH("/reservas/:id/estado", h.UpdateEstado)
	g.PUT("/reservas/:id/estado", h.UpdateEstado)
	g.GET("/mis-reservas", h.Mine)
	g.GET("/usuarios/:id/reservas", h.ListByUsuario)
	g.GET("/emprendimientos/:id/reservas", h.ListByEmprendimiento,
		middleware.RequireRole(model.RolEmprendedor, model.RolAdmin))
}
