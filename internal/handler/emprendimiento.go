package handler

import (
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/turismo-reservas/internal/dto"
    "github.com/iliyamo/turismo-reservas/internal/service"
)

// EmprendimientoHandler serves the public emprendimiento endpoints.
type EmprendimientoHandler struct {
    Service service.ReservaService
}

func NewEmprendimientoHandler(svc service.ReservaService) *EmprendimientoHandler {
    if svc == nil {
        panic("nil service passed to NewEmprendimientoHandler")
    }
    return &EmprendimientoHandler{Service: svc}
}

// Servicios handles GET /v1/emprendimientos/:id/servicios.
func (h *EmprendimientoHandler) Servicios(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid emprendimiento id"})
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    list, err := h.Service.ListarServicios(ctx, id)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"servicios": dto.NewServicioListResponse(list)})
}

// Telefono handles GET /v1/emprendimientos/:id/telefono.
func (h *EmprendimientoHandler) Telefono(c echo.Context) error {
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid emprendimiento id"})
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    tel, err := h.Service.ObtenerTelefonoEmprendedor(ctx, id)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"id_emprendimiento": id, "telefono": tel})
}
