package handler

import (
    "context"
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/turismo-reservas/internal/dto"
    "github.com/iliyamo/turismo-reservas/internal/middleware"
    "github.com/iliyamo/turismo-reservas/internal/model"
    "github.com/iliyamo/turismo-reservas/internal/repository"
    "github.com/iliyamo/turismo-reservas/internal/service"
)

// ReservaHandler exposes the reservation workflow.  All methods assume
// JWTAuth has already run and return 401 when no usuario id is present.
//
// Read endpoints only return a reserva to its usuario, to the owner of
// its emprendimiento, or to an ADMIN.
type ReservaHandler struct {
    Service         service.ReservaService
    Emprendimientos repository.EmprendimientoRepository
}

func NewReservaHandler(svc service.ReservaService, emprendimientos repository.EmprendimientoRepository) *ReservaHandler {
    if svc == nil || emprendimientos == nil {
        panic("nil dependency passed to NewReservaHandler")
    }
    return &ReservaHandler{Service: svc, Emprendimientos: emprendimientos}
}

// Create handles POST /v1/reservas.
func (h *ReservaHandler) Create(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req dto.CrearReservaRequest
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    res, err := h.Service.CrearReserva(ctx, req, uid)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusCreated, res)
}

// UpdateEstado handles PATCH and PUT /v1/reservas/:id/estado.  Only the
// owner of the reserva's emprendimiento may change it.
func (h *ReservaHandler) UpdateEstado(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reserva id"})
    }
    var req dto.ActualizarEstadoRequest
    if ok, err := bindAndValidate(c, &req); !ok {
        return err
    }
    estado, err := model.ParseEstado(req.Estado)
    if err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": err.Error()})
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    res, err := h.Service.ActualizarEstado(ctx, id, estado, uid)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, res)
}

// Get handles GET /v1/reservas/:id.
func (h *ReservaHandler) Get(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reserva id"})
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    // Callers without access get 403 whether or not the id exists.
    r, err := h.Service.ObtenerPorID(ctx, id)
    if err != nil {
        if errors.Is(err, service.ErrNoEncontrado) && !isAdmin(c) {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
        return writeServiceError(c, err)
    }
    if r.UsuarioID != uid && !isAdmin(c) {
        owner, err := h.isOwner(ctx, r.EmprendimientoID, uid)
        if err != nil {
            return writeServiceError(c, err)
        }
        if !owner {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
    return c.JSON(http.StatusOK, dto.NewReservaResponse(*r))
}

// Mine handles GET /v1/mis-reservas.
func (h *ReservaHandler) Mine(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    return h.listByUsuario(c, uid)
}

// ListByUsuario handles GET /v1/usuarios/:id/reservas.  A usuario may
// only list their own reservas unless they are an ADMIN.
func (h *ReservaHandler) ListByUsuario(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    target, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid usuario id"})
    }
    if target != uid && !isAdmin(c) {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
    }
    return h.listByUsuario(c, target)
}

func (h *ReservaHandler) listByUsuario(c echo.Context, usuarioID uint64) error {
    ctx, cancel := requestContext(c)
    defer cancel()

    list, err := h.Service.ListarPorUsuario(ctx, usuarioID)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservas": dto.NewReservaListResponse(list)})
}

// ListByEmprendimiento handles GET /v1/emprendimientos/:id/reservas for
// the emprendimiento's owner.
func (h *ReservaHandler) ListByEmprendimiento(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    empID, ok := paramID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid emprendimiento id"})
    }
    ctx, cancel := requestContext(c)
    defer cancel()

    // Ownership first so unknown ids look the same as foreign ones.
    if !isAdmin(c) {
        owner, err := h.isOwner(ctx, empID, uid)
        if err != nil {
            return writeServiceError(c, err)
        }
        if !owner {
            return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
        }
    }
    list, err := h.Service.ListarPorEmprendimiento(ctx, empID)
    if err != nil {
        return writeServiceError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{"reservas": dto.NewReservaListResponse(list)})
}

func (h *ReservaHandler) isOwner(ctx context.Context, emprendimientoID, uid uint64) (bool, error) {
    emp, err := h.Emprendimientos.FindByID(ctx, emprendimientoID)
    if err != nil {
        if errors.Is(err, repository.ErrNotFound) {
            return false, nil
        }
        return false, err
    }
    return emp.UsuarioID == uid, nil
}

func isAdmin(c echo.Context) bool {
    role, _ := c.Get(middleware.CtxRole).(string)
    return role == model.RolAdmin
}
