package handler // handler defines http handlers

import (
    "context"
    "errors"
    "net/http"
    "strconv"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog/log"

    "github.com/iliyamo/turismo-reservas/internal/middleware"
    "github.com/iliyamo/turismo-reservas/internal/service"
)

// requestTimeout bounds the store calls made by a single request.
const requestTimeout = 5 * time.Second

func requestContext(c echo.Context) (context.Context, context.CancelFunc) {
    return context.WithTimeout(c.Request().Context(), requestTimeout)
}

// getUserID extracts the user_id from echo.Context and converts it to uint64
func getUserID(c echo.Context) (uint64, error) {
    switch t := c.Get(middleware.CtxUserID).(type) {
    case uint64:
        if t != 0 {
            return t, nil
        }
    case int:
        if t > 0 {
            return uint64(t), nil
        }
    case float64:
        if t > 0 {
            return uint64(t), nil
        }
    case string:
        if n, err := strconv.ParseUint(t, 10, 64); err == nil && n != 0 {
            return n, nil
        }
    }
    return 0, errors.New("invalid user_id in context")
}

// paramID parses a positive numeric path parameter.
func paramID(c echo.Context, name string) (uint64, bool) {
    n, err := strconv.ParseUint(c.Param(name), 10, 64)
    if err != nil || n == 0 {
        return 0, false
    }
    return n, true
}

// normalizer is implemented by requests that clean up fields before
// validation.
type normalizer interface {
    Normalize()
}

// bindAndValidate decodes the body into dst and runs the registered
// validator.  It writes the 400 response itself and reports false when
// the request was rejected.
func bindAndValidate(c echo.Context, dst interface{}) (bool, error) {
    if err := c.Bind(dst); err != nil {
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
    }
    if n, ok := dst.(normalizer); ok {
        n.Normalize()
    }
    if err := c.Validate(dst); err != nil {
        msg := err.Error()
        var he *echo.HTTPError
        if errors.As(err, &he) {
            if s, ok := he.Message.(string); ok {
                msg = s
            }
        }
        return false, c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
    }
    return true, nil
}

// writeServiceError maps workflow error kinds to HTTP status codes.
// Anything that is not a *service.Error is logged and reported as 500
// without details.
func writeServiceError(c echo.Context, err error) error {
    var se *service.Error
    if errors.As(err, &se) {
        status := http.StatusInternalServerError
        switch {
        case errors.Is(err, service.ErrInvalido):
            status = http.StatusBadRequest
        case errors.Is(err, service.ErrSinPermisos):
            status = http.StatusForbidden
        case errors.Is(err, service.ErrNoEncontrado):
            status = http.StatusNotFound
        case errors.Is(err, service.ErrConflicto):
            status = http.StatusConflict
        }
        return c.JSON(status, echo.Map{"error": se.Message})
    }
    log.Error().Err(err).
        Str("request_id", middleware.RequestIDFrom(c)).
        Str("path", c.Path()).
        Msg("request failed")
    return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}
