package middleware

import (
    "fmt"
    "net/http"
    "time"

    "github.com/google/uuid"
    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog/log"
)

const (
    HeaderRequestID = "X-Request-ID"
    CtxRequestID    = "request_id"
)

// RequestID reuses the caller's X-Request-ID or generates a UUID, stores
// it under CtxRequestID and echoes it back in the response.
func RequestID() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            id := c.Request().Header.Get(HeaderRequestID)
            if id == "" || len(id) > 128 {
                id = uuid.NewString()
            }
            c.Set(CtxRequestID, id)
            c.Response().Header().Set(HeaderRequestID, id)
            return next(c)
        }
    }
}

// RequestIDFrom returns the request id set by RequestID, if any.
func RequestIDFrom(c echo.Context) string {
    s, _ := c.Get(CtxRequestID).(string)
    return s
}

// Logger logs each request with method, path, status, latency, and request_id.
func Logger() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            start := time.Now()
            err := next(c)
            if err != nil {
                // let echo write the response so the logged status is final
                c.Error(err)
            }
            status := c.Response().Status
            ev := log.Info()
            if status >= http.StatusInternalServerError {
                ev = log.Error().Err(err)
            }
            ev.Str("request_id", RequestIDFrom(c)).
                Str("method", c.Request().Method).
                Str("path", c.Request().URL.Path).
                Int("status", status).
                Dur("latency", time.Since(start)).
                Str("user", currentUserID(c)).
                Msg("request")
            return nil
        }
    }
}

// Recovery converts panics into 500 responses.  Stack traces are logged
// and never sent to the client.
func Recovery() echo.MiddlewareFunc {
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) (err error) {
            defer func() {
                if r := recover(); r != nil {
                    log.Error().
                        Str("request_id", RequestIDFrom(c)).
                        Str("panic", fmt.Sprint(r)).
                        Msg("panic recovered")
                    err = c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
                }
            }()
            return next(c)
        }
    }
}
