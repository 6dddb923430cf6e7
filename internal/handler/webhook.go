package handler

import (
    "encoding/json"
    "io"
    "net/http"

    "github.com/labstack/echo/v4"
    "github.com/rs/zerolog/log"
)

// maxWebhookBody caps how much of a webhook payload is read.
const maxWebhookBody = 1 << 20

// GitHubWebhook acknowledges GitHub deliveries.  The payload is logged
// and never interpreted, so the response is always 200 "Received".
func GitHubWebhook(c echo.Context) error {
    body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxWebhookBody))
    ev := log.Info().
        Str("event", c.Request().Header.Get("X-GitHub-Event")).
        Str("delivery", c.Request().Header.Get("X-GitHub-Delivery"))
    switch {
    case err != nil:
        ev = ev.AnErr("read_error", err)
    case json.Valid(body):
        ev = ev.RawJSON("payload", body)
    default:
        ev = ev.Bytes("payload", body)
    }
    ev.Msg("github webhook received")
    return c.String(http.StatusOK, "Received")
}
