package booking

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/careops/intake/internal/platform/telemetry"
)

type Handler struct {
	svc *Service
	log zerolog.Logger
}

func NewHandler(svc *Service, log zerolog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/webhook/booking", h.ReceiveEvent)
	api.GET("/webhook/booking", h.Ping)
}

// ReceiveEvent accepts a provider webhook delivery. The provider retries
// on non-2xx, so the endpoint acknowledges every delivery it can read and
// records drops out of band instead of surfacing them.
func (h *Handler) ReceiveEvent(c echo.Context) error {
	var ev Event
	if err := c.Bind(&ev); err != nil {
		h.log.Warn().Err(err).Msg("undecodable webhook body")
		h.svc.tel.WebhookEventDropped(telemetry.DropMissingFields)
		return c.JSON(http.StatusOK, echo.Map{"status": "received"})
	}

	h.svc.HandleEvent(c.Request().Context(), ev)
	return c.JSON(http.StatusOK, echo.Map{"status": "received"})
}

// Ping lets an operator confirm the webhook URL is reachable.
func (h *Handler) Ping(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Webhook endpoint is working!"})
}
