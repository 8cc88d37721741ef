package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/srgjo27/inventory_monitor/internal/core/domain"
	"github.com/srgjo27/inventory_monitor/internal/core/services"
)

// Monitor is the query surface served over HTTP.
type Monitor interface {
	Regions() []string
	EventAvailability(ctx context.Context, region, eventID string, includeShops bool) (domain.EventAvailability, error)
	TicketTypeAvailability(ctx context.Context, region, eventID, ticketTypeID string) (domain.TicketTypeAvailability, error)
	TicketTypeCounts(ctx context.Context, region, eventID string) ([]domain.TicketTypeCount, error)
	Dashboard(ctx context.Context, region string) (domain.DashboardData, error)
	LastPoll(ctx context.Context) (*domain.PollSummary, error)
	RecentDebug(ctx context.Context, region string, limit int) ([]services.DebugEntry, error)
	RecentChanges(ctx context.Context, limit int) ([]domain.SalesDateChange, error)
}

type AvailabilityHandler struct {
	monitor   Monitor
	logger    *logrus.Logger
	startedAt time.Time
}

func NewAvailabilityHandler(monitor Monitor, logger *logrus.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{monitor: monitor, logger: logger, startedAt: time.Now()}
}

func (h *AvailabilityHandler) Register(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/status", h.Status)

	api := e.Group("/api")
	api.GET("/availability/:eventId", h.GetAvailability)
	api.GET("/availability/:eventId/counts", h.GetTicketTypeCounts)
	api.GET("/availability/:eventId/:ticketTypeId", h.GetTicketTypeAvailability)
	api.GET("/dashboard/data", h.GetDashboard)
	api.GET("/debug/logs", h.GetDebugLogs)
	api.GET("/changes", h.GetSalesChanges)
}

func (h *AvailabilityHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AvailabilityHandler) Status(c echo.Context) error {
	resp := map[string]any{
		"status":  "ok",
		"regions": h.monitor.Regions(),
		"uptime":  time.Since(h.startedAt).Round(time.Second).String(),
	}
	last, err := h.monitor.LastPoll(c.Request().Context())
	if err != nil {
		h.logger.WithError(err).Warn("last poll unavailable")
	}
	if last != nil {
		resp["lastPoll"] = last
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *AvailabilityHandler) GetAvailability(c echo.Context) error {
	eventID := c.Param("eventId")
	includeShops, _ := strconv.ParseBool(c.QueryParam("includeShops"))

	availability, err := h.monitor.EventAvailability(c.Request().Context(), c.QueryParam("region"), eventID, includeShops)
	if err != nil {
		return h.fail(c, eventID, err)
	}
	return c.JSON(http.StatusOK, availability)
}

func (h *AvailabilityHandler) GetTicketTypeAvailability(c echo.Context) error {
	eventID := c.Param("eventId")
	availability, err := h.monitor.TicketTypeAvailability(c.Request().Context(), c.QueryParam("region"), eventID, c.Param("ticketTypeId"))
	if err != nil {
		return h.fail(c, eventID, err)
	}
	return c.JSON(http.StatusOK, availability)
}

func (h *AvailabilityHandler) GetTicketTypeCounts(c echo.Context) error {
	eventID := c.Param("eventId")
	counts, err := h.monitor.TicketTypeCounts(c.Request().Context(), c.QueryParam("region"), eventID)
	if err != nil {
		return h.fail(c, eventID, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"eventId": eventID, "counts": counts})
}

func (h *AvailabilityHandler) GetDashboard(c echo.Context) error {
	data, err := h.monitor.Dashboard(c.Request().Context(), c.QueryParam("region"))
	if err != nil {
		return h.fail(c, "", err)
	}
	return c.JSON(http.StatusOK, data)
}

func (h *AvailabilityHandler) GetDebugLogs(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	entries, err := h.monitor.RecentDebug(c.Request().Context(), c.QueryParam("region"), limit)
	if err != nil {
		return h.fail(c, "", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": entries})
}

func (h *AvailabilityHandler) GetSalesChanges(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	changes, err := h.monitor.RecentChanges(c.Request().Context(), limit)
	if err != nil {
		return h.fail(c, "", err)
	}
	return c.JSON(http.StatusOK, map[string]any{"items": changes})
}

func (h *AvailabilityHandler) fail(c echo.Context, eventID string, err error) error {
	log := h.logger.WithError(err).WithField("path", c.Path())
	if eventID != "" {
		log = log.WithField("event_id", eventID)
	}

	switch {
	case errors.Is(err, domain.ErrScrapeFailed):
		log.Error("availability unavailable")
		return c.JSON(http.StatusBadGateway, map[string]string{
			"error":   "scrape_failed",
			"message": "ticket data could not be fetched from the ticketing platform; availability is unknown",
			"eventId": eventID,
		})
	case services.IsNotFound(err):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "not_found", "message": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		return c.JSON(http.StatusGatewayTimeout, map[string]string{"error": "timeout"})
	default:
		log.Error("request failed")
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
