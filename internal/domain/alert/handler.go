package alert

import (
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/caregroup"
	"github.com/carelink/carelink/internal/platform/auth"
	"github.com/carelink/carelink/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/groups/:groupId/alerts", h.RaiseAlert)
	api.GET("/groups/:groupId/alerts", h.ListAlerts)
	api.GET("/groups/:groupId/alerts/analytics", h.Analytics)
	api.GET("/alerts/:id", h.GetAlert)
	api.POST("/alerts/:id/acknowledge", h.Acknowledge)
	api.POST("/alerts/:id/dismiss", h.Dismiss)
	api.POST("/alerts/:id/resolve", h.Resolve)
}

type raiseRequest struct {
	ElderID  uuid.UUID `json:"elderId"`
	Severity string    `json:"severity"`
	Category string    `json:"category"`
	Message  string    `json:"message"`
}

func (h *Handler) RaiseAlert(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	var req raiseRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	a := &Alert{
		GroupID:  groupID,
		ElderID:  req.ElderID,
		Severity: req.Severity,
		Category: req.Category,
		Message:  req.Message,
	}
	if err := h.svc.RaiseManual(c.Request().Context(), userID, a); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAlerts(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	page := pagination.FromContext(c)
	alerts, total, err := h.svc.ListByGroup(c.Request().Context(), userID, groupID, c.QueryParam("status"), page.Limit, page.Offset)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(alerts, total, page.Limit, page.Offset))
}

func (h *Handler) Analytics(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -30)
	if v := c.QueryParam("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
		}
	}
	an, err := h.svc.AnalyticsForGroup(c.Request().Context(), userID, groupID, from, to)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, an)
}

func (h *Handler) GetAlert(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid alert id")
	}
	a, err := h.svc.Get(c.Request().Context(), userID, alertID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) Acknowledge(c echo.Context) error {
	return h.lifecycle(c, func(ctx echo.Context, userID, alertID uuid.UUID) (*Alert, error) {
		return h.svc.Acknowledge(ctx.Request().Context(), userID, alertID)
	})
}

type dismissRequest struct {
	FalsePositive bool `json:"falsePositive"`
}

func (h *Handler) Dismiss(c echo.Context) error {
	var req dismissRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	return h.lifecycle(c, func(ctx echo.Context, userID, alertID uuid.UUID) (*Alert, error) {
		return h.svc.Dismiss(ctx.Request().Context(), userID, alertID, req.FalsePositive)
	})
}

func (h *Handler) Resolve(c echo.Context) error {
	return h.lifecycle(c, func(ctx echo.Context, userID, alertID uuid.UUID) (*Alert, error) {
		return h.svc.Resolve(ctx.Request().Context(), userID, alertID)
	})
}

func (h *Handler) lifecycle(c echo.Context, apply func(echo.Context, uuid.UUID, uuid.UUID) (*Alert, error)) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	alertID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid alert id")
	}
	a, err := apply(c, userID, alertID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, a)
}

func mapErr(err error) error {
	if errors.Is(err, caregroup.ErrNotMember) {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
