package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/caregroup"
	"github.com/carelink/carelink/internal/domain/consent"
	"github.com/carelink/carelink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/groups/:groupId/reports/weekly", h.Weekly)
	api.GET("/groups/:groupId/elders/:elderId/export/doses.csv", h.ExportDoses)
	api.GET("/groups/:groupId/elders/:elderId/export/alerts.csv", h.ExportAlerts)
	api.GET("/groups/:groupId/elders/:elderId/export/weekly.pdf", h.ExportWeekly)
}

func (h *Handler) Weekly(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	weekStart, err := weekParam(c)
	if err != nil {
		return err
	}
	summary, err := h.svc.WeeklyForUser(c.Request().Context(), userID, groupID, weekStart)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, summary)
}

func (h *Handler) ExportDoses(c echo.Context) error {
	return h.exportCSV(c, "doses", h.svc.ExportDosesCSV)
}

func (h *Handler) ExportAlerts(c echo.Context) error {
	return h.exportCSV(c, "alerts", h.svc.ExportAlertsCSV)
}

func (h *Handler) exportCSV(c echo.Context, name string, write func(ctx context.Context, w io.Writer, userID, groupID, elderID uuid.UUID, from, to time.Time) error) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	groupID, elderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	from, to, err := windowParams(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := write(c.Request().Context(), &buf, userID, groupID, elderID, from, to); err != nil {
		return mapErr(err)
	}

	filename := fmt.Sprintf("%s-%s.csv", name, from.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "text/csv", buf.Bytes())
}

func (h *Handler) ExportWeekly(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	groupID, elderID, err := pathIDs(c)
	if err != nil {
		return err
	}
	weekStart, err := weekParam(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := h.svc.ExportWeeklyPDF(c.Request().Context(), &buf, userID, groupID, elderID, weekStart); err != nil {
		return mapErr(err)
	}

	filename := fmt.Sprintf("weekly-%s.pdf", weekStart.Format("2006-01-02"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

func pathIDs(c echo.Context) (groupID, elderID uuid.UUID, err error) {
	groupID, err = uuid.Parse(c.Param("groupId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	elderID, err = uuid.Parse(c.Param("elderId"))
	if err != nil {
		return uuid.Nil, uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid elder id")
	}
	return groupID, elderID, nil
}

// weekParam reads ?week=YYYY-MM-DD, snapping to the containing Monday.
// Defaults to the current week.
func weekParam(c echo.Context) (time.Time, error) {
	v := c.QueryParam("week")
	if v == "" {
		return WeekOf(time.Now()), nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, echo.NewHTTPError(http.StatusBadRequest, "week must be YYYY-MM-DD")
	}
	return WeekOf(t), nil
}

// windowParams reads ?from/?to as RFC3339, defaulting to the last 7 days.
func windowParams(c echo.Context) (from, to time.Time, err error) {
	to = time.Now().UTC()
	from = to.AddDate(0, 0, -7)
	if v := c.QueryParam("from"); v != "" {
		if from, err = time.Parse(time.RFC3339, v); err != nil {
			return from, to, echo.NewHTTPError(http.StatusBadRequest, "invalid from timestamp")
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if to, err = time.Parse(time.RFC3339, v); err != nil {
			return from, to, echo.NewHTTPError(http.StatusBadRequest, "invalid to timestamp")
		}
	}
	return from, to, nil
}

func mapErr(err error) error {
	if errors.Is(err, caregroup.ErrNotMember) {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	if errors.Is(err, consent.ErrNoConsent) {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}
