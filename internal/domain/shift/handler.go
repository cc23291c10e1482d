package shift

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/caregroup"
	"github.com/carelink/carelink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/groups/:groupId/shifts", h.Schedule)
	api.GET("/groups/:groupId/shifts", h.ListShifts)
	api.GET("/shifts/:id", h.GetShift)
	api.POST("/shifts/:id/clock-in", h.ClockIn)
	api.POST("/shifts/:id/clock-out", h.ClockOut)
	api.POST("/shifts/:id/cancel", h.Cancel)
	api.POST("/shifts/:id/notes", h.AddNote)
	api.GET("/shifts/:id/notes", h.ListNotes)
	api.GET("/shifts/:id/handoff", h.GetHandoff)
}

func mapErr(err error) error {
	if errors.Is(err, caregroup.ErrNotMember) {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) Schedule(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	var sh Shift
	if err := c.Bind(&sh); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	sh.GroupID = groupID
	if err := h.svc.Schedule(c.Request().Context(), userID, &sh); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, sh)
}

func (h *Handler) ListShifts(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	to := time.Now().UTC().AddDate(0, 0, 7)
	from := to.AddDate(0, 0, -14)
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
	shifts, err := h.svc.ListByGroup(c.Request().Context(), userID, groupID, from, to)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, shifts)
}

func (h *Handler) GetShift(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	shiftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid shift id")
	}
	sh, err := h.svc.Get(c.Request().Context(), userID, shiftID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, sh)
}

func (h *Handler) ClockIn(c echo.Context) error {
	return h.lifecycle(c, h.svc.ClockIn)
}

func (h *Handler) ClockOut(c echo.Context) error {
	return h.lifecycle(c, h.svc.ClockOut)
}

func (h *Handler) Cancel(c echo.Context) error {
	return h.lifecycle(c, h.svc.Cancel)
}

func (h *Handler) lifecycle(c echo.Context, apply func(ctx context.Context, userID, shiftID uuid.UUID) (*Shift, error)) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	shiftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid shift id")
	}
	sh, err := apply(c.Request().Context(), userID, shiftID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, sh)
}

func (h *Handler) AddNote(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	shiftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid shift id")
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	n, err := h.svc.AddNote(c.Request().Context(), userID, shiftID, req.Content)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, n)
}

func (h *Handler) ListNotes(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	shiftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid shift id")
	}
	notes, err := h.svc.ListNotes(c.Request().Context(), userID, shiftID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, notes)
}

func (h *Handler) GetHandoff(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	shiftID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid shift id")
	}
	handoff, err := h.svc.GetHandoff(c.Request().Context(), userID, shiftID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, handoff)
}
