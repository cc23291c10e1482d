package diet

import (
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
	api.POST("/diet/entries", h.LogMeal)
	api.GET("/groups/:groupId/elders/:elderId/diet/entries", h.ListEntries)
	api.DELETE("/diet/entries/:id", h.DeleteEntry)

	api.POST("/groups/:groupId/elders/:elderId/diet/restrictions", h.AddRestriction)
	api.GET("/groups/:groupId/elders/:elderId/diet/restrictions", h.ListRestrictions)
	api.DELETE("/groups/:groupId/diet/restrictions/:id", h.RemoveRestriction)
}

func mapErr(err error) error {
	if errors.Is(err, caregroup.ErrNotMember) {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) LogMeal(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	var e Entry
	if err := c.Bind(&e); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.LogMeal(c.Request().Context(), userID, &e); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func (h *Handler) ListEntries(c echo.Context) error {
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	elderID, err := uuid.Parse(c.Param("elderId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid elder id")
	}
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -7)
	if v := c.QueryParam("from"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			from = t
		}
	}
	if v := c.QueryParam("to"); v != "" {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			to = t
		}
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	entries, err := h.svc.ListEntries(c.Request().Context(), userID, elderID, groupID, from, to)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, entries)
}

func (h *Handler) DeleteEntry(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.DeleteEntry(c.Request().Context(), userID, id); err != nil {
		return mapErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) AddRestriction(c echo.Context) error {
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	elderID, err := uuid.Parse(c.Param("elderId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid elder id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	var r Restriction
	if err := c.Bind(&r); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	r.ElderID = elderID
	if err := h.svc.AddRestriction(c.Request().Context(), userID, groupID, &r); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) ListRestrictions(c echo.Context) error {
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	elderID, err := uuid.Parse(c.Param("elderId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid elder id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	restrictions, err := h.svc.ListRestrictions(c.Request().Context(), userID, elderID, groupID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, restrictions)
}

func (h *Handler) RemoveRestriction(c echo.Context) error {
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.RemoveRestriction(c.Request().Context(), userID, groupID, id); err != nil {
		return mapErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}
