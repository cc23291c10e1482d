package medication

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
	api.POST("/medications", h.Create)
	api.GET("/medications/:id", h.Get)
	api.PUT("/medications/:id", h.Update)
	api.POST("/medications/:id/discontinue", h.Discontinue)
	api.GET("/groups/:groupId/elders/:elderId/medications", h.ListByElder)

	api.POST("/medications/:id/schedules", h.AddSchedule)
	api.GET("/medications/:id/schedules", h.ListSchedules)
	api.DELETE("/schedules/:id", h.RemoveSchedule)

	api.POST("/medications/:id/doses", h.LogDose)
	api.GET("/groups/:groupId/elders/:elderId/doses", h.ListDoseLogs)
	api.GET("/groups/:groupId/elders/:elderId/adherence", h.Adherence)
	api.POST("/groups/:groupId/elders/:elderId/interaction-check", h.CheckInteractions)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, caregroup.ErrNotMember):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrDisclaimerRequired):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func parseWindow(c echo.Context) (time.Time, time.Time, error) {
	to := time.Now().UTC()
	from := to.AddDate(0, 0, -7)
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, err
		}
		from = t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			return from, to, err
		}
		to = t
	}
	return from, to, nil
}

func (h *Handler) Create(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.Create(c.Request().Context(), userID, &m); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	m, err := h.svc.Get(c.Request().Context(), userID, id)
	if err != nil {
		if errors.Is(err, caregroup.ErrNotMember) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "medication not found")
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Update(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	var m Medication
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	m.ID = id
	if err := h.svc.Update(c.Request().Context(), userID, &m); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) Discontinue(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	m, err := h.svc.Discontinue(c.Request().Context(), userID, id)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, m)
}

func (h *Handler) ListByElder(c echo.Context) error {
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	elderID, err := uuid.Parse(c.Param("elderId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid elder id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	activeOnly := c.QueryParam("active") == "true"
	meds, err := h.svc.ListByElder(c.Request().Context(), userID, elderID, groupID, activeOnly)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, meds)
}

func (h *Handler) AddSchedule(c echo.Context) error {
	medID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	var s Schedule
	if err := c.Bind(&s); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	s.MedicationID = medID
	if err := h.svc.AddSchedule(c.Request().Context(), userID, &s); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, s)
}

func (h *Handler) ListSchedules(c echo.Context) error {
	medID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	schedules, err := h.svc.ListSchedules(c.Request().Context(), userID, medID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, schedules)
}

func (h *Handler) RemoveSchedule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.RemoveSchedule(c.Request().Context(), userID, id); err != nil {
		return mapErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) LogDose(c echo.Context) error {
	medID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	var d DoseLog
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d.MedicationID = medID
	if err := h.svc.LogDose(c.Request().Context(), userID, &d); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDoseLogs(c echo.Context) error {
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	elderID, err := uuid.Parse(c.Param("elderId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid elder id")
	}
	from, to, err := parseWindow(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid time window")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	logs, err := h.svc.ListDoseLogs(c.Request().Context(), userID, elderID, groupID, from, to)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, logs)
}

func (h *Handler) Adherence(c echo.Context) error {
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	elderID, err := uuid.Parse(c.Param("elderId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid elder id")
	}
	from, to, err := parseWindow(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid time window")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	report, err := h.svc.Adherence(c.Request().Context(), userID, elderID, groupID, from, to)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, report)
}

func (h *Handler) CheckInteractions(c echo.Context) error {
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	elderID, err := uuid.Parse(c.Param("elderId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid elder id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	report, err := h.svc.CheckInteractions(c.Request().Context(), userID, elderID, groupID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, report)
}
