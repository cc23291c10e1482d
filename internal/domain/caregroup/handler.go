package caregroup

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.POST("/groups", h.Create)
	api.GET("/groups", h.ListMine)
	api.GET("/groups/:id", h.Get)
	api.PUT("/groups/:id", h.Rename)
	api.PUT("/groups/:id/sensitivity", h.SetSensitivity)
	api.POST("/groups/:id/sensitivity/accept", h.AcceptRecommendation)
	api.POST("/groups/:id/sensitivity/dismiss", h.DismissRecommendation)
	api.GET("/groups/:id/members", h.ListMembers)
	api.POST("/groups/:id/members", h.AddMember)
	api.DELETE("/groups/:id/members/:userId", h.RemoveMember)
}

func groupID(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

func mapErr(err error) error {
	if errors.Is(err, ErrNotMember) {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func (h *Handler) Create(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	g, err := h.svc.Create(c.Request().Context(), req.Name, userID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, g)
}

func (h *Handler) ListMine(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	groups, err := h.svc.ListMine(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, groups)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	g, err := h.svc.Get(c.Request().Context(), id, userID)
	if err != nil {
		if errors.Is(err, ErrNotMember) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusNotFound, "group not found")
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) Rename(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	var req struct {
		Name string `json:"name"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	g, err := h.svc.Rename(c.Request().Context(), id, userID, req.Name)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) SetSensitivity(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	var req struct {
		Sensitivity Sensitivity `json:"sensitivity"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	g, err := h.svc.SetSensitivity(c.Request().Context(), id, userID, req.Sensitivity)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) AcceptRecommendation(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	g, err := h.svc.AcceptRecommendation(c.Request().Context(), id, userID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) DismissRecommendation(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	g, err := h.svc.DismissRecommendation(c.Request().Context(), id, userID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, g)
}

func (h *Handler) ListMembers(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	members, err := h.svc.ListMembers(c.Request().Context(), id, userID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, members)
}

func (h *Handler) AddMember(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	var m Member
	if err := c.Bind(&m); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.AddMember(c.Request().Context(), id, userID, &m); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, m)
}

func (h *Handler) RemoveMember(c echo.Context) error {
	id, err := groupID(c)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	target, err := uuid.Parse(c.Param("userId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid user id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	if err := h.svc.RemoveMember(c.Request().Context(), id, userID, target); err != nil {
		return mapErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}
