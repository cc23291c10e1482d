package matching

import (
	"errors"
	"net/http"

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
	api.POST("/groups/:groupId/elders/:elderId/matches", h.FindMatches)
}

func (h *Handler) FindMatches(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	groupID, err := uuid.Parse(c.Param("groupId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid group id")
	}
	elderID, err := uuid.Parse(c.Param("elderId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid elder id")
	}
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	matches, err := h.svc.FindForElder(c.Request().Context(), userID, groupID, elderID, req)
	if err != nil {
		if errors.Is(err, caregroup.ErrNotMember) {
			return echo.NewHTTPError(http.StatusForbidden, err.Error())
		}
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, matches)
}
