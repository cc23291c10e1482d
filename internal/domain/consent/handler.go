package consent

import (
	"errors"
	"net/http"

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
	api.POST("/groups/:groupId/elders/:elderId/consents", h.Grant)
	api.GET("/groups/:groupId/elders/:elderId/consents", h.List)
	api.POST("/consents/:id/revoke", h.Revoke)
	api.GET("/groups/:groupId/elders/:elderId/access-log", h.AccessLog)
}

func mapErr(err error) error {
	if errors.Is(err, caregroup.ErrNotMember) {
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	}
	return echo.NewHTTPError(http.StatusBadRequest, err.Error())
}

func parseIDs(c echo.Context) (groupID, elderID uuid.UUID, err error) {
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

func (h *Handler) Grant(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	groupID, elderID, err := parseIDs(c)
	if err != nil {
		return err
	}
	var consent Consent
	if err := c.Bind(&consent); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	consent.GroupID = groupID
	consent.ElderID = elderID
	if err := h.svc.Grant(c.Request().Context(), userID, &consent); err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusCreated, consent)
}

func (h *Handler) List(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	groupID, elderID, err := parseIDs(c)
	if err != nil {
		return err
	}
	consents, err := h.svc.ListByElder(c.Request().Context(), userID, groupID, elderID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, consents)
}

func (h *Handler) Revoke(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	consentID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid consent id")
	}
	consent, err := h.svc.Revoke(c.Request().Context(), userID, consentID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, consent)
}

func (h *Handler) AccessLog(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	groupID, elderID, err := parseIDs(c)
	if err != nil {
		return err
	}
	page := pagination.FromContext(c)
	entries, total, err := h.svc.AccessLog(c.Request().Context(), userID, groupID, elderID, page.Limit, page.Offset)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(entries, total, page.Limit, page.Offset))
}
