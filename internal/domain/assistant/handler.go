package assistant

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/carelink/carelink/internal/domain/medication"
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
	api.POST("/assistant/chat", h.Chat)
	api.GET("/assistant/conversations", h.ListConversations)
	api.GET("/assistant/conversations/:id", h.Messages)
	api.DELETE("/assistant/conversations/:id", h.DeleteConversation)
}

type chatRequest struct {
	ConversationID *uuid.UUID `json:"conversationId,omitempty"`
	Question       string     `json:"question"`
}

type chatResponse struct {
	Conversation *Conversation `json:"conversation"`
	Reply        *Message      `json:"reply"`
}

func (h *Handler) Chat(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	conv, reply, err := h.svc.Ask(c.Request().Context(), userID, req.ConversationID, req.Question)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, chatResponse{Conversation: conv, Reply: reply})
}

func (h *Handler) ListConversations(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	page := pagination.FromContext(c)
	conversations, total, err := h.svc.ListConversations(c.Request().Context(), userID, page.Limit, page.Offset)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(conversations, total, page.Limit, page.Offset))
}

func (h *Handler) Messages(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation id")
	}
	messages, err := h.svc.Messages(c.Request().Context(), userID, conversationID)
	if err != nil {
		return mapErr(err)
	}
	return c.JSON(http.StatusOK, messages)
}

func (h *Handler) DeleteConversation(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	if userID == uuid.Nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	}
	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid conversation id")
	}
	if err := h.svc.DeleteConversation(c.Request().Context(), userID, conversationID); err != nil {
		return mapErr(err)
	}
	return c.NoContent(http.StatusNoContent)
}

func mapErr(err error) error {
	switch {
	case errors.Is(err, medication.ErrDisclaimerRequired):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	case errors.Is(err, ErrConversationNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
