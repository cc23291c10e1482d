package agency

import (
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
	adminOnly := auth.RequireRole(auth.RoleAgencyAdmin)

	api.POST("/agencies", h.CreateAgency, adminOnly)
	api.GET("/agencies", h.ListAgencies)
	api.GET("/agencies/:id", h.GetAgency)
	api.PUT("/agencies/:id", h.UpdateAgency, adminOnly)
	api.GET("/agencies/:id/caregivers", h.ListByAgency)

	api.POST("/caregivers/profile", h.CreateProfile, auth.RequireRole(auth.RoleCaregiver))
	api.GET("/caregivers/profile", h.GetMyProfile)
	api.PUT("/caregivers/profile", h.UpdateProfile, auth.RequireRole(auth.RoleCaregiver))
	api.GET("/caregivers/:id", h.GetProfile)
	api.PUT("/caregivers/:id/trust-score", h.SetTrustScore, adminOnly)

	api.POST("/caregivers/documents", h.SubmitDocument, auth.RequireRole(auth.RoleCaregiver))
	api.GET("/caregivers/documents", h.ListDocuments)
	api.GET("/verification/queue", h.ReviewQueue, adminOnly)
	api.POST("/verification/:id/review", h.ReviewDocument, adminOnly)
}

func (h *Handler) CreateAgency(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	var a Agency
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateAgency(c.Request().Context(), userID, &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListAgencies(c echo.Context) error {
	agencies, err := h.svc.ListAgencies(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, agencies)
}

func (h *Handler) GetAgency(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	a, err := h.svc.GetAgency(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "agency not found")
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) UpdateAgency(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	userID := auth.UserIDFromContext(c.Request().Context())
	var a Agency
	if err := c.Bind(&a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	a.ID = id
	if err := h.svc.UpdateAgency(c.Request().Context(), userID, &a); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, a)
}

func (h *Handler) ListByAgency(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	profiles, err := h.svc.ListByAgency(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, profiles)
}

func (h *Handler) CreateProfile(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	var p CaregiverProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.CreateProfile(c.Request().Context(), userID, &p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) GetMyProfile(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	p, err := h.svc.GetMyProfile(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) UpdateProfile(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	var p CaregiverProfile
	if err := c.Bind(&p); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	updated, err := h.svc.UpdateProfile(c.Request().Context(), userID, &p)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, updated)
}

func (h *Handler) GetProfile(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	p, err := h.svc.GetProfile(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "profile not found")
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SetTrustScore(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		TrustScore float64 `json:"trustScore"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.SetTrustScore(c.Request().Context(), id, req.TrustScore)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) SubmitDocument(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	var d VerificationDocument
	if err := c.Bind(&d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.svc.SubmitDocument(c.Request().Context(), userID, &d); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, d)
}

func (h *Handler) ListDocuments(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	docs, err := h.svc.ListDocuments(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *Handler) ReviewQueue(c echo.Context) error {
	docs, err := h.svc.ReviewQueue(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, docs)
}

func (h *Handler) ReviewDocument(c echo.Context) error {
	userID := auth.UserIDFromContext(c.Request().Context())
	docID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req struct {
		Approve bool   `json:"approve"`
		Note    string `json:"note"`
	}
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	d, err := h.svc.ReviewDocument(c.Request().Context(), userID, docID, req.Approve, req.Note)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}
