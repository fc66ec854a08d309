package diagnosis

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/ehr/patientor/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleViewer, auth.RoleClinician))
	read.GET("/diagnoses", h.ListDiagnoses)
	read.GET("/diagnoses/:code", h.GetDiagnosis)
}

func (h *Handler) ListDiagnoses(c echo.Context) error {
	list, err := h.svc.ListDiagnoses(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if list == nil {
		list = []*Diagnosis{}
	}
	return c.JSON(http.StatusOK, list)
}

func (h *Handler) GetDiagnosis(c echo.Context) error {
	d, err := h.svc.GetDiagnosis(c.Request().Context(), c.Param("code"))
	if errors.Is(err, ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "diagnosis not found")
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, d)
}
