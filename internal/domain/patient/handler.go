package patient

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
	read.GET("/patients", h.ListPatients)
	read.GET("/patients/:id", h.GetPatient)

	write := api.Group("", auth.RequireRole(auth.RoleClinician))
	write.POST("/patients", h.CreatePatient)
	write.POST("/patients/:id/entries", h.AddEntry)
}

func (h *Handler) ListPatients(c echo.Context) error {
	patients, err := h.svc.ListPatients(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	out := make([]Patient, 0, len(patients))
	for _, p := range patients {
		out = append(out, p.NonSensitive())
	}
	return c.JSON(http.StatusOK, out)
}

func (h *Handler) GetPatient(c echo.Context) error {
	d, err := h.svc.GetPatient(c.Request().Context(), c.Param("id"))
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) CreatePatient(c echo.Context) error {
	var np NewPatient
	if err := c.Bind(&np); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	p, err := h.svc.CreatePatient(c.Request().Context(), np)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) AddEntry(c echo.Context) error {
	var ne NewEntry
	if err := (&echo.DefaultBinder{}).BindBody(c, &ne); err != nil {
		if errors.Is(err, ErrUnknownEntryType) {
			return echo.NewHTTPError(http.StatusBadRequest, "unknown entry type")
		}
		return echo.NewHTTPError(http.StatusBadRequest, "malformed entry")
	}
	e, err := h.svc.AddEntry(c.Request().Context(), c.Param("id"), ne)
	if err != nil {
		return toHTTPError(err)
	}
	return c.JSON(http.StatusCreated, e)
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "patient not found")
	case errors.Is(err, ErrInvalid), errors.Is(err, ErrUnknownEntryType):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}
