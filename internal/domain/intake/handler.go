package intake

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/careops/intake/internal/platform/telemetry"
	"github.com/careops/intake/pkg/pagination"
)

type Handler struct {
	svc *Service
	tel *telemetry.Provider
}

func NewHandler(svc *Service, tel *telemetry.Provider) *Handler {
	return &Handler{svc: svc, tel: tel}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/intakes", h.ListIntakes)
	api.POST("/intakes", h.CreateIntake)
	api.GET("/intakes/:id", h.GetIntake)
	api.PUT("/intakes/:id", h.UpdateIntake)
	api.PATCH("/intakes/:id", h.PatchIntake)
}

func (h *Handler) CreateIntake(c echo.Context) error {
	var in Input
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rec, err := h.svc.Create(c.Request().Context(), in)
	if err != nil {
		return writeError(c, err)
	}
	h.tel.IntakeOperation("create")
	return c.JSON(http.StatusCreated, rec)
}

func (h *Handler) GetIntake(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, ErrNotFound)
	}
	rec, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) ListIntakes(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := ListFilter{
		ContactMethod: c.QueryParam("contactMethod"),
		Search:        c.QueryParam("search"),
	}
	if v := c.QueryParam("consent"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid consent filter"})
		}
		f.Consent = &b
	}
	if v := c.QueryParam("booked"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booked filter"})
		}
		f.Booked = &b
	}

	recs, _, err := h.svc.List(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return writeError(c, err)
	}
	if recs == nil {
		recs = []*IntakeRecord{}
	}
	return c.JSON(http.StatusOK, recs)
}

func (h *Handler) UpdateIntake(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, ErrNotFound)
	}
	var in Input
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rec, err := h.svc.Update(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	h.tel.IntakeOperation("update")
	return c.JSON(http.StatusOK, rec)
}

func (h *Handler) PatchIntake(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return writeError(c, ErrNotFound)
	}
	var in PatchInput
	if err := c.Bind(&in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	rec, err := h.svc.Patch(c.Request().Context(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	h.tel.IntakeOperation("update")
	return c.JSON(http.StatusOK, rec)
}

// writeError maps domain errors onto the wire: validation failures carry
// per-field messages, missing records are 404, everything else is opaque.
func writeError(c echo.Context, err error) error {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return c.JSON(http.StatusBadRequest, echo.Map{"errors": verr.Fields})
	}
	if errors.Is(err, ErrNotFound) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "intake record not found"})
	}
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
}
