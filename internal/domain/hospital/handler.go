package hospital

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthconnect/healthconnect/internal/platform/auth"
	"github.com/healthconnect/healthconnect/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func (h *Handler) RegisterRoutes(api *echo.Group) {
	api.GET("/hospitals", h.List)
	api.GET("/hospitals/filter-options", h.FilterOptions)
	api.GET("/hospitals/:id", h.Get)

	// Admin routes act on the hospital bound to the caller's token, never on
	// a client-supplied id.
	admin := api.Group("/hospitals/admin", auth.RequireHospitalAdmin())
	admin.GET("/dashboard", h.Dashboard)
	admin.GET("/facility-status", h.FacilityStatus)
	admin.PUT("/beds", h.UpdateBeds)
	admin.PUT("/facilities", h.UpdateFacilityStatus)
	admin.PUT("/info", h.UpdateInfo)
	admin.PUT("/notes", h.UpdateNotes)
}

func (h *Handler) List(c echo.Context) error {
	p := pagination.FromContext(c)
	params := SearchParams{
		City:          c.QueryParam("city"),
		Facility:      c.QueryParam("facility"),
		AvailableOnly: c.QueryParam("beds") == "true",
		Search:        c.QueryParam("search"),
		SortBy:        c.QueryParam("sort"),
	}
	hospitals, total, err := h.svc.Search(c.Request().Context(), params, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(hospitals, total, p.Limit, p.Offset))
}

func (h *Handler) FilterOptions(c echo.Context) error {
	opts, err := h.svc.FilterOptions(c.Request().Context())
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, opts)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	hospital, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
	}
	return c.JSON(http.StatusOK, hospital)
}

func (h *Handler) Dashboard(c echo.Context) error {
	id, err := adminHospitalID(c)
	if err != nil {
		return err
	}
	dash, err := h.svc.Dashboard(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
	}
	return c.JSON(http.StatusOK, dash)
}

func (h *Handler) FacilityStatus(c echo.Context) error {
	id, err := adminHospitalID(c)
	if err != nil {
		return err
	}
	status, err := h.svc.FacilityStatus(c.Request().Context(), id)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "hospital not found")
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"facilityStatus": status})
}

func (h *Handler) UpdateBeds(c echo.Context) error {
	id, err := adminHospitalID(c)
	if err != nil {
		return err
	}
	var upd BedUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hospital, err := h.svc.UpdateBeds(c.Request().Context(), id, upd)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, hospital)
}

func (h *Handler) UpdateFacilityStatus(c echo.Context) error {
	id, err := adminHospitalID(c)
	if err != nil {
		return err
	}
	var body struct {
		FacilityStatus map[string]string `json:"facilityStatus"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hospital, err := h.svc.UpdateFacilityStatus(c.Request().Context(), id, body.FacilityStatus)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, hospital)
}

func (h *Handler) UpdateInfo(c echo.Context) error {
	id, err := adminHospitalID(c)
	if err != nil {
		return err
	}
	var upd InfoUpdate
	if err := c.Bind(&upd); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hospital, err := h.svc.UpdateInfo(c.Request().Context(), id, upd)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, hospital)
}

func (h *Handler) UpdateNotes(c echo.Context) error {
	id, err := adminHospitalID(c)
	if err != nil {
		return err
	}
	var body struct {
		Notes string `json:"notes"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	hospital, err := h.svc.UpdateNotes(c.Request().Context(), id, body.Notes)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, hospital)
}

func adminHospitalID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(auth.HospitalIDFromContext(c.Request().Context()))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusForbidden, "no hospital bound to this account")
	}
	return id, nil
}
