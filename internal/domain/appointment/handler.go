package appointment

import (
	"errors"
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
	patient := api.Group("/appointments", auth.RequireRole(auth.RoleUser))
	patient.POST("", h.Create)
	patient.GET("", h.ListMine)
	patient.PUT("/:id/cancel", h.Cancel)

	admin := api.Group("/admin/appointments", auth.RequireHospitalAdmin())
	admin.GET("", h.AdminList)
	admin.PATCH("/:id/status", h.UpdateStatus)
}

func (h *Handler) Create(c echo.Context) error {
	userID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	var req CreateRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	username := auth.UsernameFromContext(c.Request().Context())
	a, err := h.svc.Create(c.Request().Context(), userID, username, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusCreated, a)
}

func (h *Handler) ListMine(c echo.Context) error {
	userID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	appts, err := h.svc.ListMine(c.Request().Context(), userID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	return c.JSON(http.StatusOK, appts)
}

func (h *Handler) Cancel(c echo.Context) error {
	userID, err := uuid.Parse(auth.UserIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid user identity")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	a, err := h.svc.Cancel(c.Request().Context(), id, userID)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, a)
	case errors.Is(err, ErrNotOwner):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}

func (h *Handler) AdminList(c echo.Context) error {
	hospitalID, err := uuid.Parse(auth.HospitalIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "no hospital bound to this account")
	}
	p := pagination.FromContext(c)
	f := Filters{
		Status: Status(c.QueryParam("status")),
		Date:   c.QueryParam("date"),
		Search: c.QueryParam("search"),
	}

	appts, total, stats, err := h.svc.AdminList(c.Request().Context(), hospitalID, f, p.Limit, p.Offset)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if appts == nil {
		appts = []*Appointment{}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"data":   appts,
		"total":  total,
		"limit":  p.Limit,
		"offset": p.Offset,
		"stats":  stats,
	})
}

func (h *Handler) UpdateStatus(c echo.Context) error {
	hospitalID, err := uuid.Parse(auth.HospitalIDFromContext(c.Request().Context()))
	if err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "no hospital bound to this account")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var body struct {
		Status Status `json:"status"`
	}
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	a, err := h.svc.UpdateStatus(c.Request().Context(), id, hospitalID, body.Status)
	switch {
	case err == nil:
		return c.JSON(http.StatusOK, a)
	case errors.Is(err, ErrWrongHospital):
		return echo.NewHTTPError(http.StatusForbidden, err.Error())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
}
