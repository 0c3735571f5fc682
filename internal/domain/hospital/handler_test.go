package hospital

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthconnect/healthconnect/internal/platform/auth"
)

func newTestHandler() (*Handler, *mockRepo, *echo.Echo) {
	svc, repo, _ := newTestService()
	return NewHandler(svc), repo, echo.New()
}

func adminContext(e *echo.Echo, method, target, body, hospitalID string) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := context.WithValue(req.Context(), auth.UserRoleKey, auth.RoleHospital)
	ctx = context.WithValue(ctx, auth.HospitalIDKey, hospitalID)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_List(t *testing.T) {
	h, repo, e := newTestHandler()
	seedHospital(repo)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals?beds=true", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var resp struct {
		Data  []*Hospital `json:"data"`
		Total int         `json:"total"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 || len(resp.Data) != 1 {
		t.Errorf("expected one hospital, got total=%d len=%d", resp.Total, len(resp.Data))
	}
}

func TestHandler_Get(t *testing.T) {
	h, repo, e := newTestHandler()
	hosp := seedHospital(repo)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(hosp.ID.String())

	if err := h.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_Get_NotFound(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.New().String())

	if err := h.Get(c); err == nil {
		t.Error("expected error for unknown hospital")
	}
}

func TestHandler_Get_InvalidID(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	if err := h.Get(c); err == nil {
		t.Error("expected error for invalid id")
	}
}

func TestHandler_UpdateBeds(t *testing.T) {
	h, repo, e := newTestHandler()
	hosp := seedHospital(repo)

	c, rec := adminContext(e, http.MethodPut, "/api/v1/hospitals/admin/beds", `{"availableBeds":12}`, hosp.ID.String())
	if err := h.UpdateBeds(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}

	var got Hospital
	json.Unmarshal(rec.Body.Bytes(), &got)
	if got.AvailableBeds != 12 {
		t.Errorf("expected 12 available beds, got %d", got.AvailableBeds)
	}
}

func TestHandler_UpdateBeds_MissingHospitalClaim(t *testing.T) {
	h, _, e := newTestHandler()

	c, _ := adminContext(e, http.MethodPut, "/api/v1/hospitals/admin/beds", `{"availableBeds":12}`, "")
	if err := h.UpdateBeds(c); err == nil {
		t.Error("expected error without a hospital claim")
	}
}

func TestHandler_UpdateBeds_ValidationError(t *testing.T) {
	h, repo, e := newTestHandler()
	hosp := seedHospital(repo)

	c, _ := adminContext(e, http.MethodPut, "/api/v1/hospitals/admin/beds", `{"availableBeds":-3}`, hosp.ID.String())
	err := h.UpdateBeds(c)
	if err == nil {
		t.Fatal("expected error for negative beds")
	}
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %v", err)
	}
}

func TestHandler_Dashboard(t *testing.T) {
	h, repo, e := newTestHandler()
	hosp := seedHospital(repo)

	c, rec := adminContext(e, http.MethodGet, "/api/v1/hospitals/admin/dashboard", "", hosp.ID.String())
	if err := h.Dashboard(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var dash Dashboard
	json.Unmarshal(rec.Body.Bytes(), &dash)
	if dash.OccupancyRate != 60 {
		t.Errorf("expected occupancy 60, got %v", dash.OccupancyRate)
	}
}

func TestHandler_UpdateFacilityStatus(t *testing.T) {
	h, repo, e := newTestHandler()
	hosp := seedHospital(repo)

	body := `{"facilityStatus":{"MRI":"limited"}}`
	c, rec := adminContext(e, http.MethodPut, "/api/v1/hospitals/admin/facilities", body, hosp.ID.String())
	if err := h.UpdateFacilityStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_FilterOptions(t *testing.T) {
	h, _, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/api/v1/hospitals/filter-options", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.FilterOptions(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}
