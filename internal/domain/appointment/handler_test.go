package appointment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/healthconnect/healthconnect/internal/platform/auth"
)

func patientContext(e *echo.Echo, method, target, body string, userID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := context.WithValue(req.Context(), auth.UserIDKey, userID.String())
	ctx = context.WithValue(ctx, auth.UsernameKey, "asha")
	ctx = context.WithValue(ctx, auth.UserRoleKey, auth.RoleUser)
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func hospitalContext(e *echo.Echo, method, target, body string, hospitalID uuid.UUID) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := context.WithValue(req.Context(), auth.UserRoleKey, auth.RoleHospital)
	ctx = context.WithValue(ctx, auth.HospitalIDKey, hospitalID.String())
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func TestHandler_Create(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	tomorrow := time.Now().Add(24 * time.Hour).Format("2006-01-02")
	body := fmt.Sprintf(`{"hospitalId":%q,"date":%q,"time":"10:30","reason":"checkup"}`, f.hospitalID, tomorrow)
	c, rec := patientContext(e, http.MethodPost, "/api/v1/appointments", body, f.userID)

	if err := h.Create(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}

	var a Appointment
	json.Unmarshal(rec.Body.Bytes(), &a)
	if a.Status != StatusPending {
		t.Errorf("expected pending, got %s", a.Status)
	}
}

func TestHandler_Create_MissingIdentity(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/appointments", strings.NewReader(`{}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := h.Create(c); err == nil {
		t.Error("expected error without authenticated user")
	}
}

func TestHandler_Cancel_Forbidden(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()
	a := f.book(t)

	c, _ := patientContext(e, http.MethodPut, "/", "", uuid.New())
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.Cancel(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestHandler_AdminList(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()
	f.book(t)

	c, rec := hospitalContext(e, http.MethodGet, "/api/v1/admin/appointments", "", f.hospitalID)
	if err := h.AdminList(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var resp struct {
		Total int    `json:"total"`
		Stats *Stats `json:"stats"`
	}
	json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Total != 1 || resp.Stats == nil || resp.Stats.Pending != 1 {
		t.Errorf("unexpected response: total=%d stats=%+v", resp.Total, resp.Stats)
	}
}

func TestHandler_UpdateStatus(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()
	a := f.book(t)

	c, rec := hospitalContext(e, http.MethodPatch, "/", `{"status":"Confirmed"}`, f.hospitalID)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	if err := h.UpdateStatus(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestHandler_UpdateStatus_InvalidTransition(t *testing.T) {
	f := newFixture()
	h := NewHandler(f.svc)
	e := echo.New()
	a := f.book(t)

	c, _ := hospitalContext(e, http.MethodPatch, "/", `{"status":"Completed"}`, f.hospitalID)
	c.SetParamNames("id")
	c.SetParamValues(a.ID.String())

	err := h.UpdateStatus(c)
	httpErr, ok := err.(*echo.HTTPError)
	if !ok || httpErr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for pending->completed, got %v", err)
	}
}
