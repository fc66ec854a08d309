package patient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestHandler() (*Handler, *echo.Echo) {
	return NewHandler(newTestService()), echo.New()
}

func httpCode(t *testing.T, err error) int {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected *echo.HTTPError, got %v", err)
	}
	return he.Code
}

func TestHandler_ListPatients_HidesSSN(t *testing.T) {
	h, e := newTestHandler()
	ssn := "090786-122X"
	_ = h.svc.repo.Create(context.Background(), &Patient{ID: "p1", Name: "John McClane", Gender: GenderMale, SSN: &ssn})

	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	rec := httptest.NewRecorder()
	if err := h.ListPatients(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(rec.Body.String(), "ssn") {
		t.Errorf("expected no ssn, got %s", rec.Body.String())
	}
}

func TestHandler_ListPatients_EmptyIsArray(t *testing.T) {
	h, e := newTestHandler()
	req := httptest.NewRequest(http.MethodGet, "/api/patients", nil)
	rec := httptest.NewRecorder()
	_ = h.ListPatients(e.NewContext(req, rec))
	if strings.TrimSpace(rec.Body.String()) != "[]" {
		t.Errorf("expected [], got %s", rec.Body.String())
	}
}

func TestHandler_GetPatient_NotFound(t *testing.T) {
	h, e := newTestHandler()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("missing")

	if code := httpCode(t, h.GetPatient(c)); code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", code)
	}
}

func TestHandler_CreatePatient(t *testing.T) {
	h, e := newTestHandler()

	body := `{"name":"Matti Luukkainen","occupation":"Digital evangelist","gender":"male","dateOfBirth":"1971-04-09"}`
	req := httptest.NewRequest(http.MethodPost, "/api/patients", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := h.CreatePatient(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", rec.Code)
	}
	var p Patient
	_ = json.Unmarshal(rec.Body.Bytes(), &p)
	if p.DateOfBirth == nil || *p.DateOfBirth != "1971-04-09" {
		t.Errorf("unexpected patient %+v", p)
	}
}

func TestHandler_AddEntry(t *testing.T) {
	h, e := newTestHandler()
	_ = h.svc.repo.Create(context.Background(), &Patient{ID: "p1", Name: "Martin Riggs", Gender: GenderMale})

	body := `{"type":"OccupationalHealthcare","date":"2019-08-05","description":"Radiation.","specialist":"MD House","employerName":"HyPD","diagnosisCodes":["Z57.1"]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("p1")

	if err := h.AddEntry(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	got, err := DecodeEntry(rec.Body.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got.EntryType() != TypeOccupationalHealthcare || got.Base().ID == "" {
		t.Errorf("unexpected entry %+v", got)
	}
}

func TestHandler_AddEntry_BadRequests(t *testing.T) {
	h, e := newTestHandler()
	_ = h.svc.repo.Create(context.Background(), &Patient{ID: "p1"})

	tests := []struct {
		name string
		body string
	}{
		{"unknown type", `{"type":"Dental"}`},
		{"malformed", `{"type":"Hospital",`},
		{"invalid", `{"type":"HealthCheck","healthCheckRating":9}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))
			req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
			c := e.NewContext(req, httptest.NewRecorder())
			c.SetParamNames("id")
			c.SetParamValues("p1")

			if code := httpCode(t, h.AddEntry(c)); code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d", code)
			}
		})
	}
}
