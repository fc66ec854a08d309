package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/config"
	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/form"
	"github.com/ehr/patientor/internal/platform/auth"
	"github.com/ehr/patientor/internal/server"
	"github.com/ehr/patientor/internal/state"
)

const (
	mcClane = "d2773336-f723-11e9-8f0b-362b9e155667"
	riggs   = "d2773598-f723-11e9-8f0b-362b9e155667"
	secret  = "0123456789abcdef0123456789abcdef"
)

// recorder counts requests and keeps the last request body.
type recorder struct {
	next http.Handler

	mu       sync.Mutex
	requests map[string]int
	lastBody []byte
}

func (r *recorder) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	body, _ := io.ReadAll(req.Body)
	req.Body = io.NopCloser(bytes.NewReader(body))

	r.mu.Lock()
	r.requests[req.Method+" "+req.URL.Path]++
	if len(body) > 0 {
		r.lastBody = body
	}
	r.mu.Unlock()

	r.next.ServeHTTP(w, req)
}

func (r *recorder) count(key string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.requests[key]
}

func (r *recorder) total() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, c := range r.requests {
		n += c
	}
	return n
}

func newAPI(t *testing.T, authSecret string) (*httptest.Server, *recorder) {
	t.Helper()
	cfg := &config.Config{
		Env:        "development",
		AuthSecret: authSecret,
		AuthIssuer: "patientor",
		APITimeout: time.Second,
	}
	d, err := server.NewDeps(cfg, zerolog.Nop(), nil)
	if err != nil {
		t.Fatalf("deps: %v", err)
	}
	if err := d.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	rec := &recorder{next: server.New(d), requests: map[string]int{}}
	srv := httptest.NewServer(rec)
	t.Cleanup(srv.Close)
	return srv, rec
}

func newSession(srv *httptest.Server, opts ...ClientOption) *Session {
	client := NewClient(srv.URL+"/api/", opts...)
	return NewSession(client, state.NewStore(state.Empty(), zerolog.Nop()), zerolog.Nop())
}

func fillForm(t *testing.T, f *form.Form, values map[string]string) {
	t.Helper()
	for field, value := range values {
		if err := f.Set(field, value); err != nil {
			t.Fatalf("Set %s: %v", field, err)
		}
	}
}

func TestClient_Fetches(t *testing.T) {
	srv, _ := newAPI(t, "")
	c := NewClient(srv.URL + "/api")
	ctx := context.Background()

	list, err := c.FetchPatientList(ctx)
	if err != nil {
		t.Fatalf("FetchPatientList: %v", err)
	}
	if len(list) != 5 {
		t.Errorf("expected 5 patients, got %d", len(list))
	}
	for _, p := range list {
		if p.SSN != nil {
			t.Errorf("%s: list must not carry ssn", p.Name)
		}
	}

	d, err := c.FetchPatientDetail(ctx, riggs)
	if err != nil {
		t.Fatalf("FetchPatientDetail: %v", err)
	}
	if len(d.Entries) != 1 || d.Entries[0].EntryType() != patient.TypeOccupationalHealthcare {
		t.Errorf("unexpected entries %+v", d.Entries)
	}

	ds, err := c.FetchDiagnoses(ctx)
	if err != nil {
		t.Fatalf("FetchDiagnoses: %v", err)
	}
	if len(ds) != 15 {
		t.Errorf("expected 15 diagnoses, got %d", len(ds))
	}
}

func TestClient_APIErrorIsVerbatim(t *testing.T) {
	srv, _ := newAPI(t, "")
	c := NewClient(srv.URL + "/api")

	_, err := c.FetchPatientDetail(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %v", err)
	}
	if apiErr.Status != http.StatusNotFound || apiErr.Message != "patient not found" {
		t.Errorf("unexpected api error %+v", apiErr)
	}
}

func TestDecodeAPIError_PlainBody(t *testing.T) {
	err := decodeAPIError(http.StatusBadGateway, []byte("upstream down\n"))
	if err.Message != "upstream down" {
		t.Errorf("unexpected message %q", err.Message)
	}
	err = decodeAPIError(http.StatusBadGateway, nil)
	if err.Message != http.StatusText(http.StatusBadGateway) {
		t.Errorf("unexpected message %q", err.Message)
	}
}

func TestWithTimeout_CopiesSharedClient(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	c := NewClient("http://localhost/api", WithHTTPClient(shared), WithTimeout(time.Second))
	if shared.Timeout != time.Minute {
		t.Errorf("shared client modified: timeout %v", shared.Timeout)
	}
	if c.http.Timeout != time.Second || c.http == shared {
		t.Errorf("expected a private copy with 1s timeout, got %v", c.http.Timeout)
	}
}

func TestClient_AddPatient(t *testing.T) {
	srv, _ := newAPI(t, "")
	s := newSession(srv)

	p, err := s.AddPatient(context.Background(), patient.NewPatient{Name: "Ellen Ripley", Occupation: "Warrant officer", Gender: patient.GenderFemale})
	if err != nil {
		t.Fatalf("AddPatient: %v", err)
	}
	if _, ok := s.Store().Patient(p.ID); !ok {
		t.Error("expected new patient cached")
	}

	_, err = s.AddPatient(context.Background(), patient.NewPatient{Name: "x"})
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusBadRequest {
		t.Errorf("expected 400 api error, got %v", err)
	}
}

func TestClient_BearerToken(t *testing.T) {
	srv, _ := newAPI(t, secret)

	anon := NewClient(srv.URL + "/api")
	_, err := anon.FetchPatientList(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %v", err)
	}

	signed := NewClient(srv.URL+"/api", WithSigner(auth.NewSigner(secret, "patientor", "cli")), WithTimeout(2*time.Second))
	if _, err := signed.FetchPatientList(context.Background()); err != nil {
		t.Fatalf("signed fetch: %v", err)
	}
}

func TestSession_Bootstrap(t *testing.T) {
	srv, _ := newAPI(t, "")
	s := newSession(srv)

	if err := s.Bootstrap(context.Background()); err != nil {
		t.Fatalf("Bootstrap: %v", err)
	}
	snap := s.Store().Snapshot()
	if len(snap.Patients) != 5 || len(snap.Diagnoses) != 15 {
		t.Errorf("unexpected state: %d patients, %d diagnoses", len(snap.Patients), len(snap.Diagnoses))
	}
}

func TestSession_BootstrapFailureLeavesStore(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer srv.Close()
	s := newSession(srv)

	err := s.Bootstrap(context.Background())
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Message != "boom" {
		t.Fatalf("expected boom api error, got %v", err)
	}
	snap := s.Store().Snapshot()
	if len(snap.Patients) != 0 || len(snap.Diagnoses) != 0 {
		t.Error("failed loads must not dispatch")
	}
}

func TestSession_BootstrapLoadsAreIndependent(t *testing.T) {
	api, _ := newAPI(t, "")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/diagnoses") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"error":"diagnoses unavailable"}`))
			return
		}
		time.Sleep(20 * time.Millisecond)
		proxy, err := http.Get(api.URL + r.URL.Path)
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		defer proxy.Body.Close()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(proxy.StatusCode)
		_, _ = io.Copy(w, proxy.Body)
	}))
	defer srv.Close()
	s := newSession(srv)

	if err := s.Bootstrap(context.Background()); err == nil {
		t.Fatal("expected diagnoses failure")
	}
	snap := s.Store().Snapshot()
	if len(snap.Patients) != 5 {
		t.Errorf("patient load must survive the diagnoses failure, got %d patients", len(snap.Patients))
	}
	if len(snap.Diagnoses) != 0 {
		t.Errorf("expected no diagnoses, got %d", len(snap.Diagnoses))
	}
}

func TestSession_PatientDetailCacheHit(t *testing.T) {
	srv, rec := newAPI(t, "")
	s := newSession(srv)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		d, err := s.PatientDetail(ctx, mcClane)
		if err != nil {
			t.Fatalf("PatientDetail: %v", err)
		}
		if d.Name != "John McClane" {
			t.Errorf("unexpected detail %+v", d)
		}
	}
	if n := rec.count("GET /api/patients/" + mcClane); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestSession_SubmitEntryRefusesInvalidForm(t *testing.T) {
	srv, rec := newAPI(t, "")
	s := newSession(srv)
	ctx := context.Background()

	f, _ := form.New(patient.TypeHospital)
	if _, err := s.SubmitEntry(ctx, mcClane, f); !errors.Is(err, form.ErrPristine) {
		t.Fatalf("expected ErrPristine, got %v", err)
	}

	fillForm(t, f, map[string]string{"description": "x", "discharge.date": "2015-01-16"})
	_, err := s.SubmitEntry(ctx, mcClane, f)
	var verr *form.ValidationError
	if !errors.As(err, &verr) || verr.Fields["discharge"] != form.RequiredMessage {
		t.Fatalf("expected discharge validation error, got %v", err)
	}
	if rec.total() != 0 {
		t.Errorf("invalid forms must not reach the network, saw %d requests", rec.total())
	}
}

func TestSession_SubmitOccupationalEntry(t *testing.T) {
	srv, rec := newAPI(t, "")
	s := newSession(srv)
	ctx := context.Background()

	f, _ := form.New(patient.TypeOccupationalHealthcare)
	fillForm(t, f, map[string]string{
		"date":         "2019-09-01",
		"description":  "Follow-up.",
		"specialist":   "MD House",
		"employerName": "HyPD",
	})

	e, err := s.SubmitEntry(ctx, riggs, f)
	if err != nil {
		t.Fatalf("SubmitEntry: %v", err)
	}
	if e.Base().ID == "" {
		t.Error("expected server-assigned id")
	}

	var sent map[string]any
	if err := json.Unmarshal(rec.lastBody, &sent); err != nil {
		t.Fatalf("decode sent body: %v", err)
	}
	for _, key := range []string{"sickLeave", "diagnosisCodes", "id"} {
		if _, ok := sent[key]; ok {
			t.Errorf("submitted body must not carry %q: %s", key, rec.lastBody)
		}
	}

	d, ok := s.Store().Detail(riggs)
	if !ok || len(d.Entries) != 2 {
		t.Fatalf("expected 2 cached entries, got %+v", d.Entries)
	}
	if d.Entries[1].Base().ID != e.Base().ID {
		t.Errorf("expected new entry appended last")
	}
	if n := rec.count("GET /api/patients/" + riggs); n != 1 {
		t.Errorf("expected one detail fetch, got %d", n)
	}
}

func TestSession_ConcurrentSubmitsKeepEveryEntry(t *testing.T) {
	srv, _ := newAPI(t, "")
	s := newSession(srv)
	ctx := context.Background()

	before, err := s.PatientDetail(ctx, riggs)
	if err != nil {
		t.Fatalf("PatientDetail: %v", err)
	}

	const n = 8
	forms := make([]*form.Form, n)
	for i := range forms {
		forms[i], _ = form.New(patient.TypeHealthCheck)
		fillForm(t, forms[i], map[string]string{
			"date":              "2019-10-20",
			"description":       "Yearly control visit.",
			"specialist":        "MD House",
			"healthCheckRating": "1",
		})
	}

	var wg sync.WaitGroup
	errs := make(chan error, n)
	for _, f := range forms {
		wg.Add(1)
		go func(f *form.Form) {
			defer wg.Done()
			if _, err := s.SubmitEntry(ctx, riggs, f); err != nil {
				errs <- err
			}
		}(f)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatalf("SubmitEntry: %v", err)
	}

	d, _ := s.Store().Detail(riggs)
	if want := len(before.Entries) + n; len(d.Entries) != want {
		t.Fatalf("expected %d cached entries, got %d", want, len(d.Entries))
	}
	seen := map[string]bool{}
	for _, e := range d.Entries {
		if seen[e.Base().ID] {
			t.Errorf("entry %s cached twice", e.Base().ID)
		}
		seen[e.Base().ID] = true
	}
}

func TestSession_SubmitFailureDoesNotDispatch(t *testing.T) {
	srv, _ := newAPI(t, secret)
	viewer := auth.NewSigner(secret, "patientor", "viewer", auth.RoleViewer)
	s := newSession(srv, WithSigner(viewer))
	ctx := context.Background()

	if _, err := s.PatientDetail(ctx, mcClane); err != nil {
		t.Fatalf("PatientDetail: %v", err)
	}
	before := s.Store().Snapshot()

	f, _ := form.New(patient.TypeHealthCheck)
	fillForm(t, f, map[string]string{
		"date":              "2019-10-20",
		"description":       "Yearly control visit.",
		"specialist":        "MD House",
		"healthCheckRating": "1",
	})
	_, err := s.SubmitEntry(ctx, mcClane, f)
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusForbidden {
		t.Fatalf("expected 403, got %v", err)
	}
	if !strings.Contains(apiErr.Message, "clinician") {
		t.Errorf("expected role message, got %q", apiErr.Message)
	}

	d, _ := s.Store().Detail(mcClane)
	if len(d.Entries) != len(before.PatientInfo[mcClane].Entries) {
		t.Error("failed submit must leave the cache untouched")
	}
}

func TestSession_SubmitUnknownPatient(t *testing.T) {
	srv, _ := newAPI(t, "")
	s := newSession(srv)

	f, _ := form.New(patient.TypeHospital)
	fillForm(t, f, map[string]string{
		"date":               "2015-01-02",
		"description":        "x",
		"specialist":         "MD House",
		"discharge.date":     "2015-01-16",
		"discharge.criteria": "ok",
	})
	if _, err := s.SubmitEntry(context.Background(), "missing", f); err == nil {
		t.Fatal("expected error for unknown patient")
	}
	if len(s.Store().Snapshot().PatientInfo) != 0 {
		t.Error("expected nothing cached")
	}
}
