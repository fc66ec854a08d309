package patient

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func newTestService() *Service {
	svc := NewService(NewMemoryRepo())
	n := 0
	svc.newID = func() string {
		n++
		return "id-" + string(rune('0'+n))
	}
	return svc
}

func validHospital() HospitalEntry {
	return HospitalEntry{
		BaseEntry: BaseEntry{Date: "2015-01-02", Description: "Thumb.", Specialist: "MD House"},
		Discharge: Discharge{Date: "2015-01-16", Criteria: "Thumb has healed."},
	}
}

func TestService_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	p, err := svc.CreatePatient(ctx, NewPatient{Name: "Dana Scully", Occupation: "Forensic Pathologist", Gender: GenderFemale})
	if err != nil {
		t.Fatalf("CreatePatient: %v", err)
	}
	if p.ID != "id-1" {
		t.Errorf("expected generated id, got %q", p.ID)
	}

	d, err := svc.GetPatient(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetPatient: %v", err)
	}
	if d.Name != "Dana Scully" || d.Entries == nil || len(d.Entries) != 0 {
		t.Errorf("unexpected detail %+v", d)
	}

	if _, err := svc.GetPatient(ctx, "nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestService_CreatePatient_Invalid(t *testing.T) {
	svc := newTestService()
	tests := []NewPatient{
		{Occupation: "x", Gender: GenderMale},
		{Name: "x", Gender: GenderMale},
		{Name: "x", Occupation: "y", Gender: "robot"},
	}
	for _, np := range tests {
		if _, err := svc.CreatePatient(context.Background(), np); !errors.Is(err, ErrInvalid) {
			t.Errorf("%+v: expected ErrInvalid, got %v", np, err)
		}
	}
}

func TestService_AddEntry(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()
	p, _ := svc.CreatePatient(ctx, NewPatient{Name: "John McClane", Occupation: "Cop", Gender: GenderMale})

	e, err := svc.AddEntry(ctx, p.ID, NewEntry{Entry: validHospital()})
	if err != nil {
		t.Fatalf("AddEntry: %v", err)
	}
	if e.Base().ID != "id-2" {
		t.Errorf("expected assigned id, got %q", e.Base().ID)
	}

	d, _ := svc.GetPatient(ctx, p.ID)
	if len(d.Entries) != 1 || d.Entries[0].Base().ID != "id-2" {
		t.Errorf("unexpected entries %+v", d.Entries)
	}

	if _, err := svc.AddEntry(ctx, "missing", NewEntry{Entry: validHospital()}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := svc.AddEntry(ctx, p.ID, NewEntry{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid for empty entry, got %v", err)
	}
}

func TestCheckEntry(t *testing.T) {
	base := BaseEntry{Date: "d", Description: "x", Specialist: "s"}
	tests := []struct {
		name    string
		entry   Entry
		missing string
	}{
		{"valid hospital", validHospital(), ""},
		{"valid health check", HealthCheckEntry{BaseEntry: base, HealthCheckRating: RatingCriticalRisk}, ""},
		{"valid occupational", OccupationalHealthcareEntry{BaseEntry: base, EmployerName: "HyPD"}, ""},
		{"base fields", HospitalEntry{Discharge: Discharge{Date: "d", Criteria: "c"}}, "description, date, specialist"},
		{"blank code", HospitalEntry{BaseEntry: BaseEntry{Date: "d", Description: "x", Specialist: "s", DiagnosisCodes: []string{""}}, Discharge: Discharge{Date: "d", Criteria: "c"}}, "diagnosisCodes"},
		{"rating", HealthCheckEntry{BaseEntry: base, HealthCheckRating: 7}, "healthCheckRating"},
		{"discharge", HospitalEntry{BaseEntry: base, Discharge: Discharge{Date: "d"}}, "discharge"},
		{"employer", OccupationalHealthcareEntry{BaseEntry: base}, "employerName"},
		{"half sick leave", OccupationalHealthcareEntry{BaseEntry: base, EmployerName: "e", SickLeave: &SickLeave{StartDate: "a"}}, "sickLeave"},
		{"nil variant pointer", (*HealthCheckEntry)(nil), "unhandled entry variant"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := CheckEntry(tt.entry)
			if tt.missing == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, ErrInvalid) || !strings.Contains(err.Error(), tt.missing) {
				t.Fatalf("expected ErrInvalid mentioning %q, got %v", tt.missing, err)
			}
		})
	}
}

func TestService_ImportPatient(t *testing.T) {
	ctx := context.Background()
	svc := newTestService()

	detail := DetailedPatientInfo{
		Patient: Patient{ID: "d27736ec", Name: "Hans Gruber", Occupation: "Technician", Gender: GenderOther},
		Entries: Entries{WithID(validHospital(), "e1")},
	}
	for i := 0; i < 2; i++ {
		if err := svc.ImportPatient(ctx, detail); err != nil {
			t.Fatalf("ImportPatient: %v", err)
		}
	}
	d, _ := svc.GetPatient(ctx, "d27736ec")
	if len(d.Entries) != 1 {
		t.Errorf("expected import to be repeatable, got %d entries", len(d.Entries))
	}

	if err := svc.ImportPatient(ctx, DetailedPatientInfo{}); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid without id, got %v", err)
	}
}

func TestMemoryRepo_ListKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	for _, id := range []string{"c", "a", "b"} {
		_ = repo.Create(ctx, &Patient{ID: id})
	}
	list, _ := repo.List(ctx)
	if len(list) != 3 || list[0].ID != "c" || list[2].ID != "b" {
		t.Errorf("unexpected order %v", list)
	}
}

func TestMemoryRepo_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	_ = repo.Create(ctx, &Patient{ID: "p"})
	_ = repo.AddEntry(ctx, "p", WithID(validHospital(), "e1"))

	d, _ := repo.Get(ctx, "p")
	d.Entries[0] = nil
	d.Name = "changed"

	again, _ := repo.Get(ctx, "p")
	if again.Entries[0] == nil || again.Name == "changed" {
		t.Error("Get must return an independent copy")
	}
}
