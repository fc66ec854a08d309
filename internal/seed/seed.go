// Package seed loads the demo patients and diagnoses into the repositories.
package seed

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"

	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/patient"
)

//go:embed data/*.json
var data embed.FS

func Diagnoses() ([]*diagnosis.Diagnosis, error) {
	var out []*diagnosis.Diagnosis
	if err := decode("data/diagnoses.json", &out); err != nil {
		return nil, err
	}
	return out, nil
}

func Patients() ([]patient.DetailedPatientInfo, error) {
	var out []patient.DetailedPatientInfo
	if err := decode("data/patients.json", &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Counts reports how many records Load stored.
type Counts struct {
	Diagnoses int
	Patients  int
	Entries   int
}

// Load stores the demo data. Records that already exist are left in place,
// so it is safe to run on every start.
func Load(ctx context.Context, diagnoses *diagnosis.Service, patients *patient.Service) (Counts, error) {
	var n Counts

	ds, err := Diagnoses()
	if err != nil {
		return n, err
	}
	for _, d := range ds {
		if err := diagnoses.AddDiagnosis(ctx, d); err != nil {
			return n, fmt.Errorf("seed diagnosis %s: %w", d.Code, err)
		}
		n.Diagnoses++
	}

	ps, err := Patients()
	if err != nil {
		return n, err
	}
	for _, p := range ps {
		if err := patients.ImportPatient(ctx, p); err != nil {
			return n, fmt.Errorf("seed patient %s: %w", p.ID, err)
		}
		n.Patients++
		n.Entries += len(p.Entries)
	}
	return n, nil
}

func decode(name string, v any) error {
	raw, err := data.ReadFile(name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}
