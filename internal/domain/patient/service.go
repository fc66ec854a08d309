package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ErrInvalid marks request payloads the service refuses to store.
var ErrInvalid = errors.New("invalid request")

type Service struct {
	repo  Repository
	newID func() string
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, newID: uuid.NewString}
}

func (s *Service) ListPatients(ctx context.Context) ([]*Patient, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetPatient(ctx context.Context, id string) (*DetailedPatientInfo, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) CreatePatient(ctx context.Context, np NewPatient) (*Patient, error) {
	if strings.TrimSpace(np.Name) == "" || strings.TrimSpace(np.Occupation) == "" {
		return nil, fmt.Errorf("%w: name and occupation are required", ErrInvalid)
	}
	if !np.Gender.Valid() {
		return nil, fmt.Errorf("%w: incorrect gender: %q", ErrInvalid, np.Gender)
	}
	p := &Patient{
		ID:          s.newID(),
		Name:        np.Name,
		Occupation:  np.Occupation,
		Gender:      np.Gender,
		SSN:         np.SSN,
		DateOfBirth: np.DateOfBirth,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// ImportPatient stores a fully formed record, keeping its ids. Used for seed
// data.
func (s *Service) ImportPatient(ctx context.Context, d DetailedPatientInfo) error {
	if d.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalid)
	}
	p := d.Patient
	if err := s.repo.Create(ctx, &p); err != nil {
		return err
	}
	for _, e := range d.Entries {
		if err := s.repo.AddEntry(ctx, d.ID, e); err != nil {
			return err
		}
	}
	return nil
}

// AddEntry checks ne, assigns it an id and appends it to the patient's
// history.
func (s *Service) AddEntry(ctx context.Context, patientID string, ne NewEntry) (Entry, error) {
	if ne.Entry == nil {
		return nil, fmt.Errorf("%w: missing entry", ErrInvalid)
	}
	if err := CheckEntry(ne.Entry); err != nil {
		return nil, err
	}
	e := WithID(ne.Entry, s.newID())
	if err := s.repo.AddEntry(ctx, patientID, e); err != nil {
		return nil, err
	}
	return e, nil
}

// CheckEntry applies the server-side shape rules to an incoming entry.
func CheckEntry(e Entry) error {
	variant, err := MatchEntry(e,
		func(h HealthCheckEntry) []string {
			if !h.HealthCheckRating.Valid() {
				return []string{"healthCheckRating"}
			}
			return nil
		},
		func(h HospitalEntry) []string {
			if h.Discharge.Date == "" || h.Discharge.Criteria == "" {
				return []string{"discharge"}
			}
			return nil
		},
		func(o OccupationalHealthcareEntry) []string {
			var out []string
			if o.EmployerName == "" {
				out = append(out, "employerName")
			}
			if o.SickLeave != nil && (o.SickLeave.StartDate == "") != (o.SickLeave.EndDate == "") {
				out = append(out, "sickLeave")
			}
			return out
		},
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	b := e.Base()
	var missing []string
	if b.Description == "" {
		missing = append(missing, "description")
	}
	if b.Date == "" {
		missing = append(missing, "date")
	}
	if b.Specialist == "" {
		missing = append(missing, "specialist")
	}
	for _, code := range b.DiagnosisCodes {
		if strings.TrimSpace(code) == "" {
			missing = append(missing, "diagnosisCodes")
			break
		}
	}
	missing = append(missing, variant...)

	if len(missing) > 0 {
		return fmt.Errorf("%w: missing or malformed %s", ErrInvalid, strings.Join(missing, ", "))
	}
	return nil
}
