package gateway

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ehr/patientor/internal/domain/patient"
	"github.com/ehr/patientor/internal/form"
	"github.com/ehr/patientor/internal/state"
)

// Session keeps a Store in step with the API. Every successful fetch or
// submit is dispatched; failures leave the store as it was.
type Session struct {
	client *Client
	store  *state.Store
	logger zerolog.Logger
}

func NewSession(client *Client, store *state.Store, logger zerolog.Logger) *Session {
	return &Session{client: client, store: store, logger: logger}
}

func (s *Session) Store() *state.Store { return s.store }

func (s *Session) LoadPatients(ctx context.Context) error {
	list, err := s.client.FetchPatientList(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load patients")
		return err
	}
	s.store.Dispatch(state.SetPatientList{Patients: list})
	return nil
}

func (s *Session) LoadDiagnoses(ctx context.Context) error {
	list, err := s.client.FetchDiagnoses(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("load diagnoses")
		return err
	}
	s.store.Dispatch(state.AddDiagnoses{Diagnoses: list})
	return nil
}

// Bootstrap loads patients and diagnoses concurrently. Each load dispatches
// on its own, so one failing neither cancels nor undoes the other.
func (s *Session) Bootstrap(ctx context.Context) error {
	var g errgroup.Group
	g.Go(func() error { return s.LoadPatients(ctx) })
	g.Go(func() error { return s.LoadDiagnoses(ctx) })
	return g.Wait()
}

// PatientDetail returns the cached record for id, fetching it only on a
// cache miss.
func (s *Session) PatientDetail(ctx context.Context, id string) (patient.DetailedPatientInfo, error) {
	if d, ok := s.store.Detail(id); ok {
		return d, nil
	}
	d, err := s.client.FetchPatientDetail(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", id).Msg("load patient detail")
		return patient.DetailedPatientInfo{}, err
	}
	// A concurrent caller may have cached the record, and appended to it,
	// while this fetch was in flight.
	s.store.Update(func(st state.State) state.Action {
		if cached, ok := st.PatientInfo[id]; ok {
			d = cached
			return nil
		}
		return state.AddDetailedInfo{Detail: d}
	})
	return d, nil
}

// AddPatient creates a patient and caches its summary.
func (s *Session) AddPatient(ctx context.Context, np patient.NewPatient) (patient.Patient, error) {
	p, err := s.client.AddPatient(ctx, np)
	if err != nil {
		return patient.Patient{}, err
	}
	s.store.Dispatch(state.AddPatient{Patient: p})
	return p, nil
}

// SubmitEntry sends the form's entry for patientID and appends the stored
// entry to the cached record. An unsubmittable form returns form.ErrPristine
// or a *form.ValidationError without any request.
func (s *Session) SubmitEntry(ctx context.Context, patientID string, f *form.Form) (patient.Entry, error) {
	ne, err := f.Submit()
	if err != nil {
		return nil, err
	}

	detail, err := s.PatientDetail(ctx, patientID)
	if err != nil {
		return nil, err
	}

	e, err := s.client.SubmitEntry(ctx, patientID, ne)
	if err != nil {
		s.logger.Error().Err(err).Str("patient_id", patientID).Msg("submit entry")
		return nil, err
	}
	if e.EntryType() != ne.Type() {
		return nil, fmt.Errorf("submit entry: server returned %s for %s", e.EntryType(), ne.Type())
	}

	s.store.Update(func(st state.State) state.Action {
		if cached, ok := st.PatientInfo[patientID]; ok {
			detail = cached
		}
		return state.AddEntry{Detail: detail.WithEntry(e)}
	})
	s.logger.Info().
		Str("patient_id", patientID).
		Str("entry_id", e.Base().ID).
		Str("type", string(e.EntryType())).
		Msg("entry added")
	return e, nil
}
