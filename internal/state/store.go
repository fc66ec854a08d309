package state

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/patient"
)

// Store holds the current State for one client session. Dispatch is the only
// way to change it and reductions run one at a time.
type Store struct {
	mu     sync.Mutex
	state  State
	closed bool
	logger zerolog.Logger
}

// NewStore returns a Store starting at initial. Nil maps are replaced with
// empty ones.
func NewStore(initial State, logger zerolog.Logger) *Store {
	if initial.Patients == nil {
		initial.Patients = map[string]patient.Patient{}
	}
	if initial.PatientInfo == nil {
		initial.PatientInfo = map[string]patient.DetailedPatientInfo{}
	}
	if initial.Diagnoses == nil {
		initial.Diagnoses = map[string]diagnosis.Diagnosis{}
	}
	return &Store{state: initial, logger: logger}
}

// Dispatch reduces a into the current state. After Close it does nothing and
// returns false.
func (s *Store) Dispatch(a Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reduce(a)
}

// Update builds an action from the current state and reduces it in the same
// critical section, so the action cannot be based on a stale read. A nil
// action leaves the state as it is and returns false.
func (s *Store) Update(build func(State) Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		s.logger.Debug().Msg("update after close ignored")
		return false
	}
	a := build(s.state)
	if a == nil {
		return false
	}
	return s.reduce(a)
}

func (s *Store) reduce(a Action) bool {
	if s.closed {
		s.logger.Debug().Str("action", actionName(a)).Msg("dispatch after close ignored")
		return false
	}
	s.state = Reduce(s.state, a)
	s.logger.Debug().
		Str("action", actionName(a)).
		Int("patients", len(s.state.Patients)).
		Int("details", len(s.state.PatientInfo)).
		Int("diagnoses", len(s.state.Diagnoses)).
		Msg("dispatch")
	return true
}

// Snapshot returns the current state. Callers must not write to its maps.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Close ends the session. Later dispatches are ignored.
func (s *Store) Close() {
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
}

// Patient returns the cached summary for id.
func (s *Store) Patient(id string) (patient.Patient, bool) {
	p, ok := s.Snapshot().Patients[id]
	return p, ok
}

// Detail returns the cached detailed record for id.
func (s *Store) Detail(id string) (patient.DetailedPatientInfo, bool) {
	d, ok := s.Snapshot().PatientInfo[id]
	return d, ok
}

// Diagnosis returns the loaded diagnosis for code.
func (s *Store) Diagnosis(code string) (diagnosis.Diagnosis, bool) {
	d, ok := s.Snapshot().Diagnoses[code]
	return d, ok
}

func actionName(a Action) string {
	switch a.(type) {
	case SetPatientList:
		return "SET_PATIENT_LIST"
	case AddPatient:
		return "ADD_PATIENT"
	case AddDetailedInfo:
		return "ADD_DETAILED_INFO"
	case AddEntry:
		return "ADD_ENTRY"
	case AddDiagnoses:
		return "ADD_DIAGNOSES"
	}
	return fmt.Sprintf("%T", a)
}
