package state

import (
	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/patient"
)

// State is the client-side cache. Values are never modified in place: Reduce
// returns a new State and shares every map it did not touch.
type State struct {
	Patients    map[string]patient.Patient
	PatientInfo map[string]patient.DetailedPatientInfo
	Diagnoses   map[string]diagnosis.Diagnosis
}

// Empty returns a State with all three caches empty.
func Empty() State {
	return State{
		Patients:    map[string]patient.Patient{},
		PatientInfo: map[string]patient.DetailedPatientInfo{},
		Diagnoses:   map[string]diagnosis.Diagnosis{},
	}
}

// Action is a state transition. The implementations are the types in this
// package.
type Action interface {
	action()
}

// SetPatientList merges summaries into Patients. Ids already cached keep
// their current value.
type SetPatientList struct {
	Patients []patient.Patient
}

// AddPatient inserts or replaces one summary.
type AddPatient struct {
	Patient patient.Patient
}

// AddDetailedInfo inserts or replaces a detailed record.
type AddDetailedInfo struct {
	Detail patient.DetailedPatientInfo
}

// AddEntry replaces a detailed record with one carrying a new entry.
type AddEntry struct {
	Detail patient.DetailedPatientInfo
}

// AddDiagnoses merges diagnoses by code. Codes already cached keep their
// current value.
type AddDiagnoses struct {
	Diagnoses []diagnosis.Diagnosis
}

func (SetPatientList) action()  {}
func (AddPatient) action()      {}
func (AddDetailedInfo) action() {}
func (AddEntry) action()        {}
func (AddDiagnoses) action()    {}

// Reduce applies a to s. It performs no I/O and leaves s untouched; unknown
// actions return s as is.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case SetPatientList:
		patients := copyMap(s.Patients, len(a.Patients))
		for _, p := range a.Patients {
			if _, ok := patients[p.ID]; !ok {
				patients[p.ID] = p
			}
		}
		s.Patients = patients
	case AddPatient:
		patients := copyMap(s.Patients, 1)
		patients[a.Patient.ID] = a.Patient
		s.Patients = patients
	case AddDetailedInfo:
		s.PatientInfo = putDetail(s.PatientInfo, a.Detail)
	case AddEntry:
		s.PatientInfo = putDetail(s.PatientInfo, a.Detail)
	case AddDiagnoses:
		diagnoses := copyMap(s.Diagnoses, len(a.Diagnoses))
		for _, d := range a.Diagnoses {
			if _, ok := diagnoses[d.Code]; !ok {
				diagnoses[d.Code] = d
			}
		}
		s.Diagnoses = diagnoses
	}
	return s
}

func putDetail(m map[string]patient.DetailedPatientInfo, d patient.DetailedPatientInfo) map[string]patient.DetailedPatientInfo {
	out := copyMap(m, 1)
	out[d.ID] = d
	return out
}

func copyMap[K comparable, V any](m map[K]V, extra int) map[K]V {
	out := make(map[K]V, len(m)+extra)
	for k, v := range m {
		out[k] = v
	}
	return out
}
