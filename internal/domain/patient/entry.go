package patient

import (
	"errors"
	"fmt"
)

type EntryType string

const (
	TypeHealthCheck            EntryType = "HealthCheck"
	TypeHospital               EntryType = "Hospital"
	TypeOccupationalHealthcare EntryType = "OccupationalHealthcare"
)

// EntryTypes lists every variant of Entry.
var EntryTypes = []EntryType{TypeHealthCheck, TypeHospital, TypeOccupationalHealthcare}

var (
	ErrUnknownEntryType = errors.New("unknown entry type")
	ErrUnhandledEntry   = errors.New("unhandled entry variant")
)

type HealthCheckRating int

const (
	RatingHealthy HealthCheckRating = iota
	RatingLowRisk
	RatingHighRisk
	RatingCriticalRisk
)

func (r HealthCheckRating) Valid() bool {
	return r >= RatingHealthy && r <= RatingCriticalRisk
}

func (r HealthCheckRating) String() string {
	switch r {
	case RatingHealthy:
		return "Healthy"
	case RatingLowRisk:
		return "LowRisk"
	case RatingHighRisk:
		return "HighRisk"
	case RatingCriticalRisk:
		return "CriticalRisk"
	}
	return fmt.Sprintf("HealthCheckRating(%d)", int(r))
}

// BaseEntry holds the fields shared by every entry variant.
type BaseEntry struct {
	ID             string   `json:"id,omitempty"`
	Description    string   `json:"description"`
	Date           string   `json:"date"`
	Specialist     string   `json:"specialist"`
	DiagnosisCodes []string `json:"diagnosisCodes,omitempty"`
}

type Discharge struct {
	Date     string `json:"date"`
	Criteria string `json:"criteria"`
}

type SickLeave struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// Entry is one clinical record. The set of implementations is closed:
// HealthCheckEntry, HospitalEntry and OccupationalHealthcareEntry.
type Entry interface {
	EntryType() EntryType
	Base() BaseEntry
	withBase(b BaseEntry) Entry
}

type HealthCheckEntry struct {
	BaseEntry
	HealthCheckRating HealthCheckRating `json:"healthCheckRating"`
}

type HospitalEntry struct {
	BaseEntry
	Discharge Discharge `json:"discharge"`
}

type OccupationalHealthcareEntry struct {
	BaseEntry
	EmployerName string     `json:"employerName"`
	SickLeave    *SickLeave `json:"sickLeave,omitempty"`
}

func (e HealthCheckEntry) EntryType() EntryType { return TypeHealthCheck }
func (e HealthCheckEntry) Base() BaseEntry       { return e.BaseEntry }
func (e HealthCheckEntry) withBase(b BaseEntry) Entry {
	e.BaseEntry = b
	return e
}

func (e HospitalEntry) EntryType() EntryType { return TypeHospital }
func (e HospitalEntry) Base() BaseEntry       { return e.BaseEntry }
func (e HospitalEntry) withBase(b BaseEntry) Entry {
	e.BaseEntry = b
	return e
}

func (e OccupationalHealthcareEntry) EntryType() EntryType { return TypeOccupationalHealthcare }
func (e OccupationalHealthcareEntry) Base() BaseEntry       { return e.BaseEntry }
func (e OccupationalHealthcareEntry) withBase(b BaseEntry) Entry {
	e.BaseEntry = b
	return e
}

// WithID returns a copy of e carrying id.
func WithID(e Entry, id string) Entry {
	b := e.Base()
	b.ID = id
	return e.withBase(b)
}

// MatchEntry calls the function for e's variant. Every variant has its own
// parameter, so adding a variant breaks every caller at compile time. The
// ErrUnhandledEntry path is only reachable with a nil Entry or a nil variant
// pointer.
func MatchEntry[T any](
	e Entry,
	healthCheck func(HealthCheckEntry) T,
	hospital func(HospitalEntry) T,
	occupational func(OccupationalHealthcareEntry) T,
) (T, error) {
	switch v := e.(type) {
	case HealthCheckEntry:
		return healthCheck(v), nil
	case *HealthCheckEntry:
		if v != nil {
			return healthCheck(*v), nil
		}
	case HospitalEntry:
		return hospital(v), nil
	case *HospitalEntry:
		if v != nil {
			return hospital(*v), nil
		}
	case OccupationalHealthcareEntry:
		return occupational(v), nil
	case *OccupationalHealthcareEntry:
		if v != nil {
			return occupational(*v), nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %T", ErrUnhandledEntry, e)
}
