package form

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ehr/patientor/internal/domain/patient"
)

// Draft holds the field values of an entry form before submission. Field
// names passed to set use the wire names, with "parent.child" for nested
// records (e.g. "discharge.date").
type Draft interface {
	Type() patient.EntryType
	// NewEntry converts the values as they stand; it does not normalize.
	NewEntry() patient.NewEntry
	set(field, value string) error
	clone() Draft
}

type BaseDraft struct {
	Date           string   `json:"date" validate:"required"`
	Description    string   `json:"description" validate:"required"`
	Specialist     string   `json:"specialist" validate:"required"`
	DiagnosisCodes []string `json:"diagnosisCodes" validate:"required"`
}

func (b *BaseDraft) set(field, value string) (bool, error) {
	switch field {
	case "date":
		b.Date = value
	case "description":
		b.Description = value
	case "specialist":
		b.Specialist = value
	case "diagnosisCodes":
		b.DiagnosisCodes = splitCodes(value)
	default:
		return false, nil
	}
	return true, nil
}

func (b BaseDraft) base() patient.BaseEntry {
	var codes []string
	if b.DiagnosisCodes != nil {
		codes = append([]string{}, b.DiagnosisCodes...)
	}
	return patient.BaseEntry{
		Description:    b.Description,
		Date:           b.Date,
		Specialist:     b.Specialist,
		DiagnosisCodes: codes,
	}
}

func (b BaseDraft) cloneBase() BaseDraft {
	if b.DiagnosisCodes != nil {
		b.DiagnosisCodes = append([]string{}, b.DiagnosisCodes...)
	}
	return b
}

type HealthCheckDraft struct {
	BaseDraft
	HealthCheckRating *patient.HealthCheckRating `json:"healthCheckRating" validate:"required,min=0,max=3"`
}

type DischargeDraft struct {
	Date     string `json:"date" validate:"required"`
	Criteria string `json:"criteria" validate:"required"`
}

type HospitalDraft struct {
	BaseDraft
	Discharge DischargeDraft `json:"discharge"`
}

type SickLeaveDraft struct {
	StartDate string `json:"startDate" validate:"required_with=EndDate"`
	EndDate   string `json:"endDate" validate:"required_with=StartDate"`
}

type OccupationalHealthcareDraft struct {
	BaseDraft
	EmployerName string         `json:"employerName" validate:"required"`
	SickLeave    SickLeaveDraft `json:"sickLeave"`
}

// NewDraft returns the initial values of the form for t.
func NewDraft(t patient.EntryType) (Draft, error) {
	base := BaseDraft{DiagnosisCodes: []string{""}}
	switch t {
	case patient.TypeHealthCheck:
		rating := patient.RatingHealthy
		return &HealthCheckDraft{BaseDraft: base, HealthCheckRating: &rating}, nil
	case patient.TypeHospital:
		return &HospitalDraft{BaseDraft: base}, nil
	case patient.TypeOccupationalHealthcare:
		return &OccupationalHealthcareDraft{BaseDraft: base}, nil
	}
	return nil, fmt.Errorf("%w: %q", patient.ErrUnknownEntryType, t)
}

func (d *HealthCheckDraft) Type() patient.EntryType { return patient.TypeHealthCheck }

func (d *HealthCheckDraft) NewEntry() patient.NewEntry {
	var rating patient.HealthCheckRating
	if d.HealthCheckRating != nil {
		rating = *d.HealthCheckRating
	}
	return patient.NewEntry{Entry: patient.HealthCheckEntry{
		BaseEntry:         d.base(),
		HealthCheckRating: rating,
	}}
}

func (d *HealthCheckDraft) set(field, value string) error {
	if ok, err := d.BaseDraft.set(field, value); ok || err != nil {
		return err
	}
	if field != "healthCheckRating" {
		return unknownField(d, field)
	}
	if value == "" {
		d.HealthCheckRating = nil
		return nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return fmt.Errorf("healthCheckRating: %w", err)
	}
	r := patient.HealthCheckRating(n)
	d.HealthCheckRating = &r
	return nil
}

func (d *HealthCheckDraft) clone() Draft {
	cp := *d
	cp.BaseDraft = d.cloneBase()
	if d.HealthCheckRating != nil {
		r := *d.HealthCheckRating
		cp.HealthCheckRating = &r
	}
	return &cp
}

func (d *HospitalDraft) Type() patient.EntryType { return patient.TypeHospital }

func (d *HospitalDraft) NewEntry() patient.NewEntry {
	return patient.NewEntry{Entry: patient.HospitalEntry{
		BaseEntry: d.base(),
		Discharge: patient.Discharge{Date: d.Discharge.Date, Criteria: d.Discharge.Criteria},
	}}
}

func (d *HospitalDraft) set(field, value string) error {
	if ok, err := d.BaseDraft.set(field, value); ok || err != nil {
		return err
	}
	switch field {
	case "discharge.date":
		d.Discharge.Date = value
	case "discharge.criteria":
		d.Discharge.Criteria = value
	default:
		return unknownField(d, field)
	}
	return nil
}

func (d *HospitalDraft) clone() Draft {
	cp := *d
	cp.BaseDraft = d.cloneBase()
	return &cp
}

func (d *OccupationalHealthcareDraft) Type() patient.EntryType {
	return patient.TypeOccupationalHealthcare
}

// NewEntry always carries the sickLeave record, as the form does; Normalize
// drops it when both dates are empty.
func (d *OccupationalHealthcareDraft) NewEntry() patient.NewEntry {
	return patient.NewEntry{Entry: patient.OccupationalHealthcareEntry{
		BaseEntry:    d.base(),
		EmployerName: d.EmployerName,
		SickLeave: &patient.SickLeave{
			StartDate: d.SickLeave.StartDate,
			EndDate:   d.SickLeave.EndDate,
		},
	}}
}

func (d *OccupationalHealthcareDraft) set(field, value string) error {
	if ok, err := d.BaseDraft.set(field, value); ok || err != nil {
		return err
	}
	switch field {
	case "employerName":
		d.EmployerName = value
	case "sickLeave.startDate":
		d.SickLeave.StartDate = value
	case "sickLeave.endDate":
		d.SickLeave.EndDate = value
	default:
		return unknownField(d, field)
	}
	return nil
}

func (d *OccupationalHealthcareDraft) clone() Draft {
	cp := *d
	cp.BaseDraft = d.cloneBase()
	return &cp
}

func unknownField(d Draft, field string) error {
	return fmt.Errorf("%s form has no field %q", d.Type(), field)
}

// splitCodes turns "A, B" into ["A" "B"]; an empty string yields an empty,
// non-nil list.
func splitCodes(value string) []string {
	codes := []string{}
	if strings.TrimSpace(value) == "" {
		return codes
	}
	for _, c := range strings.Split(value, ",") {
		codes = append(codes, strings.TrimSpace(c))
	}
	return codes
}
