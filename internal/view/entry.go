package view

import (
	"fmt"

	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/patient"
)

// LoadingText stands in for anything not yet in the cache.
const LoadingText = "Loading..."

const (
	IconHealthCheck  = "user md"
	IconHospital     = "hospital"
	IconOccupational = "stethoscope"
)

type DiagnosisLine struct {
	Code string
	Name string
}

func (l DiagnosisLine) String() string { return l.Code + " " + l.Name }

type Detail struct {
	Label string
	Text  string
}

// EntryView is the display form of one entry.
type EntryView struct {
	Type        patient.EntryType
	Icon        string
	Date        string
	Description string
	Specialist  string
	Diagnoses   []DiagnosisLine
	Details     []Detail
	// Color is the heart color of a health check; empty for other types.
	Color string
}

// RenderEntry builds the view of e, resolving diagnosis codes against
// diagnoses. The only error is for a nil entry.
func RenderEntry(e patient.Entry, diagnoses map[string]diagnosis.Diagnosis) (EntryView, error) {
	v, err := patient.MatchEntry(e,
		func(h patient.HealthCheckEntry) EntryView {
			v := baseView(h.BaseEntry, diagnoses)
			v.Type, v.Icon = patient.TypeHealthCheck, IconHealthCheck
			v.Color = HeartColor(h.HealthCheckRating)
			v.Details = []Detail{{Label: "Health rating", Text: h.HealthCheckRating.String()}}
			return v
		},
		func(h patient.HospitalEntry) EntryView {
			v := baseView(h.BaseEntry, diagnoses)
			v.Type, v.Icon = patient.TypeHospital, IconHospital
			v.Details = []Detail{{
				Label: "Discharge",
				Text:  fmt.Sprintf("Discharged %s: %s", h.Discharge.Date, h.Discharge.Criteria),
			}}
			return v
		},
		func(o patient.OccupationalHealthcareEntry) EntryView {
			v := baseView(o.BaseEntry, diagnoses)
			v.Type, v.Icon = patient.TypeOccupationalHealthcare, IconOccupational
			v.Details = []Detail{{Label: "Employer", Text: o.EmployerName}}
			if o.SickLeave != nil {
				v.Details = append(v.Details, Detail{
					Label: "Sick leave",
					Text:  fmt.Sprintf("Sick leave %s to %s", o.SickLeave.StartDate, o.SickLeave.EndDate),
				})
			}
			return v
		},
	)
	if err != nil {
		return EntryView{}, fmt.Errorf("render entry: %w", err)
	}
	return v, nil
}

func baseView(b patient.BaseEntry, diagnoses map[string]diagnosis.Diagnosis) EntryView {
	v := EntryView{
		Date:        b.Date,
		Description: b.Description,
		Specialist:  b.Specialist,
	}
	for _, code := range b.DiagnosisCodes {
		line := DiagnosisLine{Code: code, Name: LoadingText}
		if d, ok := diagnoses[code]; ok {
			line.Name = d.Name
		}
		v.Diagnoses = append(v.Diagnoses, line)
	}
	return v
}

// GenderIcon returns the icon name for g, or "" for an unknown gender.
func GenderIcon(g patient.Gender) string {
	switch g {
	case patient.GenderMale:
		return "mars"
	case patient.GenderFemale:
		return "venus"
	case patient.GenderOther:
		return "genderless"
	}
	return ""
}

// HeartColor returns the heart color for r, or "" outside 0..3.
func HeartColor(r patient.HealthCheckRating) string {
	switch r {
	case patient.RatingHealthy:
		return "green"
	case patient.RatingLowRisk:
		return "yellow"
	case patient.RatingHighRisk:
		return "orange"
	case patient.RatingCriticalRisk:
		return "red"
	}
	return ""
}
