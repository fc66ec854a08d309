package form

import (
	"strings"

	"github.com/ehr/patientor/internal/domain/patient"
)

// Normalize prepares a new entry for the API: blank diagnosis codes are
// removed and the list is dropped when nothing remains, and an
// OccupationalHealthcare sick leave with both dates empty is dropped.
// Normalize(Normalize(e)) equals Normalize(e).
func Normalize(ne patient.NewEntry) patient.NewEntry {
	if ne.Entry == nil {
		return ne
	}
	normalized, err := patient.MatchEntry(ne.Entry,
		func(h patient.HealthCheckEntry) patient.Entry {
			h.DiagnosisCodes = normalizeCodes(h.DiagnosisCodes)
			return h
		},
		func(h patient.HospitalEntry) patient.Entry {
			h.DiagnosisCodes = normalizeCodes(h.DiagnosisCodes)
			return h
		},
		func(o patient.OccupationalHealthcareEntry) patient.Entry {
			o.DiagnosisCodes = normalizeCodes(o.DiagnosisCodes)
			if o.SickLeave != nil && o.SickLeave.StartDate == "" && o.SickLeave.EndDate == "" {
				o.SickLeave = nil
			}
			return o
		},
	)
	if err != nil {
		return ne
	}
	return patient.NewEntry{Entry: normalized}
}

func normalizeCodes(codes []string) []string {
	var out []string
	for _, c := range codes {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
