package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/ehr/patientor/internal/domain/diagnosis"
	"github.com/ehr/patientor/internal/domain/patient"
)

type PatientView struct {
	Name       string
	GenderIcon string
	Occupation string
	// Lines holds the optional "DoB: ..." and "SSN: ..." lines.
	Lines   []string
	Entries []EntryView
}

func RenderPatient(d patient.DetailedPatientInfo, diagnoses map[string]diagnosis.Diagnosis) (PatientView, error) {
	v := PatientView{
		Name:       d.Name,
		GenderIcon: GenderIcon(d.Gender),
		Occupation: d.Occupation,
	}
	if d.DateOfBirth != nil && *d.DateOfBirth != "" {
		v.Lines = append(v.Lines, "DoB: "+*d.DateOfBirth)
	}
	if d.SSN != nil && *d.SSN != "" {
		v.Lines = append(v.Lines, "SSN: "+*d.SSN)
	}
	for _, e := range d.Entries {
		ev, err := RenderEntry(e, diagnoses)
		if err != nil {
			return PatientView{}, err
		}
		v.Entries = append(v.Entries, ev)
	}
	return v, nil
}

// Write prints v as plain text.
func Write(w io.Writer, v PatientView) error {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", v.Name, v.GenderIcon)
	fmt.Fprintf(&b, "Occupation: %s\n", v.Occupation)
	for _, l := range v.Lines {
		b.WriteString(l + "\n")
	}

	b.WriteString("\nentries\n")
	if len(v.Entries) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, e := range v.Entries {
		fmt.Fprintf(&b, "\n  %s [%s]\n", e.Date, e.Icon)
		fmt.Fprintf(&b, "  %s\n", e.Description)
		for _, d := range e.Diagnoses {
			fmt.Fprintf(&b, "    - %s\n", d)
		}
		for _, d := range e.Details {
			fmt.Fprintf(&b, "  %s\n", d.Text)
		}
		if e.Color != "" {
			fmt.Fprintf(&b, "  heart: %s\n", e.Color)
		}
		fmt.Fprintf(&b, "  diagnose by %s\n", e.Specialist)
	}

	_, err := io.WriteString(w, b.String())
	return err
}
