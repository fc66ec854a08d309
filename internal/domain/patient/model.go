package patient

type Gender string

const (
	GenderMale   Gender = "male"
	GenderFemale Gender = "female"
	GenderOther  Gender = "other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

// Patient is the summary record returned by the patient list.
type Patient struct {
	ID          string  `db:"id" json:"id"`
	Name        string  `db:"name" json:"name"`
	Occupation  string  `db:"occupation" json:"occupation"`
	Gender      Gender  `db:"gender" json:"gender"`
	SSN         *string `db:"ssn" json:"ssn,omitempty"`
	DateOfBirth *string `db:"date_of_birth" json:"dateOfBirth,omitempty"`
}

// NonSensitive returns a copy without the social security number, as served
// by the list endpoint.
func (p Patient) NonSensitive() Patient {
	p.SSN = nil
	return p
}

// NewPatient is a patient awaiting a server-assigned id.
type NewPatient struct {
	Name        string  `json:"name"`
	Occupation  string  `json:"occupation"`
	Gender      Gender  `json:"gender"`
	SSN         *string `json:"ssn,omitempty"`
	DateOfBirth *string `json:"dateOfBirth,omitempty"`
}

// DetailedPatientInfo is a patient together with its full entry history.
type DetailedPatientInfo struct {
	Patient
	Entries Entries `json:"entries"`
}

// WithEntry returns a copy with e appended. The receiver's entry slice is
// never written to.
func (d DetailedPatientInfo) WithEntry(e Entry) DetailedPatientInfo {
	entries := make(Entries, 0, len(d.Entries)+1)
	entries = append(entries, d.Entries...)
	d.Entries = append(entries, e)
	return d
}
