package form

import (
	"errors"
	"reflect"

	"github.com/ehr/patientor/internal/domain/patient"
)

// ErrPristine is returned when a form is submitted before any field changed.
var ErrPristine = errors.New("form has no changes")

// Form tracks a draft against its initial values.
type Form struct {
	initial Draft
	values  Draft
}

func New(t patient.EntryType) (*Form, error) {
	d, err := NewDraft(t)
	if err != nil {
		return nil, err
	}
	return &Form{initial: d.clone(), values: d}, nil
}

func (f *Form) Type() patient.EntryType { return f.values.Type() }

// Values returns a copy of the current draft.
func (f *Form) Values() Draft { return f.values.clone() }

// Set assigns one field by its wire name, e.g. "discharge.criteria" or
// "diagnosisCodes" (comma separated).
func (f *Form) Set(field, value string) error {
	return f.values.set(field, value)
}

func (f *Form) Reset() { f.values = f.initial.clone() }

func (f *Form) Dirty() bool {
	return !reflect.DeepEqual(f.initial, f.values)
}

func (f *Form) Errors() Errors { return Validate(f.values) }

func (f *Form) Submittable() bool {
	return f.Dirty() && len(f.Errors()) == 0
}

// Submit returns the normalized entry, ErrPristine for an untouched form, or
// a *ValidationError.
func (f *Form) Submit() (patient.NewEntry, error) {
	if !f.Dirty() {
		return patient.NewEntry{}, ErrPristine
	}
	if errs := f.Errors(); len(errs) > 0 {
		return patient.NewEntry{}, &ValidationError{Fields: errs}
	}
	return Normalize(f.values.NewEntry()), nil
}
