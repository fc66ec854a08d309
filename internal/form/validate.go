package form

import (
	"errors"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// RequiredMessage is reported for every violated rule.
const RequiredMessage = "Field is required"

// Errors maps a top-level form field to its message. A field without a key
// is valid.
type Errors map[string]string

// ValidationError is returned when a form is submitted with violations.
type ValidationError struct {
	Fields Errors
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate classifies the values of d. It never fails: a nil draft reports
// the entry type as missing.
func Validate(d Draft) Errors {
	errs := Errors{}
	if d == nil || reflect.ValueOf(d).IsNil() {
		errs["type"] = RequiredMessage
		return errs
	}

	var fieldErrs validator.ValidationErrors
	if err := validate.Struct(d); errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			errs[fieldKey(fe.Namespace())] = RequiredMessage
		}
	}
	return errs
}

// fieldKey maps a validator namespace such as
// "HospitalDraft.discharge.criteria" to the form key "discharge". Nested
// records report under their parent key.
func fieldKey(namespace string) string {
	segs := strings.Split(namespace, ".")
	if len(segs) > 0 {
		segs = segs[1:]
	}
	for _, s := range segs {
		if s == "BaseDraft" {
			continue
		}
		return s
	}
	return namespace
}
