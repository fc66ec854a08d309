package diagnosis

// Diagnosis is one row of the diagnosis reference table, keyed by Code.
type Diagnosis struct {
	Code  string  `db:"code" json:"code"`
	Name  string  `db:"name" json:"name"`
	Latin *string `db:"latin" json:"latin,omitempty"`
}

// Index builds a lookup map keyed by code. Later duplicates do not replace
// earlier ones.
func Index(list []*Diagnosis) map[string]Diagnosis {
	out := make(map[string]Diagnosis, len(list))
	for _, d := range list {
		if d == nil {
			continue
		}
		if _, ok := out[d.Code]; ok {
			continue
		}
		out[d.Code] = *d
	}
	return out
}
