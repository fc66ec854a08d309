package patient

import (
	"encoding/json"
	"errors"
	"fmt"
)

func (e HealthCheckEntry) MarshalJSON() ([]byte, error) {
	type plain HealthCheckEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{TypeHealthCheck, plain(e)})
}

func (e HospitalEntry) MarshalJSON() ([]byte, error) {
	type plain HospitalEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{TypeHospital, plain(e)})
}

func (e OccupationalHealthcareEntry) MarshalJSON() ([]byte, error) {
	type plain OccupationalHealthcareEntry
	return json.Marshal(struct {
		Type EntryType `json:"type"`
		plain
	}{TypeOccupationalHealthcare, plain(e)})
}

// DecodeEntry decodes one entry, choosing the variant from its "type" field.
func DecodeEntry(data []byte) (Entry, error) {
	var head struct {
		Type EntryType `json:"type"`
	}
	if err := json.Unmarshal(data, &head); err != nil {
		return nil, fmt.Errorf("decode entry: %w", err)
	}

	switch head.Type {
	case TypeHealthCheck:
		var e HealthCheckEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", head.Type, err)
		}
		return e, nil
	case TypeHospital:
		var e HospitalEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", head.Type, err)
		}
		return e, nil
	case TypeOccupationalHealthcare:
		var e OccupationalHealthcareEntry
		if err := json.Unmarshal(data, &e); err != nil {
			return nil, fmt.Errorf("decode %s entry: %w", head.Type, err)
		}
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownEntryType, head.Type)
}

// Entries is an ordered entry history that decodes each element by its tag.
type Entries []Entry

func (es Entries) MarshalJSON() ([]byte, error) {
	if es == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]Entry(es))
}

func (es *Entries) UnmarshalJSON(data []byte) error {
	var raws []json.RawMessage
	if err := json.Unmarshal(data, &raws); err != nil {
		return fmt.Errorf("decode entries: %w", err)
	}
	out := make(Entries, 0, len(raws))
	for i, raw := range raws {
		e, err := DecodeEntry(raw)
		if err != nil {
			return fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, e)
	}
	*es = out
	return nil
}

// NewEntry is an entry awaiting a server-assigned id. It never carries an id
// on the wire.
type NewEntry struct {
	Entry Entry
}

func (n NewEntry) Type() EntryType {
	if n.Entry == nil {
		return ""
	}
	return n.Entry.EntryType()
}

func (n NewEntry) MarshalJSON() ([]byte, error) {
	if n.Entry == nil {
		return nil, errors.New("marshal new entry: no entry")
	}
	return json.Marshal(WithID(n.Entry, ""))
}

func (n *NewEntry) UnmarshalJSON(data []byte) error {
	e, err := DecodeEntry(data)
	if err != nil {
		return err
	}
	n.Entry = WithID(e, "")
	return nil
}
