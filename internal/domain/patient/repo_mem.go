package patient

import (
	"context"
	"sync"
)

type memRepo struct {
	mu      sync.RWMutex
	order   []string
	records map[string]*DetailedPatientInfo
}

// NewMemoryRepo returns a Repository held in process memory.
func NewMemoryRepo() Repository {
	return &memRepo{records: make(map[string]*DetailedPatientInfo)}
}

func (r *memRepo) List(_ context.Context) ([]*Patient, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Patient, 0, len(r.order))
	for _, id := range r.order {
		p := r.records[id].Patient
		result = append(result, &p)
	}
	return result, nil
}

func (r *memRepo) Get(_ context.Context, id string) (*DetailedPatientInfo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	cp.Entries = append(Entries{}, d.Entries...)
	return &cp, nil
}

func (r *memRepo) Create(_ context.Context, p *Patient) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[p.ID]; ok {
		return nil
	}
	r.order = append(r.order, p.ID)
	r.records[p.ID] = &DetailedPatientInfo{Patient: *p, Entries: Entries{}}
	return nil
}

func (r *memRepo) AddEntry(_ context.Context, patientID string, e Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	d, ok := r.records[patientID]
	if !ok {
		return ErrNotFound
	}
	id := e.Base().ID
	for _, existing := range d.Entries {
		if id != "" && existing.Base().ID == id {
			return nil
		}
	}
	updated := d.WithEntry(e)
	r.records[patientID] = &updated
	return nil
}
