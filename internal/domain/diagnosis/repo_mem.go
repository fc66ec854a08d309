package diagnosis

import (
	"context"
	"sync"
)

// memRepo keeps diagnoses in insertion order. It backs the server when no
// DATABASE_URL is configured.
type memRepo struct {
	mu    sync.RWMutex
	order []string
	byKey map[string]*Diagnosis
}

func NewMemoryRepo() Repository {
	return &memRepo{byKey: make(map[string]*Diagnosis)}
}

func (r *memRepo) List(_ context.Context) ([]*Diagnosis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	result := make([]*Diagnosis, 0, len(r.order))
	for _, code := range r.order {
		d := *r.byKey[code]
		result = append(result, &d)
	}
	return result, nil
}

func (r *memRepo) GetByCode(_ context.Context, code string) (*Diagnosis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.byKey[code]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *memRepo) Upsert(_ context.Context, d *Diagnosis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byKey[d.Code]; !ok {
		r.order = append(r.order, d.Code)
	}
	cp := *d
	r.byKey[d.Code] = &cp
	return nil
}
