package diagnosis

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("diagnosis not found")

type Repository interface {
	List(ctx context.Context) ([]*Diagnosis, error)
	GetByCode(ctx context.Context, code string) (*Diagnosis, error)
	Upsert(ctx context.Context, d *Diagnosis) error
}
