package patient

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("patient not found")

// Repository stores patients with their entry histories. Create and AddEntry
// leave an existing record with the same id untouched.
type Repository interface {
	List(ctx context.Context) ([]*Patient, error)
	Get(ctx context.Context, id string) (*DetailedPatientInfo, error)
	Create(ctx context.Context, p *Patient) error
	AddEntry(ctx context.Context, patientID string, e Entry) error
}
