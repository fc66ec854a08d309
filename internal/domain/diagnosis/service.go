package diagnosis

import (
	"context"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) ListDiagnoses(ctx context.Context) ([]*Diagnosis, error) {
	return s.repo.List(ctx)
}

func (s *Service) GetDiagnosis(ctx context.Context, code string) (*Diagnosis, error) {
	return s.repo.GetByCode(ctx, code)
}

func (s *Service) AddDiagnosis(ctx context.Context, d *Diagnosis) error {
	d.Code = strings.TrimSpace(d.Code)
	if d.Code == "" || d.Name == "" {
		return fmt.Errorf("code and name are required")
	}
	return s.repo.Upsert(ctx, d)
}
