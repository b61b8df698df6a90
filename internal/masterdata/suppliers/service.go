package suppliers

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-pos/meridian-pos/internal/masterdata/shared"
	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Supplier, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, fmt.Errorf("%w: invalid supplier ID", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form SupplierForm) (Supplier, error) {
	if strings.TrimSpace(form.Name) == "" {
		return Supplier{}, fmt.Errorf("%w: supplier name is required", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, fromForm(form))
}

func (s *Service) Update(ctx context.Context, id int64, form SupplierForm) (Supplier, error) {
	if id <= 0 {
		return Supplier{}, fmt.Errorf("%w: invalid supplier ID", httpx.ErrValidation)
	}
	if strings.TrimSpace(form.Name) == "" {
		return Supplier{}, fmt.Errorf("%w: supplier name is required", httpx.ErrValidation)
	}
	if err := s.repo.Update(ctx, id, fromForm(form)); err != nil {
		return Supplier{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid supplier ID", httpx.ErrValidation)
	}
	return s.repo.Deactivate(ctx, id)
}

func fromForm(form SupplierForm) Supplier {
	return Supplier{
		Name:          strings.TrimSpace(form.Name),
		ContactPerson: strings.TrimSpace(form.ContactPerson),
		Email:         strings.TrimSpace(form.Email),
		Phone:         strings.TrimSpace(form.Phone),
		Address:       form.Address,
		IsActive:      form.IsActive,
	}
}
