package categories

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

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Category, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Category, error) {
	if id <= 0 {
		return Category{}, fmt.Errorf("%w: invalid category ID", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form CategoryForm) (Category, error) {
	if strings.TrimSpace(form.Name) == "" {
		return Category{}, fmt.Errorf("%w: category name is required", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, Category{
		Name:        strings.TrimSpace(form.Name),
		Description: form.Description,
		IsActive:    form.IsActive,
	})
}

func (s *Service) Update(ctx context.Context, id int64, form CategoryForm) (Category, error) {
	if id <= 0 {
		return Category{}, fmt.Errorf("%w: invalid category ID", httpx.ErrValidation)
	}
	if strings.TrimSpace(form.Name) == "" {
		return Category{}, fmt.Errorf("%w: category name is required", httpx.ErrValidation)
	}
	err := s.repo.Update(ctx, id, Category{
		Name:        strings.TrimSpace(form.Name),
		Description: form.Description,
		IsActive:    form.IsActive,
	})
	if err != nil {
		return Category{}, err
	}
	return s.repo.Get(ctx, id)
}

// Deactivate soft-deletes the category; products keep their reference.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid category ID", httpx.ErrValidation)
	}
	return s.repo.Deactivate(ctx, id)
}
