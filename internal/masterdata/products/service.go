package products

import (
	"context"
	"fmt"

	"github.com/meridian-pos/meridian-pos/internal/masterdata/shared"
	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) List(ctx context.Context, filters shared.ListFilters) ([]Product, int, error) {
	return s.repo.List(ctx, filters)
}

func (s *Service) Get(ctx context.Context, id int64) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product ID", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

// GetByBarcode resolves an active product from a scanned barcode.
func (s *Service) GetByBarcode(ctx context.Context, barcode string) (Product, error) {
	if barcode == "" {
		return Product{}, fmt.Errorf("%w: barcode is required", httpx.ErrValidation)
	}
	return s.repo.GetByBarcode(ctx, barcode)
}

// ListLowStock lists active products at or below their minimum stock level.
func (s *Service) ListLowStock(ctx context.Context) ([]Product, error) {
	return s.repo.ListLowStock(ctx)
}

func (s *Service) Create(ctx context.Context, form ProductForm) (Product, error) {
	product := fromForm(form)
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	return s.repo.Create(ctx, product)
}

func (s *Service) Update(ctx context.Context, id int64, form ProductForm) (Product, error) {
	if id <= 0 {
		return Product{}, fmt.Errorf("%w: invalid product ID", httpx.ErrValidation)
	}
	product := fromForm(form)
	if err := s.validate(product); err != nil {
		return Product{}, err
	}
	if err := s.repo.Update(ctx, id, product); err != nil {
		return Product{}, err
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid product ID", httpx.ErrValidation)
	}
	return s.repo.Deactivate(ctx, id)
}

func fromForm(form ProductForm) Product {
	return Product{
		Name:          form.Name,
		SKU:           form.SKU,
		Barcode:       form.Barcode,
		Price:         form.Price,
		CostPrice:     form.CostPrice,
		MinStockLevel: form.MinStockLevel,
		CategoryID:    form.CategoryID,
		SupplierID:    form.SupplierID,
		IsActive:      form.IsActive,
	}
}
