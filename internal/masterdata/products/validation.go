package products

import (
	"fmt"
	"strings"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
)

func (s *Service) validate(p Product) error {
	if strings.TrimSpace(p.SKU) == "" {
		return fmt.Errorf("%w: product sku is required", httpx.ErrValidation)
	}
	if strings.TrimSpace(p.Name) == "" {
		return fmt.Errorf("%w: product name is required", httpx.ErrValidation)
	}
	if p.Price < 0 || p.CostPrice < 0 {
		return fmt.Errorf("%w: product prices must not be negative", httpx.ErrValidation)
	}
	if p.MinStockLevel < 0 {
		return fmt.Errorf("%w: minimum stock level must not be negative", httpx.ErrValidation)
	}
	return nil
}
