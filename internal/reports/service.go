package reports

import (
	"context"
	"strconv"
	"time"
)

type Service struct {
	repo  Repository
	cache *Cache
}

func NewService(repo Repository, cache *Cache) *Service {
	return &Service{repo: repo, cache: cache}
}

const dateLayout = "2006-01-02"

func (s *Service) SalesSummary(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "sales", from.Format(dateLayout), to.Format(dateLayout))
	if err != nil {
		return nil, err
	}
	var out []DailySales
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.repo.SalesSummary(ctx, from, to)
	})
	return out, err
}

func (s *Service) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	if limit < 1 || limit > 100 {
		limit = 10
	}
	key, err := s.cache.BuildKey(ctx, "reports", "top", from.Format(dateLayout), to.Format(dateLayout), strconv.Itoa(limit))
	if err != nil {
		return nil, err
	}
	var out []TopProduct
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.repo.TopProducts(ctx, from, to, limit)
	})
	if err != nil {
		return nil, err
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Service) StockValuation(ctx context.Context) (StockValuation, error) {
	key, err := s.cache.BuildKey(ctx, "reports", "valuation")
	if err != nil {
		return StockValuation{}, err
	}
	var out StockValuation
	err = s.cache.FetchJSON(ctx, key, &out, func(ctx context.Context) (any, error) {
		return s.repo.StockValuation(ctx)
	})
	return out, err
}

// LowStock is never cached: it backs the reorder workflow and must
// reflect the stock written by the last sale.
func (s *Service) LowStock(ctx context.Context) ([]LowStockProduct, error) {
	return s.repo.LowStock(ctx)
}

// Invalidate bumps the cache version after writes that change reports.
func (s *Service) Invalidate(ctx context.Context) error {
	return s.cache.Bump(ctx)
}
