package reports

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	summaryCalls   int
	valuationCalls int
	summary        []DailySales
	top            []TopProduct
	valuation      StockValuation
	low            []LowStockProduct
}

func (s *stubRepo) SalesSummary(context.Context, time.Time, time.Time) ([]DailySales, error) {
	s.summaryCalls++
	return s.summary, nil
}

func (s *stubRepo) TopProducts(_ context.Context, _ time.Time, _ time.Time, limit int) ([]TopProduct, error) {
	if len(s.top) > limit {
		return s.top[:limit], nil
	}
	return s.top, nil
}

func (s *stubRepo) StockValuation(context.Context) (StockValuation, error) {
	s.valuationCalls++
	return s.valuation, nil
}

func (s *stubRepo) LowStock(context.Context) ([]LowStockProduct, error) {
	return s.low, nil
}

func newRedisCache(t *testing.T) *Cache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestSalesSummaryCachedUntilBump(t *testing.T) {
	repo := &stubRepo{summary: []DailySales{{Day: "2026-08-01", SaleCount: 3, ItemsSold: 7, Revenue: 90.5}}}
	svc := NewService(repo, newRedisCache(t))
	ctx := context.Background()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	first, err := svc.SalesSummary(ctx, from, to)
	require.NoError(t, err)
	require.Len(t, first, 1)
	require.Equal(t, 1, repo.summaryCalls)

	second, err := svc.SalesSummary(ctx, from, to)
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, repo.summaryCalls, "second read must come from cache")

	require.NoError(t, svc.Invalidate(ctx))

	_, err = svc.SalesSummary(ctx, from, to)
	require.NoError(t, err)
	require.Equal(t, 2, repo.summaryCalls, "bump must force a reload")
}

func TestSalesSummaryWithoutCache(t *testing.T) {
	repo := &stubRepo{summary: []DailySales{{Day: "2026-08-01"}}}
	svc := NewService(repo, nil)

	out, err := svc.SalesSummary(context.Background(), time.Now().AddDate(0, 0, -7), time.Now())
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestTopProductsLimitClamped(t *testing.T) {
	repo := &stubRepo{}
	for i := 0; i < 30; i++ {
		repo.top = append(repo.top, TopProduct{ProductID: int64(i + 1)})
	}
	svc := NewService(repo, nil)

	out, err := svc.TopProducts(context.Background(), time.Now().AddDate(0, 0, -7), time.Now(), 0)
	require.NoError(t, err)
	require.Len(t, out, 10)

	out, err = svc.TopProducts(context.Background(), time.Now().AddDate(0, 0, -7), time.Now(), 5)
	require.NoError(t, err)
	require.Len(t, out, 5)
}

func TestTopProductsCachePerLimit(t *testing.T) {
	repo := &stubRepo{}
	for i := 0; i < 20; i++ {
		repo.top = append(repo.top, TopProduct{ProductID: int64(i + 1)})
	}
	svc := NewService(repo, newRedisCache(t))
	ctx := context.Background()
	from := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 7)

	small, err := svc.TopProducts(ctx, from, to, 5)
	require.NoError(t, err)
	require.Len(t, small, 5)

	// a wider request must not replay the cached truncated result
	large, err := svc.TopProducts(ctx, from, to, 15)
	require.NoError(t, err)
	require.Len(t, large, 15)

	again, err := svc.TopProducts(ctx, from, to, 5)
	require.NoError(t, err)
	require.Len(t, again, 5)
}

func TestLowStockBypassesCache(t *testing.T) {
	repo := &stubRepo{low: []LowStockProduct{{ProductID: 1, Name: "Beans", StockQuantity: 1, MinStockLevel: 5}}}
	svc := NewService(repo, newRedisCache(t))

	out, err := svc.LowStock(context.Background())
	require.NoError(t, err)
	require.Len(t, out, 1)
}

func TestStockValuationCached(t *testing.T) {
	repo := &stubRepo{valuation: StockValuation{ProductCount: 4, UnitsOnHand: 100, CostValue: 250, RetailValue: 400}}
	svc := NewService(repo, newRedisCache(t))
	ctx := context.Background()

	v, err := svc.StockValuation(ctx)
	require.NoError(t, err)
	require.Equal(t, 4, v.ProductCount)

	_, err = svc.StockValuation(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, repo.valuationCalls)
}
