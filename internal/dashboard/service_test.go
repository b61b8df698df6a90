package dashboard

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type stubRepo struct {
	totalsCalls int32
	block       chan struct{}
}

func (s *stubRepo) SalesTotals(_ context.Context, from, _ time.Time) (int, float64, error) {
	atomic.AddInt32(&s.totalsCalls, 1)
	if s.block != nil {
		<-s.block
	}
	if from.Day() == 1 && from.Hour() == 0 {
		return 40, 9000, nil
	}
	return 3, 120.50, nil
}

func (s *stubRepo) ActiveProductCount(context.Context) (int, error)  { return 25, nil }
func (s *stubRepo) LowStockCount(context.Context) (int, error)       { return 4, nil }
func (s *stubRepo) ActiveCustomerCount(context.Context) (int, error) { return 12, nil }

func (s *stubRepo) RecentSales(_ context.Context, limit int) ([]RecentSale, error) {
	return []RecentSale{{ID: 1, InvoiceNumber: "INV-202608-0007", Total: 42}}, nil
}

func newTestService(t *testing.T, repo Repository) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	svc := NewService(repo, client, time.Minute)
	svc.now = func() time.Time { return time.Date(2026, 8, 15, 14, 0, 0, 0, time.UTC) }
	return svc
}

func TestStatsAggregates(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, stats.TodaySaleCount)
	require.Equal(t, 120.50, stats.TodayRevenue)
	require.Equal(t, 40, stats.MonthSaleCount)
	require.Equal(t, 9000.0, stats.MonthRevenue)
	require.Equal(t, 25, stats.ActiveProducts)
	require.Equal(t, 4, stats.LowStockCount)
	require.Equal(t, 12, stats.ActiveCustomers)
	require.Len(t, stats.RecentSales, 1)
	require.False(t, stats.GeneratedAt.IsZero())
}

func TestStatsServedFromCache(t *testing.T) {
	repo := &stubRepo{}
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Stats(ctx)
	require.NoError(t, err)
	calls := atomic.LoadInt32(&repo.totalsCalls)

	_, err = svc.Stats(ctx)
	require.NoError(t, err)
	require.Equal(t, calls, atomic.LoadInt32(&repo.totalsCalls), "second read must hit the cache")
}

func TestStatsWithoutRedis(t *testing.T) {
	svc := NewService(&stubRepo{}, nil, time.Minute)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 25, stats.ActiveProducts)
}

func TestConcurrentMissesShareOneRebuild(t *testing.T) {
	repo := &stubRepo{block: make(chan struct{})}
	svc := NewService(repo, nil, time.Minute)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.Stats(context.Background())
			require.NoError(t, err)
		}()
	}

	// let the goroutines pile onto the singleflight key, then release
	time.Sleep(50 * time.Millisecond)
	close(repo.block)
	wg.Wait()

	// two SalesTotals calls (today + month) for the single shared rebuild
	require.Equal(t, int32(2), atomic.LoadInt32(&repo.totalsCalls))
}
