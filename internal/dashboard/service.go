package dashboard

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const cacheKey = "dashboard:stats"

// Stats is the aggregate snapshot the dashboard renders from.
type Stats struct {
	TodaySaleCount  int          `json:"today_sale_count"`
	TodayRevenue    float64      `json:"today_revenue"`
	MonthSaleCount  int          `json:"month_sale_count"`
	MonthRevenue    float64      `json:"month_revenue"`
	ActiveProducts  int          `json:"active_products"`
	LowStockCount   int          `json:"low_stock_count"`
	ActiveCustomers int          `json:"active_customers"`
	RecentSales     []RecentSale `json:"recent_sales"`
	GeneratedAt     time.Time    `json:"generated_at"`
}

type Service struct {
	repo  Repository
	redis *redis.Client
	ttl   time.Duration
	group singleflight.Group
	now   func() time.Time
}

func NewService(repo Repository, client *redis.Client, ttl time.Duration) *Service {
	return &Service{repo: repo, redis: client, ttl: ttl, now: time.Now}
}

// Stats returns the cached snapshot, rebuilding it at most once at a
// time. Concurrent misses share the same rebuild via singleflight.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	if s.redis != nil {
		payload, err := s.redis.Get(ctx, cacheKey).Bytes()
		if err == nil {
			var cached Stats
			if err := json.Unmarshal(payload, &cached); err == nil {
				return cached, nil
			}
		} else if err != redis.Nil {
			return Stats{}, err
		}
	}

	ch := s.group.DoChan(cacheKey, func() (any, error) {
		return s.rebuild(ctx)
	})
	select {
	case <-ctx.Done():
		return Stats{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return Stats{}, res.Err
		}
		return res.Val.(Stats), nil
	}
}

// Refresh rebuilds the snapshot unconditionally. The warmup job calls
// this so the first request after a quiet period stays fast.
func (s *Service) Refresh(ctx context.Context) (Stats, error) {
	return s.rebuild(ctx)
}

func (s *Service) rebuild(ctx context.Context) (Stats, error) {
	now := s.now()
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	var stats Stats
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		var err error
		stats.TodaySaleCount, stats.TodayRevenue, err = s.repo.SalesTotals(gctx, dayStart, now)
		return err
	})
	g.Go(func() error {
		var err error
		stats.MonthSaleCount, stats.MonthRevenue, err = s.repo.SalesTotals(gctx, monthStart, now)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ActiveProducts, err = s.repo.ActiveProductCount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.LowStockCount, err = s.repo.LowStockCount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.ActiveCustomers, err = s.repo.ActiveCustomerCount(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		stats.RecentSales, err = s.repo.RecentSales(gctx, 5)
		return err
	})

	if err := g.Wait(); err != nil {
		return Stats{}, err
	}
	stats.GeneratedAt = now

	if s.redis != nil {
		if raw, err := json.Marshal(stats); err == nil {
			_ = s.redis.Set(ctx, cacheKey, raw, s.ttl).Err()
		}
	}
	return stats, nil
}
