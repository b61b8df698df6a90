package jobs

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian-pos/internal/dashboard"
)

// DashboardWarmupJob rebuilds the cached dashboard snapshot so the
// first request after a quiet stretch does not pay for six queries.
type DashboardWarmupJob struct {
	Dashboard *dashboard.Service
	Logger    *slog.Logger
}

func NewDashboardWarmupJob(dashboardSvc *dashboard.Service, logger *slog.Logger) *DashboardWarmupJob {
	return &DashboardWarmupJob{Dashboard: dashboardSvc, Logger: logger}
}

// Handle processes dashboard warmup tasks.
func (j *DashboardWarmupJob) Handle(ctx context.Context, _ *asynq.Task) error {
	if j == nil || j.Dashboard == nil {
		return errors.New("dashboard warmup: handler not configured")
	}

	start := time.Now()
	stats, err := j.Dashboard.Refresh(ctx)
	if err != nil {
		return err
	}

	logger := j.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("dashboard cache warmed",
		slog.Duration("took", time.Since(start)),
		slog.Int("recent_sales", len(stats.RecentSales)))
	return nil
}
