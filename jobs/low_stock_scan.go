package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-pos/meridian-pos/internal/reports"
)

// LowStockScanJob logs every product at or below its reorder threshold
// so operators see replenishment candidates without opening the app.
type LowStockScanJob struct {
	Reports *reports.Service
	Logger  *slog.Logger
}

func NewLowStockScanJob(reportsSvc *reports.Service, logger *slog.Logger) *LowStockScanJob {
	return &LowStockScanJob{Reports: reportsSvc, Logger: logger}
}

// Handle processes low stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reports == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
	}

	products, err := j.Reports.LowStock(ctx)
	if err != nil {
		return err
	}
	if payload.Limit > 0 && len(products) > payload.Limit {
		products = products[:payload.Limit]
	}

	logger := j.logger()
	for _, p := range products {
		logger.Warn("product below reorder threshold",
			slog.Int64("product_id", p.ProductID),
			slog.String("sku", p.SKU),
			slog.Int("stock", p.StockQuantity),
			slog.Int("min_level", p.MinStockLevel))
	}
	logger.Info("low stock scan finished", slog.Int("flagged", len(products)))
	return nil
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger
	}
	return slog.Default()
}
