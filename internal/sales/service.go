package sales

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian-pos/internal/inventory"
	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Auditor records who sold and cancelled what.
type Auditor interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

// Recorder feeds the sales counters.
type Recorder interface {
	SaleCreated()
	SaleCancelled()
}

// IdempotencyGuard rejects a replayed checkout key.
type IdempotencyGuard interface {
	CheckAndInsert(ctx context.Context, key, module string) error
	Delete(ctx context.Context, key string) error
}

// ReportInvalidator drops cached report results after a committed sale
// changes the numbers behind them.
type ReportInvalidator interface {
	Invalidate(ctx context.Context) error
}

type Service struct {
	repo        Repository
	audit       Auditor
	metrics     Recorder
	idempotency IdempotencyGuard
	reports     ReportInvalidator
	taxRate     decimal.Decimal
	now         func() time.Time
}

func NewService(repo Repository, audit Auditor, metrics Recorder, idempotency IdempotencyGuard, reports ReportInvalidator, taxRatePercent float64) *Service {
	return &Service{
		repo:        repo,
		audit:       audit,
		metrics:     metrics,
		idempotency: idempotency,
		reports:     reports,
		taxRate:     decimal.NewFromFloat(taxRatePercent),
		now:         time.Now,
	}
}

var hundred = decimal.NewFromInt(100)

type saleLine struct {
	productID int64
	quantity  int
	unitPrice *decimal.Decimal
	pct       decimal.Decimal
}

// CreateSale runs the whole checkout inside one transaction: lock the
// products, verify stock for every line before any write, assign the
// monthly invoice number, persist the sale with its items, decrement
// stock with a movement row per line, and accrue loyalty points.
// Any failure rolls back every write.
//
// A non-empty idemKey makes the call replay-safe: a second submission
// with the same key is rejected before any work happens.
func (s *Service) CreateSale(ctx context.Context, req CreateSaleRequest, userID int64, idemKey string) (Sale, error) {
	if len(req.Items) == 0 {
		return Sale{}, ErrEmptySale
	}
	if idemKey != "" && s.idempotency != nil {
		if err := s.idempotency.CheckAndInsert(ctx, idemKey, "sales"); err != nil {
			return Sale{}, err
		}
	}

	paid, err := parseAmount(req.PaidAmount, "paid_amount")
	if err != nil {
		return Sale{}, err
	}
	discount := decimal.Zero
	if req.Discount != "" {
		if discount, err = parseAmount(req.Discount, "discount"); err != nil {
			return Sale{}, err
		}
	}

	lines := make([]saleLine, 0, len(req.Items))
	for i, item := range req.Items {
		line := saleLine{productID: item.ProductID, quantity: item.Quantity, pct: decimal.Zero}
		if item.Quantity <= 0 {
			return Sale{}, fmt.Errorf("%w: item %d quantity must be positive", httpx.ErrValidation, i)
		}
		if item.UnitPrice != "" {
			p, err := parseAmount(item.UnitPrice, "unit_price")
			if err != nil {
				return Sale{}, err
			}
			line.unitPrice = &p
		}
		if item.DiscountPct != "" {
			pct, err := decimal.NewFromString(item.DiscountPct)
			if err != nil || pct.IsNegative() || pct.GreaterThan(hundred) {
				return Sale{}, fmt.Errorf("%w: item %d discount_pct must be between 0 and 100", httpx.ErrValidation, i)
			}
			line.pct = pct
		}
		lines = append(lines, line)
	}

	now := s.now()
	sale := Sale{
		CustomerID:    req.CustomerID,
		UserID:        userID,
		SaleDate:      now,
		DiscountTotal: discount,
		PaidAmount:    paid,
		PaymentMethod: PaymentMethod(req.PaymentMethod),
		IsCompleted:   true,
		Notes:         req.Notes,
	}

	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		required := map[int64]int{}
		for _, line := range lines {
			required[line.productID] += line.quantity
		}
		ids := make([]int64, 0, len(required))
		for id := range required {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		locked, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}
		products := make(map[int64]LockedProduct, len(locked))
		for _, p := range locked {
			products[p.ID] = p
		}
		for _, id := range ids {
			p, ok := products[id]
			if !ok {
				return fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
			}
			if p.Stock < required[id] {
				return &InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Requested:   required[id],
					Available:   p.Stock,
				}
			}
		}

		subtotal := decimal.Zero
		items := make([]SaleItem, 0, len(lines))
		for _, line := range lines {
			p := products[line.productID]
			unit := p.Price
			if line.unitPrice != nil {
				unit = *line.unitPrice
			}
			gross := unit.Mul(decimal.NewFromInt(int64(line.quantity)))
			lineTotal := gross.Sub(gross.Mul(line.pct).Div(hundred)).Round(2)
			subtotal = subtotal.Add(lineTotal)
			items = append(items, SaleItem{
				ProductID:   line.productID,
				ProductName: p.Name,
				Quantity:    line.quantity,
				UnitPrice:   unit,
				DiscountPct: line.pct,
				LineTotal:   lineTotal,
			})
		}

		sale.Subtotal = subtotal
		sale.TaxAmount = subtotal.Mul(s.taxRate).Div(hundred).Round(2)
		sale.Total = subtotal.Add(sale.TaxAmount).Sub(discount)
		if sale.Total.IsNegative() {
			return fmt.Errorf("%w: discount exceeds sale amount", httpx.ErrBusinessRule)
		}
		if sale.PaymentMethod != PaymentCredit && paid.LessThan(sale.Total) {
			return ErrInsufficientPayment
		}

		seq, err := tx.NextInvoiceSeq(ctx, now)
		if err != nil {
			return err
		}
		sale.InvoiceNumber = formatInvoiceNumber(now, seq)

		saleID, err := tx.InsertSale(ctx, sale)
		if err != nil {
			return err
		}
		sale.ID = saleID

		for i := range items {
			items[i].SaleID = saleID
			id, err := tx.InsertItem(ctx, items[i])
			if err != nil {
				return err
			}
			items[i].ID = id
		}
		sale.Items = items

		for _, id := range ids {
			if err := tx.UpdateStock(ctx, id, products[id].Stock-required[id]); err != nil {
				return err
			}
		}
		for _, item := range items {
			err := tx.InsertMovement(ctx, inventory.StockMovement{
				ProductID: item.ProductID,
				Type:      inventory.MovementTypeSale,
				Quantity:  -item.Quantity,
				Reference: sale.InvoiceNumber,
				CreatedBy: userID,
			})
			if err != nil {
				return err
			}
		}

		if sale.CustomerID != nil {
			points := int(sale.Total.Floor().IntPart())
			if points > 0 {
				if err := tx.AccrueLoyalty(ctx, *sale.CustomerID, points); err != nil {
					return fmt.Errorf("customer %d: %w", *sale.CustomerID, err)
				}
			}
		}
		return nil
	})
	if err != nil {
		// release the key so the caller can resubmit after a failure
		if idemKey != "" && s.idempotency != nil {
			_ = s.idempotency.Delete(ctx, idemKey)
		}
		return Sale{}, err
	}

	if s.metrics != nil {
		s.metrics.SaleCreated()
	}
	if s.reports != nil {
		_ = s.reports.Invalidate(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  userID,
			Action:   "sales:create",
			Entity:   "sale",
			EntityID: strconv.FormatInt(sale.ID, 10),
			Meta:     map[string]any{"invoice": sale.InvoiceNumber, "total": sale.Total.String()},
		})
	}
	return sale, nil
}

// CancelSale restores the sold quantities through Return movements and
// flags the sale. Totals and already accrued loyalty points stay as
// recorded. A sale can only be cancelled once.
func (s *Service) CancelSale(ctx context.Context, saleID, actorID int64, reason string) (Sale, error) {
	var cancelled Sale

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		sale, err := tx.GetSaleForUpdate(ctx, saleID)
		if err != nil {
			return err
		}
		if !sale.IsCompleted {
			return ErrAlreadyCancelled
		}

		items, err := tx.GetItems(ctx, saleID)
		if err != nil {
			return err
		}

		restock := map[int64]int{}
		for _, item := range items {
			restock[item.ProductID] += item.Quantity
		}
		ids := make([]int64, 0, len(restock))
		for id := range restock {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

		locked, err := tx.LockProducts(ctx, ids)
		if err != nil {
			return err
		}
		stock := make(map[int64]int, len(locked))
		for _, p := range locked {
			stock[p.ID] = p.Stock
		}

		for _, id := range ids {
			current, ok := stock[id]
			if !ok {
				return fmt.Errorf("product %d: %w", id, shared.ErrNotFound)
			}
			if err := tx.UpdateStock(ctx, id, current+restock[id]); err != nil {
				return err
			}
		}
		for _, item := range items {
			err := tx.InsertMovement(ctx, inventory.StockMovement{
				ProductID: item.ProductID,
				Type:      inventory.MovementTypeReturn,
				Quantity:  item.Quantity,
				Reference: sale.InvoiceNumber,
				CreatedBy: actorID,
			})
			if err != nil {
				return err
			}
		}

		note := fmt.Sprintf("CANCELLED %s", s.now().Format(time.RFC3339))
		if reason != "" {
			note += ": " + reason
		}
		if sale.Notes != "" {
			note = sale.Notes + "\n" + note
		}
		if err := tx.MarkCancelled(ctx, saleID, note); err != nil {
			return err
		}

		sale.IsCompleted = false
		sale.Notes = note
		sale.Items = items
		cancelled = sale
		return nil
	})
	if err != nil {
		return Sale{}, err
	}

	if s.metrics != nil {
		s.metrics.SaleCancelled()
	}
	if s.reports != nil {
		_ = s.reports.Invalidate(ctx)
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "sales:cancel",
			Entity:   "sale",
			EntityID: strconv.FormatInt(saleID, 10),
			Meta:     map[string]any{"invoice": cancelled.InvoiceNumber, "reason": reason},
		})
	}
	return cancelled, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Sale, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 200 {
		filter.PerPage = 20
	}
	return s.repo.List(ctx, filter)
}

func parseAmount(raw, field string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s is not a valid amount", httpx.ErrValidation, field)
	}
	if d.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s must not be negative", httpx.ErrValidation, field)
	}
	return d, nil
}
