package sales

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/inventory"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

type memRepo struct {
	products  map[int64]LockedProduct
	customers map[int64]int
	sales     map[int64]Sale
	items     map[int64][]SaleItem
	movements []inventory.StockMovement
	lastSeq   map[string]int
	nextID    int64
	failOn    string
}

func newMemRepo() *memRepo {
	return &memRepo{
		products:  map[int64]LockedProduct{},
		customers: map[int64]int{},
		sales:     map[int64]Sale{},
		items:     map[int64][]SaleItem{},
		lastSeq:   map[string]int{},
		nextID:    1,
	}
}

func (r *memRepo) snapshot() *memRepo {
	c := newMemRepo()
	for k, v := range r.products {
		c.products[k] = v
	}
	for k, v := range r.customers {
		c.customers[k] = v
	}
	for k, v := range r.sales {
		c.sales[k] = v
	}
	for k, v := range r.items {
		c.items[k] = append([]SaleItem(nil), v...)
	}
	c.movements = append([]inventory.StockMovement(nil), r.movements...)
	for k, v := range r.lastSeq {
		c.lastSeq[k] = v
	}
	c.nextID = r.nextID
	return c
}

func (r *memRepo) restore(c *memRepo) {
	r.products = c.products
	r.customers = c.customers
	r.sales = c.sales
	r.items = c.items
	r.movements = c.movements
	r.lastSeq = c.lastSeq
	r.nextID = c.nextID
}

func (r *memRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	before := r.snapshot()
	if err := fn(ctx, &memTx{repo: r}); err != nil {
		r.restore(before)
		return err
	}
	return nil
}

func (r *memRepo) GetByID(_ context.Context, id int64) (Sale, error) {
	s, ok := r.sales[id]
	if !ok {
		return Sale{}, shared.ErrNotFound
	}
	s.Items = r.items[id]
	return s, nil
}

func (r *memRepo) List(_ context.Context, _ ListFilter) ([]Sale, int, error) {
	out := []Sale{}
	for _, s := range r.sales {
		out = append(out, s)
	}
	return out, len(out), nil
}

type memTx struct {
	repo *memRepo
}

func (t *memTx) LockProducts(_ context.Context, ids []int64) ([]LockedProduct, error) {
	out := []LockedProduct{}
	for _, id := range ids {
		if p, ok := t.repo.products[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (t *memTx) NextInvoiceSeq(_ context.Context, at time.Time) (int, error) {
	key := at.Format("200601")
	return t.repo.lastSeq[key] + 1, nil
}

func (t *memTx) InsertSale(_ context.Context, s Sale) (int64, error) {
	if t.repo.failOn == "insert_sale" {
		return 0, errors.New("storage offline")
	}
	s.ID = t.repo.nextID
	t.repo.nextID++
	t.repo.sales[s.ID] = s
	parts := strings.Split(s.InvoiceNumber, "-")
	if len(parts) == 3 {
		var seq int
		fmt.Sscanf(parts[2], "%d", &seq)
		if seq > t.repo.lastSeq[parts[1]] {
			t.repo.lastSeq[parts[1]] = seq
		}
	}
	return s.ID, nil
}

func (t *memTx) InsertItem(_ context.Context, item SaleItem) (int64, error) {
	if t.repo.failOn == "insert_item" {
		return 0, errors.New("storage offline")
	}
	item.ID = t.repo.nextID
	t.repo.nextID++
	t.repo.items[item.SaleID] = append(t.repo.items[item.SaleID], item)
	return item.ID, nil
}

func (t *memTx) UpdateStock(_ context.Context, productID int64, quantity int) error {
	if t.repo.failOn == "stock" {
		return errors.New("storage offline")
	}
	p, ok := t.repo.products[productID]
	if !ok {
		return shared.ErrNotFound
	}
	p.Stock = quantity
	t.repo.products[productID] = p
	return nil
}

func (t *memTx) InsertMovement(_ context.Context, m inventory.StockMovement) error {
	if t.repo.failOn == "movement" {
		return errors.New("storage offline")
	}
	t.repo.movements = append(t.repo.movements, m)
	return nil
}

func (t *memTx) AccrueLoyalty(_ context.Context, customerID int64, points int) error {
	if t.repo.failOn == "loyalty" {
		return errors.New("storage offline")
	}
	if _, ok := t.repo.customers[customerID]; !ok {
		return shared.ErrNotFound
	}
	t.repo.customers[customerID] += points
	return nil
}

func (t *memTx) GetSaleForUpdate(_ context.Context, saleID int64) (Sale, error) {
	s, ok := t.repo.sales[saleID]
	if !ok {
		return Sale{}, shared.ErrNotFound
	}
	return s, nil
}

func (t *memTx) GetItems(_ context.Context, saleID int64) ([]SaleItem, error) {
	return append([]SaleItem(nil), t.repo.items[saleID]...), nil
}

func (t *memTx) MarkCancelled(_ context.Context, saleID int64, notes string) error {
	s, ok := t.repo.sales[saleID]
	if !ok {
		return shared.ErrNotFound
	}
	s.IsCompleted = false
	s.Notes = notes
	t.repo.sales[saleID] = s
	return nil
}

func price(s string) decimal.Decimal {
	d, _ := decimal.NewFromString(s)
	return d
}

func seedRepo() *memRepo {
	repo := newMemRepo()
	repo.products[1] = LockedProduct{ID: 1, Name: "Espresso Beans", Price: price("12.50"), Stock: 20}
	repo.products[2] = LockedProduct{ID: 2, Name: "Paper Cups", Price: price("0.30"), Stock: 500}
	repo.customers[9] = 0
	return repo
}

func newTestService(repo *memRepo, taxPercent float64) *Service {
	svc := NewService(repo, nil, nil, nil, nil, taxPercent)
	svc.now = func() time.Time { return time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC) }
	return svc
}

func TestCreateSaleHappyPath(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 10)
	customerID := int64(9)

	sale, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		CustomerID:    &customerID,
		PaymentMethod: "CASH",
		PaidAmount:    "100.00",
		Items: []SaleItemRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 100},
		},
	}, 5, "")
	require.NoError(t, err)

	require.Equal(t, "INV-202608-0001", sale.InvoiceNumber)
	require.True(t, sale.Subtotal.Equal(price("55.00")), "subtotal %s", sale.Subtotal)
	require.True(t, sale.TaxAmount.Equal(price("5.50")), "tax %s", sale.TaxAmount)
	require.True(t, sale.Total.Equal(price("60.50")), "total %s", sale.Total)
	require.True(t, sale.IsCompleted)

	require.Equal(t, 18, repo.products[1].Stock)
	require.Equal(t, 400, repo.products[2].Stock)

	require.Len(t, repo.movements, 2)
	for _, m := range repo.movements {
		require.Equal(t, inventory.MovementTypeSale, m.Type)
		require.Negative(t, m.Quantity)
		require.Equal(t, sale.InvoiceNumber, m.Reference)
		require.Equal(t, int64(5), m.CreatedBy)
	}

	require.Equal(t, 60, repo.customers[9])
}

func TestCreateSaleInsufficientStockWritesNothing(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 0)

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CARD",
		PaidAmount:    "1000",
		Items: []SaleItemRequest{
			{ProductID: 1, Quantity: 2},
			{ProductID: 2, Quantity: 501},
		},
	}, 5, "")

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, "Paper Cups", insufficient.ProductName)
	require.Equal(t, 501, insufficient.Requested)
	require.Equal(t, 500, insufficient.Available)

	require.Equal(t, 20, repo.products[1].Stock)
	require.Equal(t, 500, repo.products[2].Stock)
	require.Empty(t, repo.sales)
	require.Empty(t, repo.movements)
}

func TestCreateSaleAggregatesDuplicateLines(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 0)

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CARD",
		PaidAmount:    "1000",
		Items: []SaleItemRequest{
			{ProductID: 1, Quantity: 15},
			{ProductID: 1, Quantity: 6},
		},
	}, 5, "")

	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 21, insufficient.Requested)
}

func TestCreateSaleRollsBackOnInjectedFailure(t *testing.T) {
	for _, stage := range []string{"insert_sale", "insert_item", "stock", "movement", "loyalty"} {
		t.Run(stage, func(t *testing.T) {
			repo := seedRepo()
			repo.failOn = stage
			svc := newTestService(repo, 10)
			customerID := int64(9)

			_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
				CustomerID:    &customerID,
				PaymentMethod: "CASH",
				PaidAmount:    "100.00",
				Items:         []SaleItemRequest{{ProductID: 1, Quantity: 2}},
			}, 5, "")
			require.Error(t, err)

			require.Equal(t, 20, repo.products[1].Stock)
			require.Empty(t, repo.sales)
			require.Empty(t, repo.movements)
			require.Equal(t, 0, repo.customers[9])
		})
	}
}

func TestCreateSaleTotalsWithDiscounts(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 10)

	sale, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CARD",
		PaidAmount:    "50.00",
		Discount:      "2.00",
		Items: []SaleItemRequest{
			{ProductID: 1, Quantity: 2, DiscountPct: "10"},
		},
	}, 5, "")
	require.NoError(t, err)

	// line: 12.50 * 2 = 25.00, minus 10% = 22.50
	require.True(t, sale.Subtotal.Equal(price("22.50")), "subtotal %s", sale.Subtotal)
	require.True(t, sale.TaxAmount.Equal(price("2.25")), "tax %s", sale.TaxAmount)
	expected := sale.Subtotal.Add(sale.TaxAmount).Sub(sale.DiscountTotal)
	require.True(t, sale.Total.Equal(expected), "total %s", sale.Total)
	require.True(t, sale.Total.Equal(price("22.75")), "total %s", sale.Total)
}

func TestCreateSaleRejectsDiscountExceedingTotal(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 0)

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CARD",
		PaidAmount:    "10.00",
		Discount:      "100.00",
		Items:         []SaleItemRequest{{ProductID: 1, Quantity: 1}},
	}, 5, "")
	require.Error(t, err)
	require.Empty(t, repo.sales)
}

func TestCreateSaleRejectsUnderpayment(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 0)

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CASH",
		PaidAmount:    "10.00",
		Items:         []SaleItemRequest{{ProductID: 1, Quantity: 1}},
	}, 5, "")
	require.ErrorIs(t, err, ErrInsufficientPayment)
	require.Equal(t, 20, repo.products[1].Stock)
}

func TestCreateSaleCreditAllowsDeferredPayment(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 0)

	sale, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CREDIT",
		PaidAmount:    "0",
		Items:         []SaleItemRequest{{ProductID: 1, Quantity: 1}},
	}, 5, "")
	require.NoError(t, err)
	require.Equal(t, PaymentCredit, sale.PaymentMethod)
}

func TestCreateSaleUnknownProduct(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 0)

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CARD",
		PaidAmount:    "100",
		Items:         []SaleItemRequest{{ProductID: 42, Quantity: 1}},
	}, 5, "")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestInvoiceNumbersSequentialWithinMonth(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 0)

	var invoices []string
	for i := 0; i < 3; i++ {
		sale, err := svc.CreateSale(context.Background(), CreateSaleRequest{
			PaymentMethod: "CARD",
			PaidAmount:    "100",
			Items:         []SaleItemRequest{{ProductID: 2, Quantity: 1}},
		}, 5, "")
		require.NoError(t, err)
		invoices = append(invoices, sale.InvoiceNumber)
	}
	require.Equal(t, []string{"INV-202608-0001", "INV-202608-0002", "INV-202608-0003"}, invoices)
}

func TestInvoiceSequenceResetsAcrossMonths(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 0)

	first, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CARD", PaidAmount: "100",
		Items: []SaleItemRequest{{ProductID: 2, Quantity: 1}},
	}, 5, "")
	require.NoError(t, err)
	require.Equal(t, "INV-202608-0001", first.InvoiceNumber)

	svc.now = func() time.Time { return time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC) }
	second, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CARD", PaidAmount: "100",
		Items: []SaleItemRequest{{ProductID: 2, Quantity: 1}},
	}, 5, "")
	require.NoError(t, err)
	require.Equal(t, "INV-202609-0001", second.InvoiceNumber)
}

func TestCancelSaleRestoresStockOnce(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 0)

	sale, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CASH",
		PaidAmount:    "100",
		Items:         []SaleItemRequest{{ProductID: 1, Quantity: 3}},
	}, 5, "")
	require.NoError(t, err)
	require.Equal(t, 17, repo.products[1].Stock)

	cancelled, err := svc.CancelSale(context.Background(), sale.ID, 6, "customer changed mind")
	require.NoError(t, err)
	require.False(t, cancelled.IsCompleted)
	require.Contains(t, cancelled.Notes, "CANCELLED")
	require.Contains(t, cancelled.Notes, "customer changed mind")
	require.Equal(t, 20, repo.products[1].Stock)

	returns := 0
	for _, m := range repo.movements {
		if m.Type == inventory.MovementTypeReturn {
			returns++
			require.Equal(t, 3, m.Quantity)
			require.Equal(t, sale.InvoiceNumber, m.Reference)
			require.Equal(t, int64(6), m.CreatedBy)
		}
	}
	require.Equal(t, 1, returns)

	_, err = svc.CancelSale(context.Background(), sale.ID, 6, "")
	require.ErrorIs(t, err, ErrAlreadyCancelled)
	require.Equal(t, 20, repo.products[1].Stock)
}

func TestCancelUnknownSale(t *testing.T) {
	svc := newTestService(seedRepo(), 0)
	_, err := svc.CancelSale(context.Background(), 404, 1, "")
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreateSaleUnitPriceOverride(t *testing.T) {
	repo := seedRepo()
	svc := newTestService(repo, 0)

	sale, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CARD",
		PaidAmount:    "100",
		Items:         []SaleItemRequest{{ProductID: 1, Quantity: 2, UnitPrice: "10.00"}},
	}, 5, "")
	require.NoError(t, err)
	require.True(t, sale.Subtotal.Equal(price("20.00")), "subtotal %s", sale.Subtotal)
	require.True(t, sale.Items[0].UnitPrice.Equal(price("10.00")))
}

func TestCreateSaleRejectsBadAmounts(t *testing.T) {
	svc := newTestService(seedRepo(), 0)

	_, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CARD",
		PaidAmount:    "not-a-number",
		Items:         []SaleItemRequest{{ProductID: 1, Quantity: 1}},
	}, 5, "")
	require.Error(t, err)

	_, err = svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CARD",
		PaidAmount:    "10",
		Items:         []SaleItemRequest{{ProductID: 1, Quantity: 1, DiscountPct: "120"}},
	}, 5, "")
	require.Error(t, err)

	_, err = svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CARD",
		PaidAmount:    "10",
		Items:         []SaleItemRequest{},
	}, 5, "")
	require.ErrorIs(t, err, ErrEmptySale)
}

type memGuard struct {
	keys    map[string]bool
	deleted []string
}

func (g *memGuard) CheckAndInsert(_ context.Context, key, _ string) error {
	if g.keys[key] {
		return shared.ErrIdempotencyConflict
	}
	g.keys[key] = true
	return nil
}

func (g *memGuard) Delete(_ context.Context, key string) error {
	delete(g.keys, key)
	g.deleted = append(g.deleted, key)
	return nil
}

type countInvalidator struct {
	calls int
}

func (c *countInvalidator) Invalidate(context.Context) error {
	c.calls++
	return nil
}

func TestSaleWritesInvalidateReportCache(t *testing.T) {
	repo := seedRepo()
	inv := &countInvalidator{}
	svc := newTestService(repo, 0)
	svc.reports = inv

	sale, err := svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CASH",
		PaidAmount:    "30.00",
		Items:         []SaleItemRequest{{ProductID: 1, Quantity: 1}},
	}, 5, "")
	require.NoError(t, err)
	require.Equal(t, 1, inv.calls)

	_, err = svc.CancelSale(context.Background(), sale.ID, 5, "")
	require.NoError(t, err)
	require.Equal(t, 2, inv.calls)

	// a rejected sale leaves the cache untouched
	_, err = svc.CreateSale(context.Background(), CreateSaleRequest{
		PaymentMethod: "CASH",
		PaidAmount:    "1000.00",
		Items:         []SaleItemRequest{{ProductID: 1, Quantity: 9999}},
	}, 5, "")
	require.Error(t, err)
	require.Equal(t, 2, inv.calls)
}

func TestCreateSaleIdempotencyKey(t *testing.T) {
	repo := seedRepo()
	guard := &memGuard{keys: map[string]bool{}}
	svc := newTestService(repo, 0)
	svc.idempotency = guard

	req := CreateSaleRequest{
		PaymentMethod: "CASH",
		PaidAmount:    "30.00",
		Items:         []SaleItemRequest{{ProductID: 1, Quantity: 1}},
	}

	first, err := svc.CreateSale(context.Background(), req, 5, "checkout-42")
	require.NoError(t, err)
	require.Len(t, repo.sales, 1)

	_, err = svc.CreateSale(context.Background(), req, 5, "checkout-42")
	require.ErrorIs(t, err, shared.ErrIdempotencyConflict)
	require.Len(t, repo.sales, 1, "replay must not create a second sale")
	require.Equal(t, 19, repo.products[1].Stock)
	require.Equal(t, "INV-202608-0001", first.InvoiceNumber)
}

func TestCreateSaleReleasesKeyOnFailure(t *testing.T) {
	repo := seedRepo()
	repo.failOn = "insert_sale"
	guard := &memGuard{keys: map[string]bool{}}
	svc := newTestService(repo, 0)
	svc.idempotency = guard

	req := CreateSaleRequest{
		PaymentMethod: "CASH",
		PaidAmount:    "30.00",
		Items:         []SaleItemRequest{{ProductID: 1, Quantity: 1}},
	}

	_, err := svc.CreateSale(context.Background(), req, 5, "checkout-43")
	require.Error(t, err)
	require.Equal(t, []string{"checkout-43"}, guard.deleted)

	repo.failOn = ""
	_, err = svc.CreateSale(context.Background(), req, 5, "checkout-43")
	require.NoError(t, err, "key must be reusable after a rolled back attempt")
}
