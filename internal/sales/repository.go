package sales

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian-pos/internal/inventory"
	"github.com/meridian-pos/meridian-pos/internal/platform/db"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// LockedProduct is a product row held FOR UPDATE during checkout.
type LockedProduct struct {
	ID    int64
	Name  string
	Price decimal.Decimal
	Stock int
}

// TxRepository is the per-transaction port the checkout flow composes.
type TxRepository interface {
	LockProducts(ctx context.Context, ids []int64) ([]LockedProduct, error)
	NextInvoiceSeq(ctx context.Context, at time.Time) (int, error)
	InsertSale(ctx context.Context, s Sale) (int64, error)
	InsertItem(ctx context.Context, item SaleItem) (int64, error)
	UpdateStock(ctx context.Context, productID int64, quantity int) error
	InsertMovement(ctx context.Context, m inventory.StockMovement) error
	AccrueLoyalty(ctx context.Context, customerID int64, points int) error
	GetSaleForUpdate(ctx context.Context, saleID int64) (Sale, error)
	GetItems(ctx context.Context, saleID int64) ([]SaleItem, error)
	MarkCancelled(ctx context.Context, saleID int64, notes string) error
}

// Repository is the storage port for sales.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	GetByID(ctx context.Context, id int64) (Sale, error)
	List(ctx context.Context, filter ListFilter) ([]Sale, int, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &pgTxRepository{tx: tx})
	})
}

type pgTxRepository struct {
	tx pgx.Tx
}

// LockProducts acquires row locks in ascending id order so concurrent
// checkouts touching the same products cannot deadlock each other.
func (r *pgTxRepository) LockProducts(ctx context.Context, ids []int64) ([]LockedProduct, error) {
	const q = `
		SELECT id, name, price::text, stock_quantity
		FROM products
		WHERE id = ANY($1) AND is_active = TRUE
		ORDER BY id
		FOR UPDATE`

	rows, err := r.tx.Query(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	products := make([]LockedProduct, 0, len(ids))
	for rows.Next() {
		var p LockedProduct
		var price string
		if err := rows.Scan(&p.ID, &p.Name, &price, &p.Stock); err != nil {
			return nil, err
		}
		if p.Price, err = decimal.NewFromString(price); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// NextInvoiceSeq serialises invoice assignment for the month behind a
// transaction-scoped advisory lock, then reads the highest sequence.
func (r *pgTxRepository) NextInvoiceSeq(ctx context.Context, at time.Time) (int, error) {
	if err := db.AdvisoryLock(ctx, r.tx, invoiceLockKey(at)); err != nil {
		return 0, err
	}

	const q = `
		SELECT COALESCE(MAX(SPLIT_PART(invoice_number, '-', 3)::INT), 0)
		FROM sales
		WHERE invoice_number LIKE $1`

	var last int
	pattern := invoicePrefix + "-" + invoiceMonthKey(at) + "-%"
	if err := r.tx.QueryRow(ctx, q, pattern).Scan(&last); err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (r *pgTxRepository) InsertSale(ctx context.Context, s Sale) (int64, error) {
	const q = `
		INSERT INTO sales (invoice_number, customer_id, user_id, sale_date, subtotal, discount_total, tax_amount, total, paid_amount, payment_method, is_completed, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id`

	var id int64
	err := r.tx.QueryRow(ctx, q,
		s.InvoiceNumber, s.CustomerID, s.UserID, s.SaleDate,
		s.Subtotal.String(), s.DiscountTotal.String(), s.TaxAmount.String(), s.Total.String(), s.PaidAmount.String(),
		s.PaymentMethod, s.IsCompleted, s.Notes).Scan(&id)
	return id, err
}

func (r *pgTxRepository) InsertItem(ctx context.Context, item SaleItem) (int64, error) {
	const q = `
		INSERT INTO sale_items (sale_id, product_id, quantity, unit_price, discount_pct, line_total)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	var id int64
	err := r.tx.QueryRow(ctx, q,
		item.SaleID, item.ProductID, item.Quantity,
		item.UnitPrice.String(), item.DiscountPct.String(), item.LineTotal.String()).Scan(&id)
	return id, err
}

func (r *pgTxRepository) UpdateStock(ctx context.Context, productID int64, quantity int) error {
	const q = `UPDATE products SET stock_quantity = $1, updated_at = NOW() WHERE id = $2`

	tag, err := r.tx.Exec(ctx, q, quantity, productID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgTxRepository) InsertMovement(ctx context.Context, m inventory.StockMovement) error {
	const q = `
		INSERT INTO stock_movements (product_id, movement_type, quantity, reference, created_by)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.tx.Exec(ctx, q, m.ProductID, m.Type, m.Quantity, m.Reference, m.CreatedBy)
	return err
}

func (r *pgTxRepository) AccrueLoyalty(ctx context.Context, customerID int64, points int) error {
	const q = `UPDATE customers SET loyalty_points = loyalty_points + $1, updated_at = NOW() WHERE id = $2 AND is_active = TRUE`

	tag, err := r.tx.Exec(ctx, q, points, customerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

func (r *pgTxRepository) GetSaleForUpdate(ctx context.Context, saleID int64) (Sale, error) {
	const q = saleColumns + ` FROM sales WHERE id = $1 FOR UPDATE`

	s, err := scanSale(r.tx.QueryRow(ctx, q, saleID))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.ErrNotFound
	}
	return s, err
}

func (r *pgTxRepository) GetItems(ctx context.Context, saleID int64) ([]SaleItem, error) {
	return queryItems(ctx, r.tx, saleID)
}

func (r *pgTxRepository) MarkCancelled(ctx context.Context, saleID int64, notes string) error {
	const q = `UPDATE sales SET is_completed = FALSE, notes = $1 WHERE id = $2`

	tag, err := r.tx.Exec(ctx, q, notes, saleID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

const saleColumns = `
	SELECT id, invoice_number, customer_id, user_id, sale_date,
	       subtotal::text, discount_total::text, tax_amount::text, total::text, paid_amount::text,
	       payment_method, is_completed, notes, created_at`

// saleListColumns joins the customer and cashier names for read paths.
// The tx path keeps the plain column set so FOR UPDATE only locks the
// sales row.
const saleListColumns = `
	SELECT s.id, s.invoice_number, s.customer_id, s.user_id, s.sale_date,
	       s.subtotal::text, s.discount_total::text, s.tax_amount::text, s.total::text, s.paid_amount::text,
	       s.payment_method, s.is_completed, s.notes, s.created_at,
	       COALESCE(c.name, ''), u.full_name
	FROM sales s
	LEFT JOIN customers c ON c.id = s.customer_id
	JOIN users u ON u.id = s.user_id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSale(row rowScanner) (Sale, error) {
	var s Sale
	var subtotal, discount, tax, total, paid string
	err := row.Scan(&s.ID, &s.InvoiceNumber, &s.CustomerID, &s.UserID, &s.SaleDate,
		&subtotal, &discount, &tax, &total, &paid,
		&s.PaymentMethod, &s.IsCompleted, &s.Notes, &s.CreatedAt)
	if err != nil {
		return Sale{}, err
	}
	return decodeSaleAmounts(s, subtotal, discount, tax, total, paid)
}

func scanListedSale(row rowScanner) (Sale, error) {
	var s Sale
	var subtotal, discount, tax, total, paid string
	err := row.Scan(&s.ID, &s.InvoiceNumber, &s.CustomerID, &s.UserID, &s.SaleDate,
		&subtotal, &discount, &tax, &total, &paid,
		&s.PaymentMethod, &s.IsCompleted, &s.Notes, &s.CreatedAt,
		&s.CustomerName, &s.CashierName)
	if err != nil {
		return Sale{}, err
	}
	return decodeSaleAmounts(s, subtotal, discount, tax, total, paid)
}

func decodeSaleAmounts(s Sale, subtotal, discount, tax, total, paid string) (Sale, error) {
	var err error
	for _, f := range []struct {
		src string
		dst *decimal.Decimal
	}{
		{subtotal, &s.Subtotal}, {discount, &s.DiscountTotal}, {tax, &s.TaxAmount}, {total, &s.Total}, {paid, &s.PaidAmount},
	} {
		if *f.dst, err = decimal.NewFromString(f.src); err != nil {
			return Sale{}, err
		}
	}
	return s, nil
}

type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

func queryItems(ctx context.Context, q querier, saleID int64) ([]SaleItem, error) {
	const query = `
		SELECT i.id, i.sale_id, i.product_id, p.name, i.quantity, i.unit_price::text, i.discount_pct::text, i.line_total::text
		FROM sale_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.sale_id = $1
		ORDER BY i.id`

	rows, err := q.Query(ctx, query, saleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := []SaleItem{}
	for rows.Next() {
		var it SaleItem
		var unit, pct, line string
		if err := rows.Scan(&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.Quantity, &unit, &pct, &line); err != nil {
			return nil, err
		}
		if it.UnitPrice, err = decimal.NewFromString(unit); err != nil {
			return nil, err
		}
		if it.DiscountPct, err = decimal.NewFromString(pct); err != nil {
			return nil, err
		}
		if it.LineTotal, err = decimal.NewFromString(line); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (r *PGRepository) GetByID(ctx context.Context, id int64) (Sale, error) {
	const q = saleListColumns + ` WHERE s.id = $1`

	s, err := scanListedSale(r.pool.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Sale{}, shared.ErrNotFound
	}
	if err != nil {
		return Sale{}, err
	}
	if s.Items, err = queryItems(ctx, r.pool, id); err != nil {
		return Sale{}, err
	}
	return s, nil
}

func (r *PGRepository) List(ctx context.Context, filter ListFilter) ([]Sale, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	argCount := 1

	if filter.CustomerID > 0 {
		where += " AND s.customer_id = $" + strconv.Itoa(argCount)
		args = append(args, filter.CustomerID)
		argCount++
	}
	if filter.UserID > 0 {
		where += " AND s.user_id = $" + strconv.Itoa(argCount)
		args = append(args, filter.UserID)
		argCount++
	}
	if !filter.From.IsZero() {
		where += " AND s.sale_date >= $" + strconv.Itoa(argCount)
		args = append(args, filter.From)
		argCount++
	}
	if !filter.To.IsZero() {
		where += " AND s.sale_date <= $" + strconv.Itoa(argCount)
		args = append(args, filter.To)
		argCount++
	}
	if filter.Completed != nil {
		where += " AND s.is_completed = $" + strconv.Itoa(argCount)
		args = append(args, *filter.Completed)
		argCount++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM sales s"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := saleListColumns + where + " ORDER BY s.sale_date DESC, s.id DESC" +
		" LIMIT $" + strconv.Itoa(argCount) + " OFFSET $" + strconv.Itoa(argCount+1)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]Sale, 0, filter.PerPage)
	for rows.Next() {
		s, err := scanListedSale(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, s)
	}
	return list, total, rows.Err()
}
