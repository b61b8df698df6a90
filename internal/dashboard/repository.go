package dashboard

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository runs the individual aggregate queries the dashboard combines.
type Repository interface {
	SalesTotals(ctx context.Context, from, to time.Time) (count int, revenue float64, err error)
	ActiveProductCount(ctx context.Context) (int, error)
	LowStockCount(ctx context.Context) (int, error)
	ActiveCustomerCount(ctx context.Context) (int, error)
	RecentSales(ctx context.Context, limit int) ([]RecentSale, error)
}

// RecentSale is a compact row for the dashboard feed.
type RecentSale struct {
	ID            int64     `json:"id"`
	InvoiceNumber string    `json:"invoice_number"`
	Total         float64   `json:"total"`
	SaleDate      time.Time `json:"sale_date"`
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

func (r *PGRepository) SalesTotals(ctx context.Context, from, to time.Time) (int, float64, error) {
	const q = `
		SELECT COUNT(*), COALESCE(SUM(total), 0)::float8
		FROM sales
		WHERE is_completed = TRUE AND sale_date >= $1 AND sale_date <= $2`

	var count int
	var revenue float64
	err := r.pool.QueryRow(ctx, q, from, to).Scan(&count, &revenue)
	return count, revenue, err
}

func (r *PGRepository) ActiveProductCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE is_active = TRUE`).Scan(&n)
	return n, err
}

func (r *PGRepository) LowStockCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM products WHERE is_active = TRUE AND stock_quantity <= min_stock_level`).Scan(&n)
	return n, err
}

func (r *PGRepository) ActiveCustomerCount(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM customers WHERE is_active = TRUE`).Scan(&n)
	return n, err
}

func (r *PGRepository) RecentSales(ctx context.Context, limit int) ([]RecentSale, error) {
	const q = `
		SELECT id, invoice_number, total::float8, sale_date
		FROM sales
		WHERE is_completed = TRUE
		ORDER BY sale_date DESC, id DESC
		LIMIT $1`

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []RecentSale{}
	for rows.Next() {
		var s RecentSale
		if err := rows.Scan(&s.ID, &s.InvoiceNumber, &s.Total, &s.SaleDate); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
