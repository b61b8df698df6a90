package reports

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DailySales is one row of the sales summary report.
type DailySales struct {
	Day       string  `json:"day"`
	SaleCount int     `json:"sale_count"`
	ItemsSold int     `json:"items_sold"`
	Revenue   float64 `json:"revenue"`
}

// TopProduct aggregates sold quantity and revenue per product.
type TopProduct struct {
	ProductID int64   `json:"product_id"`
	Name      string  `json:"name"`
	SKU       string  `json:"sku"`
	Quantity  int     `json:"quantity"`
	Revenue   float64 `json:"revenue"`
}

// StockValuation totals the warehouse value at cost and at retail.
type StockValuation struct {
	ProductCount int     `json:"product_count"`
	UnitsOnHand  int     `json:"units_on_hand"`
	CostValue    float64 `json:"cost_value"`
	RetailValue  float64 `json:"retail_value"`
}

// LowStockProduct is a product at or below its reorder threshold.
type LowStockProduct struct {
	ProductID     int64  `json:"product_id"`
	Name          string `json:"name"`
	SKU           string `json:"sku"`
	StockQuantity int    `json:"stock_quantity"`
	MinStockLevel int    `json:"min_stock_level"`
}

// Repository runs the read-only aggregate queries behind the reports.
type Repository interface {
	SalesSummary(ctx context.Context, from, to time.Time) ([]DailySales, error)
	TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error)
	StockValuation(ctx context.Context) (StockValuation, error)
	LowStock(ctx context.Context) ([]LowStockProduct, error)
}

type PGRepository struct {
	pool *pgxpool.Pool
}

func NewPGRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

// SalesSummary only counts completed sales so cancelled ones drop out
// of revenue the moment they are cancelled.
func (r *PGRepository) SalesSummary(ctx context.Context, from, to time.Time) ([]DailySales, error) {
	const q = `
		SELECT TO_CHAR(s.sale_date::date, 'YYYY-MM-DD') AS day,
		       COUNT(DISTINCT s.id),
		       COALESCE(SUM(i.quantity), 0),
		       COALESCE(SUM(i.line_total), 0)::float8
		FROM sales s
		JOIN sale_items i ON i.sale_id = s.id
		WHERE s.is_completed = TRUE AND s.sale_date >= $1 AND s.sale_date <= $2
		GROUP BY day
		ORDER BY day`

	rows, err := r.pool.Query(ctx, q, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []DailySales{}
	for rows.Next() {
		var d DailySales
		if err := rows.Scan(&d.Day, &d.SaleCount, &d.ItemsSold, &d.Revenue); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *PGRepository) TopProducts(ctx context.Context, from, to time.Time, limit int) ([]TopProduct, error) {
	const q = `
		SELECT p.id, p.name, p.sku,
		       COALESCE(SUM(i.quantity), 0),
		       COALESCE(SUM(i.line_total), 0)::float8
		FROM sale_items i
		JOIN sales s ON s.id = i.sale_id
		JOIN products p ON p.id = i.product_id
		WHERE s.is_completed = TRUE AND s.sale_date >= $1 AND s.sale_date <= $2
		GROUP BY p.id, p.name, p.sku
		ORDER BY SUM(i.quantity) DESC, p.id
		LIMIT $3`

	rows, err := r.pool.Query(ctx, q, from, to, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []TopProduct{}
	for rows.Next() {
		var t TopProduct
		if err := rows.Scan(&t.ProductID, &t.Name, &t.SKU, &t.Quantity, &t.Revenue); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *PGRepository) StockValuation(ctx context.Context) (StockValuation, error) {
	const q = `
		SELECT COUNT(*),
		       COALESCE(SUM(stock_quantity), 0),
		       COALESCE(SUM(cost_price * stock_quantity), 0)::float8,
		       COALESCE(SUM(price * stock_quantity), 0)::float8
		FROM products
		WHERE is_active = TRUE`

	var v StockValuation
	err := r.pool.QueryRow(ctx, q).Scan(&v.ProductCount, &v.UnitsOnHand, &v.CostValue, &v.RetailValue)
	return v, err
}

func (r *PGRepository) LowStock(ctx context.Context) ([]LowStockProduct, error) {
	const q = `
		SELECT id, name, sku, stock_quantity, min_stock_level
		FROM products
		WHERE is_active = TRUE AND stock_quantity <= min_stock_level
		ORDER BY stock_quantity ASC, id`

	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []LowStockProduct{}
	for rows.Next() {
		var p LowStockProduct
		if err := rows.Scan(&p.ProductID, &p.Name, &p.SKU, &p.StockQuantity, &p.MinStockLevel); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
