package inventory

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/platform/db"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// TxRepository exposes the per-transaction operations the service composes.
type TxRepository interface {
	GetProductForUpdate(ctx context.Context, productID int64) (ProductStock, error)
	UpdateStock(ctx context.Context, productID int64, quantity int) error
	InsertMovement(ctx context.Context, m StockMovement) (int64, error)
}

// Repository is the storage port for stock movements.
type Repository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error
	ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, int, error)
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

func (r *pgTxRepository) GetProductForUpdate(ctx context.Context, productID int64) (ProductStock, error) {
	const q = `SELECT id, name, stock_quantity FROM products WHERE id = $1 AND is_active = TRUE FOR UPDATE`

	var p ProductStock
	err := r.tx.QueryRow(ctx, q, productID).Scan(&p.ID, &p.Name, &p.Quantity)
	if errors.Is(err, pgx.ErrNoRows) {
		return ProductStock{}, shared.ErrNotFound
	}
	if err != nil {
		return ProductStock{}, err
	}
	return p, nil
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

func (r *pgTxRepository) InsertMovement(ctx context.Context, m StockMovement) (int64, error) {
	const q = `
		INSERT INTO stock_movements (product_id, movement_type, quantity, reference, created_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`

	var id int64
	err := r.tx.QueryRow(ctx, q, m.ProductID, m.Type, m.Quantity, m.Reference, m.CreatedBy).Scan(&id)
	return id, err
}

func (r *PGRepository) ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, int, error) {
	where := " WHERE 1=1"
	args := []any{}
	argCount := 1

	if filter.ProductID > 0 {
		where += " AND product_id = $" + strconv.Itoa(argCount)
		args = append(args, filter.ProductID)
		argCount++
	}
	if filter.Type != "" {
		where += " AND movement_type = $" + strconv.Itoa(argCount)
		args = append(args, filter.Type)
		argCount++
	}
	if !filter.From.IsZero() {
		where += " AND created_at >= $" + strconv.Itoa(argCount)
		args = append(args, filter.From)
		argCount++
	}
	if !filter.To.IsZero() {
		where += " AND created_at <= $" + strconv.Itoa(argCount)
		args = append(args, filter.To)
		argCount++
	}

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM stock_movements"+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := "SELECT id, product_id, movement_type, quantity, reference, created_by, created_at FROM stock_movements" +
		where + " ORDER BY created_at DESC, id DESC" +
		" LIMIT $" + strconv.Itoa(argCount) + " OFFSET $" + strconv.Itoa(argCount+1)
	args = append(args, filter.PerPage, (filter.Page-1)*filter.PerPage)

	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	movements := make([]StockMovement, 0, filter.PerPage)
	for rows.Next() {
		var m StockMovement
		if err := rows.Scan(&m.ID, &m.ProductID, &m.Type, &m.Quantity, &m.Reference, &m.CreatedBy, &m.CreatedAt); err != nil {
			return nil, 0, err
		}
		movements = append(movements, m)
	}
	return movements, total, rows.Err()
}
