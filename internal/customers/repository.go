package customers

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

type Repository interface {
	List(ctx context.Context, search string, isActive *bool, page, perPage int) ([]Customer, int, error)
	Get(ctx context.Context, id int64) (Customer, error)
	Create(ctx context.Context, customer Customer) (Customer, error)
	Update(ctx context.Context, id int64, customer Customer) error
	AdjustPoints(ctx context.Context, id int64, delta int) (int, error)
	Deactivate(ctx context.Context, id int64) error
}

type repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Repository {
	return &repository{db: db}
}

const columns = `id, name, email, phone, address, loyalty_points, credit_balance, is_active, created_at, updated_at`

func scanCustomer(row pgx.Row) (Customer, error) {
	var c Customer
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.LoyaltyPoints, &c.CreditBalance, &c.IsActive, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Customer{}, shared.ErrNotFound
	}
	return c, err
}

func (r *repository) List(ctx context.Context, search string, isActive *bool, page, perPage int) ([]Customer, int, error) {
	query := `SELECT ` + columns + ` FROM customers WHERE 1=1`
	countQuery := `SELECT COUNT(*) FROM customers WHERE 1=1`
	args := []interface{}{}
	argCount := 0

	if search != "" {
		argCount++
		cond := ` AND (name ILIKE $` + strconv.Itoa(argCount) + ` OR email ILIKE $` + strconv.Itoa(argCount) + ` OR phone ILIKE $` + strconv.Itoa(argCount) + `)`
		query += cond
		countQuery += cond
		args = append(args, "%"+search+"%")
	}
	if isActive != nil {
		argCount++
		cond := ` AND is_active = $` + strconv.Itoa(argCount)
		query += cond
		countQuery += cond
		args = append(args, *isActive)
	}

	var total int
	if err := r.db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	pagination := shared.NewPagination(page, perPage, total)
	argCount++
	query += ` ORDER BY name ASC LIMIT $` + strconv.Itoa(argCount)
	args = append(args, pagination.PerPage)
	argCount++
	query += ` OFFSET $` + strconv.Itoa(argCount)
	args = append(args, pagination.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var result []Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, 0, err
		}
		result = append(result, c)
	}
	return result, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Customer, error) {
	return scanCustomer(r.db.QueryRow(ctx, `SELECT `+columns+` FROM customers WHERE id = $1`, id))
}

func (r *repository) Create(ctx context.Context, customer Customer) (Customer, error) {
	err := r.db.QueryRow(ctx,
		`INSERT INTO customers (name, email, phone, address, loyalty_points, credit_balance, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, 0, 0, $5, NOW(), NOW()) RETURNING id, created_at, updated_at`,
		customer.Name, customer.Email, customer.Phone, customer.Address, customer.IsActive).
		Scan(&customer.ID, &customer.CreatedAt, &customer.UpdatedAt)
	if err != nil {
		return Customer{}, err
	}
	return customer, nil
}

func (r *repository) Update(ctx context.Context, id int64, customer Customer) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE customers SET name = $1, email = $2, phone = $3, address = $4, is_active = $5, updated_at = NOW() WHERE id = $6`,
		customer.Name, customer.Email, customer.Phone, customer.Address, customer.IsActive, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// AdjustPoints applies the delta atomically and returns the new balance.
// The WHERE clause enforces the non-negative invariant.
func (r *repository) AdjustPoints(ctx context.Context, id int64, delta int) (int, error) {
	var points int
	err := r.db.QueryRow(ctx,
		`UPDATE customers SET loyalty_points = loyalty_points + $1, updated_at = NOW()
		 WHERE id = $2 AND loyalty_points + $1 >= 0
		 RETURNING loyalty_points`, delta, id).Scan(&points)
	if errors.Is(err, pgx.ErrNoRows) {
		if _, getErr := r.Get(ctx, id); getErr != nil {
			return 0, getErr
		}
		return 0, ErrNegativePoints
	}
	return points, err
}

func (r *repository) Deactivate(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `UPDATE customers SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrNotFound
	}
	return nil
}
