package auth

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Repository defines persistence operations for the auth module.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	SaveRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, userID int64) (string, time.Time, error)
	ClearRefreshToken(ctx context.Context, userID int64) error
}

// PGRepository implements Repository using PostgreSQL.
type PGRepository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) *PGRepository {
	return &PGRepository{pool: pool}
}

const userColumns = `id, email, full_name, password_hash, role, is_active, created_at, updated_at`

// FindByEmail fetches a user by email.
func (r *PGRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

// FindByID fetches a user by id.
func (r *PGRepository) FindByID(ctx context.Context, id int64) (*User, error) {
	return r.scanUser(r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (r *PGRepository) scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// SaveRefreshToken stores the hashed refresh token on the user row.
func (r *PGRepository) SaveRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET refresh_token_hash = $1, refresh_token_expires_at = $2, updated_at = NOW() WHERE id = $3`, tokenHash, expiresAt.UTC(), userID)
	return err
}

// GetRefreshToken returns the stored refresh token hash and its expiry.
func (r *PGRepository) GetRefreshToken(ctx context.Context, userID int64) (string, time.Time, error) {
	var hash *string
	var expiresAt *time.Time
	err := r.pool.QueryRow(ctx, `SELECT refresh_token_hash, refresh_token_expires_at FROM users WHERE id = $1`, userID).Scan(&hash, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", time.Time{}, shared.ErrNotFound
		}
		return "", time.Time{}, err
	}
	if hash == nil || expiresAt == nil {
		return "", time.Time{}, shared.ErrInvalidToken
	}
	return *hash, *expiresAt, nil
}

// ClearRefreshToken removes the stored refresh token, ending the session.
func (r *PGRepository) ClearRefreshToken(ctx context.Context, userID int64) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET refresh_token_hash = NULL, refresh_token_expires_at = NULL, updated_at = NOW() WHERE id = $1`, userID)
	return err
}

var _ Repository = (*PGRepository)(nil)
