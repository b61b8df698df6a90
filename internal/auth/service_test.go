package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

type memRepo struct {
	users     map[int64]*User
	tokenHash map[int64]string
	tokenExp  map[int64]time.Time
}

func newMemRepo() *memRepo {
	return &memRepo{users: map[int64]*User{}, tokenHash: map[int64]string{}, tokenExp: map[int64]time.Time{}}
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (*User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, shared.ErrNotFound
}

func (r *memRepo) FindByID(_ context.Context, id int64) (*User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return u, nil
}

func (r *memRepo) SaveRefreshToken(_ context.Context, userID int64, tokenHash string, expiresAt time.Time) error {
	r.tokenHash[userID] = tokenHash
	r.tokenExp[userID] = expiresAt
	return nil
}

func (r *memRepo) GetRefreshToken(_ context.Context, userID int64) (string, time.Time, error) {
	h, ok := r.tokenHash[userID]
	if !ok {
		return "", time.Time{}, shared.ErrNotFound
	}
	return h, r.tokenExp[userID], nil
}

func (r *memRepo) ClearRefreshToken(_ context.Context, userID int64) error {
	delete(r.tokenHash, userID)
	delete(r.tokenExp, userID)
	return nil
}

const testSecret = "test-secret-please-rotate"

func seedUser(t *testing.T, repo *memRepo, password string, active bool) *User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &User{
		ID:           1,
		Email:        "cashier@example.com",
		FullName:     "Avery Till",
		PasswordHash: string(hash),
		Role:         RoleCashier,
		IsActive:     active,
	}
	repo.users[u.ID] = u
	return u
}

func newService(repo *memRepo) *Service {
	return NewService(repo, testSecret, 15*time.Minute, 24*time.Hour)
}

func TestLoginIssuesTokenPair(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "hunter2", true)
	svc := newService(repo)

	user, pair, err := svc.Login(context.Background(), "cashier@example.com", "hunter2")
	require.NoError(t, err)
	require.Equal(t, int64(1), user.ID)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.NotEqual(t, pair.AccessToken, pair.RefreshToken)
	require.NotEmpty(t, repo.tokenHash[1], "refresh token hash must be stored")

	claims, err := svc.VerifyAccess(pair.AccessToken)
	require.NoError(t, err)
	require.Equal(t, int64(1), claims.UserID)
	require.Equal(t, RoleCashier, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "hunter2", true)
	svc := newService(repo)

	_, _, err := svc.Login(context.Background(), "cashier@example.com", "wrong")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	svc := newService(newMemRepo())
	_, _, err := svc.Login(context.Background(), "ghost@example.com", "hunter2")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestLoginInactiveUser(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "hunter2", false)
	svc := newService(repo)

	_, _, err := svc.Login(context.Background(), "cashier@example.com", "hunter2")
	require.ErrorIs(t, err, shared.ErrInvalidCredentials)
}

func TestRefreshRotatesToken(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "hunter2", true)
	svc := newService(repo)

	_, pair, err := svc.Login(context.Background(), "cashier@example.com", "hunter2")
	require.NoError(t, err)
	firstHash := repo.tokenHash[1]

	_, next, err := svc.Refresh(context.Background(), pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, next.RefreshToken)
	require.NotEqual(t, firstHash, repo.tokenHash[1], "refresh must rotate the stored hash")

	// the old refresh token no longer matches the stored hash
	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestRefreshRejectsAccessToken(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "hunter2", true)
	svc := newService(repo)

	_, pair, err := svc.Login(context.Background(), "cashier@example.com", "hunter2")
	require.NoError(t, err)

	_, _, err = svc.Refresh(context.Background(), pair.AccessToken)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestVerifyAccessRejectsRefreshToken(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "hunter2", true)
	svc := newService(repo)

	_, pair, err := svc.Login(context.Background(), "cashier@example.com", "hunter2")
	require.NoError(t, err)

	_, err = svc.VerifyAccess(pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestVerifyAccessRejectsWrongSecret(t *testing.T) {
	repo := newMemRepo()
	user := seedUser(t, repo, "hunter2", true)

	forged, _, err := SignToken("other-secret", user, time.Minute, TokenTypeAccess)
	require.NoError(t, err)

	svc := newService(repo)
	_, err = svc.VerifyAccess(forged)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}

func TestLogoutClearsRefreshToken(t *testing.T) {
	repo := newMemRepo()
	seedUser(t, repo, "hunter2", true)
	svc := newService(repo)

	_, pair, err := svc.Login(context.Background(), "cashier@example.com", "hunter2")
	require.NoError(t, err)
	require.NoError(t, svc.Logout(context.Background(), 1))

	_, _, err = svc.Refresh(context.Background(), pair.RefreshToken)
	require.ErrorIs(t, err, shared.ErrInvalidToken)
}
