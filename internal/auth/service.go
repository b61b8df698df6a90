package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Service wraps authentication business rules.
type Service struct {
	repo       Repo
	secret     string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// Repo is the subset of Repository the service depends on.
type Repo interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByID(ctx context.Context, id int64) (*User, error)
	SaveRefreshToken(ctx context.Context, userID int64, tokenHash string, expiresAt time.Time) error
	GetRefreshToken(ctx context.Context, userID int64) (string, time.Time, error)
	ClearRefreshToken(ctx context.Context, userID int64) error
}

// NewService constructs a new Service.
func NewService(repo Repo, secret string, accessTTL, refreshTTL time.Duration) *Service {
	return &Service{repo: repo, secret: secret, accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// Login validates credentials and issues a fresh token pair.
func (s *Service) Login(ctx context.Context, email, password string) (*User, *TokenPair, error) {
	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, shared.ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, shared.ErrInvalidCredentials
	}
	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh validates the refresh token and rotates the pair.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*User, *TokenPair, error) {
	claims, err := ParseAndValidate(s.secret, refreshToken, TokenTypeRefresh)
	if err != nil {
		return nil, nil, shared.ErrInvalidToken
	}
	user, err := s.repo.FindByID(ctx, claims.UserID)
	if err != nil || !user.IsActive {
		return nil, nil, shared.ErrInvalidToken
	}
	storedHash, expiresAt, err := s.repo.GetRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, nil, shared.ErrInvalidToken
	}
	if time.Now().After(expiresAt) || storedHash != hashToken(refreshToken) {
		return nil, nil, shared.ErrInvalidToken
	}
	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Logout revokes the stored refresh token.
func (s *Service) Logout(ctx context.Context, userID int64) error {
	return s.repo.ClearRefreshToken(ctx, userID)
}

// VerifyAccess parses and validates an access token.
func (s *Service) VerifyAccess(tokenString string) (*Claims, error) {
	claims, err := ParseAndValidate(s.secret, tokenString, TokenTypeAccess)
	if err != nil {
		return nil, shared.ErrInvalidToken
	}
	return claims, nil
}

func (s *Service) issuePair(ctx context.Context, user *User) (*TokenPair, error) {
	access, accessExp, err := SignToken(s.secret, user, s.accessTTL, TokenTypeAccess)
	if err != nil {
		return nil, err
	}
	refresh, refreshExp, err := SignToken(s.secret, user, s.refreshTTL, TokenTypeRefresh)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SaveRefreshToken(ctx, user.ID, hashToken(refresh), refreshExp); err != nil {
		return nil, err
	}
	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
