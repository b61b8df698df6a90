package users

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Service coordinates user account management.
type Service struct {
	repo Repository
}

// NewService builds the Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns accounts matching the search term.
func (s *Service) List(ctx context.Context, search string, page, perPage int) ([]User, int, error) {
	return s.repo.List(ctx, search, page, perPage)
}

// Get returns an account by id.
func (s *Service) Get(ctx context.Context, id int64) (User, error) {
	if id <= 0 {
		return User{}, errors.New("invalid user ID")
	}
	return s.repo.Get(ctx, id)
}

// Create registers a new account with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, req CreateUserRequest) (User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" {
		return User{}, errors.New("email is required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	user := User{
		Email:    email,
		FullName: strings.TrimSpace(req.FullName),
		Role:     req.Role,
		IsActive: true,
	}
	return s.repo.Create(ctx, user, string(hash))
}

// Update applies partial changes to an account.
func (s *Service) Update(ctx context.Context, id int64, req UpdateUserRequest) (User, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return User{}, err
	}
	if req.FullName != nil {
		existing.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		existing.Role = *req.Role
	}
	if req.IsActive != nil {
		existing.IsActive = *req.IsActive
	}
	if err := s.repo.Update(ctx, id, existing); err != nil {
		return User{}, err
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return User{}, err
		}
		if err := s.repo.UpdatePassword(ctx, id, string(hash)); err != nil {
			return User{}, err
		}
	}
	return s.repo.Get(ctx, id)
}

// Deactivate soft-deletes an account and revokes its sessions.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return errors.New("invalid user ID")
	}
	return s.repo.Deactivate(ctx, id)
}
