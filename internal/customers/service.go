package customers

import (
	"context"
	"fmt"
	"strings"

	"github.com/meridian-pos/meridian-pos/internal/platform/httpx"
	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// AuditPort abstracts audit logging.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

type Service struct {
	repo  Repository
	audit AuditPort
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit}
}

func (s *Service) List(ctx context.Context, search string, isActive *bool, page, perPage int) ([]Customer, int, error) {
	return s.repo.List(ctx, search, isActive, page, perPage)
}

func (s *Service) Get(ctx context.Context, id int64) (Customer, error) {
	if id <= 0 {
		return Customer{}, fmt.Errorf("%w: invalid customer ID", httpx.ErrValidation)
	}
	return s.repo.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, form CustomerForm) (Customer, error) {
	if strings.TrimSpace(form.Name) == "" {
		return Customer{}, fmt.Errorf("%w: customer name is required", httpx.ErrValidation)
	}
	return s.repo.Create(ctx, Customer{
		Name:     strings.TrimSpace(form.Name),
		Email:    strings.TrimSpace(form.Email),
		Phone:    strings.TrimSpace(form.Phone),
		Address:  form.Address,
		IsActive: form.IsActive,
	})
}

func (s *Service) Update(ctx context.Context, id int64, form CustomerForm) (Customer, error) {
	if id <= 0 {
		return Customer{}, fmt.Errorf("%w: invalid customer ID", httpx.ErrValidation)
	}
	if strings.TrimSpace(form.Name) == "" {
		return Customer{}, fmt.Errorf("%w: customer name is required", httpx.ErrValidation)
	}
	err := s.repo.Update(ctx, id, Customer{
		Name:     strings.TrimSpace(form.Name),
		Email:    strings.TrimSpace(form.Email),
		Phone:    strings.TrimSpace(form.Phone),
		Address:  form.Address,
		IsActive: form.IsActive,
	})
	if err != nil {
		return Customer{}, err
	}
	return s.repo.Get(ctx, id)
}

// AdjustPoints applies a manual loyalty adjustment with an audit trail.
func (s *Service) AdjustPoints(ctx context.Context, id int64, req AdjustPointsRequest, actorID int64) (int, error) {
	if id <= 0 {
		return 0, fmt.Errorf("%w: invalid customer ID", httpx.ErrValidation)
	}
	if req.Delta == 0 {
		return 0, fmt.Errorf("%w: points delta must not be zero", httpx.ErrValidation)
	}
	points, err := s.repo.AdjustPoints(ctx, id, req.Delta)
	if err != nil {
		return 0, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "customers:adjust_points",
			Entity:   "customer",
			EntityID: fmt.Sprintf("%d", id),
			Meta:     map[string]any{"delta": req.Delta, "reason": req.Reason, "balance": points},
		})
	}
	return points, nil
}

func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if id <= 0 {
		return fmt.Errorf("%w: invalid customer ID", httpx.ErrValidation)
	}
	return s.repo.Deactivate(ctx, id)
}
