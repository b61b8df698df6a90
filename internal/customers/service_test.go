package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

type memRepo struct {
	customers map[int64]Customer
	nextID    int64
}

func newMemRepo() *memRepo {
	return &memRepo{customers: map[int64]Customer{}, nextID: 1}
}

func (r *memRepo) List(_ context.Context, _ string, _ *bool, _, _ int) ([]Customer, int, error) {
	out := []Customer{}
	for _, c := range r.customers {
		out = append(out, c)
	}
	return out, len(out), nil
}

func (r *memRepo) Get(_ context.Context, id int64) (Customer, error) {
	c, ok := r.customers[id]
	if !ok {
		return Customer{}, shared.ErrNotFound
	}
	return c, nil
}

func (r *memRepo) Create(_ context.Context, customer Customer) (Customer, error) {
	customer.ID = r.nextID
	r.nextID++
	r.customers[customer.ID] = customer
	return customer, nil
}

func (r *memRepo) Update(_ context.Context, id int64, customer Customer) error {
	existing, ok := r.customers[id]
	if !ok {
		return shared.ErrNotFound
	}
	customer.ID = id
	customer.LoyaltyPoints = existing.LoyaltyPoints
	r.customers[id] = customer
	return nil
}

func (r *memRepo) AdjustPoints(_ context.Context, id int64, delta int) (int, error) {
	c, ok := r.customers[id]
	if !ok {
		return 0, shared.ErrNotFound
	}
	if c.LoyaltyPoints+delta < 0 {
		return 0, ErrNegativePoints
	}
	c.LoyaltyPoints += delta
	r.customers[id] = c
	return c.LoyaltyPoints, nil
}

func (r *memRepo) Deactivate(_ context.Context, id int64) error {
	c, ok := r.customers[id]
	if !ok {
		return shared.ErrNotFound
	}
	c.IsActive = false
	r.customers[id] = c
	return nil
}

type recordingAudit struct {
	entries []shared.AuditLog
}

func (a *recordingAudit) Record(_ context.Context, log shared.AuditLog) error {
	a.entries = append(a.entries, log)
	return nil
}

func TestCreateTrimsFields(t *testing.T) {
	svc := NewService(newMemRepo(), nil)

	c, err := svc.Create(context.Background(), CustomerForm{
		Name: "  Dana Fox  ", Email: " dana@example.com ", Phone: " 555-0100 ", IsActive: true,
	})
	require.NoError(t, err)
	require.Equal(t, "Dana Fox", c.Name)
	require.Equal(t, "dana@example.com", c.Email)
	require.Equal(t, "555-0100", c.Phone)
}

func TestCreateRequiresName(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	_, err := svc.Create(context.Background(), CustomerForm{Name: "   "})
	require.Error(t, err)
}

func TestAdjustPointsRecordsAudit(t *testing.T) {
	repo := newMemRepo()
	audit := &recordingAudit{}
	svc := NewService(repo, audit)

	c, err := svc.Create(context.Background(), CustomerForm{Name: "Dana", IsActive: true})
	require.NoError(t, err)

	balance, err := svc.AdjustPoints(context.Background(), c.ID, AdjustPointsRequest{Delta: 50, Reason: "goodwill"}, 7)
	require.NoError(t, err)
	require.Equal(t, 50, balance)

	require.Len(t, audit.entries, 1)
	require.Equal(t, "customers:adjust_points", audit.entries[0].Action)
	require.Equal(t, int64(7), audit.entries[0].ActorID)
}

func TestAdjustPointsRejectsNegativeBalance(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	c, err := svc.Create(context.Background(), CustomerForm{Name: "Dana", IsActive: true})
	require.NoError(t, err)

	_, err = svc.AdjustPoints(context.Background(), c.ID, AdjustPointsRequest{Delta: -10, Reason: "typo fix"}, 7)
	require.ErrorIs(t, err, ErrNegativePoints)
}

func TestAdjustPointsRejectsZeroDelta(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	_, err := svc.AdjustPoints(context.Background(), 1, AdjustPointsRequest{Delta: 0, Reason: "noop"}, 7)
	require.Error(t, err)
}

func TestDeactivatePreservesRecord(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo, nil)

	c, err := svc.Create(context.Background(), CustomerForm{Name: "Dana", IsActive: true})
	require.NoError(t, err)
	require.NoError(t, svc.Deactivate(context.Background(), c.ID))

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	require.False(t, got.IsActive)
}
