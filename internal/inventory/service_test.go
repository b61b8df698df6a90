package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

type memRepo struct {
	products  map[int64]ProductStock
	movements []StockMovement
	nextID    int64
	failAfter string
}

func newMemRepo() *memRepo {
	return &memRepo{products: map[int64]ProductStock{}, nextID: 1}
}

func (r *memRepo) WithTx(ctx context.Context, fn func(ctx context.Context, tx TxRepository) error) error {
	snapshot := make(map[int64]ProductStock, len(r.products))
	for k, v := range r.products {
		snapshot[k] = v
	}
	moves := len(r.movements)

	if err := fn(ctx, &memTx{repo: r}); err != nil {
		r.products = snapshot
		r.movements = r.movements[:moves]
		return err
	}
	return nil
}

func (r *memRepo) ListMovements(_ context.Context, filter MovementFilter) ([]StockMovement, int, error) {
	out := []StockMovement{}
	for _, m := range r.movements {
		if filter.ProductID > 0 && m.ProductID != filter.ProductID {
			continue
		}
		if filter.Type != "" && m.Type != filter.Type {
			continue
		}
		out = append(out, m)
	}
	return out, len(out), nil
}

type memTx struct {
	repo *memRepo
}

func (t *memTx) GetProductForUpdate(_ context.Context, productID int64) (ProductStock, error) {
	p, ok := t.repo.products[productID]
	if !ok {
		return ProductStock{}, shared.ErrNotFound
	}
	return p, nil
}

func (t *memTx) UpdateStock(_ context.Context, productID int64, quantity int) error {
	if t.repo.failAfter == "update" {
		return errors.New("storage offline")
	}
	p := t.repo.products[productID]
	p.Quantity = quantity
	t.repo.products[productID] = p
	return nil
}

func (t *memTx) InsertMovement(_ context.Context, m StockMovement) (int64, error) {
	if t.repo.failAfter == "insert" {
		return 0, errors.New("storage offline")
	}
	m.ID = t.repo.nextID
	t.repo.nextID++
	t.repo.movements = append(t.repo.movements, m)
	return m.ID, nil
}

func TestAdjustIncreasesStock(t *testing.T) {
	repo := newMemRepo()
	repo.products[1] = ProductStock{ID: 1, Name: "Espresso Beans", Quantity: 10}
	svc := NewService(repo, nil)

	m, err := svc.Adjust(context.Background(), AdjustmentInput{
		ProductID: 1, Quantity: 5, Type: MovementTypeAdjustment, Reference: "stocktake", ActorID: 7,
	})
	require.NoError(t, err)
	require.Equal(t, 5, m.Quantity)
	require.Equal(t, 15, repo.products[1].Quantity)
	require.Len(t, repo.movements, 1)
	require.Equal(t, int64(7), repo.movements[0].CreatedBy)
}

func TestAdjustRejectsNegativeResult(t *testing.T) {
	repo := newMemRepo()
	repo.products[1] = ProductStock{ID: 1, Name: "Espresso Beans", Quantity: 3}
	svc := NewService(repo, nil)

	_, err := svc.Adjust(context.Background(), AdjustmentInput{
		ProductID: 1, Quantity: -4, Type: MovementTypeAdjustment, ActorID: 7,
	})
	var insufficient *InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	require.Equal(t, 3, insufficient.Available)
	require.Equal(t, 3, repo.products[1].Quantity)
	require.Empty(t, repo.movements)
}

func TestAdjustRejectsZeroQuantity(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	_, err := svc.Adjust(context.Background(), AdjustmentInput{ProductID: 1, Quantity: 0, Type: MovementTypeAdjustment})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestAdjustRejectsRestrictedTypes(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	for _, mt := range []MovementType{MovementTypeSale, MovementTypeReturn, MovementTypePurchase, "BOGUS"} {
		_, err := svc.Adjust(context.Background(), AdjustmentInput{ProductID: 1, Quantity: 1, Type: mt})
		require.ErrorIs(t, err, ErrInvalidMovementType, "type %s", mt)
	}
}

func TestDamageMustBeOutbound(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	_, err := svc.Adjust(context.Background(), AdjustmentInput{ProductID: 1, Quantity: 2, Type: MovementTypeDamage})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestReceivePurchase(t *testing.T) {
	repo := newMemRepo()
	repo.products[2] = ProductStock{ID: 2, Name: "Filters", Quantity: 0}
	svc := NewService(repo, nil)

	m, err := svc.ReceivePurchase(context.Background(), ReceiveInput{ProductID: 2, Quantity: 40, Reference: "PO-1009", ActorID: 3})
	require.NoError(t, err)
	require.Equal(t, MovementTypePurchase, m.Type)
	require.Equal(t, 40, repo.products[2].Quantity)
}

func TestEmptyReferenceGetsGenerated(t *testing.T) {
	repo := newMemRepo()
	repo.products[1] = ProductStock{ID: 1, Name: "Filters", Quantity: 0}
	svc := NewService(repo, nil)

	m, err := svc.ReceivePurchase(context.Background(), ReceiveInput{ProductID: 1, Quantity: 1})
	require.NoError(t, err)
	require.NotEmpty(t, m.Reference)
	require.True(t, strings.HasPrefix(m.Reference, "MOV-"))
}

func TestReceivePurchaseRejectsNonPositive(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	_, err := svc.ReceivePurchase(context.Background(), ReceiveInput{ProductID: 2, Quantity: -1})
	require.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestPostRollsBackOnMovementFailure(t *testing.T) {
	repo := newMemRepo()
	repo.products[1] = ProductStock{ID: 1, Name: "Espresso Beans", Quantity: 10}
	repo.failAfter = "insert"
	svc := NewService(repo, nil)

	_, err := svc.ReceivePurchase(context.Background(), ReceiveInput{ProductID: 1, Quantity: 5})
	require.Error(t, err)
	require.Equal(t, 10, repo.products[1].Quantity)
	require.Empty(t, repo.movements)
}

func TestAdjustUnknownProduct(t *testing.T) {
	svc := NewService(newMemRepo(), nil)
	_, err := svc.Adjust(context.Background(), AdjustmentInput{ProductID: 99, Quantity: 1, Type: MovementTypeTransfer})
	require.ErrorIs(t, err, shared.ErrNotFound)
}
