package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/meridian-pos/meridian-pos/internal/shared"
)

// Auditor records who changed stock and why.
type Auditor interface {
	Record(ctx context.Context, entry shared.AuditLog) error
}

type Service struct {
	repo  Repository
	audit Auditor
}

func NewService(repo Repository, audit Auditor) *Service {
	return &Service{repo: repo, audit: audit}
}

// manualTypes are the movement types a user may post directly.
// Sale and Return movements are only written by the sales workflow.
var manualTypes = map[MovementType]bool{
	MovementTypeAdjustment: true,
	MovementTypeTransfer:   true,
	MovementTypeDamage:     true,
}

// Adjust posts a manual stock correction. Quantity is signed and the
// resulting stock level must stay non-negative.
func (s *Service) Adjust(ctx context.Context, in AdjustmentInput) (StockMovement, error) {
	if in.Quantity == 0 {
		return StockMovement{}, ErrInvalidQuantity
	}
	if !manualTypes[in.Type] {
		return StockMovement{}, ErrInvalidMovementType
	}
	if in.Type == MovementTypeDamage && in.Quantity > 0 {
		return StockMovement{}, ErrInvalidQuantity
	}
	return s.post(ctx, in.ProductID, in.Quantity, in.Type, in.Reference, in.ActorID)
}

// ReceivePurchase posts inbound stock from a supplier delivery.
func (s *Service) ReceivePurchase(ctx context.Context, in ReceiveInput) (StockMovement, error) {
	if in.Quantity <= 0 {
		return StockMovement{}, ErrInvalidQuantity
	}
	return s.post(ctx, in.ProductID, in.Quantity, MovementTypePurchase, in.Reference, in.ActorID)
}

func (s *Service) post(ctx context.Context, productID int64, quantity int, mt MovementType, reference string, actorID int64) (StockMovement, error) {
	if reference == "" {
		// manual movements still need a traceable reference
		reference = "MOV-" + uuid.NewString()
	}

	var out StockMovement

	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		product, err := tx.GetProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}

		next := product.Quantity + quantity
		if next < 0 {
			return &InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   -quantity,
				Available:   product.Quantity,
			}
		}

		if err := tx.UpdateStock(ctx, product.ID, next); err != nil {
			return err
		}

		out = StockMovement{
			ProductID: product.ID,
			Type:      mt,
			Quantity:  quantity,
			Reference: reference,
			CreatedBy: actorID,
		}
		id, err := tx.InsertMovement(ctx, out)
		if err != nil {
			return err
		}
		out.ID = id
		return nil
	})
	if err != nil {
		return StockMovement{}, err
	}

	if s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			ActorID:  actorID,
			Action:   "inventory:" + string(mt),
			Entity:   "product",
			EntityID: fmt.Sprintf("%d", productID),
			Meta:     map[string]any{"quantity": quantity, "reference": reference},
		})
	}
	return out, nil
}

// ListMovements returns the movement ledger, newest first.
func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]StockMovement, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 || filter.PerPage > 200 {
		filter.PerPage = 50
	}
	return s.repo.ListMovements(ctx, filter)
}
