package inventory

import (
	"errors"
	"fmt"
	"time"
)

// MovementType enumerates supported stock movements.
type MovementType string

const (
	// MovementTypePurchase represents goods received from a supplier.
	MovementTypePurchase MovementType = "PURCHASE"
	// MovementTypeSale represents stock sold to a customer.
	MovementTypeSale MovementType = "SALE"
	// MovementTypeReturn represents stock returned after a cancelled sale.
	MovementTypeReturn MovementType = "RETURN"
	// MovementTypeAdjustment indicates a manual correction.
	MovementTypeAdjustment MovementType = "ADJUSTMENT"
	// MovementTypeTransfer is used for transfers between locations.
	MovementTypeTransfer MovementType = "TRANSFER"
	// MovementTypeDamage records written-off stock.
	MovementTypeDamage MovementType = "DAMAGE"
)

// StockMovement is an immutable audit record of a stock change.
// Quantity is signed: positive for inbound, negative for outbound.
type StockMovement struct {
	ID        int64        `json:"id"`
	ProductID int64        `json:"product_id"`
	Type      MovementType `json:"type"`
	Quantity  int          `json:"quantity"`
	Reference string       `json:"reference"`
	CreatedBy int64        `json:"created_by"`
	CreatedAt time.Time    `json:"created_at"`
}

// AdjustmentInput describes a manual stock correction.
type AdjustmentInput struct {
	ProductID int64
	Quantity  int
	Type      MovementType
	Reference string
	ActorID   int64
}

// ReceiveInput describes goods received from a supplier.
type ReceiveInput struct {
	ProductID int64
	Quantity  int
	Reference string
	ActorID   int64
}

// MovementFilter filters the movement listing.
type MovementFilter struct {
	ProductID int64
	Type      MovementType
	From      time.Time
	To        time.Time
	Page      int
	PerPage   int
}

// ProductStock is the locked product view used inside transactions.
type ProductStock struct {
	ID       int64
	Name     string
	Quantity int
}

// InsufficientStockError names the product that blocked an outbound movement.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %q: requested %d, available %d", e.ProductName, e.Requested, e.Available)
}

// ErrInvalidQuantity indicates a zero or wrongly signed quantity.
var ErrInvalidQuantity = errors.New("inventory: invalid quantity")

// ErrInvalidMovementType indicates an unsupported movement type for the operation.
var ErrInvalidMovementType = errors.New("inventory: invalid movement type")
