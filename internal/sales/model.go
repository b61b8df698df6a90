package sales

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meridian-pos/meridian-pos/internal/inventory"
)

// PaymentMethod enumerates accepted tender types.
type PaymentMethod string

const (
	PaymentCash     PaymentMethod = "CASH"
	PaymentCard     PaymentMethod = "CARD"
	PaymentTransfer PaymentMethod = "TRANSFER"
	PaymentCredit   PaymentMethod = "CREDIT"
)

// Sale is the immutable sale header. Only cancellation mutates it,
// and that flips IsCompleted and appends to Notes.
type Sale struct {
	ID            int64           `json:"id"`
	InvoiceNumber string          `json:"invoice_number"`
	CustomerID    *int64          `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	UserID        int64           `json:"user_id"`
	CashierName   string          `json:"cashier_name,omitempty"`
	SaleDate      time.Time       `json:"sale_date"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DiscountTotal decimal.Decimal `json:"discount_total"`
	TaxAmount     decimal.Decimal `json:"tax_amount"`
	Total         decimal.Decimal `json:"total"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	IsCompleted   bool            `json:"is_completed"`
	Notes         string          `json:"notes,omitempty"`
	Items         []SaleItem      `json:"items,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// SaleItem snapshots the price at the time of sale.
type SaleItem struct {
	ID          int64           `json:"id"`
	SaleID      int64           `json:"sale_id"`
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	DiscountPct decimal.Decimal `json:"discount_pct"`
	LineTotal   decimal.Decimal `json:"line_total"`
}

var (
	// ErrAlreadyCancelled guards against double cancellation.
	ErrAlreadyCancelled = errors.New("sales: sale already cancelled")
	// ErrInsufficientPayment means paid amount does not cover the total.
	ErrInsufficientPayment = errors.New("sales: paid amount below total")
	// ErrEmptySale means the request carried no line items.
	ErrEmptySale = errors.New("sales: sale requires at least one item")
)

// InsufficientStockError is shared with the inventory ledger so both
// surfaces report the offending product the same way.
type InsufficientStockError = inventory.InsufficientStockError
