package sales

import "time"

// CreateSaleRequest is the checkout payload. Unit prices and discounts
// are decimal strings so no float rounding sneaks in at the edge.
type CreateSaleRequest struct {
	CustomerID    *int64            `json:"customer_id" validate:"omitempty,gt=0"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=CASH CARD TRANSFER CREDIT"`
	PaidAmount    string            `json:"paid_amount" validate:"required"`
	Discount      string            `json:"discount" validate:"omitempty"`
	Notes         string            `json:"notes" validate:"max=500"`
	Items         []SaleItemRequest `json:"items" validate:"required,min=1,dive"`
}

type SaleItemRequest struct {
	ProductID   int64  `json:"product_id" validate:"required,gt=0"`
	Quantity    int    `json:"quantity" validate:"required,gt=0"`
	UnitPrice   string `json:"unit_price" validate:"omitempty"`
	DiscountPct string `json:"discount_pct" validate:"omitempty"`
}

// ListFilter narrows the sale listing.
type ListFilter struct {
	CustomerID int64
	UserID     int64
	From       time.Time
	To         time.Time
	Completed  *bool
	Page       int
	PerPage    int
}
