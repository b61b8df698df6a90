package products

import (
	"errors"
	"time"
)

// Product represents a sellable product.
// StockQuantity is owned by the inventory module; product updates never touch it.
type Product struct {
	ID            int64     `json:"id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	Barcode       string    `json:"barcode"`
	Price         float64   `json:"price"`
	CostPrice     float64   `json:"cost_price"`
	StockQuantity int       `json:"stock_quantity"`
	MinStockLevel int       `json:"min_stock_level"`
	CategoryID    int64     `json:"category_id"`
	SupplierID    int64     `json:"supplier_id"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// ErrSKUTaken indicates a duplicate SKU.
var ErrSKUTaken = errors.New("products: sku already in use")
