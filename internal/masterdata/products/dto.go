package products

// ProductForm is the create/update payload. Stock quantity is absent on
// purpose; stock changes only flow through inventory movements.
type ProductForm struct {
	Name          string  `json:"name" validate:"required,max=200"`
	SKU           string  `json:"sku" validate:"required,max=64"`
	Barcode       string  `json:"barcode" validate:"max=64"`
	Price         float64 `json:"price" validate:"gte=0"`
	CostPrice     float64 `json:"cost_price" validate:"gte=0"`
	MinStockLevel int     `json:"min_stock_level" validate:"gte=0"`
	CategoryID    int64   `json:"category_id" validate:"required,gt=0"`
	SupplierID    int64   `json:"supplier_id" validate:"required,gt=0"`
	IsActive      bool    `json:"is_active"`
}
