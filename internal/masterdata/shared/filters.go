package shared

// ListFilters carries common listing parameters for master data.
type ListFilters struct {
	Page       int
	Limit      int
	Search     string
	SortBy     string
	SortDir    string
	CategoryID *int64
	SupplierID *int64
	IsActive   *bool
}

// Normalize clamps paging values to sane defaults.
func (f *ListFilters) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 200 {
		f.Limit = 200
	}
}
