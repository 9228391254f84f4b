package dto

type ProductFilters struct {
	BusinessID  string `json:"-"`
	SearchQuery string `form:"search"`
	LowStock    bool   `form:"low_stock"`
	SortBy      string `form:"sort_by"`    // name, price, quantity, created_at
	SortOrder   string `form:"sort_order"` // asc, desc
	Page        int    `form:"-"`
	PageSize    int    `form:"-"`
}

// IsPlainList is true when the filters ask for the default listing, which
// is served from the product list cache.
func (f *ProductFilters) IsPlainList() bool {
	return f.SearchQuery == "" && !f.LowStock && (f.SortBy == "" || f.SortBy == "created_at") && f.SortOrder != "asc"
}
