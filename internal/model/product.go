package model

import "github.com/shopspring/decimal"

type Product struct {
	BaseModel
	BusinessID        string          `db:"business_id" json:"business_id"`
	Name              string          `db:"name" json:"name"`
	Description       *string         `db:"description" json:"description"`
	Price             decimal.Decimal `db:"price" json:"price"`
	CostPrice         decimal.Decimal `db:"cost_price" json:"cost_price"`
	Quantity          int             `db:"quantity" json:"quantity"`
	LowStockThreshold int             `db:"low_stock_threshold" json:"low_stock_threshold"`
	ImageURL          *string         `db:"image_url" json:"image_url"`
	ImagePath         *string         `db:"image_path" json:"-"`
	CreatedBy         *string         `db:"created_by" json:"created_by"`
}

func (p *Product) IsLowStock() bool { return p.Quantity <= p.LowStockThreshold }
