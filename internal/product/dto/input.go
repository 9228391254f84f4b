package dto

import (
	"io"

	"github.com/shopspring/decimal"
)

type CreateProductInput struct {
	Name              string          `form:"name" json:"name" binding:"required,notblank,max=120"`
	Description       string          `form:"description" json:"description" binding:"max=1000"`
	Price             decimal.Decimal `form:"price" json:"price" binding:"required,gte=0.01"`
	CostPrice         decimal.Decimal `form:"cost_price" json:"cost_price" binding:"gte=0"`
	Quantity          int             `form:"quantity" json:"quantity" binding:"gte=0"`
	LowStockThreshold *int            `form:"low_stock_threshold" json:"low_stock_threshold" binding:"omitempty,gte=0"`
}

type UpdateProductInput struct {
	ID                string          `form:"-" json:"-"`
	Name              string          `form:"name" json:"name" binding:"required,notblank,max=120"`
	Description       string          `form:"description" json:"description" binding:"max=1000"`
	Price             decimal.Decimal `form:"price" json:"price" binding:"required,gte=0.01"`
	CostPrice         decimal.Decimal `form:"cost_price" json:"cost_price" binding:"gte=0"`
	Quantity          int             `form:"quantity" json:"quantity" binding:"gte=0"`
	LowStockThreshold *int            `form:"low_stock_threshold" json:"low_stock_threshold" binding:"omitempty,gte=0"`
	RemoveImage       bool            `form:"remove_image" json:"remove_image"`
}

// ImageUpload is an optional product image from a multipart form.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}
