package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type Transaction struct {
	ID          string            `db:"id" json:"id"`
	BusinessID  string            `db:"business_id" json:"business_id"`
	CreatedBy   string            `db:"created_by" json:"created_by"`
	TotalAmount decimal.Decimal   `db:"total_amount" json:"total_amount"`
	TotalCost   decimal.Decimal   `db:"total_cost" json:"total_cost"`
	ItemCount   int               `db:"item_count" json:"item_count"`
	Note        *string           `db:"note" json:"note"`
	CreatedAt   time.Time         `db:"created_at" json:"created_at"`
	Items       []TransactionItem `db:"-" json:"items,omitempty"`
}

func (t Transaction) GetID() string { return t.ID }

func (t Transaction) Profit() decimal.Decimal { return t.TotalAmount.Sub(t.TotalCost) }

type TransactionItem struct {
	ID            string          `db:"id" json:"id"`
	TransactionID string          `db:"transaction_id" json:"transaction_id"`
	ProductID     *string         `db:"product_id" json:"product_id"`
	ProductName   string          `db:"product_name" json:"product_name"`
	Quantity      int             `db:"quantity" json:"quantity"`
	UnitPrice     decimal.Decimal `db:"unit_price" json:"unit_price"`
	UnitCost      decimal.Decimal `db:"unit_cost" json:"unit_cost"`
	Subtotal      decimal.Decimal `db:"subtotal" json:"subtotal"`
}
