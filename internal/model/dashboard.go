package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type DashboardSummary struct {
	Range            string            `json:"range"`
	Period           string            `json:"period,omitempty"`
	From             time.Time         `json:"from"`
	To               time.Time         `json:"to"`
	Bucket           string            `json:"bucket"`
	Revenue          decimal.Decimal   `json:"revenue"`
	Cost             decimal.Decimal   `json:"cost"`
	Profit           decimal.Decimal   `json:"profit"`
	Margin           decimal.Decimal   `json:"margin"`
	TransactionCount int               `json:"transaction_count"`
	ItemsSold        int               `json:"items_sold"`
	TopProducts      []TopProduct      `json:"top_products"`
	Series           []DashboardBucket `json:"series"`
	FetchedAt        time.Time         `json:"fetched_at"`
}

type TopProduct struct {
	ProductID   *string         `db:"product_id" json:"product_id"`
	ProductName string          `db:"product_name" json:"product_name"`
	Quantity    int             `db:"quantity" json:"quantity"`
	Revenue     decimal.Decimal `db:"revenue" json:"revenue"`
}

type DashboardBucket struct {
	Start   time.Time       `db:"bucket" json:"start"`
	Revenue decimal.Decimal `db:"revenue" json:"revenue"`
	Cost    decimal.Decimal `db:"cost" json:"cost"`
	Count   int             `db:"count" json:"count"`
}
