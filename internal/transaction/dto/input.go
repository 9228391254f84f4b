package dto

type ItemInput struct {
	ProductID string `json:"product_id" binding:"required"`
	Quantity  int    `json:"quantity" binding:"required,gte=1"`
}

type CreateTransactionInput struct {
	Items          []ItemInput `json:"items" binding:"required,min=1,dive"`
	Note           string      `json:"note" binding:"max=500"`
	IdempotencyKey string      `json:"-"`
}
