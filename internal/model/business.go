package model

type Business struct {
	BaseModel
	Name     string  `db:"name" json:"name"`
	OwnerID  string  `db:"owner_id" json:"owner_id"`
	Address  *string `db:"address" json:"address"`
	Phone    *string `db:"phone" json:"phone"`
	Currency string  `db:"currency" json:"currency"`
}
