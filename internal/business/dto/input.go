package dto

type CreateBusinessInput struct {
	Name     string `json:"name" binding:"required,notblank,max=100"`
	Address  string `json:"address" binding:"max=255"`
	Phone    string `json:"phone" binding:"max=32"`
	Currency string `json:"currency" binding:"omitempty,len=3,alpha"`
}

type UpdateBusinessInput struct {
	Name     string `json:"name" binding:"required,notblank,max=100"`
	Address  string `json:"address" binding:"max=255"`
	Phone    string `json:"phone" binding:"max=32"`
	Currency string `json:"currency" binding:"omitempty,len=3,alpha"`
}
