package dto

type CreateInviteInput struct {
	Email string `json:"email" binding:"required,email,max=320"`
}
