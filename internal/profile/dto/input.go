package dto

type UpdateProfileInput struct {
	FullName string `json:"full_name" binding:"required,min=1,max=120"`
}
