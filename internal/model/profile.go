package model

type Role string

const (
	RoleOwner      Role = "owner"
	RoleVendor     Role = "vendor"
	RoleUnassigned Role = "unassigned"
)

type Profile struct {
	BaseModel
	Email      string  `db:"email" json:"email"`
	FullName   string  `db:"full_name" json:"full_name"`
	Role       Role    `db:"role" json:"role"`
	BusinessID *string `db:"business_id" json:"business_id"`
}

func (p *Profile) IsOwner() bool { return p != nil && p.Role == RoleOwner && p.BusinessID != nil }

// IsMember is true for owners and vendors attached to a business.
func (p *Profile) IsMember() bool {
	return p != nil && p.BusinessID != nil && (p.Role == RoleOwner || p.Role == RoleVendor)
}
