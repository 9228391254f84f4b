package model

import "time"

type InviteStatus string

const (
	InviteStatusPending   InviteStatus = "pending"
	InviteStatusAccepted  InviteStatus = "accepted"
	InviteStatusDeclined  InviteStatus = "declined"
	InviteStatusCancelled InviteStatus = "cancelled"
	InviteStatusExpired   InviteStatus = "expired"
)

type Invite struct {
	ID           string       `db:"id" json:"id"`
	BusinessID   string       `db:"business_id" json:"business_id"`
	BusinessName string       `db:"business_name" json:"business_name"`
	InvitedBy    string       `db:"invited_by" json:"invited_by"`
	Email        string       `db:"email" json:"email"`
	Status       InviteStatus `db:"status" json:"status"`
	CreatedAt    time.Time    `db:"created_at" json:"created_at"`
	RespondedAt  *time.Time   `db:"responded_at" json:"responded_at"`
	ExpiresAt    time.Time    `db:"expires_at" json:"expires_at"`
}

func (i Invite) GetID() string { return i.ID }

func (i *Invite) IsExpired(now time.Time) bool { return !now.Before(i.ExpiresAt) }
