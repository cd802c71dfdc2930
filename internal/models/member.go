package models

import "time"

const (
	MemberActive   = "active"
	MemberInactive = "inactive"
)

type Member struct {
	ID        int64     `json:"id"`
	UserID    *int64    `json:"userId,omitempty"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	JoinedAt  string    `json:"joinedAt"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
