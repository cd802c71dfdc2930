package models

import "time"

const (
	PaymentPaid     = "paid"
	PaymentPending  = "pending"
	PaymentFailed   = "failed"
	PaymentRefunded = "refunded"

	MethodCash     = "cash"
	MethodCard     = "card"
	MethodTransfer = "transfer"
)

type Payment struct {
	ID         int64     `json:"id"`
	MemberID   int64     `json:"memberId"`
	MemberName string    `json:"memberName"`
	Amount     float64   `json:"amount"`
	Currency   string    `json:"currency"`
	Method     string    `json:"method"`
	Status     string    `json:"status"`
	Date       string    `json:"date"`
	Notes      *string   `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

type PaymentSummary struct {
	From           string             `json:"from"`
	To             string             `json:"to"`
	PaidByCurrency map[string]float64 `json:"paidByCurrency"`
	CountByStatus  map[string]int     `json:"countByStatus"`
}
