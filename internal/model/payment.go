package model

import (
	"time"

	"github.com/google/uuid"
)

// Payment is one entry of the payment history behind a PRO upgrade.
type Payment struct {
	ID     uuid.UUID `json:"id" db:"id"`
	UserID uuid.UUID `json:"userId" db:"user_id"`
	Plan   Plan      `json:"plan" db:"plan"`
	Amount float64   `json:"amount" db:"amount"`
	PaidAt time.Time `json:"paidAt" db:"paid_at"`
}
