package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payout statuses. Only "pending" and "processing" block a new request.
const (
	PayoutStatusPending    = "pending"
	PayoutStatusProcessing = "processing"
	PayoutStatusCompleted  = "completed"
	PayoutStatusRejected   = "rejected"
	PayoutStatusCancelled  = "cancelled"
)

// Payout represents a withdrawal request against a user's pending earnings
type Payout struct {
	ID        string            `json:"id"` // UUID
	UserID    string            `json:"user_id"`
	Amount    decimal.Decimal   `json:"amount"`
	Method    string            `json:"method"` // upi, bank_transfer, paypal
	Details   map[string]string `json:"details,omitempty"`
	Status    string            `json:"status"`
	CreatedAt time.Time         `json:"created_at"`
}
