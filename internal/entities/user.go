package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a user entity in the database
type User struct {
	ID           string  `json:"id"` // UUID
	Email        string  `json:"email"`
	PasswordHash string  `json:"-"` // Don't expose password hash in JSON
	Name         *string `json:"name,omitempty"`

	// Earnings balances. PendingEarnings is the withdrawable part; it only
	// grows through the click ledger and only shrinks via a payout request.
	TotalEarnings    decimal.Decimal `json:"total_earnings"`
	PendingEarnings  decimal.Decimal `json:"pending_earnings"`
	PaidEarnings     decimal.Decimal `json:"paid_earnings"`
	ReferralEarnings decimal.Decimal `json:"referral_earnings"`

	// CPMRate is dollars per 1000 tier-1 views, owner-configurable
	CPMRate decimal.Decimal `json:"cpm_rate"`
	// ReferralCommission is the percent cut this user takes from earnings of users they referred
	ReferralCommission decimal.Decimal `json:"referral_commission"`

	ReferralCode  string  `json:"referral_code"`
	ReferredBy    *string `json:"referred_by,omitempty"` // UUID, single hop only
	ReferralCount int     `json:"referral_count"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
