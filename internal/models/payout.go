package models

import (
	"time"

	"github.com/shopspring/decimal"

	"gately-be/internal/entities"
)

// WithdrawRequest represents the request body for a payout request
type WithdrawRequest struct {
	Amount float64 `json:"amount" binding:"required,gt=0"`
	Method string  `json:"method" binding:"required,oneof=upi bank_transfer paypal"`

	// Method-specific details, validated by the service per method
	UPIID             string `json:"upi_id,omitempty"`
	BankName          string `json:"bank_name,omitempty"`
	AccountNumber     string `json:"account_number,omitempty"`
	IFSCCode          string `json:"ifsc_code,omitempty"`
	AccountHolderName string `json:"account_holder_name,omitempty"`
	PayPalEmail       string `json:"paypal_email,omitempty"`
}

// EarningsSummaryResponse is the dashboard earnings overview for a user
type EarningsSummaryResponse struct {
	TotalEarnings    decimal.Decimal       `json:"total_earnings"`
	PendingEarnings  decimal.Decimal       `json:"pending_earnings"`
	PaidEarnings     decimal.Decimal       `json:"paid_earnings"`
	ReferralEarnings decimal.Decimal       `json:"referral_earnings"`
	CPMRate          decimal.Decimal       `json:"cpm_rate"`
	ReferralCount    int                   `json:"referral_count"`
	DailyStats       []*entities.DailyStat `json:"daily_stats"`
}

// ReferralResponse is one referred user in the referral listing
type ReferralResponse struct {
	Email     string    `json:"email"`
	Name      *string   `json:"name,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
