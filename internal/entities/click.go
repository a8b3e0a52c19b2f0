package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Click is one recorded gate-page visit with its attribution data
type Click struct {
	ID        int64           `json:"id,omitempty"`
	LinkID    string          `json:"link_id,omitempty"` // UUID
	Timestamp time.Time       `json:"timestamp"`
	Country   string          `json:"country"`
	City      string          `json:"city"`
	Region    string          `json:"region"`
	IP        string          `json:"ip"`
	UserAgent string          `json:"user_agent"`
	Referer   string          `json:"referer"`
	Device    string          `json:"device"` // desktop/mobile/tablet/unknown
	Browser   string          `json:"browser"`
	OS        string          `json:"os"`
	Earned    decimal.Decimal `json:"earned"`
}

// Visit bundles a classified click with the accounts its earning flows to.
// The whole visit is persisted atomically: link aggregates, click log and
// owner/referrer balances either all land or none do.
type Visit struct {
	LinkID  string
	OwnerID *string // nil for anonymous links; the ledger step is skipped
	Click   Click
}
