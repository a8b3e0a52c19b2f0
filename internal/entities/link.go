package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// Link represents a shortened, monetized URL entity in the database
type Link struct {
	ID            string          `json:"id"` // UUID
	ShortID       string          `json:"short_id"`
	OriginalURL   string          `json:"original_url"`
	Title         string          `json:"title,omitempty"`
	UserID        *string         `json:"user_id,omitempty"` // Pointer allows nil (anonymous links never earn)
	Clicks        int64           `json:"clicks"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	DeviceStats   DeviceStats     `json:"device_stats"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// DeviceStats is the fixed per-device click breakdown for a link
type DeviceStats struct {
	Desktop int64 `json:"desktop"`
	Mobile  int64 `json:"mobile"`
	Tablet  int64 `json:"tablet"`
	Unknown int64 `json:"unknown"`
}

// DailyStat is one calendar-day aggregate bucket for a link (UTC days)
type DailyStat struct {
	LinkID    string           `json:"link_id,omitempty"`
	Date      time.Time        `json:"date"`
	Clicks    int64            `json:"clicks"`
	Earnings  decimal.Decimal  `json:"earnings"`
	Countries map[string]int64 `json:"countries,omitempty"`
}
