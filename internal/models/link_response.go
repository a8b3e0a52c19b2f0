package models

import (
	"time"

	"github.com/shopspring/decimal"

	"gately-be/internal/entities"
)

// CreateLinkResponse represents the response after creating a short link
type CreateLinkResponse struct {
	ShortID     string    `json:"short_id"`
	OriginalURL string    `json:"original_url"`
	ShortURL    string    `json:"short_url"` // Full short URL (base URL + short ID)
	Title       string    `json:"title,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// LinkResponse represents one link in a listing
type LinkResponse struct {
	ShortID       string          `json:"short_id"`
	OriginalURL   string          `json:"original_url"`
	Title         string          `json:"title,omitempty"`
	Clicks        int64           `json:"clicks"`
	TotalEarnings decimal.Decimal `json:"total_earnings"`
	IsActive      bool            `json:"is_active"`
	CreatedAt     time.Time       `json:"created_at"`
}

// LinkAnalyticsResponse bundles the per-link breakdowns for the dashboard
type LinkAnalyticsResponse struct {
	ShortID       string                `json:"short_id"`
	Clicks        int64                 `json:"clicks"`
	TotalEarnings decimal.Decimal       `json:"total_earnings"`
	DailyStats    []*entities.DailyStat `json:"daily_stats"`
	CountryStats  map[string]int64      `json:"country_stats"`
	DeviceStats   entities.DeviceStats  `json:"device_stats"`
	RecentClicks  []*entities.Click     `json:"recent_clicks"`
}

// GateResponse is the payload for one interstitial gate step
type GateResponse struct {
	ShortID     string `json:"short_id"`
	Step        int    `json:"step"`
	WaitSeconds int    `json:"wait_seconds"`
	Next        string `json:"next,omitempty"`
	// OriginalURL is only revealed on the final step
	OriginalURL string `json:"original_url,omitempty"`
}
