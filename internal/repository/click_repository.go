package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gately-be/internal/entities"
)

// RecentClickCapacity bounds the per-link click log. Oldest entries are
// evicted first.
const RecentClickCapacity = 100

// ClickRepository persists one gate visit: link aggregates, the click log and
// the owner/referrer ledger, all-or-nothing.
type ClickRepository interface {
	RecordVisit(visit *entities.Visit) error
}

type clickRepository struct {
	db *sql.DB
}

// NewClickRepository creates a new click repository
func NewClickRepository(db *sql.DB) ClickRepository {
	return &clickRepository{db: db}
}

// Device columns are fixed; the category string picks one of four known
// columns, never raw SQL from input.
var deviceColumns = map[string]string{
	"desktop": "device_desktop",
	"mobile":  "device_mobile",
	"tablet":  "device_tablet",
	"unknown": "device_unknown",
}

var oneHundredPercent = decimal.NewFromInt(100)

// RecordVisit applies the whole aggregate update for one visit inside a
// single transaction. Every counter change is an in-database increment or an
// ON CONFLICT upsert, so concurrent visits to the same link never lose
// updates; the transaction only decides atomicity, not ordering.
func (r *clickRepository) RecordVisit(visit *entities.Visit) error {
	click := &visit.Click
	day := dayOf(click.Timestamp)

	deviceColumn, ok := deviceColumns[click.Device]
	if !ok {
		deviceColumn = deviceColumns["unknown"]
	}

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin visit transaction: %w", err)
	}
	defer tx.Rollback()

	// 1. Cumulative link counters + the device breakdown column.
	_, err = tx.Exec(fmt.Sprintf(`
		UPDATE links
		SET clicks = clicks + 1,
		    total_earnings = total_earnings + $2,
		    %s = %s + 1,
		    updated_at = (NOW() AT TIME ZONE 'UTC')
		WHERE id = $1
	`, deviceColumn, deviceColumn), visit.LinkID, click.Earned)
	if err != nil {
		return fmt.Errorf("failed to update link counters: %w", err)
	}

	// 2. Lifetime country breakdown.
	_, err = tx.Exec(`
		INSERT INTO link_country_stats (link_id, country, clicks)
		VALUES ($1, $2, 1)
		ON CONFLICT (link_id, country)
		DO UPDATE SET clicks = link_country_stats.clicks + 1
	`, visit.LinkID, click.Country)
	if err != nil {
		return fmt.Errorf("failed to update country stats: %w", err)
	}

	// 3. Daily bucket find-or-create. The unique (link_id, day) key makes two
	// concurrent "create today's bucket" attempts converge on one row.
	_, err = tx.Exec(`
		INSERT INTO link_daily_stats (link_id, day, clicks, earnings)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (link_id, day)
		DO UPDATE SET clicks = link_daily_stats.clicks + 1,
		              earnings = link_daily_stats.earnings + EXCLUDED.earnings
	`, visit.LinkID, day, click.Earned)
	if err != nil {
		return fmt.Errorf("failed to update daily stats: %w", err)
	}

	_, err = tx.Exec(`
		INSERT INTO link_daily_countries (link_id, day, country, clicks)
		VALUES ($1, $2, $3, 1)
		ON CONFLICT (link_id, day, country)
		DO UPDATE SET clicks = link_daily_countries.clicks + 1
	`, visit.LinkID, day, click.Country)
	if err != nil {
		return fmt.Errorf("failed to update daily countries: %w", err)
	}

	// 4. Recent-click log: append, then evict everything beyond the newest 100.
	_, err = tx.Exec(`
		INSERT INTO link_clicks (link_id, clicked_at, country, city, region, ip, user_agent, referer, device, browser, os, earned)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, visit.LinkID, click.Timestamp.UTC(), click.Country, click.City, click.Region,
		click.IP, click.UserAgent, click.Referer, click.Device, click.Browser, click.OS, click.Earned)
	if err != nil {
		return fmt.Errorf("failed to log click: %w", err)
	}

	_, err = tx.Exec(`
		DELETE FROM link_clicks
		WHERE link_id = $1
		AND id NOT IN (
			SELECT id FROM link_clicks
			WHERE link_id = $1
			ORDER BY id DESC
			LIMIT $2
		)
	`, visit.LinkID, RecentClickCapacity)
	if err != nil {
		return fmt.Errorf("failed to trim click log: %w", err)
	}

	// 5. Ledger. Skipped for anonymous links and zero earnings; a missing
	// owner row means zero rows updated, which is a no-op, not an error.
	if visit.OwnerID != nil && click.Earned.IsPositive() {
		if err := r.creditEarnings(tx, *visit.OwnerID, click.Earned); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit visit: %w", err)
	}
	return nil
}

// creditEarnings credits the owner and, single hop only, the owner's referrer
// using the referrer's own commission rate.
func (r *clickRepository) creditEarnings(tx *sql.Tx, ownerID string, earned decimal.Decimal) error {
	_, err := tx.Exec(`
		UPDATE users
		SET total_earnings = total_earnings + $2,
		    pending_earnings = pending_earnings + $2,
		    updated_at = (NOW() AT TIME ZONE 'UTC')
		WHERE id = $1
	`, ownerID, earned)
	if err != nil {
		return fmt.Errorf("failed to credit owner: %w", err)
	}

	var referrerID sql.NullString
	var commission decimal.Decimal
	err = tx.QueryRow(`
		SELECT r.id, r.referral_commission
		FROM users u
		JOIN users r ON r.id = u.referred_by
		WHERE u.id = $1
	`, ownerID).Scan(&referrerID, &commission)
	if err == sql.ErrNoRows {
		return nil // owner missing or not referred
	}
	if err != nil {
		return fmt.Errorf("failed to look up referrer: %w", err)
	}

	referralEarning := earned.Mul(commission).Div(oneHundredPercent)
	if !referralEarning.IsPositive() {
		return nil
	}

	_, err = tx.Exec(`
		UPDATE users
		SET total_earnings = total_earnings + $2,
		    pending_earnings = pending_earnings + $2,
		    referral_earnings = referral_earnings + $2,
		    updated_at = (NOW() AT TIME ZONE 'UTC')
		WHERE id = $1
	`, referrerID.String, referralEarning)
	if err != nil {
		return fmt.Errorf("failed to credit referrer: %w", err)
	}
	return nil
}

// dayOf truncates a timestamp to its UTC calendar day
func dayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
