package repository

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"gately-be/internal/entities"
)

// LinkRepository defines the interface for link database operations
type LinkRepository interface {
	Create(shortID, originalURL, title string, userID *string) (*entities.Link, error)
	FindByShortID(shortID string) (*entities.Link, error)
	Exists(shortID string) (bool, error)
	GetByUserID(userID string) ([]*entities.Link, error)
	Deactivate(shortID string, userID string) error
	GetDailyStats(linkID string, since time.Time) ([]*entities.DailyStat, error)
	GetCountryStats(linkID string) (map[string]int64, error)
	GetRecentClicks(linkID string, limit int) ([]*entities.Click, error)
	GetOwnerDailyStats(userID string, since time.Time) ([]*entities.DailyStat, error)
}

type linkRepository struct {
	db *sql.DB
}

// NewLinkRepository creates a new link repository
func NewLinkRepository(db *sql.DB) LinkRepository {
	return &linkRepository{db: db}
}

const linkColumns = `id, short_id, original_url, title, user_id, clicks, total_earnings,
	device_desktop, device_mobile, device_tablet, device_unknown, is_active, created_at, updated_at`

func scanLink(row *sql.Row) (*entities.Link, error) {
	var link entities.Link
	err := row.Scan(
		&link.ID,
		&link.ShortID,
		&link.OriginalURL,
		&link.Title,
		&link.UserID,
		&link.Clicks,
		&link.TotalEarnings,
		&link.DeviceStats.Desktop,
		&link.DeviceStats.Mobile,
		&link.DeviceStats.Tablet,
		&link.DeviceStats.Unknown,
		&link.IsActive,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &link, nil
}

// Create inserts a new link into the database
func (r *linkRepository) Create(shortID, originalURL, title string, userID *string) (*entities.Link, error) {
	query := fmt.Sprintf(`
		INSERT INTO links (short_id, original_url, title, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING %s
	`, linkColumns)

	link, err := scanLink(r.db.QueryRow(query, shortID, originalURL, title, userID))
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && pqErr.Code == "23505" {
			return nil, ErrDuplicateShortID
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}
	return link, nil
}

// FindByShortID finds an active link by its short ID. Inactive links are
// reported as not found, same as missing ones.
func (r *linkRepository) FindByShortID(shortID string) (*entities.Link, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM links
		WHERE short_id = $1 AND is_active = TRUE
	`, linkColumns)

	link, err := scanLink(r.db.QueryRow(query, shortID))
	if err == sql.ErrNoRows {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find link: %w", err)
	}
	return link, nil
}

// Exists reports whether any link (active or not) holds the short ID
func (r *linkRepository) Exists(shortID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`SELECT EXISTS(SELECT 1 FROM links WHERE short_id = $1)`, shortID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check short id: %w", err)
	}
	return exists, nil
}

// GetByUserID retrieves all links for a specific user, newest first
func (r *linkRepository) GetByUserID(userID string) ([]*entities.Link, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM links
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, linkColumns)

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get links: %w", err)
	}
	defer rows.Close()

	var links []*entities.Link
	for rows.Next() {
		var link entities.Link
		err := rows.Scan(
			&link.ID,
			&link.ShortID,
			&link.OriginalURL,
			&link.Title,
			&link.UserID,
			&link.Clicks,
			&link.TotalEarnings,
			&link.DeviceStats.Desktop,
			&link.DeviceStats.Mobile,
			&link.DeviceStats.Tablet,
			&link.DeviceStats.Unknown,
			&link.IsActive,
			&link.CreatedAt,
			&link.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, &link)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}
	return links, nil
}

// Deactivate soft-deletes a link. The row stays in storage; the gate pipeline
// stops seeing it.
func (r *linkRepository) Deactivate(shortID string, userID string) error {
	result, err := r.db.Exec(`
		UPDATE links
		SET is_active = FALSE, updated_at = (NOW() AT TIME ZONE 'UTC')
		WHERE short_id = $1 AND user_id = $2
	`, shortID, userID)
	if err != nil {
		return fmt.Errorf("failed to deactivate link: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrLinkNotFound
	}
	return nil
}

// GetDailyStats returns per-day buckets for a link since the given day,
// oldest first, including the per-country breakdown of each day. Empty days
// have no bucket.
func (r *linkRepository) GetDailyStats(linkID string, since time.Time) ([]*entities.DailyStat, error) {
	rows, err := r.db.Query(`
		SELECT day, clicks, earnings
		FROM link_daily_stats
		WHERE link_id = $1 AND day >= $2
		ORDER BY day ASC
	`, linkID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get daily stats: %w", err)
	}
	defer rows.Close()

	var stats []*entities.DailyStat
	byDay := make(map[string]*entities.DailyStat)
	for rows.Next() {
		stat := &entities.DailyStat{LinkID: linkID, Countries: make(map[string]int64)}
		if err := rows.Scan(&stat.Date, &stat.Clicks, &stat.Earnings); err != nil {
			return nil, fmt.Errorf("failed to scan daily stat: %w", err)
		}
		stats = append(stats, stat)
		byDay[stat.Date.UTC().Format("2006-01-02")] = stat
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily stats: %w", err)
	}

	countryRows, err := r.db.Query(`
		SELECT day, country, clicks
		FROM link_daily_countries
		WHERE link_id = $1 AND day >= $2
	`, linkID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get daily countries: %w", err)
	}
	defer countryRows.Close()

	for countryRows.Next() {
		var day time.Time
		var country string
		var clicks int64
		if err := countryRows.Scan(&day, &country, &clicks); err != nil {
			return nil, fmt.Errorf("failed to scan daily country: %w", err)
		}
		if stat, ok := byDay[day.UTC().Format("2006-01-02")]; ok {
			stat.Countries[country] = clicks
		}
	}
	if err = countryRows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating daily countries: %w", err)
	}
	return stats, nil
}

// GetCountryStats returns the lifetime country breakdown for a link
func (r *linkRepository) GetCountryStats(linkID string) (map[string]int64, error) {
	rows, err := r.db.Query(`
		SELECT country, clicks
		FROM link_country_stats
		WHERE link_id = $1
		ORDER BY clicks DESC
	`, linkID)
	if err != nil {
		return nil, fmt.Errorf("failed to get country stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]int64)
	for rows.Next() {
		var country string
		var clicks int64
		if err := rows.Scan(&country, &clicks); err != nil {
			return nil, fmt.Errorf("failed to scan country stat: %w", err)
		}
		stats[country] = clicks
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating country stats: %w", err)
	}
	return stats, nil
}

// GetRecentClicks returns the newest clicks for a link, newest first. The
// click log is trimmed to the 100 most recent entries at write time, so limit
// is effectively capped there.
func (r *linkRepository) GetRecentClicks(linkID string, limit int) ([]*entities.Click, error) {
	rows, err := r.db.Query(`
		SELECT id, link_id, clicked_at, country, city, region, ip, user_agent, referer, device, browser, os, earned
		FROM link_clicks
		WHERE link_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, linkID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get recent clicks: %w", err)
	}
	defer rows.Close()

	var clicks []*entities.Click
	for rows.Next() {
		var click entities.Click
		err := rows.Scan(
			&click.ID,
			&click.LinkID,
			&click.Timestamp,
			&click.Country,
			&click.City,
			&click.Region,
			&click.IP,
			&click.UserAgent,
			&click.Referer,
			&click.Device,
			&click.Browser,
			&click.OS,
			&click.Earned,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan click: %w", err)
		}
		clicks = append(clicks, &click)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clicks: %w", err)
	}
	return clicks, nil
}

// GetOwnerDailyStats aggregates daily buckets across all of a user's links
func (r *linkRepository) GetOwnerDailyStats(userID string, since time.Time) ([]*entities.DailyStat, error) {
	rows, err := r.db.Query(`
		SELECT s.day, SUM(s.clicks), SUM(s.earnings)
		FROM link_daily_stats s
		JOIN links l ON l.id = s.link_id
		WHERE l.user_id = $1 AND s.day >= $2
		GROUP BY s.day
		ORDER BY s.day ASC
	`, userID, since.UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to get owner daily stats: %w", err)
	}
	defer rows.Close()

	var stats []*entities.DailyStat
	for rows.Next() {
		var stat entities.DailyStat
		var earnings decimal.Decimal
		if err := rows.Scan(&stat.Date, &stat.Clicks, &earnings); err != nil {
			return nil, fmt.Errorf("failed to scan owner daily stat: %w", err)
		}
		stat.Earnings = earnings
		stats = append(stats, &stat)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating owner daily stats: %w", err)
	}
	return stats, nil
}
