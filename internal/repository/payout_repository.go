package repository

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"gately-be/internal/entities"
)

// PayoutRepository defines the interface for payout database operations
type PayoutRepository interface {
	// Create deducts the amount from the user's pending earnings and inserts
	// the payout row atomically. Returns ErrInsufficientBalance when pending
	// earnings cannot cover the amount.
	Create(userID string, amount decimal.Decimal, method string, details map[string]string) (*entities.Payout, error)
	GetByUserID(userID string) ([]*entities.Payout, error)
	HasOpenRequest(userID string) (bool, error)
}

type payoutRepository struct {
	db *sql.DB
}

// NewPayoutRepository creates a new payout repository
func NewPayoutRepository(db *sql.DB) PayoutRepository {
	return &payoutRepository{db: db}
}

func (r *payoutRepository) Create(userID string, amount decimal.Decimal, method string, details map[string]string) (*entities.Payout, error) {
	detailsJSON, err := json.Marshal(details)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payout details: %w", err)
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin payout transaction: %w", err)
	}
	defer tx.Rollback()

	// The balance guard lives in the WHERE clause: a concurrent withdrawal
	// can never drive pending_earnings negative.
	result, err := tx.Exec(`
		UPDATE users
		SET pending_earnings = pending_earnings - $2,
		    updated_at = (NOW() AT TIME ZONE 'UTC')
		WHERE id = $1 AND pending_earnings >= $2
	`, userID, amount)
	if err != nil {
		return nil, fmt.Errorf("failed to deduct pending earnings: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrInsufficientBalance
	}

	var payout entities.Payout
	var rawDetails []byte
	err = tx.QueryRow(`
		INSERT INTO payouts (user_id, amount, method, details)
		VALUES ($1, $2, $3, $4)
		RETURNING id, user_id, amount, method, details, status, created_at
	`, userID, amount, method, detailsJSON).Scan(
		&payout.ID,
		&payout.UserID,
		&payout.Amount,
		&payout.Method,
		&rawDetails,
		&payout.Status,
		&payout.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}
	if err := json.Unmarshal(rawDetails, &payout.Details); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payout details: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit payout: %w", err)
	}
	return &payout, nil
}

func (r *payoutRepository) GetByUserID(userID string) ([]*entities.Payout, error) {
	rows, err := r.db.Query(`
		SELECT id, user_id, amount, method, details, status, created_at
		FROM payouts
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get payouts: %w", err)
	}
	defer rows.Close()

	var payouts []*entities.Payout
	for rows.Next() {
		var payout entities.Payout
		var rawDetails []byte
		err := rows.Scan(
			&payout.ID,
			&payout.UserID,
			&payout.Amount,
			&payout.Method,
			&rawDetails,
			&payout.Status,
			&payout.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payout: %w", err)
		}
		if err := json.Unmarshal(rawDetails, &payout.Details); err != nil {
			return nil, fmt.Errorf("failed to unmarshal payout details: %w", err)
		}
		payouts = append(payouts, &payout)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating payouts: %w", err)
	}
	return payouts, nil
}

func (r *payoutRepository) HasOpenRequest(userID string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(`
		SELECT EXISTS(
			SELECT 1 FROM payouts
			WHERE user_id = $1 AND status IN ($2, $3)
		)
	`, userID, entities.PayoutStatusPending, entities.PayoutStatusProcessing).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check open payouts: %w", err)
	}
	return exists, nil
}
