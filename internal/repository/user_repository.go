package repository

import (
	"database/sql"
	"fmt"

	"gately-be/internal/entities"
)

// CreateUserParams carries everything needed to insert a user row. Earnings
// balances and rate settings start at their platform defaults.
type CreateUserParams struct {
	Email        string
	PasswordHash string
	Name         *string
	ReferralCode string
	ReferredBy   *string // UUID of the referrer, already resolved from their code
}

// UserRepository defines the interface for user database operations
type UserRepository interface {
	Create(params CreateUserParams) (*entities.User, error)
	FindByEmail(email string) (*entities.User, error)
	FindByID(id string) (*entities.User, error)
	FindByReferralCode(code string) (*entities.User, error)
	GetReferrals(userID string) ([]*entities.User, error)
}

type userRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) UserRepository {
	return &userRepository{db: db}
}

const userColumns = `id, email, password_hash, name,
	total_earnings, pending_earnings, paid_earnings, referral_earnings,
	cpm_rate, referral_commission, referral_code, referred_by, referral_count,
	created_at, updated_at`

func scanUserRow(scan func(dest ...interface{}) error) (*entities.User, error) {
	var user entities.User
	err := scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&user.Name,
		&user.TotalEarnings,
		&user.PendingEarnings,
		&user.PaidEarnings,
		&user.ReferralEarnings,
		&user.CPMRate,
		&user.ReferralCommission,
		&user.ReferralCode,
		&user.ReferredBy,
		&user.ReferralCount,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Create inserts a new user and, when referred, bumps the referrer's count in
// the same transaction.
func (r *userRepository) Create(params CreateUserParams) (*entities.User, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin user transaction: %w", err)
	}
	defer tx.Rollback()

	query := fmt.Sprintf(`
		INSERT INTO users (email, password_hash, name, referral_code, referred_by)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING %s
	`, userColumns)

	user, err := scanUserRow(tx.QueryRow(query,
		params.Email, params.PasswordHash, params.Name, params.ReferralCode, params.ReferredBy).Scan)
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if params.ReferredBy != nil {
		_, err = tx.Exec(`
			UPDATE users SET referral_count = referral_count + 1 WHERE id = $1
		`, *params.ReferredBy)
		if err != nil {
			return nil, fmt.Errorf("failed to bump referral count: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit user: %w", err)
	}
	return user, nil
}

func (r *userRepository) findOne(query string, arg interface{}) (*entities.User, error) {
	user, err := scanUserRow(r.db.QueryRow(query, arg).Scan)
	if err == sql.ErrNoRows {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	return user, nil
}

// FindByEmail finds a user by email
func (r *userRepository) FindByEmail(email string) (*entities.User, error) {
	return r.findOne(fmt.Sprintf(`SELECT %s FROM users WHERE email = $1`, userColumns), email)
}

// FindByID finds a user by ID (UUID)
func (r *userRepository) FindByID(id string) (*entities.User, error) {
	return r.findOne(fmt.Sprintf(`SELECT %s FROM users WHERE id = $1`, userColumns), id)
}

// FindByReferralCode finds a user by their referral code
func (r *userRepository) FindByReferralCode(code string) (*entities.User, error) {
	return r.findOne(fmt.Sprintf(`SELECT %s FROM users WHERE referral_code = $1`, userColumns), code)
}

// GetReferrals lists users referred by the given user, newest first
func (r *userRepository) GetReferrals(userID string) ([]*entities.User, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM users WHERE referred_by = $1 ORDER BY created_at DESC
	`, userColumns)

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get referrals: %w", err)
	}
	defer rows.Close()

	var users []*entities.User
	for rows.Next() {
		user, err := scanUserRow(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("failed to scan referral: %w", err)
		}
		users = append(users, user)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating referrals: %w", err)
	}
	return users, nil
}
