package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"gately-be/internal/entities"
	"gately-be/internal/models"
	"gately-be/internal/repository"
)

// PayoutService handles withdrawal requests and the earnings dashboard
type PayoutService interface {
	RequestWithdrawal(userID string, req *models.WithdrawRequest) (*entities.Payout, error)
	GetPayouts(userID string) ([]*entities.Payout, error)
	GetEarningsSummary(userID string, days int) (*models.EarningsSummaryResponse, error)
	GetReferrals(userID string) ([]*models.ReferralResponse, error)
}

type payoutService struct {
	payoutRepo repository.PayoutRepository
	userRepo   repository.UserRepository
	linkRepo   repository.LinkRepository
	minPayout  decimal.Decimal
}

// NewPayoutService creates a new payout service
func NewPayoutService(payoutRepo repository.PayoutRepository, userRepo repository.UserRepository, linkRepo repository.LinkRepository, minPayout float64) PayoutService {
	return &payoutService{
		payoutRepo: payoutRepo,
		userRepo:   userRepo,
		linkRepo:   linkRepo,
		minPayout:  decimal.NewFromFloat(minPayout),
	}
}

// payoutDetails validates and collects the method-specific fields
func payoutDetails(req *models.WithdrawRequest) (map[string]string, error) {
	switch req.Method {
	case "upi":
		if req.UPIID == "" {
			return nil, ErrMissingPayoutInfo
		}
		return map[string]string{"upi_id": req.UPIID}, nil
	case "bank_transfer":
		if req.BankName == "" || req.AccountNumber == "" || req.IFSCCode == "" || req.AccountHolderName == "" {
			return nil, ErrMissingPayoutInfo
		}
		return map[string]string{
			"bank_name":           req.BankName,
			"account_number":      req.AccountNumber,
			"ifsc_code":           req.IFSCCode,
			"account_holder_name": req.AccountHolderName,
		}, nil
	case "paypal":
		if req.PayPalEmail == "" {
			return nil, ErrMissingPayoutInfo
		}
		return map[string]string{"paypal_email": req.PayPalEmail}, nil
	}
	return nil, ErrMissingPayoutInfo
}

// RequestWithdrawal deducts the amount from pending earnings and files the
// payout request. One open request at a time.
func (s *payoutService) RequestWithdrawal(userID string, req *models.WithdrawRequest) (*entities.Payout, error) {
	amount := decimal.NewFromFloat(req.Amount)
	if amount.LessThan(s.minPayout) {
		return nil, ErrBelowMinimumPayout
	}

	open, err := s.payoutRepo.HasOpenRequest(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check open payouts: %w", err)
	}
	if open {
		return nil, ErrOpenPayoutExists
	}

	details, err := payoutDetails(req)
	if err != nil {
		return nil, err
	}

	payout, err := s.payoutRepo.Create(userID, amount, req.Method, details)
	if err != nil {
		return nil, err // ErrInsufficientBalance passes through untouched
	}
	return payout, nil
}

// GetPayouts lists a user's payout requests
func (s *payoutService) GetPayouts(userID string) ([]*entities.Payout, error) {
	return s.payoutRepo.GetByUserID(userID)
}

// GetEarningsSummary returns balances and the recent daily earnings series
func (s *payoutService) GetEarningsSummary(userID string, days int) (*models.EarningsSummaryResponse, error) {
	user, err := s.userRepo.FindByID(userID)
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	daily, err := s.linkRepo.GetOwnerDailyStats(userID, since)
	if err != nil {
		return nil, err
	}

	return &models.EarningsSummaryResponse{
		TotalEarnings:    user.TotalEarnings,
		PendingEarnings:  user.PendingEarnings,
		PaidEarnings:     user.PaidEarnings,
		ReferralEarnings: user.ReferralEarnings,
		CPMRate:          user.CPMRate,
		ReferralCount:    user.ReferralCount,
		DailyStats:       daily,
	}, nil
}

// GetReferrals lists users referred by the caller
func (s *payoutService) GetReferrals(userID string) ([]*models.ReferralResponse, error) {
	users, err := s.userRepo.GetReferrals(userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.ReferralResponse, len(users))
	for i, u := range users {
		responses[i] = &models.ReferralResponse{
			Email:     u.Email,
			Name:      u.Name,
			CreatedAt: u.CreatedAt,
		}
	}
	return responses, nil
}
