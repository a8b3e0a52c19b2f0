package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gately-be/internal/entities"
	"gately-be/internal/models"
	"gately-be/internal/repository"
	"gately-be/internal/repository/memstore"
)

func seedEarner(t *testing.T, store *memstore.Store, pending string) *entities.User {
	t.Helper()
	user := &entities.User{
		ID:              "user-1",
		Email:           "earner@example.com",
		PendingEarnings: decimal.RequireFromString(pending),
		TotalEarnings:   decimal.RequireFromString(pending),
		CPMRate:         decimal.RequireFromString("2.5"),
		CreatedAt:       time.Now().UTC(),
	}
	store.PutUser(user)
	return user
}

func upiRequest(amount float64) *models.WithdrawRequest {
	return &models.WithdrawRequest{
		Amount: amount,
		Method: "upi",
		UPIID:  "earner@upi",
	}
}

func TestRequestWithdrawal_DeductsPendingEarnings(t *testing.T) {
	store := memstore.New()
	seedEarner(t, store, "12.50")
	svc := NewPayoutService(store.Payouts(), store.Users(), store, 5)

	payout, err := svc.RequestWithdrawal("user-1", upiRequest(7.5))

	require.NoError(t, err)
	assert.Equal(t, entities.PayoutStatusPending, payout.Status)
	assert.True(t, decimal.RequireFromString("7.5").Equal(payout.Amount))
	assert.Equal(t, "earner@upi", payout.Details["upi_id"])

	user, err := store.FindByID("user-1")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("5").Equal(user.PendingEarnings))
	// TotalEarnings is lifetime, withdrawal does not touch it
	assert.True(t, decimal.RequireFromString("12.50").Equal(user.TotalEarnings))
}

func TestRequestWithdrawal_BelowMinimum(t *testing.T) {
	store := memstore.New()
	seedEarner(t, store, "100")
	svc := NewPayoutService(store.Payouts(), store.Users(), store, 5)

	_, err := svc.RequestWithdrawal("user-1", upiRequest(4.99))

	assert.ErrorIs(t, err, ErrBelowMinimumPayout)
}

func TestRequestWithdrawal_InsufficientBalance(t *testing.T) {
	store := memstore.New()
	seedEarner(t, store, "6")
	svc := NewPayoutService(store.Payouts(), store.Users(), store, 5)

	_, err := svc.RequestWithdrawal("user-1", upiRequest(6.01))

	assert.ErrorIs(t, err, repository.ErrInsufficientBalance)
}

func TestRequestWithdrawal_OneOpenRequestAtATime(t *testing.T) {
	store := memstore.New()
	seedEarner(t, store, "50")
	svc := NewPayoutService(store.Payouts(), store.Users(), store, 5)

	_, err := svc.RequestWithdrawal("user-1", upiRequest(10))
	require.NoError(t, err)

	_, err = svc.RequestWithdrawal("user-1", upiRequest(10))
	assert.ErrorIs(t, err, ErrOpenPayoutExists)
}

func TestRequestWithdrawal_MethodDetails(t *testing.T) {
	tests := []struct {
		name string
		req  *models.WithdrawRequest
		ok   bool
	}{
		{"upi missing id", &models.WithdrawRequest{Amount: 10, Method: "upi"}, false},
		{"paypal missing email", &models.WithdrawRequest{Amount: 10, Method: "paypal"}, false},
		{"bank transfer incomplete", &models.WithdrawRequest{
			Amount: 10, Method: "bank_transfer", BankName: "First Bank",
		}, false},
		{"bank transfer complete", &models.WithdrawRequest{
			Amount: 10, Method: "bank_transfer",
			BankName: "First Bank", AccountNumber: "00112233",
			IFSCCode: "FRST0001", AccountHolderName: "Sam Earner",
		}, true},
		{"paypal complete", &models.WithdrawRequest{
			Amount: 10, Method: "paypal", PayPalEmail: "earner@example.com",
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := memstore.New()
			seedEarner(t, store, "100")
			svc := NewPayoutService(store.Payouts(), store.Users(), store, 5)

			_, err := svc.RequestWithdrawal("user-1", tt.req)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrMissingPayoutInfo)
			}
		})
	}
}

func TestGetPayouts_NewestFirst(t *testing.T) {
	store := memstore.New()
	seedEarner(t, store, "100")
	svc := NewPayoutService(store.Payouts(), store.Users(), store, 5)

	first, err := store.CreatePayout("user-1", decimal.RequireFromString("10"), "upi", map[string]string{"upi_id": "earner@upi"})
	require.NoError(t, err)
	second, err := store.CreatePayout("user-1", decimal.RequireFromString("20"), "upi", map[string]string{"upi_id": "earner@upi"})
	require.NoError(t, err)

	payouts, err := svc.GetPayouts("user-1")
	require.NoError(t, err)
	require.Len(t, payouts, 2)
	assert.Equal(t, second.ID, payouts[0].ID)
	assert.Equal(t, first.ID, payouts[1].ID)
}

func TestGetEarningsSummary(t *testing.T) {
	store := memstore.New()
	user := seedEarner(t, store, "42")
	svc := NewPayoutService(store.Payouts(), store.Users(), store, 5)

	link, err := store.Create("abc123", "https://example.com", "", &user.ID)
	require.NoError(t, err)
	err = store.RecordVisit(&entities.Visit{
		LinkID:  link.ID,
		OwnerID: &user.ID,
		Click: entities.Click{
			Timestamp: time.Now().UTC(),
			Country:   "US",
			Device:    "desktop",
			Earned:    decimal.RequireFromString("0.0025"),
		},
	})
	require.NoError(t, err)

	summary, err := svc.GetEarningsSummary("user-1", 30)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("42.0025").Equal(summary.TotalEarnings))
	require.Len(t, summary.DailyStats, 1)
	assert.EqualValues(t, 1, summary.DailyStats[0].Clicks)
	assert.True(t, decimal.RequireFromString("0.0025").Equal(summary.DailyStats[0].Earnings))
}
