package memstore

import (
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"gately-be/internal/entities"
	"gately-be/internal/repository"
)

func seedOwner(t *testing.T, store *Store, id string, referredBy *string) *entities.User {
	t.Helper()
	user := &entities.User{
		ID:                 id,
		Email:              id + "@example.com",
		CPMRate:            decimal.RequireFromString("2.5"),
		ReferralCommission: decimal.NewFromInt(20),
		ReferralCode:       "CODE" + id,
		ReferredBy:         referredBy,
		CreatedAt:          time.Now().UTC(),
	}
	store.PutUser(user)
	return user
}

func visitAt(linkID string, ownerID *string, ts time.Time, country, device string, earned decimal.Decimal) *entities.Visit {
	return &entities.Visit{
		LinkID:  linkID,
		OwnerID: ownerID,
		Click: entities.Click{
			Timestamp: ts,
			Country:   country,
			Device:    device,
			Browser:   "Chrome",
			OS:        "Windows",
			IP:        "203.0.113.9",
			Earned:    earned,
		},
	}
}

func TestRecordVisit_AppliesEveryAggregateOnce(t *testing.T) {
	store := New()
	owner := seedOwner(t, store, "user-1", nil)
	link, err := store.Create("abc123", "https://example.com", "", &owner.ID)
	require.NoError(t, err)

	ts := time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC)
	earned := decimal.RequireFromString("0.0025")
	require.NoError(t, store.RecordVisit(visitAt(link.ID, &owner.ID, ts, "US", "mobile", earned)))

	got, err := store.FindByShortID("abc123")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Clicks)
	assert.True(t, earned.Equal(got.TotalEarnings))
	assert.EqualValues(t, 1, got.DeviceStats.Mobile)
	assert.EqualValues(t, 0, got.DeviceStats.Desktop)

	countries, err := store.GetCountryStats(link.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, countries["US"])

	daily, err := store.GetDailyStats(link.ID, ts.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.EqualValues(t, 1, daily[0].Clicks)
	assert.True(t, earned.Equal(daily[0].Earnings))
	assert.EqualValues(t, 1, daily[0].Countries["US"])
	assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), daily[0].Date)

	clicks, err := store.GetRecentClicks(link.ID, 10)
	require.NoError(t, err)
	require.Len(t, clicks, 1)
	assert.Equal(t, "US", clicks[0].Country)

	user, err := store.FindByID(owner.ID)
	require.NoError(t, err)
	assert.True(t, earned.Equal(user.TotalEarnings))
	assert.True(t, earned.Equal(user.PendingEarnings))
}

func TestRecordVisit_ClickLogKeepsNewestHundred(t *testing.T) {
	store := New()
	link, err := store.Create("abc123", "https://example.com", "", nil)
	require.NoError(t, err)

	base := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	total := repository.RecentClickCapacity + 2
	for i := 0; i < total; i++ {
		v := visitAt(link.ID, nil, base.Add(time.Duration(i)*time.Second), "US", "desktop", decimal.Zero)
		v.Click.Referer = fmt.Sprintf("click-%d", i)
		require.NoError(t, store.RecordVisit(v))
	}

	clicks, err := store.GetRecentClicks(link.ID, total)
	require.NoError(t, err)
	require.Len(t, clicks, repository.RecentClickCapacity)

	// Newest first; the two oldest clicks were evicted, so the oldest
	// survivor is the third click ever recorded.
	assert.Equal(t, fmt.Sprintf("click-%d", total-1), clicks[0].Referer)
	assert.Equal(t, "click-2", clicks[len(clicks)-1].Referer)

	// Eviction never touches the aggregate counters.
	got, err := store.FindByShortID("abc123")
	require.NoError(t, err)
	assert.EqualValues(t, total, got.Clicks)
}

func TestRecordVisit_ConcurrentVisitsConverge(t *testing.T) {
	store := New()
	owner := seedOwner(t, store, "user-1", nil)
	link, err := store.Create("abc123", "https://example.com", "", &owner.ID)
	require.NoError(t, err)

	const workers = 8
	const perWorker = 50
	earned := decimal.RequireFromString("0.0025")
	ts := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < perWorker; i++ {
				if err := store.RecordVisit(visitAt(link.ID, &owner.ID, ts, "US", "mobile", earned)); err != nil {
					return err
				}
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	total := int64(workers * perWorker)
	got, err := store.FindByShortID("abc123")
	require.NoError(t, err)
	assert.Equal(t, total, got.Clicks)
	assert.Equal(t, total, got.DeviceStats.Mobile)

	wantEarnings := earned.Mul(decimal.NewFromInt(total))
	assert.True(t, wantEarnings.Equal(got.TotalEarnings),
		"want %s got %s", wantEarnings, got.TotalEarnings)

	countries, err := store.GetCountryStats(link.ID)
	require.NoError(t, err)
	assert.Equal(t, total, countries["US"])

	daily, err := store.GetDailyStats(link.ID, ts.AddDate(0, 0, -1))
	require.NoError(t, err)
	require.Len(t, daily, 1)
	assert.Equal(t, total, daily[0].Clicks)

	user, err := store.FindByID(owner.ID)
	require.NoError(t, err)
	assert.True(t, wantEarnings.Equal(user.PendingEarnings),
		"want %s got %s", wantEarnings, user.PendingEarnings)
}

func TestRecordVisit_ReferralCommissionSingleHop(t *testing.T) {
	store := New()
	grandReferrer := seedOwner(t, store, "user-grand", nil)
	referrer := seedOwner(t, store, "user-ref", &grandReferrer.ID)
	owner := seedOwner(t, store, "user-1", &referrer.ID)

	link, err := store.Create("abc123", "https://example.com", "", &owner.ID)
	require.NoError(t, err)

	earned := decimal.RequireFromString("0.0025")
	require.NoError(t, store.RecordVisit(visitAt(link.ID, &owner.ID, time.Now().UTC(), "US", "desktop", earned)))

	ownerRow, err := store.FindByID(owner.ID)
	require.NoError(t, err)
	assert.True(t, earned.Equal(ownerRow.PendingEarnings))

	// 20% of 0.0025
	cut := decimal.RequireFromString("0.0005")
	referrerRow, err := store.FindByID(referrer.ID)
	require.NoError(t, err)
	assert.True(t, cut.Equal(referrerRow.PendingEarnings), "got %s", referrerRow.PendingEarnings)
	assert.True(t, cut.Equal(referrerRow.ReferralEarnings))

	// Commission does not cascade up the chain.
	grandRow, err := store.FindByID(grandReferrer.ID)
	require.NoError(t, err)
	assert.True(t, grandRow.PendingEarnings.IsZero())
}

func TestRecordVisit_ZeroEarningSkipsLedger(t *testing.T) {
	store := New()
	owner := seedOwner(t, store, "user-1", nil)
	link, err := store.Create("abc123", "https://example.com", "", &owner.ID)
	require.NoError(t, err)

	require.NoError(t, store.RecordVisit(visitAt(link.ID, &owner.ID, time.Now().UTC(), "Unknown", "desktop", decimal.Zero)))

	got, err := store.FindByShortID("abc123")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Clicks)

	user, err := store.FindByID(owner.ID)
	require.NoError(t, err)
	assert.True(t, user.PendingEarnings.IsZero())
}

func TestDeactivate_HidesLinkFromGateLookup(t *testing.T) {
	store := New()
	owner := seedOwner(t, store, "user-1", nil)
	_, err := store.Create("abc123", "https://example.com", "", &owner.ID)
	require.NoError(t, err)

	require.NoError(t, store.Deactivate("abc123", owner.ID))

	_, err = store.FindByShortID("abc123")
	assert.ErrorIs(t, err, repository.ErrLinkNotFound)

	// The short ID stays claimed after deactivation.
	taken, err := store.Exists("abc123")
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestCreate_DuplicateShortID(t *testing.T) {
	store := New()
	_, err := store.Create("abc123", "https://example.com", "", nil)
	require.NoError(t, err)

	_, err = store.Create("abc123", "https://other.example.com", "", nil)
	assert.ErrorIs(t, err, repository.ErrDuplicateShortID)
}
