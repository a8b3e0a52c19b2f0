// Package memstore is an in-memory implementation of the repository
// interfaces. It backs tests and local runs without Postgres; per-link and
// ledger updates are serialized by a store-wide mutex, which preserves the
// same no-lost-updates guarantee the SQL implementation gets from atomic
// increments.
package memstore

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"gately-be/internal/entities"
	"gately-be/internal/repository"
)

type dayKey struct {
	year  int
	month time.Month
	day   int
}

type linkState struct {
	link      entities.Link
	countries map[string]int64
	daily     map[dayKey]*entities.DailyStat
	clicks    []entities.Click // ring buffer, newest last
}

// Store holds all tables behind one mutex
type Store struct {
	mu      sync.Mutex
	links   map[string]*linkState // by link ID
	byShort map[string]string     // short ID -> link ID
	users   map[string]*entities.User
	payouts map[string][]*entities.Payout
	nextID  int64
}

// New creates an empty store
func New() *Store {
	return &Store{
		links:   make(map[string]*linkState),
		byShort: make(map[string]string),
		users:   make(map[string]*entities.User),
		payouts: make(map[string][]*entities.Payout),
	}
}

var _ repository.LinkRepository = (*Store)(nil)
var _ repository.ClickRepository = (*Store)(nil)
var _ repository.UserRepository = usersView{}
var _ repository.PayoutRepository = payoutsView{}

// Users exposes the store as a repository.UserRepository. The wrapper exists
// because Create/GetByUserID collide with the link-side method set.
func (s *Store) Users() repository.UserRepository { return usersView{s} }

// Payouts exposes the store as a repository.PayoutRepository
func (s *Store) Payouts() repository.PayoutRepository { return payoutsView{s} }

type usersView struct{ s *Store }

func (v usersView) Create(params repository.CreateUserParams) (*entities.User, error) {
	return v.s.CreateUser(params)
}
func (v usersView) FindByEmail(email string) (*entities.User, error) { return v.s.FindByEmail(email) }
func (v usersView) FindByID(id string) (*entities.User, error)       { return v.s.FindByID(id) }
func (v usersView) FindByReferralCode(code string) (*entities.User, error) {
	return v.s.FindByReferralCode(code)
}
func (v usersView) GetReferrals(userID string) ([]*entities.User, error) {
	return v.s.GetReferrals(userID)
}

type payoutsView struct{ s *Store }

func (v payoutsView) Create(userID string, amount decimal.Decimal, method string, details map[string]string) (*entities.Payout, error) {
	return v.s.CreatePayout(userID, amount, method, details)
}
func (v payoutsView) GetByUserID(userID string) ([]*entities.Payout, error) {
	return v.s.GetPayoutsByUserID(userID)
}
func (v payoutsView) HasOpenRequest(userID string) (bool, error) { return v.s.HasOpenRequest(userID) }

func (s *Store) newID(prefix string) string {
	s.nextID++
	return fmt.Sprintf("%s-%06d", prefix, s.nextID)
}

// Create inserts a new link
func (s *Store) Create(shortID, originalURL, title string, userID *string) (*entities.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.byShort[shortID]; taken {
		return nil, repository.ErrDuplicateShortID
	}

	now := time.Now().UTC()
	link := entities.Link{
		ID:            s.newID("link"),
		ShortID:       shortID,
		OriginalURL:   originalURL,
		Title:         title,
		UserID:        userID,
		TotalEarnings: decimal.Zero,
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	s.links[link.ID] = &linkState{
		link:      link,
		countries: make(map[string]int64),
		daily:     make(map[dayKey]*entities.DailyStat),
	}
	s.byShort[shortID] = link.ID

	copied := link
	return &copied, nil
}

// FindByShortID finds an active link; inactive reports not found
func (s *Store) FindByShortID(shortID string) (*entities.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byShort[shortID]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	state := s.links[id]
	if !state.link.IsActive {
		return nil, repository.ErrLinkNotFound
	}
	copied := state.link
	return &copied, nil
}

// Exists reports whether the short ID is taken, active or not
func (s *Store) Exists(shortID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byShort[shortID]
	return ok, nil
}

// GetByUserID lists a user's links, newest first
func (s *Store) GetByUserID(userID string) ([]*entities.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var links []*entities.Link
	for _, state := range s.links {
		if state.link.UserID != nil && *state.link.UserID == userID {
			copied := state.link
			links = append(links, &copied)
		}
	}
	sort.Slice(links, func(i, j int) bool { return links[i].CreatedAt.After(links[j].CreatedAt) })
	return links, nil
}

// Deactivate soft-deletes a link owned by the user
func (s *Store) Deactivate(shortID string, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byShort[shortID]
	if !ok {
		return repository.ErrLinkNotFound
	}
	state := s.links[id]
	if state.link.UserID == nil || *state.link.UserID != userID {
		return repository.ErrLinkNotFound
	}
	state.link.IsActive = false
	state.link.UpdatedAt = time.Now().UTC()
	return nil
}

// RecordVisit applies the full aggregate update and ledger for one visit
func (s *Store) RecordVisit(visit *entities.Visit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.links[visit.LinkID]
	if !ok {
		return repository.ErrLinkNotFound
	}

	click := visit.Click
	click.LinkID = visit.LinkID
	s.nextID++
	click.ID = s.nextID

	state.link.Clicks++
	state.link.TotalEarnings = state.link.TotalEarnings.Add(click.Earned)
	state.link.UpdatedAt = time.Now().UTC()

	switch click.Device {
	case "desktop":
		state.link.DeviceStats.Desktop++
	case "mobile":
		state.link.DeviceStats.Mobile++
	case "tablet":
		state.link.DeviceStats.Tablet++
	default:
		state.link.DeviceStats.Unknown++
	}

	state.countries[click.Country]++

	ts := click.Timestamp.UTC()
	key := dayKey{ts.Year(), ts.Month(), ts.Day()}
	bucket, ok := state.daily[key]
	if !ok {
		bucket = &entities.DailyStat{
			LinkID:    visit.LinkID,
			Date:      time.Date(ts.Year(), ts.Month(), ts.Day(), 0, 0, 0, 0, time.UTC),
			Earnings:  decimal.Zero,
			Countries: make(map[string]int64),
		}
		state.daily[key] = bucket
	}
	bucket.Clicks++
	bucket.Earnings = bucket.Earnings.Add(click.Earned)
	bucket.Countries[click.Country]++

	state.clicks = append(state.clicks, click)
	if len(state.clicks) > repository.RecentClickCapacity {
		state.clicks = state.clicks[len(state.clicks)-repository.RecentClickCapacity:]
	}

	if visit.OwnerID != nil && click.Earned.IsPositive() {
		s.creditLocked(*visit.OwnerID, click.Earned)
	}
	return nil
}

func (s *Store) creditLocked(ownerID string, earned decimal.Decimal) {
	owner, ok := s.users[ownerID]
	if !ok {
		return // missing account is a no-op
	}
	owner.TotalEarnings = owner.TotalEarnings.Add(earned)
	owner.PendingEarnings = owner.PendingEarnings.Add(earned)

	if owner.ReferredBy == nil {
		return
	}
	referrer, ok := s.users[*owner.ReferredBy]
	if !ok {
		return
	}
	cut := earned.Mul(referrer.ReferralCommission).Div(decimal.NewFromInt(100))
	if !cut.IsPositive() {
		return
	}
	referrer.TotalEarnings = referrer.TotalEarnings.Add(cut)
	referrer.PendingEarnings = referrer.PendingEarnings.Add(cut)
	referrer.ReferralEarnings = referrer.ReferralEarnings.Add(cut)
}

// GetDailyStats returns day buckets since the given day, oldest first
func (s *Store) GetDailyStats(linkID string, since time.Time) ([]*entities.DailyStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.links[linkID]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}

	var stats []*entities.DailyStat
	for _, bucket := range state.daily {
		if bucket.Date.Before(since.UTC().Truncate(24 * time.Hour)) {
			continue
		}
		copied := *bucket
		copied.Countries = make(map[string]int64, len(bucket.Countries))
		for c, n := range bucket.Countries {
			copied.Countries[c] = n
		}
		stats = append(stats, &copied)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date.Before(stats[j].Date) })
	return stats, nil
}

// GetCountryStats returns the lifetime country breakdown
func (s *Store) GetCountryStats(linkID string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.links[linkID]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	stats := make(map[string]int64, len(state.countries))
	for c, n := range state.countries {
		stats[c] = n
	}
	return stats, nil
}

// GetRecentClicks returns the newest clicks first
func (s *Store) GetRecentClicks(linkID string, limit int) ([]*entities.Click, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.links[linkID]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}

	var clicks []*entities.Click
	for i := len(state.clicks) - 1; i >= 0 && len(clicks) < limit; i-- {
		copied := state.clicks[i]
		clicks = append(clicks, &copied)
	}
	return clicks, nil
}

// GetOwnerDailyStats aggregates day buckets across all of a user's links
func (s *Store) GetOwnerDailyStats(userID string, since time.Time) ([]*entities.DailyStat, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	byDay := make(map[dayKey]*entities.DailyStat)
	for _, state := range s.links {
		if state.link.UserID == nil || *state.link.UserID != userID {
			continue
		}
		for key, bucket := range state.daily {
			if bucket.Date.Before(since.UTC().Truncate(24 * time.Hour)) {
				continue
			}
			agg, ok := byDay[key]
			if !ok {
				agg = &entities.DailyStat{Date: bucket.Date, Earnings: decimal.Zero}
				byDay[key] = agg
			}
			agg.Clicks += bucket.Clicks
			agg.Earnings = agg.Earnings.Add(bucket.Earnings)
		}
	}

	var stats []*entities.DailyStat
	for _, agg := range byDay {
		stats = append(stats, agg)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Date.Before(stats[j].Date) })
	return stats, nil
}

// CreateUser inserts a user; exported with a distinct name because Create is
// taken by the link side of the store.
func (s *Store) CreateUser(params repository.CreateUserParams) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, params.Email) {
			return nil, fmt.Errorf("user with email %s already exists", params.Email)
		}
	}

	now := time.Now().UTC()
	user := &entities.User{
		ID:                 s.newID("user"),
		Email:              params.Email,
		PasswordHash:       params.PasswordHash,
		Name:               params.Name,
		TotalEarnings:      decimal.Zero,
		PendingEarnings:    decimal.Zero,
		PaidEarnings:       decimal.Zero,
		ReferralEarnings:   decimal.Zero,
		CPMRate:            decimal.RequireFromString("2.5"),
		ReferralCommission: decimal.NewFromInt(20),
		ReferralCode:       params.ReferralCode,
		ReferredBy:         params.ReferredBy,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	s.users[user.ID] = user

	if params.ReferredBy != nil {
		if referrer, ok := s.users[*params.ReferredBy]; ok {
			referrer.ReferralCount++
		}
	}

	copied := *user
	return &copied, nil
}

// PutUser inserts or replaces a fully-formed user row, for test seeding
func (s *Store) PutUser(user *entities.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *user
	s.users[user.ID] = &copied
}

// FindByEmail finds a user by email
func (s *Store) FindByEmail(email string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// FindByID finds a user by ID
func (s *Store) FindByID(id string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

// FindByReferralCode finds a user by referral code
func (s *Store) FindByReferralCode(code string) (*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.ReferralCode == code {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// GetReferrals lists users referred by the given user, newest first
func (s *Store) GetReferrals(userID string) ([]*entities.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var users []*entities.User
	for _, u := range s.users {
		if u.ReferredBy != nil && *u.ReferredBy == userID {
			copied := *u
			users = append(users, &copied)
		}
	}
	sort.Slice(users, func(i, j int) bool { return users[i].CreatedAt.After(users[j].CreatedAt) })
	return users, nil
}

// CreatePayout deducts pending earnings and records the payout request
func (s *Store) CreatePayout(userID string, amount decimal.Decimal, method string, details map[string]string) (*entities.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	if user.PendingEarnings.LessThan(amount) {
		return nil, repository.ErrInsufficientBalance
	}
	user.PendingEarnings = user.PendingEarnings.Sub(amount)

	payout := &entities.Payout{
		ID:        s.newID("payout"),
		UserID:    userID,
		Amount:    amount,
		Method:    method,
		Details:   details,
		Status:    entities.PayoutStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	s.payouts[userID] = append(s.payouts[userID], payout)

	copied := *payout
	return &copied, nil
}

// GetPayoutsByUserID lists a user's payout requests, newest first
func (s *Store) GetPayoutsByUserID(userID string) ([]*entities.Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := s.payouts[userID]
	payouts := make([]*entities.Payout, 0, len(list))
	for i := len(list) - 1; i >= 0; i-- {
		copied := *list[i]
		payouts = append(payouts, &copied)
	}
	return payouts, nil
}

// HasOpenRequest reports whether the user has a pending or processing payout
func (s *Store) HasOpenRequest(userID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.payouts[userID] {
		if p.Status == entities.PayoutStatusPending || p.Status == entities.PayoutStatusProcessing {
			return true, nil
		}
	}
	return false, nil
}
