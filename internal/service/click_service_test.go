package service

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gately-be/internal/analytics"
	"gately-be/internal/entities"
	"gately-be/internal/repository"
	"gately-be/internal/repository/mocks"
)

type fixedResolver struct {
	loc analytics.Location
}

func (f fixedResolver) Lookup(net.IP) (analytics.Location, error) {
	return f.loc, nil
}

func ownedLink(ownerID string) *entities.Link {
	return &entities.Link{
		ID:      "link-000001",
		ShortID: "abc123",
		UserID:  &ownerID,
	}
}

func TestTrackVisit_OwnerEarnsByCountryTier(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clickRepo := mocks.NewMockClickRepository(ctrl)
	userRepo := mocks.NewMockUserRepository(ctrl)
	resolver := fixedResolver{loc: analytics.Location{Country: "US", City: "Ashburn", Region: "VA"}}

	userRepo.EXPECT().FindByID("user-1").Return(&entities.User{
		ID:      "user-1",
		CPMRate: decimal.RequireFromString("2.5"),
	}, nil)

	var recorded *entities.Visit
	clickRepo.EXPECT().RecordVisit(gomock.Any()).DoAndReturn(func(v *entities.Visit) error {
		recorded = v
		return nil
	})

	svc := NewClickService(clickRepo, userRepo, resolver)
	click, err := svc.TrackVisit(ownedLink("user-1"), VisitInfo{
		UserAgent:  "Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0 Safari/537.36",
		RemoteAddr: "203.0.113.9:51123",
		Timestamp:  time.Date(2026, 3, 14, 15, 9, 26, 0, time.UTC),
	})

	require.NoError(t, err)
	require.NotNil(t, recorded)
	assert.Equal(t, "link-000001", recorded.LinkID)
	require.NotNil(t, recorded.OwnerID)
	assert.Equal(t, "user-1", *recorded.OwnerID)

	// tier 1 at $2.50 CPM is $0.0025 per click
	assert.True(t, decimal.RequireFromString("0.0025").Equal(click.Earned))
	assert.Equal(t, "US", click.Country)
	assert.Equal(t, "desktop", click.Device)
	assert.Equal(t, "Chrome", click.Browser)
}

func TestTrackVisit_AnonymousLinkEarnsNothing(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clickRepo := mocks.NewMockClickRepository(ctrl)
	userRepo := mocks.NewMockUserRepository(ctrl) // no FindByID expectation: must not be called

	var recorded *entities.Visit
	clickRepo.EXPECT().RecordVisit(gomock.Any()).DoAndReturn(func(v *entities.Visit) error {
		recorded = v
		return nil
	})

	svc := NewClickService(clickRepo, userRepo, fixedResolver{loc: analytics.Location{Country: "US"}})
	click, err := svc.TrackVisit(&entities.Link{ID: "link-000002", ShortID: "anon42"}, VisitInfo{
		UserAgent:  "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0) Safari/604.1",
		RemoteAddr: "203.0.113.9:51123",
	})

	require.NoError(t, err)
	assert.True(t, click.Earned.IsZero())
	assert.Nil(t, recorded.OwnerID)
	assert.Equal(t, "mobile", click.Device)
}

func TestTrackVisit_MissingOwnerStillCounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clickRepo := mocks.NewMockClickRepository(ctrl)
	userRepo := mocks.NewMockUserRepository(ctrl)

	userRepo.EXPECT().FindByID("user-gone").Return(nil, repository.ErrUserNotFound)
	clickRepo.EXPECT().RecordVisit(gomock.Any()).Return(nil)

	svc := NewClickService(clickRepo, userRepo, fixedResolver{loc: analytics.Location{Country: "US"}})
	click, err := svc.TrackVisit(ownedLink("user-gone"), VisitInfo{
		UserAgent:  "curl/8.4.0",
		RemoteAddr: "203.0.113.9:51123",
	})

	require.NoError(t, err)
	assert.True(t, click.Earned.IsZero())
}

func TestTrackVisit_StorageFailureReturnsClassifiedClick(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clickRepo := mocks.NewMockClickRepository(ctrl)
	userRepo := mocks.NewMockUserRepository(ctrl)

	clickRepo.EXPECT().RecordVisit(gomock.Any()).Return(errors.New("connection reset"))

	svc := NewClickService(clickRepo, userRepo, nil)
	click, err := svc.TrackVisit(&entities.Link{ID: "link-000003", ShortID: "xyz789"}, VisitInfo{
		UserAgent:  "Mozilla/5.0 (X11; Linux x86_64) Firefox/121.0",
		RemoteAddr: "203.0.113.9:51123",
	})

	require.Error(t, err)
	require.NotNil(t, click)
	assert.Equal(t, "Firefox", click.Browser)
}

func TestTrackVisit_NilResolverResolvesUnknown(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	clickRepo := mocks.NewMockClickRepository(ctrl)
	userRepo := mocks.NewMockUserRepository(ctrl)

	userRepo.EXPECT().FindByID("user-1").Return(&entities.User{
		ID:      "user-1",
		CPMRate: decimal.RequireFromString("2.5"),
	}, nil)
	clickRepo.EXPECT().RecordVisit(gomock.Any()).Return(nil)

	svc := NewClickService(clickRepo, userRepo, nil)
	click, err := svc.TrackVisit(ownedLink("user-1"), VisitInfo{
		UserAgent:  "curl/8.4.0",
		RemoteAddr: "203.0.113.9:51123",
	})

	require.NoError(t, err)
	assert.Equal(t, analytics.UnknownCountry, click.Country)
	// Unknown country still pays the default tier
	assert.True(t, decimal.RequireFromString("0.0005").Equal(click.Earned))
}
