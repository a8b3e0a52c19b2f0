package service

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"gately-be/internal/entities"
	"gately-be/internal/models"
	"gately-be/internal/repository"
	"gately-be/internal/repository/mocks"
)

const testBaseURL = "http://localhost:8080"

func strPtr(s string) *string { return &s }

func TestCreateLink_GeneratedShortID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLinkRepository(ctrl)
	repo.EXPECT().Exists(gomock.Any()).Return(false, nil)
	repo.EXPECT().Create(gomock.Any(), "https://example.com/article", "My article", gomock.Nil()).
		DoAndReturn(func(shortID, originalURL, title string, userID *string) (*entities.Link, error) {
			return &entities.Link{
				ID:          "link-000001",
				ShortID:     shortID,
				OriginalURL: originalURL,
				Title:       title,
				IsActive:    true,
				CreatedAt:   time.Now().UTC(),
			}, nil
		})

	svc := NewLinkService(repo, nil)
	resp, err := svc.CreateLink(&models.CreateLinkRequest{
		URL:   "https://example.com/article",
		Title: "My article",
	}, nil, testBaseURL)

	require.NoError(t, err)
	assert.Len(t, resp.ShortID, shortIDLength)
	assert.Equal(t, testBaseURL+"/"+resp.ShortID, resp.ShortURL)
	for _, ch := range resp.ShortID {
		assert.True(t, strings.ContainsRune(shortIDAlphabet, ch), "unexpected character %q", ch)
	}
}

func TestCreateLink_AllocationExhaustsAfterFiveAttempts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLinkRepository(ctrl)
	// Every candidate collides; the allocator must stop after exactly five draws.
	repo.EXPECT().Exists(gomock.Any()).Return(true, nil).Times(maxAllocationAttempts)

	svc := NewLinkService(repo, nil)
	_, err := svc.CreateLink(&models.CreateLinkRequest{URL: "https://example.com"}, nil, testBaseURL)

	assert.ErrorIs(t, err, ErrAllocationExhausted)
}

func TestCreateLink_CustomShortID(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	userID := "user-1"
	repo := mocks.NewMockLinkRepository(ctrl)
	repo.EXPECT().Exists("my-page").Return(false, nil)
	repo.EXPECT().Create("my-page", "https://example.com", "", &userID).
		Return(&entities.Link{
			ID:          "link-000001",
			ShortID:     "my-page",
			OriginalURL: "https://example.com",
			IsActive:    true,
		}, nil)

	svc := NewLinkService(repo, nil)
	resp, err := svc.CreateLink(&models.CreateLinkRequest{
		URL:     "https://example.com",
		ShortID: strPtr("my-page"),
	}, &userID, testBaseURL)

	require.NoError(t, err)
	assert.Equal(t, "my-page", resp.ShortID)
}

func TestCreateLink_CustomShortIDTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLinkRepository(ctrl)
	repo.EXPECT().Exists("popular").Return(true, nil)

	svc := NewLinkService(repo, nil)
	_, err := svc.CreateLink(&models.CreateLinkRequest{
		URL:     "https://example.com",
		ShortID: strPtr("popular"),
	}, nil, testBaseURL)

	assert.ErrorIs(t, err, ErrShortIDTaken)
}

func TestCreateLink_InsertRaceMapsToTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	// Available at check time, duplicate at insert time.
	repo := mocks.NewMockLinkRepository(ctrl)
	repo.EXPECT().Exists("raced").Return(false, nil)
	repo.EXPECT().Create("raced", gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, repository.ErrDuplicateShortID)

	svc := NewLinkService(repo, nil)
	_, err := svc.CreateLink(&models.CreateLinkRequest{
		URL:     "https://example.com",
		ShortID: strPtr("raced"),
	}, nil, testBaseURL)

	assert.ErrorIs(t, err, ErrShortIDTaken)
}

func TestCreateLink_CustomShortIDValidation(t *testing.T) {
	tests := []struct {
		name    string
		shortID string
	}{
		{"too short", "ab"},
		{"too long", strings.Repeat("a", 21)},
		{"illegal characters", "has space"},
		{"reserved route word", "api"},
		{"reserved gate step", "step2"},
		{"reserved is case insensitive", "Health"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			svc := NewLinkService(mocks.NewMockLinkRepository(ctrl), nil)
			_, err := svc.CreateLink(&models.CreateLinkRequest{
				URL:     "https://example.com",
				ShortID: strPtr(tt.shortID),
			}, nil, testBaseURL)

			assert.Error(t, err)
		})
	}
}

func TestGetGateLink_InactiveIsNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLinkRepository(ctrl)
	repo.EXPECT().FindByShortID("dead99").Return(nil, repository.ErrLinkNotFound)

	svc := NewLinkService(repo, nil)
	_, err := svc.GetGateLink("dead99")

	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}

func TestGetLinkAnalytics_RequiresOwnership(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	repo := mocks.NewMockLinkRepository(ctrl)
	// The caller owns other links, but not this one.
	repo.EXPECT().GetByUserID("user-1").Return([]*entities.Link{
		{ID: "link-000009", ShortID: "mine01"},
	}, nil)

	svc := NewLinkService(repo, nil)
	_, err := svc.GetLinkAnalytics("theirs", "user-1", 30)

	assert.ErrorIs(t, err, repository.ErrLinkNotFound)
}
