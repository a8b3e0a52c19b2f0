package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	"gately-be/internal/cache"
	"gately-be/internal/entities"
	"gately-be/internal/models"
	"gately-be/internal/repository"
)

const (
	shortIDLength = 6
	// URL-safe alphabet, same shape as nanoid's default
	shortIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789-_"

	// maxAllocationAttempts bounds the collision-retry loop. Collisions are
	// rare at this alphabet/length, so the bound is a safety net.
	maxAllocationAttempts = 5

	recentClicksShown = 50
)

var errShortIDCollision = errors.New("short id collision")

// LinkService defines the interface for link business logic
type LinkService interface {
	CreateLink(req *models.CreateLinkRequest, userID *string, baseURL string) (*models.CreateLinkResponse, error)
	GetGateLink(shortID string) (*entities.Link, error)
	GetUserLinks(userID string) ([]*models.LinkResponse, error)
	GetLinkAnalytics(shortID, userID string, days int) (*models.LinkAnalyticsResponse, error)
	DeactivateLink(shortID, userID string) error
}

type linkService struct {
	repo  repository.LinkRepository
	cache cache.Cache
	ctx   context.Context
}

// NewLinkService creates a new link service. cacheClient may be nil for
// graceful degradation without Redis.
func NewLinkService(repo repository.LinkRepository, cacheClient cache.Cache) LinkService {
	return &linkService{
		repo:  repo,
		cache: cacheClient,
		ctx:   context.Background(),
	}
}

// Reserved short IDs that cannot be used (route collisions and branding)
var reservedShortIDs = map[string]bool{
	"api":       true,
	"auth":      true,
	"health":    true,
	"login":     true,
	"register":  true,
	"shorten":   true,
	"links":     true,
	"step2":     true,
	"step3":     true,
	"qrcode":    true,
	"admin":     true,
	"www":       true,
	"dashboard": true,
	"withdraw":  true,
	"referral":  true,
}

var shortIDPattern = regexp.MustCompile("^[a-zA-Z0-9_-]+$")

// validateCustomShortID validates a user-supplied short ID
func validateCustomShortID(shortID string) error {
	if len(shortID) < 3 {
		return fmt.Errorf("short id must be at least 3 characters long")
	}
	if len(shortID) > 20 {
		return fmt.Errorf("short id must be at most 20 characters long")
	}
	if !shortIDPattern.MatchString(shortID) {
		return fmt.Errorf("short id can only contain letters, numbers, hyphens, and underscores")
	}
	if reservedShortIDs[strings.ToLower(shortID)] {
		return fmt.Errorf("short id '%s' is reserved and cannot be used", shortID)
	}
	return nil
}

// generateShortID generates a random fixed-length identifier
func generateShortID() (string, error) {
	bytes := make([]byte, shortIDLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	id := make([]byte, shortIDLength)
	for i, b := range bytes {
		id[i] = shortIDAlphabet[int(b)%len(shortIDAlphabet)]
	}
	return string(id), nil
}

// isShortIDTaken checks availability, Redis cache first when present
func (s *linkService) isShortIDTaken(shortID string) (bool, error) {
	cacheKey := fmt.Sprintf("shortid:exists:%s", shortID)
	if s.cache != nil {
		if val, err := s.cache.Get(s.ctx, cacheKey); err == nil && val == "taken" {
			return true, nil
		}
	}

	taken, err := s.repo.Exists(shortID)
	if err != nil {
		return false, err
	}
	if s.cache != nil {
		if taken {
			s.cache.Set(s.ctx, cacheKey, "taken", 1*time.Hour)
		} else {
			// short TTL: a parallel create may take it at any moment
			s.cache.Set(s.ctx, cacheKey, "available", 30*time.Second)
		}
	}
	return taken, nil
}

// allocateShortID draws random IDs until one is free, bounded to
// maxAllocationAttempts tries. Exhausting the bound is ErrAllocationExhausted.
func (s *linkService) allocateShortID() (string, error) {
	var shortID string
	backoff := retry.WithMaxRetries(maxAllocationAttempts-1, retry.NewConstant(time.Millisecond))

	err := retry.Do(s.ctx, backoff, func(ctx context.Context) error {
		candidate, err := generateShortID()
		if err != nil {
			return err
		}
		taken, err := s.isShortIDTaken(candidate)
		if err != nil {
			return err
		}
		if taken {
			return retry.RetryableError(errShortIDCollision)
		}
		shortID = candidate
		return nil
	})
	if err != nil {
		if errors.Is(err, errShortIDCollision) {
			return "", ErrAllocationExhausted
		}
		return "", err
	}
	return shortID, nil
}

// CreateLink creates a new short link, anonymous when userID is nil
func (s *linkService) CreateLink(req *models.CreateLinkRequest, userID *string, baseURL string) (*models.CreateLinkResponse, error) {
	var shortID string

	if req.ShortID != nil && *req.ShortID != "" {
		customID := strings.TrimSpace(*req.ShortID)
		if err := validateCustomShortID(customID); err != nil {
			return nil, err
		}
		taken, err := s.isShortIDTaken(customID)
		if err != nil {
			return nil, fmt.Errorf("failed to check short id availability: %w", err)
		}
		if taken {
			return nil, ErrShortIDTaken
		}
		shortID = customID
	} else {
		allocated, err := s.allocateShortID()
		if err != nil {
			return nil, err
		}
		shortID = allocated
	}

	link, err := s.repo.Create(shortID, req.URL, req.Title, userID)
	if err != nil {
		// Unique-constraint race between the availability check and the insert
		if errors.Is(err, repository.ErrDuplicateShortID) {
			s.markTaken(shortID)
			return nil, ErrShortIDTaken
		}
		return nil, fmt.Errorf("failed to create link: %w", err)
	}

	s.markTaken(shortID)
	s.cacheLink(link)

	return &models.CreateLinkResponse{
		ShortID:     link.ShortID,
		OriginalURL: link.OriginalURL,
		ShortURL:    fmt.Sprintf("%s/%s", baseURL, link.ShortID),
		Title:       link.Title,
		CreatedAt:   link.CreatedAt,
	}, nil
}

func (s *linkService) markTaken(shortID string) {
	if s.cache != nil {
		s.cache.Set(s.ctx, fmt.Sprintf("shortid:exists:%s", shortID), "taken", 1*time.Hour)
	}
}

func (s *linkService) cacheLink(link *entities.Link) {
	if s.cache != nil {
		s.cache.SetJSON(s.ctx, fmt.Sprintf("link:%s", link.ShortID), link, 1*time.Hour)
	}
}

// GetGateLink resolves an active link for the gate pipeline. Missing and
// inactive links are the same ErrLinkNotFound outcome.
func (s *linkService) GetGateLink(shortID string) (*entities.Link, error) {
	if s.cache != nil {
		var cached entities.Link
		if err := s.cache.GetJSON(s.ctx, fmt.Sprintf("link:%s", shortID), &cached); err == nil && cached.ID != "" {
			if cached.IsActive {
				return &cached, nil
			}
			s.cache.Delete(s.ctx, fmt.Sprintf("link:%s", shortID))
		}
	}

	link, err := s.repo.FindByShortID(shortID)
	if err != nil {
		return nil, err
	}
	s.cacheLink(link)
	return link, nil
}

// GetUserLinks retrieves all links for a specific user
func (s *linkService) GetUserLinks(userID string) ([]*models.LinkResponse, error) {
	links, err := s.repo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	responses := make([]*models.LinkResponse, len(links))
	for i, link := range links {
		responses[i] = &models.LinkResponse{
			ShortID:       link.ShortID,
			OriginalURL:   link.OriginalURL,
			Title:         link.Title,
			Clicks:        link.Clicks,
			TotalEarnings: link.TotalEarnings,
			IsActive:      link.IsActive,
			CreatedAt:     link.CreatedAt,
		}
	}
	return responses, nil
}

// GetLinkAnalytics returns daily/country/device breakdowns for one of the
// user's links. Daily buckets are bounded by the lookback window and sorted
// chronologically by the repository.
func (s *linkService) GetLinkAnalytics(shortID, userID string, days int) (*models.LinkAnalyticsResponse, error) {
	links, err := s.repo.GetByUserID(userID)
	if err != nil {
		return nil, err
	}

	var link *entities.Link
	for _, l := range links {
		if l.ShortID == shortID {
			link = l
			break
		}
	}
	if link == nil {
		return nil, repository.ErrLinkNotFound
	}

	since := time.Now().UTC().AddDate(0, 0, -days)
	daily, err := s.repo.GetDailyStats(link.ID, since)
	if err != nil {
		return nil, err
	}
	countries, err := s.repo.GetCountryStats(link.ID)
	if err != nil {
		return nil, err
	}
	recent, err := s.repo.GetRecentClicks(link.ID, recentClicksShown)
	if err != nil {
		return nil, err
	}

	return &models.LinkAnalyticsResponse{
		ShortID:       link.ShortID,
		Clicks:        link.Clicks,
		TotalEarnings: link.TotalEarnings,
		DailyStats:    daily,
		CountryStats:  countries,
		DeviceStats:   link.DeviceStats,
		RecentClicks:  recent,
	}, nil
}

// DeactivateLink soft-deletes a link and drops it from the lookup cache
func (s *linkService) DeactivateLink(shortID, userID string) error {
	err := s.repo.Deactivate(shortID, userID)
	if err == nil && s.cache != nil {
		s.cache.Delete(s.ctx, fmt.Sprintf("link:%s", shortID))
	}
	return err
}
