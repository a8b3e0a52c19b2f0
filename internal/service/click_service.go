package service

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"gately-be/internal/analytics"
	"gately-be/internal/entities"
	"gately-be/internal/repository"
)

// VisitInfo is the raw request metadata the gate handler hands to the pipeline
type VisitInfo struct {
	UserAgent    string
	ForwardedFor string // raw X-Forwarded-For chain, may be empty
	RemoteAddr   string
	Referer      string
	Timestamp    time.Time // zero means now
}

// ClickService runs the attribution pipeline for one gate visit:
// classify the visitor, compute the earning, then persist the aggregate
// update and ledger in one shot.
type ClickService interface {
	TrackVisit(link *entities.Link, info VisitInfo) (*entities.Click, error)
}

type clickService struct {
	clickRepo repository.ClickRepository
	userRepo  repository.UserRepository
	geo       analytics.Resolver
}

// NewClickService creates a new click service. geo may be nil, in which case
// every visit resolves to Unknown.
func NewClickService(clickRepo repository.ClickRepository, userRepo repository.UserRepository, geo analytics.Resolver) ClickService {
	return &clickService{
		clickRepo: clickRepo,
		userRepo:  userRepo,
		geo:       geo,
	}
}

// TrackVisit classifies the visitor and records the click. Classification
// never fails; storage failure is returned so the caller can degrade to a
// plain redirect, and in that case nothing of the visit is persisted.
func (s *clickService) TrackVisit(link *entities.Link, info VisitInfo) (*entities.Click, error) {
	ua := analytics.ParseUserAgent(info.UserAgent)
	ip := analytics.ClientIP(info.ForwardedFor, info.RemoteAddr)
	loc := analytics.ResolveIP(s.geo, ip)

	// Anonymous links and missing owner accounts earn nothing; the click
	// still counts in every aggregate.
	earned := decimal.Zero
	if link.UserID != nil {
		owner, err := s.userRepo.FindByID(*link.UserID)
		if err == nil {
			earned = analytics.CalculateEarnings(loc.Country, owner.CPMRate)
		}
	}

	ts := info.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}

	click := entities.Click{
		LinkID:    link.ID,
		Timestamp: ts.UTC(),
		Country:   loc.Country,
		City:      loc.City,
		Region:    loc.Region,
		IP:        ip,
		UserAgent: info.UserAgent,
		Referer:   info.Referer,
		Device:    ua.Device,
		Browser:   ua.Browser,
		OS:        ua.OS,
		Earned:    earned,
	}

	visit := &entities.Visit{
		LinkID:  link.ID,
		OwnerID: link.UserID,
		Click:   click,
	}
	if err := s.clickRepo.RecordVisit(visit); err != nil {
		logrus.WithError(err).WithFields(logrus.Fields{
			"short_id": link.ShortID,
			"country":  click.Country,
			"device":   click.Device,
		}).Error("failed to record gate visit")
		return &click, fmt.Errorf("failed to record visit: %w", err)
	}

	return &click, nil
}
