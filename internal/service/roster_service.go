package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/refdesk/refdesk-api/internal/dto"
	"github.com/refdesk/refdesk-api/internal/models"
	"github.com/refdesk/refdesk-api/internal/repository"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
)

type rosterRefereeRepository interface {
	ListActive(ctx context.Context) ([]models.Referee, error)
}

type rosterMatchRepository interface {
	FindByID(ctx context.Context, id string) (*models.Match, error)
}

type rosterAvailabilityRepository interface {
	MapByDate(ctx context.Context, date time.Time) (map[string]models.AvailabilityRecord, error)
}

type rosterEngagementRepository interface {
	ListEngagementsOn(ctx context.Context, date time.Time, excludeMatchID string) ([]repository.RefereeEngagement, error)
}

type rosterCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// RosterService builds candidate lists for match delegation. The list
// annotates availability and same-day engagements but filters on
// neither; excluding referees is the engine's call, not the roster's.
type RosterService struct {
	referees     rosterRefereeRepository
	matches      rosterMatchRepository
	availability rosterAvailabilityRepository
	engagements  rosterEngagementRepository
	cache        rosterCache
	cacheTTL     time.Duration
	logger       *zap.Logger
}

// NewRosterService constructs the service.
func NewRosterService(referees rosterRefereeRepository, matches rosterMatchRepository, availability rosterAvailabilityRepository, engagements rosterEngagementRepository, cache rosterCache, cacheTTL time.Duration, logger *zap.Logger) *RosterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RosterService{
		referees:     referees,
		matches:      matches,
		availability: availability,
		engagements:  engagements,
		cache:        cache,
		cacheTTL:     cacheTTL,
		logger:       logger,
	}
}

// ListCandidates returns every active referee annotated for the match
// date, ordered by license seniority then name.
func (s *RosterService) ListCandidates(ctx context.Context, matchID string) ([]dto.CandidateItem, error) {
	match, err := s.matches.FindByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match")
	}

	cacheKey := fmt.Sprintf("roster:candidates:%s", matchID)
	if s.cache != nil {
		var cached []dto.CandidateItem
		if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
			return cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("roster cache read failed", zap.Error(err))
		}
	}

	referees, err := s.referees.ListActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list referees")
	}

	availability, err := s.availability.MapByDate(ctx, match.ScheduledAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve availability")
	}

	engaged, err := s.engagements.ListEngagementsOn(ctx, match.ScheduledAt, matchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve engagements")
	}
	engagedByReferee := make(map[string][]string, len(engaged))
	for _, e := range engaged {
		engagedByReferee[e.RefereeID] = append(engagedByReferee[e.RefereeID], e.MatchID)
	}

	items := make([]dto.CandidateItem, 0, len(referees))
	for _, ref := range referees {
		item := dto.CandidateItem{
			RefereeID:  ref.ID,
			FullName:   ref.FullName,
			License:    ref.License,
			City:       ref.City,
			Experience: ref.Experience,
			Available:  true,
		}
		if rec, ok := availability[ref.ID]; ok && !rec.Available {
			item.Available = false
			item.UnavailableReason = rec.Reason
		}
		item.EngagedMatchIDs = engagedByReferee[ref.ID]
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		li, lj := licenseRank(items[i].License), licenseRank(items[j].License)
		if li != lj {
			return li < lj
		}
		return items[i].FullName < items[j].FullName
	})

	if s.cache != nil {
		if err := s.cache.Set(ctx, cacheKey, items, s.cacheTTL); err != nil {
			s.logger.Warn("roster cache write failed", zap.Error(err))
		}
	}

	return items, nil
}

func licenseRank(l models.LicenseCategory) int {
	switch l {
	case models.LicenseInternational:
		return 0
	case models.LicenseA:
		return 1
	case models.LicenseB:
		return 2
	case models.LicenseC:
		return 3
	case models.LicenseRegional:
		return 4
	default:
		return 5
	}
}
