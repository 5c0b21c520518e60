package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/refdesk/refdesk-api/internal/dto"
	"github.com/refdesk/refdesk-api/internal/models"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
)

const dashboardCacheKey = "dashboard:summary"

type dashboardDelegationRepository interface {
	CountOpenSlots(ctx context.Context, from time.Time) (int, error)
	CountResponses(ctx context.Context, status models.ResponseStatus) (int, error)
	CountByStatus(ctx context.Context, status models.DelegationStatus) (int, error)
}

type dashboardMatchRepository interface {
	CountUpcoming(ctx context.Context, from time.Time) (int, error)
}

type dashboardRefereeRepository interface {
	CountActive(ctx context.Context) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// DashboardService aggregates the landing-page figures, cached briefly
// since every admin hits it on login.
type DashboardService struct {
	delegations dashboardDelegationRepository
	matches     dashboardMatchRepository
	referees    dashboardRefereeRepository
	cache       dashboardCache
	cacheTTL    time.Duration
	logger      *zap.Logger
}

// NewDashboardService constructs the service.
func NewDashboardService(delegations dashboardDelegationRepository, matches dashboardMatchRepository, referees dashboardRefereeRepository, cache dashboardCache, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		delegations: delegations,
		matches:     matches,
		referees:    referees,
		cache:       cache,
		cacheTTL:    cacheTTL,
		logger:      logger,
	}
}

// Summary computes or serves the cached dashboard aggregate.
func (s *DashboardService) Summary(ctx context.Context) (*dto.DashboardSummary, error) {
	if s.cache != nil {
		var cached dto.DashboardSummary
		if err := s.cache.Get(ctx, dashboardCacheKey, &cached); err == nil {
			return &cached, nil
		} else if !appErrors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	now := time.Now().UTC()

	upcoming, err := s.matches.CountUpcoming(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count upcoming matches")
	}
	openSlots, err := s.delegations.CountOpenSlots(ctx, now)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count open slots")
	}
	pending, err := s.delegations.CountResponses(ctx, models.ResponsePending)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count pending responses")
	}
	accepted, err := s.delegations.CountResponses(ctx, models.ResponseAccepted)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count accepted responses")
	}
	declined, err := s.delegations.CountResponses(ctx, models.ResponseDeclined)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count declined responses")
	}
	confirmed, err := s.delegations.CountByStatus(ctx, models.DelegationConfirmed)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count confirmed delegations")
	}
	activeRefs, err := s.referees.CountActive(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count active referees")
	}

	summary := &dto.DashboardSummary{
		UpcomingMatches:      upcoming,
		OpenSlots:            openSlots,
		PendingResponses:     pending,
		ConfirmedDelegations: confirmed,
		ActiveReferees:       activeRefs,
	}
	if responded := accepted + declined; responded > 0 {
		summary.DeclineRate = float64(declined) / float64(responded)
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardCacheKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}

	return summary, nil
}
