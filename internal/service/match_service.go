package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/refdesk/refdesk-api/internal/dto"
	"github.com/refdesk/refdesk-api/internal/models"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
)

type matchRepository interface {
	FindByID(ctx context.Context, id string) (*models.Match, error)
	FindDetailByID(ctx context.Context, id string) (*models.MatchDetail, error)
	List(ctx context.Context, filter models.MatchFilter) ([]models.MatchDetail, int, error)
	Create(ctx context.Context, match *models.Match) error
	Update(ctx context.Context, match *models.Match) error
	UpdateStatus(ctx context.Context, id string, status models.MatchStatus) error
}

type matchCompetitionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Competition, error)
}

type matchTeamRepository interface {
	FindByID(ctx context.Context, id string) (*models.Team, error)
}

type matchVenueRepository interface {
	FindByID(ctx context.Context, id string) (*models.Venue, error)
}

// MatchService manages the match schedule.
type MatchService struct {
	repo         matchRepository
	competitions matchCompetitionRepository
	teams        matchTeamRepository
	venues       matchVenueRepository
	cache        cacheInvalidator
	validator    *validator.Validate
	logger       *zap.Logger
}

// NewMatchService constructs the service.
func NewMatchService(repo matchRepository, competitions matchCompetitionRepository, teams matchTeamRepository, venues matchVenueRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *MatchService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &MatchService{
		repo:         repo,
		competitions: competitions,
		teams:        teams,
		venues:       venues,
		cache:        cache,
		validator:    validate,
		logger:       logger,
	}
}

// List returns matches matching the filter.
func (s *MatchService) List(ctx context.Context, filter models.MatchFilter) ([]models.MatchDetail, *models.Pagination, error) {
	matches, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list matches")
	}
	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return matches, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one match with descriptive names.
func (s *MatchService) Get(ctx context.Context, id string) (*models.MatchDetail, error) {
	match, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match")
	}
	return match, nil
}

// Create schedules a new match.
func (s *MatchService) Create(ctx context.Context, req dto.CreateMatchRequest) (*models.MatchDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid match payload")
	}

	scheduledAt, err := time.Parse(time.RFC3339, req.ScheduledAt)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "scheduledAt must be RFC 3339")
	}

	if _, err := s.competitions.FindByID(ctx, req.CompetitionID); err != nil {
		return nil, referencedEntityError(err, "competition")
	}
	if _, err := s.teams.FindByID(ctx, req.HomeTeamID); err != nil {
		return nil, referencedEntityError(err, "home team")
	}
	if _, err := s.teams.FindByID(ctx, req.AwayTeamID); err != nil {
		return nil, referencedEntityError(err, "away team")
	}
	if _, err := s.venues.FindByID(ctx, req.VenueID); err != nil {
		return nil, referencedEntityError(err, "venue")
	}

	match := &models.Match{
		CompetitionID: req.CompetitionID,
		HomeTeamID:    req.HomeTeamID,
		AwayTeamID:    req.AwayTeamID,
		VenueID:       req.VenueID,
		ScheduledAt:   scheduledAt.UTC(),
		Status:        models.MatchScheduled,
	}
	if err := s.repo.Create(ctx, match); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create match")
	}

	return s.Get(ctx, match.ID)
}

// Update reschedules a match to a new venue or time.
func (s *MatchService) Update(ctx context.Context, id string, req dto.UpdateMatchRequest) (*models.MatchDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid match payload")
	}

	match, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match")
	}
	if !match.Editable() {
		return nil, appErrors.Clone(appErrors.ErrMatchNotEditable, "")
	}

	if req.VenueID != nil {
		if _, err := s.venues.FindByID(ctx, *req.VenueID); err != nil {
			return nil, referencedEntityError(err, "venue")
		}
		match.VenueID = *req.VenueID
	}
	if req.ScheduledAt != nil {
		scheduledAt, err := time.Parse(time.RFC3339, *req.ScheduledAt)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "scheduledAt must be RFC 3339")
		}
		match.ScheduledAt = scheduledAt.UTC()
	}
	match.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, match); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update match")
	}

	// Moving the date changes availability and engagement annotations.
	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "roster:*"); err != nil {
			s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
		}
	}

	return s.Get(ctx, id)
}

// SetStatus drives the match lifecycle through its allowed transitions.
func (s *MatchService) SetStatus(ctx context.Context, id string, req dto.SetMatchStatusRequest) (*models.MatchDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	match, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match")
	}

	if match.Status != req.Status && !models.ValidMatchStatusTransition(match.Status, req.Status) {
		return nil, appErrors.WithDetails(appErrors.ErrConflict, map[string]interface{}{
			"from": match.Status,
			"to":   req.Status,
		})
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update match status")
	}

	if s.cache != nil {
		if err := s.cache.DeleteByPattern(ctx, "roster:*"); err != nil {
			s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
		}
	}

	return s.Get(ctx, id)
}

func referencedEntityError(err error, entity string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.Clone(appErrors.ErrValidation, entity+" does not exist")
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+entity)
}
