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

type refereeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Referee, error)
	FindByUserID(ctx context.Context, userID string) (*models.Referee, error)
	List(ctx context.Context, filter models.RefereeFilter) ([]models.Referee, int, error)
	Create(ctx context.Context, referee *models.Referee) error
	Update(ctx context.Context, referee *models.Referee) error
	SetStatus(ctx context.Context, id string, status models.RefereeStatus) error
}

type refereeUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

// RefereeService manages referee profiles. The delegation engine reads
// these records but never writes them.
type RefereeService struct {
	repo      refereeRepository
	users     refereeUserRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewRefereeService constructs the service.
func NewRefereeService(repo refereeRepository, users refereeUserRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *RefereeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &RefereeService{repo: repo, users: users, cache: cache, validator: validate, logger: logger}
}

// List returns referees matching the filter.
func (s *RefereeService) List(ctx context.Context, filter models.RefereeFilter) ([]models.Referee, *models.Pagination, error) {
	referees, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list referees")
	}
	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return referees, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one referee by id.
func (s *RefereeService) Get(ctx context.Context, id string) (*models.Referee, error) {
	referee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "referee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load referee")
	}
	return referee, nil
}

// GetByUser resolves the referee profile linked to a user account.
func (s *RefereeService) GetByUser(ctx context.Context, userID string) (*models.Referee, error) {
	referee, err := s.repo.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no referee profile for this user")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load referee")
	}
	return referee, nil
}

// Create registers a referee profile for an existing user.
func (s *RefereeService) Create(ctx context.Context, req dto.CreateRefereeRequest) (*models.Referee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid referee payload")
	}

	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "linked user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	if _, err := s.repo.FindByUserID(ctx, req.UserID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "user already has a referee profile")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check referee profile")
	}

	referee := &models.Referee{
		UserID:     req.UserID,
		FullName:   req.FullName,
		License:    req.License,
		City:       req.City,
		Experience: req.Experience,
		Status:     models.RefereeActive,
	}
	if err := s.repo.Create(ctx, referee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create referee")
	}

	s.invalidateRoster(ctx)
	return referee, nil
}

// Update modifies a referee profile.
func (s *RefereeService) Update(ctx context.Context, id string, req dto.UpdateRefereeRequest) (*models.Referee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid referee payload")
	}

	referee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.FullName != nil {
		referee.FullName = *req.FullName
	}
	if req.License != nil {
		referee.License = *req.License
	}
	if req.City != nil {
		referee.City = *req.City
	}
	if req.Experience != nil {
		referee.Experience = *req.Experience
	}
	referee.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, referee); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update referee")
	}

	s.invalidateRoster(ctx)
	return referee, nil
}

// SetStatus changes the referee's account standing. Existing
// assignments survive a status change; only new assignments are
// blocked for non-active referees.
func (s *RefereeService) SetStatus(ctx context.Context, id string, req dto.SetRefereeStatusRequest) (*models.Referee, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	referee, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.repo.SetStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update referee status")
	}
	referee.Status = req.Status

	s.invalidateRoster(ctx)
	return referee, nil
}

func (s *RefereeService) invalidateRoster(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "roster:*"); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
	}
}
