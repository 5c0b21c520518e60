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

type teamRepository interface {
	FindByID(ctx context.Context, id string) (*models.Team, error)
	List(ctx context.Context, filter models.TeamFilter) ([]models.Team, int, error)
	Create(ctx context.Context, team *models.Team) error
	Update(ctx context.Context, team *models.Team) error
	Deactivate(ctx context.Context, id string) error
}

// TeamService manages competing teams.
type TeamService struct {
	repo      teamRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeamService constructs the service.
func NewTeamService(repo teamRepository, validate *validator.Validate, logger *zap.Logger) *TeamService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &TeamService{repo: repo, validator: validate, logger: logger}
}

// List returns teams matching the filter.
func (s *TeamService) List(ctx context.Context, filter models.TeamFilter) ([]models.Team, *models.Pagination, error) {
	teams, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teams")
	}
	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return teams, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one team by id.
func (s *TeamService) Get(ctx context.Context, id string) (*models.Team, error) {
	team, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load team")
	}
	return team, nil
}

// Create registers a team.
func (s *TeamService) Create(ctx context.Context, req dto.CreateTeamRequest) (*models.Team, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid team payload")
	}

	team := &models.Team{
		Name:          req.Name,
		ShortName:     req.ShortName,
		City:          req.City,
		CompetitionID: req.CompetitionID,
		Active:        true,
	}
	if err := s.repo.Create(ctx, team); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create team")
	}
	return team, nil
}

// Update modifies a team.
func (s *TeamService) Update(ctx context.Context, id string, req dto.UpdateTeamRequest) (*models.Team, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid team payload")
	}

	team, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		team.Name = *req.Name
	}
	if req.ShortName != nil {
		team.ShortName = req.ShortName
	}
	if req.City != nil {
		team.City = *req.City
	}
	if req.CompetitionID != nil {
		team.CompetitionID = req.CompetitionID
	}
	if req.Active != nil {
		team.Active = *req.Active
	}
	team.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, team); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update team")
	}
	return team, nil
}

// Deactivate retires a team from new fixtures.
func (s *TeamService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate team")
	}
	return nil
}
