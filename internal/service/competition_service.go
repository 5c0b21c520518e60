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

type competitionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Competition, error)
	List(ctx context.Context, filter models.CompetitionFilter) ([]models.Competition, int, error)
	Create(ctx context.Context, competition *models.Competition) error
	Update(ctx context.Context, competition *models.Competition) error
	Deactivate(ctx context.Context, id string) error
}

// CompetitionService manages leagues and cups.
type CompetitionService struct {
	repo      competitionRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCompetitionService constructs the service.
func NewCompetitionService(repo competitionRepository, validate *validator.Validate, logger *zap.Logger) *CompetitionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &CompetitionService{repo: repo, validator: validate, logger: logger}
}

// List returns competitions matching the filter.
func (s *CompetitionService) List(ctx context.Context, filter models.CompetitionFilter) ([]models.Competition, *models.Pagination, error) {
	competitions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list competitions")
	}
	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return competitions, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one competition by id.
func (s *CompetitionService) Get(ctx context.Context, id string) (*models.Competition, error) {
	competition, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "competition not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load competition")
	}
	return competition, nil
}

// Create registers a competition season.
func (s *CompetitionService) Create(ctx context.Context, req dto.CreateCompetitionRequest) (*models.Competition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid competition payload")
	}

	start, err := time.Parse(models.AvailabilityDateLayout, req.StartDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start date")
	}
	end, err := time.Parse(models.AvailabilityDateLayout, req.EndDate)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end date")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "season end precedes season start")
	}

	competition := &models.Competition{
		Name:      req.Name,
		Season:    req.Season,
		Category:  req.Category,
		StartDate: start,
		EndDate:   end,
		Active:    true,
	}
	if err := s.repo.Create(ctx, competition); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create competition")
	}
	return competition, nil
}

// Update modifies a competition.
func (s *CompetitionService) Update(ctx context.Context, id string, req dto.UpdateCompetitionRequest) (*models.Competition, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid competition payload")
	}

	competition, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		competition.Name = *req.Name
	}
	if req.Season != nil {
		competition.Season = *req.Season
	}
	if req.Category != nil {
		competition.Category = *req.Category
	}
	if req.StartDate != nil {
		start, err := time.Parse(models.AvailabilityDateLayout, *req.StartDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid start date")
		}
		competition.StartDate = start
	}
	if req.EndDate != nil {
		end, err := time.Parse(models.AvailabilityDateLayout, *req.EndDate)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid end date")
		}
		competition.EndDate = end
	}
	if competition.EndDate.Before(competition.StartDate) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "season end precedes season start")
	}
	if req.Active != nil {
		competition.Active = *req.Active
	}
	competition.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, competition); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update competition")
	}
	return competition, nil
}

// Deactivate closes a competition season.
func (s *CompetitionService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate competition")
	}
	return nil
}
