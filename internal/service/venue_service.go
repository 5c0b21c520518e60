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

type venueRepository interface {
	FindByID(ctx context.Context, id string) (*models.Venue, error)
	List(ctx context.Context, filter models.VenueFilter) ([]models.Venue, int, error)
	Create(ctx context.Context, venue *models.Venue) error
	Update(ctx context.Context, venue *models.Venue) error
	Deactivate(ctx context.Context, id string) error
}

// VenueService manages match venues.
type VenueService struct {
	repo      venueRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVenueService constructs the service.
func NewVenueService(repo venueRepository, validate *validator.Validate, logger *zap.Logger) *VenueService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &VenueService{repo: repo, validator: validate, logger: logger}
}

// List returns venues matching the filter.
func (s *VenueService) List(ctx context.Context, filter models.VenueFilter) ([]models.Venue, *models.Pagination, error) {
	venues, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list venues")
	}
	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return venues, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Get returns one venue by id.
func (s *VenueService) Get(ctx context.Context, id string) (*models.Venue, error) {
	venue, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "venue not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load venue")
	}
	return venue, nil
}

// Create registers a venue.
func (s *VenueService) Create(ctx context.Context, req dto.CreateVenueRequest) (*models.Venue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid venue payload")
	}

	venue := &models.Venue{
		Name:     req.Name,
		City:     req.City,
		Address:  req.Address,
		Capacity: req.Capacity,
		Active:   true,
	}
	if err := s.repo.Create(ctx, venue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create venue")
	}
	return venue, nil
}

// Update modifies a venue.
func (s *VenueService) Update(ctx context.Context, id string, req dto.UpdateVenueRequest) (*models.Venue, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid venue payload")
	}

	venue, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		venue.Name = *req.Name
	}
	if req.City != nil {
		venue.City = *req.City
	}
	if req.Address != nil {
		venue.Address = req.Address
	}
	if req.Capacity != nil {
		venue.Capacity = req.Capacity
	}
	if req.Active != nil {
		venue.Active = *req.Active
	}
	venue.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, venue); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update venue")
	}
	return venue, nil
}

// Deactivate retires a venue from new fixtures.
func (s *VenueService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate venue")
	}
	return nil
}
