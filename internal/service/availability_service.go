package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/refdesk/refdesk-api/internal/dto"
	"github.com/refdesk/refdesk-api/internal/models"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
)

// maxAvailabilityRangeDays bounds a single range request so a typo in
// the year cannot write thousands of rows.
const maxAvailabilityRangeDays = 366

type availabilityRepository interface {
	Get(ctx context.Context, refereeID string, date time.Time) (*models.AvailabilityRecord, error)
	Upsert(ctx context.Context, rec *models.AvailabilityRecord) error
	UpsertRange(ctx context.Context, refereeID string, dates []time.Time, available bool, reason *string) error
	ListRange(ctx context.Context, refereeID string, from, to time.Time) ([]models.AvailabilityRecord, error)
}

type availabilityRefereeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Referee, error)
}

type availabilityAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

type cacheInvalidator interface {
	DeleteByPattern(ctx context.Context, pattern string) error
}

// AvailabilityService manages per-day referee availability. Absence of
// a record means available; declarations overwrite, never delete.
type AvailabilityService struct {
	repo      availabilityRepository
	referees  availabilityRefereeRepository
	audit     availabilityAuditRepository
	cache     cacheInvalidator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs the service.
func NewAvailabilityService(repo availabilityRepository, referees availabilityRefereeRepository, audit availabilityAuditRepository, cache cacheInvalidator, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &AvailabilityService{repo: repo, referees: referees, audit: audit, cache: cache, validator: validate, logger: logger}
}

// Set upserts one availability declaration for the referee.
func (s *AvailabilityService) Set(ctx context.Context, refereeID string, actorUserID string, req dto.SetAvailabilityRequest) (*dto.AvailabilityItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability payload")
	}

	if _, err := s.loadReferee(ctx, refereeID); err != nil {
		return nil, err
	}

	date, err := time.Parse(models.AvailabilityDateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date")
	}

	// An availability declaration carries no reason; only
	// unavailability does.
	var reason *string
	if !req.Available {
		reason = optionalString(req.Reason)
	}

	rec := &models.AvailabilityRecord{
		RefereeID: refereeID,
		Date:      date,
		Available: req.Available,
		Reason:    reason,
	}
	if err := s.repo.Upsert(ctx, rec); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store availability")
	}

	s.invalidateRosterCache(ctx)
	s.recordAudit(ctx, actorUserID, refereeID, fmt.Sprintf(`{"date":%q,"available":%t}`, req.Date, req.Available))

	return &dto.AvailabilityItem{Date: req.Date, Available: rec.Available, Reason: rec.Reason}, nil
}

// SetRange applies one declaration to every date in the inclusive
// range. The whole range is written atomically.
func (s *AvailabilityService) SetRange(ctx context.Context, refereeID string, actorUserID string, req dto.SetAvailabilityRangeRequest) ([]dto.AvailabilityItem, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid availability range payload")
	}

	if _, err := s.loadReferee(ctx, refereeID); err != nil {
		return nil, err
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
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "")
	}
	if end.Sub(start) > maxAvailabilityRangeDays*24*time.Hour {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "range exceeds one year")
	}

	dates := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	var reason *string
	if !req.Available {
		reason = optionalString(req.Reason)
	}
	if err := s.repo.UpsertRange(ctx, refereeID, dates, req.Available, reason); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store availability range")
	}

	s.invalidateRosterCache(ctx)
	s.recordAudit(ctx, actorUserID, refereeID, fmt.Sprintf(`{"from":%q,"to":%q,"available":%t}`, req.StartDate, req.EndDate, req.Available))

	items := make([]dto.AvailabilityItem, 0, len(dates))
	for _, d := range dates {
		items = append(items, dto.AvailabilityItem{Date: d.Format(models.AvailabilityDateLayout), Available: req.Available, Reason: reason})
	}
	return items, nil
}

// List returns stored declarations for the inclusive range. Dates with
// no record are omitted; the caller treats absence as available.
func (s *AvailabilityService) List(ctx context.Context, refereeID string, from, to string) ([]dto.AvailabilityItem, error) {
	if _, err := s.loadReferee(ctx, refereeID); err != nil {
		return nil, err
	}

	start, err := time.Parse(models.AvailabilityDateLayout, from)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid from date")
	}
	end, err := time.Parse(models.AvailabilityDateLayout, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid to date")
	}
	if end.Before(start) {
		return nil, appErrors.Clone(appErrors.ErrInvalidRange, "")
	}

	records, err := s.repo.ListRange(ctx, refereeID, start, end)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}

	items := make([]dto.AvailabilityItem, 0, len(records))
	for _, rec := range records {
		items = append(items, dto.AvailabilityItem{
			Date:      rec.Date.Format(models.AvailabilityDateLayout),
			Available: rec.Available,
			Reason:    rec.Reason,
		})
	}
	return items, nil
}

// IsAvailable resolves the referee's availability for a single date.
// No record means available with no reason.
func (s *AvailabilityService) IsAvailable(ctx context.Context, refereeID string, date time.Time) (bool, *string, error) {
	rec, err := s.repo.Get(ctx, refereeID, date)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil, nil
		}
		return false, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve availability")
	}
	return rec.Available, rec.Reason, nil
}

func (s *AvailabilityService) loadReferee(ctx context.Context, refereeID string) (*models.Referee, error) {
	referee, err := s.referees.FindByID(ctx, refereeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "referee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load referee")
	}
	return referee, nil
}

func (s *AvailabilityService) invalidateRosterCache(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "roster:*"); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
	}
}

func (s *AvailabilityService) recordAudit(ctx context.Context, actorUserID, refereeID, payload string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     models.AuditActionAvailabilitySet,
		Resource:   "availability",
		ResourceID: &refereeID,
		NewValues:  []byte(payload),
	}
	if actorUserID != "" {
		log.UserID = &actorUserID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record availability audit log", zap.Error(err))
	}
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
