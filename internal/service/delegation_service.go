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
	"github.com/refdesk/refdesk-api/internal/repository"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
	"github.com/refdesk/refdesk-api/pkg/export"
)

type delegationRepository interface {
	GetByMatch(ctx context.Context, matchID string) (*models.Delegation, error)
	GetOrCreateByMatch(ctx context.Context, matchID string) (*models.Delegation, error)
	ListBindings(ctx context.Context, delegationID string) ([]models.SlotBinding, error)
	ListBindingDetails(ctx context.Context, delegationID string) ([]models.SlotBindingDetail, error)
	SaveSlot(ctx context.Context, delegation *models.Delegation, binding *models.SlotBinding, newStatus models.DelegationStatus) error
	ClearSlot(ctx context.Context, delegation *models.Delegation, slot models.Slot, newStatus models.DelegationStatus) error
	SaveResponse(ctx context.Context, delegation *models.Delegation, binding *models.SlotBinding, newStatus models.DelegationStatus) error
	UpdateStatus(ctx context.Context, delegation *models.Delegation, newStatus models.DelegationStatus) error
	UpdateNotes(ctx context.Context, delegation *models.Delegation, notes *string) error
	ListRefereeAssignments(ctx context.Context, refereeID string) ([]repository.RefereeAssignment, error)
}

type delegationMatchRepository interface {
	FindDetailByID(ctx context.Context, id string) (*models.MatchDetail, error)
}

type delegationRefereeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Referee, error)
}

type availabilityChecker interface {
	IsAvailable(ctx context.Context, refereeID string, date time.Time) (bool, *string, error)
}

type delegationAuditRepository interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// delegationNotifier delivers delegation events. Implementations are
// fire and forget; delivery failures never fail the operation.
type delegationNotifier interface {
	AssignmentOffered(ctx context.Context, refereeID string, match *models.MatchDetail, slot models.Slot)
	AssignmentWithdrawn(ctx context.Context, refereeID string, match *models.MatchDetail, slot models.Slot)
	AssignmentDeclined(ctx context.Context, refereeID string, match *models.MatchDetail, slot models.Slot, reason models.DeclineReason)
	DelegationConfirmed(ctx context.Context, refereeIDs []string, match *models.MatchDetail)
}

// delegationMetrics counts engine outcomes. Nil-safe on the
// implementation side.
type delegationMetrics interface {
	RecordAssignment(slot models.Slot)
	RecordResponse(response models.ResponseStatus)
	RecordConflict(code string)
}

// Actor identifies who performs a delegation operation, resolved from
// the access token by the handler layer.
type Actor struct {
	UserID    string
	RefereeID string
	Role      models.UserRole
	IP        string
	UserAgent string
}

// DelegationConfig tunes engine behaviour.
type DelegationConfig struct {
	AllowUnavailableOverride bool
	EditLockBefore           time.Duration
}

// DelegationService is the sole writer of delegation aggregates. All
// cross-entity invariants are enforced here; concurrent edits of the
// same match serialize on the aggregate version.
type DelegationService struct {
	repo         delegationRepository
	matches      delegationMatchRepository
	referees     delegationRefereeRepository
	availability availabilityChecker
	audit        delegationAuditRepository
	notifier     delegationNotifier
	cache        cacheInvalidator
	metrics      delegationMetrics
	validator    *validator.Validate
	logger       *zap.Logger
	config       DelegationConfig
}

// NewDelegationService constructs the engine.
func NewDelegationService(
	repo delegationRepository,
	matches delegationMatchRepository,
	referees delegationRefereeRepository,
	availability availabilityChecker,
	audit delegationAuditRepository,
	notifier delegationNotifier,
	cache cacheInvalidator,
	validate *validator.Validate,
	logger *zap.Logger,
	config DelegationConfig,
) *DelegationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DelegationService{
		repo:         repo,
		matches:      matches,
		referees:     referees,
		availability: availability,
		audit:        audit,
		notifier:     notifier,
		cache:        cache,
		validator:    validate,
		logger:       logger,
		config:       config,
	}
}

// UseMetrics attaches outcome counters to the engine.
func (s *DelegationService) UseMetrics(metrics delegationMetrics) {
	s.metrics = metrics
}

func (s *DelegationService) countAssignment(slot models.Slot) {
	if s.metrics != nil {
		s.metrics.RecordAssignment(slot)
	}
}

func (s *DelegationService) countResponse(response models.ResponseStatus) {
	if s.metrics != nil {
		s.metrics.RecordResponse(response)
	}
}

func (s *DelegationService) countConflict(err error) {
	if s.metrics == nil {
		return
	}
	if appErr := appErrors.FromError(err); appErr.Status == 409 || appErr.Status == 422 {
		s.metrics.RecordConflict(appErr.Code)
	}
}

// Get returns the delegation view for a match. A match that was never
// delegated renders as an empty aggregate without creating rows.
func (s *DelegationService) Get(ctx context.Context, matchID string) (*dto.DelegationView, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	delegation, err := s.repo.GetByMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return emptyView(match.ID), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delegation")
	}

	return s.view(ctx, delegation)
}

// Assign binds a referee to a slot. Preconditions are checked in a
// fixed order with the first failure winning; repeating an identical
// assignment is a no-op with no side effects.
func (s *DelegationService) Assign(ctx context.Context, matchID, slotRaw string, actor Actor, req dto.AssignSlotRequest) (*dto.DelegationView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(match); err != nil {
		return nil, err
	}

	slot, ok := models.ParseSlot(slotRaw)
	if !ok {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidSlot, map[string]interface{}{"slot": slotRaw})
	}

	delegation, err := s.repo.GetOrCreateByMatch(ctx, matchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delegation")
	}
	if err := s.checkVersion(delegation, req.ExpectedVersion); err != nil {
		return nil, err
	}

	referee, err := s.referees.FindByID(ctx, req.RefereeID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "referee not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load referee")
	}
	if !referee.IsActive() {
		return nil, appErrors.WithDetails(appErrors.ErrRefereeInactive, map[string]interface{}{"refereeId": referee.ID, "status": referee.Status})
	}

	bindings, err := s.repo.ListBindings(ctx, delegation.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot bindings")
	}

	var current *models.SlotBinding
	for i := range bindings {
		if bindings[i].Slot == slot {
			current = &bindings[i]
			break
		}
	}

	// Repeating the identical assignment changes nothing and must not
	// dispatch a second notification.
	if current.Occupied() && current.RefereeID == referee.ID {
		return s.view(ctx, delegation)
	}

	available, reason, err := s.availability.IsAvailable(ctx, referee.ID, match.ScheduledAt)
	if err != nil {
		return nil, err
	}
	overridden := false
	if !available {
		if !req.Override || !s.config.AllowUnavailableOverride {
			details := map[string]interface{}{"refereeId": referee.ID, "date": match.ScheduledAt.Format(models.AvailabilityDateLayout)}
			if reason != nil {
				details["reason"] = *reason
			}
			err := appErrors.WithDetails(appErrors.ErrRefereeUnavailable, details)
			s.countConflict(err)
			return nil, err
		}
		overridden = true
	}

	for _, b := range bindings {
		if b.Slot != slot && b.RefereeID == referee.ID && b.Occupied() {
			err := appErrors.WithDetails(appErrors.ErrDuplicateAssignment, map[string]interface{}{
				"refereeId":    referee.ID,
				"occupiedSlot": b.Slot,
			})
			s.countConflict(err)
			return nil, err
		}
	}

	binding := &models.SlotBinding{
		DelegationID: delegation.ID,
		Slot:         slot,
		RefereeID:    referee.ID,
		Response:     models.ResponsePending,
		Overridden:   overridden,
		AssignedAt:   time.Now().UTC(),
	}

	newStatus := models.DeriveDelegationStatus(delegation.Status, replaceBinding(bindings, binding))
	if err := s.repo.SaveSlot(ctx, delegation, binding, newStatus); err != nil {
		return nil, s.mapMutationError(delegation, err, "failed to store assignment")
	}
	s.countAssignment(slot)

	if current.Occupied() && s.notifier != nil {
		s.notifier.AssignmentWithdrawn(ctx, current.RefereeID, match, slot)
	}
	if s.notifier != nil {
		s.notifier.AssignmentOffered(ctx, referee.ID, match, slot)
	}
	s.invalidateRoster(ctx)
	s.recordAudit(ctx, actor, models.AuditActionSlotAssign, matchID,
		fmt.Sprintf(`{"slot":%q,"refereeId":%q,"overridden":%t}`, slot, referee.ID, overridden))

	return s.view(ctx, delegation)
}

// Remove clears a slot. Clearing a slot that holds nothing is a no-op.
func (s *DelegationService) Remove(ctx context.Context, matchID, slotRaw string, actor Actor, req dto.RemoveSlotRequest) (*dto.DelegationView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid removal payload")
	}

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(match); err != nil {
		return nil, err
	}

	slot, ok := models.ParseSlot(slotRaw)
	if !ok {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidSlot, map[string]interface{}{"slot": slotRaw})
	}

	delegation, err := s.repo.GetByMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return emptyView(match.ID), nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delegation")
	}
	if err := s.checkVersion(delegation, req.ExpectedVersion); err != nil {
		return nil, err
	}

	bindings, err := s.repo.ListBindings(ctx, delegation.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot bindings")
	}

	var current *models.SlotBinding
	for i := range bindings {
		if bindings[i].Slot == slot {
			current = &bindings[i]
			break
		}
	}
	if current == nil {
		return s.view(ctx, delegation)
	}

	remaining := make([]models.SlotBinding, 0, len(bindings))
	for _, b := range bindings {
		if b.Slot != slot {
			remaining = append(remaining, b)
		}
	}
	newStatus := models.DeriveDelegationStatus(delegation.Status, remaining)

	if err := s.repo.ClearSlot(ctx, delegation, slot, newStatus); err != nil {
		return nil, s.mapMutationError(delegation, err, "failed to clear slot")
	}

	if current.Occupied() && s.notifier != nil {
		s.notifier.AssignmentWithdrawn(ctx, current.RefereeID, match, slot)
	}
	s.invalidateRoster(ctx)
	s.recordAudit(ctx, actor, models.AuditActionSlotRemove, matchID,
		fmt.Sprintf(`{"slot":%q,"refereeId":%q}`, slot, current.RefereeID))

	return s.view(ctx, delegation)
}

// ConfirmAll finalises the delegation once every required slot is
// bound and accepted; otherwise it fails listing the unmet slots and
// leaves state untouched.
func (s *DelegationService) ConfirmAll(ctx context.Context, matchID string, actor Actor, req dto.ConfirmDelegationRequest) (*dto.DelegationView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid confirmation payload")
	}

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(match); err != nil {
		return nil, err
	}

	delegation, err := s.repo.GetByMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithDetails(appErrors.ErrIncompleteDelegation, incompleteDetails(nil))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delegation")
	}
	if err := s.checkVersion(delegation, req.ExpectedVersion); err != nil {
		return nil, err
	}

	bindings, err := s.repo.ListBindings(ctx, delegation.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot bindings")
	}

	unmet := incompleteDetails(bindings)
	if len(unmet) > 0 {
		err := appErrors.WithDetails(appErrors.ErrIncompleteDelegation, unmet)
		s.countConflict(err)
		return nil, err
	}

	if delegation.Status != models.DelegationConfirmed {
		if err := s.repo.UpdateStatus(ctx, delegation, models.DelegationConfirmed); err != nil {
			return nil, s.mapMutationError(delegation, err, "failed to confirm delegation")
		}

		if s.notifier != nil {
			refereeIDs := make([]string, 0, len(bindings))
			for _, b := range bindings {
				if b.Occupied() {
					refereeIDs = append(refereeIDs, b.RefereeID)
				}
			}
			s.notifier.DelegationConfirmed(ctx, refereeIDs, match)
		}
		s.recordAudit(ctx, actor, models.AuditActionDelegationConfirm, matchID, `{"status":"CONFIRMED"}`)
	}

	return s.view(ctx, delegation)
}

// SetNotes stores free-text notes on the delegation aggregate.
func (s *DelegationService) SetNotes(ctx context.Context, matchID string, actor Actor, notes *string) (*dto.DelegationView, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if err := s.checkEditable(match); err != nil {
		return nil, err
	}

	delegation, err := s.repo.GetOrCreateByMatch(ctx, matchID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delegation")
	}

	if err := s.repo.UpdateNotes(ctx, delegation, notes); err != nil {
		return nil, s.mapMutationError(delegation, err, "failed to store notes")
	}

	return s.view(ctx, delegation)
}

// Respond records a referee's accept or decline on their pending
// assignment. Both outcomes are terminal; a decline frees the slot and
// may regress a confirmed delegation.
func (s *DelegationService) Respond(ctx context.Context, matchID, slotRaw string, actor Actor, req dto.RespondRequest) (*dto.DelegationView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid response payload")
	}

	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	if !match.Editable() {
		return nil, appErrors.Clone(appErrors.ErrMatchNotEditable, "")
	}

	slot, ok := models.ParseSlot(slotRaw)
	if !ok {
		return nil, appErrors.WithDetails(appErrors.ErrInvalidSlot, map[string]interface{}{"slot": slotRaw})
	}

	declined := req.Action == "decline"
	if declined && !models.ValidDeclineReason(req.Reason) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "decline reason must be one of the recognized values")
	}

	delegation, err := s.repo.GetByMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no assignment exists for this match")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delegation")
	}

	bindings, err := s.repo.ListBindings(ctx, delegation.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot bindings")
	}

	var binding *models.SlotBinding
	for i := range bindings {
		if bindings[i].Slot == slot {
			binding = &bindings[i]
			break
		}
	}
	// A missing binding or one held by someone else means the admin
	// reassigned or cleared the slot after the referee loaded it. The
	// referee lost the race, not their permission: surface it as a stale
	// read so the client refreshes instead of giving up.
	if binding == nil || (actor.Role == models.RoleReferee && binding.RefereeID != actor.RefereeID) {
		err := appErrors.WithDetails(appErrors.ErrStaleAssignment, map[string]interface{}{
			"currentVersion": delegation.Version,
		})
		s.countConflict(err)
		return nil, err
	}
	if binding.Response != models.ResponsePending {
		err := appErrors.WithDetails(appErrors.ErrResponseFinalized, map[string]interface{}{
			"slot":     slot,
			"response": binding.Response,
		})
		s.countConflict(err)
		return nil, err
	}

	now := time.Now().UTC()
	binding.RespondedAt = &now
	if declined {
		reason := req.Reason
		binding.Response = models.ResponseDeclined
		binding.DeclineReason = &reason
		binding.ResponseNote = optionalString(req.Note)
	} else {
		binding.Response = models.ResponseAccepted
		binding.ResponseNote = optionalString(req.Note)
	}

	newStatus := models.DeriveDelegationStatus(delegation.Status, bindings)
	if err := s.repo.SaveResponse(ctx, delegation, binding, newStatus); err != nil {
		return nil, s.mapMutationError(delegation, err, "failed to store response")
	}
	s.countResponse(binding.Response)

	if declined {
		if s.notifier != nil {
			s.notifier.AssignmentDeclined(ctx, binding.RefereeID, match, slot, *binding.DeclineReason)
		}
		s.invalidateRoster(ctx)
	}
	s.recordAudit(ctx, actor, models.AuditActionSlotResponse, matchID,
		fmt.Sprintf(`{"slot":%q,"refereeId":%q,"response":%q}`, slot, binding.RefereeID, binding.Response))

	return s.view(ctx, delegation)
}

// MyAssignments lists the acting referee's non-declined assignments on
// upcoming matches.
func (s *DelegationService) MyAssignments(ctx context.Context, refereeID string) ([]repository.RefereeAssignment, error) {
	assignments, err := s.repo.ListRefereeAssignments(ctx, refereeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// OfficialsSheet assembles the printable delegation sheet for a match.
func (s *DelegationService) OfficialsSheet(ctx context.Context, matchID string) (*export.OfficialsSheet, error) {
	match, err := s.loadMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}

	sheet := &export.OfficialsSheet{
		Competition: match.CompetitionName,
		HomeTeam:    match.HomeTeamName,
		AwayTeam:    match.AwayTeamName,
		Venue:       fmt.Sprintf("%s, %s", match.VenueName, match.VenueCity),
		KickoffAt:   match.ScheduledAt.Format("2006-01-02 15:04"),
	}

	delegation, err := s.repo.GetByMatch(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			delegation = nil
		} else {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load delegation")
		}
	}

	byslot := make(map[models.Slot]models.SlotBindingDetail)
	if delegation != nil {
		if delegation.Notes != nil {
			sheet.Notes = *delegation.Notes
		}
		details, err := s.repo.ListBindingDetails(ctx, delegation.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot bindings")
		}
		for _, d := range details {
			if d.Occupied() {
				byslot[d.Slot] = d
			}
		}
	}

	for _, slot := range models.AllSlots {
		row := export.OfficialsSheetRow{Slot: slotLabel(slot)}
		if d, ok := byslot[slot]; ok {
			row.Referee = d.RefereeName
			row.License = string(d.RefereeLicense)
			row.City = d.RefereeCity
			row.Response = string(d.Response)
		}
		sheet.Slots = append(sheet.Slots, row)
	}
	return sheet, nil
}

func (s *DelegationService) loadMatch(ctx context.Context, matchID string) (*models.MatchDetail, error) {
	match, err := s.matches.FindDetailByID(ctx, matchID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "match not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load match")
	}
	return match, nil
}

func (s *DelegationService) checkEditable(match *models.MatchDetail) error {
	if !match.Editable() {
		return appErrors.WithDetails(appErrors.ErrMatchNotEditable, map[string]interface{}{"status": match.Status})
	}
	if s.config.EditLockBefore > 0 && time.Now().UTC().After(match.ScheduledAt.Add(-s.config.EditLockBefore)) {
		return appErrors.Clone(appErrors.ErrMatchNotEditable, "delegation edits are locked this close to tip-off")
	}
	return nil
}

func (s *DelegationService) checkVersion(delegation *models.Delegation, expected int) error {
	if expected == 0 || expected == delegation.Version {
		return nil
	}
	err := appErrors.WithDetails(appErrors.ErrStaleAssignment, map[string]interface{}{
		"expectedVersion": expected,
		"currentVersion":  delegation.Version,
	})
	s.countConflict(err)
	return err
}

func (s *DelegationService) mapMutationError(delegation *models.Delegation, err error, message string) error {
	if errors.Is(err, repository.ErrVersionConflict) {
		stale := appErrors.WithDetails(appErrors.ErrStaleAssignment, map[string]interface{}{
			"currentVersion": delegation.Version,
		})
		s.countConflict(stale)
		return stale
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func (s *DelegationService) invalidateRoster(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "roster:*"); err != nil {
		s.logger.Warn("failed to invalidate roster cache", zap.Error(err))
	}
}

func (s *DelegationService) recordAudit(ctx context.Context, actor Actor, action, matchID, payload string) {
	if s.audit == nil {
		return
	}
	log := &models.AuditLog{
		Action:     action,
		Resource:   "delegation",
		ResourceID: &matchID,
		NewValues:  []byte(payload),
		IPAddress:  actor.IP,
		UserAgent:  actor.UserAgent,
	}
	if actor.UserID != "" {
		log.UserID = &actor.UserID
	}
	if err := s.audit.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record delegation audit log", zap.Error(err))
	}
}

func (s *DelegationService) view(ctx context.Context, delegation *models.Delegation) (*dto.DelegationView, error) {
	details, err := s.repo.ListBindingDetails(ctx, delegation.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load slot bindings")
	}

	byslot := make(map[models.Slot]models.SlotBindingDetail, len(details))
	for _, d := range details {
		byslot[d.Slot] = d
	}

	slots := make([]dto.SlotView, 0, len(models.AllSlots))
	for _, slot := range models.AllSlots {
		view := dto.SlotView{Slot: slot}
		if d, ok := byslot[slot]; ok {
			view.RefereeID = d.RefereeID
			view.RefereeName = d.RefereeName
			view.License = d.RefereeLicense
			view.Response = d.Response
			view.DeclineReason = d.DeclineReason
			view.Overridden = d.Overridden
			assignedAt := d.AssignedAt
			view.AssignedAt = &assignedAt
			view.RespondedAt = d.RespondedAt
		}
		slots = append(slots, view)
	}

	return &dto.DelegationView{
		MatchID:   delegation.MatchID,
		Status:    delegation.Status,
		Version:   delegation.Version,
		Notes:     delegation.Notes,
		Slots:     slots,
		UpdatedAt: delegation.UpdatedAt,
	}, nil
}

func emptyView(matchID string) *dto.DelegationView {
	slots := make([]dto.SlotView, 0, len(models.AllSlots))
	for _, slot := range models.AllSlots {
		slots = append(slots, dto.SlotView{Slot: slot})
	}
	return &dto.DelegationView{
		MatchID: matchID,
		Status:  models.DelegationEmpty,
		Version: 0,
		Slots:   slots,
	}
}

// replaceBinding returns the binding set with the slot's entry swapped
// for the new one, used to derive the post-mutation status.
func replaceBinding(bindings []models.SlotBinding, binding *models.SlotBinding) []models.SlotBinding {
	next := make([]models.SlotBinding, 0, len(bindings)+1)
	for _, b := range bindings {
		if b.Slot != binding.Slot {
			next = append(next, b)
		}
	}
	return append(next, *binding)
}

// incompleteDetails lists every required slot that blocks confirmation.
func incompleteDetails(bindings []models.SlotBinding) []dto.IncompleteSlotDetail {
	occupied := make(map[models.Slot]models.SlotBinding, len(bindings))
	for _, b := range bindings {
		if b.Occupied() {
			occupied[b.Slot] = b
		}
	}

	var unmet []dto.IncompleteSlotDetail
	for _, slot := range models.RequiredSlots {
		b, ok := occupied[slot]
		if !ok {
			unmet = append(unmet, dto.IncompleteSlotDetail{Slot: slot, Reason: "slot is not assigned"})
			continue
		}
		if b.Response != models.ResponseAccepted {
			unmet = append(unmet, dto.IncompleteSlotDetail{Slot: slot, Response: b.Response, Reason: "assignment is not accepted"})
		}
	}
	return unmet
}
