package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/refdesk/refdesk-api/internal/models"
	appErrors "github.com/refdesk/refdesk-api/pkg/errors"
	"github.com/refdesk/refdesk-api/pkg/jobs"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, filter models.NotificationFilter) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, id, userID string) error
}

type notificationRefereeRepository interface {
	FindByID(ctx context.Context, id string) (*models.Referee, error)
}

type notificationUserLister interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
}

type notificationPayload struct {
	UserID  string
	Type    models.NotificationType
	MatchID string
	Message string
}

// NotificationService fans delegation events out to in-app
// notifications through the background queue. Dispatch methods never
// fail the calling operation; failures are retried by the queue and
// ultimately logged.
type NotificationService struct {
	repo     notificationRepository
	referees notificationRefereeRepository
	users    notificationUserLister
	queue    *jobs.Queue
	logger   *zap.Logger
}

// NewNotificationService constructs the service and its dispatch queue.
func NewNotificationService(repo notificationRepository, referees notificationRefereeRepository, users notificationUserLister, logger *zap.Logger, cfg jobs.QueueConfig) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, referees: referees, users: users, logger: logger}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("notifications", s.deliver, cfg)
	return s
}

// Start begins background delivery.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the delivery workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

func (s *NotificationService) deliver(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(notificationPayload)
	if !ok {
		s.logger.Error("notification job carried unexpected payload", zap.String("job_id", job.ID))
		return nil
	}
	n := &models.Notification{
		UserID:  payload.UserID,
		Type:    payload.Type,
		Message: payload.Message,
	}
	if payload.MatchID != "" {
		matchID := payload.MatchID
		n.MatchID = &matchID
	}
	return s.repo.Create(ctx, n)
}

func (s *NotificationService) enqueue(payload notificationPayload) {
	job := jobs.Job{ID: uuid.NewString(), Type: string(payload.Type), Payload: payload}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("failed to enqueue notification", zap.String("type", string(payload.Type)), zap.Error(err))
	}
}

func (s *NotificationService) notifyReferee(ctx context.Context, refereeID string, typ models.NotificationType, matchID, message string) {
	referee, err := s.referees.FindByID(ctx, refereeID)
	if err != nil {
		s.logger.Warn("failed to resolve referee for notification", zap.String("referee_id", refereeID), zap.Error(err))
		return
	}
	s.enqueue(notificationPayload{UserID: referee.UserID, Type: typ, MatchID: matchID, Message: message})
}

func (s *NotificationService) notifyStaff(ctx context.Context, typ models.NotificationType, matchID, message string) {
	for _, role := range []models.UserRole{models.RoleAdmin, models.RoleDelegate} {
		r := role
		active := true
		users, _, err := s.users.List(ctx, models.UserFilter{Role: &r, Active: &active, PageSize: 100})
		if err != nil {
			s.logger.Warn("failed to list staff for notification", zap.String("role", string(role)), zap.Error(err))
			continue
		}
		for _, u := range users {
			s.enqueue(notificationPayload{UserID: u.ID, Type: typ, MatchID: matchID, Message: message})
		}
	}
}

// AssignmentOffered notifies the referee of a new pending assignment.
func (s *NotificationService) AssignmentOffered(ctx context.Context, refereeID string, match *models.MatchDetail, slot models.Slot) {
	message := fmt.Sprintf("You have been assigned as %s for %s vs %s on %s.",
		slotLabel(slot), match.HomeTeamName, match.AwayTeamName, match.ScheduledAt.Format("2006-01-02 15:04"))
	s.notifyReferee(ctx, refereeID, models.NotificationAssignmentOffered, match.ID, message)
}

// AssignmentWithdrawn notifies the referee their assignment was removed
// or replaced.
func (s *NotificationService) AssignmentWithdrawn(ctx context.Context, refereeID string, match *models.MatchDetail, slot models.Slot) {
	message := fmt.Sprintf("Your %s assignment for %s vs %s on %s was withdrawn.",
		slotLabel(slot), match.HomeTeamName, match.AwayTeamName, match.ScheduledAt.Format("2006-01-02 15:04"))
	s.notifyReferee(ctx, refereeID, models.NotificationAssignmentRemoved, match.ID, message)
}

// AssignmentDeclined alerts staff that a slot needs reassignment.
func (s *NotificationService) AssignmentDeclined(ctx context.Context, refereeID string, match *models.MatchDetail, slot models.Slot, reason models.DeclineReason) {
	message := fmt.Sprintf("The %s assignment for %s vs %s was declined (%s); the slot is open again.",
		slotLabel(slot), match.HomeTeamName, match.AwayTeamName, reason)
	s.notifyStaff(ctx, models.NotificationAssignmentDeclined, match.ID, message)
}

// DelegationConfirmed notifies every assigned referee of the final crew.
func (s *NotificationService) DelegationConfirmed(ctx context.Context, refereeIDs []string, match *models.MatchDetail) {
	message := fmt.Sprintf("The officiating crew for %s vs %s on %s is confirmed.",
		match.HomeTeamName, match.AwayTeamName, match.ScheduledAt.Format("2006-01-02 15:04"))
	for _, id := range refereeIDs {
		s.notifyReferee(ctx, id, models.NotificationDelegationConfirmed, match.ID, message)
	}
}

// List returns a user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, unread *bool, page, pageSize int) ([]models.Notification, *models.Pagination, error) {
	notifications, total, err := s.repo.List(ctx, models.NotificationFilter{
		UserID:   userID,
		Unread:   unread,
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return notifications, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// MarkRead flags one notification as read, scoped to its owner.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

func slotLabel(slot models.Slot) string {
	switch slot {
	case models.SlotMain:
		return "main referee"
	case models.SlotAssistant1:
		return "first assistant"
	case models.SlotAssistant2:
		return "second assistant"
	case models.SlotDelegate:
		return "match delegate"
	default:
		return string(slot)
	}
}
