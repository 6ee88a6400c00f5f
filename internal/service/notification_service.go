package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/campusqa/campus-qa-api/internal/models"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
	"github.com/campusqa/campus-qa-api/pkg/jobs"
)

type notificationRepository interface {
	CreateBatch(ctx context.Context, notification *models.Notification, recipientIDs []string) error
	ListByRecipient(ctx context.Context, recipientID string, page, limit int) ([]models.Notification, int, int, error)
	MarkRead(ctx context.Context, id, recipientID string) error
	MarkAllRead(ctx context.Context, recipientID string) error
	Delete(ctx context.Context, id, recipientID string) error
}

type staffLister interface {
	ListStaffIDs(ctx context.Context) ([]string, error)
}

// fanoutEvent is the queue payload for one notification broadcast.
type fanoutEvent struct {
	Type        models.NotificationType
	Title       string
	Message     string
	RelatedID   string
	RelatedType models.RelatedType
}

// NotificationService fans content events out to staff inboxes through a
// background queue and serves the per-user notification listing. A fan-out
// failure is logged and dropped, never surfaced to the triggering request.
type NotificationService struct {
	repo    notificationRepository
	staff   staffLister
	queue   *jobs.Queue
	metrics *MetricsService
	logger  *zap.Logger
}

// NewNotificationService constructs the notification service and its queue.
func NewNotificationService(repo notificationRepository, staff staffLister, cfg jobs.QueueConfig, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &NotificationService{repo: repo, staff: staff, logger: logger}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("notifications", s.handleFanout, cfg)
	return s
}

// WithMetrics attaches fan-out instrumentation.
func (s *NotificationService) WithMetrics(metrics *MetricsService) *NotificationService {
	s.metrics = metrics
	return s
}

// Start begins fan-out worker consumption.
func (s *NotificationService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the fan-out workers.
func (s *NotificationService) Stop() {
	s.queue.Stop()
}

// NotifyQuestionPosted broadcasts a new question to teachers and admins.
func (s *NotificationService) NotifyQuestionPosted(question *models.Question, authorName string) {
	s.enqueue(fanoutEvent{
		Type:        models.NotificationQuestion,
		Title:       "New question posted",
		Message:     fmt.Sprintf("%s asked: %s", authorName, question.Title),
		RelatedID:   question.ID,
		RelatedType: models.RelatedQuestion,
	})
}

// NotifyAnswerPosted broadcasts a new answer to teachers and admins.
func (s *NotificationService) NotifyAnswerPosted(answer *models.Answer, questionTitle, authorName string) {
	s.enqueue(fanoutEvent{
		Type:        models.NotificationAnswer,
		Title:       "New answer posted",
		Message:     fmt.Sprintf("%s answered: %s", authorName, questionTitle),
		RelatedID:   answer.ID,
		RelatedType: models.RelatedAnswer,
	})
}

func (s *NotificationService) enqueue(event fanoutEvent) {
	job := jobs.Job{ID: uuid.NewString(), Type: string(event.Type), Payload: event}
	if err := s.queue.Enqueue(job); err != nil {
		s.logger.Warn("notification fan-out dropped",
			zap.String("type", string(event.Type)),
			zap.String("related_id", event.RelatedID),
			zap.Error(err))
	}
}

func (s *NotificationService) handleFanout(ctx context.Context, job jobs.Job) error {
	event, ok := job.Payload.(fanoutEvent)
	if !ok {
		return fmt.Errorf("unexpected fan-out payload %T", job.Payload)
	}

	recipients, err := s.staff.ListStaffIDs(ctx)
	if err != nil {
		s.metrics.RecordFanout(string(event.Type), false)
		return fmt.Errorf("list fan-out recipients: %w", err)
	}

	notification := &models.Notification{
		Type:        event.Type,
		Title:       event.Title,
		Message:     event.Message,
		RelatedID:   event.RelatedID,
		RelatedType: event.RelatedType,
	}
	if err := s.repo.CreateBatch(ctx, notification, recipients); err != nil {
		s.metrics.RecordFanout(string(event.Type), false)
		return fmt.Errorf("persist fan-out: %w", err)
	}
	s.metrics.RecordFanout(string(event.Type), true)
	return nil
}

// List returns the user's notifications newest first, with the unread count.
func (s *NotificationService) List(ctx context.Context, userID string, page, limit int) ([]models.Notification, *models.Pagination, int, error) {
	notifications, total, unread, err := s.repo.ListByRecipient(ctx, userID, page, limit)
	if err != nil {
		return nil, nil, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return notifications, models.NewPagination(page, limit, total), unread, nil
}

// MarkRead flags an owned notification as read.
func (s *NotificationService) MarkRead(ctx context.Context, id, userID string) error {
	if err := s.repo.MarkRead(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	return nil
}

// MarkAllRead flags every unread notification of the user.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	return nil
}

// Delete removes an owned notification.
func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	if err := s.repo.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	return nil
}
