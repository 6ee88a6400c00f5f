package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusqa/campus-qa-api/internal/models"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
)

const dashboardStatsCacheKey = "dashboard:stats"

type dashboardStatsRepository interface {
	DashboardStats(ctx context.Context) (*models.DashboardStats, error)
}

type dashboardUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	UpdateRole(ctx context.Context, id string, role models.Role) (*models.User, error)
	ToggleActive(ctx context.Context, id string) (*models.User, error)
	RevokeUserRefreshTokens(ctx context.Context, userID string) error
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
	ListAuditLogs(ctx context.Context, page, limit int) ([]models.AuditLog, int, error)
}

type dashboardQuestionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
	List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error)
	ToggleArchive(ctx context.Context, id string) (bool, error)
	DeleteCascade(ctx context.Context, id string) error
}

type dashboardAnswerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Answer, error)
	DeleteCascade(ctx context.Context, id string) error
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// AuditMeta identifies the acting moderator for the audit trail.
type AuditMeta struct {
	ActorID   string
	IP        string
	UserAgent string
}

// DashboardService backs the moderation surface: aggregate stats, account
// management, content moderation and the audit trail.
type DashboardService struct {
	stats     dashboardStatsRepository
	users     dashboardUserRepository
	questions dashboardQuestionRepository
	answers   dashboardAnswerRepository
	cache     dashboardCache
	cacheTTL  time.Duration
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDashboardService constructs the dashboard service. The cache is
// optional; without it every stats request recomputes.
func NewDashboardService(stats dashboardStatsRepository, users dashboardUserRepository, questions dashboardQuestionRepository, answers dashboardAnswerRepository, cache dashboardCache, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *DashboardService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &DashboardService{
		stats:     stats,
		users:     users,
		questions: questions,
		answers:   answers,
		cache:     cache,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
	}
}

// WithMetrics attaches cache instrumentation.
func (s *DashboardService) WithMetrics(metrics *MetricsService) *DashboardService {
	s.metrics = metrics
	return s
}

// Stats returns the dashboard aggregates, served from cache when fresh.
func (s *DashboardService) Stats(ctx context.Context) (*models.DashboardStats, error) {
	if s.cache != nil {
		var cached models.DashboardStats
		if err := s.cache.Get(ctx, dashboardStatsCacheKey, &cached); err == nil {
			s.metrics.RecordCacheOperation(true)
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
		s.metrics.RecordCacheOperation(false)
	}

	stats, err := s.stats.DashboardStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute dashboard stats")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardStatsCacheKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return stats, nil
}

// ListUsers returns accounts for the moderation user table.
func (s *DashboardService) ListUsers(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.users.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return users, models.NewPagination(filter.Page, limit, total), nil
}

// UpdateUserRole assigns a new role. Moderators cannot change their own.
func (s *DashboardService) UpdateUserRole(ctx context.Context, meta AuditMeta, userID string, req models.UpdateRoleRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid role payload")
	}
	if userID == meta.ActorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot change your own role")
	}

	user, err := s.users.UpdateRole(ctx, userID, models.Role(req.Role))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update role")
	}

	s.audit(ctx, meta, models.AuditActionRoleUpdate, "user", userID, map[string]interface{}{"role": req.Role})
	s.invalidateStats(ctx)
	return user, nil
}

// ToggleUserStatus flips an account between active and inactive. A
// deactivation also revokes the account's refresh tokens. Moderators cannot
// deactivate themselves.
func (s *DashboardService) ToggleUserStatus(ctx context.Context, meta AuditMeta, userID string) (*models.User, error) {
	if userID == meta.ActorID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "cannot deactivate your own account")
	}

	user, err := s.users.ToggleActive(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle status")
	}

	if !user.Active {
		if err := s.users.RevokeUserRefreshTokens(ctx, userID); err != nil {
			s.logger.Warn("failed to revoke tokens on deactivation", zap.String("user_id", userID), zap.Error(err))
		}
	}

	s.audit(ctx, meta, models.AuditActionStatusToggle, "user", userID, map[string]interface{}{"active": user.Active})
	s.invalidateStats(ctx)
	return user, nil
}

// ListQuestions returns questions for moderation, archived ones included
// unless the filter narrows them.
func (s *DashboardService) ListQuestions(ctx context.Context, filter models.QuestionFilter) ([]models.Question, *models.Pagination, error) {
	questions, total, err := s.questions.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return questions, models.NewPagination(filter.Page, limit, total), nil
}

// ToggleQuestionArchive flips a question in or out of the archive.
func (s *DashboardService) ToggleQuestionArchive(ctx context.Context, meta AuditMeta, questionID string) (bool, error) {
	archived, err := s.questions.ToggleArchive(ctx, questionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle archive")
	}

	s.audit(ctx, meta, models.AuditActionArchiveToggle, "question", questionID, map[string]interface{}{"archived": archived})
	return archived, nil
}

// DeleteQuestion removes a question and everything under it.
func (s *DashboardService) DeleteQuestion(ctx context.Context, meta AuditMeta, questionID string) error {
	if err := s.questions.DeleteCascade(ctx, questionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}

	s.audit(ctx, meta, models.AuditActionQuestionDelete, "question", questionID, nil)
	s.invalidateStats(ctx)
	return nil
}

// DeleteAnswer removes an answer and everything under it.
func (s *DashboardService) DeleteAnswer(ctx context.Context, meta AuditMeta, answerID string) error {
	if err := s.answers.DeleteCascade(ctx, answerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "answer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete answer")
	}

	s.audit(ctx, meta, models.AuditActionAnswerDelete, "answer", answerID, nil)
	s.invalidateStats(ctx)
	return nil
}

// ListAuditLogs returns the audit trail newest first.
func (s *DashboardService) ListAuditLogs(ctx context.Context, page, limit int) ([]models.AuditLog, *models.Pagination, error) {
	logs, total, err := s.users.ListAuditLogs(ctx, page, limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list audit logs")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return logs, models.NewPagination(page, limit, total), nil
}

func (s *DashboardService) audit(ctx context.Context, meta AuditMeta, action, resource, resourceID string, values map[string]interface{}) {
	var encoded []byte
	if values != nil {
		raw, err := json.Marshal(values)
		if err != nil {
			s.logger.Warn("failed to encode audit values", zap.Error(err))
		} else {
			encoded = raw
		}
	}

	actorID := meta.ActorID
	entry := &models.AuditLog{
		UserID:     &actorID,
		Action:     action,
		Resource:   resource,
		ResourceID: &resourceID,
		NewValues:  encoded,
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if err := s.users.CreateAuditLog(ctx, entry); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

func (s *DashboardService) invalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dashboardStatsCacheKey); err != nil {
		s.logger.Warn("failed to invalidate dashboard cache", zap.Error(err))
	}
}
