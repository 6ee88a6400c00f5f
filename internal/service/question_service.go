package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/campusqa/campus-qa-api/internal/models"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
)

type questionRepository interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
	List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error)
	Create(ctx context.Context, question *models.Question) error
	Update(ctx context.Context, question *models.Question) error
	IncrementViews(ctx context.Context, id string) error
	Resolve(ctx context.Context, id string) error
	ToggleLike(ctx context.Context, questionID, userID string) (*models.LikeResult, error)
	DeleteCascade(ctx context.Context, id string) error
}

type questionNotifier interface {
	NotifyQuestionPosted(question *models.Question, authorName string)
}

// QuestionService handles question use-cases.
type QuestionService struct {
	repo      questionRepository
	notifier  questionNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQuestionService constructs the question service.
func NewQuestionService(repo questionRepository, notifier questionNotifier, validate *validator.Validate, logger *zap.Logger) *QuestionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QuestionService{repo: repo, notifier: notifier, validator: validate, logger: logger}
}

// List returns questions matching the filter with pagination metadata.
// Archived questions are excluded unless the filter asks for them.
func (s *QuestionService) List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, *models.Pagination, error) {
	if filter.Archived == nil {
		archived := false
		filter.Archived = &archived
	}

	questions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}

	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return questions, models.NewPagination(filter.Page, limit, total), nil
}

// ListByUser returns the questions a user authored, archived ones included.
func (s *QuestionService) ListByUser(ctx context.Context, userID string, page, limit int) ([]models.Question, *models.Pagination, error) {
	filter := models.QuestionFilter{AuthorID: userID, Page: page, Limit: limit}
	questions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list questions")
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return questions, models.NewPagination(page, limit, total), nil
}

// Get returns a single question and counts the view.
func (s *QuestionService) Get(ctx context.Context, id string) (*models.Question, error) {
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	if err := s.repo.IncrementViews(ctx, id); err != nil {
		s.logger.Warn("failed to count question view", zap.String("question_id", id), zap.Error(err))
	} else {
		question.Views++
	}
	return question, nil
}

// Create stores a new question and fans a notification out to staff.
func (s *QuestionService) Create(ctx context.Context, actor *models.User, req models.CreateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid question payload")
	}

	category := models.QuestionCategory(req.Category)
	if category == "" {
		category = models.CategoryGeneral
	}
	priority := models.QuestionPriority(req.Priority)
	if priority == "" {
		priority = models.PriorityMedium
	}

	question := &models.Question{
		Title:    req.Title,
		Content:  req.Content,
		AuthorID: actor.ID,
		Tags:     normalizeTags(req.Tags),
		Category: category,
		Priority: priority,
	}
	if err := s.repo.Create(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create question")
	}

	question.Author = &models.Author{ID: actor.ID, Name: actor.Name, Avatar: actor.Avatar, Role: actor.Role}
	s.notifier.NotifyQuestionPosted(question, actor.Name)
	return question, nil
}

// Update rewrites a question. Only the author may edit; staff bypass
// ownership.
func (s *QuestionService) Update(ctx context.Context, actor *models.User, id string, req models.UpdateQuestionRequest) (*models.Question, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid question payload")
	}

	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	if question.AuthorID != actor.ID && !actor.Role.Can(models.ActionBypassOwnership) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can edit this question")
	}

	question.Title = req.Title
	question.Content = req.Content
	if req.Category != "" {
		question.Category = models.QuestionCategory(req.Category)
	}
	if req.Priority != "" {
		question.Priority = models.QuestionPriority(req.Priority)
	}
	question.Tags = normalizeTags(req.Tags)

	if err := s.repo.Update(ctx, question); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update question")
	}
	return question, nil
}

// Delete removes a question with all attached answers, comments and likes.
// The author may delete their own; staff bypass ownership.
func (s *QuestionService) Delete(ctx context.Context, actor *models.User, id string) error {
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	if question.AuthorID != actor.ID && !actor.Role.Can(models.ActionBypassOwnership) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author can delete this question")
	}

	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete question")
	}
	return nil
}

// Resolve marks a question resolved. One-way: there is no un-resolve.
func (s *QuestionService) Resolve(ctx context.Context, actor *models.User, id string) (*models.Question, error) {
	question, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	if question.AuthorID != actor.ID && !actor.Role.Can(models.ActionBypassOwnership) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can resolve this question")
	}

	if !question.IsResolved {
		if err := s.repo.Resolve(ctx, id); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve question")
		}
		question.IsResolved = true
	}
	return question, nil
}

// ToggleLike flips the caller's like on a question.
func (s *QuestionService) ToggleLike(ctx context.Context, userID, id string) (*models.LikeResult, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	result, err := s.repo.ToggleLike(ctx, id, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle like")
	}
	return result, nil
}

// normalizeTags lowercases and deduplicates tags, preserving first-seen
// order and dropping empties.
func normalizeTags(tags []string) pq.StringArray {
	seen := make(map[string]struct{}, len(tags))
	normalized := make(pq.StringArray, 0, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}
	return normalized
}
