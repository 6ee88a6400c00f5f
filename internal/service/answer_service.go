package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/campusqa/campus-qa-api/internal/models"
	appErrors "github.com/campusqa/campus-qa-api/pkg/errors"
)

type answerRepository interface {
	FindByID(ctx context.Context, id string) (*models.Answer, error)
	ListByQuestion(ctx context.Context, questionID string, page, limit int) ([]models.Answer, int, error)
	Create(ctx context.Context, answer *models.Answer) error
	UpdateContent(ctx context.Context, id, content string) error
	Accept(ctx context.Context, answerID, questionID string) error
	ToggleVerify(ctx context.Context, id, verifierID string) (bool, error)
	ToggleLike(ctx context.Context, answerID, userID string) (*models.LikeResult, error)
	DeleteCascade(ctx context.Context, id string) error
}

type answerQuestionLookup interface {
	FindByID(ctx context.Context, id string) (*models.Question, error)
}

type answerCommentLister interface {
	ListByAnswer(ctx context.Context, answerID string) ([]models.Comment, error)
}

type answerNotifier interface {
	NotifyAnswerPosted(answer *models.Answer, questionTitle, authorName string)
}

// AnswerService handles answer use-cases, including the acceptance and
// verification toggles.
type AnswerService struct {
	repo      answerRepository
	questions answerQuestionLookup
	comments  answerCommentLister
	notifier  answerNotifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAnswerService constructs the answer service.
func NewAnswerService(repo answerRepository, questions answerQuestionLookup, comments answerCommentLister, notifier answerNotifier, validate *validator.Validate, logger *zap.Logger) *AnswerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnswerService{repo: repo, questions: questions, comments: comments, notifier: notifier, validator: validate, logger: logger}
}

// ListByQuestion returns a question's answers in creation order with their
// comments attached.
func (s *AnswerService) ListByQuestion(ctx context.Context, questionID string, page, limit int) ([]models.Answer, *models.Pagination, error) {
	if _, err := s.questions.FindByID(ctx, questionID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	answers, total, err := s.repo.ListByQuestion(ctx, questionID, page, limit)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list answers")
	}
	for i := range answers {
		comments, err := s.comments.ListByAnswer(ctx, answers[i].ID)
		if err != nil {
			return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comments")
		}
		answers[i].Comments = comments
	}

	if limit <= 0 || limit > 100 {
		limit = 10
	}
	return answers, models.NewPagination(page, limit, total), nil
}

// Create stores a new answer and fans a notification out to staff.
func (s *AnswerService) Create(ctx context.Context, actor *models.User, req models.CreateAnswerRequest) (*models.Answer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid answer payload")
	}

	question, err := s.questions.FindByID(ctx, req.Question)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}

	answer := &models.Answer{
		Content:    req.Content,
		AuthorID:   actor.ID,
		QuestionID: question.ID,
	}
	if err := s.repo.Create(ctx, answer); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create answer")
	}

	answer.Author = &models.Author{ID: actor.ID, Name: actor.Name, Avatar: actor.Avatar, Role: actor.Role}
	s.notifier.NotifyAnswerPosted(answer, question.Title, actor.Name)
	return answer, nil
}

// Update rewrites an answer body. Only the author may edit; staff bypass
// ownership. The edit markers are stamped on every rewrite.
func (s *AnswerService) Update(ctx context.Context, actor *models.User, id string, req models.UpdateAnswerRequest) (*models.Answer, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid answer payload")
	}

	answer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "answer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answer")
	}
	if answer.AuthorID != actor.ID && !actor.Role.Can(models.ActionBypassOwnership) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can edit this answer")
	}

	if err := s.repo.UpdateContent(ctx, id, req.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update answer")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload answer")
	}
	return updated, nil
}

// Accept marks the answer as the question's accepted one. Only the question
// author may accept, staff bypass ownership. Any previously accepted sibling
// loses the mark and the question resolves, all in one transaction.
func (s *AnswerService) Accept(ctx context.Context, actor *models.User, id string) (*models.Answer, error) {
	answer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "answer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answer")
	}

	question, err := s.questions.FindByID(ctx, answer.QuestionID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "question not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load question")
	}
	if question.AuthorID != actor.ID && !actor.Role.Can(models.ActionBypassOwnership) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the question author can accept an answer")
	}

	if err := s.repo.Accept(ctx, answer.ID, question.ID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to accept answer")
	}
	answer.IsAccepted = true
	return answer, nil
}

// ToggleVerify flips the verification mark. Restricted to roles holding the
// verification capability; the verifier stamp follows the toggle.
func (s *AnswerService) ToggleVerify(ctx context.Context, actor *models.User, id string) (*models.Answer, error) {
	if !actor.Role.Can(models.ActionVerifyAnswers) {
		return nil, appErrors.WithRoleContext("not allowed to verify answers", models.RolesWith(models.ActionVerifyAnswers), string(actor.Role))
	}

	if _, err := s.repo.ToggleVerify(ctx, id, actor.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "answer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle verification")
	}

	answer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload answer")
	}
	return answer, nil
}

// ToggleLike flips the caller's like on an answer.
func (s *AnswerService) ToggleLike(ctx context.Context, userID, id string) (*models.LikeResult, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "answer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answer")
	}

	result, err := s.repo.ToggleLike(ctx, id, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle like")
	}
	return result, nil
}

// Delete removes an answer with its comments and likes. The author may
// delete their own; staff bypass ownership.
func (s *AnswerService) Delete(ctx context.Context, actor *models.User, id string) error {
	answer, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "answer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answer")
	}
	if answer.AuthorID != actor.ID && !actor.Role.Can(models.ActionBypassOwnership) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author can delete this answer")
	}

	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "answer not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete answer")
	}
	return nil
}
