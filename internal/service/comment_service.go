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

type commentRepository interface {
	FindByID(ctx context.Context, id string) (*models.Comment, error)
	ListByAnswer(ctx context.Context, answerID string) ([]models.Comment, error)
	Create(ctx context.Context, comment *models.Comment) error
	UpdateContent(ctx context.Context, id, content string) error
	ToggleLike(ctx context.Context, commentID, userID string) (*models.LikeResult, error)
	DeleteCascade(ctx context.Context, id string) error
}

type commentAnswerLookup interface {
	FindByID(ctx context.Context, id string) (*models.Answer, error)
}

// CommentService handles comment use-cases. Threads are one level deep: a
// reply references a root comment of the same answer, never another reply.
type CommentService struct {
	repo      commentRepository
	answers   commentAnswerLookup
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCommentService constructs the comment service.
func NewCommentService(repo commentRepository, answers commentAnswerLookup, validate *validator.Validate, logger *zap.Logger) *CommentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CommentService{repo: repo, answers: answers, validator: validate, logger: logger}
}

// Create stores a comment on an answer, validating the parent when the
// payload names one.
func (s *CommentService) Create(ctx context.Context, actor *models.User, answerID string, req models.CreateCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid comment payload")
	}

	if _, err := s.answers.FindByID(ctx, answerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "answer not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load answer")
	}

	if req.ParentComment != nil {
		parent, err := s.repo.FindByID(ctx, *req.ParentComment)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "parent comment not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent comment")
		}
		if parent.AnswerID != answerID {
			return nil, appErrors.Clone(appErrors.ErrValidation, "parent comment belongs to a different answer")
		}
		if parent.ParentID != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "replies to replies are not allowed")
		}
	}

	comment := &models.Comment{
		Content:  req.Content,
		AuthorID: actor.ID,
		AnswerID: answerID,
		ParentID: req.ParentComment,
	}
	if err := s.repo.Create(ctx, comment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create comment")
	}

	comment.Author = &models.Author{ID: actor.ID, Name: actor.Name, Avatar: actor.Avatar, Role: actor.Role}
	return comment, nil
}

// Update rewrites a comment body. Only the author may edit; staff bypass
// ownership.
func (s *CommentService) Update(ctx context.Context, actor *models.User, id string, req models.UpdateCommentRequest) (*models.Comment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid comment payload")
	}

	comment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	if comment.AuthorID != actor.ID && !actor.Role.Can(models.ActionBypassOwnership) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the author can edit this comment")
	}

	if err := s.repo.UpdateContent(ctx, id, req.Content); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update comment")
	}

	updated, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload comment")
	}
	return updated, nil
}

// ToggleLike flips the caller's like on a comment.
func (s *CommentService) ToggleLike(ctx context.Context, userID, id string) (*models.LikeResult, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}

	result, err := s.repo.ToggleLike(ctx, id, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to toggle like")
	}
	return result, nil
}

// Delete removes a comment with its direct replies and likes. The author
// may delete their own; staff bypass ownership.
func (s *CommentService) Delete(ctx context.Context, actor *models.User, id string) error {
	comment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load comment")
	}
	if comment.AuthorID != actor.ID && !actor.Role.Can(models.ActionBypassOwnership) {
		return appErrors.Clone(appErrors.ErrForbidden, "only the author can delete this comment")
	}

	if err := s.repo.DeleteCascade(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "comment not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete comment")
	}
	return nil
}
