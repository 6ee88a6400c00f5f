package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campusqa/campus-qa-api/internal/models"
)

const commentColumns = `c.id, c.content, c.author_id, c.answer_id, c.parent_id, c.is_edited, c.edited_at,
	c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM comment_likes cl WHERE cl.comment_id = c.id) AS like_count,
	u.name AS author_name, u.avatar AS author_avatar, u.role AS author_role`

const commentSelect = `SELECT ` + commentColumns + ` FROM comments c JOIN users u ON u.id = c.author_id`

type commentRow struct {
	models.Comment
	AuthorName   string      `db:"author_name"`
	AuthorAvatar string      `db:"author_avatar"`
	AuthorRole   models.Role `db:"author_role"`
}

func (row commentRow) toComment() models.Comment {
	c := row.Comment
	c.Author = &models.Author{
		ID:     c.AuthorID,
		Name:   row.AuthorName,
		Avatar: row.AuthorAvatar,
		Role:   row.AuthorRole,
	}
	return c
}

// CommentRepository provides database access for answer comments.
type CommentRepository struct {
	db *sqlx.DB
}

// NewCommentRepository creates a new instance of CommentRepository.
func NewCommentRepository(db *sqlx.DB) *CommentRepository {
	return &CommentRepository{db: db}
}

// FindByID returns a comment with its author; the answer and parent ids are
// populated so callers can validate threading.
func (r *CommentRepository) FindByID(ctx context.Context, id string) (*models.Comment, error) {
	query := commentSelect + ` WHERE c.id = $1 LIMIT 1`
	var row commentRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find comment by id: %w", err)
	}
	comment := row.toComment()
	return &comment, nil
}

// ListByAnswer returns all comments of an answer in creation order.
func (r *CommentRepository) ListByAnswer(ctx context.Context, answerID string) ([]models.Comment, error) {
	query := commentSelect + ` WHERE c.answer_id = $1 ORDER BY c.created_at ASC`
	var rows []commentRow
	if err := r.db.SelectContext(ctx, &rows, query, answerID); err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}
	comments := make([]models.Comment, 0, len(rows))
	for _, row := range rows {
		comments = append(comments, row.toComment())
	}
	return comments, nil
}

// Create inserts a new comment.
func (r *CommentRepository) Create(ctx context.Context, comment *models.Comment) error {
	if comment.ID == "" {
		comment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	comment.CreatedAt = now
	comment.UpdatedAt = now

	const query = `INSERT INTO comments (id, content, author_id, answer_id, parent_id, is_edited, edited_at, created_at, updated_at)
		VALUES (:id, :content, :author_id, :answer_id, :parent_id, :is_edited, :edited_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, comment); err != nil {
		return fmt.Errorf("create comment: %w", err)
	}
	return nil
}

// UpdateContent replaces the comment body, stamping the edit markers.
func (r *CommentRepository) UpdateContent(ctx context.Context, id, content string) error {
	const query = `UPDATE comments SET content = $2, is_edited = TRUE, edited_at = $3, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("update comment content: %w", err)
	}
	return nil
}

// ToggleLike removes the user's like when present, otherwise adds it.
func (r *CommentRepository) ToggleLike(ctx context.Context, commentID, userID string) (*models.LikeResult, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM comment_likes WHERE comment_id = $1 AND user_id = $2`, commentID, userID)
	if err != nil {
		return nil, fmt.Errorf("unlike comment: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unlike comment: %w", err)
	}

	liked := removed == 0
	if liked {
		const insert = `INSERT INTO comment_likes (comment_id, user_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
		if _, err := r.db.ExecContext(ctx, insert, commentID, userID, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("like comment: %w", err)
		}
	}

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM comment_likes WHERE comment_id = $1`, commentID); err != nil {
		return nil, fmt.Errorf("count comment likes: %w", err)
	}
	return &models.LikeResult{Likes: count, IsLiked: liked}, nil
}

// DeleteCascade removes the comment together with direct replies and every
// affected like row.
func (r *CommentRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete comment: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	statements := []string{
		`DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE parent_id = $1)`,
		`DELETE FROM comments WHERE parent_id = $1`,
		`DELETE FROM comment_likes WHERE comment_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade delete comment: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete comment: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete comment: %w", err)
	}
	return nil
}
