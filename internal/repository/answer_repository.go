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

const answerColumns = `a.id, a.content, a.author_id, a.question_id, a.is_accepted, a.is_verified,
	a.verified_by, a.verified_at, a.is_edited, a.edited_at, a.created_at, a.updated_at,
	(SELECT COUNT(*) FROM answer_likes al WHERE al.answer_id = a.id) AS like_count,
	(SELECT COUNT(*) FROM comments c WHERE c.answer_id = a.id) AS comment_count,
	u.name AS author_name, u.avatar AS author_avatar, u.role AS author_role`

const answerSelect = `SELECT ` + answerColumns + ` FROM answers a JOIN users u ON u.id = a.author_id`

type answerRow struct {
	models.Answer
	AuthorName   string      `db:"author_name"`
	AuthorAvatar string      `db:"author_avatar"`
	AuthorRole   models.Role `db:"author_role"`
}

func (row answerRow) toAnswer() models.Answer {
	a := row.Answer
	a.Author = &models.Author{
		ID:     a.AuthorID,
		Name:   row.AuthorName,
		Avatar: row.AuthorAvatar,
		Role:   row.AuthorRole,
	}
	return a
}

// AnswerRepository provides database access for answers and their like set.
type AnswerRepository struct {
	db *sqlx.DB
}

// NewAnswerRepository creates a new instance of AnswerRepository.
func NewAnswerRepository(db *sqlx.DB) *AnswerRepository {
	return &AnswerRepository{db: db}
}

// FindByID returns an answer with author and derived counts.
func (r *AnswerRepository) FindByID(ctx context.Context, id string) (*models.Answer, error) {
	query := answerSelect + ` WHERE a.id = $1 LIMIT 1`
	var row answerRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find answer by id: %w", err)
	}
	answer := row.toAnswer()
	return &answer, nil
}

// ListByQuestion returns the question's answers in creation order with a
// total count.
func (r *AnswerRepository) ListByQuestion(ctx context.Context, questionID string, page, limit int) ([]models.Answer, int, error) {
	if page < 1 {
		page = 1
	}
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	query := fmt.Sprintf("%s WHERE a.question_id = $1 ORDER BY a.created_at ASC LIMIT %d OFFSET %d", answerSelect, limit, offset)
	var rows []answerRow
	if err := r.db.SelectContext(ctx, &rows, query, questionID); err != nil {
		return nil, 0, fmt.Errorf("list answers: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM answers WHERE question_id = $1`, questionID); err != nil {
		return nil, 0, fmt.Errorf("count answers: %w", err)
	}

	answers := make([]models.Answer, 0, len(rows))
	for _, row := range rows {
		answers = append(answers, row.toAnswer())
	}
	return answers, total, nil
}

// Create inserts a new answer.
func (r *AnswerRepository) Create(ctx context.Context, answer *models.Answer) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	answer.CreatedAt = now
	answer.UpdatedAt = now

	const query = `INSERT INTO answers (id, content, author_id, question_id, is_accepted, is_verified, verified_by, verified_at, is_edited, edited_at, created_at, updated_at)
		VALUES (:id, :content, :author_id, :question_id, :is_accepted, :is_verified, :verified_by, :verified_at, :is_edited, :edited_at, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, answer); err != nil {
		return fmt.Errorf("create answer: %w", err)
	}
	return nil
}

// UpdateContent replaces the answer body, stamping the edit markers.
func (r *AnswerRepository) UpdateContent(ctx context.Context, id, content string) error {
	const query = `UPDATE answers SET content = $2, is_edited = TRUE, edited_at = $3, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, content, time.Now().UTC()); err != nil {
		return fmt.Errorf("update answer content: %w", err)
	}
	return nil
}

// Accept marks the answer accepted, clears acceptance on every sibling and
// resolves the parent question, all in one transaction.
func (r *AnswerRepository) Accept(ctx context.Context, answerID, questionID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept answer: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	if _, err := tx.ExecContext(ctx, `UPDATE answers SET is_accepted = FALSE, updated_at = $3 WHERE question_id = $2 AND id <> $1 AND is_accepted`, answerID, questionID, now); err != nil {
		return fmt.Errorf("clear sibling acceptance: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE answers SET is_accepted = TRUE, updated_at = $2 WHERE id = $1`, answerID, now); err != nil {
		return fmt.Errorf("accept answer: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE questions SET is_resolved = TRUE, updated_at = $2 WHERE id = $1`, questionID, now); err != nil {
		return fmt.Errorf("resolve question on accept: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accept answer: %w", err)
	}
	return nil
}

// ToggleVerify flips verification in a single conditional statement; the
// verifier stamp is set on verify and cleared on un-verify.
func (r *AnswerRepository) ToggleVerify(ctx context.Context, id, verifierID string) (bool, error) {
	const query = `UPDATE answers SET
		is_verified = NOT is_verified,
		verified_by = CASE WHEN is_verified THEN NULL ELSE $2 END,
		verified_at = CASE WHEN is_verified THEN NULL ELSE $3 END,
		updated_at = $3
		WHERE id = $1 RETURNING is_verified`
	var verified bool
	if err := r.db.GetContext(ctx, &verified, query, id, verifierID, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return false, err
		}
		return false, fmt.Errorf("toggle verify: %w", err)
	}
	return verified, nil
}

// ToggleLike removes the user's like when present, otherwise adds it.
func (r *AnswerRepository) ToggleLike(ctx context.Context, answerID, userID string) (*models.LikeResult, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM answer_likes WHERE answer_id = $1 AND user_id = $2`, answerID, userID)
	if err != nil {
		return nil, fmt.Errorf("unlike answer: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unlike answer: %w", err)
	}

	liked := removed == 0
	if liked {
		const insert = `INSERT INTO answer_likes (answer_id, user_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
		if _, err := r.db.ExecContext(ctx, insert, answerID, userID, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("like answer: %w", err)
		}
	}

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM answer_likes WHERE answer_id = $1`, answerID); err != nil {
		return nil, fmt.Errorf("count answer likes: %w", err)
	}
	return &models.LikeResult{Likes: count, IsLiked: liked}, nil
}

// DeleteCascade removes the answer with its comments and like rows in one
// transaction.
func (r *AnswerRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete answer: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	statements := []string{
		`DELETE FROM comment_likes WHERE comment_id IN (SELECT id FROM comments WHERE answer_id = $1)`,
		`DELETE FROM comments WHERE answer_id = $1`,
		`DELETE FROM answer_likes WHERE answer_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade delete answer: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM answers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete answer: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete answer: %w", err)
	}
	return nil
}
