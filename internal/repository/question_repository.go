package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campusqa/campus-qa-api/internal/models"
)

const questionColumns = `q.id, q.title, q.content, q.author_id, q.tags, q.category, q.priority,
	q.is_resolved, q.views, q.is_archived, q.created_at, q.updated_at,
	(SELECT COUNT(*) FROM question_likes ql WHERE ql.question_id = q.id) AS like_count,
	(SELECT COUNT(*) FROM answers a WHERE a.question_id = q.id) AS answer_count,
	u.name AS author_name, u.avatar AS author_avatar, u.role AS author_role`

const questionSelect = `SELECT ` + questionColumns + ` FROM questions q JOIN users u ON u.id = q.author_id`

type questionRow struct {
	models.Question
	AuthorName   string      `db:"author_name"`
	AuthorAvatar string      `db:"author_avatar"`
	AuthorRole   models.Role `db:"author_role"`
}

func (row questionRow) toQuestion() models.Question {
	q := row.Question
	q.Author = &models.Author{
		ID:     q.AuthorID,
		Name:   row.AuthorName,
		Avatar: row.AuthorAvatar,
		Role:   row.AuthorRole,
	}
	return q
}

// QuestionRepository provides database access for questions and their
// like set.
type QuestionRepository struct {
	db *sqlx.DB
}

// NewQuestionRepository creates a new instance of QuestionRepository.
func NewQuestionRepository(db *sqlx.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

// FindByID returns a question with author and derived counts.
func (r *QuestionRepository) FindByID(ctx context.Context, id string) (*models.Question, error) {
	query := questionSelect + ` WHERE q.id = $1 LIMIT 1`
	var row questionRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find question by id: %w", err)
	}
	question := row.toQuestion()
	return &question, nil
}

// List returns questions matching the filter, newest first, with a total
// count.
func (r *QuestionRepository) List(ctx context.Context, filter models.QuestionFilter) ([]models.Question, int, error) {
	baseQuery := `FROM questions q JOIN users u ON u.id = q.author_id WHERE 1=1`
	var conditions []string
	var args []interface{}

	if filter.Category != "" {
		conditions = append(conditions, fmt.Sprintf("q.category = $%d", len(args)+1))
		args = append(args, filter.Category)
	}
	if filter.Resolved != nil {
		conditions = append(conditions, fmt.Sprintf("q.is_resolved = $%d", len(args)+1))
		args = append(args, *filter.Resolved)
	}
	if filter.Priority != "" {
		conditions = append(conditions, fmt.Sprintf("q.priority = $%d", len(args)+1))
		args = append(args, filter.Priority)
	}
	if len(filter.Tags) > 0 {
		conditions = append(conditions, fmt.Sprintf("q.tags && $%d", len(args)+1))
		args = append(args, pq.StringArray(filter.Tags))
	}
	if filter.Search != "" {
		conditions = append(conditions, fmt.Sprintf("(q.title ILIKE $%d OR q.content ILIKE $%d)", len(args)+1, len(args)+1))
		args = append(args, "%"+filter.Search+"%")
	}
	if filter.AuthorID != "" {
		conditions = append(conditions, fmt.Sprintf("q.author_id = $%d", len(args)+1))
		args = append(args, filter.AuthorID)
	}
	if filter.Archived != nil {
		conditions = append(conditions, fmt.Sprintf("q.is_archived = $%d", len(args)+1))
		args = append(args, *filter.Archived)
	}

	if len(conditions) > 0 {
		baseQuery += " AND " + strings.Join(conditions, " AND ")
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	limit := filter.Limit
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	offset := (page - 1) * limit

	listQuery := fmt.Sprintf("SELECT %s %s ORDER BY q.created_at DESC LIMIT %d OFFSET %d", questionColumns, baseQuery, limit, offset)

	var rows []questionRow
	if err := r.db.SelectContext(ctx, &rows, listQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("list questions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", baseQuery)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count questions: %w", err)
	}

	questions := make([]models.Question, 0, len(rows))
	for _, row := range rows {
		questions = append(questions, row.toQuestion())
	}
	return questions, total, nil
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, question *models.Question) error {
	if question.ID == "" {
		question.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	question.CreatedAt = now
	question.UpdatedAt = now

	const query = `INSERT INTO questions (id, title, content, author_id, tags, category, priority, is_resolved, views, is_archived, created_at, updated_at)
		VALUES (:id, :title, :content, :author_id, :tags, :category, :priority, :is_resolved, :views, :is_archived, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("create question: %w", err)
	}
	return nil
}

// Update persists the mutable question fields.
func (r *QuestionRepository) Update(ctx context.Context, question *models.Question) error {
	question.UpdatedAt = time.Now().UTC()
	const query = `UPDATE questions SET title = :title, content = :content, tags = :tags, category = :category, priority = :priority, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, question); err != nil {
		return fmt.Errorf("update question: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter.
func (r *QuestionRepository) IncrementViews(ctx context.Context, id string) error {
	const query = `UPDATE questions SET views = views + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("increment views: %w", err)
	}
	return nil
}

// Resolve marks the question resolved. The transition is one-way.
func (r *QuestionRepository) Resolve(ctx context.Context, id string) error {
	const query = `UPDATE questions SET is_resolved = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("resolve question: %w", err)
	}
	return nil
}

// ToggleArchive flips is_archived in a single statement and returns the
// resulting state.
func (r *QuestionRepository) ToggleArchive(ctx context.Context, id string) (bool, error) {
	const query = `UPDATE questions SET is_archived = NOT is_archived, updated_at = $2 WHERE id = $1 RETURNING is_archived`
	var archived bool
	if err := r.db.GetContext(ctx, &archived, query, id, time.Now().UTC()); err != nil {
		if err == sql.ErrNoRows {
			return false, err
		}
		return false, fmt.Errorf("toggle archive: %w", err)
	}
	return archived, nil
}

// ToggleLike removes the user's like when present, otherwise adds it, and
// returns the resulting cardinality and membership.
func (r *QuestionRepository) ToggleLike(ctx context.Context, questionID, userID string) (*models.LikeResult, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM question_likes WHERE question_id = $1 AND user_id = $2`, questionID, userID)
	if err != nil {
		return nil, fmt.Errorf("unlike question: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("unlike question: %w", err)
	}

	liked := removed == 0
	if liked {
		const insert = `INSERT INTO question_likes (question_id, user_id, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`
		if _, err := r.db.ExecContext(ctx, insert, questionID, userID, time.Now().UTC()); err != nil {
			return nil, fmt.Errorf("like question: %w", err)
		}
	}

	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM question_likes WHERE question_id = $1`, questionID); err != nil {
		return nil, fmt.Errorf("count question likes: %w", err)
	}
	return &models.LikeResult{Likes: count, IsLiked: liked}, nil
}

// DeleteCascade removes the question together with its answers, their
// comments and every related like row in one transaction.
func (r *QuestionRepository) DeleteCascade(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete question: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	statements := []string{
		`DELETE FROM comment_likes WHERE comment_id IN (
			SELECT c.id FROM comments c JOIN answers a ON a.id = c.answer_id WHERE a.question_id = $1)`,
		`DELETE FROM comments WHERE answer_id IN (SELECT id FROM answers WHERE question_id = $1)`,
		`DELETE FROM answer_likes WHERE answer_id IN (SELECT id FROM answers WHERE question_id = $1)`,
		`DELETE FROM answers WHERE question_id = $1`,
		`DELETE FROM question_likes WHERE question_id = $1`,
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("cascade delete question: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete question: %w", err)
	}
	return nil
}
