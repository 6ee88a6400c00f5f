package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/campusqa/campus-qa-api/internal/models"
)

// StatsRepository computes the moderation dashboard aggregates.
type StatsRepository struct {
	db *sqlx.DB
}

// NewStatsRepository creates a new instance of StatsRepository.
func NewStatsRepository(db *sqlx.DB) *StatsRepository {
	return &StatsRepository{db: db}
}

// DashboardStats gathers user and content totals, the five most recent
// questions and the five top contributors.
func (r *StatsRepository) DashboardStats(ctx context.Context) (*models.DashboardStats, error) {
	stats := &models.DashboardStats{}

	if err := r.db.GetContext(ctx, &stats.Users.Total, `SELECT COUNT(*) FROM users`); err != nil {
		return nil, fmt.Errorf("count users: %w", err)
	}
	activeSince := time.Now().UTC().AddDate(0, 0, -7)
	if err := r.db.GetContext(ctx, &stats.Users.Active, `SELECT COUNT(*) FROM users WHERE last_login >= $1`, activeSince); err != nil {
		return nil, fmt.Errorf("count active users: %w", err)
	}

	if err := r.db.GetContext(ctx, &stats.Content.Questions, `SELECT COUNT(*) FROM questions`); err != nil {
		return nil, fmt.Errorf("count questions: %w", err)
	}
	if err := r.db.GetContext(ctx, &stats.Content.Resolved, `SELECT COUNT(*) FROM questions WHERE is_resolved`); err != nil {
		return nil, fmt.Errorf("count resolved questions: %w", err)
	}
	if err := r.db.GetContext(ctx, &stats.Content.Answers, `SELECT COUNT(*) FROM answers`); err != nil {
		return nil, fmt.Errorf("count answers: %w", err)
	}
	if err := r.db.GetContext(ctx, &stats.Content.Comments, `SELECT COUNT(*) FROM comments`); err != nil {
		return nil, fmt.Errorf("count comments: %w", err)
	}

	const recentQuery = `SELECT q.id, q.title, u.name AS author_name, q.created_at
		FROM questions q JOIN users u ON u.id = q.author_id
		ORDER BY q.created_at DESC LIMIT 5`
	if err := r.db.SelectContext(ctx, &stats.RecentQuestions, recentQuery); err != nil {
		return nil, fmt.Errorf("list recent questions: %w", err)
	}

	const contributorQuery = `SELECT u.id, u.name, u.email, u.role,
		(SELECT COUNT(*) FROM questions q WHERE q.author_id = u.id) +
		(SELECT COUNT(*) FROM answers a WHERE a.author_id = u.id) AS contributions
		FROM users u
		ORDER BY contributions DESC, u.name ASC LIMIT 5`
	if err := r.db.SelectContext(ctx, &stats.TopContributors, contributorQuery); err != nil {
		return nil, fmt.Errorf("list top contributors: %w", err)
	}

	return stats, nil
}
