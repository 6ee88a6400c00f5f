package models

import "time"

// UserStats aggregates account counts.
type UserStats struct {
	Total  int `json:"total"`
	Active int `json:"active"`
}

// ContentStats aggregates content counts.
type ContentStats struct {
	Questions int `json:"questions"`
	Answers   int `json:"answers"`
	Comments  int `json:"comments"`
	Resolved  int `json:"resolved"`
}

// RecentQuestion is a dashboard row for the latest questions.
type RecentQuestion struct {
	ID         string    `db:"id" json:"id"`
	Title      string    `db:"title" json:"title"`
	AuthorName string    `db:"author_name" json:"authorName"`
	CreatedAt  time.Time `db:"created_at" json:"createdAt"`
}

// TopContributor ranks users by question plus answer count.
type TopContributor struct {
	ID            string `db:"id" json:"id"`
	Name          string `db:"name" json:"name"`
	Email         string `db:"email" json:"email"`
	Role          Role   `db:"role" json:"role"`
	Contributions int    `db:"contributions" json:"totalContributions"`
}

// DashboardStats is the moderation dashboard payload.
type DashboardStats struct {
	Users           UserStats        `json:"users"`
	Content         ContentStats     `json:"content"`
	RecentQuestions []RecentQuestion `json:"recentQuestions"`
	TopContributors []TopContributor `json:"topContributors"`
}
