package models

import (
	"time"

	"github.com/lib/pq"
)

// QuestionCategory enumerates question categories.
type QuestionCategory string

const (
	CategoryAcademic       QuestionCategory = "academic"
	CategoryGeneral        QuestionCategory = "general"
	CategoryTechnical      QuestionCategory = "technical"
	CategoryAdministrative QuestionCategory = "administrative"
	CategoryOther          QuestionCategory = "other"
)

// QuestionPriority enumerates question priorities.
type QuestionPriority string

const (
	PriorityLow    QuestionPriority = "low"
	PriorityMedium QuestionPriority = "medium"
	PriorityHigh   QuestionPriority = "high"
	PriorityUrgent QuestionPriority = "urgent"
)

// Question is a student question with its derived counters.
type Question struct {
	ID          string           `db:"id" json:"id"`
	Title       string           `db:"title" json:"title"`
	Content     string           `db:"content" json:"content"`
	AuthorID    string           `db:"author_id" json:"authorId"`
	Tags        pq.StringArray   `db:"tags" json:"tags"`
	Category    QuestionCategory `db:"category" json:"category"`
	Priority    QuestionPriority `db:"priority" json:"priority"`
	IsResolved  bool             `db:"is_resolved" json:"isResolved"`
	Views       int              `db:"views" json:"views"`
	IsArchived  bool             `db:"is_archived" json:"isArchived"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updatedAt"`
	Likes       int              `db:"like_count" json:"likes"`
	AnswerCount int              `db:"answer_count" json:"answerCount"`

	Author *Author `db:"-" json:"author,omitempty"`
}

// QuestionFilter captures list filters for public and moderation listings.
type QuestionFilter struct {
	Category string
	Resolved *bool
	Priority string
	Tags     []string
	Search   string
	AuthorID string
	Archived *bool
	Page     int
	Limit    int
}

// CreateQuestionRequest is the question creation payload.
type CreateQuestionRequest struct {
	Title    string   `json:"title" validate:"required,min=10,max=200"`
	Content  string   `json:"content" validate:"required,min=20,max=2000"`
	Category string   `json:"category" validate:"omitempty,oneof=academic general technical administrative other"`
	Priority string   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags     []string `json:"tags" validate:"omitempty,dive,min=1,max=30"`
}

// UpdateQuestionRequest is the question update payload; validation mirrors
// creation.
type UpdateQuestionRequest struct {
	Title    string   `json:"title" validate:"required,min=10,max=200"`
	Content  string   `json:"content" validate:"required,min=20,max=2000"`
	Category string   `json:"category" validate:"omitempty,oneof=academic general technical administrative other"`
	Priority string   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	Tags     []string `json:"tags" validate:"omitempty,dive,min=1,max=30"`
}

// LikeResult reports the state after a like toggle.
type LikeResult struct {
	Likes   int  `json:"likes"`
	IsLiked bool `json:"isLiked"`
}
