package models

import "time"

// Answer is a reply to a question. Acceptance and verification are
// independent axes; at most one answer per question is accepted.
type Answer struct {
	ID           string     `db:"id" json:"id"`
	Content      string     `db:"content" json:"content"`
	AuthorID     string     `db:"author_id" json:"authorId"`
	QuestionID   string     `db:"question_id" json:"questionId"`
	IsAccepted   bool       `db:"is_accepted" json:"isAccepted"`
	IsVerified   bool       `db:"is_verified" json:"isVerified"`
	VerifiedBy   *string    `db:"verified_by" json:"verifiedBy,omitempty"`
	VerifiedAt   *time.Time `db:"verified_at" json:"verifiedAt,omitempty"`
	IsEdited     bool       `db:"is_edited" json:"isEdited"`
	EditedAt     *time.Time `db:"edited_at" json:"editedAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
	Likes        int        `db:"like_count" json:"likes"`
	CommentCount int        `db:"comment_count" json:"commentCount"`

	Author   *Author   `db:"-" json:"author,omitempty"`
	Comments []Comment `db:"-" json:"comments,omitempty"`
}

// CreateAnswerRequest is the answer creation payload.
type CreateAnswerRequest struct {
	Content  string `json:"content" validate:"required,min=10,max=3000"`
	Question string `json:"question" validate:"required,uuid4"`
}

// UpdateAnswerRequest carries an answer edit.
type UpdateAnswerRequest struct {
	Content string `json:"content" validate:"required,min=10,max=3000"`
}
