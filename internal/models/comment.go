package models

import "time"

// Comment belongs to an answer. Threading is one level deep: a comment may
// reference a root comment of the same answer as its parent, never another
// reply.
type Comment struct {
	ID        string     `db:"id" json:"id"`
	Content   string     `db:"content" json:"content"`
	AuthorID  string     `db:"author_id" json:"authorId"`
	AnswerID  string     `db:"answer_id" json:"answerId"`
	ParentID  *string    `db:"parent_id" json:"parentComment,omitempty"`
	IsEdited  bool       `db:"is_edited" json:"isEdited"`
	EditedAt  *time.Time `db:"edited_at" json:"editedAt,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	Likes     int        `db:"like_count" json:"likes"`

	Author *Author `db:"-" json:"author,omitempty"`
}

// CreateCommentRequest is the comment creation payload.
type CreateCommentRequest struct {
	Content       string  `json:"content" validate:"required,min=5,max=1000"`
	ParentComment *string `json:"parentComment" validate:"omitempty,uuid4"`
}

// UpdateCommentRequest carries a comment edit.
type UpdateCommentRequest struct {
	Content string `json:"content" validate:"required,min=5,max=1000"`
}
