package models

import (
	"math"
	"time"
)

// User represents an account stored in the users table. Regular accounts
// are created at provider sign-in; bootstrap admin accounts additionally
// carry a password hash for the local login path.
type User struct {
	ID           string     `db:"id" json:"id"`
	ProviderID   *string    `db:"provider_id" json:"-"`
	Email        string     `db:"email" json:"email"`
	PasswordHash *string    `db:"password_hash" json:"-"`
	Name         string     `db:"name" json:"name"`
	Avatar       string     `db:"avatar" json:"avatar"`
	Department   string     `db:"department" json:"department"`
	StudentID    *string    `db:"student_id" json:"studentId,omitempty"`
	Role         Role       `db:"role" json:"role"`
	Active       bool       `db:"active" json:"isActive"`
	LastLogin    *time.Time `db:"last_login" json:"lastLogin,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time  `db:"updated_at" json:"updatedAt"`
}

// Author is the public projection of a content author attached to
// questions, answers and comments.
type Author struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   Role   `json:"role"`
}

// UserFilter captures filtering criteria for the moderation user listing.
type UserFilter struct {
	Role   *Role
	Search string
	Page   int
	Limit  int
}

// Pagination is returned alongside every list payload.
type Pagination struct {
	Current int `json:"current"`
	Pages   int `json:"pages"`
	Total   int `json:"total"`
	Limit   int `json:"limit"`
}

// NewPagination computes page metadata for a result window.
func NewPagination(page, limit, total int) *Pagination {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	return &Pagination{
		Current: page,
		Pages:   int(math.Ceil(float64(total) / float64(limit))),
		Total:   total,
		Limit:   limit,
	}
}

// UpdateProfileRequest carries the self-service profile mutation.
type UpdateProfileRequest struct {
	Name       string `json:"name" validate:"omitempty,min=2,max=50"`
	Department string `json:"department" validate:"omitempty,max=100"`
	StudentID  string `json:"studentId" validate:"omitempty,max=30"`
}

// UpdateRoleRequest carries the admin role mutation.
type UpdateRoleRequest struct {
	Role string `json:"role" validate:"required,oneof=student teacher admin"`
}
