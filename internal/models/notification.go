package models

import "time"

// NotificationType mirrors the kind of content that triggered the
// notification.
type NotificationType string

const (
	NotificationQuestion NotificationType = "question"
	NotificationAnswer   NotificationType = "answer"
	NotificationComment  NotificationType = "comment"
)

// RelatedType names the entity a notification references.
type RelatedType string

const (
	RelatedQuestion RelatedType = "question"
	RelatedAnswer   RelatedType = "answer"
	RelatedComment  RelatedType = "comment"
)

// Notification is a per-recipient row in the notifications table. Created
// only by the fan-out; mutated only by the owning user marking it read or
// deleting it.
type Notification struct {
	ID          string           `db:"id" json:"id"`
	RecipientID string           `db:"recipient_id" json:"-"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	RelatedID   string           `db:"related_id" json:"relatedId"`
	RelatedType RelatedType      `db:"related_type" json:"relatedType"`
	IsRead      bool             `db:"is_read" json:"isRead"`
	CreatedAt   time.Time        `db:"created_at" json:"createdAt"`
}
