package domain

import (
	"time"
)

// Comment is a threaded note on a resource. Mentions hold the user ids
// referenced in the content; each mention fans out one notification.
type Comment struct {
	ID           uint64
	ResourceType string `gorm:"index:idx_comment_resource"`
	ResourceID   uint64 `gorm:"index:idx_comment_resource"`
	ParentID     *uint64
	AuthorID     uint64
	Content      string
	Mentions     []uint64 `gorm:"serializer:json"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// NotificationActor describes who caused a notification
type NotificationActor struct {
	UserID    uint64 `json:"user_id"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// Notification is a directed message to exactly one user
type Notification struct {
	ID           uint64
	UserID       uint64 `gorm:"index"` // recipient
	Type         string // mention, assignment, status_change
	Title        string
	Message      string
	ResourceType string
	ResourceID   *uint64
	Priority     string              `gorm:"default:normal"` // low, normal, high
	Read         bool                `gorm:"default:false"`
	ReadAt       *time.Time
	Actors       []NotificationActor `gorm:"serializer:json"`
	CreatedAt    time.Time
}

// Activity is an append-only log record of a user action. Rows are never
// updated after creation.
type Activity struct {
	ID           uint64
	SessionID    string  `gorm:"index"`
	ResourceType string  `gorm:"index:idx_activity_resource"`
	ResourceID   *uint64 `gorm:"index:idx_activity_resource"`
	ActorID      uint64  `gorm:"index"`
	Action       string  `gorm:"index"`
	Description  string
	Metadata     map[string]any `gorm:"serializer:json"`
	CreatedAt    time.Time
}
