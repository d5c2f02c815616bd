package notification

import (
	"time"

	"gorm.io/datatypes"
)

type Notification struct {
	NotificationID string         `gorm:"column:notification_id;primaryKey" json:"notification_id"`
	UserID         string         `gorm:"column:user_id;index" json:"user_id"`
	Kind           string         `gorm:"column:kind" json:"kind"`
	Title          string         `gorm:"column:title" json:"title"`
	Body           string         `gorm:"column:body" json:"body"`
	Metadata       datatypes.JSON `gorm:"column:metadata" json:"metadata,omitempty"`
	ReadAt         *time.Time     `gorm:"column:read_at" json:"read_at,omitempty"`
	CreatedAt      time.Time      `gorm:"column:created_at" json:"created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Message is the transport-agnostic payload handed to an Emitter.
type Message struct {
	UserID   string            `json:"user_id"`
	Kind     string            `json:"kind"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Metadata map[string]string `json:"metadata,omitempty"`
}
