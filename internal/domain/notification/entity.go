package notification

import (
	"time"

	"gorm.io/datatypes"
)

// Kind is the notification category shown by clients.
type Kind string

const (
	KindInfo    Kind = "info"
	KindTrip    Kind = "trip"
	KindChat    Kind = "chat"
	KindSupport Kind = "support"
	KindAccount Kind = "account"
	KindCompany Kind = "company"
)

// Notification is addressed to exactly one user and only ever changes by
// being marked read.
type Notification struct {
	ID        int64             `gorm:"primaryKey" json:"id"`
	UserID    int64             `gorm:"not null;index:idx_notifications_user_unread" json:"userId"`
	Type      Kind              `gorm:"size:32;not null" json:"type"`
	Title     string            `gorm:"size:200;not null" json:"title"`
	Message   string            `gorm:"type:text;not null" json:"message"`
	Link      string            `gorm:"size:500" json:"link,omitempty"`
	Meta      datatypes.JSONMap `json:"meta,omitempty"`
	IsRead    bool              `gorm:"not null;index:idx_notifications_user_unread" json:"isRead"`
	ReadAt    *time.Time        `json:"readAt,omitempty"`
	CreatedAt time.Time         `gorm:"index" json:"createdAt"`
}

func (Notification) TableName() string {
	return "notifications"
}

// Payload is the input of a single notify call.
type Payload struct {
	UserID  int64                  `json:"userId"`
	Title   string                 `json:"title"`
	Message string                 `json:"message"`
	Kind    Kind                   `json:"type"`
	Link    string                 `json:"link,omitempty"`
	Meta    map[string]interface{} `json:"meta,omitempty"`
}
