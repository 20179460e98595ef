package support

import (
	"time"

	"smarttrack/internal/domain/user"
)

type Status string

const (
	StatusOpen     Status = "open"
	StatusReviewed Status = "reviewed"
	StatusResolved Status = "resolved"
)

func (s Status) rank() int {
	switch s {
	case StatusOpen:
		return 1
	case StatusReviewed:
		return 2
	case StatusResolved:
		return 3
	}
	return 0
}

func (s Status) Valid() bool { return s.rank() > 0 }

// Message is a support request addressed to the sender's company. Its text
// never changes; only the status moves forward.
type Message struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	CompanyID  int64      `gorm:"not null;index" json:"companyId"`
	SenderID   int64      `gorm:"not null;index" json:"senderId"`
	SenderRole user.Role  `gorm:"size:20;not null" json:"senderRole"`
	Subject    string     `gorm:"size:255;not null" json:"subject"`
	Message    string     `gorm:"type:text;not null" json:"message"`
	Status     Status     `gorm:"size:20;not null;index" json:"status"`
	ReviewedAt *time.Time `json:"reviewedAt,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

func (Message) TableName() string { return "support_messages" }

type CreateRequest struct {
	Subject string `json:"subject" validate:"required,min=3,max=255"`
	Message string `json:"message" validate:"required,min=1,max=4000"`
}

type StatusRequest struct {
	Status Status `json:"status" validate:"required"`
}
