package chat

import (
	"time"

	"smarttrack/internal/domain/user"
)

// Message is one line of the conversation between a company account and
// one of its managers. Messages are append-only.
type Message struct {
	ID         int64      `gorm:"primaryKey" json:"id"`
	CompanyID  int64      `gorm:"not null;index:idx_mc_thread,priority:1" json:"companyId"`
	ManagerID  int64      `gorm:"not null;index:idx_mc_thread,priority:2" json:"managerId"`
	SenderID   int64      `gorm:"not null" json:"senderId"`
	SenderRole user.Role  `gorm:"size:20;not null" json:"senderRole"`
	Text       string     `gorm:"type:text;not null" json:"text"`
	ReadAt     *time.Time `json:"readAt,omitempty"`
	CreatedAt  time.Time  `gorm:"index" json:"createdAt"`
}

func (Message) TableName() string { return "manager_company_chats" }

// Thread summarises the conversation with one manager for the company view.
type Thread struct {
	ManagerID   int64      `json:"managerId"`
	ManagerName string     `json:"managerName"`
	LastMessage *Message   `json:"lastMessage,omitempty"`
	LastAt      *time.Time `json:"lastAt,omitempty"`
	Unread      int64      `json:"unread"`
}
