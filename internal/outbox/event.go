// Package outbox stores domain events in the same transaction as the state
// change that produced them and relays them to the message broker.
package outbox

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const ChannelName = "outbox_events"

// Event types.
const (
	TripCreated          = "trip.created"
	TripStatusChanged    = "trip.status_changed"
	TripDelivered        = "trip.delivered"
	CompanyApproved      = "company.approved"
	CompanyStatusChanged = "company.status_changed"
	CompanyTierChanged   = "company.tier_changed"
	SupportOpened        = "support.opened"
)

type Event struct {
	ID            string         `gorm:"primaryKey;size:36" json:"id"`
	EventType     string         `gorm:"size:64;not null;index" json:"eventType"`
	AggregateType string         `gorm:"size:32;not null" json:"aggregateType"`
	AggregateID   int64          `gorm:"not null" json:"aggregateId"`
	Payload       datatypes.JSON `gorm:"not null" json:"payload"`
	Attempts      int            `gorm:"not null" json:"attempts"`
	LastError     string         `gorm:"size:500" json:"lastError,omitempty"`
	CreatedAt     time.Time      `gorm:"index" json:"createdAt"`
	ProcessedAt   *time.Time     `gorm:"index" json:"processedAt,omitempty"`
}

func (Event) TableName() string { return "outbox_events" }

// Record inserts an event using tx. On postgres it also signals the relay;
// the NOTIFY is only delivered if tx commits.
func Record(tx *gorm.DB, eventType, aggregateType string, aggregateID int64, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	ev := &Event{
		ID:            uuid.NewString(),
		EventType:     eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		Payload:       datatypes.JSON(body),
		CreatedAt:     time.Now().UTC(),
	}
	if err := tx.Create(ev).Error; err != nil {
		return err
	}
	if tx.Dialector.Name() == "postgres" {
		return tx.Exec("SELECT pg_notify(?, ?)", ChannelName, ev.ID).Error
	}
	return nil
}
