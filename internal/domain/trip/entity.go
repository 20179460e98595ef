package trip

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type Location struct {
	Address string  `gorm:"size:500;not null" json:"address"`
	Lat     float64 `gorm:"type:double precision;not null" json:"lat"`
	Lng     float64 `gorm:"type:double precision;not null" json:"lng"`
}

type Financials struct {
	Subtotal    float64 `gorm:"type:double precision;not null" json:"subtotal"`
	DeliveryFee float64 `gorm:"type:double precision;not null" json:"deliveryFee"`
	Tax         float64 `gorm:"type:double precision;not null" json:"tax"`
	Discount    float64 `gorm:"type:double precision;not null" json:"discount"`
	Total       float64 `gorm:"type:double precision;not null" json:"total"`
	DistanceKm  float64 `gorm:"type:double precision;not null" json:"distanceKm"`
}

type TimelineEntry struct {
	Status    Status    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	ActorID   int64     `json:"actorId"`
	Note      string    `json:"note,omitempty"`
}

// Timeline is stored as a JSON text column.
type Timeline []TimelineEntry

func (t Timeline) Value() (driver.Value, error) {
	if t == nil {
		return "[]", nil
	}
	b, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (t *Timeline) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*t = Timeline{}
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("timeline: unsupported source %T", src)
	}
	if len(raw) == 0 {
		*t = Timeline{}
		return nil
	}
	return json.Unmarshal(raw, t)
}

func (Timeline) GormDataType() string { return "text" }

type Trip struct {
	ID                 int64      `gorm:"primaryKey" json:"id"`
	OrderNumber        string     `gorm:"size:32;uniqueIndex;not null" json:"orderNumber"`
	CompanyID          int64      `gorm:"not null;index" json:"companyId"`
	CustomerID         int64      `gorm:"not null;index" json:"customerId"`
	DriverID           *int64     `gorm:"index" json:"driverId"`
	VehicleID          *string    `gorm:"size:64" json:"vehicleId"`
	Pickup             Location   `gorm:"embedded;embeddedPrefix:pickup_" json:"pickup"`
	Dropoff            Location   `gorm:"embedded;embeddedPrefix:dropoff_" json:"dropoff"`
	PackageDescription string     `gorm:"size:1000" json:"packageDescription"`
	Notes              string     `gorm:"size:1000" json:"notes,omitempty"`
	Status             Status     `gorm:"size:20;not null;index" json:"status"`
	Timeline           Timeline   `json:"timeline"`
	Financials         Financials `gorm:"embedded" json:"financials"`
	CustomerConfirmed  bool       `gorm:"not null" json:"customerConfirmed"`
	ConfirmationTime   *time.Time `json:"confirmationTime"`
	ConfirmationCode   string     `gorm:"size:36;not null" json:"-"`
	LastLat            *float64   `gorm:"type:double precision" json:"lastLat,omitempty"`
	LastLng            *float64   `gorm:"type:double precision" json:"lastLng,omitempty"`
	LastLocationAt     *time.Time `json:"lastLocationAt,omitempty"`
	CancelReason       string     `gorm:"size:500" json:"cancelReason,omitempty"`
	Version            int64      `gorm:"not null" json:"version"`
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

func (t *Trip) AssignedTo(userID int64) bool {
	return t.DriverID != nil && *t.DriverID == userID
}
