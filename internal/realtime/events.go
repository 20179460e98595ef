package realtime

import (
	"encoding/json"
	"fmt"
	"time"

	"smarttrack/internal/domain/user"
)

// Server to client events.
const (
	EventNotificationNew       = "notification:new"
	EventNotification          = "notification"
	EventTripLocationUpdate    = "trip:location_update"
	EventTripStatusUpdate      = "trip:status_update"
	EventTripDelivered         = "trip:delivered"
	EventChatManagerCompanyNew = "chat:mc:new"
	EventSupportNew            = "support:new"
	EventDriverNotification    = "driver:new_notification"

	eventRegistered = "registered"
	eventTripJoined = "trip:joined"
	eventTripLeft   = "trip:left"
	eventPong       = "pong"
	eventError      = "error"
)

// Client to server events.
const (
	cmdRegister  = "register"
	cmdJoinTrip  = "join_trip"
	cmdLeaveTrip = "leave_trip"
	cmdPing      = "ping"
)

func UserRoom(userID int64) string       { return fmt.Sprintf("user_%d", userID) }
func CompanyRoom(companyID int64) string { return fmt.Sprintf("company_%d", companyID) }
func ManagerRoom(companyID int64) string { return fmt.Sprintf("manager_%d", companyID) }
func DriverRoom(companyID int64) string  { return fmt.Sprintf("driver_%d", companyID) }
func TripRoom(tripID int64) string       { return fmt.Sprintf("trip_%d", tripID) }

// RoomsFor lists the rooms a registered connection of u belongs to.
// Company scoped rooms come from the stored account, never from the client.
func RoomsFor(u *user.User) []string {
	rooms := []string{UserRoom(u.ID)}
	companyID := u.TenantID()
	if companyID == 0 {
		return rooms
	}
	switch u.Role {
	case user.RoleCompany:
		rooms = append(rooms, CompanyRoom(companyID))
	case user.RoleManager:
		rooms = append(rooms, CompanyRoom(companyID), ManagerRoom(companyID))
	case user.RoleDriver:
		rooms = append(rooms, DriverRoom(companyID))
	}
	return rooms
}

// Frame is the wire shape of every server to client message.
type Frame struct {
	Event     string      `json:"event"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

type inbound struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type registerData struct {
	UserID    int64  `json:"userId"`
	Role      string `json:"role,omitempty"`
	CompanyID int64  `json:"companyId,omitempty"`
}

type tripData struct {
	TripID int64 `json:"tripId"`
}

func encodeFrame(event string, data interface{}, at time.Time) ([]byte, error) {
	return json.Marshal(Frame{Event: event, Data: data, Timestamp: at.UTC()})
}
