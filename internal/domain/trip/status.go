package trip

import "smarttrack/internal/domain/user"

type Status string

const (
	StatusPending    Status = "pending"
	StatusAccepted   Status = "accepted"
	StatusPreparing  Status = "preparing"
	StatusAssigned   Status = "assigned"
	StatusDelivering Status = "delivering"
	StatusDelivered  Status = "delivered"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

var transitions = map[Status][]Status{
	StatusPending:    {StatusAccepted, StatusCancelled},
	StatusAccepted:   {StatusPreparing, StatusAssigned, StatusCancelled},
	StatusPreparing:  {StatusAssigned, StatusDelivering, StatusCancelled},
	StatusAssigned:   {StatusDelivering, StatusDelivered, StatusCancelled},
	StatusDelivering: {StatusDelivered, StatusCompleted},
}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusPreparing, StatusAssigned,
		StatusDelivering, StatusDelivered, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether the state machine has an edge from -> to.
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// RoleAllows reports whether role may move a trip from -> to through the
// status endpoint. Ownership of the trip is checked separately.
func RoleAllows(role user.Role, from, to Status) bool {
	switch role {
	case user.RoleCompany, user.RoleManager:
		switch to {
		case StatusAccepted, StatusPreparing, StatusAssigned, StatusDelivering, StatusCompleted:
			return true
		case StatusCancelled:
			return from == StatusPending || from == StatusAccepted || from == StatusPreparing
		}
	case user.RoleDriver:
		return to == StatusDelivering && from == StatusAssigned
	case user.RoleCustomer:
		return to == StatusCancelled && from == StatusPending
	}
	return false
}
