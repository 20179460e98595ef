package trip

import (
	"fmt"

	"smarttrack/internal/pkg/apperr"
)

var (
	ErrNotFound          = apperr.NotFound("trip not found")
	ErrVersionConflict   = apperr.Conflict("trip was modified concurrently, reload and retry")
	ErrTerminal          = apperr.Conflict("trip is closed")
	ErrNotAssignedDriver = apperr.Forbidden("trip is not assigned to you")
	ErrNoTripAccess      = apperr.Forbidden("not allowed to follow this trip")
	ErrRoleTransition    = apperr.Forbidden("your role cannot set this status")
	ErrUseConfirmation   = apperr.Validation("delivered is set by QR confirmation")
	ErrNotConfirmable    = apperr.Conflict("trip is not out for delivery")
	ErrInvalidCode       = apperr.Validation("invalid confirmation code")
	ErrInvalidStatus     = apperr.Validation("invalid status")
	ErrDriverRequired    = apperr.Validation("driverId is required to assign a trip")
	ErrDriverUnavailable = apperr.Validation("driver is not an approved active driver of this company")
)

func transitionError(from, to Status) error {
	return apperr.Conflict(fmt.Sprintf("cannot move trip from %s to %s", from, to))
}
