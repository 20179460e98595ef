package support

import "smarttrack/internal/pkg/apperr"

var (
	ErrNotFound       = apperr.NotFound("support message not found")
	ErrInvalidStatus  = apperr.Validation("status must be open, reviewed or resolved")
	ErrStatusBackward = apperr.Conflict("support status cannot move backwards")
)
