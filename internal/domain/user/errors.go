package user

import "smarttrack/internal/pkg/apperr"

var (
	ErrNotFound    = apperr.NotFound("user not found")
	ErrEmailExists = apperr.Conflict("email already registered")
)
