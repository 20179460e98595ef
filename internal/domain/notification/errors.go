package notification

import "smarttrack/internal/pkg/apperr"

var (
	ErrNotFound         = apperr.NotFound("notification not found")
	ErrMissingRecipient = apperr.Validation("recipient is required")
	ErrMissingTitle     = apperr.Validation("title is required")
	ErrMissingMessage   = apperr.Validation("message is required")
)
