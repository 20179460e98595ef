package chat

import "smarttrack/internal/pkg/apperr"

var (
	ErrEmptyMessage    = apperr.Validation("text is required")
	ErrMessageTooLong  = apperr.Validation("text must be at most 4000 characters")
	ErrManagerNotFound = apperr.NotFound("manager not found")
)
