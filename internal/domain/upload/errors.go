package upload

import "smarttrack/internal/pkg/apperr"

var (
	ErrUploadNotFound  = apperr.NotFound("upload not found")
	ErrNotOwner        = apperr.Forbidden("you do not own this upload")
	ErrUnknownKind     = apperr.Validation("unknown upload kind")
	ErrFileTooLarge    = apperr.Validation("file exceeds maximum allowed size")
	ErrInvalidMimeType = apperr.Validation("file type is not allowed")
	ErrEmptyFile       = apperr.Validation("file is empty")
	ErrKindForbidden   = apperr.Forbidden("your role cannot upload this kind")
)
