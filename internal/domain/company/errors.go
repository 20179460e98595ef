package company

import "smarttrack/internal/pkg/apperr"

var (
	ErrNotFound            = apperr.NotFound("company not found")
	ErrApplicationNotFound = apperr.NotFound("application not found")
	ErrApplicationReviewed = apperr.Conflict("application already reviewed")
	ErrApplicationExists   = apperr.Conflict("an application for this email is already pending")
	ErrInvalidTier         = apperr.Validation("invalid tier")
	ErrInvalidBilling      = apperr.Validation("invalid billing status")
	ErrStaffNotFound       = apperr.NotFound("staff member not found")
	ErrStaffNotPending     = apperr.Conflict("staff member is not pending approval")
	ErrReasonRequired      = apperr.Validation("reason is required")
)
