package auth

import "smarttrack/internal/pkg/apperr"

var (
	ErrInvalidCredentials = apperr.Unauthenticated("invalid email or password")
	ErrPendingApproval    = apperr.Forbidden("account is pending approval")
	ErrRejected           = apperr.Forbidden("account registration was rejected")
	ErrAccountDisabled    = apperr.Forbidden("account is disabled")
	ErrWrongPassword      = apperr.Validation("current password is incorrect")
	ErrInvalidStaffRole   = apperr.Validation("role must be driver or manager")
	ErrCompanyUnavailable = apperr.Validation("company does not exist or is not accepting staff")
)
