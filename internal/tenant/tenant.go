// Package tenant derives the company a request acts for and scopes queries
// to it. Tenant-scoped repositories take the resolved id and apply Scope.
package tenant

import (
	"context"
	"errors"

	"smarttrack/internal/domain/user"
	"smarttrack/internal/pkg/apperr"

	"gorm.io/gorm"
)

var (
	ErrNoCompany        = apperr.Forbidden("no company assigned to this account")
	ErrNoActiveCompany  = apperr.Validation("no active company selected")
	ErrNotMember        = apperr.Forbidden("not a member of the selected company")
	ErrCompanySuspended = apperr.Forbidden("company is suspended")
	ErrPlatformScope    = apperr.Forbidden("platform accounts must address a company explicitly")
	ErrUnscopedQuery    = errors.New("tenant: query without company scope")
)

// CompanyStatus reports whether a company exists and is active.
type CompanyStatus interface {
	CompanyActive(ctx context.Context, companyID int64) (exists bool, active bool, err error)
}

type MembershipChecker interface {
	IsMember(ctx context.Context, userID, companyID int64) (bool, error)
}

type Resolver struct {
	companies CompanyStatus
	members   MembershipChecker
}

func NewResolver(companies CompanyStatus, members MembershipChecker) *Resolver {
	return &Resolver{companies: companies, members: members}
}

// CompanyID returns the tenant u acts for:
// company, manager and driver accounts carry it, customers select one,
// platform accounts have none.
func (r *Resolver) CompanyID(ctx context.Context, u *user.User) (int64, error) {
	var companyID int64

	switch u.Role {
	case user.RoleCompany, user.RoleManager, user.RoleDriver:
		companyID = u.TenantID()
		if companyID == 0 {
			return 0, ErrNoCompany
		}
	case user.RoleCustomer:
		if u.ActiveCompanyID == nil || *u.ActiveCompanyID == 0 {
			return 0, ErrNoActiveCompany
		}
		companyID = *u.ActiveCompanyID
		ok, err := r.members.IsMember(ctx, u.ID, companyID)
		if err != nil {
			return 0, err
		}
		if !ok {
			return 0, ErrNotMember
		}
	default:
		return 0, ErrPlatformScope
	}

	if err := r.RequireActive(ctx, companyID); err != nil {
		return 0, err
	}
	return companyID, nil
}

// RequireActive fails when the company is missing or suspended.
func (r *Resolver) RequireActive(ctx context.Context, companyID int64) error {
	exists, active, err := r.companies.CompanyActive(ctx, companyID)
	if err != nil {
		return err
	}
	if !exists {
		return ErrNoCompany
	}
	if !active {
		return ErrCompanySuspended
	}
	return nil
}

// Scope restricts a query to rows owned by companyID. A zero id poisons the
// statement instead of returning every tenant's rows.
func Scope(companyID int64) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if companyID <= 0 {
			_ = db.AddError(ErrUnscopedQuery)
			return db
		}
		return db.Where("company_id = ?", companyID)
	}
}
