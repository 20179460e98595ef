// Package customer manages which companies a customer belongs to and which
// one their requests act for.
package customer

import (
	"context"
	"time"

	"smarttrack/internal/domain/company"
	"smarttrack/internal/domain/user"
	"smarttrack/internal/pkg/apperr"
)

var ErrCompanyUnavailable = apperr.NotFound("company not found or inactive")

type Service struct {
	users     *user.Repository
	companies *company.Repository
	now       func() time.Time
}

func NewService(users *user.Repository, companies *company.Repository) *Service {
	return &Service{users: users, companies: companies, now: time.Now}
}

type CompanyEntry struct {
	company.Company
	Joined bool `json:"joined"`
	Active bool `json:"activeSelection"`
}

// ListCompanies returns every active company, flagging the ones the
// customer already joined and the current selection.
func (s *Service) ListCompanies(ctx context.Context, u *user.User) ([]CompanyEntry, error) {
	memberships, err := s.users.Memberships(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	joined := make(map[int64]bool, len(memberships))
	for _, m := range memberships {
		joined[m.CompanyID] = true
	}

	active := true
	companies, _, err := s.companies.List(ctx, company.ListFilter{Active: &active, Limit: -1})
	if err != nil {
		return nil, err
	}

	out := make([]CompanyEntry, 0, len(companies))
	for _, c := range companies {
		out = append(out, CompanyEntry{
			Company: c,
			Joined:  joined[c.ID],
			Active:  u.ActiveCompanyID != nil && *u.ActiveCompanyID == c.ID,
		})
	}
	return out, nil
}

// Join adds companyID to the customer's list. Joining twice is a no-op; the
// first joined company becomes the active one.
func (s *Service) Join(ctx context.Context, u *user.User, companyID int64) (*user.User, error) {
	if err := s.requireActive(ctx, companyID); err != nil {
		return nil, err
	}
	if err := s.users.AddMembership(ctx, u.ID, companyID, s.now().UTC()); err != nil {
		return nil, err
	}
	if u.ActiveCompanyID == nil || *u.ActiveCompanyID == 0 {
		if err := s.users.Update(ctx, u.ID, map[string]interface{}{"active_company_id": companyID}); err != nil {
			return nil, err
		}
		u.ActiveCompanyID = &companyID
	}
	return u, nil
}

// SelectActive switches the company the customer's trips are placed with.
func (s *Service) SelectActive(ctx context.Context, u *user.User, companyID int64) (*user.User, error) {
	ok, err := s.users.IsMember(ctx, u.ID, companyID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.Forbidden("join the company before selecting it")
	}
	if err := s.requireActive(ctx, companyID); err != nil {
		return nil, err
	}
	if err := s.users.Update(ctx, u.ID, map[string]interface{}{"active_company_id": companyID}); err != nil {
		return nil, err
	}
	u.ActiveCompanyID = &companyID
	return u, nil
}

func (s *Service) requireActive(ctx context.Context, companyID int64) error {
	exists, active, err := s.companies.CompanyActive(ctx, companyID)
	if err != nil {
		return err
	}
	if !exists || !active {
		return ErrCompanyUnavailable
	}
	return nil
}
