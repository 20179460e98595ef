package company

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"smarttrack/internal/domain/notification"
	"smarttrack/internal/domain/user"
	"smarttrack/internal/outbox"
	"smarttrack/internal/pkg/apperr"

	"gorm.io/gorm"
)

type Service struct {
	db       *gorm.DB
	repo     *Repository
	users    *user.Repository
	notifier *notification.Service
	now      func() time.Time
}

func NewService(db *gorm.DB, repo *Repository, users *user.Repository, notifier *notification.Service) *Service {
	return &Service{db: db, repo: repo, users: users, notifier: notifier, now: time.Now}
}

// -------------------- Applications --------------------

func (s *Service) Apply(ctx context.Context, req ApplyRequest) (*Application, error) {
	email := user.NormalizeEmail(req.Email)

	exists, err := s.users.EmailExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, user.ErrEmailExists
	}
	pending, err := s.repo.PendingApplicationExists(ctx, email)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrApplicationExists
	}

	hash, err := user.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	app := &Application{
		CompanyName:  strings.TrimSpace(req.CompanyName),
		ContactName:  strings.TrimSpace(req.ContactName),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Address:      strings.TrimSpace(req.Address),
		PasswordHash: hash,
		Status:       ApplicationPending,
	}
	if err := s.repo.CreateApplication(ctx, app); err != nil {
		return nil, err
	}
	log.Printf("[company] application received id=%d email=%s", app.ID, app.Email)
	return app, nil
}

func (s *Service) ListApplications(ctx context.Context, status ApplicationStatus, limit, offset int) ([]Application, int64, error) {
	return s.repo.ListApplications(ctx, status, limit, offset)
}

// ApproveApplication creates the company and its company account in one
// transaction.
func (s *Service) ApproveApplication(ctx context.Context, reviewer *user.User, id int64) (*Company, *user.User, error) {
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if app.Status != ApplicationPending {
		return nil, nil, ErrApplicationReviewed
	}

	now := s.now().UTC()
	var (
		company *Company
		account *user.User
		welcome *notification.Notification
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		company = &Company{
			Name:          app.CompanyName,
			Email:         app.Email,
			Phone:         app.Phone,
			Address:       app.Address,
			Tier:          TierFree,
			BillingStatus: BillingTrial,
			IsActive:      true,
		}
		if err := repo.Create(ctx, company); err != nil {
			return err
		}

		companyID := company.ID
		account = &user.User{
			Email:          app.Email,
			PasswordHash:   app.PasswordHash,
			Name:           app.ContactName,
			Phone:          app.Phone,
			Role:           user.RoleCompany,
			CompanyID:      &companyID,
			IsActive:       true,
			ApprovalStatus: user.ApprovalApproved,
		}
		if err := s.users.WithTx(tx).Create(ctx, account); err != nil {
			return err
		}

		company.OwnerUserID = account.ID
		if err := repo.Update(ctx, company.ID, map[string]interface{}{"owner_user_id": account.ID}); err != nil {
			return err
		}

		reviewerID := reviewer.ID
		if err := repo.UpdateApplicationIfPending(ctx, app.ID, map[string]interface{}{
			"status":      ApplicationApproved,
			"reviewed_by": reviewerID,
			"reviewed_at": now,
			"company_id":  companyID,
		}); err != nil {
			return err
		}

		welcome, err = s.notifier.CreateTx(tx, notification.Payload{
			UserID:  account.ID,
			Title:   "Company approved",
			Message: fmt.Sprintf("%s is now active on SmartTrack+.", company.Name),
			Kind:    notification.KindCompany,
			Link:    "/company/dashboard",
		})
		if err != nil {
			return err
		}

		return outbox.Record(tx, outbox.CompanyApproved, "company", company.ID, map[string]interface{}{
			"companyId":     company.ID,
			"ownerUserId":   account.ID,
			"applicationId": app.ID,
			"reviewedBy":    reviewerID,
		})
	})
	if err != nil {
		return nil, nil, err
	}

	s.notifier.Push(ctx, welcome)
	log.Printf("[company] application approved id=%d company_id=%d reviewer=%d", app.ID, company.ID, reviewer.ID)
	return company, account, nil
}

func (s *Service) RejectApplication(ctx context.Context, reviewer *user.User, id int64, reason string) (*Application, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrReasonRequired
	}
	app, err := s.repo.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.now().UTC()
	reviewerID := reviewer.ID
	if err := s.repo.UpdateApplicationIfPending(ctx, id, map[string]interface{}{
		"status":        ApplicationRejected,
		"reviewed_by":   reviewerID,
		"reviewed_at":   now,
		"reject_reason": reason,
	}); err != nil {
		return nil, err
	}
	app.Status = ApplicationRejected
	app.ReviewedBy = &reviewerID
	app.ReviewedAt = &now
	app.RejectReason = reason
	return app, nil
}

// -------------------- Companies --------------------

func (s *Service) List(ctx context.Context, f ListFilter) ([]Company, int64, error) {
	f.Search = strings.ToLower(strings.TrimSpace(f.Search))
	return s.repo.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id int64) (*Company, error) {
	return s.repo.GetByID(ctx, id)
}

// SetActive suspends or reactivates a tenant. Suspension blocks every
// tenant-scoped operation of its users.
func (s *Service) SetActive(ctx context.Context, id int64, active bool) (*Company, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.IsActive == active {
		return c, nil
	}

	var n *notification.Notification
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, id, map[string]interface{}{"is_active": active}); err != nil {
			return err
		}
		if c.OwnerUserID != 0 {
			title, msg := "Company reactivated", "Your company account is active again."
			if !active {
				title, msg = "Company suspended", "Your company account has been suspended. Contact support."
			}
			var err error
			n, err = s.notifier.CreateTx(tx, notification.Payload{
				UserID: c.OwnerUserID, Title: title, Message: msg, Kind: notification.KindCompany,
			})
			if err != nil {
				return err
			}
		}
		return outbox.Record(tx, outbox.CompanyStatusChanged, "company", id, map[string]interface{}{
			"companyId": id,
			"isActive":  active,
		})
	})
	if err != nil {
		return nil, err
	}
	s.notifier.Push(ctx, n)
	c.IsActive = active
	return c, nil
}

func (s *Service) SetTier(ctx context.Context, id int64, tier Tier) (*Company, error) {
	if !tier.Valid() {
		return nil, ErrInvalidTier
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Update(ctx, id, map[string]interface{}{"tier": tier}); err != nil {
			return err
		}
		return outbox.Record(tx, outbox.CompanyTierChanged, "company", id, map[string]interface{}{
			"companyId": id,
			"from":      c.Tier,
			"to":        tier,
		})
	})
	if err != nil {
		return nil, err
	}
	c.Tier = tier
	return c, nil
}

func (s *Service) SetBillingStatus(ctx context.Context, id int64, status BillingStatus) (*Company, error) {
	if !status.Valid() {
		return nil, ErrInvalidBilling
	}
	if err := s.repo.Update(ctx, id, map[string]interface{}{"billing_status": status}); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, id)
}

// Delete removes the company row and disables its accounts. Trips stay for
// history.
func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.users.WithTx(tx).DeactivateCompanyUsers(ctx, id); err != nil {
			return err
		}
		if err := s.repo.WithTx(tx).Delete(ctx, id); err != nil {
			return err
		}
		return outbox.Record(tx, outbox.CompanyStatusChanged, "company", id, map[string]interface{}{
			"companyId": id,
			"deleted":   true,
		})
	})
}

func (s *Service) UpdateProfile(ctx context.Context, companyID int64, req UpdateProfileRequest) (*Company, error) {
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Email != nil {
		fields["email"] = user.NormalizeEmail(*req.Email)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.Address != nil {
		fields["address"] = strings.TrimSpace(*req.Address)
	}
	if req.LogoURL != nil {
		fields["logo_url"] = strings.TrimSpace(*req.LogoURL)
	}
	if len(fields) == 0 {
		return nil, apperr.Validation("nothing to update")
	}
	if err := s.repo.Update(ctx, companyID, fields); err != nil {
		return nil, err
	}
	return s.repo.GetByID(ctx, companyID)
}

// SetLogo stores an uploaded logo URL.
func (s *Service) SetLogo(ctx context.Context, companyID int64, url string) error {
	return s.repo.Update(ctx, companyID, map[string]interface{}{"logo_url": url})
}

// -------------------- Staff --------------------

func (s *Service) ListStaff(ctx context.Context, companyID int64, role user.Role, status user.ApprovalStatus) ([]user.User, error) {
	return s.users.ListStaff(ctx, user.StaffFilter{CompanyID: companyID, Role: role, ApprovalStatus: status})
}

func (s *Service) staffMember(ctx context.Context, companyID, staffID int64) (*user.User, error) {
	u, err := s.users.GetByID(ctx, staffID)
	if err != nil {
		return nil, ErrStaffNotFound
	}
	if u.TenantID() != companyID || (u.Role != user.RoleDriver && u.Role != user.RoleManager) {
		return nil, ErrStaffNotFound
	}
	return u, nil
}

// ApproveStaff activates a pending driver or manager of companyID.
func (s *Service) ApproveStaff(ctx context.Context, companyID, staffID int64) (*user.User, error) {
	u, err := s.staffMember(ctx, companyID, staffID)
	if err != nil {
		return nil, err
	}
	if u.ApprovalStatus != user.ApprovalPending {
		return nil, ErrStaffNotPending
	}
	if err := s.users.Update(ctx, u.ID, map[string]interface{}{
		"approval_status": user.ApprovalApproved,
		"is_active":       true,
	}); err != nil {
		return nil, err
	}
	u.ApprovalStatus = user.ApprovalApproved
	u.IsActive = true

	if _, err := s.notifier.Notify(ctx, u.ID, "Account approved",
		"Your company approved your account. You can sign in now.", notification.KindAccount, ""); err != nil {
		log.Printf("[company] approval notification failed user_id=%d: %v", u.ID, err)
	}
	return u, nil
}

func (s *Service) RejectStaff(ctx context.Context, companyID, staffID int64) (*user.User, error) {
	u, err := s.staffMember(ctx, companyID, staffID)
	if err != nil {
		return nil, err
	}
	if u.ApprovalStatus != user.ApprovalPending {
		return nil, ErrStaffNotPending
	}
	if err := s.users.Update(ctx, u.ID, map[string]interface{}{
		"approval_status": user.ApprovalRejected,
		"is_active":       false,
	}); err != nil {
		return nil, err
	}
	u.ApprovalStatus = user.ApprovalRejected
	u.IsActive = false
	return u, nil
}

// SetStaffActive soft-disables or re-enables an approved staff account.
func (s *Service) SetStaffActive(ctx context.Context, companyID, staffID int64, active bool) (*user.User, error) {
	u, err := s.staffMember(ctx, companyID, staffID)
	if err != nil {
		return nil, err
	}
	if u.ApprovalStatus != user.ApprovalApproved {
		return nil, ErrStaffNotPending
	}
	if err := s.users.Update(ctx, u.ID, map[string]interface{}{"is_active": active}); err != nil {
		return nil, err
	}
	u.IsActive = active
	return u, nil
}

// NotifyCompany notifies the company account and pushes event to the
// company and manager rooms.
func (s *Service) NotifyCompany(ctx context.Context, companyID int64, p notification.Payload) {
	owner, err := s.repo.OwnerUserID(ctx, companyID)
	if err != nil || owner == 0 {
		return
	}
	p.UserID = owner
	if _, err := s.notifier.NotifyWithMeta(ctx, p); err != nil {
		log.Printf("[company] notify company_id=%d failed: %v", companyID, err)
	}
}
