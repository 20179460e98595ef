package auth

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"smarttrack/internal/domain/notification"
	"smarttrack/internal/domain/user"
	"smarttrack/internal/pkg/apperr"
	"smarttrack/internal/pkg/jwt"
)

// CompanyDirectory is the slice of the company store auth needs.
type CompanyDirectory interface {
	CompanyActive(ctx context.Context, id int64) (exists bool, active bool, err error)
	OwnerUserID(ctx context.Context, id int64) (int64, error)
}

type Service struct {
	users     *user.Repository
	companies CompanyDirectory
	notifier  *notification.Service
	tokens    *jwt.Service
	now       func() time.Time
}

func NewService(users *user.Repository, companies CompanyDirectory, notifier *notification.Service, tokens *jwt.Service) *Service {
	return &Service{users: users, companies: companies, notifier: notifier, tokens: tokens, now: time.Now}
}

// RegisterCustomer creates an active customer account and signs it in.
func (s *Service) RegisterCustomer(ctx context.Context, req RegisterCustomerRequest) (*Session, error) {
	hash, err := user.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	u := &user.User{
		Email:          user.NormalizeEmail(req.Email),
		PasswordHash:   hash,
		Name:           strings.TrimSpace(req.Name),
		Phone:          strings.TrimSpace(req.Phone),
		Role:           user.RoleCustomer,
		IsActive:       true,
		ApprovalStatus: user.ApprovalApproved,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}
	log.Printf("[auth] customer registered user_id=%d", u.ID)
	return s.session(u)
}

// RegisterStaff creates a driver or manager that stays inactive until the
// company approves it. The company account is notified.
func (s *Service) RegisterStaff(ctx context.Context, req RegisterStaffRequest) (*user.User, error) {
	if req.Role != user.RoleDriver && req.Role != user.RoleManager {
		return nil, ErrInvalidStaffRole
	}
	exists, active, err := s.companies.CompanyActive(ctx, req.CompanyID)
	if err != nil {
		return nil, err
	}
	if !exists || !active {
		return nil, ErrCompanyUnavailable
	}

	hash, err := user.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}
	companyID := req.CompanyID
	u := &user.User{
		Email:          user.NormalizeEmail(req.Email),
		PasswordHash:   hash,
		Name:           strings.TrimSpace(req.Name),
		Phone:          strings.TrimSpace(req.Phone),
		Role:           req.Role,
		CompanyID:      &companyID,
		IsActive:       false,
		ApprovalStatus: user.ApprovalPending,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, err
	}

	if owner, err := s.companies.OwnerUserID(ctx, companyID); err == nil && owner != 0 {
		_, err := s.notifier.NotifyWithMeta(ctx, notification.Payload{
			UserID:  owner,
			Title:   "New staff registration",
			Message: fmt.Sprintf("%s registered as %s and awaits approval.", u.Name, u.Role),
			Kind:    notification.KindAccount,
			Link:    "/company/staff",
			Meta:    map[string]interface{}{"staffId": u.ID, "role": string(u.Role)},
		})
		if err != nil {
			log.Printf("[auth] staff registration notify failed company_id=%d: %v", companyID, err)
		}
	}
	log.Printf("[auth] staff registered user_id=%d role=%s company_id=%d", u.ID, u.Role, companyID)
	return u, nil
}

func (s *Service) Login(ctx context.Context, req LoginRequest) (*Session, error) {
	u, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if apperr.KindOf(err) == apperr.KindNotFound {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if err := user.CheckPassword(req.Password, u.PasswordHash); err != nil {
		return nil, ErrInvalidCredentials
	}

	switch u.ApprovalStatus {
	case user.ApprovalPending:
		return nil, ErrPendingApproval
	case user.ApprovalRejected:
		return nil, ErrRejected
	}
	if !u.IsActive {
		return nil, ErrAccountDisabled
	}

	now := s.now().UTC()
	if err := s.users.TouchLogin(ctx, u.ID, now); err != nil {
		log.Printf("[auth] touch login failed user_id=%d: %v", u.ID, err)
	}
	u.LastLoginAt = &now
	return s.session(u)
}

func (s *Service) Me(ctx context.Context, userID int64) (*user.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Service) UpdateProfile(ctx context.Context, userID int64, req UpdateProfileRequest) (*user.User, error) {
	fields := map[string]interface{}{}
	if req.Name != nil {
		fields["name"] = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		fields["phone"] = strings.TrimSpace(*req.Phone)
	}
	if req.AvatarURL != nil {
		fields["avatar_url"] = strings.TrimSpace(*req.AvatarURL)
	}
	if len(fields) == 0 {
		return nil, apperr.Validation("nothing to update")
	}
	if err := s.users.Update(ctx, userID, fields); err != nil {
		return nil, err
	}
	return s.users.GetByID(ctx, userID)
}

// SetAvatar stores an uploaded avatar URL.
func (s *Service) SetAvatar(ctx context.Context, userID int64, url string) error {
	return s.users.Update(ctx, userID, map[string]interface{}{"avatar_url": url})
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, req ChangePasswordRequest) error {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := user.CheckPassword(req.CurrentPassword, u.PasswordHash); err != nil {
		return ErrWrongPassword
	}
	hash, err := user.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, userID, map[string]interface{}{"password_hash": hash})
}

func (s *Service) session(u *user.User) (*Session, error) {
	token, err := s.tokens.GenerateToken(u.ID, string(u.Role))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}
	return &Session{Token: token, ExpiresIn: int64(s.tokens.TTL().Seconds()), User: u}, nil
}
