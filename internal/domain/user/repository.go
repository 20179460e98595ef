package user

import (
	"context"
	"errors"
	"strings"
	"time"

	"smarttrack/internal/pkg/apperr"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, u *User) error {
	u.Email = NormalizeEmail(u.Email)
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	var u User
	if err := r.db.WithContext(ctx).First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	var u User
	err := r.db.WithContext(ctx).Where("email = ?", NormalizeEmail(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&User{}).Where("email = ?", NormalizeEmail(email)).Count(&n).Error
	return n > 0, err
}

// Update writes the given columns only.
func (r *Repository) Update(ctx context.Context, id int64, fields map[string]interface{}) error {
	res := r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) TouchLogin(ctx context.Context, id int64, at time.Time) error {
	return r.db.WithContext(ctx).Model(&User{}).Where("id = ?", id).UpdateColumn("last_login_at", at).Error
}

type StaffFilter struct {
	CompanyID      int64
	Role           Role
	ApprovalStatus ApprovalStatus
}

// ListStaff returns managers and drivers of one company.
func (r *Repository) ListStaff(ctx context.Context, f StaffFilter) ([]User, error) {
	q := r.db.WithContext(ctx).
		Where("company_id = ? AND role IN ?", f.CompanyID, []Role{RoleManager, RoleDriver})
	if f.Role != "" {
		q = q.Where("role = ?", f.Role)
	}
	if f.ApprovalStatus != "" {
		q = q.Where("approval_status = ?", f.ApprovalStatus)
	}
	var out []User
	err := q.Order("created_at DESC").Find(&out).Error
	return out, err
}

// DeactivateCompanyUsers disables every account tied to companyID.
func (r *Repository) DeactivateCompanyUsers(ctx context.Context, companyID int64) error {
	return r.db.WithContext(ctx).Model(&User{}).
		Where("company_id = ?", companyID).
		Update("is_active", false).Error
}

// AddMembership is idempotent.
func (r *Repository) AddMembership(ctx context.Context, userID, companyID int64, at time.Time) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&CustomerCompany{UserID: userID, CompanyID: companyID, JoinedAt: at}).Error
}

func (r *Repository) IsMember(ctx context.Context, userID, companyID int64) (bool, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&CustomerCompany{}).
		Where("user_id = ? AND company_id = ?", userID, companyID).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) Memberships(ctx context.Context, userID int64) ([]CustomerCompany, error) {
	var out []CustomerCompany
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("joined_at").Find(&out).Error
	return out, err
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
