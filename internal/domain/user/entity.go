package user

import "time"

type Role string

const (
	RoleOwner      Role = "owner"
	RoleSuperadmin Role = "superadmin"
	RoleCompany    Role = "company"
	RoleManager    Role = "manager"
	RoleDriver     Role = "driver"
	RoleCustomer   Role = "customer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleSuperadmin, RoleCompany, RoleManager, RoleDriver, RoleCustomer:
		return true
	}
	return false
}

// Platform roles administer every tenant and carry no company.
func (r Role) Platform() bool {
	return r == RoleOwner || r == RoleSuperadmin
}

type ApprovalStatus string

const (
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalRejected ApprovalStatus = "rejected"
)

type User struct {
	ID              int64          `gorm:"primaryKey" json:"id"`
	Email           string         `gorm:"size:255;uniqueIndex;not null" json:"email"`
	PasswordHash    string         `gorm:"size:255;not null" json:"-"`
	Name            string         `gorm:"size:255;not null" json:"name"`
	Phone           string         `gorm:"size:32" json:"phone,omitempty"`
	AvatarURL       string         `gorm:"size:500" json:"avatarUrl,omitempty"`
	Role            Role           `gorm:"size:20;not null;index" json:"role"`
	CompanyID       *int64         `gorm:"index" json:"companyId,omitempty"`
	ActiveCompanyID *int64         `json:"activeCompanyId,omitempty"`
	IsActive        bool           `gorm:"not null" json:"isActive"`
	ApprovalStatus  ApprovalStatus `gorm:"size:20;not null" json:"approvalStatus"`
	LastLoginAt     *time.Time     `json:"lastLoginAt,omitempty"`
	CreatedAt       time.Time      `json:"createdAt"`
	UpdatedAt       time.Time      `json:"updatedAt"`
}

func (u *User) TenantID() int64 {
	if u.CompanyID == nil {
		return 0
	}
	return *u.CompanyID
}

// CustomerCompany is one entry of a customer's company list.
type CustomerCompany struct {
	UserID    int64     `gorm:"primaryKey" json:"userId"`
	CompanyID int64     `gorm:"primaryKey" json:"companyId"`
	JoinedAt  time.Time `json:"joinedAt"`
}

func (CustomerCompany) TableName() string { return "customer_companies" }
