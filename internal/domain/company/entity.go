package company

import "time"

type Tier string

const (
	TierFree       Tier = "free"
	TierBasic      Tier = "basic"
	TierPro        Tier = "pro"
	TierEnterprise Tier = "enterprise"
)

func (t Tier) Valid() bool {
	switch t {
	case TierFree, TierBasic, TierPro, TierEnterprise:
		return true
	}
	return false
}

type BillingStatus string

const (
	BillingTrial     BillingStatus = "trial"
	BillingActive    BillingStatus = "active"
	BillingPastDue   BillingStatus = "past_due"
	BillingCancelled BillingStatus = "cancelled"
)

func (b BillingStatus) Valid() bool {
	switch b {
	case BillingTrial, BillingActive, BillingPastDue, BillingCancelled:
		return true
	}
	return false
}

// Company is a tenant.
type Company struct {
	ID            int64         `gorm:"primaryKey" json:"id"`
	Name          string        `gorm:"size:255;not null" json:"name"`
	Email         string        `gorm:"size:255;not null" json:"email"`
	Phone         string        `gorm:"size:32" json:"phone,omitempty"`
	Address       string        `gorm:"size:500" json:"address,omitempty"`
	LogoURL       string        `gorm:"size:500" json:"logoUrl,omitempty"`
	Tier          Tier          `gorm:"size:20;not null" json:"tier"`
	BillingStatus BillingStatus `gorm:"size:20;not null" json:"billingStatus"`
	IsActive      bool          `gorm:"not null;index" json:"isActive"`
	OwnerUserID   int64         `gorm:"index" json:"ownerUserId"`
	CreatedAt     time.Time     `json:"createdAt"`
	UpdatedAt     time.Time     `json:"updatedAt"`
}

type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// Application is a request to open a company account. The password hash
// becomes the company login on approval.
type Application struct {
	ID           int64             `gorm:"primaryKey" json:"id"`
	CompanyName  string            `gorm:"size:255;not null" json:"companyName"`
	ContactName  string            `gorm:"size:255;not null" json:"contactName"`
	Email        string            `gorm:"size:255;not null;index" json:"email"`
	Phone        string            `gorm:"size:32" json:"phone,omitempty"`
	Address      string            `gorm:"size:500" json:"address,omitempty"`
	PasswordHash string            `gorm:"size:255;not null" json:"-"`
	Status       ApplicationStatus `gorm:"size:20;not null;index" json:"status"`
	ReviewedBy   *int64            `json:"reviewedBy,omitempty"`
	ReviewedAt   *time.Time        `json:"reviewedAt,omitempty"`
	RejectReason string            `gorm:"size:500" json:"rejectReason,omitempty"`
	CompanyID    *int64            `json:"companyId,omitempty"`
	CreatedAt    time.Time         `json:"createdAt"`
	UpdatedAt    time.Time         `json:"updatedAt"`
}

func (Application) TableName() string { return "company_applications" }
