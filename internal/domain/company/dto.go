package company

type ApplyRequest struct {
	CompanyName string `json:"companyName" validate:"required,min=2,max=255"`
	ContactName string `json:"contactName" validate:"required,min=2,max=255"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	Phone       string `json:"phone" validate:"omitempty,max=32"`
	Address     string `json:"address" validate:"omitempty,max=500"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type StatusRequest struct {
	IsActive *bool `json:"isActive" validate:"required"`
}

type TierRequest struct {
	Tier Tier `json:"tier" validate:"required"`
}

type BillingRequest struct {
	BillingStatus BillingStatus `json:"billingStatus" validate:"required"`
}

type UpdateProfileRequest struct {
	Name    *string `json:"name" validate:"omitempty,min=2,max=255"`
	Email   *string `json:"email" validate:"omitempty,email"`
	Phone   *string `json:"phone" validate:"omitempty,max=32"`
	Address *string `json:"address" validate:"omitempty,max=500"`
	LogoURL *string `json:"logoUrl" validate:"omitempty,url,max=500"`
}
