package auth

import "smarttrack/internal/domain/user"

type RegisterCustomerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"required,min=2,max=255"`
	Phone    string `json:"phone" validate:"omitempty,max=32"`
}

type RegisterStaffRequest struct {
	Email     string    `json:"email" validate:"required,email"`
	Password  string    `json:"password" validate:"required,min=8,max=72"`
	Name      string    `json:"name" validate:"required,min=2,max=255"`
	Phone     string    `json:"phone" validate:"omitempty,max=32"`
	Role      user.Role `json:"role" validate:"required"`
	CompanyID int64     `json:"companyId" validate:"required,gt=0"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=2,max=255"`
	Phone     *string `json:"phone" validate:"omitempty,max=32"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,url,max=500"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8,max=72"`
}

type Session struct {
	Token     string     `json:"token"`
	ExpiresIn int64      `json:"expiresIn"`
	User      *user.User `json:"user"`
}
