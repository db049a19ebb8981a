package dto

import (
	"gespro/internal/domain/auth"
)

// RegisterRequest for POST /auth/register.
type RegisterRequest struct {
	Email        string `json:"email" binding:"required,email"`
	Password     string `json:"password" binding:"required"`
	BusinessName string `json:"businessName" binding:"required"`
	Phone        string `json:"phone"`
}

// ToAuthRequest maps to the domain request.
func (r RegisterRequest) ToAuthRequest() auth.RegisterRequest {
	return auth.RegisterRequest{
		Email:        r.Email,
		Password:     r.Password,
		BusinessName: r.BusinessName,
		Phone:        r.Phone,
	}
}

// LoginRequest for POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ToCredentials maps to domain credentials.
func (r LoginRequest) ToCredentials() auth.Credentials {
	return auth.Credentials{Email: r.Email, Password: r.Password}
}

// RefreshTokenRequest for POST /auth/refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// ForgotPasswordRequest for POST /auth/forgot-password.
type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResetPasswordRequest for POST /auth/reset-password.
type ResetPasswordRequest struct {
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required"`
}

// UpdatePasswordRequest for POST /auth/update-password.
type UpdatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

// UpdateProfileRequest for PUT /auth/profile.
type UpdateProfileRequest struct {
	BusinessName string  `json:"businessName" binding:"required"`
	Phone        *string `json:"phone"`
}

// LoginResponse bundles tokens with the authenticated user.
type LoginResponse struct {
	Tokens *auth.TokenPair `json:"tokens"`
	User   *auth.User      `json:"user"`
}
