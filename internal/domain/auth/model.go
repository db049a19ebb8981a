// Package auth provides authentication and account management logic.
package auth

import (
	"context"
	"strings"
	"time"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
)

// User represents a platform account.
type User struct {
	ID                  id.ID      `db:"id" json:"id"`
	Email               string     `db:"email" json:"email"`
	PasswordHash        string     `db:"password_hash" json:"-"`
	LastLoginAt         *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	FailedLoginAttempts int        `db:"failed_login_attempts" json:"-"`
	LockedUntil         *time.Time `db:"locked_until" json:"-"`
	CreatedAt           time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt           time.Time  `db:"updated_at" json:"updatedAt"`
	Version             int        `db:"version" json:"version"`

	// Loaded relation
	Profile *Profile `db:"-" json:"profile,omitempty"`
}

// NewUser creates a new user.
func NewUser(email, passwordHash string) *User {
	now := time.Now()
	return &User{
		ID:           id.New(),
		Email:        strings.ToLower(strings.TrimSpace(email)),
		PasswordHash: passwordHash,
		CreatedAt:    now,
		UpdatedAt:    now,
		Version:      1,
	}
}

// Validate validates user data.
func (u *User) Validate(ctx context.Context) error {
	if u.Email == "" {
		return apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if !strings.Contains(u.Email, "@") {
		return apperror.NewValidation("email is invalid").WithDetail("field", "email")
	}
	return nil
}

// IsLocked returns true if the account is temporarily locked out.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// CanLogin checks whether the account may authenticate.
func (u *User) CanLogin() error {
	if u.Profile != nil && !u.Profile.IsActive {
		return apperror.NewForbidden("account is deactivated")
	}
	if u.IsLocked() {
		return apperror.NewForbidden("account is temporarily locked")
	}
	return nil
}

// RecordFailedLogin increments the failed login counter.
func (u *User) RecordFailedLogin(maxAttempts int, lockDuration time.Duration) {
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		lockUntil := time.Now().Add(lockDuration)
		u.LockedUntil = &lockUntil
	}
}

// RecordSuccessfulLogin resets the failed login counter.
func (u *User) RecordSuccessfulLogin() {
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	now := time.Now()
	u.LastLoginAt = &now
}

// IsAdmin reports whether the account has the admin role.
func (u *User) IsAdmin() bool {
	return u.Profile != nil && u.Profile.Role == RoleAdmin
}

// Roles known to the platform.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Profile holds the business identity attached to a user account.
// Exactly one profile exists per user; it is created at registration.
type Profile struct {
	UserID       id.ID     `db:"user_id" json:"userId"`
	BusinessName string    `db:"business_name" json:"businessName"`
	Phone        *string   `db:"phone" json:"phone,omitempty"`
	Role         string    `db:"role" json:"role"`
	IsActive     bool      `db:"is_active" json:"isActive"`
	CreatedAt    time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time `db:"updated_at" json:"updatedAt"`
}

// NewProfile creates a profile for a freshly registered user.
func NewProfile(userID id.ID, businessName string) *Profile {
	now := time.Now()
	return &Profile{
		UserID:       userID,
		BusinessName: strings.TrimSpace(businessName),
		Role:         RoleUser,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// Validate validates profile data.
func (p *Profile) Validate(ctx context.Context) error {
	if p.BusinessName == "" {
		return apperror.NewValidation("business name is required").
			WithDetail("field", "businessName")
	}
	if p.Role != RoleUser && p.Role != RoleAdmin {
		return apperror.NewValidation("unknown role").WithDetail("role", p.Role)
	}
	return nil
}

// RefreshToken represents a stored refresh token for JWT renewal.
type RefreshToken struct {
	ID            id.ID      `db:"id"`
	UserID        id.ID      `db:"user_id"`
	TokenHash     string     `db:"token_hash"`
	ExpiresAt     time.Time  `db:"expires_at"`
	CreatedAt     time.Time  `db:"created_at"`
	RevokedAt     *time.Time `db:"revoked_at"`
	RevokedReason string     `db:"revoked_reason"`
	UserAgent     string     `db:"user_agent"`
	IPAddress     string     `db:"ip_address"`
}

// IsValid checks if the refresh token is still usable.
func (t *RefreshToken) IsValid() bool {
	if t.RevokedAt != nil {
		return false
	}
	return time.Now().Before(t.ExpiresAt)
}

// ResetToken represents a one-time password reset token.
type ResetToken struct {
	ID        id.ID      `db:"id"`
	UserID    id.ID      `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	ExpiresAt time.Time  `db:"expires_at"`
	UsedAt    *time.Time `db:"used_at"`
	CreatedAt time.Time  `db:"created_at"`
}

// IsValid checks if the reset token can still be consumed.
func (t *ResetToken) IsValid() bool {
	if t.UsedAt != nil {
		return false
	}
	return time.Now().Before(t.ExpiresAt)
}

// TokenPair contains access and refresh tokens.
type TokenPair struct {
	AccessToken  string    `json:"accessToken"`
	RefreshToken string    `json:"refreshToken"`
	ExpiresAt    time.Time `json:"expiresAt"`
	TokenType    string    `json:"tokenType"`
}

// Credentials for login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest for account creation.
type RegisterRequest struct {
	Email        string `json:"email"`
	Password     string `json:"password"`
	BusinessName string `json:"businessName"`
	Phone        string `json:"phone,omitempty"`
}
