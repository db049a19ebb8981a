package auth

import (
	"context"
	"time"

	"gespro/internal/core/id"
)

// UserRepository defines user storage operations.
type UserRepository interface {
	// Create creates a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, userID id.ID) (*User, error)

	// GetByEmail retrieves a user by email.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// Update updates user data with optimistic locking.
	Update(ctx context.Context, user *User) error

	// Exists checks if an email is already registered.
	Exists(ctx context.Context, email string) (bool, error)
}

// ProfileRepository defines profile storage operations.
type ProfileRepository interface {
	// Create creates the profile attached to a user.
	Create(ctx context.Context, profile *Profile) error

	// GetByUserID retrieves the profile for a user.
	GetByUserID(ctx context.Context, userID id.ID) (*Profile, error)

	// Update updates profile data.
	Update(ctx context.Context, profile *Profile) error

	// List retrieves profiles with their account emails, for administration.
	List(ctx context.Context, filter ProfileFilter) ([]AccountSummary, int, error)
}

// TokenRepository defines refresh and reset token storage.
type TokenRepository interface {
	// SaveRefreshToken saves a refresh token.
	SaveRefreshToken(ctx context.Context, token *RefreshToken) error

	// GetRefreshToken retrieves a refresh token by hash.
	GetRefreshToken(ctx context.Context, tokenHash string) (*RefreshToken, error)

	// RevokeRefreshToken revokes a refresh token.
	RevokeRefreshToken(ctx context.Context, tokenID id.ID, reason string) error

	// RevokeAllUserTokens revokes all refresh tokens for a user.
	RevokeAllUserTokens(ctx context.Context, userID id.ID, reason string) error

	// SaveResetToken saves a password reset token.
	SaveResetToken(ctx context.Context, token *ResetToken) error

	// GetResetToken retrieves a reset token by hash.
	GetResetToken(ctx context.Context, tokenHash string) (*ResetToken, error)

	// MarkResetTokenUsed consumes a reset token.
	MarkResetTokenUsed(ctx context.Context, tokenID id.ID) error

	// CleanupExpiredTokens removes expired refresh and reset tokens.
	CleanupExpiredTokens(ctx context.Context) (int, error)
}

// ProfileFilter for listing accounts.
type ProfileFilter struct {
	Search   string
	Role     string
	IsActive *bool
	Limit    int
	Offset   int
}

// AccountSummary is the admin view of an account.
type AccountSummary struct {
	UserID       id.ID      `db:"user_id" json:"userId"`
	Email        string     `db:"email" json:"email"`
	BusinessName string     `db:"business_name" json:"businessName"`
	Phone        *string    `db:"phone" json:"phone,omitempty"`
	Role         string     `db:"role" json:"role"`
	IsActive     bool       `db:"is_active" json:"isActive"`
	LastLoginAt  *time.Time `db:"last_login_at" json:"lastLoginAt,omitempty"`
	CreatedAt    time.Time  `db:"created_at" json:"createdAt"`
}
