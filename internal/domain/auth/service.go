package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gespro/internal/core/appctx"
	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/core/tx"
	"gespro/pkg/logger"
)

// ServiceConfig holds auth service configuration.
type ServiceConfig struct {
	MaxLoginAttempts   int
	LockDuration       time.Duration
	PasswordMinLength  int
	RefreshTokenExpiry time.Duration
	ResetTokenExpiry   time.Duration
}

// DefaultServiceConfig returns default configuration.
func DefaultServiceConfig() ServiceConfig {
	return ServiceConfig{
		MaxLoginAttempts:   5,
		LockDuration:       15 * time.Minute,
		PasswordMinLength:  8,
		RefreshTokenExpiry: 7 * 24 * time.Hour,
		ResetTokenExpiry:   time.Hour,
	}
}

// Service provides authentication and account administration logic.
type Service struct {
	userRepo    UserRepository
	profileRepo ProfileRepository
	tokenRepo   TokenRepository
	txManager   tx.Manager
	jwtService  *JWTService
	config      ServiceConfig
}

// NewService creates a new auth service.
func NewService(
	userRepo UserRepository,
	profileRepo ProfileRepository,
	tokenRepo TokenRepository,
	txManager tx.Manager,
	jwtService *JWTService,
	config ServiceConfig,
) *Service {
	return &Service{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		tokenRepo:   tokenRepo,
		txManager:   txManager,
		jwtService:  jwtService,
		config:      config,
	}
}

// Register creates a user account with its business profile.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if req.Email == "" {
		return nil, apperror.NewValidation("email is required").WithDetail("field", "email")
	}
	if strings.TrimSpace(req.BusinessName) == "" {
		return nil, apperror.NewValidation("business name is required").
			WithDetail("field", "businessName")
	}
	if len(req.Password) < s.config.PasswordMinLength {
		return nil, apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	exists, err := s.userRepo.Exists(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("check email exists: %w", err)
	}
	if exists {
		return nil, apperror.NewConflict("email already registered").WithDetail("email", req.Email)
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := NewUser(req.Email, string(passwordHash))
	profile := NewProfile(user.ID, req.BusinessName)
	if req.Phone != "" {
		phone := strings.TrimSpace(req.Phone)
		profile.Phone = &phone
	}

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		if err := s.profileRepo.Create(ctx, profile); err != nil {
			return fmt.Errorf("create profile: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	user.Profile = profile

	logger.Info(ctx, "user registered",
		"user_id", user.ID,
		"email", user.Email)

	return user, nil
}

// Login authenticates a user and returns tokens.
func (s *Service) Login(ctx context.Context, creds Credentials) (*TokenPair, *User, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(creds.Email)))
	if err != nil {
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	profile, err := s.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, nil, fmt.Errorf("load profile: %w", err)
	}
	user.Profile = profile

	if err := user.CanLogin(); err != nil {
		return nil, nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)); err != nil {
		user.RecordFailedLogin(s.config.MaxLoginAttempts, s.config.LockDuration)
		_ = s.userRepo.Update(ctx, user)
		return nil, nil, apperror.NewUnauthorized("invalid credentials")
	}

	tokens, err := s.generateTokenPair(ctx, user)
	if err != nil {
		return nil, nil, fmt.Errorf("generate tokens: %w", err)
	}

	user.RecordSuccessfulLogin()
	_ = s.userRepo.Update(ctx, user)

	logger.Info(ctx, "user logged in",
		"user_id", user.ID,
		"email", user.Email)

	return tokens, user, nil
}

// RefreshToken exchanges a valid refresh token for a new token pair.
func (s *Service) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	tokenHash := hashToken(refreshToken)

	token, err := s.tokenRepo.GetRefreshToken(ctx, tokenHash)
	if err != nil {
		return nil, apperror.NewUnauthorized("invalid refresh token")
	}
	if !token.IsValid() {
		return nil, apperror.NewUnauthorized("refresh token expired or revoked")
	}

	user, err := s.userRepo.GetByID(ctx, token.UserID)
	if err != nil {
		return nil, apperror.NewUnauthorized("user not found")
	}
	profile, err := s.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	user.Profile = profile

	if err := user.CanLogin(); err != nil {
		return nil, err
	}

	// Rotation: the old token is revoked before a new pair is issued.
	_ = s.tokenRepo.RevokeRefreshToken(ctx, token.ID, "refreshed")

	return s.generateTokenPair(ctx, user)
}

// Logout revokes all of a user's refresh tokens.
func (s *Service) Logout(ctx context.Context, userID id.ID) error {
	return s.tokenRepo.RevokeAllUserTokens(ctx, userID, "logout")
}

// RequestPasswordReset issues a one-time reset token for the given email.
// The raw token is returned to the caller for delivery; the same nil error
// is returned for unknown emails so the endpoint does not leak accounts.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if apperror.IsNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	raw, err := generateRandomToken(32)
	if err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}

	token := &ResetToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: hashToken(raw),
		ExpiresAt: time.Now().Add(s.config.ResetTokenExpiry),
		CreatedAt: time.Now(),
	}
	if err := s.tokenRepo.SaveResetToken(ctx, token); err != nil {
		return "", fmt.Errorf("save reset token: %w", err)
	}

	logger.Info(ctx, "password reset requested", "user_id", user.ID)

	return raw, nil
}

// ResetPassword consumes a reset token and sets a new password.
// All refresh tokens are revoked so existing sessions are cut.
func (s *Service) ResetPassword(ctx context.Context, rawToken, newPassword string) error {
	if len(newPassword) < s.config.PasswordMinLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	token, err := s.tokenRepo.GetResetToken(ctx, hashToken(rawToken))
	if err != nil {
		return apperror.NewUnauthorized("invalid reset token")
	}
	if !token.IsValid() {
		return apperror.NewUnauthorized("reset token expired or already used")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		user, err := s.userRepo.GetByID(ctx, token.UserID)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		user.PasswordHash = string(passwordHash)
		user.LockedUntil = nil
		user.FailedLoginAttempts = 0
		if err := s.userRepo.Update(ctx, user); err != nil {
			return fmt.Errorf("update user: %w", err)
		}
		if err := s.tokenRepo.MarkResetTokenUsed(ctx, token.ID); err != nil {
			return fmt.Errorf("consume reset token: %w", err)
		}
		return s.tokenRepo.RevokeAllUserTokens(ctx, user.ID, "password reset")
	})
}

// UpdatePassword changes the password of an authenticated user after
// verifying the current one.
func (s *Service) UpdatePassword(ctx context.Context, userID id.ID, current, next string) error {
	if len(next) < s.config.PasswordMinLength {
		return apperror.NewValidation(
			fmt.Sprintf("password must be at least %d characters", s.config.PasswordMinLength),
		).WithDetail("field", "password")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return apperror.NewNotFound("user", userID.String())
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(current)); err != nil {
		return apperror.NewUnauthorized("current password is incorrect")
	}

	passwordHash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = string(passwordHash)

	if err := s.userRepo.Update(ctx, user); err != nil {
		return fmt.Errorf("update user: %w", err)
	}

	logger.Info(ctx, "password updated", "user_id", userID)

	return nil
}

// GetUserByID retrieves a user with its profile.
func (s *Service) GetUserByID(ctx context.Context, userID id.ID) (*User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, apperror.NewNotFound("user", userID.String())
	}
	profile, err := s.profileRepo.GetByUserID(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	user.Profile = profile
	return user, nil
}

// UpdateProfile updates the business profile of the authenticated user.
func (s *Service) UpdateProfile(ctx context.Context, userID id.ID, businessName string, phone *string) (*Profile, error) {
	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.NewNotFound("profile", userID.String())
	}

	profile.BusinessName = strings.TrimSpace(businessName)
	profile.Phone = phone
	profile.UpdatedAt = time.Now()

	if err := profile.Validate(ctx); err != nil {
		return nil, err
	}
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	return profile, nil
}

// ListAccounts lists platform accounts. Admin only.
func (s *Service) ListAccounts(ctx context.Context, filter ProfileFilter) ([]AccountSummary, int, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, 0, err
	}
	return s.profileRepo.List(ctx, filter)
}

// PromoteToAdmin grants the admin role to an account. Admin only.
func (s *Service) PromoteToAdmin(ctx context.Context, userID id.ID) error {
	if err := s.requireAdmin(ctx); err != nil {
		return err
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return apperror.NewNotFound("profile", userID.String())
	}
	if profile.Role == RoleAdmin {
		return nil
	}

	profile.Role = RoleAdmin
	profile.UpdatedAt = time.Now()
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return fmt.Errorf("update profile: %w", err)
	}

	logger.Info(ctx, "account promoted to admin",
		"user_id", userID,
		"granted_by", appctx.GetUserID(ctx))

	return nil
}

// ToggleActivation flips an account's active flag. Admin only.
// Deactivation also cuts existing sessions by revoking refresh tokens.
func (s *Service) ToggleActivation(ctx context.Context, userID id.ID) (*Profile, error) {
	if err := s.requireAdmin(ctx); err != nil {
		return nil, err
	}
	if appctx.GetUserID(ctx) == userID.String() {
		return nil, apperror.NewBusinessRule(apperror.CodeBusinessRule,
			"administrators cannot deactivate their own account")
	}

	profile, err := s.profileRepo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, apperror.NewNotFound("profile", userID.String())
	}

	profile.IsActive = !profile.IsActive
	profile.UpdatedAt = time.Now()

	err = s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.profileRepo.Update(ctx, profile); err != nil {
			return fmt.Errorf("update profile: %w", err)
		}
		if !profile.IsActive {
			return s.tokenRepo.RevokeAllUserTokens(ctx, userID, "account deactivated")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "account activation toggled",
		"user_id", userID,
		"is_active", profile.IsActive)

	return profile, nil
}

func (s *Service) requireAdmin(ctx context.Context) error {
	if !appctx.IsAdmin(ctx) {
		return apperror.NewForbidden("administrator role required")
	}
	return nil
}

// generateTokenPair creates access and refresh tokens.
func (s *Service) generateTokenPair(ctx context.Context, user *User) (*TokenPair, error) {
	role := RoleUser
	if user.Profile != nil {
		role = user.Profile.Role
	}

	accessToken, expiresAt, err := s.jwtService.GenerateAccessToken(user.ID.String(), user.Email, role)
	if err != nil {
		return nil, fmt.Errorf("generate access token: %w", err)
	}

	refreshTokenRaw, err := generateRandomToken(32)
	if err != nil {
		return nil, fmt.Errorf("generate refresh token: %w", err)
	}

	refreshToken := &RefreshToken{
		ID:        id.New(),
		UserID:    user.ID,
		TokenHash: hashToken(refreshTokenRaw),
		ExpiresAt: time.Now().Add(s.config.RefreshTokenExpiry),
		CreatedAt: time.Now(),
	}

	if err := s.tokenRepo.SaveRefreshToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("save refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshTokenRaw,
		ExpiresAt:    expiresAt,
		TokenType:    "Bearer",
	}, nil
}

// hashToken creates a SHA256 hash of a token.
func hashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

// generateRandomToken generates a random token string.
func generateRandomToken(length int) (string, error) {
	bytes := make([]byte, length)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
