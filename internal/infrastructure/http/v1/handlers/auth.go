package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gespro/internal/core/apperror"
	"gespro/internal/core/id"
	"gespro/internal/domain/auth"
	"gespro/internal/infrastructure/http/v1/dto"
	"gespro/pkg/logger"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	*BaseHandler
	service *auth.Service
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(base *BaseHandler, service *auth.Service) *AuthHandler {
	return &AuthHandler{BaseHandler: base, service: service}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RegisterRequest
	if !h.BindJSON(c, &req) {
		return
	}

	user, err := h.service.Register(ctx, req.ToAuthRequest())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, user)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.LoginRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, user, err := h.service.Login(ctx, req.ToCredentials())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.LoginResponse{Tokens: tokens, User: user})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RefreshTokenRequest
	if !h.BindJSON(c, &req) {
		return
	}

	tokens, err := h.service.RefreshToken(ctx, req.RefreshToken)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, tokens)
}

// Logout handles POST /auth/logout - revokes all refresh tokens.
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := h.currentUserID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Logout(ctx, userID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "logged out")
}

// Me handles GET /auth/me - returns the authenticated user with profile.
func (h *AuthHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := h.currentUserID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	user, err := h.service.GetUserByID(ctx, userID)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, user)
}

// ForgotPassword handles POST /auth/forgot-password.
// The response is identical whether or not the email exists.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ForgotPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	token, err := h.service.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		h.Error(c, err)
		return
	}

	// No mailer is wired yet; the token is logged for out-of-band delivery.
	// TODO: replace with an SMTP sender once the provider account exists.
	if token != "" {
		logger.Info(ctx, "password reset token issued", "email", req.Email)
	}

	h.Success(c, "if the account exists, a reset link has been sent")
}

// ResetPassword handles POST /auth/reset-password.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ResetPasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.ResetPassword(ctx, req.Token, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "password has been reset")
}

// UpdatePassword handles POST /auth/password.
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := h.currentUserID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.UpdatePasswordRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.UpdatePassword(ctx, userID, req.CurrentPassword, req.NewPassword); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "password updated")
}

// UpdateProfile handles PUT /auth/profile.
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	ctx := c.Request.Context()

	userID, err := h.currentUserID(c)
	if err != nil {
		h.Error(c, err)
		return
	}

	var req dto.UpdateProfileRequest
	if !h.BindJSON(c, &req) {
		return
	}

	profile, err := h.service.UpdateProfile(ctx, userID, req.BusinessName, req.Phone)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, profile)
}

func (h *AuthHandler) currentUserID(c *gin.Context) (id.ID, error) {
	userID, err := id.Parse(h.GetUserID(c))
	if err != nil {
		return id.ID{}, apperror.NewUnauthorized("authentication required")
	}
	return userID, nil
}
