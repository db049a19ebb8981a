// Package appctx provides request-scoped values extraction.
package appctx

import (
	"context"
)

// Roles known to the platform.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// UserContext contains authenticated user information.
type UserContext struct {
	UserID  string
	Email   string
	Role    string
	IsAdmin bool
}

type userContextKey struct{}

// WithUser adds UserContext to context.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey{}, user)
}

// GetUser returns UserContext from context.
func GetUser(ctx context.Context) *UserContext {
	if v, ok := ctx.Value(userContextKey{}).(*UserContext); ok {
		return v
	}
	return nil
}

// GetUserID returns the authenticated user's ID or empty string.
// Every business row is scoped to this ID (owner_id column).
func GetUserID(ctx context.Context) string {
	if u := GetUser(ctx); u != nil {
		return u.UserID
	}
	return ""
}

// IsAdmin reports whether the authenticated user is a platform administrator.
func IsAdmin(ctx context.Context) bool {
	if u := GetUser(ctx); u != nil {
		return u.IsAdmin || u.Role == RoleAdmin
	}
	return false
}
