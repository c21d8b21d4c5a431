package common

import (
	"context"
	"strings"
)

type ctxKey string

const identityKey ctxKey = "auth/identity"

// RoleAdmin is the privileged role allowed to run back-office operations.
const RoleAdmin = "admin"

// Identity is the authenticated caller as established by the auth middleware.
type Identity struct {
	ID   string
	Role string
}

// IsAdmin reports whether the identity holds the admin role.
func (i Identity) IsAdmin() bool {
	return strings.EqualFold(i.Role, RoleAdmin)
}

// WithIdentity stores the authenticated caller on the provided context.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// IdentityFrom extracts the authenticated caller from the context if present.
func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	if !ok || id.ID == "" {
		return Identity{}, false
	}
	return id, true
}

// WithUserID stores a caller without a role.
func WithUserID(ctx context.Context, id string) context.Context {
	return WithIdentity(ctx, Identity{ID: id})
}

// UserID extracts the authenticated user identifier from the context if present.
func UserID(ctx context.Context) (string, bool) {
	id, ok := IdentityFrom(ctx)
	return id.ID, ok
}

// RequireAdmin returns AUTHORIZATION_DENIED unless the caller is an admin.
func RequireAdmin(ctx context.Context) error {
	id, ok := IdentityFrom(ctx)
	if !ok || !id.IsAdmin() {
		return ErrAuthorizationDenied
	}
	return nil
}
