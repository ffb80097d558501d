package auth

import (
	"context"

	"bookstore-be/internal/apperror"
)

var (
	ErrUnauthenticated = apperror.New(apperror.KindUnauthenticated, "authentication required")
	ErrAdminRequired   = apperror.New(apperror.KindPermissionDenied, "admin access required")
)

// Identity is the verified claims object attached to an authenticated request.
type Identity struct {
	UserID  int64
	Email   string
	IsAdmin bool
}

// RequireUser fails unless the identity belongs to an authenticated user.
func (i Identity) RequireUser() error {
	if i.UserID <= 0 {
		return ErrUnauthenticated
	}
	return nil
}

// RequireAdmin fails unless the identity carries the admin capability.
func (i Identity) RequireAdmin() error {
	if err := i.RequireUser(); err != nil {
		return err
	}
	if !i.IsAdmin {
		return ErrAdminRequired
	}
	return nil
}

// CanActFor reports whether the identity may act on rows owned by userID.
func (i Identity) CanActFor(userID int64) bool {
	return i.IsAdmin || (i.UserID > 0 && i.UserID == userID)
}

type ctxKey string

const identityKey ctxKey = "identity"

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey).(Identity)
	return id, ok
}
